package database

import (
	"context"
	"errors"
	"fmt"

	"studyhelper_backend/internal/config"
	"studyhelper_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ErrPrimaryNotConnected is returned by a Primary whose connection could not
// be opened at startup.
var ErrPrimaryNotConnected = errors.New("primary database not connected")

// Handle hands out a context-bound *gorm.DB for one backend.
type Handle interface {
	DB(ctx context.Context) (*gorm.DB, error)
}

// Primary is the hosted relational store. Opening it never fails hard: a
// connection error is kept and reported by Ping and DB so the caller can
// fail over.
type Primary struct {
	db      *gorm.DB
	openErr error
	driver  string
}

func OpenPrimary(cfg *config.PrimaryDatabaseConfig) *Primary {
	p := &Primary{driver: cfg.Driver}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.PrimaryDSN())
	case "postgres":
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.PrimaryDSN(),
			PreferSimpleProtocol: true,
		})
	default:
		p.openErr = fmt.Errorf("unsupported primary driver %q", cfg.Driver)
		return p
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.NewGormLogger("gorm.primary"),
	})
	if err != nil {
		p.openErr = err
		logger.Log.Warn("Primary database connection failed", zap.String("driver", cfg.Driver), zap.Error(err))
		return p
	}

	if sqlDB, err := db.DB(); err == nil {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
	}

	logger.Log.Info("Primary database connection established", zap.String("driver", cfg.Driver))
	p.db = db
	return p
}

// NewPrimaryFromDB wraps an already opened connection.
func NewPrimaryFromDB(db *gorm.DB) *Primary {
	return &Primary{db: db, driver: db.Dialector.Name()}
}

func (p *Primary) DB(ctx context.Context) (*gorm.DB, error) {
	if p.db == nil {
		return nil, fmt.Errorf("%w: %v", ErrPrimaryNotConnected, p.openErr)
	}
	return p.db.WithContext(ctx), nil
}

// Ping performs a trivial read against the primary.
func (p *Primary) Ping(ctx context.Context) error {
	db, err := p.DB(ctx)
	if err != nil {
		return err
	}
	var one int
	return db.Raw("SELECT 1").Scan(&one).Error
}

func (p *Primary) Driver() string {
	return p.driver
}

func (p *Primary) Migrate() error {
	if p.db == nil {
		return fmt.Errorf("%w: %v", ErrPrimaryNotConnected, p.openErr)
	}
	if err := p.db.AutoMigrate(PrimaryModels()...); err != nil {
		return err
	}
	logger.Log.Info("Primary database migration completed")
	return nil
}

func (p *Primary) Close() error {
	if p.db == nil {
		return nil
	}
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
