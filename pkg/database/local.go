package database

import (
	"context"
	"fmt"
	"sync"

	"studyhelper_backend/internal/config"
	"studyhelper_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Local is the embedded SQLite fallback. The file is opened and the schema
// created on first use; Init is safe to call any number of times and a
// failed attempt is retried by the next call.
type Local struct {
	dsn           string
	transactional bool

	mu    sync.Mutex
	db    *gorm.DB
	ready bool
}

func NewLocal(cfg *config.FallbackDatabaseConfig) *Local {
	return &Local{
		dsn:           fmt.Sprintf("%s?_busy_timeout=5000&_foreign_keys=on", cfg.Path),
		transactional: cfg.Transactional,
	}
}

// NewLocalFromDB uses an already opened connection. The schema is still
// created lazily.
func NewLocalFromDB(db *gorm.DB, transactional bool) *Local {
	return &Local{db: db, transactional: transactional}
}

func (l *Local) Init(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ready {
		return nil
	}

	if l.db == nil {
		db, err := OpenSQLite(l.dsn, "gorm.local")
		if err != nil {
			return fmt.Errorf("open local database: %w", err)
		}
		l.db = db
	}

	if err := l.db.WithContext(ctx).AutoMigrate(LocalModels()...); err != nil {
		return fmt.Errorf("create local schema: %w", err)
	}

	l.ready = true
	logger.Log.Info("Local fallback schema ready", zap.Bool("transactional", l.transactional))
	return nil
}

func (l *Local) Ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ready
}

// Transactional reports whether multi-statement writes may run inside one
// database transaction on this backend.
func (l *Local) Transactional() bool {
	return l.transactional
}

func (l *Local) DB(ctx context.Context) (*gorm.DB, error) {
	if err := l.Init(ctx); err != nil {
		return nil, err
	}
	return l.db.WithContext(ctx), nil
}

func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil
	}
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// OpenSQLite opens a SQLite database with a single connection, which keeps
// writers serialized and in-memory databases shared.
func OpenSQLite(dsn, name string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.NewGormLogger(name),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}
