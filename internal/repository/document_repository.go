package repository

import (
	"context"
	"strings"
	"time"

	"studyhelper_backend/internal/model"
	"studyhelper_backend/pkg/database"

	"gorm.io/gorm"
)

// DocumentStore is the document table of one backend. Methods return raw
// gorm errors; a missing row is gorm.ErrRecordNotFound.
type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	FindByID(ctx context.Context, id uint) (*model.Document, error)
	IncrementDownloadCount(ctx context.Context, id uint) error
	List(ctx context.Context, userID *string, limit, offset int) ([]model.Document, error)
	Search(ctx context.Context, userID *string, term string, limit, offset int) ([]model.Document, error)
	UpdateFileURL(ctx context.Context, id uint, fileURL string) error
	Delete(ctx context.Context, id uint) error
}

// PrimaryDocumentRepository stores documents on the hosted backend.
type PrimaryDocumentRepository struct {
	DB database.Handle
}

func NewPrimaryDocumentRepository(db database.Handle) *PrimaryDocumentRepository {
	return &PrimaryDocumentRepository{DB: db}
}

func (r *PrimaryDocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	db, err := r.DB.DB(ctx)
	if err != nil {
		return err
	}
	row, err := model.NewDocumentRow(doc)
	if err != nil {
		return err
	}
	if err := db.Create(row).Error; err != nil {
		return err
	}
	*doc = row.ToDocument()
	return nil
}

func (r *PrimaryDocumentRepository) FindByID(ctx context.Context, id uint) (*model.Document, error) {
	db, err := r.DB.DB(ctx)
	if err != nil {
		return nil, err
	}
	var row model.DocumentRow
	if err := db.First(&row, "doc_id = ?", id).Error; err != nil {
		return nil, err
	}
	doc := row.ToDocument()
	return &doc, nil
}

func (r *PrimaryDocumentRepository) IncrementDownloadCount(ctx context.Context, id uint) error {
	db, err := r.DB.DB(ctx)
	if err != nil {
		return err
	}
	return db.Model(&model.DocumentRow{}).
		Where("doc_id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1)).Error
}

func (r *PrimaryDocumentRepository) List(ctx context.Context, userID *string, limit, offset int) ([]model.Document, error) {
	return r.find(ctx, userID, "", limit, offset)
}

func (r *PrimaryDocumentRepository) Search(ctx context.Context, userID *string, term string, limit, offset int) ([]model.Document, error) {
	return r.find(ctx, userID, term, limit, offset)
}

func (r *PrimaryDocumentRepository) find(ctx context.Context, userID *string, term string, limit, offset int) ([]model.Document, error) {
	db, err := r.DB.DB(ctx)
	if err != nil {
		return nil, err
	}
	var rows []model.DocumentRow
	if err := documentQuery(db.Model(&model.DocumentRow{}), userID, term, limit, offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	docs := make([]model.Document, 0, len(rows))
	for i := range rows {
		docs = append(docs, rows[i].ToDocument())
	}
	return docs, nil
}

func (r *PrimaryDocumentRepository) UpdateFileURL(ctx context.Context, id uint, fileURL string) error {
	db, err := r.DB.DB(ctx)
	if err != nil {
		return err
	}
	res := db.Model(&model.DocumentRow{}).Where("doc_id = ?", id).Update("file_url", fileURL)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *PrimaryDocumentRepository) Delete(ctx context.Context, id uint) error {
	db, err := r.DB.DB(ctx)
	if err != nil {
		return err
	}
	res := db.Delete(&model.DocumentRow{}, "doc_id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// LocalDocumentRepository stores documents in the embedded fallback, where
// resources are serialized text and downloads are timestamped.
type LocalDocumentRepository struct {
	DB database.Handle
}

func NewLocalDocumentRepository(db database.Handle) *LocalDocumentRepository {
	return &LocalDocumentRepository{DB: db}
}

func (r *LocalDocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	db, err := r.DB.DB(ctx)
	if err != nil {
		return err
	}
	row, err := model.NewLocalDocumentRow(doc)
	if err != nil {
		return err
	}
	if err := db.Create(row).Error; err != nil {
		return err
	}
	*doc = row.ToDocument()
	return nil
}

func (r *LocalDocumentRepository) FindByID(ctx context.Context, id uint) (*model.Document, error) {
	db, err := r.DB.DB(ctx)
	if err != nil {
		return nil, err
	}
	var row model.LocalDocumentRow
	if err := db.First(&row, "doc_id = ?", id).Error; err != nil {
		return nil, err
	}
	doc := row.ToDocument()
	return &doc, nil
}

func (r *LocalDocumentRepository) IncrementDownloadCount(ctx context.Context, id uint) error {
	db, err := r.DB.DB(ctx)
	if err != nil {
		return err
	}
	return db.Model(&model.LocalDocumentRow{}).
		Where("doc_id = ?", id).
		UpdateColumns(map[string]interface{}{
			"download_count":  gorm.Expr("download_count + ?", 1),
			"last_downloaded": time.Now(),
		}).Error
}

func (r *LocalDocumentRepository) List(ctx context.Context, userID *string, limit, offset int) ([]model.Document, error) {
	return r.find(ctx, userID, "", limit, offset)
}

func (r *LocalDocumentRepository) Search(ctx context.Context, userID *string, term string, limit, offset int) ([]model.Document, error) {
	return r.find(ctx, userID, term, limit, offset)
}

func (r *LocalDocumentRepository) find(ctx context.Context, userID *string, term string, limit, offset int) ([]model.Document, error) {
	db, err := r.DB.DB(ctx)
	if err != nil {
		return nil, err
	}
	var rows []model.LocalDocumentRow
	if err := documentQuery(db.Model(&model.LocalDocumentRow{}), userID, term, limit, offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	docs := make([]model.Document, 0, len(rows))
	for i := range rows {
		docs = append(docs, rows[i].ToDocument())
	}
	return docs, nil
}

func (r *LocalDocumentRepository) UpdateFileURL(ctx context.Context, id uint, fileURL string) error {
	db, err := r.DB.DB(ctx)
	if err != nil {
		return err
	}
	res := db.Model(&model.LocalDocumentRow{}).Where("doc_id = ?", id).Update("file_url", fileURL)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *LocalDocumentRepository) Delete(ctx context.Context, id uint) error {
	db, err := r.DB.DB(ctx)
	if err != nil {
		return err
	}
	res := db.Delete(&model.LocalDocumentRow{}, "doc_id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// documentQuery applies the owner filter, the optional search term and
// newest-first ordering shared by both backends.
func documentQuery(q *gorm.DB, userID *string, term string, limit, offset int) *gorm.DB {
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	if term = strings.TrimSpace(term); term != "" {
		like := "%" + escapeLike(strings.ToLower(term)) + "%"
		q = q.Where("(LOWER(topic) LIKE ? ESCAPE '!' OR LOWER(summary) LIKE ? ESCAPE '!' OR LOWER(keywords) LIKE ? ESCAPE '!')", like, like, like)
	}
	q = q.Order("doc_id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	return q
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)
	return r.Replace(s)
}
