package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"studyhelper_backend/internal/backend"
	"studyhelper_backend/internal/model"
	"studyhelper_backend/internal/repository"
	"studyhelper_backend/internal/util"
	"studyhelper_backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	previewLength   = 200
	derivedTopicLen = 10
	exportTopicLen  = 50
)

// SaveDocumentInput is what a caller hands to SaveDocument.
type SaveDocumentInput struct {
	UserID    *string          `json:"user_id"`
	Topic     string           `json:"topic"`
	Content   string           `json:"content"`
	Summary   string           `json:"summary"`
	Keywords  string           `json:"keywords"`
	Resources []model.Resource `json:"resources"`
	FileURL   string           `json:"file_url"`
}

// DocumentService stores and reads documents on whichever backend the
// selector allows.
type DocumentService struct {
	router     *backend.Router[repository.DocumentStore]
	storage    *StorageService
	summarizer Summarizer
	resources  ResourceFinder
	extractor  TextExtractor
}

func NewDocumentService(router *backend.Router[repository.DocumentStore], storage *StorageService,
	summarizer Summarizer, resources ResourceFinder, extractor TextExtractor) *DocumentService {
	return &DocumentService{
		router:     router,
		storage:    storage,
		summarizer: summarizer,
		resources:  resources,
		extractor:  extractor,
	}
}

func documentNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return backend.Outcome(util.ErrDocumentNotFound)
	}
	return err
}

func checkUserID(userID *string) error {
	if userID != nil && strings.TrimSpace(*userID) == "" {
		return invalid("user_id", "must not be empty")
	}
	return nil
}

// SaveDocument inserts a document. The topic is cut to 255 characters.
func (s *DocumentService) SaveDocument(ctx context.Context, in SaveDocumentInput) (*model.Document, error) {
	if err := checkUserID(in.UserID); err != nil {
		return nil, err
	}
	base := model.Document{
		UserID:    in.UserID,
		Topic:     model.TruncateTopic(in.Topic),
		Content:   in.Content,
		Summary:   in.Summary,
		Keywords:  in.Keywords,
		Resources: in.Resources,
		FileURL:   in.FileURL,
	}
	return backend.Do(ctx, s.router, "save_document", func(ctx context.Context, store repository.DocumentStore) (*model.Document, error) {
		doc := base
		if err := store.Create(ctx, &doc); err != nil {
			return nil, err
		}
		return &doc, nil
	})
}

func (s *DocumentService) GetDocument(ctx context.Context, id uint) (*model.Document, error) {
	return backend.Do(ctx, s.router, "get_document", func(ctx context.Context, store repository.DocumentStore) (*model.Document, error) {
		doc, err := store.FindByID(ctx, id)
		return doc, documentNotFound(err)
	})
}

// GetDocumentWithDownloadTracking reads the document, then bumps
// download_count. The returned document is the state before the bump. A failed
// bump is logged and does not fail the read.
func (s *DocumentService) GetDocumentWithDownloadTracking(ctx context.Context, id uint) (*model.Document, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	err = backend.Exec(ctx, s.router, "increment_download", func(ctx context.Context, store repository.DocumentStore) error {
		return store.IncrementDownloadCount(ctx, id)
	})
	if err != nil {
		logger.Log.Warn("Failed to record document download", zap.Uint("doc_id", id), zap.Error(err))
	}
	return doc, nil
}

// ListDocuments returns documents newest first. A nil userID lists every
// document and is meant for administrative callers only.
func (s *DocumentService) ListDocuments(ctx context.Context, userID *string, limit, offset int) ([]model.Document, error) {
	if err := checkUserID(userID); err != nil {
		return nil, err
	}
	return backend.Do(ctx, s.router, "list_documents", func(ctx context.Context, store repository.DocumentStore) ([]model.Document, error) {
		return store.List(ctx, userID, limit, offset)
	})
}

// SearchDocuments matches term against topic, summary and keywords.
func (s *DocumentService) SearchDocuments(ctx context.Context, userID *string, term string, limit, offset int) ([]model.Document, error) {
	if err := checkUserID(userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(term) == "" {
		return s.ListDocuments(ctx, userID, limit, offset)
	}
	return backend.Do(ctx, s.router, "search_documents", func(ctx context.Context, store repository.DocumentStore) ([]model.Document, error) {
		return store.Search(ctx, userID, term, limit, offset)
	})
}

// ListSavedSummaries is ListDocuments projected to short previews.
func (s *DocumentService) ListSavedSummaries(ctx context.Context, userID *string, limit int) ([]model.SummaryPreview, error) {
	docs, err := s.ListDocuments(ctx, userID, limit, 0)
	if err != nil {
		return nil, err
	}
	out := make([]model.SummaryPreview, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.SummaryPreview{
			DocID:          d.DocID,
			Topic:          d.Topic,
			Summary:        previewText(d.Summary, previewLength),
			Keywords:       d.Keywords,
			ResourcesCount: len(d.Resources),
			OriginalLength: utf8.RuneCountInString(d.Content),
			SummaryLength:  utf8.RuneCountInString(d.Summary),
			CreatedAt:      d.CreatedAt,
			DownloadCount:  d.DownloadCount,
			FileURL:        d.FileURL,
		})
	}
	return out, nil
}

// DeleteDocument removes a document. When userID is given the stored owner
// must match it; an unowned document is denied too.
func (s *DocumentService) DeleteDocument(ctx context.Context, id uint, userID *string) error {
	if err := checkUserID(userID); err != nil {
		return err
	}
	return backend.Exec(ctx, s.router, "delete_document", func(ctx context.Context, store repository.DocumentStore) error {
		if userID != nil {
			doc, err := store.FindByID(ctx, id)
			if err != nil {
				return documentNotFound(err)
			}
			if !ownedBy(doc.UserID, *userID) {
				return backend.Outcome(util.ErrPermissionDenied)
			}
		}
		return documentNotFound(store.Delete(ctx, id))
	})
}

func ownedBy(owner *string, userID string) bool {
	return owner != nil && *owner == userID
}

// ExportSummary writes the document as a plain-text study summary to object
// storage and returns its URL. The document's file_url is only filled in
// when it has none. A nil userID skips the owner check and is for
// administrative callers only.
func (s *DocumentService) ExportSummary(ctx context.Context, id uint, userID *string) (string, error) {
	if err := checkUserID(userID); err != nil {
		return "", err
	}
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return "", err
	}
	if userID != nil && !ownedBy(doc.UserID, *userID) {
		return "", util.ErrPermissionDenied
	}

	body := RenderSummary(doc, time.Now())
	key := fmt.Sprintf("summaries/%s_%d.txt", safeFileName(doc.Topic), doc.DocID)
	url, err := s.storage.Upload(ctx, key, strings.NewReader(body), int64(len(body)), util.MimeText)
	if err != nil {
		return "", fmt.Errorf("upload summary: %w", err)
	}

	if doc.FileURL == "" {
		err = backend.Exec(ctx, s.router, "update_file_url", func(ctx context.Context, store repository.DocumentStore) error {
			return documentNotFound(store.UpdateFileURL(ctx, id, url))
		})
		if err != nil {
			return "", err
		}
	}
	return url, nil
}

// RenderSummary formats a document as the downloadable text file.
func RenderSummary(doc *model.Document, now time.Time) string {
	var b strings.Builder
	b.WriteString("STUDY SUMMARY\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	fmt.Fprintf(&b, "Topic: %s\n\n", doc.Topic)
	if doc.Keywords != "" {
		fmt.Fprintf(&b, "Keywords: %s\n\n", doc.Keywords)
	}
	b.WriteString("Summary:\n")
	b.WriteString(strings.Repeat("-", 20) + "\n")
	b.WriteString(doc.Summary + "\n\n")
	if len(doc.Resources) > 0 {
		b.WriteString("Additional Resources:\n")
		b.WriteString(strings.Repeat("-", 30) + "\n")
		for i, r := range doc.Resources {
			fmt.Fprintf(&b, "%d. %s\n", i+1, r.Title)
			if r.URL != "" {
				fmt.Fprintf(&b, "   URL: %s\n", r.URL)
			}
			if r.Description != "" {
				fmt.Fprintf(&b, "   Description: %s\n", r.Description)
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n" + strings.Repeat("=", 50) + "\n")
	b.WriteString("Generated by StudyHelper\n")
	fmt.Fprintf(&b, "Date: %s\n", now.Format(util.TimeFormat))
	return b.String()
}

// SummarizeInput is raw text to be summarized and saved.
type SummarizeInput struct {
	UserID  *string `json:"user_id"`
	Text    string  `json:"text"`
	Topic   string  `json:"topic"`
	FileURL string  `json:"-"`
}

// SummarizeAndSave runs the summarizer, keyword extractor and resource
// finder over the text and saves the result. Keywords and resources are
// optional: their failures are logged and the document is saved without
// them.
func (s *DocumentService) SummarizeAndSave(ctx context.Context, in SummarizeInput) (*model.Document, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, util.ErrEmptyText
	}
	if s.summarizer == nil {
		return nil, util.ErrCollaboratorMissing
	}

	summary, err := s.summarizer.Summarize(ctx, text)
	if err != nil {
		return nil, err
	}

	keywords, err := s.summarizer.ExtractKeywords(ctx, text)
	if err != nil {
		logger.Log.Warn("Keyword extraction failed", zap.Error(err))
		keywords = ""
	}

	var resources []model.Resource
	if s.resources != nil {
		resources, err = s.resources.FindResources(ctx, text)
		if err != nil {
			logger.Log.Warn("Resource lookup failed", zap.Error(err))
			resources = nil
		}
	}

	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		topic = deriveTopic(text)
	}

	return s.SaveDocument(ctx, SaveDocumentInput{
		UserID:    in.UserID,
		Topic:     topic,
		Content:   text,
		Summary:   summary,
		Keywords:  keywords,
		Resources: resources,
		FileURL:   in.FileURL,
	})
}

// SummarizeFile extracts the text of an upload, keeps the original in
// storage and continues as SummarizeAndSave.
func (s *DocumentService) SummarizeFile(ctx context.Context, userID *string, filename string, r io.Reader) (*model.Document, error) {
	ext, ok := util.DocumentExtension(filename)
	if !ok {
		return nil, fmt.Errorf("%w: %s", util.ErrUnsupportedFileType, ext)
	}
	if s.extractor == nil {
		return nil, util.ErrCollaboratorMissing
	}

	data, err := io.ReadAll(io.LimitReader(r, util.MaxUploadSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > util.MaxUploadSize {
		return nil, invalid("file", "larger than %d bytes", util.MaxUploadSize)
	}
	if err := util.ValidateDocument(ext, data); err != nil {
		return nil, err
	}

	text, err := s.extractor.Extract(ctx, filename, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, util.ErrEmptyText
	}

	var fileURL string
	if s.storage != nil {
		key := "uploads/" + uuid.NewString() + ext
		fileURL, err = s.storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), mimeForExt(ext))
		if err != nil {
			logger.Log.Warn("Failed to store original upload", zap.String("filename", filename), zap.Error(err))
			fileURL = ""
		}
	}

	return s.SummarizeAndSave(ctx, SummarizeInput{
		UserID:  userID,
		Text:    text,
		Topic:   strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)),
		FileURL: fileURL,
	})
}

func mimeForExt(ext string) string {
	switch ext {
	case ".txt":
		return util.MimeText
	case ".docx":
		return util.MimeDocx
	case ".pdf":
		return util.MimePDF
	}
	return util.MimeOctetStream
}

func deriveTopic(text string) string {
	words := strings.Fields(text)
	if len(words) > derivedTopicLen {
		return strings.Join(words[:derivedTopicLen], " ") + "..."
	}
	return strings.Join(words, " ")
}

func previewText(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func safeFileName(topic string) string {
	var b strings.Builder
	for _, r := range topic {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	name := previewText(b.String(), exportTopicLen)
	name = strings.TrimSuffix(name, "...")
	if name == "" {
		return "summary"
	}
	return name
}
