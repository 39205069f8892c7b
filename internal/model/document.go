package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// MaxTopicLength is the stored width of every topic column, in characters.
const MaxTopicLength = 255

// Resource is one related study link attached to a document.
type Resource struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Document is the canonical shape returned to callers, whichever backend
// produced the row.
// swagger:model
type Document struct {
	DocID          uint       `json:"doc_id"`
	UserID         *string    `json:"user_id"`
	Topic          string     `json:"topic"`
	Content        string     `json:"content"`
	Summary        string     `json:"summary"`
	Keywords       string     `json:"keywords,omitempty"`
	Resources      []Resource `json:"resources"`
	FileURL        string     `json:"file_url,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	DownloadCount  int        `json:"download_count"`
	LastDownloaded *time.Time `json:"last_downloaded,omitempty"`
}

// DocumentRow is the documents table on the primary backend. Resources are
// kept as native JSON.
type DocumentRow struct {
	DocID         uint           `gorm:"primaryKey;autoIncrement;column:doc_id"`
	UserID        *string        `gorm:"size:255;index"`
	Topic         string         `gorm:"size:255;not null"`
	Content       string         `gorm:"type:text"`
	Summary       string         `gorm:"type:text"`
	Keywords      string         `gorm:"type:text"`
	Resources     datatypes.JSON `gorm:"type:json"`
	FileURL       string         `gorm:"size:1024"`
	CreatedAt     time.Time      `gorm:"index"`
	DownloadCount int            `gorm:"not null;default:0"`
}

func (DocumentRow) TableName() string {
	return "documents"
}

// LocalDocumentRow is the documents table in the embedded fallback. Resources
// are serialized to text and downloads carry a timestamp.
type LocalDocumentRow struct {
	DocID          uint    `gorm:"primaryKey;autoIncrement;column:doc_id"`
	UserID         *string `gorm:"index"`
	Topic          string  `gorm:"not null"`
	Content        string
	Summary        string
	Keywords       string
	Resources      string
	FileURL        string
	CreatedAt      *time.Time
	DownloadCount  int `gorm:"not null;default:0"`
	LastDownloaded *time.Time
}

func (LocalDocumentRow) TableName() string {
	return "documents"
}

// ToDocument normalizes a primary row.
func (r *DocumentRow) ToDocument() Document {
	return Document{
		DocID:         r.DocID,
		UserID:        r.UserID,
		Topic:         r.Topic,
		Content:       r.Content,
		Summary:       r.Summary,
		Keywords:      r.Keywords,
		Resources:     decodeResources([]byte(r.Resources)),
		FileURL:       r.FileURL,
		CreatedAt:     synthesizeCreatedAt(r.CreatedAt),
		DownloadCount: r.DownloadCount,
	}
}

// ToDocument normalizes a fallback row.
func (r *LocalDocumentRow) ToDocument() Document {
	var created time.Time
	if r.CreatedAt != nil {
		created = *r.CreatedAt
	}
	return Document{
		DocID:          r.DocID,
		UserID:         r.UserID,
		Topic:          r.Topic,
		Content:        r.Content,
		Summary:        r.Summary,
		Keywords:       r.Keywords,
		Resources:      decodeResources([]byte(r.Resources)),
		FileURL:        r.FileURL,
		CreatedAt:      synthesizeCreatedAt(created),
		DownloadCount:  r.DownloadCount,
		LastDownloaded: r.LastDownloaded,
	}
}

// NewDocumentRow builds the primary row for a document.
func NewDocumentRow(d *Document) (*DocumentRow, error) {
	raw, err := EncodeResources(d.Resources)
	if err != nil {
		return nil, err
	}
	return &DocumentRow{
		UserID:    d.UserID,
		Topic:     d.Topic,
		Content:   d.Content,
		Summary:   d.Summary,
		Keywords:  d.Keywords,
		Resources: datatypes.JSON(raw),
		FileURL:   d.FileURL,
	}, nil
}

// NewLocalDocumentRow builds the fallback row for a document.
func NewLocalDocumentRow(d *Document) (*LocalDocumentRow, error) {
	raw, err := EncodeResources(d.Resources)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &LocalDocumentRow{
		UserID:    d.UserID,
		Topic:     d.Topic,
		Content:   d.Content,
		Summary:   d.Summary,
		Keywords:  d.Keywords,
		Resources: string(raw),
		FileURL:   d.FileURL,
		CreatedAt: &now,
	}, nil
}

// EncodeResources serializes resources to a JSON list, never null.
func EncodeResources(rs []Resource) ([]byte, error) {
	if rs == nil {
		rs = []Resource{}
	}
	return json.Marshal(rs)
}

// 解析失败时返回空列表，资源是不透明数据
func decodeResources(raw []byte) []Resource {
	out := []Resource{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return []Resource{}
	}
	return out
}

func synthesizeCreatedAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

// TruncateTopic cuts a topic to MaxTopicLength characters.
func TruncateTopic(topic string) string {
	runes := []rune(topic)
	if len(runes) <= MaxTopicLength {
		return topic
	}
	return string(runes[:MaxTopicLength])
}

// SummaryPreview is the list projection of a saved summary.
type SummaryPreview struct {
	DocID          uint      `json:"doc_id"`
	Topic          string    `json:"topic"`
	Summary        string    `json:"summary"`
	Keywords       string    `json:"keywords,omitempty"`
	ResourcesCount int       `json:"resources_count"`
	OriginalLength int       `json:"original_length"`
	SummaryLength  int       `json:"summary_length"`
	CreatedAt      time.Time `json:"created_at"`
	DownloadCount  int       `json:"download_count"`
	FileURL        string    `json:"file_url,omitempty"`
}
