package service

import (
	"context"
	"io"

	"studyhelper_backend/internal/model"
)

// TextExtractor turns an uploaded file into plain text. Empty text means
// extraction failed.
type TextExtractor interface {
	Extract(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Summarizer produces a summary and a comma-separated keyword list.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
	ExtractKeywords(ctx context.Context, text string) (string, error)
}

// ResourceFinder suggests related study links for a text.
type ResourceFinder interface {
	FindResources(ctx context.Context, text string) ([]model.Resource, error)
}

// GeneratedQuiz is raw generator output; it is validated before storage.
type GeneratedQuiz struct {
	Topic     string          `json:"topic"`
	Questions []QuestionInput `json:"questions"`
}

// QuestionGenerator writes multiple-choice questions from content or a topic.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, content, topic string, n int) (*GeneratedQuiz, error)
}

// FeedbackWriter writes short feedback on a quiz result.
type FeedbackWriter interface {
	PerformanceFeedback(ctx context.Context, score, total int, topic string) (string, error)
}
