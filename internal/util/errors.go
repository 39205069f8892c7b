package util

import "errors"

var (
	ErrDocumentNotFound    = errors.New("document not found")
	ErrQuizNotFound        = errors.New("quiz not found")
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrAttemptChanged      = errors.New("attempt was moved to another quiz")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrQuizUnavailable     = errors.New("quiz subsystem unavailable")
	ErrEmptyText           = errors.New("no text could be extracted")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrCollaboratorMissing = errors.New("generation service not configured")
)
