package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"studyhelper_backend/internal/backend"
	"studyhelper_backend/internal/config"
	"studyhelper_backend/internal/model"
	"studyhelper_backend/internal/repository"
	"studyhelper_backend/pkg/database"
	"studyhelper_backend/pkg/lock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var errConnRefused = errors.New("dial tcp 10.0.0.1:5432: connect: connection refused")

// faults injects failures into one backend. Down fails every call; failOn
// fails the failAt-th call of one method.
type faults struct {
	mu     sync.Mutex
	down   bool
	failOn map[string]int
	calls  map[string]int
	err    error
}

func newFaults() *faults {
	return &faults{failOn: map[string]int{}, calls: map[string]int{}}
}

func (f *faults) setDown(down bool) {
	f.mu.Lock()
	f.down = down
	f.mu.Unlock()
}

// failAt makes the n-th call of method return err.
func (f *faults) failAt(method string, n int, err error) {
	f.mu.Lock()
	f.failOn[method] = n
	f.err = err
	f.mu.Unlock()
}

func (f *faults) hit(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errConnRefused
	}
	f.calls[method]++
	if n, ok := f.failOn[method]; ok && f.calls[method] == n {
		return f.err
	}
	return nil
}

type faultyDocumentStore struct {
	repository.DocumentStore
	f *faults
}

func (s *faultyDocumentStore) Create(ctx context.Context, doc *model.Document) error {
	if err := s.f.hit("Create"); err != nil {
		return err
	}
	return s.DocumentStore.Create(ctx, doc)
}

func (s *faultyDocumentStore) FindByID(ctx context.Context, id uint) (*model.Document, error) {
	if err := s.f.hit("FindByID"); err != nil {
		return nil, err
	}
	return s.DocumentStore.FindByID(ctx, id)
}

func (s *faultyDocumentStore) IncrementDownloadCount(ctx context.Context, id uint) error {
	if err := s.f.hit("IncrementDownloadCount"); err != nil {
		return err
	}
	return s.DocumentStore.IncrementDownloadCount(ctx, id)
}

func (s *faultyDocumentStore) List(ctx context.Context, userID *string, limit, offset int) ([]model.Document, error) {
	if err := s.f.hit("List"); err != nil {
		return nil, err
	}
	return s.DocumentStore.List(ctx, userID, limit, offset)
}

func (s *faultyDocumentStore) Delete(ctx context.Context, id uint) error {
	if err := s.f.hit("Delete"); err != nil {
		return err
	}
	return s.DocumentStore.Delete(ctx, id)
}

type faultyQuizStore struct {
	repository.QuizStore
	f *faults
}

func (s *faultyQuizStore) Atomic(ctx context.Context, fn func(repository.QuizStore) error) error {
	if err := s.f.hit("Atomic"); err != nil {
		return err
	}
	return s.QuizStore.Atomic(ctx, func(tx repository.QuizStore) error {
		return fn(&faultyQuizStore{QuizStore: tx, f: s.f})
	})
}

func (s *faultyQuizStore) CreateQuiz(ctx context.Context, quiz *model.Quiz) error {
	if err := s.f.hit("CreateQuiz"); err != nil {
		return err
	}
	return s.QuizStore.CreateQuiz(ctx, quiz)
}

func (s *faultyQuizStore) CreateQuestion(ctx context.Context, q *model.Question) error {
	if err := s.f.hit("CreateQuestion"); err != nil {
		return err
	}
	return s.QuizStore.CreateQuestion(ctx, q)
}

func (s *faultyQuizStore) CreateOption(ctx context.Context, o *model.Option) error {
	if err := s.f.hit("CreateOption"); err != nil {
		return err
	}
	return s.QuizStore.CreateOption(ctx, o)
}

func (s *faultyQuizStore) CreateQuizQuestion(ctx context.Context, l *model.QuizQuestion) error {
	if err := s.f.hit("CreateQuizQuestion"); err != nil {
		return err
	}
	return s.QuizStore.CreateQuizQuestion(ctx, l)
}

func (s *faultyQuizStore) DeleteQuestion(ctx context.Context, id uint) error {
	if err := s.f.hit("DeleteQuestion"); err != nil {
		return err
	}
	return s.QuizStore.DeleteQuestion(ctx, id)
}

func (s *faultyQuizStore) FindQuiz(ctx context.Context, id uint) (*model.Quiz, error) {
	if err := s.f.hit("FindQuiz"); err != nil {
		return nil, err
	}
	return s.QuizStore.FindQuiz(ctx, id)
}

func (s *faultyQuizStore) ListAttempts(ctx context.Context, userID string, limit int) ([]model.AttemptSummary, error) {
	if err := s.f.hit("ListAttempts"); err != nil {
		return nil, err
	}
	return s.QuizStore.ListAttempts(ctx, userID, limit)
}

type stackOptions struct {
	primaryTransactional  bool
	fallbackDisabled      bool
	fallbackTransactional bool
}

// stack is a primary and a fallback backend, both in-memory SQLite, behind
// fault injectors.
type stack struct {
	selector *backend.Selector

	primaryDB  *gorm.DB
	fallbackDB *gorm.DB

	primaryFaults  *faults
	fallbackFaults *faults

	docs    *backend.Router[repository.DocumentStore]
	quizzes *backend.Router[repository.QuizStore]
}

func memoryDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite("file:"+uuid.NewString()+"?mode=memory&cache=shared&_foreign_keys=on", name)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newStack(t *testing.T, opts stackOptions) *stack {
	t.Helper()

	primaryDB := memoryDB(t, "gorm.primary")
	primary := database.NewPrimaryFromDB(primaryDB)
	require.NoError(t, primary.Migrate())

	fallbackDB := memoryDB(t, "gorm.local")
	local := database.NewLocalFromDB(fallbackDB, opts.fallbackTransactional)

	sel := backend.NewSelector(backend.Options{
		Timeout:         2 * time.Second,
		FallbackEnabled: !opts.fallbackDisabled,
		InitFallback:    local.Init,
	})

	s := &stack{
		selector:       sel,
		primaryDB:      primaryDB,
		fallbackDB:     fallbackDB,
		primaryFaults:  newFaults(),
		fallbackFaults: newFaults(),
	}
	s.docs = backend.NewRouter[repository.DocumentStore](sel,
		&faultyDocumentStore{DocumentStore: repository.NewPrimaryDocumentRepository(primary), f: s.primaryFaults},
		&faultyDocumentStore{DocumentStore: repository.NewLocalDocumentRepository(local), f: s.fallbackFaults},
	)
	s.quizzes = backend.NewRouter[repository.QuizStore](sel,
		&faultyQuizStore{QuizStore: repository.NewQuizRepository(primary, opts.primaryTransactional), f: s.primaryFaults},
		&faultyQuizStore{QuizStore: repository.NewQuizRepository(local, opts.fallbackTransactional), f: s.fallbackFaults},
	)
	return s
}

func (s *stack) quizService(gen QuestionGenerator, fb FeedbackWriter) *QuizService {
	return NewQuizService(s.quizzes, lock.NewLocalLocker(), config.QuizConfig{
		DefaultListLimit: 20,
		MaxListLimit:     100,
		LockTTL:          5 * time.Second,
	}, gen, fb)
}

func (s *stack) documentService(storage *StorageService, sum Summarizer, res ResourceFinder) *DocumentService {
	return NewDocumentService(s.docs, storage, sum, res, NewFileTextExtractor())
}

func count(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error)
	return n
}

func strPtr(s string) *string { return &s }
