package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"

	"studyhelper_backend/internal/backend"
	"studyhelper_backend/internal/config"
	"studyhelper_backend/internal/model"
	"studyhelper_backend/internal/repository"
	"studyhelper_backend/internal/util"
	"studyhelper_backend/pkg/lock"
	"studyhelper_backend/pkg/logger"
	"studyhelper_backend/pkg/monitoring"
	"studyhelper_backend/pkg/saga"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	compensationTimeout = 10 * time.Second
	defaultGenerateSize = 5
	maxGenerateSize     = 20
	recentAttempts      = 5
)

// QuestionInput is one question of a quiz to be created. A nil or zero
// MaxMarks is stored as 1.
type QuestionInput struct {
	QuestionText  string `json:"question_text" validate:"required"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option" validate:"required,oneof=A B C D"`
	MaxMarks      *int   `json:"max_marks,omitempty" validate:"omitempty,min=0"`
}

type CreateQuizInput struct {
	Topic             string          `json:"topic"`
	Questions         []QuestionInput `json:"questions"`
	UserID            *string         `json:"-"`
	PerformanceReport string          `json:"performance_report"`
}

type CreatedQuiz struct {
	QuizID         uint `json:"quiz_id"`
	TotalQuestions int  `json:"total_questions"`
}

type AttemptResult struct {
	UserQuizID        uint    `json:"user_quiz_id"`
	QuizID            uint    `json:"quiz_id"`
	Score             int     `json:"score"`
	TotalMarks        int     `json:"total_marks"`
	Percentage        float64 `json:"percentage"`
	PerformanceReport string  `json:"performance_report,omitempty"`
}

type GenerateQuizInput struct {
	Topic   string  `json:"topic"`
	Content string  `json:"content"`
	Count   int     `json:"count"`
	UserID  *string `json:"-"`
}

// QuizService owns the quiz graph. Multi-row writes run in one transaction
// where the backend allows it and are compensated step by step otherwise.
type QuizService struct {
	router    *backend.Router[repository.QuizStore]
	locker    lock.Locker
	cfg       config.QuizConfig
	generator QuestionGenerator
	feedback  FeedbackWriter
	validate  *validator.Validate
	log       *zap.Logger
}

func NewQuizService(router *backend.Router[repository.QuizStore], locker lock.Locker, cfg config.QuizConfig,
	generator QuestionGenerator, feedback FeedbackWriter) *QuizService {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &QuizService{
		router:    router,
		locker:    locker,
		cfg:       cfg,
		generator: generator,
		feedback:  feedback,
		validate:  newValidator(),
		log:       logger.Named("quiz"),
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func quizNotFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return backend.Outcome(sentinel)
	}
	return err
}

// quizErr reports a missing fallback as the quiz subsystem being down.
func quizErr(err error) error {
	if err != nil && errors.Is(err, backend.ErrFallbackDisabled) {
		return fmt.Errorf("%w: %v", util.ErrQuizUnavailable, err)
	}
	return err
}

func (s *QuizService) validateQuestions(questions []QuestionInput) ([]QuestionInput, error) {
	if len(questions) == 0 {
		return nil, invalid("questions", "at least one question is required")
	}
	out := make([]QuestionInput, len(questions))
	for i, q := range questions {
		q.QuestionText = strings.TrimSpace(q.QuestionText)
		if err := s.validate.Struct(q); err != nil {
			var fieldErrs validator.ValidationErrors
			if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
				fe := fieldErrs[0]
				return nil, invalid(fmt.Sprintf("questions[%d].%s", i, fe.Field()), "%s", fieldReason(fe))
			}
			return nil, invalid(fmt.Sprintf("questions[%d]", i), "%v", err)
		}
		marks := 1
		if q.MaxMarks != nil && *q.MaxMarks > 0 {
			marks = *q.MaxMarks
		}
		q.MaxMarks = &marks
		out[i] = q
	}
	return out, nil
}

func fieldReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of A, B, C, D, got %q", fe.Value())
	case "min":
		return "must not be negative"
	}
	return "failed " + fe.Tag()
}

// CreateQuiz validates every question, then writes the quiz, each question,
// its options and its link in input order. Nothing is written when
// validation fails.
func (s *QuizService) CreateQuiz(ctx context.Context, in CreateQuizInput) (*CreatedQuiz, error) {
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		return nil, invalid("topic", "is required")
	}
	if err := checkUserID(in.UserID); err != nil {
		return nil, err
	}
	questions, err := s.validateQuestions(in.Questions)
	if err != nil {
		return nil, err
	}

	base := model.Quiz{
		Topic:             model.TruncateTopic(topic),
		UserID:            in.UserID,
		PerformanceReport: in.PerformanceReport,
		TotalQuestions:    len(questions),
	}
	created, err := backend.Do(ctx, s.router, "create_quiz", func(ctx context.Context, store repository.QuizStore) (*CreatedQuiz, error) {
		quiz := base
		if err := s.writeQuiz(ctx, store, &quiz, questions); err != nil {
			return nil, err
		}
		return &CreatedQuiz{QuizID: quiz.QuizID, TotalQuestions: quiz.TotalQuestions}, nil
	})
	return created, quizErr(err)
}

func (s *QuizService) writeQuiz(ctx context.Context, store repository.QuizStore, quiz *model.Quiz, questions []QuestionInput) error {
	undo := saga.New()
	step := "quiz"
	written := 0

	err := store.Atomic(ctx, func(tx repository.QuizStore) error {
		compensate := !tx.Transactional()
		if err := tx.CreateQuiz(ctx, quiz); err != nil {
			return err
		}
		written++
		quizID := quiz.QuizID
		if compensate {
			undo.Add("quiz", func(ctx context.Context) error { return tx.DeleteQuiz(ctx, quizID) })
		}

		for i, in := range questions {
			n := i + 1

			step = fmt.Sprintf("question %d", n)
			question := model.Question{QuestionText: in.QuestionText}
			if err := tx.CreateQuestion(ctx, &question); err != nil {
				return err
			}
			questionID := question.QuestionID
			if compensate {
				undo.Add(step, func(ctx context.Context) error { return tx.DeleteQuestion(ctx, questionID) })
			}

			step = fmt.Sprintf("options %d", n)
			option := model.Option{
				QuestionID:    questionID,
				OptionA:       in.OptionA,
				OptionB:       in.OptionB,
				OptionC:       in.OptionC,
				OptionD:       in.OptionD,
				CorrectOption: in.CorrectOption,
			}
			if err := tx.CreateOption(ctx, &option); err != nil {
				return err
			}
			if compensate {
				undo.Add(step, func(ctx context.Context) error { return tx.DeleteOption(ctx, questionID) })
			}

			step = fmt.Sprintf("link %d", n)
			link := model.QuizQuestion{
				QuizID:        quizID,
				QuestionID:    questionID,
				QuestionOrder: n,
				MaxMarks:      *in.MaxMarks,
			}
			if err := tx.CreateQuizQuestion(ctx, &link); err != nil {
				return err
			}
			if compensate {
				linkID := link.ID
				undo.Add(step, func(ctx context.Context) error { return tx.DeleteQuizQuestion(ctx, linkID) })
			}
		}
		return nil
	})
	if err == nil || written == 0 {
		return err
	}
	return s.partialWrite(ctx, "create_quiz", step, err, store.Transactional(), undo)
}

// partialWrite undoes a failed multi-row write and reports what happened.
// A transactional backend has already rolled back.
func (s *QuizService) partialWrite(ctx context.Context, op, step string, err error, transactional bool, undo *saga.Saga) error {
	pw := &PartialWriteError{Op: op, Step: step, Err: err, RolledBack: transactional}
	if transactional {
		monitoring.SagaCompensations.WithLabelValues("rolled_back").Inc()
		s.log.Warn("Quiz write rolled back", zap.String("op", op), zap.String("step", step), zap.Error(err))
		return pw
	}

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()
	if cerr := undo.Compensate(cctx); cerr != nil {
		pw.CompensationErr = cerr
		monitoring.SagaCompensations.WithLabelValues("failed").Inc()
		s.log.Error("Compensation failed, rows left behind need manual cleanup",
			zap.String("op", op), zap.String("step", step), zap.Error(err), zap.NamedError("compensation", cerr))
		return pw
	}
	monitoring.SagaCompensations.WithLabelValues("ok").Inc()
	s.log.Warn("Quiz write compensated", zap.String("op", op), zap.String("step", step), zap.Error(err))
	return pw
}

// GetQuiz returns the answer-complete quiz. Callers showing it to someone
// taking the quiz must use QuizDetail.Redact.
func (s *QuizService) GetQuiz(ctx context.Context, quizID uint) (*model.QuizDetail, error) {
	detail, err := backend.Do(ctx, s.router, "get_quiz", func(ctx context.Context, store repository.QuizStore) (*model.QuizDetail, error) {
		quiz, err := store.FindQuiz(ctx, quizID)
		if err != nil {
			return nil, quizNotFound(err, util.ErrQuizNotFound)
		}
		questions, err := store.ListQuizQuestions(ctx, quizID)
		if err != nil {
			return nil, err
		}
		return &model.QuizDetail{
			QuizID:            quiz.QuizID,
			Topic:             quiz.Topic,
			UserID:            quiz.UserID,
			PerformanceReport: quiz.PerformanceReport,
			TotalQuestions:    len(questions),
			CreatedAt:         quiz.CreatedAt,
			Questions:         questions,
		}, nil
	})
	return detail, quizErr(err)
}

func attemptLockKey(userID string, quizID uint) string {
	return fmt.Sprintf("attempt:%s:%d", userID, quizID)
}

// SubmitAttempt grades answers and stores them as the user's only attempt at
// the quiz, replacing an earlier one. Submissions for the same user and quiz
// are serialized. With feedback set, generated feedback is stored as the
// quiz's performance report.
func (s *QuizService) SubmitAttempt(ctx context.Context, userID string, quizID uint, answers []AnswerInput, feedback bool) (*AttemptResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalid("user_id", "is required")
	}

	result, topic, err := s.recordAttempt(ctx, userID, quizID, answers)
	if err != nil {
		return nil, quizErr(err)
	}

	if feedback && s.feedback != nil {
		s.attachFeedback(ctx, result, topic)
	}
	return result, nil
}

func (s *QuizService) recordAttempt(ctx context.Context, userID string, quizID uint, answers []AnswerInput) (*AttemptResult, string, error) {
	release, err := s.locker.Acquire(ctx, attemptLockKey(userID, quizID), s.cfg.LockTTL)
	if err != nil {
		return nil, "", fmt.Errorf("acquire attempt lock: %w", err)
	}
	defer func() {
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			s.log.Warn("Failed to release attempt lock", zap.String("user_id", userID), zap.Uint("quiz_id", quizID), zap.Error(rerr))
		}
	}()

	var topic string
	result, err := backend.Do(ctx, s.router, "submit_attempt", func(ctx context.Context, store repository.QuizStore) (*AttemptResult, error) {
		quiz, err := store.FindQuiz(ctx, quizID)
		if err != nil {
			return nil, quizNotFound(err, util.ErrQuizNotFound)
		}
		questions, err := store.ListQuizQuestions(ctx, quizID)
		if err != nil {
			return nil, err
		}
		topic = quiz.Topic

		scored := Grade(questions, answers)
		attempt := model.UserQuizAttempt{
			UserID:     userID,
			QuizID:     quizID,
			Score:      scored.Score,
			TotalMarks: scored.TotalMarks,
			Percentage: scored.Percentage,
			TakenDate:  time.Now(),
		}

		err = store.Atomic(ctx, func(tx repository.QuizStore) error {
			existing, err := tx.FindAttempt(ctx, userID, quizID)
			switch {
			case err == nil:
				attempt.UserQuizID = existing.UserQuizID
				if err := tx.UpdateAttemptScore(ctx, &attempt); err != nil {
					return err
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.CreateAttempt(ctx, &attempt); err != nil {
					return err
				}
			default:
				return err
			}

			if err := tx.DeleteAnswers(ctx, attempt.UserQuizID); err != nil {
				return err
			}
			for i := range scored.Answers {
				scored.Answers[i].UserQuizID = attempt.UserQuizID
			}
			return tx.CreateAnswers(ctx, scored.Answers)
		})
		if err != nil {
			return nil, err
		}

		return &AttemptResult{
			UserQuizID: attempt.UserQuizID,
			QuizID:     quizID,
			Score:      attempt.Score,
			TotalMarks: attempt.TotalMarks,
			Percentage: attempt.Percentage,
		}, nil
	})
	return result, topic, err
}

func (s *QuizService) attachFeedback(ctx context.Context, result *AttemptResult, topic string) {
	text, err := s.feedback.PerformanceFeedback(ctx, result.Score, result.TotalMarks, topic)
	if err != nil {
		s.log.Warn("Performance feedback failed", zap.Uint("quiz_id", result.QuizID), zap.Error(err))
		return
	}
	err = backend.Exec(ctx, s.router, "update_performance_report", func(ctx context.Context, store repository.QuizStore) error {
		return quizNotFound(store.UpdatePerformanceReport(ctx, result.QuizID, text), util.ErrQuizNotFound)
	})
	if err != nil {
		s.log.Warn("Failed to store performance report", zap.Uint("quiz_id", result.QuizID), zap.Error(err))
		return
	}
	result.PerformanceReport = text
}

func (s *QuizService) listLimit(limit int) int {
	if limit <= 0 {
		limit = s.cfg.DefaultListLimit
	}
	if s.cfg.MaxListLimit > 0 && limit > s.cfg.MaxListLimit {
		limit = s.cfg.MaxListLimit
	}
	return limit
}

// ListAttempts returns the user's attempts with quiz topics, newest first.
func (s *QuizService) ListAttempts(ctx context.Context, userID string, limit int) ([]model.AttemptSummary, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalid("user_id", "is required")
	}
	limit = s.listLimit(limit)
	rows, err := backend.Do(ctx, s.router, "list_attempts", func(ctx context.Context, store repository.QuizStore) ([]model.AttemptSummary, error) {
		return store.ListAttempts(ctx, userID, limit)
	})
	return rows, quizErr(err)
}

// GetAttemptDetail returns an attempt with every question of its quiz in
// order and what the user picked. A non-nil userID must own the attempt;
// nil skips the check and is for administrative callers only.
func (s *QuizService) GetAttemptDetail(ctx context.Context, userQuizID uint, userID *string) (*model.AttemptDetail, error) {
	detail, err := backend.Do(ctx, s.router, "get_attempt_detail", func(ctx context.Context, store repository.QuizStore) (*model.AttemptDetail, error) {
		attempt, err := store.FindAttemptByID(ctx, userQuizID)
		if err != nil {
			return nil, quizNotFound(err, util.ErrAttemptNotFound)
		}
		if userID != nil && attempt.UserID != *userID {
			return nil, backend.Outcome(util.ErrPermissionDenied)
		}
		quiz, err := store.FindQuiz(ctx, attempt.QuizID)
		if err != nil {
			return nil, quizNotFound(err, util.ErrQuizNotFound)
		}
		questions, err := store.ListQuizQuestions(ctx, attempt.QuizID)
		if err != nil {
			return nil, err
		}
		answers, err := store.ListAnswers(ctx, userQuizID)
		if err != nil {
			return nil, err
		}

		byQuestion := make(map[uint]model.UserAnswer, len(answers))
		for _, a := range answers {
			byQuestion[a.QuestionID] = a
		}

		out := &model.AttemptDetail{
			AttemptSummary: model.AttemptSummary{
				UserQuizID: attempt.UserQuizID,
				UserID:     attempt.UserID,
				QuizID:     attempt.QuizID,
				Topic:      quiz.Topic,
				Score:      attempt.Score,
				TotalMarks: attempt.TotalMarks,
				Percentage: attempt.Percentage,
				TakenDate:  attempt.TakenDate,
			},
			Answers: make([]model.AttemptAnswerDetail, 0, len(questions)),
		}
		for _, q := range questions {
			row := model.AttemptAnswerDetail{
				QuestionID:    q.QuestionID,
				QuestionText:  q.QuestionText,
				OptionA:       q.OptionA,
				OptionB:       q.OptionB,
				OptionC:       q.OptionC,
				OptionD:       q.OptionD,
				CorrectOption: q.CorrectOption,
				MaxMarks:      q.MaxMarks,
				QuestionOrder: q.QuestionOrder,
			}
			if a, ok := byQuestion[q.QuestionID]; ok {
				row.SelectedOption = a.SelectedOption
				row.AwardedMarks = a.AwardedMarks
				row.IsCorrect = a.SelectedOption != nil && *a.SelectedOption == q.CorrectOption
			}
			out.Answers = append(out.Answers, row)
		}
		return out, nil
	})
	return detail, quizErr(err)
}

// QuizAnalytics aggregates every attempt at a quiz.
func (s *QuizService) QuizAnalytics(ctx context.Context, quizID uint) (*model.QuizAnalytics, error) {
	stats, err := backend.Do(ctx, s.router, "quiz_analytics", func(ctx context.Context, store repository.QuizStore) (*model.QuizAnalytics, error) {
		quiz, err := store.FindQuiz(ctx, quizID)
		if err != nil {
			return nil, quizNotFound(err, util.ErrQuizNotFound)
		}
		questions, err := store.ListQuizQuestions(ctx, quizID)
		if err != nil {
			return nil, err
		}
		attempts, err := store.ListQuizAttempts(ctx, quizID)
		if err != nil {
			return nil, err
		}
		answers, err := store.ListQuizAnswers(ctx, quizID)
		if err != nil {
			return nil, err
		}
		return buildAnalytics(quiz, questions, attempts, answers), nil
	})
	return stats, quizErr(err)
}

func buildAnalytics(quiz *model.Quiz, questions []model.QuizQuestionDetail, attempts []model.UserQuizAttempt, answers []model.UserAnswer) *model.QuizAnalytics {
	out := &model.QuizAnalytics{
		QuizID:    quiz.QuizID,
		Topic:     quiz.Topic,
		Attempts:  len(attempts),
		Questions: make([]model.QuestionStat, 0, len(questions)),
	}

	if len(attempts) > 0 {
		sum := 0.0
		out.HighestPercentage = attempts[0].Percentage
		out.LowestPercentage = attempts[0].Percentage
		for _, a := range attempts {
			sum += a.Percentage
			if a.Percentage > out.HighestPercentage {
				out.HighestPercentage = a.Percentage
			}
			if a.Percentage < out.LowestPercentage {
				out.LowestPercentage = a.Percentage
			}
		}
		out.AveragePercentage = round2(sum / float64(len(attempts)))
	}

	correctOf := make(map[uint]string, len(questions))
	for _, q := range questions {
		correctOf[q.QuestionID] = q.CorrectOption
	}
	answered := make(map[uint]int, len(questions))
	correct := make(map[uint]int, len(questions))
	for _, a := range answers {
		answered[a.QuestionID]++
		if a.SelectedOption != nil && *a.SelectedOption == correctOf[a.QuestionID] {
			correct[a.QuestionID]++
		}
	}

	for _, q := range questions {
		out.Questions = append(out.Questions, model.QuestionStat{
			QuestionID:    q.QuestionID,
			QuestionOrder: q.QuestionOrder,
			QuestionText:  q.QuestionText,
			Answered:      answered[q.QuestionID],
			Correct:       correct[q.QuestionID],
			CorrectRate:   Percentage(correct[q.QuestionID], answered[q.QuestionID]),
		})
	}
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// UserPerformance summarizes every attempt of a user.
func (s *QuizService) UserPerformance(ctx context.Context, userID string) (*model.UserPerformance, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalid("user_id", "is required")
	}
	attempts, err := backend.Do(ctx, s.router, "user_performance", func(ctx context.Context, store repository.QuizStore) ([]model.AttemptSummary, error) {
		return store.ListAttempts(ctx, userID, 0)
	})
	if err != nil {
		return nil, quizErr(err)
	}
	return buildPerformance(userID, attempts), nil
}

func buildPerformance(userID string, attempts []model.AttemptSummary) *model.UserPerformance {
	out := &model.UserPerformance{
		UserID:           userID,
		TotalQuizzes:     len(attempts),
		RecentAttempts:   []model.AttemptSummary{},
		TopicPerformance: []model.TopicPerformance{},
	}
	if len(attempts) == 0 {
		return out
	}

	type topicAcc struct {
		n   int
		sum float64
	}
	topics := map[string]*topicAcc{}
	sum := 0.0
	for _, a := range attempts {
		sum += a.Percentage
		if a.Percentage > out.HighestPercentage {
			out.HighestPercentage = a.Percentage
		}
		out.TotalQuestions += a.TotalMarks
		out.CorrectAnswers += a.Score

		acc, ok := topics[a.Topic]
		if !ok {
			acc = &topicAcc{}
			topics[a.Topic] = acc
		}
		acc.n++
		acc.sum += a.Percentage
	}
	out.AveragePercentage = round2(sum / float64(len(attempts)))
	out.AccuracyRate = Percentage(out.CorrectAnswers, out.TotalQuestions)

	n := len(attempts)
	if n > recentAttempts {
		n = recentAttempts
	}
	out.RecentAttempts = append(out.RecentAttempts, attempts[:n]...)

	for topic, acc := range topics {
		out.TopicPerformance = append(out.TopicPerformance, model.TopicPerformance{
			Topic:             topic,
			Attempts:          acc.n,
			AveragePercentage: round2(acc.sum / float64(acc.n)),
		})
	}
	sort.Slice(out.TopicPerformance, func(i, j int) bool {
		a, b := out.TopicPerformance[i], out.TopicPerformance[j]
		if a.Attempts != b.Attempts {
			return a.Attempts > b.Attempts
		}
		return a.Topic < b.Topic
	})
	return out
}

// SaveQuizAs copies the attempt's quiz under a new title, linking the same
// questions in the same order, and moves the attempt onto the copy.
func (s *QuizService) SaveQuizAs(ctx context.Context, userQuizID uint, userID, title string) (*CreatedQuiz, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalid("custom_title", "is required")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, invalid("user_id", "is required")
	}

	findOwned := func(ctx context.Context, store repository.QuizStore) (*model.UserQuizAttempt, error) {
		attempt, err := store.FindAttemptByID(ctx, userQuizID)
		if err != nil {
			return nil, quizNotFound(err, util.ErrAttemptNotFound)
		}
		if attempt.UserID != userID {
			return nil, backend.Outcome(util.ErrPermissionDenied)
		}
		return attempt, nil
	}

	found, err := backend.Do(ctx, s.router, "find_attempt", findOwned)
	if err != nil {
		return nil, quizErr(err)
	}
	sourceQuizID := found.QuizID

	// 与提交作答共用同一把锁，避免复制期间答案被覆盖
	release, err := s.locker.Acquire(ctx, attemptLockKey(userID, sourceQuizID), s.cfg.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire attempt lock: %w", err)
	}
	defer func() {
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			s.log.Warn("Failed to release attempt lock", zap.String("user_id", userID), zap.Uint("quiz_id", sourceQuizID), zap.Error(rerr))
		}
	}()

	created, err := backend.Do(ctx, s.router, "save_quiz_as", func(ctx context.Context, store repository.QuizStore) (*CreatedQuiz, error) {
		attempt, err := findOwned(ctx, store)
		if err != nil {
			return nil, err
		}
		if attempt.QuizID != sourceQuizID {
			return nil, backend.Outcome(util.ErrAttemptChanged)
		}
		links, err := store.ListQuizLinks(ctx, attempt.QuizID)
		if err != nil {
			return nil, err
		}

		owner := userID
		quiz := model.Quiz{Topic: model.TruncateTopic(title), UserID: &owner, TotalQuestions: len(links)}
		if err := s.copyQuiz(ctx, store, &quiz, links, attempt); err != nil {
			return nil, err
		}
		return &CreatedQuiz{QuizID: quiz.QuizID, TotalQuestions: quiz.TotalQuestions}, nil
	})
	return created, quizErr(err)
}

func (s *QuizService) copyQuiz(ctx context.Context, store repository.QuizStore, quiz *model.Quiz, links []model.QuizQuestion, attempt *model.UserQuizAttempt) error {
	undo := saga.New()
	step := "quiz"
	written := 0

	err := store.Atomic(ctx, func(tx repository.QuizStore) error {
		compensate := !tx.Transactional()
		if err := tx.CreateQuiz(ctx, quiz); err != nil {
			return err
		}
		written++
		quizID := quiz.QuizID
		if compensate {
			undo.Add("quiz", func(ctx context.Context) error { return tx.DeleteQuiz(ctx, quizID) })
			undo.Add("links", func(ctx context.Context) error { return tx.DeleteQuizQuestions(ctx, quizID) })
		}

		for _, l := range links {
			step = fmt.Sprintf("link %d", l.QuestionOrder)
			link := model.QuizQuestion{
				QuizID:        quizID,
				QuestionID:    l.QuestionID,
				QuestionOrder: l.QuestionOrder,
				MaxMarks:      l.MaxMarks,
			}
			if err := tx.CreateQuizQuestion(ctx, &link); err != nil {
				return err
			}
		}

		step = "repoint attempt"
		if err := tx.RepointAttempt(ctx, attempt.UserQuizID, quizID); err != nil {
			return err
		}
		return nil
	})
	if err == nil || written == 0 {
		return err
	}
	return s.partialWrite(ctx, "save_quiz_as", step, err, store.Transactional(), undo)
}

// DeleteQuiz removes a quiz with its links, attempts and answers. Question
// and option rows stay. A non-nil userID must own the quiz; nil skips the
// check and is for administrative callers only.
func (s *QuizService) DeleteQuiz(ctx context.Context, quizID uint, userID *string) error {
	if err := checkUserID(userID); err != nil {
		return err
	}
	err := backend.Exec(ctx, s.router, "delete_quiz", func(ctx context.Context, store repository.QuizStore) error {
		quiz, err := store.FindQuiz(ctx, quizID)
		if err != nil {
			return quizNotFound(err, util.ErrQuizNotFound)
		}
		if userID != nil && !ownedBy(quiz.UserID, *userID) {
			return backend.Outcome(util.ErrPermissionDenied)
		}
		// the quiz row goes last so an interrupted delete can be retried
		return store.Atomic(ctx, func(tx repository.QuizStore) error {
			if err := tx.DeleteQuizAttempts(ctx, quizID); err != nil {
				return err
			}
			if err := tx.DeleteQuizQuestions(ctx, quizID); err != nil {
				return err
			}
			return tx.DeleteQuiz(ctx, quizID)
		})
	})
	return quizErr(err)
}

// GenerateQuiz asks the question generator for a quiz on a topic or over
// some content and stores it through CreateQuiz.
func (s *QuizService) GenerateQuiz(ctx context.Context, in GenerateQuizInput) (*CreatedQuiz, error) {
	if s.generator == nil {
		return nil, util.ErrCollaboratorMissing
	}
	topic := strings.TrimSpace(in.Topic)
	if topic == "" && strings.TrimSpace(in.Content) == "" {
		return nil, invalid("topic", "topic or content is required")
	}
	n := in.Count
	if n <= 0 {
		n = defaultGenerateSize
	}
	if n > maxGenerateSize {
		n = maxGenerateSize
	}

	gen, err := s.generator.GenerateQuestions(ctx, in.Content, topic, n)
	if err != nil {
		return nil, err
	}
	for i := range gen.Questions {
		gen.Questions[i].CorrectOption = strings.ToUpper(strings.TrimSpace(gen.Questions[i].CorrectOption))
	}
	if topic == "" {
		topic = gen.Topic
	}
	if topic == "" {
		topic = deriveTopic(in.Content)
	}

	return s.CreateQuiz(ctx, CreateQuizInput{
		Topic:     topic,
		Questions: gen.Questions,
		UserID:    in.UserID,
	})
}
