package repository

import (
	"context"

	"studyhelper_backend/internal/model"
	"studyhelper_backend/pkg/database"

	"gorm.io/gorm"
)

// QuizStore is the quiz graph (quizzes, questions, options, links, attempts
// and answers) of one backend. Methods return raw gorm errors.
type QuizStore interface {
	// Transactional reports whether Atomic runs its callback inside a
	// database transaction. When false, callers must compensate themselves.
	Transactional() bool
	Atomic(ctx context.Context, fn func(QuizStore) error) error

	CreateQuiz(ctx context.Context, quiz *model.Quiz) error
	CreateQuestion(ctx context.Context, question *model.Question) error
	CreateOption(ctx context.Context, option *model.Option) error
	CreateQuizQuestion(ctx context.Context, link *model.QuizQuestion) error
	DeleteQuiz(ctx context.Context, quizID uint) error
	DeleteQuestion(ctx context.Context, questionID uint) error
	DeleteOption(ctx context.Context, questionID uint) error
	DeleteQuizQuestion(ctx context.Context, linkID uint) error
	DeleteQuizQuestions(ctx context.Context, quizID uint) error

	FindQuiz(ctx context.Context, quizID uint) (*model.Quiz, error)
	UpdatePerformanceReport(ctx context.Context, quizID uint, report string) error
	ListQuizQuestions(ctx context.Context, quizID uint) ([]model.QuizQuestionDetail, error)
	ListQuizLinks(ctx context.Context, quizID uint) ([]model.QuizQuestion, error)

	FindAttempt(ctx context.Context, userID string, quizID uint) (*model.UserQuizAttempt, error)
	FindAttemptByID(ctx context.Context, userQuizID uint) (*model.UserQuizAttempt, error)
	CreateAttempt(ctx context.Context, attempt *model.UserQuizAttempt) error
	UpdateAttemptScore(ctx context.Context, attempt *model.UserQuizAttempt) error
	RepointAttempt(ctx context.Context, userQuizID, quizID uint) error
	DeleteAnswers(ctx context.Context, userQuizID uint) error
	CreateAnswers(ctx context.Context, answers []model.UserAnswer) error
	ListAnswers(ctx context.Context, userQuizID uint) ([]model.UserAnswer, error)
	ListAttempts(ctx context.Context, userID string, limit int) ([]model.AttemptSummary, error)
	ListQuizAttempts(ctx context.Context, quizID uint) ([]model.UserQuizAttempt, error)
	ListQuizAnswers(ctx context.Context, quizID uint) ([]model.UserAnswer, error)
	DeleteQuizAttempts(ctx context.Context, quizID uint) error
}

// QuizRepository implements QuizStore over gorm for either backend.
type QuizRepository struct {
	DB            database.Handle
	tx            *gorm.DB
	transactional bool
}

func NewQuizRepository(db database.Handle, transactional bool) *QuizRepository {
	return &QuizRepository{DB: db, transactional: transactional}
}

func (r *QuizRepository) conn(ctx context.Context) (*gorm.DB, error) {
	if r.tx != nil {
		return r.tx.WithContext(ctx), nil
	}
	return r.DB.DB(ctx)
}

func (r *QuizRepository) Transactional() bool {
	return r.transactional
}

func (r *QuizRepository) Atomic(ctx context.Context, fn func(QuizStore) error) error {
	if !r.transactional || r.tx != nil {
		return fn(r)
	}
	db, err := r.DB.DB(ctx)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		return fn(&QuizRepository{DB: r.DB, tx: tx, transactional: true})
	})
}

func (r *QuizRepository) CreateQuiz(ctx context.Context, quiz *model.Quiz) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return db.Create(quiz).Error
}

func (r *QuizRepository) CreateQuestion(ctx context.Context, question *model.Question) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return db.Create(question).Error
}

func (r *QuizRepository) CreateOption(ctx context.Context, option *model.Option) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return db.Create(option).Error
}

func (r *QuizRepository) CreateQuizQuestion(ctx context.Context, link *model.QuizQuestion) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return db.Create(link).Error
}

func (r *QuizRepository) DeleteQuiz(ctx context.Context, quizID uint) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return db.Delete(&model.Quiz{}, "quiz_id = ?", quizID).Error
}

func (r *QuizRepository) DeleteQuestion(ctx context.Context, questionID uint) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return db.Delete(&model.Question{}, "question_id = ?", questionID).Error
}

func (r *QuizRepository) DeleteOption(ctx context.Context, questionID uint) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return db.Delete(&model.Option{}, "question_id = ?", questionID).Error
}

func (r *QuizRepository) DeleteQuizQuestion(ctx context.Context, linkID uint) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return db.Delete(&model.QuizQuestion{}, "id = ?", linkID).Error
}

func (r *QuizRepository) DeleteQuizQuestions(ctx context.Context, quizID uint) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return db.Delete(&model.QuizQuestion{}, "quiz_id = ?", quizID).Error
}

func (r *QuizRepository) FindQuiz(ctx context.Context, quizID uint) (*model.Quiz, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var quiz model.Quiz
	if err := db.First(&quiz, "quiz_id = ?", quizID).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) UpdatePerformanceReport(ctx context.Context, quizID uint, report string) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	res := db.Model(&model.Quiz{}).Where("quiz_id = ?", quizID).Update("performance_report", report)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *QuizRepository) ListQuizQuestions(ctx context.Context, quizID uint) ([]model.QuizQuestionDetail, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var rows []model.QuizQuestionDetail
	err = db.Table("quiz_questions AS qq").
		Select("q.question_id, q.question_text, o.option_a, o.option_b, o.option_c, o.option_d, o.correct_option, qq.question_order, qq.max_marks").
		Joins("JOIN questions AS q ON q.question_id = qq.question_id").
		Joins("JOIN options AS o ON o.question_id = qq.question_id").
		Where("qq.quiz_id = ?", quizID).
		Order("qq.question_order ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *QuizRepository) ListQuizLinks(ctx context.Context, quizID uint) ([]model.QuizQuestion, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var links []model.QuizQuestion
	err = db.Where("quiz_id = ?", quizID).Order("question_order ASC").Find(&links).Error
	return links, err
}

func (r *QuizRepository) FindAttempt(ctx context.Context, userID string, quizID uint) (*model.UserQuizAttempt, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var attempt model.UserQuizAttempt
	if err := db.Where("user_id = ? AND quiz_id = ?", userID, quizID).First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *QuizRepository) FindAttemptByID(ctx context.Context, userQuizID uint) (*model.UserQuizAttempt, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var attempt model.UserQuizAttempt
	if err := db.First(&attempt, "user_quiz_id = ?", userQuizID).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *QuizRepository) CreateAttempt(ctx context.Context, attempt *model.UserQuizAttempt) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return db.Create(attempt).Error
}

func (r *QuizRepository) UpdateAttemptScore(ctx context.Context, attempt *model.UserQuizAttempt) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return db.Model(&model.UserQuizAttempt{}).
		Where("user_quiz_id = ?", attempt.UserQuizID).
		Updates(map[string]interface{}{
			"score":       attempt.Score,
			"total_marks": attempt.TotalMarks,
			"percentage":  attempt.Percentage,
			"taken_date":  attempt.TakenDate,
		}).Error
}

func (r *QuizRepository) RepointAttempt(ctx context.Context, userQuizID, quizID uint) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	res := db.Model(&model.UserQuizAttempt{}).Where("user_quiz_id = ?", userQuizID).Update("quiz_id", quizID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *QuizRepository) DeleteAnswers(ctx context.Context, userQuizID uint) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return db.Delete(&model.UserAnswer{}, "user_quiz_id = ?", userQuizID).Error
}

func (r *QuizRepository) CreateAnswers(ctx context.Context, answers []model.UserAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return db.Create(&answers).Error
}

func (r *QuizRepository) ListAnswers(ctx context.Context, userQuizID uint) ([]model.UserAnswer, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var answers []model.UserAnswer
	err = db.Where("user_quiz_id = ?", userQuizID).Order("answer_id ASC").Find(&answers).Error
	return answers, err
}

func (r *QuizRepository) ListAttempts(ctx context.Context, userID string, limit int) ([]model.AttemptSummary, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var rows []model.AttemptSummary
	q := db.Table("user_quiz_attempts AS a").
		Select("a.user_quiz_id, a.user_id, a.quiz_id, z.topic, a.score, a.total_marks, a.percentage, a.taken_date").
		Joins("JOIN quizzes AS z ON z.quiz_id = a.quiz_id").
		Where("a.user_id = ?", userID).
		Order("a.taken_date DESC, a.user_quiz_id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err = q.Scan(&rows).Error
	return rows, err
}

func (r *QuizRepository) ListQuizAttempts(ctx context.Context, quizID uint) ([]model.UserQuizAttempt, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var attempts []model.UserQuizAttempt
	err = db.Where("quiz_id = ?", quizID).Order("user_quiz_id ASC").Find(&attempts).Error
	return attempts, err
}

func (r *QuizRepository) ListQuizAnswers(ctx context.Context, quizID uint) ([]model.UserAnswer, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var answers []model.UserAnswer
	err = db.Table("user_answers AS ua").
		Select("ua.*").
		Joins("JOIN user_quiz_attempts AS a ON a.user_quiz_id = ua.user_quiz_id").
		Where("a.quiz_id = ?", quizID).
		Scan(&answers).Error
	return answers, err
}

func (r *QuizRepository) DeleteQuizAttempts(ctx context.Context, quizID uint) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	attemptIDs := db.Model(&model.UserQuizAttempt{}).Select("user_quiz_id").Where("quiz_id = ?", quizID)
	if err := db.Where("user_quiz_id IN (?)", attemptIDs).Delete(&model.UserAnswer{}).Error; err != nil {
		return err
	}
	return db.Delete(&model.UserQuizAttempt{}, "quiz_id = ?", quizID).Error
}
