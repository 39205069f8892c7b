package model

import "time"

// Correct option letters accepted by the options table.
const (
	OptionA = "A"
	OptionB = "B"
	OptionC = "C"
	OptionD = "D"
)

// Quiz is a named, ordered set of questions.
type Quiz struct {
	QuizID            uint      `gorm:"primaryKey;autoIncrement;column:quiz_id" json:"quiz_id"`
	Topic             string    `gorm:"size:255;not null" json:"topic"`
	UserID            *string   `gorm:"size:255;index" json:"user_id"`
	PerformanceReport string    `gorm:"type:text" json:"performance_report,omitempty"`
	TotalQuestions    int       `gorm:"not null;default:0" json:"total_questions"`
	CreatedAt         time.Time `json:"created_at"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// Question is reusable question text, independent of any quiz.
type Question struct {
	QuestionID   uint      `gorm:"primaryKey;autoIncrement;column:question_id" json:"question_id"`
	QuestionText string    `gorm:"type:text;not null" json:"question_text"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Question) TableName() string {
	return "questions"
}

// Option holds the four choices of exactly one question.
type Option struct {
	OptionID      uint   `gorm:"primaryKey;autoIncrement;column:option_id" json:"option_id"`
	QuestionID    uint   `gorm:"not null;uniqueIndex" json:"question_id"`
	OptionA       string `gorm:"type:text" json:"option_a"`
	OptionB       string `gorm:"type:text" json:"option_b"`
	OptionC       string `gorm:"type:text" json:"option_c"`
	OptionD       string `gorm:"type:text" json:"option_d"`
	CorrectOption string `gorm:"size:1;not null" json:"correct_option"`
}

func (Option) TableName() string {
	return "options"
}

// QuizQuestion links a question into a quiz at a 1-based position.
type QuizQuestion struct {
	ID            uint `gorm:"primaryKey;autoIncrement" json:"id"`
	QuizID        uint `gorm:"not null;uniqueIndex:idx_quiz_question_order,priority:1" json:"quiz_id"`
	QuestionID    uint `gorm:"not null;index" json:"question_id"`
	QuestionOrder int  `gorm:"not null;uniqueIndex:idx_quiz_question_order,priority:2" json:"question_order"`
	MaxMarks      int  `gorm:"not null;default:1" json:"max_marks"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// QuizQuestionDetail is one question of a quiz joined with its options and
// link row.
type QuizQuestionDetail struct {
	QuestionID    uint   `json:"question_id"`
	QuestionText  string `json:"question_text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option"`
	QuestionOrder int    `json:"question_order"`
	MaxMarks      int    `json:"max_marks"`
}

// QuizDetail is the answer-complete view of a quiz.
// swagger:model
type QuizDetail struct {
	QuizID            uint                 `json:"quiz_id"`
	Topic             string               `json:"topic"`
	UserID            *string              `json:"user_id"`
	PerformanceReport string               `json:"performance_report,omitempty"`
	TotalQuestions    int                  `json:"total_questions"`
	CreatedAt         time.Time            `json:"created_at"`
	Questions         []QuizQuestionDetail `json:"questions"`
}

// PublicQuestion is a quiz question without its correct option.
type PublicQuestion struct {
	QuestionID    uint   `json:"question_id"`
	QuestionText  string `json:"question_text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	QuestionOrder int    `json:"question_order"`
	MaxMarks      int    `json:"max_marks"`
}

// PublicQuiz is the view handed to someone taking the quiz.
// swagger:model
type PublicQuiz struct {
	QuizID         uint             `json:"quiz_id"`
	Topic          string           `json:"topic"`
	TotalQuestions int              `json:"total_questions"`
	Questions      []PublicQuestion `json:"questions"`
}

// Redact drops every correct option.
func (q *QuizDetail) Redact() PublicQuiz {
	out := PublicQuiz{
		QuizID:         q.QuizID,
		Topic:          q.Topic,
		TotalQuestions: q.TotalQuestions,
		Questions:      make([]PublicQuestion, 0, len(q.Questions)),
	}
	for _, qq := range q.Questions {
		out.Questions = append(out.Questions, PublicQuestion{
			QuestionID:    qq.QuestionID,
			QuestionText:  qq.QuestionText,
			OptionA:       qq.OptionA,
			OptionB:       qq.OptionB,
			OptionC:       qq.OptionC,
			OptionD:       qq.OptionD,
			QuestionOrder: qq.QuestionOrder,
			MaxMarks:      qq.MaxMarks,
		})
	}
	return out
}
