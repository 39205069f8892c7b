package model

import "time"

// UserQuizAttempt is a user's single scored attempt at a quiz. (user_id,
// quiz_id) is unique; retakes update the row in place.
type UserQuizAttempt struct {
	UserQuizID uint      `gorm:"primaryKey;autoIncrement;column:user_quiz_id" json:"user_quiz_id"`
	UserID     string    `gorm:"size:255;not null;uniqueIndex:idx_user_quiz,priority:1" json:"user_id"`
	QuizID     uint      `gorm:"not null;uniqueIndex:idx_user_quiz,priority:2;index" json:"quiz_id"`
	Score      int       `gorm:"not null;default:0" json:"score"`
	TotalMarks int       `gorm:"not null;default:0" json:"total_marks"`
	Percentage float64   `gorm:"not null;default:0" json:"percentage"`
	TakenDate  time.Time `gorm:"index" json:"taken_date"`
}

func (UserQuizAttempt) TableName() string {
	return "user_quiz_attempts"
}

// UserAnswer is one answer within an attempt.
type UserAnswer struct {
	AnswerID       uint    `gorm:"primaryKey;autoIncrement;column:answer_id" json:"answer_id"`
	UserQuizID     uint    `gorm:"not null;index" json:"user_quiz_id"`
	QuestionID     uint    `gorm:"not null" json:"question_id"`
	SelectedOption *string `gorm:"size:1" json:"selected_option"`
	AwardedMarks   int     `gorm:"not null;default:0" json:"awarded_marks"`
}

func (UserAnswer) TableName() string {
	return "user_answers"
}

// AttemptSummary is an attempt joined with its quiz topic.
type AttemptSummary struct {
	UserQuizID uint      `json:"user_quiz_id"`
	UserID     string    `json:"user_id"`
	QuizID     uint      `json:"quiz_id"`
	Topic      string    `json:"topic"`
	Score      int       `json:"score"`
	TotalMarks int       `json:"total_marks"`
	Percentage float64   `json:"percentage"`
	TakenDate  time.Time `json:"taken_date"`
}

// AttemptAnswerDetail is one row of a reviewed attempt.
type AttemptAnswerDetail struct {
	QuestionID     uint    `json:"question_id"`
	QuestionText   string  `json:"question_text"`
	OptionA        string  `json:"option_a"`
	OptionB        string  `json:"option_b"`
	OptionC        string  `json:"option_c"`
	OptionD        string  `json:"option_d"`
	CorrectOption  string  `json:"correct_option"`
	SelectedOption *string `json:"selected_option"`
	IsCorrect      bool    `json:"is_correct"`
	AwardedMarks   int     `json:"awarded_marks"`
	MaxMarks       int     `json:"max_marks"`
	QuestionOrder  int     `json:"question_order"`
}

// AttemptDetail is an attempt with every question of its quiz and the
// user's selection for each.
// swagger:model
type AttemptDetail struct {
	AttemptSummary
	Answers []AttemptAnswerDetail `json:"answers"`
}

// QuestionStat is the correct rate of one question across attempts.
type QuestionStat struct {
	QuestionID    uint    `json:"question_id"`
	QuestionOrder int     `json:"question_order"`
	QuestionText  string  `json:"question_text"`
	Answered      int     `json:"answered"`
	Correct       int     `json:"correct"`
	CorrectRate   float64 `json:"correct_rate"`
}

// QuizAnalytics aggregates every attempt at one quiz.
// swagger:model
type QuizAnalytics struct {
	QuizID            uint           `json:"quiz_id"`
	Topic             string         `json:"topic"`
	Attempts          int            `json:"attempts"`
	AveragePercentage float64        `json:"average_percentage"`
	HighestPercentage float64        `json:"highest_percentage"`
	LowestPercentage  float64        `json:"lowest_percentage"`
	Questions         []QuestionStat `json:"questions"`
}

// TopicPerformance is a user's average on one topic.
type TopicPerformance struct {
	Topic             string  `json:"topic"`
	Attempts          int     `json:"attempts"`
	AveragePercentage float64 `json:"average_percentage"`
}

// UserPerformance summarizes every attempt of one user.
// swagger:model
type UserPerformance struct {
	UserID            string             `json:"user_id"`
	TotalQuizzes      int                `json:"total_quizzes"`
	AveragePercentage float64            `json:"average_percentage"`
	HighestPercentage float64            `json:"highest_percentage"`
	TotalQuestions    int                `json:"total_questions"`
	CorrectAnswers    int                `json:"correct_answers"`
	AccuracyRate      float64            `json:"accuracy_rate"`
	RecentAttempts    []AttemptSummary   `json:"recent_attempts"`
	TopicPerformance  []TopicPerformance `json:"topic_performance"`
}
