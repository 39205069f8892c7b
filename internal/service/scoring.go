package service

import (
	"math"
	"strings"

	"studyhelper_backend/internal/model"
)

// Percentage is score/total*100 rounded to two decimals, or 0 when total is 0.
// Exact halves round to even: 1/32 is 3.12.
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.RoundToEven(float64(score)*10000/float64(total)) / 100
}

// NormalizeOption upper-cases and trims a selected letter. Anything outside
// A-D becomes "".
func NormalizeOption(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if IsOptionLetter(s) {
		return s
	}
	return ""
}

// IsOptionLetter reports whether s is exactly one of A, B, C or D.
func IsOptionLetter(s string) bool {
	switch s {
	case model.OptionA, model.OptionB, model.OptionC, model.OptionD:
		return true
	}
	return false
}

// AnswerInput is one submitted answer.
type AnswerInput struct {
	QuestionID     uint   `json:"question_id" binding:"required"`
	SelectedOption string `json:"selected_option"`
}

// Scored is the result of grading a submission against a quiz.
type Scored struct {
	Score      int
	TotalMarks int
	Percentage float64
	Answers    []model.UserAnswer
}

// Grade scores answers against the quiz questions. Questions not in the quiz
// are ignored, a repeated question counts once (first answer wins), and
// questions left unanswered score 0. TotalMarks is the sum of max_marks over
// the whole quiz.
func Grade(questions []model.QuizQuestionDetail, answers []AnswerInput) Scored {
	byID := make(map[uint]model.QuizQuestionDetail, len(questions))
	total := 0
	for _, q := range questions {
		byID[q.QuestionID] = q
		total += q.MaxMarks
	}

	out := Scored{TotalMarks: total, Answers: make([]model.UserAnswer, 0, len(answers))}
	seen := make(map[uint]bool, len(answers))
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok || seen[a.QuestionID] {
			continue
		}
		seen[a.QuestionID] = true

		ua := model.UserAnswer{QuestionID: a.QuestionID}
		if sel := NormalizeOption(a.SelectedOption); sel != "" {
			ua.SelectedOption = &sel
			if sel == q.CorrectOption {
				ua.AwardedMarks = q.MaxMarks
			}
		}
		out.Score += ua.AwardedMarks
		out.Answers = append(out.Answers, ua)
	}
	out.Percentage = Percentage(out.Score, out.TotalMarks)
	return out
}
