package database

import "studyhelper_backend/internal/model"

func quizModels() []interface{} {
	return []interface{}{
		&model.Quiz{},
		&model.Question{},
		&model.Option{},
		&model.QuizQuestion{},
		&model.UserQuizAttempt{},
		&model.UserAnswer{},
	}
}

// PrimaryModels lists the tables of the hosted store.
func PrimaryModels() []interface{} {
	return append([]interface{}{&model.DocumentRow{}}, quizModels()...)
}

// LocalModels lists the tables of the embedded fallback. The quiz tables
// share their shape with the primary.
func LocalModels() []interface{} {
	return append([]interface{}{&model.LocalDocumentRow{}}, quizModels()...)
}
