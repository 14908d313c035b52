package model

import "time"

type WrongAnswerRecord struct {
	Subject        string     `json:"subject"`
	ModuleID       string     `json:"moduleId"`
	QuestionID     QuestionID `json:"questionId"`
	QuestionText   string     `json:"questionText"`
	CorrectAnswer  string     `json:"correctAnswer"`
	SelectedAnswer string     `json:"selectedAnswer"`
	Timestamp      time.Time  `json:"timestamp"`
}

type HintUsageRecord struct {
	Subject         string     `json:"subject"`
	ModuleID        string     `json:"moduleId"`
	QuestionID      QuestionID `json:"questionId"`
	QuestionText    string     `json:"questionText"`
	AnsweredCorrect bool       `json:"answeredCorrect"`
	Timestamp       time.Time  `json:"timestamp"`
}
