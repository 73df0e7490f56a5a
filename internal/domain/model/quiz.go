package model

import "time"

type Quiz struct {
	ID           int64  `json:"id"`
	CourseID     int64  `json:"course_id"`
	Title        string `json:"title"`
	PassingScore int    `json:"passing_score"`
}

type Question struct {
	ID      int64    `json:"id"`
	QuizID  int64    `json:"quiz_id"`
	Text    string   `json:"text"`
	Answers []Answer `json:"answers"`
}

type Answer struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"-"`
}

type QuizAttempt struct {
	ID          int64     `json:"id"`
	QuizID      int64     `json:"quiz_id"`
	UserID      int64     `json:"user_id"`
	Score       int       `json:"score"`
	IsPassed    bool      `json:"is_passed"`
	SubmittedAt time.Time `json:"submitted_at"`
}
