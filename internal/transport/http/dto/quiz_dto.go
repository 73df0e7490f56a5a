package dto

import "time"

type QuizCreateRequest struct {
	Title        string `json:"title"`
	PassingScore int    `json:"passing_score"`
}

type QuizAnswerInput struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type QuizQuestionCreateRequest struct {
	Text     string            `json:"text"`
	Position int               `json:"position"`
	Answers  []QuizAnswerInput `json:"answers"`
}

type QuizResponse struct {
	ID           int64  `json:"id"`
	CourseID     int64  `json:"course_id"`
	Title        string `json:"title"`
	PassingScore int    `json:"passing_score"`
}

type QuizAnswerResponse struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

type QuizQuestionResponse struct {
	ID       int64                `json:"id"`
	Text     string               `json:"text"`
	Position int                  `json:"position"`
	Answers  []QuizAnswerResponse `json:"answers"`
}

type QuizDetailResponse struct {
	Quiz      QuizResponse           `json:"quiz"`
	Questions []QuizQuestionResponse `json:"questions"`
}

type QuizListResponse struct {
	Quizzes []QuizResponse `json:"quizzes"`
}

type QuizSubmitRequest struct {
	// Answers maps question id to the chosen answer id.
	Answers map[int64]int64 `json:"answers"`
}

type QuizSubmitResponse struct {
	AttemptID int64 `json:"attempt_id"`
	Score     int   `json:"score"`
	Passed    bool  `json:"passed"`
	Correct   int   `json:"correct"`
	Total     int   `json:"total"`
}

type QuizAttemptResponse struct {
	ID        int64     `json:"id"`
	Score     int       `json:"score"`
	Passed    bool      `json:"passed"`
	CreatedAt time.Time `json:"created_at"`
}

type QuizAttemptListResponse struct {
	Attempts []QuizAttemptResponse `json:"attempts"`
}
