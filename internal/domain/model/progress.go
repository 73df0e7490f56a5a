package model

import "time"

type LessonProgress struct {
	UserID      int64     `json:"user_id"`
	LessonID    int64     `json:"lesson_id"`
	IsCompleted bool      `json:"is_completed"`
	CompletedAt time.Time `json:"completed_at"`
}

type CourseProgress struct {
	CourseID  int64 `json:"course_id"`
	Total     int   `json:"total"`
	Completed int   `json:"completed"`
}
