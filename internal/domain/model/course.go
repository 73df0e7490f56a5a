package model

import (
	"time"

	"github.com/onojaonoja2/ekonex/internal/domain/enums"
)

type Course struct {
	ID           int64     `json:"id"`
	InstructorID int64     `json:"instructor_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Price        int64     `json:"price"`
	IsPublished  bool      `json:"is_published"`
	IsPaused     bool      `json:"is_paused"`
	CoverKey     string    `json:"cover_key,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Module struct {
	ID       int64  `json:"id"`
	CourseID int64  `json:"course_id"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

type Lesson struct {
	ID          int64             `json:"id"`
	ModuleID    int64             `json:"module_id"`
	Title       string            `json:"title"`
	ContentType enums.ContentType `json:"content_type"`
	ContentText string            `json:"content_text,omitempty"`
	VideoKey    string            `json:"video_key,omitempty"`
	Position    int               `json:"position"`
}
