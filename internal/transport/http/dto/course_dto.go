package dto

import "time"

type CourseCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
}

type CourseUpdateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	CoverKey    string `json:"cover_key,omitempty"`
}

type CoursePublishRequest struct {
	Published bool `json:"published"`
}

type CoursePauseRequest struct {
	Paused bool `json:"paused"`
}

type CourseResponse struct {
	ID           int64     `json:"id"`
	InstructorID int64     `json:"instructor_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Price        int64     `json:"price"`
	IsPublished  bool      `json:"is_published"`
	IsPaused     bool      `json:"is_paused"`
	CoverKey     string    `json:"cover_key,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type CourseListResponse struct {
	Courses []CourseResponse `json:"courses"`
}

type ModuleCreateRequest struct {
	Title    string `json:"title"`
	Position int    `json:"position"`
}

type ModuleResponse struct {
	ID       int64  `json:"id"`
	CourseID int64  `json:"course_id"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

type LessonCreateRequest struct {
	ModuleID    int64  `json:"module_id"`
	Title       string `json:"title"`
	ContentType string `json:"content_type"`
	ContentText string `json:"content_text,omitempty"`
	VideoKey    string `json:"video_key,omitempty"`
	Position    int    `json:"position"`
}

type LessonUpdateRequest struct {
	Title       string `json:"title"`
	ContentType string `json:"content_type"`
	ContentText string `json:"content_text,omitempty"`
	VideoKey    string `json:"video_key,omitempty"`
	Position    int    `json:"position"`
}

type LessonResponse struct {
	ID          int64  `json:"id"`
	ModuleID    int64  `json:"module_id"`
	Title       string `json:"title"`
	ContentType string `json:"content_type"`
	ContentText string `json:"content_text,omitempty"`
	VideoKey    string `json:"video_key,omitempty"`
	Position    int    `json:"position"`
}

type ModuleDetailResponse struct {
	Module  ModuleResponse   `json:"module"`
	Lessons []LessonResponse `json:"lessons"`
}

type CourseDetailResponse struct {
	Course  CourseResponse         `json:"course"`
	Modules []ModuleDetailResponse `json:"modules"`
}
