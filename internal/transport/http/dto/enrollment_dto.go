package dto

import "time"

type EnrollRequest struct {
	CourseID int64 `json:"course_id"`
}

type EnrollmentResponse struct {
	CourseID   int64     `json:"course_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

type EnrollmentListResponse struct {
	Enrollments []EnrollmentResponse `json:"enrollments"`
}

type AdminEnrollRequest struct {
	Email    string `json:"email"`
	CourseID int64  `json:"course_id"`
}

type AdminEnrollResponse struct {
	UserID   int64 `json:"user_id"`
	CourseID int64 `json:"course_id"`
	Created  bool  `json:"created"`
}

type ProgressMarkRequest struct {
	LessonID int64 `json:"lesson_id"`
}

type CourseProgressResponse struct {
	CourseID         int64   `json:"course_id"`
	TotalLessons     int     `json:"total_lessons"`
	CompletedLessons int     `json:"completed_lessons"`
	Percent          int     `json:"percent"`
	CompletedIDs     []int64 `json:"completed_lesson_ids,omitempty"`
}

type CertificateResponse struct {
	Code     string    `json:"code"`
	CourseID int64     `json:"course_id"`
	UserID   int64     `json:"user_id"`
	IssuedAt time.Time `json:"issued_at"`
}
