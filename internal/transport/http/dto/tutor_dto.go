package dto

type TutorChatRequest struct {
	CourseID int64  `json:"course_id"`
	Question string `json:"question"`
}

type TutorReindexResponse struct {
	CourseID int64 `json:"course_id"`
	Chunks   int   `json:"chunks"`
}
