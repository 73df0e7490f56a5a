package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/onojaonoja2/ekonex/internal/services/auth"
	quizsvc "github.com/onojaonoja2/ekonex/internal/services/quizzes"
	"github.com/onojaonoja2/ekonex/internal/transport/http/dto"
	httperrors "github.com/onojaonoja2/ekonex/internal/transport/http/errors"
)

type QuizHandler struct {
	quizzes *quizsvc.Service
}

func NewQuizHandler(quizzes *quizsvc.Service) *QuizHandler {
	return &QuizHandler{quizzes: quizzes}
}

func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.quizzes == nil {
		writeInternal(w, "QUIZZES_SERVICE_UNAVAILABLE", "quizzes service is unavailable")
		return
	}

	courseID, ok := urlID(r, "courseID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid course id")
		return
	}

	var req dto.QuizCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	record, err := h.quizzes.CreateQuiz(r.Context(), courseID, identity.UserID, identity.Role, req.Title, req.PassingScore)
	if err != nil {
		handleQuizError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.QuizResponse{
		ID:           record.ID,
		CourseID:     record.CourseID,
		Title:        record.Title,
		PassingScore: record.PassingScore,
	})
}

func (h *QuizHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.quizzes == nil {
		writeInternal(w, "QUIZZES_SERVICE_UNAVAILABLE", "quizzes service is unavailable")
		return
	}

	quizID, ok := urlID(r, "quizID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid quiz id")
		return
	}

	var req dto.QuizQuestionCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	answers := make([]quizsvc.AnswerInput, 0, len(req.Answers))
	for _, answer := range req.Answers {
		answers = append(answers, quizsvc.AnswerInput{Text: answer.Text, IsCorrect: answer.IsCorrect})
	}

	record, err := h.quizzes.AddQuestion(r.Context(), quizID, identity.UserID, identity.Role, req.Text, req.Position, answers)
	if err != nil {
		handleQuizError(w, err)
		return
	}

	resp := dto.QuizQuestionResponse{
		ID:       record.ID,
		Text:     record.Text,
		Position: record.Position,
	}
	for _, answer := range record.Answers {
		resp.Answers = append(resp.Answers, dto.QuizAnswerResponse{ID: answer.ID, Text: answer.Text})
	}

	httperrors.Write(w, http.StatusCreated, resp)
}

func (h *QuizHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.quizzes == nil {
		writeInternal(w, "QUIZZES_SERVICE_UNAVAILABLE", "quizzes service is unavailable")
		return
	}

	questionID, ok := urlID(r, "questionID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid question id")
		return
	}

	var req dto.QuizQuestionCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	answers := make([]quizsvc.AnswerInput, 0, len(req.Answers))
	for _, answer := range req.Answers {
		answers = append(answers, quizsvc.AnswerInput{Text: answer.Text, IsCorrect: answer.IsCorrect})
	}

	record, err := h.quizzes.UpdateQuestion(r.Context(), questionID, identity.UserID, identity.Role, req.Text, req.Position, answers)
	if err != nil {
		handleQuizError(w, err)
		return
	}

	resp := dto.QuizQuestionResponse{
		ID:       record.ID,
		Text:     record.Text,
		Position: record.Position,
	}
	for _, answer := range record.Answers {
		resp.Answers = append(resp.Answers, dto.QuizAnswerResponse{ID: answer.ID, Text: answer.Text})
	}

	httperrors.Write(w, http.StatusOK, resp)
}

func (h *QuizHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.quizzes == nil {
		writeInternal(w, "QUIZZES_SERVICE_UNAVAILABLE", "quizzes service is unavailable")
		return
	}

	questionID, ok := urlID(r, "questionID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid question id")
		return
	}

	if err := h.quizzes.DeleteQuestion(r.Context(), questionID, identity.UserID, identity.Role); err != nil {
		handleQuizError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

// Get returns the quiz for taking. Correct-answer flags never leave the
// server, the response DTO simply has no field for them.
func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.quizzes == nil {
		writeInternal(w, "QUIZZES_SERVICE_UNAVAILABLE", "quizzes service is unavailable")
		return
	}

	quizID, ok := urlID(r, "quizID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid quiz id")
		return
	}

	quiz, questions, err := h.quizzes.GetQuizForTaking(r.Context(), quizID, identity.UserID)
	if err != nil {
		handleQuizError(w, err)
		return
	}

	resp := dto.QuizDetailResponse{
		Quiz: dto.QuizResponse{
			ID:           quiz.ID,
			CourseID:     quiz.CourseID,
			Title:        quiz.Title,
			PassingScore: quiz.PassingScore,
		},
	}
	for _, question := range questions {
		questionResp := dto.QuizQuestionResponse{
			ID:       question.ID,
			Text:     question.Text,
			Position: question.Position,
		}
		for _, answer := range question.Answers {
			questionResp.Answers = append(questionResp.Answers, dto.QuizAnswerResponse{
				ID:   answer.ID,
				Text: answer.Text,
			})
		}
		resp.Questions = append(resp.Questions, questionResp)
	}

	httperrors.Write(w, http.StatusOK, resp)
}

func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.quizzes == nil {
		writeInternal(w, "QUIZZES_SERVICE_UNAVAILABLE", "quizzes service is unavailable")
		return
	}

	courseID, ok := urlID(r, "courseID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid course id")
		return
	}

	records, err := h.quizzes.ListByCourse(r.Context(), courseID, identity.UserID)
	if err != nil {
		handleQuizError(w, err)
		return
	}

	resp := dto.QuizListResponse{Quizzes: make([]dto.QuizResponse, 0, len(records))}
	for _, record := range records {
		resp.Quizzes = append(resp.Quizzes, dto.QuizResponse{
			ID:           record.ID,
			CourseID:     record.CourseID,
			Title:        record.Title,
			PassingScore: record.PassingScore,
		})
	}

	httperrors.Write(w, http.StatusOK, resp)
}

func (h *QuizHandler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.quizzes == nil {
		writeInternal(w, "QUIZZES_SERVICE_UNAVAILABLE", "quizzes service is unavailable")
		return
	}

	quizID, ok := urlID(r, "quizID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid quiz id")
		return
	}

	records, err := h.quizzes.ListAttempts(r.Context(), quizID, identity.UserID)
	if err != nil {
		handleQuizError(w, err)
		return
	}

	resp := dto.QuizAttemptListResponse{Attempts: make([]dto.QuizAttemptResponse, 0, len(records))}
	for _, record := range records {
		resp.Attempts = append(resp.Attempts, dto.QuizAttemptResponse{
			ID:        record.ID,
			Score:     record.Score,
			Passed:    record.Passed,
			CreatedAt: record.CreatedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, resp)
}

func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.quizzes == nil {
		writeInternal(w, "QUIZZES_SERVICE_UNAVAILABLE", "quizzes service is unavailable")
		return
	}

	quizID, ok := urlID(r, "quizID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid quiz id")
		return
	}

	var req dto.QuizSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	result, err := h.quizzes.Submit(r.Context(), quizID, identity.UserID, quizsvc.SubmissionInput{Answers: req.Answers})
	if err != nil {
		handleQuizError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.QuizSubmitResponse{
		AttemptID: result.AttemptID,
		Score:     result.Score,
		Passed:    result.Passed,
		Correct:   result.Correct,
		Total:     result.Total,
	})
}

func handleQuizError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quizsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, quizsvc.ErrQuizNotFound):
		writeNotFound(w, "QUIZ_NOT_FOUND", "quiz not found")
	case errors.Is(err, quizsvc.ErrQuestionNotFound):
		writeNotFound(w, "QUESTION_NOT_FOUND", "question not found")
	case errors.Is(err, quizsvc.ErrNotEnrolled):
		writeForbidden(w, "NOT_ENROLLED", "enrollment required")
	case errors.Is(err, quizsvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "not allowed to manage this quiz")
	case errors.Is(err, quizsvc.ErrEmptyQuiz):
		writeBadRequest(w, "EMPTY_QUIZ", "quiz has no questions")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
