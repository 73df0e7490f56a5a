package quizzes

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/onojaonoja2/ekonex/internal/domain/enums"
	pgrepo "github.com/onojaonoja2/ekonex/internal/repo/postgres"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrNotEnrolled      = errors.New("not enrolled")
	ErrForbidden        = errors.New("forbidden")
	ErrEmptyQuiz        = errors.New("quiz has no questions")
)

type QuizStore interface {
	Create(ctx context.Context, courseID int64, title string, passingScore int) (pgrepo.QuizRecord, error)
	FindByID(ctx context.Context, id int64) (pgrepo.QuizRecord, error)
	ListByCourse(ctx context.Context, courseID int64) ([]pgrepo.QuizRecord, error)
	CreateQuestion(ctx context.Context, quizID int64, text string, position int, answers []pgrepo.AnswerRecord) (pgrepo.QuestionRecord, error)
	FindQuestion(ctx context.Context, id int64) (pgrepo.QuestionRecord, error)
	UpdateQuestion(ctx context.Context, id int64, text string, position int, answers []pgrepo.AnswerRecord) (pgrepo.QuestionRecord, error)
	DeleteQuestion(ctx context.Context, id int64) error
	ListQuestions(ctx context.Context, quizID int64) ([]pgrepo.QuestionRecord, error)
	CreateAttempt(ctx context.Context, quizID, userID int64, score int, passed bool) (pgrepo.AttemptRecord, error)
	ListAttempts(ctx context.Context, quizID, userID int64) ([]pgrepo.AttemptRecord, error)
}

type CourseStore interface {
	FindByID(ctx context.Context, id int64) (pgrepo.CourseRecord, error)
}

type EnrollmentChecker interface {
	IsEnrolled(ctx context.Context, userID, courseID int64) (bool, error)
}

type Service struct {
	quizzes     QuizStore
	courses     CourseStore
	enrollments EnrollmentChecker
}

type Dependencies struct {
	Quizzes     QuizStore
	Courses     CourseStore
	Enrollments EnrollmentChecker
}

type AnswerInput struct {
	Text      string
	IsCorrect bool
}

type SubmissionInput struct {
	// Answers maps question id to the chosen answer id.
	Answers map[int64]int64
}

type SubmissionResult struct {
	AttemptID int64
	Score     int
	Passed    bool
	Correct   int
	Total     int
}

func NewService(deps Dependencies) *Service {
	return &Service{
		quizzes:     deps.Quizzes,
		courses:     deps.Courses,
		enrollments: deps.Enrollments,
	}
}

func (s *Service) CreateQuiz(ctx context.Context, courseID, actorID int64, actorRole, title string, passingScore int) (pgrepo.QuizRecord, error) {
	if err := s.requireCourseManager(ctx, courseID, actorID, actorRole); err != nil {
		return pgrepo.QuizRecord{}, err
	}

	record, err := s.quizzes.Create(ctx, courseID, title, passingScore)
	if err != nil {
		return pgrepo.QuizRecord{}, fmt.Errorf("create quiz: %w", err)
	}
	return record, nil
}

func (s *Service) AddQuestion(ctx context.Context, quizID, actorID int64, actorRole, text string, position int, answers []AnswerInput) (pgrepo.QuestionRecord, error) {
	records, err := validateAnswers(answers)
	if err != nil {
		return pgrepo.QuestionRecord{}, err
	}

	quiz, err := s.findQuiz(ctx, quizID)
	if err != nil {
		return pgrepo.QuestionRecord{}, err
	}
	if err := s.requireCourseManager(ctx, quiz.CourseID, actorID, actorRole); err != nil {
		return pgrepo.QuestionRecord{}, err
	}

	record, err := s.quizzes.CreateQuestion(ctx, quizID, text, position, records)
	if err != nil {
		return pgrepo.QuestionRecord{}, fmt.Errorf("create question: %w", err)
	}
	return record, nil
}

func (s *Service) UpdateQuestion(ctx context.Context, questionID, actorID int64, actorRole, text string, position int, answers []AnswerInput) (pgrepo.QuestionRecord, error) {
	records, err := validateAnswers(answers)
	if err != nil {
		return pgrepo.QuestionRecord{}, err
	}

	if err := s.requireQuestionManager(ctx, questionID, actorID, actorRole); err != nil {
		return pgrepo.QuestionRecord{}, err
	}

	record, err := s.quizzes.UpdateQuestion(ctx, questionID, text, position, records)
	if err != nil {
		if errors.Is(err, pgrepo.ErrQuestionNotFound) {
			return pgrepo.QuestionRecord{}, ErrQuestionNotFound
		}
		return pgrepo.QuestionRecord{}, fmt.Errorf("update question: %w", err)
	}
	return record, nil
}

func (s *Service) DeleteQuestion(ctx context.Context, questionID, actorID int64, actorRole string) error {
	if err := s.requireQuestionManager(ctx, questionID, actorID, actorRole); err != nil {
		return err
	}

	if err := s.quizzes.DeleteQuestion(ctx, questionID); err != nil {
		if errors.Is(err, pgrepo.ErrQuestionNotFound) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

// GetQuizForTaking returns the quiz with questions but with correct-answer
// flags withheld, the transport layer serializes answers without them.
func (s *Service) GetQuizForTaking(ctx context.Context, quizID, userID int64) (pgrepo.QuizRecord, []pgrepo.QuestionRecord, error) {
	quiz, err := s.findQuiz(ctx, quizID)
	if err != nil {
		return pgrepo.QuizRecord{}, nil, err
	}

	if err := s.requireEnrollment(ctx, userID, quiz.CourseID); err != nil {
		return pgrepo.QuizRecord{}, nil, err
	}

	questions, err := s.quizzes.ListQuestions(ctx, quizID)
	if err != nil {
		return pgrepo.QuizRecord{}, nil, fmt.Errorf("list questions: %w", err)
	}

	return quiz, questions, nil
}

func (s *Service) ListByCourse(ctx context.Context, courseID, userID int64) ([]pgrepo.QuizRecord, error) {
	if courseID <= 0 {
		return nil, ErrValidation
	}
	if err := s.requireEnrollment(ctx, userID, courseID); err != nil {
		return nil, err
	}

	records, err := s.quizzes.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return records, nil
}

// Submit grades a submission and records the attempt. The score is the
// rounded percentage of correctly answered questions, unanswered questions
// count as wrong.
func (s *Service) Submit(ctx context.Context, quizID, userID int64, input SubmissionInput) (SubmissionResult, error) {
	quiz, err := s.findQuiz(ctx, quizID)
	if err != nil {
		return SubmissionResult{}, err
	}
	if err := s.requireEnrollment(ctx, userID, quiz.CourseID); err != nil {
		return SubmissionResult{}, err
	}

	questions, err := s.quizzes.ListQuestions(ctx, quizID)
	if err != nil {
		return SubmissionResult{}, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return SubmissionResult{}, ErrEmptyQuiz
	}

	correct := 0
	for _, question := range questions {
		chosen, ok := input.Answers[question.ID]
		if !ok {
			continue
		}
		for _, answer := range question.Answers {
			if answer.ID == chosen && answer.IsCorrect {
				correct++
				break
			}
		}
	}

	score := int(math.Round(float64(correct) / float64(len(questions)) * 100))
	passed := score >= quiz.PassingScore

	attempt, err := s.quizzes.CreateAttempt(ctx, quizID, userID, score, passed)
	if err != nil {
		return SubmissionResult{}, fmt.Errorf("record attempt: %w", err)
	}

	return SubmissionResult{
		AttemptID: attempt.ID,
		Score:     score,
		Passed:    passed,
		Correct:   correct,
		Total:     len(questions),
	}, nil
}

func (s *Service) ListAttempts(ctx context.Context, quizID, userID int64) ([]pgrepo.AttemptRecord, error) {
	if quizID <= 0 || userID <= 0 {
		return nil, ErrValidation
	}

	records, err := s.quizzes.ListAttempts(ctx, quizID, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return records, nil
}

// validateAnswers enforces the question shape: at least two options with
// exactly one marked correct.
func validateAnswers(answers []AnswerInput) ([]pgrepo.AnswerRecord, error) {
	if len(answers) < 2 {
		return nil, ErrValidation
	}
	correct := 0
	records := make([]pgrepo.AnswerRecord, 0, len(answers))
	for _, answer := range answers {
		if answer.Text == "" {
			return nil, ErrValidation
		}
		if answer.IsCorrect {
			correct++
		}
		records = append(records, pgrepo.AnswerRecord{Text: answer.Text, IsCorrect: answer.IsCorrect})
	}
	if correct != 1 {
		return nil, ErrValidation
	}
	return records, nil
}

func (s *Service) requireQuestionManager(ctx context.Context, questionID, actorID int64, actorRole string) error {
	if questionID <= 0 {
		return ErrValidation
	}

	question, err := s.quizzes.FindQuestion(ctx, questionID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrQuestionNotFound) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("find question: %w", err)
	}

	quiz, err := s.findQuiz(ctx, question.QuizID)
	if err != nil {
		return err
	}
	return s.requireCourseManager(ctx, quiz.CourseID, actorID, actorRole)
}

func (s *Service) findQuiz(ctx context.Context, quizID int64) (pgrepo.QuizRecord, error) {
	if quizID <= 0 {
		return pgrepo.QuizRecord{}, ErrValidation
	}

	quiz, err := s.quizzes.FindByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrQuizNotFound) {
			return pgrepo.QuizRecord{}, ErrQuizNotFound
		}
		return pgrepo.QuizRecord{}, fmt.Errorf("find quiz: %w", err)
	}
	return quiz, nil
}

func (s *Service) requireCourseManager(ctx context.Context, courseID, actorID int64, actorRole string) error {
	if courseID <= 0 || actorID <= 0 {
		return ErrValidation
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrCourseNotFound) {
			return ErrValidation
		}
		return fmt.Errorf("find course: %w", err)
	}

	if enums.Role(actorRole).IsAdmin() {
		return nil
	}
	if actorRole == string(enums.RoleInstructor) && course.InstructorID == actorID {
		return nil
	}
	return ErrForbidden
}

func (s *Service) requireEnrollment(ctx context.Context, userID, courseID int64) error {
	if userID <= 0 {
		return ErrValidation
	}

	enrolled, err := s.enrollments.IsEnrolled(ctx, userID, courseID)
	if err != nil {
		return fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return ErrNotEnrolled
	}
	return nil
}
