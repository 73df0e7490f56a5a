package quizzes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/onojaonoja2/ekonex/internal/domain/enums"
	pgrepo "github.com/onojaonoja2/ekonex/internal/repo/postgres"
)

type quizStoreStub struct {
	nextID    int64
	quizzes   map[int64]pgrepo.QuizRecord
	questions map[int64][]pgrepo.QuestionRecord
	attempts  []pgrepo.AttemptRecord
}

func newQuizStoreStub() *quizStoreStub {
	return &quizStoreStub{
		nextID:    1,
		quizzes:   make(map[int64]pgrepo.QuizRecord),
		questions: make(map[int64][]pgrepo.QuestionRecord),
	}
}

func (s *quizStoreStub) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *quizStoreStub) Create(_ context.Context, courseID int64, title string, passingScore int) (pgrepo.QuizRecord, error) {
	rec := pgrepo.QuizRecord{ID: s.id(), CourseID: courseID, Title: title, PassingScore: passingScore}
	s.quizzes[rec.ID] = rec
	return rec, nil
}

func (s *quizStoreStub) FindByID(_ context.Context, id int64) (pgrepo.QuizRecord, error) {
	rec, ok := s.quizzes[id]
	if !ok {
		return pgrepo.QuizRecord{}, pgrepo.ErrQuizNotFound
	}
	return rec, nil
}

func (s *quizStoreStub) ListByCourse(_ context.Context, courseID int64) ([]pgrepo.QuizRecord, error) {
	var out []pgrepo.QuizRecord
	for _, rec := range s.quizzes {
		if rec.CourseID == courseID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *quizStoreStub) CreateQuestion(_ context.Context, quizID int64, text string, position int, answers []pgrepo.AnswerRecord) (pgrepo.QuestionRecord, error) {
	question := pgrepo.QuestionRecord{ID: s.id(), QuizID: quizID, Text: text, Position: position}
	for _, answer := range answers {
		answer.ID = s.id()
		answer.QuestionID = question.ID
		question.Answers = append(question.Answers, answer)
	}
	s.questions[quizID] = append(s.questions[quizID], question)
	return question, nil
}

func (s *quizStoreStub) FindQuestion(_ context.Context, id int64) (pgrepo.QuestionRecord, error) {
	for _, questions := range s.questions {
		for _, question := range questions {
			if question.ID == id {
				return question, nil
			}
		}
	}
	return pgrepo.QuestionRecord{}, pgrepo.ErrQuestionNotFound
}

func (s *quizStoreStub) UpdateQuestion(_ context.Context, id int64, text string, position int, answers []pgrepo.AnswerRecord) (pgrepo.QuestionRecord, error) {
	for quizID, questions := range s.questions {
		for i, question := range questions {
			if question.ID != id {
				continue
			}
			question.Text = text
			question.Position = position
			question.Answers = nil
			for _, answer := range answers {
				answer.ID = s.id()
				answer.QuestionID = id
				question.Answers = append(question.Answers, answer)
			}
			s.questions[quizID][i] = question
			return question, nil
		}
	}
	return pgrepo.QuestionRecord{}, pgrepo.ErrQuestionNotFound
}

func (s *quizStoreStub) DeleteQuestion(_ context.Context, id int64) error {
	for quizID, questions := range s.questions {
		for i, question := range questions {
			if question.ID == id {
				s.questions[quizID] = append(questions[:i], questions[i+1:]...)
				return nil
			}
		}
	}
	return pgrepo.ErrQuestionNotFound
}

func (s *quizStoreStub) ListQuestions(_ context.Context, quizID int64) ([]pgrepo.QuestionRecord, error) {
	return s.questions[quizID], nil
}

func (s *quizStoreStub) CreateAttempt(_ context.Context, quizID, userID int64, score int, passed bool) (pgrepo.AttemptRecord, error) {
	rec := pgrepo.AttemptRecord{
		ID:        s.id(),
		QuizID:    quizID,
		UserID:    userID,
		Score:     score,
		Passed:    passed,
		CreatedAt: time.Now().UTC(),
	}
	s.attempts = append(s.attempts, rec)
	return rec, nil
}

func (s *quizStoreStub) ListAttempts(_ context.Context, quizID, userID int64) ([]pgrepo.AttemptRecord, error) {
	var out []pgrepo.AttemptRecord
	for _, rec := range s.attempts {
		if rec.QuizID == quizID && rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type courseStoreStub struct {
	courses map[int64]pgrepo.CourseRecord
}

func (s *courseStoreStub) FindByID(_ context.Context, id int64) (pgrepo.CourseRecord, error) {
	rec, ok := s.courses[id]
	if !ok {
		return pgrepo.CourseRecord{}, pgrepo.ErrCourseNotFound
	}
	return rec, nil
}

type enrollmentCheckerStub struct {
	enrolled map[int64]bool
}

func (s *enrollmentCheckerStub) IsEnrolled(_ context.Context, userID, _ int64) (bool, error) {
	return s.enrolled[userID], nil
}

func newTestService() (*Service, *quizStoreStub) {
	store := newQuizStoreStub()
	courses := &courseStoreStub{courses: map[int64]pgrepo.CourseRecord{
		10: {ID: 10, InstructorID: 2, IsPublished: true},
	}}
	enrollments := &enrollmentCheckerStub{enrolled: map[int64]bool{1: true}}
	return NewService(Dependencies{Quizzes: store, Courses: courses, Enrollments: enrollments}), store
}

func buildQuiz(t *testing.T, svc *Service, questions int) pgrepo.QuizRecord {
	t.Helper()
	quiz, err := svc.CreateQuiz(context.Background(), 10, 2, string(enums.RoleInstructor), "Checkpoint", 70)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	for i := 0; i < questions; i++ {
		_, err := svc.AddQuestion(context.Background(), quiz.ID, 2, string(enums.RoleInstructor), "q", i, []AnswerInput{
			{Text: "right", IsCorrect: true},
			{Text: "wrong"},
		})
		if err != nil {
			t.Fatalf("add question %d: %v", i, err)
		}
	}
	return quiz
}

func correctAnswerID(question pgrepo.QuestionRecord) int64 {
	for _, answer := range question.Answers {
		if answer.IsCorrect {
			return answer.ID
		}
	}
	return 0
}

func TestAddQuestionRequiresExactlyOneCorrectAnswer(t *testing.T) {
	svc, _ := newTestService()
	quiz := buildQuiz(t, svc, 0)

	cases := []struct {
		name    string
		answers []AnswerInput
	}{
		{"none correct", []AnswerInput{{Text: "a"}, {Text: "b"}}},
		{"two correct", []AnswerInput{{Text: "a", IsCorrect: true}, {Text: "b", IsCorrect: true}}},
		{"single answer", []AnswerInput{{Text: "a", IsCorrect: true}}},
	}
	for _, tc := range cases {
		_, err := svc.AddQuestion(context.Background(), quiz.ID, 2, string(enums.RoleInstructor), "q", 0, tc.answers)
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}
}

func TestAddQuestionRejectsForeignInstructor(t *testing.T) {
	svc, _ := newTestService()
	quiz := buildQuiz(t, svc, 0)

	_, err := svc.AddQuestion(context.Background(), quiz.ID, 99, string(enums.RoleInstructor), "q", 0, []AnswerInput{
		{Text: "right", IsCorrect: true},
		{Text: "wrong"},
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUpdateQuestionReplacesAnswers(t *testing.T) {
	svc, store := newTestService()
	quiz := buildQuiz(t, svc, 1)
	question := store.questions[quiz.ID][0]

	updated, err := svc.UpdateQuestion(context.Background(), question.ID, 2, string(enums.RoleInstructor), "revised", 3, []AnswerInput{
		{Text: "new right", IsCorrect: true},
		{Text: "new wrong"},
		{Text: "also wrong"},
	})
	if err != nil {
		t.Fatalf("update question: %v", err)
	}
	if updated.Text != "revised" || updated.Position != 3 {
		t.Fatalf("unexpected question: %+v", updated)
	}
	if len(updated.Answers) != 3 {
		t.Fatalf("answer set must be replaced, got %d answers", len(updated.Answers))
	}

	_, err = svc.UpdateQuestion(context.Background(), question.ID, 99, string(enums.RoleInstructor), "hijack", 0, []AnswerInput{
		{Text: "a", IsCorrect: true},
		{Text: "b"},
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign instructor: expected ErrForbidden, got %v", err)
	}
}

func TestDeleteQuestion(t *testing.T) {
	svc, store := newTestService()
	quiz := buildQuiz(t, svc, 2)
	question := store.questions[quiz.ID][0]

	if err := svc.DeleteQuestion(context.Background(), question.ID, 2, string(enums.RoleInstructor)); err != nil {
		t.Fatalf("delete question: %v", err)
	}
	if len(store.questions[quiz.ID]) != 1 {
		t.Fatalf("expected 1 question left, got %d", len(store.questions[quiz.ID]))
	}

	if err := svc.DeleteQuestion(context.Background(), question.ID, 2, string(enums.RoleInstructor)); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestGetQuizForTakingRequiresEnrollment(t *testing.T) {
	svc, _ := newTestService()
	quiz := buildQuiz(t, svc, 1)

	if _, _, err := svc.GetQuizForTaking(context.Background(), quiz.ID, 42); !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled, got %v", err)
	}
	if _, _, err := svc.GetQuizForTaking(context.Background(), quiz.ID, 1); err != nil {
		t.Fatalf("enrolled student rejected: %v", err)
	}
}

func TestSubmitScoresRoundedPercentage(t *testing.T) {
	svc, store := newTestService()
	quiz := buildQuiz(t, svc, 3)

	questions := store.questions[quiz.ID]
	answers := map[int64]int64{
		questions[0].ID: correctAnswerID(questions[0]),
		questions[1].ID: correctAnswerID(questions[1]),
	}

	result, err := svc.Submit(context.Background(), quiz.ID, 1, SubmissionInput{Answers: answers})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 67 {
		t.Fatalf("2/3 must round to 67, got %d", result.Score)
	}
	if result.Passed {
		t.Fatal("67 must not pass a 70 threshold")
	}
	if result.Correct != 2 || result.Total != 3 {
		t.Fatalf("unexpected tally: %d/%d", result.Correct, result.Total)
	}
}

func TestSubmitPassesAtThreshold(t *testing.T) {
	svc, store := newTestService()
	quiz := buildQuiz(t, svc, 2)

	questions := store.questions[quiz.ID]
	answers := map[int64]int64{
		questions[0].ID: correctAnswerID(questions[0]),
		questions[1].ID: correctAnswerID(questions[1]),
	}

	result, err := svc.Submit(context.Background(), quiz.ID, 1, SubmissionInput{Answers: answers})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 100 || !result.Passed {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestSubmitCountsUnansweredAsWrong(t *testing.T) {
	svc, _ := newTestService()
	quiz := buildQuiz(t, svc, 2)

	result, err := svc.Submit(context.Background(), quiz.ID, 1, SubmissionInput{Answers: map[int64]int64{}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 0 || result.Passed {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestSubmitRejectsEmptyQuiz(t *testing.T) {
	svc, _ := newTestService()
	quiz := buildQuiz(t, svc, 0)

	if _, err := svc.Submit(context.Background(), quiz.ID, 1, SubmissionInput{}); !errors.Is(err, ErrEmptyQuiz) {
		t.Fatalf("expected ErrEmptyQuiz, got %v", err)
	}
}

func TestSubmitRecordsAttempts(t *testing.T) {
	svc, store := newTestService()
	quiz := buildQuiz(t, svc, 1)

	if _, err := svc.Submit(context.Background(), quiz.ID, 1, SubmissionInput{}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Submit(context.Background(), quiz.ID, 1, SubmissionInput{}); err != nil {
		t.Fatalf("second submit: %v", err)
	}

	attempts, err := svc.ListAttempts(context.Background(), quiz.ID, 1)
	if err != nil {
		t.Fatalf("list attempts: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(attempts))
	}
	if len(store.attempts) != 2 {
		t.Fatalf("store recorded %d attempts", len(store.attempts))
	}
}
