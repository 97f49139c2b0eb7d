package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"livequiz/internal/app"
	"livequiz/internal/domain"
	"livequiz/internal/infra/memory"
)

func TestCreateQuizValidation(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	cases := []domain.CreateQuizRequest{
		{Title: "", Questions: []domain.QuestionRequest{validQuestion()}},
		{Title: "No questions"},
		{Title: "One option", Questions: []domain.QuestionRequest{{
			Text: "Pick", Options: []string{"only"}, CorrectAnswer: "only",
		}}},
		{Title: "Answer missing", Questions: []domain.QuestionRequest{{
			Text: "Pick", Options: []string{"a", "b"}, CorrectAnswer: "c",
		}}},
	}
	for i, req := range cases {
		if _, err := service.CreateQuiz(ctx, req); !errors.Is(err, domain.ErrInvalidQuiz) {
			t.Fatalf("case %d: expected ErrInvalidQuiz, got %v", i, err)
		}
	}
}

func TestCreateQuizDefaults(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	quiz, err := service.CreateQuiz(ctx, domain.CreateQuizRequest{
		Title:     "Geography",
		Questions: []domain.QuestionRequest{validQuestion()},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if quiz.ID == "" {
		t.Fatalf("expected generated quiz ID")
	}
	if quiz.Status != domain.StatusWaiting {
		t.Fatalf("expected waiting status, got %s", quiz.Status)
	}
	if quiz.Questions[0].Points != domain.DefaultPoints {
		t.Fatalf("expected default points %d, got %d", domain.DefaultPoints, quiz.Questions[0].Points)
	}
	if quiz.Questions[0].Order != 1 {
		t.Fatalf("expected order 1, got %d", quiz.Questions[0].Order)
	}

	// The created quiz must be loadable again and stripped for participants.
	got, err := service.GetQuiz(ctx, quiz.ID, false)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if got.Questions[0].CorrectAnswer != "" {
		t.Fatalf("correct answer leaked to participant context")
	}
}

func TestJoinAndScoring(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	alice, err := service.Join(ctx, "quiz-1", "alice")
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	bob, err := service.Join(ctx, "quiz-1", "bob")
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}

	// Joining alone puts nobody on the board.
	lb, err := service.Leaderboard(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.Entries) != 0 {
		t.Fatalf("expected empty board before answers, got %d entries", len(lb.Entries))
	}

	result, lb, err := service.SubmitAnswer(ctx, "quiz-1", bob.ID, domain.SubmitAnswerRequest{
		QuestionID: "q1",
		Answer:     "Paris",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !result.Correct || result.Points != 10 || result.NewScore != 10 {
		t.Fatalf("expected correct answer worth 10, got %+v", result)
	}
	if len(lb.Entries) != 1 || lb.Entries[0].UserID != bob.ID || lb.Entries[0].Rank != 1 {
		t.Fatalf("expected bob alone at rank 1, got %+v", lb.Entries)
	}

	result, lb, err = service.SubmitAnswer(ctx, "quiz-1", alice.ID, domain.SubmitAnswerRequest{
		QuestionID: "q1",
		Answer:     "Rome",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.Correct || result.Points != 0 || result.NewScore != 0 {
		t.Fatalf("expected incorrect answer, got %+v", result)
	}
	if len(lb.Entries) != 2 || lb.Entries[0].UserID != bob.ID || lb.Entries[1].UserID != alice.ID {
		t.Fatalf("expected bob leading alice, got %+v", lb.Entries)
	}
	if lb.Entries[1].Rank != 2 {
		t.Fatalf("expected alice at rank 2, got %d", lb.Entries[1].Rank)
	}
}

func TestDuplicateAnswerRejected(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	user, _ := service.Join(ctx, "quiz-1", "alice")
	if _, _, err := service.SubmitAnswer(ctx, "quiz-1", user.ID, domain.SubmitAnswerRequest{
		QuestionID: "q1", Answer: "Paris",
	}); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	_, _, err := service.SubmitAnswer(ctx, "quiz-1", user.ID, domain.SubmitAnswerRequest{
		QuestionID: "q1", Answer: "Rome",
	})
	if !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}

	// The first answer's score stands.
	lb, _ := service.Leaderboard(ctx, "quiz-1")
	if lb.Entries[0].Score != 10 {
		t.Fatalf("expected score 10 after rejected resubmit, got %d", lb.Entries[0].Score)
	}
}

func TestJoinReusesIdentity(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	first, err := service.Join(ctx, "quiz-1", "alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	second, err := service.Join(ctx, "quiz-1", "alice")
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same identity on rejoin, got %s and %s", first.ID, second.ID)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	user, err := service.Join(ctx, "quiz-1", "alice")
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	ch, cancel, err := service.Subscribe(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	<-ch // initial snapshot

	if _, _, err := service.SubmitAnswer(ctx, "quiz-1", user.ID, domain.SubmitAnswerRequest{
		QuestionID: "q1", Answer: "Paris",
	}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	update := <-ch
	if len(update.Entries) != 1 || update.Entries[0].Score != 10 {
		t.Fatalf("expected updated score 10, got %+v", update.Entries)
	}
}

func TestSubmitRequiresParticipant(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	_, _, err := service.SubmitAnswer(ctx, "quiz-unknown", "u1", domain.SubmitAnswerRequest{QuestionID: "q1", Answer: "Paris"})
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session error, got %v", err)
	}

	_, _ = service.Join(ctx, "quiz-1", "alice")
	_, _, err = service.SubmitAnswer(ctx, "quiz-1", "stranger", domain.SubmitAnswerRequest{QuestionID: "q1", Answer: "Paris"})
	if !errors.Is(err, domain.ErrParticipantNotFound) {
		t.Fatalf("expected participant error, got %v", err)
	}
}

func TestSubscribeCancelDropsViewerOnlySession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()
	service := newTestServiceWithStore(store)

	// Watching a quiz nobody joined must not leak a session.
	_, cancel, err := service.Subscribe(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if _, ok := store.Get("quiz-1"); !ok {
		t.Fatalf("expected session while subscribed")
	}

	cancel()
	if _, ok := store.Get("quiz-1"); ok {
		t.Fatalf("expected viewer-only session dropped on cancel")
	}
}

func TestLeaveKeepsSessionForViewers(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()
	service := newTestServiceWithStore(store)

	user, err := service.Join(ctx, "quiz-1", "alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	_, cancel, err := service.Subscribe(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	service.Leave(ctx, "quiz-1", user.ID)
	if _, ok := store.Get("quiz-1"); !ok {
		t.Fatalf("expected session kept while a viewer remains")
	}

	cancel()
	if _, ok := store.Get("quiz-1"); ok {
		t.Fatalf("expected session dropped once the last viewer left")
	}
}

func TestLeaderboardUnknownQuiz(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	_, err := service.Leaderboard(ctx, "quiz-unknown")
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func newTestService() *app.QuizService {
	return newTestServiceWithStore(memory.NewSessionStore())
}

func newTestServiceWithStore(store *memory.SessionStore) *app.QuizService {
	quizRepo := memory.NewQuizRepository(memory.NewQuizStore(map[string]domain.Quiz{
		"quiz-1": sampleQuiz(),
	}), 5*time.Minute)
	return app.NewQuizService(store, quizRepo, nil)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:     "quiz-1",
		Title:  "Capitals",
		Status: domain.StatusWaiting,
		Questions: []domain.Question{
			{
				ID:            "q1",
				QuizID:        "quiz-1",
				Text:          "What is the capital of France?",
				Options:       []string{"Paris", "Rome", "Madrid"},
				CorrectAnswer: "Paris",
				Points:        10,
				Order:         1,
			},
			{
				ID:            "q2",
				QuizID:        "quiz-1",
				Text:          "What is 2 + 2?",
				Options:       []string{"3", "4"},
				CorrectAnswer: "4",
				Points:        5,
				Order:         2,
			},
		},
	}
}

func validQuestion() domain.QuestionRequest {
	return domain.QuestionRequest{
		Text:          "What is the capital of France?",
		Options:       []string{"Paris", "Rome"},
		CorrectAnswer: "Paris",
	}
}
