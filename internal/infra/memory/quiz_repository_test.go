package memory

import (
	"context"
	"testing"
	"time"

	"livequiz/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		store: NewQuizStore(map[string]domain.Quiz{
			"quiz-1": sampleQuiz(),
		}),
	}
	repo := NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuizRepositorySavePrimesCache(t *testing.T) {
	store := NewQuizStore(nil)
	loader := &countingLoader{store: store}
	repo := NewQuizRepository(loader, time.Minute)

	quiz := sampleQuiz()
	if err := repo.SaveQuiz(context.Background(), quiz); err != nil {
		t.Fatalf("save quiz: %v", err)
	}

	got, err := repo.GetQuiz(context.Background(), quiz.ID)
	if err != nil {
		t.Fatalf("get after save: %v", err)
	}
	if got.Title != quiz.Title {
		t.Fatalf("expected %q, got %q", quiz.Title, got.Title)
	}
	if loader.calls != 0 {
		t.Fatalf("expected cache to be primed by save, loader calls %d", loader.calls)
	}

	// The write went through to the backing store too.
	if _, err := store.LoadQuiz(context.Background(), quiz.ID); err != nil {
		t.Fatalf("expected quiz persisted in store: %v", err)
	}
}

func TestQuizStoreUnknownQuiz(t *testing.T) {
	store := NewQuizStore(nil)
	if _, err := store.LoadQuiz(context.Background(), "missing"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

type countingLoader struct {
	store *QuizStore
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	return l.store.LoadQuiz(ctx, quizID)
}

func (l *countingLoader) StoreQuiz(ctx context.Context, quiz domain.Quiz) error {
	return l.store.StoreQuiz(ctx, quiz)
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
				Options:       []string{"Paris", "Rome"},
				CorrectAnswer: "Paris",
				Points:        10,
				Order:         1,
			},
		},
	}
}
