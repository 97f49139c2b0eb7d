package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"livequiz/internal/domain"
	"livequiz/internal/infra/memory"
)

func TestQuizRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		store: memory.NewQuizStore(map[string]domain.Quiz{
			"quiz-1": sampleQuiz(),
		}),
	}
	repo := NewQuizRepository(client, loader, time.Minute)

	quiz, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("quiz:quiz-1") {
		t.Fatalf("expected quiz document cached in redis")
	}

	// Second call should hit cache, loader not incremented. The cached
	// document keeps full content, prompts included.
	quiz, err = repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz cached: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if quiz.Questions[0].Text == "" || quiz.Questions[0].CorrectAnswer != "Paris" {
		t.Fatalf("cached quiz lost content: %+v", quiz.Questions[0])
	}
}

func TestQuizRepositorySaveWritesThrough(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := memory.NewQuizStore(nil)
	loader := &countingLoader{store: store}
	repo := NewQuizRepository(newClient(mr), loader, time.Minute)

	quiz := sampleQuiz()
	if err := repo.SaveQuiz(context.Background(), quiz); err != nil {
		t.Fatalf("save quiz: %v", err)
	}
	if !mr.Exists("quiz:quiz-1") {
		t.Fatalf("expected cache primed by save")
	}
	if _, err := store.LoadQuiz(context.Background(), quiz.ID); err != nil {
		t.Fatalf("expected quiz persisted in backing store: %v", err)
	}
}

type countingLoader struct {
	store *memory.QuizStore
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

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
