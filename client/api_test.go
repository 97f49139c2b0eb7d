package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"livequiz/internal/domain"
)

func TestChannelURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"http://localhost:8080", "ws://localhost:8080/ws/quiz/quiz-1/leaderboard"},
		{"https://quiz.example.com", "wss://quiz.example.com/ws/quiz/quiz-1/leaderboard"},
		{"https://quiz.example.com/", "wss://quiz.example.com/ws/quiz/quiz-1/leaderboard"},
	}
	for _, tc := range cases {
		if got := NewAPI(tc.base, nil).ChannelURL("quiz-1"); got != tc.want {
			t.Fatalf("ChannelURL(%s): got %s, want %s", tc.base, got, tc.want)
		}
	}
}

func TestAPIAttachesIdentityHeader(t *testing.T) {
	var gotUser string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = r.Header.Get("X-User-ID")
		_ = json.NewEncoder(w).Encode(domain.SubmitAnswerResult{Correct: true, NewScore: 10, Points: 10})
	}))
	defer server.Close()

	api := NewAPI(server.URL, nil)
	ctx := context.Background()

	if _, err := api.SubmitAnswer(ctx, "quiz-1", domain.SubmitAnswerRequest{QuestionID: "q1", Answer: "Paris"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if gotUser != "" {
		t.Fatalf("expected no header before identity is set, got %q", gotUser)
	}

	api.SetIdentity(Identity{UserID: "u1", Username: "alice"})
	if _, err := api.SubmitAnswer(ctx, "quiz-1", domain.SubmitAnswerRequest{QuestionID: "q2", Answer: "Rome"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if gotUser != "u1" {
		t.Fatalf("expected X-User-ID u1, got %q", gotUser)
	}
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "username required"})
	}))
	defer server.Close()

	_, err := NewAPI(server.URL, nil).JoinQuiz(context.Background(), "quiz-1", "")
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != "username required" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}
