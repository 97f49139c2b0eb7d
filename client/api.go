// Package client implements the viewer and participant side of the live
// quiz protocol: a plain HTTP wrapper for the REST endpoints, a reconnecting
// push channel for leaderboard updates, and the local state machines that
// reconcile the two.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"livequiz/internal/domain"
)

// API wraps the quiz service REST endpoints under {base}/api. Once an
// identity is set, every request carries it in the X-User-ID header.
type API struct {
	baseURL string
	http    *http.Client

	mu       sync.RWMutex
	identity Identity
	hasID    bool
}

// NewAPI builds a client for the given base URL (scheme://host[:port]).
// httpClient may be nil to use http.DefaultClient.
func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// SetIdentity attaches a participant identity to subsequent requests.
func (a *API) SetIdentity(id Identity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.identity = id
	a.hasID = true
}

// Identity returns the attached identity, if any.
func (a *API) Identity() (Identity, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.identity, a.hasID
}

// APIError carries the HTTP status and server-reported message of a failed
// request.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// CreateQuizResponse is the creator-facing result of quiz creation.
type CreateQuizResponse struct {
	QuizID string `json:"quiz_id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// CreateQuiz registers a new quiz definition.
func (a *API) CreateQuiz(ctx context.Context, req domain.CreateQuizRequest) (CreateQuizResponse, error) {
	var resp CreateQuizResponse
	err := a.do(ctx, http.MethodPost, "/api/quiz", req, &resp)
	return resp, err
}

// GetQuiz fetches the quiz definition without correct answers.
func (a *API) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := a.do(ctx, http.MethodGet, "/api/quiz/"+quizID, nil, &quiz)
	return quiz, err
}

// JoinQuiz registers a participant and returns the identity to persist.
func (a *API) JoinQuiz(ctx context.Context, quizID, username string) (Identity, error) {
	var id Identity
	err := a.do(ctx, http.MethodPost, "/api/quiz/"+quizID+"/join", domain.JoinQuizRequest{Username: username}, &id)
	return id, err
}

// SubmitAnswer submits one answer for one question.
func (a *API) SubmitAnswer(ctx context.Context, quizID string, req domain.SubmitAnswerRequest) (domain.SubmitAnswerResult, error) {
	var result domain.SubmitAnswerResult
	err := a.do(ctx, http.MethodPost, "/api/quiz/"+quizID+"/answer", req, &result)
	return result, err
}

// GetLeaderboard fetches a full snapshot of the current standings.
func (a *API) GetLeaderboard(ctx context.Context, quizID string) ([]domain.LeaderboardEntry, error) {
	var resp struct {
		Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/quiz/"+quizID+"/leaderboard", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Leaderboard == nil {
		resp.Leaderboard = []domain.LeaderboardEntry{}
	}
	return resp.Leaderboard, nil
}

// ChannelURL derives the leaderboard push channel address for a quiz from
// the API base URL.
func (a *API) ChannelURL(quizID string) string {
	ws := a.baseURL
	switch {
	case strings.HasPrefix(ws, "https://"):
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	case strings.HasPrefix(ws, "http://"):
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	}
	return ws + "/ws/quiz/" + quizID + "/leaderboard"
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if id, ok := a.Identity(); ok {
		req.Header.Set("X-User-ID", id.UserID)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return &APIError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
