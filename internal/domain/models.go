package domain

import (
	"strings"
	"time"
)

// Quiz lifecycle statuses. Transitions are monotonic and server-assigned.
const (
	StatusWaiting   = "waiting"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// DefaultPoints is awarded for a correct answer when the creator left the
// question's point value unset.
const DefaultPoints = 10

// Quiz is a quiz definition with its ordered questions.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Status    string     `json:"status"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Question models an MCQ question. CorrectAnswer is omitted on the wire for
// participant-facing responses.
type Question struct {
	ID            string   `json:"id"`
	QuizID        string   `json:"quiz_id"`
	Text          string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Points        int      `json:"points"`
	Order         int      `json:"order"`
}

// WithoutAnswers returns a copy of the quiz safe to hand to participants.
func (q Quiz) WithoutAnswers() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	copy(out.Questions, q.Questions)
	for i := range out.Questions {
		out.Questions[i].CorrectAnswer = ""
	}
	return out
}

// User is a participant identity created by a join operation.
type User struct {
	ID        string    `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// LeaderboardEntry is one ranked row of the scoreboard. Rank is 1-based in
// descending score order.
type LeaderboardEntry struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

// Leaderboard captures the full ordered scoreboard for one quiz. Clients
// treat every Leaderboard value as a whole-sequence replacement.
type Leaderboard struct {
	QuizID    string             `json:"quiz_id"`
	Entries   []LeaderboardEntry `json:"leaderboard"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// LeaderboardUpdateType tags push frames on the leaderboard channel.
const LeaderboardUpdateType = "leaderboard_update"

// LeaderboardUpdate is the frame pushed to leaderboard viewers.
type LeaderboardUpdate struct {
	Type        string             `json:"type"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// SubmitAnswerResult is the outcome of one answer submission. NewScore is the
// participant's cumulative score; clients replace their local score with it
// rather than incrementing.
type SubmitAnswerResult struct {
	Correct  bool `json:"correct"`
	NewScore int  `json:"new_score"`
	Points   int  `json:"points"`
}

// CreateQuizRequest is the creator-side payload for a new quiz.
type CreateQuizRequest struct {
	Title     string            `json:"title"`
	Questions []QuestionRequest `json:"questions"`
}

// QuestionRequest is one question within a CreateQuizRequest.
type QuestionRequest struct {
	Text          string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Points        int      `json:"points"`
}

// JoinQuizRequest registers a participant by display name.
type JoinQuizRequest struct {
	Username string `json:"username"`
}

// SubmitAnswerRequest carries one answer for one question.
type SubmitAnswerRequest struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// Validate enforces the creator-side constraints: a title, at least one
// question, each with text, two or more non-empty options, and a correct
// answer that is one of the options.
func (r CreateQuizRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrInvalidQuiz
	}
	if len(r.Questions) == 0 {
		return ErrInvalidQuiz
	}
	for _, q := range r.Questions {
		if err := q.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks a single question request.
func (q QuestionRequest) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return ErrInvalidQuiz
	}
	if len(q.Options) < 2 {
		return ErrInvalidQuiz
	}
	answerFound := false
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return ErrInvalidQuiz
		}
		if opt == q.CorrectAnswer {
			answerFound = true
		}
	}
	if !answerFound {
		return ErrInvalidQuiz
	}
	return nil
}
