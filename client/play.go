package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"livequiz/internal/domain"
)

// DefaultAdvanceDelay is how long correctness feedback stays visible before
// the session moves to the next question.
const DefaultAdvanceDelay = 2 * time.Second

// PlayState is the participant flow state machine.
type PlayState int

const (
	// StateJoining: no identity yet; only Join may be called.
	StateJoining PlayState = iota
	// StateInProgress: identity established, questions remain.
	StateInProgress
	// StateCompleted: every question has been answered.
	StateCompleted
)

func (s PlayState) String() string {
	switch s {
	case StateJoining:
		return "joining"
	case StateInProgress:
		return "in_progress"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

var (
	// ErrNotJoined is returned for operations that need an established identity.
	ErrNotJoined = errors.New("participant has not joined")
	// ErrAlreadyJoined is returned when Join is called past the joining state.
	ErrAlreadyJoined = errors.New("participant already joined")
	// ErrQuizCompleted is returned for submissions after the last answer.
	ErrQuizCompleted = errors.New("quiz already completed")
	// ErrNoAnswer is returned when Submit is called with an empty answer.
	ErrNoAnswer = errors.New("no answer selected")
)

// PlaySession drives the participant flow for one quiz: join (or resume a
// persisted identity), answer each question exactly once, auto-advance after
// feedback, and finish when every question is answered.
type PlaySession struct {
	api          *API
	quizID       string
	ids          IdentityStore
	advanceDelay time.Duration

	mu           sync.Mutex
	state        PlayState
	identity     Identity
	quiz         domain.Quiz
	current      int
	score        int
	answered     map[string]struct{}
	lastResult   *domain.SubmitAnswerResult
	advanceTimer *time.Timer
	closed       bool
}

// NewPlaySession builds a session with the given identity store. A zero
// advanceDelay uses DefaultAdvanceDelay.
func NewPlaySession(api *API, quizID string, ids IdentityStore, advanceDelay time.Duration) *PlaySession {
	if advanceDelay <= 0 {
		advanceDelay = DefaultAdvanceDelay
	}
	return &PlaySession{
		api:          api,
		quizID:       quizID,
		ids:          ids,
		advanceDelay: advanceDelay,
		state:        StateJoining,
		answered:     make(map[string]struct{}),
	}
}

// Start resumes a persisted identity when one exists, loading the quiz and
// skipping the join step. It reports whether the session was resumed;
// otherwise the session stays in the joining state.
func (p *PlaySession) Start(ctx context.Context) (bool, error) {
	id, ok, err := p.ids.Load()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	p.api.SetIdentity(id)
	quiz, err := p.api.GetQuiz(ctx, p.quizID)
	if err != nil {
		return false, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.identity = id
	p.quiz = quiz
	p.state = StateInProgress
	return true, nil
}

// Join registers the participant and persists the returned identity so the
// next session skips the join form.
func (p *PlaySession) Join(ctx context.Context, username string) error {
	p.mu.Lock()
	if p.state != StateJoining {
		p.mu.Unlock()
		return ErrAlreadyJoined
	}
	p.mu.Unlock()

	id, err := p.api.JoinQuiz(ctx, p.quizID, username)
	if err != nil {
		return err
	}
	if err := p.ids.Save(id); err != nil {
		return err
	}
	p.api.SetIdentity(id)

	quiz, err := p.api.GetQuiz(ctx, p.quizID)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.identity = id
	p.quiz = quiz
	p.state = StateInProgress
	return nil
}

// Submit sends the answer for the current question. A question already in
// the answered set is rejected locally, before any network call. On success
// the score is replaced with the server's cumulative value and an
// auto-advance to the next question is scheduled; answering the final
// question completes the quiz instead.
func (p *PlaySession) Submit(ctx context.Context, answer string) (domain.SubmitAnswerResult, error) {
	if answer == "" {
		return domain.SubmitAnswerResult{}, ErrNoAnswer
	}

	p.mu.Lock()
	switch p.state {
	case StateJoining:
		p.mu.Unlock()
		return domain.SubmitAnswerResult{}, ErrNotJoined
	case StateCompleted:
		p.mu.Unlock()
		return domain.SubmitAnswerResult{}, ErrQuizCompleted
	}
	// A resumed quiz may carry no questions at all.
	if p.current >= len(p.quiz.Questions) {
		p.mu.Unlock()
		return domain.SubmitAnswerResult{}, domain.ErrQuestionNotFound
	}
	question := p.quiz.Questions[p.current]
	if _, dup := p.answered[question.ID]; dup {
		p.mu.Unlock()
		return domain.SubmitAnswerResult{}, domain.ErrAlreadyAnswered
	}
	p.mu.Unlock()

	result, err := p.api.SubmitAnswer(ctx, p.quizID, domain.SubmitAnswerRequest{
		QuestionID: question.ID,
		Answer:     answer,
	})
	if err != nil {
		return domain.SubmitAnswerResult{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.answered[question.ID] = struct{}{}
	// The server's cumulative score is authoritative; never incremented locally.
	p.score = result.NewScore
	p.lastResult = &result

	if len(p.answered) == len(p.quiz.Questions) {
		p.state = StateCompleted
		p.stopAdvanceLocked()
		return result, nil
	}

	p.scheduleAdvanceLocked()
	return result, nil
}

// CurrentQuestion returns the question awaiting an answer.
func (p *PlaySession) CurrentQuestion() (domain.Question, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateInProgress || p.current >= len(p.quiz.Questions) {
		return domain.Question{}, false
	}
	return p.quiz.Questions[p.current], true
}

// CanSubmit reports whether the current question still accepts an answer,
// mirroring the enabled state of a submit control.
func (p *PlaySession) CanSubmit() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateInProgress || p.current >= len(p.quiz.Questions) {
		return false
	}
	_, dup := p.answered[p.quiz.Questions[p.current].ID]
	return !dup
}

// State returns the current flow state.
func (p *PlaySession) State() PlayState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Score is the server-confirmed cumulative score.
func (p *PlaySession) Score() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.score
}

// LastResult returns the feedback from the most recent submission, cleared
// when the session advances.
func (p *PlaySession) LastResult() (domain.SubmitAnswerResult, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastResult == nil {
		return domain.SubmitAnswerResult{}, false
	}
	return *p.lastResult, true
}

// Answered reports whether the question is in the answered set.
func (p *PlaySession) Answered(questionID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.answered[questionID]
	return ok
}

// Identity returns the participant identity once established.
func (p *PlaySession) Identity() (Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateJoining {
		return Identity{}, false
	}
	return p.identity, true
}

// Advance moves to the next question immediately, superseding a pending
// auto-advance.
func (p *PlaySession) Advance() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopAdvanceLocked()
	p.advanceLocked()
}

// Close cancels any pending auto-advance timer. It must run on every exit
// path so a stale timer cannot fire against torn-down state.
func (p *PlaySession) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.stopAdvanceLocked()
}

func (p *PlaySession) scheduleAdvanceLocked() {
	p.stopAdvanceLocked()
	p.advanceTimer = time.AfterFunc(p.advanceDelay, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.closed || p.state != StateInProgress {
			return
		}
		p.advanceLocked()
	})
}

func (p *PlaySession) stopAdvanceLocked() {
	if p.advanceTimer != nil {
		p.advanceTimer.Stop()
		p.advanceTimer = nil
	}
}

func (p *PlaySession) advanceLocked() {
	p.lastResult = nil
	if p.current < len(p.quiz.Questions)-1 {
		p.current++
	}
}
