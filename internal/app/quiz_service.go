package app

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"livequiz/internal/domain"
)

// SessionRepository abstracts how quiz sessions are stored (in-memory, Redis,
// etc). DropIdle removes a session once it has neither participants nor
// subscribers; callers invoke it after any operation that may have emptied one.
type SessionRepository interface {
	GetOrCreate(quizID string) *Session
	Get(quizID string) (*Session, bool)
	DropIdle(quizID string)
}

// QuizRepository loads and saves quiz definitions (through cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
}

// LeaderboardMirror keeps a secondary copy of leaderboard snapshots so reads
// survive session GC and process restarts. Implementations are best-effort.
type LeaderboardMirror interface {
	Store(ctx context.Context, lb domain.Leaderboard) error
	Load(ctx context.Context, quizID string) (domain.Leaderboard, bool, error)
}

// QuizService contains the core quiz use cases.
type QuizService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	mirror   LeaderboardMirror // optional
	now      func() time.Time
}

// NewQuizService wires the service. mirror may be nil.
func NewQuizService(store SessionRepository, quizzes QuizRepository, mirror LeaderboardMirror) *QuizService {
	return &QuizService{sessions: store, quizzes: quizzes, mirror: mirror, now: time.Now}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id string) *Session {
	return newSession(id)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(id string, now func() time.Time) *Session {
	return newSessionWithClock(id, now)
}

// CreateQuiz validates and persists a new quiz in the waiting state.
func (s *QuizService) CreateQuiz(ctx context.Context, req domain.CreateQuizRequest) (domain.Quiz, error) {
	if err := req.Validate(); err != nil {
		return domain.Quiz{}, err
	}

	now := s.now()
	quiz := domain.Quiz{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(req.Title),
		Status:    domain.StatusWaiting,
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
	for i, qr := range req.Questions {
		points := qr.Points
		if points == 0 {
			points = domain.DefaultPoints
		}
		quiz.Questions = append(quiz.Questions, domain.Question{
			ID:            uuid.NewString(),
			QuizID:        quiz.ID,
			Text:          qr.Text,
			Options:       qr.Options,
			CorrectAnswer: qr.CorrectAnswer,
			Points:        points,
			Order:         i + 1,
		})
	}

	if err := s.quizzes.SaveQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// GetQuiz returns the quiz definition. Participant contexts never receive
// correct answers.
func (s *QuizService) GetQuiz(ctx context.Context, quizID string, includeAnswers bool) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if includeAnswers {
		return quiz, nil
	}
	return quiz.WithoutAnswers(), nil
}

// Join registers a participant in a quiz session, reusing the identity when
// the same display name joins again. Joining does not create a leaderboard
// entry; entries appear once the participant has answered a question.
func (s *QuizService) Join(ctx context.Context, quizID, username string) (domain.User, error) {
	// Users cannot join unknown quizzes.
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return domain.User{}, err
	}

	session := s.sessions.GetOrCreate(quizID)
	return session.join(username), nil
}

// SubmitAnswer scores a single answer for a participant, updates the
// leaderboard, and pushes the new snapshot to subscribers. Each participant
// may answer each question at most once.
func (s *QuizService) SubmitAnswer(ctx context.Context, quizID, userID string, req domain.SubmitAnswerRequest) (domain.SubmitAnswerResult, domain.Leaderboard, error) {
	session, ok := s.sessions.Get(quizID)
	if !ok {
		return domain.SubmitAnswerResult{}, domain.Leaderboard{}, domain.ErrSessionNotFound
	}

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.SubmitAnswerResult{}, domain.Leaderboard{}, err
	}

	question, err := findQuestion(quiz, req.QuestionID)
	if err != nil {
		return domain.SubmitAnswerResult{}, domain.Leaderboard{}, err
	}

	correct := question.CorrectAnswer == req.Answer
	points := question.Points
	if points == 0 {
		points = domain.DefaultPoints
	}

	lb, total, err := session.applyAnswer(userID, question.ID, correct, points)
	if err != nil {
		return domain.SubmitAnswerResult{}, domain.Leaderboard{}, err
	}

	s.mirrorSnapshot(ctx, lb)

	awarded := 0
	if correct {
		awarded = points
	}
	return domain.SubmitAnswerResult{Correct: correct, NewScore: total, Points: awarded}, lb, nil
}

// Leaderboard returns the current snapshot for a quiz. A quiz with no
// answers yet yields an empty entry list, not an error.
func (s *QuizService) Leaderboard(ctx context.Context, quizID string) (domain.Leaderboard, error) {
	if session, ok := s.sessions.Get(quizID); ok {
		return session.snapshot(), nil
	}
	if s.mirror != nil {
		if lb, ok, err := s.mirror.Load(ctx, quizID); err == nil && ok {
			return lb, nil
		}
	}
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return domain.Leaderboard{}, err
	}
	return domain.Leaderboard{QuizID: quizID, Entries: []domain.LeaderboardEntry{}, UpdatedAt: s.now()}, nil
}

// Subscribe returns a channel that receives leaderboard updates for a quiz.
// The caller must invoke the returned cancel function to avoid leaks; when the
// last viewer of a session nobody joined cancels, the session is dropped.
func (s *QuizService) Subscribe(_ context.Context, quizID string) (<-chan domain.Leaderboard, func(), error) {
	session := s.sessions.GetOrCreate(quizID)
	ch, cancel := session.subscribe()
	return ch, func() {
		cancel()
		s.sessions.DropIdle(quizID)
	}, nil
}

// Leave removes a participant from the session. The session itself survives
// while viewers are still subscribed.
func (s *QuizService) Leave(_ context.Context, quizID, userID string) {
	session, ok := s.sessions.Get(quizID)
	if !ok {
		return
	}
	session.leave(userID)
	s.sessions.DropIdle(quizID)
}

func (s *QuizService) mirrorSnapshot(ctx context.Context, lb domain.Leaderboard) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Store(ctx, lb); err != nil {
		log.Printf("leaderboard mirror store failed for quiz %s: %v", lb.QuizID, err)
	}
}

func findQuestion(quiz domain.Quiz, questionID string) (domain.Question, error) {
	for i := range quiz.Questions {
		if quiz.Questions[i].ID == questionID {
			return quiz.Questions[i], nil
		}
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

// participant is the per-session view of one user: identity, score, and the
// set of questions already answered.
type participant struct {
	user        domain.User
	score       int
	answered    map[string]struct{}
	lastUpdated time.Time
}

// Session is an in-memory representation of one live quiz.
type Session struct {
	id           string
	createdAt    time.Time
	now          func() time.Time
	mu           sync.RWMutex
	participants map[string]*participant
	subscribers  map[chan domain.Leaderboard]struct{}
}

func newSession(id string) *Session {
	return newSessionWithClock(id, time.Now)
}

// newSessionWithClock allows deterministic timestamps in tests.
func newSessionWithClock(id string, now func() time.Time) *Session {
	return &Session{
		id:           id,
		createdAt:    now(),
		now:          now,
		participants: make(map[string]*participant),
		subscribers:  make(map[chan domain.Leaderboard]struct{}),
	}
}

func (s *Session) join(username string) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.participants {
		if p.user.Username == username {
			return p.user
		}
	}

	now := s.now()
	user := domain.User{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: now,
	}
	s.participants[user.ID] = &participant{
		user:        user,
		answered:    make(map[string]struct{}),
		lastUpdated: now,
	}
	return user
}

func (s *Session) applyAnswer(userID, questionID string, correct bool, points int) (domain.Leaderboard, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[userID]
	if !ok {
		return domain.Leaderboard{}, 0, domain.ErrParticipantNotFound
	}
	if _, dup := p.answered[questionID]; dup {
		return domain.Leaderboard{}, 0, domain.ErrAlreadyAnswered
	}

	p.answered[questionID] = struct{}{}
	if correct {
		p.score += points
	}
	p.lastUpdated = s.now()

	return s.broadcastLocked(), p.score, nil
}

func (s *Session) leave(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.participants, userID)
	s.broadcastLocked()
}

// Idle reports whether the session has neither participants nor subscribers
// and can safely be dropped.
func (s *Session) Idle() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.participants) == 0 && len(s.subscribers) == 0
}

func (s *Session) snapshot() domain.Leaderboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) subscribe() (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() domain.Leaderboard {
	lb := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- lb:
		default:
			// Drop the oldest queued snapshot so a slow viewer never blocks
			// score submission; only the latest board matters.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
	return lb
}

func (s *Session) snapshotLocked() domain.Leaderboard {
	// Only participants who have answered at least once appear on the board.
	scored := make([]*participant, 0, len(s.participants))
	for _, p := range s.participants {
		if len(p.answered) > 0 {
			scored = append(scored, p)
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		// Tie-break by who reached the score earlier, then name.
		if !scored[i].lastUpdated.Equal(scored[j].lastUpdated) {
			return scored[i].lastUpdated.Before(scored[j].lastUpdated)
		}
		return scored[i].user.Username < scored[j].user.Username
	})

	entries := make([]domain.LeaderboardEntry, 0, len(scored))
	for i, p := range scored {
		entries = append(entries, domain.LeaderboardEntry{
			UserID:   p.user.ID,
			Username: p.user.Username,
			Score:    p.score,
			Rank:     i + 1,
		})
	}

	return domain.Leaderboard{
		QuizID:    s.id,
		Entries:   entries,
		UpdatedAt: s.now(),
	}
}
