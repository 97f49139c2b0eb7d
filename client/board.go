package client

import (
	"context"
	"math"
	"sync"
	"time"

	"livequiz/internal/domain"
)

// Board maintains the local view of one quiz's leaderboard, reconciling the
// one-shot REST snapshot with the stream of push updates. Push updates are
// applied unconditionally in arrival order; a snapshot is discarded when a
// push landed after its fetch began, so a slow snapshot response can never
// clobber a fresher push.
type Board struct {
	api    *API
	quizID string

	mu        sync.Mutex
	quiz      domain.Quiz
	loaded    bool
	entries   []domain.LeaderboardEntry
	updatedAt time.Time
	pushSeq   uint64
}

func NewBoard(api *API, quizID string) *Board {
	return &Board{api: api, quizID: quizID}
}

// LoadInitial fetches quiz metadata and the first leaderboard snapshot.
// On failure, local state is left untouched so the caller stays in its
// loading/error state; there is no partial population.
func (b *Board) LoadInitial(ctx context.Context) error {
	seq := b.currentPushSeq()

	quiz, err := b.api.GetQuiz(ctx, b.quizID)
	if err != nil {
		return err
	}
	entries, err := b.api.GetLeaderboard(ctx, b.quizID)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.quiz = quiz
	b.loaded = true
	if b.pushSeq != seq {
		// A push arrived while the snapshot was in flight; keep it.
		return nil
	}
	b.entries = entries
	b.updatedAt = time.Now()
	return nil
}

// Refresh re-fetches the snapshot, the manual fallback for a degraded
// channel. Replacement semantics match LoadInitial.
func (b *Board) Refresh(ctx context.Context) error {
	seq := b.currentPushSeq()

	entries, err := b.api.GetLeaderboard(ctx, b.quizID)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pushSeq != seq {
		return nil
	}
	b.entries = entries
	b.updatedAt = time.Now()
	return nil
}

// HandleFrame is the channel frame handler; wire it into ChannelConfig.
// Frames other than leaderboard updates are ignored.
func (b *Board) HandleFrame(f Frame) {
	if f.Type != domain.LeaderboardUpdateType {
		return
	}
	var update domain.LeaderboardUpdate
	if err := f.Decode(&update); err != nil {
		return
	}
	b.ApplyPush(update)
}

// ApplyPush replaces the whole leaderboard sequence with the update payload
// and records its server timestamp as the freshness marker.
func (b *Board) ApplyPush(update domain.LeaderboardUpdate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := update.Leaderboard
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	b.entries = entries
	b.updatedAt = update.UpdatedAt
	b.pushSeq++
}

// Quiz returns the loaded quiz metadata.
func (b *Board) Quiz() (domain.Quiz, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.quiz, b.loaded
}

// Entries returns the current leaderboard in rank order.
func (b *Board) Entries() []domain.LeaderboardEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.LeaderboardEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// UpdatedAt is the freshness marker of the displayed board.
func (b *Board) UpdatedAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.updatedAt
}

// Podium returns the top three entries, and nil when fewer than three
// participants are on the board.
func (b *Board) Podium() []domain.LeaderboardEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.entries) < 3 {
		return nil
	}
	out := make([]domain.LeaderboardEntry, 3)
	copy(out, b.entries[:3])
	return out
}

// Stats are the derived display values, recomputed from the current board.
type Stats struct {
	Participants int
	MaxScore     int
	AverageScore int
}

// Stats computes participant count, maximum score, and the mean score
// rounded to the nearest integer.
func (b *Board) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	stats := Stats{Participants: len(b.entries)}
	if len(b.entries) == 0 {
		return stats
	}
	sum := 0
	for _, e := range b.entries {
		if e.Score > stats.MaxScore {
			stats.MaxScore = e.Score
		}
		sum += e.Score
	}
	stats.AverageScore = int(math.Round(float64(sum) / float64(len(b.entries))))
	return stats
}

// ParticipantLink builds the shareable join address shown next to an empty
// board.
func (b *Board) ParticipantLink(origin string) string {
	return origin + "/quiz/" + b.quizID + "/play"
}

func (b *Board) currentPushSeq() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pushSeq
}
