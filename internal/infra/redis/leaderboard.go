package redis

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"livequiz/internal/domain"
)

// LeaderboardMirror keeps leaderboard snapshots in a Redis sorted set
// (ZADD leaderboard:{quizID} {score} {userID}:{username}) so snapshot reads
// survive session GC and restarts. Updates replace the whole set; ranks are
// recomputed on read. Submission times are not persisted, so equal scores
// fall back to username order rather than the live session's
// earlier-submission-first rule.
type LeaderboardMirror struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLeaderboardMirror(client *redis.Client, ttl time.Duration) *LeaderboardMirror {
	return &LeaderboardMirror{client: client, ttl: ttl}
}

func (m *LeaderboardMirror) Store(ctx context.Context, lb domain.Leaderboard) error {
	key := m.boardKey(lb.QuizID)
	stampKey := m.stampKey(lb.QuizID)

	pipe := m.client.TxPipeline()
	pipe.Del(ctx, key)
	for _, entry := range lb.Entries {
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(entry.Score),
			Member: entry.UserID + ":" + entry.Username,
		})
	}
	pipe.Set(ctx, stampKey, lb.UpdatedAt.UTC().Format(time.RFC3339Nano), m.ttl)
	if m.ttl > 0 {
		pipe.Expire(ctx, key, m.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (m *LeaderboardMirror) Load(ctx context.Context, quizID string) (domain.Leaderboard, bool, error) {
	results, err := m.client.ZRevRangeWithScores(ctx, m.boardKey(quizID), 0, -1).Result()
	if err != nil {
		return domain.Leaderboard{}, false, err
	}
	if len(results) == 0 {
		return domain.Leaderboard{}, false, nil
	}

	entries := make([]domain.LeaderboardEntry, 0, len(results))
	for _, z := range results {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		// Member layout is userID:username; usernames may themselves
		// contain colons, IDs never do.
		parts := strings.SplitN(member, ":", 2)
		if len(parts) != 2 {
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{
			UserID:   parts[0],
			Username: parts[1],
			Score:    int(z.Score),
		})
	}

	// ZREVRANGE orders equal scores by reverse-lexicographic member, which
	// depends on user IDs. Re-sort so mirrored boards are deterministic.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Username < entries[j].Username
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	lb := domain.Leaderboard{QuizID: quizID, Entries: entries}
	if raw, err := m.client.Get(ctx, m.stampKey(quizID)).Result(); err == nil {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			lb.UpdatedAt = ts
		}
	}
	return lb, true, nil
}

func (m *LeaderboardMirror) boardKey(quizID string) string {
	return "leaderboard:" + quizID
}

func (m *LeaderboardMirror) stampKey(quizID string) string {
	return "leaderboard:" + quizID + ":updated_at"
}
