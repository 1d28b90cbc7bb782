package server

import (
	"context"
	"log/slog"
	"net/http"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/questline/huntapi/internal/hunt"
)

const leaderboardKey = "hunt:leaderboard"

// Leaderboard mirrors per-team completed-clue counts into a Redis sorted
// set so ranking reads never touch SQLite. Redis is a cache here: every
// write is best-effort and the read path falls back to the store.
type Leaderboard struct {
	rdb    *redis.Client
	logger *slog.Logger
}

func NewLeaderboard(rdb *redis.Client, logger *slog.Logger) *Leaderboard {
	return &Leaderboard{rdb: rdb, logger: logger}
}

func (l *Leaderboard) Set(ctx context.Context, teamID string, score int) {
	if l.rdb == nil {
		return
	}
	err := l.rdb.ZAdd(ctx, leaderboardKey, redis.Z{
		Score:  float64(score),
		Member: teamID,
	}).Err()
	if err != nil {
		l.logger.Warn("updating leaderboard", "team_id", teamID, "error", err)
	}
}

func (l *Leaderboard) Remove(ctx context.Context, teamID string) {
	if l.rdb == nil {
		return
	}
	if err := l.rdb.ZRem(ctx, leaderboardKey, teamID).Err(); err != nil {
		l.logger.Warn("removing leaderboard entry", "team_id", teamID, "error", err)
	}
}

// Ranked returns team IDs with scores, highest first, or an error when
// Redis is unreachable (the caller falls back to the store).
func (l *Leaderboard) Ranked(ctx context.Context) ([]redis.Z, error) {
	if l.rdb == nil {
		return nil, redis.ErrClosed
	}
	return l.rdb.ZRevRangeWithScores(ctx, leaderboardKey, 0, -1).Result()
}

type LeaderboardEntry struct {
	TeamID         string `json:"teamId"`
	TeamName       string `json:"teamName"`
	CompletedCount int    `json:"completedCount"`
	HuntComplete   bool   `json:"huntComplete"`
}

func handleLeaderboard(store Store, leaderboard *Leaderboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teams, err := store.ListTeams(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		clues, err := store.ListClues(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		byID := make(map[string]hunt.Team, len(teams))
		for _, t := range teams {
			byID[t.ID] = t
		}

		entries := make([]LeaderboardEntry, 0, len(teams))

		ranked, err := leaderboard.Ranked(r.Context())
		if err == nil && len(ranked) > 0 {
			for _, z := range ranked {
				id, _ := z.Member.(string)
				t, ok := byID[id]
				if !ok {
					continue
				}
				entries = append(entries, LeaderboardEntry{
					TeamID:         t.ID,
					TeamName:       t.Name,
					CompletedCount: int(z.Score),
					HuntComplete:   hunt.HuntComplete(t, clues),
				})
				delete(byID, id)
			}
		}

		// Teams Redis has not seen (or all of them, when Redis is down)
		// come from the store.
		rest := make([]LeaderboardEntry, 0, len(byID))
		for _, t := range byID {
			rest = append(rest, LeaderboardEntry{
				TeamID:         t.ID,
				TeamName:       t.Name,
				CompletedCount: hunt.CompletedCount(t, clues),
				HuntComplete:   hunt.HuntComplete(t, clues),
			})
		}
		sort.Slice(rest, func(i, j int) bool {
			if rest[i].CompletedCount != rest[j].CompletedCount {
				return rest[i].CompletedCount > rest[j].CompletedCount
			}
			return rest[i].TeamName < rest[j].TeamName
		})
		entries = append(entries, rest...)

		writeJSON(w, http.StatusOK, entries)
	}
}
