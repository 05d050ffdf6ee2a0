package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS game_results (
	id            UUID PRIMARY KEY,
	played_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	user_id       TEXT NOT NULL DEFAULT '',
	player_name   TEXT NOT NULL DEFAULT '',
	score         INT NOT NULL,
	time_left     INT NOT NULL,
	pairs_matched INT NOT NULL,
	pairs_total   INT NOT NULL,
	end_reason    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_game_results_user_id ON game_results(user_id);
CREATE INDEX IF NOT EXISTS idx_game_results_score ON game_results(score DESC);
`

// rankedSQL ranks every signed-in player by best score. Guests (empty user_id) are not ranked.
const rankedSQL = `
WITH best AS (
	SELECT user_id,
		MAX(player_name) AS player_name,
		MAX(score) AS best_score,
		COUNT(*) AS games_played,
		COUNT(*) FILTER (WHERE end_reason = 'completed') AS games_completed
	FROM game_results
	WHERE user_id <> ''
	GROUP BY user_id
)
SELECT RANK() OVER (ORDER BY best_score DESC) AS rank, user_id, player_name, best_score, games_played, games_completed
FROM best`

// Store persists and retrieves session results.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres and ensures the game_results table exists.
// If databaseURL is empty, NewStore returns (nil, nil) and no persistence occurs.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, err
	}
	slog.Info("connected to Postgres", "tag", "storage")
	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// GameResult is one finished session to persist.
type GameResult struct {
	SessionID    string
	UserID       string
	PlayerName   string
	Score        int
	TimeLeft     int
	PairsMatched int
	PairsTotal   int
	EndReason    string
	PlayedAt     time.Time
}

// InsertResult records a finished session. SessionID must be a UUID; a fresh one is used otherwise.
func (s *Store) InsertResult(ctx context.Context, r GameResult) error {
	if s == nil || s.pool == nil {
		return nil
	}
	id, err := uuid.Parse(r.SessionID)
	if err != nil {
		id = uuid.New()
	}
	playedAt := r.PlayedAt
	if playedAt.IsZero() {
		playedAt = time.Now()
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO game_results (id, played_at, user_id, player_name, score, time_left, pairs_matched, pairs_total, end_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, playedAt, r.UserID, r.PlayerName, r.Score, r.TimeLeft, r.PairsMatched, r.PairsTotal, r.EndReason)
	return err
}

// GameRecord is a single row returned for the history API.
type GameRecord struct {
	ID           string `json:"id"`
	PlayedAt     string `json:"played_at"` // ISO8601
	Score        int    `json:"score"`
	TimeLeft     int    `json:"time_left"`
	PairsMatched int    `json:"pairs_matched"`
	PairsTotal   int    `json:"pairs_total"`
	EndReason    string `json:"end_reason"`
}

// ListByUserID returns the user's sessions ordered by played_at DESC.
func (s *Store) ListByUserID(ctx context.Context, userID string, limit int) ([]GameRecord, error) {
	if s == nil || s.pool == nil || userID == "" {
		return []GameRecord{}, nil
	}
	limit, _ = ClampPage(limit, 0)
	rows, err := s.pool.Query(ctx, `
		SELECT id, played_at, score, time_left, pairs_matched, pairs_total, end_reason
		FROM game_results
		WHERE user_id = $1
		ORDER BY played_at DESC
		LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []GameRecord{}
	for rows.Next() {
		var r GameRecord
		var id uuid.UUID
		var playedAt time.Time
		if err := rows.Scan(&id, &playedAt, &r.Score, &r.TimeLeft, &r.PairsMatched, &r.PairsTotal, &r.EndReason); err != nil {
			return nil, err
		}
		r.ID = id.String()
		r.PlayedAt = playedAt.UTC().Format(time.RFC3339)
		out = append(out, r)
	}
	return out, rows.Err()
}

// LeaderboardEntry is a single row for the leaderboard API.
type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	UserID         string `json:"user_id"`
	PlayerName     string `json:"player_name"`
	BestScore      int    `json:"best_score"`
	GamesPlayed    int    `json:"games_played"`
	GamesCompleted int    `json:"games_completed"`
	IsCurrentUser  bool   `json:"is_current_user,omitempty"`
}

// ListLeaderboard returns entries ordered by best score DESC, with optional limit and offset.
func (s *Store) ListLeaderboard(ctx context.Context, limit, offset int) ([]LeaderboardEntry, error) {
	if s == nil || s.pool == nil {
		return []LeaderboardEntry{}, nil
	}
	limit, offset = ClampPage(limit, offset)
	rows, err := s.pool.Query(ctx, rankedSQL+`
		ORDER BY best_score DESC, user_id
		LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LeaderboardEntry{}
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Rank, &e.UserID, &e.PlayerName, &e.BestScore, &e.GamesPlayed, &e.GamesCompleted); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetLeaderboardEntryByUserID returns one player's leaderboard entry by user_id, or (nil, nil) if not found.
func (s *Store) GetLeaderboardEntryByUserID(ctx context.Context, userID string) (*LeaderboardEntry, error) {
	if s == nil || s.pool == nil || userID == "" {
		return nil, nil
	}
	var e LeaderboardEntry
	err := s.pool.QueryRow(ctx, `SELECT * FROM (`+rankedSQL+`) ranked WHERE user_id = $1`, userID).
		Scan(&e.Rank, &e.UserID, &e.PlayerName, &e.BestScore, &e.GamesPlayed, &e.GamesCompleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// ClampPage normalizes pagination: limit defaults to DefaultPageSize and is capped at MaxPageSize; offset is never negative.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
