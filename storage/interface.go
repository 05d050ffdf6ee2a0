package storage

import "context"

// ResultStore abstracts persistence for finished sessions, history and leaderboard.
// Implementations can be swapped for testing (mocks) or different backends.
type ResultStore interface {
	// Read
	ListByUserID(ctx context.Context, userID string, limit int) ([]GameRecord, error)
	ListLeaderboard(ctx context.Context, limit, offset int) ([]LeaderboardEntry, error)
	GetLeaderboardEntryByUserID(ctx context.Context, userID string) (*LeaderboardEntry, error)

	// Write
	InsertResult(ctx context.Context, r GameResult) error

	// Lifecycle
	Close()
}

// Ensure *Store implements ResultStore at compile time.
var _ ResultStore = (*Store)(nil)
