package storage

import (
	"context"
	"testing"
)

func TestClampPage(t *testing.T) {
	limit, offset := ClampPage(0, -5)
	if limit != DefaultPageSize || offset != 0 {
		t.Errorf("expected (%d, 0), got (%d, %d)", DefaultPageSize, limit, offset)
	}

	limit, offset = ClampPage(1000, 40)
	if limit != MaxPageSize || offset != 40 {
		t.Errorf("expected (%d, 40), got (%d, %d)", MaxPageSize, limit, offset)
	}

	limit, _ = ClampPage(7, 0)
	if limit != 7 {
		t.Errorf("expected limit=7 to be kept, got %d", limit)
	}
}

func TestNewStore_EmptyURLDisablesPersistence(t *testing.T) {
	s, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if s != nil {
		t.Fatal("expected nil store when DATABASE_URL is empty")
	}
}

func TestNilStore_IsSafe(t *testing.T) {
	var s *Store
	ctx := context.Background()

	if err := s.InsertResult(ctx, GameResult{SessionID: "x", Score: 10}); err != nil {
		t.Errorf("InsertResult on nil store: %v", err)
	}
	history, err := s.ListByUserID(ctx, "user-1", 10)
	if err != nil || history == nil || len(history) != 0 {
		t.Errorf("expected empty non-nil history, got %v, %v", history, err)
	}
	board, err := s.ListLeaderboard(ctx, 10, 0)
	if err != nil || board == nil || len(board) != 0 {
		t.Errorf("expected empty non-nil leaderboard, got %v, %v", board, err)
	}
	entry, err := s.GetLeaderboardEntryByUserID(ctx, "user-1")
	if err != nil || entry != nil {
		t.Errorf("expected (nil, nil), got %v, %v", entry, err)
	}
	s.Close()
}
