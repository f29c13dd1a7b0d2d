package ranking

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/guildforge/guildforge-backend/pkg/db/models"
)

type fakeLister struct {
	accounts []models.PointAccount
	err      error
}

func (f *fakeLister) AccountsForSystem(ctx context.Context, systemID uuid.UUID) ([]models.PointAccount, error) {
	return f.accounts, f.err
}

func account(points int64) models.PointAccount {
	return models.PointAccount{
		ID:            uuid.New(),
		CharacterID:   uuid.New(),
		CurrentPoints: points,
	}
}

func TestLeaderboard_SequentialRanksWithTies(t *testing.T) {
	lister := &fakeLister{accounts: []models.PointAccount{
		account(80),
		account(80),
		account(50),
		account(10),
	}}
	svc, err := NewService(lister)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	entries, err := svc.Leaderboard(context.Background(), uuid.New(), 0)
	if err != nil {
		t.Fatalf("Leaderboard error: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}

	wantBalances := []int64{80, 80, 50, 10}
	for i, entry := range entries {
		if entry.Rank != i+1 {
			t.Fatalf("entry %d: expected rank %d, got %d", i, i+1, entry.Rank)
		}
		if entry.Account.CurrentPoints != wantBalances[i] {
			t.Fatalf("entry %d: expected balance %d, got %d", i, wantBalances[i], entry.Account.CurrentPoints)
		}
	}
}

func TestLeaderboard_Limit(t *testing.T) {
	lister := &fakeLister{accounts: []models.PointAccount{
		account(100), account(90), account(80),
	}}
	svc, err := NewService(lister)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	entries, err := svc.Leaderboard(context.Background(), uuid.New(), 2)
	if err != nil {
		t.Fatalf("Leaderboard error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].Rank != 2 || entries[1].Account.CurrentPoints != 90 {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
}

func TestLeaderboard_Empty(t *testing.T) {
	svc, err := NewService(&fakeLister{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	entries, err := svc.Leaderboard(context.Background(), uuid.New(), 0)
	if err != nil {
		t.Fatalf("Leaderboard error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty leaderboard, got %d entries", len(entries))
	}
}

func TestLeaderboard_PropagatesError(t *testing.T) {
	boom := errors.New("store down")
	svc, err := NewService(&fakeLister{err: boom})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	if _, err := svc.Leaderboard(context.Background(), uuid.New(), 0); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestNewService_RequiresLister(t *testing.T) {
	if _, err := NewService(nil); err == nil {
		t.Fatal("expected error for nil points service")
	}
}
