package ranking

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/guildforge/guildforge-backend/pkg/db/models"
)

// accountLister is the slice of the points service the leaderboard needs.
type accountLister interface {
	AccountsForSystem(ctx context.Context, systemID uuid.UUID) ([]models.PointAccount, error)
}

// Entry is one leaderboard row. Ranks are sequential: tied balances keep
// their insertion order and still occupy distinct ranks.
type Entry struct {
	Rank    int                 `json:"rank"`
	Account models.PointAccount `json:"account"`
}

// Service produces standings for a point system.
type Service interface {
	Leaderboard(ctx context.Context, systemID uuid.UUID, limit int) ([]Entry, error)
}

type service struct {
	points accountLister
}

// NewService returns the ranking service.
func NewService(points accountLister) (Service, error) {
	if points == nil {
		return nil, fmt.Errorf("points service is required")
	}
	return &service{points: points}, nil
}

// Leaderboard returns accounts ordered by balance, highest first. The store
// query already breaks ties on creation time so the ordering is stable across
// reads. A non-positive limit returns the full roster.
func (s *service) Leaderboard(ctx context.Context, systemID uuid.UUID, limit int) ([]Entry, error) {
	accounts, err := s.points.AccountsForSystem(ctx, systemID)
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(accounts) > limit {
		accounts = accounts[:limit]
	}

	entries := make([]Entry, len(accounts))
	for i := range accounts {
		entries[i] = Entry{Rank: i + 1, Account: accounts[i]}
	}
	return entries, nil
}
