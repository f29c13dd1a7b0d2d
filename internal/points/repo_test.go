package points

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/guildforge/guildforge-backend/pkg/db/models"
	"github.com/guildforge/guildforge-backend/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupPointsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	pointSystems := `
CREATE TABLE IF NOT EXISTS point_systems (
  id TEXT PRIMARY KEY,
  group_id TEXT NOT NULL,
  name TEXT NOT NULL,
  system_type TEXT NOT NULL DEFAULT 'dkp',
  is_active INTEGER NOT NULL DEFAULT 0,
  starting_points INTEGER NOT NULL DEFAULT 0,
  decay_enabled INTEGER NOT NULL DEFAULT 0,
  decay_rate_bps INTEGER NOT NULL DEFAULT 0,
  decay_minimum INTEGER NOT NULL DEFAULT 0,
  attendance_points INTEGER NOT NULL DEFAULT 0,
  kill_points INTEGER NOT NULL DEFAULT 0,
  event_points INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	pointAccounts := `
CREATE TABLE IF NOT EXISTS point_accounts (
  id TEXT PRIMARY KEY,
  loot_system_id TEXT NOT NULL,
  character_id TEXT NOT NULL,
  current_points INTEGER NOT NULL DEFAULT 0,
  earned_total INTEGER NOT NULL DEFAULT 0,
  spent_total INTEGER NOT NULL DEFAULT 0,
  last_earned_at DATETIME,
  last_spent_at DATETIME,
  last_decay_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	accountIndex := `
CREATE UNIQUE INDEX IF NOT EXISTS idx_point_accounts_system_character
  ON point_accounts (loot_system_id, character_id);`
	ledgerEntries := `
CREATE TABLE IF NOT EXISTS ledger_entries (
  id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL,
  amount INTEGER NOT NULL,
  reason TEXT NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, conn.Exec(pointSystems).Error)
	require.NoError(t, conn.Exec(pointAccounts).Error)
	require.NoError(t, conn.Exec(accountIndex).Error)
	require.NoError(t, conn.Exec(ledgerEntries).Error)
	return conn
}

func newSystem(t *testing.T, conn *gorm.DB, startingPoints int64) *models.PointSystem {
	t.Helper()

	system := &models.PointSystem{
		ID:             uuid.New(),
		GroupID:        uuid.New(),
		Name:           "main raid",
		SystemType:     "dkp",
		IsActive:       true,
		StartingPoints: startingPoints,
	}
	require.NoError(t, conn.Create(system).Error)
	return system
}

func newAccount(t *testing.T, conn *gorm.DB, systemID uuid.UUID, current, earned, spent int64) *models.PointAccount {
	t.Helper()

	account := &models.PointAccount{
		ID:            uuid.New(),
		LootSystemID:  systemID,
		CharacterID:   uuid.New(),
		CurrentPoints: current,
		EarnedTotal:   earned,
		SpentTotal:    spent,
	}
	require.NoError(t, conn.Create(account).Error)
	return account
}

func TestRepository_IncrementEarned(t *testing.T) {
	conn := setupPointsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	system := newSystem(t, conn, 0)
	account := newAccount(t, conn, system.ID, 100, 100, 0)

	updated, err := repo.IncrementEarned(ctx, system.ID, account.CharacterID, 25, time.Now())
	require.NoError(t, err)
	assert.True(t, updated)

	got, err := repo.Get(ctx, system.ID, account.CharacterID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(125), got.CurrentPoints)
	assert.Equal(t, int64(125), got.EarnedTotal)
	require.NotNil(t, got.LastEarnedAt)

	updated, err = repo.IncrementEarned(ctx, system.ID, uuid.New(), 25, time.Now())
	require.NoError(t, err)
	assert.False(t, updated, "missing account should not match")
}

func TestRepository_DecrementSpentClampsBalance(t *testing.T) {
	conn := setupPointsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	system := newSystem(t, conn, 0)
	account := newAccount(t, conn, system.ID, 120, 120, 0)

	updated, clamped, err := repo.DecrementSpent(ctx, system.ID, account.CharacterID, 150, time.Now())
	require.NoError(t, err)
	assert.True(t, updated)
	assert.True(t, clamped, "overspend reports the floor")

	got, err := repo.Get(ctx, system.ID, account.CharacterID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(0), got.CurrentPoints, "balance clamps at zero")
	assert.Equal(t, int64(150), got.SpentTotal, "spent total keeps the full charge")
	require.NotNil(t, got.LastSpentAt)
}

func TestRepository_DecrementSpentExactToZero(t *testing.T) {
	conn := setupPointsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	system := newSystem(t, conn, 0)
	account := newAccount(t, conn, system.ID, 50, 50, 0)

	updated, clamped, err := repo.DecrementSpent(ctx, system.ID, account.CharacterID, 50, time.Now())
	require.NoError(t, err)
	assert.True(t, updated)
	assert.False(t, clamped, "spending the exact balance is not a clamp")

	got, err := repo.Get(ctx, system.ID, account.CharacterID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.CurrentPoints)
	assert.Equal(t, int64(50), got.SpentTotal)
}

func TestRepository_DecrementSpentPartial(t *testing.T) {
	conn := setupPointsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	system := newSystem(t, conn, 0)
	account := newAccount(t, conn, system.ID, 200, 200, 0)

	updated, clamped, err := repo.DecrementSpent(ctx, system.ID, account.CharacterID, 75, time.Now())
	require.NoError(t, err)
	assert.True(t, updated)
	assert.False(t, clamped)

	got, err := repo.Get(ctx, system.ID, account.CharacterID)
	require.NoError(t, err)
	assert.Equal(t, int64(125), got.CurrentPoints)
	assert.Equal(t, int64(75), got.SpentTotal)
}

func TestRepository_DecayToFloor(t *testing.T) {
	conn := setupPointsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	system := newSystem(t, conn, 0)

	above := newAccount(t, conn, system.ID, 1000, 1000, 0)
	applied, err := repo.DecayToFloor(ctx, above.ID, 100, 50, time.Now())
	require.NoError(t, err)
	assert.True(t, applied)

	got, err := repo.Get(ctx, system.ID, above.CharacterID)
	require.NoError(t, err)
	assert.Equal(t, int64(900), got.CurrentPoints)
	require.NotNil(t, got.LastDecayAt)

	nearFloor := newAccount(t, conn, system.ID, 60, 60, 0)
	applied, err = repo.DecayToFloor(ctx, nearFloor.ID, 100, 50, time.Now())
	require.NoError(t, err)
	assert.True(t, applied)

	got, err = repo.Get(ctx, system.ID, nearFloor.CharacterID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.CurrentPoints, "decay stops at the floor")

	atFloor := newAccount(t, conn, system.ID, 50, 50, 0)
	applied, err = repo.DecayToFloor(ctx, atFloor.ID, 100, 50, time.Now())
	require.NoError(t, err)
	assert.False(t, applied, "accounts at the floor are untouched")
}

func TestRepository_CreateDuplicateAccount(t *testing.T) {
	conn := setupPointsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	system := newSystem(t, conn, 0)
	account := newAccount(t, conn, system.ID, 0, 0, 0)

	dupe := &models.PointAccount{
		ID:           uuid.New(),
		LootSystemID: system.ID,
		CharacterID:  account.CharacterID,
	}
	created, err := repo.Create(ctx, dupe)
	require.NoError(t, err, "a losing insert must not error out the transaction")
	assert.False(t, created, "duplicate (system, character) insert is a no-op")

	got, err := repo.Get(ctx, system.ID, account.CharacterID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, account.ID, got.ID, "the first row survives")
}

func TestRepository_ListBySystemOrdersByStanding(t *testing.T) {
	conn := setupPointsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	system := newSystem(t, conn, 0)
	newAccount(t, conn, system.ID, 50, 50, 0)
	newAccount(t, conn, system.ID, 80, 80, 0)
	newAccount(t, conn, system.ID, 80, 80, 0)
	newAccount(t, conn, system.ID, 10, 10, 0)

	accounts, err := repo.ListBySystem(ctx, system.ID)
	require.NoError(t, err)
	require.Len(t, accounts, 4)
	balances := []int64{accounts[0].CurrentPoints, accounts[1].CurrentPoints, accounts[2].CurrentPoints, accounts[3].CurrentPoints}
	assert.Equal(t, []int64{80, 80, 50, 10}, balances)
}

func TestRepository_ListEntriesPaginates(t *testing.T) {
	conn := setupPointsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	accountID := uuid.New()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 7; i++ {
		entry := &models.LedgerEntry{
			ID:        uuid.New(),
			AccountID: accountID,
			Amount:    int64(i + 1),
			Reason:    "raid attendance",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, conn.Create(entry).Error)
	}

	first, cursor, err := repo.ListEntries(ctx, accountID, pagination.Params{Limit: 5})
	require.NoError(t, err)
	require.Len(t, first, 5)
	require.NotNil(t, cursor, "more rows should produce a cursor")
	assert.Equal(t, int64(7), first[0].Amount, "newest entry first")

	second, next, err := repo.ListEntries(ctx, accountID, pagination.Params{
		Limit:  5,
		Cursor: pagination.EncodeCursor(*cursor),
	})
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Nil(t, next)
	assert.Equal(t, int64(2), second[0].Amount)
	assert.Equal(t, int64(1), second[1].Amount)
}
