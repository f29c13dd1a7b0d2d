package points

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/guildforge/guildforge-backend/pkg/db/models"
	"github.com/guildforge/guildforge-backend/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes persistence helpers for point accounts and the ledger.
// Balance mutations are expressed as store-side increment expressions so two
// concurrent callers never compute from the same stale row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, systemID, characterID uuid.UUID) (*models.PointAccount, error)
	Create(ctx context.Context, account *models.PointAccount) (bool, error)
	IncrementEarned(ctx context.Context, systemID, characterID uuid.UUID, amount int64, now time.Time) (bool, error)
	DecrementSpent(ctx context.Context, systemID, characterID uuid.UUID, amount int64, now time.Time) (updated, clamped bool, err error)
	DecayToFloor(ctx context.Context, accountID uuid.UUID, amount, floor int64, now time.Time) (bool, error)
	ListBySystem(ctx context.Context, systemID uuid.UUID) ([]models.PointAccount, error)
	AppendEntry(ctx context.Context, entry *models.LedgerEntry) error
	ListEntries(ctx context.Context, accountID uuid.UUID, params pagination.Params) ([]models.LedgerEntry, *pagination.Cursor, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a points repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Get(ctx context.Context, systemID, characterID uuid.UUID) (*models.PointAccount, error) {
	var account models.PointAccount
	err := r.db.WithContext(ctx).
		Where("loot_system_id = ? AND character_id = ?", systemID, characterID).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// Create inserts the account, tolerating a concurrent insert of the same
// (system, character) pair. It reports false when the row already existed so
// the caller can fall back to an increment; the insert never leaves the
// surrounding transaction in an error state.
func (r *repository) Create(ctx context.Context, account *models.PointAccount) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "loot_system_id"}, {Name: "character_id"}},
			DoNothing: true,
		}).
		Create(account)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// IncrementEarned applies an award as a single in-database increment. It
// reports false when no account row exists yet.
func (r *repository) IncrementEarned(ctx context.Context, systemID, characterID uuid.UUID, amount int64, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PointAccount{}).
		Where("loot_system_id = ? AND character_id = ?", systemID, characterID).
		Updates(map[string]any{
			"current_points": gorm.Expr("current_points + ?", amount),
			"earned_total":   gorm.Expr("earned_total + ?", amount),
			"last_earned_at": now,
			"updated_at":     now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DecrementSpent applies a deduction as in-database updates, clamping the
// balance at zero while recording the full requested amount in spent_total.
// The covered case runs first; the clamp fallback only fires when the balance
// cannot absorb the amount, so the clamped flag distinguishes a floored
// deduction from an exact spend to zero. Reports updated=false when no
// account row exists.
func (r *repository) DecrementSpent(ctx context.Context, systemID, characterID uuid.UUID, amount int64, now time.Time) (bool, bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PointAccount{}).
		Where("loot_system_id = ? AND character_id = ? AND current_points >= ?", systemID, characterID, amount).
		Updates(map[string]any{
			"current_points": gorm.Expr("current_points - ?", amount),
			"spent_total":    gorm.Expr("spent_total + ?", amount),
			"last_spent_at":  now,
			"updated_at":     now,
		})
	if result.Error != nil {
		return false, false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, false, nil
	}

	result = r.db.WithContext(ctx).
		Model(&models.PointAccount{}).
		Where("loot_system_id = ? AND character_id = ?", systemID, characterID).
		Updates(map[string]any{
			"current_points": gorm.Expr("CASE WHEN current_points - ? < 0 THEN 0 ELSE current_points - ? END", amount, amount),
			"spent_total":    gorm.Expr("spent_total + ?", amount),
			"last_spent_at":  now,
			"updated_at":     now,
		})
	if result.Error != nil {
		return false, false, result.Error
	}
	return result.RowsAffected > 0, result.RowsAffected > 0, nil
}

// DecayToFloor reduces the balance by amount without dropping below floor.
// Accounts already at or below the floor are left untouched and report false.
func (r *repository) DecayToFloor(ctx context.Context, accountID uuid.UUID, amount, floor int64, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PointAccount{}).
		Where("id = ? AND current_points > ?", accountID, floor).
		Updates(map[string]any{
			"current_points": gorm.Expr("CASE WHEN current_points - ? < ? THEN ? ELSE current_points - ? END", amount, floor, floor, amount),
			"last_decay_at":  now,
			"updated_at":     now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ListBySystem(ctx context.Context, systemID uuid.UUID) ([]models.PointAccount, error) {
	var accounts []models.PointAccount
	err := r.db.WithContext(ctx).
		Where("loot_system_id = ?", systemID).
		Order("current_points DESC, created_at ASC, id ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repository) AppendEntry(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListEntries(ctx context.Context, accountID uuid.UUID, params pagination.Params) ([]models.LedgerEntry, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).Where("account_id = ?", accountID)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var entries []models.LedgerEntry
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, nil, err
	}

	if len(entries) > normalized {
		entries = entries[:normalized]
		last := entries[normalized-1]
		return entries, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return entries, nil, nil
}
