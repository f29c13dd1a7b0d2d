package loot

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/guildforge/guildforge-backend/pkg/db/models"
	"github.com/guildforge/guildforge-backend/pkg/enums"
	"github.com/guildforge/guildforge-backend/pkg/pagination"
	"gorm.io/gorm"
)

// historyFilter narrows loot history queries.
type historyFilter struct {
	CharacterID     *uuid.UUID
	Rarity          *enums.ItemRarity
	SourceType      *enums.LootSourceType
	DistributedOnly bool
	PendingOnly     bool
}

// Repository persists loot records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.LootRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.LootRecord, error)
	MarkDistributed(ctx context.Context, id, characterID uuid.UUID, awardedBy string, cost int64, now time.Time) (bool, error)
	ListBySystem(ctx context.Context, systemID uuid.UUID, filter historyFilter, params pagination.Params) ([]models.LootRecord, *pagination.Cursor, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a loot repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, record *models.LootRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.LootRecord, error) {
	var record models.LootRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// MarkDistributed claims an undistributed record. The distributed_at guard
// makes the claim first-wins under concurrent distribution attempts.
func (r *repository) MarkDistributed(ctx context.Context, id, characterID uuid.UUID, awardedBy string, cost int64, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.LootRecord{}).
		Where("id = ? AND distributed_at IS NULL", id).
		Updates(map[string]any{
			"awarded_to":     characterID,
			"awarded_by":     awardedBy,
			"dkp_cost":       cost,
			"distributed_at": now,
			"updated_at":     now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ListBySystem(ctx context.Context, systemID uuid.UUID, filter historyFilter, params pagination.Params) ([]models.LootRecord, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.LootRecord{}).Where("loot_system_id = ?", systemID)
	if filter.CharacterID != nil {
		query = query.Where("awarded_to = ?", *filter.CharacterID)
	}
	if filter.Rarity != nil {
		query = query.Where("item_rarity = ?", *filter.Rarity)
	}
	if filter.SourceType != nil {
		query = query.Where("source_type = ?", *filter.SourceType)
	}
	if filter.DistributedOnly {
		query = query.Where("distributed_at IS NOT NULL")
	}
	if filter.PendingOnly {
		query = query.Where("distributed_at IS NULL")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var records []models.LootRecord
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, nil, err
	}

	if len(records) > normalized {
		records = records[:normalized]
		last := records[normalized-1]
		return records, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return records, nil, nil
}
