package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PointAccount is a character's running balance under a single point system.
// One row per (system, character); created lazily on first award and kept for
// the lifetime of the owning system. CurrentPoints is clamped at zero by the
// store-side update expression and is never persisted negative.
type PointAccount struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LootSystemID uuid.UUID `gorm:"column:loot_system_id;type:uuid;not null;uniqueIndex:idx_point_accounts_system_character"`
	CharacterID  uuid.UUID `gorm:"column:character_id;type:uuid;not null;uniqueIndex:idx_point_accounts_system_character"`

	CurrentPoints int64 `gorm:"column:current_points;not null;default:0"`
	EarnedTotal   int64 `gorm:"column:earned_total;not null;default:0"`
	SpentTotal    int64 `gorm:"column:spent_total;not null;default:0"`

	LastEarnedAt *time.Time `gorm:"column:last_earned_at"`
	LastSpentAt  *time.Time `gorm:"column:last_spent_at"`
	LastDecayAt  *time.Time `gorm:"column:last_decay_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	// PriorityRatio is derived from the lifetime totals at read time and is
	// never persisted. Uncapped marks accounts that have not spent yet.
	PriorityRatio decimal.Decimal `gorm:"-"`
	Uncapped      bool            `gorm:"-"`
}

func (PointAccount) TableName() string { return "point_accounts" }
