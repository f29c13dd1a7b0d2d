package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/guildforge/guildforge-backend/pkg/enums"
)

// LootRecord captures an item drop and, once distributed, who claimed it and
// at what point cost. AwardedBy carries the acting identity as an opaque
// string supplied by the identity provider; CharacterID references are soft
// and never validated against the character directory.
type LootRecord struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LootSystemID uuid.UUID `gorm:"column:loot_system_id;type:uuid;not null;index"`

	ItemName    string               `gorm:"column:item_name;not null"`
	ItemRarity  enums.ItemRarity     `gorm:"column:item_rarity;type:item_rarity_enum;not null;default:'common'"`
	ItemSlot    *string              `gorm:"column:item_slot"`
	Description *string              `gorm:"column:description"`
	SourceType  enums.LootSourceType `gorm:"column:source_type;type:loot_source_type_enum;not null;default:'other'"`
	SourceName  *string              `gorm:"column:source_name"`

	AwardedTo *uuid.UUID `gorm:"column:awarded_to;type:uuid"`
	AwardedBy *string    `gorm:"column:awarded_by"`
	DKPCost   int64      `gorm:"column:dkp_cost;not null;default:0"`

	DroppedAt     time.Time  `gorm:"column:dropped_at;not null"`
	DistributedAt *time.Time `gorm:"column:distributed_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (LootRecord) TableName() string { return "loot_records" }
