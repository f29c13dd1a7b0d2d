package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/guildforge/guildforge-backend/pkg/enums"
)

// PointSystem is a group's configured point-economy policy. At most one row
// per group carries is_active = true, enforced by a partial unique index.
type PointSystem struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GroupID    uuid.UUID        `gorm:"column:group_id;type:uuid;not null"`
	Name       string           `gorm:"column:name;not null"`
	SystemType enums.SystemType `gorm:"column:system_type;type:point_system_type_enum;not null;default:'dkp'"`
	IsActive   bool             `gorm:"column:is_active;not null;default:false"`

	StartingPoints int64 `gorm:"column:starting_points;not null;default:0"`

	DecayEnabled bool  `gorm:"column:decay_enabled;not null;default:false"`
	DecayRateBps int64 `gorm:"column:decay_rate_bps;not null;default:0"`
	DecayMinimum int64 `gorm:"column:decay_minimum;not null;default:0"`

	AttendancePoints int64 `gorm:"column:attendance_points;not null;default:0"`
	KillPoints       int64 `gorm:"column:kill_points;not null;default:0"`
	EventPoints      int64 `gorm:"column:event_points;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (PointSystem) TableName() string { return "point_systems" }
