package systems

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/guildforge/guildforge-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists point-system configuration rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, system *models.PointSystem) error
	Save(ctx context.Context, system *models.PointSystem) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PointSystem, error)
	ActiveForGroup(ctx context.Context, groupID uuid.UUID) (*models.PointSystem, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.PointSystem, error)
	ListDecayEnabled(ctx context.Context) ([]models.PointSystem, error)
	DeactivateForGroup(ctx context.Context, groupID uuid.UUID, now time.Time) error
	SetActive(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a systems repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, system *models.PointSystem) error {
	return r.db.WithContext(ctx).Create(system).Error
}

func (r *repository) Save(ctx context.Context, system *models.PointSystem) error {
	return r.db.WithContext(ctx).Save(system).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.PointSystem, error) {
	var system models.PointSystem
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&system).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &system, nil
}

func (r *repository) ActiveForGroup(ctx context.Context, groupID uuid.UUID) (*models.PointSystem, error) {
	var system models.PointSystem
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND is_active = ?", groupID, true).
		First(&system).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &system, nil
}

func (r *repository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.PointSystem, error) {
	var systems []models.PointSystem
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at ASC, id ASC").
		Find(&systems).Error
	if err != nil {
		return nil, err
	}
	return systems, nil
}

// ListDecayEnabled returns every active system with decay configured. Used by
// the decay sweep.
func (r *repository) ListDecayEnabled(ctx context.Context) ([]models.PointSystem, error) {
	var systems []models.PointSystem
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND decay_enabled = ? AND decay_rate_bps > 0", true, true).
		Order("created_at ASC, id ASC").
		Find(&systems).Error
	if err != nil {
		return nil, err
	}
	return systems, nil
}

func (r *repository) DeactivateForGroup(ctx context.Context, groupID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.PointSystem{}).
		Where("group_id = ? AND is_active = ?", groupID, true).
		Updates(map[string]any{"is_active": false, "updated_at": now}).
		Error
}

func (r *repository) SetActive(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PointSystem{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": true, "updated_at": now})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
