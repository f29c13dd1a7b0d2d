package loot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/guildforge/guildforge-backend/pkg/db"
	"github.com/guildforge/guildforge-backend/pkg/db/models"
	"github.com/guildforge/guildforge-backend/pkg/enums"
	apperrors "github.com/guildforge/guildforge-backend/pkg/errors"
	"github.com/guildforge/guildforge-backend/pkg/logger"
	"github.com/guildforge/guildforge-backend/pkg/pagination"
	"gorm.io/gorm"
)

var (
	// ErrLootNotFound is returned when a loot record id does not resolve.
	ErrLootNotFound = apperrors.New(apperrors.CodeNotFound, "loot record not found")
	// ErrAlreadyDistributed is returned when a record has already been claimed.
	ErrAlreadyDistributed = apperrors.New(apperrors.CodeStateConflict, "loot record already distributed")
	// ErrInvalidCost is returned when a distribution cost is negative.
	ErrInvalidCost = apperrors.New(apperrors.CodeValidation, "cost cannot be negative")
)

// pointSpender is the slice of the points service the loot workflow needs:
// charging a character inside the distribution transaction.
type pointSpender interface {
	DeductTx(ctx context.Context, tx *gorm.DB, systemID, characterID uuid.UUID, amount int64, reason string) (*models.PointAccount, error)
}

// RecordDropInput captures an item drop. When AwardTo is set the drop is
// distributed immediately in the same transaction.
type RecordDropInput struct {
	SystemID    uuid.UUID
	ItemName    string
	ItemRarity  enums.ItemRarity
	ItemSlot    *string
	Description *string
	SourceType  enums.LootSourceType
	SourceName  *string
	DroppedAt   time.Time

	AwardTo   *uuid.UUID
	AwardedBy string
	Cost      int64
}

// DistributeInput assigns a pending drop to a character.
type DistributeInput struct {
	LootID      uuid.UUID
	CharacterID uuid.UUID
	AwardedBy   string
	Cost        int64
}

// HistoryParams filters a system's loot history.
type HistoryParams struct {
	CharacterID     *uuid.UUID
	Rarity          *enums.ItemRarity
	SourceType      *enums.LootSourceType
	DistributedOnly bool
	PendingOnly     bool
	Pagination      pagination.Params
}

// Service owns the drop and distribution workflow. Distribution pairs the
// record claim with the point charge in one transaction: both land or neither
// does.
type Service interface {
	RecordDrop(ctx context.Context, input RecordDropInput) (*models.LootRecord, error)
	Distribute(ctx context.Context, input DistributeInput) (*models.LootRecord, error)
	Get(ctx context.Context, id uuid.UUID) (*models.LootRecord, error)
	History(ctx context.Context, systemID uuid.UUID, params HistoryParams) ([]models.LootRecord, *pagination.Cursor, error)
}

// ServiceParams bundles the dependencies for NewService.
type ServiceParams struct {
	DB     *db.Client
	Repo   Repository
	Points pointSpender
	Logger *logger.Logger
}

type service struct {
	db     *db.Client
	repo   Repository
	points pointSpender
	logger *logger.Logger
	now    func() time.Time
}

// NewService validates the dependency set and returns the loot service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("loot repository is required")
	}
	if params.Points == nil {
		return nil, fmt.Errorf("points service is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		db:     params.DB,
		repo:   params.Repo,
		points: params.Points,
		logger: params.Logger,
		now:    time.Now,
	}, nil
}

func (s *service) RecordDrop(ctx context.Context, input RecordDropInput) (*models.LootRecord, error) {
	if err := validateDrop(&input); err != nil {
		return nil, err
	}

	record := &models.LootRecord{
		ID:           uuid.New(),
		LootSystemID: input.SystemID,
		ItemName:     input.ItemName,
		ItemRarity:   input.ItemRarity,
		ItemSlot:     input.ItemSlot,
		Description:  input.Description,
		SourceType:   input.SourceType,
		SourceName:   input.SourceName,
		DroppedAt:    input.DroppedAt,
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.AwardTo != nil {
			now := s.now()
			record.AwardedTo = input.AwardTo
			record.AwardedBy = &input.AwardedBy
			record.DKPCost = input.Cost
			record.DistributedAt = &now
		}
		if err := repo.Create(ctx, record); err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "creating loot record")
		}
		if input.AwardTo != nil && input.Cost > 0 {
			if _, err := s.points.DeductTx(ctx, tx, input.SystemID, *input.AwardTo, input.Cost, chargeReason(input.ItemName)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(s.logger.WithSystemID(ctx, input.SystemID.String()), "loot drop recorded")
	return record, nil
}

// Distribute claims a pending drop for a character and charges the cost. A
// record can only be distributed once; concurrent attempts race on the
// distributed_at guard and the loser gets ErrAlreadyDistributed.
func (s *service) Distribute(ctx context.Context, input DistributeInput) (*models.LootRecord, error) {
	if input.CharacterID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "character id is required")
	}
	if input.Cost < 0 {
		return nil, ErrInvalidCost
	}

	var record *models.LootRecord
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.GetByID(ctx, input.LootID)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "loading loot record")
		}
		if existing == nil {
			return ErrLootNotFound
		}
		if existing.DistributedAt != nil {
			return ErrAlreadyDistributed
		}

		now := s.now()
		claimed, err := repo.MarkDistributed(ctx, input.LootID, input.CharacterID, input.AwardedBy, input.Cost, now)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "claiming loot record")
		}
		if !claimed {
			return ErrAlreadyDistributed
		}

		if input.Cost > 0 {
			if _, err := s.points.DeductTx(ctx, tx, existing.LootSystemID, input.CharacterID, input.Cost, chargeReason(existing.ItemName)); err != nil {
				return err
			}
		}

		existing.AwardedTo = &input.CharacterID
		existing.AwardedBy = &input.AwardedBy
		existing.DKPCost = input.Cost
		existing.DistributedAt = &now
		record = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(s.logger.WithCharacterID(ctx, input.CharacterID.String()), "loot distributed")
	return record, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.LootRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading loot record")
	}
	if record == nil {
		return nil, ErrLootNotFound
	}
	return record, nil
}

func (s *service) History(ctx context.Context, systemID uuid.UUID, params HistoryParams) ([]models.LootRecord, *pagination.Cursor, error) {
	filter := historyFilter{
		CharacterID:     params.CharacterID,
		Rarity:          params.Rarity,
		SourceType:      params.SourceType,
		DistributedOnly: params.DistributedOnly,
		PendingOnly:     params.PendingOnly,
	}
	records, next, err := s.repo.ListBySystem(ctx, systemID, filter, params.Pagination)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing loot history")
	}
	return records, next, nil
}

func validateDrop(input *RecordDropInput) error {
	if input.SystemID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "system id is required")
	}
	if input.ItemName == "" {
		return apperrors.New(apperrors.CodeValidation, "item name is required")
	}
	if input.ItemRarity == "" {
		input.ItemRarity = enums.ItemRarityCommon
	}
	if !input.ItemRarity.IsValid() {
		return apperrors.New(apperrors.CodeValidation, "invalid item rarity")
	}
	if input.SourceType == "" {
		input.SourceType = enums.LootSourceOther
	}
	if !input.SourceType.IsValid() {
		return apperrors.New(apperrors.CodeValidation, "invalid loot source")
	}
	if input.Cost < 0 {
		return ErrInvalidCost
	}
	if input.DroppedAt.IsZero() {
		input.DroppedAt = time.Now()
	}
	return nil
}

func chargeReason(itemName string) string {
	return "loot: " + itemName
}
