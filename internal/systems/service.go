package systems

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
	"gorm.io/gorm"
)

var (
	// ErrSystemNotFound is returned when a point system id does not resolve.
	ErrSystemNotFound = apperrors.New(apperrors.CodeNotFound, "point system not found")
	// ErrNoActiveSystem is returned when a group has no active point system.
	ErrNoActiveSystem = apperrors.New(apperrors.CodeNotFound, "group has no active point system")
	// ErrWrongGroup is returned when a system id belongs to another group.
	ErrWrongGroup = apperrors.New(apperrors.CodeForbidden, "point system belongs to another group")
)

const maxDecayRateBps = 10_000

// CreateSystemInput carries the configuration for a new point system.
type CreateSystemInput struct {
	GroupID          uuid.UUID
	Name             string
	SystemType       enums.SystemType
	StartingPoints   int64
	DecayEnabled     bool
	DecayRateBps     int64
	DecayMinimum     int64
	AttendancePoints int64
	KillPoints       int64
	EventPoints      int64
	Activate         bool
}

// UpdateSystemInput carries a partial configuration update. Nil fields are
// left unchanged.
type UpdateSystemInput struct {
	Name             *string
	StartingPoints   *int64
	DecayEnabled     *bool
	DecayRateBps     *int64
	DecayMinimum     *int64
	AttendancePoints *int64
	KillPoints       *int64
	EventPoints      *int64
}

// Service manages point-system configuration. Activation is a swap: at most
// one system per group is active at a time.
type Service interface {
	Create(ctx context.Context, input CreateSystemInput) (*models.PointSystem, error)
	Update(ctx context.Context, groupID, systemID uuid.UUID, input UpdateSystemInput) (*models.PointSystem, error)
	Activate(ctx context.Context, groupID, systemID uuid.UUID) (*models.PointSystem, error)
	Get(ctx context.Context, groupID, systemID uuid.UUID) (*models.PointSystem, error)
	ActiveForGroup(ctx context.Context, groupID uuid.UUID) (*models.PointSystem, error)
	ListForGroup(ctx context.Context, groupID uuid.UUID) ([]models.PointSystem, error)
	ListDecayEnabled(ctx context.Context) ([]models.PointSystem, error)
	System(ctx context.Context, id uuid.UUID) (*models.PointSystem, error)
}

// ServiceParams bundles the dependencies for NewService.
type ServiceParams struct {
	DB     *db.Client
	Repo   Repository
	Logger *logger.Logger
}

type service struct {
	db     *db.Client
	repo   Repository
	logger *logger.Logger
	now    func() time.Time
}

// NewService validates the dependency set and returns the systems service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("systems repository is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		db:     params.DB,
		repo:   params.Repo,
		logger: params.Logger,
		now:    time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateSystemInput) (*models.PointSystem, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	system := &models.PointSystem{
		ID:               uuid.New(),
		GroupID:          input.GroupID,
		Name:             input.Name,
		SystemType:       input.SystemType,
		StartingPoints:   input.StartingPoints,
		DecayEnabled:     input.DecayEnabled,
		DecayRateBps:     input.DecayRateBps,
		DecayMinimum:     input.DecayMinimum,
		AttendancePoints: input.AttendancePoints,
		KillPoints:       input.KillPoints,
		EventPoints:      input.EventPoints,
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.Activate {
			if err := repo.DeactivateForGroup(ctx, input.GroupID, s.now()); err != nil {
				return apperrors.Wrap(apperrors.CodeDependency, err, "deactivating current system")
			}
			system.IsActive = true
		}
		if err := repo.Create(ctx, system); err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "creating point system")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(s.logger.WithSystemID(ctx, system.ID.String()), "point system created")
	return system, nil
}

func (s *service) Update(ctx context.Context, groupID, systemID uuid.UUID, input UpdateSystemInput) (*models.PointSystem, error) {
	system, err := s.ownedSystem(ctx, groupID, systemID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.New(apperrors.CodeValidation, "name cannot be empty")
		}
		system.Name = *input.Name
	}
	if input.StartingPoints != nil {
		if *input.StartingPoints < 0 {
			return nil, apperrors.New(apperrors.CodeValidation, "starting points cannot be negative")
		}
		system.StartingPoints = *input.StartingPoints
	}
	if input.DecayEnabled != nil {
		system.DecayEnabled = *input.DecayEnabled
	}
	if input.DecayRateBps != nil {
		if *input.DecayRateBps < 0 || *input.DecayRateBps > maxDecayRateBps {
			return nil, apperrors.New(apperrors.CodeValidation, "decay rate must be between 0 and 10000 basis points")
		}
		system.DecayRateBps = *input.DecayRateBps
	}
	if input.DecayMinimum != nil {
		if *input.DecayMinimum < 0 {
			return nil, apperrors.New(apperrors.CodeValidation, "decay minimum cannot be negative")
		}
		system.DecayMinimum = *input.DecayMinimum
	}
	if input.AttendancePoints != nil {
		system.AttendancePoints = *input.AttendancePoints
	}
	if input.KillPoints != nil {
		system.KillPoints = *input.KillPoints
	}
	if input.EventPoints != nil {
		system.EventPoints = *input.EventPoints
	}

	if err := s.repo.Save(ctx, system); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "saving point system")
	}
	return system, nil
}

// Activate swaps the group's active system. The current active system is
// deactivated and the target activated inside one transaction so the partial
// unique index never sees two active rows.
func (s *service) Activate(ctx context.Context, groupID, systemID uuid.UUID) (*models.PointSystem, error) {
	system, err := s.ownedSystem(ctx, groupID, systemID)
	if err != nil {
		return nil, err
	}
	if system.IsActive {
		return system, nil
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := s.now()
		if err := repo.DeactivateForGroup(ctx, groupID, now); err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "deactivating current system")
		}
		activated, err := repo.SetActive(ctx, systemID, now)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "activating system")
		}
		if !activated {
			return ErrSystemNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	system.IsActive = true
	s.logger.Info(s.logger.WithSystemID(ctx, systemID.String()), "point system activated")
	return system, nil
}

func (s *service) Get(ctx context.Context, groupID, systemID uuid.UUID) (*models.PointSystem, error) {
	return s.ownedSystem(ctx, groupID, systemID)
}

func (s *service) ActiveForGroup(ctx context.Context, groupID uuid.UUID) (*models.PointSystem, error) {
	system, err := s.repo.ActiveForGroup(ctx, groupID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading active system")
	}
	if system == nil {
		return nil, ErrNoActiveSystem
	}
	return system, nil
}

func (s *service) ListForGroup(ctx context.Context, groupID uuid.UUID) ([]models.PointSystem, error) {
	systems, err := s.repo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing systems")
	}
	return systems, nil
}

func (s *service) ListDecayEnabled(ctx context.Context) ([]models.PointSystem, error) {
	systems, err := s.repo.ListDecayEnabled(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing decay-enabled systems")
	}
	return systems, nil
}

// System resolves a point system by id without a group check. Satisfies the
// points service's system source.
func (s *service) System(ctx context.Context, id uuid.UUID) (*models.PointSystem, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ownedSystem(ctx context.Context, groupID, systemID uuid.UUID) (*models.PointSystem, error) {
	system, err := s.repo.GetByID(ctx, systemID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading point system")
	}
	if system == nil {
		return nil, ErrSystemNotFound
	}
	if system.GroupID != groupID {
		return nil, ErrWrongGroup
	}
	return system, nil
}

func validateCreate(input CreateSystemInput) error {
	if input.GroupID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "group id is required")
	}
	if input.Name == "" {
		return apperrors.New(apperrors.CodeValidation, "name is required")
	}
	if !input.SystemType.IsValid() {
		return apperrors.New(apperrors.CodeValidation, "invalid system type")
	}
	if input.StartingPoints < 0 {
		return apperrors.New(apperrors.CodeValidation, "starting points cannot be negative")
	}
	if input.DecayRateBps < 0 || input.DecayRateBps > maxDecayRateBps {
		return apperrors.New(apperrors.CodeValidation, "decay rate must be between 0 and 10000 basis points")
	}
	if input.DecayMinimum < 0 {
		return apperrors.New(apperrors.CodeValidation, "decay minimum cannot be negative")
	}
	return nil
}
