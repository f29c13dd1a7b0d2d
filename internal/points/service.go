package points

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/guildforge/guildforge-backend/pkg/db"
	"github.com/guildforge/guildforge-backend/pkg/db/models"
	apperrors "github.com/guildforge/guildforge-backend/pkg/errors"
	"github.com/guildforge/guildforge-backend/pkg/logger"
	"github.com/guildforge/guildforge-backend/pkg/metrics"
	"github.com/guildforge/guildforge-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrInvalidAmount is returned when a mutation amount is zero or negative.
	ErrInvalidAmount = apperrors.New(apperrors.CodeValidation, "amount must be positive")
	// ErrAccountNotFound is returned when a deduction or read targets a
	// character with no account under the system.
	ErrAccountNotFound = apperrors.New(apperrors.CodeNotFound, "point account not found")
	// ErrSystemNotFound is returned when the referenced point system does not exist.
	ErrSystemNotFound = apperrors.New(apperrors.CodeNotFound, "point system not found")
)

const (
	opAward  = "award"
	opDeduct = "deduct"
	opDecay  = "decay"

	// decayRateScale is the basis-point divisor for decay rates.
	decayRateScale = 10_000

	ratioPrecision = 4
)

// SystemSource resolves point systems for balance initialization. Implemented
// by the systems service; kept narrow so tests can stub it.
type SystemSource interface {
	System(ctx context.Context, id uuid.UUID) (*models.PointSystem, error)
}

// DecayResult summarizes one decay sweep over a system's accounts.
type DecayResult struct {
	SystemID uuid.UUID
	Applied  int
	Skipped  int
}

// Service owns all balance mutations and ledger reads. Every mutation runs in
// a transaction that pairs the account update with its ledger entry.
type Service interface {
	Award(ctx context.Context, systemID, characterID uuid.UUID, amount int64, reason string) (*models.PointAccount, error)
	AwardTx(ctx context.Context, tx *gorm.DB, systemID, characterID uuid.UUID, amount int64, reason string) (*models.PointAccount, error)
	AwardBulk(ctx context.Context, systemID uuid.UUID, characterIDs []uuid.UUID, amount int64, reason string) ([]models.PointAccount, error)
	Deduct(ctx context.Context, systemID, characterID uuid.UUID, amount int64, reason string) (*models.PointAccount, error)
	DeductTx(ctx context.Context, tx *gorm.DB, systemID, characterID uuid.UUID, amount int64, reason string) (*models.PointAccount, error)
	ApplyDecay(ctx context.Context, system *models.PointSystem) (*DecayResult, error)
	Account(ctx context.Context, systemID, characterID uuid.UUID) (*models.PointAccount, error)
	AccountsForSystem(ctx context.Context, systemID uuid.UUID) ([]models.PointAccount, error)
	Entries(ctx context.Context, accountID uuid.UUID, params pagination.Params) ([]models.LedgerEntry, *pagination.Cursor, error)
}

// ServiceParams bundles the dependencies for NewService.
type ServiceParams struct {
	DB      *db.Client
	Repo    Repository
	Systems SystemSource
	Logger  *logger.Logger
	Metrics *metrics.LedgerMetrics
}

type service struct {
	db      *db.Client
	repo    Repository
	systems SystemSource
	logger  *logger.Logger
	metrics *metrics.LedgerMetrics
	now     func() time.Time
}

// NewService validates the dependency set and returns the points service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("points repository is required")
	}
	if params.Systems == nil {
		return nil, fmt.Errorf("system source is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		db:      params.DB,
		repo:    params.Repo,
		systems: params.Systems,
		logger:  params.Logger,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

func (s *service) Award(ctx context.Context, systemID, characterID uuid.UUID, amount int64, reason string) (*models.PointAccount, error) {
	var account *models.PointAccount
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		account, txErr = s.awardTx(ctx, tx, systemID, characterID, amount, reason)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// AwardTx applies an award inside the caller's transaction. Used by the loot
// service to pair an award with a loot-record update atomically.
func (s *service) AwardTx(ctx context.Context, tx *gorm.DB, systemID, characterID uuid.UUID, amount int64, reason string) (*models.PointAccount, error) {
	return s.awardTx(ctx, tx, systemID, characterID, amount, reason)
}

func (s *service) awardTx(ctx context.Context, tx *gorm.DB, systemID, characterID uuid.UUID, amount int64, reason string) (*models.PointAccount, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	start := s.now()
	repo := s.repo.WithTx(tx)

	updated, err := repo.IncrementEarned(ctx, systemID, characterID, amount, start)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "incrementing earned points")
	}
	if !updated {
		if err := s.createAccount(ctx, repo, systemID, characterID, amount, start); err != nil {
			return nil, err
		}
	}

	account, err := repo.Get(ctx, systemID, characterID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading point account")
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	entry := &models.LedgerEntry{
		ID:        uuid.New(),
		AccountID: account.ID,
		Amount:    amount,
		Reason:    reason,
	}
	if err := repo.AppendEntry(ctx, entry); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "appending ledger entry")
	}

	deriveRatio(account)
	s.metrics.IncMutation(opAward)
	s.metrics.ObserveDuration(opAward, s.now().Sub(start))
	return account, nil
}

// createAccount handles the first award for a (system, character) pair. The
// opening balance is the system's starting points plus the award. A unique
// violation means a concurrent first award won the insert; fall back to the
// increment path.
func (s *service) createAccount(ctx context.Context, repo Repository, systemID, characterID uuid.UUID, amount int64, now time.Time) error {
	system, err := s.systems.System(ctx, systemID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "resolving point system")
	}
	if system == nil {
		return ErrSystemNotFound
	}

	account := &models.PointAccount{
		ID:            uuid.New(),
		LootSystemID:  systemID,
		CharacterID:   characterID,
		CurrentPoints: system.StartingPoints + amount,
		EarnedTotal:   amount,
		LastEarnedAt:  &now,
	}
	created, err := repo.Create(ctx, account)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "creating point account")
	}
	if !created {
		// A concurrent first award inserted the row; its balance absorbs
		// this award instead.
		updated, retryErr := repo.IncrementEarned(ctx, systemID, characterID, amount, now)
		if retryErr != nil {
			return apperrors.Wrap(apperrors.CodeDependency, retryErr, "incrementing earned points")
		}
		if !updated {
			return ErrAccountNotFound
		}
	}
	return nil
}

func (s *service) AwardBulk(ctx context.Context, systemID uuid.UUID, characterIDs []uuid.UUID, amount int64, reason string) ([]models.PointAccount, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if len(characterIDs) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "at least one character is required")
	}

	// One transaction per character: a failure partway leaves the earlier
	// awards committed and returns them alongside the error.
	accounts := make([]models.PointAccount, 0, len(characterIDs))
	for _, characterID := range characterIDs {
		account, err := s.Award(ctx, systemID, characterID, amount, reason)
		if err != nil {
			return accounts, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, nil
}

func (s *service) Deduct(ctx context.Context, systemID, characterID uuid.UUID, amount int64, reason string) (*models.PointAccount, error) {
	var account *models.PointAccount
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		account, txErr = s.DeductTx(ctx, tx, systemID, characterID, amount, reason)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// DeductTx spends points inside the caller's transaction. The balance clamps
// at zero; the ledger entry keeps the full requested amount so history shows
// what was charged.
func (s *service) DeductTx(ctx context.Context, tx *gorm.DB, systemID, characterID uuid.UUID, amount int64, reason string) (*models.PointAccount, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	start := s.now()
	repo := s.repo.WithTx(tx)

	updated, clamped, err := repo.DecrementSpent(ctx, systemID, characterID, amount, start)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "decrementing points")
	}
	if !updated {
		return nil, ErrAccountNotFound
	}

	account, err := repo.Get(ctx, systemID, characterID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading point account")
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	entry := &models.LedgerEntry{
		ID:        uuid.New(),
		AccountID: account.ID,
		Amount:    -amount,
		Reason:    reason,
	}
	if err := repo.AppendEntry(ctx, entry); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "appending ledger entry")
	}

	if clamped {
		s.metrics.IncClamped()
	}
	deriveRatio(account)
	s.metrics.IncMutation(opDeduct)
	s.metrics.ObserveDuration(opDeduct, s.now().Sub(start))
	return account, nil
}

// ApplyDecay runs one decay pass over every account in the system. Accounts
// already at or below the floor are skipped and get no ledger entry.
func (s *service) ApplyDecay(ctx context.Context, system *models.PointSystem) (*DecayResult, error) {
	if system == nil {
		return nil, ErrSystemNotFound
	}
	if !system.DecayEnabled || system.DecayRateBps <= 0 {
		return &DecayResult{SystemID: system.ID}, nil
	}

	accounts, err := s.repo.ListBySystem(ctx, system.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing accounts for decay")
	}

	result := &DecayResult{SystemID: system.ID}
	for i := range accounts {
		account := accounts[i]
		amount := account.CurrentPoints * system.DecayRateBps / decayRateScale
		if amount <= 0 || account.CurrentPoints <= system.DecayMinimum {
			result.Skipped++
			continue
		}

		err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			now := s.now()
			applied, txErr := repo.DecayToFloor(ctx, account.ID, amount, system.DecayMinimum, now)
			if txErr != nil {
				return apperrors.Wrap(apperrors.CodeDependency, txErr, "applying decay")
			}
			if !applied {
				return nil
			}
			entry := &models.LedgerEntry{
				ID:        uuid.New(),
				AccountID: account.ID,
				Amount:    -amount,
				Reason:    "decay",
			}
			if txErr := repo.AppendEntry(ctx, entry); txErr != nil {
				return apperrors.Wrap(apperrors.CodeDependency, txErr, "appending decay entry")
			}
			result.Applied++
			s.metrics.IncMutation(opDecay)
			return nil
		})
		if err != nil {
			return result, err
		}
	}

	s.logger.Info(s.logger.WithSystemID(ctx, system.ID.String()), "decay pass complete")
	return result, nil
}

func (s *service) Account(ctx context.Context, systemID, characterID uuid.UUID) (*models.PointAccount, error) {
	account, err := s.repo.Get(ctx, systemID, characterID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading point account")
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	deriveRatio(account)
	return account, nil
}

func (s *service) AccountsForSystem(ctx context.Context, systemID uuid.UUID) ([]models.PointAccount, error) {
	accounts, err := s.repo.ListBySystem(ctx, systemID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing point accounts")
	}
	for i := range accounts {
		deriveRatio(&accounts[i])
	}
	return accounts, nil
}

func (s *service) Entries(ctx context.Context, accountID uuid.UUID, params pagination.Params) ([]models.LedgerEntry, *pagination.Cursor, error) {
	entries, next, err := s.repo.ListEntries(ctx, accountID, params)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing ledger entries")
	}
	return entries, next, nil
}

// deriveRatio fills in the read-time priority ratio: earned over spent when
// anything has been spent, otherwise the raw earned total marked uncapped.
func deriveRatio(account *models.PointAccount) {
	if account == nil {
		return
	}
	if account.SpentTotal > 0 {
		account.PriorityRatio = decimal.NewFromInt(account.EarnedTotal).
			Div(decimal.NewFromInt(account.SpentTotal)).
			Round(ratioPrecision)
		account.Uncapped = false
		return
	}
	account.PriorityRatio = decimal.NewFromInt(account.EarnedTotal)
	account.Uncapped = true
}
