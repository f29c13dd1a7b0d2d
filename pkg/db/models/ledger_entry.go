package models

import (
	"time"

	"github.com/google/uuid"
)

// LedgerEntry records one immutable balance-changing event on a PointAccount.
// Amount is signed: positive for earns, negative for spends and decay. The
// amount is the requested delta, not the clamped effective change, so the
// ledger preserves intent even when the balance hit its floor.
type LedgerEntry struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID uuid.UUID `gorm:"column:account_id;type:uuid;not null;index"`
	Amount    int64     `gorm:"column:amount;not null"`
	Reason    string    `gorm:"column:reason;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }
