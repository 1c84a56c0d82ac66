package db_models

import (
	"github.com/google/uuid"
)

type UsageSource string

const (
	UsageSourceSubscription UsageSource = "subscription"
	UsageSourceCredits      UsageSource = "credits"
	UsageSourceWallet       UsageSource = "wallet"
	UsageSourceOverage      UsageSource = "overage"
)

// UsageRecord is the append-only record of one settled job. Exactly one row
// exists per completed job (unique index on JobID); rows are never updated.
type UsageRecord struct {
	BaseModel
	AccountID uuid.UUID `gorm:"index"`
	JobID     uuid.UUID `gorm:"uniqueIndex"`

	Mode   JobMode     `gorm:"type:job_mode"`
	Source UsageSource `gorm:"type:usage_source;index"`

	MinutesUsed        int64 // minutes drawn from the subscription allotment
	CreditsUsed        int64
	WalletChargedMinor int64
	RatePerMinuteMinor int64 // overage rate in effect at settlement

	CycleStartsAt int64
	CycleEndsAt   int64
}
