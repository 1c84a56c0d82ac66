package db_models

import (
	"gorm.io/datatypes"
)

type Account struct {
	BaseModel
	Name         string
	Email        string `gorm:"unique"`
	PasswordHash string
	Role         string `gorm:"default:user"` // "user" | "admin"

	// Wallet and legacy credit balances. Wallet is stored in minor units
	// (e.g. 2500 = $25.00); credits are whole legacy units.
	WalletBalanceMinor int64 `gorm:"default:0"`
	Credits            int64 `gorm:"default:0"`

	// Snapshot of the current subscription, kept in sync by the payment
	// webhook flow. PlanCode is "" for accounts with no subscription.
	PlanCode           string
	SubscriptionStatus SubscriptionStatus `gorm:"type:subscription_status"`

	// Included-minutes accounting for the current billing cycle.
	// used + reserved may exceed included: the excess is overage and is
	// charged from credits/wallet on settlement.
	IncludedMinutesPerMonth int64 `gorm:"default:0"`
	MinutesUsedThisMonth    int64 `gorm:"default:0"`
	MinutesReserved         int64 `gorm:"default:0"`

	// Billing cycle window, unix seconds.
	CycleStartsAt int64
	CycleEndsAt   int64

	TrialStartsAt *int64
	TrialEndsAt   *int64

	SubscriptionSnapshot datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	Jobs []TranscriptionJob `gorm:"foreignKey:AccountID"`
}

// SubscriptionMinutesAvailable is the part of the monthly allotment not yet
// used or held by an in-flight reservation. Never negative.
func (a *Account) SubscriptionMinutesAvailable() int64 {
	avail := a.IncludedMinutesPerMonth - a.MinutesUsedThisMonth - a.MinutesReserved
	if avail < 0 {
		return 0
	}
	return avail
}
