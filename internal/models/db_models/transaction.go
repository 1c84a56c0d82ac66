package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TransactionStatus string

const (
	TxnStatusPending  TransactionStatus = "pending"
	TxnStatusPaid     TransactionStatus = "paid"
	TxnStatusFailed   TransactionStatus = "failed"
	TxnStatusRefunded TransactionStatus = "refunded"
)

type TransactionKind string

const (
	TxnKindSubscription    TransactionKind = "subscription"
	TxnKindWalletTopup     TransactionKind = "wallet_topup"
	TxnKindAdminAdjustment TransactionKind = "admin_adjustment"
	TxnKindOverageCharge   TransactionKind = "overage_charge"
)

// Transaction is the append-only audit log of every balance change. For
// admin adjustments and overage charges AmountMinor is signed (the delta
// applied to the wallet); gateway purchases are always positive.
type Transaction struct {
	BaseModel
	AccountID      uuid.UUID         `gorm:"index"`
	SubscriptionID *uuid.UUID        `gorm:"index"` // nullable for one-off purchases
	Kind           TransactionKind   `gorm:"type:transaction_kind;index"`
	AmountMinor    int64             // e.g. 999 = $9.99; signed for adjustments
	Currency       string            `gorm:"size:3"`
	Status         TransactionStatus `gorm:"type:transaction_status;index"`

	// Gateway fields
	Provider         string `gorm:"index"`
	ProviderTxnID    string `gorm:"index"` // links local record to the gateway order
	PaymentMethodRef string // last4 / token ref, never raw card data

	AuthorizedAt *int64
	PaidAt       *int64
	RefundedAt   *int64

	Receipt  datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	Metadata datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	Account      Account       `gorm:"foreignKey:AccountID"`
	Subscription *Subscription `gorm:"foreignKey:SubscriptionID"`
}
