package db_models

import (
	"gorm.io/datatypes"
)

type Plan struct {
	BaseModel
	Code        string `gorm:"uniqueIndex"` // e.g. "starter", "pro_monthly", "pro_yearly"
	Name        string
	Description *string
	Period      BillingPeriod `gorm:"type:billing_period"` // "month" | "year"
	PriceMinor  int64         // 999 = $9.99
	Currency    string        `gorm:"size:3"` // ISO 4217
	TrialDays   int32         `gorm:"default:0"`
	IsActive    bool          `gorm:"default:true"`

	// Transcription minutes granted per month while the plan is active.
	IncludedMinutes int64 `gorm:"default:0"`

	Features datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
}
