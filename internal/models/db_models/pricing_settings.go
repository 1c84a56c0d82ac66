package db_models

// PricingSettings is the single editable pricing document. Overage minutes
// are billed from the wallet at the per-mode minor-unit rate, or from legacy
// credits at CreditsPerMinute.
type PricingSettings struct {
	BaseModel
	AIRatePerMinuteMinor     int64  `gorm:"default:10"`
	HybridRatePerMinuteMinor int64  `gorm:"default:80"`
	HumanRatePerMinuteMinor  int64  `gorm:"default:150"`
	CreditsPerMinute         int64  `gorm:"default:1"`
	Currency                 string `gorm:"size:3;default:USD"`
	IsActive                 bool   `gorm:"default:true"`
}

// RateFor returns the overage wallet rate for a mode. Unknown modes fall
// back to the human rate, the most expensive tier.
func (p *PricingSettings) RateFor(mode JobMode) int64 {
	switch mode {
	case ModeAI:
		return p.AIRatePerMinuteMinor
	case ModeHybrid:
		return p.HybridRatePerMinuteMinor
	default:
		return p.HumanRatePerMinuteMinor
	}
}
