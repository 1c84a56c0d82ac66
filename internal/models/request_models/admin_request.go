package request_models

// Admin balance adjustments are expressed as the absolute target value, not
// a delta; the service computes the delta and records it on the transaction.
type WalletAdjustmentRequest struct {
	TargetBalanceMinor int64  `json:"target_balance_minor" binding:"gte=0"`
	Reason             string `json:"reason" binding:"required,min=3"`
}

type CreditAdjustmentRequest struct {
	TargetCredits int64  `json:"target_credits" binding:"gte=0"`
	Reason        string `json:"reason" binding:"required,min=3"`
}

type UpdatePricingRequest struct {
	AIRatePerMinuteMinor     int64  `json:"ai_rate_per_minute_minor" binding:"required,gt=0"`
	HybridRatePerMinuteMinor int64  `json:"hybrid_rate_per_minute_minor" binding:"required,gt=0"`
	HumanRatePerMinuteMinor  int64  `json:"human_rate_per_minute_minor" binding:"required,gt=0"`
	CreditsPerMinute         int64  `json:"credits_per_minute" binding:"required,gt=0"`
	Currency                 string `json:"currency" binding:"required,len=3"`
}

type CompleteReviewRequest struct {
	// Reviewed segments replace the AI pass output verbatim.
	Segments []ReviewedSegment `json:"segments" binding:"required,min=1,dive"`
}

type ReviewedSegment struct {
	StartMs    int64   `json:"start_ms" binding:"gte=0"`
	EndMs      int64   `json:"end_ms" binding:"gtefield=StartMs"`
	Text       string  `json:"text" binding:"required"`
	Speaker    string  `json:"speaker"`
	Confidence float64 `json:"confidence" binding:"gte=0,lte=1"`
}
