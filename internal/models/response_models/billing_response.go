package response_models

import "github.com/google/uuid"

type SubscriptionPlan struct {
	ID              uuid.UUID `json:"id"`
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	Period          string    `json:"period"` // "month" | "year"
	Price           int64     `json:"price"`  // minor units
	Currency        string    `json:"currency"`
	TrialDays       int32     `json:"trial_days"`
	IncludedMinutes int64     `json:"included_minutes"`
	IsActive        bool      `json:"is_active"`
}

type CreateCheckoutResponse struct {
	OrderCode    int64  `json:"order_code"`
	Amount       int64  `json:"amount"`
	PaymentURL   string `json:"payment_url"`
	ProviderName string `json:"provider"`
}

type SubscriptionStatusResponse struct {
	AccountID         uuid.UUID `json:"account_id"`
	PlanCode          string    `json:"plan_code"`
	Status            string    `json:"status"`
	StartsAt          int64     `json:"starts_at"`
	EndsAt            int64     `json:"ends_at"`
	CancelAtPeriodEnd bool      `json:"cancel_at_period_end"`
	AutoRenew         bool      `json:"auto_renew"`
}

type PricingResponse struct {
	AIRatePerMinuteMinor     int64  `json:"ai_rate_per_minute_minor"`
	HybridRatePerMinuteMinor int64  `json:"hybrid_rate_per_minute_minor"`
	HumanRatePerMinuteMinor  int64  `json:"human_rate_per_minute_minor"`
	CreditsPerMinute         int64  `json:"credits_per_minute"`
	Currency                 string `json:"currency"`
}

type UsageRecordResponse struct {
	JobID              string `json:"job_id"`
	Source             string `json:"source"`
	MinutesUsed        int64  `json:"minutes_used"`
	CreditsUsed        int64  `json:"credits_used"`
	WalletChargedMinor int64  `json:"wallet_charged_minor"`
	CycleStartsAt      string `json:"cycle_starts_at"`
	CycleEndsAt        string `json:"cycle_ends_at"`
}
