package response_models

import "gorm.io/datatypes"

type AccountLoginResponse struct {
	Token             string `json:"token"`
	IsUserHavePremium bool   `json:"is_user_have_premium"`
}

type AccountResponse struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	Email                string         `json:"email"`
	Role                 string         `json:"role"`
	PlanCode             string         `json:"plan_code,omitempty"`
	SubscriptionStatus   string         `json:"subscription_status,omitempty"`
	WalletBalanceMinor   int64          `json:"wallet_balance_minor"`
	Credits              int64          `json:"credits"`
	IncludedMinutes      int64          `json:"included_minutes_per_month"`
	MinutesUsed          int64          `json:"minutes_used_this_month"`
	MinutesReserved      int64          `json:"minutes_reserved"`
	CycleStartsAt        string         `json:"cycle_starts_at,omitempty"`
	CycleEndsAt          string         `json:"cycle_ends_at,omitempty"`
	SubscriptionSnapshot datatypes.JSON `json:"subscription_snapshot,omitempty"`
}
