package request_models

type CreateCheckoutRequest struct {
	PlanCode string `json:"plan_code" binding:"required"`
}

type WalletTopupRequest struct {
	AmountMinor int64 `json:"amount_minor" binding:"required,gt=0"`
}
