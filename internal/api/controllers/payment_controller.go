package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"scribly/internal/models/request_models"
	"scribly/internal/services"
	"scribly/pkg/utils"
)

type PaymentController struct {
	paymentService services.PaymentService
}

func NewPaymentController(paymentService services.PaymentService) *PaymentController {
	return &PaymentController{paymentService: paymentService}
}

func callerID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "user_id is required")
		return uuid.Nil, false
	}
	return id, true
}

// CreateCheckout returns a gateway payment link for a subscription plan.
func (p *PaymentController) CreateCheckout(c *gin.Context) {
	var req request_models.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	accountID, ok := callerID(c)
	if !ok {
		return
	}

	checkout, err := p.paymentService.CreateCheckoutForPlan(c.Request.Context(), accountID, req.PlanCode)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, checkout, "Checkout created successfully")
}

// WalletTopup returns a gateway payment link that credits the wallet.
func (p *PaymentController) WalletTopup(c *gin.Context) {
	var req request_models.WalletTopupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	accountID, ok := callerID(c)
	if !ok {
		return
	}

	checkout, err := p.paymentService.CreateWalletTopup(c.Request.Context(), accountID, req.AmountMinor)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, checkout, "Checkout created successfully")
}

func (p *PaymentController) HandleWebhook(c *gin.Context) {
	p.paymentService.HandleWebhook(c)
}
