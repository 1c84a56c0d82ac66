package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"scribly/internal/services"
	"scribly/pkg/utils"
)

type SubscriptionController struct {
	subscriptionService services.SubscriptionServiceInterface
	planService         services.PlanServiceInterface
}

func NewSubscriptionController(subscriptionService services.SubscriptionServiceInterface, planService services.PlanServiceInterface) *SubscriptionController {
	return &SubscriptionController{
		subscriptionService: subscriptionService,
		planService:         planService,
	}
}

func (s *SubscriptionController) ListPlans(c *gin.Context) {
	plans, err := s.planService.ListPlans(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, plans, "Plans fetched successfully")
}

func (s *SubscriptionController) GetMine(c *gin.Context) {
	accountID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "user_id is required")
		return
	}

	sub, err := s.subscriptionService.GetCurrent(c.Request.Context(), accountID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, sub, "Subscription fetched successfully")
}

func (s *SubscriptionController) Cancel(c *gin.Context) {
	accountID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := s.subscriptionService.CancelAtPeriodEnd(c.Request.Context(), accountID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Subscription will not renew")
}
