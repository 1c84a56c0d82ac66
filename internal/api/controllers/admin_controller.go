package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"scribly/internal/models/request_models"
	"scribly/internal/services"
	"scribly/pkg/utils"
)

type AdminController struct {
	adminService services.AdminServiceInterface
	jobService   services.JobServiceInterface
}

func NewAdminController(adminService services.AdminServiceInterface, jobService services.JobServiceInterface) *AdminController {
	return &AdminController{
		adminService: adminService,
		jobService:   jobService,
	}
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	return page, pageSize
}

// ListJobs is the back-office queue view, filterable by status.
func (a *AdminController) ListJobs(c *gin.Context) {
	page, pageSize := pageParams(c)
	jobs, err := a.adminService.ListJobs(c.Request.Context(), c.Query("status"), page, pageSize)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, jobs, "Jobs fetched successfully")
}

func (a *AdminController) ListStuckJobs(c *gin.Context) {
	jobs, err := a.adminService.ListStuckJobs(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, jobs, "Stuck jobs fetched successfully")
}

func (a *AdminController) ListAccounts(c *gin.Context) {
	page, pageSize := pageParams(c)
	accounts, err := a.adminService.ListAccounts(c.Request.Context(), page, pageSize)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, accounts, "Accounts fetched successfully")
}

func (a *AdminController) AdjustWallet(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid account id")
		return
	}

	var req request_models.WalletAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	txn, err := a.adminService.AdjustWallet(c.Request.Context(), accountID, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"transaction_id": txn.ID, "amount_minor": txn.AmountMinor}, "Wallet adjusted")
}

func (a *AdminController) AdjustCredits(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid account id")
		return
	}

	var req request_models.CreditAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	txn, err := a.adminService.AdjustCredits(c.Request.Context(), accountID, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"transaction_id": txn.ID, "amount": txn.AmountMinor}, "Credits adjusted")
}

func (a *AdminController) GetPricing(c *gin.Context) {
	pricing, err := a.adminService.GetPricing(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, pricing, "Pricing fetched successfully")
}

func (a *AdminController) UpdatePricing(c *gin.Context) {
	var req request_models.UpdatePricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := a.adminService.UpdatePricing(c.Request.Context(), req); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Pricing updated")
}

// CompleteReview finishes a hybrid/human job with reviewer-edited segments.
func (a *AdminController) CompleteReview(c *gin.Context) {
	var req request_models.CompleteReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	segments := make([]services.Segment, 0, len(req.Segments))
	for _, s := range req.Segments {
		segments = append(segments, services.Segment{
			StartMs:    s.StartMs,
			EndMs:      s.EndMs,
			Text:       s.Text,
			Speaker:    s.Speaker,
			Confidence: s.Confidence,
		})
	}

	if err := a.jobService.CompleteReview(c.Request.Context(), c.Param("id"), segments); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Review completed")
}
