package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scribly/internal/models/request_models"
	"scribly/internal/services"
	"scribly/pkg/utils"
)

type JobController struct {
	jobService services.JobServiceInterface
}

func NewJobController(jobService services.JobServiceInterface) *JobController {
	return &JobController{jobService: jobService}
}

// Create reserves minutes and starts transcription of an uploaded file.
// Insufficient funds come back as a 400 with the shortfall in the payload.
func (j *JobController) Create(c *gin.Context) {
	var req request_models.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	job, err := j.jobService.CreateJob(c.Request.Context(), c.GetString("user_id"), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, job, "Transcription started")
}

func (j *JobController) Get(c *gin.Context) {
	job, err := j.jobService.GetJob(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, job, "Job fetched successfully")
}

func (j *JobController) List(c *gin.Context) {
	var req request_models.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	jobs, err := j.jobService.ListJobs(c.Request.Context(), c.GetString("user_id"), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, jobs, "Jobs fetched successfully")
}

func (j *JobController) GetTranscript(c *gin.Context) {
	transcript, err := j.jobService.GetTranscript(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, transcript, "Transcript fetched successfully")
}

// Refresh is the manual re-poll for a job stuck waiting on the vendor.
func (j *JobController) Refresh(c *gin.Context) {
	job, err := j.jobService.RefreshStatus(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, job, "Job status refreshed")
}
