package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"leadharvest/internal/gateway"
	"leadharvest/internal/jobs"
	"leadharvest/internal/ledger"
	"leadharvest/internal/validation"
	"leadharvest/pkg/models"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	gateway    *gateway.Gateway
	jobService jobs.JobService
	validator  *validation.APIValidator
}

func NewHandlers(gw *gateway.Gateway, jobService jobs.JobService, apiValidator *validation.APIValidator) *Handlers {
	return &Handlers{
		gateway:    gw,
		jobService: jobService,
		validator:  apiValidator,
	}
}

// Health godoc
// @Summary Service health
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "leadharvest",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// SubmitExtraction godoc
// @Summary Submit a new extraction job
// @Description Validates the request, debits credits and queues the job with the selected provider
// @Tags extractions
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Caller user ID"
// @Param request body models.SubmitRequest true "Extraction request"
// @Success 201 {object} models.JobResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 402 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /extractions [post]
func (h *Handlers) SubmitExtraction(c *gin.Context) {
	var req models.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format", "details": err.Error()})
		return
	}

	userID := CallerID(c)
	job, err := h.gateway.Submit(c.Request.Context(), userID, &req)
	if err != nil {
		var validationErr *validation.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":             "Validation failed",
				"validation_errors": []*validation.ValidationError{validationErr},
			})
			return
		}
		if errors.Is(err, ledger.ErrInsufficientCredits) {
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient credits"})
			return
		}
		// The provider rejected or dropped the submission; the debit has been
		// refunded and the failed job is returned for inspection.
		if job != nil {
			c.JSON(http.StatusBadGateway, gin.H{
				"error": err.Error(),
				"job":   job.ToResponse(),
			})
			return
		}
		log.Printf("Failed to submit extraction: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, job.ToResponse())
}

// GetExtraction godoc
// @Summary Get one extraction job
// @Tags extractions
// @Produce json
// @Param X-User-ID header string true "Caller user ID"
// @Param id path string true "Job ID"
// @Success 200 {object} models.JobResponse
// @Failure 404 {object} map[string]interface{}
// @Router /extractions/{id} [get]
func (h *Handlers) GetExtraction(c *gin.Context) {
	jobID, result := h.validator.ValidateUUIDParam("id", c.Param("id"))
	if !result.Valid {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "Invalid job ID",
			"validation_errors": result.Errors,
		})
		return
	}

	job, err := h.jobService.GetJob(c.Request.Context(), jobID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	// Jobs are private to their owner.
	if job.OwnerUserID != CallerID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.JSON(http.StatusOK, job.ToResponse())
}

// ListExtractions godoc
// @Summary List the caller's extraction jobs
// @Tags extractions
// @Produce json
// @Param X-User-ID header string true "Caller user ID"
// @Param state query string false "Filter by job state"
// @Param limit query int false "Page size (max 500)"
// @Param offset query int false "Page offset"
// @Success 200 {object} models.JobListResponse
// @Failure 400 {object} map[string]interface{}
// @Router /extractions [get]
func (h *Handlers) ListExtractions(c *gin.Context) {
	state := c.Query("state")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	result := h.validator.ValidateListParams(state, limit, offset)
	if !result.Valid {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "Invalid query parameters",
			"validation_errors": result.Errors,
		})
		return
	}

	userID := CallerID(c)
	filters := jobs.JobFilters{
		OwnerUserID: &userID,
		State:       state,
		Limit:       limit,
		Offset:      offset,
	}

	jobList, err := h.jobService.ListJobs(c.Request.Context(), filters)
	if err != nil {
		log.Printf("Failed to list jobs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	responses := make([]*models.JobResponse, len(jobList))
	for i, job := range jobList {
		responses[i] = job.ToResponse()
	}

	c.JSON(http.StatusOK, models.JobListResponse{
		Jobs:  responses,
		Count: len(responses),
	})
}

// GetExtractionResult godoc
// @Summary Get the download URL for a finished extraction
// @Tags extractions
// @Produce json
// @Param X-User-ID header string true "Caller user ID"
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]interface{}
// @Router /extractions/{id}/result [get]
func (h *Handlers) GetExtractionResult(c *gin.Context) {
	jobID, result := h.validator.ValidateUUIDParam("id", c.Param("id"))
	if !result.Valid {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "Invalid job ID",
			"validation_errors": result.Errors,
		})
		return
	}

	job, err := h.jobService.GetJob(c.Request.Context(), jobID)
	if err != nil || job.OwnerUserID != CallerID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	// Until the result sweep materializes a download URL there is nothing to
	// serve, whatever the job state.
	if job.State != models.StateSucceeded || job.ResultRef == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "result not available", "state": job.State})
		return
	}

	c.JSON(http.StatusOK, gin.H{"download_url": job.ResultRef})
}
