package api

import (
	"errors"
	"log"
	"net/http"

	"leadharvest/internal/ledger"
	"leadharvest/internal/referrals"
	"leadharvest/pkg/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AccountHandlers struct {
	ledgerService   ledger.Service
	referralService *referrals.Service
}

func NewAccountHandlers(ledgerService ledger.Service, referralService *referrals.Service) *AccountHandlers {
	return &AccountHandlers{
		ledgerService:   ledgerService,
		referralService: referralService,
	}
}

// RegisterAccount godoc
// @Summary Register the caller's billing account
// @Description Creates the account if missing; free-tier accounts receive their included credits once
// @Tags credits
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Caller user ID"
// @Param request body models.RegisterAccountRequest true "Registration"
// @Success 201 {object} models.AccountResponse
// @Failure 400 {object} map[string]interface{}
// @Router /accounts [post]
func (h *AccountHandlers) RegisterAccount(c *gin.Context) {
	var req models.RegisterAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format", "details": err.Error()})
		return
	}

	userID := CallerID(c)
	if req.PlanTier == "" {
		req.PlanTier = models.TierFree
	}
	if req.ReferredBy != nil && *req.ReferredBy == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "users cannot refer themselves"})
		return
	}

	account, err := h.ledgerService.EnsureAccount(c.Request.Context(), userID, req.PlanTier, req.ReferredBy)
	if err != nil {
		log.Printf("Failed to register account %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// New free-tier accounts start with the plan's included credits. The
	// ledger being empty is what makes re-registration a no-op.
	entries, err := h.ledgerService.ListLedger(c.Request.Context(), userID)
	if err == nil && len(entries) == 0 {
		if _, grantErr := h.ledgerService.GrantFreeCredits(c.Request.Context(), userID); grantErr == nil {
			account, _ = h.ledgerService.EnsureAccount(c.Request.Context(), userID, account.PlanTier, account.ReferredBy)
		}
	}

	c.JSON(http.StatusCreated, account.ToResponse())
}

// GetBalance godoc
// @Summary Get the caller's credit balance
// @Tags credits
// @Produce json
// @Param X-User-ID header string true "Caller user ID"
// @Success 200 {object} map[string]int
// @Failure 404 {object} map[string]interface{}
// @Router /credits/balance [get]
func (h *AccountHandlers) GetBalance(c *gin.Context) {
	balance, err := h.ledgerService.Balance(c.Request.Context(), CallerID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// Purchase godoc
// @Summary Purchase credits at the caller's plan rate
// @Tags credits
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Caller user ID"
// @Param request body models.PurchaseRequest true "Purchase order"
// @Success 201 {object} models.LedgerEntryResponse
// @Failure 400 {object} map[string]interface{}
// @Router /credits/purchase [post]
func (h *AccountHandlers) Purchase(c *gin.Context) {
	var req models.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format", "details": err.Error()})
		return
	}

	entry, err := h.ledgerService.Purchase(c.Request.Context(), CallerID(c), req.Credits)
	if err != nil {
		// Plan minimum violations and bad volumes come back as plain errors.
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, entry.ToResponse())
}

// ListLedger godoc
// @Summary List the caller's credit ledger entries
// @Tags credits
// @Produce json
// @Param X-User-ID header string true "Caller user ID"
// @Success 200 {object} map[string]interface{}
// @Router /credits/ledger [get]
func (h *AccountHandlers) ListLedger(c *gin.Context) {
	entries, err := h.ledgerService.ListLedger(c.Request.Context(), CallerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	responses := make([]*models.LedgerEntryResponse, len(entries))
	for i, entry := range entries {
		responses[i] = entry.ToResponse()
	}

	c.JSON(http.StatusOK, gin.H{"entries": responses, "count": len(responses)})
}

// ReferralSummary godoc
// @Summary Referral earnings totals for the caller
// @Tags referrals
// @Produce json
// @Param X-User-ID header string true "Caller user ID"
// @Success 200 {object} models.ReferralSummary
// @Router /referrals/summary [get]
func (h *AccountHandlers) ReferralSummary(c *gin.Context) {
	summary, err := h.referralService.Summary(c.Request.Context(), CallerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ListReferralEarnings godoc
// @Summary List the caller's individual referral earnings
// @Tags referrals
// @Produce json
// @Param X-User-ID header string true "Caller user ID"
// @Success 200 {object} map[string]interface{}
// @Router /referrals/earnings [get]
func (h *AccountHandlers) ListReferralEarnings(c *gin.Context) {
	earnings, err := h.referralService.ListEarnings(c.Request.Context(), CallerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"earnings": earnings, "count": len(earnings)})
}
