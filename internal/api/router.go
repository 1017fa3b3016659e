package api

import (
	"leadharvest/internal/gateway"
	"leadharvest/internal/jobs"
	"leadharvest/internal/ledger"
	"leadharvest/internal/referrals"
	"leadharvest/internal/validation"

	"github.com/gin-gonic/gin"
)

func SetupRouter(gw *gateway.Gateway, jobService jobs.JobService, ledgerService ledger.Service, referralService *referrals.Service) *gin.Engine {
	r := gin.Default()

	r.Use(SecurityHeadersMiddleware())
	r.Use(StandardErrorResponse())

	validator := validation.NewAPIValidator()
	handlers := NewHandlers(gw, jobService, validator)
	accountHandlers := NewAccountHandlers(ledgerService, referralService)

	r.GET("/health", handlers.Health)
	SetupSwagger(r)

	api := r.Group("/api/v1")
	api.Use(UserAuthMiddleware(validator))
	{
		api.POST("/extractions", handlers.SubmitExtraction)
		api.GET("/extractions", handlers.ListExtractions)
		api.GET("/extractions/:id", handlers.GetExtraction)
		api.GET("/extractions/:id/result", handlers.GetExtractionResult)

		api.POST("/accounts", accountHandlers.RegisterAccount)
		api.GET("/credits/balance", accountHandlers.GetBalance)
		api.POST("/credits/purchase", accountHandlers.Purchase)
		api.GET("/credits/ledger", accountHandlers.ListLedger)

		api.GET("/referrals/summary", accountHandlers.ReferralSummary)
		api.GET("/referrals/earnings", accountHandlers.ListReferralEarnings)
	}

	return r
}
