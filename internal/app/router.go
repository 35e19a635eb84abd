// internal/app/router.go
package app

import (
	catalogHandler "contracts-service/internal/handlers/catalog"
	contractHandler "contracts-service/internal/handlers/contract"
	pauseHandler "contracts-service/internal/handlers/pause"
	renewalHandler "contracts-service/internal/handlers/renewal"
	wsHandler "contracts-service/internal/handlers/websocket"
	"contracts-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Roles allowed to operate on contracts. Tokens without any of them are rejected.
var staffRoles = []string{"admin", "super_admin", "coach", "sales", "staff"}

type Handlers struct {
	ContractHandler *contractHandler.ContractHandler
	PauseHandler    *pauseHandler.PauseHandler
	RenewalHandler  *renewalHandler.RenewalHandler
	CatalogHandler  *catalogHandler.CatalogHandler
	WSHandler       *wsHandler.WebSocketHandler
	AuthMiddleware  *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "contracts"})
	})

	// ==================== WebSocket ====================
	// Authenticates with ?token= itself; browsers cannot send headers on upgrade.
	r.GET("/ws", h.WSHandler.HandleConnection)

	staff := api.Group("")
	staff.Use(h.AuthMiddleware.Auth(), h.AuthMiddleware.RequireRole(staffRoles...))

	// ==================== Contracts ====================
	contracts := staff.Group("/contracts")
	{
		contracts.POST("", h.ContractHandler.CreateContract)
		contracts.GET("/expiring", h.ContractHandler.ListExpiring)
		contracts.GET("/:client_id", h.ContractHandler.GetContract)
		contracts.PUT("/:client_id/schedule", h.ContractHandler.UpdateSchedule)
		contracts.POST("/:client_id/renewal/stage", h.ContractHandler.StageRenewal)
		contracts.POST("/:client_id/renewal/receipt", h.ContractHandler.AttachReceipt)
		contracts.POST("/:client_id/signature", h.ContractHandler.SignContract)

		// Renewals
		contracts.POST("/:client_id/renewals/:phase/activate", h.RenewalHandler.ActivateRenewal)

		// Pauses
		contracts.POST("/:client_id/pauses", h.PauseHandler.StartPause)
		contracts.POST("/:client_id/pauses/end", h.PauseHandler.EndPause)
		contracts.GET("/:client_id/pauses", h.PauseHandler.GetPauseHistory)
	}

	// ==================== Catalog ====================
	catalog := staff.Group("/catalog")
	{
		catalog.GET("/offers", h.CatalogHandler.ListOffers)
		catalog.GET("/payment-methods", h.CatalogHandler.ListPaymentMethods)
	}

	// ==================== Admin ====================
	admin := api.Group("/admin")
	admin.Use(h.AuthMiddleware.Auth(), h.AuthMiddleware.RequireRole("admin", "super_admin"))
	{
		admin.GET("/ws/stats", h.WSHandler.GetStats)
		admin.DELETE("/catalog/cache", h.CatalogHandler.InvalidateCache)
	}
}
