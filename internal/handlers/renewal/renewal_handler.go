// internal/handlers/renewal/renewal_handler.go
package renewal

import (
	"context"
	"errors"
	"io"
	"net/http"

	"contracts-service/internal/domain/contract"
	"contracts-service/internal/pkg/response"
	service "contracts-service/internal/service/renewal"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Service is implemented by *service/renewal.RenewalService.
type Service interface {
	ActivateRenewal(ctx context.Context, clientID, token string, req *contract.ActivateRenewalRequest) (*service.ActivationResult, error)
}

type RenewalHandler struct {
	renewalService Service
	logger         *zap.Logger
}

func NewRenewalHandler(renewalService Service, logger *zap.Logger) *RenewalHandler {
	return &RenewalHandler{
		renewalService: renewalService,
		logger:         logger,
	}
}

// ActivateRenewal contracts the phase named in the path (f2..f5). The body is optional.
// A renewal computed but not stored comes back as 202 carrying the local result.
func (h *RenewalHandler) ActivateRenewal(c *gin.Context) {
	var req contract.ActivateRenewalRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.renewalService.ActivateRenewal(c.Request.Context(), c.Param("client_id"), c.Param("phase"), &req)
	if err != nil {
		if result != nil {
			h.logger.Warn("renewal pending sync",
				zap.String("client_id", result.Contract.ClientID),
				zap.Error(err),
			)
			response.FromError(c, err, result)
			return
		}
		response.FromError(c, err)
		return
	}

	message := "renewal activated"
	if result.Warning != "" {
		message = "renewal activated with warnings"
	}
	response.Success(c, http.StatusCreated, message, result)
}
