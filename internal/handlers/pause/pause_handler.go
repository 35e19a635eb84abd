// internal/handlers/pause/pause_handler.go
package pause

import (
	"context"
	"net/http"

	"contracts-service/internal/domain/contract"
	"contracts-service/internal/domain/pause"
	"contracts-service/internal/middleware"
	"contracts-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Service is implemented by *service/pause.PauseService.
type Service interface {
	StartPause(ctx context.Context, clientID, actor string, req *pause.StartPauseRequest) (*contract.ContractAggregate, error)
	EndPause(ctx context.Context, clientID string) (int, *contract.ContractAggregate, error)
	GetPauseHistory(ctx context.Context, clientID string) ([]pause.PauseInterval, error)
}

type PauseHandler struct {
	pauseService Service
}

func NewPauseHandler(pauseService Service) *PauseHandler {
	return &PauseHandler{pauseService: pauseService}
}

func (h *PauseHandler) StartPause(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req pause.StartPauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.pauseService.StartPause(c.Request.Context(), c.Param("client_id"), actor, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "pause started", result)
}

// EndPause resumes the client and reports how many days were added to the contract
func (h *PauseHandler) EndPause(c *gin.Context) {
	clientID := c.Param("client_id")

	days, agg, err := h.pauseService.EndPause(c.Request.Context(), clientID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "pause ended", pause.EndPauseResponse{
		ClientID:        clientID,
		DaysElapsed:     days,
		ContractEndDate: agg.ContractEndDate,
	})
}

func (h *PauseHandler) GetPauseHistory(c *gin.Context) {
	result, err := h.pauseService.GetPauseHistory(c.Request.Context(), c.Param("client_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "pause history", gin.H{
		"pauses": result,
		"total":  len(result),
	})
}
