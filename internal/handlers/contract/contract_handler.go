// internal/handlers/contract/contract_handler.go
package contract

import (
	"context"
	"net/http"

	"contracts-service/internal/domain/contract"
	"contracts-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Service is implemented by *service/contract.ContractService.
type Service interface {
	CreateContract(ctx context.Context, req *contract.CreateContractRequest) (*contract.ContractAggregate, error)
	GetContract(ctx context.Context, clientID string) (*contract.ContractAggregate, error)
	UpdateSchedule(ctx context.Context, clientID string, req *contract.UpdateScheduleRequest) (*contract.ContractAggregate, error)
	StageRenewal(ctx context.Context, clientID string, req *contract.StageRenewalRequest) (*contract.ContractAggregate, error)
	AttachReceipt(ctx context.Context, clientID, receiptRef string) (*contract.ContractAggregate, error)
	SignContract(ctx context.Context, clientID, imageRef string) (*contract.ContractAggregate, error)
	ListExpiring(ctx context.Context, days int) ([]contract.ExpiringContract, error)
}

type ContractHandler struct {
	contractService Service
}

func NewContractHandler(contractService Service) *ContractHandler {
	return &ContractHandler{contractService: contractService}
}

// CreateContract opens a contract for a new client
func (h *ContractHandler) CreateContract(c *gin.Context) {
	var req contract.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.contractService.CreateContract(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "contract created", result)
}

func (h *ContractHandler) GetContract(c *gin.Context) {
	result, err := h.contractService.GetContract(c.Request.Context(), c.Param("client_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "contract retrieved", result)
}

// UpdateSchedule edits start date, base duration or per-phase inputs and recomputes dates
func (h *ContractHandler) UpdateSchedule(c *gin.Context) {
	var req contract.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.contractService.UpdateSchedule(c.Request.Context(), c.Param("client_id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "schedule updated", result)
}

func (h *ContractHandler) StageRenewal(c *gin.Context) {
	var req contract.StageRenewalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.contractService.StageRenewal(c.Request.Context(), c.Param("client_id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "renewal staged", result)
}

func (h *ContractHandler) AttachReceipt(c *gin.Context) {
	var req contract.AttachReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.contractService.AttachReceipt(c.Request.Context(), c.Param("client_id"), req.ReceiptRef)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "receipt attached", result)
}

func (h *ContractHandler) SignContract(c *gin.Context) {
	var req contract.SignContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.contractService.SignContract(c.Request.Context(), c.Param("client_id"), req.ImageRef)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "contract signed", result)
}

// ListExpiring lists contracts ending within ?days= (default 30, max 90)
func (h *ContractHandler) ListExpiring(c *gin.Context) {
	var filters contract.ExpiringFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid days", err)
		return
	}

	result, err := h.contractService.ListExpiring(c.Request.Context(), filters.Days)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "expiring contracts", gin.H{
		"contracts": result,
		"total":     len(result),
	})
}
