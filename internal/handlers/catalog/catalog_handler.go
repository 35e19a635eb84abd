// internal/handlers/catalog/catalog_handler.go
package catalog

import (
	"context"
	"net/http"

	"contracts-service/internal/domain/catalog"
	xerrors "contracts-service/internal/pkg/errors"
	"contracts-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Service interface {
	ListOffers(ctx context.Context) ([]catalog.Offer, error)
	ListPaymentMethods(ctx context.Context) ([]catalog.PaymentMethodFee, error)
	Invalidate(ctx context.Context) error
}

type CatalogHandler struct {
	catalogService Service
}

func NewCatalogHandler(catalogService Service) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) ListOffers(c *gin.Context) {
	offers, err := h.catalogService.ListOffers(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "offers retrieved", gin.H{
		"offers": offers,
		"total":  len(offers),
	})
}

func (h *CatalogHandler) ListPaymentMethods(c *gin.Context) {
	methods, err := h.catalogService.ListPaymentMethods(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "payment methods retrieved", gin.H{
		"payment_methods": methods,
		"total":           len(methods),
	})
}

// InvalidateCache drops the cached catalogs after an edit in the CRM.
func (h *CatalogHandler) InvalidateCache(c *gin.Context) {
	if err := h.catalogService.Invalidate(c.Request.Context()); err != nil {
		response.FromError(c, xerrors.NewStorage("invalidate catalog cache", err))
		return
	}
	response.Success(c, http.StatusOK, "catalog cache invalidated", nil)
}
