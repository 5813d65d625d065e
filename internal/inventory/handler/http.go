package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-catalog-sync/internal/inventory"
	"github.com/fekuna/omnipos-catalog-sync/internal/response"
	"github.com/fekuna/omnipos-catalog-sync/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *InventoryHandler) Register(r chi.Router) {
	r.Get("/variants/{id}/stock", h.GetVariantStock)
}

func (h *InventoryHandler) GetVariantStock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.uc.GetVariantStock(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, stock)
}
