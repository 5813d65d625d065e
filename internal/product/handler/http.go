package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/fekuna/omnipos-catalog-sync/internal/product"
	"github.com/fekuna/omnipos-catalog-sync/internal/product/dto"
	"github.com/fekuna/omnipos-catalog-sync/internal/response"
	"github.com/fekuna/omnipos-catalog-sync/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

type mergeRequest struct {
	MergedIDs []string `json:"merged_ids"`
}

type customSKURequest struct {
	CustomSKU string `json:"custom_sku"`
}

// Register mounts the product and variant routes on r.
func (h *ProductHandler) Register(r chi.Router) {
	r.Get("/products/{id}", h.GetProduct)
	r.Patch("/products/{id}/status", h.UpdateProductStatus)
	r.Post("/products/{id}/merge", h.MergeProducts)
	r.Patch("/variants/{id}/status", h.UpdateVariantStatus)
	r.Patch("/variants/{id}/custom-sku", h.UpdateVariantCustomSKU)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.uc.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, p)
}

func (h *ProductHandler) UpdateProductStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}

	p, err := h.uc.UpdateProductStatus(r.Context(), &dto.UpdateProductStatusInput{
		ID:     chi.URLParam(r, "id"),
		Status: model.ProductStatus(req.Status),
	})
	if err != nil {
		h.logger.Warn("update product status", zap.String("product_id", chi.URLParam(r, "id")), zap.Error(err))
	}
	response.Result(w, r, p, err)
}

func (h *ProductHandler) UpdateVariantStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}

	v, err := h.uc.UpdateVariantStatus(r.Context(), &dto.UpdateVariantStatusInput{
		ID:     chi.URLParam(r, "id"),
		Status: model.VariantStatus(req.Status),
	})
	if err != nil {
		h.logger.Warn("update variant status", zap.String("variant_id", chi.URLParam(r, "id")), zap.Error(err))
	}
	response.Result(w, r, v, err)
}

func (h *ProductHandler) MergeProducts(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}

	p, err := h.uc.MergeProducts(r.Context(), &dto.MergeProductsInput{
		SurvivorID: chi.URLParam(r, "id"),
		MergedIDs:  req.MergedIDs,
	})
	if err != nil {
		h.logger.Warn("merge products", zap.String("survivor_id", chi.URLParam(r, "id")), zap.Error(err))
	}
	response.Result(w, r, p, err)
}

func (h *ProductHandler) UpdateVariantCustomSKU(w http.ResponseWriter, r *http.Request) {
	var req customSKURequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}

	v, err := h.uc.UpdateVariantCustomSKU(r.Context(), &dto.UpdateCustomSKUInput{
		VariantID: chi.URLParam(r, "id"),
		CustomSKU: req.CustomSKU,
	})
	if err != nil {
		h.logger.Warn("update custom sku", zap.String("variant_id", chi.URLParam(r, "id")), zap.Error(err))
	}
	response.Result(w, r, v, err)
}
