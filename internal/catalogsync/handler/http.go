package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-catalog-sync/internal/catalogsync"
	"github.com/fekuna/omnipos-catalog-sync/internal/erp"
	"github.com/fekuna/omnipos-catalog-sync/internal/response"
	syncrundto "github.com/fekuna/omnipos-catalog-sync/internal/syncrun/dto"
	"github.com/fekuna/omnipos-catalog-sync/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

type SyncHandler struct {
	uc     catalogsync.UseCase
	logger logger.ZapLogger
	// background detaches the instant sync from the request. Tests replace
	// it to run inline.
	background func(fn func())
}

func NewSyncHandler(uc catalogsync.UseCase, log logger.ZapLogger) *SyncHandler {
	return &SyncHandler{
		uc:         uc,
		logger:     log,
		background: func(fn func()) { go fn() },
	}
}

func (h *SyncHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/instant", h.RunInstantSync)
	r.Post("/products/ingest", h.IngestProducts)
	r.Post("/products/reconcile", h.ReconcileExistingVariants)
	r.Post("/stock", h.ReconcileStock)
	r.Get("/runs", h.ListRuns)
	return r
}

// RunInstantSync starts the full sequence and replies 202. With ?wait=true
// it blocks and returns the per-phase outcome instead.
func (h *SyncHandler) RunInstantSync(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("wait") == "true" {
		result, err := h.uc.RunInstantSync(r.Context())
		if err != nil {
			h.logger.Error("instant sync failed", zap.Error(err))
			response.Error(w, r, err)
			return
		}
		response.JSON(w, r, http.StatusOK, result)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	h.background(func() {
		result, err := h.uc.RunInstantSync(ctx)
		if err != nil {
			h.logger.Warn("instant sync not run", zap.Error(err))
			return
		}
		for _, p := range result.Phases {
			h.logger.Info("instant sync phase finished",
				zap.String("phase", p.Type),
				zap.String("status", p.Status),
				zap.String("error", p.Error),
			)
		}
	})

	response.JSON(w, r, http.StatusAccepted, map[string]string{"status": "started"})
}

func (h *SyncHandler) IngestProducts(w http.ResponseWriter, r *http.Request) {
	var filter erp.ProductFilter
	if !decode(w, r, &filter) {
		return
	}
	result, err := h.uc.IngestProducts(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to ingest products", zap.Error(err))
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

func (h *SyncHandler) ReconcileExistingVariants(w http.ResponseWriter, r *http.Request) {
	var filter erp.ProductFilter
	if !decode(w, r, &filter) {
		return
	}
	result, err := h.uc.ReconcileExistingVariants(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to reconcile variants", zap.Error(err))
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

func (h *SyncHandler) ReconcileStock(w http.ResponseWriter, r *http.Request) {
	var filter erp.StockFilter
	if !decode(w, r, &filter) {
		return
	}
	result, err := h.uc.ReconcileStock(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to reconcile stock", zap.Error(err))
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

func (h *SyncHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	filters := &syncrundto.RunFilters{Type: r.URL.Query().Get("type")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			response.BadRequest(w, r, "limit must be a non-negative integer")
			return
		}
		filters.Limit = limit
	}

	runs, err := h.uc.ListRuns(r.Context(), filters)
	if err != nil {
		h.logger.Error("failed to list sync runs", zap.Error(err))
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, runs)
}

// decode reads an optional JSON filter body. An empty body leaves v zeroed.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	if err := render.DecodeJSON(r.Body, v); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, r, "invalid request body: "+err.Error())
		return false
	}
	return true
}
