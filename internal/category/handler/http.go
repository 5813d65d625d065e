package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-catalog-sync/internal/category"
	"github.com/fekuna/omnipos-catalog-sync/internal/category/dto"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/fekuna/omnipos-catalog-sync/internal/response"
	"github.com/fekuna/omnipos-catalog-sync/pkg/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CategoryHandler struct {
	uc     category.UseCase
	logger logger.ZapLogger
}

func NewCategoryHandler(uc category.UseCase, log logger.ZapLogger) *CategoryHandler {
	return &CategoryHandler{
		uc:     uc,
		logger: log,
	}
}

type listCategoriesResponse struct {
	Categories []model.Category `json:"categories"`
	Total      int              `json:"total"`
}

func (h *CategoryHandler) Register(r chi.Router) {
	r.Get("/categories", h.ListCategories)
	r.Get("/categories/{id}", h.GetCategory)
	r.Get("/categories/{id}/breadcrumb", h.GenerateBreadcrumb)
}

func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := &dto.CategoryFilters{}

	// parent_id present but empty selects root categories.
	if q.Has("parent_id") {
		parentID := q.Get("parent_id")
		filters.ParentID = &parentID
	}
	if raw := q.Get("is_active"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(w, r, "is_active must be a boolean")
			return
		}
		filters.IsActive = &b
	}
	if raw := q.Get("leaf"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(w, r, "leaf must be a boolean")
			return
		}
		filters.Leaf = &b
	}
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.PageSize, _ = strconv.Atoi(q.Get("page_size"))

	categories, total, err := h.uc.ListCategories(r.Context(), filters)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, listCategoriesResponse{Categories: categories, Total: total})
}

func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.uc.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, c)
}

func (h *CategoryHandler) GenerateBreadcrumb(w http.ResponseWriter, r *http.Request) {
	crumbs, err := h.uc.GenerateBreadcrumb(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Warn("failed to build breadcrumb", zap.String("category_id", chi.URLParam(r, "id")), zap.Error(err))
		response.Error(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, crumbs)
}
