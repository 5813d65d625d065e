package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fekuna/omnipos-catalog-sync/internal/inventory/dto"
	"github.com/fekuna/omnipos-catalog-sync/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUseCase struct{}

func (stubUseCase) GetVariantStock(_ context.Context, variantID string) (*dto.VariantStock, error) {
	return &dto.VariantStock{VariantID: variantID, Total: 7}, nil
}

func TestGetVariantStock(t *testing.T) {
	r := chi.NewRouter()
	NewInventoryHandler(stubUseCase{}, logger.NewNop()).Register(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/variants/v9/stock", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data dto.VariantStock `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "v9", body.Data.VariantID)
	assert.Equal(t, int64(7), body.Data.Total)
}
