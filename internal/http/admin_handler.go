package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/repository"
)

type AdminHandler struct {
	store   repository.AdminStore
	timeout time.Duration
}

func NewAdminHandler(store repository.AdminStore, timeout time.Duration) *AdminHandler {
	return &AdminHandler{
		store:   store,
		timeout: timeout,
	}
}

type UpdateStockRequestDTO struct {
	IngredientID int64   `json:"ingredient_id"`
	NewStock     float64 `json:"new_stock"`
}

type UpdateStockResponseDTO struct {
	Success  bool    `json:"success"`
	NewStock float64 `json:"new_stock"`
	LowStock bool    `json:"low_stock"`
}

// POST /api/v1/admin/stock
func (h *AdminHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateStockRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.IngredientID <= 0 {
		respondFailure(w, http.StatusBadRequest, "ingredient_id must be positive")
		return
	}
	if req.NewStock < 0 {
		respondFailure(w, http.StatusBadRequest, "new_stock cannot be negative")
		return
	}

	ingredient, err := h.store.UpdateIngredientStock(ctx, req.IngredientID, req.NewStock)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, UpdateStockResponseDTO{
		Success:  true,
		NewStock: ingredient.Stock,
		LowStock: ingredient.Stock <= ingredient.LowStockThreshold,
	})
}

// GET /api/v1/admin/members
func (h *AdminHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	members, err := h.store.ListMembers(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, members)
}

// GET /api/v1/admin/rating-links
func (h *AdminHandler) ListRatingLinks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	links, err := h.store.ListRatingLinks(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, links)
}

// GET /api/v1/admin/ratings
func (h *AdminHandler) RatingSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	summary, err := h.store.RatingSummary(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// POST /api/v1/admin/cutoffs
func (h *AdminHandler) CreateCutoff(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cutoff, err := h.store.CreateCutoff(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, cutoff)
}

// GET /api/v1/admin/cutoffs
func (h *AdminHandler) ListCutoffs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cutoffs, err := h.store.ListCutoffs(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cutoffs)
}
