package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/service"
)

// RatingPages resolves and records product ratings for a link.
type RatingPages interface {
	LinkByCode(ctx context.Context, code string) (*service.RatingPage, error)
	SubmitRatings(ctx context.Context, code string, ratings map[int64]int) (*service.RatingResult, error)
}

type RatingHandler struct {
	ratings RatingPages
	timeout time.Duration
}

func NewRatingHandler(ratings RatingPages, timeout time.Duration) *RatingHandler {
	return &RatingHandler{
		ratings: ratings,
		timeout: timeout,
	}
}

type RatingItemDTO struct {
	OrderItemID int64  `json:"order_item_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Rating      int    `json:"rating,omitempty"`
}

type RatingPageResponseDTO struct {
	Success      bool            `json:"success"`
	CustomerName string          `json:"customer_name"`
	OrderNumber  string          `json:"order_number"`
	PointsEarned int             `json:"points_earned"`
	AlreadyRated bool            `json:"already_rated"`
	ExpiresAt    string          `json:"expires_at"`
	Items        []RatingItemDTO `json:"items"`
}

type SubmitRatingsRequestDTO struct {
	Code    string        `json:"code"`
	Ratings map[int64]int `json:"ratings"`
}

type SubmitRatingsResponseDTO struct {
	Success          bool `json:"success"`
	RatingsSubmitted int  `json:"ratings_submitted"`
	BonusPoints      int  `json:"bonus_points"`
}

// GET /api/v1/rate?code=
func (h *RatingHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	code := r.URL.Query().Get("code")
	if code == "" {
		respondFailure(w, http.StatusBadRequest, "code is required")
		return
	}

	page, err := h.ratings.LinkByCode(ctx, code)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]RatingItemDTO, 0, len(page.Items))
	for _, it := range page.Items {
		items = append(items, RatingItemDTO{
			OrderItemID: it.ID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Rating:      page.ExistingRatings[it.ID],
		})
	}

	respondJSON(w, http.StatusOK, RatingPageResponseDTO{
		Success:      true,
		CustomerName: page.CustomerName,
		OrderNumber:  page.Link.OrderNumber,
		PointsEarned: page.Link.PointsEarned,
		AlreadyRated: page.AlreadyRated,
		ExpiresAt:    page.Link.ExpiresAt.Format(time.RFC3339),
		Items:        items,
	})
}

// POST /api/v1/rate
func (h *RatingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SubmitRatingsRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Code == "" {
		respondFailure(w, http.StatusBadRequest, "code is required")
		return
	}

	result, err := h.ratings.SubmitRatings(ctx, req.Code, req.Ratings)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, SubmitRatingsResponseDTO{
		Success:          true,
		RatingsSubmitted: result.RatingsSubmitted,
		BonusPoints:      result.BonusPoints,
	})
}
