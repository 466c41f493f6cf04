package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/domain"
	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/service"
)

// MemberDirectory is the slice of the member service the checkout API uses.
type MemberDirectory interface {
	CheckMember(ctx context.Context, email string) (*domain.LoyaltyMember, bool, error)
	RegisterMember(ctx context.Context, name, email string) (*domain.LoyaltyMember, error)
}

// OrderCompleter finalizes a cart into a persisted order.
type OrderCompleter interface {
	CompleteOrder(ctx context.Context, req *service.CompleteOrderRequest) (*service.Receipt, error)
}

type CheckoutHandler struct {
	members  MemberDirectory
	checkout OrderCompleter
	timeout  time.Duration
}

func NewCheckoutHandler(members MemberDirectory, checkout OrderCompleter, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		members:  members,
		checkout: checkout,
		timeout:  timeout,
	}
}

// CheckoutRequestDTO is the action-dispatched checkout payload. The client
// may send its own total and points but they are never trusted; the server
// recomputes both from the catalog.
type CheckoutRequestDTO struct {
	Action       string              `json:"action"`
	Email        string              `json:"email,omitempty"`
	Name         string              `json:"name,omitempty"`
	Items        []service.OrderLine `json:"items,omitempty"`
	Total        float64             `json:"total,omitempty"`
	Points       int                 `json:"points,omitempty"`
	CashReceived float64             `json:"cash_received,omitempty"`
	MemberID     *int64              `json:"member_id,omitempty"`
}

type MemberDTO struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Points int    `json:"points"`
}

type CheckMemberResponseDTO struct {
	Success bool       `json:"success"`
	Found   bool       `json:"found"`
	Member  *MemberDTO `json:"member,omitempty"`
}

type RegisterMemberResponseDTO struct {
	Success bool      `json:"success"`
	Member  MemberDTO `json:"member"`
}

type CompleteOrderResponseDTO struct {
	Success      bool                   `json:"success"`
	OrderID      int64                  `json:"order_id"`
	OrderNumber  string                 `json:"order_number"`
	TotalAmount  float64                `json:"total_amount"`
	TotalPoints  int                    `json:"total_points"`
	CashReceived float64                `json:"cash_received"`
	Change       float64                `json:"change"`
	Member       *service.MemberSummary `json:"member,omitempty"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	switch req.Action {
	case "check_member":
		h.checkMember(ctx, w, req)
	case "register_member":
		h.registerMember(ctx, w, req)
	case "complete_order":
		h.completeOrder(ctx, w, r, req)
	default:
		respondFailure(w, http.StatusBadRequest, "unknown action")
	}
}

func (h *CheckoutHandler) checkMember(ctx context.Context, w http.ResponseWriter, req CheckoutRequestDTO) {
	member, found, err := h.members.CheckMember(ctx, req.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := CheckMemberResponseDTO{Success: true, Found: found}
	if found {
		resp.Member = memberDTO(member)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *CheckoutHandler) registerMember(ctx context.Context, w http.ResponseWriter, req CheckoutRequestDTO) {
	member, err := h.members.RegisterMember(ctx, req.Name, req.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, RegisterMemberResponseDTO{
		Success: true,
		Member:  *memberDTO(member),
	})
}

func (h *CheckoutHandler) completeOrder(ctx context.Context, w http.ResponseWriter, r *http.Request, req CheckoutRequestDTO) {
	receipt, err := h.checkout.CompleteOrder(ctx, &service.CompleteOrderRequest{
		Items:        req.Items,
		CashReceived: req.CashReceived,
		MemberID:     req.MemberID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	log.Printf("order %s completed, request_id=%s", receipt.OrderNumber, getRequestID(r.Context()))

	respondJSON(w, http.StatusCreated, CompleteOrderResponseDTO{
		Success:      true,
		OrderID:      receipt.OrderID,
		OrderNumber:  receipt.OrderNumber,
		TotalAmount:  receipt.TotalAmount,
		TotalPoints:  receipt.TotalPoints,
		CashReceived: receipt.CashReceived,
		Change:       receipt.Change,
		Member:       receipt.Member,
	})
}

func memberDTO(m *domain.LoyaltyMember) *MemberDTO {
	return &MemberDTO{
		ID:     m.ID,
		Name:   m.Name,
		Email:  m.Email,
		Points: m.Points,
	}
}
