package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/repository"
	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/service"
)

// FailureResponse is the shape of every API failure. Clients render the
// message inline and keep their form state, so failures are payloads rather
// than bare HTTP errors.
type FailureResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondFailure(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, FailureResponse{Success: false, Message: message})
}

func handleServiceError(w http.ResponseWriter, err error) {
	var vErr *service.ValidationError
	var cErr *service.ConflictError
	var nErr *service.NotFoundError

	switch {
	case errors.As(err, &vErr):
		respondFailure(w, http.StatusBadRequest, vErr.Message)
	case errors.As(err, &cErr):
		respondFailure(w, http.StatusConflict, cErr.Message)
	case errors.As(err, &nErr):
		respondFailure(w, http.StatusNotFound, nErr.Message)
	case errors.Is(err, service.ErrLinkInvalid):
		respondFailure(w, http.StatusNotFound, "Invalid rating link")
	case errors.Is(err, service.ErrLinkExpired):
		respondFailure(w, http.StatusGone, "This rating link has expired")
	case errors.Is(err, service.ErrAlreadyRated):
		respondFailure(w, http.StatusConflict, "You have already rated these products")
	case errors.Is(err, repository.ErrIngredientNotFound):
		respondFailure(w, http.StatusNotFound, "Ingredient not found")
	case errors.Is(err, repository.ErrNoOrdersForCutoff):
		respondFailure(w, http.StatusConflict, "No completed orders since the last cutoff")
	default:
		log.Printf("internal error: %v", err)
		respondFailure(w, http.StatusInternalServerError, "internal server error")
	}
}
