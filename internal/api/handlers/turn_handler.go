package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/maisonvera/concierge/internal/domain/entities"
	"github.com/maisonvera/concierge/internal/infrastructure/observability"
	apperrors "github.com/maisonvera/concierge/pkg/errors"
)

const maxTurnBodyBytes = 64 * 1024
const maxUtteranceLength = 2000

// ConciergeService defines the turn operation used by the handler.
type ConciergeService interface {
	ProcessTurn(ctx context.Context, req *entities.TurnRequest) (*entities.TurnResponse, error)
}

// TurnHandler handles concierge turn submissions.
type TurnHandler struct {
	service ConciergeService
}

// NewTurnHandler creates a new turn handler.
func NewTurnHandler(service ConciergeService) *TurnHandler {
	return &TurnHandler{service: service}
}

// HandleTurn handles POST /api/concierge/turn
func (h *TurnHandler) HandleTurn(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTurnBodyBytes)

	var req entities.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	req.SessionID = strings.TrimSpace(req.SessionID)
	req.Text = strings.TrimSpace(req.Text)
	if req.SessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if len(req.Text) > maxUtteranceLength {
		respondWithError(w, http.StatusBadRequest, "message is too long")
		return
	}

	response, err := h.service.ProcessTurn(r.Context(), &req)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, response)
}

// respondWithServiceError maps typed service errors onto the HTTP surface.
func (h *TurnHandler) respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	logger := observability.LoggerFromContext(r.Context())

	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation:
		respondWithError(w, http.StatusBadRequest, err.Error())
	case apperrors.ErrorTypeNotFound:
		respondWithError(w, http.StatusNotFound, err.Error())
	case apperrors.ErrorTypeDuplicate:
		respondWithJSON(w, http.StatusConflict, map[string]string{
			"error": err.Error(),
			"code":  "DUPLICATE_ACTION",
		})
	case apperrors.ErrorTypeStateInvariant:
		// Impossible state/intent combination: log it and hand the user
		// the quick-start surface instead of an error page.
		logger.Error().Err(err).Msg("conversation state invariant violated")
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"messages":      []string{"Let's start fresh. Here's what I can help with:"},
			"quick_replies": []string{"Find a piece", "Track my order", "Start a return", "Reserve a capsule", "Talk to a stylist"},
		})
	case apperrors.ErrorTypeExternal:
		logger.Error().Err(err).Msg("collaborator failure during turn")
		respondWithError(w, http.StatusBadGateway, "a partner service is unavailable, please try again")
	default:
		logger.Error().Err(err).Msg("turn processing failed")
		respondWithError(w, http.StatusInternalServerError, "something went wrong processing your message")
	}
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
