package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sangamlabs/sangam/internal/api/models"
	"github.com/sangamlabs/sangam/internal/api/response"
	"github.com/sangamlabs/sangam/internal/viewledger"
)

// ProfileViewHandler handles profile view unlock endpoints.
type ProfileViewHandler struct {
	ledger *viewledger.Service
}

// NewProfileViewHandler creates a new ProfileViewHandler.
func NewProfileViewHandler(ledger *viewledger.Service) *ProfileViewHandler {
	return &ProfileViewHandler{ledger: ledger}
}

// UnlockView handles POST /v1/profile-views - spend a token to view a profile.
func (h *ProfileViewHandler) UnlockView(w http.ResponseWriter, r *http.Request) {
	viewerID := GetMemberID(r.Context())

	var input models.ProfileViewRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if input.TargetID == "" {
		response.BadRequest(w, r, "targetId is required", []models.FieldError{
			{Field: "targetId", Message: "required", Code: "REQUIRED"},
		})
		return
	}

	result, err := h.ledger.SpendViewToken(r.Context(), viewerID, input.TargetID)
	if err != nil {
		switch {
		case errors.Is(err, viewledger.ErrInsufficientTokens):
			response.InsufficientTokens(w, r)
		case errors.Is(err, viewledger.ErrTargetNotFound):
			response.NotFound(w, r, "member not found")
		default:
			response.InternalError(w, r, "failed to unlock profile view")
		}
		return
	}

	remaining := result.RemainingTokens
	if viewerID == input.TargetID {
		// Self-views bypass the ledger, so the balance is read separately.
		if remaining, err = h.ledger.RemainingTokens(r.Context(), viewerID); err != nil {
			response.InternalError(w, r, "failed to read token balance")
			return
		}
	}

	response.JSON(w, r, http.StatusOK, models.ProfileViewResult{
		Unlocked:        true,
		AlreadyUnlocked: result.AlreadyUnlocked,
		RemainingTokens: remaining,
	})
}

// ListViewers handles GET /v1/profile-views/viewers - who viewed me.
func (h *ProfileViewHandler) ListViewers(w http.ResponseWriter, r *http.Request) {
	memberID := GetMemberID(r.Context())

	records, err := h.ledger.ListViewers(r.Context(), memberID, queryLimit(r))
	if err != nil {
		response.InternalError(w, r, "failed to list profile viewers")
		return
	}

	items := make([]models.ProfileViewer, 0, len(records))
	for _, rec := range records {
		items = append(items, models.ProfileViewer{
			ViewerID: rec.ViewerID,
			ViewedAt: models.Timestamp(rec.CreatedAt),
		})
	}
	response.JSON(w, r, http.StatusOK, models.ProfileViewers{Items: items})
}
