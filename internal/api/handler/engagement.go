package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sangamlabs/sangam/internal/api/models"
	"github.com/sangamlabs/sangam/internal/api/response"
	"github.com/sangamlabs/sangam/internal/engagement"
)

// EngagementHandler handles engagement action endpoints.
type EngagementHandler struct {
	engagements *engagement.Service
}

// NewEngagementHandler creates a new EngagementHandler.
func NewEngagementHandler(engagements *engagement.Service) *EngagementHandler {
	return &EngagementHandler{engagements: engagements}
}

func decodeActionRequest(w http.ResponseWriter, r *http.Request) (targetID string, kind engagement.ActionKind, ok bool) {
	var input models.EngagementActionRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return "", "", false
	}
	if input.TargetID == "" {
		response.BadRequest(w, r, "targetId is required", []models.FieldError{
			{Field: "targetId", Message: "required", Code: "REQUIRED"},
		})
		return "", "", false
	}

	kind, valid := engagement.ParseActionKind(input.Kind)
	if !valid {
		response.BadRequest(w, r, "invalid action kind", []models.FieldError{
			{Field: "kind", Message: "must be one of interest, shortlist, reject, accept", Code: "INVALID_VALUE"},
		})
		return "", "", false
	}

	return input.TargetID, kind, true
}

func toActionModel(a *engagement.Action) models.EngagementAction {
	return models.EngagementAction{
		ID:        a.ID,
		ActorID:   a.ActorID,
		TargetID:  a.TargetID,
		Kind:      string(a.Kind),
		CreatedAt: models.Timestamp(a.CreatedAt),
		UpdatedAt: models.Timestamp(a.UpdatedAt),
	}
}

// UpsertAction handles POST /v1/engagement-actions - record an action.
func (h *EngagementHandler) UpsertAction(w http.ResponseWriter, r *http.Request) {
	actorID := GetMemberID(r.Context())

	targetID, kind, ok := decodeActionRequest(w, r)
	if !ok {
		return
	}

	result, err := h.engagements.UpsertAction(r.Context(), actorID, targetID, kind)
	if err != nil {
		switch {
		case errors.Is(err, engagement.ErrSelfAction):
			response.BadRequest(w, r, "cannot target yourself", nil)
		case errors.Is(err, engagement.ErrTargetNotFound):
			response.NotFound(w, r, "member not found")
		case errors.Is(err, engagement.ErrInvalidKind):
			response.BadRequest(w, r, "invalid action kind", nil)
		default:
			response.InternalError(w, r, "failed to record action")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, models.EngagementActionResult{
		Created: result.Created,
		Action:  toActionModel(result.Action),
	})
}

// WithdrawAction handles DELETE /v1/engagement-actions - remove an action.
func (h *EngagementHandler) WithdrawAction(w http.ResponseWriter, r *http.Request) {
	actorID := GetMemberID(r.Context())

	targetID, kind, ok := decodeActionRequest(w, r)
	if !ok {
		return
	}

	found, err := h.engagements.WithdrawAction(r.Context(), actorID, targetID, kind)
	if err != nil {
		response.InternalError(w, r, "failed to withdraw action")
		return
	}

	response.JSON(w, r, http.StatusOK, models.EngagementWithdrawResult{Found: found})
}

// ListActions handles GET /v1/engagement-actions - list actions by
// direction (sent by me, or received by me), optionally filtered by kind.
func (h *EngagementHandler) ListActions(w http.ResponseWriter, r *http.Request) {
	memberID := GetMemberID(r.Context())

	var kind engagement.ActionKind
	if raw := r.URL.Query().Get("kind"); raw != "" {
		parsed, valid := engagement.ParseActionKind(raw)
		if !valid {
			response.BadRequest(w, r, "invalid action kind", nil)
			return
		}
		kind = parsed
	}

	direction := r.URL.Query().Get("direction")
	if direction == "" {
		direction = "sent"
	}

	var (
		actions []*engagement.Action
		err     error
	)
	switch direction {
	case "sent":
		actions, err = h.engagements.ListByActor(r.Context(), memberID, kind)
	case "received":
		actions, err = h.engagements.ListByTarget(r.Context(), memberID, kind)
	default:
		response.BadRequest(w, r, "direction must be sent or received", nil)
		return
	}
	if err != nil {
		response.InternalError(w, r, "failed to list actions")
		return
	}

	items := make([]models.EngagementAction, 0, len(actions))
	for _, a := range actions {
		items = append(items, toActionModel(a))
	}
	response.JSON(w, r, http.StatusOK, models.EngagementActions{Items: items})
}
