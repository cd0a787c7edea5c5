package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sangamlabs/sangam/internal/api/models"
	"github.com/sangamlabs/sangam/internal/api/response"
	"github.com/sangamlabs/sangam/internal/member"
)

// BroadcastPublisher queues a broadcast for asynchronous fan-out by the
// worker. Implemented by worker.Publisher.
type BroadcastPublisher interface {
	PublishBroadcast(ctx context.Context, title, body, target string) (string, error)
}

// BroadcastRunner executes a broadcast synchronously in-process.
// Implemented by worker.BroadcastJob.
type BroadcastRunner interface {
	Run(ctx context.Context, title, body, target string) (sent, failed int, err error)
}

// AdminHandler handles admin endpoints.
type AdminHandler struct {
	publisher BroadcastPublisher
	runner    BroadcastRunner
}

// NewAdminHandler creates a new AdminHandler. publisher may be nil; the
// broadcast then runs synchronously through runner.
func NewAdminHandler(publisher BroadcastPublisher, runner BroadcastRunner) *AdminHandler {
	return &AdminHandler{publisher: publisher, runner: runner}
}

// Broadcast handles POST /v1/admin/broadcasts - push a message to a
// member segment.
func (h *AdminHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var input models.BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	var fieldErrors []models.FieldError
	if input.Title == "" {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "title", Message: "required", Code: "REQUIRED"})
	}
	if input.Body == "" {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "body", Message: "required", Code: "REQUIRED"})
	}
	if _, ok := member.ParseSegment(input.Target); !ok {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "target", Message: "must be one of all, premium, recently_active", Code: "INVALID_VALUE",
		})
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid broadcast request", fieldErrors)
		return
	}

	// Prefer the queue: fan-out to a large segment is worker territory.
	if h.publisher != nil {
		messageID, err := h.publisher.PublishBroadcast(r.Context(), input.Title, input.Body, input.Target)
		if err != nil {
			response.ServiceUnavailable(w, r, "failed to queue broadcast")
			return
		}
		response.Accepted(w, r, models.BroadcastAccepted{
			MessageID: messageID,
			Target:    input.Target,
		})
		return
	}

	if h.runner == nil {
		response.ServiceUnavailable(w, r, "broadcast delivery is not configured")
		return
	}

	sent, failed, err := h.runner.Run(r.Context(), input.Title, input.Body, input.Target)
	if err != nil {
		response.InternalError(w, r, "broadcast failed")
		return
	}

	response.JSON(w, r, http.StatusOK, models.BroadcastResult{
		Target:      input.Target,
		SentCount:   sent,
		FailedCount: failed,
	})
}
