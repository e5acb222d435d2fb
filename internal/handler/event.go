package handler

import (
	"net/http"

	"github.com/chainquest/platform/internal/domain"
	"github.com/chainquest/platform/internal/guard"
	"github.com/chainquest/platform/internal/service"
)

// EventHandler ingests decoded chain events over HTTP. The indexer
// sidecar posts here; the kafka consumer feeds the same service directly.
type EventHandler struct {
	svc     *service.ChainEventService
	limiter *guard.RateLimiter
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(svc *service.ChainEventService, limiter *guard.RateLimiter) *EventHandler {
	return &EventHandler{svc: svc, limiter: limiter}
}

// Ingest handles POST /events/chain.
func (h *EventHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var rec domain.EventRecord
	if err := DecodeJSON(r, &rec); err != nil {
		RespondJSON(w, http.StatusBadRequest, map[string]string{
			"code": "VALIDATION_ERROR", "message": "invalid request body",
		})
		return
	}

	if res := h.limiter.Check(r.Context(), rec.PlayerID.String()); !res.Allowed {
		RespondJSON(w, http.StatusTooManyRequests, map[string]string{
			"code": "RATE_LIMITED", "message": res.Reason,
		})
		return
	}

	results, err := h.svc.Handle(r.Context(), rec)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"accepted": len(results) > 0,
		"results":  results,
	})
}
