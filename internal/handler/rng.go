package handler

import (
	"net/http"

	"github.com/chainquest/platform/internal/engine"
)

// RNGHandler exposes an admin probe for the randomness oracle, useful for
// verifying connectivity and circuit state without touching player data.
type RNGHandler struct {
	src engine.RandomSource
}

// NewRNGHandler creates a new RNGHandler.
func NewRNGHandler(src engine.RandomSource) *RNGHandler {
	return &RNGHandler{src: src}
}

type randomInput struct {
	Count int `json:"count"`
}

// GetRandom handles POST /admin/rng/random.
func (h *RNGHandler) GetRandom(w http.ResponseWriter, r *http.Request) {
	input := randomInput{Count: 1}
	if r.ContentLength > 0 {
		if err := DecodeJSON(r, &input); err != nil {
			RespondJSON(w, http.StatusBadRequest, map[string]string{
				"code": "VALIDATION_ERROR", "message": "invalid request body",
			})
			return
		}
	}
	if input.Count < 1 || input.Count > 100 {
		RespondJSON(w, http.StatusBadRequest, map[string]string{
			"code": "VALIDATION_ERROR", "message": "count must be between 1 and 100",
		})
		return
	}

	words, err := h.src.RandomWords(r.Context(), input.Count)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"words": words,
		"max":   engine.RandomWordMax,
	})
}
