package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chainquest/platform/internal/domain"
	"github.com/chainquest/platform/internal/service"
)

// PlayerHandler handles progression, skill tree, and relationship endpoints.
type PlayerHandler struct {
	svc *service.ProgressionService
}

// NewPlayerHandler creates a new PlayerHandler.
func NewPlayerHandler(svc *service.ProgressionService) *PlayerHandler {
	return &PlayerHandler{svc: svc}
}

// GetState handles GET /players/me — the full progression snapshot.
func (h *PlayerHandler) GetState(w http.ResponseWriter, r *http.Request) {
	playerID, err := playerIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	st, err := h.svc.GetState(r.Context(), playerID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, st)
}

// GetAvailability handles GET /players/me/availability.
func (h *PlayerHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	playerID, err := playerIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	av, err := h.svc.Availability(r.Context(), playerID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, av)
}

// GetSkills handles GET /players/me/skills.
func (h *PlayerHandler) GetSkills(w http.ResponseWriter, r *http.Request) {
	playerID, err := playerIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	st, err := h.svc.GetState(r.Context(), playerID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"skills":         st.Skills,
		"mastery_points": st.Progression.MasteryPoints,
	})
}

// GetRelationships handles GET /players/me/relationships.
func (h *PlayerHandler) GetRelationships(w http.ResponseWriter, r *http.Request) {
	playerID, err := playerIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	st, err := h.svc.GetState(r.Context(), playerID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"relationships": st.Relationships,
	})
}

// Prestige handles POST /players/me/prestige.
func (h *PlayerHandler) Prestige(w http.ResponseWriter, r *http.Request) {
	playerID, err := playerIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	prog, err := h.svc.Prestige(r.Context(), playerID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, prog)
}

type upgradeSkillInput struct {
	TierIndex int `json:"tier_index"`
}

// UpgradeSkill handles POST /players/me/skills/{branch}/upgrade.
func (h *PlayerHandler) UpgradeSkill(w http.ResponseWriter, r *http.Request) {
	playerID, err := playerIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	var input upgradeSkillInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondJSON(w, http.StatusBadRequest, map[string]string{
			"code": "VALIDATION_ERROR", "message": "invalid request body",
		})
		return
	}

	branch := domain.SkillBranchID(chi.URLParam(r, "branch"))
	upgraded, err := h.svc.UpgradeSkill(r.Context(), playerID, branch, input.TierIndex)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, upgraded)
}
