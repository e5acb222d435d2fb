package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chainquest/platform/internal/catalog"
	"github.com/chainquest/platform/internal/domain"
	"github.com/chainquest/platform/internal/service"
)

// AdminHandler holds the operator surface: experience grants for gameplay
// backfills, achievement grants, and content lint inspection.
type AdminHandler struct {
	svc *service.ProgressionService
	cat *catalog.Catalog
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc *service.ProgressionService, cat *catalog.Catalog) *AdminHandler {
	return &AdminHandler{svc: svc, cat: cat}
}

type grantExperienceInput struct {
	Amount int64 `json:"amount"`
}

// GrantExperience handles POST /admin/players/{id}/experience.
func (h *AdminHandler) GrantExperience(w http.ResponseWriter, r *http.Request) {
	playerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid player id"))
		return
	}

	var input grantExperienceInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondJSON(w, http.StatusBadRequest, map[string]string{
			"code": "VALIDATION_ERROR", "message": "invalid request body",
		})
		return
	}

	res, err := h.svc.AddExperience(r.Context(), playerID, input.Amount)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, res)
}

type grantAchievementInput struct {
	AchievementID string `json:"achievement_id"`
}

// GrantAchievement handles POST /admin/players/{id}/achievements.
func (h *AdminHandler) GrantAchievement(w http.ResponseWriter, r *http.Request) {
	playerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid player id"))
		return
	}

	var input grantAchievementInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondJSON(w, http.StatusBadRequest, map[string]string{
			"code": "VALIDATION_ERROR", "message": "invalid request body",
		})
		return
	}

	if err := h.svc.GrantAchievement(r.Context(), playerID, input.AchievementID); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "granted"})
}

// CatalogWarnings handles GET /admin/catalog/warnings — the non-fatal
// content lints collected at load.
func (h *AdminHandler) CatalogWarnings(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"warnings": h.cat.Warnings,
	})
}
