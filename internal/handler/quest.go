package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chainquest/platform/internal/catalog"
	"github.com/chainquest/platform/internal/domain"
	"github.com/chainquest/platform/internal/service"
)

// QuestHandler handles quest lifecycle endpoints.
type QuestHandler struct {
	svc *service.ProgressionService
	cat *catalog.Catalog
}

// NewQuestHandler creates a new QuestHandler.
func NewQuestHandler(svc *service.ProgressionService, cat *catalog.Catalog) *QuestHandler {
	return &QuestHandler{svc: svc, cat: cat}
}

type questSummary struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	LevelRequirement int    `json:"level_requirement"`
	Repeatable       bool   `json:"repeatable"`
	Reactive         bool   `json:"reactive"`
	Available        bool   `json:"available"`
}

// List handles GET /quests — the catalog annotated with the caller's
// availability.
func (h *QuestHandler) List(w http.ResponseWriter, r *http.Request) {
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
	availSet := make(map[string]bool, len(av.Quests))
	for _, id := range av.Quests {
		availSet[id] = true
	}

	quests := make([]questSummary, 0, len(h.cat.Quests))
	for id, q := range h.cat.Quests {
		quests = append(quests, questSummary{
			ID:               id,
			Title:            q.Title,
			Description:      q.Description,
			LevelRequirement: q.LevelRequirement,
			Repeatable:       q.Repeatable,
			Reactive:         q.Criteria != nil,
			Available:        availSet[id],
		})
	}
	RespondJSON(w, http.StatusOK, quests)
}

// Activate handles POST /quests/{id}/activate.
func (h *QuestHandler) Activate(w http.ResponseWriter, r *http.Request) {
	playerID, err := playerIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	qs, err := h.svc.ActivateQuest(r.Context(), playerID, chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, qs)
}

type progressInput struct {
	ObjectiveID string `json:"objective_id"`
	Delta       int64  `json:"delta"`
	Occurred    bool   `json:"occurred"`
}

// Progress handles POST /quests/{id}/progress — self-reported objective
// progress from gameplay surfaces.
func (h *QuestHandler) Progress(w http.ResponseWriter, r *http.Request) {
	playerID, err := playerIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	var input progressInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondJSON(w, http.StatusBadRequest, map[string]string{
			"code": "VALIDATION_ERROR", "message": "invalid request body",
		})
		return
	}

	res, err := h.svc.RecordProgress(r.Context(), playerID, chi.URLParam(r, "id"), input.ObjectiveID, input.Delta, input.Occurred)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, res)
}

// Claim handles POST /quests/{id}/claim — dispense the reward set of a
// completed quest. Replaying a past claim returns the stored grants.
func (h *QuestHandler) Claim(w http.ResponseWriter, r *http.Request) {
	playerID, err := playerIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	res, err := h.svc.ClaimQuest(r.Context(), playerID, chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, res)
}

// GetState handles GET /quests/{id}/state — the caller's progress on one quest.
func (h *QuestHandler) GetState(w http.ResponseWriter, r *http.Request) {
	playerID, err := playerIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	questID := chi.URLParam(r, "id")
	if _, ok := h.cat.Quests[questID]; !ok {
		RespondError(w, domain.ErrNotFound("quest", questID))
		return
	}

	st, err := h.svc.GetState(r.Context(), playerID)
	if err != nil {
		RespondError(w, err)
		return
	}
	qs, ok := st.Quests[questID]
	if !ok {
		qs = domain.NewQuestState(questID)
	}
	RespondJSON(w, http.StatusOK, qs)
}
