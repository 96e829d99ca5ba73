package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/mbrekalo/trellis/internal/domain"
	"github.com/mbrekalo/trellis/internal/service"
	"github.com/mbrekalo/trellis/internal/transport/http/middleware"
	"github.com/mbrekalo/trellis/pkg/validator"
)

type AreaHandler struct {
	areaService    *service.AreaService
	cascadeService *service.CascadeService
}

func NewAreaHandler(areaService *service.AreaService, cascadeService *service.CascadeService) *AreaHandler {
	return &AreaHandler{areaService: areaService, cascadeService: cascadeService}
}

func (h *AreaHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	spaceID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid space ID")
		return
	}

	var input service.CreateAreaInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateArea(input.Name); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	area, err := h.areaService.Create(r.Context(), userID, spaceID, input)
	if err != nil {
		writeDomainError(w, "create area", err)
		return
	}

	writeJSON(w, http.StatusCreated, area)
}

func (h *AreaHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	spaceID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid space ID")
		return
	}

	areas, err := h.areaService.List(r.Context(), userID, spaceID)
	if err != nil {
		writeDomainError(w, "list areas", err)
		return
	}

	if areas == nil {
		areas = []domain.Area{}
	}

	writeJSON(w, http.StatusOK, areas)
}

func (h *AreaHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	areaID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid area ID")
		return
	}

	area, decision, err := h.areaService.Get(r.Context(), userID, areaID)
	if err != nil {
		writeDomainError(w, "get area", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"area": area,
		"role": decision.Role,
	})
}

func (h *AreaHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	areaID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid area ID")
		return
	}

	var input service.UpdateAreaInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	area, err := h.areaService.Update(r.Context(), userID, areaID, input)
	if err != nil {
		writeDomainError(w, "update area", err)
		return
	}

	writeJSON(w, http.StatusOK, area)
}

func (h *AreaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	areaID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid area ID")
		return
	}

	result, err := h.cascadeService.DeleteArea(r.Context(), userID, areaID)
	if err != nil {
		writeDomainError(w, "delete area", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *AreaHandler) Grant(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	areaID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid area ID")
		return
	}

	var input service.GrantInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.areaService.Grant(r.Context(), actorID, areaID, input); err != nil {
		writeDomainError(w, "grant area access", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AreaHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	areaID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid area ID")
		return
	}

	var input service.GrantInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.areaService.Revoke(r.Context(), actorID, areaID, input); err != nil {
		writeDomainError(w, "revoke area access", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AreaHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	areaID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid area ID")
		return
	}

	members, err := h.areaService.ListMembers(r.Context(), userID, areaID)
	if err != nil {
		writeDomainError(w, "list area members", err)
		return
	}

	if members == nil {
		members = []domain.AreaMembership{}
	}

	writeJSON(w, http.StatusOK, members)
}
