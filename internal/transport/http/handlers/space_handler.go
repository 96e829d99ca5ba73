package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/mbrekalo/trellis/internal/domain"
	"github.com/mbrekalo/trellis/internal/service"
	"github.com/mbrekalo/trellis/internal/transport/http/middleware"
	"github.com/mbrekalo/trellis/pkg/validator"
)

type SpaceHandler struct {
	spaceService   *service.SpaceService
	cascadeService *service.CascadeService
}

func NewSpaceHandler(spaceService *service.SpaceService, cascadeService *service.CascadeService) *SpaceHandler {
	return &SpaceHandler{spaceService: spaceService, cascadeService: cascadeService}
}

func (h *SpaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.CreateSpaceInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateSpace(input.Name, input.Slug); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	space, err := h.spaceService.Create(r.Context(), userID, input)
	if err != nil {
		if errors.Is(err, service.ErrSlugTaken) {
			writeError(w, http.StatusConflict, "SLUG_TAKEN", "Space slug is already taken")
		} else {
			writeDomainError(w, "create space", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, space)
}

func (h *SpaceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	spaces, err := h.spaceService.List(r.Context(), userID)
	if err != nil {
		writeDomainError(w, "list spaces", err)
		return
	}

	if spaces == nil {
		spaces = []domain.Space{}
	}

	writeJSON(w, http.StatusOK, spaces)
}

func (h *SpaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	spaceID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid space ID")
		return
	}

	space, decision, err := h.spaceService.Get(r.Context(), userID, spaceID)
	if err != nil {
		writeDomainError(w, "get space", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"space": space,
		"role":  decision.Role,
	})
}

func (h *SpaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	spaceID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid space ID")
		return
	}

	var input service.UpdateSpaceInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	space, err := h.spaceService.Update(r.Context(), userID, spaceID, input)
	if err != nil {
		if errors.Is(err, service.ErrSlugTaken) {
			writeError(w, http.StatusConflict, "SLUG_TAKEN", "Space slug is already taken")
		} else {
			writeDomainError(w, "update space", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, space)
}

func (h *SpaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	spaceID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid space ID")
		return
	}

	result, err := h.cascadeService.DeleteSpace(r.Context(), userID, spaceID)
	if err != nil {
		writeDomainError(w, "delete space", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *SpaceHandler) Grant(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	spaceID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid space ID")
		return
	}

	var input service.GrantInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.spaceService.Grant(r.Context(), actorID, spaceID, input); err != nil {
		writeDomainError(w, "grant space access", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SpaceHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	spaceID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid space ID")
		return
	}

	var input service.GrantInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.spaceService.Revoke(r.Context(), actorID, spaceID, input); err != nil {
		writeDomainError(w, "revoke space access", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SpaceHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	spaceID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid space ID")
		return
	}

	members, err := h.spaceService.ListMembers(r.Context(), userID, spaceID)
	if err != nil {
		writeDomainError(w, "list space members", err)
		return
	}

	if members == nil {
		members = []domain.SpaceMembership{}
	}

	writeJSON(w, http.StatusOK, members)
}
