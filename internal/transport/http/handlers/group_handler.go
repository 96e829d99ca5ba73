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

type GroupHandler struct {
	groupService *service.GroupService
}

func NewGroupHandler(groupService *service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.CreateGroupInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateGroup(input.Name); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	group, err := h.groupService.Create(r.Context(), userID, input)
	if err != nil {
		writeDomainError(w, "create group", err)
		return
	}

	writeJSON(w, http.StatusCreated, group)
}

func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid group ID")
		return
	}

	group, err := h.groupService.Get(r.Context(), userID, groupID)
	if err != nil {
		writeDomainError(w, "get group", err)
		return
	}

	writeJSON(w, http.StatusOK, group)
}

func (h *GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	groupID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid group ID")
		return
	}

	var input service.GroupMemberInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.groupService.AddMember(r.Context(), actorID, groupID, input); err != nil {
		if errors.Is(err, service.ErrNotGroupLead) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Only a group lead can manage members")
		} else {
			writeDomainError(w, "add group member", err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	groupID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid group ID")
		return
	}

	userID, err := uuid.Parse(r.PathValue("uid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}

	if err := h.groupService.RemoveMember(r.Context(), actorID, groupID, userID); err != nil {
		if errors.Is(err, service.ErrNotGroupLead) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Only a group lead can manage members")
		} else {
			writeDomainError(w, "remove group member", err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GroupHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid group ID")
		return
	}

	members, err := h.groupService.ListMembers(r.Context(), userID, groupID)
	if err != nil {
		writeDomainError(w, "list group members", err)
		return
	}

	if members == nil {
		members = []domain.GroupMember{}
	}

	writeJSON(w, http.StatusOK, members)
}
