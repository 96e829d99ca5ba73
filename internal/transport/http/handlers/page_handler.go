package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/mbrekalo/trellis/internal/domain"
	"github.com/mbrekalo/trellis/internal/repository"
	"github.com/mbrekalo/trellis/internal/service"
	"github.com/mbrekalo/trellis/internal/transport/http/middleware"
	"github.com/mbrekalo/trellis/pkg/validator"
)

type PageHandler struct {
	pageService    *service.PageService
	cascadeService *service.CascadeService
}

func NewPageHandler(pageService *service.PageService, cascadeService *service.CascadeService) *PageHandler {
	return &PageHandler{pageService: pageService, cascadeService: cascadeService}
}

func (h *PageHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	areaID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid area ID")
		return
	}

	var input service.CreatePageInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateTitle(input.Title); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	page, err := h.pageService.Create(r.Context(), userID, areaID, input)
	if err != nil {
		writeDomainError(w, "create page", err)
		return
	}

	writeJSON(w, http.StatusCreated, page)
}

func (h *PageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	areaID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid area ID")
		return
	}

	pages, err := h.pageService.List(r.Context(), userID, repository.PageScope{AreaID: &areaID})
	if err != nil {
		writeDomainError(w, "list pages", err)
		return
	}

	if pages == nil {
		pages = []domain.Page{}
	}

	writeJSON(w, http.StatusOK, pages)
}

func (h *PageHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	pageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid page ID")
		return
	}

	page, decision, err := h.pageService.Get(r.Context(), userID, pageID)
	if err != nil {
		writeDomainError(w, "get page", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"page":       page,
		"permission": decision.Permission,
	})
}

func (h *PageHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	pageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid page ID")
		return
	}

	var input service.UpdatePageInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	page, err := h.pageService.Update(r.Context(), userID, pageID, input)
	if err != nil {
		writeDomainError(w, "update page", err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *PageHandler) ChangeVisibility(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	pageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid page ID")
		return
	}

	var body struct {
		Visibility string `json:"visibility"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	page, err := h.pageService.ChangeVisibility(r.Context(), userID, pageID, domain.Visibility(body.Visibility))
	if err != nil {
		writeDomainError(w, "change page visibility", err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *PageHandler) Share(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	pageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid page ID")
		return
	}

	var input service.SharePageInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.pageService.Share(r.Context(), actorID, pageID, input); err != nil {
		writeDomainError(w, "share page", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PageHandler) Unshare(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	pageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid page ID")
		return
	}

	var body struct {
		UserID  *uuid.UUID `json:"user_id,omitempty"`
		GroupID *uuid.UUID `json:"group_id,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.pageService.Unshare(r.Context(), actorID, pageID, body.UserID, body.GroupID); err != nil {
		writeDomainError(w, "unshare page", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PageHandler) ListShares(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	pageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid page ID")
		return
	}

	userShares, groupShares, err := h.pageService.ListShares(r.Context(), userID, pageID)
	if err != nil {
		writeDomainError(w, "list page shares", err)
		return
	}

	if userShares == nil {
		userShares = []domain.PageUserShare{}
	}
	if groupShares == nil {
		groupShares = []domain.PageGroupShare{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users":  userShares,
		"groups": groupShares,
	})
}

func (h *PageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	pageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid page ID")
		return
	}

	result, err := h.cascadeService.DeletePage(r.Context(), userID, pageID)
	if err != nil {
		writeDomainError(w, "delete page", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
