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

type DocumentHandler struct {
	documentService *service.DocumentService
	cascadeService  *service.CascadeService
}

func NewDocumentHandler(documentService *service.DocumentService, cascadeService *service.CascadeService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService, cascadeService: cascadeService}
}

func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	spaceID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid space ID")
		return
	}

	var input service.CreateDocumentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateTitle(input.Title); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	doc, err := h.documentService.Create(r.Context(), userID, spaceID, input)
	if err != nil {
		writeDomainError(w, "create document", err)
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

// List returns the documents visible to the caller inside one space,
// optionally narrowed to those shared into one area via ?area=.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	spaceID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid space ID")
		return
	}

	scope := repository.DocumentScope{SpaceID: &spaceID}
	if raw := r.URL.Query().Get("area"); raw != "" {
		areaID, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid area ID")
			return
		}
		scope.AreaID = &areaID
	}

	docs, err := h.documentService.List(r.Context(), userID, scope)
	if err != nil {
		writeDomainError(w, "list documents", err)
		return
	}

	if docs == nil {
		docs = []domain.Document{}
	}

	writeJSON(w, http.StatusOK, docs)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	documentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid document ID")
		return
	}

	doc, decision, err := h.documentService.Get(r.Context(), userID, documentID)
	if err != nil {
		writeDomainError(w, "get document", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"document":   doc,
		"permission": decision.Permission,
	})
}

func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	documentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid document ID")
		return
	}

	var input service.UpdateDocumentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	doc, err := h.documentService.Update(r.Context(), userID, documentID, input)
	if err != nil {
		writeDomainError(w, "update document", err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) ChangeVisibility(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	documentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid document ID")
		return
	}

	var body struct {
		Visibility string `json:"visibility"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	doc, err := h.documentService.ChangeVisibility(r.Context(), userID, documentID, domain.Visibility(body.Visibility))
	if err != nil {
		writeDomainError(w, "change document visibility", err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) ShareToArea(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	documentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid document ID")
		return
	}

	var body struct {
		AreaID string `json:"area_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	areaID, err := uuid.Parse(body.AreaID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid area ID")
		return
	}

	if err := h.documentService.ShareToArea(r.Context(), userID, documentID, areaID); err != nil {
		writeDomainError(w, "share document to area", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DocumentHandler) UnshareFromArea(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	documentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid document ID")
		return
	}

	areaID, err := uuid.Parse(r.PathValue("aid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid area ID")
		return
	}

	if err := h.documentService.UnshareFromArea(r.Context(), userID, documentID, areaID); err != nil {
		writeDomainError(w, "unshare document from area", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DocumentHandler) ListAreaShares(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	documentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid document ID")
		return
	}

	shares, err := h.documentService.ListAreaShares(r.Context(), userID, documentID)
	if err != nil {
		writeDomainError(w, "list document shares", err)
		return
	}

	if shares == nil {
		shares = []domain.DocumentAreaShare{}
	}

	writeJSON(w, http.StatusOK, shares)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	documentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid document ID")
		return
	}

	result, err := h.cascadeService.DeleteDocument(r.Context(), userID, documentID)
	if err != nil {
		writeDomainError(w, "delete document", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
