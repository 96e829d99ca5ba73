package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/mbrekalo/trellis/internal/domain"
	"github.com/mbrekalo/trellis/internal/service"
	"github.com/mbrekalo/trellis/internal/transport/http/middleware"
)

type AuditHandler struct {
	auditService *service.AuditService
}

func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// ListByResource serves GET /audit/{type}/{id}?limit=n.
func (h *AuditHandler) ListByResource(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	resourceType := r.PathValue("type")
	resourceID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid resource ID")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := h.auditService.ListByResource(r.Context(), userID, resourceType, resourceID, limit)
	if err != nil {
		writeDomainError(w, "list audit events", err)
		return
	}

	if events == nil {
		events = []domain.AuditEvent{}
	}

	writeJSON(w, http.StatusOK, events)
}
