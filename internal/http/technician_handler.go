package httpapi

import (
	"net/http"

	"lims-assign/internal/apperr"
	"lims-assign/internal/service"

	"go.uber.org/zap"
)

// TechnicianHandler exposes the eligibility & workload ranking.
type TechnicianHandler struct {
	selection *service.SelectionService
	logger    *zap.Logger
}

func NewTechnicianHandler(selection *service.SelectionService, logger *zap.Logger) *TechnicianHandler {
	return &TechnicianHandler{
		selection: selection,
		logger:    logger,
	}
}

// ListEligible GET /lims/api/v1/technicians/eligible?testId=&projectId=
// An empty list is a normal response, not an error; the caller decides what
// unassignable means.
func (h *TechnicianHandler) ListEligible(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	testID := q.Get("testId")
	if testID == "" {
		writeError(w, h.logger, apperr.Validation("testId query parameter is required"))
		return
	}

	ranked, err := h.selection.ResolveEligible(r.Context(), testID, q.Get("projectId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTechnicianWorkloadResponses(ranked))
}
