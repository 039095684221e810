package httpapi

import (
	"net/http"
	"strings"

	"lims-assign/internal/apperr"
	"lims-assign/internal/domain"
	"lims-assign/internal/service"

	"go.uber.org/zap"
)

const assignmentsBase = "/lims/api/v1/assignments"

// AssignmentHandler assignment operations (auto/manual assign, reassign,
// status, listing).
type AssignmentHandler struct {
	assignmentService *service.AssignmentService
	logger            *zap.Logger
}

func NewAssignmentHandler(assignmentService *service.AssignmentService, logger *zap.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
		logger:            logger,
	}
}

// ServeHTTP dispatches within the /lims/api/v1/assignments subtree.
func (h *AssignmentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	rest := strings.TrimPrefix(path, assignmentsBase)
	rest = strings.Trim(rest, "/")
	parts := []string{}
	if rest != "" {
		parts = strings.Split(rest, "/")
	}

	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		h.List(w, r)
	case len(parts) == 0 && r.Method == http.MethodPost:
		h.ManualAssign(w, r)

	// auto-assign/{patientId}/preview, auto-assign/{patientId}
	case len(parts) == 3 && parts[0] == "auto-assign" && parts[2] == "preview" &&
		(r.Method == http.MethodGet || r.Method == http.MethodPost):
		h.PreviewAutoAssign(w, r, parts[1])
	case len(parts) == 2 && parts[0] == "auto-assign" && r.Method == http.MethodPost:
		h.CommitAutoAssign(w, r, parts[1])

	// {id}, {id}/reassign, {id}/status
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.Get(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "reassign" && r.Method == http.MethodPut:
		h.Reassign(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "status" && r.Method == http.MethodPut:
		h.UpdateStatus(w, r, parts[0])

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// PreviewAutoAssign returns the proposal without committing. POST accepts
// the same overrides body as commit so a caller can preview its final pick.
func (h *AssignmentHandler) PreviewAutoAssign(w http.ResponseWriter, r *http.Request, patientID string) {
	var req commitAutoAssignRequest
	if r.Method == http.MethodPost {
		if err := readBodyJSON(r, &req); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}

	proposals, err := h.assignmentService.PreviewAutoAssign(r.Context(), patientID, req.Overrides)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, proposals)
}

type commitAutoAssignRequest struct {
	// Overrides maps testId -> technicianId, replacing the resolver's pick
	// for that single test.
	Overrides map[string]string `json:"overrides"`
}

func (h *AssignmentHandler) CommitAutoAssign(w http.ResponseWriter, r *http.Request, patientID string) {
	var req commitAutoAssignRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	created, err := h.assignmentService.CommitAutoAssign(r.Context(), patientID, req.Overrides, actorFrom(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssignmentResponses(created))
}

type manualAssignRequest struct {
	PatientID    string `json:"patientId"`
	TestID       string `json:"testId"`
	TechnicianID string `json:"technicianId,omitempty"`
}

func (h *AssignmentHandler) ManualAssign(w http.ResponseWriter, r *http.Request) {
	var req manualAssignRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.PatientID == "" || req.TestID == "" {
		writeError(w, h.logger, apperr.Validation("patientId and testId are required"))
		return
	}

	created, err := h.assignmentService.ManualAssign(r.Context(), service.ManualAssignRequest{
		PatientID:    req.PatientID,
		TestID:       req.TestID,
		TechnicianID: req.TechnicianID,
	}, actorFrom(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssignmentResponse(created))
}

type reassignRequest struct {
	TechnicianID string `json:"technicianId"`
}

func (h *AssignmentHandler) Reassign(w http.ResponseWriter, r *http.Request, assignmentID string) {
	var req reassignRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.TechnicianID == "" {
		writeError(w, h.logger, apperr.Validation("technicianId is required"))
		return
	}

	updated, err := h.assignmentService.Reassign(r.Context(), assignmentID, req.TechnicianID, actorFrom(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentResponse(updated))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *AssignmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, assignmentID string) {
	var req updateStatusRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	requested, err := domain.ParseStatus(req.Status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	updated, err := h.assignmentService.UpdateStatus(r.Context(), assignmentID, requested, actorFrom(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentResponse(updated))
}

func (h *AssignmentHandler) Get(w http.ResponseWriter, r *http.Request, assignmentID string) {
	a, err := h.assignmentService.GetAssignment(r.Context(), assignmentID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentResponse(a))
}

// List serves ?patientId= and ?technicianId=[&status=] queries.
func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	patientID := q.Get("patientId")
	technicianID := q.Get("technicianId")

	var status domain.Status
	if raw := q.Get("status"); raw != "" {
		parsed, err := domain.ParseStatus(raw)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		status = parsed
	}

	switch {
	case patientID != "":
		assignments, err := h.assignmentService.ListByPatient(r.Context(), patientID)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toAssignmentResponses(assignments))
	case technicianID != "":
		assignments, err := h.assignmentService.ListByTechnician(r.Context(), technicianID, status)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toAssignmentResponses(assignments))
	default:
		writeError(w, h.logger, apperr.Validation("patientId or technicianId query parameter is required"))
	}
}
