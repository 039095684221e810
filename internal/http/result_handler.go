package httpapi

import (
	"net/http"
	"strings"

	"lims-assign/internal/apperr"
	"lims-assign/internal/service"

	"go.uber.org/zap"
)

const resultsBase = "/lims/api/v1/results"

// ResultHandler result submission, amendment and verification.
type ResultHandler struct {
	resultService *service.ResultService
	logger        *zap.Logger
}

func NewResultHandler(resultService *service.ResultService, logger *zap.Logger) *ResultHandler {
	return &ResultHandler{
		resultService: resultService,
		logger:        logger,
	}
}

// ServeHTTP dispatches within the /lims/api/v1/results subtree.
func (h *ResultHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, resultsBase), "/")
	parts := []string{}
	if rest != "" {
		parts = strings.Split(rest, "/")
	}

	switch {
	case len(parts) == 0 && r.Method == http.MethodPost:
		h.Submit(w, r)
	case len(parts) == 0 && r.Method == http.MethodGet:
		h.List(w, r)
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.Get(w, r, parts[0])
	case len(parts) == 1 && r.Method == http.MethodPut:
		h.Amend(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "verify" && r.Method == http.MethodPut:
		h.Verify(w, r, parts[0])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type submitResultRequest struct {
	AssignmentID string         `json:"assignmentId"`
	Values       map[string]any `json:"values"`
	Notes        string         `json:"notes,omitempty"`
}

func (h *ResultHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitResultRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.AssignmentID == "" {
		writeError(w, h.logger, apperr.Validation("assignmentId is required"))
		return
	}

	resp, err := h.resultService.SubmitResult(r.Context(), service.SubmitResultRequest{
		AssignmentID: req.AssignmentID,
		Values:       req.Values,
		Notes:        req.Notes,
	}, actorFrom(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResultResponse(resp.Result, resp.Warnings))
}

type amendResultRequest struct {
	Values map[string]any `json:"values"`
	Notes  *string        `json:"notes,omitempty"`
}

func (h *ResultHandler) Amend(w http.ResponseWriter, r *http.Request, resultID string) {
	var req amendResultRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	actor := actorFrom(r)
	resp, err := h.resultService.AmendResult(r.Context(), resultID, req.Values, req.Notes,
		privilegedDecision(actor, "update results"), actor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toResultResponse(resp.Result, resp.Warnings))
}

func (h *ResultHandler) Verify(w http.ResponseWriter, r *http.Request, resultID string) {
	actor := actorFrom(r)
	verified, err := h.resultService.VerifyResult(r.Context(), resultID,
		privilegedDecision(actor, "verify results"), actor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toResultResponse(verified, nil))
}

func (h *ResultHandler) Get(w http.ResponseWriter, r *http.Request, resultID string) {
	result, err := h.resultService.GetResult(r.Context(), resultID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toResultResponse(result, nil))
}

// List serves ?assignmentId= and ?patientId= queries.
func (h *ResultHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	switch {
	case q.Get("assignmentId") != "":
		result, err := h.resultService.GetResultByAssignment(r.Context(), q.Get("assignmentId"))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toResultResponse(result, nil))
	case q.Get("patientId") != "":
		results, err := h.resultService.ListResultsByPatient(r.Context(), q.Get("patientId"))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toResultResponses(results))
	default:
		writeError(w, h.logger, apperr.Validation("assignmentId or patientId query parameter is required"))
	}
}
