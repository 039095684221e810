package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"lims-assign/internal/apperr"
	"lims-assign/internal/domain"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20 // 1 MiB

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError maps apperr kinds onto status codes. Untyped errors become 500
// and are logged; typed ones are the caller's fault and are returned as-is.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		writeJSON(w, status, errorBody{Error: string(apperr.KindInternal), Message: "internal error"})
		return
	}
	writeJSON(w, status, errorBody{Error: string(apperr.KindOf(err)), Message: err.Error()})
}

func readBodyJSON(r *http.Request, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperr.Validation("failed to read request body")
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperr.Validation("malformed JSON body")
	}
	return nil
}

// actorFrom extracts the caller identity the gateway injected. Authentication
// happened upstream; the services enforce their own ownership and decision
// checks on top of this identity.
func actorFrom(r *http.Request) domain.Actor {
	return domain.Actor{
		ID:   r.Header.Get("X-Actor-Id"),
		Role: r.Header.Get("X-Actor-Role"),
	}
}

// privilegedDecision translates the gateway-supplied role into the
// authorization decision consumed by amend/verify operations.
func privilegedDecision(actor domain.Actor, operation string) domain.AuthorizationDecision {
	if actor.Role == domain.RoleSuperAdmin {
		return domain.Allow()
	}
	return domain.Deny("only SUPER_ADMIN can " + operation)
}
