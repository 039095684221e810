package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router uses the standard library http.ServeMux; the service surface is
// small enough that a routing framework buys nothing.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterRoutes binds the LIMS assignment API.
func (r *Router) RegisterRoutes(assignments *AssignmentHandler, results *ResultHandler, technicians *TechnicianHandler) {
	r.mux.Handle(assignmentsBase, assignments)
	r.mux.Handle(assignmentsBase+"/", assignments)

	r.mux.Handle(resultsBase, results)
	r.mux.Handle(resultsBase+"/", results)

	r.Handle("/lims/api/v1/technicians/eligible", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		technicians.ListEligible(w, req)
	})

	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
