package domain

// Actor roles as the gateway reports them. Authentication and role lookup are
// the gateway's job; this service only consumes the identity it is handed.
const (
	RoleSuperAdmin    = "SUPER_ADMIN"
	RoleCoordinator   = "COORDINATOR"
	RoleTechnician    = "TECHNICIAN"
	RoleLabTechnician = "LAB_TECHNICIAN"
)

// Actor identifies the caller of an operation.
type Actor struct {
	ID   string
	Role string
}

// IsTechnician reports whether the actor is bound by assignment ownership
// checks (technicians may only touch their own assignments).
func (a Actor) IsTechnician() bool {
	return a.Role == RoleTechnician || a.Role == RoleLabTechnician
}

// AuthorizationDecision is an upstream authorization verdict passed into
// privileged operations. The service checks the decision; it never performs
// role lookups of its own.
type AuthorizationDecision struct {
	Allowed bool
	Reason  string // populated when denied
}

// Allow grants a decision.
func Allow() AuthorizationDecision { return AuthorizationDecision{Allowed: true} }

// Deny refuses a decision with a caller-facing reason.
func Deny(reason string) AuthorizationDecision {
	return AuthorizationDecision{Allowed: false, Reason: reason}
}
