package moversapi

// ConsentDecision is the tri-state tracking/analytics consent owned by the
// caller's preference store.
type ConsentDecision int

const (
	// ConsentUndecided means the end user has not answered yet.
	ConsentUndecided ConsentDecision = iota

	// ConsentGranted allows outbound calls.
	ConsentGranted

	// ConsentDenied blocks outbound calls.
	ConsentDenied
)

// String returns the string representation of the decision.
func (d ConsentDecision) String() string {
	switch d {
	case ConsentGranted:
		return "granted"
	case ConsentDenied:
		return "denied"
	default:
		return "undecided"
	}
}

// ConsentStore exposes the externally owned consent state. The client only
// reads it: every call except the health probe requires ConsentGranted, and
// anything else fails with ErrConsentRequired.
type ConsentStore interface {
	Decision() ConsentDecision
}

// StaticConsent is a fixed-decision ConsentStore, useful for server-side
// deployments without a user-facing preference UI and for tests.
type StaticConsent ConsentDecision

// Decision implements ConsentStore.
func (s StaticConsent) Decision() ConsentDecision {
	return ConsentDecision(s)
}
