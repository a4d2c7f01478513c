package domain

// Reason explains why a delivery request was denied. Denials are ordinary
// result values, not errors; callers must not retry a denied request.
type Reason string

const (
	ReasonIneligible      Reason = "ineligible"
	ReasonFrequencyCapped Reason = "frequency_capped"
	ReasonBudgetExhausted Reason = "budget_exhausted"
)

// Decision is the outcome of one delivery-engine invocation. It is
// ephemeral and never persisted.
type Decision struct {
	Admitted bool
	Reason   Reason
}

// Admit returns an admitting decision.
func Admit() Decision {
	return Decision{Admitted: true}
}

// Deny returns a denying decision carrying the given reason.
func Deny(reason Reason) Decision {
	return Decision{Reason: reason}
}
