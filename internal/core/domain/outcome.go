package domain

// Outcome is the terminal result of one dispatch attempt. Outcomes are
// reported to the caller and never persisted.
type Outcome string

const (
	OutcomeCompleted         Outcome = "COMPLETED"
	OutcomeCompletedWithFee  Outcome = "COMPLETED_WITH_FEE"
	OutcomeInsufficientFunds Outcome = "INSUFFICIENT_FUNDS"
	OutcomeError             Outcome = "ERROR"
)

// Success reports whether the settlement transfer went through.
func (o Outcome) Success() bool {
	return o == OutcomeCompleted || o == OutcomeCompletedWithFee
}
