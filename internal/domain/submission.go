package domain

// SubmissionState is where a single form submission ended up. Every state
// other than Received and Admitted is terminal.
type SubmissionState string

const (
	StateReceived         SubmissionState = "received"
	StateRateLimited      SubmissionState = "rate_limited"
	StateBotRejected      SubmissionState = "bot_rejected"
	StateValidationFailed SubmissionState = "validation_failed"
	StateAdmitted         SubmissionState = "admitted"
	StateDispatched       SubmissionState = "dispatched"
	StateDispatchFailed   SubmissionState = "dispatch_failed"
)

// KeySubmissionState is the gin context key holding the state a request
// ended in, read by the request logger.
const KeySubmissionState = "SubmissionState"

// Terminal reports whether no further transition is possible
func (s SubmissionState) Terminal() bool {
	return s != StateReceived && s != StateAdmitted
}
