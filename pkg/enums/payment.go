package enums

import "fmt"

// PaymentSessionState models the confirmation state machine. A session is
// valid for exactly one computed total; mutation of the cart after creation
// invalidates it, which surfaces as a conflict when confirming.
type PaymentSessionState string

const (
	PaymentSessionCreated    PaymentSessionState = "created"
	PaymentSessionConfirming PaymentSessionState = "confirming"
	PaymentSessionSucceeded  PaymentSessionState = "succeeded"
	PaymentSessionFinalizing PaymentSessionState = "finalizing"
	PaymentSessionDone       PaymentSessionState = "done"
	PaymentSessionFailed     PaymentSessionState = "failed"
)

var validSessionStates = []PaymentSessionState{
	PaymentSessionCreated,
	PaymentSessionConfirming,
	PaymentSessionSucceeded,
	PaymentSessionFinalizing,
	PaymentSessionDone,
	PaymentSessionFailed,
}

// IsValid reports whether the state is recognized.
func (s PaymentSessionState) IsValid() bool {
	for _, candidate := range validSessionStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanConfirm reports whether a confirm attempt is allowed from this state.
// failed is re-submittable; done is terminal.
func (s PaymentSessionState) CanConfirm() bool {
	switch s {
	case PaymentSessionCreated, PaymentSessionFailed:
		return true
	default:
		return false
	}
}

// ParsePaymentSessionState converts raw input into a PaymentSessionState.
func ParsePaymentSessionState(value string) (PaymentSessionState, error) {
	state := PaymentSessionState(value)
	if !state.IsValid() {
		return "", fmt.Errorf("invalid payment session state %q", value)
	}
	return state, nil
}
