package workflow

// State is a step of one booking attempt.
type State string

const (
	StateIdle              State = "Idle"
	StateEnteringDates     State = "EnteringDates"
	StatePricingComputed   State = "PricingComputed"
	StateSubmittingBooking State = "SubmittingBooking"
	StateBookingSucceeded  State = "BookingSucceeded"
	StateBookingFailed     State = "BookingFailed"
	StateSubmittingPayment State = "SubmittingPayment"
	StatePaymentSucceeded  State = "PaymentSucceeded"
	StatePaymentFailed     State = "PaymentFailed"
	StateCompensated       State = "Compensated"
	StateCancelled         State = "Cancelled"
)

var transitions = map[State][]State{
	StateIdle:              {StateEnteringDates, StateCancelled},
	StateEnteringDates:     {StateEnteringDates, StatePricingComputed, StateCancelled},
	StatePricingComputed:   {StateEnteringDates, StateSubmittingBooking, StateCancelled},
	StateSubmittingBooking: {StateBookingSucceeded, StateBookingFailed},
	StateBookingSucceeded:  {StateSubmittingPayment, StateCancelled},
	StateSubmittingPayment: {StatePaymentSucceeded, StatePaymentFailed},
	StatePaymentFailed:     {StateCompensated},
}

// CanTransition reports whether the attempt may move from s to next.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no user action can move the attempt further.
// PaymentFailed is terminal for the user even though compensation may follow.
func (s State) Terminal() bool {
	switch s {
	case StateBookingFailed, StatePaymentSucceeded, StatePaymentFailed, StateCompensated, StateCancelled:
		return true
	}
	return false
}

func (s State) submitting() bool {
	return s == StateSubmittingBooking || s == StateSubmittingPayment
}
