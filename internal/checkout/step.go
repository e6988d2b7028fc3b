package checkout

// Step is a stage of the checkout pipeline. Forward movement is strictly
// sequential; the only backward moves are payment->shipping and
// review->payment.
type Step string

const (
	StepShipping     Step = "shipping"
	StepPayment      Step = "payment"
	StepReview       Step = "review"
	StepConfirmation Step = "confirmation"
)

var transitions = map[Step][]Step{
	StepShipping: {StepPayment},
	StepPayment:  {StepReview, StepShipping},
	StepReview:   {StepConfirmation, StepPayment},
	// confirmation is terminal for the session
	StepConfirmation: {},
}

func canTransition(from, to Step) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the session can make no further transitions.
func (s Step) IsTerminal() bool {
	return s == StepConfirmation
}

func (s Step) String() string {
	return string(s)
}
