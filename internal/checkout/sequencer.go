// Package checkout models the linear checkout flow as an explicit state
// machine value. Transitions return a new value; consumers render from the
// Step field alone.
package checkout

import (
	"errors"
	"fmt"
)

type Step int

const (
	StepDeliveryInfo Step = iota
	StepReview
	StepPayment // terminal step; its submit action triggers order submission
)

func (s Step) String() string {
	switch s {
	case StepDeliveryInfo:
		return "delivery_info"
	case StepReview:
		return "review"
	case StepPayment:
		return "payment"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// DeliveryInfo is the shared checkout state all steps view. No step owns a
// copy that could desynchronize.
type DeliveryInfo struct {
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Notes   string `json:"notes,omitempty"`
}

var (
	ErrEmptyCart        = errors.New("checkout: cart is empty")
	ErrNotAuthenticated = errors.New("checkout: not authenticated")
)

// ValidationError reports a missing required checkout field. It blocks
// submission and is recovered by user correction, never surfaced as a crash.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("checkout: %s is required", e.Field)
}

// Sequencer is the machine value. The zero value is the first step with
// empty fields.
type Sequencer struct {
	Step      Step
	Info      DeliveryInfo
	Cancelled bool
	Completed bool
}

// Begin gates entry into checkout: the cart must be non-empty and the
// session authenticated.
func Begin(cartEmpty, authenticated bool) (Sequencer, error) {
	if !authenticated {
		return Sequencer{}, ErrNotAuthenticated
	}
	if cartEmpty {
		return Sequencer{}, ErrEmptyCart
	}
	return Sequencer{Step: StepDeliveryInfo}, nil
}

// WithInfo returns the machine with the shared delivery fields replaced.
func (s Sequencer) WithInfo(info DeliveryInfo) Sequencer {
	s.Info = info
	return s
}

// Next advances one step. At the terminal step it is a no-op; forward
// navigation is never blocked by field validation, only submission is.
func (s Sequencer) Next() Sequencer {
	if s.Step < StepPayment {
		s.Step++
	}
	return s
}

// Back returns one step. At the first step it cancels checkout entirely,
// discarding the checkout-local state.
func (s Sequencer) Back() Sequencer {
	if s.Step == StepDeliveryInfo {
		return Sequencer{Step: StepDeliveryInfo, Cancelled: true}
	}
	s.Step--
	return s
}

// Validate is the payment-step submit gate: address and phone must both be
// non-empty.
func (s Sequencer) Validate() error {
	if s.Info.Address == "" {
		return &ValidationError{Field: "address"}
	}
	if s.Info.Phone == "" {
		return &ValidationError{Field: "phone"}
	}
	return nil
}

// Complete marks the machine as the post-submission terminal display.
func (s Sequencer) Complete() Sequencer {
	s.Completed = true
	return s
}
