package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrUnknownIntent    = errors.New("payment intent does not belong to this checkout")
	ErrDuplicatePayment = errors.New("payment already being processed")
	ErrAmountChanged    = errors.New("payment amount changed, create a new intent")
)

// StepError is returned for an operation that is not allowed at the current step.
type StepError struct {
	Op   string
	Step Step
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s not allowed at %s step", e.Op, e.Step)
}

// PaymentError carries the processor's decline message unchanged.
type PaymentError struct {
	Message string
}

func (e *PaymentError) Error() string { return e.Message }
