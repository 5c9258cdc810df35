package pricing

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput marks a price string that does not match the decimal grammar.
	ErrMalformedInput = errors.New("malformed decimal")
	// ErrNegativeValue marks a syntactically valid number with a leading minus sign.
	ErrNegativeValue = errors.New("negative value")
	// ErrOutOfRange marks a well-formed price with more digits than a NUMERIC
	// column can store.
	ErrOutOfRange = errors.New("value out of range")
	// ErrInvalidQuantity marks a quantity outside the domain of the operation.
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// ValidationError is returned for out-of-domain input. Its message is safe to
// show to API clients; Reason carries the sentinel for errors.Is checks.
type ValidationError struct {
	Field   string
	Input   string
	Message string
	Reason  error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

func priceError(input string, reason error) *ValidationError {
	return &ValidationError{
		Field:   "price",
		Input:   input,
		Message: "price must be a valid positive number",
		Reason:  reason,
	}
}

func quantityError(q int, min int) *ValidationError {
	return &ValidationError{
		Field:   "quantity",
		Input:   fmt.Sprintf("%d", q),
		Message: fmt.Sprintf("quantity must be at least %d", min),
		Reason:  ErrInvalidQuantity,
	}
}

// IsValidation reports whether err is (or wraps) a pricing ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
