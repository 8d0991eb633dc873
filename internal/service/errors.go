package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Domain error taxonomy. Handlers map these onto HTTP statuses with
// errors.Is / errors.As; everything else is treated as an internal failure.
var (
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrItemNotFound    = errors.New("ticket item not found")
	ErrPaymentNotFound = errors.New("ticket payment not found")
	ErrCatalogNotFound = errors.New("catalog reference not found")
	ErrTicketTerminal  = errors.New("ticket is already paid or cancelled")
	ErrNotOwner        = errors.New("item belongs to another staff member")
	ErrInvalidStatus   = errors.New("invalid ticket status")
	ErrValidation      = errors.New("validation failed")
)

// IncompleteBalanceError is returned when mark-paid is attempted while the
// ticket still owes money. Remaining lets the caller pre-fill the missing
// payment.
type IncompleteBalanceError struct {
	Remaining decimal.Decimal
}

func (e *IncompleteBalanceError) Error() string {
	return fmt.Sprintf("ticket balance incomplete: %s remaining", e.Remaining.StringFixed(2))
}

// validationErr wraps a field-level message under ErrValidation.
func validationErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
