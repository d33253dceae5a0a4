package loan

import (
	"errors"

	"loan-engine/internal/domain/custody"
)

var (
	ErrInvalidParameters = errors.New("invalid loan parameters")
	ErrLoanNotFound      = errors.New("loan not found")
	ErrInvalidState      = errors.New("operation not valid for loan status")
	ErrUnauthorized      = errors.New("caller is not permitted")
	ErrInvalidAmount     = errors.New("attached value does not match required amount")
	ErrNotYetDue         = errors.New("loan is not yet due")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrInvalidParameters, "InvalidParameters"},
	{ErrLoanNotFound, "LoanNotFound"},
	{ErrInvalidState, "InvalidState"},
	{ErrUnauthorized, "Unauthorized"},
	{ErrInvalidAmount, "InvalidAmount"},
	{ErrNotYetDue, "NotYetDue"},
	{custody.ErrInsufficientValue, "InsufficientValue"},
	{custody.ErrTransferFailed, "TransferFailed"},
	{custody.ErrInvalidAmount, "InvalidDeposit"},
	{custody.ErrReservedParty, "ReservedParty"},
}

// Kind names the rejection kind carried by err, or "Internal" when err is
// not a loan or custody rejection.
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Internal"
}
