package custody

import (
	"context"

	"github.com/shopspring/decimal"
)

type AccountRepository interface {
	// GetForUpdate locks the party's account row, creating a zero-balance
	// account first when none exists.
	GetForUpdate(ctx context.Context, partyID string) (*Account, error)
	// Get returns a zero-balance, unsaved account when none exists.
	Get(ctx context.Context, partyID string) (*Account, error)
	Save(ctx context.Context, a *Account) error
	AppendEntry(ctx context.Context, e *Entry) error
	// ListEntries returns the party's journal, newest first.
	ListEntries(ctx context.Context, partyID string, limit int) ([]Entry, error)
}

// Custodian is the value-transfer primitive the loan engine instructs.
// Every call either moves the full amount or fails with no effect.
type Custodian interface {
	// Lock takes the account rows of every party in sorted order. A
	// transition calls it before its first Hold or Transfer so concurrent
	// transitions on different loans acquire shared accounts in one order.
	Lock(ctx context.Context, parties ...string) error
	// Hold moves amount from the party into engine custody.
	Hold(ctx context.Context, loanID uint64, from string, amount decimal.Decimal) error
	// Transfer releases amount from engine custody to the party.
	Transfer(ctx context.Context, loanID uint64, to string, amount decimal.Decimal) error
}
