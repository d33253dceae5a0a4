package custodymock

import (
	"context"

	"loan-engine/internal/domain/custody"

	"github.com/shopspring/decimal"
)

var _ custody.Custodian = (*Custodian)(nil)

// Call records one custodian instruction.
type Call struct {
	Op     string // "hold" or "transfer"
	LoanID uint64
	Party  string
	Amount decimal.Decimal
}

// Custodian records every instruction and succeeds unless LockFn, HoldFn or
// TransferFn says otherwise. Lock calls go to Locks, not Calls.
type Custodian struct {
	LockFn     func(ctx context.Context, parties ...string) error
	HoldFn     func(ctx context.Context, loanID uint64, from string, amount decimal.Decimal) error
	TransferFn func(ctx context.Context, loanID uint64, to string, amount decimal.Decimal) error
	Calls      []Call
	Locks      [][]string
}

func (m *Custodian) Lock(ctx context.Context, parties ...string) error {
	m.Locks = append(m.Locks, append([]string(nil), parties...))
	if m.LockFn != nil {
		return m.LockFn(ctx, parties...)
	}
	return nil
}

func (m *Custodian) Hold(ctx context.Context, loanID uint64, from string, amount decimal.Decimal) error {
	m.Calls = append(m.Calls, Call{Op: "hold", LoanID: loanID, Party: from, Amount: amount})
	if m.HoldFn != nil {
		return m.HoldFn(ctx, loanID, from, amount)
	}
	return nil
}

func (m *Custodian) Transfer(ctx context.Context, loanID uint64, to string, amount decimal.Decimal) error {
	m.Calls = append(m.Calls, Call{Op: "transfer", LoanID: loanID, Party: to, Amount: amount})
	if m.TransferFn != nil {
		return m.TransferFn(ctx, loanID, to, amount)
	}
	return nil
}
