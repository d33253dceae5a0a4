package uow

import (
	"context"

	"loan-engine/internal/domain/custody"
	"loan-engine/internal/domain/loan"
)

// Repos are bound to a single transaction. Custody moves value within
// that same transaction so a failed transfer rolls back the transition.
type Repos struct {
	Loans    loan.Repository
	Events   loan.EventRepository
	Accounts custody.AccountRepository
	Custody  custody.Custodian
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock loan first, then pass it in; returns loan.ErrLoanNotFound for unknown ids
	WithinLoanTx(ctx context.Context, loanID uint64, fn func(r Repos, l *loan.Loan) error) error
}
