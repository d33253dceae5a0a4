package loan

import "context"

type Repository interface {
	// NextLoanID reserves the next public id; the reservation rolls back
	// with the surrounding transaction.
	NextLoanID(ctx context.Context) (uint64, error)
	Create(ctx context.Context, l *Loan) error
	Save(ctx context.Context, l *Loan) error
	// Both getters return ErrLoanNotFound for unknown ids.
	GetByLoanID(ctx context.Context, loanID uint64) (*Loan, error)
	// Locks the row until the transaction ends.
	GetByLoanIDForUpdate(ctx context.Context, loanID uint64) (*Loan, error)
}

type EventRepository interface {
	Append(ctx context.Context, e *EventRecord) error
	// Ordered oldest first.
	ListByLoanID(ctx context.Context, loanID uint64) ([]EventRecord, error)
}
