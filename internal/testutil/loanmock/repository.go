package loanmock

import (
	"context"

	domain "loan-engine/internal/domain/loan"
)

var (
	_ domain.Repository      = (*Repo)(nil)
	_ domain.EventRepository = (*EventRepo)(nil)
)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	NextLoanIDFn           func(ctx context.Context) (uint64, error)
	CreateFn               func(ctx context.Context, l *domain.Loan) error
	SaveFn                 func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn          func(ctx context.Context, loanID uint64) (*domain.Loan, error)
	GetByLoanIDForUpdateFn func(ctx context.Context, loanID uint64) (*domain.Loan, error)
}

func (m *Repo) NextLoanID(ctx context.Context) (uint64, error) {
	if m.NextLoanIDFn != nil {
		return m.NextLoanIDFn(ctx)
	}
	return 0, nil
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID uint64) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, domain.ErrLoanNotFound
}

func (m *Repo) GetByLoanIDForUpdate(ctx context.Context, loanID uint64) (*domain.Loan, error) {
	if m.GetByLoanIDForUpdateFn != nil {
		return m.GetByLoanIDForUpdateFn(ctx, loanID)
	}
	return nil, domain.ErrLoanNotFound
}

// EventRepo is a function-backed mock that satisfies domain.EventRepository.
type EventRepo struct {
	AppendFn       func(ctx context.Context, e *domain.EventRecord) error
	ListByLoanIDFn func(ctx context.Context, loanID uint64) ([]domain.EventRecord, error)
}

func (m *EventRepo) Append(ctx context.Context, e *domain.EventRecord) error {
	if m.AppendFn != nil {
		return m.AppendFn(ctx, e)
	}
	return nil
}

func (m *EventRepo) ListByLoanID(ctx context.Context, loanID uint64) ([]domain.EventRecord, error) {
	if m.ListByLoanIDFn != nil {
		return m.ListByLoanIDFn(ctx, loanID)
	}
	return nil, nil
}
