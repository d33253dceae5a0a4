package uowmock

import (
	"context"
	"errors"
	"testing"

	"loan-engine/internal/domain/loan"
	"loan-engine/internal/domain/uow"
	"loan-engine/internal/testutil/loanmock"
)

func TestUoW_Unimplemented(t *testing.T) {
	m := &UoW{}
	if err := m.WithinTx(context.Background(), func(uow.Repos) error { return nil }); !errors.Is(err, errUnimplemented) {
		t.Fatalf("WithinTx: want errUnimplemented, got %v", err)
	}
	if err := m.WithinLoanTx(context.Background(), 1, func(uow.Repos, *loan.Loan) error { return nil }); !errors.Is(err, errUnimplemented) {
		t.Fatalf("WithinLoanTx: want errUnimplemented, got %v", err)
	}
}

func TestPassthrough_LoadsLoan(t *testing.T) {
	loans := &loanmock.Repo{
		GetByLoanIDForUpdateFn: func(ctx context.Context, loanID uint64) (*loan.Loan, error) {
			if loanID != 7 {
				return nil, loan.ErrLoanNotFound
			}
			return &loan.Loan{LoanID: 7}, nil
		},
	}
	m := Passthrough(uow.Repos{Loans: loans})

	called := false
	err := m.WithinLoanTx(context.Background(), 7, func(r uow.Repos, l *loan.Loan) error {
		called = true
		if r.Loans != loans || l.LoanID != 7 {
			t.Fatalf("repos or loan not forwarded: %+v", l)
		}
		return nil
	})
	if err != nil || !called {
		t.Fatalf("WithinLoanTx: err=%v called=%v", err, called)
	}

	err = m.WithinLoanTx(context.Background(), 8, func(uow.Repos, *loan.Loan) error {
		t.Fatal("callback must not run for a missing loan")
		return nil
	})
	if !errors.Is(err, loan.ErrLoanNotFound) {
		t.Fatalf("want ErrLoanNotFound, got %v", err)
	}
}
