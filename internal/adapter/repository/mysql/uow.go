package mysql

import (
	"context"
	"errors"

	"loan-engine/internal/domain/custody"
	"loan-engine/internal/domain/loan"
	"loan-engine/internal/domain/uow"

	mysqldrv "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// maxTxAttempts bounds how often a transaction InnoDB aborted is rerun.
const maxTxAttempts = 3

const (
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

var _ uow.UnitOfWork = (*GormUoW)(nil)

func reposFor(tx *gorm.DB) uow.Repos {
	accounts := &AccountRepository{db: tx}
	return uow.Repos{
		Loans:    &LoanRepository{db: tx},
		Events:   &EventRepository{db: tx},
		Accounts: accounts,
		Custody:  custody.NewLedger(accounts),
	}
}

// transaction runs fn in a transaction, rerunning it from scratch when the
// server rolled it back for a deadlock or lock wait timeout.
func (u *GormUoW) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = u.db.WithContext(ctx).Transaction(fn)
		if !retryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

func retryable(err error) bool {
	var me *mysqldrv.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == errDeadlock || me.Number == errLockWaitTimeout
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.transaction(ctx, func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

func (u *GormUoW) WithinLoanTx(ctx context.Context, loanID uint64, fn func(r uow.Repos, l *loan.Loan) error) error {
	return u.transaction(ctx, func(tx *gorm.DB) error {
		r := reposFor(tx)
		// lock the loan row up-front to prevent races
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
}
