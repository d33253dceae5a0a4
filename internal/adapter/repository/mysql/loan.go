package mysql

import (
	"context"
	"errors"

	loanDomain "loan-engine/internal/domain/loan"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

var _ loanDomain.Repository = (*LoanRepository)(nil)

func (r *LoanRepository) NextLoanID(ctx context.Context) (uint64, error) {
	db := r.db.WithContext(ctx)
	seed := loanDomain.Sequence{Name: loanDomain.LoanSequence}
	if err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&seed).Error; err != nil {
		return 0, err
	}
	var seq loanDomain.Sequence
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", loanDomain.LoanSequence).
		First(&seq).Error; err != nil {
		return 0, err
	}
	next := seq.NextValue
	if err := db.Model(&loanDomain.Sequence{}).
		Where("name = ?", loanDomain.LoanSequence).
		Update("next_value", next+1).Error; err != nil {
		return 0, err
	}
	return next, nil
}

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	return notFound(&out, res.Error)
}

func (r *LoanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("loan_id = ?", loanID).
		First(&out)
	return notFound(&out, res.Error)
}

func notFound(l *loanDomain.Loan, err error) (*loanDomain.Loan, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, loanDomain.ErrLoanNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}
