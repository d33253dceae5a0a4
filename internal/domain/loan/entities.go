package loan

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusRequested         Status = "requested"
	StatusFunded            Status = "funded"
	StatusRepaid            Status = "repaid"
	StatusCollateralClaimed Status = "collateral_claimed"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool { return s == StatusRepaid || s == StatusCollateralClaimed }

// BpsDenominator is the basis-point scale of InterestRateBps (500 = 5%).
const BpsDenominator = 10_000

// MaxDurationSeconds keeps FundedAt + duration representable as a time.Duration.
const MaxDurationSeconds = uint64(math.MaxInt64 / int64(time.Second))

// Table: loans
type Loan struct {
	// Internal numeric PK
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	// Public sequence number, starting at 0
	LoanID          uint64          `gorm:"column:loan_id;not null;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	Borrower        string          `gorm:"column:borrower;type:char(32);not null;index:idx_loans_borrower" json:"borrower"`
	Lender          *string         `gorm:"column:lender;type:char(32);index:idx_loans_lender" json:"lender,omitempty"`
	Collateral      decimal.Decimal `gorm:"column:collateral;type:decimal(65,0);not null" json:"collateral"`
	Principal       decimal.Decimal `gorm:"column:principal;type:decimal(65,0);not null" json:"principal"`
	InterestRateBps uint32          `gorm:"column:interest_rate_bps;not null" json:"interest_rate_bps"`
	DurationSeconds uint64          `gorm:"column:duration_seconds;not null" json:"duration_seconds"`
	FundedAt        *time.Time      `gorm:"column:funded_at" json:"funded_at,omitempty"`
	DueAt           *time.Time      `gorm:"column:due_at" json:"due_at,omitempty"`
	Status          Status          `gorm:"column:status;type:varchar(24);not null;index:idx_loans_status" json:"status"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// Table: sequences (per-engine monotonic counters)
type Sequence struct {
	Name      string `gorm:"column:name;type:varchar(32);primaryKey"`
	NextValue uint64 `gorm:"column:next_value;not null"`
}

func (Sequence) TableName() string { return "sequences" }

const LoanSequence = "loan"

// RepaymentAmount is principal plus interest rounded down to the minor unit:
// principal + floor(principal * bps / 10000).
func (l *Loan) RepaymentAmount() decimal.Decimal {
	return RepaymentAmount(l.Principal, l.InterestRateBps)
}

func RepaymentAmount(principal decimal.Decimal, bps uint32) decimal.Decimal {
	scaled := principal.Mul(decimal.NewFromInt(int64(bps)))
	// both operands are non-negative integers, so truncation is floor
	interest, _ := scaled.QuoRem(decimal.NewFromInt(BpsDenominator), 0)
	return principal.Add(interest)
}

// Defaulted is derived, never stored: funded and the due time has arrived.
func (l *Loan) Defaulted(now time.Time) bool {
	return l.Status == StatusFunded && l.DueAt != nil && !now.Before(*l.DueAt)
}

// Fund moves a requested loan to funded, fixing lender and due time.
func (l *Loan) Fund(lender string, at time.Time) error {
	if l.Status != StatusRequested {
		return ErrInvalidState
	}
	due := at.Add(time.Duration(l.DurationSeconds) * time.Second)
	l.Lender = &lender
	l.FundedAt = &at
	l.DueAt = &due
	l.Status = StatusFunded
	return nil
}

func (l *Loan) MarkRepaid() error {
	if l.Status != StatusFunded {
		return ErrInvalidState
	}
	l.Status = StatusRepaid
	return nil
}

func (l *Loan) MarkCollateralClaimed(now time.Time) error {
	if l.Status != StatusFunded {
		return ErrInvalidState
	}
	if !l.Defaulted(now) {
		return ErrNotYetDue
	}
	l.Status = StatusCollateralClaimed
	return nil
}

// LenderID returns the lender or "" before funding.
func (l *Loan) LenderID() string {
	if l.Lender == nil {
		return ""
	}
	return *l.Lender
}
