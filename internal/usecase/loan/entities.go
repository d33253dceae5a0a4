package loan

import (
	"time"

	"loan-engine/internal/domain/loan"

	"github.com/shopspring/decimal"
)

type RequestLoanInput struct {
	Principal       decimal.Decimal
	InterestRateBps uint32
	DurationSeconds uint64
	// Collateral is the value attached to the request.
	Collateral decimal.Decimal
}

type LoanDTO struct {
	LoanID          uint64          `json:"loan_id"`
	Borrower        string          `json:"borrower"`
	Lender          string          `json:"lender,omitempty"`
	Collateral      decimal.Decimal `json:"collateral"`
	Principal       decimal.Decimal `json:"principal"`
	InterestRateBps uint32          `json:"interest_rate_bps"`
	DurationSeconds uint64          `json:"duration_seconds"`
	FundedAt        *time.Time      `json:"funded_at,omitempty"`
	DueAt           *time.Time      `json:"due_at,omitempty"`
	Status          string          `json:"status"`
	Defaulted       bool            `json:"defaulted"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Result is what every successful transition returns: the new loan state
// and the lifecycle event it emitted.
type Result struct {
	Loan  *LoanDTO
	Event loan.Event
}

type EventDTO struct {
	EventID   string    `json:"event_id"`
	Name      string    `json:"name"`
	Payload   string    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

func toDTO(l *loan.Loan, now time.Time) *LoanDTO {
	return &LoanDTO{
		LoanID:          l.LoanID,
		Borrower:        l.Borrower,
		Lender:          l.LenderID(),
		Collateral:      l.Collateral,
		Principal:       l.Principal,
		InterestRateBps: l.InterestRateBps,
		DurationSeconds: l.DurationSeconds,
		FundedAt:        l.FundedAt,
		DueAt:           l.DueAt,
		Status:          string(l.Status),
		Defaulted:       l.Defaulted(now),
		CreatedAt:       l.CreatedAt,
	}
}
