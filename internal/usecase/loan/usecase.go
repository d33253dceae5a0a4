package loan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"loan-engine/internal/domain/custody"
	"loan-engine/internal/domain/loan"
	"loan-engine/internal/domain/uow"
	"loan-engine/internal/logging"
	"loan-engine/pkg/clock"
	"loan-engine/pkg/id"

	"github.com/shopspring/decimal"
)

// noLoanID marks rejections that happen before an id is allocated.
const noLoanID = ^uint64(0)

const (
	opRequest = "request"
	opFund    = "fund"
	opRepay   = "repay"
	opClaim   = "claim"
)

// Recorder receives transition and rejection counts.
type Recorder interface {
	Transition(event string)
	Rejection(op, kind string)
}

type nopRecorder struct{}

func (nopRecorder) Transition(string)         {}
func (nopRecorder) Rejection(string, string) {}

// Usecase is the loan engine. All mutation goes through its four
// transitions, each applied inside one unit-of-work transaction.
type Usecase struct {
	uow       uow.UnitOfWork
	clock     clock.Clock
	publisher loan.Publisher
	metrics   Recorder
	log       *slog.Logger
}

type Option func(*Usecase)

func WithPublisher(p loan.Publisher) Option { return func(u *Usecase) { u.publisher = p } }
func WithMetrics(m Recorder) Option         { return func(u *Usecase) { u.metrics = m } }
func WithLogger(l *slog.Logger) Option      { return func(u *Usecase) { u.log = l } }

func NewUsecase(tx uow.UnitOfWork, clk clock.Clock, opts ...Option) *Usecase {
	u := &Usecase{uow: tx, clock: clk, metrics: nopRecorder{}, log: logging.NewNop()}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// RequestLoan locks the attached collateral and records a new loan under
// the next sequence id.
func (u *Usecase) RequestLoan(ctx context.Context, caller string, in RequestLoanInput) (*Result, error) {
	if caller == "" || caller == custody.EscrowParty {
		return nil, u.reject(opRequest, noLoanID, loan.ErrUnauthorized)
	}
	if err := validateRequest(in); err != nil {
		return nil, u.reject(opRequest, noLoanID, err)
	}

	var res *Result
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		loanID, err := r.Loans.NextLoanID(ctx)
		if err != nil {
			return err
		}
		l := &loan.Loan{
			LoanID:          loanID,
			Borrower:        caller,
			Collateral:      in.Collateral,
			Principal:       in.Principal,
			InterestRateBps: in.InterestRateBps,
			DurationSeconds: in.DurationSeconds,
			Status:          loan.StatusRequested,
			CreatedAt:       u.clock.Now(),
		}
		if err := r.Custody.Lock(ctx, caller, custody.EscrowParty); err != nil {
			return err
		}
		if err := r.Custody.Hold(ctx, loanID, caller, in.Collateral); err != nil {
			return err
		}
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		ev := loan.LoanRequested{
			ID:              loanID,
			Borrower:        caller,
			PrincipalAmount: in.Principal,
			InterestRateBps: in.InterestRateBps,
			DurationSeconds: in.DurationSeconds,
		}
		res, err = u.record(ctx, r, l, ev)
		return err
	})
	if err != nil {
		return nil, u.reject(opRequest, noLoanID, err)
	}
	u.emit(ctx, res)
	return res, nil
}

// FundLoan requires exactly the principal, disburses it to the borrower and
// starts the repayment window.
func (u *Usecase) FundLoan(ctx context.Context, caller string, loanID uint64, attached decimal.Decimal) (*Result, error) {
	if caller == "" || caller == custody.EscrowParty {
		return nil, u.reject(opFund, loanID, loan.ErrUnauthorized)
	}
	var res *Result
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if l.Status != loan.StatusRequested {
			return loan.ErrInvalidState
		}
		if !attached.Equal(l.Principal) {
			return fmt.Errorf("%w: want %s, got %s", loan.ErrInvalidAmount, l.Principal, attached)
		}
		if err := l.Fund(caller, u.clock.Now()); err != nil {
			return err
		}
		if err := r.Custody.Lock(ctx, caller, l.Borrower, custody.EscrowParty); err != nil {
			return err
		}
		if err := r.Custody.Hold(ctx, loanID, caller, attached); err != nil {
			return err
		}
		if err := r.Custody.Transfer(ctx, loanID, l.Borrower, attached); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		var err error
		res, err = u.record(ctx, r, l, loan.LoanFunded{ID: loanID, Lender: caller})
		return err
	})
	if err != nil {
		return nil, u.reject(opFund, loanID, err)
	}
	u.emit(ctx, res)
	return res, nil
}

// CalculateRepaymentAmount is read-only and valid in any status.
func (u *Usecase) CalculateRepaymentAmount(ctx context.Context, loanID uint64) (decimal.Decimal, error) {
	var amount decimal.Decimal
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		amount = l.RepaymentAmount()
		return nil
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("repayment amount for loan %d: %w", loanID, err)
	}
	return amount, nil
}

// RepayLoan settles a funded loan. There is no deadline: repayment succeeds
// until the lender has claimed the collateral.
func (u *Usecase) RepayLoan(ctx context.Context, caller string, loanID uint64, attached decimal.Decimal) (*Result, error) {
	var res *Result
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if l.Status != loan.StatusFunded {
			return loan.ErrInvalidState
		}
		if caller != l.Borrower {
			return loan.ErrUnauthorized
		}
		due := l.RepaymentAmount()
		if !attached.Equal(due) {
			return fmt.Errorf("%w: want %s, got %s", loan.ErrInvalidAmount, due, attached)
		}
		if err := l.MarkRepaid(); err != nil {
			return err
		}
		if err := r.Custody.Lock(ctx, caller, l.LenderID(), custody.EscrowParty); err != nil {
			return err
		}
		if err := r.Custody.Hold(ctx, loanID, caller, attached); err != nil {
			return err
		}
		if err := r.Custody.Transfer(ctx, loanID, l.LenderID(), attached); err != nil {
			return err
		}
		if err := r.Custody.Transfer(ctx, loanID, l.Borrower, l.Collateral); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		var err error
		res, err = u.record(ctx, r, l, loan.LoanRepaid{ID: loanID})
		return err
	})
	if err != nil {
		return nil, u.reject(opRepay, loanID, err)
	}
	u.emit(ctx, res)
	return res, nil
}

// ClaimCollateral hands the collateral to the lender once the loan is due.
// The due check runs before the caller check, so any early claim is NotYetDue.
func (u *Usecase) ClaimCollateral(ctx context.Context, caller string, loanID uint64) (*Result, error) {
	var res *Result
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if l.Status != loan.StatusFunded {
			return loan.ErrInvalidState
		}
		now := u.clock.Now()
		if !l.Defaulted(now) {
			return fmt.Errorf("%w: due at %s", loan.ErrNotYetDue, l.DueAt.Format(time.RFC3339))
		}
		if caller != l.LenderID() {
			return loan.ErrUnauthorized
		}
		if err := l.MarkCollateralClaimed(now); err != nil {
			return err
		}
		if err := r.Custody.Lock(ctx, caller, custody.EscrowParty); err != nil {
			return err
		}
		if err := r.Custody.Transfer(ctx, loanID, caller, l.Collateral); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		var err error
		res, err = u.record(ctx, r, l, loan.CollateralClaimed{ID: loanID})
		return err
	})
	if err != nil {
		return nil, u.reject(opClaim, loanID, err)
	}
	u.emit(ctx, res)
	return res, nil
}

func (u *Usecase) Get(ctx context.Context, loanID uint64) (*LoanDTO, error) {
	var dto *LoanDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		dto = toDTO(l, u.clock.Now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Events returns the loan's audit trail, oldest first.
func (u *Usecase) Events(ctx context.Context, loanID uint64) ([]EventDTO, error) {
	var out []EventDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if _, err := r.Loans.GetByLoanID(ctx, loanID); err != nil {
			return err
		}
		recs, err := r.Events.ListByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		out = make([]EventDTO, 0, len(recs))
		for _, rec := range recs {
			out = append(out, EventDTO{EventID: rec.EventID, Name: rec.Name, Payload: rec.Payload, CreatedAt: rec.CreatedAt})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func validateRequest(in RequestLoanInput) error {
	switch {
	case !custody.ValidAmount(in.Principal):
		return fmt.Errorf("%w: principal must be a positive integer", loan.ErrInvalidParameters)
	case !custody.ValidAmount(in.Collateral):
		return fmt.Errorf("%w: collateral must be a positive integer", loan.ErrInvalidParameters)
	case !custody.ValidAmount(loan.RepaymentAmount(in.Principal, in.InterestRateBps)):
		return fmt.Errorf("%w: repayment amount exceeds %d digits", loan.ErrInvalidParameters, custody.MaxAmountDigits)
	case in.DurationSeconds == 0:
		return fmt.Errorf("%w: duration must be positive", loan.ErrInvalidParameters)
	case in.DurationSeconds > loan.MaxDurationSeconds:
		return fmt.Errorf("%w: duration exceeds %d seconds", loan.ErrInvalidParameters, loan.MaxDurationSeconds)
	}
	return nil
}

// record appends the event to the audit trail inside the transaction.
func (u *Usecase) record(ctx context.Context, r uow.Repos, l *loan.Loan, ev loan.Event) (*Result, error) {
	now := u.clock.Now()
	rec, err := loan.NewEventRecord(id.NewID32(), ev, now)
	if err != nil {
		return nil, err
	}
	if err := r.Events.Append(ctx, rec); err != nil {
		return nil, err
	}
	return &Result{Loan: toDTO(l, now), Event: ev}, nil
}

// emit runs after commit. A publish failure is logged, never returned: the
// transition is durable and the audit trail holds the event.
func (u *Usecase) emit(ctx context.Context, res *Result) {
	ev := res.Event
	u.metrics.Transition(ev.Name())
	u.log.Info("loan transition", "event", ev.Name(), "loan_id", ev.LoanID(), "status", res.Loan.Status)
	if u.publisher == nil {
		return
	}
	if err := u.publisher.Publish(ctx, ev); err != nil {
		u.log.Error("publish loan event", "event", ev.Name(), "loan_id", ev.LoanID(), "error", err)
	}
}

func (u *Usecase) reject(op string, loanID uint64, err error) error {
	kind := loan.Kind(err)
	u.metrics.Rejection(op, kind)
	if loanID == noLoanID {
		u.log.Debug("loan operation rejected", "op", op, "kind", kind, "error", err)
		return fmt.Errorf("%s loan: %w", op, err)
	}
	u.log.Debug("loan operation rejected", "op", op, "loan_id", loanID, "kind", kind, "error", err)
	return fmt.Errorf("%s loan %d: %w", op, loanID, err)
}
