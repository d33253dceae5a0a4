package custody

import (
	"context"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"loan-engine/pkg/id"
)

// Ledger implements Custodian on top of an AccountRepository. It must be
// bound to repositories sharing the caller's transaction so a failed step
// rolls back with the loan transition.
type Ledger struct {
	accounts AccountRepository
}

var _ Custodian = (*Ledger)(nil)

func NewLedger(accounts AccountRepository) *Ledger { return &Ledger{accounts: accounts} }

func (l *Ledger) Deposit(ctx context.Context, party string, amount decimal.Decimal) error {
	if party == EscrowParty {
		return ErrReservedParty
	}
	if !ValidAmount(amount) {
		return ErrInvalidAmount
	}
	acct, err := l.accounts.GetForUpdate(ctx, party)
	if err != nil {
		return err
	}
	acct.Balance = acct.Balance.Add(amount)
	if !ValidAmount(acct.Balance) {
		return fmt.Errorf("%w: balance of %s would exceed %d digits", ErrInvalidAmount, party, MaxAmountDigits)
	}
	if err := l.accounts.Save(ctx, acct); err != nil {
		return err
	}
	return l.journal(ctx, nil, EntryDeposit, "", party, amount)
}

func (l *Ledger) Balance(ctx context.Context, party string) (decimal.Decimal, error) {
	acct, err := l.accounts.Get(ctx, party)
	if err != nil {
		return decimal.Zero, err
	}
	return acct.Balance, nil
}

func (l *Ledger) Lock(ctx context.Context, parties ...string) error {
	sorted := slices.Clone(parties)
	slices.Sort(sorted)
	for _, p := range slices.Compact(sorted) {
		if _, err := l.accounts.GetForUpdate(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) Hold(ctx context.Context, loanID uint64, from string, amount decimal.Decimal) error {
	if !ValidAmount(amount) {
		return ErrInvalidAmount
	}
	if err := l.move(ctx, from, EscrowParty, amount, ErrInsufficientValue); err != nil {
		return err
	}
	return l.journal(ctx, &loanID, EntryHold, from, EscrowParty, amount)
}

func (l *Ledger) Transfer(ctx context.Context, loanID uint64, to string, amount decimal.Decimal) error {
	if !ValidAmount(amount) {
		return ErrInvalidAmount
	}
	if err := l.move(ctx, EscrowParty, to, amount, ErrTransferFailed); err != nil {
		return err
	}
	return l.journal(ctx, &loanID, EntryTransfer, EscrowParty, to, amount)
}

// move debits src and credits dst, failing with short when src cannot cover amount.
func (l *Ledger) move(ctx context.Context, src, dst string, amount decimal.Decimal, short error) error {
	if src == dst {
		return fmt.Errorf("%w: source and destination are both %s", ErrTransferFailed, src)
	}
	from, err := l.accounts.GetForUpdate(ctx, src)
	if err != nil {
		return err
	}
	if from.Balance.LessThan(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", short, src, from.Balance, amount)
	}
	to, err := l.accounts.GetForUpdate(ctx, dst)
	if err != nil {
		return err
	}
	from.Balance = from.Balance.Sub(amount)
	to.Balance = to.Balance.Add(amount)
	if !ValidAmount(to.Balance) {
		return fmt.Errorf("%w: balance of %s would exceed %d digits", ErrTransferFailed, dst, MaxAmountDigits)
	}
	if err := l.accounts.Save(ctx, from); err != nil {
		return err
	}
	return l.accounts.Save(ctx, to)
}

func (l *Ledger) journal(ctx context.Context, loanID *uint64, kind EntryKind, from, to string, amount decimal.Decimal) error {
	return l.accounts.AppendEntry(ctx, &Entry{
		EntryID:   id.NewID32(),
		LoanID:    loanID,
		Kind:      kind,
		FromParty: from,
		ToParty:   to,
		Amount:    amount,
	})
}
