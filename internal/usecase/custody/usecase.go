package custody

import (
	"context"
	"fmt"
	"time"

	"loan-engine/internal/domain/custody"
	"loan-engine/internal/domain/loan"
	"loan-engine/internal/domain/uow"

	"github.com/shopspring/decimal"
)

type AccountDTO struct {
	PartyID string          `json:"party_id"`
	Balance decimal.Decimal `json:"balance"`
}

// Usecase exposes the deposit side of the value custodian.
type Usecase struct{ uow uow.UnitOfWork }

func NewUsecase(tx uow.UnitOfWork) *Usecase { return &Usecase{uow: tx} }

func (u *Usecase) Deposit(ctx context.Context, party string, amount decimal.Decimal) (*AccountDTO, error) {
	if party == "" {
		return nil, fmt.Errorf("%w: deposit needs a party", loan.ErrUnauthorized)
	}
	var dto *AccountDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		ledger := custody.NewLedger(r.Accounts)
		if err := ledger.Deposit(ctx, party, amount); err != nil {
			return err
		}
		bal, err := ledger.Balance(ctx, party)
		if err != nil {
			return err
		}
		dto = &AccountDTO{PartyID: party, Balance: bal}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("deposit for %s: %w", party, err)
	}
	return dto, nil
}

// MaxEntries caps one journal page.
const MaxEntries = 100

type EntryDTO struct {
	EntryID   string          `json:"entry_id"`
	LoanID    *uint64         `json:"loan_id,omitempty"`
	Kind      string          `json:"kind"`
	FromParty string          `json:"from,omitempty"`
	ToParty   string          `json:"to"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// Entries lists the custody movements touching party, newest first.
func (u *Usecase) Entries(ctx context.Context, party string, limit int) ([]EntryDTO, error) {
	if limit <= 0 || limit > MaxEntries {
		limit = MaxEntries
	}
	var out []EntryDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		entries, err := r.Accounts.ListEntries(ctx, party, limit)
		if err != nil {
			return err
		}
		out = make([]EntryDTO, 0, len(entries))
		for _, e := range entries {
			out = append(out, EntryDTO{
				EntryID: e.EntryID, LoanID: e.LoanID, Kind: string(e.Kind),
				FromParty: e.FromParty, ToParty: e.ToParty, Amount: e.Amount, CreatedAt: e.CreatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("entries for %s: %w", party, err)
	}
	return out, nil
}

func (u *Usecase) Balance(ctx context.Context, party string) (*AccountDTO, error) {
	var dto *AccountDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		bal, err := custody.NewLedger(r.Accounts).Balance(ctx, party)
		if err != nil {
			return err
		}
		dto = &AccountDTO{PartyID: party, Balance: bal}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}
