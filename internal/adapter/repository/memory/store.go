// Package memory is a process-local implementation of the unit of work.
// Transactions are serialized by one mutex and rolled back by restoring a
// snapshot taken when the transaction began.
package memory

import (
	"context"
	"sort"
	"sync"

	"loan-engine/internal/domain/custody"
	"loan-engine/internal/domain/loan"
	"loan-engine/internal/domain/uow"

	"github.com/shopspring/decimal"
)

type Store struct {
	mu sync.Mutex
	st *state
}

type state struct {
	nextLoanID uint64
	nextPK     uint64
	loans      map[uint64]loan.Loan
	events     []loan.EventRecord
	accounts   map[string]custody.Account
	entries    []custody.Entry
}

func NewStore() *Store {
	return &Store{st: &state{
		loans:    map[uint64]loan.Loan{},
		accounts: map[string]custody.Account{},
	}}
}

var _ uow.UnitOfWork = (*Store)(nil)

func (s *state) clone() *state {
	c := *s
	c.loans = make(map[uint64]loan.Loan, len(s.loans))
	for k, v := range s.loans {
		c.loans[k] = v
	}
	c.accounts = make(map[string]custody.Account, len(s.accounts))
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	c.events = append([]loan.EventRecord(nil), s.events...)
	c.entries = append([]custody.Entry(nil), s.entries...)
	return &c
}

func (s *state) pk() uint64 {
	s.nextPK++
	return s.nextPK
}

func (s *Store) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.st.clone()
	if err := fn(s.repos()); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) WithinLoanTx(ctx context.Context, loanID uint64, fn func(r uow.Repos, l *loan.Loan) error) error {
	return s.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
}

func (s *Store) repos() uow.Repos {
	accounts := &accountRepo{s: s}
	return uow.Repos{
		Loans:    &loanRepo{s: s},
		Events:   &eventRepo{s: s},
		Accounts: accounts,
		Custody:  custody.NewLedger(accounts),
	}
}

// Balances returns a copy of every account balance, escrow included.
func (s *Store) Balances() map[string]decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]decimal.Decimal, len(s.st.accounts))
	for k, v := range s.st.accounts {
		out[k] = v.Balance
	}
	return out
}

// Entries returns the custody journal in append order.
func (s *Store) Entries() []custody.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]custody.Entry(nil), s.st.entries...)
}

// Repositories below are only handed out inside WithinTx, so s.mu is held.

type loanRepo struct{ s *Store }

func (r *loanRepo) NextLoanID(ctx context.Context) (uint64, error) {
	id := r.s.st.nextLoanID
	r.s.st.nextLoanID++
	return id, nil
}

func (r *loanRepo) Create(ctx context.Context, l *loan.Loan) error {
	if _, ok := r.s.st.loans[l.LoanID]; ok {
		return loan.ErrInvalidState
	}
	l.ID = r.s.st.pk()
	r.s.st.loans[l.LoanID] = *l
	return nil
}

func (r *loanRepo) Save(ctx context.Context, l *loan.Loan) error {
	if _, ok := r.s.st.loans[l.LoanID]; !ok {
		return loan.ErrLoanNotFound
	}
	r.s.st.loans[l.LoanID] = *l
	return nil
}

func (r *loanRepo) GetByLoanID(ctx context.Context, loanID uint64) (*loan.Loan, error) {
	l, ok := r.s.st.loans[loanID]
	if !ok {
		return nil, loan.ErrLoanNotFound
	}
	return &l, nil
}

func (r *loanRepo) GetByLoanIDForUpdate(ctx context.Context, loanID uint64) (*loan.Loan, error) {
	return r.GetByLoanID(ctx, loanID)
}

type eventRepo struct{ s *Store }

func (r *eventRepo) Append(ctx context.Context, e *loan.EventRecord) error {
	e.ID = r.s.st.pk()
	r.s.st.events = append(r.s.st.events, *e)
	return nil
}

func (r *eventRepo) ListByLoanID(ctx context.Context, loanID uint64) ([]loan.EventRecord, error) {
	var out []loan.EventRecord
	for _, e := range r.s.st.events {
		if e.LoanID == loanID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type accountRepo struct{ s *Store }

func (r *accountRepo) GetForUpdate(ctx context.Context, partyID string) (*custody.Account, error) {
	a, ok := r.s.st.accounts[partyID]
	if !ok {
		a = custody.Account{ID: r.s.st.pk(), PartyID: partyID, Balance: decimal.Zero}
		r.s.st.accounts[partyID] = a
	}
	return &a, nil
}

func (r *accountRepo) Get(ctx context.Context, partyID string) (*custody.Account, error) {
	a, ok := r.s.st.accounts[partyID]
	if !ok {
		return &custody.Account{PartyID: partyID, Balance: decimal.Zero}, nil
	}
	return &a, nil
}

func (r *accountRepo) Save(ctx context.Context, a *custody.Account) error {
	r.s.st.accounts[a.PartyID] = *a
	return nil
}

func (r *accountRepo) AppendEntry(ctx context.Context, e *custody.Entry) error {
	e.ID = r.s.st.pk()
	r.s.st.entries = append(r.s.st.entries, *e)
	return nil
}

func (r *accountRepo) ListEntries(ctx context.Context, partyID string, limit int) ([]custody.Entry, error) {
	var out []custody.Entry
	for i := len(r.s.st.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if e := r.s.st.entries[i]; e.FromParty == partyID || e.ToParty == partyID {
			out = append(out, e)
		}
	}
	return out, nil
}
