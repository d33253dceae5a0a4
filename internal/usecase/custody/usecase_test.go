package custody

import (
	"context"
	"errors"
	"strings"
	"testing"

	"loan-engine/internal/adapter/repository/memory"
	"loan-engine/internal/domain/custody"
	"loan-engine/internal/domain/loan"

	"github.com/shopspring/decimal"
)

func TestUsecase_DepositAndBalance(t *testing.T) {
	uc := NewUsecase(memory.NewStore())
	ctx := context.Background()
	party := strings.Repeat("a", 32)

	if _, err := uc.Deposit(ctx, party, decimal.NewFromInt(70)); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	dto, err := uc.Deposit(ctx, party, decimal.NewFromInt(30))
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if !dto.Balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("balance after deposits = %s", dto.Balance)
	}

	got, err := uc.Balance(ctx, party)
	if err != nil || !got.Balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("Balance = %+v, %v", got, err)
	}

	empty, err := uc.Balance(ctx, strings.Repeat("f", 32))
	if err != nil || !empty.Balance.IsZero() {
		t.Fatalf("unknown party balance = %+v, %v", empty, err)
	}
}

func TestUsecase_DepositRejects(t *testing.T) {
	uc := NewUsecase(memory.NewStore())
	ctx := context.Background()

	tests := []struct {
		name    string
		party   string
		amount  decimal.Decimal
		wantErr error
	}{
		{"empty party", "", decimal.NewFromInt(1), loan.ErrUnauthorized},
		{"escrow party", custody.EscrowParty, decimal.NewFromInt(1), custody.ErrReservedParty},
		{"zero", "p", decimal.Zero, custody.ErrInvalidAmount},
		{"fractional", "p", decimal.RequireFromString("0.5"), custody.ErrInvalidAmount},
		{"exponent", "p", decimal.RequireFromString("1e30000000"), custody.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Deposit(ctx, tt.party, tt.amount)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("want %v, got %v", tt.wantErr, err)
			}
			if tt.party == "" && loan.Kind(err) != "Unauthorized" {
				t.Fatalf("empty party kind = %s", loan.Kind(err))
			}
		})
	}
}

func TestUsecase_Entries(t *testing.T) {
	uc := NewUsecase(memory.NewStore())
	ctx := context.Background()
	party := strings.Repeat("a", 32)
	other := strings.Repeat("e", 32)

	for _, n := range []int64{1, 2, 3} {
		if _, err := uc.Deposit(ctx, party, decimal.NewFromInt(n)); err != nil {
			t.Fatalf("Deposit: %v", err)
		}
	}
	if _, err := uc.Deposit(ctx, other, decimal.NewFromInt(9)); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	got, err := uc.Entries(ctx, party, 2)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(got) != 2 || !got[0].Amount.Equal(decimal.NewFromInt(3)) || !got[1].Amount.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("want newest two deposits, got %+v", got)
	}
	if got[0].Kind != string(custody.EntryDeposit) || got[0].ToParty != party || got[0].LoanID != nil {
		t.Fatalf("unexpected entry %+v", got[0])
	}

	all, err := uc.Entries(ctx, party, 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("limit 0 should return the full page, got %d, %v", len(all), err)
	}
}
