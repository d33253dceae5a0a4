package custody

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// EscrowParty is the reserved account holding value in engine custody.
const EscrowParty = "escrow"

var (
	ErrInsufficientValue = errors.New("insufficient value")
	ErrTransferFailed    = errors.New("transfer failed")
	ErrInvalidAmount     = errors.New("amount must be a positive integer")
	ErrReservedParty     = errors.New("party is reserved")
)

// Table: accounts
type Account struct {
	ID        uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	PartyID   string          `gorm:"column:party_id;type:varchar(32);not null;uniqueIndex:ux_accounts_party_id" json:"party_id"`
	Balance   decimal.Decimal `gorm:"column:balance;type:decimal(65,0);not null" json:"balance"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

type EntryKind string

const (
	EntryDeposit  EntryKind = "deposit"
	EntryHold     EntryKind = "hold"
	EntryTransfer EntryKind = "transfer"
)

// Table: ledger_entries (append-only journal of every custody movement)
type Entry struct {
	ID        uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	EntryID   string          `gorm:"column:entry_id;type:char(32);not null;uniqueIndex:ux_ledger_entries_entry_id" json:"entry_id"`
	LoanID    *uint64         `gorm:"column:loan_id;index:idx_ledger_entries_loan" json:"loan_id,omitempty"`
	Kind      EntryKind       `gorm:"column:kind;type:varchar(16);not null" json:"kind"`
	FromParty string          `gorm:"column:from_party;type:varchar(32)" json:"from,omitempty"`
	ToParty   string          `gorm:"column:to_party;type:varchar(32);not null" json:"to"`
	Amount    decimal.Decimal `gorm:"column:amount;type:decimal(65,0);not null" json:"amount"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Entry) TableName() string { return "ledger_entries" }

// MaxAmountDigits is the widest amount the decimal(65,0) columns can hold.
const MaxAmountDigits = 65

// ValidAmount reports whether d is a strictly positive whole number of minor
// units that fits in MaxAmountDigits. The exponent is bounded before any
// arithmetic so inputs like 1e30000000 are rejected without being expanded.
func ValidAmount(d decimal.Decimal) bool {
	if !d.IsPositive() {
		return false
	}
	exp := int(d.Exponent())
	if exp > MaxAmountDigits || exp < -MaxAmountDigits {
		return false
	}
	return d.IsInteger() && d.NumDigits()+exp <= MaxAmountDigits
}
