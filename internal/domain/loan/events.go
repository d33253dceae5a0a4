package loan

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventLoanRequested     = "LoanRequested"
	EventLoanFunded        = "LoanFunded"
	EventLoanRepaid        = "LoanRepaid"
	EventCollateralClaimed = "CollateralClaimed"
)

// Field is one positional event argument. Order is part of the contract.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is a lifecycle notification returned by every successful transition.
type Event interface {
	Name() string
	LoanID() uint64
	Fields() []Field
}

type LoanRequested struct {
	ID              uint64          `json:"id"`
	Borrower        string          `json:"borrower"`
	PrincipalAmount decimal.Decimal `json:"principal_amount"`
	InterestRateBps uint32          `json:"interest_rate_bps"`
	DurationSeconds uint64          `json:"duration_seconds"`
}

func (e LoanRequested) Name() string   { return EventLoanRequested }
func (e LoanRequested) LoanID() uint64 { return e.ID }
func (e LoanRequested) Fields() []Field {
	return []Field{
		idField(e.ID),
		{Key: "borrower", Value: e.Borrower},
		{Key: "principal_amount", Value: e.PrincipalAmount.String()},
		{Key: "interest_rate_bps", Value: strconv.FormatUint(uint64(e.InterestRateBps), 10)},
		{Key: "duration_seconds", Value: strconv.FormatUint(e.DurationSeconds, 10)},
	}
}

type LoanFunded struct {
	ID     uint64 `json:"id"`
	Lender string `json:"lender"`
}

func (e LoanFunded) Name() string    { return EventLoanFunded }
func (e LoanFunded) LoanID() uint64  { return e.ID }
func (e LoanFunded) Fields() []Field { return []Field{idField(e.ID), {Key: "lender", Value: e.Lender}} }

type LoanRepaid struct {
	ID uint64 `json:"id"`
}

func (e LoanRepaid) Name() string    { return EventLoanRepaid }
func (e LoanRepaid) LoanID() uint64  { return e.ID }
func (e LoanRepaid) Fields() []Field { return []Field{idField(e.ID)} }

type CollateralClaimed struct {
	ID uint64 `json:"id"`
}

func (e CollateralClaimed) Name() string    { return EventCollateralClaimed }
func (e CollateralClaimed) LoanID() uint64  { return e.ID }
func (e CollateralClaimed) Fields() []Field { return []Field{idField(e.ID)} }

func idField(id uint64) Field { return Field{Key: "id", Value: strconv.FormatUint(id, 10)} }

// Publisher delivers committed events to an external transport.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Table: loan_events (audit trail, written in the transition's transaction)
type EventRecord struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	EventID   string    `gorm:"column:event_id;type:char(32);not null;uniqueIndex:ux_loan_events_event_id" json:"event_id"`
	LoanID    uint64    `gorm:"column:loan_id;not null;index:idx_loan_events_loan" json:"loan_id"`
	Name      string    `gorm:"column:name;type:varchar(32);not null" json:"name"`
	Payload   string    `gorm:"column:payload;type:text;not null" json:"payload"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (EventRecord) TableName() string { return "loan_events" }

// NewEventRecord serializes ev; struct field order keeps the payload order.
func NewEventRecord(eventID string, ev Event, at time.Time) (*EventRecord, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return &EventRecord{
		EventID:   eventID,
		LoanID:    ev.LoanID(),
		Name:      ev.Name(),
		Payload:   string(b),
		CreatedAt: at,
	}, nil
}
