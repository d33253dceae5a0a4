package mysql

import (
	"context"
	"errors"

	"loan-engine/internal/domain/custody"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccountRepository struct{ db *gorm.DB }

func NewAccountRepository(db *gorm.DB) *AccountRepository { return &AccountRepository{db: db} }

var _ custody.AccountRepository = (*AccountRepository)(nil)

func (r *AccountRepository) GetForUpdate(ctx context.Context, partyID string) (*custody.Account, error) {
	db := r.db.WithContext(ctx)
	seed := custody.Account{PartyID: partyID, Balance: decimal.Zero}
	if err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "party_id"}}, DoNothing: true}).
		Create(&seed).Error; err != nil {
		return nil, err
	}
	var out custody.Account
	res := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("party_id = ?", partyID).
		First(&out)
	return &out, res.Error
}

func (r *AccountRepository) Get(ctx context.Context, partyID string) (*custody.Account, error) {
	var out custody.Account
	res := r.db.WithContext(ctx).Where("party_id = ?", partyID).First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return &custody.Account{PartyID: partyID, Balance: decimal.Zero}, nil
	}
	return &out, res.Error
}

func (r *AccountRepository) Save(ctx context.Context, a *custody.Account) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *AccountRepository) AppendEntry(ctx context.Context, e *custody.Entry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// ListEntries returns a party's journal, newest first.
func (r *AccountRepository) ListEntries(ctx context.Context, partyID string, limit int) ([]custody.Entry, error) {
	var out []custody.Entry
	res := r.db.WithContext(ctx).
		Where("from_party = ? OR to_party = ?", partyID, partyID).
		Order("id DESC").
		Limit(limit).
		Find(&out)
	return out, res.Error
}
