package repository

import (
	"context"

	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RaffleClaimRepository interface {
	Get(ctx context.Context, raffleID string, buyer entity.Address) (*entity.RaffleClaim, error)
	Upsert(context.Context, *entity.RaffleClaim) error
	MarkRefunded(ctx context.Context, raffleID string, buyer entity.Address) error
}

type raffleClaimRepository struct{}

func NewRaffleClaimRepository() *raffleClaimRepository {
	return &raffleClaimRepository{}
}

func (r *raffleClaimRepository) Get(
	ctx context.Context, raffleID string, buyer entity.Address,
) (*entity.RaffleClaim, error) {
	result := entity.RaffleClaim{}
	if err := xcontext.DB(ctx).Take(&result, "raffle_id=? AND buyer=?", raffleID, buyer).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *raffleClaimRepository) Upsert(ctx context.Context, data *entity.RaffleClaim) error {
	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "raffle_id"},
				{Name: "buyer"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"entries_owned", "amount_spent", "updated_at"}),
		}).
		Create(data).Error
}

// MarkRefunded flips refunded from false to true. It returns
// gorm.ErrRecordNotFound if the claim does not exist or is already refunded.
func (r *raffleClaimRepository) MarkRefunded(ctx context.Context, raffleID string, buyer entity.Address) error {
	tx := xcontext.DB(ctx).
		Model(&entity.RaffleClaim{}).
		Where("raffle_id=? AND buyer=? AND refunded=?", raffleID, buyer, false).
		Update("refunded", true)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
