package repository

import (
	"context"

	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"gorm.io/gorm"
)

type RafflePendingTransferRepository interface {
	Create(context.Context, []entity.RafflePendingTransfer) error
	GetByRaffleID(ctx context.Context, raffleID string) ([]entity.RafflePendingTransfer, error)
	Delete(ctx context.Context, id string) error
}

type rafflePendingTransferRepository struct{}

func NewRafflePendingTransferRepository() *rafflePendingTransferRepository {
	return &rafflePendingTransferRepository{}
}

func (r *rafflePendingTransferRepository) Create(ctx context.Context, data []entity.RafflePendingTransfer) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *rafflePendingTransferRepository) GetByRaffleID(
	ctx context.Context, raffleID string,
) ([]entity.RafflePendingTransfer, error) {
	var result []entity.RafflePendingTransfer
	err := xcontext.DB(ctx).Where("raffle_id=?", raffleID).Order("position ASC").Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Delete removes a transfer once it is sent. It returns gorm.ErrRecordNotFound
// if another caller removed it first.
func (r *rafflePendingTransferRepository) Delete(ctx context.Context, id string) error {
	tx := xcontext.DB(ctx).Delete(&entity.RafflePendingTransfer{}, "id=?", id)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
