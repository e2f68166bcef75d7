package repository

import (
	"context"

	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/pkg/xcontext"
)

type RaffleEntryRepository interface {
	Append(context.Context, *entity.RaffleEntry) error
	GetByPosition(ctx context.Context, raffleID string, position uint64) (*entity.RaffleEntry, error)
	GetList(ctx context.Context, raffleID string, offset, limit int) ([]entity.RaffleEntry, error)
}

type raffleEntryRepository struct{}

func NewRaffleEntryRepository() *raffleEntryRepository {
	return &raffleEntryRepository{}
}

// Append inserts a ledger record. The (raffle_id, position) primary key
// rejects a second record at the same position.
func (r *raffleEntryRepository) Append(ctx context.Context, data *entity.RaffleEntry) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *raffleEntryRepository) GetByPosition(
	ctx context.Context, raffleID string, position uint64,
) (*entity.RaffleEntry, error) {
	result := entity.RaffleEntry{}
	err := xcontext.DB(ctx).Take(&result, "raffle_id=? AND position=?", raffleID, position).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *raffleEntryRepository) GetList(
	ctx context.Context, raffleID string, offset, limit int,
) ([]entity.RaffleEntry, error) {
	var result []entity.RaffleEntry
	err := xcontext.DB(ctx).
		Where("raffle_id=?", raffleID).
		Order("position ASC").
		Offset(offset).
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
