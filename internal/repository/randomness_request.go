package repository

import (
	"context"

	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"gorm.io/gorm"
)

type RandomnessRequestRepository interface {
	Create(context.Context, *entity.RandomnessRequest) error
	GetByID(ctx context.Context, requestID string) (*entity.RandomnessRequest, error)
	GetPendingByRaffleID(ctx context.Context, raffleID string) (*entity.RandomnessRequest, error)
	Consume(ctx context.Context, requestID string) error
}

type randomnessRequestRepository struct{}

func NewRandomnessRequestRepository() *randomnessRequestRepository {
	return &randomnessRequestRepository{}
}

func (r *randomnessRequestRepository) Create(ctx context.Context, data *entity.RandomnessRequest) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *randomnessRequestRepository) GetByID(
	ctx context.Context, requestID string,
) (*entity.RandomnessRequest, error) {
	result := entity.RandomnessRequest{}
	if err := xcontext.DB(ctx).Take(&result, "request_id=?", requestID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *randomnessRequestRepository) GetPendingByRaffleID(
	ctx context.Context, raffleID string,
) (*entity.RandomnessRequest, error) {
	result := entity.RandomnessRequest{}
	err := xcontext.DB(ctx).Where("raffle_id=?", raffleID).Order("created_at DESC").Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// Consume deletes the request. Only the first caller succeeds, the others get
// gorm.ErrRecordNotFound.
func (r *randomnessRequestRepository) Consume(ctx context.Context, requestID string) error {
	tx := xcontext.DB(ctx).Delete(&entity.RandomnessRequest{}, "request_id=?", requestID)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
