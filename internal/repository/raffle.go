package repository

import (
	"context"

	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"gorm.io/gorm"
)

type RaffleFilter struct {
	Status []entity.RaffleStatus
	Seller string
	Offset int
	Limit  int
}

type RaffleRepository interface {
	Create(context.Context, *entity.Raffle) error
	GetByID(context.Context, string) (*entity.Raffle, error)
	GetList(context.Context, RaffleFilter) ([]entity.Raffle, error)
	UpdateIfStatus(ctx context.Context, id string, status entity.RaffleStatus, data map[string]any) error

	CreatePriceTiers(context.Context, []entity.RafflePriceTier) error
	GetPriceTiers(ctx context.Context, raffleID string) ([]entity.RafflePriceTier, error)

	CreateWhitelist(context.Context, []entity.RaffleWhitelist) error
	GetWhitelist(ctx context.Context, raffleID string) ([]entity.RaffleWhitelist, error)
	IsWhitelisted(ctx context.Context, raffleID string, collection entity.Address) (bool, error)

	GetAssetUse(ctx context.Context, collection entity.Address, raffleID, assetID string) (*entity.RaffleAssetUse, error)
	CreateAssetUse(context.Context, *entity.RaffleAssetUse) error
}

type raffleRepository struct{}

func NewRaffleRepository() *raffleRepository {
	return &raffleRepository{}
}

func (r *raffleRepository) Create(ctx context.Context, data *entity.Raffle) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *raffleRepository) GetByID(ctx context.Context, id string) (*entity.Raffle, error) {
	result := entity.Raffle{}
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *raffleRepository) GetList(ctx context.Context, filter RaffleFilter) ([]entity.Raffle, error) {
	tx := xcontext.DB(ctx).Model(&entity.Raffle{})
	if len(filter.Status) > 0 {
		tx = tx.Where("status IN (?)", filter.Status)
	}

	if filter.Seller != "" {
		tx = tx.Where("seller=?", filter.Seller)
	}

	var result []entity.Raffle
	err := tx.Order("created_at DESC").Offset(filter.Offset).Limit(filter.Limit).Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateIfStatus applies data only if the raffle is still in the given status.
// It returns gorm.ErrRecordNotFound when no row matched.
func (r *raffleRepository) UpdateIfStatus(
	ctx context.Context, id string, status entity.RaffleStatus, data map[string]any,
) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Raffle{}).
		Where("id=? AND status=?", id, status).
		Updates(data)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *raffleRepository) CreatePriceTiers(ctx context.Context, tiers []entity.RafflePriceTier) error {
	return xcontext.DB(ctx).Create(&tiers).Error
}

func (r *raffleRepository) GetPriceTiers(ctx context.Context, raffleID string) ([]entity.RafflePriceTier, error) {
	var result []entity.RafflePriceTier
	err := xcontext.DB(ctx).Where("raffle_id=?", raffleID).Order("position ASC").Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *raffleRepository) CreateWhitelist(ctx context.Context, whitelist []entity.RaffleWhitelist) error {
	if len(whitelist) == 0 {
		return nil
	}

	return xcontext.DB(ctx).Create(&whitelist).Error
}

func (r *raffleRepository) GetWhitelist(ctx context.Context, raffleID string) ([]entity.RaffleWhitelist, error) {
	var result []entity.RaffleWhitelist
	if err := xcontext.DB(ctx).Where("raffle_id=?", raffleID).Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *raffleRepository) IsWhitelisted(
	ctx context.Context, raffleID string, collection entity.Address,
) (bool, error) {
	var count int64
	err := xcontext.DB(ctx).Model(&entity.RaffleWhitelist{}).
		Where("raffle_id=? AND collection=?", raffleID, collection).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *raffleRepository) GetAssetUse(
	ctx context.Context, collection entity.Address, raffleID, assetID string,
) (*entity.RaffleAssetUse, error) {
	result := entity.RaffleAssetUse{}
	err := xcontext.DB(ctx).
		Take(&result, "collection=? AND raffle_id=? AND asset_id=?", collection, raffleID, assetID).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *raffleRepository) CreateAssetUse(ctx context.Context, data *entity.RaffleAssetUse) error {
	return xcontext.DB(ctx).Create(data).Error
}
