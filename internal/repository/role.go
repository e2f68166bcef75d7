package repository

import (
	"context"

	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleRepository interface {
	Grant(context.Context, *entity.RaffleRole) error
	Revoke(ctx context.Context, address entity.Address, role entity.Role) error
	GetByAddress(ctx context.Context, address entity.Address) ([]entity.RaffleRole, error)
	GetList(context.Context) ([]entity.RaffleRole, error)
}

type roleRepository struct{}

func NewRoleRepository() *roleRepository {
	return &roleRepository{}
}

func (r *roleRepository) Grant(ctx context.Context, data *entity.RaffleRole) error {
	return xcontext.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(data).Error
}

func (r *roleRepository) Revoke(ctx context.Context, address entity.Address, role entity.Role) error {
	tx := xcontext.DB(ctx).Delete(&entity.RaffleRole{}, "address=? AND role=?", address, role)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *roleRepository) GetByAddress(ctx context.Context, address entity.Address) ([]entity.RaffleRole, error) {
	var result []entity.RaffleRole
	if err := xcontext.DB(ctx).Where("address=?", address).Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *roleRepository) GetList(ctx context.Context) ([]entity.RaffleRole, error) {
	var result []entity.RaffleRole
	if err := xcontext.DB(ctx).Order("created_at ASC").Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}
