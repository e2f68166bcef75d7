package domain

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	rafflecommon "github.com/questx-lab/raffle/internal/common"
	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/internal/model"
	"github.com/questx-lab/raffle/internal/repository"
	"github.com/questx-lab/raffle/pkg/enum"
	"github.com/questx-lab/raffle/pkg/errorx"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"gorm.io/gorm"
)

type RoleDomain interface {
	GrantRole(context.Context, *model.GrantRoleRequest) (*model.GrantRoleResponse, error)
	RevokeRole(context.Context, *model.RevokeRoleRequest) (*model.RevokeRoleResponse, error)
	GetRoles(context.Context, *model.GetRolesRequest) (*model.GetRolesResponse, error)
}

type roleDomain struct {
	roleRepo     repository.RoleRepository
	roleVerifier *rafflecommon.RoleVerifier
}

func NewRoleDomain(
	roleRepo repository.RoleRepository,
	roleVerifier *rafflecommon.RoleVerifier,
) RoleDomain {
	return &roleDomain{
		roleRepo:     roleRepo,
		roleVerifier: roleVerifier,
	}
}

func (d *roleDomain) GrantRole(ctx context.Context, req *model.GrantRoleRequest) (*model.GrantRoleResponse, error) {
	if err := d.roleVerifier.Verify(ctx, entity.RoleAdmin); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	address, role, err := parseRoleRequest(req.Address, req.Role)
	if err != nil {
		return nil, err
	}

	err = d.roleRepo.Grant(ctx, &entity.RaffleRole{
		Address:   address,
		Role:      role,
		GrantedBy: entity.NewAddress(xcontext.RequestAddress(ctx)),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot grant role: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GrantRoleResponse{}, nil
}

func (d *roleDomain) RevokeRole(ctx context.Context, req *model.RevokeRoleRequest) (*model.RevokeRoleResponse, error) {
	if err := d.roleVerifier.Verify(ctx, entity.RoleAdmin); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	address, role, err := parseRoleRequest(req.Address, req.Role)
	if err != nil {
		return nil, err
	}

	if err := d.roleRepo.Revoke(ctx, address, role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found role")
		}

		xcontext.Logger(ctx).Errorf("Cannot revoke role: %v", err)
		return nil, errorx.Unknown
	}

	return &model.RevokeRoleResponse{}, nil
}

func (d *roleDomain) GetRoles(ctx context.Context, req *model.GetRolesRequest) (*model.GetRolesResponse, error) {
	if err := d.roleVerifier.Verify(ctx, entity.RoleAdmin); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	var roles []entity.RaffleRole
	var err error
	if req.Address != "" {
		if !common.IsHexAddress(req.Address) {
			return nil, errorx.New(errorx.BadRequest, "Invalid address")
		}

		roles, err = d.roleRepo.GetByAddress(ctx, entity.NewAddress(common.HexToAddress(req.Address)))
	} else {
		roles, err = d.roleRepo.GetList(ctx)
	}

	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get roles: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetRolesResponse{Roles: []model.Role{}}
	for i := range roles {
		resp.Roles = append(resp.Roles, convertRole(&roles[i]))
	}

	return resp, nil
}

func parseRoleRequest(address, role string) (entity.Address, entity.Role, error) {
	if !common.IsHexAddress(address) {
		return entity.Address{}, "", errorx.New(errorx.BadRequest, "Invalid address")
	}

	r, err := enum.ToEnum[entity.Role](role)
	if err != nil {
		return entity.Address{}, "", errorx.New(errorx.BadRequest, "Invalid role %s", role)
	}

	return entity.NewAddress(common.HexToAddress(address)), r, nil
}
