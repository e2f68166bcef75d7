package common

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/internal/repository"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"golang.org/x/exp/slices"
)

var ErrPermissionDenied = errors.New("caller does not have the required role")

// RoleVerifier answers isOperator/isAdmin for the caller of the context.
// Admins listed in the config always pass, and an admin is also an operator.
type RoleVerifier struct {
	roleRepo repository.RoleRepository
}

func NewRoleVerifier(roleRepo repository.RoleRepository) *RoleVerifier {
	return &RoleVerifier{roleRepo: roleRepo}
}

func (verifier *RoleVerifier) Verify(ctx context.Context, requiredRoles ...entity.Role) error {
	address := xcontext.RequestAddress(ctx)
	if address == (common.Address{}) {
		return errors.New("anonymous caller")
	}

	if verifier.isConfiguredAdmin(ctx, address) {
		return nil
	}

	roles, err := verifier.roleRepo.GetByAddress(ctx, entity.NewAddress(address))
	if err != nil {
		return err
	}

	for _, r := range roles {
		if r.Role == entity.RoleAdmin || slices.Contains(requiredRoles, r.Role) {
			return nil
		}
	}

	return ErrPermissionDenied
}

func (verifier *RoleVerifier) IsOperator(ctx context.Context) bool {
	return verifier.Verify(ctx, entity.RoleOperator) == nil
}

func (verifier *RoleVerifier) IsAdmin(ctx context.Context) bool {
	return verifier.Verify(ctx, entity.RoleAdmin) == nil
}

func (verifier *RoleVerifier) isConfiguredAdmin(ctx context.Context, address common.Address) bool {
	return slices.IndexFunc(xcontext.Configs(ctx).Raffle.Admins, func(s string) bool {
		return common.HexToAddress(s) == address
	}) >= 0
}
