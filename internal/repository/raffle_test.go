package repository

import (
	"errors"
	"math/big"
	"testing"

	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/pkg/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func Test_raffleRepository_UpdateIfStatus(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewRaffleRepository()

	raffle := &entity.Raffle{
		ID:                "0x01",
		Type:              entity.RaffleTypeNFT,
		Status:            entity.RaffleStatusCreated,
		MaxEntriesPerUser: 10,
		CollateralAddress: entity.NewAddress(testutil.NFTCollection),
		CollateralID:      entity.NewBigInt(big.NewInt(7)),
		AmountRaised:      entity.NewBigInt(nil),
		MinimumFunds:      entity.NewBigInt(big.NewInt(100)),
		DesiredFunds:      entity.NewBigInt(big.NewInt(1000)),
	}
	require.NoError(t, repo.Create(ctx, raffle))

	err := repo.UpdateIfStatus(ctx, raffle.ID, entity.RaffleStatusAccepted, map[string]any{
		"status": entity.RaffleStatusEnded,
	})
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	err = repo.UpdateIfStatus(ctx, raffle.ID, entity.RaffleStatusCreated, map[string]any{
		"status": entity.RaffleStatusAccepted,
		"seller": entity.NewAddress(testutil.Seller),
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, raffle.ID)
	require.NoError(t, err)
	require.Equal(t, entity.RaffleStatusAccepted, got.Status)
	require.Equal(t, testutil.Seller, got.Seller.Address)
	require.Equal(t, "7", got.CollateralID.String())
	require.Equal(t, "1000", got.DesiredFunds.String())

	list, err := repo.GetList(ctx, RaffleFilter{Status: []entity.RaffleStatus{entity.RaffleStatusAccepted}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = repo.GetList(ctx, RaffleFilter{Status: []entity.RaffleStatus{entity.RaffleStatusEnded}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 0)
}

func Test_raffleRepository_Whitelist(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewRaffleRepository()

	require.NoError(t, repo.CreateWhitelist(ctx, nil))
	require.NoError(t, repo.CreateWhitelist(ctx, []entity.RaffleWhitelist{
		{RaffleID: "0x01", Collection: entity.NewAddress(testutil.NFTCollection)},
	}))

	ok, err := repo.IsWhitelisted(ctx, "0x01", entity.NewAddress(testutil.NFTCollection))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.IsWhitelisted(ctx, "0x01", entity.NewAddress(testutil.TokenContract))
	require.NoError(t, err)
	require.False(t, ok)

	use := &entity.RaffleAssetUse{
		Collection: entity.NewAddress(testutil.NFTCollection),
		RaffleID:   "0x01",
		AssetID:    "42",
		Buyer:      entity.NewAddress(testutil.Buyer1),
	}
	require.NoError(t, repo.CreateAssetUse(ctx, use))
	require.Error(t, repo.CreateAssetUse(ctx, use))

	got, err := repo.GetAssetUse(ctx, use.Collection, "0x01", "42")
	require.NoError(t, err)
	require.Equal(t, testutil.Buyer1, got.Buyer.Address)

	_, err = repo.GetAssetUse(ctx, use.Collection, "0x01", "43")
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func Test_raffleEntryRepository(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewRaffleEntryRepository()

	cumulative := []uint64{1, 51, 52}
	for i, c := range cumulative {
		require.NoError(t, repo.Append(ctx, &entity.RaffleEntry{
			RaffleID:        "0x01",
			Position:        uint64(i),
			CumulativeCount: c,
			Buyer:           entity.NewAddress(testutil.Buyer1),
		}))
	}

	require.Error(t, repo.Append(ctx, &entity.RaffleEntry{RaffleID: "0x01", Position: 1, CumulativeCount: 99}))

	e, err := repo.GetByPosition(ctx, "0x01", 1)
	require.NoError(t, err)
	require.Equal(t, uint64(51), e.CumulativeCount)

	entries, err := repo.GetList(ctx, "0x01", 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, uint64(51), entries[0].CumulativeCount)
	require.Equal(t, uint64(52), entries[1].CumulativeCount)
}

func Test_raffleClaimRepository(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewRaffleClaimRepository()
	buyer := entity.NewAddress(testutil.Buyer1)

	require.NoError(t, repo.Upsert(ctx, &entity.RaffleClaim{
		RaffleID:     "0x01",
		Buyer:        buyer,
		EntriesOwned: 1,
		AmountSpent:  entity.NewBigInt(big.NewInt(10)),
	}))
	require.NoError(t, repo.Upsert(ctx, &entity.RaffleClaim{
		RaffleID:     "0x01",
		Buyer:        buyer,
		EntriesOwned: 3,
		AmountSpent:  entity.NewBigInt(big.NewInt(30)),
	}))

	claim, err := repo.Get(ctx, "0x01", buyer)
	require.NoError(t, err)
	require.Equal(t, uint64(3), claim.EntriesOwned)
	require.Equal(t, "30", claim.AmountSpent.String())
	require.False(t, claim.Refunded)

	require.NoError(t, repo.MarkRefunded(ctx, "0x01", buyer))
	require.True(t, errors.Is(repo.MarkRefunded(ctx, "0x01", buyer), gorm.ErrRecordNotFound))

	claim, err = repo.Get(ctx, "0x01", buyer)
	require.NoError(t, err)
	require.True(t, claim.Refunded)
}

func Test_randomnessRequestRepository_Consume(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewRandomnessRequestRepository()

	require.NoError(t, repo.Create(ctx, &entity.RandomnessRequest{
		RequestID:   "req-1",
		RaffleID:    "0x01",
		EntriesSize: 153,
	}))

	req, err := repo.GetPendingByRaffleID(ctx, "0x01")
	require.NoError(t, err)
	require.Equal(t, "req-1", req.RequestID)

	require.NoError(t, repo.Consume(ctx, "req-1"))
	require.True(t, errors.Is(repo.Consume(ctx, "req-1"), gorm.ErrRecordNotFound))

	_, err = repo.GetByID(ctx, "req-1")
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func Test_rafflePendingTransferRepository(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewRafflePendingTransferRepository()

	require.NoError(t, repo.Create(ctx, []entity.RafflePendingTransfer{
		{ID: "t2", RaffleID: "0x01", Position: 2, Value: entity.NewBigInt(big.NewInt(5))},
		{ID: "t1", RaffleID: "0x01", Position: 1, Value: entity.NewBigInt(big.NewInt(95))},
		{ID: "t3", RaffleID: "0x02", Position: 1, Value: entity.NewBigInt(big.NewInt(1))},
	}))

	transfers, err := repo.GetByRaffleID(ctx, "0x01")
	require.NoError(t, err)
	require.Len(t, transfers, 2)
	require.Equal(t, "t1", transfers[0].ID)
	require.Equal(t, "95", transfers[0].Value.String())

	require.NoError(t, repo.Delete(ctx, "t1"))
	require.True(t, errors.Is(repo.Delete(ctx, "t1"), gorm.ErrRecordNotFound))

	transfers, err = repo.GetByRaffleID(ctx, "0x01")
	require.NoError(t, err)
	require.Len(t, transfers, 1)
}

func Test_roleRepository(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewRoleRepository()
	operator := entity.NewAddress(testutil.Operator)

	role := &entity.RaffleRole{Address: operator, Role: entity.RoleOperator}
	require.NoError(t, repo.Grant(ctx, role))
	require.NoError(t, repo.Grant(ctx, &entity.RaffleRole{Address: operator, Role: entity.RoleOperator}))

	roles, err := repo.GetByAddress(ctx, operator)
	require.NoError(t, err)
	require.Len(t, roles, 1)

	require.NoError(t, repo.Revoke(ctx, operator, entity.RoleOperator))
	require.True(t, errors.Is(repo.Revoke(ctx, operator, entity.RoleOperator), gorm.ErrRecordNotFound))

	roles, err = repo.GetList(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 0)
}
