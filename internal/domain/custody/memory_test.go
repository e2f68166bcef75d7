package custody

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	alice      = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob        = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	carol      = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	collection = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	token      = common.HexToAddress("0x00000000000000000000000000000000000000e2")
)

func TestMemoryVault_VerifyOwnership(t *testing.T) {
	ctx := context.Background()
	v := NewMemoryVault()
	v.MintNFT(collection, big.NewInt(1), alice)
	v.Mint(token, alice, big.NewInt(100))
	v.Mint(common.Address{}, bob, big.NewInt(5))

	require.NoError(t, v.VerifyOwnership(ctx, ERC721(collection, big.NewInt(1)), alice))
	require.True(t, errors.Is(v.VerifyOwnership(ctx, ERC721(collection, big.NewInt(1)), bob), ErrNotOwner))
	require.NoError(t, v.VerifyOwnership(ctx, ERC20(token, big.NewInt(100)), alice))
	require.True(t, errors.Is(v.VerifyOwnership(ctx, ERC20(token, big.NewInt(101)), alice), ErrInsufficientBalance))
	require.NoError(t, v.VerifyOwnership(ctx, Native(big.NewInt(5)), bob))
}

func TestMemoryVault_Transfer(t *testing.T) {
	ctx := context.Background()
	v := NewMemoryVault()
	v.MintNFT(collection, big.NewInt(1), alice)
	v.Mint(common.Address{}, alice, big.NewInt(10))

	require.NoError(t, v.Transfer(ctx, Transfer{Asset: ERC721(collection, big.NewInt(1)), From: alice, To: bob}))
	require.Equal(t, bob, v.OwnerOf(collection, big.NewInt(1)))

	err := v.Transfer(ctx, Transfer{Asset: ERC721(collection, big.NewInt(1)), From: alice, To: bob})
	require.True(t, errors.Is(err, ErrNotOwner))

	require.NoError(t, v.Transfer(ctx, Transfer{Asset: Native(big.NewInt(4)), From: alice, To: bob}))
	require.Equal(t, int64(6), v.BalanceOf(common.Address{}, alice).Int64())
	require.Equal(t, int64(4), v.BalanceOf(common.Address{}, bob).Int64())

	err = v.Transfer(ctx, Transfer{Asset: Native(big.NewInt(7)), From: alice, To: bob})
	require.True(t, errors.Is(err, ErrInsufficientBalance))
}

func TestMemoryVault_TransferBatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	v := NewMemoryVault()
	v.MintNFT(collection, big.NewInt(1), alice)
	v.Mint(common.Address{}, alice, big.NewInt(10))
	v.Reject(carol, true)

	err := v.TransferBatch(ctx, []Transfer{
		{Asset: ERC721(collection, big.NewInt(1)), From: alice, To: bob},
		{Asset: Native(big.NewInt(6)), From: alice, To: bob},
		{Asset: Native(big.NewInt(4)), From: alice, To: carol},
	})
	require.True(t, errors.Is(err, ErrTransferRejected))

	require.Equal(t, alice, v.OwnerOf(collection, big.NewInt(1)))
	require.Equal(t, int64(10), v.BalanceOf(common.Address{}, alice).Int64())
	require.Equal(t, int64(0), v.BalanceOf(common.Address{}, bob).Int64())

	v.Reject(carol, false)
	require.NoError(t, v.TransferBatch(ctx, []Transfer{
		{Asset: ERC721(collection, big.NewInt(1)), From: alice, To: bob},
		{Asset: Native(big.NewInt(6)), From: alice, To: bob},
		{Asset: Native(big.NewInt(4)), From: alice, To: carol},
	}))
	require.Equal(t, bob, v.OwnerOf(collection, big.NewInt(1)))
	require.Equal(t, int64(0), v.BalanceOf(common.Address{}, alice).Int64())
	require.Equal(t, int64(4), v.BalanceOf(common.Address{}, carol).Int64())
}
