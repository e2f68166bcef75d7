// Package custody moves collateral and payments between wallets and the
// raffle escrow.
package custody

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type AssetKind uint8

const (
	AssetNative AssetKind = iota
	AssetERC20
	AssetERC721
)

func (k AssetKind) String() string {
	switch k {
	case AssetNative:
		return "native"
	case AssetERC20:
		return "erc20"
	case AssetERC721:
		return "erc721"
	}

	return fmt.Sprintf("asset(%d)", uint8(k))
}

// Asset references a native amount, an ERC20 amount of Contract, or the
// ERC721 token Value of Contract.
type Asset struct {
	Kind     AssetKind
	Contract common.Address
	Value    *big.Int
}

func Native(amount *big.Int) Asset {
	return Asset{Kind: AssetNative, Value: amount}
}

func ERC20(contract common.Address, amount *big.Int) Asset {
	return Asset{Kind: AssetERC20, Contract: contract, Value: amount}
}

func ERC721(contract common.Address, tokenID *big.Int) Asset {
	return Asset{Kind: AssetERC721, Contract: contract, Value: tokenID}
}

func (a Asset) String() string {
	if a.Kind == AssetNative {
		return fmt.Sprintf("%s:%s", a.Kind, a.Value)
	}

	return fmt.Sprintf("%s:%s:%s", a.Kind, a.Contract.Hex(), a.Value)
}

type Transfer struct {
	Asset Asset
	From  common.Address
	To    common.Address
}

var (
	ErrNotOwner            = errors.New("asset is not owned by the account")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrTransferRejected    = errors.New("transfer rejected")
)

// PartialTransferError reports a batch that stopped after some of its
// transfers had already been broadcast. Sent cannot be undone.
type PartialTransferError struct {
	Sent   []Transfer
	Unsent []Transfer
	Err    error
}

func (e *PartialTransferError) Error() string {
	return fmt.Sprintf("%d of %d transfers sent: %v", len(e.Sent), len(e.Sent)+len(e.Unsent), e.Err)
}

func (e *PartialTransferError) Unwrap() error {
	return e.Err
}

type Custodian interface {
	// VerifyOwnership returns ErrNotOwner if owner does not hold the asset.
	VerifyOwnership(ctx context.Context, asset Asset, owner common.Address) error

	Transfer(ctx context.Context, transfer Transfer) error

	// TransferBatch moves the transfers in order. Any error other than a
	// *PartialTransferError means nothing was moved.
	TransferBatch(ctx context.Context, transfers []Transfer) error
}
