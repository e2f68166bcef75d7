package custody

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MemoryVault keeps balances and token ownership in memory. Transfers to a
// rejecting address fail, which lets tests exercise failed payouts.
type MemoryVault struct {
	mutex     sync.Mutex
	balances  map[common.Address]map[common.Address]*big.Int
	owners    map[common.Address]map[string]common.Address
	rejecting map[common.Address]bool
}

func NewMemoryVault() *MemoryVault {
	return &MemoryVault{
		balances:  make(map[common.Address]map[common.Address]*big.Int),
		owners:    make(map[common.Address]map[string]common.Address),
		rejecting: make(map[common.Address]bool),
	}
}

// Mint credits a native (zero contract) or ERC20 balance.
func (v *MemoryVault) Mint(contract, owner common.Address, amount *big.Int) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	v.credit(contract, owner, amount)
}

func (v *MemoryVault) MintNFT(contract common.Address, tokenID *big.Int, owner common.Address) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	v.setOwner(contract, tokenID, owner)
}

func (v *MemoryVault) BalanceOf(contract, owner common.Address) *big.Int {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	return new(big.Int).Set(v.balance(contract, owner))
}

func (v *MemoryVault) OwnerOf(contract common.Address, tokenID *big.Int) common.Address {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	return v.owners[contract][tokenID.String()]
}

func (v *MemoryVault) Reject(address common.Address, reject bool) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	v.rejecting[address] = reject
}

func (v *MemoryVault) VerifyOwnership(_ context.Context, asset Asset, owner common.Address) error {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	switch asset.Kind {
	case AssetERC721:
		if v.owners[asset.Contract][asset.Value.String()] != owner {
			return ErrNotOwner
		}
	default:
		if v.balance(v.contractOf(asset), owner).Cmp(asset.Value) < 0 {
			return ErrInsufficientBalance
		}
	}

	return nil
}

func (v *MemoryVault) Transfer(ctx context.Context, transfer Transfer) error {
	return v.TransferBatch(ctx, []Transfer{transfer})
}

func (v *MemoryVault) TransferBatch(_ context.Context, transfers []Transfer) error {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	applied := make([]Transfer, 0, len(transfers))
	for _, t := range transfers {
		if err := v.apply(t); err != nil {
			for i := len(applied) - 1; i >= 0; i-- {
				undo := applied[i]
				undo.From, undo.To = undo.To, undo.From
				if rerr := v.apply(undo); rerr != nil {
					panic(fmt.Sprintf("cannot undo transfer %s: %v", undo.Asset, rerr))
				}
			}

			return err
		}

		applied = append(applied, t)
	}

	return nil
}

func (v *MemoryVault) apply(t Transfer) error {
	if v.rejecting[t.To] {
		return fmt.Errorf("%w: %s does not accept %s", ErrTransferRejected, t.To.Hex(), t.Asset)
	}

	if t.Asset.Kind == AssetERC721 {
		if v.owners[t.Asset.Contract][t.Asset.Value.String()] != t.From {
			return ErrNotOwner
		}

		v.setOwner(t.Asset.Contract, t.Asset.Value, t.To)
		return nil
	}

	contract := v.contractOf(t.Asset)
	if v.balance(contract, t.From).Cmp(t.Asset.Value) < 0 {
		return ErrInsufficientBalance
	}

	v.credit(contract, t.From, new(big.Int).Neg(t.Asset.Value))
	v.credit(contract, t.To, t.Asset.Value)
	return nil
}

func (v *MemoryVault) contractOf(asset Asset) common.Address {
	if asset.Kind == AssetNative {
		return common.Address{}
	}

	return asset.Contract
}

func (v *MemoryVault) balance(contract, owner common.Address) *big.Int {
	if b, ok := v.balances[contract][owner]; ok {
		return b
	}

	return new(big.Int)
}

func (v *MemoryVault) credit(contract, owner common.Address, amount *big.Int) {
	if _, ok := v.balances[contract]; !ok {
		v.balances[contract] = make(map[common.Address]*big.Int)
	}

	v.balances[contract][owner] = new(big.Int).Add(v.balance(contract, owner), amount)
}

func (v *MemoryVault) setOwner(contract common.Address, tokenID *big.Int, owner common.Address) {
	if _, ok := v.owners[contract]; !ok {
		v.owners[contract] = make(map[string]common.Address)
	}

	v.owners[contract][tokenID.String()] = owner
}
