package custody

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/questx-lab/raffle/pkg/xcontext"
)

const tokenABI = `[
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"transferFrom","stateMutability":"nonpayable",
	 "inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"ownerOf","stateMutability":"view",
	 "inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"safeTransferFrom","stateMutability":"nonpayable",
	 "inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}],"outputs":[]}
]`

// EthClient is the subset of ethclient.Client used for custody, so that it
// can be mocked in tests.
type EthClient interface {
	BalanceAt(ctx context.Context, account common.Address, block *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
}

// EthCustodian signs every outgoing transaction with the escrow key. Token
// pulls into escrow use transferFrom, so sellers and buyers must approve the
// escrow beforehand. Native deposits into escrow are received by the payment
// gateway before the call reaches the engine, so they need no transaction.
type EthCustodian struct {
	client   EthClient
	chainID  *big.Int
	key      *ecdsa.PrivateKey
	escrow   common.Address
	gasLimit uint64
	abi      abi.ABI
}

func NewEthCustodian(client EthClient, chainID int64, hexKey string, gasLimit uint64) (*EthCustodian, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, err
	}

	parsed, err := abi.JSON(strings.NewReader(tokenABI))
	if err != nil {
		return nil, err
	}

	return &EthCustodian{
		client:   client,
		chainID:  big.NewInt(chainID),
		key:      key,
		escrow:   crypto.PubkeyToAddress(key.PublicKey),
		gasLimit: gasLimit,
		abi:      parsed,
	}, nil
}

func (c *EthCustodian) Escrow() common.Address {
	return c.escrow
}

func (c *EthCustodian) VerifyOwnership(ctx context.Context, asset Asset, owner common.Address) error {
	switch asset.Kind {
	case AssetERC721:
		current, err := c.ownerOf(ctx, asset.Contract, asset.Value)
		if err != nil {
			return err
		}

		if current != owner {
			return ErrNotOwner
		}

	case AssetERC20:
		balance, err := c.erc20BalanceOf(ctx, asset.Contract, owner)
		if err != nil {
			return err
		}

		if balance.Cmp(asset.Value) < 0 {
			return ErrInsufficientBalance
		}

	case AssetNative:
		balance, err := c.client.BalanceAt(ctx, owner, nil)
		if err != nil {
			return err
		}

		if balance.Cmp(asset.Value) < 0 {
			return ErrInsufficientBalance
		}

	default:
		return fmt.Errorf("unsupported asset kind %s", asset.Kind)
	}

	return nil
}

func (c *EthCustodian) Transfer(ctx context.Context, transfer Transfer) error {
	return c.TransferBatch(ctx, []Transfer{transfer})
}

// TransferBatch checks every precondition and signs every transaction before
// the first one is sent. A send failure after the first transaction is
// reported as a *PartialTransferError.
func (c *EthCustodian) TransferBatch(ctx context.Context, transfers []Transfer) error {
	if err := c.preflight(ctx, transfers); err != nil {
		return err
	}

	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return err
	}

	nonce, err := c.client.PendingNonceAt(ctx, c.escrow)
	if err != nil {
		return err
	}

	signer := ethtypes.LatestSignerForChainID(c.chainID)
	signedTxs := []*ethtypes.Transaction{}
	// Transfers that need no transaction count as sent.
	sent, onChain := []Transfer{}, []Transfer{}
	for _, t := range transfers {
		tx, err := c.buildTx(t, nonce, gasPrice)
		if err != nil {
			return err
		}

		if tx == nil {
			sent = append(sent, t)
			continue
		}

		signedTx, err := ethtypes.SignTx(tx, signer, c.key)
		if err != nil {
			return err
		}

		signedTxs = append(signedTxs, signedTx)
		onChain = append(onChain, t)
		nonce++
	}

	for i, tx := range signedTxs {
		if err := c.client.SendTransaction(ctx, tx); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot send custody transaction %s: %v", tx.Hash().Hex(), err)
			if i == 0 {
				return err
			}

			return &PartialTransferError{
				Sent:   append(sent, onChain[:i]...),
				Unsent: append([]Transfer(nil), onChain[i:]...),
				Err:    err,
			}
		}
	}

	return nil
}

func (c *EthCustodian) preflight(ctx context.Context, transfers []Transfer) error {
	outgoing := map[AssetKind]map[common.Address]*big.Int{}
	for _, t := range transfers {
		if t.Asset.Kind == AssetNative && t.From != c.escrow && t.To != c.escrow {
			return fmt.Errorf("%w: native transfer must involve the escrow", ErrTransferRejected)
		}

		if t.Asset.Kind == AssetERC721 {
			if err := c.VerifyOwnership(ctx, t.Asset, t.From); err != nil {
				return err
			}

			continue
		}

		if t.From != c.escrow {
			continue
		}

		if _, ok := outgoing[t.Asset.Kind]; !ok {
			outgoing[t.Asset.Kind] = map[common.Address]*big.Int{}
		}

		sum, ok := outgoing[t.Asset.Kind][t.Asset.Contract]
		if !ok {
			sum = new(big.Int)
			outgoing[t.Asset.Kind][t.Asset.Contract] = sum
		}
		sum.Add(sum, t.Asset.Value)
	}

	for kind, contracts := range outgoing {
		for contract, sum := range contracts {
			err := c.VerifyOwnership(ctx, Asset{Kind: kind, Contract: contract, Value: sum}, c.escrow)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func (c *EthCustodian) buildTx(t Transfer, nonce uint64, gasPrice *big.Int) (*ethtypes.Transaction, error) {
	var (
		to    common.Address
		value = common.Big0
		data  []byte
		err   error
	)

	switch t.Asset.Kind {
	case AssetNative:
		if t.From != c.escrow {
			// Deposit already received by the gateway.
			return nil, nil
		}

		to, value = t.To, t.Asset.Value

	case AssetERC20:
		to = t.Asset.Contract
		if t.From == c.escrow {
			data, err = c.abi.Pack("transfer", t.To, t.Asset.Value)
		} else {
			data, err = c.abi.Pack("transferFrom", t.From, t.To, t.Asset.Value)
		}

	case AssetERC721:
		to = t.Asset.Contract
		data, err = c.abi.Pack("safeTransferFrom", t.From, t.To, t.Asset.Value)

	default:
		return nil, fmt.Errorf("unsupported asset kind %s", t.Asset.Kind)
	}

	if err != nil {
		return nil, err
	}

	return ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      c.gasLimit,
		To:       &to,
		Value:    value,
		Data:     data,
	}), nil
}

func (c *EthCustodian) ownerOf(ctx context.Context, contract common.Address, tokenID *big.Int) (common.Address, error) {
	out, err := c.call(ctx, contract, "ownerOf", tokenID)
	if err != nil {
		return common.Address{}, err
	}

	owner, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, errors.New("unexpected ownerOf result")
	}

	return owner, nil
}

func (c *EthCustodian) erc20BalanceOf(ctx context.Context, contract, owner common.Address) (*big.Int, error) {
	out, err := c.call(ctx, contract, "balanceOf", owner)
	if err != nil {
		return nil, err
	}

	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.New("unexpected balanceOf result")
	}

	return balance, nil
}

func (c *EthCustodian) call(ctx context.Context, contract common.Address, method string, args ...any) ([]any, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, err
	}

	result, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, err
	}

	out, err := c.abi.Unpack(method, result)
	if err != nil {
		return nil, err
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("empty %s result", method)
	}

	return out, nil
}
