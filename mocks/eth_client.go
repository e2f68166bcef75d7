package mocks

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// EthClient mocks the chain calls made by custody.EthCustodian.
type EthClient struct {
	mock.Mock
}

func (c *EthClient) BalanceAt(ctx context.Context, account common.Address, block *big.Int) (*big.Int, error) {
	args := c.Called(ctx, account, block)
	return bigIntOrNil(args.Get(0)), args.Error(1)
}

func (c *EthClient) CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	args := c.Called(ctx, msg, block)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]byte), args.Error(1)
}

func (c *EthClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	args := c.Called(ctx, account)
	if args.Get(0) == nil {
		return 0, args.Error(1)
	}

	return args.Get(0).(uint64), args.Error(1)
}

func (c *EthClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	args := c.Called(ctx)
	return bigIntOrNil(args.Get(0)), args.Error(1)
}

func (c *EthClient) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error {
	return c.Called(ctx, tx).Error(0)
}

func bigIntOrNil(v any) *big.Int {
	if v == nil {
		return nil
	}

	return v.(*big.Int)
}
