package custody

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/questx-lab/raffle/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestEthCustodian(t *testing.T, client *mocks.EthClient) *EthCustodian {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	c, err := NewEthCustodian(client, 1337, hex.EncodeToString(crypto.FromECDSA(key)), 100_000)
	require.NoError(t, err)
	return c
}

func packOutput(t *testing.T, method string, v any) []byte {
	parsed, err := abi.JSON(strings.NewReader(tokenABI))
	require.NoError(t, err)

	out, err := parsed.Methods[method].Outputs.Pack(v)
	require.NoError(t, err)
	return out
}

func isCall(t *testing.T, method string) func(ethereum.CallMsg) bool {
	parsed, err := abi.JSON(strings.NewReader(tokenABI))
	require.NoError(t, err)

	id := parsed.Methods[method].ID
	return func(msg ethereum.CallMsg) bool {
		return len(msg.Data) >= 4 && string(msg.Data[:4]) == string(id)
	}
}

func TestEthCustodian_VerifyOwnership(t *testing.T) {
	ctx := context.Background()
	client := &mocks.EthClient{}
	c := newTestEthCustodian(t, client)

	client.On("CallContract", mock.Anything, mock.MatchedBy(isCall(t, "ownerOf")), mock.Anything).
		Return(packOutput(t, "ownerOf", alice), nil)
	client.On("CallContract", mock.Anything, mock.MatchedBy(isCall(t, "balanceOf")), mock.Anything).
		Return(packOutput(t, "balanceOf", big.NewInt(50)), nil)

	require.NoError(t, c.VerifyOwnership(ctx, ERC721(collection, big.NewInt(1)), alice))
	require.ErrorIs(t, c.VerifyOwnership(ctx, ERC721(collection, big.NewInt(1)), bob), ErrNotOwner)
	require.NoError(t, c.VerifyOwnership(ctx, ERC20(token, big.NewInt(50)), alice))
	require.ErrorIs(t, c.VerifyOwnership(ctx, ERC20(token, big.NewInt(51)), alice), ErrInsufficientBalance)
}

func TestEthCustodian_TransferBatch(t *testing.T) {
	ctx := context.Background()
	client := &mocks.EthClient{}
	c := newTestEthCustodian(t, client)

	client.On("CallContract", mock.Anything, mock.MatchedBy(isCall(t, "ownerOf")), mock.Anything).
		Return(packOutput(t, "ownerOf", c.Escrow()), nil)
	client.On("BalanceAt", mock.Anything, c.Escrow(), mock.Anything).Return(big.NewInt(1000), nil)
	client.On("SuggestGasPrice", mock.Anything).Return(big.NewInt(1), nil)
	client.On("PendingNonceAt", mock.Anything, c.Escrow()).Return(uint64(5), nil)

	sent := []*ethtypes.Transaction{}
	client.On("SendTransaction", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		sent = append(sent, args.Get(1).(*ethtypes.Transaction))
	})

	err := c.TransferBatch(ctx, []Transfer{
		{Asset: ERC721(collection, big.NewInt(1)), From: c.Escrow(), To: alice},
		{Asset: Native(big.NewInt(900)), From: c.Escrow(), To: bob},
		{Asset: Native(big.NewInt(100)), From: c.Escrow(), To: carol},
	})
	require.NoError(t, err)
	require.Len(t, sent, 3)

	signer := ethtypes.LatestSignerForChainID(big.NewInt(1337))
	for i, tx := range sent {
		from, err := ethtypes.Sender(signer, tx)
		require.NoError(t, err)
		require.Equal(t, c.Escrow(), from)
		require.Equal(t, uint64(5+i), tx.Nonce())
	}

	require.Equal(t, collection, *sent[0].To())
	require.Equal(t, bob, *sent[1].To())
	require.Equal(t, int64(900), sent[1].Value().Int64())
	require.Equal(t, carol, *sent[2].To())
}

func TestEthCustodian_TransferBatchPreflightFails(t *testing.T) {
	ctx := context.Background()
	client := &mocks.EthClient{}
	c := newTestEthCustodian(t, client)

	client.On("BalanceAt", mock.Anything, c.Escrow(), mock.Anything).Return(big.NewInt(999), nil)

	err := c.TransferBatch(ctx, []Transfer{
		{Asset: Native(big.NewInt(900)), From: c.Escrow(), To: bob},
		{Asset: Native(big.NewInt(100)), From: c.Escrow(), To: carol},
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)
	client.AssertNotCalled(t, "SendTransaction", mock.Anything, mock.Anything)
}

func TestEthCustodian_NativeDepositSendsNothing(t *testing.T) {
	ctx := context.Background()
	client := &mocks.EthClient{}
	c := newTestEthCustodian(t, client)

	client.On("SuggestGasPrice", mock.Anything).Return(big.NewInt(1), nil)
	client.On("PendingNonceAt", mock.Anything, c.Escrow()).Return(uint64(0), nil)

	err := c.Transfer(ctx, Transfer{Asset: Native(big.NewInt(10)), From: alice, To: c.Escrow()})
	require.NoError(t, err)
	client.AssertNotCalled(t, "SendTransaction", mock.Anything, mock.Anything)

	err = c.Transfer(ctx, Transfer{Asset: Native(big.NewInt(10)), From: alice, To: bob})
	require.ErrorIs(t, err, ErrTransferRejected)
}

func TestEthCustodian_TransferBatchSendFails(t *testing.T) {
	payouts := func(c *EthCustodian) []Transfer {
		return []Transfer{
			{Asset: Native(big.NewInt(900)), From: c.Escrow(), To: bob},
			{Asset: Native(big.NewInt(100)), From: c.Escrow(), To: carol},
		}
	}

	tests := []struct {
		name       string
		sendsOK    int
		wantSent   int
		wantUnsent int
		wantPart   bool
	}{
		{name: "first send fails", sendsOK: 0},
		{name: "second send fails", sendsOK: 1, wantPart: true, wantSent: 1, wantUnsent: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			client := &mocks.EthClient{}
			c := newTestEthCustodian(t, client)

			client.On("BalanceAt", mock.Anything, c.Escrow(), mock.Anything).Return(big.NewInt(1000), nil)
			client.On("SuggestGasPrice", mock.Anything).Return(big.NewInt(1), nil)
			client.On("PendingNonceAt", mock.Anything, c.Escrow()).Return(uint64(0), nil)
			if tt.sendsOK > 0 {
				client.On("SendTransaction", mock.Anything, mock.Anything).Return(nil).Times(tt.sendsOK)
			}
			client.On("SendTransaction", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

			err := c.TransferBatch(ctx, payouts(c))
			require.Error(t, err)

			var partial *PartialTransferError
			require.Equal(t, tt.wantPart, errors.As(err, &partial))
			if !tt.wantPart {
				return
			}

			require.Len(t, partial.Sent, tt.wantSent)
			require.Len(t, partial.Unsent, tt.wantUnsent)
			require.Equal(t, bob, partial.Sent[0].To)
			require.Equal(t, carol, partial.Unsent[0].To)
		})
	}
}
