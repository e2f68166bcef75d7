package testutil

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/questx-lab/raffle/pkg/xcontext"
)

var (
	Admin          = common.HexToAddress("0x000000000000000000000000000000000000a001")
	Operator       = common.HexToAddress("0x000000000000000000000000000000000000a002")
	Seller         = common.HexToAddress("0x000000000000000000000000000000000000b001")
	Buyer1         = common.HexToAddress("0x000000000000000000000000000000000000c001")
	Buyer2         = common.HexToAddress("0x000000000000000000000000000000000000c002")
	Buyer3         = common.HexToAddress("0x000000000000000000000000000000000000c003")
	Buyer4         = common.HexToAddress("0x000000000000000000000000000000000000c004")
	Buyer5         = common.HexToAddress("0x000000000000000000000000000000000000c005")
	EscrowAddress  = common.HexToAddress("0x000000000000000000000000000000000000e5c0")
	PlatformWallet = common.HexToAddress("0x000000000000000000000000000000000000fee0")
	NFTCollection  = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	TokenContract  = common.HexToAddress("0x00000000000000000000000000000000000000e2")
)

func WithAddress(ctx context.Context, address string) context.Context {
	return xcontext.WithRequestAddress(ctx, common.HexToAddress(address))
}
