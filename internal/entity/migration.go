package entity

import (
	"context"

	"github.com/questx-lab/raffle/pkg/xcontext"
)

func MigrateTable(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&Raffle{},
		&RafflePriceTier{},
		&RaffleWhitelist{},
		&RaffleEntry{},
		&RaffleClaim{},
		&RaffleAssetUse{},
		&RandomnessRequest{},
		&RafflePendingTransfer{},
		&RaffleRole{},
	)
}
