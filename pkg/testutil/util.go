package testutil

import (
	"context"
	"time"

	"github.com/questx-lab/raffle/config"
	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/pkg/logger"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MockContext returns a context carrying a migrated in-memory sqlite
// database, test configs and a silent logger.
func MockContext() context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		panic(err)
	}

	// Every connection to :memory: opens its own database.
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := config.Default()
	cfg.Env = "test"
	cfg.Auth.TokenSecret = "secret"
	cfg.Auth.AccessTokenExpiration = config.Duration{Duration: time.Minute}
	cfg.Raffle.EscrowAddress = EscrowAddress.Hex()
	cfg.Raffle.PlatformWallet = PlatformWallet.Hex()
	cfg.Raffle.Admins = []string{Admin.Hex()}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.SILENCE))
	ctx = xcontext.WithDB(ctx, db)

	if err := entity.MigrateTable(ctx); err != nil {
		panic(err)
	}

	return ctx
}

func MockContextWithAddress(address string) context.Context {
	return WithAddress(MockContext(), address)
}
