package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/questx-lab/raffle/config"
	rafflecommon "github.com/questx-lab/raffle/internal/common"
	"github.com/questx-lab/raffle/internal/domain"
	"github.com/questx-lab/raffle/internal/domain/custody"
	"github.com/questx-lab/raffle/internal/domain/rafflelock"
	"github.com/questx-lab/raffle/internal/domain/randomness"
	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/internal/model"
	"github.com/questx-lab/raffle/internal/repository"
	"github.com/questx-lab/raffle/pkg/authenticator"
	"github.com/questx-lab/raffle/pkg/dateutil"
	"github.com/questx-lab/raffle/pkg/kafka"
	"github.com/questx-lab/raffle/pkg/logger"
	"github.com/questx-lab/raffle/pkg/pubsub"
	"github.com/questx-lab/raffle/pkg/router"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"github.com/questx-lab/raffle/pkg/xredis"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	localRandomnessBuffer = 64
	localRandomnessDelay  = time.Second
)

type srv struct {
	app *cli.App
	ctx context.Context

	raffleRepo     repository.RaffleRepository
	entryRepo      repository.RaffleEntryRepository
	claimRepo      repository.RaffleClaimRepository
	randomnessRepo repository.RandomnessRequestRepository
	transferRepo   repository.RafflePendingTransferRepository
	roleRepo       repository.RoleRepository

	roleVerifier *rafflecommon.RoleVerifier
	tokenEngine  authenticator.TokenEngine[model.AccessToken]

	custodian  custody.Custodian
	randomness randomness.Provider
	deliveries <-chan randomness.Delivery
	locker     rafflelock.Locker
	publisher  pubsub.Publisher

	raffleDomain domain.RaffleDomain
	roleDomain   domain.RoleDomain

	router *router.Router
}

func (s *srv) loadConfig(cctx *cli.Context) error {
	cfg, err := config.Load(cctx.String(configFlag.Name))
	if err != nil {
		return err
	}

	s.ctx = xcontext.WithConfigs(s.ctx, cfg)
	return nil
}

func (s *srv) loadLogger() {
	cfg := xcontext.Configs(s.ctx)
	zapLogger, err := logger.NewZapLogger(logger.ZapConfigs{
		LogFile:   cfg.LogFile,
		ErrorFile: cfg.ErrorLogFile,
		Level:     cfg.LogLevel,
		Console:   true,
	})
	if err != nil {
		panic(err)
	}

	s.ctx = xcontext.WithLogger(s.ctx, zapLogger)
}

func (s *srv) newDatabase() *gorm.DB {
	cfg := xcontext.Configs(s.ctx).Database

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.New(mysql.Config{
			DSN:                       cfg.DSN,
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		})
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		panic(fmt.Sprintf("invalid database driver %s", cfg.Driver))
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		panic(err)
	}

	if cfg.Driver == "sqlite" {
		// sqlite allows a single writer.
		sqlDB, err := db.DB()
		if err != nil {
			panic(err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db
}

func (s *srv) migrateDB() {
	if err := entity.MigrateTable(s.ctx); err != nil {
		panic(err)
	}
}

func (s *srv) loadRepos() {
	s.raffleRepo = repository.NewRaffleRepository()
	s.entryRepo = repository.NewRaffleEntryRepository()
	s.claimRepo = repository.NewRaffleClaimRepository()
	s.randomnessRepo = repository.NewRandomnessRequestRepository()
	s.transferRepo = repository.NewRafflePendingTransferRepository()
	s.roleRepo = repository.NewRoleRepository()
}

func (s *srv) loadAuth() {
	cfg := xcontext.Configs(s.ctx).Auth
	s.tokenEngine = authenticator.NewTokenEngine[model.AccessToken](
		cfg.TokenSecret, cfg.AccessTokenExpiration.Duration)
}

func (s *srv) loadPublisher() {
	cfg := xcontext.Configs(s.ctx).Kafka
	if len(cfg.Addrs) == 0 {
		xcontext.Logger(s.ctx).Warnf("Kafka is not configured, raffle events are not published")
		return
	}

	publisher, err := kafka.NewPublisher(cfg.ClientID, cfg.Addrs)
	if err != nil {
		panic(err)
	}

	s.publisher = publisher
}

// loadCustody connects the custodian. The eth backend owns the escrow key, so
// the escrow address in configs is replaced by the one derived from the key.
func (s *srv) loadCustody() {
	cfg := xcontext.Configs(s.ctx)
	switch cfg.Custody.Backend {
	case "memory":
		xcontext.Logger(s.ctx).Warnf("Custody runs in memory, balances are lost on restart")
		s.custodian = custody.NewMemoryVault()

	case "eth":
		client, err := ethclient.Dial(cfg.Custody.RPC)
		if err != nil {
			panic(err)
		}

		custodian, err := custody.NewEthCustodian(
			client, cfg.Custody.ChainID, cfg.Custody.EscrowPrivateKey, cfg.Custody.GasLimit)
		if err != nil {
			panic(err)
		}

		if cfg.Raffle.EscrowAddress != "" &&
			common.HexToAddress(cfg.Raffle.EscrowAddress) != custodian.Escrow() {
			xcontext.Logger(s.ctx).Warnf("Escrow address %s is replaced by %s",
				cfg.Raffle.EscrowAddress, custodian.Escrow().Hex())
		}

		cfg.Raffle.EscrowAddress = custodian.Escrow().Hex()
		s.ctx = xcontext.WithConfigs(s.ctx, cfg)
		s.custodian = custodian

	default:
		panic(fmt.Sprintf("invalid custody backend %s", cfg.Custody.Backend))
	}
}

func (s *srv) loadRandomness() {
	cfg := xcontext.Configs(s.ctx).Randomness
	switch cfg.Provider {
	case "local":
		provider := randomness.NewLocalProvider(localRandomnessBuffer, localRandomnessDelay)
		s.randomness = provider
		s.deliveries = provider.Deliveries()

	case "kafka":
		if s.publisher == nil {
			panic("kafka randomness provider needs kafka addrs")
		}

		deliveries := make(chan randomness.Delivery)
		s.randomness = randomness.NewKafkaProvider(s.publisher, cfg.RequestTopic)
		s.deliveries = deliveries
		s.startDeliverySubscriber(deliveries)

	default:
		panic(fmt.Sprintf("invalid randomness provider %s", cfg.Provider))
	}
}

// startDeliverySubscriber feeds deliveries consumed from kafka into out.
func (s *srv) startDeliverySubscriber(out chan<- randomness.Delivery) {
	cfg := xcontext.Configs(s.ctx)
	subscriber, err := kafka.NewSubscriber(
		cfg.Randomness.GroupID,
		cfg.Kafka.Addrs,
		[]string{cfg.Randomness.DeliveryTopic},
		randomness.DeliveryHandler(out),
	)
	if err != nil {
		panic(err)
	}

	go subscriber.Subscribe(s.ctx)
}

func (s *srv) loadLocker() {
	cfg := xcontext.Configs(s.ctx)
	switch cfg.Raffle.LockBackend {
	case "memory":
		s.locker = rafflelock.NewMemoryLocker()

	case "redis":
		client, err := xredis.NewClient(s.ctx)
		if err != nil {
			panic(err)
		}

		s.locker = rafflelock.NewRedisLocker(client, cfg.Raffle.LockTTL.Duration)

	default:
		panic(fmt.Sprintf("invalid lock backend %s", cfg.Raffle.LockBackend))
	}
}

func (s *srv) loadDomains() {
	s.roleVerifier = rafflecommon.NewRoleVerifier(s.roleRepo)
	s.raffleDomain = domain.NewRaffleDomain(
		s.raffleRepo,
		s.entryRepo,
		s.claimRepo,
		s.randomnessRepo,
		s.transferRepo,
		s.roleVerifier,
		s.custodian,
		s.randomness,
		s.locker,
		s.publisher,
		dateutil.NewSystemClock(),
	)
	s.roleDomain = domain.NewRoleDomain(s.roleRepo, s.roleVerifier)
}

// loadEngine wires everything the raffle domain needs. It is shared by the
// api and settler commands.
func (s *srv) loadEngine() {
	s.loadLogger()
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRepos()
	s.loadPublisher()
	s.loadCustody()
	s.loadRandomness()
	s.loadLocker()
	s.loadDomains()
}
