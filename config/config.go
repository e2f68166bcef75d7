package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

type Configs struct {
	Env          string `toml:"env"`
	LogLevel     string `toml:"log_level"`
	LogFile      string `toml:"log_file"`
	ErrorLogFile string `toml:"error_log_file"`

	Database   DatabaseConfigs   `toml:"database"`
	ApiServer  ServerConfigs     `toml:"api_server"`
	Auth       AuthConfigs       `toml:"auth"`
	Raffle     RaffleConfigs     `toml:"raffle"`
	Randomness RandomnessConfigs `toml:"randomness"`
	Custody    CustodyConfigs    `toml:"custody"`
	Kafka      KafkaConfigs      `toml:"kafka"`
	Redis      RedisConfigs      `toml:"redis"`
}

type DatabaseConfigs struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

type ServerConfigs struct {
	Host           string   `toml:"host"`
	Port           string   `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type AuthConfigs struct {
	TokenSecret           string   `toml:"token_secret"`
	AccessTokenExpiration Duration `toml:"access_token_expiration"`
}

type RaffleConfigs struct {
	EscrowAddress  string   `toml:"escrow_address"`
	PlatformWallet string   `toml:"platform_wallet"`
	Admins         []string `toml:"admins"`

	// LockBackend is either "memory" or "redis".
	LockBackend string   `toml:"lock_backend"`
	LockTTL     Duration `toml:"lock_ttl"`
}

type RandomnessConfigs struct {
	// Provider is either "local" or "kafka".
	Provider      string `toml:"provider"`
	RequestTopic  string `toml:"request_topic"`
	DeliveryTopic string `toml:"delivery_topic"`
	GroupID       string `toml:"group_id"`

	// RetryInterval and MaxRetryInterval bound the backoff between attempts
	// to settle a delivery whose raffle is busy.
	RetryInterval    Duration `toml:"retry_interval"`
	MaxRetryInterval Duration `toml:"max_retry_interval"`
}

type CustodyConfigs struct {
	// Backend is either "memory" or "eth".
	Backend          string `toml:"backend"`
	RPC              string `toml:"rpc"`
	ChainID          int64  `toml:"chain_id"`
	EscrowPrivateKey string `toml:"escrow_private_key"`
	GasLimit         uint64 `toml:"gas_limit"`
}

type KafkaConfigs struct {
	Addrs      []string `toml:"addrs"`
	ClientID   string   `toml:"client_id"`
	EventTopic string   `toml:"event_topic"`
}

type RedisConfigs struct {
	Addr string `toml:"addr"`
}

// Duration decodes TOML strings like "720h" into a time.Duration.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func Default() Configs {
	return Configs{
		Env:      "local",
		LogLevel: "info",
		Database: DatabaseConfigs{
			Driver: "sqlite",
			DSN:    "raffle.db",
		},
		ApiServer: ServerConfigs{
			Host:           "localhost",
			Port:           "8080",
			AllowedOrigins: []string{"*"},
		},
		Auth: AuthConfigs{
			AccessTokenExpiration: Duration{24 * time.Hour},
		},
		Raffle: RaffleConfigs{
			LockBackend: "memory",
			LockTTL:     Duration{time.Minute},
		},
		Randomness: RandomnessConfigs{
			Provider:      "local",
			RequestTopic:  "raffle.randomness.request",
			DeliveryTopic: "raffle.randomness.delivery",
			GroupID:       "raffle-settler",

			RetryInterval:    Duration{200 * time.Millisecond},
			MaxRetryInterval: Duration{10 * time.Second},
		},
		Custody: CustodyConfigs{
			Backend:  "memory",
			GasLimit: 200_000,
		},
		Kafka: KafkaConfigs{
			ClientID:   "raffle",
			EventTopic: "raffle.event",
		},
	}
}

// Load decodes the TOML file at path on top of Default. Unknown keys are
// rejected, so a removed or misspelled setting does not pass silently.
func Load(path string) (Configs, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Configs{}, err
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Configs{}, fmt.Errorf("unknown config keys %v", undecoded)
	}

	return cfg, nil
}
