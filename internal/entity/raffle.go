package entity

import (
	"database/sql"
	"time"

	"github.com/questx-lab/raffle/pkg/enum"
)

type RaffleType uint8

var (
	RaffleTypeNFT         = enum.New(RaffleType(0), "NFT")
	RaffleTypeNativeToken = enum.New(RaffleType(1), "ETH")
	RaffleTypeERC20       = enum.New(RaffleType(2), "ERC20")
)

type RaffleStatus uint8

var (
	RaffleStatusCreated          = enum.New(RaffleStatus(0), "CREATED")
	RaffleStatusAccepted         = enum.New(RaffleStatus(1), "ACCEPTED")
	RaffleStatusEarlyCashout     = enum.New(RaffleStatus(2), "EARLY_CASHOUT")
	RaffleStatusClosingRequested = enum.New(RaffleStatus(3), "CLOSING_REQUESTED")
	RaffleStatusEnded            = enum.New(RaffleStatus(4), "ENDED")
	RaffleStatusCancelRequested  = enum.New(RaffleStatus(5), "CANCEL_REQUESTED")
	RaffleStatusCancelled        = enum.New(RaffleStatus(6), "CANCELLED")
)

// Raffle is never deleted; terminal raffles stay for audit.
type Raffle struct {
	ID        string `gorm:"primaryKey;size:66"`
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy Address

	Type   RaffleType
	Status RaffleStatus `gorm:"index"`

	MaxEntriesPerUser uint64
	CollateralAddress Address
	// CollateralID is the token id for NFT raffles and the staked amount for
	// ERC20 and native raffles.
	CollateralID BigInt

	Winner       Address
	RandomNumber uint64
	AmountRaised BigInt
	Seller       Address

	PlatformPercentage uint16
	CancellingDate     sql.NullTime

	MinimumFunds BigInt
	DesiredFunds BigInt

	// EntriesLength is the running number of entries sold or granted; it equals
	// the cumulative count of the last ledger record.
	EntriesLength uint64
	// EntryRecords is the number of ledger records, one per purchase or grant.
	EntryRecords uint64
}

type RafflePriceTier struct {
	RaffleID   string `gorm:"primaryKey;size:66"`
	Position   int    `gorm:"primaryKey;autoIncrement:false"`
	TierID     uint32
	EntryCount uint64
	Price      BigInt
}

type RaffleWhitelist struct {
	RaffleID   string  `gorm:"primaryKey;size:66"`
	Collection Address `gorm:"primaryKey;size:42"`
}

type RaffleEntry struct {
	RaffleID        string `gorm:"primaryKey;size:66;index:idx_raffle_entry_cumulative,priority:1"`
	Position        uint64 `gorm:"primaryKey;autoIncrement:false"`
	CumulativeCount uint64 `gorm:"index:idx_raffle_entry_cumulative,priority:2"`
	Buyer           Address
	CreatedAt       time.Time
}

type RaffleClaim struct {
	RaffleID     string  `gorm:"primaryKey;size:66"`
	Buyer        Address `gorm:"primaryKey;size:42"`
	EntriesOwned uint64
	AmountSpent  BigInt
	Refunded     bool
	UpdatedAt    time.Time
}

// RaffleAssetUse binds a whitelisted (collection, raffle, asset) triple to the
// first buyer who used it as entry proof.
type RaffleAssetUse struct {
	Collection Address `gorm:"primaryKey;size:42"`
	RaffleID   string  `gorm:"primaryKey;size:66"`
	AssetID    string  `gorm:"primaryKey;size:80"`
	Buyer      Address
	CreatedAt  time.Time
}

type RandomnessRequest struct {
	RequestID   string `gorm:"primaryKey;size:66"`
	RaffleID    string `gorm:"index;size:66"`
	EntriesSize uint64
	Seed        string
	CreatedAt   time.Time
}

// RafflePendingTransfer is a settlement payout that was not broadcast because
// an earlier transfer of the same batch had already gone out. Kind holds a
// custody asset kind.
type RafflePendingTransfer struct {
	ID        string `gorm:"primaryKey;size:36"`
	RaffleID  string `gorm:"index;size:66"`
	Position  int
	Kind      uint8
	Contract  Address
	Value     BigInt
	From      Address `gorm:"column:from_address"`
	To        Address `gorm:"column:to_address"`
	CreatedAt time.Time
}
