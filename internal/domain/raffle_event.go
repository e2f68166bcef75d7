package domain

import (
	"context"
	"encoding/json"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/structs"
	"github.com/questx-lab/raffle/internal/domain/ledger"
	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/pkg/enum"
	"github.com/questx-lab/raffle/pkg/pubsub"
	"github.com/questx-lab/raffle/pkg/xcontext"
)

const (
	EventRaffleCreated      = "raffle_created"
	EventRaffleStaked       = "raffle_staked"
	EventEntriesPurchased   = "entries_purchased"
	EventFreeEntryGranted   = "free_entry_granted"
	EventClosureRequested   = "closure_requested"
	EventRaffleSettled      = "raffle_settled"
	EventRaffleCancelled    = "raffle_cancelled"
	EventRefundClaimed      = "refund_claimed"
	EventRemainingFundSwept = "remaining_funds_swept"
	EventTransfersResumed   = "transfers_resumed"
)

// raffleEvent is an observable record of a state change. Data is a struct
// with structs tags.
type raffleEvent struct {
	Name     string
	RaffleID string
	Data     any
}

type raffleCreatedData struct {
	Type               string   `structs:"type"`
	CreatedBy          string   `structs:"created_by"`
	CollateralAddress  string   `structs:"collateral_address"`
	CollateralID       string   `structs:"collateral_id"`
	MaxEntriesPerUser  uint64   `structs:"max_entries_per_user"`
	PlatformPercentage uint16   `structs:"platform_percentage"`
	MinimumFunds       string   `structs:"minimum_funds"`
	DesiredFunds       string   `structs:"desired_funds"`
	TierIDs            []uint32 `structs:"tier_ids"`
	Whitelist          []string `structs:"whitelist"`
}

type stakedData struct {
	Seller string `structs:"seller"`
	Asset  string `structs:"asset"`
}

type entriesPurchasedData struct {
	Buyer           string `structs:"buyer"`
	TierID          uint32 `structs:"tier_id"`
	EntryCount      uint64 `structs:"entry_count"`
	Price           string `structs:"price"`
	Position        uint64 `structs:"position"`
	CumulativeCount uint64 `structs:"cumulative_count"`
	EntriesOwned    uint64 `structs:"entries_owned"`
	AmountRaised    string `structs:"amount_raised"`
}

type freeEntryGrantedData struct {
	Buyer           string `structs:"buyer"`
	Position        uint64 `structs:"position"`
	CumulativeCount uint64 `structs:"cumulative_count"`
}

type closureRequestedData struct {
	Status      string `structs:"status"`
	RequestID   string `structs:"request_id"`
	EntriesSize uint64 `structs:"entries_size"`
	Seed        string `structs:"seed"`
}

type settledData struct {
	Winner       string `structs:"winner"`
	RandomNumber uint64 `structs:"random_number"`
	AmountRaised string `structs:"amount_raised"`
	PlatformFee  string `structs:"platform_fee"`
	SellerAmount string `structs:"seller_amount"`

	PendingTransfers int `structs:"pending_transfers"`
}

type cancelledData struct {
	PreviousStatus string    `structs:"previous_status"`
	CancellingDate time.Time `structs:"cancelling_date,omitnested"`
}

type refundedData struct {
	Buyer        string `structs:"buyer"`
	Amount       string `structs:"amount"`
	AmountRaised string `structs:"amount_raised"`
}

type sweptData struct {
	Amount string `structs:"amount"`
}

type transfersResumedData struct {
	Sent      int `structs:"sent"`
	Remaining int `structs:"remaining"`
}

func newRaffleCreatedEvent(
	raffle *entity.Raffle, tiers []entity.RafflePriceTier, whitelist []common.Address,
) raffleEvent {
	data := raffleCreatedData{
		Type:               enum.ToString(raffle.Type),
		CreatedBy:          raffle.CreatedBy.Hex(),
		CollateralAddress:  raffle.CollateralAddress.Hex(),
		CollateralID:       raffle.CollateralID.String(),
		MaxEntriesPerUser:  raffle.MaxEntriesPerUser,
		PlatformPercentage: raffle.PlatformPercentage,
		MinimumFunds:       raffle.MinimumFunds.String(),
		DesiredFunds:       raffle.DesiredFunds.String(),
		TierIDs:            []uint32{},
		Whitelist:          []string{},
	}

	for _, t := range tiers {
		data.TierIDs = append(data.TierIDs, t.TierID)
	}

	for _, w := range whitelist {
		data.Whitelist = append(data.Whitelist, w.Hex())
	}

	return raffleEvent{Name: EventRaffleCreated, RaffleID: raffle.ID, Data: data}
}

func newStakedEvent(raffle *entity.Raffle, seller common.Address) raffleEvent {
	return raffleEvent{
		Name:     EventRaffleStaked,
		RaffleID: raffle.ID,
		Data:     stakedData{Seller: seller.Hex(), Asset: collateralAsset(raffle).String()},
	}
}

func newEntriesPurchasedEvent(
	raffleID string,
	entry *entity.RaffleEntry,
	tier ledger.Tier,
	claim *entity.RaffleClaim,
	amountRaised *big.Int,
) raffleEvent {
	return raffleEvent{
		Name:     EventEntriesPurchased,
		RaffleID: raffleID,
		Data: entriesPurchasedData{
			Buyer:           entry.Buyer.Hex(),
			TierID:          tier.ID,
			EntryCount:      tier.EntryCount,
			Price:           tier.Price.String(),
			Position:        entry.Position,
			CumulativeCount: entry.CumulativeCount,
			EntriesOwned:    claim.EntriesOwned,
			AmountRaised:    amountRaised.String(),
		},
	}
}

func newFreeEntryGrantedEvent(raffleID string, entry *entity.RaffleEntry) raffleEvent {
	return raffleEvent{
		Name:     EventFreeEntryGranted,
		RaffleID: raffleID,
		Data: freeEntryGrantedData{
			Buyer:           entry.Buyer.Hex(),
			Position:        entry.Position,
			CumulativeCount: entry.CumulativeCount,
		},
	}
}

func newClosureRequestedEvent(
	raffle *entity.Raffle, status entity.RaffleStatus, request *entity.RandomnessRequest,
) raffleEvent {
	return raffleEvent{
		Name:     EventClosureRequested,
		RaffleID: raffle.ID,
		Data: closureRequestedData{
			Status:      enum.ToString(status),
			RequestID:   request.RequestID,
			EntriesSize: request.EntriesSize,
			Seed:        request.Seed,
		},
	}
}

func newSettledEvent(
	raffle *entity.Raffle, winner common.Address, randomNumber uint64, fee, sellerAmount *big.Int, pending int,
) raffleEvent {
	return raffleEvent{
		Name:     EventRaffleSettled,
		RaffleID: raffle.ID,
		Data: settledData{
			Winner:       winner.Hex(),
			RandomNumber: randomNumber,
			AmountRaised: raffle.AmountRaised.String(),
			PlatformFee:  fee.String(),
			SellerAmount: sellerAmount.String(),

			PendingTransfers: pending,
		},
	}
}

func newCancelledEvent(raffle *entity.Raffle, cancellingDate time.Time) raffleEvent {
	return raffleEvent{
		Name:     EventRaffleCancelled,
		RaffleID: raffle.ID,
		Data: cancelledData{
			PreviousStatus: enum.ToString(raffle.Status),
			CancellingDate: cancellingDate,
		},
	}
}

func newRefundedEvent(raffleID string, buyer common.Address, amount, amountRaised *big.Int) raffleEvent {
	return raffleEvent{
		Name:     EventRefundClaimed,
		RaffleID: raffleID,
		Data: refundedData{
			Buyer:        buyer.Hex(),
			Amount:       amount.String(),
			AmountRaised: amountRaised.String(),
		},
	}
}

func newSweptEvent(raffleID string, amount *big.Int) raffleEvent {
	return raffleEvent{
		Name:     EventRemainingFundSwept,
		RaffleID: raffleID,
		Data:     sweptData{Amount: amount.String()},
	}
}

func newTransfersResumedEvent(raffleID string, sent, remaining int) raffleEvent {
	return raffleEvent{
		Name:     EventTransfersResumed,
		RaffleID: raffleID,
		Data:     transfersResumedData{Sent: sent, Remaining: remaining},
	}
}

// publishEvents runs after the state change is committed. A failed publish
// is logged and never undoes the operation.
func (d *raffleDomain) publishEvents(ctx context.Context, events ...raffleEvent) {
	if d.publisher == nil {
		return
	}

	topic := xcontext.Configs(ctx).Kafka.EventTopic
	for _, e := range events {
		msg, err := json.Marshal(map[string]any{
			"event":     e.Name,
			"raffle_id": e.RaffleID,
			"timestamp": d.clock.Now(),
			"data":      structs.Map(e.Data),
		})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot marshal event %s: %v", e.Name, err)
			continue
		}

		err = d.publisher.Publish(ctx, topic, &pubsub.Pack{Key: []byte(e.RaffleID), Msg: msg})
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot publish event %s of raffle %s: %v", e.Name, e.RaffleID, err)
		}
	}
}
