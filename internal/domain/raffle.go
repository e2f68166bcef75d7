package domain

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	rafflecommon "github.com/questx-lab/raffle/internal/common"
	"github.com/questx-lab/raffle/internal/domain/custody"
	"github.com/questx-lab/raffle/internal/domain/ledger"
	"github.com/questx-lab/raffle/internal/domain/rafflelock"
	"github.com/questx-lab/raffle/internal/domain/randomness"
	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/internal/model"
	"github.com/questx-lab/raffle/internal/repository"
	"github.com/questx-lab/raffle/pkg/dateutil"
	"github.com/questx-lab/raffle/pkg/enum"
	"github.com/questx-lab/raffle/pkg/errorx"
	"github.com/questx-lab/raffle/pkg/pubsub"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"gorm.io/gorm"
)

const (
	ClosureModeEarlyCashout  = "early_cashout"
	ClosureModeOperatorClose = "operator_close"
)

// RefundWindow is how long buyers of a cancelled raffle may claim refunds
// before the remaining funds can be swept.
const RefundWindow = 30 * 24 * time.Hour

type RaffleDomain interface {
	CreateRaffle(context.Context, *model.CreateRaffleRequest) (*model.CreateRaffleResponse, error)
	Stake(context.Context, *model.StakeRequest) (*model.StakeResponse, error)
	PurchaseEntries(context.Context, *model.PurchaseEntriesRequest) (*model.PurchaseEntriesResponse, error)
	GrantFreeEntries(context.Context, *model.GrantFreeEntriesRequest) (*model.GrantFreeEntriesResponse, error)
	RequestClosure(context.Context, *model.RequestClosureRequest) (*model.RequestClosureResponse, error)
	CancelRaffle(context.Context, *model.CancelRaffleRequest) (*model.CancelRaffleResponse, error)
	ClaimRefund(context.Context, *model.ClaimRefundRequest) (*model.ClaimRefundResponse, error)
	SweepRemainingFunds(context.Context, *model.SweepRemainingFundsRequest) (*model.SweepRemainingFundsResponse, error)
	ResumeTransfers(context.Context, *model.ResumeTransfersRequest) (*model.ResumeTransfersResponse, error)

	GetRaffle(context.Context, *model.GetRaffleRequest) (*model.GetRaffleResponse, error)
	GetRaffles(context.Context, *model.GetRafflesRequest) (*model.GetRafflesResponse, error)
	GetClaim(context.Context, *model.GetClaimRequest) (*model.GetClaimResponse, error)
	GetEntries(context.Context, *model.GetEntriesRequest) (*model.GetEntriesResponse, error)
	GetWinner(context.Context, *model.GetWinnerRequest) (*model.GetWinnerResponse, error)

	OnRandomnessDelivered(context.Context, randomness.Delivery) error
	ConsumeRandomness(context.Context, <-chan randomness.Delivery)
}

type raffleDomain struct {
	raffleRepo     repository.RaffleRepository
	entryRepo      repository.RaffleEntryRepository
	claimRepo      repository.RaffleClaimRepository
	randomnessRepo repository.RandomnessRequestRepository
	transferRepo   repository.RafflePendingTransferRepository
	roleVerifier   *rafflecommon.RoleVerifier
	custodian      custody.Custodian
	randomness     randomness.Provider
	locker         rafflelock.Locker
	publisher      pubsub.Publisher
	clock          dateutil.Clock
}

func NewRaffleDomain(
	raffleRepo repository.RaffleRepository,
	entryRepo repository.RaffleEntryRepository,
	claimRepo repository.RaffleClaimRepository,
	randomnessRepo repository.RandomnessRequestRepository,
	transferRepo repository.RafflePendingTransferRepository,
	roleVerifier *rafflecommon.RoleVerifier,
	custodian custody.Custodian,
	randomnessProvider randomness.Provider,
	locker rafflelock.Locker,
	publisher pubsub.Publisher,
	clock dateutil.Clock,
) RaffleDomain {
	return &raffleDomain{
		raffleRepo:     raffleRepo,
		entryRepo:      entryRepo,
		claimRepo:      claimRepo,
		randomnessRepo: randomnessRepo,
		transferRepo:   transferRepo,
		roleVerifier:   roleVerifier,
		custodian:      custodian,
		randomness:     randomnessProvider,
		locker:         locker,
		publisher:      publisher,
		clock:          clock,
	}
}

func (d *raffleDomain) CreateRaffle(
	ctx context.Context, req *model.CreateRaffleRequest,
) (*model.CreateRaffleResponse, error) {
	if err := d.roleVerifier.Verify(ctx, entity.RoleOperator); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.Unauthorized, "Only operator can create raffle")
	}

	raffleType, err := enum.ToEnum[entity.RaffleType](req.Type)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Invalid raffle type: %v", err)
		return nil, errorx.New(errorx.InvalidParameter, "Invalid raffle type %s", req.Type)
	}

	if req.MaxEntriesPerUser == 0 {
		return nil, errorx.New(errorx.InvalidParameter, "Max entries per user must be positive")
	}

	if req.PlatformPercentage > ledger.MaxCommissionBps {
		return nil, errorx.New(errorx.InvalidParameter,
			"Platform percentage must be at most %d basis points", ledger.MaxCommissionBps)
	}

	if len(req.PriceTiers) == 0 {
		return nil, errorx.New(errorx.InvalidParameter, "Raffle needs at least one price tier")
	}

	if len(req.PriceTiers) > ledger.MaxPriceTiers {
		return nil, errorx.New(errorx.InvalidParameter, "Raffle has at most %d price tiers", ledger.MaxPriceTiers)
	}

	for i, t := range req.PriceTiers {
		if t.EntryCount == 0 {
			return nil, errorx.New(errorx.InvalidParameter, "Entry count of tier %d must be positive", i+1)
		}

		if _, err := parseAmount(t.Price); err != nil {
			return nil, errorx.New(errorx.InvalidParameter, "Invalid price of tier %d", i+1)
		}
	}

	collateralAddress := common.Address{}
	if raffleType != entity.RaffleTypeNativeToken {
		if !common.IsHexAddress(req.CollateralAddress) {
			return nil, errorx.New(errorx.InvalidParameter, "Invalid collateral address")
		}

		collateralAddress = common.HexToAddress(req.CollateralAddress)
	}

	collateralID, err := parseAmount(req.CollateralID)
	if err != nil {
		return nil, errorx.New(errorx.InvalidParameter, "Invalid collateral id")
	}

	if raffleType != entity.RaffleTypeNFT && collateralID.Sign() == 0 {
		return nil, errorx.New(errorx.InvalidParameter, "Collateral amount must be positive")
	}

	minimumFunds, err := parseAmount(req.MinimumFunds)
	if err != nil {
		return nil, errorx.New(errorx.InvalidParameter, "Invalid minimum funds")
	}

	desiredFunds, err := parseAmount(req.DesiredFunds)
	if err != nil {
		return nil, errorx.New(errorx.InvalidParameter, "Invalid desired funds")
	}

	if desiredFunds.Cmp(minimumFunds) < 0 {
		return nil, errorx.New(errorx.InvalidParameter, "Desired funds must not be less than minimum funds")
	}

	whitelist := []common.Address{}
	for _, w := range req.Whitelist {
		if !common.IsHexAddress(w) {
			return nil, errorx.New(errorx.InvalidParameter, "Invalid whitelist collection %s", w)
		}

		whitelist = append(whitelist, common.HexToAddress(w))
	}

	caller := xcontext.RequestAddress(ctx)
	raffle := &entity.Raffle{
		ID:                 raffleKey(raffleType, collateralAddress, collateralID, caller, d.clock.Now().UnixNano()),
		CreatedBy:          entity.NewAddress(caller),
		Type:               raffleType,
		Status:             entity.RaffleStatusCreated,
		MaxEntriesPerUser:  req.MaxEntriesPerUser,
		CollateralAddress:  entity.NewAddress(collateralAddress),
		CollateralID:       entity.NewBigInt(collateralID),
		AmountRaised:       entity.NewBigInt(nil),
		PlatformPercentage: req.PlatformPercentage,
		MinimumFunds:       entity.NewBigInt(minimumFunds),
		DesiredFunds:       entity.NewBigInt(desiredFunds),
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.raffleRepo.Create(ctx, raffle); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create raffle: %v", err)
		return nil, errorx.Unknown
	}

	tiers := []entity.RafflePriceTier{}
	for i, t := range req.PriceTiers {
		price, _ := parseAmount(t.Price)
		tiers = append(tiers, entity.RafflePriceTier{
			RaffleID:   raffle.ID,
			Position:   i,
			TierID:     t.TierID,
			EntryCount: t.EntryCount,
			Price:      entity.NewBigInt(price),
		})
	}

	if err := d.raffleRepo.CreatePriceTiers(ctx, tiers); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create price tiers: %v", err)
		return nil, errorx.Unknown
	}

	whitelistEntities := []entity.RaffleWhitelist{}
	for _, w := range whitelist {
		whitelistEntities = append(whitelistEntities, entity.RaffleWhitelist{
			RaffleID:   raffle.ID,
			Collection: entity.NewAddress(w),
		})
	}

	if err := d.raffleRepo.CreateWhitelist(ctx, whitelistEntities); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create whitelist: %v", err)
		return nil, errorx.New(errorx.InvalidParameter, "Duplicated whitelist collection")
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit raffle creation: %v", err)
		return nil, errorx.Unknown
	}

	countTransition(entity.RaffleStatusCreated)
	d.publishEvents(ctx, newRaffleCreatedEvent(raffle, tiers, whitelist))
	return &model.CreateRaffleResponse{ID: raffle.ID}, nil
}

func (d *raffleDomain) Stake(ctx context.Context, req *model.StakeRequest) (*model.StakeResponse, error) {
	value, err := parseAmount(req.Value)
	if err != nil {
		return nil, errorx.New(errorx.InvalidParameter, "Invalid value")
	}

	unlock, err := d.lock(ctx, req.RaffleID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	raffle, err := d.getRaffle(ctx, req.RaffleID)
	if err != nil {
		return nil, err
	}

	if raffle.Status != entity.RaffleStatusCreated {
		return nil, errorx.New(errorx.InvalidState, "Raffle is not waiting for collateral")
	}

	caller := xcontext.RequestAddress(ctx)
	collateral := collateralAsset(raffle)
	switch raffle.Type {
	case entity.RaffleTypeNFT:
		if value.Sign() != 0 {
			return nil, errorx.New(errorx.InvalidParameter, "NFT raffle does not accept native value")
		}

		if err := d.custodian.VerifyOwnership(ctx, collateral, caller); err != nil {
			xcontext.Logger(ctx).Debugf("Collateral is not owned by caller: %v", err)
			return nil, errorx.New(errorx.Unauthorized, "Caller does not own the collateral")
		}

	case entity.RaffleTypeERC20:
		if value.Sign() != 0 {
			return nil, errorx.New(errorx.InvalidParameter, "ERC20 raffle does not accept native value")
		}

	case entity.RaffleTypeNativeToken:
		if value.Cmp(raffle.CollateralID.Big()) != 0 {
			return nil, errorx.New(errorx.InvalidParameter, "Value must equal the collateral amount")
		}
	}

	err = d.raffleRepo.UpdateIfStatus(ctx, raffle.ID, entity.RaffleStatusCreated, map[string]any{
		"status": entity.RaffleStatusAccepted,
		"seller": entity.NewAddress(caller),
	})
	if err != nil {
		return nil, d.updateError(ctx, err)
	}

	err = d.custodian.Transfer(ctx, custody.Transfer{Asset: collateral, From: caller, To: escrowAddress(ctx)})
	if err != nil {
		return nil, transferError(ctx, "stake", err)
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit stake: %v", err)
		return nil, errorx.Unknown
	}

	countTransition(entity.RaffleStatusAccepted)
	d.publishEvents(ctx, newStakedEvent(raffle, caller))
	return &model.StakeResponse{}, nil
}

func (d *raffleDomain) PurchaseEntries(
	ctx context.Context, req *model.PurchaseEntriesRequest,
) (*model.PurchaseEntriesResponse, error) {
	payment, err := parseAmount(req.Payment)
	if err != nil {
		return nil, errorx.New(errorx.InvalidParameter, "Invalid payment")
	}

	unlock, err := d.lock(ctx, req.RaffleID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	raffle, err := d.getRaffle(ctx, req.RaffleID)
	if err != nil {
		return nil, err
	}

	if raffle.Status != entity.RaffleStatusAccepted {
		return nil, errorx.New(errorx.InvalidState, "Raffle is not accepting entries")
	}

	buyer := xcontext.RequestAddress(ctx)
	if err := d.useWhitelistProof(ctx, raffle, buyer, req.WhitelistProof); err != nil {
		return nil, err
	}

	tiers, err := d.raffleRepo.GetPriceTiers(ctx, raffle.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get price tiers: %v", err)
		return nil, errorx.Unknown
	}

	tier, ok := ledger.FindTier(convertLedgerTiers(tiers), req.TierID)
	if !ok || tier.EntryCount == 0 {
		return nil, errorx.New(errorx.InvalidParameter, "Not found price tier %d", req.TierID)
	}

	if payment.Cmp(tier.Price) != 0 {
		return nil, errorx.New(errorx.PriceMismatch, "Payment must be exactly %s", tier.Price)
	}

	claim, err := d.getClaimOrEmpty(ctx, raffle.ID, buyer)
	if err != nil {
		return nil, err
	}

	if claim.EntriesOwned >= raffle.MaxEntriesPerUser ||
		tier.EntryCount > raffle.MaxEntriesPerUser-claim.EntriesOwned {
		return nil, errorx.New(errorx.CapExceeded, "Buyer can own at most %d entries", raffle.MaxEntriesPerUser)
	}

	entry := &entity.RaffleEntry{
		RaffleID:        raffle.ID,
		Position:        raffle.EntryRecords,
		CumulativeCount: raffle.EntriesLength + tier.EntryCount,
		Buyer:           entity.NewAddress(buyer),
	}
	if err := d.entryRepo.Append(ctx, entry); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot append entry: %v", err)
		return nil, errorx.Unknown
	}

	amountRaised := new(big.Int).Add(raffle.AmountRaised.Big(), payment)
	err = d.raffleRepo.UpdateIfStatus(ctx, raffle.ID, entity.RaffleStatusAccepted, map[string]any{
		"entries_length": entry.CumulativeCount,
		"entry_records":  raffle.EntryRecords + 1,
		"amount_raised":  entity.NewBigInt(amountRaised),
	})
	if err != nil {
		return nil, d.updateError(ctx, err)
	}

	claim.EntriesOwned += tier.EntryCount
	claim.AmountSpent = entity.NewBigInt(new(big.Int).Add(claim.AmountSpent.Big(), payment))
	if err := d.claimRepo.Upsert(ctx, claim); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update claim: %v", err)
		return nil, errorx.Unknown
	}

	if payment.Sign() > 0 {
		err := d.custodian.Transfer(ctx, custody.Transfer{
			Asset: custody.Native(payment),
			From:  buyer,
			To:    escrowAddress(ctx),
		})
		if err != nil {
			return nil, transferError(ctx, "purchase", err)
		}
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit purchase: %v", err)
		return nil, errorx.Unknown
	}

	rafflecommon.PromCounters[rafflecommon.RaffleEntriesTotal].WithLabelValues("purchase").Add(float64(tier.EntryCount))
	d.publishEvents(ctx, newEntriesPurchasedEvent(raffle.ID, entry, tier, claim, amountRaised))
	return &model.PurchaseEntriesResponse{
		Position:        entry.Position,
		CumulativeCount: entry.CumulativeCount,
		EntriesOwned:    claim.EntriesOwned,
	}, nil
}

func (d *raffleDomain) GrantFreeEntries(
	ctx context.Context, req *model.GrantFreeEntriesRequest,
) (*model.GrantFreeEntriesResponse, error) {
	if err := d.roleVerifier.Verify(ctx, entity.RoleOperator); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.Unauthorized, "Only operator can grant free entries")
	}

	buyers := []common.Address{}
	for _, b := range req.Buyers {
		if !common.IsHexAddress(b) {
			return nil, errorx.New(errorx.InvalidParameter, "Invalid buyer address %s", b)
		}

		buyers = append(buyers, common.HexToAddress(b))
	}

	unlock, err := d.lock(ctx, req.RaffleID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	raffle, err := d.getRaffle(ctx, req.RaffleID)
	if err != nil {
		return nil, err
	}

	if raffle.Status != entity.RaffleStatusAccepted {
		return nil, errorx.New(errorx.InvalidState, "Raffle is not accepting entries")
	}

	resp := &model.GrantFreeEntriesResponse{Granted: []string{}, Skipped: []string{}}
	entries := []*entity.RaffleEntry{}
	entriesLength, entryRecords := raffle.EntriesLength, raffle.EntryRecords
	for _, buyer := range buyers {
		claim, err := d.getClaimOrEmpty(ctx, raffle.ID, buyer)
		if err != nil {
			return nil, err
		}

		if claim.EntriesOwned >= raffle.MaxEntriesPerUser {
			resp.Skipped = append(resp.Skipped, buyer.Hex())
			continue
		}

		entriesLength++
		entry := &entity.RaffleEntry{
			RaffleID:        raffle.ID,
			Position:        entryRecords,
			CumulativeCount: entriesLength,
			Buyer:           entity.NewAddress(buyer),
		}
		entryRecords++

		if err := d.entryRepo.Append(ctx, entry); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot append free entry: %v", err)
			return nil, errorx.Unknown
		}

		claim.EntriesOwned++
		if err := d.claimRepo.Upsert(ctx, claim); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot update claim: %v", err)
			return nil, errorx.Unknown
		}

		entries = append(entries, entry)
		resp.Granted = append(resp.Granted, buyer.Hex())
	}

	if len(entries) > 0 {
		err = d.raffleRepo.UpdateIfStatus(ctx, raffle.ID, entity.RaffleStatusAccepted, map[string]any{
			"entries_length": entriesLength,
			"entry_records":  entryRecords,
		})
		if err != nil {
			return nil, d.updateError(ctx, err)
		}
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit free entries: %v", err)
		return nil, errorx.Unknown
	}

	rafflecommon.PromCounters[rafflecommon.RaffleEntriesTotal].WithLabelValues("free").Add(float64(len(entries)))
	events := []raffleEvent{}
	for _, e := range entries {
		events = append(events, newFreeEntryGrantedEvent(raffle.ID, e))
	}
	d.publishEvents(ctx, events...)

	return resp, nil
}

func (d *raffleDomain) RequestClosure(
	ctx context.Context, req *model.RequestClosureRequest,
) (*model.RequestClosureResponse, error) {
	if req.Mode != ClosureModeEarlyCashout && req.Mode != ClosureModeOperatorClose {
		return nil, errorx.New(errorx.InvalidParameter, "Invalid closure mode %s", req.Mode)
	}

	if req.Mode == ClosureModeOperatorClose {
		if err := d.roleVerifier.Verify(ctx, entity.RoleOperator); err != nil {
			xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
			return nil, errorx.New(errorx.Unauthorized, "Only operator can close raffle")
		}
	}

	unlock, err := d.lock(ctx, req.RaffleID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	raffle, err := d.getRaffle(ctx, req.RaffleID)
	if err != nil {
		return nil, err
	}

	var newStatus entity.RaffleStatus
	switch req.Mode {
	case ClosureModeEarlyCashout:
		if raffle.Seller.Address != xcontext.RequestAddress(ctx) {
			return nil, errorx.New(errorx.Unauthorized, "Only seller can cash out early")
		}

		if raffle.Status != entity.RaffleStatusAccepted {
			return nil, errorx.New(errorx.InvalidState, "Raffle is not accepting entries")
		}

		if raffle.AmountRaised.Big().Cmp(raffle.MinimumFunds.Big()) < 0 {
			return nil, errorx.New(errorx.InsufficientFunds, "Minimum funds are not reached")
		}

		newStatus = entity.RaffleStatusEarlyCashout

	case ClosureModeOperatorClose:
		if raffle.Status == entity.RaffleStatusClosingRequested || raffle.Status == entity.RaffleStatusEarlyCashout {
			return d.resendRandomnessRequest(ctx, raffle)
		}

		if raffle.Status != entity.RaffleStatusAccepted {
			return nil, errorx.New(errorx.InvalidState, "Raffle is not accepting entries")
		}

		if raffle.AmountRaised.Big().Cmp(raffle.DesiredFunds.Big()) < 0 {
			return nil, errorx.New(errorx.InsufficientFunds, "Desired funds are not reached")
		}

		newStatus = entity.RaffleStatusClosingRequested
	}

	if raffle.EntriesLength == 0 {
		return nil, errorx.New(errorx.EmptyLedger, "Raffle has no entries")
	}

	err = d.raffleRepo.UpdateIfStatus(ctx, raffle.ID, entity.RaffleStatusAccepted, map[string]any{
		"status": newStatus,
	})
	if err != nil {
		return nil, d.updateError(ctx, err)
	}

	seed := randomnessSeed(raffle.ID, raffle.EntriesLength)
	request := &entity.RandomnessRequest{
		RequestID:   uuid.NewString(),
		RaffleID:    raffle.ID,
		EntriesSize: raffle.EntriesLength,
		Seed:        common.Bytes2Hex(seed),
	}
	if err := d.randomnessRepo.Create(ctx, request); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot save randomness request: %v", err)
		return nil, errorx.Unknown
	}

	// The request must be committed before the provider can answer it.
	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit closure request: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.randomness.RequestRandom(ctx, request.RequestID, seed); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot request randomness: %v", err)
		d.revertClosure(ctx, raffle.ID, newStatus, request.RequestID)
		return nil, errorx.New(errorx.Unavailable, "Randomness provider is unavailable")
	}

	countTransition(newStatus)
	d.publishEvents(ctx, newClosureRequestedEvent(raffle, newStatus, request))
	return &model.RequestClosureResponse{RequestID: request.RequestID, Status: enum.ToString(newStatus)}, nil
}

// revertClosure puts a raffle back to ACCEPTED after its randomness request
// could not be sent. If the revert fails, the raffle keeps waiting and an
// operator close resends the request.
func (d *raffleDomain) revertClosure(
	ctx context.Context, raffleID string, status entity.RaffleStatus, requestID string,
) {
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.randomnessRepo.Consume(ctx, requestID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot drop unsent randomness request %s: %v", requestID, err)
		return
	}

	err := d.raffleRepo.UpdateIfStatus(ctx, raffleID, status, map[string]any{
		"status": entity.RaffleStatusAccepted,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot revert closure of raffle %s: %v", raffleID, err)
		return
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit closure revert of raffle %s: %v", raffleID, err)
	}
}

// resendRandomnessRequest asks the provider again for the pending request of
// a raffle waiting for its winner. A second delivery for the same request is
// rejected when it arrives.
func (d *raffleDomain) resendRandomnessRequest(
	ctx context.Context, raffle *entity.Raffle,
) (*model.RequestClosureResponse, error) {
	pending, err := d.randomnessRepo.GetPendingByRaffleID(ctx, raffle.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.InvalidState, "Raffle has no pending randomness request")
		}

		xcontext.Logger(ctx).Errorf("Cannot get pending randomness request: %v", err)
		return nil, errorx.Unknown
	}

	// Nothing is written, release the connection before calling out.
	xcontext.WithRollbackDBTransaction(ctx)

	if err := d.randomness.RequestRandom(ctx, pending.RequestID, common.Hex2Bytes(pending.Seed)); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot resend randomness request %s: %v", pending.RequestID, err)
		return nil, errorx.New(errorx.Unavailable, "Randomness provider is unavailable")
	}

	xcontext.Logger(ctx).Infof("Resent randomness request %s of raffle %s", pending.RequestID, raffle.ID)
	return &model.RequestClosureResponse{
		RequestID: pending.RequestID,
		Status:    enum.ToString(raffle.Status),
	}, nil
}

func (d *raffleDomain) CancelRaffle(
	ctx context.Context, req *model.CancelRaffleRequest,
) (*model.CancelRaffleResponse, error) {
	if err := d.roleVerifier.Verify(ctx, entity.RoleOperator); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.Unauthorized, "Only operator can cancel raffle")
	}

	unlock, err := d.lock(ctx, req.RaffleID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	raffle, err := d.getRaffle(ctx, req.RaffleID)
	if err != nil {
		return nil, err
	}

	if raffle.Status != entity.RaffleStatusCreated && raffle.Status != entity.RaffleStatusAccepted {
		return nil, errorx.New(errorx.InvalidState, "Raffle cannot be cancelled in status %s",
			enum.ToString(raffle.Status))
	}

	now := d.clock.Now()
	err = d.raffleRepo.UpdateIfStatus(ctx, raffle.ID, raffle.Status, map[string]any{
		"status":          entity.RaffleStatusCancelRequested,
		"cancelling_date": sql.NullTime{Time: now, Valid: true},
	})
	if err != nil {
		return nil, d.updateError(ctx, err)
	}

	if raffle.Status == entity.RaffleStatusAccepted {
		err := d.custodian.Transfer(ctx, custody.Transfer{
			Asset: collateralAsset(raffle),
			From:  escrowAddress(ctx),
			To:    raffle.Seller.Address,
		})
		if err != nil {
			return nil, transferError(ctx, "cancel", err)
		}
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit cancellation: %v", err)
		return nil, errorx.Unknown
	}

	countTransition(entity.RaffleStatusCancelRequested)
	d.publishEvents(ctx, newCancelledEvent(raffle, now))
	return &model.CancelRaffleResponse{}, nil
}

func (d *raffleDomain) ClaimRefund(
	ctx context.Context, req *model.ClaimRefundRequest,
) (*model.ClaimRefundResponse, error) {
	unlock, err := d.lock(ctx, req.RaffleID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	raffle, err := d.getRaffle(ctx, req.RaffleID)
	if err != nil {
		return nil, err
	}

	if raffle.Status != entity.RaffleStatusCancelRequested {
		return nil, errorx.New(errorx.InvalidState, "Raffle is not cancelled")
	}

	if !dateutil.WithinWindow(d.clock.Now(), raffle.CancellingDate.Time, RefundWindow) {
		return nil, errorx.New(errorx.WindowExpired, "Refund window has expired")
	}

	buyer := xcontext.RequestAddress(ctx)
	claim, err := d.claimRepo.Get(ctx, raffle.ID, entity.NewAddress(buyer))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.InvalidParameter, "Caller has no entries in this raffle")
		}

		xcontext.Logger(ctx).Errorf("Cannot get claim: %v", err)
		return nil, errorx.Unknown
	}

	if claim.Refunded {
		return nil, errorx.New(errorx.AlreadyClaimed, "Refund is already claimed")
	}

	if err := d.claimRepo.MarkRefunded(ctx, raffle.ID, claim.Buyer); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.AlreadyClaimed, "Refund is already claimed")
		}

		xcontext.Logger(ctx).Errorf("Cannot mark claim as refunded: %v", err)
		return nil, errorx.Unknown
	}

	amount := claim.AmountSpent.Big()
	amountRaised := new(big.Int).Sub(raffle.AmountRaised.Big(), amount)
	if amountRaised.Sign() < 0 {
		xcontext.Logger(ctx).Errorf("Refund of %s exceeds amount raised %s of raffle %s",
			amount, raffle.AmountRaised, raffle.ID)
		return nil, errorx.Unknown
	}

	err = d.raffleRepo.UpdateIfStatus(ctx, raffle.ID, entity.RaffleStatusCancelRequested, map[string]any{
		"amount_raised": entity.NewBigInt(amountRaised),
	})
	if err != nil {
		return nil, d.updateError(ctx, err)
	}

	if amount.Sign() > 0 {
		err := d.custodian.Transfer(ctx, custody.Transfer{
			Asset: custody.Native(amount),
			From:  escrowAddress(ctx),
			To:    buyer,
		})
		if err != nil {
			return nil, transferError(ctx, "refund", err)
		}
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit refund of %s to %s after transfer: %v", amount, buyer.Hex(), err)
		return nil, errorx.Unknown
	}

	rafflecommon.PromCounters[rafflecommon.RafflePayoutTotal].WithLabelValues("refund").Inc()
	d.publishEvents(ctx, newRefundedEvent(raffle.ID, buyer, amount, amountRaised))
	return &model.ClaimRefundResponse{Amount: amount.String()}, nil
}

func (d *raffleDomain) SweepRemainingFunds(
	ctx context.Context, req *model.SweepRemainingFundsRequest,
) (*model.SweepRemainingFundsResponse, error) {
	if err := d.roleVerifier.Verify(ctx, entity.RoleOperator); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.Unauthorized, "Only operator can sweep funds")
	}

	unlock, err := d.lock(ctx, req.RaffleID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	raffle, err := d.getRaffle(ctx, req.RaffleID)
	if err != nil {
		return nil, err
	}

	if raffle.Status != entity.RaffleStatusCancelRequested {
		return nil, errorx.New(errorx.InvalidState, "Raffle is not cancelled")
	}

	if dateutil.WithinWindow(d.clock.Now(), raffle.CancellingDate.Time, RefundWindow) {
		return nil, errorx.New(errorx.WindowNotYetExpired, "Refund window is still open")
	}

	amount := raffle.AmountRaised.Big()
	err = d.raffleRepo.UpdateIfStatus(ctx, raffle.ID, entity.RaffleStatusCancelRequested, map[string]any{
		"status":        entity.RaffleStatusCancelled,
		"amount_raised": entity.NewBigInt(nil),
	})
	if err != nil {
		return nil, d.updateError(ctx, err)
	}

	if amount.Sign() > 0 {
		err := d.custodian.Transfer(ctx, custody.Transfer{
			Asset: custody.Native(amount),
			From:  escrowAddress(ctx),
			To:    platformWallet(ctx),
		})
		if err != nil {
			return nil, transferError(ctx, "sweep", err)
		}
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit sweep of %s from raffle %s after transfer: %v", amount, raffle.ID, err)
		return nil, errorx.Unknown
	}

	countTransition(entity.RaffleStatusCancelled)
	rafflecommon.PromCounters[rafflecommon.RafflePayoutTotal].WithLabelValues("sweep").Inc()
	d.publishEvents(ctx, newSweptEvent(raffle.ID, amount))
	return &model.SweepRemainingFundsResponse{Amount: amount.String()}, nil
}

// ResumeTransfers broadcasts the settlement payouts left behind by a batch
// that stopped partway. Each payout is removed once sent, so calling it again
// after a failure only retries what is still pending.
func (d *raffleDomain) ResumeTransfers(
	ctx context.Context, req *model.ResumeTransfersRequest,
) (*model.ResumeTransfersResponse, error) {
	if err := d.roleVerifier.Verify(ctx, entity.RoleOperator); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return nil, errorx.New(errorx.Unauthorized, "Only operator can resume transfers")
	}

	unlock, err := d.lock(ctx, req.RaffleID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	pending, err := d.transferRepo.GetByRaffleID(ctx, req.RaffleID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get pending transfers: %v", err)
		return nil, errorx.Unknown
	}

	if len(pending) == 0 {
		return nil, errorx.New(errorx.NotFound, "No pending transfers")
	}

	sent := 0
	var sendErr error
	for _, p := range pending {
		if sendErr = d.custodian.Transfer(ctx, pendingToTransfer(p)); sendErr != nil {
			break
		}

		if err := d.transferRepo.Delete(ctx, p.ID); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot delete pending transfer %s after sending it: %v", p.ID, err)
			return nil, errorx.Unknown
		}
		sent++
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit %d resumed transfers of raffle %s: %v", sent, req.RaffleID, err)
		return nil, errorx.Unknown
	}

	remaining := len(pending) - sent
	if sent > 0 {
		rafflecommon.PromCounters[rafflecommon.RafflePayoutTotal].WithLabelValues("resume").Add(float64(sent))
		d.publishEvents(ctx, newTransfersResumedEvent(req.RaffleID, sent, remaining))
	}

	if sendErr != nil {
		return nil, transferError(ctx, "resume", sendErr)
	}

	return &model.ResumeTransfersResponse{Sent: sent, Remaining: remaining}, nil
}

func (d *raffleDomain) savePendingTransfers(ctx context.Context, raffleID string, transfers []custody.Transfer) error {
	rows := make([]entity.RafflePendingTransfer, 0, len(transfers))
	for i, t := range transfers {
		rows = append(rows, entity.RafflePendingTransfer{
			ID:       uuid.NewString(),
			RaffleID: raffleID,
			Position: i,
			Kind:     uint8(t.Asset.Kind),
			Contract: entity.NewAddress(t.Asset.Contract),
			Value:    entity.NewBigInt(t.Asset.Value),
			From:     entity.NewAddress(t.From),
			To:       entity.NewAddress(t.To),
		})
	}

	if err := d.transferRepo.Create(ctx, rows); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot save %d unsent transfers of raffle %s: %v", len(rows), raffleID, err)
		return errorx.Unknown
	}

	return nil
}

func pendingToTransfer(p entity.RafflePendingTransfer) custody.Transfer {
	return custody.Transfer{
		Asset: custody.Asset{
			Kind:     custody.AssetKind(p.Kind),
			Contract: p.Contract.Address,
			Value:    p.Value.Big(),
		},
		From: p.From.Address,
		To:   p.To.Address,
	}
}

// OnRandomnessDelivered consumes the pending request and settles its raffle
// in one transaction. If settlement fails the request stays pending, so the
// same delivery can be replayed.
func (d *raffleDomain) OnRandomnessDelivered(ctx context.Context, delivery randomness.Delivery) error {
	if delivery.Value == nil || delivery.Value.Sign() < 0 {
		return errorx.New(errorx.InvalidParameter, "Invalid random value")
	}

	request, err := d.randomnessRepo.GetByID(ctx, delivery.RequestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.UnknownRequest, "Unknown randomness request %s", delivery.RequestID)
		}

		xcontext.Logger(ctx).Errorf("Cannot get randomness request: %v", err)
		return errorx.Unknown
	}

	unlock, err := d.lock(ctx, request.RaffleID)
	if err != nil {
		return err
	}
	defer unlock()

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.randomnessRepo.Consume(ctx, request.RequestID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.UnknownRequest, "Randomness request %s is already consumed", request.RequestID)
		}

		xcontext.Logger(ctx).Errorf("Cannot consume randomness request: %v", err)
		return errorx.Unknown
	}

	normalized, err := ledger.NormalizeRandom(delivery.Value, request.EntriesSize)
	if err != nil {
		return errorx.New(errorx.EmptyLedger, "Raffle has no entries")
	}

	event, err := d.settle(ctx, request.RaffleID, normalized)
	if err != nil {
		return err
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit settlement of raffle %s after payout: %v", request.RaffleID, err)
		return errorx.Unknown
	}

	countTransition(entity.RaffleStatusEnded)
	rafflecommon.PromCounters[rafflecommon.RafflePayoutTotal].WithLabelValues("settlement").Inc()
	d.publishEvents(ctx, event)
	return nil
}

// settle must run inside the caller's transaction and raffle lock.
func (d *raffleDomain) settle(ctx context.Context, raffleID string, normalized uint64) (raffleEvent, error) {
	raffle, err := d.getRaffle(ctx, raffleID)
	if err != nil {
		return raffleEvent{}, err
	}

	if raffle.Status != entity.RaffleStatusEarlyCashout && raffle.Status != entity.RaffleStatusClosingRequested {
		return raffleEvent{}, errorx.New(errorx.InvalidState, "Raffle is not waiting for a winner")
	}

	winner, err := d.selectWinner(ctx, raffle, normalized)
	if err != nil {
		return raffleEvent{}, err
	}

	err = d.raffleRepo.UpdateIfStatus(ctx, raffle.ID, raffle.Status, map[string]any{
		"status":        entity.RaffleStatusEnded,
		"winner":        entity.NewAddress(winner),
		"random_number": normalized,
	})
	if err != nil {
		return raffleEvent{}, d.updateError(ctx, err)
	}

	escrow := escrowAddress(ctx)
	fee, sellerAmount := ledger.SplitFee(raffle.AmountRaised.Big(), raffle.PlatformPercentage)
	transfers := []custody.Transfer{
		{Asset: collateralAsset(raffle), From: escrow, To: winner},
	}

	if sellerAmount.Sign() > 0 {
		transfers = append(transfers, custody.Transfer{
			Asset: custody.Native(sellerAmount),
			From:  escrow,
			To:    raffle.Seller.Address,
		})
	}

	if fee.Sign() > 0 {
		transfers = append(transfers, custody.Transfer{
			Asset: custody.Native(fee),
			From:  escrow,
			To:    platformWallet(ctx),
		})
	}

	pending := 0
	if err := d.custodian.TransferBatch(ctx, transfers); err != nil {
		var partial *custody.PartialTransferError
		if !errors.As(err, &partial) {
			return raffleEvent{}, transferError(ctx, "settlement", err)
		}

		// Sent payouts cannot be recalled, so the raffle ends here and the
		// rest waits for ResumeTransfers.
		xcontext.Logger(ctx).Errorf("Settlement of raffle %s stopped after %d payouts: %v",
			raffle.ID, len(partial.Sent), partial.Err)
		rafflecommon.PromCounters[rafflecommon.RaffleTransferFailure].WithLabelValues("settlement_partial").Inc()
		if err := d.savePendingTransfers(ctx, raffle.ID, partial.Unsent); err != nil {
			return raffleEvent{}, err
		}
		pending = len(partial.Unsent)
	}

	return newSettledEvent(raffle, winner, normalized, fee, sellerAmount, pending), nil
}

// selectWinner returns the buyer of the leftmost ledger record whose
// cumulative count is at least drawn.
func (d *raffleDomain) selectWinner(ctx context.Context, raffle *entity.Raffle, drawn uint64) (common.Address, error) {
	if raffle.EntriesLength == 0 || raffle.EntryRecords == 0 {
		return common.Address{}, errorx.New(errorx.EmptyLedger, "Raffle has no entries")
	}

	if drawn == 0 || drawn > raffle.EntriesLength {
		xcontext.Logger(ctx).Errorf("Drawn number %d is out of [1, %d]", drawn, raffle.EntriesLength)
		return common.Address{}, errorx.New(errorx.InvalidParameter, "Drawn number is out of range")
	}

	position, err := ledger.LowerBound(raffle.EntryRecords, drawn, func(i uint64) (uint64, error) {
		entry, err := d.entryRepo.GetByPosition(ctx, raffle.ID, i)
		if err != nil {
			return 0, err
		}

		return entry.CumulativeCount, nil
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot search ledger: %v", err)
		return common.Address{}, errorx.Unknown
	}

	entry, err := d.entryRepo.GetByPosition(ctx, raffle.ID, position)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get winning entry: %v", err)
		return common.Address{}, errorx.Unknown
	}

	return entry.Buyer.Address, nil
}

// ConsumeRandomness settles raffles as deliveries arrive, until the channel is
// closed or ctx is done. A delivery whose raffle is busy is retried with
// backoff. Any other failed delivery is logged and skipped, and its request
// stays pending until an operator close resends it.
func (d *raffleDomain) ConsumeRandomness(ctx context.Context, deliveries <-chan randomness.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case delivery, ok := <-deliveries:
			if !ok {
				return
			}

			if err := d.deliverWithRetry(ctx, delivery); err != nil {
				var errx errorx.Error
				if errors.As(err, &errx) && errx.Code != errorx.Unknown.Code {
					xcontext.Logger(ctx).Warnf("Ignore randomness delivery %s: %v", delivery.RequestID, err)
				} else {
					xcontext.Logger(ctx).Errorf("Cannot handle randomness delivery %s: %v", delivery.RequestID, err)
				}
			}
		}
	}
}

func (d *raffleDomain) deliverWithRetry(ctx context.Context, delivery randomness.Delivery) error {
	cfg := xcontext.Configs(ctx).Randomness
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.RetryInterval.Duration
	b.MaxInterval = cfg.MaxRetryInterval.Duration
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.RetryNotify(
		func() error {
			err := d.OnRandomnessDelivered(ctx, delivery)
			if err == nil || errors.Is(err, errorx.Error{Code: errorx.Unavailable}) {
				return err
			}

			return backoff.Permanent(err)
		},
		backoff.WithContext(b, ctx),
		func(err error, next time.Duration) {
			xcontext.Logger(ctx).Debugf("Retry randomness delivery %s in %s: %v", delivery.RequestID, next, err)
		},
	)
}

func (d *raffleDomain) lock(ctx context.Context, raffleID string) (func(), error) {
	unlock, err := d.locker.TryLock(ctx, raffleID)
	if err != nil {
		if errors.Is(err, rafflelock.ErrLocked) {
			return nil, errorx.New(errorx.Unavailable, "Raffle is busy with another operation")
		}

		xcontext.Logger(ctx).Errorf("Cannot lock raffle: %v", err)
		return nil, errorx.Unknown
	}

	return unlock, nil
}

func (d *raffleDomain) getRaffle(ctx context.Context, raffleID string) (*entity.Raffle, error) {
	raffle, err := d.raffleRepo.GetByID(ctx, raffleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found raffle")
		}

		xcontext.Logger(ctx).Errorf("Cannot get raffle: %v", err)
		return nil, errorx.Unknown
	}

	return raffle, nil
}

func (d *raffleDomain) getClaimOrEmpty(
	ctx context.Context, raffleID string, buyer common.Address,
) (*entity.RaffleClaim, error) {
	claim, err := d.claimRepo.Get(ctx, raffleID, entity.NewAddress(buyer))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &entity.RaffleClaim{
				RaffleID:    raffleID,
				Buyer:       entity.NewAddress(buyer),
				AmountSpent: entity.NewBigInt(nil),
			}, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot get claim: %v", err)
		return nil, errorx.Unknown
	}

	return claim, nil
}

func (d *raffleDomain) useWhitelistProof(
	ctx context.Context, raffle *entity.Raffle, buyer common.Address, proof *model.WhitelistProof,
) error {
	whitelist, err := d.raffleRepo.GetWhitelist(ctx, raffle.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get whitelist: %v", err)
		return errorx.Unknown
	}

	if len(whitelist) == 0 {
		return nil
	}

	if proof == nil || !common.IsHexAddress(proof.Collection) {
		return errorx.New(errorx.InvalidParameter, "Raffle requires a whitelisted asset")
	}

	assetID, err := parseAmount(proof.AssetID)
	if err != nil {
		return errorx.New(errorx.InvalidParameter, "Invalid asset id")
	}

	collection := entity.NewAddress(common.HexToAddress(proof.Collection))
	ok, err := d.raffleRepo.IsWhitelisted(ctx, raffle.ID, collection)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot check whitelist: %v", err)
		return errorx.Unknown
	}

	if !ok {
		return errorx.New(errorx.InvalidParameter, "Collection is not whitelisted")
	}

	if err := d.custodian.VerifyOwnership(ctx, custody.ERC721(collection.Address, assetID), buyer); err != nil {
		xcontext.Logger(ctx).Debugf("Whitelisted asset is not owned by buyer: %v", err)
		return errorx.New(errorx.Unauthorized, "Buyer does not own the whitelisted asset")
	}

	use, err := d.raffleRepo.GetAssetUse(ctx, collection, raffle.ID, assetID.String())
	if err == nil {
		if use.Buyer.Address != buyer {
			return errorx.New(errorx.AssetAlreadyUsed, "Asset is already used by another buyer")
		}

		return nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get asset use: %v", err)
		return errorx.Unknown
	}

	err = d.raffleRepo.CreateAssetUse(ctx, &entity.RaffleAssetUse{
		Collection: collection,
		RaffleID:   raffle.ID,
		AssetID:    assetID.String(),
		Buyer:      entity.NewAddress(buyer),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot save asset use: %v", err)
		return errorx.Unknown
	}

	return nil
}

// updateError converts a failed conditional update. The raffle lock makes a
// status race impossible, so a missed row means the raffle changed elsewhere.
func (d *raffleDomain) updateError(ctx context.Context, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorx.New(errorx.InvalidState, "Raffle status has changed")
	}

	xcontext.Logger(ctx).Errorf("Cannot update raffle: %v", err)
	return errorx.Unknown
}

func transferError(ctx context.Context, operation string, err error) error {
	xcontext.Logger(ctx).Warnf("Custody transfer failed in %s: %v", operation, err)
	rafflecommon.PromCounters[rafflecommon.RaffleTransferFailure].WithLabelValues(operation).Inc()
	return errorx.New(errorx.TransferFailed, "Cannot transfer assets")
}

func countTransition(status entity.RaffleStatus) {
	rafflecommon.PromCounters[rafflecommon.RaffleTransitionTotal].WithLabelValues(enum.ToString(status)).Inc()
}

func collateralAsset(raffle *entity.Raffle) custody.Asset {
	switch raffle.Type {
	case entity.RaffleTypeNFT:
		return custody.ERC721(raffle.CollateralAddress.Address, raffle.CollateralID.Big())
	case entity.RaffleTypeERC20:
		return custody.ERC20(raffle.CollateralAddress.Address, raffle.CollateralID.Big())
	default:
		return custody.Native(raffle.CollateralID.Big())
	}
}

func escrowAddress(ctx context.Context) common.Address {
	return common.HexToAddress(xcontext.Configs(ctx).Raffle.EscrowAddress)
}

func platformWallet(ctx context.Context) common.Address {
	return common.HexToAddress(xcontext.Configs(ctx).Raffle.PlatformWallet)
}

// raffleKey is computed once at creation. The random salt keeps two raffles
// created in the same nanosecond apart.
func raffleKey(
	raffleType entity.RaffleType,
	collateral common.Address,
	collateralID *big.Int,
	caller common.Address,
	timestamp int64,
) string {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(timestamp))
	salt := uuid.New()

	return crypto.Keccak256Hash(
		[]byte{byte(raffleType)},
		collateral.Bytes(),
		common.LeftPadBytes(collateralID.Bytes(), 32),
		caller.Bytes(),
		ts[:],
		salt[:],
	).Hex()
}

func randomnessSeed(raffleID string, entriesSize uint64) []byte {
	var size [8]byte
	binary.BigEndian.PutUint64(size[:], entriesSize)
	return crypto.Keccak256([]byte(raffleID), size[:])
}

// parseAmount parses a non-negative decimal integer. Empty means zero.
func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}

	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.New("invalid integer")
	}

	if v.Sign() < 0 {
		return nil, errors.New("negative amount")
	}

	return v, nil
}
