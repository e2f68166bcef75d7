package domain

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/internal/model"
	"github.com/questx-lab/raffle/internal/repository"
	"github.com/questx-lab/raffle/pkg/enum"
	"github.com/questx-lab/raffle/pkg/errorx"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"gorm.io/gorm"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

func pageLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}

	if limit > maxPageLimit {
		return maxPageLimit
	}

	return limit
}

func (d *raffleDomain) GetRaffle(ctx context.Context, req *model.GetRaffleRequest) (*model.GetRaffleResponse, error) {
	if req.RaffleID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow empty raffle id")
	}

	raffle, err := d.getRaffle(ctx, req.RaffleID)
	if err != nil {
		return nil, err
	}

	tiers, err := d.raffleRepo.GetPriceTiers(ctx, raffle.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get price tiers: %v", err)
		return nil, errorx.Unknown
	}

	whitelist, err := d.raffleRepo.GetWhitelist(ctx, raffle.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get whitelist: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetRaffleResponse{Raffle: convertRaffle(raffle, tiers, whitelist)}, nil
}

func (d *raffleDomain) GetRaffles(ctx context.Context, req *model.GetRafflesRequest) (*model.GetRafflesResponse, error) {
	filter := repository.RaffleFilter{Offset: req.Offset, Limit: pageLimit(req.Limit)}
	if req.Offset < 0 {
		return nil, errorx.New(errorx.BadRequest, "Offset must not be negative")
	}

	if req.Status != "" {
		status, err := enum.ToEnum[entity.RaffleStatus](req.Status)
		if err != nil {
			xcontext.Logger(ctx).Debugf("Invalid raffle status: %v", err)
			return nil, errorx.New(errorx.BadRequest, "Invalid raffle status %s", req.Status)
		}

		filter.Status = []entity.RaffleStatus{status}
	}

	if req.Seller != "" {
		if !common.IsHexAddress(req.Seller) {
			return nil, errorx.New(errorx.BadRequest, "Invalid seller address")
		}

		filter.Seller = common.HexToAddress(req.Seller).Hex()
	}

	raffles, err := d.raffleRepo.GetList(ctx, filter)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get raffle list: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetRafflesResponse{Raffles: []model.Raffle{}}
	for i := range raffles {
		resp.Raffles = append(resp.Raffles, convertRaffle(&raffles[i], nil, nil))
	}

	return resp, nil
}

func (d *raffleDomain) GetClaim(ctx context.Context, req *model.GetClaimRequest) (*model.GetClaimResponse, error) {
	buyer := xcontext.RequestAddress(ctx)
	if req.Buyer != "" {
		if !common.IsHexAddress(req.Buyer) {
			return nil, errorx.New(errorx.BadRequest, "Invalid buyer address")
		}

		buyer = common.HexToAddress(req.Buyer)
	}

	if buyer == (common.Address{}) {
		return nil, errorx.New(errorx.BadRequest, "Not allow empty buyer")
	}

	if _, err := d.getRaffle(ctx, req.RaffleID); err != nil {
		return nil, err
	}

	claim, err := d.claimRepo.Get(ctx, req.RaffleID, entity.NewAddress(buyer))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Buyer has no entries in this raffle")
		}

		xcontext.Logger(ctx).Errorf("Cannot get claim: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetClaimResponse{Claim: convertClaim(claim)}, nil
}

func (d *raffleDomain) GetEntries(ctx context.Context, req *model.GetEntriesRequest) (*model.GetEntriesResponse, error) {
	if req.Offset < 0 {
		return nil, errorx.New(errorx.BadRequest, "Offset must not be negative")
	}

	raffle, err := d.getRaffle(ctx, req.RaffleID)
	if err != nil {
		return nil, err
	}

	entries, err := d.entryRepo.GetList(ctx, raffle.ID, req.Offset, pageLimit(req.Limit))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get entries: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetEntriesResponse{Entries: []model.Entry{}, Total: raffle.EntryRecords}
	for i := range entries {
		resp.Entries = append(resp.Entries, convertEntry(&entries[i]))
	}

	return resp, nil
}

func (d *raffleDomain) GetWinner(ctx context.Context, req *model.GetWinnerRequest) (*model.GetWinnerResponse, error) {
	raffle, err := d.getRaffle(ctx, req.RaffleID)
	if err != nil {
		return nil, err
	}

	if raffle.Status != entity.RaffleStatusEnded {
		return nil, errorx.New(errorx.InvalidState, "Raffle has not ended")
	}

	return &model.GetWinnerResponse{
		Winner:       raffle.Winner.Hex(),
		RandomNumber: raffle.RandomNumber,
	}, nil
}
