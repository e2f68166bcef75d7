package model

import "time"

type PriceTier struct {
	TierID     uint32 `json:"tier_id"`
	EntryCount uint64 `json:"entry_count"`
	Price      string `json:"price"`
}

type WhitelistProof struct {
	Collection string `json:"collection"`
	AssetID    string `json:"asset_id"`
}

type Raffle struct {
	ID                 string      `json:"id"`
	Type               string      `json:"type"`
	Status             string      `json:"status"`
	MaxEntriesPerUser  uint64      `json:"max_entries_per_user"`
	CollateralAddress  string      `json:"collateral_address"`
	CollateralID       string      `json:"collateral_id"`
	Winner             string      `json:"winner,omitempty"`
	RandomNumber       uint64      `json:"random_number,omitempty"`
	AmountRaised       string      `json:"amount_raised"`
	Seller             string      `json:"seller,omitempty"`
	PlatformPercentage uint16      `json:"platform_percentage"`
	CancellingDate     *time.Time  `json:"cancelling_date,omitempty"`
	MinimumFunds       string      `json:"minimum_funds"`
	DesiredFunds       string      `json:"desired_funds"`
	EntriesLength      uint64      `json:"entries_length"`
	PriceTiers         []PriceTier `json:"price_tiers"`
	Whitelist          []string    `json:"whitelist"`
	CreatedBy          string      `json:"created_by"`
	CreatedAt          time.Time   `json:"created_at"`
}

type Entry struct {
	Position        uint64 `json:"position"`
	CumulativeCount uint64 `json:"cumulative_count"`
	Buyer           string `json:"buyer"`
}

type Claim struct {
	RaffleID     string `json:"raffle_id"`
	Buyer        string `json:"buyer"`
	EntriesOwned uint64 `json:"entries_owned"`
	AmountSpent  string `json:"amount_spent"`
	Refunded     bool   `json:"refunded"`
}

type CreateRaffleRequest struct {
	Type               string      `json:"type"`
	MaxEntriesPerUser  uint64      `json:"max_entries_per_user"`
	CollateralAddress  string      `json:"collateral_address"`
	CollateralID       string      `json:"collateral_id"`
	PlatformPercentage uint16      `json:"platform_percentage"`
	MinimumFunds       string      `json:"minimum_funds"`
	DesiredFunds       string      `json:"desired_funds"`
	PriceTiers         []PriceTier `json:"price_tiers"`
	Whitelist          []string    `json:"whitelist"`
}

type CreateRaffleResponse struct {
	ID string `json:"id"`
}

type StakeRequest struct {
	RaffleID string `json:"raffle_id"`
	// Value is the native amount sent with the stake, in wei.
	Value string `json:"value"`
}

type StakeResponse struct{}

type PurchaseEntriesRequest struct {
	RaffleID       string          `json:"raffle_id"`
	TierID         uint32          `json:"tier_id"`
	Payment        string          `json:"payment"`
	WhitelistProof *WhitelistProof `json:"whitelist_proof,omitempty"`
}

type PurchaseEntriesResponse struct {
	Position        uint64 `json:"position"`
	CumulativeCount uint64 `json:"cumulative_count"`
	EntriesOwned    uint64 `json:"entries_owned"`
}

type GrantFreeEntriesRequest struct {
	RaffleID string   `json:"raffle_id"`
	Buyers   []string `json:"buyers"`
}

type GrantFreeEntriesResponse struct {
	Granted []string `json:"granted"`
	Skipped []string `json:"skipped"`
}

type RequestClosureRequest struct {
	RaffleID string `json:"raffle_id"`
	// Mode is either "early_cashout" or "operator_close".
	Mode string `json:"mode"`
}

type RequestClosureResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

type CancelRaffleRequest struct {
	RaffleID string `json:"raffle_id"`
}

type CancelRaffleResponse struct{}

type ClaimRefundRequest struct {
	RaffleID string `json:"raffle_id"`
}

type ClaimRefundResponse struct {
	Amount string `json:"amount"`
}

type SweepRemainingFundsRequest struct {
	RaffleID string `json:"raffle_id"`
}

type SweepRemainingFundsResponse struct {
	Amount string `json:"amount"`
}

type ResumeTransfersRequest struct {
	RaffleID string `json:"raffle_id"`
}

type ResumeTransfersResponse struct {
	Sent      int `json:"sent"`
	Remaining int `json:"remaining"`
}

type GetRaffleRequest struct {
	RaffleID string `form:"raffle_id" json:"raffle_id"`
}

type GetRaffleResponse struct {
	Raffle Raffle `json:"raffle"`
}

type GetRafflesRequest struct {
	Status string `form:"status" json:"status"`
	Seller string `form:"seller" json:"seller"`
	Offset int    `form:"offset" json:"offset"`
	Limit  int    `form:"limit" json:"limit"`
}

type GetRafflesResponse struct {
	Raffles []Raffle `json:"raffles"`
}

type GetClaimRequest struct {
	RaffleID string `form:"raffle_id" json:"raffle_id"`
	Buyer    string `form:"buyer" json:"buyer"`
}

type GetClaimResponse struct {
	Claim Claim `json:"claim"`
}

type GetEntriesRequest struct {
	RaffleID string `form:"raffle_id" json:"raffle_id"`
	Offset   int    `form:"offset" json:"offset"`
	Limit    int    `form:"limit" json:"limit"`
}

type GetEntriesResponse struct {
	Entries []Entry `json:"entries"`
	Total   uint64  `json:"total"`
}

type GetWinnerRequest struct {
	RaffleID string `form:"raffle_id" json:"raffle_id"`
}

type GetWinnerResponse struct {
	Winner       string `json:"winner"`
	RandomNumber uint64 `json:"random_number"`
}
