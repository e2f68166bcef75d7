package domain

import (
	"github.com/questx-lab/raffle/internal/domain/ledger"
	"github.com/questx-lab/raffle/internal/entity"
	"github.com/questx-lab/raffle/internal/model"
	"github.com/questx-lab/raffle/pkg/enum"
)

func convertAddress(a entity.Address) string {
	if a.IsZero() {
		return ""
	}

	return a.Hex()
}

func convertPriceTiers(tiers []entity.RafflePriceTier) []model.PriceTier {
	modelTiers := []model.PriceTier{}
	for _, t := range tiers {
		modelTiers = append(modelTiers, model.PriceTier{
			TierID:     t.TierID,
			EntryCount: t.EntryCount,
			Price:      t.Price.String(),
		})
	}

	return modelTiers
}

func convertLedgerTiers(tiers []entity.RafflePriceTier) []ledger.Tier {
	ledgerTiers := []ledger.Tier{}
	for _, t := range tiers {
		ledgerTiers = append(ledgerTiers, ledger.Tier{
			ID:         t.TierID,
			EntryCount: t.EntryCount,
			Price:      t.Price.Big(),
		})
	}

	return ledgerTiers
}

func convertWhitelist(whitelist []entity.RaffleWhitelist) []string {
	collections := []string{}
	for _, w := range whitelist {
		collections = append(collections, w.Collection.Hex())
	}

	return collections
}

func convertRaffle(
	raffle *entity.Raffle,
	tiers []entity.RafflePriceTier,
	whitelist []entity.RaffleWhitelist,
) model.Raffle {
	if raffle == nil {
		return model.Raffle{}
	}

	m := model.Raffle{
		ID:                 raffle.ID,
		Type:               enum.ToString(raffle.Type),
		Status:             enum.ToString(raffle.Status),
		MaxEntriesPerUser:  raffle.MaxEntriesPerUser,
		CollateralAddress:  convertAddress(raffle.CollateralAddress),
		CollateralID:       raffle.CollateralID.String(),
		Winner:             convertAddress(raffle.Winner),
		RandomNumber:       raffle.RandomNumber,
		AmountRaised:       raffle.AmountRaised.String(),
		Seller:             convertAddress(raffle.Seller),
		PlatformPercentage: raffle.PlatformPercentage,
		MinimumFunds:       raffle.MinimumFunds.String(),
		DesiredFunds:       raffle.DesiredFunds.String(),
		EntriesLength:      raffle.EntriesLength,
		PriceTiers:         convertPriceTiers(tiers),
		Whitelist:          convertWhitelist(whitelist),
		CreatedBy:          convertAddress(raffle.CreatedBy),
		CreatedAt:          raffle.CreatedAt,
	}

	if raffle.CancellingDate.Valid {
		cancellingDate := raffle.CancellingDate.Time
		m.CancellingDate = &cancellingDate
	}

	return m
}

func convertEntry(entry *entity.RaffleEntry) model.Entry {
	if entry == nil {
		return model.Entry{}
	}

	return model.Entry{
		Position:        entry.Position,
		CumulativeCount: entry.CumulativeCount,
		Buyer:           entry.Buyer.Hex(),
	}
}

func convertClaim(claim *entity.RaffleClaim) model.Claim {
	if claim == nil {
		return model.Claim{}
	}

	return model.Claim{
		RaffleID:     claim.RaffleID,
		Buyer:        claim.Buyer.Hex(),
		EntriesOwned: claim.EntriesOwned,
		AmountSpent:  claim.AmountSpent.String(),
		Refunded:     claim.Refunded,
	}
}

func convertRole(role *entity.RaffleRole) model.Role {
	if role == nil {
		return model.Role{}
	}

	return model.Role{
		Address:   role.Address.Hex(),
		Role:      string(role.Role),
		GrantedBy: convertAddress(role.GrantedBy),
	}
}
