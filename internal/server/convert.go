package server

import (
	"tonhunter/internal/domain/entity"
	"tonhunter/pkg/rest"
)

func newRESTDeal(deal *entity.Deal) rest.Deal {
	out := rest.Deal{
		ID:        deal.ID,
		Status:    string(deal.Status),
		TonAmount: deal.TonAmount.String(),
		PriceRub:  deal.PriceRub.String(),
		TotalRub:  deal.TotalRub.String(),
		BuyerID:   deal.BuyerID,
		AvitoURL:  deal.AvitoURL,
		CreatedAt: deal.CreatedAt,
		ExpiresAt: deal.ExpiresAt,
	}

	if deal.TonAddress != nil {
		address := deal.TonAddress.String()
		out.TonAddress = &address
	}

	return out
}

func newRESTStats(stats *entity.DealStats) rest.Stats {
	return rest.Stats{
		TotalDeals:     stats.TotalDeals,
		SettledDeals:   stats.SettledDeals,
		ActiveDeals:    stats.ActiveDeals,
		ExpiredDeals:   stats.ExpiredDeals,
		TotalVolumeTon: stats.TotalVolumeTon.String(),
		TotalVolumeRub: stats.TotalVolumeRub.String(),
	}
}
