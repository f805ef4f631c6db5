package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tonhunter/internal/domain/entity"
)

type ExpiryBook interface {
	ExpireStale(ctx context.Context) ([]*entity.Deal, error)
}

// ExpirySweeper moves paid deals past their window to expired_timeout
// and records the failed outcome against the seller.
type ExpirySweeper struct {
	deals    ExpiryBook
	ledger   TrustLedger
	notifier Notifier

	interval time.Duration
}

func NewExpirySweeper(deals ExpiryBook, ledger TrustLedger, notifier Notifier, interval time.Duration) *ExpirySweeper {
	return &ExpirySweeper{
		deals:    deals,
		ledger:   ledger,
		notifier: notifier,
		interval: interval,
	}
}

func (w *ExpirySweeper) Run(ctx context.Context) error {
	logger(ctx).Info("expiry sweeper started", "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger(ctx).Info("expiry sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := w.sweep(ctx); err != nil {
				logger(ctx).Error("expiry sweep failed", "error", err)
			}
		}
	}
}

func (w *ExpirySweeper) sweep(ctx context.Context) error {
	expired, err := w.deals.ExpireStale(ctx)
	if err != nil {
		return err
	}

	for _, deal := range expired {
		expiredDeals.Inc()

		// Expiry after a confirmed payment means the seller never
		// delivered; count it against them.
		if deal.PaymentConfirmedAt != nil {
			if _, err := w.ledger.RecordOutcome(ctx, deal.SellerName, false, decimal.Zero); err != nil {
				logger(ctx).Error("ledger.RecordOutcome", "deal_id", deal.ID, "error", err)
			}
		}

		w.notifyBuyer(ctx, deal)
	}

	return nil
}

func (w *ExpirySweeper) notifyBuyer(ctx context.Context, deal *entity.Deal) {
	if deal.BuyerID == nil {
		return
	}

	text := fmt.Sprintf(
		"⏰ <b>Сделка #%d отменена по таймауту.</b>\n"+
			"Если вы уже оплатили, средства вернёт оператор.",
		deal.ID,
	)

	if err := w.notifier.NotifyUser(ctx, *deal.BuyerID, text); err != nil {
		logger(ctx).Warn("buyer notification failed", "deal_id", deal.ID, "error", err)
	}
}
