package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"tonhunter/internal/domain/entity"
	"tonhunter/internal/domain/value"
	"tonhunter/internal/infrastructure/ton"
)

const (
	// matchTolerance is the allowed gap between an incoming transfer and
	// the expected deal volume, in TON.
	matchTolerance = 0.05

	// payoutFeePct is withheld from the buyer's payout.
	payoutFeePct = 1.0

	incomingLimit = 30

	usedTransferTTL = 24 * time.Hour
)

type SettlementBook interface {
	ListAwaitingSettlement(ctx context.Context) ([]*entity.Deal, error)
	MarkSettled(ctx context.Context, dealID int64, txRef string) error
	SetPayoutTxHash(ctx context.Context, dealID int64, txHash string) error
	MarkPayoutFailed(ctx context.Context, dealID int64) error
}

type PayoutWallet interface {
	Incoming(ctx context.Context, limit int) ([]ton.Transfer, error)
	Send(ctx context.Context, to value.TonAddress, amount decimal.Decimal, comment string) (string, error)
}

type TrustLedger interface {
	RecordOutcome(ctx context.Context, sellerName string, success bool, volumeRub decimal.Decimal) (*entity.Rating, error)
}

type Notifier interface {
	NotifyUser(ctx context.Context, userID int64, text string) error
	SendText(ctx context.Context, text string) error
}

// SettlementMonitor watches the custodial wallet for seller transfers
// and pays matched deals out to the buyer's bound address.
type SettlementMonitor struct {
	deals    SettlementBook
	wallet   PayoutWallet
	ledger   TrustLedger
	notifier Notifier

	interval time.Duration

	// usedTransfers keeps matched transfer hashes from settling a
	// second deal of the same volume.
	usedTransfers *cache.Cache

	// Control fields
	mu         sync.Mutex
	cancelFunc context.CancelFunc
	isRunning  bool
	wg         sync.WaitGroup
}

func NewSettlementMonitor(
	deals SettlementBook,
	wallet PayoutWallet,
	ledger TrustLedger,
	notifier Notifier,
	interval time.Duration,
) *SettlementMonitor {
	return &SettlementMonitor{
		deals:         deals,
		wallet:        wallet,
		ledger:        ledger,
		notifier:      notifier,
		interval:      interval,
		usedTransfers: cache.New(usedTransferTTL, usedTransferTTL),
	}
}

func (w *SettlementMonitor) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return errors.New("settlement monitor is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel
	w.isRunning = true

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			w.isRunning = false
			w.cancelFunc = nil
			w.mu.Unlock()
		}()

		if err := w.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger(runCtx).Error("settlement monitor stopped", "error", err)
		}
	}()

	return nil
}

func (w *SettlementMonitor) Stop() {
	w.mu.Lock()

	if !w.isRunning {
		w.mu.Unlock()
		return
	}

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *SettlementMonitor) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isRunning
}

func (w *SettlementMonitor) Run(ctx context.Context) error {
	logger(ctx).Info("settlement monitor started", "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger(ctx).Info("settlement monitor stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := w.cycle(ctx); err != nil {
				logger(ctx).Error("settlement cycle failed", "error", err)
			}
		}
	}
}

func (w *SettlementMonitor) cycle(ctx context.Context) error {
	deals, err := w.deals.ListAwaitingSettlement(ctx)
	if err != nil {
		return fmt.Errorf("deals.ListAwaitingSettlement: %w", err)
	}

	if len(deals) == 0 {
		return nil
	}

	transfers, err := w.wallet.Incoming(ctx, incomingLimit)
	if err != nil {
		return fmt.Errorf("wallet.Incoming: %w", err)
	}

	now := time.Now()

	for _, deal := range deals {
		// A transfer that arrives after the window ran out belongs to
		// the refund path, not to settlement.
		if deal.ExpiresAt != nil && !deal.ExpiresAt.After(now) {
			continue
		}

		transfer, found := w.match(deal, transfers)
		if !found {
			continue
		}

		if err := w.settle(ctx, deal, transfer); err != nil {
			logger(ctx).Error("settlement failed", "deal_id", deal.ID, "error", err)
		}
	}

	return nil
}

func (w *SettlementMonitor) match(deal *entity.Deal, transfers []ton.Transfer) (ton.Transfer, bool) {
	tolerance := decimal.NewFromFloat(matchTolerance)

	for _, transfer := range transfers {
		if _, used := w.usedTransfers.Get(transfer.Hash); used {
			continue
		}

		if transfer.AmountTon.Sub(deal.TonAmount).Abs().LessThan(tolerance) {
			return transfer, true
		}
	}

	return ton.Transfer{}, false
}

func (w *SettlementMonitor) settle(ctx context.Context, deal *entity.Deal, transfer ton.Transfer) error {
	if deal.TonAddress == nil {
		return fmt.Errorf("deal %d has no bound address", deal.ID)
	}

	// Settle first: the status guard in the store is what prevents a
	// second transfer from claiming this deal. A failed payout never
	// reopens the deal.
	if err := w.deals.MarkSettled(ctx, deal.ID, transfer.Hash); err != nil {
		return fmt.Errorf("deals.MarkSettled: %w", err)
	}

	w.usedTransfers.Set(transfer.Hash, true, cache.DefaultExpiration)
	settledDeals.Inc()

	if _, err := w.ledger.RecordOutcome(ctx, deal.SellerName, true, deal.PriceRub); err != nil {
		logger(ctx).Error("ledger.RecordOutcome", "deal_id", deal.ID, "error", err)
	}

	// The fee share comes off what actually arrived, not off the listed
	// quantity.
	fee := transfer.AmountTon.Mul(decimal.NewFromFloat(payoutFeePct)).Div(decimal.NewFromInt(100))
	payout := transfer.AmountTon.Sub(fee)

	txHash, err := w.wallet.Send(ctx, *deal.TonAddress, payout, deal.PaymentLabel())
	if err != nil {
		w.escalatePayout(ctx, deal, payout, err)
		return nil
	}

	if err := w.deals.SetPayoutTxHash(ctx, deal.ID, txHash); err != nil {
		logger(ctx).Error("deals.SetPayoutTxHash", "deal_id", deal.ID, "error", err)
	}

	w.notifyBuyer(ctx, deal, payout, fee)

	logger(ctx).Info("deal settled",
		"deal_id", deal.ID,
		"payout_ton", payout.String(),
		"fee_ton", fee.String(),
		"tx_hash", txHash,
	)

	return nil
}

// escalatePayout flags the deal and wakes the admin. The buyer's money
// is already collected, so this must never pass silently.
func (w *SettlementMonitor) escalatePayout(ctx context.Context, deal *entity.Deal, payout decimal.Decimal, sendErr error) {
	payoutFailures.Inc()

	logger(ctx).Error("payout failed", "deal_id", deal.ID, "error", sendErr)

	if err := w.deals.MarkPayoutFailed(ctx, deal.ID); err != nil {
		logger(ctx).Error("deals.MarkPayoutFailed", "deal_id", deal.ID, "error", err)
	}

	text := fmt.Sprintf(
		"⚠️ Выплата по сделке #%d не прошла: %v\nК отправке: %s TON на %s",
		deal.ID, sendErr, payout.String(), deal.TonAddress.Short(),
	)

	if err := w.notifier.SendText(ctx, text); err != nil {
		logger(ctx).Error("admin escalation failed", "deal_id", deal.ID, "error", err)
	}
}

func (w *SettlementMonitor) notifyBuyer(ctx context.Context, deal *entity.Deal, payout, fee decimal.Decimal) {
	if deal.BuyerID == nil {
		return
	}

	text := fmt.Sprintf(
		"✅ <b>Сделка #%d завершена!</b>\n"+
			"💰 Получено: %s TON\n"+
			"💎 Комиссия: %s TON",
		deal.ID,
		payout.Round(3).String(),
		fee.Round(3).String(),
	)

	if err := w.notifier.NotifyUser(ctx, *deal.BuyerID, text); err != nil {
		logger(ctx).Warn("buyer notification failed", "deal_id", deal.ID, "error", err)
	}
}
