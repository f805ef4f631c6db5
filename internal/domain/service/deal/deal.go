package deal

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"tonhunter/internal/domain"
	"tonhunter/internal/domain/entity"
	"tonhunter/internal/domain/value"
	"tonhunter/pkg/errcodes"
)

const (
	// commissionPct is charged on top of the listing price.
	// Premium users pay no commission.
	commissionPct = 1.9

	// settlementWindow is how long a paid deal waits for the TON payout.
	// Unpaid reservations carry no window, only confirmed payments do.
	settlementWindow = 30 * time.Minute
)

type DealRepository interface {
	Create(ctx context.Context, deal *entity.Deal) error
	GetByID(ctx context.Context, id int64) (*entity.Deal, error)
	ExistsBySource(ctx context.Context, avitoURL, itemID string) (bool, error)
	ListUnclaimed(ctx context.Context, limit int) ([]*entity.Deal, error)
	ListByBuyer(ctx context.Context, buyerID int64) ([]*entity.Deal, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.Deal, error)
	ListAwaitingSettlement(ctx context.Context, now time.Time) ([]*entity.Deal, error)
	Claim(ctx context.Context, dealID, buyerID int64, totalRub decimal.Decimal) error
	ConfirmPayment(ctx context.Context, dealID int64, confirmedAt, expiresAt time.Time) error
	BindAddress(ctx context.Context, dealID int64, address value.TonAddress) error
	MarkSettled(ctx context.Context, dealID int64, txRef string, settledAt time.Time) error
	SetPayoutTxHash(ctx context.Context, dealID int64, txHash string) error
	MarkPayoutFailed(ctx context.Context, dealID int64) error
	MarkTerminal(ctx context.Context, dealID int64, status entity.DealStatus) error
	ExpireStale(ctx context.Context, now time.Time) ([]*entity.Deal, error)
	Stats(ctx context.Context) (*entity.DealStats, error)
}

type UserRepository interface {
	Upsert(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
}

type PaymentGateway interface {
	PaymentLink(label string, amount decimal.Decimal, title string) string
	IsPaid(ctx context.Context, label string) (bool, error)
	Refund(ctx context.Context, label string, amount decimal.Decimal) error
}

type Service struct {
	dealRepo DealRepository
	userRepo UserRepository
	gateway  PaymentGateway

	now func() time.Time
}

func NewService(
	dealRepo DealRepository,
	userRepo UserRepository,
	gateway PaymentGateway,
) *Service {
	return &Service{
		dealRepo: dealRepo,
		userRepo: userRepo,
		gateway:  gateway,
		now:      time.Now,
	}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateFromListing turns a vetted listing into an unclaimed deal.
func (s *Service) CreateFromListing(ctx context.Context, listing entity.Listing) (*entity.Deal, error) {
	exists, err := s.dealRepo.ExistsBySource(ctx, listing.AvitoURL, listing.ItemID)
	if err != nil {
		return nil, err
	}

	if exists {
		return nil, domain.NewError(errcodes.ListingAlreadySeen, "listing already tracked")
	}

	deal := &entity.Deal{
		AvitoURL:    listing.AvitoURL,
		AvitoItemID: listing.ItemID,
		Title:       listing.Title,
		SellerName:  listing.SellerName,
		TonAmount:   listing.TonAmount,
		PriceRub:    listing.PriceRub,
		TotalRub:    listing.PriceRub,
		Status:      entity.StatusUnclaimed,
		CreatedAt:   s.now(),
	}

	if err := s.dealRepo.Create(ctx, deal); err != nil {
		return nil, err
	}

	logger(ctx).Info("deal created",
		"deal_id", deal.ID,
		"ton_amount", deal.TonAmount.String(),
		"price_rub", deal.PriceRub.String(),
	)

	return deal, nil
}

// Claim reserves an unclaimed deal for the buyer and fixes the total
// payable. Exactly one concurrent claimer wins; the rest get
// DealUnavailable.
func (s *Service) Claim(ctx context.Context, dealID, buyerID int64) (*entity.Deal, error) {
	deal, err := s.dealRepo.GetByID(ctx, dealID)
	if err != nil {
		return nil, err
	}

	if deal.Status != entity.StatusUnclaimed {
		return nil, domain.NewError(errcodes.DealUnavailable, "deal already taken")
	}

	totalRub := s.totalPayable(ctx, deal.PriceRub, buyerID)

	if err := s.dealRepo.Claim(ctx, dealID, buyerID, totalRub); err != nil {
		return nil, err
	}

	deal.Status = entity.StatusReserved
	deal.BuyerID = &buyerID
	deal.TotalRub = totalRub

	logger(ctx).Info("deal claimed",
		"deal_id", dealID,
		"buyer_id", buyerID,
		"total_rub", totalRub.String(),
	)

	return deal, nil
}

// PaymentLink returns the gateway checkout URL for a reserved deal.
func (s *Service) PaymentLink(ctx context.Context, dealID, buyerID int64) (string, error) {
	deal, err := s.ownedDeal(ctx, dealID, buyerID)
	if err != nil {
		return "", err
	}

	if deal.Status != entity.StatusReserved {
		return "", domain.NewError(errcodes.DealUnavailable, "deal is not awaiting payment")
	}

	return s.gateway.PaymentLink(deal.PaymentLabel(), deal.TotalRub, deal.Title), nil
}

// AssertPayment checks the gateway for the deal's payment and, once
// found, advances the deal to payment_confirmed. Calling it again after
// confirmation is a no-op.
func (s *Service) AssertPayment(ctx context.Context, dealID, buyerID int64) (*entity.Deal, error) {
	deal, err := s.ownedDeal(ctx, dealID, buyerID)
	if err != nil {
		return nil, err
	}

	switch deal.Status {
	case entity.StatusPaymentConfirmed, entity.StatusAddressBound:
		return deal, nil
	case entity.StatusReserved:
	default:
		if deal.Status.Terminal() {
			return nil, domain.NewError(errcodes.AlreadyTerminal, "deal is closed")
		}
		return nil, domain.NewError(errcodes.DealUnavailable, "deal is not awaiting payment")
	}

	paid, err := s.gateway.IsPaid(ctx, deal.PaymentLabel())
	if err != nil {
		return nil, domain.WrapError(err, errcodes.GatewayUnavailable, "payment gateway unavailable")
	}

	if !paid {
		return nil, domain.NewError(errcodes.PaymentPending, "payment not received yet")
	}

	confirmedAt := s.now()
	expiresAt := confirmedAt.Add(settlementWindow)

	if err := s.dealRepo.ConfirmPayment(ctx, dealID, confirmedAt, expiresAt); err != nil {
		return nil, err
	}

	deal.Status = entity.StatusPaymentConfirmed
	deal.PaymentConfirmedAt = &confirmedAt
	deal.ExpiresAt = &expiresAt

	logger(ctx).Info("payment confirmed", "deal_id", dealID, "buyer_id", buyerID)

	return deal, nil
}

// BindAddress attaches the buyer's TON wallet to a paid deal, making it
// eligible for settlement.
func (s *Service) BindAddress(ctx context.Context, dealID, buyerID int64, raw string) (*entity.Deal, error) {
	deal, err := s.ownedDeal(ctx, dealID, buyerID)
	if err != nil {
		return nil, err
	}

	if deal.Status.Terminal() {
		return nil, domain.NewError(errcodes.AlreadyTerminal, "deal is closed")
	}

	if deal.Status != entity.StatusPaymentConfirmed {
		return nil, domain.NewError(errcodes.DealUnavailable, "deal is not awaiting an address")
	}

	address, err := value.NewTonAddress(raw)
	if err != nil {
		return nil, err
	}

	if err := s.dealRepo.BindAddress(ctx, dealID, address); err != nil {
		return nil, err
	}

	deal.Status = entity.StatusAddressBound
	deal.TonAddress = &address

	logger(ctx).Info("address bound", "deal_id", dealID, "address", address.Short())

	return deal, nil
}

// Cancel closes a deal on the buyer's request. A reserved deal is simply
// cancelled; a paid one is refunded through the gateway first.
func (s *Service) Cancel(ctx context.Context, dealID, buyerID int64) (*entity.Deal, error) {
	deal, err := s.ownedDeal(ctx, dealID, buyerID)
	if err != nil {
		return nil, err
	}

	if deal.Status.Terminal() {
		return nil, domain.NewError(errcodes.AlreadyTerminal, "deal is closed")
	}

	switch deal.Status {
	case entity.StatusReserved:
		if err := s.dealRepo.MarkTerminal(ctx, dealID, entity.StatusCancelled); err != nil {
			return nil, err
		}

		deal.Status = entity.StatusCancelled

	case entity.StatusPaymentConfirmed, entity.StatusAddressBound:
		if err := s.gateway.Refund(ctx, deal.PaymentLabel(), deal.TotalRub); err != nil {
			return nil, domain.WrapError(err, errcodes.GatewayUnavailable, "refund failed")
		}

		if err := s.dealRepo.MarkTerminal(ctx, dealID, entity.StatusRefunded); err != nil {
			return nil, err
		}

		deal.Status = entity.StatusRefunded

	default:
		return nil, domain.NewError(errcodes.DealUnavailable, "deal cannot be cancelled")
	}

	logger(ctx).Info("deal cancelled", "deal_id", dealID, "status", string(deal.Status))

	return deal, nil
}

// ExpireStale sweeps active deals whose window ran out.
func (s *Service) ExpireStale(ctx context.Context) ([]*entity.Deal, error) {
	expired, err := s.dealRepo.ExpireStale(ctx, s.now())
	if err != nil {
		return nil, err
	}

	for _, deal := range expired {
		logger(ctx).Info("deal expired", "deal_id", deal.ID, "status", string(deal.Status))
	}

	return expired, nil
}

func (s *Service) Get(ctx context.Context, dealID int64) (*entity.Deal, error) {
	return s.dealRepo.GetByID(ctx, dealID)
}

func (s *Service) ListUnclaimed(ctx context.Context, limit int) ([]*entity.Deal, error) {
	return s.dealRepo.ListUnclaimed(ctx, limit)
}

func (s *Service) ListByBuyer(ctx context.Context, buyerID int64) ([]*entity.Deal, error) {
	return s.dealRepo.ListByBuyer(ctx, buyerID)
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]*entity.Deal, error) {
	return s.dealRepo.ListRecent(ctx, limit)
}

// ListAwaitingSettlement returns address_bound deals whose window is
// still open. Expired deals never reach the settlement matcher.
func (s *Service) ListAwaitingSettlement(ctx context.Context) ([]*entity.Deal, error) {
	return s.dealRepo.ListAwaitingSettlement(ctx, s.now())
}

func (s *Service) Stats(ctx context.Context) (*entity.DealStats, error) {
	return s.dealRepo.Stats(ctx)
}

// MarkSettled finalizes a deal against the matched inbound transfer.
func (s *Service) MarkSettled(ctx context.Context, dealID int64, txRef string) error {
	return s.dealRepo.MarkSettled(ctx, dealID, txRef, s.now())
}

// SetPayoutTxHash records the outbound payout of a settled deal.
func (s *Service) SetPayoutTxHash(ctx context.Context, dealID int64, txHash string) error {
	return s.dealRepo.SetPayoutTxHash(ctx, dealID, txHash)
}

// MarkPayoutFailed flags a settled deal for manual payout.
func (s *Service) MarkPayoutFailed(ctx context.Context, dealID int64) error {
	return s.dealRepo.MarkPayoutFailed(ctx, dealID)
}

func (s *Service) ownedDeal(ctx context.Context, dealID, buyerID int64) (*entity.Deal, error) {
	deal, err := s.dealRepo.GetByID(ctx, dealID)
	if err != nil {
		return nil, err
	}

	if deal.BuyerID == nil || *deal.BuyerID != buyerID {
		return nil, domain.NewError(errcodes.NotOwner, "deal belongs to another buyer")
	}

	return deal, nil
}

func (s *Service) totalPayable(ctx context.Context, priceRub decimal.Decimal, buyerID int64) decimal.Decimal {
	pct := decimal.NewFromFloat(commissionPct)

	user, err := s.userRepo.GetByID(ctx, buyerID)
	if err != nil {
		var appErr *domain.AppError
		if !errors.As(err, &appErr) || appErr.Code != errcodes.UserNotFound {
			logger(ctx).Error("userRepo.GetByID", "error", err, "buyer_id", buyerID)
		}
	} else if user.IsPremium {
		pct = decimal.Zero
	}

	multiplier := decimal.NewFromInt(1).Add(pct.Div(decimal.NewFromInt(100)))

	return priceRub.Mul(multiplier).Round(2)
}
