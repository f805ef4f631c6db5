package handler

import (
	"context"
	"regexp"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tonhunter/internal/transport/bot/middleware"
)

//nolint:gochecknoglobals
var (
	dealCommand   = regexp.MustCompile(`^/deal_\d+`)
	statusCommand = regexp.MustCompile(`^/status_\d+`)
	// A bare TON address message binds the payout wallet.
	tonAddress = regexp.MustCompile(`^\s*(EQ|UQ)[A-Za-z0-9_-]{46}\s*$`)
)

func (h *Handler) RegisterRoutes(bh *th.BotHandler, adminID int64) {
	adminGroup := bh.Group(th.AnyMessage())
	adminGroup.Use(middleware.AdminOnly(adminID))

	adminGroup.HandleMessage(h.OnAdminPanel, th.CommandEqual("admin"))
	adminGroup.HandleMessage(h.OnBroadcast, th.CommandEqual("broadcast"))

	bh.HandleMessage(h.OnStart, th.CommandEqual("start"))
	bh.HandleMessage(h.OnDeals, th.CommandEqual("deals"))
	bh.HandleMessage(h.OnMy, th.CommandEqual("my"))
	bh.HandleMessage(h.OnRating, th.CommandEqual("rating"))
	bh.HandleMessage(h.OnReview, th.CommandEqual("review"))
	bh.HandleMessage(h.OnSettings, th.CommandEqual("settings"))
	bh.HandleMessage(h.OnPremium, th.CommandEqual("premium"))

	bh.HandleMessage(h.OnDeal, th.TextMatches(dealCommand))
	bh.HandleMessage(h.OnStatus, th.TextMatches(statusCommand))
	bh.HandleMessage(h.OnAddressMessage, th.TextMatches(tonAddress))
	bh.HandleMessage(h.OnSuccessfulPayment, successfulPayment)

	bh.HandlePreCheckoutQuery(h.OnPreCheckout)

	bh.HandleCallbackQuery(h.OnPaidCallback, th.CallbackDataPrefix("paid_"))
	bh.HandleCallbackQuery(h.OnCancelCallback, th.CallbackDataPrefix("cancel_"))
}

func successfulPayment(_ context.Context, update telego.Update) bool {
	return update.Message != nil && update.Message.SuccessfulPayment != nil
}
