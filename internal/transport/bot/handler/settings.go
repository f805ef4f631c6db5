package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tonhunter/internal/domain"
	"tonhunter/internal/transport/bot/view"
	"tonhunter/pkg/errcodes"
)

const premiumPayload = "premium_month"

// OnSettings shows or updates notification preferences. Bare /settings
// prints the current values, /settings city|margin|methods <value>
// changes one of them.
func (h *Handler) OnSettings(ctx *th.Context, msg telego.Message) error {
	if msg.From == nil {
		return nil
	}

	user, err := h.users.GetByID(ctx, msg.From.ID)
	if err != nil {
		if code, ok := domain.GetCode(err); ok && code == errcodes.UserNotFound {
			return h.send(ctx, msg.Chat.ID, view.StartFirst)
		}

		logger(ctx).Error("users.GetByID", "user_id", msg.From.ID, "error", err)

		return h.send(ctx, msg.Chat.ID, view.InternalError)
	}

	args := strings.Fields(msg.Text)
	if len(args) < 3 {
		return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(
			"⚙️ <b>Настройки</b>\n\n"+
				"🏙 Город: %s\n"+
				"💰 Мин. выгода: %.1f%%\n"+
				"💳 Оплата: %s\n"+
				"💵 Баланс: %s ₽\n\n%s",
			user.City,
			user.MinProfitPct,
			user.PaymentMethods,
			user.BalanceRub.Round(0).String(),
			view.SettingsUsage,
		))
	}

	city, methods, minProfit := user.City, user.PaymentMethods, user.MinProfitPct
	fieldValue := strings.Join(args[2:], " ")

	switch args[1] {
	case "city":
		city = fieldValue
	case "margin":
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(fieldValue, "%"), 64)
		if err != nil || parsed < 0 {
			return h.send(ctx, msg.Chat.ID, view.SettingsUsage)
		}

		minProfit = parsed
	case "methods":
		methods = fieldValue
	default:
		return h.send(ctx, msg.Chat.ID, view.SettingsUsage)
	}

	if err := h.users.UpdateSettings(ctx, user.ID, city, methods, minProfit); err != nil {
		logger(ctx).Error("users.UpdateSettings", "user_id", user.ID, "error", err)
		return h.send(ctx, msg.Chat.ID, view.InternalError)
	}

	return h.send(ctx, msg.Chat.ID, view.SettingsSaved)
}

// OnPremium sends the monthly premium invoice.
func (h *Handler) OnPremium(ctx *th.Context, msg telego.Message) error {
	if h.premiumToken == "" {
		return h.send(ctx, msg.Chat.ID, view.PremiumUnavailable)
	}

	_, err := ctx.Bot().SendInvoice(ctx, &telego.SendInvoiceParams{
		ChatID:         telego.ChatID{ID: msg.Chat.ID},
		Title:          "TonHunter Premium",
		Description:    "⚡ Уведомления каждые 30 сек\n💎 0% комиссии\n⭐ Приоритет в сделках",
		Payload:        premiumPayload,
		ProviderToken:  h.premiumToken,
		Currency:       "RUB",
		Prices:         []telego.LabeledPrice{{Label: "Премиум на месяц", Amount: 29900}},
		StartParameter: "tonhunter-premium",
	})

	return err
}

// OnPreCheckout approves a pending premium invoice.
func (h *Handler) OnPreCheckout(ctx *th.Context, query telego.PreCheckoutQuery) error {
	return ctx.Bot().AnswerPreCheckoutQuery(ctx, &telego.AnswerPreCheckoutQueryParams{
		PreCheckoutQueryID: query.ID,
		Ok:                 true,
	})
}

// OnSuccessfulPayment flips the premium flag once Telegram reports the
// charge.
func (h *Handler) OnSuccessfulPayment(ctx *th.Context, msg telego.Message) error {
	if msg.From == nil || msg.SuccessfulPayment == nil ||
		msg.SuccessfulPayment.InvoicePayload != premiumPayload {
		return nil
	}

	if err := h.users.SetPremium(ctx, msg.From.ID); err != nil {
		logger(ctx).Error("users.SetPremium", "user_id", msg.From.ID, "error", err)
		return h.send(ctx, msg.Chat.ID, view.InternalError)
	}

	logger(ctx).Info("premium activated", "user_id", msg.From.ID)

	return h.sendHTML(ctx, msg.Chat.ID, view.PremiumActivated)
}
