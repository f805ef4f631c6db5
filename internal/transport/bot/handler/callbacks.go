package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"tonhunter/internal/domain"
	"tonhunter/internal/domain/entity"
	"tonhunter/internal/transport/bot/view"
	"tonhunter/pkg/errcodes"
)

func dealKeyboard(dealID int64, paymentURL, totalRub string) *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(fmt.Sprintf("💳 Оплатить %s ₽", totalRub)).WithURL(paymentURL),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("✅ Я оплатил").WithCallbackData(fmt.Sprintf("paid_%d", dealID)),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("❌ Отменить").WithCallbackData(fmt.Sprintf("cancel_%d", dealID)),
		),
	)
}

// OnPaidCallback re-checks the gateway and, once the payment landed,
// tells the buyer where the seller must transfer the TON.
func (h *Handler) OnPaidCallback(ctx *th.Context, query telego.CallbackQuery) error {
	dealID, err := callbackID(query.Data, "paid_")
	if err != nil {
		return h.answer(ctx, query.ID, view.DealNotFound, true)
	}

	deal, err := h.deals.AssertPayment(ctx, dealID, query.From.ID)
	if err != nil {
		code, ok := domain.GetCode(err)
		if ok && code == errcodes.PaymentPending {
			return h.answer(ctx, query.ID, view.PaymentPending, true)
		}

		logger(ctx).Error("deals.AssertPayment", "deal_id", dealID, "error", err)

		return h.answer(ctx, query.ID, view.DealUnavailable, true)
	}

	walletAddress, err := h.wallet.Address(ctx)
	if err != nil {
		logger(ctx).Error("wallet.Address", "error", err)
		walletAddress = "недоступен, обратись к оператору"
	}

	text := fmt.Sprintf(
		"✅ <b>ОПЛАТА ПОЛУЧЕНА!</b>\n\n"+
			"📱 Попроси продавца перевести <b>%s TON</b>\n"+
			"💼 На кошелёк бота:\n"+
			"<code>%s</code>\n\n"+
			"📮 Теперь пришли свой TON-адрес (EQ... или UQ...), на него придёт выплата.\n"+
			"⏰ Время на сделку: <b>30 минут</b>\n"+
			"📊 Статус: /status_%d",
		deal.TonAmount.String(),
		walletAddress,
		deal.ID,
	)

	if query.Message != nil {
		_, err = ctx.Bot().EditMessageText(ctx, &telego.EditMessageTextParams{
			ChatID:    telego.ChatID{ID: query.Message.GetChat().ID},
			MessageID: query.Message.GetMessageID(),
			Text:      text,
			ParseMode: telego.ModeHTML,
		})
		if err != nil {
			logger(ctx).Error("EditMessageText", "deal_id", dealID, "error", err)
		}
	}

	return h.answer(ctx, query.ID, "", false)
}

// OnCancelCallback cancels the deal, refunding it when already paid.
func (h *Handler) OnCancelCallback(ctx *th.Context, query telego.CallbackQuery) error {
	dealID, err := callbackID(query.Data, "cancel_")
	if err != nil {
		return h.answer(ctx, query.ID, view.DealNotFound, true)
	}

	deal, err := h.deals.Cancel(ctx, dealID, query.From.ID)
	if err != nil {
		logger(ctx).Error("deals.Cancel", "deal_id", dealID, "error", err)
		return h.answer(ctx, query.ID, view.DealUnavailable, true)
	}

	if query.Message != nil {
		_, err = ctx.Bot().EditMessageText(ctx, &telego.EditMessageTextParams{
			ChatID:    telego.ChatID{ID: query.Message.GetChat().ID},
			MessageID: query.Message.GetMessageID(),
			Text:      fmt.Sprintf("🚫 Сделка #%d закрыта (%s).", deal.ID, string(deal.Status)),
		})
		if err != nil {
			logger(ctx).Error("EditMessageText", "deal_id", dealID, "error", err)
		}
	}

	return h.answer(ctx, query.ID, view.CancelDone, false)
}

// OnAddressMessage binds a bare TON address message to the sender's
// paid deal.
func (h *Handler) OnAddressMessage(ctx *th.Context, msg telego.Message) error {
	if msg.From == nil {
		return nil
	}

	deal, err := h.paidDeal(ctx, msg.From.ID)
	if err != nil {
		return h.send(ctx, msg.Chat.ID, view.AddressNoDeal)
	}

	bound, err := h.deals.BindAddress(ctx, deal.ID, msg.From.ID, msg.Text)
	if err != nil {
		if code, ok := domain.GetCode(err); ok && code == errcodes.InvalidAddress {
			return h.sendHTML(ctx, msg.Chat.ID, view.AddressInvalid)
		}

		return h.sendDealError(ctx, msg.Chat.ID, err)
	}

	return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(
		"✅ <b>Адрес сохранён!</b>\n\n"+
			"💼 TON-адрес: <code>%s</code>\n\n"+
			"⏰ Ждём %s TON от продавца\n"+
			"📊 Статус: /status_%d",
		bound.TonAddress.String(),
		bound.TonAmount.String(),
		bound.ID,
	))
}

// paidDeal finds the buyer's deal that is waiting for an address.
func (h *Handler) paidDeal(ctx *th.Context, buyerID int64) (*entity.Deal, error) {
	deals, err := h.deals.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	for _, deal := range deals {
		if deal.Status == entity.StatusPaymentConfirmed {
			return deal, nil
		}
	}

	return nil, fmt.Errorf("no deal awaiting address for buyer %d", buyerID)
}

func (h *Handler) answer(ctx *th.Context, queryID, text string, alert bool) error {
	params := tu.CallbackQuery(queryID)
	if text != "" {
		params = params.WithText(text)
	}

	if alert {
		params = params.WithShowAlert()
	}

	return ctx.Bot().AnswerCallbackQuery(ctx, params)
}

func callbackID(data, prefix string) (int64, error) {
	return strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
}
