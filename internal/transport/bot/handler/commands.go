package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tonhunter/internal/domain"
	"tonhunter/internal/domain/entity"
	"tonhunter/internal/domain/service/rating"
	"tonhunter/internal/transport/bot/view"
	"tonhunter/pkg/errcodes"
)

func (h *Handler) OnStart(ctx *th.Context, msg telego.Message) error {
	if msg.From != nil {
		user := &entity.User{
			ID:        msg.From.ID,
			Username:  msg.From.Username,
			IsPremium: msg.From.IsPremium,
		}

		if err := h.users.Upsert(ctx, user); err != nil {
			logger(ctx).Error("users.Upsert", "user_id", user.ID, "error", err)
		}
	}

	return h.sendHTML(ctx, msg.Chat.ID, view.StartMessage)
}

// OnDeals lists unclaimed deals, freshest first.
func (h *Handler) OnDeals(ctx *th.Context, msg telego.Message) error {
	deals, err := h.deals.ListUnclaimed(ctx, 10)
	if err != nil {
		logger(ctx).Error("deals.ListUnclaimed", "error", err)
		return h.send(ctx, msg.Chat.ID, view.InternalError)
	}

	if len(deals) == 0 {
		return h.send(ctx, msg.Chat.ID, view.DealsEmpty)
	}

	var sb strings.Builder
	sb.WriteString("📋 <b>Свободные сделки:</b>\n\n")

	for _, deal := range deals {
		sb.WriteString(fmt.Sprintf(
			"📦 <b>%s TON</b> за %s ₽ — <code>/deal_%d</code>\n",
			deal.TonAmount.String(),
			deal.PriceRub.Round(0).String(),
			deal.ID,
		))
	}

	return h.sendHTML(ctx, msg.Chat.ID, sb.String())
}

// OnDeal claims a deal for the sender: /deal_123.
func (h *Handler) OnDeal(ctx *th.Context, msg telego.Message) error {
	dealID, err := trailingID(msg.Text)
	if err != nil {
		return h.send(ctx, msg.Chat.ID, view.DealNotFound)
	}

	if msg.From == nil {
		return nil
	}

	buyerID := msg.From.ID

	deal, err := h.deals.Claim(ctx, dealID, buyerID)
	if err != nil {
		return h.sendDealError(ctx, msg.Chat.ID, err)
	}

	link, err := h.deals.PaymentLink(ctx, dealID, buyerID)
	if err != nil {
		logger(ctx).Error("deals.PaymentLink", "deal_id", dealID, "error", err)
		return h.send(ctx, msg.Chat.ID, view.InternalError)
	}

	commission := deal.TotalRub.Sub(deal.PriceRub)

	text := fmt.Sprintf(
		"🛒 <b>СДЕЛКА НАЧАТА #%d</b>\n\n"+
			"📦 Объём: <b>%s TON</b>\n"+
			"💰 Цена: <b>%s ₽</b>\n"+
			"💎 Комиссия: <b>%s ₽</b>\n"+
			"💳 Итого к оплате: <b>%s ₽</b>\n\n"+
			"⚠️ Деньги замораживаются до получения TON от продавца",
		deal.ID,
		deal.TonAmount.String(),
		deal.PriceRub.Round(0).String(),
		commission.Round(0).String(),
		deal.TotalRub.Round(0).String(),
	)

	_, err = ctx.Bot().SendMessage(ctx, &telego.SendMessageParams{
		ChatID:      telego.ChatID{ID: msg.Chat.ID},
		Text:        text,
		ParseMode:   telego.ModeHTML,
		ReplyMarkup: dealKeyboard(deal.ID, link, deal.TotalRub.Round(0).String()),
	})

	return err
}

// OnMy lists the sender's deals.
func (h *Handler) OnMy(ctx *th.Context, msg telego.Message) error {
	if msg.From == nil {
		return nil
	}

	deals, err := h.deals.ListByBuyer(ctx, msg.From.ID)
	if err != nil {
		logger(ctx).Error("deals.ListByBuyer", "error", err)
		return h.send(ctx, msg.Chat.ID, view.InternalError)
	}

	if len(deals) == 0 {
		return h.send(ctx, msg.Chat.ID, "У тебя пока нет сделок. Посмотри /deals")
	}

	var sb strings.Builder
	sb.WriteString("🔍 <b>Мои сделки:</b>\n\n")

	for _, deal := range deals {
		sb.WriteString(fmt.Sprintf(
			"%s #%d — %s TON за %s ₽ (<code>/status_%d</code>)\n",
			statusEmoji(deal.Status),
			deal.ID,
			deal.TonAmount.String(),
			deal.TotalRub.Round(0).String(),
			deal.ID,
		))
	}

	return h.sendHTML(ctx, msg.Chat.ID, sb.String())
}

// OnStatus shows one deal: /status_123.
func (h *Handler) OnStatus(ctx *th.Context, msg telego.Message) error {
	dealID, err := trailingID(msg.Text)
	if err != nil || msg.From == nil {
		return h.send(ctx, msg.Chat.ID, view.DealNotFound)
	}

	deal, err := h.deals.Get(ctx, dealID)
	if err != nil {
		return h.sendDealError(ctx, msg.Chat.ID, err)
	}

	if deal.BuyerID == nil || *deal.BuyerID != msg.From.ID {
		return h.send(ctx, msg.Chat.ID, view.NotYourDeal)
	}

	return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(
		"%s <b>Сделка #%d</b>\n\n"+
			"📦 %s TON\n"+
			"💰 %s ₽\n"+
			"📊 Статус: <b>%s</b>",
		statusEmoji(deal.Status),
		deal.ID,
		deal.TonAmount.String(),
		deal.TotalRub.Round(0).String(),
		string(deal.Status),
	))
}

// OnRating shows a seller's trust score: /rating <seller name>.
func (h *Handler) OnRating(ctx *th.Context, msg telego.Message) error {
	parts := strings.Fields(msg.Text)
	if len(parts) < 2 {
		return h.send(ctx, msg.Chat.ID, view.RatingUsage)
	}

	sellerName := strings.Join(parts[1:], " ")

	sellerRating, err := h.ratings.Get(ctx, sellerName)
	if err != nil {
		if code, ok := domain.GetCode(err); ok && code == errcodes.RatingNotFound {
			return h.send(ctx, msg.Chat.ID, "По этому продавцу пока нет истории.")
		}

		logger(ctx).Error("ratings.Get", "seller", sellerName, "error", err)

		return h.send(ctx, msg.Chat.ID, view.InternalError)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(
		"🏅 <b>%s</b>\n\n"+
			"Доверие: <b>%.0f/100</b>\n"+
			"Успешных сделок: %d\n"+
			"Сорванных: %d\n"+
			"Оборот: %s ₽\n",
		sellerRating.SellerName,
		rating.TrustScore(sellerRating),
		sellerRating.SuccessCount,
		sellerRating.FailCount,
		sellerRating.VolumeRub.Round(0).String(),
	))

	reviews, err := h.ratings.ListReviews(ctx, sellerName, 3)
	if err == nil && len(reviews) > 0 {
		sb.WriteString("\n<b>Отзывы:</b>\n")

		for _, review := range reviews {
			sb.WriteString(fmt.Sprintf("%s %s\n", strings.Repeat("⭐", review.Score), review.Text))
		}
	}

	return h.sendHTML(ctx, msg.Chat.ID, sb.String())
}

// OnReview records a buyer's review: /review <deal id> <score> [text].
func (h *Handler) OnReview(ctx *th.Context, msg telego.Message) error {
	if msg.From == nil {
		return nil
	}

	parts := strings.Fields(msg.Text)
	if len(parts) < 3 {
		return h.send(ctx, msg.Chat.ID, view.ReviewUsage)
	}

	dealID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return h.send(ctx, msg.Chat.ID, view.ReviewUsage)
	}

	score, err := strconv.Atoi(parts[2])
	if err != nil {
		return h.send(ctx, msg.Chat.ID, view.ReviewUsage)
	}

	deal, err := h.deals.Get(ctx, dealID)
	if err != nil {
		return h.sendDealError(ctx, msg.Chat.ID, err)
	}

	if deal.BuyerID == nil || *deal.BuyerID != msg.From.ID {
		return h.send(ctx, msg.Chat.ID, view.ReviewBadDeal)
	}

	review := &entity.Review{
		DealID:     deal.ID,
		UserID:     msg.From.ID,
		SellerName: deal.SellerName,
		Score:      score,
		Text:       strings.Join(parts[3:], " "),
	}

	if err := h.ratings.AddReview(ctx, review); err != nil {
		if code, ok := domain.GetCode(err); ok && code == errcodes.InvalidReviewRating {
			return h.send(ctx, msg.Chat.ID, view.ReviewUsage)
		}

		logger(ctx).Error("ratings.AddReview", "deal_id", dealID, "error", err)

		return h.send(ctx, msg.Chat.ID, view.InternalError)
	}

	return h.send(ctx, msg.Chat.ID, view.ReviewSaved)
}

// OnAdminPanel shows recent deals and totals.
func (h *Handler) OnAdminPanel(ctx *th.Context, msg telego.Message) error {
	deals, err := h.deals.ListRecent(ctx, 20)
	if err != nil {
		logger(ctx).Error("deals.ListRecent", "error", err)
		return h.send(ctx, msg.Chat.ID, view.InternalError)
	}

	stats, err := h.deals.Stats(ctx)
	if err != nil {
		logger(ctx).Error("deals.Stats", "error", err)
		return h.send(ctx, msg.Chat.ID, view.InternalError)
	}

	var sb strings.Builder
	sb.WriteString("👨‍💼 <b>АДМИН-ПАНЕЛЬ</b>\n\n")

	for _, deal := range deals {
		sb.WriteString(fmt.Sprintf(
			"#%d | %s TON | %s ₽ | %s\n",
			deal.ID,
			deal.TonAmount.String(),
			deal.PriceRub.Round(0).String(),
			string(deal.Status),
		))
	}

	sb.WriteString(fmt.Sprintf(
		"\n📊 Всего: %d, завершено: %d, активно: %d, истекло: %d\n"+
			"💰 Оборот: %s ₽ / %s TON",
		stats.TotalDeals,
		stats.SettledDeals,
		stats.ActiveDeals,
		stats.ExpiredDeals,
		stats.TotalVolumeRub.Round(0).String(),
		stats.TotalVolumeTon.String(),
	))

	return h.sendHTML(ctx, msg.Chat.ID, sb.String())
}

// OnBroadcast forwards admin text to every registered user.
func (h *Handler) OnBroadcast(ctx *th.Context, msg telego.Message) error {
	text := strings.TrimSpace(strings.TrimPrefix(msg.Text, "/broadcast"))
	if text == "" {
		return h.send(ctx, msg.Chat.ID, view.BroadcastUsage)
	}

	userIDs, err := h.users.ListIDs(ctx)
	if err != nil {
		logger(ctx).Error("users.ListIDs", "error", err)
		return h.send(ctx, msg.Chat.ID, view.InternalError)
	}

	var sent int

	for _, userID := range userIDs {
		if err := h.send(ctx, userID, text); err != nil {
			continue
		}

		sent++
	}

	return h.send(ctx, msg.Chat.ID, fmt.Sprintf("✅ Рассылка завершена. Отправлено: %d сообщений", sent))
}

// Вспомогательные методы

func (h *Handler) sendDealError(ctx *th.Context, chatID int64, err error) error {
	code, ok := domain.GetCode(err)
	if !ok {
		logger(ctx).Error("deal operation failed", "error", err)
		return h.send(ctx, chatID, view.InternalError)
	}

	switch code {
	case errcodes.DealNotFound:
		return h.send(ctx, chatID, view.DealNotFound)
	case errcodes.DealUnavailable, errcodes.AlreadyTerminal:
		return h.send(ctx, chatID, view.DealUnavailable)
	case errcodes.NotOwner:
		return h.send(ctx, chatID, view.NotYourDeal)
	case errcodes.PaymentPending:
		return h.send(ctx, chatID, view.PaymentPending)
	default:
		logger(ctx).Error("deal operation failed", "code", string(code), "error", err)
		return h.send(ctx, chatID, view.InternalError)
	}
}

func (h *Handler) sendHTML(ctx *th.Context, chatID int64, text string) error {
	_, err := ctx.Bot().SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: chatID},
		Text:      text,
		ParseMode: telego.ModeHTML,
	})
	return err
}

func (h *Handler) send(ctx *th.Context, chatID int64, text string) error {
	_, err := ctx.Bot().SendMessage(ctx, &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: chatID},
		Text:   text,
	})
	return err
}

// trailingID parses commands of the /name_123 form.
func trailingID(text string) (int64, error) {
	idx := strings.LastIndex(text, "_")
	if idx < 0 {
		return 0, fmt.Errorf("no id in %q", text)
	}

	return strconv.ParseInt(strings.TrimSpace(text[idx+1:]), 10, 64)
}

func statusEmoji(status entity.DealStatus) string {
	switch status {
	case entity.StatusUnclaimed:
		return "🆕"
	case entity.StatusReserved:
		return "💳"
	case entity.StatusPaymentConfirmed, entity.StatusAddressBound:
		return "⏳"
	case entity.StatusSettled:
		return "✅"
	case entity.StatusExpired:
		return "⏰"
	case entity.StatusCancelled:
		return "🚫"
	case entity.StatusRefunded:
		return "💸"
	default:
		return "❓"
	}
}
