package notifier

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/shopspring/decimal"

	"tonhunter/internal/domain/entity"
	"tonhunter/internal/domain/service/scamcheck"
)

// broadcastLimit caps how many subscribers one deal announcement
// reaches per cycle.
const broadcastLimit = 50

// UserDirectory lists subscriber chat identifiers for broadcasts.
// Recipients are filtered by their minimum-profit setting.
type UserDirectory interface {
	ListRecipients(ctx context.Context, marginPct float64) ([]int64, error)
}

type TelegramBot struct {
	bot         *telego.Bot
	adminChatID int64
	users       UserDirectory
}

func NewTelegramBot(bot *telego.Bot, adminChatID int64, users UserDirectory) *TelegramBot {
	return &TelegramBot{
		bot:         bot,
		adminChatID: adminChatID,
		users:       users,
	}
}

// BroadcastDeal announces a freshly found deal to subscribers. Delivery
// failures are logged and skipped, a blocked bot must not stop the
// broadcast.
func (b *TelegramBot) BroadcastDeal(ctx context.Context, deal *entity.Deal, marketPrice decimal.Decimal, risk scamcheck.Report) error {
	pricePerTon := deal.PriceRub.Div(deal.TonAmount)
	margin := marketPrice.Sub(pricePerTon).
		Div(pricePerTon).
		Mul(decimal.NewFromInt(100))

	userIDs, err := b.users.ListRecipients(ctx, margin.InexactFloat64())
	if err != nil {
		return fmt.Errorf("users.ListRecipients: %w", err)
	}

	if len(userIDs) > broadcastLimit {
		userIDs = userIDs[:broadcastLimit]
	}

	text := formatDeal(deal, pricePerTon, marketPrice, margin) + formatRisk(risk)

	var sent int

	for _, userID := range userIDs {
		msg := tu.Message(tu.ID(userID), text).
			WithParseMode(telego.ModeHTML).
			WithLinkPreviewOptions(&telego.LinkPreviewOptions{IsDisabled: true})

		if _, err := b.bot.SendMessage(ctx, msg); err != nil {
			logger(ctx).Warn("broadcast delivery failed", "user_id", userID, "error", err)
			continue
		}

		sent++
	}

	logger(ctx).Info("deal broadcast", "deal_id", deal.ID, "sent", sent, "total", len(userIDs))

	return nil
}

// NotifyUser sends an HTML message to a single user.
func (b *TelegramBot) NotifyUser(ctx context.Context, userID int64, text string) error {
	msg := tu.Message(tu.ID(userID), text).WithParseMode(telego.ModeHTML)

	if _, err := b.bot.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

// SendText sends a plain text message to the admin chat.
func (b *TelegramBot) SendText(ctx context.Context, text string) error {
	msg := tu.Message(tu.ID(b.adminChatID), text)

	_, err := b.bot.SendMessage(ctx, msg)
	return err
}

func formatDeal(deal *entity.Deal, pricePerTon, marketPrice, margin decimal.Decimal) string {
	return fmt.Sprintf(
		"🔥 <b>ВЫГОДНАЯ СДЕЛКА!</b> Экономия <b>%s%%</b>\n\n"+
			"📦 Объём: <b>%s TON</b>\n"+
			"💰 Цена: <b>%s ₽</b>\n"+
			"📈 За 1 TON: <b>%s ₽</b>\n"+
			"💎 Рынок: <b>%s ₽</b>\n\n"+
			"🛒 <b>Купить через гарант:</b> <code>/deal_%d</code>\n"+
			"🔗 <a href='%s'>Перейти на Avito</a>",
		margin.Round(1).String(),
		deal.TonAmount.String(),
		deal.PriceRub.Round(0).String(),
		pricePerTon.Round(0).String(),
		marketPrice.Round(0).String(),
		deal.ID,
		deal.AvitoURL,
	)
}

// formatRisk renders the advisory scam warning attached to a broadcast.
// A clean report adds nothing.
func formatRisk(risk scamcheck.Report) string {
	if !risk.Suspicious {
		return ""
	}

	text := fmt.Sprintf("\n\n⚠️ <b>Будьте осторожны:</b> риск %.0f/100", risk.RiskScore)

	for _, flag := range risk.Flags {
		text += "\n• " + flag
	}

	return text
}
