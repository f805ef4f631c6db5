package bot

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tonhunter/internal/transport/bot/handler"
)

// Bot wires update handling on top of a connected Telegram client.
type Bot struct {
	bot        *telego.Bot
	botHandler *th.BotHandler

	handler *handler.Handler
}

func New(tgBot *telego.Bot, commandHandler *handler.Handler, adminID int64) (*Bot, error) {
	updates, err := tgBot.UpdatesViaLongPolling(context.Background(), &telego.GetUpdatesParams{
		Timeout: 60,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get updates: %w", err)
	}

	botHandler, err := th.NewBotHandler(tgBot, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot handler: %w", err)
	}

	commandHandler.RegisterRoutes(botHandler, adminID)

	return &Bot{
		bot:        tgBot,
		botHandler: botHandler,
		handler:    commandHandler,
	}, nil
}

// Run processes updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	go func() {
		if err := b.botHandler.Start(); err != nil {
			logger(ctx).Error("bot handler start failed", "error", err)
		}
	}()

	<-ctx.Done()

	if err := b.botHandler.Stop(); err != nil {
		logger(ctx).Error("bot handler stop failed", "error", err)
	}

	return ctx.Err()
}
