package tasks

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"tonhunter/internal/domain/service/ingest"
	"tonhunter/pkg/application/modules"
)

type Scanner interface {
	Scan(ctx context.Context) (ingest.ScanResult, error)
}

type Broadcaster interface {
	NotifyUser(ctx context.Context, userID int64, text string) error
}

type UserDirectory interface {
	ListIDs(ctx context.Context) ([]int64, error)
}

type Handlers struct {
	ingest   Scanner
	notifier Broadcaster
	users    UserDirectory
}

func NewHandlers(ingest Scanner, notifier Broadcaster, users UserDirectory) *Handlers {
	return &Handlers{
		ingest:   ingest,
		notifier: notifier,
		users:    users,
	}
}

func (h *Handlers) List() []modules.AsynqHandler {
	return []modules.AsynqHandler{
		{Pattern: TypeListingsScan, Handle: h.HandleListingsScan},
		{Pattern: TypeNotifyBroadcast, Handle: h.HandleBroadcast},
	}
}

func (h *Handlers) HandleListingsScan(ctx context.Context, _ *asynq.Task) error {
	result, err := h.ingest.Scan(ctx)
	if err != nil {
		return fmt.Errorf("ingest.Scan: %w", err)
	}

	logger(ctx).Info("on-demand scan completed",
		"scanned", result.Scanned,
		"created", result.Created,
	)

	return nil
}

func (h *Handlers) HandleBroadcast(ctx context.Context, task *asynq.Task) error {
	var payload BroadcastPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	userIDs, err := h.users.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("users.ListIDs: %w", err)
	}

	var sent int

	for _, userID := range userIDs {
		if err := h.notifier.NotifyUser(ctx, userID, payload.Text); err != nil {
			logger(ctx).Warn("broadcast delivery failed", "user_id", userID, "error", err)
			continue
		}

		sent++
	}

	logger(ctx).Info("broadcast completed", "sent", sent, "total", len(userIDs))

	return nil
}
