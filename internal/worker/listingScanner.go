package worker

import (
	"context"
	"time"

	"tonhunter/internal/domain/service/ingest"
)

type Scanner interface {
	Scan(ctx context.Context) (ingest.ScanResult, error)
}

// ListingScanner drives marketplace scan cycles on a fixed interval.
type ListingScanner struct {
	ingest   Scanner
	interval time.Duration
}

func NewListingScanner(ingest Scanner, interval time.Duration) *ListingScanner {
	return &ListingScanner{
		ingest:   ingest,
		interval: interval,
	}
}

func (w *ListingScanner) Run(ctx context.Context) error {
	logger(ctx).Info("listing scanner started", "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger(ctx).Info("listing scanner stopped")
			return ctx.Err()
		case <-ticker.C:
			result, err := w.ingest.Scan(ctx)
			if err != nil {
				logger(ctx).Error("scan cycle failed", "error", err)
				continue
			}

			scanCycles.Inc()
			dealsFound.Add(float64(result.Created))
		}
	}
}
