package persistence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"tonhunter/internal/domain"
	"tonhunter/pkg/errcodes"
)

const (
	seenKeyPrefix = "tonhunter:seen:"
	seenTTL       = 7 * 24 * time.Hour
)

// ListingDeduper remembers processed listing URLs in redis so restarts
// do not re-announce the same offers.
type ListingDeduper struct {
	client *redis.Client
}

func NewListingDeduper(client *redis.Client) *ListingDeduper {
	return &ListingDeduper{client: client}
}

func (d *ListingDeduper) Seen(ctx context.Context, url string) (bool, error) {
	n, err := d.client.Exists(ctx, seenKeyPrefix+url).Result()
	if err != nil {
		return false, domain.WrapError(err, errcodes.InternalServerError, "failed to check seen listing")
	}

	return n > 0, nil
}

func (d *ListingDeduper) MarkSeen(ctx context.Context, url string) error {
	if err := d.client.Set(ctx, seenKeyPrefix+url, 1, seenTTL).Err(); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to mark listing seen")
	}

	return nil
}
