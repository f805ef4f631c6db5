package rating_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tonhunter/internal/domain"
	"tonhunter/internal/domain/entity"
	"tonhunter/internal/domain/service/rating"
	"tonhunter/pkg/errcodes"
)

type memRatingRepo struct {
	ratings map[string]*entity.Rating
	reviews []entity.Review
	failing bool
}

func newMemRatingRepo() *memRatingRepo {
	return &memRatingRepo{ratings: map[string]*entity.Rating{}}
}

func (r *memRatingRepo) Get(_ context.Context, sellerName, platform string) (*entity.Rating, error) {
	if r.failing {
		return nil, domain.NewError(errcodes.InternalServerError, "db down")
	}

	rating, ok := r.ratings[platform+"/"+sellerName]
	if !ok {
		return nil, domain.NewError(errcodes.RatingNotFound, "rating not found")
	}

	clone := *rating

	return &clone, nil
}

func (r *memRatingRepo) Upsert(_ context.Context, rating *entity.Rating) error {
	if r.failing {
		return domain.NewError(errcodes.InternalServerError, "db down")
	}

	clone := *rating
	r.ratings[rating.Platform+"/"+rating.SellerName] = &clone

	return nil
}

func (r *memRatingRepo) AddReview(_ context.Context, review *entity.Review) error {
	if r.failing {
		return domain.NewError(errcodes.InternalServerError, "db down")
	}

	r.reviews = append(r.reviews, *review)

	return nil
}

func (r *memRatingRepo) ListReviews(_ context.Context, sellerName string, limit int) ([]entity.Review, error) {
	var out []entity.Review

	for _, review := range r.reviews {
		if review.SellerName == sellerName {
			out = append(out, review)
		}

		if limit > 0 && len(out) == limit {
			break
		}
	}

	return out, nil
}

func TestRecordOutcome(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	repo := newMemRatingRepo()
	svc := rating.NewService(repo)

	first, err := svc.RecordOutcome(ctx, "seller", true, decimal.NewFromInt(10000))
	rq.NoError(err)
	rq.Equal(1, first.SuccessCount)
	rq.True(first.VolumeRub.Equal(decimal.NewFromInt(10000)))

	second, err := svc.RecordOutcome(ctx, "seller", false, decimal.Zero)
	rq.NoError(err)
	rq.Equal(1, second.SuccessCount)
	rq.Equal(1, second.FailCount)
	// Failed deals do not add volume.
	rq.True(second.VolumeRub.Equal(decimal.NewFromInt(10000)))
}

func TestRecordOutcomeLedgerDown(t *testing.T) {
	ctx := context.Background()

	repo := newMemRatingRepo()
	repo.failing = true

	svc := rating.NewService(repo)

	_, err := svc.RecordOutcome(ctx, "seller", true, decimal.NewFromInt(100))

	code, ok := domain.GetCode(err)
	require.True(t, ok)
	require.Equal(t, errcodes.LedgerUnavailable, code)
}

func TestTrustScore(t *testing.T) {
	testCases := []struct {
		name   string
		rating entity.Rating
		want   float64
	}{
		{
			name:   "No history",
			rating: entity.Rating{VolumeRub: decimal.Zero},
			want:   0,
		},
		{
			name:   "Single success seeds at 80",
			rating: entity.Rating{SuccessCount: 1, VolumeRub: decimal.NewFromInt(10000)},
			want:   80,
		},
		{
			name:   "Single failure seeds at 20",
			rating: entity.Rating{FailCount: 1, VolumeRub: decimal.Zero},
			want:   20,
		},
		{
			name:   "Mixed history with volume",
			rating: entity.Rating{SuccessCount: 9, FailCount: 1, VolumeRub: decimal.NewFromInt(50000)},
			want:   78, // 90 * 0.7 + 0.5 * 30
		},
		{
			name:   "Perfect history at the volume cap",
			rating: entity.Rating{SuccessCount: 20, VolumeRub: decimal.NewFromInt(500000)},
			want:   100,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.want, rating.TrustScore(&tc.rating), 0.001)
		})
	}
}

func TestAddReview(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	repo := newMemRatingRepo()
	svc := rating.NewService(repo)

	err := svc.AddReview(ctx, &entity.Review{DealID: 1, UserID: 1, SellerName: "seller", Score: 6})

	code, ok := domain.GetCode(err)
	rq.True(ok)
	rq.Equal(errcodes.InvalidReviewRating, code)

	rq.NoError(svc.AddReview(ctx, &entity.Review{DealID: 1, UserID: 1, SellerName: "seller", Score: 5, Text: "fast"}))

	reviews, err := svc.ListReviews(ctx, "seller", 10)
	rq.NoError(err)
	rq.Len(reviews, 1)
}
