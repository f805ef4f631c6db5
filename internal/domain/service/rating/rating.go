package rating

import (
	"context"
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"tonhunter/internal/domain"
	"tonhunter/internal/domain/entity"
	"tonhunter/pkg/errcodes"
)

const (
	// successWeight and volumeWeight split the trust score: up to 70
	// points come from the success rate, up to 30 from traded volume.
	successWeight = 0.7
	volumeWeight  = 30.0

	// volumeCapRub is the volume at which the volume component maxes out.
	volumeCapRub = 100_000.0

	// A seller with a single recorded outcome gets a flat seed score
	// instead of a 0% or 100% track record.
	firstSuccessScore = 80.0
	firstFailScore    = 20.0

	minReviewScore = 1
	maxReviewScore = 5

	DefaultPlatform = "avito"
)

type Repository interface {
	Get(ctx context.Context, sellerName, platform string) (*entity.Rating, error)
	Upsert(ctx context.Context, rating *entity.Rating) error
	AddReview(ctx context.Context, review *entity.Review) error
	ListReviews(ctx context.Context, sellerName string, limit int) ([]entity.Review, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RecordOutcome updates the seller's history after a deal closes.
func (s *Service) RecordOutcome(ctx context.Context, sellerName string, success bool, volumeRub decimal.Decimal) (*entity.Rating, error) {
	rating, err := s.repo.Get(ctx, sellerName, DefaultPlatform)
	if err != nil {
		var appErr *domain.AppError
		if errors.As(err, &appErr) && appErr.Code == errcodes.RatingNotFound {
			rating = &entity.Rating{
				SellerName: sellerName,
				Platform:   DefaultPlatform,
				VolumeRub:  decimal.Zero,
			}
		} else {
			return nil, domain.WrapError(err, errcodes.LedgerUnavailable, "trust ledger unavailable")
		}
	}

	if success {
		rating.SuccessCount++
		rating.VolumeRub = rating.VolumeRub.Add(volumeRub)
	} else {
		rating.FailCount++
	}

	if err := s.repo.Upsert(ctx, rating); err != nil {
		return nil, domain.WrapError(err, errcodes.LedgerUnavailable, "trust ledger unavailable")
	}

	logger(ctx).Info("outcome recorded",
		"seller", sellerName,
		"success", success,
		"trust", TrustScore(rating),
	)

	return rating, nil
}

func (s *Service) Get(ctx context.Context, sellerName string) (*entity.Rating, error) {
	return s.repo.Get(ctx, sellerName, DefaultPlatform)
}

// AddReview stores a buyer's post-deal review.
func (s *Service) AddReview(ctx context.Context, review *entity.Review) error {
	if review.Score < minReviewScore || review.Score > maxReviewScore {
		return domain.NewError(errcodes.InvalidReviewRating, "review score must be between 1 and 5")
	}

	if err := s.repo.AddReview(ctx, review); err != nil {
		return domain.WrapError(err, errcodes.LedgerUnavailable, "trust ledger unavailable")
	}

	return nil
}

func (s *Service) ListReviews(ctx context.Context, sellerName string, limit int) ([]entity.Review, error) {
	return s.repo.ListReviews(ctx, sellerName, limit)
}

// TrustScore derives a 0..100 score from the recorded history.
func TrustScore(r *entity.Rating) float64 {
	total := r.TotalDeals()

	switch {
	case total == 0:
		return 0
	case total == 1 && r.SuccessCount == 1:
		return firstSuccessScore
	case total == 1:
		return firstFailScore
	}

	successRate := float64(r.SuccessCount) / float64(total) * 100

	volume, _ := r.VolumeRub.Float64()
	volumeFactor := math.Min(volume/volumeCapRub, 1)

	score := successRate*successWeight + volumeFactor*volumeWeight

	return math.Max(0, math.Min(score, 100))
}
