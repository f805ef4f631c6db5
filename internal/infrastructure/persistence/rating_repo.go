package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"tonhunter/internal/domain"
	"tonhunter/internal/domain/entity"
	"tonhunter/pkg/errcodes"
)

type RatingRepository struct {
	db *sqlx.DB
}

func NewRatingRepository(db *sqlx.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

func (r *RatingRepository) Get(ctx context.Context, sellerName, platform string) (*entity.Rating, error) {
	query := `
		SELECT seller_name, platform, success_count, fail_count, volume_rub, updated_at
		FROM seller_ratings
		WHERE seller_name = $1 AND platform = $2`

	var schema ratingSchema
	if err := r.db.GetContext(ctx, &schema, query, sellerName, platform); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(errcodes.RatingNotFound, "rating not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get rating")
	}

	return schema.toDomain(), nil
}

func (r *RatingRepository) Upsert(ctx context.Context, rating *entity.Rating) error {
	query := `
		INSERT INTO seller_ratings (seller_name, platform, success_count, fail_count, volume_rub, updated_at)
		VALUES (:seller_name, :platform, :success_count, :fail_count, :volume_rub, :updated_at)
		ON CONFLICT (seller_name, platform) DO UPDATE
		SET success_count = EXCLUDED.success_count,
		    fail_count = EXCLUDED.fail_count,
		    volume_rub = EXCLUDED.volume_rub,
		    updated_at = EXCLUDED.updated_at`

	params := map[string]any{
		"seller_name":   rating.SellerName,
		"platform":      rating.Platform,
		"success_count": rating.SuccessCount,
		"fail_count":    rating.FailCount,
		"volume_rub":    rating.VolumeRub,
		"updated_at":    time.Now(),
	}

	if _, err := r.db.NamedExecContext(ctx, query, params); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to upsert rating")
	}

	return nil
}

func (r *RatingRepository) AddReview(ctx context.Context, review *entity.Review) error {
	query := `
		INSERT INTO seller_reviews (deal_id, user_id, seller_name, score, review_text, is_scam, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	createdAt := review.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	if err := r.db.GetContext(ctx, &review.ID, query,
		review.DealID,
		review.UserID,
		review.SellerName,
		review.Score,
		review.Text,
		review.IsScam,
		createdAt,
	); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to insert review")
	}

	review.CreatedAt = createdAt

	return nil
}

func (r *RatingRepository) ListReviews(ctx context.Context, sellerName string, limit int) ([]entity.Review, error) {
	query := `
		SELECT id, deal_id, user_id, seller_name, score, review_text, is_scam, created_at
		FROM seller_reviews
		WHERE seller_name = $1
		ORDER BY created_at DESC
		LIMIT $2`

	var schemas []reviewSchema
	if err := r.db.SelectContext(ctx, &schemas, query, sellerName, limit); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list reviews")
	}

	reviews := make([]entity.Review, 0, len(schemas))
	for i := range schemas {
		reviews = append(reviews, schemas[i].toDomain())
	}

	return reviews, nil
}
