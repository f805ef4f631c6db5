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

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert registers a user or refreshes the profile fields.
func (r *UserRepository) Upsert(ctx context.Context, user *entity.User) error {
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO users (id, username, is_premium, created_at)
		VALUES (:id, :username, :is_premium, :created_at)
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username, is_premium = EXCLUDED.is_premium`

	params := map[string]any{
		"id":         user.ID,
		"username":   user.Username,
		"is_premium": user.IsPremium,
		"created_at": createdAt,
	}

	if _, err := r.db.NamedExecContext(ctx, query, params); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to upsert user")
	}

	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	query := `
		SELECT id, username, city, payment_methods, min_profit_pct, is_premium, balance_rub, created_at
		FROM users WHERE id = $1`

	var schema userSchema
	if err := r.db.GetContext(ctx, &schema, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(errcodes.UserNotFound, "user not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get user")
	}

	return schema.toDomain(), nil
}

// ListIDs returns all registered user identifiers, for broadcasts.
func (r *UserRepository) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM users ORDER BY id`); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list users")
	}

	return ids, nil
}

// ListRecipients returns users whose minimum-profit setting admits a deal
// with the given margin. Premium users come first.
func (r *UserRepository) ListRecipients(ctx context.Context, marginPct float64) ([]int64, error) {
	query := `
		SELECT id FROM users
		WHERE min_profit_pct <= $1
		ORDER BY is_premium DESC, id`

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, marginPct); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list recipients")
	}

	return ids, nil
}

// UpdateSettings replaces the user's notification preferences.
func (r *UserRepository) UpdateSettings(ctx context.Context, userID int64, city, paymentMethods string, minProfitPct float64) error {
	query := `
		UPDATE users
		SET city = $2, payment_methods = $3, min_profit_pct = $4
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, userID, city, paymentMethods, minProfitPct)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to update settings")
	}

	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.NewError(errcodes.UserNotFound, "user not found")
	}

	return nil
}

// SetPremium flips the premium flag after a successful invoice payment.
func (r *UserRepository) SetPremium(ctx context.Context, userID int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET is_premium = TRUE WHERE id = $1`, userID)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to set premium")
	}

	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.NewError(errcodes.UserNotFound, "user not found")
	}

	return nil
}
