package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"tonhunter/internal/domain"
	"tonhunter/internal/domain/entity"
	"tonhunter/internal/domain/value"
	"tonhunter/pkg/errcodes"
)

const dealColumns = `
	id, avito_url, avito_item_id, title, seller_name, ton_amount, price_rub, total_rub,
	status, buyer_id, ton_address, settlement_tx_ref, payout_tx_hash, payout_failed,
	created_at, payment_confirmed_at, expires_at, settled_at`

type DealRepository struct {
	db *sqlx.DB
}

func NewDealRepository(db *sqlx.DB) *DealRepository {
	return &DealRepository{db: db}
}

// withTx runs fn inside a transaction.
func (r *DealRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return domain.WrapError(
				fmt.Errorf("%w; rollback: %v", err, rbErr),
				errcodes.InternalServerError,
				"transaction failed",
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to commit")
	}

	return nil
}

// Create inserts a new deal and fills in the generated ID.
func (r *DealRepository) Create(ctx context.Context, deal *entity.Deal) error {
	createdAt := deal.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO deals (avito_url, avito_item_id, title, seller_name, ton_amount, price_rub, total_rub, status, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	if err := r.db.GetContext(ctx, &deal.ID, query,
		deal.AvitoURL,
		deal.AvitoItemID,
		deal.Title,
		deal.SellerName,
		deal.TonAmount,
		deal.PriceRub,
		deal.TotalRub,
		string(deal.Status),
		createdAt,
	); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to insert deal")
	}

	deal.CreatedAt = createdAt

	return nil
}

// GetByID returns the deal by its identifier.
func (r *DealRepository) GetByID(ctx context.Context, id int64) (*entity.Deal, error) {
	query := `SELECT` + dealColumns + ` FROM deals WHERE id = $1`

	var schema dealSchema
	if err := r.db.GetContext(ctx, &schema, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(errcodes.DealNotFound, "deal not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get deal")
	}

	return schema.toDomain(), nil
}

// ExistsBySource reports whether a listing is already tracked, by URL
// or by the marketplace item id. Relisting the same item under a new
// URL does not produce a second deal.
func (r *DealRepository) ExistsBySource(ctx context.Context, avitoURL, itemID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM deals
			WHERE avito_url = $1 OR avito_item_id = NULLIF($2, '')
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, avitoURL, itemID); err != nil {
		return false, domain.WrapError(err, errcodes.InternalServerError, "failed to check deal existence")
	}

	return exists, nil
}

func (r *DealRepository) ListUnclaimed(ctx context.Context, limit int) ([]*entity.Deal, error) {
	query := `SELECT` + dealColumns + `
		FROM deals
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2`

	return r.list(ctx, query, string(entity.StatusUnclaimed), limit)
}

func (r *DealRepository) ListByBuyer(ctx context.Context, buyerID int64) ([]*entity.Deal, error) {
	query := `SELECT` + dealColumns + `
		FROM deals
		WHERE buyer_id = $1
		ORDER BY created_at DESC`

	return r.list(ctx, query, buyerID)
}

func (r *DealRepository) ListRecent(ctx context.Context, limit int) ([]*entity.Deal, error) {
	query := `SELECT` + dealColumns + `
		FROM deals
		ORDER BY created_at DESC
		LIMIT $1`

	return r.list(ctx, query, limit)
}

// ListAwaitingSettlement returns address_bound deals whose settlement
// window has not run out. A late transfer against an expired deal is a
// refund case, so expired rows stay out of the matcher.
func (r *DealRepository) ListAwaitingSettlement(ctx context.Context, now time.Time) ([]*entity.Deal, error) {
	query := `SELECT` + dealColumns + `
		FROM deals
		WHERE status = $1 AND expires_at > $2
		ORDER BY created_at`

	return r.list(ctx, query, string(entity.StatusAddressBound), now)
}

// Claim atomically moves an unclaimed deal to reserved. The status guard
// in the WHERE clause makes sure exactly one concurrent claimer wins.
// No expiry is set here, the window opens with the payment.
func (r *DealRepository) Claim(ctx context.Context, dealID, buyerID int64, totalRub decimal.Decimal) error {
	query := `
		UPDATE deals
		SET status = $1, buyer_id = $2, total_rub = $3
		WHERE id = $4 AND status = $5`

	return r.execTransition(ctx, dealID, query,
		string(entity.StatusReserved), buyerID, totalRub, dealID, string(entity.StatusUnclaimed))
}

// ConfirmPayment moves a reserved deal to payment_confirmed and opens
// the settlement window.
func (r *DealRepository) ConfirmPayment(ctx context.Context, dealID int64, confirmedAt, expiresAt time.Time) error {
	query := `
		UPDATE deals
		SET status = $1, payment_confirmed_at = $2, expires_at = $3
		WHERE id = $4 AND status = $5`

	return r.execTransition(ctx, dealID, query,
		string(entity.StatusPaymentConfirmed), confirmedAt, expiresAt, dealID, string(entity.StatusReserved))
}

// BindAddress moves a paid deal to address_bound.
func (r *DealRepository) BindAddress(ctx context.Context, dealID int64, address value.TonAddress) error {
	query := `
		UPDATE deals
		SET status = $1, ton_address = $2
		WHERE id = $3 AND status = $4`

	return r.execTransition(ctx, dealID, query,
		string(entity.StatusAddressBound), address.String(), dealID, string(entity.StatusPaymentConfirmed))
}

// MarkSettled binds an inbound transfer to the deal and finalizes it.
// The settlement_tx_ref guard makes sure a deal is settled by exactly
// one transfer, even with concurrent monitors. The expiry guard keeps a
// late transfer from settling a timed-out deal before the sweep ran.
func (r *DealRepository) MarkSettled(ctx context.Context, dealID int64, txRef string, settledAt time.Time) error {
	query := `
		UPDATE deals
		SET status = $1, settlement_tx_ref = $2, settled_at = $3
		WHERE id = $4 AND status = $5 AND settlement_tx_ref IS NULL AND expires_at > $3`

	return r.execTransition(ctx, dealID, query,
		string(entity.StatusSettled), txRef, settledAt, dealID, string(entity.StatusAddressBound))
}

// SetPayoutTxHash records the outbound payout transaction of a settled
// deal.
func (r *DealRepository) SetPayoutTxHash(ctx context.Context, dealID int64, txHash string) error {
	query := `
		UPDATE deals
		SET payout_tx_hash = $1, payout_failed = FALSE
		WHERE id = $2 AND status = $3`

	return r.execTransition(ctx, dealID, query,
		txHash, dealID, string(entity.StatusSettled))
}

// MarkPayoutFailed flags a settled deal whose payout did not go through.
func (r *DealRepository) MarkPayoutFailed(ctx context.Context, dealID int64) error {
	query := `
		UPDATE deals
		SET payout_failed = TRUE
		WHERE id = $1 AND status = $2`

	return r.execTransition(ctx, dealID, query,
		dealID, string(entity.StatusSettled))
}

// MarkTerminal moves a deal into a terminal status, refusing to touch
// deals that are already closed.
func (r *DealRepository) MarkTerminal(ctx context.Context, dealID int64, status entity.DealStatus) error {
	query := `
		UPDATE deals
		SET status = $1
		WHERE id = $2 AND status NOT IN ($3, $4, $5, $6)`

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query,
			string(status),
			dealID,
			string(entity.StatusSettled),
			string(entity.StatusExpired),
			string(entity.StatusCancelled),
			string(entity.StatusRefunded),
		)
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to execute update")
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to check affected rows")
		}

		if rows == 0 {
			return r.explainStall(ctx, tx, dealID)
		}

		return nil
	})
}

// ExpireStale sweeps paid deals whose window ran out and returns them.
// Reserved deals carry no window and never time out.
func (r *DealRepository) ExpireStale(ctx context.Context, now time.Time) ([]*entity.Deal, error) {
	query := `
		UPDATE deals
		SET status = $1
		WHERE status IN ($2, $3) AND expires_at < $4
		RETURNING` + dealColumns

	var schemas []dealSchema

	if err := r.db.SelectContext(ctx, &schemas, query,
		string(entity.StatusExpired),
		string(entity.StatusPaymentConfirmed),
		string(entity.StatusAddressBound),
		now,
	); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to expire deals")
	}

	deals := make([]*entity.Deal, 0, len(schemas))
	for i := range schemas {
		deals = append(deals, schemas[i].toDomain())
	}

	return deals, nil
}

// Stats aggregates deal counters and settled volume.
func (r *DealRepository) Stats(ctx context.Context) (*entity.DealStats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = $1) AS settled,
			COUNT(*) FILTER (WHERE status IN ($2, $3, $4)) AS active,
			COUNT(*) FILTER (WHERE status = $5) AS expired,
			COALESCE(SUM(ton_amount) FILTER (WHERE status = $1), 0) AS volume_ton,
			COALESCE(SUM(total_rub) FILTER (WHERE status = $1), 0) AS volume_rub
		FROM deals`

	var row struct {
		Total     int             `db:"total"`
		Settled   int             `db:"settled"`
		Active    int             `db:"active"`
		Expired   int             `db:"expired"`
		VolumeTon decimal.Decimal `db:"volume_ton"`
		VolumeRub decimal.Decimal `db:"volume_rub"`
	}

	if err := r.db.GetContext(ctx, &row, query,
		string(entity.StatusSettled),
		string(entity.StatusReserved),
		string(entity.StatusPaymentConfirmed),
		string(entity.StatusAddressBound),
		string(entity.StatusExpired),
	); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to aggregate stats")
	}

	return &entity.DealStats{
		TotalDeals:     row.Total,
		SettledDeals:   row.Settled,
		ActiveDeals:    row.Active,
		ExpiredDeals:   row.Expired,
		TotalVolumeTon: row.VolumeTon,
		TotalVolumeRub: row.VolumeRub,
	}, nil
}

func (r *DealRepository) list(ctx context.Context, query string, args ...any) ([]*entity.Deal, error) {
	var schemas []dealSchema
	if err := r.db.SelectContext(ctx, &schemas, query, args...); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list deals")
	}

	deals := make([]*entity.Deal, 0, len(schemas))
	for i := range schemas {
		deals = append(deals, schemas[i].toDomain())
	}

	return deals, nil
}

// execTransition runs a guarded status update. Zero affected rows means
// either the deal is gone or somebody else moved it first.
func (r *DealRepository) execTransition(ctx context.Context, dealID int64, query string, args ...any) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to execute update")
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to check affected rows")
		}

		if rows == 0 {
			return r.explainStall(ctx, tx, dealID)
		}

		return nil
	})
}

// explainStall turns a zero-rows update into a precise domain error.
func (r *DealRepository) explainStall(ctx context.Context, tx *sqlx.Tx, dealID int64) error {
	var status string

	err := tx.GetContext(ctx, &status, `SELECT status FROM deals WHERE id = $1`, dealID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewError(errcodes.DealNotFound, "deal not found")
	}

	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to inspect deal")
	}

	if entity.DealStatus(status).Terminal() {
		return domain.NewError(errcodes.AlreadyTerminal, "deal is closed")
	}

	return domain.NewError(errcodes.DealUnavailable, "deal is in another state")
}
