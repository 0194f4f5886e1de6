package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopbackend/internal/models"
)

type ReviewRepository struct {
	pool *pgxpool.Pool
}

func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	review.Prepare()

	query := `
		INSERT INTO reviews (id, product_id, customer_id, rating, title, comment,
			is_verified_purchase, is_approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		review.ID,
		review.ProductID,
		review.CustomerID,
		review.Rating,
		review.Title,
		review.Comment,
		review.IsVerifiedPurchase,
		review.IsApproved,
	)
	return err
}

func (r *ReviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID, approvedOnly bool) ([]models.Review, error) {
	query := `
		SELECT id, product_id, customer_id, rating, title, comment,
		       is_verified_purchase, is_approved, helpful_count, created_at, updated_at
		FROM reviews
		WHERE product_id = $1 AND ($2 = FALSE OR is_approved)
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, productID, approvedOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var rv models.Review
		err := rows.Scan(
			&rv.ID, &rv.ProductID, &rv.CustomerID, &rv.Rating, &rv.Title, &rv.Comment,
			&rv.IsVerifiedPurchase, &rv.IsApproved, &rv.HelpfulCount, &rv.CreatedAt, &rv.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

// ApproveVerifiedBefore auto-approves verified-purchase reviews at or above
// minRating that have waited since before the cutoff without moderation.
func (r *ReviewRepository) ApproveVerifiedBefore(ctx context.Context, cutoff time.Time, minRating int) (int64, error) {
	query := `UPDATE reviews
		SET is_approved = TRUE, updated_at = NOW()
		WHERE is_approved = FALSE
		  AND is_verified_purchase = TRUE
		  AND rating >= $2
		  AND created_at < $1`

	tag, err := r.pool.Exec(ctx, query, cutoff, minRating)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteUnapprovedBefore drops unapproved non-verified reviews older than the
// cutoff, the spam cleanup path.
func (r *ReviewRepository) DeleteUnapprovedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM reviews
		WHERE is_approved = FALSE
		  AND is_verified_purchase = FALSE
		  AND created_at < $1`

	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *ReviewRepository) AverageRating(ctx context.Context, productID uuid.UUID) (float64, int, error) {
	query := `SELECT COALESCE(AVG(rating), 0), COUNT(*)
		FROM reviews WHERE product_id = $1 AND is_approved = TRUE`

	var avg float64
	var count int
	if err := r.pool.QueryRow(ctx, query, productID).Scan(&avg, &count); err != nil {
		return 0, 0, err
	}
	return avg, count, nil
}
