package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"propreviews/internal/models"
)

// reviewSelect reads reviews joined with the author's name. Queries append
// their own WHERE/ORDER clauses.
const reviewSelect = `
	SELECT r.id, r.property_id, r.author_id, r.submitter_key, r.display_name, r.anonymous,
		r.rating, r.title, r.body, r.pros_cons, r.lived_from, r.lived_to, r.status,
		r.flagged, r.flagged_reason, r.moderated_by, r.moderated_at, r.created_at,
		COALESCE(u.name, '')
	FROM reviews r
	LEFT JOIN users u ON u.id = r.author_id`

// visibleAuthor hides reviews written by suspended users.
const visibleAuthor = `COALESCE(u.suspended, FALSE) = FALSE`

func scanReview(row pgx.Row) (*models.Review, error) {
	var r models.Review
	err := row.Scan(
		&r.ID,
		&r.PropertyID,
		&r.AuthorID,
		&r.SubmitterKey,
		&r.DisplayName,
		&r.Anonymous,
		&r.Rating,
		&r.Title,
		&r.Body,
		&r.ProsCons,
		&r.LivedFrom,
		&r.LivedTo,
		&r.Status,
		&r.Flagged,
		&r.FlaggedReason,
		&r.ModeratedBy,
		&r.ModeratedAt,
		&r.CreatedAt,
		&r.AuthorName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanReviews(rows pgx.Rows) ([]models.Review, error) {
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *r)
	}
	return reviews, rows.Err()
}

// ReviewQueries are the review reads and writes available while a
// submitter's lock is held.
type ReviewQueries interface {
	HasReviewed(ctx context.Context, propertyID uuid.UUID, sub models.Submitter) (bool, error)
	CountReviewsSince(ctx context.Context, sub models.Submitter, since time.Time) (int, error)
	HasSimilarReview(ctx context.Context, sub models.Submitter, otherThan uuid.UUID, prefix string, since time.Time) (bool, error)
	InsertReview(ctx context.Context, r *models.Review) error
}

type reviewTx struct {
	tx pgx.Tx
}

// WithSubmitterLock runs fn in a transaction holding an advisory lock on the
// submitter, so a count-then-insert sequence cannot interleave with another
// submission from the same submitter. The transaction commits only if fn
// returns nil.
func (d *DB) WithSubmitterLock(ctx context.Context, sub models.Submitter, fn func(ReviewQueries) error) error {
	key := sub.Key()
	if key == "" {
		return errors.New("submitter has no identity")
	}

	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("failed to lock submitter: %w", err)
	}

	if err := fn(&reviewTx{tx: tx}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (q *reviewTx) HasReviewed(ctx context.Context, propertyID uuid.UUID, sub models.Submitter) (bool, error) {
	var exists bool
	err := q.tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM reviews WHERE property_id = $1 AND submitter_key = $2)
	`, propertyID, sub.Key()).Scan(&exists)
	return exists, err
}

// CountReviewsSince counts reviews created after since, regardless of status.
func (q *reviewTx) CountReviewsSince(ctx context.Context, sub models.Submitter, since time.Time) (int, error) {
	var count int
	err := q.tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM reviews
		WHERE submitter_key = $1 AND created_at > $2
	`, sub.Key(), since).Scan(&count)
	return count, err
}

// HasSimilarReview reports whether the submitter's recent reviews of other
// properties contain prefix anywhere in their whitespace-normalized body.
func (q *reviewTx) HasSimilarReview(ctx context.Context, sub models.Submitter, otherThan uuid.UUID, prefix string, since time.Time) (bool, error) {
	var exists bool
	err := q.tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM reviews
			WHERE submitter_key = $1 AND property_id <> $2 AND created_at > $4
			  AND lower(regexp_replace(body, '\s+', ' ', 'g')) LIKE '%' || $3 || '%'
		)
	`, sub.Key(), otherThan, escapeLike(prefix), since).Scan(&exists)
	return exists, err
}

func (q *reviewTx) InsertReview(ctx context.Context, r *models.Review) error {
	query := `
		INSERT INTO reviews (
			property_id, author_id, submitter_key, display_name, anonymous, rating, title, body,
			pros_cons, lived_from, lived_to, status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	err := q.tx.QueryRow(ctx, query,
		r.PropertyID,
		r.AuthorID,
		r.SubmitterKey,
		r.DisplayName,
		r.Anonymous,
		r.Rating,
		r.Title,
		r.Body,
		r.ProsCons,
		r.LivedFrom,
		r.LivedTo,
		r.Status,
		r.CreatedAt,
	).Scan(&r.ID)
	if isUniqueViolation(err) {
		return ErrDuplicateReview
	}
	return err
}

// GetReviewByID retrieves any review regardless of status.
func (d *DB) GetReviewByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	return scanReview(d.Pool.QueryRow(ctx, reviewSelect+` WHERE r.id = $1`, id))
}

// ListApprovedReviews returns a property's public reviews, newest first.
func (d *DB) ListApprovedReviews(ctx context.Context, propertyID uuid.UUID) ([]models.Review, error) {
	rows, err := d.Pool.Query(ctx, reviewSelect+`
		WHERE r.property_id = $1 AND r.status = $2 AND `+visibleAuthor+`
		ORDER BY r.created_at DESC, r.id ASC
	`, propertyID, models.StatusApproved)
	if err != nil {
		return nil, err
	}
	return scanReviews(rows)
}

// ListReviewsByAuthor returns every review a user wrote, any status, newest first.
func (d *DB) ListReviewsByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Review, error) {
	rows, err := d.Pool.Query(ctx, reviewSelect+`
		WHERE r.author_id = $1
		ORDER BY r.created_at DESC, r.id ASC
	`, authorID)
	if err != nil {
		return nil, err
	}
	return scanReviews(rows)
}

// ListPendingReviews returns reviews awaiting moderation, oldest first.
func (d *DB) ListPendingReviews(ctx context.Context, limit int) ([]models.Review, error) {
	rows, err := d.Pool.Query(ctx, reviewSelect+`
		WHERE r.status = $1
		ORDER BY r.created_at ASC, r.id ASC
		LIMIT $2
	`, models.StatusPending, limit)
	if err != nil {
		return nil, err
	}
	return scanReviews(rows)
}

// ListFlaggedReviews returns reviews that users have reported.
func (d *DB) ListFlaggedReviews(ctx context.Context, limit int) ([]models.Review, error) {
	rows, err := d.Pool.Query(ctx, reviewSelect+`
		WHERE r.flagged
		ORDER BY r.created_at DESC, r.id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return scanReviews(rows)
}

// TransitionReviews moves every pending review in ids to status. It returns
// the reviews that changed and the set of ids that exist at all, so callers
// can tell "already moderated" from "not found".
func (d *DB) TransitionReviews(ctx context.Context, ids []uuid.UUID, status string, moderatorID uuid.UUID) ([]models.Review, map[uuid.UUID]bool, error) {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		UPDATE reviews
		SET status = $1,
			moderated_by = $2,
			moderated_at = NOW(),
			flagged = CASE WHEN $1 = 'approved' THEN FALSE ELSE flagged END,
			flagged_reason = CASE WHEN $1 = 'approved' THEN '' ELSE flagged_reason END
		WHERE id = ANY($3) AND status = $4
		RETURNING id
	`, status, moderatorID, ids, models.StatusPending)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update reviews: %w", err)
	}
	var changed []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, nil, err
		}
		changed = append(changed, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	rows, err = tx.Query(ctx, reviewSelect+` WHERE r.id = ANY($1)`, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	all, err := scanReviews(rows)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit moderation: %w", err)
	}

	changedSet := make(map[uuid.UUID]bool, len(changed))
	for _, id := range changed {
		changedSet[id] = true
	}
	found := make(map[uuid.UUID]bool, len(all))
	var applied []models.Review
	for _, r := range all {
		found[r.ID] = true
		if changedSet[r.ID] {
			applied = append(applied, r)
		}
	}
	return applied, found, nil
}

// UnflagReview clears a review's flag.
func (d *DB) UnflagReview(ctx context.Context, id uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `
		UPDATE reviews SET flagged = FALSE, flagged_reason = '' WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}
