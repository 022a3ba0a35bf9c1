package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"propreviews/internal/models"
)

// CreateReport records a user's report against an approved review and flags
// the review. A user may report a given review only once.
func (d *DB) CreateReport(ctx context.Context, report *models.ReviewReport) error {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM reviews WHERE id = $1 FOR UPDATE`, report.ReviewID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && status != models.StatusApproved) {
		return ErrReviewNotFound
	}
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO review_reports (review_id, reporter_id, reason, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, report.ReviewID, report.ReporterID, report.Reason, report.Description).Scan(&report.ID, &report.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateReport
	}
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE reviews SET flagged = TRUE, flagged_reason = $1 WHERE id = $2
	`, "reported: "+report.Reason, report.ReviewID)
	if err != nil {
		return fmt.Errorf("failed to flag review: %w", err)
	}

	return tx.Commit(ctx)
}

const reportSelect = `
	SELECT rr.id, rr.review_id, rr.reporter_id, COALESCE(u.name, ''), rr.reason, rr.description,
		rr.resolved, rr.resolved_by, rr.resolved_at, rr.created_at
	FROM review_reports rr
	LEFT JOIN users u ON u.id = rr.reporter_id`

func scanReport(row pgx.Row) (*models.ReviewReport, error) {
	var r models.ReviewReport
	err := row.Scan(
		&r.ID,
		&r.ReviewID,
		&r.ReporterID,
		&r.ReporterName,
		&r.Reason,
		&r.Description,
		&r.Resolved,
		&r.ResolvedBy,
		&r.ResolvedAt,
		&r.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReports returns the reports filed against the given reviews, unresolved
// first and then oldest first.
func (d *DB) ListReports(ctx context.Context, reviewIDs []uuid.UUID) ([]models.ReviewReport, error) {
	if len(reviewIDs) == 0 {
		return []models.ReviewReport{}, nil
	}
	rows, err := d.Pool.Query(ctx, reportSelect+`
		WHERE rr.review_id = ANY($1)
		ORDER BY rr.resolved, rr.created_at, rr.id
	`, reviewIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []models.ReviewReport{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

// SetReportResolved marks a report resolved by moderatorID, or reopens it.
// The review's flag is left alone.
func (d *DB) SetReportResolved(ctx context.Context, id uuid.UUID, resolved bool, moderatorID uuid.UUID) (*models.ReviewReport, error) {
	result, err := d.Pool.Exec(ctx, `
		UPDATE review_reports SET
			resolved = $2,
			resolved_by = CASE WHEN $2 THEN $3::uuid END,
			resolved_at = CASE WHEN $2 THEN NOW() END
		WHERE id = $1
	`, id, resolved, moderatorID)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected() == 0 {
		return nil, ErrReportNotFound
	}
	return scanReport(d.Pool.QueryRow(ctx, reportSelect+` WHERE rr.id = $1`, id))
}
