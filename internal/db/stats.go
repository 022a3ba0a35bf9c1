package db

import (
	"context"
)

// CountReviewsByStatus returns the number of reviews in each status.
func (d *DB) CountReviewsByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := d.Pool.Query(ctx, `SELECT status, COUNT(*) FROM reviews GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// CountFlaggedReviews returns how many reviews are currently flagged.
func (d *DB) CountFlaggedReviews(ctx context.Context) (int, error) {
	var count int
	err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE flagged`).Scan(&count)
	return count, err
}
