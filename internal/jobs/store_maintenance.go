package jobs

import (
	"context"
	"fmt"
)

// Stats returns job counts grouped by status.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM transcriptions GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := Stats{ByStatus: make(map[Status]int)}
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, err
		}
		stats.ByStatus[status] = count
		stats.Total += count
		switch status {
		case StatusProcessing:
			stats.Processing += count
		case StatusCompleted:
			stats.Completed += count
		case StatusFailed:
			stats.Failed += count
		}
	}
	return stats, rows.Err()
}

// Ping verifies the database connection is usable.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("job database connection unavailable")
	}
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping job database: %w", err)
	}
	return nil
}
