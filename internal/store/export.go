package store

import (
	"context"

	"github.com/rcliao/session-recall/internal/model"
)

// ExportAll returns every archived segment, optionally for one session,
// in transcript order.
func (s *SQLiteStore) ExportAll(ctx context.Context, sessionID string) ([]model.ArchivedSegment, error) {
	where, args := filters("", sessionID)
	query := `SELECT ` + segmentColumns + ` FROM segments s`
	if len(where) > 0 {
		query += ` WHERE ` + where[0]
	}
	query += ` ORDER BY s.project, s.session_id, s.start_line`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ArchivedSegment
	for rows.Next() {
		a, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Import archives segments from an export. Segments already present are
// skipped; the count of newly stored segments is returned.
func (s *SQLiteStore) Import(ctx context.Context, segments []model.ArchivedSegment) (int, error) {
	imported := 0
	for _, a := range segments {
		_, created, err := s.Put(ctx, PutParams{
			SessionID: a.SessionID,
			Project:   a.Project,
			Segment:   a.Segment,
			Excerpt:   a.Excerpt,
		})
		if err != nil {
			return imported, err
		}
		if created {
			imported++
		}
	}
	return imported, nil
}
