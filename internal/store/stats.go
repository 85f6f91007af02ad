package store

import (
	"context"
	"os"
)

// Stats holds archive statistics.
type Stats struct {
	DBPath        string         `json:"db_path"`
	DBSizeBytes   int64          `json:"db_size_bytes"`
	TotalSegments int            `json:"total_segments"`
	TotalChunks   int            `json:"total_chunks"`
	Sessions      int            `json:"sessions"`
	Boundaries    map[string]int `json:"boundaries"`
	Projects      []ProjectStats `json:"projects"`
}

// ProjectStats holds per-project counts.
type ProjectStats struct {
	Project  string `json:"project"`
	Segments int    `json:"segments"`
	Sessions int    `json:"sessions"`
}

// Stats returns archive statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath, Boundaries: map[string]int{}}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM segments`).Scan(&st.TotalSegments)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&st.TotalChunks)
	s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT session_id) FROM segments`).Scan(&st.Sessions)

	rows, err := s.db.QueryContext(ctx,
		`SELECT boundary_type, COUNT(*) FROM segments GROUP BY boundary_type`)
	if err != nil {
		return st, err
	}
	for rows.Next() {
		var b string
		var n int
		rows.Scan(&b, &n)
		st.Boundaries[b] = n
	}
	rows.Close()

	st.Projects, err = s.ListProjects(ctx)
	return st, err
}

// ListProjects returns segment and session counts per project.
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]ProjectStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project, COUNT(*) AS cnt, COUNT(DISTINCT session_id) AS sessions
		FROM segments
		GROUP BY project ORDER BY cnt DESC, project`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProjectStats
	for rows.Next() {
		var p ProjectStats
		if err := rows.Scan(&p.Project, &p.Segments, &p.Sessions); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
