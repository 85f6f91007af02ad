package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rcliao/session-recall/internal/model"
)

// SearchParams holds parameters for searching the archive.
type SearchParams struct {
	Project   string
	SessionID string
	Query     string
	Limit     int
}

// SearchResult wraps an archived segment with its best matching chunk.
type SearchResult struct {
	model.ArchivedSegment
	MatchChunk *model.Chunk `json:"match_chunk,omitempty"`
	Rank       float64      `json:"rank"`
}

// Search ranks segments by FTS5 relevance of their chunks. When the full
// text index finds nothing, it falls back to a substring match on summary,
// topics and excerpt.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]SearchResult, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}
	if strings.TrimSpace(p.Query) == "" {
		return nil, nil
	}

	if sanitizeFTS(p.Query) == "" {
		return s.searchLike(ctx, p, limit)
	}
	results, err := s.searchFTS(ctx, p, limit)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		return results, nil
	}
	return s.searchLike(ctx, p, limit)
}

func (s *SQLiteStore) searchFTS(ctx context.Context, p SearchParams, limit int) ([]SearchResult, error) {
	where, args := filters(p.Project, p.SessionID)
	where = append([]string{"chunks_fts MATCH ?"}, where...)
	args = append([]any{sanitizeFTS(p.Query)}, args...)

	// A segment can match on several chunks; keep only its best one so the
	// limit counts segments.
	query := `WITH hits AS (
			SELECT c.rowid AS chunk_rowid, c.segment_ref, fts.rank AS score,
				ROW_NUMBER() OVER (PARTITION BY c.segment_ref ORDER BY fts.rank, c.seq) AS pick
			FROM chunks_fts fts
			JOIN chunks c ON c.rowid = fts.rowid
			JOIN segments s ON s.id = c.segment_ref
			WHERE ` + strings.Join(where, " AND ") + `
		)
		SELECT ` + segmentColumns + `, c.id, c.seq, c.text, c.start_line, c.end_line, h.score
		FROM hits h
		JOIN chunks c ON c.rowid = h.chunk_rowid
		JOIN segments s ON s.id = h.segment_ref
		WHERE h.pick = 1
		ORDER BY h.score, s.id
		LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			r          SearchResult
			c          model.Chunk
			start, end sql.NullInt64
		)
		a, err := scanSegment(scanFunc(func(dest ...interface{}) error {
			return rows.Scan(append(dest, &c.ID, &c.Seq, &c.Text, &start, &end, &r.Rank)...)
		}))
		if err != nil {
			return nil, err
		}
		c.SegmentID = a.ID
		c.StartLine, c.EndLine = int(start.Int64), int(end.Int64)
		r.ArchivedSegment = a
		r.MatchChunk = &c
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) searchLike(ctx context.Context, p SearchParams, limit int) ([]SearchResult, error) {
	like := likePattern(p.Query)
	where, args := filters(p.Project, p.SessionID)
	where = append(where, `(s.summary LIKE ? ESCAPE '\' OR s.topics LIKE ? ESCAPE '\' OR s.excerpt LIKE ? ESCAPE '\')`)
	args = append(args, like, like, like, limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+segmentColumns+` FROM segments s WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY s.indexed_at DESC, s.start_line DESC LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		a, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{ArchivedSegment: a})
	}
	return results, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern matches q as a literal substring.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

type scanFunc func(dest ...interface{}) error

func (f scanFunc) Scan(dest ...interface{}) error { return f(dest...) }

// sanitizeFTS quotes every term so user input cannot be read as FTS5
// operators.
func sanitizeFTS(query string) string {
	var terms []string
	for _, w := range strings.Fields(query) {
		w = strings.ReplaceAll(w, `"`, "")
		if w == "" {
			continue
		}
		terms = append(terms, `"`+w+`"`)
	}
	return strings.Join(terms, " ")
}
