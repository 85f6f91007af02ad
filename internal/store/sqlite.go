package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/session-recall/internal/chunker"
	"github.com/rcliao/session-recall/internal/model"
)

// ErrNotFound is returned when an archived segment does not exist.
var ErrNotFound = errors.New("segment not found")

// SQLiteStore implements Store using SQLite with an FTS5 chunk index.
type SQLiteStore struct {
	db      *sql.DB
	entropy *rand.Rand
	now     func() time.Time
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS segments (
		id            TEXT PRIMARY KEY,
		session_id    TEXT NOT NULL,
		project       TEXT NOT NULL DEFAULT '',
		segment_id    TEXT NOT NULL,
		start_line    INTEGER NOT NULL,
		end_line      INTEGER NOT NULL,
		line_count    INTEGER NOT NULL,
		boundary_type TEXT NOT NULL,
		started_at    TEXT,
		topics        TEXT,
		files         TEXT,
		tools         TEXT,
		decisions     TEXT,
		summary       TEXT NOT NULL,
		excerpt       TEXT,
		indexed_at    TEXT NOT NULL,
		UNIQUE (session_id, segment_id)
	);
	CREATE INDEX IF NOT EXISTS idx_segments_project ON segments(project);
	CREATE INDEX IF NOT EXISTS idx_segments_indexed ON segments(indexed_at DESC);

	CREATE TABLE IF NOT EXISTS chunks (
		id          TEXT PRIMARY KEY,
		segment_ref TEXT NOT NULL REFERENCES segments(id) ON DELETE CASCADE,
		seq         INTEGER NOT NULL,
		text        TEXT NOT NULL,
		start_line  INTEGER,
		end_line    INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_segment ON chunks(segment_ref);

	CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
		text,
		content=chunks,
		content_rowid=rowid
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// FTS5 triggers keep the index in step with the chunks table.
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS chunks_ai AFTER INSERT ON chunks BEGIN
			INSERT INTO chunks_fts(rowid, text) VALUES (new.rowid, new.text);
		END`,
		`CREATE TRIGGER IF NOT EXISTS chunks_ad AFTER DELETE ON chunks BEGIN
			INSERT INTO chunks_fts(chunks_fts, rowid, text) VALUES('delete', old.rowid, old.text);
		END`,
		`CREATE TRIGGER IF NOT EXISTS chunks_au AFTER UPDATE ON chunks BEGIN
			INSERT INTO chunks_fts(chunks_fts, rowid, text) VALUES('delete', old.rowid, old.text);
			INSERT INTO chunks_fts(rowid, text) VALUES (new.rowid, new.text);
		END`,
	}
	for _, t := range triggers {
		if _, err := s.db.Exec(t); err != nil {
			return fmt.Errorf("create trigger: %w", err)
		}
	}
	return nil
}

// segmentColumns is the select list understood by scanSegment.
const segmentColumns = `s.id, s.session_id, s.project, s.segment_id, s.start_line, s.end_line,
	s.line_count, s.boundary_type, s.started_at, s.topics, s.files, s.tools, s.decisions,
	s.summary, s.excerpt, s.indexed_at,
	(SELECT COUNT(*) FROM chunks c WHERE c.segment_ref = s.id)`

func (s *SQLiteStore) Put(ctx context.Context, p PutParams) (*model.ArchivedSegment, bool, error) {
	if p.SessionID == "" || p.Segment.ID == "" {
		return nil, false, fmt.Errorf("put: session and segment id are required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM segments WHERE session_id = ? AND segment_id = ?`,
		p.SessionID, p.Segment.ID).Scan(&existing)
	if err == nil {
		tx.Rollback()
		a, err := s.Get(ctx, GetParams{SessionID: p.SessionID, SegmentID: p.Segment.ID})
		return a, false, err
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("lookup segment: %w", err)
	}

	now := s.now().UTC()
	id := s.newID()
	seg := p.Segment

	_, err = tx.ExecContext(ctx,
		`INSERT INTO segments (id, session_id, project, segment_id, start_line, end_line, line_count,
		                       boundary_type, started_at, topics, files, tools, decisions, summary, excerpt, indexed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.SessionID, p.Project, seg.ID, seg.StartLine, seg.EndLine, seg.LineCount,
		seg.BoundaryType, nullString(seg.Timestamp), jsonText(seg.Topics), jsonText(seg.FilesTouched),
		jsonText(seg.ToolsUsed), jsonText(seg.Decisions), seg.Summary, nullString(p.Excerpt),
		now.Format(time.RFC3339))
	if err != nil {
		return nil, false, fmt.Errorf("insert segment: %w", err)
	}

	chunks := segmentChunks(seg, p.Excerpt)
	for i, c := range chunks {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO chunks (id, segment_ref, seq, text, start_line, end_line)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			s.newID(), id, i, c.Text, c.StartLine, c.EndLine)
		if err != nil {
			return nil, false, fmt.Errorf("insert chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}

	return &model.ArchivedSegment{
		ID:         id,
		SessionID:  p.SessionID,
		Project:    p.Project,
		Segment:    seg,
		Excerpt:    p.Excerpt,
		IndexedAt:  now.Truncate(time.Second),
		ChunkCount: len(chunks),
	}, true, nil
}

// segmentChunks returns the searchable text of a segment: a header chunk
// built from its summary fields followed by the excerpt chunks.
func segmentChunks(seg model.Segment, excerpt string) []chunker.ChunkResult {
	var header []string
	header = append(header, seg.Summary)
	if len(seg.Topics) > 0 {
		header = append(header, "topics: "+strings.Join(seg.Topics, " "))
	}
	if len(seg.FilesTouched) > 0 {
		header = append(header, "files: "+strings.Join(seg.FilesTouched, " "))
	}
	for _, d := range seg.Decisions {
		header = append(header, "decision: "+d)
	}
	out := []chunker.ChunkResult{{Text: strings.Join(header, "\n")}}
	return append(out, chunker.Chunk(excerpt, chunker.DefaultOptions())...)
}

func (s *SQLiteStore) Get(ctx context.Context, p GetParams) (*model.ArchivedSegment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+segmentColumns+` FROM segments s WHERE s.session_id = ? AND s.segment_id = ?`,
		p.SessionID, p.SegmentID)
	a, err := scanSegment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, p.SessionID, p.SegmentID)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]model.ArchivedSegment, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	where, args := filters(p.Project, p.SessionID)
	if p.Boundary != "" {
		where = append(where, "s.boundary_type = ?")
		args = append(args, p.Boundary)
	}

	query := `SELECT ` + segmentColumns + ` FROM segments s`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY s.indexed_at DESC, s.session_id, s.start_line DESC LIMIT ?`
	args = append(args, limit)

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

func (s *SQLiteStore) Rm(ctx context.Context, p RmParams) (int, error) {
	if p.SessionID == "" {
		return 0, fmt.Errorf("rm: session id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	where := "session_id = ?"
	args := []any{p.SessionID}
	if p.SegmentID != "" {
		where += " AND segment_id = ?"
		args = append(args, p.SegmentID)
	}

	// Delete chunks explicitly so the FTS delete trigger fires for each row.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM chunks WHERE segment_ref IN (SELECT id FROM segments WHERE `+where+`)`, args...); err != nil {
		return 0, fmt.Errorf("delete chunks: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM segments WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete segments: %w", err)
	}
	n, _ := res.RowsAffected()
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func filters(project, sessionID string) ([]string, []any) {
	var (
		where []string
		args  []any
	)
	if project != "" {
		where = append(where, "s.project = ?")
		args = append(args, project)
	}
	if sessionID != "" {
		where = append(where, "s.session_id = ?")
		args = append(args, sessionID)
	}
	return where, args
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSegment(row scanner) (model.ArchivedSegment, error) {
	var a model.ArchivedSegment
	var startedAt, topics, files, tools, decisions, excerpt sql.NullString
	var indexedAt string

	err := row.Scan(
		&a.ID, &a.SessionID, &a.Project, &a.Segment.ID, &a.Segment.StartLine, &a.Segment.EndLine,
		&a.Segment.LineCount, &a.Segment.BoundaryType, &startedAt, &topics, &files, &tools, &decisions,
		&a.Segment.Summary, &excerpt, &indexedAt, &a.ChunkCount,
	)
	if err != nil {
		return a, err
	}

	a.IndexedAt, _ = time.Parse(time.RFC3339, indexedAt)
	a.Segment.Timestamp = startedAt.String
	a.Excerpt = excerpt.String
	if err := decodeJSON(topics, &a.Segment.Topics); err != nil {
		return a, err
	}
	if err := decodeJSON(files, &a.Segment.FilesTouched); err != nil {
		return a, err
	}
	if err := decodeJSON(tools, &a.Segment.ToolsUsed); err != nil {
		return a, err
	}
	if err := decodeJSON(decisions, &a.Segment.Decisions); err != nil {
		return a, err
	}
	return a, nil
}

func jsonText(v any) *string {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return nil
	}
	s := string(b)
	return &s
}

func decodeJSON(ns sql.NullString, dst any) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(ns.String), dst); err != nil {
		return fmt.Errorf("decode column: %w", err)
	}
	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
