// Package segindex persists per-session segment indexes and keeps them in
// step with a growing transcript.
package segindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/rcliao/session-recall/internal/model"
)

const indexFile = "segments.json"

var (
	// ErrCorrupt means the stored index could not be decoded. Load still
	// returns a usable empty index alongside it.
	ErrCorrupt = errors.New("segment index corrupt")
	// ErrTruncated means the transcript is shorter than the indexed cursor.
	ErrTruncated = errors.New("transcript shorter than indexed position")
	// ErrInvalidSession rejects session ids that are not safe path segments.
	ErrInvalidSession = errors.New("invalid session id")
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// FileStore keeps one index per session under Dir/<session_id>/segments.json.
type FileStore struct {
	Dir string
	Now func() time.Time
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir, Now: time.Now}
}

// ValidateSession checks that id can be used as a directory name.
func ValidateSession(id string) error {
	if id == "." || id == ".." || !sessionIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidSession, id)
	}
	return nil
}

// SessionPath returns the index file path for a session.
func (s *FileStore) SessionPath(sessionID string) (string, error) {
	if err := ValidateSession(sessionID); err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, sessionID, indexFile), nil
}

// Load reads a session index. A missing file yields an empty index; an
// undecodable one yields an empty index and ErrCorrupt.
func (s *FileStore) Load(sessionID string) (*model.Index, error) {
	path, err := s.SessionPath(sessionID)
	if err != nil {
		return nil, err
	}
	fresh := model.NewIndex()
	fresh.SessionID = sessionID

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fresh, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	var idx model.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return fresh, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	if idx.Segments == nil {
		idx.Segments = []model.Segment{}
	}
	if idx.SessionID == "" {
		idx.SessionID = sessionID
	}
	return &idx, nil
}

// Save rewrites the whole index atomically: a temp file in the same
// directory is synced and renamed over the old index.
func (s *FileStore) Save(idx *model.Index) error {
	path, err := s.SessionPath(idx.SessionID)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	idx.Version = model.IndexVersion
	idx.TotalSegments = len(idx.Segments)
	idx.LastUpdated = now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return writeAtomic(path, data)
}

func writeAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".segments-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace index: %w", err)
	}
	_ = syncDir(dir)
	return nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

// SessionInfo describes a stored index.
type SessionInfo struct {
	SessionID string
	Path      string
	ModTime   time.Time
}

// Sessions lists stored indexes, most recently written first.
func (s *FileStore) Sessions() ([]SessionInfo, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []SessionInfo
	for _, e := range entries {
		if !e.IsDir() || ValidateSession(e.Name()) != nil {
			continue
		}
		p := filepath.Join(s.Dir, e.Name(), indexFile)
		st, err := os.Stat(p)
		if err != nil {
			continue
		}
		out = append(out, SessionInfo{SessionID: e.Name(), Path: p, ModTime: st.ModTime()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ModTime.After(out[j].ModTime) })
	return out, nil
}
