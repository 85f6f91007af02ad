package hook

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"
)

// ErrNoSession means no transcript could be found for the hook event.
var ErrNoSession = errors.New("no session transcript found")

// Session identifies a transcript and where its index lives.
type Session struct {
	ID             string
	Project        string
	TranscriptPath string
}

// Resolver maps hook input to a session, discovering the transcript under
// ProjectsDir when the input does not carry one.
type Resolver struct {
	ProjectsDir string
	exclude     []glob.Glob
}

// NewResolver compiles the exclude patterns. Patterns match slash-separated
// absolute paths, with ** crossing directories.
func NewResolver(projectsDir string, exclude []string) (*Resolver, error) {
	r := &Resolver{ProjectsDir: projectsDir}
	for _, p := range exclude {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", p, err)
		}
		r.exclude = append(r.exclude, g)
	}
	return r, nil
}

// ProjectKey is the directory name the runtime uses for a working directory.
func ProjectKey(cwd string) string {
	return strings.NewReplacer("/", "-", "\\", "-", " ", "-").Replace(filepath.Clean(cwd))
}

// Resolve picks the session for in. An explicit transcript path wins; then
// a transcript named after the session id; then the newest transcript of the
// cwd's project; then the newest transcript anywhere.
func (r *Resolver) Resolve(in Input) (Session, error) {
	if in.TranscriptPath != "" {
		return sessionFor(in.TranscriptPath, in.SessionID), nil
	}
	if r.ProjectsDir == "" {
		return Session{}, ErrNoSession
	}

	var preferred string
	if in.CWD != "" {
		preferred = filepath.Join(r.ProjectsDir, ProjectKey(in.CWD))
	}

	if in.SessionID != "" {
		if preferred != "" {
			p := filepath.Join(preferred, in.SessionID+".jsonl")
			if fileExists(p) && !r.excluded(p) {
				return sessionFor(p, in.SessionID), nil
			}
		}
		matches, _ := filepath.Glob(filepath.Join(r.ProjectsDir, "*", in.SessionID+".jsonl"))
		for _, p := range matches {
			if !r.excluded(p) {
				return sessionFor(p, in.SessionID), nil
			}
		}
	}

	if preferred != "" {
		if p, ok := r.newest(preferred); ok {
			return sessionFor(p, ""), nil
		}
	}
	if p, ok := r.newest(r.ProjectsDir); ok {
		return sessionFor(p, ""), nil
	}
	return Session{}, ErrNoSession
}

func sessionFor(path, id string) Session {
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return Session{
		ID:             id,
		Project:        filepath.Base(filepath.Dir(path)),
		TranscriptPath: path,
	}
}

func (r *Resolver) excluded(path string) bool {
	p := filepath.ToSlash(path)
	for _, g := range r.exclude {
		if g.Match(p) {
			return true
		}
	}
	return false
}

// newest walks root for the most recently modified *.jsonl, skipping hidden
// directories and excluded paths.
func (r *Resolver) newest(root string) (string, bool) {
	var (
		best     string
		bestTime time.Time
	)
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".jsonl" || r.excluded(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if best == "" || info.ModTime().After(bestTime) {
			best, bestTime = path, info.ModTime()
		}
		return nil
	})
	return best, best != ""
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
