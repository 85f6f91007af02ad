package hook

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadInput(t *testing.T) {
	in, err := ReadInput(strings.NewReader(`{"session_id":"abc","transcript_path":"/t/abc.jsonl","cwd":"/w","hook_event_name":"Stop","extra":1}`))
	require.NoError(t, err)
	assert.Equal(t, Input{SessionID: "abc", TranscriptPath: "/t/abc.jsonl", CWD: "/w", HookEventName: EventStop}, in)

	in, err = ReadInput(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Equal(t, Input{}, in)

	_, err = ReadInput(strings.NewReader("{nope"))
	assert.Error(t, err)
}

func TestWriteContext(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteContext(&buf, EventSessionStart, "<restored> & more"))

	var out map[string]map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "<restored> & more", out["hookSpecificOutput"]["additionalContext"])
	assert.Equal(t, "SessionStart", out["hookSpecificOutput"]["hookEventName"])
	assert.Contains(t, buf.String(), "<restored>")
}

func TestProjectKey(t *testing.T) {
	assert.Equal(t, "-home-me-my-repo", ProjectKey("/home/me/my repo/"))
}

func touch(t *testing.T, path string, mt time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))
	require.NoError(t, os.Chtimes(path, mt, mt))
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	mine := filepath.Join(root, "-work-app")
	other := filepath.Join(root, "-work-other")
	touch(t, filepath.Join(mine, "s-old.jsonl"), base)
	touch(t, filepath.Join(mine, "s-new.jsonl"), base.Add(time.Hour))
	touch(t, filepath.Join(mine, "s-new", "subagents", "agent-1.jsonl"), base.Add(5*time.Hour))
	touch(t, filepath.Join(other, "s-other.jsonl"), base.Add(2*time.Hour))
	touch(t, filepath.Join(root, ".hidden", "s-hidden.jsonl"), base.Add(9*time.Hour))

	r, err := NewResolver(root, []string{"**/subagents/**"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		in      Input
		wantID  string
		project string
	}{
		{"explicit path", Input{TranscriptPath: "/x/proj/abc.jsonl"}, "abc", "proj"},
		{"explicit path keeps session id", Input{TranscriptPath: "/x/proj/abc.jsonl", SessionID: "given"}, "given", "proj"},
		{"by session id", Input{SessionID: "s-old", CWD: "/work/app"}, "s-old", "-work-app"},
		{"by session id in another project", Input{SessionID: "s-other", CWD: "/work/app"}, "s-other", "-work-other"},
		{"newest in cwd project", Input{CWD: "/work/app"}, "s-new", "-work-app"},
		{"newest anywhere", Input{}, "s-other", "-work-other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := r.Resolve(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, s.ID)
			assert.Equal(t, tt.project, s.Project)
		})
	}
}

func TestResolve_NoSession(t *testing.T) {
	r, err := NewResolver(t.TempDir(), nil)
	require.NoError(t, err)
	_, err = r.Resolve(Input{CWD: "/nowhere"})
	assert.ErrorIs(t, err, ErrNoSession)

	r, err = NewResolver("", nil)
	require.NoError(t, err)
	_, err = r.Resolve(Input{})
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestNewResolver_BadPattern(t *testing.T) {
	_, err := NewResolver("/x", []string{"[unclosed"})
	assert.Error(t, err)
}
