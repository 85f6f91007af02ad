// Package hook speaks the JSON protocol of the agent runtime's lifecycle
// hooks and locates the transcript a hook event refers to.
package hook

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Event names the runtime sends.
const (
	EventStop         = "Stop"
	EventSessionStart = "SessionStart"
)

// Input is the JSON document the runtime writes to a hook's stdin.
type Input struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	CWD            string `json:"cwd"`
	HookEventName  string `json:"hook_event_name"`
	Source         string `json:"source,omitempty"`
}

// ReadInput decodes hook input. Empty input decodes to a zero Input so a
// hook run by hand still works.
func ReadInput(r io.Reader) (Input, error) {
	var in Input
	data, err := io.ReadAll(r)
	if err != nil {
		return in, fmt.Errorf("read hook input: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return in, nil
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("decode hook input: %w", err)
	}
	return in, nil
}

// Output is the JSON a hook prints to hand context back to the runtime.
type Output struct {
	HookSpecificOutput SpecificOutput `json:"hookSpecificOutput"`
}

type SpecificOutput struct {
	HookEventName     string `json:"hookEventName,omitempty"`
	AdditionalContext string `json:"additionalContext"`
}

// WriteContext prints text as additional context for event.
func WriteContext(w io.Writer, event, text string) error {
	out := Output{HookSpecificOutput: SpecificOutput{HookEventName: event, AdditionalContext: text}}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}
