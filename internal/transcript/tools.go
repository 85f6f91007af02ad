package transcript

import (
	"github.com/tidwall/gjson"

	"github.com/rcliao/session-recall/internal/model"
)

// TodoStatus values used by the task-list tool.
const (
	StatusCompleted  = "completed"
	StatusInProgress = "in_progress"
)

// TodosWithStatus returns the content of task-list items in the given status.
func TodosWithStatus(b model.Block, status string) []string {
	if b.Name != model.ToolTaskList || len(b.Input) == 0 {
		return nil
	}
	var out []string
	gjson.GetBytes(b.Input, "todos").ForEach(func(_, todo gjson.Result) bool {
		if todo.Get("status").String() == status {
			out = append(out, todo.Get("content").String())
		}
		return true
	})
	return out
}

// CompletesTask reports whether a tool block marks any task-list item completed.
func CompletesTask(b model.Block) bool {
	if b.Name != model.ToolTaskList || len(b.Input) == 0 {
		return false
	}
	return gjson.GetBytes(b.Input, `todos.#(status=="completed")`).Exists()
}

// TargetPath returns the file a content-modifying tool operates on.
func TargetPath(b model.Block) string {
	if len(b.Input) == 0 {
		return ""
	}
	for _, key := range []string{"file_path", "notebook_path", "path"} {
		if v := gjson.GetBytes(b.Input, key); v.Type == gjson.String {
			return v.String()
		}
	}
	return ""
}

// StringInputs returns the top-level string values of a tool's input.
func StringInputs(b model.Block) []string {
	if len(b.Input) == 0 {
		return nil
	}
	var out []string
	gjson.ParseBytes(b.Input).ForEach(func(_, v gjson.Result) bool {
		if v.Type == gjson.String {
			out = append(out, v.String())
		}
		return true
	})
	return out
}
