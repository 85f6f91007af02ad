package transcript

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/rcliao/session-recall/internal/model"
)

var kindAliases = map[string]model.Kind{
	"user":                  model.KindInbound,
	"inbound":               model.KindInbound,
	"assistant":             model.KindOutbound,
	"outbound":              model.KindOutbound,
	"file-history-snapshot": model.KindSnapshot,
	"snapshot":              model.KindSnapshot,
	"summary":               model.KindSummary,
}

// Decode parses one transcript line. ok is false for blank or malformed
// lines; those are skipped by every reader.
func Decode(line Line) (rec model.Record, ok bool) {
	if len(line.Bytes) == 0 || !gjson.ValidBytes(line.Bytes) {
		return rec, false
	}
	root := gjson.ParseBytes(line.Bytes)
	if !root.IsObject() {
		return rec, false
	}

	rec.Line = line.Number
	rec.Offset = line.Offset
	rec.Kind = kindOf(root.Get("type").String())
	if ts := root.Get("timestamp"); ts.Type == gjson.String {
		rec.Timestamp = ts.String()
	}
	if !rec.Kind.Counted() {
		return rec, true
	}

	content := root.Get("message.content")
	if !content.Exists() {
		content = root.Get("content")
	}

	switch {
	case content.Type == gjson.String && rec.Kind == model.KindInbound:
		rec.Text = content.String()
	case content.Type == gjson.String:
		rec.Blocks = []model.Block{{Type: model.BlockText, Text: content.String()}}
	case content.IsArray():
		rec.Blocks = decodeBlocks(content)
	}
	return rec, true
}

func kindOf(t string) model.Kind {
	if k, ok := kindAliases[t]; ok {
		return k
	}
	return model.KindOther
}

func decodeBlocks(content gjson.Result) []model.Block {
	var blocks []model.Block
	content.ForEach(func(_, item gjson.Result) bool {
		switch item.Get("type").String() {
		case "text":
			blocks = append(blocks, model.Block{Type: model.BlockText, Text: item.Get("text").String()})
		case "tool_use", "tool_invocation":
			b := model.Block{Type: model.BlockTool, Name: item.Get("name").String()}
			if in := item.Get("input"); in.Exists() {
				b.Input = json.RawMessage(in.Raw)
			}
			if b.Name == "" {
				b.Name = "unknown"
			}
			blocks = append(blocks, b)
		}
		return true
	})
	return blocks
}
