// Package mcp serves the segment archive and session recovery over the
// Model Context Protocol (stdio transport), so an agent can look up earlier
// work on demand instead of only at session start.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rcliao/session-recall/internal/config"
	"github.com/rcliao/session-recall/internal/hook"
	"github.com/rcliao/session-recall/internal/logging"
	"github.com/rcliao/session-recall/internal/recovery"
	"github.com/rcliao/session-recall/internal/segindex"
	"github.com/rcliao/session-recall/internal/store"
)

const serverInstructions = `session-recall indexes past agent sessions into topic segments. ` +
	`Use recall_search to find earlier conversations about a topic, file or decision; ` +
	`recall_get to read one segment in full; recall_segments to see how the current ` +
	`session has been segmented; recall_recover to rebuild the recovery context ` +
	`for a project after compaction.`

// Server bundles what the tool handlers need.
type Server struct {
	Store store.Store
	Cfg   *config.Config
	Log   *logging.Logger
}

// NewServer creates an MCP server with every recall tool registered.
func NewServer(s *Server) *server.MCPServer {
	srv := server.NewMCPServer(
		"session-recall",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions),
	)

	srv.AddTool(
		mcp.NewTool("recall_search",
			mcp.WithDescription("Search archived conversation segments across sessions by keyword. Returns segment ids, summaries and the best matching excerpt."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Keywords to search for"),
			),
			mcp.WithString("project",
				mcp.Description("Filter by project key"),
			),
			mcp.WithString("session_id",
				mcp.Description("Filter by session"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Max results (default: 10)"),
			),
		),
		s.handleSearch,
	)

	srv.AddTool(
		mcp.NewTool("recall_get",
			mcp.WithDescription("Read one archived segment: its summary, topics, files and the full conversation excerpt."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("session_id",
				mcp.Required(),
				mcp.Description("Session id"),
			),
			mcp.WithString("segment_id",
				mcp.Required(),
				mcp.Description("Segment id, e.g. seg-003"),
			),
		),
		s.handleGet,
	)

	srv.AddTool(
		mcp.NewTool("recall_segments",
			mcp.WithDescription("List the segments of a session's live index. Defaults to the most recently indexed session."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("session_id",
				mcp.Description("Session id"),
			),
		),
		s.handleSegments,
	)

	srv.AddTool(
		mcp.NewTool("recall_recover",
			mcp.WithDescription("Build the recovery document for a project: persistence documents plus the most relevant conversation segments."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("project_dir",
				mcp.Required(),
				mcp.Description("Project directory holding the persistence documents"),
			),
			mcp.WithString("session_id",
				mcp.Description("Session to draw segments from (default: newest session of the project)"),
			),
			mcp.WithNumber("budget",
				mcp.Description("Character budget for conversation excerpts"),
			),
		),
		s.handleRecover,
	)

	return srv
}

// Serve runs the server on stdin/stdout until the client disconnects.
func Serve(s *Server) error {
	return server.ServeStdio(NewServer(s))
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, _ := req.GetArguments()["query"].(string)
	project, _ := req.GetArguments()["project"].(string)
	session, _ := req.GetArguments()["session_id"].(string)
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	results, err := s.Store.Search(ctx, store.SearchParams{
		Project:   project,
		SessionID: session,
		Query:     query,
		Limit:     intArg(req, "limit", 10),
	})
	if err != nil {
		s.Log.Warn("search failed", "query", query, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("Search error: %s. Try simpler keywords.", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No segments found for: %q", query)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d segments:\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s/%s (%s, lines %d-%d) project: %s\n    %s\n",
			i+1, r.SessionID, r.Segment.ID, r.Segment.BoundaryType,
			r.Segment.StartLine, r.Segment.EndLine, r.Project, r.Segment.Summary)
		if r.MatchChunk != nil && r.MatchChunk.Seq > 0 {
			fmt.Fprintf(&b, "    %s\n", truncate(oneLine(r.MatchChunk.Text), 300))
		}
		b.WriteByte('\n')
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, _ := req.GetArguments()["session_id"].(string)
	segment, _ := req.GetArguments()["segment_id"].(string)
	if session == "" || segment == "" {
		return mcp.NewToolResultError("session_id and segment_id are required"), nil
	}

	a, err := s.Store.Get(ctx, store.GetParams{SessionID: session, SegmentID: segment})
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("Segment %s/%s not found", session, segment)), nil
	}
	if err != nil {
		return mcp.NewToolResultError("Failed to read segment: " + err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Segment %s/%s (%s, lines %d-%d)\n", a.SessionID, a.Segment.ID,
		a.Segment.BoundaryType, a.Segment.StartLine, a.Segment.EndLine)
	fmt.Fprintf(&b, "Summary: %s\n", a.Segment.Summary)
	if len(a.Segment.Topics) > 0 {
		fmt.Fprintf(&b, "Topics: %s\n", strings.Join(a.Segment.Topics, ", "))
	}
	if len(a.Segment.FilesTouched) > 0 {
		fmt.Fprintf(&b, "Files: %s\n", strings.Join(a.Segment.FilesTouched, ", "))
	}
	for _, d := range a.Segment.Decisions {
		fmt.Fprintf(&b, "Decision: %s\n", d)
	}
	if a.Excerpt != "" {
		fmt.Fprintf(&b, "\n%s\n", a.Excerpt)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleSegments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, _ := req.GetArguments()["session_id"].(string)
	fs := segindex.NewFileStore(s.Cfg.SessionsDir)
	if session == "" {
		sessions, err := fs.Sessions()
		if err != nil {
			return mcp.NewToolResultError("Failed to list sessions: " + err.Error()), nil
		}
		if len(sessions) == 0 {
			return mcp.NewToolResultText("No indexed sessions."), nil
		}
		session = sessions[0].SessionID
	}

	idx, err := fs.Load(session)
	if err != nil {
		return mcp.NewToolResultError("Failed to load index: " + err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Session %s: %d segments, indexed through line %d\n\n",
		session, len(idx.Segments), idx.LastIndexedLine)
	for _, seg := range idx.Segments {
		fmt.Fprintf(&b, "%s lines %d-%d (%s): %s\n",
			seg.ID, seg.StartLine, seg.EndLine, seg.BoundaryType, seg.Summary)
	}
	if a := idx.Active; a != nil && a.LineCount > 0 {
		fmt.Fprintf(&b, "%s from line %d (active, %d records)\n", a.ID, a.StartLine, a.LineCount)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleRecover(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectDir, _ := req.GetArguments()["project_dir"].(string)
	session, _ := req.GetArguments()["session_id"].(string)
	if projectDir == "" {
		return mcp.NewToolResultError("project_dir is required"), nil
	}

	cfg := *s.Cfg
	cfg.Recovery.Budget = intArg(req, "budget", cfg.Recovery.Budget)

	doc, err := recovery.ForSession(&cfg, s.Log, hook.Input{SessionID: session, CWD: projectDir}, projectDir)
	if err != nil {
		return mcp.NewToolResultError("Failed to build recovery: " + err.Error()), nil
	}
	return mcp.NewToolResultText(doc.String()), nil
}

func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
