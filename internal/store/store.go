// Package store provides the segment archive interface and its SQLite
// implementation. The archive mirrors sealed segments from every session so
// they can be searched after the per-session index is gone.
package store

import (
	"context"

	"github.com/rcliao/session-recall/internal/model"
)

// PutParams holds parameters for archiving a sealed segment.
type PutParams struct {
	SessionID string
	Project   string
	Segment   model.Segment
	Excerpt   string
}

// GetParams identifies one archived segment.
type GetParams struct {
	SessionID string
	SegmentID string
}

// ListParams holds parameters for listing archived segments.
type ListParams struct {
	Project   string
	SessionID string
	Boundary  string
	Limit     int
}

// RmParams selects archived segments to delete. An empty SegmentID removes
// the whole session.
type RmParams struct {
	SessionID string
	SegmentID string
}

// Store defines the segment archive interface.
type Store interface {
	// Put archives a segment. Sealed segments never change, so archiving
	// the same session/segment pair again returns the stored row and false.
	Put(ctx context.Context, p PutParams) (*model.ArchivedSegment, bool, error)

	// Get retrieves one archived segment.
	Get(ctx context.Context, p GetParams) (*model.ArchivedSegment, error)

	// List lists archived segments matching the filters, newest first.
	List(ctx context.Context, p ListParams) ([]model.ArchivedSegment, error)

	// Search ranks archived segments against a query.
	Search(ctx context.Context, p SearchParams) ([]SearchResult, error)

	// Rm deletes archived segments and returns how many were removed.
	Rm(ctx context.Context, p RmParams) (int, error)

	// Close closes the store.
	Close() error
}

var _ Store = (*SQLiteStore)(nil)
