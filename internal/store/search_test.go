package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/session-recall/internal/model"
)

func seedSearch(t *testing.T, s *SQLiteStore) {
	t.Helper()
	ctx := context.Background()

	dockerSeg := model.Segment{ID: "seg-000", EndLine: 9, LineCount: 10, BoundaryType: model.BoundaryNewTopic,
		Topics: []string{"deploy", "docker"}, Summary: "Topics: deploy, docker"}
	authSeg := model.Segment{ID: "seg-001", StartLine: 10, EndLine: 30, LineCount: 21, BoundaryType: model.BoundaryTaskCompleted,
		Topics: []string{"auth"}, Summary: "Topics: auth"}
	otherSeg := model.Segment{ID: "seg-000", EndLine: 5, LineCount: 6, BoundaryType: model.BoundaryMaxLines,
		Summary: "General discussion"}

	puts := []PutParams{
		{SessionID: "s1", Project: "app", Segment: dockerSeg, Excerpt: "USER: the docker build is broken\nASSISTANT: checking the compose file"},
		{SessionID: "s1", Project: "app", Segment: authSeg, Excerpt: "USER: add oauth login\nASSISTANT: wiring the callback handler"},
		{SessionID: "s2", Project: "lib", Segment: otherSeg, Excerpt: "USER: rename the docker image tag"},
	}
	for _, p := range puts {
		_, _, err := s.Put(ctx, p)
		require.NoError(t, err)
	}
}

func TestSearch_Basic(t *testing.T) {
	s := newTestStore(t)
	seedSearch(t, s)
	ctx := context.Background()

	results, err := s.Search(ctx, SearchParams{Query: "docker"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotNil(t, r.MatchChunk, "match chunk for %s", r.Segment.ID)
	}

	// Project filter
	results, err = s.Search(ctx, SearchParams{Project: "lib", Query: "docker"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "s2", results[0].SessionID)

	// Session filter
	results, err = s.Search(ctx, SearchParams{SessionID: "s1", Query: "callback"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "seg-001", results[0].Segment.ID)
}

func TestSearch_OneResultPerSegment(t *testing.T) {
	s := newTestStore(t)
	seedSearch(t, s)

	// "docker" matches both the header and the excerpt chunk of seg-000.
	results, err := s.Search(context.Background(), SearchParams{SessionID: "s1", Query: "docker"})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearch_LimitCountsSegments(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// One segment with many dense chunks must not crowd out the others.
	var entries []string
	for i := 0; i < 12; i++ {
		entries = append(entries, "USER: "+strings.Repeat("docker ", 50))
	}
	noisy := model.Segment{ID: "seg-000", EndLine: 23, LineCount: 24, Summary: "General discussion"}
	_, _, err := s.Put(ctx, PutParams{SessionID: "s1", Segment: noisy, Excerpt: strings.Join(entries, "\n")})
	require.NoError(t, err)

	for _, id := range []string{"seg-001", "seg-002"} {
		quiet := model.Segment{ID: id, StartLine: 24, EndLine: 33, LineCount: 10, Summary: "General discussion"}
		_, _, err := s.Put(ctx, PutParams{SessionID: "s2-" + id, Segment: quiet, Excerpt: "USER: the docker image is stale"})
		require.NoError(t, err)
	}

	got, err := s.Get(ctx, GetParams{SessionID: "s1", SegmentID: "seg-000"})
	require.NoError(t, err)
	require.Greater(t, got.ChunkCount, 10)

	for _, limit := range []int{1, 2, 3} {
		results, err := s.Search(ctx, SearchParams{Query: "docker", Limit: limit})
		require.NoError(t, err)
		require.Len(t, results, limit)
		seen := map[string]bool{}
		for _, r := range results {
			assert.False(t, seen[r.ID], "segment %s returned twice", r.ID)
			seen[r.ID] = true
		}
	}
}

func TestSearch_OperatorsAreLiteral(t *testing.T) {
	s := newTestStore(t)
	seedSearch(t, s)

	for _, q := range []string{"docker OR", `"unbalanced`, "oauth-login", "NEAR(docker"} {
		_, err := s.Search(context.Background(), SearchParams{Query: q})
		assert.NoError(t, err, "query %q", q)
	}
}

func TestSearch_LikeFallback(t *testing.T) {
	s := newTestStore(t)
	seedSearch(t, s)

	// A word fragment misses the FTS index but matches by substring.
	results, err := s.Search(context.Background(), SearchParams{Query: "dock"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Nil(t, results[0].MatchChunk, "substring matches carry no chunk")
}

func TestSearch_LikeWildcardsAreLiteral(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	puts := []PutParams{
		{SessionID: "a", Segment: testSegment("seg-000", 0, 9), Excerpt: "USER: rename it to snake_case\nASSISTANT: hit 100% coverage"},
		{SessionID: "b", Segment: testSegment("seg-000", 0, 9), Excerpt: "USER: snakeXcharmer\nASSISTANT: hit 1000 lines"},
	}
	for _, p := range puts {
		_, _, err := s.Put(ctx, p)
		require.NoError(t, err)
	}

	for _, q := range []string{"snake_c", "100%", `snake_case\`} {
		results, err := s.searchLike(ctx, SearchParams{Query: q}, 20)
		require.NoError(t, err)
		if strings.HasSuffix(q, `\`) {
			assert.Empty(t, results, "query %q", q)
			continue
		}
		require.Len(t, results, 1, "query %q", q)
		assert.Equal(t, "a", results[0].SessionID)
	}

	// The FTS index misses the fragment, so Search takes the same path.
	results, err := s.Search(ctx, SearchParams{Query: "snake_c"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].SessionID)
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%100\%%`, likePattern("100%"))
	assert.Equal(t, `%snake\_case%`, likePattern("snake_case"))
	assert.Equal(t, `%C:\\dir%`, likePattern(`C:\dir`))
}

func TestSearch_EmptyQuery(t *testing.T) {
	s := newTestStore(t)
	results, err := s.Search(context.Background(), SearchParams{Query: "  "})
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestSanitizeFTS(t *testing.T) {
	assert.Equal(t, `"fix" "auth" "bug"`, sanitizeFTS(`fix "auth" bug`))
}

func TestSanitizeFTS_DropsBareQuotes(t *testing.T) {
	assert.Equal(t, `"docker"`, sanitizeFTS(`"" docker`))
	assert.Empty(t, sanitizeFTS(`"`))
}
