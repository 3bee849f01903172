package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bastiangx/communeindex/pkg/locality"
	"github.com/bastiangx/communeindex/pkg/lookup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	queries []string
}

func (f *fakeResolver) Resolve(query string, limit int) (*lookup.Answer, error) {
	f.queries = append(f.queries, query)
	if query == "zzz" {
		return nil, lookup.ErrNoShard
	}
	return &lookup.Answer{
		Query:   query,
		Shard:   "p",
		Scanned: 1200,
		Results: []locality.ShardRecord{{Code: "75056", PostalCode: "75001", Name: "Paris", Department: "75"}},
	}, nil
}

func (f *fakeResolver) ShardsUnder(prefix string) []string {
	return []string{prefix + "a", prefix + "b"}
}

func run(t *testing.T, input string) (string, *fakeResolver) {
	t.Helper()
	res := &fakeResolver{}
	var out bytes.Buffer
	h := NewInputHandler(res, strings.NewReader(input), &out, 5)
	require.NoError(t, h.Start())
	return out.String(), res
}

func TestInspectorQuery(t *testing.T) {
	out, res := run(t, "paris\n")
	assert.Equal(t, []string{"paris"}, res.queries)
	assert.Contains(t, out, "Found 1 localities for 'paris'")
	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "75001")
}

func TestInspectorRejectsInvalid(t *testing.T) {
	out, res := run(t, "---\n\n   \n")
	assert.Empty(t, res.queries)
	assert.Contains(t, out, "invalid query: '---'")
}

func TestInspectorNoShard(t *testing.T) {
	out, _ := run(t, "zzz\n")
	assert.Contains(t, out, "no results for 'zzz'")
}

func TestInspectorShards(t *testing.T) {
	out, res := run(t, ":shards pa\n:quit\nparis\n")
	assert.Contains(t, out, "2 shards under 'pa'")
	assert.Contains(t, out, "  paa\n")
	assert.Empty(t, res.queries, "nothing runs after :quit")
}

func TestInspectorLastLineWithoutNewline(t *testing.T) {
	_, res := run(t, "lyon")
	assert.Equal(t, []string{"lyon"}, res.queries)
}
