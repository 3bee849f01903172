package lookup

import (
	"context"
	"errors"
	"testing"

	"github.com/bastiangx/communeindex/pkg/index"
	"github.com/bastiangx/communeindex/pkg/locality"
	"github.com/bastiangx/communeindex/pkg/shard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var raws = []locality.RawCommune{
	{Code: "75056", Nom: "Paris", CodeDepartement: "75", CodesPostaux: []string{"75001", "75002", "75003"}},
	{Code: "13055", Nom: "Marseille", CodeDepartement: "13", CodesPostaux: []string{"13001", "13002"}},
	{Code: "69123", Nom: "Lyon", CodeDepartement: "69", CodesPostaux: []string{"69001"}},
	{Code: "80829", Nom: "Y", CodeDepartement: "80", CodesPostaux: []string{"80190"}},
	{Code: "42218", Nom: "Saint-Étienne", CodeDepartement: "42", CodesPostaux: []string{"42000", "42100"}},
	{Code: "42207", Nom: "Saint-Chamond", CodeDepartement: "42", CodesPostaux: []string{"42400"}},
	{Code: "38185", Nom: "Grenoble", CodeDepartement: "38", CodesPostaux: []string{"38000", "38100"}},
	{Code: "01001", Nom: "L'Abergement-Clémenciat", CodeDepartement: "01", CodesPostaux: []string{"01400"}},
	{Code: "97501", Nom: "Miquelon-Langlade", CodeDepartement: "975", CodesPostaux: []string{"97500"}},
	{Code: "60001", Nom: "Abancourt", CodeDepartement: "60", CodesPostaux: []string{"60220"}},
	{Code: "59001", Nom: "Abancourt", CodeDepartement: "59", CodesPostaux: []string{"59265"}},
}

func build(t *testing.T, threshold int) ([]locality.Locality, *Resolver) {
	t.Helper()
	ls := locality.Preprocess(raws, locality.DefaultOverrides())
	store := shard.NewStore(t.TempDir(), "autocomplete-cache", "autocompletes.json", shard.FormatJSON)

	opts := index.DefaultOptions()
	opts.Threshold = threshold
	b, err := index.NewBuilder(opts, store)
	require.NoError(t, err)
	_, err = b.Build(context.Background(), ls)
	require.NoError(t, err)

	r, err := NewResolver(store)
	require.NoError(t, err)
	return ls, r
}

func TestResolveEveryLocality(t *testing.T) {
	for _, threshold := range []int{1, 2, 4, 800} {
		ls, r := build(t, threshold)
		for _, l := range ls {
			ans, err := r.Resolve(l.NormalizedName, 0)
			require.NoError(t, err, "threshold %d, %s", threshold, l.Key())

			found := false
			for _, rec := range ans.Results {
				if rec.Code == l.Code && rec.PostalCode == l.PostalCode {
					found = true
				}
			}
			assert.True(t, found, "threshold %d: %s (%s) not served by shard %q", threshold, l.Key(), l.PostalCode, ans.Shard)
		}
	}
}

func TestResolveRanksAndLimits(t *testing.T) {
	_, r := build(t, 800)

	ans, err := r.Resolve("Saint", 1)
	require.NoError(t, err)
	assert.Equal(t, "saint", ans.Query)
	assert.Equal(t, "s", ans.Shard)
	require.Len(t, ans.Results, 1)
	// every candidate ties on postal distance, so shard order decides
	assert.Equal(t, "Saint-Étienne", ans.Results[0].Name)

	ans, err = r.Resolve("750", 0)
	require.NoError(t, err)
	assert.Len(t, ans.Results, 3)
}

func TestResolveDeepestShard(t *testing.T) {
	_, r := build(t, 2)
	key, ok := r.ShardFor("abancourt")
	require.True(t, ok)
	assert.Greater(t, len(key), 1)

	ans, err := r.Resolve("Abancourt", 0)
	require.NoError(t, err)
	assert.Len(t, ans.Results, 2)
}

func TestResolveResidualMergesSubtree(t *testing.T) {
	ls := locality.Preprocess([]locality.RawCommune{
		{Code: "10001", Nom: "Sai", CodeDepartement: "10", CodesPostaux: []string{"10100"}},
		{Code: "10002", Nom: "Saint-A", CodeDepartement: "10", CodesPostaux: []string{"10200"}},
		{Code: "10003", Nom: "Saint-B", CodeDepartement: "10", CodesPostaux: []string{"10300"}},
		{Code: "10004", Nom: "Saint-C", CodeDepartement: "10", CodesPostaux: []string{"10400"}},
	}, locality.DefaultOverrides())
	store := shard.NewStore(t.TempDir(), "autocomplete-cache", "autocompletes.json", shard.FormatJSON)
	opts := index.DefaultOptions()
	opts.Threshold = 3
	b, err := index.NewBuilder(opts, store)
	require.NoError(t, err)
	_, err = b.Build(context.Background(), ls)
	require.NoError(t, err)

	r, err := NewResolver(store)
	require.NoError(t, err)
	ans, err := r.Resolve("sai", 0)
	require.NoError(t, err)
	assert.Equal(t, "sai", ans.Shard)
	assert.Equal(t, "sai", ans.Shards[0])
	assert.Greater(t, len(ans.Shards), 1)
	require.Len(t, ans.Results, 4)
	assert.Equal(t, "Sai", ans.Results[0].Name)
}

func TestResolveNoShard(t *testing.T) {
	_, r := build(t, 800)
	ans, err := r.Resolve("!!", 0)
	require.NoError(t, err)
	assert.Equal(t, "_", ans.Shard)
	assert.Empty(t, ans.Results)

	_, err = r.Resolve("", 0)
	assert.True(t, errors.Is(err, ErrNoShard))
}

func TestShardsUnder(t *testing.T) {
	_, r := build(t, 800)
	assert.Equal(t, []string{"s"}, r.ShardsUnder("s"))
	assert.Empty(t, r.ShardsUnder("sx"))
	assert.Equal(t, r.Size(), len(r.ShardsUnder("")))
}
