// Package lookup answers typed queries from a built index the way a client
// does: pick the deepest shard whose key prefixes the query, then filter and
// rank its records.
package lookup

import (
	"errors"
	"fmt"
	"sort"

	"github.com/bastiangx/communeindex/pkg/locality"
	"github.com/bastiangx/communeindex/pkg/match"
	"github.com/bastiangx/communeindex/pkg/normalize"
	"github.com/bastiangx/communeindex/pkg/shard"
	"github.com/tchap/go-patricia/v2/patricia"
)

// ErrNoShard means no manifest key prefixes the query.
var ErrNoShard = errors.New("no shard covers query")

// Answer is the outcome of one Resolve.
type Answer struct {
	Query   string // normalized
	Shard   string   // deepest manifest key prefixing the query
	Shards  []string // every shard read, Shard first
	Results []locality.ShardRecord
	Scanned int // records read across Shards
}

// Resolver serves queries from a shard store.
type Resolver struct {
	store *shard.Store
	trie  *patricia.Trie
	size  int
}

// NewResolver loads the manifest of store into a trie.
func NewResolver(store *shard.Store) (*Resolver, error) {
	queries, err := store.ReadManifest()
	if err != nil {
		return nil, err
	}
	trie := patricia.NewTrie()
	for _, q := range queries {
		trie.Insert(patricia.Prefix(q), struct{}{})
	}
	return &Resolver{store: store, trie: trie, size: len(queries)}, nil
}

// Size returns the number of manifest entries.
func (r *Resolver) Size() int {
	return r.size
}

// ShardFor returns the deepest manifest key that is a prefix of query.
func (r *Resolver) ShardFor(query string) (string, bool) {
	var deepest string
	found := false
	r.trie.VisitPrefixes(patricia.Prefix(query), func(p patricia.Prefix, _ patricia.Item) error {
		if !found || len(p) > len(deepest) {
			deepest = string(p)
			found = true
		}
		return nil
	})
	return deepest, found
}

// Resolve normalizes query, reads its shard and returns up to limit ranked
// matches. limit <= 0 returns all of them.
func (r *Resolver) Resolve(query string, limit int) (*Answer, error) {
	q := normalize.FullText(query)
	key, ok := r.ShardFor(q)
	if q == "" || !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoShard, q)
	}
	// a key equal to the query with keys below it is a residual shard,
	// holding only the names that stop there; the rest sit in its subtree
	keys := []string{key}
	if key == q {
		keys = r.ShardsUnder(q)
	}
	records, err := r.read(keys)
	if err != nil {
		return nil, err
	}

	type scored struct {
		rec  locality.ShardRecord
		dist int
	}
	var hits []scored
	for _, rec := range records {
		name := normalize.FullText(rec.Name)
		if match.IsMatch(rec.PostalCode, name, q) {
			hits = append(hits, scored{rec: rec, dist: match.Distance(name, rec.PostalCode, q)})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].dist < hits[j].dist
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	ans := &Answer{Query: q, Shard: key, Shards: keys, Scanned: len(records), Results: make([]locality.ShardRecord, len(hits))}
	for i, h := range hits {
		ans.Results[i] = h.rec
	}
	return ans, nil
}

// read loads the records of keys in order, keeping the first copy of each
// commune and postal code pair.
func (r *Resolver) read(keys []string) ([]locality.ShardRecord, error) {
	seen := make(map[string]struct{})
	var out []locality.ShardRecord
	for _, k := range keys {
		sh, err := r.store.ReadShard(k)
		if err != nil {
			return nil, err
		}
		for _, rec := range sh.Communes {
			id := rec.Code + locality.KeySeparator + rec.PostalCode
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, rec)
		}
	}
	return out, nil
}

// ShardsUnder lists the manifest keys starting with prefix, sorted.
func (r *Resolver) ShardsUnder(prefix string) []string {
	var out []string
	r.trie.VisitSubtree(patricia.Prefix(normalize.FullText(prefix)), func(p patricia.Prefix, _ patricia.Item) error {
		out = append(out, string(p))
		return nil
	})
	sort.Strings(out)
	return out
}
