// Package index splits the locality set into prefix shards small enough to
// fetch per keystroke, and checks that every locality ends up in one.
package index

import (
	"context"
	"errors"

	"github.com/bastiangx/communeindex/pkg/locality"
	"github.com/bastiangx/communeindex/pkg/match"
	"github.com/bastiangx/communeindex/pkg/normalize"
	"github.com/charmbracelet/log"
)

// Sink receives the shards the partitioner emits.
type Sink interface {
	WriteShard(query string, records []locality.ShardRecord) error
}

// Claim is one emitted shard: the query it answers and the keys it references.
type Claim struct {
	Query    string
	Keys     []string
	Residual bool
	Count    int
}

// Partitioner walks the prefix tree. A node whose match set is under
// Threshold, or that sits at MaxDepth, becomes one shard. Larger nodes recurse
// into every alphabet symbol and keep a residual shard for names the children
// cannot reach.
type Partitioner struct {
	Threshold int
	MaxDepth  int
	Alphabet  normalize.Alphabet
	FailFast  bool
	Sink      Sink
	Tracker   *Tracker
	Logger    *log.Logger
}

// Partition processes the node for query over candidates and returns every
// claim emitted in its subtree, in depth-first alphabet order.
func (p *Partitioner) Partition(ctx context.Context, query string, candidates []locality.Locality) ([]Claim, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matching := match.Matches(candidates, query)
	if len(matching) == 0 {
		return nil, nil
	}

	if len(matching) < p.Threshold || len(query) >= p.MaxDepth {
		c, err := p.emit(query, matching, false)
		if err != nil {
			return nil, err
		}
		return []Claim{c}, nil
	}

	var claims []Claim
	for _, sym := range p.Alphabet.Symbols() {
		child, err := p.Partition(ctx, query+sym, matching)
		if err != nil {
			if p.FailFast || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			p.logger().Error("node failed, continuing", "query", query+sym, "err", err)
			continue
		}
		claims = append(claims, child...)
	}

	residual := residualOf(query, matching, claims)
	if len(residual) == 0 {
		return claims, nil
	}
	c, err := p.emit(query, residual, true)
	if err != nil {
		if p.FailFast {
			return nil, err
		}
		p.logger().Error("residual shard failed, continuing", "query", query, "err", err)
		return claims, nil
	}
	// the residual shard precedes its subtree in the manifest
	return append([]Claim{c}, claims...), nil
}

// residualOf picks the records of matching whose key no child claimed and
// whose normalized name is exactly as long as query, so no longer prefix can
// reach them. Every postal variant of such a key comes along.
func residualOf(query string, matching []locality.Locality, childClaims []Claim) []locality.Locality {
	claimed := make(map[string]struct{})
	for _, c := range childClaims {
		for _, k := range c.Keys {
			claimed[k] = struct{}{}
		}
	}

	stopped := make(map[string]struct{})
	for _, l := range matching {
		if _, ok := claimed[l.Key()]; ok {
			continue
		}
		if len(l.NormalizedName) == len(query) {
			stopped[l.Key()] = struct{}{}
		}
	}
	if len(stopped) == 0 {
		return nil
	}

	var out []locality.Locality
	for _, l := range matching {
		if _, ok := stopped[l.Key()]; ok {
			out = append(out, l)
		}
	}
	return out
}

// emit ranks records, writes them as the shard for query and claims their keys.
func (p *Partitioner) emit(query string, records []locality.Locality, residual bool) (Claim, error) {
	sorted := make([]locality.Locality, len(records))
	copy(sorted, records)
	match.Sort(sorted, query)

	if err := p.Sink.WriteShard(query, locality.CompactAll(sorted)); err != nil {
		return Claim{}, &NodeError{Query: query, Err: err}
	}

	keys := locality.Keys(sorted)
	p.Tracker.Claim(keys)
	p.logger().Debug("shard written", "query", query, "count", len(sorted), "residual", residual)
	return Claim{Query: query, Keys: keys, Residual: residual, Count: len(sorted)}, nil
}

func (p *Partitioner) logger() *log.Logger {
	if p.Logger == nil {
		return log.Default()
	}
	return p.Logger
}
