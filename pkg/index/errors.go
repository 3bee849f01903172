package index

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnindexed reports localities that no shard references after a build.
var ErrUnindexed = errors.New("localities left unindexed")

// maxListedOrphans caps how many keys Error prints.
const maxListedOrphans = 10

// OrphanError carries the keys left in the tracker.
type OrphanError struct {
	Keys []string
}

func (e *OrphanError) Error() string {
	listed := e.Keys
	suffix := ""
	if len(listed) > maxListedOrphans {
		suffix = fmt.Sprintf(", ... (%d more)", len(listed)-maxListedOrphans)
		listed = listed[:maxListedOrphans]
	}
	return fmt.Sprintf("%d %s: %s%s", len(e.Keys), ErrUnindexed, strings.Join(listed, ", "), suffix)
}

func (e *OrphanError) Unwrap() error {
	return ErrUnindexed
}

// NodeError wraps a failure while emitting the shard for Query.
type NodeError struct {
	Query string
	Err   error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("partition node %q: %v", e.Query, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}
