// Package shard persists autocomplete shards and the manifest listing them.
package shard

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bastiangx/communeindex/internal/utils"
	"github.com/bastiangx/communeindex/pkg/locality"
	"github.com/charmbracelet/log"
)

// FilePrefix starts every shard file name.
const FilePrefix = "tuf_"

// Shard is the body of one shard file.
type Shard struct {
	Query    string                 `json:"query" msgpack:"query"`
	Communes []locality.ShardRecord `json:"communes" msgpack:"communes"`
}

// Info describes a shard file found on disk.
type Info struct {
	Query    string
	Filename string
	Format   Format
}

// Store reads and writes shards under Root/ShardDir and the manifest at Root/Manifest.
type Store struct {
	root     string
	shardDir string
	manifest string
	format   Format
}

// NewStore creates a store. Nothing touches the filesystem until Prepare.
func NewStore(root, shardDir, manifest string, format Format) *Store {
	return &Store{
		root:     root,
		shardDir: shardDir,
		manifest: manifest,
		format:   format,
	}
}

// Format returns the encoding used for new shards.
func (s *Store) Format() Format {
	return s.format
}

// Dir returns the shard directory.
func (s *Store) Dir() string {
	return filepath.Join(s.root, s.shardDir)
}

// ManifestPath returns the manifest location.
func (s *Store) ManifestPath() string {
	return filepath.Join(s.root, s.manifest)
}

// ShardPath returns the file a query's shard is written to.
func (s *Store) ShardPath(query string) string {
	return filepath.Join(s.Dir(), FilePrefix+query+s.format.Extension())
}

// Prepare creates the output directories and removes shards left by a
// previous run, so the directory only ever holds one build.
func (s *Store) Prepare() error {
	if _, ok := s.format.Info(); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownFormat, s.format)
	}
	if err := utils.EnsureDir(s.Dir()); err != nil {
		return fmt.Errorf("failed to create shard directory %s: %w", s.Dir(), err)
	}
	stale, err := s.List()
	if err != nil {
		return err
	}
	for _, info := range stale {
		if err := os.Remove(info.Filename); err != nil {
			return fmt.Errorf("failed to remove stale shard %s: %w", info.Filename, err)
		}
	}
	if len(stale) > 0 {
		log.Debugf("Removed %d stale shards from %s", len(stale), s.Dir())
	}
	return nil
}

// WriteShard encodes and writes the shard for query.
func (s *Store) WriteShard(query string, records []locality.ShardRecord) error {
	if records == nil {
		records = []locality.ShardRecord{}
	}
	data, err := s.format.Encode(Shard{Query: query, Communes: records})
	if err != nil {
		return fmt.Errorf("failed to encode shard %q: %w", query, err)
	}
	if err := utils.WriteFileAtomic(s.ShardPath(query), data); err != nil {
		return fmt.Errorf("failed to write shard %q: %w", query, err)
	}
	return nil
}

// ReadShard loads the shard for query.
func (s *Store) ReadShard(query string) (Shard, error) {
	path := s.ShardPath(query)
	data, err := os.ReadFile(path)
	if err != nil {
		return Shard{}, fmt.Errorf("failed to read shard %s: %w", path, err)
	}
	sh, err := s.format.Decode(data)
	if err != nil {
		return Shard{}, fmt.Errorf("failed to decode shard %s: %w", path, err)
	}
	return sh, nil
}

// WriteManifest writes the JSON array of shard queries.
func (s *Store) WriteManifest(queries []string) error {
	if queries == nil {
		queries = []string{}
	}
	data, err := json.Marshal(queries)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := utils.WriteFileAtomic(s.ManifestPath(), data); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the list of shard queries.
func (s *Store) ReadManifest() ([]string, error) {
	data, err := os.ReadFile(s.ManifestPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", s.ManifestPath(), err)
	}
	var queries []string
	if err := json.Unmarshal(data, &queries); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", s.ManifestPath(), err)
	}
	return queries, nil
}

// List scans the shard directory for shard files of any known format,
// sorted by query.
func (s *Store) List() ([]Info, error) {
	pattern := filepath.Join(s.Dir(), FilePrefix+"*")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for shard files: %w", err)
	}

	var shards []Info
	for _, file := range files {
		base := filepath.Base(file)
		ext := filepath.Ext(base)
		var format Format
		for f, info := range supportedFormats {
			if info.Extension == ext {
				format = f
			}
		}
		if format == FormatUnknown {
			continue
		}
		shards = append(shards, Info{
			Query:    strings.TrimSuffix(strings.TrimPrefix(base, FilePrefix), ext),
			Filename: file,
			Format:   format,
		})
	}

	sort.Slice(shards, func(i, j int) bool {
		return shards[i].Query < shards[j].Query
	})
	return shards, nil
}

// Detect switches the store to the format of the shards already on disk,
// validating the first one. An empty directory keeps the current format.
func (s *Store) Detect() error {
	shards, err := s.List()
	if err != nil {
		return err
	}
	if len(shards) == 0 {
		return nil
	}
	f, err := DetectFormat(shards[0].Filename)
	if err != nil {
		return err
	}
	if f != s.format {
		log.Debugf("Shards in %s are %s, not %s", s.Dir(), f, s.format)
		s.format = f
	}
	return nil
}
