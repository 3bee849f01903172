package shard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bastiangx/communeindex/pkg/locality"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrUnknownFormat is returned for a format name or file that is neither JSON nor msgpack.
var ErrUnknownFormat = errors.New("unknown shard format")

// Format is the encoding used for shard files.
type Format int

const (
	FormatUnknown Format = iota
	FormatJSON           // tuf_<query>.json
	FormatMsgpack        // tuf_<query>.msgpack
)

// FormatInfo describes a shard encoding.
type FormatInfo struct {
	Format      Format
	Name        string
	Description string
	Extension   string
	MinSize     int64 // smallest valid encoded shard
}

var supportedFormats = map[Format]FormatInfo{
	FormatJSON: {
		Format:      FormatJSON,
		Name:        "json",
		Description: "JSON shard",
		Extension:   ".json",
		MinSize:     int64(len(`{"query":"","communes":[]}`)),
	},
	FormatMsgpack: {
		Format:      FormatMsgpack,
		Name:        "msgpack",
		Description: "MessagePack shard",
		Extension:   ".msgpack",
		MinSize:     2,
	},
}

// ParseFormat maps a config value to a Format.
func ParseFormat(name string) (Format, error) {
	for f, info := range supportedFormats {
		if strings.EqualFold(info.Name, strings.TrimSpace(name)) {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Info returns the description of f.
func (f Format) Info() (FormatInfo, bool) {
	info, ok := supportedFormats[f]
	return info, ok
}

// Extension returns the file extension for f, dot included.
func (f Format) Extension() string {
	return supportedFormats[f].Extension
}

func (f Format) String() string {
	if info, ok := supportedFormats[f]; ok {
		return info.Name
	}
	return "unknown"
}

// Encode serializes a shard. JSON output is compact and keeps '&', '<', '>'
// unescaped so files stay byte-comparable with other JSON tooling.
func (f Format) Encode(s Shard) ([]byte, error) {
	switch f {
	case FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(s); err != nil {
			return nil, err
		}
		return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
	case FormatMsgpack:
		return msgpack.Marshal(s)
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, f)
}

// Decode parses a shard encoded with f.
func (f Format) Decode(data []byte) (Shard, error) {
	var s Shard
	var err error
	switch f {
	case FormatJSON:
		err = json.Unmarshal(data, &s)
	case FormatMsgpack:
		err = msgpack.Unmarshal(data, &s)
	default:
		err = fmt.Errorf("%w: %d", ErrUnknownFormat, f)
	}
	if s.Communes == nil {
		s.Communes = []locality.ShardRecord{}
	}
	return s, err
}

// DetectFormat finds the format of a shard file from its extension, then
// checks the content decodes.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for f, info := range supportedFormats {
		if info.Extension != ext {
			continue
		}
		if err := ValidateFile(path, f); err != nil {
			return FormatUnknown, err
		}
		return f, nil
	}
	return FormatUnknown, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// ValidateFile checks a shard file has a plausible size and decodes with f.
func ValidateFile(path string, f Format) error {
	info, ok := supportedFormats[f]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownFormat, f)
	}
	stat, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat shard %s: %w", path, err)
	}
	if stat.Size() < info.MinSize {
		return fmt.Errorf("shard %s is too small (%d bytes) for %s (minimum: %d bytes)",
			path, stat.Size(), info.Description, info.MinSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read shard %s: %w", path, err)
	}
	s, err := f.Decode(data)
	if err != nil {
		return fmt.Errorf("shard %s is not valid %s: %w", path, info.Name, err)
	}
	log.Debugf("Shard %s validated: query=%q, %d communes", path, s.Query, len(s.Communes))
	return nil
}
