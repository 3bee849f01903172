// Package fetch downloads the commune and department datasets the index is
// built from.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bastiangx/communeindex/internal/logger"
	"github.com/bastiangx/communeindex/internal/utils"
	"github.com/bastiangx/communeindex/pkg/locality"
	"github.com/charmbracelet/log"
)

// ErrStatus is returned when a source answers with a non-200 status.
var ErrStatus = errors.New("unexpected HTTP status")

// Cache file names for the raw payloads.
const (
	CommunesCacheFile     = "communes.json"
	DepartementsCacheFile = "departements.json"
)

// Datasets is what a build starts from.
type Datasets struct {
	Communes     []locality.RawCommune
	Departements []locality.Departement
}

// Fetcher loads both datasets. Sources are http(s) URLs or local file paths.
type Fetcher struct {
	Client   *http.Client
	Timeout  time.Duration
	CacheDir string
	logger   *log.Logger
}

// New creates a fetcher bounded by timeout. cacheDir may be empty.
func New(timeout time.Duration, cacheDir string) *Fetcher {
	return &Fetcher{
		Client:   &http.Client{},
		Timeout:  timeout,
		CacheDir: cacheDir,
		logger:   logger.New("fetch"),
	}
}

// FetchAll loads communes and departements concurrently and waits for both.
// Either failure aborts; when both fail the errors are joined.
func (f *Fetcher) FetchAll(ctx context.Context, communesSrc, departementsSrc string) (*Datasets, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	var (
		ds         Datasets
		wg         sync.WaitGroup
		communeErr error
		deptErr    error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		communeErr = f.fetchJSON(ctx, communesSrc, CommunesCacheFile, &ds.Communes)
	}()
	go func() {
		defer wg.Done()
		deptErr = f.fetchJSON(ctx, departementsSrc, DepartementsCacheFile, &ds.Departements)
	}()
	wg.Wait()

	if err := errors.Join(communeErr, deptErr); err != nil {
		return nil, err
	}
	f.log().Info("datasets loaded", "communes", len(ds.Communes), "departements", len(ds.Departements))
	return &ds, nil
}

func (f *Fetcher) fetchJSON(ctx context.Context, src, cacheName string, v any) error {
	t0 := time.Now()
	data, err := f.read(ctx, src)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", src, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", src, err)
	}
	f.log().Debug("source loaded", "src", src, "bytes", len(data), "duration", time.Since(t0).Round(time.Millisecond))

	if f.CacheDir != "" {
		path := filepath.Join(f.CacheDir, cacheName)
		if err := utils.WriteFileAtomic(path, data); err != nil {
			f.log().Warn("could not cache payload", "path", path, "err", err)
		}
	}
	return nil
}

func (f *Fetcher) read(ctx context.Context, src string) ([]byte, error) {
	if !isRemote(src) {
		return os.ReadFile(strings.TrimPrefix(src, "file://"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

func (f *Fetcher) log() *log.Logger {
	if f.logger == nil {
		return log.Default()
	}
	return f.logger
}
