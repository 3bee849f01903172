package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bastiangx/communeindex/pkg/locality"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const communesBody = `[
 {"code":"75056","nom":"Paris","codeDepartement":"75","centre":{"type":"Point","coordinates":[2.347,48.8589]},"codesPostaux":["75001","75002"]},
 {"code":"97501","nom":"Miquelon-Langlade","codeDepartement":"975","codesPostaux":["97500"]}
]`

const departementsBody = `[
 {"code_departement":"75","nom_departement":"Paris","code_region":11,"nom_region":"Île-de-France"},
 {"code_departement":"2A","nom_departement":"Corse-du-Sud","code_region":"94","nom_region":"Corse"}
]`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/communes", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(communesBody))
	})
	mux.HandleFunc("/departements.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(departementsBody))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchAll(t *testing.T) {
	srv := newServer(t)
	cache := t.TempDir()
	f := New(5*time.Second, cache)

	ds, err := f.FetchAll(context.Background(), srv.URL+"/communes", srv.URL+"/departements.json")
	require.NoError(t, err)
	require.Len(t, ds.Communes, 2)
	assert.Equal(t, "Paris", ds.Communes[0].Nom)
	assert.Equal(t, []string{"75001", "75002"}, ds.Communes[0].CodesPostaux)
	require.NotNil(t, ds.Communes[0].Centre)
	assert.Nil(t, ds.Communes[1].Centre)

	require.Len(t, ds.Departements, 2)
	assert.Equal(t, locality.RegionCode("11"), ds.Departements[0].CodeRegion)
	assert.Equal(t, locality.RegionCode("94"), ds.Departements[1].CodeRegion)

	cached, err := os.ReadFile(filepath.Join(cache, CommunesCacheFile))
	require.NoError(t, err)
	assert.Equal(t, communesBody, string(cached))
	assert.FileExists(t, filepath.Join(cache, DepartementsCacheFile))
}

func TestFetchAllFromFiles(t *testing.T) {
	dir := t.TempDir()
	communes := filepath.Join(dir, "c.json")
	deps := filepath.Join(dir, "d.json")
	require.NoError(t, os.WriteFile(communes, []byte(communesBody), 0644))
	require.NoError(t, os.WriteFile(deps, []byte(departementsBody), 0644))

	ds, err := New(time.Second, "").FetchAll(context.Background(), communes, "file://"+deps)
	require.NoError(t, err)
	assert.Len(t, ds.Communes, 2)
	assert.Len(t, ds.Departements, 2)
}

func TestFetchAllStatus(t *testing.T) {
	srv := newServer(t)
	_, err := New(5*time.Second, "").FetchAll(context.Background(), srv.URL+"/broken", srv.URL+"/departements.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStatus))
}

func TestFetchAllBothFail(t *testing.T) {
	srv := newServer(t)
	_, err := New(5*time.Second, "").FetchAll(context.Background(), srv.URL+"/broken", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStatus))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFetchAllTimeout(t *testing.T) {
	srv := newServer(t)
	start := time.Now()
	_, err := New(100*time.Millisecond, "").FetchAll(context.Background(), srv.URL+"/slow", srv.URL+"/departements.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFetchAllBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"a list"}`), 0644))
	deps := filepath.Join(t.TempDir(), "d.json")
	require.NoError(t, os.WriteFile(deps, []byte(departementsBody), 0644))
	_, err := New(time.Second, "").FetchAll(context.Background(), path, deps)
	assert.ErrorContains(t, err, "decoding")
}
