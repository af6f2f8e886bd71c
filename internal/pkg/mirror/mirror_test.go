package mirror

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagemirror/internal/pkg/config"
	"pagemirror/internal/pkg/paths"
	"pagemirror/internal/pkg/stats"
)

// fetchCounter records how many times each path was requested
type fetchCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func newFetchCounter() *fetchCounter {
	return &fetchCounter{counts: make(map[string]int)}
}

func (c *fetchCounter) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.counts[r.URL.Path]++
		c.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (c *fetchCounter) get(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[path]
}

func serve(w http.ResponseWriter, contentType, body string) {
	w.Header().Set("Content-Type", contentType)
	w.Write([]byte(body))
}

func runMirror(t *testing.T, srv *httptest.Server) (afero.Fs, string, error) {
	t.Helper()

	cfg := &config.Config{
		Seed:                srv.URL + "/",
		OutputDir:           "out",
		MaxConcurrentAssets: 8,
		UserAgent:           "pagemirror-test",
	}

	fs := afero.NewMemMapFs()
	m := New(cfg, srv.Client(), fs)
	err := m.Run(context.Background())

	u, parseErr := url.Parse(srv.URL)
	require.NoError(t, parseErr)

	return fs, paths.SanitizeHost(u.Host), err
}

func readFile(t *testing.T, fs afero.Fs, filePath string) string {
	t.Helper()

	data, err := afero.ReadFile(fs, filePath)
	require.NoError(t, err, "expected file %s", filePath)
	return string(data)
}

func TestMirrorEndToEnd(t *testing.T) {
	counter := newFetchCounter()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		serve(w, "text/html", `<html><head><link rel="stylesheet" href="/s.css"></head>`+
			`<body><img src="/i.png"></body></html>`)
	})
	mux.HandleFunc("/s.css", func(w http.ResponseWriter, r *http.Request) {
		serve(w, "text/css", `@import url("/extra.css");`)
	})
	mux.HandleFunc("/extra.css", func(w http.ResponseWriter, r *http.Request) {
		serve(w, "text/css", `.x{background:url(/sprite.png)}`)
	})
	mux.HandleFunc("/i.png", func(w http.ResponseWriter, r *http.Request) {
		serve(w, "image/png", "png-bytes")
	})
	mux.HandleFunc("/sprite.png", func(w http.ResponseWriter, r *http.Request) {
		serve(w, "image/png", "png-bytes")
	})

	srv := httptest.NewServer(counter.wrap(mux))
	defer srv.Close()

	fs, hostToken, err := runMirror(t, srv)
	require.NoError(t, err)

	assert.Equal(t, uint64(4), stats.GetAssetsResolved())
	assert.Equal(t, uint64(0), stats.GetAssetsFailed())

	for _, localPath := range []string{
		"css/s.css",
		"css/extra.css",
		"img/i.png",
		"img/sprite.png",
		"index.html",
	} {
		exists, _ := afero.Exists(fs, path.Join("out", hostToken, localPath))
		assert.True(t, exists, "expected %s to exist", localPath)
	}

	index := readFile(t, fs, path.Join("out", hostToken, "index.html"))
	assert.Contains(t, index, `href="./css/s.css"`)
	assert.Contains(t, index, `src="./img/i.png"`)
}

func TestMirrorAssetFailureIsNotFatal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		serve(w, "text/html", `<html><head><link rel="stylesheet" href="/s.css"></head>`+
			`<body><img src="/i.png"></body></html>`)
	})
	mux.HandleFunc("/s.css", func(w http.ResponseWriter, r *http.Request) {
		serve(w, "text/css", `body{color:red}`)
	})
	mux.HandleFunc("/i.png", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	fs, hostToken, err := runMirror(t, srv)
	require.NoError(t, err, "a failed asset must not abort the run")

	assert.Equal(t, uint64(1), stats.GetAssetsResolved())
	assert.Equal(t, uint64(1), stats.GetAssetsFailed())

	index := readFile(t, fs, path.Join("out", hostToken, "index.html"))
	assert.Contains(t, index, `src="/i.png"`, "failed asset reference must stay untouched")
	assert.Contains(t, index, `href="./css/s.css"`)
}

func TestMirrorSeedFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, _, err := runMirror(t, srv)
	require.Error(t, err)
}

func TestMirrorFetchesEachURLOnce(t *testing.T) {
	counter := newFetchCounter()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// The same image referenced twice in markup and once from CSS
		serve(w, "text/html", `<html><head><link rel="stylesheet" href="/s.css"></head>`+
			`<body><img src="/i.png"><img src="/i.png"></body></html>`)
	})
	mux.HandleFunc("/s.css", func(w http.ResponseWriter, r *http.Request) {
		serve(w, "text/css", `.x{background:url(/i.png)}`)
	})
	mux.HandleFunc("/i.png", func(w http.ResponseWriter, r *http.Request) {
		serve(w, "image/png", "png-bytes")
	})

	srv := httptest.NewServer(counter.wrap(mux))
	defer srv.Close()

	_, _, err := runMirror(t, srv)
	require.NoError(t, err)

	assert.Equal(t, 1, counter.get("/i.png"), "URL must be fetched at most once per run")
	assert.Equal(t, 1, counter.get("/s.css"))
}

func TestMirrorStylesheetImportCycleTerminates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		serve(w, "text/html", `<head><link rel="stylesheet" href="/a.css"></head>`)
	})
	mux.HandleFunc("/a.css", func(w http.ResponseWriter, r *http.Request) {
		serve(w, "text/css", `@import url("/b.css");`)
	})
	mux.HandleFunc("/b.css", func(w http.ResponseWriter, r *http.Request) {
		serve(w, "text/css", `@import url("/a.css");`)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, _, err := runMirror(t, srv)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), stats.GetAssetsResolved())
}

func TestMirrorSameOriginFilter(t *testing.T) {
	counter := newFetchCounter()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		serve(w, "text/html", `<body><img src="https://cdn.example.net/far.png"><img src="/near.png"></body>`)
	})
	mux.HandleFunc("/near.png", func(w http.ResponseWriter, r *http.Request) {
		serve(w, "image/png", "png-bytes")
	})

	srv := httptest.NewServer(counter.wrap(mux))
	defer srv.Close()

	fs, hostToken, err := runMirror(t, srv)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), stats.GetAssetsResolved())

	index := readFile(t, fs, path.Join("out", hostToken, "index.html"))
	assert.Contains(t, index, `src="https://cdn.example.net/far.png"`, "off-origin reference must stay untouched")
	assert.Contains(t, index, `src="./img/near.png"`)
}
