// Package mirror implements the whole mirroring pipeline: fetch the seed
// document, discover its same-origin assets (transitively through style
// sheets), download them with bounded parallelism, rewrite the document's
// references to the local copies and persist everything to disk.
package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"

	"github.com/PuerkitoBio/goquery"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"pagemirror/internal/pkg/config"
	"pagemirror/internal/pkg/log"
	"pagemirror/internal/pkg/mirror/extractor"
	"pagemirror/internal/pkg/paths"
	"pagemirror/internal/pkg/stats"
)

// Mirror owns the state of one run: the parsed seed URL, the origin filter
// and the output filesystem. A Mirror is single-shot, create a new one per
// run.
type Mirror struct {
	cfg    *config.Config
	client *http.Client
	fs     afero.Fs
	logger *log.FieldedLogger

	seedURL   *url.URL
	hostToken string
}

func New(cfg *config.Config, client *http.Client, fs afero.Fs) *Mirror {
	return &Mirror{
		cfg:    cfg,
		client: client,
		fs:     fs,
		logger: log.NewFieldedLogger(&log.Fields{
			"component": "mirror",
		}),
	}
}

// Run executes the pipeline. Only an invalid seed URL or a failed seed fetch
// abort the run; individual asset failures are logged and skipped.
func (m *Mirror) Run(ctx context.Context) error {
	if err := stats.Init(); err != nil && !errors.Is(err, stats.ErrStatsAlreadyInitialized) {
		return err
	}
	stats.Reset()

	seedURL, err := url.Parse(m.cfg.Seed)
	if err != nil {
		return fmt.Errorf("invalid seed URL %q: %w", m.cfg.Seed, err)
	}

	m.seedURL = seedURL
	m.hostToken = paths.SanitizeHost(seedURL.Host)

	m.logger.Info("mirroring page", "url", seedURL.String())

	body, _, err := m.fetch(ctx, seedURL.String())
	if err != nil {
		return fmt.Errorf("unable to fetch seed document: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("unable to parse seed document: %w", err)
	}

	pending := NewURLSet()
	resolved := NewResolvedMap()

	for _, asset := range extractor.FromDocument(doc, seedURL, m.cfg.DisableHTMLTag) {
		if m.sameOrigin(asset) {
			pending.Add(asset)
		}
	}

	m.logger.Info("assets discovered in seed document", "count", pending.Len())

	m.downloadAssets(ctx, pending, resolved)

	m.rewriteDocument(doc, resolved)

	rendered, err := doc.Html()
	if err != nil {
		return fmt.Errorf("unable to serialize document: %w", err)
	}

	indexPath := path.Join(m.hostToken, "index.html")
	if err := m.save(indexPath, []byte(rendered)); err != nil {
		return fmt.Errorf("unable to save index.html: %w", err)
	}

	m.logger.Info("mirror complete",
		"url", seedURL.String(),
		"resolved", stats.GetAssetsResolved(),
		"failed", stats.GetAssetsFailed(),
		"downloaded", humanize.Bytes(stats.GetBytesDownloaded()),
		"output", path.Join(m.cfg.OutputDir, indexPath),
	)

	return nil
}

// sameOrigin reports whether the URL shares scheme, host and port with the
// seed. Off-origin references are never fetched and stay untouched in the
// output.
func (m *Mirror) sameOrigin(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	return u.Scheme == m.seedURL.Scheme && u.Host == m.seedURL.Host
}

// save writes bytes under the output root, creating parent directories
func (m *Mirror) save(localPath string, data []byte) error {
	fullPath := path.Join(m.cfg.OutputDir, localPath)

	if err := m.fs.MkdirAll(path.Dir(fullPath), 0755); err != nil {
		return err
	}

	return afero.WriteFile(m.fs, fullPath, data, 0644)
}
