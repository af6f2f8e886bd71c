package mirror

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/remeh/sizedwaitgroup"

	"pagemirror/internal/pkg/mirror/extractor"
	"pagemirror/internal/pkg/paths"
	"pagemirror/internal/pkg/stats"
)

// downloadAssets drains the pending set with bounded parallelism. Fetched
// style sheets feed newly discovered URLs back into the set, so the loop
// re-snapshots it in waves until one wave dispatches nothing new (fixpoint).
func (m *Mirror) downloadAssets(ctx context.Context, pending *URLSet, resolved *ResolvedMap) {
	attempted := NewURLSet()

	for ctx.Err() == nil {
		wave := pending.Snapshot()
		dispatched := 0

		swg := sizedwaitgroup.New(m.cfg.MaxConcurrentAssets)

		for _, asset := range wave {
			// At most one fetch per URL per run, failures included
			if !attempted.Add(asset) {
				continue
			}
			dispatched++

			swg.Add()
			go func(asset string) {
				defer swg.Done()
				m.downloadAsset(ctx, asset, pending, resolved)
			}(asset)
		}

		swg.Wait()

		if dispatched == 0 {
			return
		}
	}
}

// downloadAsset fetches one URL, persists it under its derived local path
// and records it as resolved. Errors are not propagated: a failed asset is
// logged and left permanently unresolved.
func (m *Mirror) downloadAsset(ctx context.Context, asset string, pending *URLSet, resolved *ResolvedMap) {
	body, contentType, err := m.fetch(ctx, asset)
	if err != nil {
		m.logger.Warn("unable to fetch asset", "error", err, "url", asset)
		stats.AssetFailed()
		return
	}

	localPath := paths.Derive(m.hostToken, asset, contentType)
	if err := m.save(localPath, body); err != nil {
		m.logger.Warn("unable to save asset", "error", err, "url", asset, "path", localPath)
		stats.AssetFailed()
		return
	}

	resolved.Set(asset, localPath)
	stats.AssetResolved()
	stats.BytesDownloaded(uint64(len(body)))

	m.logger.Debug("asset saved", "url", asset, "path", localPath)

	if !isStylesheet(asset, contentType) {
		return
	}

	// Style sheets can reference further assets and other style sheets,
	// grow the pending set with anything same-origin we haven't seen yet
	stats.StylesheetParsed()

	cssURL, err := url.Parse(asset)
	if err != nil {
		return
	}

	for _, discovered := range extractor.FromStylesheet(body, cssURL) {
		if m.sameOrigin(discovered) {
			pending.Add(discovered)
		}
	}
}

// isStylesheet decides whether a fetched body should be scanned as CSS. The
// content-type is authoritative; the URL extension is a fallback for static
// servers that send no or only a generic type.
func isStylesheet(rawURL, contentType string) bool {
	if strings.Contains(contentType, "text/css") {
		return true
	}

	if contentType == "" ||
		strings.HasPrefix(contentType, "text/plain") ||
		strings.HasPrefix(contentType, "application/octet-stream") {
		if u, err := url.Parse(rawURL); err == nil {
			return path.Ext(u.Path) == ".css"
		}
	}

	return false
}
