package mirror

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pagemirror/internal/pkg/mirror/extractor"
	"pagemirror/internal/pkg/utils"
)

// rewriteDocument replaces every reference the extractor targets with the
// local path of its downloaded copy. References that were not resolved
// (fetch failed, off-origin, or already rewritten) are left untouched, which
// makes rewriting idempotent for a fixed resolved map.
func (m *Mirror) rewriteDocument(doc *goquery.Document, resolved *ResolvedMap) {
	base := extractor.BaseURL(doc, m.seedURL)

	for _, target := range extractor.Targets {
		if utils.StringInSlice(target.Tag, m.cfg.DisableHTMLTag) {
			continue
		}

		doc.Find(target.Selector).Each(func(_ int, i *goquery.Selection) {
			value, exists := i.Attr(target.Attr)
			if !exists {
				return
			}

			if target.Srcset {
				m.rewriteSrcset(i, target.Attr, value, base, resolved)
				return
			}

			if local, found := m.localRef(value, base, resolved); found {
				i.SetAttr(target.Attr, local)
			}
		})
	}
}

// rewriteSrcset rewrites a srcset value per candidate, preserving each
// candidate's descriptor. The attribute is only touched when at least one
// candidate resolved, keeping unresolved lists byte-identical.
func (m *Mirror) rewriteSrcset(i *goquery.Selection, attr, value string, base *url.URL, resolved *ResolvedMap) {
	candidates := extractor.ParseSrcset(value)
	changed := false

	for idx := range candidates {
		if local, found := m.localRef(candidates[idx].URL, base, resolved); found {
			candidates[idx].URL = local
			changed = true
		}
	}

	if changed {
		i.SetAttr(attr, extractor.JoinSrcset(candidates))
	}
}

// localRef maps a reference to its rewritten local form, relative to the
// host folder that holds index.html.
func (m *Mirror) localRef(value string, base *url.URL, resolved *ResolvedMap) (string, bool) {
	abs, err := extractor.ResolveURL(value, base)
	if err != nil {
		return "", false
	}

	localPath, found := resolved.Get(abs)
	if !found {
		return "", false
	}

	return "./" + strings.TrimPrefix(localPath, m.hostToken+"/"), true
}
