package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pagemirror/internal/pkg/log"
	"pagemirror/internal/pkg/utils"
)

var htmlLogger = log.NewFieldedLogger(&log.Fields{
	"component": "mirror.extractor.html",
})

// Target is one (selector, attribute) pair the extractor scans and the
// rewriter later rewrites. Keeping a single shared table guarantees the two
// phases cannot drift apart.
type Target struct {
	Tag      string
	Selector string
	Attr     string
	Srcset   bool
}

var Targets = []Target{
	{Tag: "link", Selector: `link[rel="stylesheet"]`, Attr: "href"},
	{Tag: "link", Selector: `link[rel="icon"]`, Attr: "href"},
	{Tag: "link", Selector: `link[rel="shortcut icon"]`, Attr: "href"},
	{Tag: "link", Selector: `link[rel="apple-touch-icon"]`, Attr: "href"},
	{Tag: "script", Selector: "script[src]", Attr: "src"},
	{Tag: "img", Selector: "img[src]", Attr: "src"},
	{Tag: "img", Selector: "img[srcset]", Attr: "srcset", Srcset: true},
	{Tag: "source", Selector: "source[src]", Attr: "src"},
	{Tag: "source", Selector: "source[srcset]", Attr: "srcset", Srcset: true},
	{Tag: "video", Selector: "video[src]", Attr: "src"},
	{Tag: "audio", Selector: "audio[src]", Attr: "src"},
}

// SrcsetCandidate is one entry of a srcset attribute: a URL plus its
// optional width/density descriptor.
type SrcsetCandidate struct {
	URL        string
	Descriptor string
}

// ParseSrcset splits a srcset attribute value into its candidates. The
// descriptor is kept verbatim so the rewriter can re-emit it untouched.
func ParseSrcset(value string) []SrcsetCandidate {
	var candidates []SrcsetCandidate

	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		fields := strings.Fields(entry)
		candidate := SrcsetCandidate{URL: fields[0]}
		if len(fields) > 1 {
			candidate.Descriptor = strings.Join(fields[1:], " ")
		}

		candidates = append(candidates, candidate)
	}

	return candidates
}

// JoinSrcset renders candidates back into a srcset attribute value
func JoinSrcset(candidates []SrcsetCandidate) string {
	entries := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.Descriptor != "" {
			entries = append(entries, c.URL+" "+c.Descriptor)
		} else {
			entries = append(entries, c.URL)
		}
	}
	return strings.Join(entries, ", ")
}

// BaseURL returns the URL relative references of the document resolve
// against: the document's <base> tag when it carries a valid one, the
// fallback otherwise.
// spec ref: https://html.spec.whatwg.org/multipage/semantics.html#the-base-element
func BaseURL(doc *goquery.Document, fallback *url.URL) *url.URL {
	base, exists := doc.Find("base").First().Attr("href")
	if !exists {
		return fallback
	}

	// The href value is a "valid URL potentially surrounded by spaces",
	// where spaces are ASCII whitespace only.
	base = strings.Trim(base, "\t\n\f\r ")

	baseURL, err := url.Parse(base)
	if err != nil {
		htmlLogger.Warn("unable to parse base tag value", "error", err, "base", base)
		return fallback
	}

	if baseURL.Scheme == "data" || baseURL.Scheme == "javascript" {
		htmlLogger.Warn("base tag has a bad scheme", "base", base, "scheme", baseURL.Scheme)
		return fallback
	}

	return fallback.ResolveReference(baseURL)
}

// FromDocument extracts the absolute URLs of every asset the document
// references through the Targets table. Candidates that fail to parse as a
// URL are dropped silently, matching the tolerant nature of real-world
// markup. Tags listed in disabledTags are skipped.
func FromDocument(doc *goquery.Document, base *url.URL, disabledTags []string) []string {
	base = BaseURL(doc, base)

	var rawAssets []string

	for _, target := range Targets {
		if utils.StringInSlice(target.Tag, disabledTags) {
			continue
		}

		doc.Find(target.Selector).Each(func(_ int, i *goquery.Selection) {
			value, exists := i.Attr(target.Attr)
			if !exists {
				return
			}

			if target.Srcset {
				for _, candidate := range ParseSrcset(value) {
					rawAssets = append(rawAssets, candidate.URL)
				}
			} else {
				rawAssets = append(rawAssets, value)
			}
		})
	}

	assets := make([]string, 0, len(rawAssets))
	for _, rawAsset := range rawAssets {
		resolved, err := ResolveURL(rawAsset, base)
		if err != nil {
			htmlLogger.Debug("unable to resolve URL", "error", err, "url", rawAsset)
			continue
		}
		assets = append(assets, resolved)
	}

	return utils.DedupeStrings(assets)
}
