// Package paths maps remote URLs to deterministic local file paths. It is
// pure: same host token, URL and content-type always produce the same path.
package paths

import (
	"net/url"
	"path"
	"strings"

	"pagemirror/internal/pkg/utils"
)

const maxFilenameLength = 200

// Characters that are unsafe in file names on common filesystems
const hostileChars = `<>:"/\|?*`

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico", ".avif", ".bmp"}
var fontExtensions = []string{".woff", ".woff2", ".ttf", ".otf", ".eot"}

// SanitizeHost turns a URL host (possibly carrying a port) into a token
// usable as a directory name.
func SanitizeHost(host string) string {
	return sanitize(host)
}

// Derive computes the local relative path for a remote URL, routing the file
// into a subdirectory based on its extension. The extension is taken from
// the URL path when present, otherwise inferred from the content-type.
func Derive(hostToken, rawURL, contentType string) string {
	var segment string
	if u, err := url.Parse(rawURL); err == nil {
		segment = path.Base(u.Path)
		if segment == "/" || segment == "." {
			segment = ""
		}
	}

	ext := strings.ToLower(path.Ext(segment))
	if ext == "" {
		ext = extensionFromContentType(contentType)
	}

	filename := sanitize(segment)
	if len(filename) > maxFilenameLength {
		filename = filename[:maxFilenameLength]
	}
	if filename == "" {
		filename = "index"
	}
	if path.Ext(filename) == "" && ext != "" {
		filename += ext
	}

	if subdir := subdirectoryForExtension(ext); subdir != "" {
		return path.Join(hostToken, subdir, filename)
	}

	return path.Join(hostToken, filename)
}

func sanitize(segment string) string {
	var b strings.Builder
	b.Grow(len(segment))

	for _, r := range segment {
		if r < 0x20 || strings.ContainsRune(hostileChars, r) {
			b.WriteRune('_')
		} else {
			b.WriteRune(r)
		}
	}

	return b.String()
}

func extensionFromContentType(contentType string) string {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	mediaType, _, _ = strings.Cut(mediaType, ";")
	mediaType = strings.TrimSpace(mediaType)

	switch {
	case strings.Contains(mediaType, "text/html"):
		return ".html"
	case strings.Contains(mediaType, "text/css"):
		return ".css"
	case strings.Contains(mediaType, "javascript"):
		return ".js"
	case strings.HasPrefix(mediaType, "image/"):
		sub := strings.TrimPrefix(mediaType, "image/")
		if sub == "jpeg" {
			sub = "jpg"
		}
		if sub == "" {
			return ""
		}
		return "." + sub
	case strings.HasPrefix(mediaType, "font/"):
		return ".woff2"
	default:
		return ""
	}
}

func subdirectoryForExtension(ext string) string {
	switch {
	case ext == ".css":
		return "css"
	case ext == ".js":
		return "js"
	case utils.StringInSlice(ext, imageExtensions):
		return "img"
	case utils.StringInSlice(ext, fontExtensions):
		return "fonts"
	case ext == ".html" || ext == "":
		return ""
	default:
		return "assets"
	}
}
