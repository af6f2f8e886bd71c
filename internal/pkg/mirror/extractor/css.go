package extractor

import (
	"errors"
	"io"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"go.baoshuo.dev/csslexer"

	"pagemirror/internal/pkg/log"
	"pagemirror/internal/pkg/utils"
)

var cssLogger = log.NewFieldedLogger(&log.Fields{
	"component": "mirror.extractor.css",
})

var urlTokenPrefix = []rune("url(")
var atImportRule = []rune("@import")

// cssParser collects every url() reference and @import target of a style
// sheet from the token stream.
type cssParser struct {
	lexer          *csslexer.Lexer
	inURLFunction  bool
	inAtImportRule bool
	links          []string
}

func newCSSParser(css []rune) *cssParser {
	return &cssParser{
		lexer: csslexer.NewLexer(csslexer.NewInputRunes(css)),
		links: make([]string, 0, 16),
	}
}

func (p *cssParser) processToken(tt csslexer.TokenType, traw []rune) {
	switch tt {
	case csslexer.FunctionToken:
		if hasPrefixFold(traw, urlTokenPrefix) {
			p.inURLFunction = true
		}
	case csslexer.AtKeywordToken:
		if equalFold(traw, atImportRule) {
			p.inAtImportRule = true
		}
	case csslexer.SemicolonToken:
		p.inAtImportRule = false
	case csslexer.RightParenthesisToken:
		p.inURLFunction = false
	case csslexer.StringToken:
		if p.inAtImportRule || p.inURLFunction {
			p.links = append(p.links, parseStringTokenData(traw))
		}
	case csslexer.UrlToken:
		// A complete url() with an unquoted value, inside or outside
		// an @import rule.
		p.links = append(p.links, parseURLTokenData(traw))
	}
}

func (p *cssParser) parse() ([]string, error) {
	for {
		tt, traw := p.lexer.Next()
		if tt == csslexer.WhitespaceToken || tt == csslexer.CommentToken {
			continue
		}

		if tt == csslexer.EOFToken {
			var lexErr error
			if p.lexer.Err() != nil && !errors.Is(p.lexer.Err(), io.EOF) {
				lexErr = p.lexer.Err()
			}
			return p.links, lexErr
		}

		p.processToken(tt, traw)
	}
}

// parseURLTokenData unwraps "url( ... )" around an unquoted url token value
func parseURLTokenData(data []rune) string {
	return unescape(trimSpace(data[len(urlTokenPrefix) : len(data)-1]))
}

// parseStringTokenData strips the surrounding quotes of a string token value
func parseStringTokenData(data []rune) string {
	return unescape(trimSpace(data[1 : len(data)-1]))
}

// unescape resolves CSS backslash escapes: 1-6 hex digits form a code point
// (with one following whitespace swallowed), anything else stands for
// itself.
// https://www.w3.org/TR/css-syntax-3/#consume-escaped-code-point
func unescape(data []rune) string {
	if len(data) == 0 || !strings.ContainsRune(string(data), '\\') {
		return string(data)
	}

	var value strings.Builder
	value.Grow(len(data))

	pos := 0
	for pos < len(data) {
		c := data[pos]

		if c != '\\' {
			value.WriteRune(c)
			pos++
			continue
		}

		pos++
		if pos >= len(data) {
			break
		}

		// An escaped newline inside a string is a line continuation
		if isNewline(data[pos]) {
			pos++
			continue
		}

		hexDigits := make([]rune, 0, 6)
		for pos < len(data) && len(hexDigits) < 6 {
			hc := data[pos]
			if (hc >= '0' && hc <= '9') || (hc >= 'a' && hc <= 'f') || (hc >= 'A' && hc <= 'F') {
				hexDigits = append(hexDigits, hc)
				pos++
			} else {
				break
			}
		}

		if len(hexDigits) > 0 {
			value.WriteRune(hexToRune(hexDigits))
			// Whitespace following the hex digits is part of the escape
			if pos < len(data) && isWhitespace(data[pos]) {
				pos++
			}
		} else {
			value.WriteRune(data[pos])
			pos++
		}
	}

	return value.String()
}

func hexToRune(hexDigits []rune) rune {
	uPoint, err := strconv.ParseUint(string(hexDigits), 16, 32)
	if err != nil || uPoint == 0 || uPoint > unicode.MaxRune ||
		(uPoint >= 0xD800 && uPoint <= 0xDFFF) {
		return '�'
	}
	return rune(uPoint)
}

func trimSpace(data []rune) []rune {
	start := 0
	for start < len(data) && isWhitespace(data[start]) {
		start++
	}

	end := len(data)
	for end > start && isWhitespace(data[end-1]) {
		end--
	}

	return data[start:end]
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || isNewline(r)
}

func isNewline(r rune) bool {
	return r == '\n' || r == '\r' || r == '\f'
}

func equalFold(a, b []rune) bool {
	return strings.EqualFold(string(a), string(b))
}

func hasPrefixFold(data, prefix []rune) bool {
	if len(data) < len(prefix) {
		return false
	}
	return strings.EqualFold(string(data[:len(prefix)]), string(prefix))
}

// FromStylesheet extracts the absolute URLs a style sheet references through
// url() functions and @import rules, resolved against the style sheet's own
// URL. Unparsable references are dropped silently.
func FromStylesheet(css []byte, base *url.URL) []string {
	links, err := newCSSParser([]rune(string(css))).parse()
	if err != nil {
		cssLogger.Warn("error lexing CSS", "error", err, "url", base.String())
	}

	resolved := make([]string, 0, len(links))
	for _, link := range links {
		abs, err := ResolveURL(link, base)
		if err != nil {
			cssLogger.Debug("unable to resolve URL", "error", err, "url", link)
			continue
		}
		resolved = append(resolved, abs)
	}

	return utils.DedupeStrings(resolved)
}
