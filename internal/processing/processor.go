package processing

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// DefaultTitle names a document whose link carries no text.
const DefaultTitle = "Documento DIAN"

var whitespace = regexp.MustCompile(`\s+`)

var linkMarkers = []string{"notific", "calend"}

// IsCandidateLink reports whether href points at something worth recording:
// a PDF, or a page about notifications or calendars.
func IsCandidateLink(href string) bool {
	h := strings.ToLower(strings.TrimSpace(href))
	if h == "" {
		return false
	}
	if strings.HasSuffix(h, ".pdf") {
		return true
	}
	for _, marker := range linkMarkers {
		if strings.Contains(h, marker) {
			return true
		}
	}
	return false
}

// ResolveURL makes href absolute against base. Hrefs already starting with
// "http" are returned unchanged.
func ResolveURL(base, href string) (string, error) {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "http") {
		return href, nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	return b.ResolveReference(ref).String(), nil
}

// CollapseWhitespace squeezes whitespace runs into single spaces and trims.
func CollapseWhitespace(input string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(input, " "))
}

// NormalizeTitle trims link text, falls back to DefaultTitle and cuts the
// result to limit runes.
func NormalizeTitle(text string, limit int) string {
	title := CollapseWhitespace(text)
	if title == "" {
		title = DefaultTitle
	}
	return truncateRunes(title, limit)
}

// Summarize collapses text and cuts it to limit runes, appending "..." when
// anything was dropped.
func Summarize(text string, limit int) string {
	clean := CollapseWhitespace(text)
	if limit <= 0 || len([]rune(clean)) <= limit {
		return clean
	}
	return truncateRunes(clean, limit) + "..."
}

// ContentHash returns the hex MD5 digest of content. It is the document ID.
func ContentHash(content []byte) string {
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:])
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
