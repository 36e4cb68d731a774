package crawler

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/DeafMist/notice-radar/internal/processing"
)

// Link is a candidate document found on the target page.
type Link struct {
	URL   string
	Title string
}

// ExtractLinks parses an HTML page and returns its candidate links in page
// order, resolved against base and without repeats.
func ExtractLinks(page io.Reader, base string, titleLimit int) ([]Link, error) {
	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	var links []Link
	seen := make(map[string]struct{})
	var resolveErr error

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if !processing.IsCandidateLink(href) {
			return true
		}
		abs, err := processing.ResolveURL(base, href)
		if err != nil {
			resolveErr = err
			return false
		}
		if _, dup := seen[abs]; dup {
			return true
		}
		seen[abs] = struct{}{}
		links = append(links, Link{
			URL:   abs,
			Title: processing.NormalizeTitle(s.Text(), titleLimit),
		})
		return true
	})

	if resolveErr != nil {
		return nil, resolveErr
	}
	return links, nil
}

// PageText returns the visible text of an HTML document with a space
// between text nodes and whitespace collapsed. Script and style contents are
// dropped.
func PageText(page io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	var parts []string
	for _, n := range root.Nodes {
		collectText(n, &parts)
	}
	return processing.CollapseWhitespace(strings.Join(parts, " ")), nil
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}
