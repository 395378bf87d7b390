// Package content derives plain-text views of post HTML.
package content

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// DefaultPreviewLength is the preview size stored on posts
const DefaultPreviewLength = 280

// Text returns the visible text of an HTML fragment with whitespace collapsed
func Text(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}
	doc.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Preview returns at most max runes of the visible text, cut at a word boundary
// and suffixed with an ellipsis when shortened.
func Preview(html string, max int) string {
	text := Text(html)
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:max])
	if runes[max] == ' ' {
		return strings.TrimRight(cut, " .,;:") + "…"
	}
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " .,;:") + "…"
}

// Links returns the distinct href targets of anchors in document order
func Links(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || seen[href] {
			return
		}
		seen[href] = true
		links = append(links, href)
	})
	return links
}

// Images returns the src of every image in the fragment
func Images(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	var srcs []string
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		if src := strings.TrimSpace(s.AttrOr("src", "")); src != "" {
			srcs = append(srcs, src)
		}
	})
	return srcs
}
