package source

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

var skipElements = map[string]struct{}{
	"script": {},
	"style":  {},
	"head":   {},
}

var blockElements = map[string]struct{}{
	"p": {}, "div": {}, "br": {}, "li": {}, "tr": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"blockquote": {}, "pre": {}, "section": {}, "article": {},
}

// extractHTML returns the visible text of an HTML document. Block elements
// end with a newline.
func extractHTML(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, skip := skipElements[n.Data]; skip {
				return
			}
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			if _, block := blockElements[n.Data]; block {
				buf.WriteByte('\n')
			}
		}
	}
	walk(doc)

	return strings.TrimSpace(buf.String()), nil
}
