package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// VisibleText parses HTML and returns its visible text
func VisibleText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}
	return VisibleTextNode(doc), nil
}

// VisibleTextNode extracts text nodes under n, skipping scripts, styles and embeds.
// Each block element ends a sentence.
func VisibleTextNode(n *html.Node) string {
	var buf []byte

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "template", "svg":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.Join(strings.Fields(n.Data), " ")
			if text != "" {
				buf = append(buf, text...)
				buf = append(buf, ' ')
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && isBlock(n.Data) {
			buf = endBlock(buf)
		}
	}

	walk(n)
	return strings.TrimSpace(string(buf))
}

// endBlock terminates the current block with punctuation and a newline
func endBlock(buf []byte) []byte {
	for len(buf) > 0 && buf[len(buf)-1] == ' ' {
		buf = buf[:len(buf)-1]
	}
	if len(buf) == 0 || buf[len(buf)-1] == '\n' {
		return buf
	}
	switch buf[len(buf)-1] {
	case '.', '!', '?':
	default:
		buf = append(buf, '.')
	}
	return append(buf, '\n')
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "tr", "br", "article", "section":
		return true
	}
	return false
}

// LooksLikeHTML reports whether content appears to be markup rather than plain text
func LooksLikeHTML(content string) bool {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "<") {
		return false
	}
	lower := strings.ToLower(trimmed[:min(len(trimmed), 512)])
	for _, marker := range []string{"<!doctype html", "<html", "<body", "<p", "<div", "<article"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
