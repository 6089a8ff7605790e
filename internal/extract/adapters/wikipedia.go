package adapters

import (
	"strings"

	"golang.org/x/net/html"
)

// WikipediaAdapter reads the article body of Wikipedia pages
type WikipediaAdapter struct {
	BaseAdapter
	skipClasses []string
}

// NewWikipediaAdapter creates a new Wikipedia adapter
func NewWikipediaAdapter() *WikipediaAdapter {
	return &WikipediaAdapter{
		skipClasses: []string{
			"reference", "reflist", "references", "infobox", "navbox",
			"mw-editsection", "hatnote", "thumb", "metadata", "toc",
		},
	}
}

// Name returns the adapter name
func (a *WikipediaAdapter) Name() string {
	return "wikipedia"
}

// CanHandle checks if this is a Wikipedia URL
func (a *WikipediaAdapter) CanHandle(rawURL string, contentType string) bool {
	return strings.Contains(rawURL, "wikipedia.org")
}

// MainText returns the article prose without citations, infoboxes or navigation
func (a *WikipediaAdapter) MainText(doc *html.Node) string {
	content := a.FindFirst(doc, func(n *html.Node) bool {
		return isElement(n, "div") &&
			(a.HasClass(n, "mw-parser-output") || a.GetAttribute(n, "id") == "mw-content-text")
	})
	if content == nil {
		content = doc
	}

	a.Prune(content, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, class := range a.skipClasses {
			if a.HasClass(n, class) {
				return true
			}
		}
		return false
	})

	return a.Text(content)
}
