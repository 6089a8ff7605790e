package adapters

import "golang.org/x/net/html"

// GenericAdapter is the fallback adapter for unknown sites
type GenericAdapter struct {
	BaseAdapter
}

// NewGenericAdapter creates a new generic adapter
func NewGenericAdapter() *GenericAdapter {
	return &GenericAdapter{}
}

// Name returns the adapter name
func (a *GenericAdapter) Name() string {
	return "generic"
}

// CanHandle always returns true (fallback adapter)
func (a *GenericAdapter) CanHandle(url string, contentType string) bool {
	return true
}

// MainText prefers <article>, then <main>, then <body>, and drops page chrome
func (a *GenericAdapter) MainText(doc *html.Node) string {
	content := a.FindFirst(doc, func(n *html.Node) bool { return isElement(n, "article") })
	if content == nil {
		content = a.FindFirst(doc, func(n *html.Node) bool {
			return isElement(n, "main") || a.GetAttribute(n, "role") == "main"
		})
	}
	if content == nil {
		content = a.FindFirst(doc, func(n *html.Node) bool { return isElement(n, "body") })
	}
	if content == nil {
		content = doc
	}

	a.Prune(content, func(n *html.Node) bool {
		return isElement(n, "nav", "header", "footer", "aside", "form", "button")
	})

	return a.Text(content)
}
