package adapters

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/verity/internal/extract"
)

// Adapter selects the readable content of a page for a family of sites
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter can handle the given URL/content
	CanHandle(url string, contentType string) bool

	// MainText returns the visible text of the page's primary content
	MainText(doc *html.Node) string
}

// Registry manages site adapters
type Registry struct {
	adapters []Adapter
	generic  Adapter
}

// NewRegistry creates a registry with the built-in adapters
func NewRegistry() *Registry {
	registry := &Registry{}

	registry.Register(NewWikipediaAdapter())

	// Fallback for every other site
	registry.generic = NewGenericAdapter()

	return registry
}

// Register registers a new adapter
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// FindAdapter finds the best adapter for the given URL and content type
func (r *Registry) FindAdapter(url string, contentType string) Adapter {
	for _, adapter := range r.adapters {
		if adapter.CanHandle(url, contentType) {
			return adapter
		}
	}
	return r.generic
}

// ExtractText parses htmlContent and returns the main text chosen by the matching adapter
func (r *Registry) ExtractText(url, contentType, htmlContent string) (string, string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", "", err
	}
	adapter := r.FindAdapter(url, contentType)
	return adapter.MainText(doc), adapter.Name(), nil
}

// BaseAdapter provides common tree helpers for adapters
type BaseAdapter struct{}

// HasClass checks if a node has a specific CSS class
func (b *BaseAdapter) HasClass(n *html.Node, className string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, class := range strings.Fields(b.GetAttribute(n, "class")) {
		if class == className {
			return true
		}
	}
	return false
}

// GetAttribute gets an attribute value from a node
func (b *BaseAdapter) GetAttribute(n *html.Node, attrKey string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrKey {
			return attr.Val
		}
	}
	return ""
}

// FindFirst finds the first node matching a predicate, depth first
func (b *BaseAdapter) FindFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	if predicate(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := b.FindFirst(c, predicate); found != nil {
			return found
		}
	}
	return nil
}

// Prune detaches every descendant of n matching the predicate
func (b *BaseAdapter) Prune(n *html.Node, predicate func(*html.Node) bool) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if predicate(c) {
			n.RemoveChild(c)
		} else {
			b.Prune(c, predicate)
		}
		c = next
	}
}

// Text returns the visible text under n
func (b *BaseAdapter) Text(n *html.Node) string {
	return extract.VisibleTextNode(n)
}

func isElement(n *html.Node, tags ...string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, t := range tags {
		if n.Data == t {
			return true
		}
	}
	return false
}
