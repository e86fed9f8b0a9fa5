// Package dom wraps a parsed HTML tree with the read and attribute-write
// operations the audit needs: visible text, tel: links, bounded text search,
// and attribute edits addressed by stable element references.
package dom

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"

	"github.com/sells-group/page-audit/internal/model"
)

// TelLink is an anchor whose href uses the tel: scheme.
type TelLink struct {
	Href    string
	Text    string
	Element model.ElementRef
}

// Document is a parsed page. Elements are numbered in document order when
// the page is parsed; an model.ElementRef is an index into that numbering.
type Document struct {
	root     *html.Node
	body     *html.Node
	elements []*html.Node
	refs     map[*html.Node]model.ElementRef
}

// Parse reads an HTML document. The HTML5 parser never rejects markup, so
// errors come only from the reader.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, eris.Wrap(err, "dom: parse")
	}
	d := &Document{root: root, refs: make(map[*html.Node]model.ElementRef)}
	d.index(root)
	return d, nil
}

// ParseString parses an in-memory HTML document.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func (d *Document) index(n *html.Node) {
	if n.Type == html.ElementNode {
		d.refs[n] = model.ElementRef(len(d.elements))
		d.elements = append(d.elements, n)
		if n.Data == "body" && d.body == nil {
			d.body = n
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.index(c)
	}
}

func (d *Document) node(ref model.ElementRef) *html.Node {
	if ref < 0 || int(ref) >= len(d.elements) {
		return nil
	}
	return d.elements[ref]
}

// Tag returns the element's tag name, or "" for an unknown reference.
func (d *Document) Tag(ref model.ElementRef) string {
	if n := d.node(ref); n != nil {
		return n.Data
	}
	return ""
}

// Title returns the whitespace-collapsed <title> text.
func (d *Document) Title() string {
	for _, n := range d.elements {
		if n.Data == "title" {
			return CollapseSpace(textContent(n))
		}
	}
	return ""
}

// TelLinks returns every anchor with a tel: href, in document order.
func (d *Document) TelLinks() []TelLink {
	var links []TelLink
	for i, n := range d.elements {
		if n.Data != "a" {
			continue
		}
		href, ok := attr(n, "href")
		if !ok {
			continue
		}
		href = strings.TrimSpace(href)
		if len(href) < 4 || !strings.EqualFold(href[:4], "tel:") {
			continue
		}
		links = append(links, TelLink{
			Href:    href,
			Text:    CollapseSpace(textContent(n)),
			Element: model.ElementRef(i),
		})
	}
	return links
}

// VisibleText returns the rendered-ish text of the body: script, style and
// similar subtrees are skipped, whitespace inside text runs is collapsed,
// and block boundaries become newlines.
func (d *Document) VisibleText() string {
	if d.body == nil {
		return ""
	}
	return visibleText(d.body)
}

// RegionText returns the visible text of the first element with the given
// tag (e.g. "footer"), or "" when the page has none.
func (d *Document) RegionText(tag string) string {
	for _, n := range d.elements {
		if n.Data == tag {
			return visibleText(n)
		}
	}
	return ""
}

// HasElement reports whether any element with the given tag exists.
func (d *Document) HasElement(tag string) bool {
	for _, n := range d.elements {
		if n.Data == tag {
			return true
		}
	}
	return false
}

// FindElementsContaining returns the parent elements of visible text nodes
// whose collapsed text contains needle. Results are distinct, in document
// order, and capped at limit (limit <= 0 means no cap).
func (d *Document) FindElementsContaining(needle string, limit int) []model.ElementRef {
	if needle == "" || d.body == nil {
		return nil
	}
	var (
		refs []model.ElementRef
		seen = make(map[*html.Node]bool)
	)
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && skipSubtree(n) {
			return true
		}
		if n.Type == html.TextNode && n.Parent != nil && !seen[n.Parent] {
			if strings.Contains(CollapseSpace(n.Data), needle) {
				if ref, ok := d.refs[n.Parent]; ok {
					seen[n.Parent] = true
					refs = append(refs, ref)
					if limit > 0 && len(refs) >= limit {
						return false
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(d.body)
	return refs
}

// Render writes the (possibly modified) document as HTML.
func (d *Document) Render(w io.Writer) error {
	return eris.Wrap(html.Render(w, d.root), "dom: render")
}

// CollapseSpace replaces whitespace runs with single spaces and trims.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
