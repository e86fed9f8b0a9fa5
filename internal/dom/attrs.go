package dom

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/sells-group/page-audit/internal/model"
)

// Attr returns the value of an attribute on the referenced element.
func (d *Document) Attr(ref model.ElementRef, key string) (string, bool) {
	n := d.node(ref)
	if n == nil {
		return "", false
	}
	return attr(n, key)
}

// SetAttr sets or replaces an attribute. Unknown references are ignored.
func (d *Document) SetAttr(ref model.ElementRef, key, val string) {
	n := d.node(ref)
	if n == nil {
		return
	}
	for i, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes an attribute if present.
func (d *Document) RemoveAttr(ref model.ElementRef, key string) {
	n := d.node(ref)
	if n == nil {
		return
	}
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

// ElementsWithAttr returns all elements whose attribute key equals val.
func (d *Document) ElementsWithAttr(key, val string) []model.ElementRef {
	var refs []model.ElementRef
	for i, n := range d.elements {
		if v, ok := attr(n, key); ok && v == val {
			refs = append(refs, model.ElementRef(i))
		}
	}
	return refs
}
