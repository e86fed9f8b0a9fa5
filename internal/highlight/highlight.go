// Package highlight marks page elements that carry phone evidence and
// removes those marks again. Only elements tagged by this package are ever
// touched by Clear.
package highlight

import (
	"go.uber.org/zap"

	"github.com/sells-group/page-audit/internal/model"
	"github.com/sells-group/page-audit/internal/phone"
)

// Surface is the attribute-level page access the controller needs.
// *dom.Document implements it.
type Surface interface {
	Tag(ref model.ElementRef) string
	Attr(ref model.ElementRef, key string) (string, bool)
	SetAttr(ref model.ElementRef, key, val string)
	RemoveAttr(ref model.ElementRef, key string)
	ElementsWithAttr(key, val string) []model.ElementRef
}

// Defaults for the marker.
const (
	DefaultOutline       = "3px solid #ffcc00"
	DefaultOutlineOffset = "2px"
	DefaultAttribute     = "data-phone-highlight"
)

const (
	styleAttr   = "style"
	ownedMarker = "true"
)

// Options configures the marker style and the ownership tag.
type Options struct {
	Outline       string
	OutlineOffset string
	Attribute     string
}

func (o Options) withDefaults() Options {
	if o.Outline == "" {
		o.Outline = DefaultOutline
	}
	if o.OutlineOffset == "" {
		o.OutlineOffset = DefaultOutlineOffset
	}
	if o.Attribute == "" {
		o.Attribute = DefaultAttribute
	}
	return o
}

// Controller owns the highlight state of one page.
type Controller struct {
	page Surface
	opts Options
}

// New creates a controller for page. Zero-valued options use the defaults.
func New(page Surface, opts Options) *Controller {
	return &Controller{page: page, opts: opts.withDefaults()}
}

// Apply marks every distinct element referenced by records and returns the
// number of elements marked. Records without elements are skipped.
func (c *Controller) Apply(records []model.PhoneRecord) int {
	refs := phone.HighlightTargets(records)
	for _, ref := range refs {
		c.mark(ref)
		zap.L().Debug("highlight: marked", zap.Int("element", int(ref)), zap.String("tag", c.page.Tag(ref)))
	}
	zap.L().Debug("highlight: applied", zap.Int("elements", len(refs)))
	return len(refs)
}

// Clear removes the marker from every element tagged as owned by this
// package and returns how many were cleared. Calling it when nothing is
// highlighted is a no-op.
func (c *Controller) Clear() int {
	refs := c.page.ElementsWithAttr(c.opts.Attribute, ownedMarker)
	for _, ref := range refs {
		c.unmark(ref)
	}
	if len(refs) > 0 {
		zap.L().Debug("highlight: cleared", zap.Int("elements", len(refs)))
	}
	return len(refs)
}

func (c *Controller) mark(ref model.ElementRef) {
	style, _ := c.page.Attr(ref, styleAttr)
	decls := parseStyle(style)
	decls = decls.set("outline", c.opts.Outline)
	decls = decls.set("outline-offset", c.opts.OutlineOffset)
	c.page.SetAttr(ref, styleAttr, decls.String())
	c.page.SetAttr(ref, c.opts.Attribute, ownedMarker)
}

func (c *Controller) unmark(ref model.ElementRef) {
	if style, ok := c.page.Attr(ref, styleAttr); ok {
		decls := parseStyle(style).remove("outline").remove("outline-offset")
		if len(decls) == 0 {
			c.page.RemoveAttr(ref, styleAttr)
		} else {
			c.page.SetAttr(ref, styleAttr, decls.String())
		}
	}
	c.page.RemoveAttr(ref, c.opts.Attribute)
}
