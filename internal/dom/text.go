package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// skippedTags never contribute visible text.
var skippedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
	"svg":      true,
	"iframe":   true,
	"object":   true,
}

// blockTags start and end on their own line.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tr": true, "ul": true, "option": true,
}

func skipSubtree(n *html.Node) bool {
	if skippedTags[n.Data] {
		return true
	}
	_, hidden := attr(n, "hidden")
	return hidden
}

// visibleText approximates innerText: collapsed whitespace within runs,
// newlines at block boundaries and <br>, tabs between table cells.
func visibleText(root *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			writeCollapsed(&b, n.Data)
			return
		case html.ElementNode:
			if skipSubtree(n) {
				return
			}
			switch {
			case n.Data == "br":
				b.WriteByte('\n')
				return
			case n.Data == "td" || n.Data == "th":
				defer b.WriteByte('\t')
			case blockTags[n.Data]:
				newline(&b)
				defer newline(&b)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return strings.TrimSpace(b.String())
}

// writeCollapsed appends s with each whitespace run reduced to one space,
// never doubling a separator that is already there.
func writeCollapsed(b *strings.Builder, s string) {
	space := false
	for _, r := range s {
		if isSpace(r) {
			space = true
			continue
		}
		if space && !endsWithSpace(b) {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	if space && !endsWithSpace(b) {
		b.WriteByte(' ')
	}
}

func newline(b *strings.Builder) {
	s := b.String()
	if s == "" || strings.HasSuffix(s, "\n") {
		return
	}
	b.WriteByte('\n')
}

func endsWithSpace(b *strings.Builder) bool {
	s := b.String()
	if s == "" {
		return true
	}
	return isSpace(rune(s[len(s)-1]))
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f', '\u00a0':
		return true
	}
	return false
}
