package highlight

import (
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

type declaration struct {
	prop  string
	value string
}

// declarations is an ordered inline style. Property names are lowercased.
type declarations []declaration

// parseStyle splits an inline style into declarations with a CSS
// tokenizer, so semicolons and colons inside strings, url() and other
// functions stay part of the value. Fragments without a property are
// dropped.
func parseStyle(s string) declarations {
	var (
		out   declarations
		cur   []byte
		colon = -1
		depth int
	)
	flush := func() {
		if colon >= 0 {
			prop := strings.ToLower(strings.TrimSpace(string(cur[:colon])))
			value := strings.TrimSpace(string(cur[colon+1:]))
			if prop != "" {
				out = out.set(prop, value)
			}
		}
		cur = cur[:0]
		colon = -1
	}

	l := css.NewLexer(parse.NewInputString(s))
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			flush()
			return out
		case css.SemicolonToken:
			if depth == 0 {
				flush()
				continue
			}
		case css.ColonToken:
			if depth == 0 && colon < 0 {
				colon = len(cur)
			}
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken, css.LeftBraceToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken, css.RightBraceToken:
			if depth > 0 {
				depth--
			}
		}
		cur = append(cur, data...)
	}
}

func (d declarations) set(prop, value string) declarations {
	for i := range d {
		if d[i].prop == prop {
			d[i].value = value
			return d
		}
	}
	return append(d, declaration{prop: prop, value: value})
}

func (d declarations) remove(prop string) declarations {
	out := d[:0]
	for _, decl := range d {
		if decl.prop != prop {
			out = append(out, decl)
		}
	}
	return out
}

func (d declarations) String() string {
	parts := make([]string, len(d))
	for i, decl := range d {
		parts[i] = decl.prop + ": " + decl.value
	}
	return strings.Join(parts, "; ")
}
