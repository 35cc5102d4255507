package symexpr

import (
	"strconv"
	"strings"
)

// MathML renders the expression as content MathML markup.
func (e *Expr) MathML() string {
	var b strings.Builder
	writeMathML(&b, e.root)
	return b.String()
}

func writeMathML(b *strings.Builder, n node) {
	switch t := n.(type) {
	case numNode:
		b.WriteString("<cn>")
		b.WriteString(strconv.FormatFloat(t.val, 'g', -1, 64))
		b.WriteString("</cn>")
	case symNode:
		b.WriteString("<ci>")
		b.WriteString(t.name)
		b.WriteString("</ci>")
	case unaryNode:
		b.WriteString("<apply><minus/>")
		writeMathML(b, t.x)
		b.WriteString("</apply>")
	case binNode:
		b.WriteString("<apply>")
		switch t.op {
		case '+':
			b.WriteString("<plus/>")
		case '-':
			b.WriteString("<minus/>")
		case '*':
			b.WriteString("<times/>")
		case '/':
			b.WriteString("<divide/>")
		case '^':
			b.WriteString("<power/>")
		}
		writeMathML(b, t.l)
		writeMathML(b, t.r)
		b.WriteString("</apply>")
	case callNode:
		b.WriteString("<apply><ci>")
		b.WriteString(t.fn)
		b.WriteString("</ci>")
		for _, a := range t.args {
			writeMathML(b, a)
		}
		b.WriteString("</apply>")
	}
}
