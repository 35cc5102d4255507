// Package symexpr provides a small symbolic algebra layer for rate laws
// and unit expressions.
//
// An [Expr] wraps an immutable expression tree parsed from algebraic
// text (identifiers, numbers, + - * / and ^ or ** for powers, function
// calls). Expressions guarantee a string round-trip: Parse(e.String())
// yields an expression equal to e. They also render to content MathML,
// support substitution by name, and expose their free symbols.
package symexpr

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

type node interface {
	isNode()
}

type numNode struct {
	val float64
}

type symNode struct {
	name string
}

type unaryNode struct {
	x node
}

type binNode struct {
	op byte // '+', '-', '*', '/', '^'
	l  node
	r  node
}

type callNode struct {
	fn   string
	args []node
}

func (numNode) isNode()   {}
func (symNode) isNode()   {}
func (unaryNode) isNode() {}
func (binNode) isNode()   {}
func (callNode) isNode()  {}

// Expr is an immutable symbolic expression.
type Expr struct {
	root node
}

// Num returns an expression holding a bare numeric literal. A negative
// value is held as a unary minus over the positive literal, the same
// tree the parser builds for it, so its string form reparses equal.
func Num(v float64) *Expr {
	if math.Signbit(v) {
		return &Expr{root: unaryNode{x: numNode{val: -v}}}
	}
	return &Expr{root: numNode{val: v}}
}

// Sym returns an expression holding a single symbol.
func Sym(name string) *Expr {
	return &Expr{root: symNode{name: name}}
}

// IsNumber reports whether the expression is a bare numeric literal
// and returns its value.
func (e *Expr) IsNumber() (float64, bool) {
	switch n := e.root.(type) {
	case numNode:
		return n.val, true
	case unaryNode:
		if inner, ok := n.x.(numNode); ok {
			return -inner.val, true
		}
	}
	return 0, false
}

// IsSymbol reports whether the expression is a single bare symbol.
func (e *Expr) IsSymbol() (string, bool) {
	if s, ok := e.root.(symNode); ok {
		return s.name, true
	}
	return "", false
}

// FreeSymbols returns the sorted set of symbol names referenced by the
// expression.
func (e *Expr) FreeSymbols() []string {
	seen := map[string]bool{}
	collectSymbols(e.root, seen)
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func collectSymbols(n node, seen map[string]bool) {
	switch t := n.(type) {
	case symNode:
		seen[t.name] = true
	case unaryNode:
		collectSymbols(t.x, seen)
	case binNode:
		collectSymbols(t.l, seen)
		collectSymbols(t.r, seen)
	case callNode:
		for _, a := range t.args {
			collectSymbols(a, seen)
		}
	}
}

// References reports whether name appears as a free symbol.
func (e *Expr) References(name string) bool {
	seen := map[string]bool{}
	collectSymbols(e.root, seen)
	return seen[name]
}

// Substitute replaces every occurrence of the named symbol with the
// given expression and returns the result. Substituting a symbol the
// expression does not reference returns the receiver unchanged.
func (e *Expr) Substitute(name string, with *Expr) *Expr {
	if !e.References(name) {
		return e
	}
	return &Expr{root: substNode(e.root, name, with.root)}
}

// SubstituteValue replaces the named symbol by a numeric literal.
func (e *Expr) SubstituteValue(name string, v float64) *Expr {
	return e.Substitute(name, Num(v))
}

func substNode(n node, name string, with node) node {
	switch t := n.(type) {
	case symNode:
		if t.name == name {
			return with
		}
		return t
	case unaryNode:
		return unaryNode{x: substNode(t.x, name, with)}
	case binNode:
		return binNode{op: t.op, l: substNode(t.l, name, with), r: substNode(t.r, name, with)}
	case callNode:
		args := make([]node, len(t.args))
		for i, a := range t.args {
			args[i] = substNode(a, name, with)
		}
		return callNode{fn: t.fn, args: args}
	default:
		return n
	}
}

// FuncDef is a user-defined function body over named parameters.
type FuncDef struct {
	Params []string
	Body   *Expr
}

// ExpandCalls inlines applications of the given function definitions,
// substituting each argument for its parameter in the definition body.
// Calls to unknown functions are left intact.
func (e *Expr) ExpandCalls(defs map[string]FuncDef) *Expr {
	if len(defs) == 0 {
		return e
	}
	return &Expr{root: expandNode(e.root, defs)}
}

func expandNode(n node, defs map[string]FuncDef) node {
	switch t := n.(type) {
	case unaryNode:
		return unaryNode{x: expandNode(t.x, defs)}
	case binNode:
		return binNode{op: t.op, l: expandNode(t.l, defs), r: expandNode(t.r, defs)}
	case callNode:
		args := make([]node, len(t.args))
		for i, a := range t.args {
			args[i] = expandNode(a, defs)
		}
		def, ok := defs[t.fn]
		if !ok || len(def.Params) != len(args) {
			return callNode{fn: t.fn, args: args}
		}
		body := def.Body.root
		for i, p := range def.Params {
			body = substNode(body, p, args[i])
		}
		return body
	default:
		return n
	}
}

// RemoveFactor cancels one multiplicative occurrence of the named
// symbol from the expression, as when dividing a rate law by a
// unit-volume compartment. It reports whether the symbol appeared as a
// plain factor; when it does not, the expression is returned unchanged.
func (e *Expr) RemoveFactor(name string) (*Expr, bool) {
	n, ok := removeFactor(e.root, name)
	if !ok {
		return e, false
	}
	return &Expr{root: n}, true
}

func removeFactor(n node, name string) (node, bool) {
	switch t := n.(type) {
	case symNode:
		if t.name == name {
			return numNode{val: 1}, true
		}
	case unaryNode:
		if x, ok := removeFactor(t.x, name); ok {
			return unaryNode{x: x}, true
		}
	case binNode:
		if t.op == '*' {
			if isBareSymbol(t.l, name) {
				return t.r, true
			}
			if isBareSymbol(t.r, name) {
				return t.l, true
			}
			if l, ok := removeFactor(t.l, name); ok {
				return binNode{op: '*', l: l, r: t.r}, true
			}
			if r, ok := removeFactor(t.r, name); ok {
				return binNode{op: '*', l: t.l, r: r}, true
			}
		}
		if t.op == '/' {
			if l, ok := removeFactor(t.l, name); ok {
				return binNode{op: '/', l: l, r: t.r}, true
			}
		}
	}
	return n, false
}

func isBareSymbol(n node, name string) bool {
	s, ok := n.(symNode)
	return ok && s.name == name
}

// Term is one signed addend of a top-level sum.
type Term struct {
	Negative bool
	Expr     *Expr
}

// Terms splits the expression along its top-level additions and
// subtractions. A non-sum expression yields a single term.
func (e *Expr) Terms() []Term {
	var terms []Term
	splitTerms(e.root, false, &terms)
	return terms
}

func splitTerms(n node, neg bool, out *[]Term) {
	switch t := n.(type) {
	case binNode:
		switch t.op {
		case '+':
			splitTerms(t.l, neg, out)
			splitTerms(t.r, neg, out)
			return
		case '-':
			splitTerms(t.l, neg, out)
			splitTerms(t.r, !neg, out)
			return
		}
	case unaryNode:
		splitTerms(t.x, !neg, out)
		return
	}
	*out = append(*out, Term{Negative: neg, Expr: &Expr{root: n}})
}

// Equal reports structural equality, ignoring presentation differences
// such as redundant parentheses or ** versus ^ for powers.
func (e *Expr) Equal(other *Expr) bool {
	if e == nil || other == nil {
		return e == other
	}
	return nodesEqual(e.root, other.root)
}

func nodesEqual(a, b node) bool {
	switch ta := a.(type) {
	case numNode:
		tb, ok := b.(numNode)
		return ok && ta.val == tb.val
	case symNode:
		tb, ok := b.(symNode)
		return ok && ta.name == tb.name
	case unaryNode:
		tb, ok := b.(unaryNode)
		return ok && nodesEqual(ta.x, tb.x)
	case binNode:
		tb, ok := b.(binNode)
		return ok && ta.op == tb.op && nodesEqual(ta.l, tb.l) && nodesEqual(ta.r, tb.r)
	case callNode:
		tb, ok := b.(callNode)
		if !ok || ta.fn != tb.fn || len(ta.args) != len(tb.args) {
			return false
		}
		for i := range ta.args {
			if !nodesEqual(ta.args[i], tb.args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// precedence levels for printing
func prec(op byte) int {
	switch op {
	case '+', '-':
		return 1
	case '*', '/':
		return 2
	case '^':
		return 3
	}
	return 4
}

// String returns a canonical algebraic form that reparses to an equal
// expression. Powers print as **.
func (e *Expr) String() string {
	var b strings.Builder
	writeNode(&b, e.root, 0)
	return b.String()
}

func writeNode(b *strings.Builder, n node, parent int) {
	switch t := n.(type) {
	case numNode:
		b.WriteString(strconv.FormatFloat(t.val, 'g', -1, 64))
	case symNode:
		b.WriteString(t.name)
	case unaryNode:
		wrap := parent >= 1
		if wrap {
			b.WriteByte('(')
		}
		b.WriteByte('-')
		writeNode(b, t.x, 2)
		if wrap {
			b.WriteByte(')')
		}
	case binNode:
		p := prec(t.op)
		wrap := p < parent
		if wrap {
			b.WriteByte('(')
		}
		// right-associative power wraps an equal-precedence left child;
		// left-associative - and / wrap an equal-precedence right child
		lp, rp := p, p
		switch t.op {
		case '^':
			lp = p + 1
		case '-', '/':
			rp = p + 1
		}
		writeNode(b, t.l, lp)
		if t.op == '^' {
			b.WriteString("**")
		} else {
			b.WriteByte(t.op)
		}
		writeNode(b, t.r, rp)
		if wrap {
			b.WriteByte(')')
		}
	case callNode:
		b.WriteString(t.fn)
		b.WriteByte('(')
		for i, a := range t.args {
			if i > 0 {
				b.WriteString(", ")
			}
			writeNode(b, a, 0)
		}
		b.WriteByte(')')
	}
}

// MarshalJSON encodes the expression as its canonical string.
func (e *Expr) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(e.String())), nil
}

// UnmarshalJSON decodes an expression from its string form.
func (e *Expr) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	e.root = parsed.root
	return nil
}
