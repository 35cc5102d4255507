package symexpr

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrParse indicates that rate-law text is not valid algebraic syntax.
var ErrParse = errors.New("symexpr: invalid expression")

// ParseError reports where parsing failed in the input text.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("symexpr: parse error at offset %d: %s", e.Pos, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp    // + - * /
	tokPower // ^ or **
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
	pos  int
	val  float64
}

type lexer struct {
	input string
	pos   int
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}
	start := l.pos
	c := l.input[l.pos]
	switch {
	case c >= '0' && c <= '9' || c == '.':
		return l.lexNumber()
	case isIdentStart(c):
		for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, text: l.input[start:l.pos], pos: start}, nil
	case c == '*':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '*' {
			l.pos++
			return token{kind: tokPower, text: "**", pos: start}, nil
		}
		return token{kind: tokOp, text: "*", pos: start}, nil
	case c == '^':
		l.pos++
		return token{kind: tokPower, text: "^", pos: start}, nil
	case c == '+' || c == '-' || c == '/':
		l.pos++
		return token{kind: tokOp, text: string(c), pos: start}, nil
	case c == '(':
		l.pos++
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case c == ')':
		l.pos++
		return token{kind: tokRParen, text: ")", pos: start}, nil
	case c == ',':
		l.pos++
		return token{kind: tokComma, text: ",", pos: start}, nil
	}
	return token{}, &ParseError{Pos: start, Msg: fmt.Sprintf("unexpected character %q", c)}
}

func (l *lexer) lexNumber() (token, error) {
	start := l.pos
	seenDot := false
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c >= '0' && c <= '9' {
			l.pos++
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			l.pos++
			continue
		}
		if (c == 'e' || c == 'E') && l.pos+1 < len(l.input) {
			next := l.input[l.pos+1]
			if next >= '0' && next <= '9' {
				l.pos += 2
				continue
			}
			if (next == '+' || next == '-') && l.pos+2 < len(l.input) &&
				l.input[l.pos+2] >= '0' && l.input[l.pos+2] <= '9' {
				l.pos += 3
				continue
			}
		}
		break
	}
	text := l.input[start:l.pos]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, &ParseError{Pos: start, Msg: fmt.Sprintf("bad number %q", text)}
	}
	return token{kind: tokNumber, text: text, pos: start, val: v}, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

type parser struct {
	lex lexer
	cur token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

// Parse turns algebraic text into an expression. Powers may be written
// as ^ or **; both bind tighter than multiplication and associate to
// the right.
func Parse(input string) (*Expr, error) {
	p := &parser{lex: lexer{input: input}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	n, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, &ParseError{Pos: p.cur.pos, Msg: fmt.Sprintf("unexpected %q", p.cur.text)}
	}
	return &Expr{root: n}, nil
}

// MustParse is a test and table-literal helper; it panics on bad input.
func MustParse(input string) *Expr {
	e, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return e
}

func bindingPower(t token) int {
	switch t.kind {
	case tokOp:
		switch t.text {
		case "+", "-":
			return 10
		case "*", "/":
			return 20
		}
	case tokPower:
		return 30
	}
	return 0
}

func (p *parser) parseBinary(minBP int) (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		bp := bindingPower(p.cur)
		if bp == 0 || bp <= minBP {
			return left, nil
		}
		op := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		// power is right-associative
		rbp := bp
		if op.kind == tokPower {
			rbp = bp - 1
		}
		right, err := p.parseBinary(rbp)
		if err != nil {
			return nil, err
		}
		opByte := op.text[0]
		if op.kind == tokPower {
			opByte = '^'
		}
		left = binNode{op: opByte, l: left, r: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	if p.cur.kind == tokOp && p.cur.text == "-" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		// unary minus binds tighter than * but looser than ^
		x, err := p.parseBinary(25)
		if err != nil {
			return nil, err
		}
		return unaryNode{x: x}, nil
	}
	if p.cur.kind == tokOp && p.cur.text == "+" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseUnary()
	}
	return p.parseAtom()
}

func (p *parser) parseAtom() (node, error) {
	switch p.cur.kind {
	case tokNumber:
		n := numNode{val: p.cur.val}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return n, nil
	case tokIdent:
		name := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind != tokLParen {
			return symNode{name: name}, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		var args []node
		if p.cur.kind != tokRParen {
			for {
				arg, err := p.parseBinary(0)
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.cur.kind != tokComma {
					break
				}
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
		}
		if p.cur.kind != tokRParen {
			return nil, &ParseError{Pos: p.cur.pos, Msg: "expected closing parenthesis"}
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return callNode{fn: name, args: args}, nil
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		n, err := p.parseBinary(0)
		if err != nil {
			return nil, err
		}
		if p.cur.kind != tokRParen {
			return nil, &ParseError{Pos: p.cur.pos, Msg: "expected closing parenthesis"}
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return n, nil
	case tokEOF:
		return nil, &ParseError{Pos: p.cur.pos, Msg: "unexpected end of expression"}
	}
	return nil, &ParseError{Pos: p.cur.pos, Msg: fmt.Sprintf("unexpected %q", p.cur.text)}
}
