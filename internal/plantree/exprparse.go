package plantree

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokParam
	tokOp
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
	tokDot
	tokCast
)

type token struct {
	kind       tokenKind
	text       string
	start, end int
}

const opChars = "+-*/<>=~!@#%^&|`?"

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		start := i
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
			continue
		case isIdentStart(c):
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			toks = append(toks, token{tokIdent, src[start:i], start, i})
		case c == '"' || c == '\'':
			end, err := scanQuoted(src, i)
			if err != nil {
				return nil, err
			}
			i = end
			kind := tokIdent
			if c == '\'' {
				kind = tokString
			}
			toks = append(toks, token{kind, src[start:i], start, i})
		case c >= '0' && c <= '9':
			for i < len(src) && (src[i] >= '0' && src[i] <= '9' || src[i] == '.' || src[i] == 'e' || src[i] == 'E') {
				i++
			}
			toks = append(toks, token{tokNumber, src[start:i], start, i})
		case c == '$' && i+1 < len(src) && src[i+1] >= '0' && src[i+1] <= '9':
			i++
			for i < len(src) && src[i] >= '0' && src[i] <= '9' {
				i++
			}
			toks = append(toks, token{tokParam, src[start:i], start, i})
		case c == ':' && i+1 < len(src) && src[i+1] == ':':
			i += 2
			toks = append(toks, token{tokCast, "::", start, i})
		case strings.IndexByte(opChars, c) >= 0:
			for i < len(src) && strings.IndexByte(opChars, src[i]) >= 0 {
				i++
			}
			toks = append(toks, token{tokOp, src[start:i], start, i})
		default:
			kind, ok := punctuation[c]
			if !ok {
				return nil, fmt.Errorf("unexpected character %q at offset %d", c, i)
			}
			i++
			toks = append(toks, token{kind, string(c), start, i})
		}
	}
	return append(toks, token{kind: tokEOF, start: len(src), end: len(src)}), nil
}

var punctuation = map[byte]tokenKind{
	'(': tokLParen,
	')': tokRParen,
	'[': tokLBracket,
	']': tokRBracket,
	',': tokComma,
	'.': tokDot,
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '$'
}

// scanQuoted returns the offset just past the quoted run starting at i.
// A doubled quote character is an escaped quote.
func scanQuoted(src string, i int) (int, error) {
	q := src[i]
	for j := i + 1; j < len(src); j++ {
		if src[j] != q {
			continue
		}
		if j+1 < len(src) && src[j+1] == q {
			j++
			continue
		}
		return j + 1, nil
	}
	return 0, fmt.Errorf("unterminated quote at offset %d", i)
}

// scope holds the output lists of a plan node's inputs, used to turn
// references to them into Vars.
type scope struct {
	outer []string
	inner []string
}

func (s scope) lookup(text string) *Var {
	text = strings.TrimSpace(text)
	candidates := []string{text, "(" + text + ")"}
	if stripped, ok := stripParens(text); ok {
		candidates = append(candidates, stripped)
	}
	for _, c := range candidates {
		if i := slices.Index(s.outer, c); i >= 0 {
			return &Var{Varno: OuterVar, Varattno: i + 1, Name: text}
		}
		if i := slices.Index(s.inner, c); i >= 0 {
			return &Var{Varno: InnerVar, Varattno: i + 1, Name: text}
		}
	}
	return nil
}

// stripParens removes one pair of parentheses enclosing all of s.
func stripParens(s string) (string, bool) {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return "", false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return "", false
			}
		}
	}
	return s[1 : len(s)-1], true
}

type parser struct {
	src   string
	toks  []token
	pos   int
	scope scope
}

// ParseExpr parses an expression as EXPLAIN prints it. Text it cannot
// understand comes back as a single Expr leaf.
func ParseExpr(text string) Node {
	return parseInScope(text, scope{})
}

func parseInScope(text string, sc scope) Node {
	if v := sc.lookup(text); v != nil {
		return v
	}
	n, err := parseExpr(text, sc)
	if err != nil {
		return &Expr{Text: text}
	}
	return n
}

func parseExpr(text string, sc scope) (Node, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{src: text, toks: toks, scope: sc}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, p.unexpected()
	}
	return n, nil
}

// parseQual parses a condition into an implicitly ANDed list, the form
// plan quals take. Empty text yields nil.
func parseQual(text string, sc scope) *List {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	n := parseInScope(text, sc)
	if b, ok := n.(*BoolExpr); ok && b.Op == "AND" {
		return NewList(b.Args.Items...)
	}
	return NewList(n)
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) keyword(words ...string) bool {
	t := p.peek()
	if t.kind != tokIdent {
		return false
	}
	for _, w := range words {
		if strings.EqualFold(t.text, w) {
			return true
		}
	}
	return false
}

func (p *parser) expect(kind tokenKind) error {
	if p.peek().kind != kind {
		return p.unexpected()
	}
	p.next()
	return nil
}

func (p *parser) unexpected() error {
	t := p.peek()
	if t.kind == tokEOF {
		return fmt.Errorf("unexpected end of expression %q", p.src)
	}
	return fmt.Errorf("unexpected %q at offset %d in %q", t.text, t.start, p.src)
}

// span returns the source text from token start up to the last consumed
// token.
func (p *parser) span(start int) string {
	if p.pos == 0 || start >= p.pos {
		return ""
	}
	return p.src[p.toks[start].start:p.toks[p.pos-1].end]
}

func (p *parser) parseOr() (Node, error) {
	return p.parseBool("OR", p.parseAnd)
}

func (p *parser) parseAnd() (Node, error) {
	return p.parseBool("AND", p.parseNot)
}

func (p *parser) parseBool(op string, operand func() (Node, error)) (Node, error) {
	first, err := operand()
	if err != nil {
		return nil, err
	}
	if !p.keyword(op) {
		return first, nil
	}
	args := []Node{first}
	for p.keyword(op) {
		p.next()
		n, err := operand()
		if err != nil {
			return nil, err
		}
		args = append(args, n)
	}
	return &BoolExpr{Op: op, Args: NewList(args...)}, nil
}

func (p *parser) parseNot() (Node, error) {
	if p.keyword("NOT") {
		p.next()
		arg, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &BoolExpr{Op: "NOT", Args: NewList(arg)}, nil
	}
	return p.parseComparison()
}

var arithmetic = map[string]int{
	"+": 1, "-": 1, "||": 1,
	"*": 2, "/": 2, "%": 2,
}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseArith(1)
	if err != nil {
		return nil, err
	}

	if p.keyword("IS") {
		p.next()
		isNull := true
		if p.keyword("NOT") {
			p.next()
			isNull = false
		}
		if !p.keyword("NULL") {
			return nil, p.unexpected()
		}
		p.next()
		return &NullTest{Arg: left, IsNull: isNull}, nil
	}

	t := p.peek()
	if t.kind != tokOp {
		return left, nil
	}
	p.next()
	op := t.text
	if p.keyword("ANY", "ALL") {
		op += " " + strings.ToUpper(p.next().text)
	}
	right, err := p.parseArith(1)
	if err != nil {
		return nil, err
	}
	return &OpExpr{Op: op, Args: NewList(left, right)}, nil
}

// parseArith handles binary operators of at least the given precedence.
func (p *parser) parseArith(minPrec int) (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		prec, ok := arithmetic[t.text]
		if t.kind != tokOp || !ok || prec < minPrec {
			return left, nil
		}
		p.next()
		right, err := p.parseArith(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &OpExpr{Op: t.text, Args: NewList(left, right)}
	}
}

func (p *parser) parseUnary() (Node, error) {
	if t := p.peek(); t.kind == tokOp && t.text == "-" {
		p.next()
		arg, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if c, ok := arg.(*Const); ok {
			return &Const{Value: "-" + c.Value}, nil
		}
		return &OpExpr{Op: "-", Args: NewList(arg)}, nil
	}

	start := p.pos
	n, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if v := p.scope.lookup(p.span(start)); v != nil {
		return v, nil
	}
	return n, nil
}

func (p *parser) parsePostfix() (Node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokCast {
		p.next()
		typ, err := p.parseTypeName()
		if err != nil {
			return nil, err
		}
		n = &TypeCast{Arg: n, TypeName: typ}
	}
	return n, nil
}

var (
	stopWords = []string{"AND", "OR", "IS", "NOT", "ANY", "ALL"}

	// unsupported starts constructs that fall back to an Expr leaf.
	unsupported = []string{"AND", "OR", "IS", "NOT", "ANY", "ALL", "CASE", "ARRAY", "ROW", "SubPlan", "InitPlan"}
)

// parseTypeName reads a possibly multi-word type such as
// "timestamp without time zone" or "numeric(10,2)[]".
func (p *parser) parseTypeName() (string, error) {
	if p.peek().kind != tokIdent {
		return "", p.unexpected()
	}
	words := []string{p.next().text}
	for p.peek().kind == tokIdent && !p.keyword(stopWords...) {
		words = append(words, p.next().text)
	}
	name := strings.Join(words, " ")

	if p.peek().kind == tokLParen {
		start := p.pos
		p.next()
		for p.peek().kind == tokNumber || p.peek().kind == tokComma {
			p.next()
		}
		if err := p.expect(tokRParen); err != nil {
			return "", err
		}
		name += p.span(start)
	}
	for p.peek().kind == tokLBracket {
		p.next()
		if err := p.expect(tokRBracket); err != nil {
			return "", err
		}
		name += "[]"
	}
	return name, nil
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.peek()
	switch t.kind {
	case tokNumber, tokString:
		p.next()
		return &Const{Value: t.text}, nil

	case tokParam:
		p.next()
		id, err := strconv.Atoi(t.text[1:])
		if err != nil {
			return nil, fmt.Errorf("parsing parameter %q: %w", t.text, err)
		}
		return &Param{ID: id}, nil

	case tokLParen:
		p.next()
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return n, nil

	case tokIdent:
		if p.keyword("TRUE", "FALSE", "NULL") {
			p.next()
			return &Const{Value: strings.ToLower(t.text)}, nil
		}
		if p.keyword(unsupported...) {
			return nil, p.unexpected()
		}
		return p.parseName()
	}
	return nil, p.unexpected()
}

func (p *parser) parseName() (Node, error) {
	parts := []string{p.next().text}
	for p.peek().kind == tokDot {
		p.next()
		t := p.peek()
		if t.kind != tokIdent && !(t.kind == tokOp && t.text == "*") {
			return nil, p.unexpected()
		}
		parts = append(parts, p.next().text)
	}

	if p.peek().kind != tokLParen {
		last := len(parts) - 1
		return &ColumnRef{Qualifier: strings.Join(parts[:last], "."), Column: parts[last]}, nil
	}

	p.next()
	fn := &FuncExpr{Name: strings.Join(parts, "."), Args: NewList()}
	if t := p.peek(); t.kind == tokOp && t.text == "*" {
		p.next()
		fn.Args.Items = append(fn.Args.Items, &ColumnRef{Column: "*"})
		return fn, p.expect(tokRParen)
	}
	if p.peek().kind == tokRParen {
		p.next()
		return fn, nil
	}
	for {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		fn.Args.Items = append(fn.Args.Items, arg)
		if p.peek().kind != tokComma {
			break
		}
		p.next()
	}
	if err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return fn, nil
}
