// Package latex parses LaTeX math into symbolic expression trees.
//
// The grammar covers the notation that turns up in formula comparison: sums,
// products (explicit and implicit), fractions, powers, roots, named functions,
// big operators (\sum, \prod, \int, \lim), relations and delimiters. Purely
// typographic commands are dropped during tokenizing.
package latex

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/latexsim/latex-similarity/internal/core/domain"
)

const (
	DefaultMaxDepth  = 200
	DefaultMaxLength = 8192
)

type Options struct {
	MaxDepth  int
	MaxLength int
}

type Parser struct {
	catalog   *Catalog
	maxDepth  int
	maxLength int
}

func NewParser(catalog *Catalog, opts Options) *Parser {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}
	return &Parser{
		catalog:   catalog,
		maxDepth:  opts.MaxDepth,
		maxLength: opts.MaxLength,
	}
}

// Parse returns the symbolic tree of src, or a *SyntaxError / *ValueError.
func (p *Parser) Parse(src string) (*domain.Node, error) {
	if n := utf8.RuneCountInString(src); n > p.maxLength {
		return nil, &ValueError{Pos: p.maxLength, Msg: fmt.Sprintf("input exceeds %d characters", p.maxLength)}
	}

	toks, err := p.catalog.tokenize(p.catalog.normalizeInput(src))
	if err != nil {
		return nil, err
	}
	if toks[0].kind == tokEOF {
		return nil, &SyntaxError{Pos: 0, Msg: "empty expression"}
	}

	s := &state{cat: p.catalog, toks: toks, maxDepth: p.maxDepth}
	tree, err := s.parseList(isEOF)
	if err != nil {
		return nil, err
	}
	if !s.at(tokEOF) {
		return nil, s.unexpected()
	}
	return tree, nil
}

type state struct {
	cat      *Catalog
	toks     []token
	i        int
	depth    int
	maxDepth int
	integral int
	limit    int
	abs      int
}

func isEOF(t token) bool { return t.kind == tokEOF }

func (s *state) peek() token { return s.toks[s.i] }

func (s *state) peekAt(offset int) token {
	if s.i+offset >= len(s.toks) {
		return s.toks[len(s.toks)-1]
	}
	return s.toks[s.i+offset]
}

func (s *state) next() token {
	t := s.toks[s.i]
	if t.kind != tokEOF {
		s.i++
	}
	return t
}

func (s *state) at(kind tokenKind) bool { return s.peek().kind == kind }

func (s *state) atChar(c string) bool {
	t := s.peek()
	return t.kind == tokChar && t.text == c
}

func (s *state) atCommand(names ...string) bool {
	t := s.peek()
	if t.kind != tokCommand {
		return false
	}
	for _, n := range names {
		if t.text == n {
			return true
		}
	}
	return false
}

func (s *state) expectChar(c string) error {
	if !s.atChar(c) {
		return s.expected(fmt.Sprintf("%q", c))
	}
	s.next()
	return nil
}

func (s *state) expectCommand(name string) error {
	if !s.atCommand(name) {
		return s.expected(`\` + name)
	}
	s.next()
	return nil
}

func (s *state) unexpected() error {
	t := s.peek()
	if t.kind == tokEOF {
		return &SyntaxError{Pos: t.pos, Msg: "unexpected end of input"}
	}
	return &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %s", t)}
}

func (s *state) expected(what string) error {
	t := s.peek()
	if t.kind == tokEOF {
		return &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected end of input, expected %s", what)}
	}
	return &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("expected %s, found %s", what, t)}
}

func (s *state) enter() error {
	s.depth++
	if s.depth > s.maxDepth {
		return &SyntaxError{Pos: s.peek().pos, Msg: "expression nested too deeply"}
	}
	return nil
}

func (s *state) leave() { s.depth-- }

// parseList reads comma separated relations up to (not including) a token
// matching closer. More than one item yields a tuple.
func (s *state) parseList(closer func(token) bool) (*domain.Node, error) {
	var items []*domain.Node
	for {
		if closer(s.peek()) {
			if len(items) == 0 {
				return nil, &ValueError{Pos: s.peek().pos, Msg: "empty operand"}
			}
			return nil, s.unexpected()
		}
		item, err := s.parseRelation()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if !s.atChar(",") {
			break
		}
		s.next()
	}
	if !closer(s.peek()) {
		return nil, s.unexpected()
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return group("tuple", items...), nil
}

func (s *state) relationOp() (string, bool) {
	t := s.peek()
	switch t.kind {
	case tokChar:
		switch t.text {
		case "=":
			return domain.OpEq, true
		case "<":
			return domain.OpLt, true
		case ">":
			return domain.OpGt, true
		}
	case tokCommand:
		return s.cat.relation(t.text)
	}
	return "", false
}

func (s *state) parseRelation() (*domain.Node, error) {
	lhs, err := s.parseExpr()
	if err != nil {
		return nil, err
	}
	var rels []*domain.Node
	for {
		op, ok := s.relationOp()
		if !ok {
			break
		}
		s.next()
		rhs, err := s.parseExpr()
		if err != nil {
			return nil, err
		}
		rels = append(rels, operator(op, lhs, rhs))
		lhs = rhs
	}
	switch len(rels) {
	case 0:
		return lhs, nil
	case 1:
		return rels[0], nil
	default:
		return group("and", rels...), nil
	}
}

func (s *state) parseExpr() (*domain.Node, error) {
	if err := s.enter(); err != nil {
		return nil, err
	}
	defer s.leave()

	first, err := s.parseTerm()
	if err != nil {
		return nil, err
	}
	terms := []*domain.Node{first}
	for {
		switch {
		case s.atChar("+"):
			s.next()
			t, err := s.parseTerm()
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
		case s.atChar("-"):
			s.next()
			t, err := s.parseTerm()
			if err != nil {
				return nil, err
			}
			terms = append(terms, neg(t))
		case s.atCommand("pm", "mp"):
			op := domain.OpPlusMinus
			if s.next().text == "mp" {
				op = domain.OpMinusPlus
			}
			rhs, err := s.parseTerm()
			if err != nil {
				return nil, err
			}
			terms = []*domain.Node{operator(op, add(terms...), rhs)}
		default:
			return add(terms...), nil
		}
	}
}

func (s *state) parseTerm() (*domain.Node, error) {
	first, err := s.parseUnary()
	if err != nil {
		return nil, err
	}
	factors := []*domain.Node{first}
	for {
		if s.integral > 0 && s.atDifferential() {
			return mul(factors...), nil
		}
		t := s.peek()
		switch {
		case (t.kind == tokChar && t.text == "*") || (t.kind == tokCommand && s.cat.isMultiplication(t.text)):
			s.next()
			f, err := s.parseUnary()
			if err != nil {
				return nil, err
			}
			factors = append(factors, f)
		case (t.kind == tokChar && t.text == "/") || (t.kind == tokCommand && s.cat.isDivision(t.text)):
			s.next()
			f, err := s.parseUnary()
			if err != nil {
				return nil, err
			}
			factors = append(factors, reciprocal(f))
		case s.startsFactor():
			f, err := s.parsePower()
			if err != nil {
				return nil, err
			}
			factors = append(factors, f)
		default:
			return mul(factors...), nil
		}
	}
}

func (s *state) parseUnary() (*domain.Node, error) {
	if err := s.enter(); err != nil {
		return nil, err
	}
	defer s.leave()

	switch {
	case s.atChar("-"):
		s.next()
		n, err := s.parseUnary()
		if err != nil {
			return nil, err
		}
		return neg(n), nil
	case s.atChar("+"):
		s.next()
		return s.parseUnary()
	}
	return s.parsePower()
}

// startsFactor reports whether the current token can begin an implicitly
// multiplied factor.
func (s *state) startsFactor() bool {
	t := s.peek()
	switch t.kind {
	case tokNumber, tokLetter:
		return true
	case tokChar:
		switch t.text {
		case "(", "[", "{":
			return true
		case "|":
			return s.abs == 0
		}
		return false
	case tokCommand:
		return s.commandStartsAtom(t.text)
	}
	return false
}

func (s *state) commandStartsAtom(name string) bool {
	switch name {
	case "frac", "dfrac", "tfrac", "cfrac", "binom", "dbinom", "tbinom",
		"sqrt", "left", "lfloor", "lceil", "{", "sum", "prod", "int", "lim":
		return true
	}
	if _, ok := s.cat.function(name); ok {
		return true
	}
	if _, ok := s.cat.symbol(name); ok {
		return true
	}
	return s.cat.isFont(name)
}

func (s *state) startsFunction() bool {
	t := s.peek()
	if t.kind != tokCommand {
		return false
	}
	if _, ok := s.cat.function(t.text); ok {
		return true
	}
	return t.text == "operatorname"
}

func (s *state) parsePower() (*domain.Node, error) {
	base, err := s.parsePostfix()
	if err != nil {
		return nil, err
	}
	if !s.atChar("^") || (s.limit > 0 && s.atLimitDirection()) {
		return base, nil
	}
	s.next()
	exp, err := s.parseScript()
	if err != nil {
		return nil, err
	}
	if s.atChar("^") {
		return nil, &SyntaxError{Pos: s.peek().pos, Msg: "double superscript"}
	}
	return pow(base, exp), nil
}

func (s *state) parsePostfix() (*domain.Node, error) {
	n, err := s.parseAtom()
	if err != nil {
		return nil, err
	}
	for s.atChar("!") {
		s.next()
		n = function("factorial", n)
	}
	return n, nil
}

// parseScript reads the argument of ^, _ or a brace-less command argument:
// a braced group or a single token. A multi-digit number only yields its first
// digit, as in TeX.
func (s *state) parseScript() (*domain.Node, error) {
	if err := s.enter(); err != nil {
		return nil, err
	}
	defer s.leave()

	t := s.peek()
	switch t.kind {
	case tokChar:
		switch t.text {
		case "{":
			return s.parseBraced()
		case "-":
			s.next()
			n, err := s.parseScript()
			if err != nil {
				return nil, err
			}
			return neg(n), nil
		}
	case tokNumber:
		return number(normalizeNumber(s.takeDigit())), nil
	case tokLetter:
		s.next()
		return symbol(t.text), nil
	case tokCommand:
		if name, ok := s.cat.symbol(t.text); ok {
			s.next()
			return symbol(name), nil
		}
		if s.commandStartsAtom(t.text) {
			return s.parseAtom()
		}
	}
	return nil, s.unexpected()
}

func (s *state) takeDigit() string {
	t := &s.toks[s.i]
	runes := []rune(t.text)
	if len(runes) == 1 || runes[0] == '.' {
		s.i++
		return t.text
	}
	head := string(runes[0])
	t.text = string(runes[1:])
	t.pos++
	return head
}

func (s *state) parseBraced() (*domain.Node, error) {
	if err := s.expectChar("{"); err != nil {
		return nil, err
	}
	n, err := s.parseList(func(t token) bool { return t.kind == tokChar && t.text == "}" })
	if err != nil {
		return nil, err
	}
	return n, s.expectChar("}")
}

func (s *state) parseAtom() (*domain.Node, error) {
	t := s.peek()
	switch t.kind {
	case tokNumber:
		s.next()
		return number(normalizeNumber(t.text)), nil
	case tokLetter:
		return s.parseSymbol()
	case tokCommand:
		return s.parseCommand()
	case tokChar:
		switch t.text {
		case "(":
			return s.parseEnclosed("(", ")")
		case "[":
			return s.parseEnclosed("[", "]")
		case "{":
			return s.parseBraced()
		case "|":
			if s.abs > 0 {
				break
			}
			s.abs++
			s.next()
			n, err := s.parseList(func(t token) bool { return t.kind == tokChar && t.text == "|" })
			s.abs--
			if err != nil {
				return nil, err
			}
			if err := s.expectChar("|"); err != nil {
				return nil, err
			}
			return function("Abs", n), nil
		}
	}
	return nil, s.unexpected()
}

func (s *state) parseEnclosed(open, close string) (*domain.Node, error) {
	if err := s.expectChar(open); err != nil {
		return nil, err
	}
	saved := s.abs
	s.abs = 0
	n, err := s.parseList(func(t token) bool { return t.kind == tokChar && t.text == close })
	s.abs = saved
	if err != nil {
		return nil, err
	}
	return n, s.expectChar(close)
}

var functionLetters = map[string]bool{"f": true, "g": true, "h": true}

func (s *state) parseSymbol() (*domain.Node, error) {
	name := s.next().text
	for s.atChar("'") {
		s.next()
		name += "'"
	}
	name, err := s.withSubscript(name)
	if err != nil {
		return nil, err
	}
	if functionLetters[strings.TrimRight(name, "'")] && s.atChar("(") {
		args, err := s.parseArgs()
		if err != nil {
			return nil, err
		}
		return function(name, args...), nil
	}
	return symbol(name), nil
}

// withSubscript folds a trailing _x or _{...} into the symbol name so that
// x_1 and x_{1} name the same symbol.
func (s *state) withSubscript(name string) (string, error) {
	if !s.atChar("_") {
		return name, nil
	}
	s.next()
	sub, err := s.parseScript()
	if err != nil {
		return "", err
	}
	return name + "_{" + sub.String() + "}", nil
}

func (s *state) parseCommand() (*domain.Node, error) {
	t := s.peek()
	switch t.text {
	case "frac", "dfrac", "tfrac", "cfrac":
		return s.parseFrac()
	case "binom", "dbinom", "tbinom":
		s.next()
		n, err := s.parseScript()
		if err != nil {
			return nil, err
		}
		k, err := s.parseScript()
		if err != nil {
			return nil, err
		}
		return function("binomial", n, k), nil
	case "sqrt":
		return s.parseSqrt()
	case "left":
		return s.parseLeftRight()
	case "lfloor", "lceil":
		s.next()
		closer, name := "rfloor", "floor"
		if t.text == "lceil" {
			closer, name = "rceil", "ceiling"
		}
		n, err := s.parseList(func(t token) bool { return t.kind == tokCommand && t.text == closer })
		if err != nil {
			return nil, err
		}
		if err := s.expectCommand(closer); err != nil {
			return nil, err
		}
		return function(name, n), nil
	case "{":
		s.next()
		n, err := s.parseList(func(t token) bool { return t.kind == tokCommand && t.text == "}" })
		if err != nil {
			return nil, err
		}
		if err := s.expectCommand("}"); err != nil {
			return nil, err
		}
		return asSet(n), nil
	case "sum", "prod":
		return s.parseBigOperator()
	case "int":
		return s.parseIntegral()
	case "lim":
		return s.parseLimit()
	case "operatorname":
		s.next()
		name, err := s.nameArgument()
		if err != nil {
			return nil, err
		}
		return s.parseFunctionTail(name, name)
	}

	if name, ok := s.cat.function(t.text); ok {
		s.next()
		return s.parseFunctionTail(name, t.text)
	}
	if name, ok := s.cat.symbol(t.text); ok {
		s.next()
		name, err := s.withSubscript(name)
		if err != nil {
			return nil, err
		}
		return symbol(name), nil
	}
	if s.cat.isFont(t.text) {
		s.next()
		name, err := s.nameArgument()
		if err != nil {
			return nil, err
		}
		name, err = s.withSubscript(name)
		if err != nil {
			return nil, err
		}
		return symbol(name), nil
	}

	if s.cat.isMultiplication(t.text) || s.cat.isDivision(t.text) || t.text == "right" {
		return nil, s.unexpected()
	}
	if _, ok := s.cat.relation(t.text); ok {
		return nil, s.unexpected()
	}
	return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf(`unsupported command \%s`, t.text)}
}

// asSet orders set elements the way commutative operands are ordered.
func asSet(n *domain.Node) *domain.Node {
	if n.Kind != domain.KindGroup || n.Value != "tuple" {
		return group("set", n)
	}
	items := slices.Clone(n.Operands)
	sortOperands(items)
	return group("set", items...)
}

// nameArgument reads the letters of a font or \operatorname argument.
func (s *state) nameArgument() (string, error) {
	if !s.atChar("{") {
		t := s.peek()
		if t.kind == tokLetter || t.kind == tokNumber {
			s.next()
			return t.text, nil
		}
		return "", s.expected("{")
	}
	open := s.next()
	var name string
	for !s.atChar("}") {
		t := s.next()
		switch t.kind {
		case tokLetter, tokNumber:
			name += t.text
		case tokEOF:
			return "", &SyntaxError{Pos: t.pos, Msg: "unexpected end of input, expected \"}\""}
		default:
			return "", &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %s in name", t)}
		}
	}
	s.next()
	if name == "" {
		return "", &ValueError{Pos: open.pos, Msg: "empty operand"}
	}
	return name, nil
}

func (s *state) parseFrac() (*domain.Node, error) {
	s.next()
	num, err := s.parseScript()
	if err != nil {
		return nil, err
	}
	den, err := s.parseScript()
	if err != nil {
		return nil, err
	}
	if v, ok := leibnizVariable(num, den); ok && s.startsFactor() {
		body, err := s.parsePower()
		if err != nil {
			return nil, err
		}
		return function("Derivative", body, symbol(v)), nil
	}
	return mul(num, reciprocal(den)), nil
}

// leibnizVariable recognises d/dx written as \frac{d}{dx}.
func leibnizVariable(num, den *domain.Node) (string, bool) {
	if num.Kind != domain.KindSymbol || num.Value != "d" {
		return "", false
	}
	if den.Kind != domain.KindOperator || den.Value != domain.OpMul || len(den.Operands) != 2 {
		return "", false
	}
	a, b := den.Operands[0], den.Operands[1]
	if a.Kind != domain.KindSymbol || b.Kind != domain.KindSymbol {
		return "", false
	}
	switch {
	case a.Value == "d":
		return b.Value, true
	case b.Value == "d":
		return a.Value, true
	}
	return "", false
}

func (s *state) parseSqrt() (*domain.Node, error) {
	s.next()
	var index *domain.Node
	if s.atChar("[") {
		var err error
		if index, err = s.parseEnclosed("[", "]"); err != nil {
			return nil, err
		}
	}
	radicand, err := s.parseScript()
	if err != nil {
		return nil, err
	}
	if index == nil {
		return pow(radicand, number("1/2")), nil
	}
	return pow(radicand, reciprocal(index)), nil
}

var rightFor = map[string]string{"(": ")", "[": "]", "|": "|", "{": "}", ".": "."}

func (s *state) parseLeftRight() (*domain.Node, error) {
	s.next()
	open := s.next()
	switch open.kind {
	case tokChar, tokCommand:
	default:
		return nil, &SyntaxError{Pos: open.pos, Msg: fmt.Sprintf(`missing delimiter after \left, found %s`, open)}
	}

	saved := s.abs
	s.abs = 0
	inner, err := s.parseList(func(t token) bool { return t.kind == tokCommand && t.text == "right" })
	s.abs = saved
	if err != nil {
		return nil, err
	}
	if err := s.expectCommand("right"); err != nil {
		return nil, err
	}
	closeTok := s.next()
	if closeTok.kind != tokChar && closeTok.kind != tokCommand {
		return nil, &SyntaxError{Pos: closeTok.pos, Msg: fmt.Sprintf(`missing delimiter after \right, found %s`, closeTok)}
	}

	switch open.text {
	case "|", "lvert", "vert":
		return function("Abs", inner), nil
	case "lfloor":
		return function("floor", inner), nil
	case "lceil":
		return function("ceiling", inner), nil
	case "{":
		if open.kind == tokCommand {
			return asSet(inner), nil
		}
	}
	return inner, nil
}

// scripts reads optional _ and ^ limits in either order.
func (s *state) scripts() (lower, upper *domain.Node, err error) {
	for i := 0; i < 2; i++ {
		switch {
		case s.atChar("_") && lower == nil:
			s.next()
			if lower, err = s.parseScript(); err != nil {
				return nil, nil, err
			}
		case s.atChar("^") && upper == nil:
			s.next()
			if upper, err = s.parseScript(); err != nil {
				return nil, nil, err
			}
		}
	}
	return lower, upper, nil
}

func (s *state) parseBigOperator() (*domain.Node, error) {
	name := "Sum"
	if s.next().text == "prod" {
		name = "Product"
	}
	lower, upper, err := s.scripts()
	if err != nil {
		return nil, err
	}
	body, err := s.parseTerm()
	if err != nil {
		return nil, err
	}

	args := []*domain.Node{body}
	if lower != nil {
		if lower.Kind == domain.KindOperator && lower.Value == domain.OpEq {
			args = append(args, lower.Operands[0], lower.Operands[1])
		} else {
			args = append(args, lower)
		}
	}
	if upper != nil {
		args = append(args, upper)
	}
	return function(name, args...), nil
}

func (s *state) parseIntegral() (*domain.Node, error) {
	s.next()
	lower, upper, err := s.scripts()
	if err != nil {
		return nil, err
	}

	s.integral++
	body := number("1")
	if !s.atDifferential() {
		body, err = s.parseExpr()
	}
	s.integral--
	if err != nil {
		return nil, err
	}

	args := []*domain.Node{body}
	if s.atDifferential() {
		args = append(args, s.takeDifferential())
	}
	if lower != nil {
		args = append(args, lower)
	}
	if upper != nil {
		args = append(args, upper)
	}
	return function("Integral", args...), nil
}

// atDifferential reports whether the input continues with dx or \mathrm{d}x.
func (s *state) atDifferential() bool {
	t := s.peek()
	if t.kind == tokLetter && t.text == "d" {
		return s.peekAt(1).kind == tokLetter
	}
	if t.kind == tokCommand && s.cat.isFont(t.text) {
		return s.peekAt(1).text == "{" && s.peekAt(2).text == "d" && s.peekAt(3).text == "}" &&
			s.peekAt(4).kind == tokLetter
	}
	return false
}

func (s *state) takeDifferential() *domain.Node {
	if s.peek().kind == tokCommand {
		s.i += 4
	} else {
		s.i++
	}
	return symbol(s.next().text)
}

func (s *state) parseLimit() (*domain.Node, error) {
	s.next()
	if err := s.expectChar("_"); err != nil {
		return nil, err
	}
	if err := s.expectChar("{"); err != nil {
		return nil, err
	}
	if !s.at(tokLetter) {
		return nil, s.expected("limit variable")
	}
	v, err := s.parseSymbol()
	if err != nil {
		return nil, err
	}
	if !s.atCommand("to", "rightarrow", "longrightarrow") {
		return nil, s.expected(`\to`)
	}
	s.next()
	s.limit++
	target, err := s.parseExpr()
	s.limit--
	if err != nil {
		return nil, err
	}

	args := []*domain.Node{v, target}
	if s.atChar("^") {
		s.next()
		dir, err := s.limitDirection()
		if err != nil {
			return nil, err
		}
		args = append(args, symbol(dir))
	}
	if err := s.expectChar("}"); err != nil {
		return nil, err
	}

	body, err := s.parseTerm()
	if err != nil {
		return nil, err
	}
	return function("Limit", append([]*domain.Node{body}, args...)...), nil
}

// atLimitDirection reports whether the input continues with ^+, ^- or their
// braced forms followed by the closing brace of the limit subscript.
func (s *state) atLimitDirection() bool {
	if !s.atChar("^") {
		return false
	}
	sign := func(t token) bool { return t.kind == tokChar && (t.text == "+" || t.text == "-") }
	brace := func(t token, c string) bool { return t.kind == tokChar && t.text == c }
	if sign(s.peekAt(1)) && brace(s.peekAt(2), "}") {
		return true
	}
	return brace(s.peekAt(1), "{") && sign(s.peekAt(2)) && brace(s.peekAt(3), "}") && brace(s.peekAt(4), "}")
}

func (s *state) limitDirection() (string, error) {
	braced := s.atChar("{")
	if braced {
		s.next()
	}
	if !s.atChar("+") && !s.atChar("-") {
		return "", s.expected("limit direction")
	}
	dir := s.next().text
	if braced {
		if err := s.expectChar("}"); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// parseFunctionTail parses the optional power/base scripts and the argument
// of a named function whose command has already been consumed.
func (s *state) parseFunctionTail(name, command string) (*domain.Node, error) {
	base, power, err := s.scripts()
	if err != nil {
		return nil, err
	}
	if power != nil && power.Kind == domain.KindNumber && power.Value == "-1" {
		if inv, ok := s.cat.Inverses[name]; ok {
			name, power = inv, nil
		}
	}

	args, err := s.functionArgs()
	if err != nil {
		return nil, err
	}
	if name == "log" {
		switch {
		case base != nil:
			args = append(args, base)
		case command == "lg":
			args = append(args, number("10"))
		}
	}

	f := function(name, args...)
	if power != nil {
		return pow(f, power), nil
	}
	return f, nil
}

func (s *state) functionArgs() ([]*domain.Node, error) {
	switch {
	case s.atChar("("):
		return s.parseArgs()
	case s.atCommand("left"):
		n, err := s.parseLeftRight()
		if err != nil {
			return nil, err
		}
		if n.Kind == domain.KindGroup && n.Value == "tuple" {
			return n.Operands, nil
		}
		return []*domain.Node{n}, nil
	case s.atChar("{"):
		n, err := s.parseBraced()
		if err != nil {
			return nil, err
		}
		return []*domain.Node{n}, nil
	}

	// Without parentheses the argument extends over implicitly multiplied
	// factors up to the next operator or function.
	if !s.startsFactor() {
		return nil, s.expected("function argument")
	}
	var factors []*domain.Node
	for s.startsFactor() && !(len(factors) > 0 && s.startsFunction()) {
		if s.integral > 0 && s.atDifferential() {
			break
		}
		f, err := s.parsePower()
		if err != nil {
			return nil, err
		}
		factors = append(factors, f)
	}
	if len(factors) == 0 {
		return nil, s.expected("function argument")
	}
	return []*domain.Node{mul(factors...)}, nil
}

func (s *state) parseArgs() ([]*domain.Node, error) {
	n, err := s.parseEnclosed("(", ")")
	if err != nil {
		return nil, err
	}
	if n.Kind == domain.KindGroup && n.Value == "tuple" {
		return n.Operands, nil
	}
	return []*domain.Node{n}, nil
}
