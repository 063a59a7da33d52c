// Package parser reads the textual S-expression syntax used to describe
// expressions and rewrite-rule patterns and builds theory.Expr trees,
// interning identifiers into a symbol table as it goes.
package parser

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/tr00/eqsat-mod-ac-sub000/internal/symtab"
	"github.com/tr00/eqsat-mod-ac-sub000/theory"
)

type tokenType int

const (
	tokenLParen tokenType = iota
	tokenRParen
	tokenIdentifier
	tokenEOF
)

type token struct {
	kind     tokenType
	value    string
	position int
}

func isIdentifierChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_' || c == '-' || c == '+' || c == '*' || c == '/' || c == '?' || c == '=':
		return true
	}
	return false
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func tokenize(input string) ([]token, error) {
	var out []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case isWhitespace(c):
			i++
		case c == '(':
			out = append(out, token{tokenLParen, "(", i})
			i++
		case c == ')':
			out = append(out, token{tokenRParen, ")", i})
			i++
		case isIdentifierChar(c):
			start := i
			for i < len(input) && isIdentifierChar(input[i]) {
				i++
			}
			out = append(out, token{tokenIdentifier, input[start:i], start})
		default:
			return nil, errors.Errorf("parser: unexpected character %q at position %d", c, i)
		}
	}
	out = append(out, token{tokenEOF, "", len(input)})
	return out, nil
}

// Parser parses S-expressions into theory.Expr trees, interning identifiers
// via symbols.
type Parser struct {
	symbols *symtab.Table
	tokens  []token
	pos     int
}

// New returns a parser that interns identifiers into symbols.
func New(symbols *symtab.Table) *Parser {
	return &Parser{symbols: symbols}
}

func (p *Parser) peek() token {
	return p.tokens[p.pos]
}

func (p *Parser) advance() token {
	t := p.tokens[p.pos]
	if t.kind != tokenEOF {
		p.pos++
	}
	return t
}

func (p *Parser) atEnd() bool {
	return p.peek().kind == tokenEOF
}

// ParseSExpr parses a single S-expression from input and returns its
// theory.Expr tree. An error is returned for empty input, malformed syntax,
// or trailing tokens after a complete expression.
func (p *Parser) ParseSExpr(input string) (*theory.Expr, error) {
	if strings.TrimSpace(input) == "" {
		return nil, errors.New("parser: cannot parse empty input")
	}

	tokens, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	p.tokens = tokens
	p.pos = 0

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if !p.atEnd() {
		return nil, errors.Errorf("parser: unexpected tokens after expression at position %d", p.peek().position)
	}
	return expr, nil
}

func (p *Parser) parseExpr() (*theory.Expr, error) {
	tok := p.peek()

	if tok.kind == tokenIdentifier && strings.HasPrefix(tok.value, "?") {
		p.advance()
		if len(tok.value) == 1 {
			return nil, errors.Errorf("parser: variable name cannot be empty after '?' at position %d", tok.position)
		}
		sym := p.symbols.Intern(tok.value[1:])
		return theory.Variable(sym), nil
	}

	if tok.kind == tokenLParen {
		p.advance()

		opTok := p.peek()
		if opTok.kind != tokenIdentifier {
			return nil, errors.Errorf("parser: expected operator name after '(' at position %d", opTok.position)
		}
		p.advance()
		if strings.HasPrefix(opTok.value, "?") {
			return nil, errors.Errorf("parser: operator name cannot start with '?' at position %d", opTok.position)
		}
		opSym := p.symbols.Intern(opTok.value)

		var children []*theory.Expr
		for p.peek().kind != tokenRParen && !p.atEnd() {
			child, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}

		if p.peek().kind != tokenRParen {
			return nil, errors.Errorf("parser: expected ')' to close expression starting at position %d", tok.position)
		}
		p.advance()

		return theory.Operator(opSym, children...), nil
	}

	if tok.kind == tokenIdentifier {
		return nil, errors.Errorf("parser: unexpected identifier %q at position %d; variables must start with '?', operators must be wrapped in parentheses", tok.value, tok.position)
	}

	return nil, errors.Errorf("parser: unexpected token at position %d", tok.position)
}
