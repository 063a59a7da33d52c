package theory

import (
	"strings"

	"github.com/tr00/eqsat-mod-ac-sub000/ids"
	"github.com/tr00/eqsat-mod-ac-sub000/internal/symtab"
)

// Expr is a user-facing expression tree: either a pattern variable (a bare
// Symbol) or an operator application (a Symbol plus ordered children).
// Expressions are immutable once built; construct them with Variable or
// Operator.
//
// Pattern variables may appear only in a rewrite rule's LHS/RHS -- the
// e-graph's AddExpr rejects them.
type Expr struct {
	symbol     ids.Symbol
	children   []*Expr
	isVariable bool
}

// Variable returns a pattern-variable expression for sym.
func Variable(sym ids.Symbol) *Expr {
	return &Expr{symbol: sym, isVariable: true}
}

// Operator returns an operator-application expression. children may be
// empty (a nullary application).
func Operator(sym ids.Symbol, children ...*Expr) *Expr {
	return &Expr{symbol: sym, children: children}
}

// Symbol returns the expression's operator or variable symbol.
func (e *Expr) Symbol() ids.Symbol {
	return e.symbol
}

// Children returns the expression's ordered children (nil for a variable or
// a nullary operator).
func (e *Expr) Children() []*Expr {
	return e.children
}

// IsVariable reports whether e is a pattern variable.
func (e *Expr) IsVariable() bool {
	return e.isVariable
}

// IsOperator reports whether e is an operator application.
func (e *Expr) IsOperator() bool {
	return !e.isVariable
}

// String renders e as an S-expression, using symbols for operator/variable
// names. Variables are printed with a leading '?', matching the input
// grammar the parser accepts.
func (e *Expr) String(symbols *symtab.Table) string {
	var b strings.Builder
	e.write(&b, symbols)
	return b.String()
}

func (e *Expr) write(b *strings.Builder, symbols *symtab.Table) {
	if e.isVariable {
		b.WriteByte('?')
		b.WriteString(symbols.String(e.symbol))
		return
	}
	b.WriteByte('(')
	b.WriteString(symbols.String(e.symbol))
	for _, child := range e.children {
		b.WriteByte(' ')
		child.write(b, symbols)
	}
	b.WriteByte(')')
}

// IsLinear reports whether e is a linear pattern: no pattern variable
// appears more than once as a *direct* child of any single operator node.
// Nested re-occurrences are fine -- (mul ?x (inv ?x)) is linear because the
// second ?x is nested inside inv, not a direct child of mul.
func (e *Expr) IsLinear() bool {
	return checkLinear(e)
}

func checkLinear(e *Expr) bool {
	if e.isVariable {
		return true
	}

	directVarCounts := make(map[ids.Symbol]int)
	for _, child := range e.children {
		if child.isVariable {
			directVarCounts[child.symbol]++
			if directVarCounts[child.symbol] > 1 {
				return false
			}
		}
	}

	for _, child := range e.children {
		if !checkLinear(child) {
			return false
		}
	}

	return true
}
