// Package theory describes the operators and rewrite rules of an equational
// theory: which symbols are associative-commutative, their arities, and the
// rules a saturation run should apply. It is the user-facing configuration
// surface that sits above the e-graph engine.
package theory

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/tr00/eqsat-mod-ac-sub000/ids"
	"github.com/tr00/eqsat-mod-ac-sub000/internal/symtab"
)

// Signature records the declared arity of every operator symbol. An operator
// declared with arity ids.AC is associative-commutative and accepts any
// number of children, zero included; any other arity is a fixed, exact
// operand count.
type Signature struct {
	arities map[ids.Symbol]ids.Arity
}

func newSignature() *Signature {
	return &Signature{arities: make(map[ids.Symbol]ids.Arity)}
}

// Declare registers sym with the given arity. Redeclaring a symbol with a
// different arity is an error -- the signature, once fixed for a symbol,
// never changes.
func (s *Signature) Declare(sym ids.Symbol, arity ids.Arity) error {
	if existing, ok := s.arities[sym]; ok {
		if existing != arity {
			return errors.Errorf("theory: symbol %d redeclared with arity %d, previously %d", sym, arity, existing)
		}
		return nil
	}
	s.arities[sym] = arity
	return nil
}

// Arity returns the declared arity of sym and whether sym is declared at
// all.
func (s *Signature) Arity(sym ids.Symbol) (ids.Arity, bool) {
	a, ok := s.arities[sym]
	return a, ok
}

// IsAC reports whether sym is declared associative-commutative.
func (s *Signature) IsAC(sym ids.Symbol) bool {
	a, ok := s.arities[sym]
	return ok && a.IsAC()
}

// CheckArity validates that n children is an acceptable argument count for
// sym's declared arity: sym must be declared, and n must equal the declared
// fixed arity exactly. An AC operator is variadic, so any n >= 0 is
// accepted for it.
func (s *Signature) CheckArity(symbols *symtab.Table, sym ids.Symbol, n int) error {
	arity, ok := s.arities[sym]
	if !ok {
		return errors.Errorf("undeclared operator %q", symbols.String(sym))
	}
	if arity.IsAC() {
		return nil
	}
	if int(arity) != n {
		return errors.Errorf("operator %q declared with arity %d, applied to %d argument(s)", symbols.String(sym), int(arity), n)
	}
	return nil
}

// ForEach calls f once for every declared operator, in no particular order.
func (s *Signature) ForEach(f func(sym ids.Symbol, arity ids.Arity)) {
	for sym, arity := range s.arities {
		f(sym, arity)
	}
}

// RewriteRule is a single directed rewrite: whenever LHS matches (modulo the
// theory's AC operators), RHS's substitution instance is unified with the
// match root. Name is used only for diagnostics and dumps.
type RewriteRule struct {
	Name string
	LHS  *Expr
	RHS  *Expr
}

// Theory is a mutable collection of operator declarations and rewrite rules,
// together with the symbol table backing their names.
type Theory struct {
	Symbols   *symtab.Table
	signature *Signature
	rules     []*RewriteRule
}

// New returns an empty theory with a fresh symbol table.
func New() *Theory {
	return &Theory{
		Symbols:   symtab.New(),
		signature: newSignature(),
	}
}

// Signature exposes the theory's operator arities, e.g. for the compiler and
// parser.
func (t *Theory) Signature() *Signature {
	return t.signature
}

// CheckArity validates that n children is an acceptable argument count for
// sym, per Signature.CheckArity, resolving sym's printable name for the
// error message from the theory's own symbol table. Used both by rule
// pattern validation (validateExpr) and by the e-graph's AddExpr/AddENode,
// so a malformed ground term application is rejected the same way a
// malformed rule pattern is.
func (t *Theory) CheckArity(sym ids.Symbol, n int) error {
	return t.signature.CheckArity(t.Symbols, sym, n)
}

// Rules returns the rewrite rules added so far, in insertion order.
func (t *Theory) Rules() []*RewriteRule {
	return t.rules
}

// AddOperator interns name and declares it as a fixed-arity operator.
// Arity must be non-negative; use AddACOperator for associative-commutative
// operators.
func (t *Theory) AddOperator(name string, arity int) (ids.Symbol, error) {
	if arity < 0 {
		return 0, errors.Errorf("theory: AddOperator %q: arity must be non-negative, got %d", name, arity)
	}
	sym := t.Symbols.Intern(name)
	if err := t.signature.Declare(sym, ids.Arity(arity)); err != nil {
		return 0, errors.WithMessagef(err, "theory: AddOperator %q", name)
	}
	return sym, nil
}

// AddACOperator interns name and declares it associative-commutative.
func (t *Theory) AddACOperator(name string) (ids.Symbol, error) {
	sym := t.Symbols.Intern(name)
	if err := t.signature.Declare(sym, ids.AC); err != nil {
		return 0, errors.WithMessagef(err, "theory: AddACOperator %q", name)
	}
	return sym, nil
}

// AddOpaqueOperator mints a fresh nullary operator with no printable name,
// used for generated fresh constants (e.g. the endomorphism benchmark's
// free generators).
func (t *Theory) AddOpaqueOperator() ids.Symbol {
	sym := t.Symbols.CreateOpaque()
	// Declare should never fail for a freshly-minted symbol.
	_ = t.signature.Declare(sym, 0)
	return sym
}

// OperatorSpec describes one operator to declare in a batch AddOperators
// call: either a fixed Arity (AC false) or, when AC is true, an
// associative-commutative operator (Arity is ignored).
type OperatorSpec struct {
	Name  string
	Arity int
	AC    bool
}

// AddOperators declares every spec in one batch, continuing past individual
// failures (e.g. a conflicting redeclaration) so a caller configuring a
// whole signature at once -- the CLI harnesses under cmd/eqsat, or a test
// table -- sees every problem in one error rather than only the first.
// Returns nil if every spec declared cleanly.
func (t *Theory) AddOperators(specs ...OperatorSpec) error {
	var result *multierror.Error
	for _, spec := range specs {
		var err error
		if spec.AC {
			_, err = t.AddACOperator(spec.Name)
		} else {
			_, err = t.AddOperator(spec.Name, spec.Arity)
		}
		if err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// AddRewriteRule validates and registers a rewrite rule.
//
// Validation enforces the compiler's preconditions up front:
//   - lhs must be an operator application, not a bare pattern variable (a
//     rule whose LHS is a single variable would match everything);
//   - lhs must be linear: no pattern variable may occur twice as a direct
//     child of the same operator node (nested re-occurrence is fine);
//   - every pattern variable appearing in rhs must also appear somewhere in
//     lhs -- a rule may not introduce a free variable on its right side;
//   - every operator symbol used in lhs or rhs must be declared, and every
//     application's child count must match its operator's declared arity
//     (an AC operator's arity is variadic >= 0, so any child count is
//     accepted).
func (t *Theory) AddRewriteRule(name string, lhs, rhs *Expr) error {
	if lhs.IsVariable() {
		return errors.Errorf("theory: rule %q: LHS must be an operator application, not a bare variable", name)
	}
	if !lhs.IsLinear() {
		return errors.Errorf("theory: rule %q: LHS is non-linear (a pattern variable repeats as a direct child of one operator)", name)
	}
	if err := t.validateExpr(lhs); err != nil {
		return errors.WithMessagef(err, "theory: rule %q: LHS", name)
	}
	if err := t.validateExpr(rhs); err != nil {
		return errors.WithMessagef(err, "theory: rule %q: RHS", name)
	}

	lhsVars := make(map[ids.Symbol]struct{})
	collectVariables(lhs, lhsVars)
	rhsVars := make(map[ids.Symbol]struct{})
	collectVariables(rhs, rhsVars)
	for v := range rhsVars {
		if _, ok := lhsVars[v]; !ok {
			return errors.Errorf("theory: rule %q: RHS variable %q does not appear in LHS", name, t.Symbols.String(v))
		}
	}

	t.rules = append(t.rules, &RewriteRule{Name: name, LHS: lhs, RHS: rhs})
	return nil
}

func (t *Theory) validateExpr(e *Expr) error {
	if e.IsVariable() {
		return nil
	}
	if err := t.CheckArity(e.Symbol(), len(e.Children())); err != nil {
		return err
	}
	for _, child := range e.Children() {
		if err := t.validateExpr(child); err != nil {
			return err
		}
	}
	return nil
}

func collectVariables(e *Expr, out map[ids.Symbol]struct{}) {
	if e.IsVariable() {
		out[e.Symbol()] = struct{}{}
		return
	}
	for _, child := range e.Children() {
		collectVariables(child, out)
	}
}

// Describe returns a short human-readable summary: the number of declared
// operators and of registered rules.
func (t *Theory) Describe() string {
	return fmt.Sprintf("theory: %d operator(s), %d rule(s)", len(t.signature.arities), len(t.rules))
}
