package compiler

import (
	"github.com/tr00/eqsat-mod-ac-sub000/ids"
	"github.com/tr00/eqsat-mod-ac-sub000/theory"
)

// Compiler turns theory.RewriteRules into Query/Subst pairs. Each call to
// Compile uses a fresh, independent variable numbering -- variables are
// never shared across rules.
type Compiler struct {
	th *theory.Theory
}

// New returns a Compiler for th.
func New(th *theory.Theory) *Compiler {
	return &Compiler{th: th}
}

// Compiled is one rewrite rule's compiled form: the query its LHS pattern
// becomes, and the substitution template for instantiating its RHS against
// a match's bindings.
type Compiled struct {
	Rule  *theory.RewriteRule
	Query *Query
	RHS   *Subst
	// NumVars is the total number of query variables Query.Constraints
	// range over (including the AC term-id slots, which never appear in
	// Query.Head), for sizing the match engine's per-variable state.
	NumVars int
}

type buildState struct {
	th      *theory.Theory
	env     map[ids.Symbol]Var
	query   *Query
	nextVar Var
}

// compileExpr implements the post-order variable numbering scheme: a
// pattern variable gets (or reuses) a dense id the first time it's seen; an
// operator application first allocates a term-id slot if it's AC, then
// recursively compiles every child (minting their variables before its
// own), then allocates its own e-class variable last, and registers one
// Constraint tying them together.
func (s *buildState) compileExpr(e *theory.Expr) Var {
	if e.IsVariable() {
		if v, ok := s.env[e.Symbol()]; ok {
			return v
		}
		v := s.nextVar
		s.nextVar++
		s.env[e.Symbol()] = v
		s.query.Head = append(s.query.Head, v)
		return v
	}

	op := e.Symbol()
	isAC := s.th.Signature().IsAC(op)

	var vars []Var
	if isAC {
		termVar := s.nextVar
		s.nextVar++
		vars = append(vars, termVar)
	}
	for _, child := range e.Children() {
		vars = append(vars, s.compileExpr(child))
	}
	eclassVar := s.nextVar
	s.nextVar++
	vars = append(vars, eclassVar)

	s.query.Constraints = append(s.query.Constraints, Constraint{Op: op, Vars: vars, IsAC: isAC})
	return eclassVar
}

// buildSubst translates rhs into a Subst template, resolving each pattern
// variable to the dense index denseIndex assigns its LHS query variable --
// i.e. its position within the match engine's reported Head binding.
func buildSubst(th *theory.Theory, env map[ids.Symbol]Var, denseIndex map[Var]int, rhs *theory.Expr) *Subst {
	if rhs.IsVariable() {
		qvar := env[rhs.Symbol()]
		return &Subst{isVariable: true, varIndex: denseIndex[qvar]}
	}
	children := make([]*Subst, len(rhs.Children()))
	for i, c := range rhs.Children() {
		children[i] = buildSubst(th, env, denseIndex, c)
	}
	return &Subst{op: rhs.Symbol(), children: children}
}

// Compile compiles a single rewrite rule.
func (c *Compiler) Compile(rule *theory.RewriteRule) *Compiled {
	st := &buildState{
		th:    c.th,
		env:   make(map[ids.Symbol]Var),
		query: &Query{},
	}
	root := st.compileExpr(rule.LHS)
	st.query.Head = append(st.query.Head, root)

	denseIndex := make(map[Var]int, len(st.query.Head))
	for i, v := range st.query.Head {
		denseIndex[v] = i
	}

	rhs := buildSubst(c.th, st.env, denseIndex, rule.RHS)

	return &Compiled{
		Rule:    rule,
		Query:   st.query,
		RHS:     rhs,
		NumVars: int(st.nextVar),
	}
}

// CompileMany compiles every rule, each with its own independent variable
// space.
func (c *Compiler) CompileMany(rules []*theory.RewriteRule) []*Compiled {
	out := make([]*Compiled, len(rules))
	for i, rule := range rules {
		out[i] = c.Compile(rule)
	}
	return out
}
