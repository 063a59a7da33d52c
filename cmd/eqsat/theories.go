package main

import (
	"github.com/pkg/errors"

	"github.com/tr00/eqsat-mod-ac-sub000/parser"
	"github.com/tr00/eqsat-mod-ac-sub000/theory"
)

// buildGroupsTheory declares the free-group signature (one/0, inv/1,
// mul/AC) and its two rewrite rules.
func buildGroupsTheory() (*theory.Theory, error) {
	th := theory.New()

	// Four nullary generators (v0..v3) give a stdin expression ground atoms
	// to combine.
	if err := th.AddOperators(
		theory.OperatorSpec{Name: "one", Arity: 0},
		theory.OperatorSpec{Name: "inv", Arity: 1},
		theory.OperatorSpec{Name: "mul", AC: true},
		theory.OperatorSpec{Name: "v0", Arity: 0},
		theory.OperatorSpec{Name: "v1", Arity: 0},
		theory.OperatorSpec{Name: "v2", Arity: 0},
		theory.OperatorSpec{Name: "v3", Arity: 0},
	); err != nil {
		return nil, err
	}

	if err := parser.AddRewriteRules(th,
		parser.RuleSpec{Name: "identity", LHS: "(mul ?x (one))", RHS: "?x"},
		parser.RuleSpec{Name: "inverse", LHS: "(mul ?x (inv ?x))", RHS: "(one)"},
	); err != nil {
		return nil, err
	}

	return th, nil
}

// buildBoolAlgTheory declares the boolean-algebra signature and its
// identity/annihilator rules over AC and/or.
func buildBoolAlgTheory() (*theory.Theory, error) {
	th := theory.New()

	if err := th.AddOperators(
		theory.OperatorSpec{Name: "a", Arity: 0},
		theory.OperatorSpec{Name: "b", Arity: 0},
		theory.OperatorSpec{Name: "true", Arity: 0},
		theory.OperatorSpec{Name: "false", Arity: 0},
		theory.OperatorSpec{Name: "and", AC: true},
		theory.OperatorSpec{Name: "or", AC: true},
	); err != nil {
		return nil, err
	}

	if err := parser.AddRewriteRules(th,
		parser.RuleSpec{Name: "and_true", LHS: "(and ?x (true))", RHS: "?x"},
		parser.RuleSpec{Name: "and_false", LHS: "(and ?x (false))", RHS: "(false)"},
		parser.RuleSpec{Name: "or_true", LHS: "(or ?x (true))", RHS: "(true)"},
		parser.RuleSpec{Name: "or_false", LHS: "(or ?x (false))", RHS: "?x"},
	); err != nil {
		return nil, err
	}

	return th, nil
}

// buildIdempotenceTheory declares the bare `a`/`and` signature and no
// rules. The idempotence rule this scenario is named after, `(and ?x ?x) ->
// ?x`, repeats a variable as a direct child of one operator -- exactly the
// non-linear shape rule creation rejects -- so the theory here carries only
// the signature, and rejectIdempotenceRule below exercises the rejection
// itself rather than silently dropping the rule.
func buildIdempotenceTheory() (*theory.Theory, error) {
	th := theory.New()

	if err := th.AddOperators(
		theory.OperatorSpec{Name: "a", Arity: 0},
		theory.OperatorSpec{Name: "and", AC: true},
	); err != nil {
		return nil, err
	}

	return th, nil
}

// rejectIdempotenceRule attempts to register the non-linear
// `(and ?x ?x) -> ?x` rule against th. It returns nil when rule creation
// rejects the rule, and an error when the rule was accepted.
func rejectIdempotenceRule(th *theory.Theory) error {
	if err := parser.AddRewriteRule(th, "and_idem", "(and ?x ?x)", "?x"); err != nil {
		return nil
	}
	return errors.New("eqsat: idempotence: (and ?x ?x) -> ?x was accepted, but non-linear patterns must be rejected")
}

// buildEndomorphismTheory declares the `h(x*y) = h(x)*h(y)` theory over n
// fresh opaque nullary operators standing in for free generators.
func buildEndomorphismTheory(n int) (*theory.Theory, []*theory.Expr, error) {
	if n <= 0 {
		return nil, nil, errors.Errorf("eqsat: endomorphism: n must be positive, got %d", n)
	}

	th := theory.New()

	if err := th.AddOperators(
		theory.OperatorSpec{Name: "*", AC: true},
		theory.OperatorSpec{Name: "h", Arity: 1},
	); err != nil {
		return nil, nil, err
	}

	if err := parser.AddRewriteRules(th,
		parser.RuleSpec{Name: "endo-1", LHS: "(h (* ?x ?y))", RHS: "(* (h ?x) (h ?y))"},
		parser.RuleSpec{Name: "endo-2", LHS: "(* (h ?x) (h ?y))", RHS: "(h (* ?x ?y))"},
	); err != nil {
		return nil, nil, err
	}

	vars := make([]*theory.Expr, n)
	for i := 0; i < n; i++ {
		vars[i] = theory.Operator(th.AddOpaqueOperator())
	}

	return th, vars, nil
}
