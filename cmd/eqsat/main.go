// Command eqsat runs one of a handful of pre-configured equality-saturation
// scenarios: each subcommand builds its theory, inserts an expression, runs
// saturation to the given iteration budget, and dumps the resulting e-graph.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"github.com/tr00/eqsat-mod-ac-sub000/egraph"
	"github.com/tr00/eqsat-mod-ac-sub000/parser"
	"github.com/tr00/eqsat-mod-ac-sub000/saturate"
	"github.com/tr00/eqsat-mod-ac-sub000/theory"
)

// CLI is the root Kong command tree: one subcommand per evaluation scenario.
var CLI struct {
	Groups       GroupsCmd       `cmd:"" help:"Free-group theory: one/0, inv/1, mul/AC."`
	Boolalg      BoolalgCmd      `cmd:"" help:"Boolean-algebra identity/annihilator theory over and/or (AC)."`
	Idempotence  IdempotenceCmd  `cmd:"" help:"Bare a/and (AC) signature; the non-linear (and ?x ?x) -> ?x rule is rejected."`
	Endomorphism EndomorphismCmd `cmd:"" help:"h(x*y) = h(x)*h(y) over n opaque generators."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("eqsat"),
		kong.Description("Equality-saturation evaluation harnesses."),
	)
	logger := hclog.New(&hclog.LoggerOptions{Name: "eqsat", Level: hclog.Info})
	err := ctx.Run(logger)
	if err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

// readStdinExpr reads stdin to EOF and parses it as a single S-expression
// against th's symbol table.
func readStdinExpr(th *theory.Theory) (*theory.Expr, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, errors.Wrap(err, "eqsat: reading stdin")
	}
	p := parser.New(th.Symbols)
	expr, err := p.ParseSExpr(string(data))
	if err != nil {
		return nil, errors.Wrap(err, "eqsat: parsing stdin expression")
	}
	return expr, nil
}

// runScenario inserts expr, saturates up to iterations, prints the inserted
// expression's class id, and dumps the e-graph to stdout -- the common tail
// shared by every subcommand.
func runScenario(logger hclog.Logger, th *theory.Theory, expr *theory.Expr, iterations int) error {
	g := egraph.New(th)

	id, err := g.AddExpr(expr)
	if err != nil {
		return errors.Wrap(err, "eqsat: add_expr")
	}
	fmt.Printf("root class: %d\n", id)

	outcome, err := saturate.Run(g, th.Rules(), saturate.Options{
		MaxIterations: iterations,
		Logger:        logger,
	})
	if err != nil {
		return errors.Wrap(err, "eqsat: saturate")
	}
	fmt.Printf("saturated: %v (ran %d iteration(s))\n", outcome.Saturated, outcome.Iterations)

	g.Dump(os.Stdout)
	return nil
}

// GroupsCmd runs the free-group scenario.
type GroupsCmd struct {
	Iterations int `name:"iterations" short:"i" required:"" help:"Iteration budget for saturate."`
}

// Run parses a single S-expression from stdin, inserts it into the
// free-group theory, and saturates/dumps it.
func (c *GroupsCmd) Run(logger hclog.Logger) error {
	th, err := buildGroupsTheory()
	if err != nil {
		return err
	}
	expr, err := readStdinExpr(th)
	if err != nil {
		return err
	}
	return runScenario(logger.Named("groups"), th, expr, c.Iterations)
}

// BoolalgCmd runs the boolean-algebra scenario.
type BoolalgCmd struct {
	Iterations int `name:"iterations" short:"i" required:"" help:"Iteration budget for saturate."`
}

func (c *BoolalgCmd) Run(logger hclog.Logger) error {
	th, err := buildBoolAlgTheory()
	if err != nil {
		return err
	}
	expr, err := readStdinExpr(th)
	if err != nil {
		return err
	}
	return runScenario(logger.Named("boolalg"), th, expr, c.Iterations)
}

// IdempotenceCmd runs the idempotence scenario. The classic idempotence
// rule `(and ?x ?x) -> ?x` is non-linear and must be rejected at rule
// creation (see rejectIdempotenceRule); the subcommand logs that rejection
// and then saturates the bare `a`/`and` signature with no rules at all,
// which demonstrates the complementary boundary behavior: AC commutativity
// alone never makes `and` idempotent.
type IdempotenceCmd struct {
	Iterations int `name:"iterations" short:"i" required:"" help:"Iteration budget for saturate."`
}

func (c *IdempotenceCmd) Run(logger hclog.Logger) error {
	named := logger.Named("idempotence")

	th, err := buildIdempotenceTheory()
	if err != nil {
		return err
	}
	if err := rejectIdempotenceRule(th); err != nil {
		return err
	}
	named.Info("non-linear idempotence rule correctly rejected at rule creation")

	expr, err := readStdinExpr(th)
	if err != nil {
		return err
	}
	return runScenario(named, th, expr, c.Iterations)
}

// EndomorphismCmd runs the endomorphism scenario. Unlike the other three,
// its two compared expressions (h applied to a product, vs. the product of
// h applied to each factor) are intrinsic to the scenario rather than
// supplied by the caller, so it reads nothing from stdin.
type EndomorphismCmd struct {
	Iterations int `name:"iterations" short:"i" required:"" help:"Iteration budget for saturate."`
	Generators int `name:"generators" short:"n" default:"5" help:"Number of opaque free generators."`
}

func (c *EndomorphismCmd) Run(logger hclog.Logger) error {
	th, vars, err := buildEndomorphismTheory(c.Generators)
	if err != nil {
		return err
	}

	hSym := th.Symbols.Intern("h")
	mulSym := th.Symbols.Intern("*")

	// h(v0 * v1 * ... * vn-1)
	h1 := theory.Operator(hSym, theory.Operator(mulSym, vars...))

	// h(v0) * h(v1) * ... * h(vn-1)
	hChildren := make([]*theory.Expr, len(vars))
	for i, v := range vars {
		hChildren[i] = theory.Operator(hSym, v)
	}
	h2 := theory.Operator(mulSym, hChildren...)

	g := egraph.New(th)
	a, err := g.AddExpr(h1)
	if err != nil {
		return errors.Wrap(err, "eqsat: add_expr h1")
	}
	b, err := g.AddExpr(h2)
	if err != nil {
		return errors.Wrap(err, "eqsat: add_expr h2")
	}

	outcome, err := saturate.Run(g, th.Rules(), saturate.Options{
		MaxIterations: c.Iterations,
		Logger:        logger.Named("endomorphism"),
	})
	if err != nil {
		return errors.Wrap(err, "eqsat: saturate")
	}

	res := g.IsEquiv(a, b)
	fmt.Printf("result: %v\n", res)
	fmt.Printf("saturated: %v (ran %d iteration(s))\n", outcome.Saturated, outcome.Iterations)
	g.Dump(os.Stdout)

	if !res {
		os.Exit(1)
	}
	return nil
}
