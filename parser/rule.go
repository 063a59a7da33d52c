package parser

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/tr00/eqsat-mod-ac-sub000/theory"
)

// AddRewriteRule parses lhsSrc and rhsSrc as S-expressions against th's
// symbol table and registers the resulting rule on th. This is the
// string-based counterpart to Theory.AddRewriteRule's expression-tree form;
// it lives here, rather than on Theory itself, so that theory need not
// import parser.
func AddRewriteRule(th *theory.Theory, name, lhsSrc, rhsSrc string) error {
	p := New(th.Symbols)

	lhs, err := p.ParseSExpr(lhsSrc)
	if err != nil {
		return errors.WithMessagef(err, "parser: rule %q LHS", name)
	}
	rhs, err := p.ParseSExpr(rhsSrc)
	if err != nil {
		return errors.WithMessagef(err, "parser: rule %q RHS", name)
	}
	return th.AddRewriteRule(name, lhs, rhs)
}

// RuleSpec is one entry in a batch AddRewriteRules call.
type RuleSpec struct {
	Name, LHS, RHS string
}

// AddRewriteRules parses and registers every spec against th, continuing
// past individual failures (a malformed pattern, a non-linear LHS) so a
// caller compiling a whole theory's rule set at once sees every diagnostic
// in a single error rather than stopping at the first bad rule.
func AddRewriteRules(th *theory.Theory, specs ...RuleSpec) error {
	var result *multierror.Error
	for _, spec := range specs {
		if err := AddRewriteRule(th, spec.Name, spec.LHS, spec.RHS); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
