package libmolgraph

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/mol-structures/molgraph/molgraph"
)

// FormulaExpr is a parsed composition formula such as "C2 H6 O" or "C2H6O":
// a run of type symbols, each with an optional repeat count.
type FormulaExpr struct {
	Terms []*FormulaTerm `parser:"@@+"`
}

type FormulaTerm struct {
	Symbol string `parser:"@Symbol"`
	Count  int    `parser:"(@Count)?"`
}

var sFormulaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Symbol", Pattern: `[A-Z][a-z]*`},
	{Name: "Count", Pattern: `[0-9]+`},
	{Name: "whitespace", Pattern: `[ \t]+`},
})

var parseFormulaExpr = participle.MustBuild[FormulaExpr](
	participle.Lexer(sFormulaLexer),
)

// ParseFormula expands a composition formula into its node label list,
// e.g. "C2 H6 O" => [C C H H H H H H O].
func ParseFormula(formula string) ([]string, error) {
	expr, err := parseFormulaExpr.ParseString("", formula)
	if err != nil {
		return nil, molgraph.ErrBadFormula
	}

	var labels []string
	for _, term := range expr.Terms {
		count := term.Count
		if count == 0 {
			count = 1
		}
		for i := 0; i < count; i++ {
			labels = append(labels, term.Symbol)
		}
	}
	return labels, nil
}
