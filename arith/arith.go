// Package arith is the standard arithmetic example problem: search for an
// integer expression whose value lands on a target. It doubles as the test
// fixture for the drivers.
package arith

import (
	"fmt"
	"math"

	"github.com/sisl/exprsearch"
)

// Grammar builds the arith fixture:
//
//	start = expr
//	expr  = num | expr op expr
//	op    = + | * | -
//	num   = 1 | 2 | 3
func Grammar() *exprsearch.Grammar {
	num := exprsearch.NewRange("num", 1, 3)
	op := exprsearch.NewOr("op",
		exprsearch.NewTerminal("", "+"),
		exprsearch.NewTerminal("", "*"),
		exprsearch.NewTerminal("", "-"),
	)
	expr := exprsearch.NewOr("expr",
		num,
		exprsearch.NewAnd("",
			exprsearch.NewRef("", "expr"),
			op,
			exprsearch.NewRef("", "expr"),
		),
	)
	start := exprsearch.NewRef("start", "expr")

	return exprsearch.NewGrammar("start").Add(num, op, expr, start)
}

// Problem scores expressions by distance to Target; lower is better.
type Problem struct {
	Target float64

	grammar *exprsearch.Grammar
}

func NewProblem(target float64) *Problem {
	return &Problem{Target: target, grammar: Grammar()}
}

func (p *Problem) Grammar() *exprsearch.Grammar {
	return p.grammar
}

func (p *Problem) Fitness(expr any) (float64, error) {
	v, err := Eval(expr)
	if err != nil {
		return 0, err
	}
	return math.Abs(v - p.Target), nil
}

// Eval interprets a folded expression value: an int leaf or a
// [left, op, right] triple.
func Eval(expr any) (float64, error) {
	switch e := expr.(type) {
	case int:
		return float64(e), nil
	case []any:
		if len(e) != 3 {
			return 0, fmt.Errorf("arith: malformed composite %v", e)
		}
		left, err := Eval(e[0])
		if err != nil {
			return 0, err
		}
		right, err := Eval(e[2])
		if err != nil {
			return 0, err
		}
		op, ok := e[1].(string)
		if !ok {
			return 0, fmt.Errorf("arith: bad operator %v", e[1])
		}
		switch op {
		case "+":
			return left + right, nil
		case "*":
			return left * right, nil
		case "-":
			return left - right, nil
		}
		return 0, fmt.Errorf("arith: unknown operator %q", op)
	}
	return 0, fmt.Errorf("arith: unsupported expression %T", expr)
}
