package exprsearch

import (
	"errors"
	test "testing"
)

// arithGrammar mirrors the standard fixture:
// start = expr; expr = num | expr op expr; op = + | * | -; num = 1|2|3
func arithGrammar() *Grammar {
	num := NewRange("num", 1, 3)
	op := NewOr("op",
		NewTerminal("", "+"),
		NewTerminal("", "*"),
		NewTerminal("", "-"),
	)
	expr := NewOr("expr",
		num,
		NewAnd("", NewRef("", "expr"), op, NewRef("", "expr")),
	)
	start := NewRef("start", "expr")
	return NewGrammar("start").Add(num, op, expr, start)
}

func TestGrammarValidate(t *test.T) {
	g := arithGrammar()
	if err := g.Validate(); err != nil {
		t.Fatalf("arith grammar failed validation: %v", err)
	}

	bad := NewGrammar("start").Add(NewRef("start", "nowhere"))
	if err := bad.Validate(); err == nil {
		t.Errorf("Expected validation error for dangling reference, got nil")
	}

	missing := NewGrammar("start")
	if err := missing.Validate(); err == nil {
		t.Errorf("Expected validation error for missing start symbol, got nil")
	}
}

func TestNumActions(t *test.T) {
	g := arithGrammar()
	cases := []struct {
		rule     string
		actions  int
		decision bool
	}{
		{"num", 3, true},
		{"op", 3, true},
		{"expr", 2, true},
		{"start", 1, false},
	}
	for _, c := range cases {
		r, ok := g.Rule(c.rule)
		if !ok {
			t.Fatalf("rule %q not found", c.rule)
		}
		if r.NumActions() != c.actions {
			t.Errorf("rule %q actions: Expected: %v Actual: %v", c.rule, c.actions, r.NumActions())
		}
		if r.IsDecision() != c.decision {
			t.Errorf("rule %q decision: Expected: %v Actual: %v", c.rule, c.decision, r.IsDecision())
		}
	}
}

func TestMinDepths(t *test.T) {
	g := arithGrammar()
	md, err := ComputeMinDepths(g)
	if err != nil {
		t.Fatalf("ComputeMinDepths failed: %v", err)
	}

	expected := map[string]int{
		"num":   1,
		"op":    2,
		"expr":  2,
		"start": 3,
	}
	for name, want := range expected {
		r, _ := g.Rule(name)
		if got := md.ByRule[r]; got != want {
			t.Errorf("min depth of %q: Expected: %v Actual: %v", name, want, got)
		}
	}

	if got := md.MinDepth(g); got != 3 {
		t.Errorf("MinDepth(start): Expected: 3 Actual: %v", got)
	}

	expr, _ := g.Rule("expr")
	mda := md.ByAction[expr]
	if len(mda) != 2 || mda[0] != 1 || mda[1] != 4 {
		t.Errorf("expr action depths: Expected: [1 4] Actual: %v", mda)
	}

	num, _ := g.Rule("num")
	for i, d := range md.ByAction[num] {
		if d != 0 {
			t.Errorf("num action %d depth: Expected: 0 Actual: %v", i+1, d)
		}
	}
}

func TestUnproductiveGrammar(t *test.T) {
	// only recursive references, no terminal anywhere
	g := NewGrammar("start").Add(
		NewRef("start", "loop"),
		NewOr("loop", NewRef("", "loop"), NewRef("", "start")),
	)
	_, err := ComputeMinDepths(g)
	if !errors.Is(err, ErrUnproductiveGrammar) {
		t.Errorf("Expected ErrUnproductiveGrammar, got: %v", err)
	}
}
