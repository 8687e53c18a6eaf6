//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package verify

import (
	"testing"

	"github.com/markkurossi/lemma/sym"
)

func checkValid(t *testing.T, assumptions []*sym.Pred, goal *sym.Pred,
	expected bool) {
	t.Helper()

	c := NewChecker()
	ok, err := c.Valid(assumptions, goal)
	if err != nil {
		t.Fatalf("Valid: %v", err)
	}
	if ok != expected {
		t.Errorf("Valid(%v, %s)=%v, expected %v",
			assumptions, goal, ok, expected)
	}
}

func TestCheckerConst(t *testing.T) {
	checkValid(t, nil, sym.Eq(sym.Const(42, 32), sym.Const(42, 32)), true)
	checkValid(t, nil, sym.Ult(sym.Const(5, 32), sym.Const(4, 32)), false)
}

func TestCheckerIntervals(t *testing.T) {
	mem := sym.NewMem()
	x := mem.Fresh("x", 32)

	// 0 <= x <= 16 decides x <= 20 but not x <= 10.
	pre := []*sym.Pred{sym.Ule(x, sym.Const(16, 32))}
	checkValid(t, pre, sym.Ule(x, sym.Const(20, 32)), true)
	checkValid(t, pre, sym.Ule(x, sym.Const(10, 32)), false)

	// x >= 3 decides x != 0.
	pre = []*sym.Pred{sym.Uge(x, sym.Const(3, 32))}
	checkValid(t, pre, sym.Ne(x, sym.Zero32), true)
}

func TestCheckerSub(t *testing.T) {
	mem := sym.NewMem()
	rem := mem.Fresh("rem", 32)

	// rem >= 2 decides rem-1 != 0 and rem-2 <= rem-1.
	pre := []*sym.Pred{sym.Uge(rem, sym.Const(2, 32))}
	checkValid(t, pre, sym.Ne(sym.Sub(rem, sym.One32), sym.Zero32), true)
	checkValid(t, pre, sym.Ule(sym.Sub(rem, sym.Const(2, 32)),
		sym.Sub(rem, sym.One32)), true)
	checkValid(t, pre, sym.Ule(sym.Sub(rem, sym.Const(2, 32)), rem), true)

	// Without the bound the subtraction may wrap.
	checkValid(t, nil, sym.Ne(sym.Sub(rem, sym.One32), sym.Zero32), false)
}

func TestCheckerUmod(t *testing.T) {
	mem := sym.NewMem()
	x := mem.Fresh("x", 32)
	n := mem.Fresh("n", 32)

	// n >= 1 decides x%n < n.
	pre := []*sym.Pred{sym.Uge(n, sym.One32)}
	checkValid(t, pre, sym.Ult(sym.Umod(x, n), n), true)
	checkValid(t, nil, sym.Ult(sym.Umod(x, n), n), false)
}

func TestCheckerEnumerate(t *testing.T) {
	mem := sym.NewMem()
	cursor := mem.Fresh("cursor", 32)

	// Exhausting the [0,16] domain decides properties the interval
	// reasoning alone misses.
	pre := []*sym.Pred{sym.Ule(cursor, sym.Const(16, 32))}
	goal := sym.Or(
		sym.Ule(cursor, sym.Const(8, 32)),
		sym.Uge(sym.Mul(cursor, sym.Const(2, 32)), sym.Const(18, 32)))
	checkValid(t, pre, goal, true)

	goal = sym.Uge(sym.Mul(cursor, sym.Const(2, 32)), sym.Const(2, 32))
	checkValid(t, pre, goal, false)
}

func TestCheckerContradiction(t *testing.T) {
	mem := sym.NewMem()
	x := mem.Fresh("x", 32)

	// Contradictory assumptions are an infeasible path: every goal
	// holds vacuously and Sat rejects them.
	pre := []*sym.Pred{
		sym.Eq(x, sym.Const(3, 32)),
		sym.Uge(x, sym.Const(10, 32)),
	}
	checkValid(t, pre, sym.Eq(x, sym.Const(100, 32)), true)

	c := NewChecker()
	sat, err := c.Sat(pre)
	if err != nil {
		t.Fatalf("Sat: %v", err)
	}
	if sat {
		t.Errorf("Sat(%v)=true", pre)
	}

	sat, err = c.Sat([]*sym.Pred{sym.Eq(x, sym.Const(3, 32))})
	if err != nil {
		t.Fatalf("Sat: %v", err)
	}
	if !sat {
		t.Errorf("Sat of consistent assumptions failed")
	}
}

func TestCheckerDefine(t *testing.T) {
	c := NewChecker()
	c.Define("double", func(app *sym.Value) (*sym.Value, bool) {
		if app.Args[0].Op != sym.OpConst {
			return nil, false
		}
		return sym.Const(app.Args[0].K*2, app.Bits), true
	})
	goal := sym.Eq(sym.Apply("double", 32, sym.Const(21, 32)),
		sym.Const(42, 32))
	ok, err := c.Valid(nil, goal)
	if err != nil {
		t.Fatalf("Valid: %v", err)
	}
	if !ok {
		t.Errorf("interpreted definition not unfolded")
	}
}
