//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package sym

import (
	"bytes"
	"errors"
	"testing"
)

func TestEval(t *testing.T) {
	m := NewMem()
	x := m.Fresh("x", 32)
	env := Env{}
	env.SetUint(x, 40)

	k, err := EvalUint(Add(x, Const(2, 32)), env, nil)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if k != 42 {
		t.Errorf("x+2 = %d", k)
	}

	// Wrapping.
	k, err = EvalUint(Sub(Const(0, 32), x), env, nil)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if k != 0xffffffd8 {
		t.Errorf("0-x = %#x", k)
	}

	// Unbound variables fail.
	y := m.Fresh("y", 8)
	_, err = EvalUint(y, env, nil)
	if !errors.Is(err, ErrUnbound) {
		t.Errorf("eval of unbound: %v", err)
	}
}

func TestEvalBytes(t *testing.T) {
	m := NewMem()
	b := m.FreshBytes("seed", 8)
	env := Env{}
	env.SetBytes(b[0].Args[0], []byte{1, 2, 3, 4, 5, 6, 7, 8})

	data, err := EvalBytes(b[2:6], env, nil)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if !bytes.Equal(data, []byte{3, 4, 5, 6}) {
		t.Errorf("bytes = %x", data)
	}

	k, err := EvalUint(U32LE(b[0:4]), env, nil)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if k != 0x04030201 {
		t.Errorf("u32 = %#x", k)
	}
}

func TestInterp(t *testing.T) {
	m := NewMem()
	x := m.Fresh("x", 32)
	env := Env{}
	env.SetUint(x, 7)

	in := Interp{
		"dbl": func(args ...[]byte) ([]byte, error) {
			k := toUint(args[0])
			return fromUint(k*2, len(args[0])*8), nil
		},
	}
	k, err := EvalUint(Apply("dbl", 32, x), env, in)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if k != 14 {
		t.Errorf("dbl(x) = %d", k)
	}

	_, err = EvalUint(Apply("unknown", 32, x), env, in)
	if !errors.Is(err, ErrNoInterp) {
		t.Errorf("eval of uninterpreted: %v", err)
	}
}

func TestEvalPred(t *testing.T) {
	m := NewMem()
	x := m.Fresh("x", 8)
	y := m.Fresh("y", 8)
	env := Env{}
	env.SetUint(x, 16)
	env.SetUint(y, 200)

	p := And(Ule(x, Const(16, 8)), Ult(x, y))
	ok, err := EvalPred(p, env, nil)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if !ok {
		t.Errorf("%v is false under x=16, y=200", p)
	}

	ok, err = EvalPred(Not(p), env, nil)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if ok {
		t.Errorf("negation is true")
	}
}

func TestSubst(t *testing.T) {
	m := NewMem()
	x := m.Fresh("x", 32)
	n := m.Fresh("n", 32)

	bind := map[VarKey]*Value{
		Key(x): Const(10, 32),
	}
	v := Subst(Add(x, n), bind)
	if v.Op != OpAdd {
		t.Fatalf("subst = %v", v)
	}
	if k, ok := v.Args[0].ConstUint(); !ok || k != 10 {
		t.Errorf("subst arg = %v", v.Args[0])
	}

	// Full substitution folds to a constant.
	bind[Key(n)] = Const(32, 32)
	v = Subst(Udiv(Add(x, n), Const(16, 32)), bind)
	if k, ok := v.ConstUint(); !ok || k != 2 {
		t.Errorf("folded subst = %v", v)
	}

	// Predicates fold too.
	p := SubstPred(Ule(x, n), bind)
	if p != True {
		t.Errorf("subst pred = %v", p)
	}
}

func TestVars(t *testing.T) {
	m := NewMem()
	x := m.Fresh("x", 32)
	y := m.Fresh("y", 8)

	set := make(map[VarKey]*Value)
	PredVars(And(Ult(Extract(x, 1), y), Eq(y, Const(1, 8))), set)
	if len(set) != 2 {
		t.Errorf("vars = %v", set)
	}
	if _, ok := set[Key(x)]; !ok {
		t.Errorf("x not collected")
	}
}
