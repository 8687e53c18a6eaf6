//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package sym

import (
	"testing"
)

func TestConstFold(t *testing.T) {
	v := Add(Const(1, 32), Const(2, 32))
	if k, ok := v.ConstUint(); !ok || k != 3 {
		t.Errorf("Add(1, 2) = %v", v)
	}
	v = Sub(Const(0, 32), Const(1, 32))
	if k, ok := v.ConstUint(); !ok || k != 0xffffffff {
		t.Errorf("Sub(0, 1) = %v", v)
	}
	v = Mul(Const(3, 16), Const(5, 16))
	if k, ok := v.ConstUint(); !ok || k != 15 {
		t.Errorf("Mul(3, 5) = %v", v)
	}
	v = Udiv(Const(47, 32), Const(16, 32))
	if k, ok := v.ConstUint(); !ok || k != 2 {
		t.Errorf("Udiv(47, 16) = %v", v)
	}

	m := NewMem()
	x := m.Fresh("x", 32)
	if Add(x, Const(0, 32)) != x {
		t.Errorf("Add(x, 0) != x")
	}
	if Sub(x, Const(0, 32)) != x {
		t.Errorf("Sub(x, 0) != x")
	}
	if Mul(Const(1, 32), x) != x {
		t.Errorf("Mul(1, x) != x")
	}
}

func TestExtract(t *testing.T) {
	v := Const(0x11223344, 32)
	if k, _ := Extract(v, 0).ConstUint(); k != 0x44 {
		t.Errorf("Extract(v, 0) = %v", Extract(v, 0))
	}
	if k, _ := Extract(v, 3).ConstUint(); k != 0x11 {
		t.Errorf("Extract(v, 3) = %v", Extract(v, 3))
	}

	b := ConstBytes([]byte{0x44, 0x33, 0x22, 0x11})
	u := U32LE(b)
	if k, ok := u.ConstUint(); !ok || k != 0x11223344 {
		t.Errorf("U32LE = %v", u)
	}

	// Extract distributes over concatenation.
	m := NewMem()
	x := m.Fresh("x", 16)
	c := Concat(Const(0xaa, 8), x, Const(0xbb, 8))
	if k, ok := Extract(c, 0).ConstUint(); !ok || k != 0xaa {
		t.Errorf("Extract(c, 0) = %v", Extract(c, 0))
	}
	if !Extract(c, 1).Equal(Extract(x, 0)) {
		t.Errorf("Extract(c, 1) = %v", Extract(c, 1))
	}
	if k, ok := Extract(c, 3).ConstUint(); !ok || k != 0xbb {
		t.Errorf("Extract(c, 3) = %v", Extract(c, 3))
	}

	// Extract of extract folds to one offset.
	w := m.Fresh("w", 64)
	e := Extract(Concat(ExtractBytes(w, 2, 4)...), 1)
	if !e.Equal(Extract(w, 3)) {
		t.Errorf("nested extract = %v", e)
	}
}

func TestConcatFold(t *testing.T) {
	m := NewMem()
	v := m.Fresh("v", 128)

	// Full sequential extract coverage folds back to the base.
	if Concat(ExtractBytes(v, 0, 16)...) != v {
		t.Errorf("full extract concat does not fold")
	}
	// Partial coverage does not fold.
	c := Concat(ExtractBytes(v, 0, 4)...)
	if c.Op != OpConcat || c.Bits != 32 {
		t.Errorf("partial extract concat = %v", c)
	}
	// Shifted coverage does not fold.
	c = Concat(ExtractBytes(v, 1, 15)...)
	if c.Op != OpConcat {
		t.Errorf("shifted extract concat = %v", c)
	}

	if k, _ := Umod(Const(47, 32), Const(16, 32)).ConstUint(); k != 15 {
		t.Errorf("47 %% 16 = %d", k)
	}
}

func TestVersions(t *testing.T) {
	m := NewMem()
	x0 := m.Fresh("x", 8)
	x1 := m.Fresh("x", 8)
	if x0.Equal(x1) {
		t.Errorf("fresh variables are equal")
	}
	if x0.String() != "x" {
		t.Errorf("x0 = %v", x0)
	}
	if x1.String() != "x¹" {
		t.Errorf("x1 = %v", x1)
	}
}

func TestEqual(t *testing.T) {
	m := NewMem()
	x := m.Fresh("x", 32)
	y := m.Fresh("y", 32)

	if !Add(x, y).Equal(Add(x, y)) {
		t.Errorf("x+y != x+y")
	}
	if Add(x, y).Equal(Add(y, x)) {
		t.Errorf("x+y == y+x")
	}
	if !Apply("f", 32, x).Equal(Apply("f", 32, x)) {
		t.Errorf("f(x) != f(x)")
	}
	if Apply("f", 32, x).Equal(Apply("g", 32, x)) {
		t.Errorf("f(x) == g(x)")
	}
}

func TestPredFold(t *testing.T) {
	if Eq(Const(1, 8), Const(1, 8)) != True {
		t.Errorf("1 = 1 is not true")
	}
	if Ult(Const(2, 8), Const(1, 8)) != False {
		t.Errorf("2 < 1 is not false")
	}
	m := NewMem()
	x := m.Fresh("x", 8)
	if Eq(x, x) != True {
		t.Errorf("x = x is not true")
	}
	if Ule(x, x) != True {
		t.Errorf("x <= x is not true")
	}
	if Ult(x, x) != False {
		t.Errorf("x < x is not false")
	}
	if And(True, True) != True {
		t.Errorf("true and true is not true")
	}
	p := Ult(x, Const(16, 8))
	if And(True, p) != p {
		t.Errorf("true and p != p")
	}
	if Or(p, True) != True {
		t.Errorf("p or true is not true")
	}
	// Double negation of a comparison rebuilds the comparison.
	pp := Not(Not(p))
	if pp.Op != PredUlt || !pp.X.Equal(x) || !pp.Y.Equal(Const(16, 8)) {
		t.Errorf("not not (x < 16) = %v", pp)
	}
	// Connectives negate by wrapping, so double negation unwraps.
	conj := And(p, Ule(x, Const(7, 8)))
	if Not(Not(conj)) != conj {
		t.Errorf("not not conjunction != conjunction")
	}
	// Negated comparisons flip.
	np := Not(p)
	if np.Op != PredUle || !np.X.Equal(Const(16, 8)) || !np.Y.Equal(x) {
		t.Errorf("not (x < 16) = %v", np)
	}
}

func TestConjuncts(t *testing.T) {
	m := NewMem()
	x := m.Fresh("x", 8)
	y := m.Fresh("y", 8)

	p := AndAll(Ult(x, Const(1, 8)), Ule(y, x), Ne(y, Const(0, 8)))
	parts := p.Conjuncts()
	if len(parts) != 3 {
		t.Fatalf("got %d conjuncts, expected 3", len(parts))
	}
	if True.Conjuncts() != nil {
		t.Errorf("true has conjuncts")
	}
}
