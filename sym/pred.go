//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package sym

import (
	"fmt"
)

// PredOp specifies a predicate operation.
type PredOp byte

// Predicate operations.
const (
	PredTrue PredOp = iota
	PredFalse
	PredEq
	PredNe
	PredUlt
	PredUle
	PredAnd
	PredOr
	PredNot
)

var predOps = map[PredOp]string{
	PredTrue:  "true",
	PredFalse: "false",
	PredEq:    "=",
	PredNe:    "!=",
	PredUlt:   "<",
	PredUle:   "<=",
	PredAnd:   "and",
	PredOr:    "or",
	PredNot:   "not",
}

func (op PredOp) String() string {
	name, ok := predOps[op]
	if ok {
		return name
	}
	return fmt.Sprintf("{PredOp %d}", op)
}

// Pred is a predicate over terms. Comparison predicates hold the term
// operands in X and Y; connectives hold sub-predicates in A and B.
type Pred struct {
	Op   PredOp
	X, Y *Value
	A, B *Pred
}

// Constant predicates.
var (
	True  = &Pred{Op: PredTrue}
	False = &Pred{Op: PredFalse}
)

func compare(op PredOp, x, y *Value) *Pred {
	if x.Bits != y.Bits {
		panic(fmt.Sprintf("sym: %s of %d-bit and %d-bit values",
			op, x.Bits, y.Bits))
	}
	if x.Op == OpConst && y.Op == OpConst {
		var ok bool
		switch op {
		case PredEq:
			ok = x.K == y.K
		case PredNe:
			ok = x.K != y.K
		case PredUlt:
			ok = x.K < y.K
		case PredUle:
			ok = x.K <= y.K
		}
		if ok {
			return True
		}
		return False
	}
	if x.Equal(y) {
		switch op {
		case PredEq, PredUle:
			return True
		case PredNe, PredUlt:
			return False
		}
	}
	return &Pred{
		Op: op,
		X:  x,
		Y:  y,
	}
}

// Eq creates the predicate x = y.
func Eq(x, y *Value) *Pred {
	return compare(PredEq, x, y)
}

// Ne creates the predicate x != y.
func Ne(x, y *Value) *Pred {
	return compare(PredNe, x, y)
}

// Ult creates the unsigned predicate x < y.
func Ult(x, y *Value) *Pred {
	return compare(PredUlt, x, y)
}

// Ule creates the unsigned predicate x <= y.
func Ule(x, y *Value) *Pred {
	return compare(PredUle, x, y)
}

// Ugt creates the unsigned predicate x > y.
func Ugt(x, y *Value) *Pred {
	return Ult(y, x)
}

// Uge creates the unsigned predicate x >= y.
func Uge(x, y *Value) *Pred {
	return Ule(y, x)
}

// And creates the conjunction of the predicates.
func And(a, b *Pred) *Pred {
	if a.Op == PredFalse || b.Op == PredFalse {
		return False
	}
	if a.Op == PredTrue {
		return b
	}
	if b.Op == PredTrue {
		return a
	}
	return &Pred{
		Op: PredAnd,
		A:  a,
		B:  b,
	}
}

// Or creates the disjunction of the predicates.
func Or(a, b *Pred) *Pred {
	if a.Op == PredTrue || b.Op == PredTrue {
		return True
	}
	if a.Op == PredFalse {
		return b
	}
	if b.Op == PredFalse {
		return a
	}
	return &Pred{
		Op: PredOr,
		A:  a,
		B:  b,
	}
}

// Not creates the negation of the predicate.
func Not(a *Pred) *Pred {
	switch a.Op {
	case PredTrue:
		return False
	case PredFalse:
		return True
	case PredNot:
		return a.A
	case PredEq:
		return &Pred{Op: PredNe, X: a.X, Y: a.Y}
	case PredNe:
		return &Pred{Op: PredEq, X: a.X, Y: a.Y}
	case PredUlt:
		return &Pred{Op: PredUle, X: a.Y, Y: a.X}
	case PredUle:
		return &Pred{Op: PredUlt, X: a.Y, Y: a.X}
	}
	return &Pred{
		Op: PredNot,
		A:  a,
	}
}

// AndAll folds the predicates into one conjunction.
func AndAll(preds ...*Pred) *Pred {
	result := True
	for _, p := range preds {
		result = And(result, p)
	}
	return result
}

// EqBytes creates the conjunction of byte-wise equalities of the
// vectors.
func EqBytes(x, y Bytes) *Pred {
	if len(x) != len(y) {
		panic(fmt.Sprintf("sym: EqBytes of %d and %d bytes",
			len(x), len(y)))
	}
	result := True
	for idx, xv := range x {
		result = And(result, Eq(xv, y[idx]))
	}
	return result
}

// Conjuncts splits the predicate into its top-level conjuncts.
func (p *Pred) Conjuncts() []*Pred {
	if p.Op == PredAnd {
		return append(p.A.Conjuncts(), p.B.Conjuncts()...)
	}
	if p.Op == PredTrue {
		return nil
	}
	return []*Pred{p}
}

func (p *Pred) String() string {
	switch p.Op {
	case PredTrue:
		return "true"
	case PredFalse:
		return "false"
	case PredEq, PredNe, PredUlt, PredUle:
		return fmt.Sprintf("(%s %s %s)", p.X, p.Op, p.Y)
	case PredAnd:
		return fmt.Sprintf("(%s and %s)", p.A, p.B)
	case PredOr:
		return fmt.Sprintf("(%s or %s)", p.A, p.B)
	case PredNot:
		return fmt.Sprintf("(not %s)", p.A)
	default:
		return fmt.Sprintf("{PredOp %d}", p.Op)
	}
}
