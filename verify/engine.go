//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package verify implements the verifier: it symbolically executes an
// operation body under its contract, substituting already-established
// callee contracts at call sites, and checks memory safety,
// postconditions, and footprint conformance. The decision procedure is
// the external collaborator behind the Engine interface; the package
// ships a reference checker for the fragment these proofs need.
package verify

import (
	"github.com/markkurossi/lemma/sym"
)

// Engine is the decision procedure interface.
type Engine interface {
	// Valid reports whether the goal holds under the assumptions.
	// False means the goal could not be established, not that its
	// negation holds.
	Valid(assumptions []*sym.Pred, goal *sym.Pred) (bool, error)

	// Sat reports whether the assumptions are jointly satisfiable.
	// False only when they are definitely unsatisfiable.
	Sat(assumptions []*sym.Pred) (bool, error)
}

// Def rewrites an application term into its definition. It returns
// false when the term is not reducible, e.g. when a controlling
// argument is still symbolic.
type Def func(app *sym.Value) (*sym.Value, bool)

// Checker is the built-in reference engine: constant folding,
// structural equality under interpreted definitions, unsigned interval
// reasoning conditioned on the assumptions, and finite-domain
// enumeration. Goals it cannot decide it refuses to prove; it never
// answers unsoundly.
type Checker struct {
	// MaxEnum limits the model count of finite-domain enumeration.
	MaxEnum int

	defs map[string]Def
}

// NewChecker creates a reference checker.
func NewChecker() *Checker {
	return &Checker{
		MaxEnum: 1 << 16,
		defs:    make(map[string]Def),
	}
}

// Define registers an interpreted definition for the applied function
// name.
func (c *Checker) Define(name string, def Def) {
	c.defs[name] = def
}

// span is an unsigned interval.
type span struct {
	lo uint64
	hi uint64
}

func maxOf(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(bits) - 1
}

func fullSpan(bits int) span {
	return span{
		hi: maxOf(bits),
	}
}

func (s span) singleton() bool {
	return s.lo == s.hi
}

type intervals map[string]span

// intersect meets the interval of the term key with s. It returns
// false when the result is empty.
func (iv intervals) intersect(key string, s span) bool {
	old, ok := iv[key]
	if ok {
		if old.lo > s.lo {
			s.lo = old.lo
		}
		if old.hi < s.hi {
			s.hi = old.hi
		}
	}
	iv[key] = s
	return s.lo <= s.hi
}

// norm normalizes the term: arguments are rebuilt through the folding
// constructors, interpreted definitions are unfolded, and scalar
// subterms pinned to a single value by the assumptions become
// constants.
func (c *Checker) norm(v *sym.Value, iv intervals) *sym.Value {
	var nv *sym.Value
	switch v.Op {
	case sym.OpConst:
		return v

	case sym.OpVar:
		nv = v

	case sym.OpApp:
		args := make([]*sym.Value, len(v.Args))
		for idx, arg := range v.Args {
			args[idx] = c.norm(arg, iv)
		}
		nv = sym.Apply(v.Name, v.Bits, args...)
		if def, ok := c.defs[v.Name]; ok {
			if r, ok := def(nv); ok {
				return c.norm(r, iv)
			}
		}

	case sym.OpExtract:
		nv = sym.Extract(c.norm(v.Args[0], iv), v.Off)

	case sym.OpConcat:
		args := make([]*sym.Value, len(v.Args))
		for idx, arg := range v.Args {
			args[idx] = c.norm(arg, iv)
		}
		nv = sym.Concat(args...)

	case sym.OpAdd, sym.OpSub, sym.OpMul, sym.OpUdiv, sym.OpUmod:
		a := c.norm(v.Args[0], iv)
		b := c.norm(v.Args[1], iv)
		switch v.Op {
		case sym.OpAdd:
			nv = sym.Add(a, b)
		case sym.OpSub:
			nv = sym.Sub(a, b)
		case sym.OpMul:
			nv = sym.Mul(a, b)
		case sym.OpUdiv:
			nv = sym.Udiv(a, b)
		default:
			nv = sym.Umod(a, b)
		}

	default:
		nv = v
	}
	if nv.Op != sym.OpConst && nv.Bits <= 64 && iv != nil {
		if s, ok := iv[nv.String()]; ok && s.singleton() {
			return sym.Const(s.lo, nv.Bits)
		}
	}
	return nv
}

// normPred normalizes the predicate, rebuilding through the folding
// constructors.
func (c *Checker) normPred(p *sym.Pred, iv intervals) *sym.Pred {
	switch p.Op {
	case sym.PredTrue, sym.PredFalse:
		return p
	case sym.PredEq:
		return sym.Eq(c.norm(p.X, iv), c.norm(p.Y, iv))
	case sym.PredNe:
		return sym.Ne(c.norm(p.X, iv), c.norm(p.Y, iv))
	case sym.PredUlt:
		return sym.Ult(c.norm(p.X, iv), c.norm(p.Y, iv))
	case sym.PredUle:
		return sym.Ule(c.norm(p.X, iv), c.norm(p.Y, iv))
	case sym.PredAnd:
		return sym.And(c.normPred(p.A, iv), c.normPred(p.B, iv))
	case sym.PredOr:
		return sym.Or(c.normPred(p.A, iv), c.normPred(p.B, iv))
	default:
		return sym.Not(c.normPred(p.A, iv))
	}
}

// mine extracts unsigned intervals for scalar terms from the
// assumptions. It returns the intervals, the negative (not-equal)
// constraints, and false when the assumptions are contradictory.
func (c *Checker) mine(assumptions []*sym.Pred) (intervals, []*sym.Pred, bool) {
	iv := make(intervals)
	var nes []*sym.Pred
	ok := true
	for _, a := range assumptions {
		for _, p := range c.normPred(a, nil).Conjuncts() {
			switch p.Op {
			case sym.PredFalse:
				ok = false

			case sym.PredEq, sym.PredUlt, sym.PredUle:
				x, y := p.X, p.Y
				if x.Bits > 64 {
					continue
				}
				if k, is := y.ConstUint(); is {
					var s span
					switch p.Op {
					case sym.PredEq:
						s = span{lo: k, hi: k}
					case sym.PredUlt:
						if k == 0 {
							ok = false
							continue
						}
						s = span{hi: k - 1}
					case sym.PredUle:
						s = span{hi: k}
					}
					if !iv.intersect(x.String(), s) {
						ok = false
					}
				} else if k, is := x.ConstUint(); is {
					var s span
					switch p.Op {
					case sym.PredEq:
						s = span{lo: k, hi: k}
					case sym.PredUlt:
						if k == maxOf(y.Bits) {
							ok = false
							continue
						}
						s = span{lo: k + 1, hi: maxOf(y.Bits)}
					case sym.PredUle:
						s = span{lo: k, hi: maxOf(y.Bits)}
					}
					if !iv.intersect(y.String(), s) {
						ok = false
					}
				}

			case sym.PredNe:
				nes = append(nes, p)
			}
		}
	}
	for _, p := range nes {
		if k, is := p.Y.ConstUint(); is {
			if s, found := iv[p.X.String()]; found && s.singleton() &&
				s.lo == k {
				ok = false
			}
		}
	}
	return iv, nes, ok
}

// spanOf computes the unsigned interval of the scalar term under the
// mined assumption intervals.
func spanOf(v *sym.Value, iv intervals) span {
	if v.Bits > 64 {
		return fullSpan(64)
	}
	if v.Op == sym.OpConst {
		return span{lo: v.K, hi: v.K}
	}
	if s, ok := iv[v.String()]; ok {
		return s
	}
	full := fullSpan(v.Bits)
	switch v.Op {
	case sym.OpAdd:
		a := spanOf(v.Args[0], iv)
		b := spanOf(v.Args[1], iv)
		if v.Bits <= 63 && a.hi+b.hi <= maxOf(v.Bits) {
			return span{lo: a.lo + b.lo, hi: a.hi + b.hi}
		}

	case sym.OpSub:
		a := spanOf(v.Args[0], iv)
		b := spanOf(v.Args[1], iv)
		if a.lo >= b.hi {
			return span{lo: a.lo - b.hi, hi: a.hi - b.lo}
		}

	case sym.OpMul:
		a := spanOf(v.Args[0], iv)
		b := spanOf(v.Args[1], iv)
		if v.Bits <= 32 && a.hi*b.hi <= maxOf(v.Bits) {
			return span{lo: a.lo * b.lo, hi: a.hi * b.hi}
		}

	case sym.OpUdiv:
		a := spanOf(v.Args[0], iv)
		b := spanOf(v.Args[1], iv)
		if b.singleton() && b.lo != 0 {
			return span{lo: a.lo / b.lo, hi: a.hi / b.lo}
		}

	case sym.OpUmod:
		a := spanOf(v.Args[0], iv)
		b := spanOf(v.Args[1], iv)
		if b.lo >= 1 {
			if a.hi < b.lo {
				return a
			}
			return span{hi: b.hi - 1}
		}
	}
	return full
}

// decide evaluates the normalized predicate to a three-valued result.
func (c *Checker) decide(p *sym.Pred, iv intervals) (value, ok bool) {
	switch p.Op {
	case sym.PredTrue:
		return true, true
	case sym.PredFalse:
		return false, true

	case sym.PredEq, sym.PredNe, sym.PredUlt, sym.PredUle:
		if p.X.Bits > 64 {
			return false, false
		}
		xs := spanOf(p.X, iv)
		ys := spanOf(p.Y, iv)
		disjoint := xs.hi < ys.lo || ys.hi < xs.lo
		switch p.Op {
		case sym.PredEq:
			if xs.singleton() && ys.singleton() {
				return xs.lo == ys.lo, true
			}
			if disjoint {
				return false, true
			}

		case sym.PredNe:
			if disjoint {
				return true, true
			}
			if xs.singleton() && ys.singleton() {
				return xs.lo != ys.lo, true
			}

		case sym.PredUlt:
			if xs.hi < ys.lo {
				return true, true
			}
			if xs.lo >= ys.hi {
				return false, true
			}
			// x mod n < n when n >= 1.
			if p.X.Op == sym.OpUmod && p.X.Args[1].Equal(p.Y) &&
				ys.lo >= 1 {
				return true, true
			}

		case sym.PredUle:
			if xs.hi <= ys.lo {
				return true, true
			}
			if xs.lo > ys.hi {
				return false, true
			}
			// x-b <= x-a when a <= b <= x.
			if p.X.Op == sym.OpSub && p.Y.Op == sym.OpSub &&
				p.X.Args[0].Equal(p.Y.Args[0]) {
				b, bok := p.X.Args[1].ConstUint()
				a, aok := p.Y.Args[1].ConstUint()
				if aok && bok && a <= b &&
					spanOf(p.X.Args[0], iv).lo >= b {
					return true, true
				}
			}
			// x-b <= x when b <= x.
			if p.X.Op == sym.OpSub && p.X.Args[0].Equal(p.Y) {
				b, bok := p.X.Args[1].ConstUint()
				if bok && spanOf(p.Y, iv).lo >= b {
					return true, true
				}
			}
		}
		return false, false

	case sym.PredAnd:
		av, aok := c.decide(p.A, iv)
		bv, bok := c.decide(p.B, iv)
		if aok && !av || bok && !bv {
			return false, true
		}
		if aok && bok {
			return true, true
		}
		return false, false

	case sym.PredOr:
		av, aok := c.decide(p.A, iv)
		bv, bok := c.decide(p.B, iv)
		if aok && av || bok && bv {
			return true, true
		}
		if aok && bok {
			return false, true
		}
		return false, false

	case sym.PredNot:
		av, aok := c.decide(p.A, iv)
		return !av, aok

	default:
		return false, false
	}
}

// Valid implements Engine.Valid.
func (c *Checker) Valid(assumptions []*sym.Pred, goal *sym.Pred) (
	bool, error) {

	iv, _, consistent := c.mine(assumptions)
	if !consistent {
		// Contradictory assumptions: the path is infeasible and
		// every goal holds on it vacuously.
		return true, nil
	}
	g := c.normPred(goal, iv)
	if g.Op == sym.PredTrue {
		return true, nil
	}
	if g.Op == sym.PredFalse {
		return false, nil
	}
	if v, ok := c.decide(g, iv); ok {
		return v, nil
	}
	if v, ok := c.enumerate(assumptions, g, iv); ok {
		return v, nil
	}
	return false, nil
}

// Sat implements Engine.Sat.
func (c *Checker) Sat(assumptions []*sym.Pred) (bool, error) {
	iv, nes, consistent := c.mine(assumptions)
	if !consistent {
		return false, nil
	}
	for _, p := range nes {
		if k, is := p.Y.ConstUint(); is {
			s := spanOf(c.norm(p.X, iv), iv)
			if s.singleton() && s.lo == k {
				return false, nil
			}
		}
	}
	return true, nil
}

// enumerate decides the goal by exhausting the finite domains of its
// free variables. It reports ok=false when some domain is unbounded,
// the model count exceeds MaxEnum, or the goal does not evaluate.
func (c *Checker) enumerate(assumptions []*sym.Pred, g *sym.Pred,
	iv intervals) (value, ok bool) {

	set := make(map[sym.VarKey]*sym.Value)
	sym.PredVars(g, set)
	for _, a := range assumptions {
		sym.PredVars(a, set)
	}

	var vars []*sym.Value
	var domains []span
	count := uint64(1)
	for _, v := range set {
		s := spanOf(v, iv)
		if v.Bits > 64 {
			return false, false
		}
		n := s.hi - s.lo + 1
		if n == 0 || count > uint64(c.MaxEnum)/n {
			// Domain unbounded or model count too large.
			return false, false
		}
		count *= n
		vars = append(vars, v)
		domains = append(domains, s)
	}

	env := make(sym.Env)
	vals := make([]uint64, len(vars))
	for idx := range vals {
		vals[idx] = domains[idx].lo
	}
	for {
		for idx, v := range vars {
			env.SetUint(v, vals[idx])
		}
		admissible := true
		for _, a := range assumptions {
			av, err := sym.EvalPred(a, env, nil)
			if err != nil {
				// Not evaluable: conservatively admit the model.
				continue
			}
			if !av {
				admissible = false
				break
			}
		}
		if admissible {
			gv, err := sym.EvalPred(g, env, nil)
			if err != nil {
				return false, false
			}
			if !gv {
				return false, true
			}
		}

		// Next assignment.
		idx := 0
		for ; idx < len(vals); idx++ {
			if vals[idx] < domains[idx].hi {
				vals[idx]++
				break
			}
			vals[idx] = domains[idx].lo
		}
		if idx == len(vals) {
			return true, true
		}
	}
}
