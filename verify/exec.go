//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package verify

import (
	"errors"
	"fmt"

	"github.com/markkurossi/lemma/contract"
	"github.com/markkurossi/lemma/sym"
)

// Body is an operation body, written against the execution
// environment.
type Body func(x *Exec) error

// Op names an operation body.
type Op struct {
	Name string
	Body Body
}

// CallArg is one actual argument of a contract call: a scalar term or
// a pointer.
type CallArg struct {
	V *sym.Value
	P *sym.Ptr
}

// Scalar creates a scalar call argument.
func Scalar(v *sym.Value) CallArg {
	return CallArg{
		V: v,
	}
}

// Ref creates a pointer call argument.
func Ref(p *sym.Ptr) CallArg {
	return CallArg{
		P: p,
	}
}

// errReturn terminates the body of one execution path.
var errReturn = errors.New("verify: return")

// choice is one fork point of an execution path: the feasible
// alternatives and the alternative taken on the current path.
type choice struct {
	alts []*sym.Pred
	idx  []int
	pick int
}

// Exec is the execution environment handed to operation bodies: the
// symbolic memory of the path, the path condition, and the contract
// substitution for callee operations.
type Exec struct {
	vr        *Verifier
	c         *contract.Contract
	mem       *sym.Mem
	args      []CallArg
	anchors   map[*contract.Anchor]*sym.Ptr
	deps      map[string]bool
	pc        []*sym.Pred
	trail     []*choice
	depth     int
	path      int
	preAllocs int
	ret       *sym.Value
	returned  bool
}

// Scalar returns argument idx as a scalar term.
func (x *Exec) Scalar(idx int) *sym.Value {
	arg := x.args[idx]
	if arg.V == nil {
		panic(fmt.Sprintf("verify: %s: argument %d is not a scalar",
			x.c.Name, idx))
	}
	return arg.V
}

// Ptr returns argument idx as a pointer.
func (x *Exec) Ptr(idx int) *sym.Ptr {
	arg := x.args[idx]
	if arg.P == nil {
		panic(fmt.Sprintf("verify: %s: argument %d is not a pointer",
			x.c.Name, idx))
	}
	return arg.P
}

// Alloc creates a body-local allocation.
func (x *Exec) Alloc(name string, size int) *sym.Ptr {
	return x.mem.Alloc(name, size)
}

// Free releases the allocation p points to.
func (x *Exec) Free(p *sym.Ptr) error {
	return x.mem.Free(p)
}

// Load reads n byte terms at p.
func (x *Exec) Load(p *sym.Ptr, n int) (sym.Bytes, error) {
	return x.mem.Load(p, n)
}

// Store writes the byte terms at p.
func (x *Exec) Store(p *sym.Ptr, b sym.Bytes) error {
	return x.mem.Store(p, b)
}

// LoadU32 reads a 32-bit scalar at p, little-endian.
func (x *Exec) LoadU32(p *sym.Ptr) (*sym.Value, error) {
	b, err := x.mem.Load(p, 4)
	if err != nil {
		return nil, err
	}
	return sym.U32LE(b), nil
}

// StoreU32 writes the 32-bit scalar at p, little-endian.
func (x *Exec) StoreU32(p *sym.Ptr, v *sym.Value) error {
	return x.mem.Store(p, sym.U32Bytes(v))
}

// LoadPtr reads the pointer stored at p.
func (x *Exec) LoadPtr(p *sym.Ptr) (*sym.Ptr, error) {
	return x.mem.LoadPtr(p)
}

// StorePtr stores the pointer q at p.
func (x *Exec) StorePtr(p, q *sym.Ptr) error {
	return x.mem.StorePtr(p, q)
}

// Return terminates the path with the status term. The body must
// propagate the returned error.
func (x *Exec) Return(status *sym.Value) error {
	x.ret = status
	x.returned = true
	return errReturn
}

func (x *Exec) assume(p *sym.Pred) {
	x.pc = append(x.pc, p)
}

// fork resolves an undecided control point: the feasible alternatives
// are explored as separate execution paths. It returns the index of
// the alternative taken on the current path.
func (x *Exec) fork(alts []*sym.Pred) (int, error) {
	if x.depth < len(x.trail) {
		ch := x.trail[x.depth]
		x.depth++
		x.assume(ch.alts[ch.pick])
		return ch.idx[ch.pick], nil
	}
	ch := new(choice)
	for idx, alt := range alts {
		sat, err := x.vr.engine.Sat(append(x.pc[:len(x.pc):len(x.pc)], alt))
		if err != nil {
			return 0, err
		}
		if sat {
			ch.alts = append(ch.alts, alt)
			ch.idx = append(ch.idx, idx)
		}
	}
	if len(ch.alts) == 0 {
		return 0, &CheckError{
			Op:   x.c.Name,
			Path: x.path,
			Goal: "no feasible branch",
		}
	}
	x.trail = append(x.trail, ch)
	x.depth++
	x.assume(ch.alts[0])
	return ch.idx[0], nil
}

// If resolves the branch condition. Decidable conditions take one
// branch; undecidable ones fork the path.
func (x *Exec) If(cond *sym.Pred) (bool, error) {
	ok, err := x.vr.engine.Valid(x.pc, cond)
	if err != nil {
		return false, err
	}
	if ok {
		x.assume(cond)
		return true, nil
	}
	neg := sym.Not(cond)
	ok, err = x.vr.engine.Valid(x.pc, neg)
	if err != nil {
		return false, err
	}
	if ok {
		x.assume(neg)
		return false, nil
	}
	idx, err := x.fork([]*sym.Pred{cond, neg})
	if err != nil {
		return false, err
	}
	return idx == 0, nil
}

// ConcUint resolves the scalar term to a concrete value in [lo,hi],
// forking the path over the feasible values.
func (x *Exec) ConcUint(v *sym.Value, lo, hi uint64) (uint64, error) {
	if k, ok := v.ConstUint(); ok {
		if k < lo || k > hi {
			return 0, &CheckError{
				Op:   x.c.Name,
				Path: x.path,
				Goal: fmt.Sprintf("%s=%d outside [%d,%d]", v, k, lo, hi),
			}
		}
		return k, nil
	}
	alts := make([]*sym.Pred, 0, hi-lo+1)
	for k := lo; k <= hi; k++ {
		alts = append(alts, sym.Eq(v, sym.Const(k, v.Bits)))
	}
	idx, err := x.fork(alts)
	if err != nil {
		return 0, err
	}
	return lo + uint64(idx), nil
}

// varIn tests membership of a variable in a contract variable list.
func varIn(list []*sym.Value, v *sym.Value) bool {
	for _, item := range list {
		if sym.Key(item) == sym.Key(v) {
			return true
		}
	}
	return false
}

// binderVar tests if the byte vector is exactly the extraction of one
// variable, making the claim a binder for that variable.
func binderVar(b sym.Bytes) (*sym.Value, bool) {
	if len(b) == 0 {
		return nil, false
	}
	if len(b) == 1 && b[0].Op == sym.OpVar && b[0].Bits == 8 {
		return b[0], true
	}
	first := b[0]
	if first.Op != sym.OpExtract || first.Off != 0 {
		return nil, false
	}
	base := first.Args[0]
	if base.Op != sym.OpVar || base.Bits != len(b)*8 {
		return nil, false
	}
	for idx, v := range b {
		if v.Op != sym.OpExtract || v.Off != idx || !v.Args[0].Equal(base) {
			return nil, false
		}
	}
	return base, true
}

func substBytes(b sym.Bytes, env map[sym.VarKey]*sym.Value) sym.Bytes {
	result := make(sym.Bytes, len(b))
	for idx, v := range b {
		result[idx] = sym.Subst(v, env)
	}
	return result
}

// bindAnchor binds the contract anchor to the allocation base pointer.
func (x *Exec) bindAnchor(name string, ptrs map[*contract.Anchor]*sym.Ptr,
	a *contract.Anchor, base *sym.Ptr) error {

	if bound, ok := ptrs[a]; ok {
		if !bound.Equal(base) {
			return fmt.Errorf("verify: %s: anchor %s bound to both %s and %s: %w",
				name, a, bound, base, ErrArgument)
		}
		return nil
	}
	if base.Off < 0 || base.Off+a.Size > base.A.Size {
		return fmt.Errorf("verify: %s: anchor %s at %s of %d bytes: %w",
			name, a, base, base.A.Size, ErrArgument)
	}
	ptrs[a] = base
	return nil
}

// Call substitutes the established contract of the named callee at the
// call site: the callee preconditions become proof obligations, its
// declared effects are applied to the memory, its postconditions are
// assumed, and its body is never entered.
func (x *Exec) Call(name string, args ...CallArg) (*sym.Value, error) {
	if !x.deps[name] {
		return nil, fmt.Errorf("verify: %s: call of %s: %w",
			x.c.Name, name, ErrDependency)
	}
	l, ok := x.vr.store.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("verify: %s: call of %s: %w",
			x.c.Name, name, ErrDependency)
	}
	cc := l.Contract
	if len(args) != len(cc.Params) {
		return nil, fmt.Errorf("verify: %s: %s takes %d arguments, got %d: %w",
			x.c.Name, name, len(cc.Params), len(args), ErrArgument)
	}

	// Bind the callee parameters.
	env := make(map[sym.VarKey]*sym.Value)
	ptrs := make(map[*contract.Anchor]*sym.Ptr)
	for idx, param := range cc.Params {
		arg := args[idx]
		if param.V != nil {
			if arg.V == nil {
				return nil, fmt.Errorf("verify: %s: %s argument %d: %w",
					x.c.Name, name, idx, ErrArgument)
			}
			if param.V.Op != sym.OpVar {
				return nil, fmt.Errorf(
					"verify: %s: %s parameter %d is not a variable: %w",
					x.c.Name, name, idx, ErrArgument)
			}
			if arg.V.Bits != param.V.Bits {
				return nil, fmt.Errorf(
					"verify: %s: %s argument %d: %d bits, expected %d: %w",
					x.c.Name, name, idx, arg.V.Bits, param.V.Bits, ErrArgument)
			}
			env[sym.Key(param.V)] = arg.V
		} else {
			if arg.P == nil {
				return nil, fmt.Errorf("verify: %s: %s argument %d: %w",
					x.c.Name, name, idx, ErrArgument)
			}
			err := x.bindAnchor(name, ptrs, param.A, arg.P.Add(-param.Off))
			if err != nil {
				return nil, err
			}
		}
	}

	// Resolve the remaining pre-state anchors through the claimed
	// pointer edges.
	resolved := make(map[int]bool)
	for {
		progress := false
		for idx, edge := range cc.PrePtr {
			if resolved[idx] {
				continue
			}
			from, ok := ptrs[edge.A]
			if !ok {
				continue
			}
			q, err := x.mem.LoadPtr(from.Add(edge.Off))
			if err != nil {
				return nil, err
			}
			err = x.bindAnchor(name, ptrs, edge.To, q.Add(-edge.ToOff))
			if err != nil {
				return nil, err
			}
			resolved[idx] = true
			progress = true
		}
		if !progress {
			break
		}
	}
	for _, a := range cc.Anchors {
		if _, ok := ptrs[a]; !ok {
			return nil, fmt.Errorf("verify: %s: %s anchor %s unreachable: %w",
				x.c.Name, name, a, ErrArgument)
		}
	}

	// Unify the claimed pre-state contents with the actual memory and
	// check the precondition at the call site.
	for _, content := range cc.PreMem {
		actual, err := x.mem.Load(ptrs[content.A].Add(content.Off),
			len(content.B))
		if err != nil {
			return nil, err
		}
		v, isBinder := binderVar(content.B)
		if isBinder && varIn(cc.Vars, v) {
			if _, bound := env[sym.Key(v)]; !bound {
				env[sym.Key(v)] = sym.Concat(actual...)
				continue
			}
		}
		goal := sym.EqBytes(actual, substBytes(content.B, env))
		ok, err := x.vr.valid(x.pc, goal)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &CheckError{
				Op:   x.c.Name,
				Path: x.path,
				Goal: fmt.Sprintf("%s requires %s+%d..%d contents",
					name, content.A.Name, content.Off,
					content.Off+len(content.B)),
			}
		}
	}
	pre := sym.SubstPred(cc.Pre, env)
	holds, err := x.vr.valid(x.pc, pre)
	if err != nil {
		return nil, err
	}
	if !holds {
		return nil, &CheckError{
			Op:   x.c.Name,
			Path: x.path,
			Goal: fmt.Sprintf("precondition of %s: %s", name, pre),
		}
	}

	// Apply the callee effects: releases, new allocations, havoc of
	// post-state observations and may-write regions, exact post-state
	// contents and pointer stores.
	for _, a := range cc.Frees {
		if err := x.mem.Free(ptrs[a]); err != nil {
			return nil, err
		}
	}
	for _, a := range cc.News {
		ptrs[a] = x.mem.Alloc(a.Name, a.Size)
	}
	for _, v := range cc.PostVars {
		env[sym.Key(v)] = x.mem.Fresh(v.Name, v.Bits)
	}
	for _, span := range cc.MayWrite {
		b := x.mem.FreshBytes(name+"."+span.A.Name, span.Len)
		err := x.mem.Store(ptrs[span.A].Add(span.Off), b)
		if err != nil {
			return nil, err
		}
	}
	for _, content := range cc.PostMem {
		err := x.mem.Store(ptrs[content.A].Add(content.Off),
			substBytes(content.B, env))
		if err != nil {
			return nil, err
		}
	}
	for _, edge := range cc.PostPtr {
		err := x.mem.StorePtr(ptrs[edge.A].Add(edge.Off),
			ptrs[edge.To].Add(edge.ToOff))
		if err != nil {
			return nil, err
		}
	}
	x.assume(sym.SubstPred(cc.Post, env))

	if cc.Ret == nil {
		return nil, nil
	}
	return sym.Subst(cc.Ret, env), nil
}
