//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package contract

import (
	"fmt"

	"github.com/markkurossi/lemma/sym"
)

// Spec is a setup function specifying one operation. Clauses stated
// before Execute describe the pre-state, clauses after it the
// post-state.
type Spec func(s *Setup)

// Setup builds a contract. The first invalid clause latches an error
// and turns the remaining clauses into no-ops; Elaborate reports the
// error.
type Setup struct {
	mem      *sym.Mem
	c        *Contract
	executed bool
	returned bool
	err      error
}

// Elaborate runs the setup function and returns the elaborated,
// well-formed contract.
func Elaborate(name string, spec Spec) (*Contract, error) {
	s := &Setup{
		mem: sym.NewMem(),
		c: &Contract{
			Name: name,
			Pre:  sym.True,
			Post: sym.True,
		},
	}
	spec(s)
	if s.err != nil {
		return nil, s.err
	}
	if !s.executed {
		return nil, fmt.Errorf("contract: %s: Execute not called: %w",
			name, ErrSetup)
	}
	if err := s.c.Check(); err != nil {
		return nil, err
	}
	return s.c, nil
}

func (s *Setup) fail(format string, a ...interface{}) {
	if s.err == nil {
		s.err = fmt.Errorf("contract: %s: %s: %w",
			s.c.Name, fmt.Sprintf(format, a...), ErrSetup)
	}
}

func (s *Setup) pre(clause string) bool {
	if s.err != nil {
		return false
	}
	if s.executed {
		s.fail("%s after Execute", clause)
		return false
	}
	return true
}

func (s *Setup) post(clause string) bool {
	if s.err != nil {
		return false
	}
	if !s.executed {
		s.fail("%s before Execute", clause)
		return false
	}
	return true
}

// Fresh mints a fresh symbolic scalar. Variables minted before Execute
// are symbolic inputs; variables minted after it are post-state
// observations.
func (s *Setup) Fresh(name string, bits int) *sym.Value {
	if s.err != nil {
		return sym.Const(0, bits)
	}
	v := s.mem.Fresh(name, bits)
	if s.executed {
		s.c.PostVars = append(s.c.PostVars, v)
	} else {
		s.c.Vars = append(s.c.Vars, v)
	}
	return v
}

// FreshBytes mints a fresh symbolic byte vector.
func (s *Setup) FreshBytes(name string, n int) sym.Bytes {
	return sym.ExtractBytes(s.Fresh(name, n*8), 0, n)
}

// Alloc declares a pre-state allocation of size bytes.
func (s *Setup) Alloc(name string, size int) *Anchor {
	a := &Anchor{
		Name: name,
		Size: size,
	}
	if !s.pre("Alloc") {
		return a
	}
	s.c.Anchors = append(s.c.Anchors, a)
	return a
}

// PointsTo claims the initial contents b at anchor offset off.
func (s *Setup) PointsTo(a *Anchor, off int, b sym.Bytes) {
	if !s.pre("PointsTo") {
		return
	}
	s.c.PreMem = append(s.c.PreMem, Content{
		A:   a,
		Off: off,
		B:   b,
	})
}

// PointsToPtr claims that anchor a holds a pointer to the anchor to at
// offset off.
func (s *Setup) PointsToPtr(a *Anchor, off int, to *Anchor) {
	if !s.pre("PointsToPtr") {
		return
	}
	s.c.PrePtr = append(s.c.PrePtr, PtrEdge{
		A:   a,
		Off: off,
		To:  to,
	})
}

// Require states a precondition.
func (s *Setup) Require(p *sym.Pred) {
	if !s.pre("Require") {
		return
	}
	s.c.Pre = sym.And(s.c.Pre, p)
}

// Execute states the call shape and splits pre-state clauses from
// post-state clauses.
func (s *Setup) Execute(args ...Arg) {
	if s.err != nil {
		return
	}
	if s.executed {
		s.fail("Execute called twice")
		return
	}
	s.executed = true
	s.c.Params = args
}

// Ensure states a postcondition.
func (s *Setup) Ensure(p *sym.Pred) {
	if !s.post("Ensure") {
		return
	}
	s.c.Post = sym.And(s.c.Post, p)
}

// PointsToPost claims the exact final contents b at anchor offset off.
// The claim is an obligation when the contract is verified and a
// granted assumption when it is substituted at a call site.
func (s *Setup) PointsToPost(a *Anchor, off int, b sym.Bytes) {
	if !s.post("PointsToPost") {
		return
	}
	s.c.PostMem = append(s.c.PostMem, Content{
		A:   a,
		Off: off,
		B:   b,
	})
}

// PointsToPtrPost claims that anchor a holds a pointer to the anchor
// to in the final state.
func (s *Setup) PointsToPtrPost(a *Anchor, off int, to *Anchor) {
	if !s.post("PointsToPtrPost") {
		return
	}
	s.c.PostPtr = append(s.c.PostPtr, PtrEdge{
		A:   a,
		Off: off,
		To:  to,
	})
}

// WritesOnly declares a writable region without any content claim.
func (s *Setup) WritesOnly(a *Anchor, off, n int) {
	if !s.post("WritesOnly") {
		return
	}
	s.c.MayWrite = append(s.c.MayWrite, Span{
		A:   a,
		Off: off,
		Len: n,
	})
}

// Allocates declares an allocation the operation creates and hands to
// its caller.
func (s *Setup) Allocates(name string, size int) *Anchor {
	a := &Anchor{
		Name: name,
		Size: size,
	}
	if !s.post("Allocates") {
		return a
	}
	s.c.News = append(s.c.News, a)
	return a
}

// Frees declares that the operation releases the anchor.
func (s *Setup) Frees(a *Anchor) {
	if !s.post("Frees") {
		return
	}
	s.c.Frees = append(s.c.Frees, a)
}

// Returns states the expected return term.
func (s *Setup) Returns(v *sym.Value) {
	if !s.post("Returns") {
		return
	}
	if s.returned {
		s.fail("Returns called twice")
		return
	}
	s.returned = true
	s.c.Ret = v
}
