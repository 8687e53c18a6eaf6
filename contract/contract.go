//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package contract implements operation contracts: symbolic
// parameters, preconditions, postconditions, and the memory footprint
// an operation is permitted. A contract is written as a setup function
// and elaborated into a Contract record that a verifier can either
// check a body against or substitute at a call site.
package contract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/markkurossi/lemma/sym"
)

// Contract errors.
var (
	ErrSetup  = errors.New("contract: invalid setup")
	ErrAnchor = errors.New("contract: unknown anchor")
	ErrRegion = errors.New("contract: region out of bounds")
)

// Anchor is a named symbolic allocation of the contract: a
// call-visible memory object. Anchors are bound to concrete
// allocations when the contract is instantiated.
type Anchor struct {
	Name string
	Size int
}

func (a *Anchor) String() string {
	return fmt.Sprintf("%s[%d]", a.Name, a.Size)
}

// Arg is one call argument: a scalar term or a pointer to an anchor.
type Arg struct {
	V   *sym.Value
	A   *Anchor
	Off int
}

// Val creates a scalar argument.
func Val(v *sym.Value) Arg {
	return Arg{
		V: v,
	}
}

// PtrTo creates a pointer argument addressing the anchor base.
func PtrTo(a *Anchor) Arg {
	return Arg{
		A: a,
	}
}

// PtrAt creates a pointer argument addressing anchor+off.
func PtrAt(a *Anchor, off int) Arg {
	return Arg{
		A:   a,
		Off: off,
	}
}

func (a Arg) String() string {
	if a.V != nil {
		return a.V.String()
	}
	if a.Off != 0 {
		return fmt.Sprintf("&%s+%d", a.A.Name, a.Off)
	}
	return "&" + a.A.Name
}

// Content claims the exact contents of anchor bytes [Off,Off+len(B)).
type Content struct {
	A   *Anchor
	Off int
	B   sym.Bytes
}

// PtrEdge claims that anchor A holds a pointer to To+ToOff at offset
// Off.
type PtrEdge struct {
	A     *Anchor
	Off   int
	To    *Anchor
	ToOff int
}

// Span is a byte region of an anchor.
type Span struct {
	A   *Anchor
	Off int
	Len int
}

func (s Span) String() string {
	return fmt.Sprintf("%s+%d..%d", s.A.Name, s.Off, s.Off+s.Len)
}

// Contract is the elaborated specification of one operation.
type Contract struct {
	Name string

	// Call shape and pre-state.
	Params  []Arg
	Anchors []*Anchor
	PreMem  []Content
	PrePtr  []PtrEdge
	Pre     *sym.Pred
	Vars    []*sym.Value

	// Post-state.
	PostMem  []Content
	PostPtr  []PtrEdge
	MayWrite []Span
	Frees    []*Anchor
	News     []*Anchor
	Post     *sym.Pred
	Ret      *sym.Value
	PostVars []*sym.Value
}

// Readable returns the declared readable pre-state regions: the
// claimed initial contents and stored pointers.
func (c *Contract) Readable() []Span {
	var spans []Span
	for _, content := range c.PreMem {
		spans = append(spans, Span{
			A:   content.A,
			Off: content.Off,
			Len: len(content.B),
		})
	}
	for _, edge := range c.PrePtr {
		spans = append(spans, Span{
			A:   edge.A,
			Off: edge.Off,
			Len: sym.PtrSize,
		})
	}
	return spans
}

// Writable returns the declared writable regions: exact post contents,
// post pointer stores, and may-write spans.
func (c *Contract) Writable() []Span {
	var spans []Span
	for _, content := range c.PostMem {
		spans = append(spans, Span{
			A:   content.A,
			Off: content.Off,
			Len: len(content.B),
		})
	}
	for _, edge := range c.PostPtr {
		spans = append(spans, Span{
			A:   edge.A,
			Off: edge.Off,
			Len: sym.PtrSize,
		})
	}
	spans = append(spans, c.MayWrite...)
	return spans
}

// IsAnchor tests if a is one of the contract's pre-state anchors.
func (c *Contract) IsAnchor(a *Anchor) bool {
	for _, anchor := range c.Anchors {
		if anchor == a {
			return true
		}
	}
	return false
}

// IsNew tests if a is one of the contract's post-state allocations.
func (c *Contract) IsNew(a *Anchor) bool {
	for _, anchor := range c.News {
		if anchor == a {
			return true
		}
	}
	return false
}

func (c *Contract) checkSpan(a *Anchor, off, n int) error {
	if !c.IsAnchor(a) && !c.IsNew(a) {
		return fmt.Errorf("contract: %s: %s: %w", c.Name, a, ErrAnchor)
	}
	if off < 0 || n < 0 || off+n > a.Size {
		return fmt.Errorf("contract: %s: %s+%d..%d: %w",
			c.Name, a.Name, off, off+n, ErrRegion)
	}
	return nil
}

// Check verifies the well-formedness of the contract: all regions
// address known anchors within bounds, pointer edges target known
// anchors, and freed anchors are pre-state anchors.
func (c *Contract) Check() error {
	for _, content := range c.PreMem {
		if err := c.checkSpan(content.A, content.Off,
			len(content.B)); err != nil {
			return err
		}
		if c.IsNew(content.A) {
			return fmt.Errorf(
				"contract: %s: initial contents of new allocation %s: %w",
				c.Name, content.A, ErrSetup)
		}
	}
	for _, content := range c.PostMem {
		if err := c.checkSpan(content.A, content.Off,
			len(content.B)); err != nil {
			return err
		}
	}
	edges := append(append([]PtrEdge{}, c.PrePtr...), c.PostPtr...)
	for _, edge := range edges {
		if err := c.checkSpan(edge.A, edge.Off, sym.PtrSize); err != nil {
			return err
		}
		if err := c.checkSpan(edge.To, edge.ToOff, 0); err != nil {
			return err
		}
	}
	for _, span := range c.MayWrite {
		if err := c.checkSpan(span.A, span.Off, span.Len); err != nil {
			return err
		}
	}
	seen := make(map[*Anchor]bool)
	for _, a := range c.Frees {
		if !c.IsAnchor(a) {
			return fmt.Errorf("contract: %s: free of %s: %w",
				c.Name, a, ErrAnchor)
		}
		if seen[a] {
			return fmt.Errorf("contract: %s: %s freed twice: %w",
				c.Name, a, ErrSetup)
		}
		seen[a] = true
	}
	for _, arg := range c.Params {
		if arg.V == nil && arg.A == nil {
			return fmt.Errorf("contract: %s: empty argument: %w",
				c.Name, ErrSetup)
		}
		if arg.A != nil && !c.IsAnchor(arg.A) {
			return fmt.Errorf("contract: %s: argument %s: %w",
				c.Name, arg, ErrAnchor)
		}
	}
	return nil
}

func (c *Contract) String() string {
	parts := make([]string, len(c.Params))
	for idx, arg := range c.Params {
		parts[idx] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(parts, ", "))
}
