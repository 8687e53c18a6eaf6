//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package sym

import (
	"errors"
	"fmt"
	"sort"
)

// PtrSize is the width of a stored pointer in bytes.
const PtrSize = 8

// Memory safety violations.
var (
	ErrBounds     = errors.New("sym: memory access out of bounds")
	ErrFreed      = errors.New("sym: use after free")
	ErrUndef      = errors.New("sym: read of undefined memory")
	ErrPointer    = errors.New("sym: invalid pointer access")
	ErrDoubleFree = errors.New("sym: double free")
)

// Alloc is a symbolic allocation: a named arena of size bytes. Cells
// hold byte terms, stored pointers, or are undefined.
type Alloc struct {
	ID    int
	Name  string
	Size  int
	Freed bool
	cells []cell
}

type cell struct {
	b       *Value // byte term, nil if undefined
	p       *Ptr   // pointer stored at this cell
	ptrPart bool   // continuation cell of a stored pointer
	written bool   // written after Mem.EnterBody
}

func (a *Alloc) String() string {
	return a.Name
}

// Ptr is a pointer into an allocation.
type Ptr struct {
	A   *Alloc
	Off int
}

// NewPtr creates a pointer to the beginning of the allocation.
func NewPtr(a *Alloc) *Ptr {
	return &Ptr{
		A: a,
	}
}

// Add returns the pointer offset by n bytes. The result may be out of
// bounds; the bounds are checked on access.
func (p *Ptr) Add(n int) *Ptr {
	return &Ptr{
		A:   p.A,
		Off: p.Off + n,
	}
}

// Equal tests if the pointers name the same location.
func (p *Ptr) Equal(o *Ptr) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.A == o.A && p.Off == o.Off
}

func (p *Ptr) String() string {
	if p == nil {
		return "null"
	}
	if p.Off == 0 {
		return p.A.Name
	}
	return fmt.Sprintf("%s+%d", p.A.Name, p.Off)
}

// AccessKind specifies a memory access kind.
type AccessKind byte

// Memory access kinds.
const (
	ReadAccess AccessKind = iota
	WriteAccess
	FreeAccess
)

var accessKinds = map[AccessKind]string{
	ReadAccess:  "read",
	WriteAccess: "write",
	FreeAccess:  "free",
}

func (k AccessKind) String() string {
	name, ok := accessKinds[k]
	if ok {
		return name
	}
	return fmt.Sprintf("{AccessKind %d}", k)
}

// Region is one entry of the memory footprint log: an access of Len
// bytes at A+Off. For reads, Pre reports that the bytes were not
// written since Mem.EnterBody i.e. the read observed the initial
// state.
type Region struct {
	A    *Alloc
	Off  int
	Len  int
	Kind AccessKind
	Pre  bool
}

func (r Region) String() string {
	return fmt.Sprintf("%s %s+%d..%d", r.Kind, r.A.Name, r.Off, r.Off+r.Len)
}

// Mem is the symbolic memory: a set of allocations plus the footprint
// log of accesses made after EnterBody.
type Mem struct {
	nextID   int
	versions map[string]int32
	allocs   []*Alloc
	log      []Region
	body     bool
}

// NewMem creates an empty symbolic memory.
func NewMem() *Mem {
	return &Mem{
		versions: make(map[string]int32),
	}
}

// Fresh mints a fresh variable. Same-named variables are told apart by
// their version numbers.
func (m *Mem) Fresh(name string, bits int) *Value {
	version := m.versions[name]
	m.versions[name]++
	return &Value{
		Op:      OpVar,
		Bits:    bits,
		Name:    name,
		Version: version,
	}
}

// FreshBytes mints a fresh n-byte vector. The bytes are extracts of
// one fresh n*8-bit variable so that the vector round-trips through
// concatenation.
func (m *Mem) FreshBytes(name string, n int) Bytes {
	v := m.Fresh(name, n*8)
	return ExtractBytes(v, 0, n)
}

// Alloc creates a new allocation of size bytes. The cells are
// undefined until stored to.
func (m *Mem) Alloc(name string, size int) *Ptr {
	a := &Alloc{
		ID:    m.nextID,
		Name:  name,
		Size:  size,
		cells: make([]cell, size),
	}
	m.nextID++
	m.allocs = append(m.allocs, a)
	return NewPtr(a)
}

// EnterBody starts footprint logging. Accesses made before EnterBody
// set up the initial state and are not part of the footprint.
func (m *Mem) EnterBody() {
	m.body = true
}

// InBody reports if footprint logging has started.
func (m *Mem) InBody() bool {
	return m.body
}

// Footprint returns the footprint log.
func (m *Mem) Footprint() []Region {
	return m.log
}

// Allocs returns all allocations in creation order, freed ones
// included.
func (m *Mem) Allocs() []*Alloc {
	return m.allocs
}

// NumAllocs returns the number of allocations made so far.
func (m *Mem) NumAllocs() int {
	return len(m.allocs)
}

func (m *Mem) check(p *Ptr, n int) error {
	if p == nil || p.A == nil {
		return fmt.Errorf("sym: null dereference: %w", ErrPointer)
	}
	if p.A.Freed {
		return fmt.Errorf("sym: %s+%d: %w", p.A.Name, p.Off, ErrFreed)
	}
	if p.Off < 0 || n < 0 || p.Off+n > p.A.Size {
		return fmt.Errorf("sym: %s+%d..%d of %d bytes: %w",
			p.A.Name, p.Off, p.Off+n, p.A.Size, ErrBounds)
	}
	return nil
}

// clearPtr invalidates the stored pointer covering cell idx. All cells
// of the pointer become undefined.
func clearPtr(a *Alloc, idx int) {
	for idx > 0 && a.cells[idx].ptrPart {
		idx--
	}
	for i := idx; i < idx+PtrSize && i < len(a.cells); i++ {
		a.cells[i] = cell{written: a.cells[i].written}
	}
}

// Load reads n byte terms at p. Reading undefined bytes or bytes of a
// stored pointer is an error.
func (m *Mem) Load(p *Ptr, n int) (Bytes, error) {
	if err := m.check(p, n); err != nil {
		return nil, err
	}
	result := make(Bytes, n)
	for idx := 0; idx < n; idx++ {
		c := p.A.cells[p.Off+idx]
		if c.p != nil || c.ptrPart {
			return nil, fmt.Errorf("sym: %s+%d holds a pointer: %w",
				p.A.Name, p.Off+idx, ErrPointer)
		}
		if c.b == nil {
			return nil, fmt.Errorf("sym: %s+%d: %w",
				p.A.Name, p.Off+idx, ErrUndef)
		}
		result[idx] = c.b
	}
	m.logRead(p, n)
	return result, nil
}

// logRead logs the read, split into maximal runs of written and
// initial-state bytes.
func (m *Mem) logRead(p *Ptr, n int) {
	if !m.body || n == 0 {
		return
	}
	start := 0
	pre := !p.A.cells[p.Off].written
	for idx := 1; idx <= n; idx++ {
		var cur bool
		if idx < n {
			cur = !p.A.cells[p.Off+idx].written
		}
		if idx == n || cur != pre {
			m.log = append(m.log, Region{
				A:    p.A,
				Off:  p.Off + start,
				Len:  idx - start,
				Kind: ReadAccess,
				Pre:  pre,
			})
			start = idx
			pre = cur
		}
	}
}

// Store writes the byte terms at p. Storing over a stored pointer
// invalidates the whole pointer.
func (m *Mem) Store(p *Ptr, b Bytes) error {
	if err := m.check(p, len(b)); err != nil {
		return err
	}
	for idx, v := range b {
		if v.Bits != 8 {
			return fmt.Errorf("sym: store of %d-bit byte: %w",
				v.Bits, ErrPointer)
		}
		c := &p.A.cells[p.Off+idx]
		if c.p != nil || c.ptrPart {
			clearPtr(p.A, p.Off+idx)
		}
		c.b = v
		c.p = nil
		c.ptrPart = false
		if m.body {
			c.written = true
		}
	}
	if m.body && len(b) > 0 {
		m.log = append(m.log, Region{
			A:    p.A,
			Off:  p.Off,
			Len:  len(b),
			Kind: WriteAccess,
		})
	}
	return nil
}

// StorePtr stores the pointer q at p, occupying PtrSize cells.
func (m *Mem) StorePtr(p *Ptr, q *Ptr) error {
	if err := m.check(p, PtrSize); err != nil {
		return err
	}
	for idx := 0; idx < PtrSize; idx++ {
		c := &p.A.cells[p.Off+idx]
		if c.p != nil || c.ptrPart {
			clearPtr(p.A, p.Off+idx)
		}
	}
	for idx := 0; idx < PtrSize; idx++ {
		c := &p.A.cells[p.Off+idx]
		*c = cell{
			ptrPart: idx > 0,
			written: c.written || m.body,
		}
	}
	p.A.cells[p.Off].p = q
	if m.body {
		m.log = append(m.log, Region{
			A:    p.A,
			Off:  p.Off,
			Len:  PtrSize,
			Kind: WriteAccess,
		})
	}
	return nil
}

// LoadPtr reads the pointer stored at p.
func (m *Mem) LoadPtr(p *Ptr) (*Ptr, error) {
	if err := m.check(p, PtrSize); err != nil {
		return nil, err
	}
	c := p.A.cells[p.Off]
	if c.p == nil {
		return nil, fmt.Errorf("sym: %s+%d does not hold a pointer: %w",
			p.A.Name, p.Off, ErrPointer)
	}
	for idx := 1; idx < PtrSize; idx++ {
		if !p.A.cells[p.Off+idx].ptrPart {
			return nil, fmt.Errorf("sym: %s+%d: torn pointer: %w",
				p.A.Name, p.Off, ErrPointer)
		}
	}
	if m.body {
		m.log = append(m.log, Region{
			A:    p.A,
			Off:  p.Off,
			Len:  PtrSize,
			Kind: ReadAccess,
			Pre:  !c.written,
		})
	}
	return c.p, nil
}

// Free frees the allocation p points to. The pointer must address the
// beginning of the allocation.
func (m *Mem) Free(p *Ptr) error {
	if p == nil || p.A == nil {
		return fmt.Errorf("sym: free of null: %w", ErrPointer)
	}
	if p.Off != 0 {
		return fmt.Errorf("sym: free of %s+%d: %w",
			p.A.Name, p.Off, ErrPointer)
	}
	if p.A.Freed {
		return fmt.Errorf("sym: %s: %w", p.A.Name, ErrDoubleFree)
	}
	p.A.Freed = true
	if m.body {
		m.log = append(m.log, Region{
			A:    p.A,
			Len:  p.A.Size,
			Kind: FreeAccess,
		})
	}
	return nil
}

// Peek reads n byte terms at p without logging the access. It is used
// to inspect the final state after the footprint has been collected.
func (m *Mem) Peek(p *Ptr, n int) (Bytes, error) {
	body := m.body
	m.body = false
	b, err := m.Load(p, n)
	m.body = body
	return b, err
}

// PeekPtr reads the pointer stored at p without logging the access.
func (m *Mem) PeekPtr(p *Ptr) (*Ptr, error) {
	body := m.body
	m.body = false
	q, err := m.LoadPtr(p)
	m.body = body
	return q, err
}

// Coalesce merges overlapping and adjacent regions of the same
// allocation and kind. Merged reads observe the initial state only if
// all parts did.
func Coalesce(regions []Region) []Region {
	result := make([]Region, len(regions))
	copy(result, regions)
	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.A != b.A {
			return a.A.ID < b.A.ID
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Pre != b.Pre {
			return a.Pre
		}
		return a.Off < b.Off
	})
	var merged []Region
	for _, r := range result {
		if len(merged) > 0 {
			last := &merged[len(merged)-1]
			if last.A == r.A && last.Kind == r.Kind && last.Pre == r.Pre &&
				r.Off <= last.Off+last.Len {
				if r.Off+r.Len > last.Off+last.Len {
					last.Len = r.Off + r.Len - last.Off
				}
				continue
			}
		}
		merged = append(merged, r)
	}
	return merged
}

// Covered reports if the region r is covered by the regions.
func Covered(r Region, regions []Region) bool {
	off := r.Off
	end := r.Off + r.Len
	for off < end {
		found := false
		for _, reg := range regions {
			if reg.A == r.A && reg.Off <= off && off < reg.Off+reg.Len {
				if reg.Off+reg.Len < end {
					off = reg.Off + reg.Len
				} else {
					off = end
				}
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
