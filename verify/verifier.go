//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package verify

import (
	"errors"
	"fmt"

	"github.com/markkurossi/lemma"
	"github.com/markkurossi/lemma/contract"
	"github.com/markkurossi/lemma/sym"
	"github.com/pion/logging"
)

// Stats reports the cost of the last verification: the number of
// execution paths explored and the number of goals checked.
type Stats struct {
	Paths int
	Goals int
}

// Verifier checks operation bodies against their contracts and
// accumulates the established results into the lemma store.
type Verifier struct {
	params *Params
	store  *lemma.Store
	engine Engine
	log    logging.LeveledLogger
	stats  Stats
}

// New creates a verifier accumulating into the store.
func New(store *lemma.Store, params *Params) *Verifier {
	if params == nil {
		params = NewParams()
	}
	engine := params.Engine
	if engine == nil {
		engine = NewChecker()
	}
	var log logging.LeveledLogger
	if params.LoggerFactory != nil {
		log = params.LoggerFactory.NewLogger("verify")
	}
	return &Verifier{
		params: params,
		store:  store,
		engine: engine,
		log:    log,
	}
}

// Stats returns the statistics of the last Verify call.
func (vr *Verifier) Stats() Stats {
	return vr.stats
}

// valid checks the goal under the assumptions, counting it into the
// verification statistics.
func (vr *Verifier) valid(assumptions []*sym.Pred, goal *sym.Pred) (
	bool, error) {

	vr.stats.Goals++
	ok, err := vr.engine.Valid(assumptions, goal)
	if vr.log != nil && vr.params.Diagnostics {
		vr.log.Tracef("valid=%v goal=%s", ok, goal)
	}
	return ok, err
}

func (vr *Verifier) checkDeps(name string, deps []string) error {
	for _, dep := range deps {
		if _, ok := vr.store.Lookup(dep); !ok {
			return fmt.Errorf("verify: %s depends on %s: %w",
				name, dep, ErrDependency)
		}
	}
	return nil
}

// Verify checks the operation body against the contract, substituting
// the already-established dependency contracts at call sites, and
// records the result into the store.
func (vr *Verifier) Verify(op Op, deps []string, spec contract.Spec) (
	*lemma.Lemma, error) {

	c, err := contract.Elaborate(op.Name, spec)
	if err != nil {
		return nil, err
	}
	if err := vr.checkDeps(op.Name, deps); err != nil {
		return nil, err
	}
	vr.stats = Stats{}

	var trail []*choice
	paths := 0
	for {
		paths++
		if paths > vr.params.MaxPaths {
			return nil, fmt.Errorf("verify: %s: %w", op.Name, ErrPaths)
		}
		x, err := vr.instantiate(c, deps, trail, paths-1)
		if err != nil {
			return nil, err
		}
		if err := vr.runPath(op, x); err != nil {
			return nil, err
		}
		trail = x.trail
		if vr.log != nil && vr.params.Verbose {
			vr.log.Debugf("%s: path %d: %d fork points",
				op.Name, x.path, len(trail))
		}

		// Advance to the deepest fork point with an unexplored
		// alternative.
		for len(trail) > 0 {
			last := trail[len(trail)-1]
			if last.pick+1 < len(last.alts) {
				last.pick++
				break
			}
			trail = trail[:len(trail)-1]
		}
		if len(trail) == 0 {
			break
		}
	}
	vr.stats.Paths = paths
	if vr.log != nil {
		vr.log.Debugf("verified %s: %d paths, %d goals",
			op.Name, vr.stats.Paths, vr.stats.Goals)
	}

	l := &lemma.Lemma{
		Contract: c,
		Status:   lemma.Verified,
		Deps:     deps,
	}
	if err := vr.store.Add(l); err != nil {
		return nil, err
	}
	return l, nil
}

// Admit records the contract as established without checking the body:
// an explicit, auditable trust boundary.
func (vr *Verifier) Admit(op Op, deps []string, spec contract.Spec) (
	*lemma.Lemma, error) {

	c, err := contract.Elaborate(op.Name, spec)
	if err != nil {
		return nil, err
	}
	if err := vr.checkDeps(op.Name, deps); err != nil {
		return nil, err
	}
	vr.stats = Stats{}
	if vr.log != nil {
		vr.log.Warnf("admitted %s without check", op.Name)
	}

	l := &lemma.Lemma{
		Contract: c,
		Status:   lemma.Admitted,
		Deps:     deps,
	}
	if err := vr.store.Add(l); err != nil {
		return nil, err
	}
	return l, nil
}

// instantiate creates the execution environment of one path: the
// contract anchors become allocations, the claimed pre-state contents
// and pointer edges are installed, and the precondition seeds the path
// condition.
func (vr *Verifier) instantiate(c *contract.Contract, deps []string,
	trail []*choice, path int) (*Exec, error) {

	mem := sym.NewMem()
	x := &Exec{
		vr:      vr,
		c:       c,
		mem:     mem,
		anchors: make(map[*contract.Anchor]*sym.Ptr),
		deps:    make(map[string]bool),
		pc:      c.Pre.Conjuncts(),
		trail:   trail,
		path:    path,
	}
	for _, dep := range deps {
		x.deps[dep] = true
	}
	for _, a := range c.Anchors {
		x.anchors[a] = mem.Alloc(a.Name, a.Size)
	}
	for _, content := range c.PreMem {
		err := mem.Store(x.anchors[content.A].Add(content.Off), content.B)
		if err != nil {
			return nil, err
		}
	}
	for _, edge := range c.PrePtr {
		err := mem.StorePtr(x.anchors[edge.A].Add(edge.Off),
			x.anchors[edge.To].Add(edge.ToOff))
		if err != nil {
			return nil, err
		}
	}
	for _, param := range c.Params {
		if param.V != nil {
			x.args = append(x.args, Scalar(param.V))
		} else {
			x.args = append(x.args, Ref(x.anchors[param.A].Add(param.Off)))
		}
	}
	x.preAllocs = mem.NumAllocs()
	mem.EnterBody()
	return x, nil
}

// runPath executes the body on one path and checks the contract
// against the path outcome.
func (vr *Verifier) runPath(op Op, x *Exec) error {
	err := op.Body(x)
	if err != nil && !errors.Is(err, errReturn) {
		var cerr *CheckError
		if errors.As(err, &cerr) {
			return err
		}
		return &CheckError{
			Op:   op.Name,
			Path: x.path,
			Err:  err,
		}
	}
	return vr.checkPath(x)
}

func (x *Exec) fail(format string, a ...interface{}) error {
	return &CheckError{
		Op:   x.c.Name,
		Path: x.path,
		Goal: fmt.Sprintf(format, a...),
	}
}

// checkPath checks the contract post-state against the final state of
// one execution path: claimed allocations, exact contents, pointer
// edges, releases, postconditions, the return value, and footprint
// conformance.
func (vr *Verifier) checkPath(x *Exec) error {
	c := x.c
	env := make(map[sym.VarKey]*sym.Value)

	// Resolve the allocations the operation hands to its caller
	// through the claimed post-state pointer edges.
	resolved := make(map[int]bool)
	for {
		progress := false
		for idx, edge := range c.PostPtr {
			if resolved[idx] {
				continue
			}
			from, ok := x.anchors[edge.A]
			if !ok {
				continue
			}
			q, err := x.mem.PeekPtr(from.Add(edge.Off))
			if err != nil {
				return x.fail("%s+%d does not hold the claimed pointer: %v",
					edge.A.Name, edge.Off, err)
			}
			base := q.Add(-edge.ToOff)
			if bound, ok := x.anchors[edge.To]; ok {
				if !bound.Equal(base) {
					return x.fail("%s+%d points to %s, claimed %s",
						edge.A.Name, edge.Off, q, edge.To)
				}
			} else {
				if !c.IsNew(edge.To) {
					return x.fail("pointer edge to unknown anchor %s",
						edge.To)
				}
				if base.Off != 0 || base.A.Size != edge.To.Size ||
					base.A.ID < x.preAllocs {
					return x.fail("%s is not a fresh %d-byte allocation",
						base, edge.To.Size)
				}
				x.anchors[edge.To] = base
			}
			resolved[idx] = true
			progress = true
		}
		if !progress {
			break
		}
	}
	for _, a := range c.News {
		if _, ok := x.anchors[a]; !ok {
			return x.fail("allocation %s not handed back", a)
		}
	}

	// Observed footprint.
	var writes, frees []sym.Region
	var preReads []sym.Region
	for _, r := range x.mem.Footprint() {
		switch r.Kind {
		case sym.WriteAccess:
			writes = append(writes, r)
		case sym.FreeAccess:
			frees = append(frees, r)
		default:
			if r.Pre {
				preReads = append(preReads, r)
			}
		}
	}
	writes = sym.Coalesce(writes)

	// Exact post-state contents: produced and matching. Claims over a
	// fresh post-state variable bind it to the observed contents.
	for _, content := range c.PostMem {
		region := sym.Region{
			A:   x.anchors[content.A].A,
			Off: x.anchors[content.A].Off + content.Off,
			Len: len(content.B),
		}
		if !sym.Covered(region, writes) {
			return x.fail("%s+%d..%d not fully written",
				content.A.Name, content.Off, content.Off+len(content.B))
		}
		actual, err := x.mem.Peek(x.anchors[content.A].Add(content.Off),
			len(content.B))
		if err != nil {
			return x.fail("claimed contents of %s+%d not produced: %v",
				content.A.Name, content.Off, err)
		}
		v, isBinder := binderVar(content.B)
		if isBinder && varIn(c.PostVars, v) {
			if _, bound := env[sym.Key(v)]; !bound {
				env[sym.Key(v)] = sym.Concat(actual...)
				continue
			}
		}
		goal := sym.EqBytes(actual, substBytes(content.B, env))
		ok, err := vr.valid(x.pc, goal)
		if err != nil {
			return err
		}
		if !ok {
			return x.fail("contents of %s+%d..%d do not match the claim",
				content.A.Name, content.Off, content.Off+len(content.B))
		}
	}

	// Releases: claimed anchors freed, observed frees claimed.
	freed := make(map[*sym.Alloc]bool)
	for _, a := range c.Frees {
		p := x.anchors[a]
		if !p.A.Freed {
			return x.fail("%s not released", a)
		}
		freed[p.A] = true
	}
	visible := make(map[*sym.Alloc]bool)
	for _, p := range x.anchors {
		visible[p.A] = true
	}
	for _, r := range frees {
		if visible[r.A] && !freed[r.A] {
			return x.fail("undeclared release of %s", r.A.Name)
		}
	}

	// Postcondition.
	post := sym.SubstPred(c.Post, env)
	ok, err := vr.valid(x.pc, post)
	if err != nil {
		return err
	}
	if !ok {
		return x.fail("postcondition %s", post)
	}

	// Return value.
	if c.Ret != nil {
		if !x.returned {
			return x.fail("missing return value")
		}
		goal := sym.Eq(x.ret, sym.Subst(c.Ret, env))
		ok, err := vr.valid(x.pc, goal)
		if err != nil {
			return err
		}
		if !ok {
			return x.fail("returned %s, claimed %s", x.ret, c.Ret)
		}
	}

	// Footprint conformance: observed writes within the declared
	// write regions, initial-state reads within the declared readable
	// regions. Body-local allocations are private to the operation.
	declWrites := vr.spans(x, c.Writable())
	for _, r := range writes {
		if !visible[r.A] {
			continue
		}
		if !sym.Covered(r, declWrites) {
			return x.fail("undeclared write %s+%d..%d",
				r.A.Name, r.Off, r.Off+r.Len)
		}
	}
	declReads := vr.spans(x, c.Readable())
	for _, r := range sym.Coalesce(preReads) {
		if !visible[r.A] {
			continue
		}
		if !sym.Covered(r, declReads) {
			return x.fail("undeclared read %s+%d..%d",
				r.A.Name, r.Off, r.Off+r.Len)
		}
	}
	return nil
}

// spans instantiates the contract spans against the anchor bindings.
func (vr *Verifier) spans(x *Exec, spans []contract.Span) []sym.Region {
	var regions []sym.Region
	for _, span := range spans {
		p, ok := x.anchors[span.A]
		if !ok {
			continue
		}
		regions = append(regions, sym.Region{
			A:   p.A,
			Off: p.Off + span.Off,
			Len: span.Len,
		})
	}
	return regions
}
