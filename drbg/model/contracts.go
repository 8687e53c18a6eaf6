//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package model

import (
	"github.com/markkurossi/lemma/contract"
	"github.com/markkurossi/lemma/drbg"
	"github.com/markkurossi/lemma/sym"
)

// statePre is the pre-state of an initialized generator: the state
// object, the key schedule it owns, and the cipher context the
// schedule owns.
type statePre struct {
	state  *contract.Anchor
	sched  *contract.Anchor
	ctx    *contract.Anchor
	cursor *sym.Value
	rem    *sym.Value
	v      sym.Bytes
	block  sym.Bytes
	key    sym.Bytes
}

// activeState declares the initialized generator shape: all state
// fields hold symbolic inputs, the schedule pointer chain is intact,
// and the cursor is within the block.
func activeState(s *contract.Setup) *statePre {
	p := &statePre{
		state:  s.Alloc("state", stateSize),
		sched:  s.Alloc("sched", drbg.ScheduleSize),
		ctx:    s.Alloc("ctx", ctxSize),
		cursor: s.Fresh("cursor", 32),
		rem:    s.Fresh("remaining", 32),
	}
	p.v = s.FreshBytes("v", drbg.BlockSize)
	p.block = s.FreshBytes("block", drbg.BlockSize)
	p.key = s.FreshBytes("k", drbg.KeySize)
	s.PointsTo(p.state, offCursor, sym.U32Bytes(p.cursor))
	s.PointsTo(p.state, offRemaining, sym.U32Bytes(p.rem))
	s.PointsTo(p.state, offV, p.v)
	s.PointsTo(p.state, offBlock, p.block)
	s.PointsToPtr(p.state, offSchedule, p.sched)
	s.PointsToPtr(p.sched, schedPtrOff, p.ctx)
	s.PointsTo(p.ctx, 0, p.key)
	s.Require(sym.Ule(p.cursor, sym.Const(drbg.BlockSize, 32)))
	return p
}

// keyExpansionSpec: expand a 32-byte key into a fresh key schedule
// object and hand it back through the pointer slot. The schedule owns
// a keyed cipher context.
func keyExpansionSpec(s *contract.Setup) {
	key := s.Alloc("key", drbg.KeySize)
	slot := s.Alloc("slot", sym.PtrSize)
	k := s.FreshBytes("k", drbg.KeySize)
	s.PointsTo(key, 0, k)
	s.Execute(contract.PtrTo(key), contract.PtrTo(slot))

	sched := s.Allocates("sched", drbg.ScheduleSize)
	ctx := s.Allocates("ctx", ctxSize)
	expanded := scheduleTerm(sym.Concat(k...))
	s.PointsToPost(sched, 0, sym.ExtractBytes(expanded, 0, schedPtrOff))
	s.PointsToPost(ctx, 0, k)
	s.WritesOnly(ctx, ctxBookOff, ctxBookLen)
	s.PointsToPtrPost(sched, schedPtrOff, ctx)
	s.PointsToPtrPost(slot, 0, sched)
	s.Returns(success)
}

// blockEncryptSpec: encrypt one block under an expanded key schedule.
func blockEncryptSpec(s *contract.Setup) {
	sched := s.Alloc("sched", drbg.ScheduleSize)
	ctx := s.Alloc("ctx", ctxSize)
	pt := s.Alloc("pt", drbg.BlockSize)
	ct := s.Alloc("ct", drbg.BlockSize)
	k := s.FreshBytes("k", drbg.KeySize)
	p := s.FreshBytes("pt", drbg.BlockSize)
	s.PointsToPtr(sched, schedPtrOff, ctx)
	s.PointsTo(ctx, 0, k)
	s.PointsTo(pt, 0, p)
	s.Execute(contract.PtrTo(sched), contract.PtrTo(pt), contract.PtrTo(ct))

	out := cipherTerm(sym.Concat(k...), sym.Concat(p...))
	s.PointsToPost(ct, 0, sym.ExtractBytes(out, 0, drbg.BlockSize))
	s.WritesOnly(ctx, ctxBookOff, ctxBookLen)
	s.Returns(success)
}

// freeKeyScheduleSpec: release the key schedule and the cipher
// context it owns.
func freeKeyScheduleSpec(s *contract.Setup) {
	sched := s.Alloc("sched", drbg.ScheduleSize)
	ctx := s.Alloc("ctx", ctxSize)
	s.PointsToPtr(sched, schedPtrOff, ctx)
	s.Execute(contract.PtrTo(sched))
	s.Frees(sched)
	s.Frees(ctx)
}

// initSpec: key the generator from a 48-byte seed and set the
// invocation budget. The cursor parks at the block boundary so the
// first generate call derives fresh keystream.
func initSpec(s *contract.Setup) {
	state := s.Alloc("state", stateSize)
	seed := s.Alloc("seed", drbg.SeedSize)
	sd := s.FreshBytes("seed", drbg.SeedSize)
	max := s.Fresh("max", 32)
	s.PointsTo(seed, 0, sd)
	s.Require(sym.Uge(max, sym.One32))
	s.Execute(contract.PtrTo(state), contract.PtrTo(seed), contract.Val(max))

	sched := s.Allocates("sched", drbg.ScheduleSize)
	ctx := s.Allocates("ctx", ctxSize)
	key := sym.Concat(sd[:drbg.KeySize]...)
	s.PointsToPost(state, offCursor,
		sym.U32Bytes(sym.Const(drbg.BlockSize, 32)))
	s.PointsToPost(state, offRemaining, sym.U32Bytes(max))
	s.PointsToPost(state, offV, sd[drbg.KeySize:])
	s.PointsToPtrPost(state, offSchedule, sched)
	s.PointsToPost(sched, 0, sym.ExtractBytes(scheduleTerm(key), 0,
		schedPtrOff))
	s.PointsToPtrPost(sched, schedPtrOff, ctx)
	s.PointsToPost(ctx, 0, sd[:drbg.KeySize])
	s.WritesOnly(ctx, ctxBookOff, ctxBookLen)
	s.Returns(success)
}

// generateSpec: produce length keystream bytes from an initialized
// generator whose remaining budget covers the worst-case refill count
// of the request. The cursor stays within the block and the budget
// decreases by at most length/16+1.
func generateSpec(length int) contract.Spec {
	return func(s *contract.Setup) {
		st := activeState(s)
		out := s.Alloc("out", length)
		budget := sym.Const(uint64(length/drbg.BlockSize)+1, 32)
		s.Require(sym.Uge(st.rem, budget))
		s.Execute(contract.PtrTo(st.state), contract.PtrTo(out))

		generatePost(s, st, out, length, budget)
	}
}

// generateAnySpec is generateSpec without the budget precondition:
// the success postcondition is not provable because the refill loop
// can exhaust the budget mid-request. The plan admits this contract;
// every lemma depending on it is tainted.
func generateAnySpec(length int) contract.Spec {
	return func(s *contract.Setup) {
		st := activeState(s)
		out := s.Alloc("out", length)
		budget := sym.Const(uint64(length/drbg.BlockSize)+1, 32)
		s.Execute(contract.PtrTo(st.state), contract.PtrTo(out))

		generatePost(s, st, out, length, budget)
	}
}

// generatePost states the shared post-state of the generate variants.
func generatePost(s *contract.Setup, st *statePre, out *contract.Anchor,
	length int, budget *sym.Value) {

	cursor := s.Fresh("cursor", 32)
	rem := s.Fresh("remaining", 32)
	s.PointsToPost(st.state, offCursor, sym.U32Bytes(cursor))
	s.PointsToPost(st.state, offRemaining, sym.U32Bytes(rem))
	if length > 0 {
		s.PointsToPost(out, 0, s.FreshBytes("out", length))
	}
	s.WritesOnly(st.state, offV, 2*drbg.BlockSize)
	s.WritesOnly(st.ctx, ctxBookOff, ctxBookLen)
	s.Ensure(sym.Ule(cursor, sym.Const(drbg.BlockSize, 32)))
	s.Ensure(sym.Uge(rem, sym.Sub(st.rem, budget)))
	s.Returns(success)
}

// reseedSpec: rekey an initialized generator from a fresh seed. The
// old schedule and context are released and replaced.
func reseedSpec(s *contract.Setup) {
	state := s.Alloc("state", stateSize)
	oldSched := s.Alloc("sched", drbg.ScheduleSize)
	oldCtx := s.Alloc("ctx", ctxSize)
	seed := s.Alloc("seed", drbg.SeedSize)
	sd := s.FreshBytes("seed", drbg.SeedSize)
	max := s.Fresh("max", 32)
	s.PointsToPtr(state, offSchedule, oldSched)
	s.PointsToPtr(oldSched, schedPtrOff, oldCtx)
	s.PointsTo(seed, 0, sd)
	s.Require(sym.Uge(max, sym.One32))
	s.Execute(contract.PtrTo(state), contract.PtrTo(seed), contract.Val(max))

	sched := s.Allocates("sched'", drbg.ScheduleSize)
	ctx := s.Allocates("ctx'", ctxSize)
	s.Frees(oldSched)
	s.Frees(oldCtx)
	key := sym.Concat(sd[:drbg.KeySize]...)
	s.PointsToPost(state, offCursor,
		sym.U32Bytes(sym.Const(drbg.BlockSize, 32)))
	s.PointsToPost(state, offRemaining, sym.U32Bytes(max))
	s.PointsToPost(state, offV, sd[drbg.KeySize:])
	s.PointsToPtrPost(state, offSchedule, sched)
	s.PointsToPost(sched, 0, sym.ExtractBytes(scheduleTerm(key), 0,
		schedPtrOff))
	s.PointsToPtrPost(sched, schedPtrOff, ctx)
	s.PointsToPost(ctx, 0, sd[:drbg.KeySize])
	s.WritesOnly(ctx, ctxBookOff, ctxBookLen)
	s.Returns(success)
}

// finalizeSpec: release the owned objects and zeroize the state.
func finalizeSpec(s *contract.Setup) {
	state := s.Alloc("state", stateSize)
	sched := s.Alloc("sched", drbg.ScheduleSize)
	ctx := s.Alloc("ctx", ctxSize)
	s.PointsToPtr(state, offSchedule, sched)
	s.PointsToPtr(sched, schedPtrOff, ctx)
	s.Execute(contract.PtrTo(state))

	s.Frees(sched)
	s.Frees(ctx)
	s.PointsToPost(state, 0, sym.ConstBytes(make([]byte, stateSize)))
}

// randomIndexSpec: produce a uniformly sampled index below n by
// reducing four keystream bytes modulo n.
func randomIndexSpec(s *contract.Setup) {
	st := activeState(s)
	res := s.Alloc("res", 4)
	n := s.Fresh("n", 32)
	s.Require(sym.Uge(n, sym.One32))
	s.Execute(contract.PtrTo(st.state), contract.Val(n), contract.PtrTo(res))

	cursor := s.Fresh("cursor", 32)
	rem := s.Fresh("remaining", 32)
	r := s.Fresh("r", 32)
	s.PointsToPost(st.state, offCursor, sym.U32Bytes(cursor))
	s.PointsToPost(st.state, offRemaining, sym.U32Bytes(rem))
	s.PointsToPost(res, 0, sym.U32Bytes(r))
	s.WritesOnly(st.state, offV, 2*drbg.BlockSize)
	s.WritesOnly(st.ctx, ctxBookOff, ctxBookLen)
	s.Ensure(sym.Ult(r, n))
	s.Ensure(sym.Ule(cursor, sym.Const(drbg.BlockSize, 32)))
	s.Returns(success)
}
