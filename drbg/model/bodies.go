//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package model

import (
	"github.com/markkurossi/lemma/drbg"
	"github.com/markkurossi/lemma/sym"
	"github.com/markkurossi/lemma/verify"
)

// keyExpansionBody allocates the schedule object, keys a provider
// context for it, and hands the schedule back through the slot.
func keyExpansionBody(x *verify.Exec) error {
	key := x.Ptr(0)
	slot := x.Ptr(1)

	cslot := x.Alloc("cslot", sym.PtrSize)
	status, err := x.Call(AxCtxAlloc, verify.Ref(cslot))
	if err != nil {
		return err
	}
	ok, err := x.If(sym.Eq(status, success))
	if err != nil {
		return err
	}
	if !ok {
		return x.Return(failure)
	}
	ctx, err := x.LoadPtr(cslot)
	if err != nil {
		return err
	}
	status, err = x.Call(AxCtxInit, verify.Ref(ctx), verify.Ref(key))
	if err != nil {
		return err
	}
	ok, err = x.If(sym.Eq(status, success))
	if err != nil {
		return err
	}
	if !ok {
		return x.Return(failure)
	}

	kb, err := x.Load(key, drbg.KeySize)
	if err != nil {
		return err
	}
	sched := x.Alloc("sched", drbg.ScheduleSize)
	expanded := scheduleTerm(sym.Concat(kb...))
	err = x.Store(sched, sym.ExtractBytes(expanded, 0, schedPtrOff))
	if err != nil {
		return err
	}
	if err := x.StorePtr(sched.Add(schedPtrOff), ctx); err != nil {
		return err
	}
	if err := x.StorePtr(slot, sched); err != nil {
		return err
	}
	return x.Return(success)
}

// blockEncryptBody resolves the owned context and encrypts one block.
func blockEncryptBody(x *verify.Exec) error {
	sched := x.Ptr(0)
	pt := x.Ptr(1)
	ct := x.Ptr(2)

	ctx, err := x.LoadPtr(sched.Add(schedPtrOff))
	if err != nil {
		return err
	}
	status, err := x.Call(AxEncrypt,
		verify.Ref(ctx), verify.Ref(pt), verify.Ref(ct))
	if err != nil {
		return err
	}
	return x.Return(status)
}

// freeKeyScheduleBody releases the owned context and the schedule.
func freeKeyScheduleBody(x *verify.Exec) error {
	sched := x.Ptr(0)

	ctx, err := x.LoadPtr(sched.Add(schedPtrOff))
	if err != nil {
		return err
	}
	if _, err := x.Call(AxCtxFree, verify.Ref(ctx)); err != nil {
		return err
	}
	return x.Free(sched)
}

// expandInto expands the first 32 seed bytes into a fresh schedule
// and fills the state fields: cursor parked at the block boundary,
// budget set to max, counter block from the seed tail.
func expandInto(x *verify.Exec, st, seed *sym.Ptr, max *sym.Value) error {
	slot := x.Alloc("slot", sym.PtrSize)
	status, err := x.Call(OpKeyExpansion, verify.Ref(seed), verify.Ref(slot))
	if err != nil {
		return err
	}
	ok, err := x.If(sym.Eq(status, success))
	if err != nil {
		return err
	}
	if !ok {
		return x.Return(failure)
	}
	sched, err := x.LoadPtr(slot)
	if err != nil {
		return err
	}
	if err := x.StorePtr(st.Add(offSchedule), sched); err != nil {
		return err
	}
	err = x.StoreU32(st.Add(offCursor), sym.Const(drbg.BlockSize, 32))
	if err != nil {
		return err
	}
	if err := x.StoreU32(st.Add(offRemaining), max); err != nil {
		return err
	}
	v, err := x.Load(seed.Add(drbg.KeySize), drbg.BlockSize)
	if err != nil {
		return err
	}
	if err := x.Store(st.Add(offV), v); err != nil {
		return err
	}
	return x.Return(success)
}

func initBody(x *verify.Exec) error {
	return expandInto(x, x.Ptr(0), x.Ptr(1), x.Scalar(2))
}

// reseedBody releases the old schedule before rekeying.
func reseedBody(x *verify.Exec) error {
	st := x.Ptr(0)

	old, err := x.LoadPtr(st.Add(offSchedule))
	if err != nil {
		return err
	}
	if _, err := x.Call(OpFreeKeySchedule, verify.Ref(old)); err != nil {
		return err
	}
	return expandInto(x, st, x.Ptr(1), x.Scalar(2))
}

// generateBody is the keystream loop for a concrete request length:
// drain the buffered block, refill on the block boundary, fail if the
// budget is exhausted mid-request. The cursor is concretized so all
// block offsets are exact.
func generateBody(length int) verify.Body {
	return func(x *verify.Exec) error {
		st := x.Ptr(0)
		out := x.Ptr(1)

		cursorV, err := x.LoadU32(st.Add(offCursor))
		if err != nil {
			return err
		}
		c, err := x.ConcUint(cursorV, 0, drbg.BlockSize)
		if err != nil {
			return err
		}
		cursor := int(c)
		remaining, err := x.LoadU32(st.Add(offRemaining))
		if err != nil {
			return err
		}

		pos := 0
		for pos < length {
			if cursor == drbg.BlockSize {
				exhausted, err := x.If(sym.Eq(remaining, sym.Zero32))
				if err != nil {
					return err
				}
				if exhausted {
					return x.Return(failure)
				}
				ctr, err := x.Load(st.Add(offCtr), 4)
				if err != nil {
					return err
				}
				err = x.Store(st.Add(offCtr), incTerm(ctr))
				if err != nil {
					return err
				}
				sched, err := x.LoadPtr(st.Add(offSchedule))
				if err != nil {
					return err
				}
				status, err := x.Call(OpBlockEncrypt, verify.Ref(sched),
					verify.Ref(st.Add(offV)), verify.Ref(st.Add(offBlock)))
				if err != nil {
					return err
				}
				ok, err := x.If(sym.Eq(status, success))
				if err != nil {
					return err
				}
				if !ok {
					return x.Return(failure)
				}
				remaining = sym.Sub(remaining, sym.One32)
				err = x.StoreU32(st.Add(offRemaining), remaining)
				if err != nil {
					return err
				}
				cursor = 0
			}
			n := drbg.BlockSize - cursor
			if n > length-pos {
				n = length - pos
			}
			b, err := x.Load(st.Add(offBlock+cursor), n)
			if err != nil {
				return err
			}
			if err := x.Store(out.Add(pos), b); err != nil {
				return err
			}
			pos += n
			cursor += n
		}

		err = x.StoreU32(st.Add(offCursor), sym.Const(uint64(cursor), 32))
		if err != nil {
			return err
		}
		if err := x.StoreU32(st.Add(offRemaining), remaining); err != nil {
			return err
		}
		return x.Return(success)
	}
}

// finalizeBody releases the owned objects and zeroizes the state.
func finalizeBody(x *verify.Exec) error {
	st := x.Ptr(0)

	sched, err := x.LoadPtr(st.Add(offSchedule))
	if err != nil {
		return err
	}
	if _, err := x.Call(OpFreeKeySchedule, verify.Ref(sched)); err != nil {
		return err
	}
	return x.Store(st, sym.ConstBytes(make([]byte, stateSize)))
}

// randomIndexBody reduces four keystream bytes modulo n.
func randomIndexBody(x *verify.Exec) error {
	st := x.Ptr(0)
	n := x.Scalar(1)
	res := x.Ptr(2)

	buf := x.Alloc("buf", 4)
	status, err := x.Call(OpPRFGenerateAny, verify.Ref(st), verify.Ref(buf))
	if err != nil {
		return err
	}
	ok, err := x.If(sym.Eq(status, success))
	if err != nil {
		return err
	}
	if !ok {
		return x.Return(failure)
	}
	b, err := x.Load(buf, 4)
	if err != nil {
		return err
	}
	idx := sym.Umod(sym.U32LE(b), n)
	if err := x.Store(res, sym.U32Bytes(idx)); err != nil {
		return err
	}
	return x.Return(success)
}
