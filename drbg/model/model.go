//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package model states and establishes the operation contracts of the
// drbg package: the model bodies re-express the operations over
// symbolic memory, the contracts state their preconditions,
// postconditions, and footprints, and Script returns the ordered
// proof plan for the whole suite. The cipher provider operations
// enter the plan as axiom contracts and are never re-verified.
package model

import (
	"crypto/aes"

	"github.com/markkurossi/lemma/contract"
	"github.com/markkurossi/lemma/drbg"
	"github.com/markkurossi/lemma/sym"
)

// Operation names of the contract surface.
const (
	OpKeyExpansion    = "key_expansion"
	OpBlockEncrypt    = "block_encrypt"
	OpFreeKeySchedule = "free_key_schedule"
	OpPRFInit         = "prf_init"
	OpPRFGenerate     = "prf_generate"
	OpPRFGenerateAny  = "prf_generate_any"
	OpPRFReseed       = "prf_reseed"
	OpPRFFinalize     = "prf_finalize"
	OpRandomIndex     = "random_index"
)

// Cipher provider operations, established externally.
const (
	AxCtxAlloc = "aes256_ctx_alloc"
	AxCtxInit  = "aes256_ctx_init"
	AxEncrypt  = "aes256_encrypt"
	AxCtxFree  = "aes256_ctx_free"
)

// Modeled layout of the generator state.
const (
	offCursor    = 0
	offRemaining = 4
	offSchedule  = 8
	offV         = 16
	offCtr       = offV + drbg.BlockSize - 4
	offBlock     = 32
	stateSize    = 48
)

// Modeled layout of the key schedule object and the cipher context:
// the schedule holds the expanded key followed by the context handle;
// the context holds the key material and the provider bookkeeping.
const (
	schedPtrOff = drbg.ScheduleSize - sym.PtrSize
	ctxSize     = drbg.KeySize + 8
	ctxBookOff  = drbg.KeySize
	ctxBookLen  = 8
)

// Status code terms of the contract surface.
var (
	success = statusTerm(drbg.StatusSuccess)
	failure = statusTerm(drbg.StatusFailure)
)

// statusTerm is the 32-bit term pattern of the status code.
func statusTerm(status int32) *sym.Value {
	return sym.Const(uint64(uint32(status)), 32)
}

// cipherTerm is the single-block encryption of blk under key, as an
// uninterpreted 128-bit function application.
func cipherTerm(key, blk *sym.Value) *sym.Value {
	return sym.Apply("aes256", drbg.BlockSize*8, key, blk)
}

// scheduleTerm is the expanded-key contents of the schedule object.
func scheduleTerm(key *sym.Value) *sym.Value {
	return sym.Apply("aes256_key_schedule", schedPtrOff*8, key)
}

// incTerm increments the 32-bit big-endian block counter.
func incTerm(ctr sym.Bytes) sym.Bytes {
	return sym.U32BEBytes(sym.Add(sym.U32BE(ctr), sym.One32))
}

// Interp returns concrete interpretations for the cipher function
// symbols, used to evaluate contract terms against the production
// implementation.
func Interp() sym.Interp {
	return sym.Interp{
		"aes256": func(args ...[]byte) ([]byte, error) {
			block, err := aes.NewCipher(args[0])
			if err != nil {
				return nil, err
			}
			out := make([]byte, aes.BlockSize)
			block.Encrypt(out, args[1])
			return out, nil
		},
	}
}

// ctxAllocSpec: the provider allocates a cipher context and hands it
// back through the pointer slot. The contents are undefined until
// initialization.
func ctxAllocSpec(s *contract.Setup) {
	slot := s.Alloc("slot", sym.PtrSize)
	s.Execute(contract.PtrTo(slot))
	ctx := s.Allocates("ctx", ctxSize)
	s.PointsToPtrPost(slot, 0, ctx)
	s.Returns(success)
}

// ctxInitSpec: the provider keys the context. The bookkeeping region
// is updated to an unconstrained new value.
func ctxInitSpec(s *contract.Setup) {
	ctx := s.Alloc("ctx", ctxSize)
	key := s.Alloc("key", drbg.KeySize)
	k := s.FreshBytes("k", drbg.KeySize)
	s.PointsTo(key, 0, k)
	s.Execute(contract.PtrTo(ctx), contract.PtrTo(key))
	s.PointsToPost(ctx, 0, k)
	s.WritesOnly(ctx, ctxBookOff, ctxBookLen)
	s.Returns(success)
}

// encryptSpec: the provider encrypts one block. Exactly BlockSize
// output bytes are written; the bookkeeping changes.
func encryptSpec(s *contract.Setup) {
	ctx := s.Alloc("ctx", ctxSize)
	src := s.Alloc("src", drbg.BlockSize)
	dst := s.Alloc("dst", drbg.BlockSize)
	k := s.FreshBytes("k", drbg.KeySize)
	pt := s.FreshBytes("pt", drbg.BlockSize)
	s.PointsTo(ctx, 0, k)
	s.PointsTo(src, 0, pt)
	s.Execute(contract.PtrTo(ctx), contract.PtrTo(src), contract.PtrTo(dst))
	ct := cipherTerm(sym.Concat(k...), sym.Concat(pt...))
	s.PointsToPost(dst, 0, sym.ExtractBytes(ct, 0, drbg.BlockSize))
	s.WritesOnly(ctx, ctxBookOff, ctxBookLen)
	s.Returns(success)
}

// ctxFreeSpec: the provider releases the context.
func ctxFreeSpec(s *contract.Setup) {
	ctx := s.Alloc("ctx", ctxSize)
	s.Execute(contract.PtrTo(ctx))
	s.Frees(ctx)
}

// Axioms elaborates the cipher provider contracts.
func Axioms() ([]*contract.Contract, error) {
	specs := []struct {
		name string
		spec contract.Spec
	}{
		{AxCtxAlloc, ctxAllocSpec},
		{AxCtxInit, ctxInitSpec},
		{AxEncrypt, encryptSpec},
		{AxCtxFree, ctxFreeSpec},
	}
	var axioms []*contract.Contract
	for _, ax := range specs {
		c, err := contract.Elaborate(ax.name, ax.spec)
		if err != nil {
			return nil, err
		}
		axioms = append(axioms, c)
	}
	return axioms, nil
}
