//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package drbg

import (
	"encoding/binary"
	"fmt"
)

// ExhaustedError reports that the invocation budget ran out in the
// middle of a generate call. The output buffer contents are undefined:
// it may be partially or entirely unwritten.
type ExhaustedError struct {
	Requested int
	Written   int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("drbg: invocation budget exhausted after %d of %d bytes",
		e.Written, e.Requested)
}

// Budget returns the invocation budget a generate call of length bytes
// requires: length/16+1 blocks. The bound is conservative; it reserves
// one extra block even when length is an exact multiple of the block
// size.
func Budget(length int) uint32 {
	return uint32(length/BlockSize) + 1
}

// State is the generator state: the byte cursor into the current
// keystream block, the remaining invocation budget, and the owned key
// schedule. A state is created by Init, mutated only by Generate and
// Reseed, and destroyed by Finalize. It is not safe for concurrent
// use.
type State struct {
	cursor    uint32
	remaining uint32
	schedule  *KeySchedule
	v         [BlockSize]byte
	block     [BlockSize]byte
}

// Init creates a generator from the seed: the first 32 seed bytes key
// the cipher, the last 16 seed the counter block. The personalization
// string, up to SeedSize bytes, is folded into the seed. The budget
// max must be positive. The cursor starts parked at the block end so
// the first generate call produces a fresh block.
func Init(seed *[SeedSize]byte, personalization []byte, max uint32) (
	*State, error) {

	if max == 0 {
		return nil, ErrZeroBudget
	}
	if len(personalization) > SeedSize {
		return nil, ErrPersonalization
	}
	material := *seed
	for idx, b := range personalization {
		material[idx] ^= b
	}
	schedule, err := Expand(material[:KeySize])
	if err != nil {
		return nil, err
	}
	s := &State{
		cursor:    BlockSize,
		remaining: max,
		schedule:  schedule,
	}
	copy(s.v[:], material[KeySize:])
	return s, nil
}

// Remaining returns the remaining invocation budget.
func (s *State) Remaining() uint32 {
	return s.remaining
}

// Generate fills out with keystream bytes, encrypting successive
// counter blocks and serving partial blocks through the cursor. Every
// fully produced block costs one invocation. A call is guaranteed to
// succeed when the remaining budget is at least Budget(len(out)); on
// exhaustion mid-operation it returns *ExhaustedError and the
// contents of out are undefined. An empty out succeeds without
// touching the state.
func (s *State) Generate(out []byte) error {
	if s.schedule == nil {
		return ErrFinalized
	}
	if uint64(len(out)) >= MaxGenerate {
		return ErrTooLong
	}
	for pos := 0; pos < len(out); {
		if s.cursor == BlockSize {
			if s.remaining == 0 {
				return &ExhaustedError{
					Requested: len(out),
					Written:   pos,
				}
			}
			ctr := binary.BigEndian.Uint32(s.v[BlockSize-4:])
			binary.BigEndian.PutUint32(s.v[BlockSize-4:], ctr+1)
			s.schedule.Encrypt(s.block[:], s.v[:])
			s.remaining--
			s.cursor = 0
		}
		n := copy(out[pos:], s.block[s.cursor:])
		pos += n
		s.cursor += uint32(n)
	}
	return nil
}

// Reseed rekeys the generator: the old schedule is released, the new
// seed is expanded, the counter block is reset from the seed, the
// cursor is parked, and the budget is restored to max.
func (s *State) Reseed(seed *[SeedSize]byte, max uint32) error {
	if s.schedule == nil {
		return ErrFinalized
	}
	if max == 0 {
		return ErrZeroBudget
	}
	s.schedule.Free()
	schedule, err := Expand(seed[:KeySize])
	if err != nil {
		return err
	}
	s.schedule = schedule
	copy(s.v[:], seed[KeySize:])
	s.cursor = BlockSize
	s.remaining = max
	return nil
}

// Finalize releases the key schedule and wipes the state. The state
// is terminal afterwards; Generate returns ErrFinalized.
func (s *State) Finalize() {
	if s.schedule != nil {
		s.schedule.Free()
		s.schedule = nil
	}
	for idx := range s.v {
		s.v[idx] = 0
		s.block[idx] = 0
	}
	s.cursor = 0
	s.remaining = 0
}

// RandomIndex returns a uniform-ish index in [0,n) by reducing four
// keystream bytes modulo n. This is the one call site that cannot
// carry the budget precondition: exhaustion is propagated to the
// caller instead of being excluded by contract.
func RandomIndex(s *State, n uint32) (uint32, error) {
	if n == 0 {
		return 0, ErrRange
	}
	var b [4]byte
	if err := s.Generate(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]) % n, nil
}
