//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package drbg implements the verified AES-256-CTR pseudorandom
// generator: key-schedule expansion, single-block encryption, and the
// stateful generator with a byte cursor into the current keystream
// block and a remaining-invocation budget. The operation contracts
// are stated and established in drbg/model.
package drbg

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
)

// Fixed sizes and limits of the byte-level surface.
const (
	// KeySize is the AES-256 key size in bytes.
	KeySize = 32

	// BlockSize is the AES block size in bytes.
	BlockSize = 16

	// SeedSize is the seed size in bytes: a 32-byte key followed by a
	// 16-byte counter block seed.
	SeedSize = KeySize + BlockSize

	// ScheduleSize is the modeled size of the expanded key schedule
	// object: the 240-byte expanded key plus the 8-byte cipher
	// context handle.
	ScheduleSize = 248

	// MaxGenerate is the exclusive upper bound for one generate
	// request, guarding the internal 32-bit position arithmetic
	// against wrapping.
	MaxGenerate = 1<<32 - BlockSize
)

// Status codes of the byte-level contract surface.
const (
	StatusSuccess int32 = 0
	StatusFailure int32 = -1
)

// Generator errors.
var (
	ErrKeySize         = errors.New("drbg: invalid key size")
	ErrZeroBudget      = errors.New("drbg: invocation budget is zero")
	ErrFinalized       = errors.New("drbg: state is finalized")
	ErrTooLong         = errors.New("drbg: request too long")
	ErrRange           = errors.New("drbg: empty index range")
	ErrPersonalization = errors.New("drbg: personalization too long")
)

// KeySchedule is the expanded AES-256 key and its cipher context
// handle. It is exclusively owned by the state that created it and
// released exactly once.
type KeySchedule struct {
	block cipher.Block
	key   [KeySize]byte
	ops   uint64
}

// Expand expands the 32-byte key into a key schedule. The associated
// cipher context is allocated here; expansion has no failure branch
// beyond the key size precondition.
func Expand(key []byte) (*KeySchedule, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	ks := &KeySchedule{
		block: block,
	}
	copy(ks.key[:], key)
	return ks, nil
}

// Encrypt encrypts the 16-byte block src into dst. Exactly BlockSize
// bytes are written. The context bookkeeping is updated on every
// call.
func (ks *KeySchedule) Encrypt(dst, src []byte) {
	if ks.block == nil {
		panic("drbg: use of freed key schedule")
	}
	ks.block.Encrypt(dst, src)
	ks.ops++
}

// Free consumes the schedule: the key material is zeroized and the
// cipher context handle is dropped. Use after Free is a programming
// error.
func (ks *KeySchedule) Free() {
	for idx := range ks.key {
		ks.key[idx] = 0
	}
	ks.block = nil
}
