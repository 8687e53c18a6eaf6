//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package drbg

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/markkurossi/lemma/env"
	"golang.org/x/crypto/hkdf"
)

// NewSeed draws a fresh seed from the configured entropy source.
func NewSeed(config *env.Config) (*[SeedSize]byte, error) {
	if config == nil {
		config = &env.Config{}
	}
	seed := new([SeedSize]byte)
	if _, err := io.ReadFull(config.GetRandom(), seed[:]); err != nil {
		return nil, fmt.Errorf("drbg: seed: %w", err)
	}
	return seed, nil
}

// SeedFromMaterial stretches arbitrary keying material into a seed
// with HKDF-SHA-256. The info string separates independent uses of
// the same material.
func SeedFromMaterial(material, info []byte) (*[SeedSize]byte, error) {
	r := hkdf.New(sha256.New, material, nil, info)
	seed := new([SeedSize]byte)
	if _, err := io.ReadFull(r, seed[:]); err != nil {
		return nil, fmt.Errorf("drbg: seed material: %w", err)
	}
	return seed, nil
}
