//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package drbg

import (
	"bytes"
	"testing"

	"github.com/markkurossi/lemma/env"
)

func TestNewSeed(t *testing.T) {
	config := &env.Config{
		Rand: bytes.NewReader(testSeed(0)[:]),
	}
	seed, err := NewSeed(config)
	if err != nil {
		t.Fatalf("NewSeed: %v", err)
	}
	if !bytes.Equal(seed[:], testSeed(0)[:]) {
		t.Errorf("seed does not match the entropy source")
	}

	// Short entropy source fails.
	config.Rand = bytes.NewReader([]byte{1, 2, 3})
	if _, err := NewSeed(config); err == nil {
		t.Errorf("short entropy source accepted")
	}

	// Nil config falls back to the system source.
	if _, err := NewSeed(nil); err != nil {
		t.Errorf("NewSeed(nil): %v", err)
	}
}

func TestSeedFromMaterial(t *testing.T) {
	a, err := SeedFromMaterial([]byte("material"), []byte("a"))
	if err != nil {
		t.Fatalf("SeedFromMaterial: %v", err)
	}
	b, err := SeedFromMaterial([]byte("material"), []byte("a"))
	if err != nil {
		t.Fatalf("SeedFromMaterial: %v", err)
	}
	if !bytes.Equal(a[:], b[:]) {
		t.Errorf("derivation is not deterministic")
	}
	c, err := SeedFromMaterial([]byte("material"), []byte("b"))
	if err != nil {
		t.Fatalf("SeedFromMaterial: %v", err)
	}
	if bytes.Equal(a[:], c[:]) {
		t.Errorf("info string does not separate derivations")
	}
}
