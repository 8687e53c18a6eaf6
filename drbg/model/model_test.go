//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package model

import (
	"bytes"
	"testing"

	"github.com/markkurossi/lemma"
	"github.com/markkurossi/lemma/contract"
	"github.com/markkurossi/lemma/drbg"
	"github.com/markkurossi/lemma/sym"
	"github.com/markkurossi/lemma/verify"
)

func TestAxioms(t *testing.T) {
	axioms, err := Axioms()
	if err != nil {
		t.Fatalf("Axioms: %v", err)
	}
	if len(axioms) != 4 {
		t.Fatalf("got %d axioms, expected 4", len(axioms))
	}
	names := map[string]bool{}
	for _, ax := range axioms {
		names[ax.Name] = true
	}
	for _, name := range []string{AxCtxAlloc, AxCtxInit, AxEncrypt,
		AxCtxFree} {
		if !names[name] {
			t.Errorf("axiom %s missing", name)
		}
	}
}

func TestStatusTerms(t *testing.T) {
	// The status terms are the 32-bit patterns of the drbg status
	// codes.
	if k, ok := success.ConstUint(); !ok || k != 0 {
		t.Errorf("success term %v", success)
	}
	if k, ok := failure.ConstUint(); !ok || k != 0xffffffff {
		t.Errorf("failure term %v", failure)
	}
}

func TestScript(t *testing.T) {
	plan, err := Script()
	if err != nil {
		t.Fatalf("Script: %v", err)
	}
	store := lemma.NewStore()
	report, err := plan.Run(store, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	numSteps := 4 + len(DefaultLengths) + 4
	if len(report.Results) != numSteps {
		t.Fatalf("got %d results, expected %d",
			len(report.Results), numSteps)
	}
	if report.Admitted() != 1 {
		t.Errorf("got %d admitted lemmas, expected 1", report.Admitted())
	}
	for _, result := range report.Results {
		switch result.Name {
		case OpPRFGenerateAny:
			if result.Status != lemma.Admitted {
				t.Errorf("%s: status %s", result.Name, result.Status)
			}
			if result.Trusted {
				t.Errorf("%s: trusted", result.Name)
			}
		case OpRandomIndex:
			if result.Status != lemma.Verified {
				t.Errorf("%s: status %s", result.Name, result.Status)
			}
			if result.Trusted {
				t.Errorf("%s: trusted through an admitted dependency",
					result.Name)
			}
		default:
			if result.Status != lemma.Verified {
				t.Errorf("%s: status %s", result.Name, result.Status)
			}
			if !result.Trusted {
				t.Errorf("%s: not trusted", result.Name)
			}
		}
	}

	// The cursor concretization forks the generate body over the 17
	// feasible cursor values.
	for _, result := range report.Results {
		if result.Name == GenerateName(16) && result.Paths != 17 {
			t.Errorf("%s: %d paths", result.Name, result.Paths)
		}
	}

	trusted, err := store.Trusted(OpPRFFinalize)
	if err != nil {
		t.Fatalf("Trusted: %v", err)
	}
	if !trusted {
		t.Errorf("%s not trusted", OpPRFFinalize)
	}
}

func TestScriptLengthRange(t *testing.T) {
	if _, err := Script(-1); err == nil {
		t.Error("negative length accepted")
	}
	if _, err := Script(drbg.MaxGenerate); err == nil {
		t.Error("out-of-range length accepted")
	}
}

// TestGenerateAnyUnverifiable checks that the unbudgeted generate
// contract does not verify: without the budget precondition the body
// can exhaust the budget mid-request, contradicting the success
// postcondition. The contract is only establishable by admission.
func TestGenerateAnyUnverifiable(t *testing.T) {
	store := lemma.NewStore()
	axioms, err := Axioms()
	if err != nil {
		t.Fatalf("Axioms: %v", err)
	}
	if err := store.Seed(axioms...); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	vr := verify.New(store, nil)
	_, err = vr.Verify(verify.Op{
		Name: OpBlockEncrypt,
		Body: blockEncryptBody,
	}, []string{AxEncrypt}, blockEncryptSpec)
	if err != nil {
		t.Fatalf("Verify %s: %v", OpBlockEncrypt, err)
	}

	_, err = vr.Verify(verify.Op{
		Name: OpPRFGenerateAny,
		Body: generateBody(4),
	}, []string{OpBlockEncrypt}, generateAnySpec(4))
	if err == nil {
		t.Fatal("unbudgeted generate verified")
	}

	l, err := vr.Admit(verify.Op{
		Name: OpPRFGenerateAny,
		Body: generateBody(4),
	}, []string{OpBlockEncrypt}, generateAnySpec(4))
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if l.Status != lemma.Admitted {
		t.Errorf("status %s", l.Status)
	}
}

// TestKeystreamEquivalence evaluates the modeled keystream terms,
// built with the same term constructors the contracts use, under the
// concrete cipher interpretation and compares them with the
// production generator output.
func TestKeystreamEquivalence(t *testing.T) {
	var seed [drbg.SeedSize]byte
	for i := range seed {
		seed[i] = byte(i*7 + 3)
	}
	s, err := drbg.Init(&seed, nil, 16)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer s.Finalize()
	out := make([]byte, 3*drbg.BlockSize)
	if err := s.Generate(out); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	in := Interp()
	key := sym.Concat(sym.ConstBytes(seed[:drbg.KeySize])...)
	v := sym.ConstBytes(seed[drbg.KeySize:])
	for blk := 0; blk < 3; blk++ {
		ctr := incTerm(v[12:16])
		v = append(append(sym.Bytes{}, v[:12]...), ctr...)
		term := cipherTerm(key, sym.Concat(v...))
		got, err := sym.EvalBytes(sym.ExtractBytes(term, 0, drbg.BlockSize),
			nil, in)
		if err != nil {
			t.Fatalf("block %d: %v", blk, err)
		}
		expected := out[blk*drbg.BlockSize : (blk+1)*drbg.BlockSize]
		if !bytes.Equal(got, expected) {
			t.Errorf("block %d: got %x, expected %x", blk, got, expected)
		}
	}
}

// TestEncryptContractEval evaluates the cipher provider contract's
// output claim under a concrete valuation and compares it with the
// production key schedule.
func TestEncryptContractEval(t *testing.T) {
	c, err := contract.Elaborate(AxEncrypt, encryptSpec)
	if err != nil {
		t.Fatalf("Elaborate: %v", err)
	}
	if len(c.PostMem) != 1 {
		t.Fatalf("got %d output claims, expected 1", len(c.PostMem))
	}
	if len(c.Vars) != 2 {
		t.Fatalf("got %d input variables, expected 2", len(c.Vars))
	}

	key := make([]byte, drbg.KeySize)
	pt := make([]byte, drbg.BlockSize)
	for i := range key {
		key[i] = byte(i + 1)
	}
	for i := range pt {
		pt[i] = byte(0xf0 - i)
	}
	env := sym.Env{}
	env.SetBytes(c.Vars[0], key)
	env.SetBytes(c.Vars[1], pt)
	got, err := sym.EvalBytes(c.PostMem[0].B, env, Interp())
	if err != nil {
		t.Fatalf("EvalBytes: %v", err)
	}

	ks, err := drbg.Expand(key)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	defer ks.Free()
	expected := make([]byte, drbg.BlockSize)
	ks.Encrypt(expected, pt)
	if !bytes.Equal(got, expected) {
		t.Errorf("got %x, expected %x", got, expected)
	}
}
