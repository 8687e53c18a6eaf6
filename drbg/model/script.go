//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package model

import (
	"fmt"

	"github.com/markkurossi/lemma/drbg"
	"github.com/markkurossi/lemma/proof"
	"github.com/markkurossi/lemma/verify"
)

// DefaultLengths are the generate request lengths established by the
// default proof plan: zero, sub-block, block-boundary, and multi-block
// requests, including both sides of each boundary.
var DefaultLengths = []int{0, 1, 4, 15, 16, 17, 32, 47, 48}

// ShortLengths is an abbreviated length set for quick runs.
var ShortLengths = []int{0, 4, 16, 17}

// GenerateName returns the lemma name of the budgeted generate
// operation for the given request length.
func GenerateName(length int) string {
	return fmt.Sprintf("%s/%d", OpPRFGenerate, length)
}

// Script returns the proof plan of the generator suite in dependency
// order: cipher provider contracts enter as axioms, every other lemma
// is verified before anything depending on it, and the unbudgeted
// generate variant is admitted. Lemmas downstream of the admitted
// contract are tainted in the resulting store.
func Script(lengths ...int) (*proof.Plan, error) {
	if len(lengths) == 0 {
		lengths = DefaultLengths
	}
	for _, l := range lengths {
		if l < 0 || l >= drbg.MaxGenerate {
			return nil, fmt.Errorf("model: generate length %d", l)
		}
	}
	axioms, err := Axioms()
	if err != nil {
		return nil, err
	}
	plan := &proof.Plan{
		Axioms: axioms,
	}
	plan.Steps = append(plan.Steps,
		&proof.Step{
			Op:   verify.Op{Name: OpKeyExpansion, Body: keyExpansionBody},
			Deps: []string{AxCtxAlloc, AxCtxInit},
			Spec: keyExpansionSpec,
		},
		&proof.Step{
			Op: verify.Op{
				Name: OpFreeKeySchedule,
				Body: freeKeyScheduleBody,
			},
			Deps: []string{AxCtxFree},
			Spec: freeKeyScheduleSpec,
		},
		&proof.Step{
			Op:   verify.Op{Name: OpBlockEncrypt, Body: blockEncryptBody},
			Deps: []string{AxEncrypt},
			Spec: blockEncryptSpec,
		},
		&proof.Step{
			Op:   verify.Op{Name: OpPRFInit, Body: initBody},
			Deps: []string{OpKeyExpansion},
			Spec: initSpec,
		})
	for _, l := range lengths {
		plan.Steps = append(plan.Steps, &proof.Step{
			Op:   verify.Op{Name: GenerateName(l), Body: generateBody(l)},
			Deps: []string{OpBlockEncrypt},
			Spec: generateSpec(l),
		})
	}
	plan.Steps = append(plan.Steps,
		&proof.Step{
			Op:   verify.Op{Name: OpPRFGenerateAny, Body: generateBody(4)},
			Deps: []string{OpBlockEncrypt},
			Spec: generateAnySpec(4),
			Mode: proof.Assume,
		},
		&proof.Step{
			Op:   verify.Op{Name: OpPRFReseed, Body: reseedBody},
			Deps: []string{OpFreeKeySchedule, OpKeyExpansion},
			Spec: reseedSpec,
		},
		&proof.Step{
			Op:   verify.Op{Name: OpPRFFinalize, Body: finalizeBody},
			Deps: []string{OpFreeKeySchedule},
			Spec: finalizeSpec,
		},
		&proof.Step{
			Op:   verify.Op{Name: OpRandomIndex, Body: randomIndexBody},
			Deps: []string{OpPRFGenerateAny},
			Spec: randomIndexSpec,
		})
	return plan, nil
}
