//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package proof implements the proof orchestrator: it runs verify and
// admit steps in dependency order, leaf to root, accumulating the
// established results into the lemma store and recording the run
// report.
package proof

import (
	"fmt"
	"time"

	"github.com/markkurossi/lemma"
	"github.com/markkurossi/lemma/contract"
	"github.com/markkurossi/lemma/verify"
	"github.com/pion/logging"
)

// Mode specifies how a step establishes its contract.
type Mode byte

// Step modes.
const (
	// Check verifies the operation body against the contract.
	Check Mode = iota

	// Assume admits the contract without checking the body.
	Assume
)

var modes = map[Mode]string{
	Check:  "check",
	Assume: "assume",
}

func (m Mode) String() string {
	name, ok := modes[m]
	if ok {
		return name
	}
	return fmt.Sprintf("{Mode %d}", m)
}

// Step is one proof obligation: the operation, its already-established
// dependencies, its contract, and the establishment mode.
type Step struct {
	Op   verify.Op
	Deps []string
	Spec contract.Spec
	Mode Mode
}

// Plan is an ordered proof plan: the externally established axiom
// contracts seeded into the store, followed by the verify/admit steps
// in strict leaf-to-root order.
type Plan struct {
	Axioms []*contract.Contract
	Steps  []*Step
}

// Result records the outcome of one step.
type Result struct {
	Name     string
	Status   lemma.Status
	Trusted  bool
	Paths    int
	Goals    int
	Duration time.Duration
}

// Run executes the plan: axioms are seeded, then every step is
// verified or admitted in order. The run aborts on the first failed
// step; a failed check poisons everything after it. The report covers
// the steps that ran.
func (p *Plan) Run(store *lemma.Store, params *verify.Params) (
	*Report, error) {

	var log logging.LeveledLogger
	if params != nil && params.LoggerFactory != nil {
		log = params.LoggerFactory.NewLogger("proof")
	}
	if err := store.Seed(p.Axioms...); err != nil {
		return nil, err
	}

	vr := verify.New(store, params)
	report := NewReport()
	for _, step := range p.Steps {
		start := time.Now()

		var l *lemma.Lemma
		var err error
		switch step.Mode {
		case Check:
			l, err = vr.Verify(step.Op, step.Deps, step.Spec)
		default:
			l, err = vr.Admit(step.Op, step.Deps, step.Spec)
		}
		if err != nil {
			return report, fmt.Errorf("proof: %s: %w", step.Op.Name, err)
		}
		stats := vr.Stats()
		trusted, err := store.Trusted(l.Name())
		if err != nil {
			return report, err
		}
		result := &Result{
			Name:     l.Name(),
			Status:   l.Status,
			Trusted:  trusted,
			Paths:    stats.Paths,
			Goals:    stats.Goals,
			Duration: time.Since(start),
		}
		report.Results = append(report.Results, result)
		if log != nil {
			log.Debugf("%s: %s, %d paths, %d goals, %s",
				result.Name, result.Status, result.Paths, result.Goals,
				result.Duration)
		}
	}
	return report, nil
}
