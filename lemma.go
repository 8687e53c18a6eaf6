//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package lemma implements the lemma store: established operation
// contracts with their establishment status, usable as substitution
// rules when verifying callers.
package lemma

import (
	"fmt"

	"github.com/markkurossi/lemma/contract"
)

// Status specifies how a lemma was established.
type Status byte

// Lemma establishment statuses.
const (
	// Axiom is a contract established outside this system, e.g. the
	// cipher provider's operations.
	Axiom Status = iota

	// Verified is a contract checked against its operation body.
	Verified

	// Admitted is a contract recorded as established without the
	// underlying check: an explicit trust boundary.
	Admitted
)

var statuses = map[Status]string{
	Axiom:    "axiom",
	Verified: "verified",
	Admitted: "admitted",
}

func (s Status) String() string {
	name, ok := statuses[s]
	if ok {
		return name
	}
	return fmt.Sprintf("{Status %d}", s)
}

// Lemma is an established contract.
type Lemma struct {
	Contract *contract.Contract
	Status   Status
	Deps     []string
}

// Name returns the name of the underlying contract.
func (l *Lemma) Name() string {
	return l.Contract.Name
}

func (l *Lemma) String() string {
	return fmt.Sprintf("%s (%s)", l.Contract, l.Status)
}
