//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package verify

import (
	"errors"
	"fmt"
)

// Verification errors.
var (
	ErrDependency = errors.New("verify: dependency not established")
	ErrArgument   = errors.New("verify: invalid call argument")
	ErrPaths      = errors.New("verify: too many execution paths")
)

// CheckError identifies a failed verification: the target operation,
// the execution path on which the check failed, and the failed goal.
type CheckError struct {
	Op   string
	Path int
	Goal string
	Err  error
}

func (e *CheckError) Error() string {
	msg := fmt.Sprintf("verify: %s: path %d", e.Op, e.Path)
	if len(e.Goal) > 0 {
		msg += ": " + e.Goal
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *CheckError) Unwrap() error {
	return e.Err
}
