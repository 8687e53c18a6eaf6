//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package verify

import (
	"github.com/pion/logging"
)

// Params specify verifier parameters.
type Params struct {
	Verbose     bool
	Diagnostics bool

	// MaxPaths specifies the upper limit for execution paths
	// explored per verification.
	MaxPaths int

	// Engine overrides the decision procedure. If nil, the built-in
	// reference checker is used.
	Engine Engine

	// LoggerFactory is the factory for creating loggers. If nil,
	// logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// NewParams returns new verifier params, initialized with the default
// values.
func NewParams() *Params {
	return &Params{
		MaxPaths: 4096,
	}
}
