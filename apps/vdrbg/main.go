//
// main.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/markkurossi/lemma"
	"github.com/markkurossi/lemma/drbg/model"
	"github.com/markkurossi/lemma/verify"
	"github.com/pion/logging"
)

func main() {
	fVerbose := flag.Bool("v", false, "Verbose output")
	fDiag := flag.Bool("diag", false, "Print decision procedure goals")
	fShort := flag.Bool("short", false, "Verify the short length set only")
	flag.Parse()

	params := verify.NewParams()
	params.Verbose = *fVerbose
	params.Diagnostics = *fDiag
	if *fVerbose || *fDiag {
		factory := logging.NewDefaultLoggerFactory()
		factory.DefaultLogLevel = logging.LogLevelDebug
		if *fDiag {
			factory.DefaultLogLevel = logging.LogLevelTrace
		}
		params.LoggerFactory = factory
	}

	lengths := model.DefaultLengths
	if *fShort {
		lengths = model.ShortLengths
	}
	plan, err := model.Script(lengths...)
	if err != nil {
		fmt.Printf("Invalid proof plan: %s\n", err)
		os.Exit(1)
	}

	store := lemma.NewStore()
	report, err := plan.Run(store, params)
	if report != nil {
		report.Print(os.Stdout)
	}
	if err != nil {
		fmt.Printf("Proof failed: %s\n", err)
		os.Exit(1)
	}
	if report.Admitted() != 1 {
		fmt.Printf("Expected exactly 1 admitted lemma, got %d\n",
			report.Admitted())
		os.Exit(1)
	}
}
