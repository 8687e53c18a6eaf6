//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package proof

import (
	"fmt"
	"io"
	"time"

	"github.com/markkurossi/lemma"
	"github.com/markkurossi/tabulate"
)

// Report is the rendered outcome of a proof run.
type Report struct {
	Results []*Result
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{}
}

// Admitted returns the number of admitted steps in the report.
func (r *Report) Admitted() int {
	var count int
	for _, result := range r.Results {
		if result.Status == lemma.Admitted {
			count++
		}
	}
	return count
}

// Print prints the report to w.
func (r *Report) Print(w io.Writer) {
	if len(r.Results) == 0 {
		return
	}
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Op").SetAlign(tabulate.ML)
	tab.Header("Status").SetAlign(tabulate.ML)
	tab.Header("Trust").SetAlign(tabulate.ML)
	tab.Header("Paths").SetAlign(tabulate.MR)
	tab.Header("Goals").SetAlign(tabulate.MR)
	tab.Header("Time").SetAlign(tabulate.MR)

	var paths, goals int
	var total time.Duration
	for _, result := range r.Results {
		row := tab.Row()
		row.Column(result.Name)
		if result.Status == lemma.Admitted {
			row.Column(result.Status.String()).SetFormat(tabulate.FmtItalic)
		} else {
			row.Column(result.Status.String())
		}
		if result.Trusted {
			row.Column("ok")
		} else {
			row.Column("tainted").SetFormat(tabulate.FmtItalic)
		}
		row.Column(fmt.Sprintf("%d", result.Paths))
		row.Column(fmt.Sprintf("%d", result.Goals))
		row.Column(result.Duration.String())

		paths += result.Paths
		goals += result.Goals
		total += result.Duration
	}
	row := tab.Row()
	row.Column("Total").SetFormat(tabulate.FmtBold)
	row.Column(fmt.Sprintf("%d lemmas", len(r.Results))).
		SetFormat(tabulate.FmtBold)
	row.Column(fmt.Sprintf("%d admitted", r.Admitted())).
		SetFormat(tabulate.FmtBold)
	row.Column(fmt.Sprintf("%d", paths)).SetFormat(tabulate.FmtBold)
	row.Column(fmt.Sprintf("%d", goals)).SetFormat(tabulate.FmtBold)
	row.Column(total.String()).SetFormat(tabulate.FmtBold)

	tab.Print(w)
}
