//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package proof

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/markkurossi/lemma"
	"github.com/markkurossi/lemma/contract"
	"github.com/markkurossi/lemma/sym"
	"github.com/markkurossi/lemma/verify"
)

// fillSpec claims that the operation fills the 4-byte output with the
// constant 0x5a and returns zero.
func fillSpec(s *contract.Setup) {
	out := s.Alloc("out", 4)
	s.Execute(contract.PtrTo(out))
	s.PointsToPost(out, 0, sym.ConstBytes([]byte{0x5a, 0x5a, 0x5a, 0x5a}))
	s.Returns(sym.Zero32)
}

func fillBody(x *verify.Exec) error {
	b := sym.ConstBytes([]byte{0x5a, 0x5a, 0x5a, 0x5a})
	if err := x.Store(x.Ptr(0), b); err != nil {
		return err
	}
	return x.Return(sym.Zero32)
}

// callerSpec claims the same contents, produced through the fill
// dependency.
func callerSpec(s *contract.Setup) {
	out := s.Alloc("out", 4)
	s.Execute(contract.PtrTo(out))
	s.PointsToPost(out, 0, sym.ConstBytes([]byte{0x5a, 0x5a, 0x5a, 0x5a}))
	s.Returns(sym.Zero32)
}

func callerBody(x *verify.Exec) error {
	status, err := x.Call("fill", verify.Ref(x.Ptr(0)))
	if err != nil {
		return err
	}
	return x.Return(status)
}

func TestRun(t *testing.T) {
	plan := &Plan{
		Steps: []*Step{
			{
				Op:   verify.Op{Name: "fill", Body: fillBody},
				Spec: fillSpec,
			},
			{
				Op:   verify.Op{Name: "caller", Body: callerBody},
				Deps: []string{"fill"},
				Spec: callerSpec,
			},
		},
	}
	store := lemma.NewStore()
	report, err := plan.Run(store, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Results) != 2 {
		t.Fatalf("got %d results, expected 2", len(report.Results))
	}
	for _, result := range report.Results {
		if result.Status != lemma.Verified {
			t.Errorf("%s: status %s", result.Name, result.Status)
		}
		if !result.Trusted {
			t.Errorf("%s: not trusted", result.Name)
		}
	}
	if report.Admitted() != 0 {
		t.Errorf("got %d admitted, expected 0", report.Admitted())
	}
	if store.Size() != 2 {
		t.Errorf("store size %d, expected 2", store.Size())
	}
}

func TestRunAssume(t *testing.T) {
	plan := &Plan{
		Steps: []*Step{
			{
				Op:   verify.Op{Name: "fill", Body: fillBody},
				Spec: fillSpec,
				Mode: Assume,
			},
			{
				Op:   verify.Op{Name: "caller", Body: callerBody},
				Deps: []string{"fill"},
				Spec: callerSpec,
			},
		},
	}
	report, err := plan.Run(lemma.NewStore(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Admitted() != 1 {
		t.Errorf("got %d admitted, expected 1", report.Admitted())
	}
	for _, result := range report.Results {
		if result.Trusted {
			t.Errorf("%s: trusted through an admitted step", result.Name)
		}
	}
}

// TestRunAbort checks that the run stops at the first failed step: the
// report covers the steps before the failure, and nothing after the
// failure enters the store.
func TestRunAbort(t *testing.T) {
	plan := &Plan{
		Steps: []*Step{
			{
				Op:   verify.Op{Name: "fill", Body: fillBody},
				Spec: fillSpec,
			},
			{
				Op: verify.Op{
					Name: "broken",
					Body: func(x *verify.Exec) error {
						return x.Return(sym.One32)
					},
				},
				Spec: fillSpec,
			},
			{
				Op:   verify.Op{Name: "caller", Body: callerBody},
				Deps: []string{"fill"},
				Spec: callerSpec,
			},
		},
	}
	store := lemma.NewStore()
	report, err := plan.Run(store, nil)
	if err == nil {
		t.Fatal("broken step not detected")
	}
	var cerr *verify.CheckError
	if !errors.As(err, &cerr) {
		t.Errorf("unexpected error: %v", err)
	}
	if len(report.Results) != 1 {
		t.Errorf("got %d results, expected 1", len(report.Results))
	}
	if _, ok := store.Lookup("caller"); ok {
		t.Error("step after the failure entered the store")
	}
}

func TestRunMissingDep(t *testing.T) {
	plan := &Plan{
		Steps: []*Step{
			{
				Op:   verify.Op{Name: "caller", Body: callerBody},
				Deps: []string{"fill"},
				Spec: callerSpec,
			},
		},
	}
	_, err := plan.Run(lemma.NewStore(), nil)
	if !errors.Is(err, verify.ErrDependency) {
		t.Fatalf("missing dependency not detected: %v", err)
	}
}

func TestReportPrint(t *testing.T) {
	plan := &Plan{
		Steps: []*Step{
			{
				Op:   verify.Op{Name: "fill", Body: fillBody},
				Spec: fillSpec,
			},
			{
				Op:   verify.Op{Name: "caller", Body: callerBody},
				Deps: []string{"fill"},
				Spec: callerSpec,
				Mode: Assume,
			},
		},
	}
	report, err := plan.Run(lemma.NewStore(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	var buf bytes.Buffer
	report.Print(&buf)
	out := buf.String()
	for _, want := range []string{"fill", "caller", "admitted", "tainted",
		"Total"} {
		if !strings.Contains(out, want) {
			t.Errorf("report does not mention %q:\n%s", want, out)
		}
	}

	var empty bytes.Buffer
	NewReport().Print(&empty)
	if empty.Len() != 0 {
		t.Errorf("empty report printed %q", empty.String())
	}
}
