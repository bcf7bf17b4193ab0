// internal/diagnostics/report_test.go
package diagnostics

import (
	"context"
	"testing"
)

func fakeCheck(name string, status Status) Check {
	return Check{Name: name, Run: func(context.Context) (Status, string) {
		return status, "detail for " + name
	}}
}

func TestBuildRunsChecksInOrder(t *testing.T) {
	rep := Build(context.Background(), "development", []Check{
		fakeCheck("alpha", StatusOK),
		fakeCheck("beta", StatusWarn),
		fakeCheck("gamma", StatusOK),
	})

	if len(rep.Checks) != 3 {
		t.Fatalf("checks = %d", len(rep.Checks))
	}
	for i, want := range []string{"alpha", "beta", "gamma"} {
		if rep.Checks[i].Name != want {
			t.Fatalf("check %d = %q, want %q", i, rep.Checks[i].Name, want)
		}
	}
	if rep.Env != "development" {
		t.Fatalf("env = %q", rep.Env)
	}
	if rep.GeneratedAt.IsZero() {
		t.Fatal("zero timestamp")
	}
}

func TestWorstAndFailed(t *testing.T) {
	cases := []struct {
		name   string
		checks []Check
		worst  Status
		failed bool
	}{
		{"all ok", []Check{fakeCheck("a", StatusOK)}, StatusOK, false},
		{"warn", []Check{fakeCheck("a", StatusOK), fakeCheck("b", StatusWarn)}, StatusWarn, false},
		{"fail beats warn", []Check{fakeCheck("a", StatusWarn), fakeCheck("b", StatusFail)}, StatusFail, true},
		{"empty", nil, StatusOK, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rep := Build(context.Background(), "development", tc.checks)
			if got := rep.Worst(); got != tc.worst {
				t.Fatalf("Worst = %q, want %q", got, tc.worst)
			}
			if got := rep.Failed(); got != tc.failed {
				t.Fatalf("Failed = %v, want %v", got, tc.failed)
			}
		})
	}
}
