// internal/diagnostics/report.go
//
// Health report.
//
// Context
// -------
// A report is one run of every registered check: config audit, database
// ping, migration status, log directory, themes on disk, assistant
// configuration, session store, GeoIP.  The diagnostics listener serves
// it as HTML and JSON, and `mosaic doctor` prints the same thing and
// exits non-zero on failures.  Checks never repair anything; they only
// observe.
package diagnostics

import (
	"context"
	"time"
)

// Status classifies one check outcome.
type Status string

const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Check is one named probe.  Run must honor ctx and come back quickly;
// slow dependencies get their own timeout inside the check.
type Check struct {
	Name string
	Run  func(ctx context.Context) (Status, string)
}

// Result is one check outcome inside a report.
type Result struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Detail string `json:"detail"`
}

// Report is one full diagnostics run.
type Report struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Env         string        `json:"env"`
	Elapsed     time.Duration `json:"elapsed_ns"`
	Checks      []Result      `json:"checks"`
}

// Failed reports whether any check failed outright.
func (r *Report) Failed() bool {
	for _, c := range r.Checks {
		if c.Status == StatusFail {
			return true
		}
	}
	return false
}

// Worst returns the most severe status in the report.
func (r *Report) Worst() Status {
	worst := StatusOK
	for _, c := range r.Checks {
		switch {
		case c.Status == StatusFail:
			return StatusFail
		case c.Status == StatusWarn:
			worst = StatusWarn
		}
	}
	return worst
}

// Build runs every check in order and assembles the report.
func Build(ctx context.Context, env string, checks []Check) *Report {
	start := time.Now()
	rep := &Report{
		GeneratedAt: start.UTC(),
		Env:         env,
		Checks:      make([]Result, 0, len(checks)),
	}
	for _, c := range checks {
		status, detail := c.Run(ctx)
		rep.Checks = append(rep.Checks, Result{Name: c.Name, Status: status, Detail: detail})
	}
	rep.Elapsed = time.Since(start)
	return rep
}
