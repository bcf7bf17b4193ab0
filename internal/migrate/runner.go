// internal/migrate/runner.go
//
// Migration runner with drift recovery.
//
/*
Context
--------
The history table `schema_history` records which migrations have run, one
row per migration, append-only.  Production databases drift away from that
record in two directions, and both have taken this platform down before:

  • The history table is missing (fresh database, or the table was lost in
    a restore) while the schema itself is fine.  Running the DDL again
    explodes with "already exists" on the first CREATE TABLE.
  • The schema gained objects outside the runner (hand-applied hotfix, a
    restore from a newer backup) so a pending migration's DDL collides.

The runner turns both cases into forward progress.  A SELECT against the
history that fails with MySQL 1146 bootstraps the table and treats every
migration as pending.  A DDL statement that fails with 1050/1060/1061 is
not retried: the runner checks the migration's probe object, and when it
exists, inserts the history row *without running the rest of the DDL* and
moves on.  The probe check is what separates "schema ran ahead" from a
genuinely conflicting object, which still fails loudly.

Workflow
--------
	r := migrate.NewRunner(db, log, migrate.All())
	applied, recovered, err := r.Up(ctx)

`Status`, `MarkApplied`, and `Repair` back the mosaic CLI subcommands.

Notes
-----
  • MySQL DDL is not transactional; the unit of recovery is the statement,
    the unit of bookkeeping is the migration.
  • History rows for IDs the binary no longer knows are reported, never
    deleted.  Oxford commas, two spaces after periods.
*/
package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/mosaic-cms/mosaic/internal/database"
	"github.com/mosaic-cms/mosaic/internal/metrics"
)

// engineVersion is recorded with every history row, mirroring the tool
// version column migration frameworks keep.  Bump on format changes.
const engineVersion = "mosaic-1"

const (
	createHistorySQL = `CREATE TABLE IF NOT EXISTS schema_history (
  migration_id VARCHAR(191) NOT NULL,
  version      VARCHAR(32)  NOT NULL,
  applied_at   TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (migration_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

	selectHistorySQL = `SELECT migration_id, version, applied_at FROM schema_history ORDER BY migration_id`
	insertHistorySQL = `INSERT INTO schema_history (migration_id, version) VALUES (?, ?)`

	probeTableSQL  = `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?`
	probeColumnSQL = `SELECT COUNT(*) FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? AND column_name = ?`
)

// State classifies one migration for Status output.
type State string

const (
	StateApplied State = "applied" // recorded, probe present
	StatePending State = "pending" // not recorded
	StateDrifted State = "drifted" // recorded, probe object missing
	StateUnknown State = "unknown" // recorded, no such migration in this binary
)

// StatusRow is one line of `mosaic migrate status`.
type StatusRow struct {
	ID        string
	State     State
	AppliedAt time.Time // zero for pending
}

// RepairAction describes one thing Repair did.
type RepairAction struct {
	ID     string
	Action string // "recorded", "reapplied", "applied"
}

// Runner executes migrations against one database.  It holds no state
// between calls; every operation re-reads the history.
type Runner struct {
	db   *sqlx.DB
	log  *zap.SugaredLogger
	migs []Migration // ID-sorted
}

// NewRunner wires a runner to a pool and an explicit migration list.  Pass
// migrate.All() for the real set; tests pass their own.
func NewRunner(db *sqlx.DB, log *zap.SugaredLogger, migs []Migration) *Runner {
	return &Runner{db: db, log: log, migs: migs}
}

/*──────────────────────────── history access ───────────────────────────────*/

type historyRow struct {
	MigrationID string    `db:"migration_id"`
	Version     string    `db:"version"`
	AppliedAt   time.Time `db:"applied_at"`
}

// applied returns the recorded history keyed by migration ID, bootstrapping
// the history table when the SELECT fails with "no such table".
func (r *Runner) applied(ctx context.Context) (map[string]historyRow, error) {
	var rows []historyRow
	err := r.db.SelectContext(ctx, &rows, selectHistorySQL)
	if database.IsNoSuchTable(err) {
		r.log.Warnw("migration history table missing, bootstrapping", "table", "schema_history")
		if _, cerr := r.db.ExecContext(ctx, createHistorySQL); cerr != nil {
			return nil, fmt.Errorf("bootstrap schema_history: %w", cerr)
		}
		return map[string]historyRow{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read schema_history: %w", err)
	}

	out := make(map[string]historyRow, len(rows))
	for _, h := range rows {
		out[h.MigrationID] = h
	}
	return out, nil
}

func (r *Runner) record(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, insertHistorySQL, id, engineVersion); err != nil {
		return fmt.Errorf("record %s: %w", id, err)
	}
	return nil
}

/*──────────────────────────────── probes ───────────────────────────────────*/

// probeExists checks information_schema for the migration's marker object.
func (r *Runner) probeExists(ctx context.Context, p Probe) (bool, error) {
	if p.zero() {
		return false, nil
	}
	var n int
	var err error
	if p.Column == "" {
		err = r.db.GetContext(ctx, &n, probeTableSQL, p.Table)
	} else {
		err = r.db.GetContext(ctx, &n, probeColumnSQL, p.Table, p.Column)
	}
	if err != nil {
		return false, fmt.Errorf("probe %s: %w", p.Table, err)
	}
	return n > 0, nil
}

/*─────────────────────────────── operations ────────────────────────────────*/

// Pending returns the registered migrations with no history row, in order.
func (r *Runner) Pending(ctx context.Context) ([]Migration, error) {
	hist, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}
	var out []Migration
	for _, m := range r.migs {
		if _, ok := hist[m.ID]; !ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// Up applies every pending migration in order.  It returns how many ran
// their DDL and how many were recovered (marked applied after a collision).
// The first unrecoverable error stops the sequence; everything recorded
// before it stays recorded.
func (r *Runner) Up(ctx context.Context) (applied, recovered int, err error) {
	pending, err := r.Pending(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, m := range pending {
		ran, rec, aerr := r.applyOne(ctx, m)
		if aerr != nil {
			return applied, recovered, aerr
		}
		if ran {
			applied++
		}
		if rec {
			recovered++
		}
	}

	if applied+recovered > 0 {
		r.log.Infow("migrations complete", "applied", applied, "recovered", recovered)
	}
	return applied, recovered, nil
}

// applyOne runs one migration's statements.  An "already exists" collision
// switches to recovery: verify the probe, record the migration, and skip
// its remaining statements.
func (r *Runner) applyOne(ctx context.Context, m Migration) (ran, recovered bool, err error) {
	for _, stmt := range m.Statements {
		if _, eerr := r.db.ExecContext(ctx, stmt); eerr != nil {
			if !database.IsAlreadyExists(eerr) {
				return false, false, fmt.Errorf("migration %s: %w", m.ID, eerr)
			}

			ok, perr := r.probeExists(ctx, m.Probe)
			if perr != nil {
				return false, false, fmt.Errorf("migration %s: collision then %w", m.ID, perr)
			}
			if !ok {
				return false, false, fmt.Errorf(
					"migration %s: object already exists (mysql %d) but probe %q is absent; schema needs manual review",
					m.ID, database.ErrNumber(eerr), m.Probe.Table)
			}

			r.log.Warnw("schema ahead of history, marking migration applied",
				"migration", m.ID, "mysql_err", database.ErrNumber(eerr), "probe", m.Probe.Table)
			if rerr := r.record(ctx, m.ID); rerr != nil {
				return false, false, rerr
			}
			metrics.MigrationsRecoveredTotal.Inc()
			return false, true, nil
		}
	}

	if err := r.record(ctx, m.ID); err != nil {
		return false, false, err
	}
	metrics.MigrationsAppliedTotal.Inc()
	r.log.Infow("migration applied", "migration", m.ID)
	return true, false, nil
}

// MarkApplied records a migration without running it.  The probe must
// confirm the schema already contains its work; recording a migration the
// schema does not have would just defer the failure to first query.
// Recording an already-recorded ID is a logged no-op.
func (r *Runner) MarkApplied(ctx context.Context, id string) error {
	var target *Migration
	for i := range r.migs {
		if r.migs[i].ID == id {
			target = &r.migs[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("unknown migration %q", id)
	}

	hist, err := r.applied(ctx)
	if err != nil {
		return err
	}
	if _, ok := hist[id]; ok {
		r.log.Infow("migration already recorded", "migration", id)
		return nil
	}

	ok, err := r.probeExists(ctx, target.Probe)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("refusing to mark %s: probe %q not found in schema", id, target.Probe.Table)
	}

	if err := r.record(ctx, id); err != nil {
		return err
	}
	metrics.MigrationsRecoveredTotal.Inc()
	r.log.Warnw("migration marked applied by operator", "migration", id)
	return nil
}

// Status classifies every registered migration plus any history rows this
// binary does not recognize.
func (r *Runner) Status(ctx context.Context) ([]StatusRow, error) {
	hist, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]StatusRow, 0, len(r.migs))
	seen := make(map[string]bool, len(r.migs))
	for _, m := range r.migs {
		seen[m.ID] = true
		h, ok := hist[m.ID]
		if !ok {
			out = append(out, StatusRow{ID: m.ID, State: StatePending})
			continue
		}
		present, perr := r.probeExists(ctx, m.Probe)
		if perr != nil {
			return nil, perr
		}
		st := StateApplied
		if !present {
			st = StateDrifted
		}
		out = append(out, StatusRow{ID: m.ID, State: st, AppliedAt: h.AppliedAt})
	}

	for id, h := range hist {
		if !seen[id] {
			out = append(out, StatusRow{ID: id, State: StateUnknown, AppliedAt: h.AppliedAt})
		}
	}
	return out, nil
}

// Repair reconciles history and schema in both directions: present but
// unrecorded migrations get history rows, recorded but absent ones get
// their DDL re-run, and fully missing ones are applied normally.  Unknown
// history rows are left alone; deleting operator data is not this tool's
// call.
func (r *Runner) Repair(ctx context.Context) ([]RepairAction, error) {
	hist, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}

	var actions []RepairAction
	for _, m := range r.migs {
		_, recorded := hist[m.ID]
		present, perr := r.probeExists(ctx, m.Probe)
		if perr != nil {
			return actions, perr
		}

		switch {
		case recorded && present:
			// Healthy.
		case !recorded && present:
			if err := r.record(ctx, m.ID); err != nil {
				return actions, err
			}
			r.log.Warnw("repair: recorded migration already present in schema", "migration", m.ID)
			actions = append(actions, RepairAction{ID: m.ID, Action: "recorded"})
		case recorded && !present:
			if err := r.reapply(ctx, m); err != nil {
				return actions, err
			}
			r.log.Warnw("repair: re-applied migration whose objects were missing", "migration", m.ID)
			actions = append(actions, RepairAction{ID: m.ID, Action: "reapplied"})
		default: // neither recorded nor present
			if _, _, err := r.applyOne(ctx, m); err != nil {
				return actions, err
			}
			actions = append(actions, RepairAction{ID: m.ID, Action: "applied"})
		}
	}
	return actions, nil
}

// reapply runs a migration's DDL without touching its existing history row.
func (r *Runner) reapply(ctx context.Context, m Migration) error {
	for _, stmt := range m.Statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			if database.IsAlreadyExists(err) {
				continue // partial drift, later statements may still be needed
			}
			return fmt.Errorf("reapply %s: %w", m.ID, err)
		}
	}
	return nil
}
