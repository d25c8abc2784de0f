package engine

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sqlite2pg/internal/dialect"
	"sqlite2pg/internal/integrity"
	"sqlite2pg/internal/schema"
)

const DefaultBatchSize = 500

// Options configures a migration run. The confirmation gate and progress
// sink are collaborators injected by the caller; the engine never prompts
// and never decides a destructive truncation by itself.
type Options struct {
	// BatchSize caps rows per write attempt. Defaults to DefaultBatchSize.
	BatchSize int

	// Tables is the set the pre-provisioned target schema expects. Empty
	// means every user table found in the source.
	Tables []string

	// Confirm authorizes the destructive truncation of one target table.
	// A nil gate refuses every table.
	Confirm func(table string) bool

	Progress Progress
	Dialect  dialect.Dialect
	Log      logrus.FieldLogger
}

func (o *Options) defaults() {
	if o.BatchSize < 1 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Progress == nil {
		o.Progress = NopProgress{}
	}
	if o.Dialect == nil {
		o.Dialect = &dialect.PostgresDialect{}
	}
	if o.Log == nil {
		o.Log = logrus.StandardLogger()
	}
	if o.Confirm == nil {
		o.Confirm = func(string) bool { return false }
	}
}

// Run migrates every expected table from the source to the target,
// best-effort: one table failing never aborts the rest. The returned error
// is non-nil only for run-fatal conditions (unreadable/corrupt source,
// unreachable target, expected table missing), in which case the target has
// not been mutated beyond batches already committed.
func Run(src, dst *sql.DB, opts Options) (*Report, error) {
	opts.defaults()
	report := &Report{RunID: uuid.NewString(), StartedAt: time.Now()}
	log := opts.Log.WithField("run_id", report.RunID)

	// Read-only gate before anything touches the target.
	health, err := integrity.Check(src)
	if err != nil {
		report.finalize(err)
		return report, err
	}
	log.WithFields(logrus.Fields{
		"tables":    len(health.Tables),
		"rows":      health.TotalRows(),
		"fk_issues": health.FKIssues,
	}).Info("source integrity check passed")
	if health.FKIssues > 0 {
		log.Warnf("source has %d dangling foreign key references; affected rows may fail during salvage", health.FKIssues)
	}

	if err := dst.Ping(); err != nil {
		err = fmt.Errorf("cannot establish target connection: %w", err)
		report.finalize(err)
		return report, err
	}

	tables, err := resolveTables(src, health.Tables, opts.Tables)
	if err != nil {
		report.finalize(err)
		return report, err
	}
	ordered := schema.Sort(tables)

	for _, t := range ordered {
		plans := PlanColumns(t, log)

		if !opts.Confirm(t.Name) {
			log.WithField("table", t.Name).Warn("truncation not confirmed, table skipped")
			report.addTable(TableReport{
				Table: t.Name,
				State: StateFailed,
				Err:   "truncation not confirmed",
			}, nil)
			continue
		}

		tr, failures := transferTable(tableJob{
			src:       src,
			dst:       dst,
			d:         opts.Dialect,
			table:     t,
			plans:     plans,
			batchSize: opts.BatchSize,
			progress:  opts.Progress,
			log:       log,
		})
		report.addTable(tr, failures)
		log.WithFields(logrus.Fields{
			"table":     tr.Table,
			"state":     tr.State,
			"attempted": tr.Attempted,
			"succeeded": tr.Succeeded,
			"failed":    tr.Failed,
			"elapsed":   tr.Elapsed.Round(time.Millisecond).String(),
		}).Info("table finished")
	}

	report.finalize(nil)
	return report, nil
}

// PlanColumns computes the per-column migration plan for a table, once per
// table. Unrecognized type tokens default to text with a warning.
func PlanColumns(t *schema.Table, log logrus.FieldLogger) []ColumnPlan {
	plans := make([]ColumnPlan, len(t.Columns))
	for i, c := range t.Columns {
		target, ok := dialect.MapType(c.DeclType)
		if !ok && log != nil {
			log.WithFields(logrus.Fields{
				"table":  t.Name,
				"column": c.Name,
				"type":   c.DeclType,
			}).Warn("unrecognized source type, defaulting to text")
		}
		plans[i] = ColumnPlan{Name: c.Name, Type: target, Nullable: c.IsNullable}
	}
	return plans
}

// resolveTables introspects the expected table set. A table the target
// schema expects but the source lacks is fatal before any truncation.
func resolveTables(src *sql.DB, available, expected []string) ([]*schema.Table, error) {
	if len(expected) == 0 {
		expected = available
	} else {
		avail := make(map[string]bool, len(available))
		for _, name := range available {
			avail[name] = true
		}
		for _, name := range expected {
			if !avail[name] {
				return nil, fmt.Errorf("%s: %w", name, schema.ErrUnknownTable)
			}
		}
	}

	tables := make([]*schema.Table, 0, len(expected))
	for _, name := range expected {
		t, err := schema.Introspect(src, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}
