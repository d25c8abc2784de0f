package engine

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"sqlite2pg/internal/dialect"
	"sqlite2pg/internal/schema"
)

// sanitizedRow is one source row after sanitization, kept next to its raw
// form so a failure record can carry the original values.
type sanitizedRow struct {
	index int64 // 1-based position in source read order
	raw   []Value
	out   []any
	err   error
}

// tableJob bundles everything transferTable needs for one table.
type tableJob struct {
	src, dst  *sql.DB
	d         dialect.Dialect
	table     *schema.Table
	plans     []ColumnPlan
	batchSize int
	progress  Progress
	log       logrus.FieldLogger
}

// transferTable runs the per-table state machine:
//
//	NotStarted -> Truncating -> Transferring <-> SalvagingRow -> Completed
//	                  \-> Failed (truncation refused by the target)
//
// Truncation failure is table-fatal only; row failures are recorded and
// skipped. Rows are read and written in source order, commits happen at
// batch boundaries only.
func transferTable(job tableJob) (TableReport, []RowFailure) {
	report := TableReport{Table: job.table.Name, State: StateNotStarted}
	start := time.Now()
	defer func() {
		report.Elapsed = time.Since(start)
		job.progress.TableFinished(job.table.Name, report.State)
	}()

	total, err := schema.Count(job.src, job.table.Name)
	if err != nil {
		report.State = StateFailed
		report.Err = err.Error()
		return report, nil
	}
	job.progress.TableStarted(job.table.Name, total)

	report.State = StateTruncating
	if _, err := job.dst.Exec(job.d.TruncateQuery(job.table.Name)); err != nil {
		// Privilege or referencing-row problem on the target. The run moves
		// on to the next table.
		report.State = StateFailed
		report.Err = fmt.Sprintf("truncate failed: %v", err)
		job.log.WithField("table", job.table.Name).WithError(err).Error("truncate failed, table skipped")
		return report, nil
	}

	cols := make([]string, len(job.table.Columns))
	for i, c := range job.table.Columns {
		cols[i] = c.Name
	}
	selectQuery := fmt.Sprintf("SELECT %s FROM %s",
		quoteAllSQLite(cols), schema.QuoteIdent(job.table.Name))
	rowInsert := job.d.InsertQuery(job.table.Name, cols)

	rows, err := job.src.Query(selectQuery)
	if err != nil {
		report.State = StateFailed
		report.Err = fmt.Sprintf("source read failed: %v", err)
		return report, nil
	}
	defer rows.Close()

	report.State = StateTransferring
	var (
		failures []RowFailure
		batch    []sanitizedRow
		rowIndex int64
	)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		succeeded, failed := insertBatch(job, rowInsert, cols, batch, &report)
		report.Succeeded += succeeded
		failures = append(failures, failed...)
		report.Failed += int64(len(failed))
		report.Attempted += int64(len(batch))
		batch = batch[:0]
		job.progress.BatchDone(job.table.Name, report.Attempted)
	}

	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			report.State = StateFailed
			report.Err = fmt.Sprintf("source scan failed: %v", err)
			return report, failures
		}
		rowIndex++
		batch = append(batch, sanitizeRow(job, raw, rowIndex))
		if len(batch) >= job.batchSize {
			flush()
			report.State = StateTransferring
		}
	}
	if err := rows.Err(); err != nil {
		report.State = StateFailed
		report.Err = fmt.Sprintf("source read failed: %v", err)
		return report, failures
	}
	flush()

	report.State = StateCompleted
	return report, failures
}

// sanitizeRow applies the column plans to one raw row. Warnings are logged
// here, once, so the salvage path never logs them a second time.
func sanitizeRow(job tableJob, raw []any, index int64) sanitizedRow {
	row := sanitizedRow{
		index: index,
		raw:   make([]Value, len(raw)),
		out:   make([]any, len(raw)),
	}
	for i, cell := range raw {
		row.raw[i] = scanValue(cell)
		out, warning, err := Sanitize(row.raw[i], job.plans[i])
		if err != nil {
			// First failing column names the row in the failure record;
			// the loop still runs so raw holds every original value.
			if row.err == nil {
				row.err = err
			}
			continue
		}
		if warning != "" {
			job.log.WithFields(logrus.Fields{
				"table": job.table.Name,
				"row":   index,
			}).Warn(warning)
		}
		row.out[i] = out
	}
	return row
}

// insertBatch attempts one bulk insert for the whole batch inside a
// transaction. Any failure, including a sanitize failure of a single row,
// downgrades to per-row salvage.
func insertBatch(job tableJob, rowInsert string, cols []string, batch []sanitizedRow, report *TableReport) (int64, []RowFailure) {
	clean := true
	for _, row := range batch {
		if row.err != nil {
			clean = false
			break
		}
	}

	if clean {
		err := bulkInsert(job, cols, batch)
		if err == nil {
			return int64(len(batch)), nil
		}
		job.log.WithFields(logrus.Fields{
			"table": job.table.Name,
			"rows":  len(batch),
		}).WithError(err).Warn("batch insert failed, salvaging row by row")
	}

	// SalvagingRow: each row is retried individually so one bad row cannot
	// sink its batch siblings.
	report.State = StateSalvaging
	var succeeded int64
	var failures []RowFailure
	for _, row := range batch {
		err := row.err
		if err == nil {
			_, err = job.dst.Exec(rowInsert, row.out...)
		}
		if err == nil {
			succeeded++
			continue
		}
		failures = append(failures, RowFailure{
			Table:  job.table.Name,
			Row:    row.index,
			Values: renderValues(row.raw),
			Err:    describeRowError(err),
		})
	}
	return succeeded, failures
}

func bulkInsert(job tableJob, cols []string, batch []sanitizedRow) error {
	args := make([]any, 0, len(batch)*len(cols))
	for _, row := range batch {
		args = append(args, row.out...)
	}
	tx, err := job.dst.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(job.d.BulkInsertQuery(job.table.Name, cols, len(batch)), args...); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// describeRowError enriches PostgreSQL errors with SQLSTATE diagnostics so
// the failure log is actionable without re-running the row.
func describeRowError(err error) string {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err.Error()
	}
	msg := fmt.Sprintf("%s (SQLSTATE %s)", pqErr.Message, pqErr.Code)
	if pqErr.Detail != "" {
		msg += ": " + pqErr.Detail
	}
	if pqErr.Column != "" {
		msg += " [column " + pqErr.Column + "]"
	}
	if pqErr.Constraint != "" {
		msg += " [constraint " + pqErr.Constraint + "]"
	}
	return msg
}

func renderValues(raw []Value) []string {
	out := make([]string, len(raw))
	for i, v := range raw {
		out[i] = v.String()
	}
	return out
}

func quoteAllSQLite(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = schema.QuoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}
