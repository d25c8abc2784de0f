package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlite2pg/internal/dialect"
	"sqlite2pg/internal/schema"
)

// A DATETIME-declared column comes out of the source driver as time.Time.
// The instant must arrive at the target unchanged, not as a stringified
// rendering with a doubled zone suffix.
func TestRunPreservesDatetimeColumns(t *testing.T) {
	src, dst := openMem(t), openMem(t)
	mustExec(t, src,
		`CREATE TABLE ev (id INTEGER PRIMARY KEY, at DATETIME)`,
		`INSERT INTO ev (id, at) VALUES (1, '2024-01-02 03:04:05')`,
	)
	mustExec(t, dst, `CREATE TABLE ev (id INTEGER, at DATETIME)`)

	report, err := Run(src, dst, Options{
		Dialect: sqliteTestDialect{},
		Confirm: allowAll,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, report.Outcome)

	var got time.Time
	require.NoError(t, dst.QueryRow(`SELECT at FROM ev`).Scan(&got))
	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.True(t, got.Equal(want), "migrated instant %v, want %v", got, want)
}

// Scenario: every row in a batch sanitizes cleanly but the target rejects
// the bulk insert outright (duplicate primary key). The per-row retry must
// keep the batch siblings and record only the offending row.
func TestRunSalvagesBatchRejectedByTarget(t *testing.T) {
	src, dst := openMem(t), openMem(t)
	mustExec(t, src, `CREATE TABLE tag (id INTEGER, name TEXT)`)
	for i := 1; i <= 6; i++ {
		id := i
		if i == 5 {
			id = 2 // collides with row 2 on the target primary key
		}
		_, err := src.Exec(`INSERT INTO tag (id, name) VALUES (?, ?)`, id, fmt.Sprintf("t%d", i))
		require.NoError(t, err)
	}
	mustExec(t, dst, `CREATE TABLE tag (id INTEGER PRIMARY KEY, name TEXT)`)

	report, err := Run(src, dst, Options{
		BatchSize: 10,
		Dialect:   sqliteTestDialect{},
		Confirm:   allowAll,
	})
	require.NoError(t, err)

	require.Len(t, report.Tables, 1)
	tr := report.Tables[0]
	assert.Equal(t, StateCompleted, tr.State)
	assert.Equal(t, int64(6), tr.Attempted)
	assert.Equal(t, int64(5), tr.Succeeded)
	assert.Equal(t, int64(1), tr.Failed)
	assert.Equal(t, OutcomePartial, report.Outcome)

	failures := report.FailuresFor("tag")
	require.Len(t, failures, 1)
	assert.Equal(t, int64(5), failures[0].Row)
	assert.Equal(t, []string{"2", "t5"}, failures[0].Values)

	rows, err := dst.Query(`SELECT name FROM tag ORDER BY rowid`)
	require.NoError(t, err)
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"t1", "t2", "t3", "t4", "t6"}, names)
}

// A row with several unusable cells is reported under its first failing
// column, and the failure record still carries every original value.
func TestSanitizeRowReportsFirstBadColumn(t *testing.T) {
	job := tableJob{
		table: &schema.Table{Name: "user"},
		plans: []ColumnPlan{
			{Name: "age", Type: dialect.TypeInteger, Nullable: true},
			{Name: "active", Type: dialect.TypeBoolean, Nullable: true},
		},
		log: logrus.New(),
	}

	row := sanitizeRow(job, []any{"abc", int64(7)}, 1)
	require.Error(t, row.err)
	assert.Contains(t, row.err.Error(), "age")
	assert.NotContains(t, row.err.Error(), "active")

	require.Len(t, row.raw, 2)
	assert.Equal(t, "abc", row.raw[0].String())
	assert.Equal(t, "7", row.raw[1].String())
}
