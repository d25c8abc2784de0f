package cmd

import (
	"bufio"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gosuri/uiprogress"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"sqlite2pg/internal/engine"
	"sqlite2pg/internal/schema"
)

var (
	batchSize  int
	runTables  []string
	assumeYes  bool
	dryRun     bool
	failureLog string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Migrate all expected tables from the source file to the target",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig()
		if err != nil {
			return err
		}
		// Explicit precedence: flag > config > default.
		if batchSize > 0 {
			cfg.Settings.BatchSize = batchSize
		}
		if len(runTables) > 0 {
			cfg.Settings.Tables = runTables
		}

		src, err := openSource(cfg.Source.Path)
		if err != nil {
			return err
		}
		defer src.Close()

		if dryRun {
			return printPlan(src, cfg)
		}

		dst, err := openTarget(cfg.Target)
		if err != nil {
			return err
		}
		defer dst.Close()

		// Destructive-truncate confirmation. One explicit answer covers the
		// run; the engine still asks per table and never decides itself.
		confirmed := assumeYes
		if !confirmed {
			confirmed = promptConfirm(cfg)
		}
		if !confirmed {
			logrus.Warn("not confirmed: no table will be truncated or migrated")
		}

		prog := newBarProgress()
		uiprogress.Start()
		start := time.Now()

		report, runErr := engine.Run(src, dst, engine.Options{
			BatchSize: cfg.Settings.BatchSize,
			Tables:    cfg.Settings.Tables,
			Confirm:   func(string) bool { return confirmed },
			Progress:  prog,
		})

		uiprogress.Stop()
		printSummary(report, time.Since(start))

		if len(report.Failures) > 0 {
			if path, err := flushFailureLog(cfg.Source.Path, report); err != nil {
				logrus.WithError(err).Error("could not write failure log")
			} else {
				fmt.Printf("Row failure log: %s\n", path)
			}
		}

		if runErr != nil {
			return fmt.Errorf("migration failed: %w", runErr)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&batchSize, "batch-size", 0, "rows per write attempt (overrides config)")
	runCmd.Flags().StringSliceVarP(&runTables, "tables", "t", []string{}, "tables the target schema expects (comma-separated, overrides config)")
	runCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "confirm destructive truncation of the target tables")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the migration plan without writing to the target")
	runCmd.Flags().StringVar(&failureLog, "failure-log", "", "path for the row failure log (default: generated next to the source file)")
}

// printPlan lists the tables in migration order with their type plans.
// Read-only; the target is never opened.
func printPlan(src *sql.DB, cfg *Config) error {
	names := cfg.Settings.Tables
	if len(names) == 0 {
		var err error
		if names, err = schema.List(src); err != nil {
			return err
		}
	}
	tables := make([]*schema.Table, 0, len(names))
	for _, name := range names {
		t, err := schema.Introspect(src, name)
		if err != nil {
			return err
		}
		tables = append(tables, t)
	}

	ordered := schema.Sort(tables)
	fmt.Println("Migration plan (dependency order):")
	for i, t := range ordered {
		fmt.Printf("[%02d/%02d] %s\n", i+1, len(ordered), t.Name)
		for _, plan := range engine.PlanColumns(t, logrus.StandardLogger()) {
			null := "NOT NULL"
			for _, c := range t.Columns {
				if c.Name == plan.Name && c.IsNullable {
					null = "NULL"
				}
			}
			fmt.Printf("    %-24s -> %-16s %s\n", plan.Name, plan.Type, null)
		}
	}
	return nil
}

func promptConfirm(cfg *Config) bool {
	scope := "ALL source tables"
	if len(cfg.Settings.Tables) > 0 {
		scope = strings.Join(cfg.Settings.Tables, ", ")
	}
	fmt.Printf("This will TRUNCATE the following target tables before loading: %s\n", scope)
	fmt.Print("Proceed? [y/N]: ")
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

// printSummary renders the final report in dependency order.
func printSummary(report *engine.Report, elapsed time.Duration) {
	fmt.Println("\nMigration Summary:")
	for i, tr := range report.Tables {
		icon := "ok"
		if tr.State != engine.StateCompleted {
			icon = "!!"
		} else if tr.Failed > 0 {
			icon = " !"
		}
		fmt.Printf("[%s] [%02d/%02d] %-20s : %d/%d rows migrated (%d failed) in %s - %s\n",
			icon, i+1, len(report.Tables), tr.Table,
			tr.Succeeded, tr.Attempted, tr.Failed,
			tr.Elapsed.Round(time.Millisecond), tr.State)
		if tr.Err != "" {
			fmt.Printf("    | %s\n", tr.Err)
		}
	}
	fmt.Println("--------------------------------------------------")
	fmt.Printf("Outcome: %s (run %s, %s)\n", report.Outcome, report.RunID, elapsed.Round(time.Millisecond))
}

// flushFailureLog persists every RowFailure as one JSON line so failed rows
// can be reinserted manually later.
func flushFailureLog(sourcePath string, report *engine.Report) (string, error) {
	path := failureLog
	if path == "" {
		stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
		path = fmt.Sprintf("migration_failures_%s_%d.log", stem, report.StartedAt.Unix())
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	flog := logrus.New()
	flog.SetOutput(f)
	flog.SetFormatter(&logrus.JSONFormatter{})
	for _, failure := range report.Failures {
		flog.WithFields(logrus.Fields{
			"run_id": report.RunID,
			"table":  failure.Table,
			"row":    failure.Row,
			"values": failure.Values,
		}).Error(failure.Err)
	}
	return path, nil
}

// barProgress adapts the engine's progress notifications to uiprogress.
type barProgress struct {
	mu       sync.Mutex
	bars     map[string]*uiprogress.Bar
	trackers map[string]*engine.Tracker
}

func newBarProgress() *barProgress {
	return &barProgress{
		bars:     make(map[string]*uiprogress.Bar),
		trackers: make(map[string]*engine.Tracker),
	}
}

func (p *barProgress) TableStarted(table string, totalRows int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := int(totalRows)
	if total < 1 {
		total = 1 // uiprogress needs a positive total even for empty tables
	}
	tracker := engine.NewTracker(totalRows)
	p.trackers[table] = tracker
	bar := uiprogress.AddBar(total).AppendCompleted().PrependElapsed()
	bar.PrependFunc(func(b *uiprogress.Bar) string {
		return fmt.Sprintf("%-20s %6.0f rows/s", table, tracker.Rate())
	})
	p.bars[table] = bar
}

func (p *barProgress) BatchDone(table string, processed int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if tracker, ok := p.trackers[table]; ok {
		tracker.Observe(processed)
	}
	if bar, ok := p.bars[table]; ok {
		bar.Set(int(processed))
	}
}

func (p *barProgress) TableFinished(table string, state engine.TableState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if bar, ok := p.bars[table]; ok && state == engine.StateCompleted {
		bar.Set(bar.Total)
	}
}
