package engine

import "time"

// Progress receives batch-boundary notifications while a table transfers.
// Implementations observe only: they must never influence control flow or
// the outcome of a run.
type Progress interface {
	TableStarted(table string, totalRows int64)
	BatchDone(table string, processed int64)
	TableFinished(table string, state TableState)
}

// NopProgress discards all notifications.
type NopProgress struct{}

func (NopProgress) TableStarted(string, int64)       {}
func (NopProgress) BatchDone(string, int64)          {}
func (NopProgress) TableFinished(string, TableState) {}

// Tracker derives elapsed time and throughput for one table. The CLI wraps
// it around its progress bars; the engine itself never reads it.
type Tracker struct {
	start     time.Time
	total     int64
	processed int64
}

func NewTracker(total int64) *Tracker {
	return &Tracker{start: time.Now(), total: total}
}

func (t *Tracker) Observe(processed int64) { t.processed = processed }

func (t *Tracker) Elapsed() time.Duration { return time.Since(t.start) }

// Rate returns rows per second since the table started.
func (t *Tracker) Rate() float64 {
	secs := time.Since(t.start).Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(t.processed) / secs
}
