package sql

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Capturer selects the rows of a table from a source database.
type Capturer interface {
	Capture(ctx context.Context, table, where string) (*Rows, error)
}

// QueryStats holds capture query statistics.
type QueryStats struct {
	// TotalQueries is the total number of queries executed.
	TotalQueries atomic.Int64
	// TotalDuration is the total time spent executing queries.
	TotalDuration atomic.Int64 // nanoseconds
	// SlowQueries is the count of queries exceeding the slow threshold.
	SlowQueries atomic.Int64
	// Errors is the count of query errors.
	Errors atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.TotalQueries.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.TotalQueries.Store(0)
	s.TotalDuration.Store(0)
	s.SlowQueries.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is a point-in-time snapshot of query statistics.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

// AvgQueryDuration returns the average query duration.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	if s.TotalQueries == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.TotalQueries)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalDuration, s.AvgQueryDuration(), s.SlowQueries, s.Errors,
	)
}

// SlowQueryHook is a function called when a slow query is detected.
type SlowQueryHook func(ctx context.Context, query string, duration time.Duration)

// StatsDriver wraps a Driver with query statistics collection.
type StatsDriver struct {
	*Driver
	stats         *QueryStats
	slowThreshold time.Duration
	slowHook      SlowQueryHook
	mu            sync.RWMutex
}

// StatsOption configures the StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the threshold for slow query detection.
// Default is one second, capture queries read whole tables.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.slowThreshold = d
	}
}

// WithSlowQueryHook sets a callback function for slow queries.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.slowHook = hook
	}
}

// WithSlowQueryLog logs slow queries as warnings.
func WithSlowQueryLog(log zerolog.Logger) StatsOption {
	return WithSlowQueryHook(func(_ context.Context, query string, duration time.Duration) {
		log.Warn().Dur("duration", duration).Str("query", query).Msg("slow capture query")
	})
}

// NewStatsDriver wraps a Driver with statistics collection.
//
// Example:
//
//	drv, _ := sql.Open("pgx", dsn)
//	sd := sql.NewStatsDriver(drv,
//	    sql.WithSlowThreshold(2*time.Second),
//	    sql.WithSlowQueryLog(logger),
//	)
//	rows, err := sd.Capture(ctx, "Person", "")
//	fmt.Println(sd.QueryStats().Stats())
func NewStatsDriver(drv *Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Driver:        drv,
		stats:         &QueryStats{},
		slowThreshold: time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the underlying QueryStats for reading statistics.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// SlowThreshold returns the current slow query threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.slowThreshold
}

// SetSlowThreshold updates the slow query threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slowThreshold = threshold
}

// Query executes a query and records statistics.
func (d *StatsDriver) Query(ctx context.Context, query string, args ...any) (*Rows, error) {
	start := time.Now()
	rows, err := d.Driver.Query(ctx, query, args...)
	d.record(ctx, query, start, err)
	return rows, err
}

// Capture selects the rows of a table and records statistics.
func (d *StatsDriver) Capture(ctx context.Context, table, where string) (*Rows, error) {
	start := time.Now()
	rows, err := d.Driver.Capture(ctx, table, where)
	d.record(ctx, SelectQuery(d.Dialect(), table, where), start, err)
	return rows, err
}

func (d *StatsDriver) record(ctx context.Context, query string, start time.Time, err error) {
	duration := time.Since(start)
	d.stats.TotalQueries.Add(1)
	d.stats.TotalDuration.Add(int64(duration))
	if err != nil {
		d.stats.Errors.Add(1)
	}

	d.mu.RLock()
	threshold := d.slowThreshold
	hook := d.slowHook
	d.mu.RUnlock()

	if duration > threshold {
		d.stats.SlowQueries.Add(1)
		if hook != nil {
			hook(ctx, query, duration)
		}
	}
}

// DebugDriver wraps a Driver with debug logging of every capture query.
type DebugDriver struct {
	*Driver
	log zerolog.Logger
}

// NewDebugDriver wraps a Driver with debug logging.
func NewDebugDriver(drv *Driver, log zerolog.Logger) *DebugDriver {
	return &DebugDriver{Driver: drv, log: log}
}

// Capture logs the capture query and runs it.
func (d *DebugDriver) Capture(ctx context.Context, table, where string) (*Rows, error) {
	d.log.Debug().Str("dialect", d.Dialect()).Str("query", SelectQuery(d.Dialect(), table, where)).Msg("capture")
	return d.Driver.Capture(ctx, table, where)
}

// Ensure interfaces are implemented.
var (
	_ Capturer = (*Driver)(nil)
	_ Capturer = (*StatsDriver)(nil)
	_ Capturer = (*DebugDriver)(nil)
)
