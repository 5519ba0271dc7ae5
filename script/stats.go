package script

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Stats holds script generation statistics. It is safe for concurrent use.
type Stats struct {
	// Scripts is the number of scripts generated, failed ones included.
	Scripts atomic.Int64
	// Rows is the number of rows in the generated tables.
	Rows atomic.Int64
	// Statements is the number of statements written.
	Statements atomic.Int64
	// Bytes is the number of script bytes written.
	Bytes atomic.Int64
	// Duration is the total time spent generating.
	Duration atomic.Int64 // nanoseconds
	// Errors is the number of failed scripts.
	Errors atomic.Int64
}

func (s *Stats) record(rows, statements int, bytes int64, d time.Duration, err error) {
	s.Scripts.Add(1)
	s.Rows.Add(int64(rows))
	s.Statements.Add(int64(statements))
	s.Bytes.Add(bytes)
	s.Duration.Add(int64(d))
	if err != nil {
		s.Errors.Add(1)
	}
}

// Snapshot returns a snapshot of the current statistics.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Scripts:    s.Scripts.Load(),
		Rows:       s.Rows.Load(),
		Statements: s.Statements.Load(),
		Bytes:      s.Bytes.Load(),
		Duration:   time.Duration(s.Duration.Load()),
		Errors:     s.Errors.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *Stats) Reset() {
	s.Scripts.Store(0)
	s.Rows.Store(0)
	s.Statements.Store(0)
	s.Bytes.Store(0)
	s.Duration.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is a point-in-time snapshot of generation statistics.
type StatsSnapshot struct {
	Scripts    int64
	Rows       int64
	Statements int64
	Bytes      int64
	Duration   time.Duration
	Errors     int64
}

// AvgScriptDuration returns the average time spent per script.
func (s StatsSnapshot) AvgScriptDuration() time.Duration {
	if s.Scripts == 0 {
		return 0
	}
	return s.Duration / time.Duration(s.Scripts)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"scripts=%d rows=%d statements=%d bytes=%d duration=%s avg=%s errors=%d",
		s.Scripts, s.Rows, s.Statements, s.Bytes, s.Duration, s.AvgScriptDuration(), s.Errors,
	)
}
