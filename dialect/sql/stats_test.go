package sql

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var slow []string
	drv := NewStatsDriver(OpenDB("mysql", db),
		WithSlowThreshold(-1),
		WithSlowQueryHook(func(_ context.Context, query string, _ time.Duration) {
			slow = append(slow, query)
		}),
	)
	assert.Equal(t, time.Duration(-1), drv.SlowThreshold())

	mock.ExpectQuery("SELECT \\* FROM `Person`").WillReturnRows(sqlmock.NewRows([]string{"Id"}).AddRow(1))
	mock.ExpectQuery("SELECT \\* FROM `Missing`").WillReturnError(errors.New("no such table"))

	rows, err := drv.Capture(context.Background(), "Person", "")
	require.NoError(t, err)
	require.NoError(t, rows.Close())
	_, err = drv.Capture(context.Background(), "Missing", "")
	require.Error(t, err)

	s := drv.QueryStats().Stats()
	assert.EqualValues(t, 2, s.TotalQueries)
	assert.EqualValues(t, 1, s.Errors)
	assert.EqualValues(t, 2, s.SlowQueries)
	assert.Equal(t, []string{"SELECT * FROM `Person` WHERE 1=1", "SELECT * FROM `Missing` WHERE 1=1"}, slow)
	assert.Contains(t, s.String(), "queries=2")

	drv.QueryStats().Reset()
	assert.Equal(t, StatsSnapshot{}, drv.QueryStats().Stats())
	assert.Zero(t, StatsSnapshot{}.AvgQueryDuration())

	drv.SetSlowThreshold(time.Hour)
	assert.Equal(t, time.Hour, drv.SlowThreshold())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlowQueryLog(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	drv := NewStatsDriver(OpenDB("postgres", db), WithSlowThreshold(-1), WithSlowQueryLog(zerolog.New(&buf)))
	mock.ExpectQuery(`SELECT \* FROM "T"`).WillReturnRows(sqlmock.NewRows([]string{"Id"}))
	rows, err := drv.Capture(context.Background(), "T", "")
	require.NoError(t, err)
	require.NoError(t, rows.Close())
	assert.Contains(t, buf.String(), `"message":"slow capture query"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestDebugDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	drv := NewDebugDriver(OpenDB("sqlite", db), zerolog.New(&buf).Level(zerolog.DebugLevel))
	mock.ExpectQuery(`SELECT \* FROM "T" WHERE Id > 1`).WillReturnRows(sqlmock.NewRows([]string{"Id"}))
	rows, err := drv.Capture(context.Background(), "T", "Id > 1")
	require.NoError(t, err)
	require.NoError(t, rows.Close())
	assert.Contains(t, buf.String(), `"dialect":"sqlite3"`)
	assert.Contains(t, buf.String(), `"message":"capture"`)
	require.NoError(t, mock.ExpectationsWereMet())
}
