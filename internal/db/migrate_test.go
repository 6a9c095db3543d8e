package db

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMigrations_OrderedAndUnique(t *testing.T) {
	seen := map[int]bool{}
	prev := 0
	for _, m := range Migrations {
		require.Greater(t, m.Version, prev, m.Name)
		require.False(t, seen[m.Version])
		require.NotEmpty(t, m.SQL)
		seen[m.Version] = true
		prev = m.Version
	}
	require.Equal(t, prev, LatestVersion())
}

func TestMigrator_AppliesPendingOnly(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(version\), 0\) FROM schema_migrations`).
		WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow(5))

	for _, m := range Migrations[5:] {
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").
			WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mock.ExpectExec("INSERT INTO schema_migrations").
			WithArgs(m.Version, m.Name).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()
	}

	applied, err := NewMigrator(mock, zap.NewNop()).Up(context.Background())
	require.NoError(t, err)
	require.Equal(t, len(Migrations)-5, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrator_StopsOnFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow(len(Migrations) - 1))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS outbox_events").
		WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	applied, err := NewMigrator(mock, zap.NewNop()).Up(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "create_outbox_events")
	require.Equal(t, 0, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}
