package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MockShop/internal/catalog"
)

func newPostgresRepoWithMock(t *testing.T) (*catalog.SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return catalog.NewSQLRepository(db, catalog.Postgres, "s1"), mock
}

const (
	loadQueryRe = `(?s)SELECT data\s+FROM snapshots\s+WHERE session_id = \$1 AND snapshot_key = \$2`
	saveQueryRe = `(?s)INSERT INTO snapshots \(session_id, snapshot_key, data, updated_at\)\s+VALUES \(\$1, \$2, \$3, \$4\)\s+ON CONFLICT`
)

func TestSQLRepository_PostgresLoad(t *testing.T) {
	repo, mock := newPostgresRepoWithMock(t)

	mock.ExpectQuery(loadQueryRe).
		WithArgs("s1", catalog.SnapshotKey).
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow(`[{"id":7,"name":"Lamp","comments":[]}]`))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepository_PostgresLoadEmpty(t *testing.T) {
	repo, mock := newPostgresRepoWithMock(t)

	mock.ExpectQuery(loadQueryRe).
		WithArgs("s1", catalog.SnapshotKey).
		WillReturnRows(sqlmock.NewRows([]string{"data"}))

	_, err := repo.Load(context.Background())
	assert.ErrorIs(t, err, catalog.ErrNoSnapshot)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepository_PostgresSave(t *testing.T) {
	repo, mock := newPostgresRepoWithMock(t)

	mock.ExpectExec(saveQueryRe).
		WithArgs("s1", catalog.SnapshotKey, `[{"id":1,"name":"A","price":0,"rating":0,"image":"","images":[],"description":"","arrivalDate":"","comments":[]}]`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(context.Background(), []catalog.Product{{ID: 1, Name: "A"}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepository_PostgresError(t *testing.T) {
	repo, mock := newPostgresRepoWithMock(t)

	mock.ExpectQuery(loadQueryRe).WillReturnError(errors.New("db down"))

	_, err := repo.Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, catalog.ErrNoSnapshot)
	assert.Contains(t, err.Error(), "db error: db down")
}
