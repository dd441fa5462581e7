package metadata

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/spotlight/internal/client/client"
	"github.com/dmitrijs2005/spotlight/internal/dbx"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSetAndGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k1", []byte(`{"a":1}`)))

	v, err := r.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, []byte(`{"a":1}`), v)
}

func TestGet_Absent_ReturnsNilNil(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, err := r.Get(context.Background(), "absent")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestSet_Upserts(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", []byte("old")))
	require.NoError(t, r.Set(ctx, "k", []byte("new")))

	v, err := r.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("new"), v)
}

func TestDelete_IsIdempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", []byte("v")))
	require.NoError(t, r.Delete(ctx, "k"))
	require.NoError(t, r.Delete(ctx, "k"))

	v, err := r.Get(ctx, "k")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestWorksInsideTransaction(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return NewSQLiteRepository(tx).Set(ctx, "k", []byte("v"))
	})
	require.NoError(t, err)

	v, err := NewSQLiteRepository(db).Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)
}

func TestGet_ClosedDB(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Close())

	_, err := NewSQLiteRepository(db).Get(context.Background(), "k")
	require.Error(t, err)
}
