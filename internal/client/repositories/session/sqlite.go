package session

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/spotlight/internal/client/models"
	"github.com/dmitrijs2005/spotlight/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/spotlight/internal/dbx"
)

// SQLiteStorage keeps the session blob in the local metadata table.
type SQLiteStorage struct {
	db *sql.DB
}

var _ Storage = (*SQLiteStorage)(nil)

func NewSQLiteStorage(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{db: db}
}

func (s *SQLiteStorage) Load(ctx context.Context) (models.Session, error) {
	b, err := metadata.NewSQLiteRepository(s.db).Get(ctx, StorageKey)
	if err != nil {
		return models.Session{}, err
	}
	sess, _, err := decode(b)
	return sess, err
}

// Save keeps the version of an existing blob.
func (s *SQLiteStorage) Save(ctx context.Context, sess models.Session) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)

		prev, err := repo.Get(ctx, StorageKey)
		if err != nil {
			return err
		}
		// an unreadable blob is overwritten
		_, version, _ := decode(prev)

		b, err := encode(sess, version)
		if err != nil {
			return err
		}
		return repo.Set(ctx, StorageKey, b)
	})
}

func (s *SQLiteStorage) Clear(ctx context.Context) error {
	return metadata.NewSQLiteRepository(s.db).Delete(ctx, StorageKey)
}

// Token returns the persisted bearer token, or "" if there is none or it
// cannot be read.
func (s *SQLiteStorage) Token(ctx context.Context) string {
	sess, err := s.Load(ctx)
	if err != nil {
		return ""
	}
	return sess.Token
}
