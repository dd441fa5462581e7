package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/dmitrijs2005/spotlight/internal/client/client"
	"github.com/dmitrijs2005/spotlight/internal/client/models"
	"github.com/dmitrijs2005/spotlight/internal/client/repositories/session"
	"github.com/dmitrijs2005/spotlight/internal/testutil/fakeapi"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

type env struct {
	api     *fakeapi.Server
	client  *client.HTTPClient
	storage *session.MemoryStorage
	auth    AuthService
}

func newEnv(t *testing.T, opts ...fakeapi.Option) *env {
	t.Helper()
	api := fakeapi.Start(t, opts...)
	storage := session.NewMemoryStorage()

	c, err := client.New(client.Options{
		BaseURL:   api.URL,
		Tokens:    storage,
		Timeout:   5 * time.Second,
		RateLimit: 1000,
		RateBurst: 1000,
	})
	require.NoError(t, err)

	return &env{api: api, client: c, storage: storage, auth: NewAuthService(c, storage, nil)}
}

// signIn registers a fresh user and returns the session.
func (e *env) signIn(t *testing.T) models.Session {
	t.Helper()
	s, err := e.auth.Register(context.Background(), "Jane Doe", "jane@x.com", "pw123456")
	require.NoError(t, err)
	return s
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

// ---- fake storage ----

// failingStorage fails every operation.
type failingStorage struct{}

func (failingStorage) Load(context.Context) (models.Session, error) {
	return models.Session{}, errors.New("disk unavailable")
}
func (failingStorage) Save(context.Context, models.Session) error { return errors.New("disk full") }
func (failingStorage) Clear(context.Context) error                 { return errors.New("disk full") }

// ---- fake uploader ----

type fakeUploader struct {
	URL  string
	Err  error
	Name string
}

func (f *fakeUploader) Upload(_ context.Context, name string, _ io.Reader, _ int64, _ string) (string, error) {
	f.Name = name
	return f.URL, f.Err
}
