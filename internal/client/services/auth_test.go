package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/spotlight/internal/client/client"
	"github.com/dmitrijs2005/spotlight/internal/client/models"
	"github.com/dmitrijs2005/spotlight/internal/client/normalize"
	"github.com/dmitrijs2005/spotlight/internal/client/repositories/session"
	"github.com/dmitrijs2005/spotlight/internal/testutil/fakeapi"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_EndToEnd(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"token":"t1","user":{"id":"u1","fullName":"Jane Doe","email":"jane@x.com"}}`)
	}))
	defer srv.Close()

	storage := session.NewMemoryStorage()
	c, err := client.New(client.Options{BaseURL: srv.URL + "/api/v1", Tokens: storage})
	require.NoError(t, err)
	svc := NewAuthService(c, storage, nil)

	_, err = svc.Register(context.Background(), "Jane Doe", "jane@x.com", "pw123456")
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/auth/register", gotPath)
	assert.Equal(t, "Jane Doe", gotBody["fullName"])
	assert.Equal(t, "jane@x.com", gotBody["email"])
	assert.Equal(t, "pw123456", gotBody["password"])

	want := models.Session{User: &models.User{ID: "u1", FullName: "Jane Doe", Email: "jane@x.com"}, Token: "t1"}
	if diff := cmp.Diff(want, svc.Session()); diff != "" {
		t.Fatalf("session mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, svc.Session().IsAuthenticated())

	persisted, err := storage.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, persisted)
}

func TestLogin_Success(t *testing.T) {
	e := newEnv(t)
	e.api.AddUser("Ann", "ann@x.com", "secret1")

	s, err := e.auth.Login(context.Background(), "ann@x.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, s.User)
	assert.Equal(t, "Ann", s.User.FullName)
	assert.NotEmpty(t, s.Token)
	assert.Equal(t, s, e.auth.Session())
	assert.Equal(t, s.Token, e.storage.Token(context.Background()))
}

func TestLogin_FailureLeavesStateUnchanged(t *testing.T) {
	e := newEnv(t)
	before := e.signIn(t)

	_, err := e.auth.Login(context.Background(), "jane@x.com", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Equal(t, "Invalid credentials", err.Error())
	assert.Equal(t, before, e.auth.Session())
	assert.Equal(t, before.Token, e.storage.Token(context.Background()))
}

func TestLogin_DefaultMessage(t *testing.T) {
	e := newEnv(t)
	e.api.Fail("POST auth/login", http.StatusInternalServerError, `oops`)

	_, err := e.auth.Login(context.Background(), "a@x.com", "pw")
	require.Error(t, err)
	assert.Equal(t, "Login failed", err.Error())
	assert.False(t, e.auth.Session().IsAuthenticated())
}

func TestLogin_MalformedResponse(t *testing.T) {
	e := newEnv(t)
	e.api.Fail("POST auth/login", http.StatusOK, `{"message":"ok"}`)

	_, err := e.auth.Login(context.Background(), "a@x.com", "pw")
	assert.ErrorIs(t, err, normalize.ErrMalformedResponse)
	assert.Equal(t, "Login failed", err.Error())
	assert.Equal(t, models.Session{}, e.auth.Session())
}

func TestRegister_Conflict(t *testing.T) {
	e := newEnv(t)
	e.api.AddUser("Jane", "jane@x.com", "pw")

	_, err := e.auth.Register(context.Background(), "Jane Doe", "jane@x.com", "pw123456")
	require.Error(t, err)
	assert.Equal(t, "User already exists", client.MessageOf(err, "Registration failed"))
	assert.False(t, e.auth.Session().IsAuthenticated())
}

func TestRegister_WithOTP(t *testing.T) {
	e := newEnv(t, fakeapi.WithOTP())
	ctx := context.Background()

	_, err := e.auth.Register(ctx, "Jane Doe", "jane@x.com", "pw123456")
	require.ErrorIs(t, err, ErrVerificationRequired)
	assert.Equal(t, models.Session{}, e.auth.Session())
	assert.Equal(t, "jane@x.com", e.auth.PendingEmail())

	_, err = e.auth.Login(ctx, "jane@x.com", "pw123456")
	assert.ErrorIs(t, err, client.ErrForbidden)

	msg, err := e.auth.ResendOTP(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "OTP resent", msg)

	_, err = e.auth.VerifyOTP(ctx, "000000")
	require.Error(t, err)
	assert.Equal(t, "Invalid or expired OTP", err.Error())
	assert.False(t, e.auth.Session().IsAuthenticated())

	s, err := e.auth.VerifyOTP(ctx, fakeapi.OTPCode)
	require.NoError(t, err)
	assert.Equal(t, "jane@x.com", s.User.Email)
	assert.True(t, e.auth.Session().IsAuthenticated())
	assert.Equal(t, "", e.auth.PendingEmail())
}

func TestSession_AtomicityAcrossOperations(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.api.AddUser("Ann", "ann@x.com", "pw")

	check := func() {
		t.Helper()
		s := e.auth.Session()
		assert.True(t, s.Consistent(), "user and token must be set together: %+v", s)
		assert.Equal(t, s.User != nil, s.IsAuthenticated())
	}

	ops := []func(){
		func() { _, _ = e.auth.Login(ctx, "ann@x.com", "bad") },
		func() { _, _ = e.auth.Login(ctx, "ann@x.com", "pw") },
		func() { e.auth.Logout(ctx) },
		func() { _, _ = e.auth.Register(ctx, "Bob", "bob@x.com", "pw") },
		func() { _, _ = e.auth.Register(ctx, "Bob", "bob@x.com", "pw") },
		func() { _, _ = e.auth.VerifyOTP(ctx, "nope") },
		func() { e.auth.Logout(ctx) },
		func() { _, _ = e.auth.Login(ctx, "bob@x.com", "pw") },
	}
	check()
	for _, op := range ops {
		op()
		check()
	}
}

func TestLogout_Idempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.signIn(t)
	hits := e.api.TotalHits()

	e.auth.Logout(ctx)
	first := e.auth.Session()
	e.auth.Logout(ctx)

	assert.Equal(t, models.Session{}, first)
	assert.Equal(t, first, e.auth.Session())
	assert.Equal(t, hits, e.api.TotalHits(), "logout must not call the backend")
	assert.Empty(t, e.storage.Raw())
}

func TestRestore(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := e.signIn(t)

	// a new process: fresh service, same durable storage
	svc := NewAuthService(e.client, e.storage, nil)
	assert.False(t, svc.Session().IsAuthenticated())

	got, err := svc.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, s, got)
	assert.True(t, svc.Session().IsAuthenticated())
}

func TestStorageFailuresAreNotFatal(t *testing.T) {
	api := fakeapi.Start(t)
	c, err := client.New(client.Options{BaseURL: api.URL})
	require.NoError(t, err)
	svc := NewAuthService(c, failingStorage{}, nil)
	ctx := context.Background()

	_, err = svc.Restore(ctx)
	require.Error(t, err)

	s, err := svc.Register(ctx, "Jane", "jane@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, s, svc.Session())

	svc.Logout(ctx)
	assert.False(t, svc.Session().IsAuthenticated())
}

func TestExpiresAt(t *testing.T) {
	e := newEnv(t, fakeapi.WithTokenTTL(time.Hour))

	_, ok := e.auth.ExpiresAt()
	assert.False(t, ok)

	e.signIn(t)
	exp, ok := e.auth.ExpiresAt()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)
}

func TestLogin_SingleFlight(t *testing.T) {
	e := newEnv(t)
	e.api.AddUser("Ann", "ann@x.com", "pw")
	release := e.api.Block("POST auth/login")

	var wg sync.WaitGroup
	results := make([]models.Session, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = e.auth.Login(context.Background(), "ann@x.com", "pw")
	}()
	eventually(t, func() bool { return e.api.Hits("POST auth/login") == 1 })

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = e.auth.Login(context.Background(), "ann@x.com", "pw")
	}()
	time.Sleep(50 * time.Millisecond)
	release()
	wg.Wait()

	assert.Equal(t, 1, e.api.Hits("POST auth/login"))
	assert.Equal(t, results[0], results[1])
	assert.True(t, results[0].IsAuthenticated())
}

func TestUnauthorizedHookLogsOut(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.client.OnUnauthorized(func() { e.auth.Logout(ctx) })
	e.signIn(t)

	e.api.Fail("GET user/skills", http.StatusUnauthorized, `{"message":"jwt expired"}`)
	_, err := e.client.Skills().List(ctx)
	require.ErrorIs(t, err, client.ErrUnauthorized)

	assert.False(t, e.auth.Session().IsAuthenticated())
	assert.Equal(t, "", e.storage.Token(ctx))
}

func TestPasswordRecovery(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.api.AddUser("Ann", "ann@x.com", "old")

	msg, err := e.auth.ForgotPassword(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Password reset link sent", msg)

	_, err = e.auth.ResetPassword(ctx, "bogus", "new")
	require.Error(t, err)

	_, err = e.auth.ResetPassword(ctx, e.api.ResetToken("ann@x.com"), "new")
	require.NoError(t, err)

	_, err = e.auth.Login(ctx, "ann@x.com", "new")
	require.NoError(t, err)

	_, err = e.auth.ForgotPassword(ctx, "ghost@x.com")
	assert.ErrorIs(t, err, client.ErrNotFound)
}

func TestCompleteExternalSignIn(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	err := e.auth.CompleteExternalSignIn(ctx, models.ExternalIdentity{FullName: "Jane", Email: "jane@x.com", ProviderID: "user_1"})
	require.NoError(t, err)
	assert.Equal(t, 1, e.api.Hits("POST users"))

	err = e.auth.CompleteExternalSignIn(ctx, models.ExternalIdentity{Email: "jane@x.com"})
	require.Error(t, err)
}

func TestSubscribe(t *testing.T) {
	e := newEnv(t)
	var mu sync.Mutex
	var seen []bool
	cancel := e.auth.Subscribe(func(s models.Session) {
		mu.Lock()
		seen = append(seen, s.IsAuthenticated())
		mu.Unlock()
	})

	e.signIn(t)
	e.auth.Logout(context.Background())
	e.auth.Logout(context.Background())
	cancel()
	_, err := e.auth.Login(context.Background(), "jane@x.com", "pw123456")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, seen)
}
