package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dmitrijs2005/spotlight/internal/client/client"
	"github.com/dmitrijs2005/spotlight/internal/client/models"
	"github.com/dmitrijs2005/spotlight/internal/testutil/fakeapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTalentEnv(t *testing.T, seed int) (*fakeapi.Server, TalentService) {
	t.Helper()
	e := newEnv(t)
	e.api.SeedTalents(seed)
	return e.api, NewTalentService(e.client, nil, 0)
}

func names(items []models.Talent) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.FullName)
	}
	return out
}

func TestFetchAll_EndToEnd(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		body := `{"users":[`
		for i := 1; i <= 5; i++ {
			if i > 1 {
				body += ","
			}
			body += fmt.Sprintf(`{"_id":"u%d","fullName":"User %d","skills":["s1"]}`, i, i)
		}
		body += `],"totalPage":4}`
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	c, err := client.New(client.Options{BaseURL: srv.URL + "/api/v1"})
	require.NoError(t, err)
	svc := NewTalentService(c, nil, 0)

	require.NoError(t, svc.FetchAll(context.Background(), 2, 5))

	st := svc.State()
	assert.Equal(t, "limit=5&page=2", query)
	assert.Len(t, st.Items, 5)
	assert.Equal(t, "u1", st.Items[0].ID)
	assert.Equal(t, 4, st.TotalPages)
	assert.Equal(t, 2, st.Page)
	assert.Equal(t, PhaseLoaded, st.Phase)
	assert.False(t, st.Loading)
}

func TestFetchAll_AgainstBackend(t *testing.T) {
	_, svc := newTalentEnv(t, 20)

	require.NoError(t, svc.FetchAll(context.Background(), 2, 5))
	st := svc.State()
	assert.Equal(t, []string{"Talent 06", "Talent 07", "Talent 08", "Talent 09", "Talent 10"}, names(st.Items))
	assert.Equal(t, 4, st.TotalPages)

	first := st.Items[0]
	require.Len(t, first.Skills, 1)
	assert.True(t, first.Skills[0].IsPopulated())
	require.Len(t, first.Projects, 1)
	assert.False(t, first.Projects[0].IsPopulated())
	assert.NotEmpty(t, first.Projects[0].ID())
}

func TestFetchAll_Defaults(t *testing.T) {
	api, svc := newTalentEnv(t, 12)

	require.NoError(t, svc.FetchAll(context.Background(), 0, 0))
	st := svc.State()
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, DefaultPageLimit, st.Limit)
	assert.Len(t, st.Items, 10)
	assert.Equal(t, 2, st.TotalPages)
	assert.Equal(t, 1, api.Hits("GET users"))
}

func TestFetchAll_FailureKeepsPreviousPage(t *testing.T) {
	api, svc := newTalentEnv(t, 10)
	ctx := context.Background()

	require.NoError(t, svc.FetchAll(ctx, 1, 5))
	pageOne := svc.State().Items

	api.Fail("GET users", http.StatusInternalServerError, `{"message":"db down"}`)
	err := svc.FetchAll(ctx, 2, 5)
	require.Error(t, err)

	st := svc.State()
	assert.Equal(t, pageOne, st.Items)
	assert.Equal(t, 1, st.Page)
	assert.False(t, st.Loading)
	assert.Equal(t, PhaseFailed, st.Phase)
	assert.Equal(t, "db down", st.Message)
}

func TestFetchAll_MalformedUsersDefaultsToEmpty(t *testing.T) {
	api, svc := newTalentEnv(t, 3)
	api.Fail("GET users", http.StatusOK, `{"users":{"not":"a list"}}`)

	require.NoError(t, svc.FetchAll(context.Background(), 1, 10))
	st := svc.State()
	assert.NotNil(t, st.Items)
	assert.Empty(t, st.Items)
	assert.Equal(t, 1, st.TotalPages)
	assert.Equal(t, PhaseLoaded, st.Phase)
}

func TestSearch_EmptyQueryIsNoop(t *testing.T) {
	api, svc := newTalentEnv(t, 3)
	ctx := context.Background()
	require.NoError(t, svc.FetchAll(ctx, 1, 10))

	before := svc.State()
	hits := api.TotalHits()

	for _, q := range []string{"", "   ", "\t\n"} {
		require.NoError(t, svc.Search(ctx, q))
	}
	assert.Equal(t, hits, api.TotalHits())
	assert.Equal(t, before, svc.State())
}

func TestSearch_ReplacesItems(t *testing.T) {
	api, svc := newTalentEnv(t, 12)
	ctx := context.Background()
	require.NoError(t, svc.FetchAll(ctx, 1, 5))

	require.NoError(t, svc.Search(ctx, "  talent 1  "))
	st := svc.State()
	assert.Equal(t, []string{"Talent 10", "Talent 11", "Talent 12"}, names(st.Items))
	assert.Equal(t, "talent 1", st.Query)
	assert.Equal(t, 1, st.TotalPages)
	assert.Equal(t, 1, api.Hits("GET users/search"))
}

func TestSearch_FailureKeepsItems(t *testing.T) {
	api, svc := newTalentEnv(t, 3)
	ctx := context.Background()
	require.NoError(t, svc.FetchAll(ctx, 1, 10))
	items := svc.State().Items

	api.Fail("GET users/search", http.StatusServiceUnavailable, ``)
	err := svc.Search(ctx, "talent")
	require.ErrorIs(t, err, client.ErrUnavailable)

	st := svc.State()
	assert.Equal(t, items, st.Items)
	assert.False(t, st.Loading)
	assert.Equal(t, "Failed to fetch users", st.Message)
}

func TestListing_StaleResponseIsDropped(t *testing.T) {
	api, svc := newTalentEnv(t, 12)
	ctx := context.Background()
	release := api.Block("GET users")

	done := make(chan error, 1)
	go func() { done <- svc.FetchAll(ctx, 1, 10) }()
	eventually(t, func() bool { return api.Hits("GET users") == 1 })

	require.NoError(t, svc.Search(ctx, "Talent 03"))
	release()
	require.NoError(t, <-done)

	st := svc.State()
	assert.Equal(t, []string{"Talent 03"}, names(st.Items))
	assert.Equal(t, "Talent 03", st.Query)
	assert.False(t, st.Loading)
}

func TestListing_LoadingClearedByNewestRequest(t *testing.T) {
	api, svc := newTalentEnv(t, 3)
	ctx := context.Background()
	release := api.Block("GET users/search")
	defer release()

	done := make(chan error, 1)
	go func() { done <- svc.Search(ctx, "talent") }()
	eventually(t, func() bool { return api.Hits("GET users/search") == 1 })
	assert.True(t, svc.State().Loading)
	assert.Equal(t, PhaseLoading, svc.State().Phase)

	// an older request finishing must not clear loading of the newer one
	require.NoError(t, svc.FetchAll(ctx, 1, 10))
	assert.False(t, svc.State().Loading)

	release()
	require.NoError(t, <-done)
	assert.Len(t, svc.State().Items, 3, "the page was requested last and wins")
}

func TestFetchOne(t *testing.T) {
	api, svc := newTalentEnv(t, 3)
	ctx := context.Background()
	ids := api.SeedTalents(1)

	require.NoError(t, svc.FetchAll(ctx, 1, 2))
	got, err := svc.FetchOne(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "Talent 01", got.FullName)

	st := svc.State()
	require.NotNil(t, st.Talent)
	assert.Equal(t, ids[0], st.Talent.ID)
	assert.False(t, st.TalentLoading)
	assert.Len(t, st.Items, 2, "selection is independent of the collection")

	_, err = svc.FetchOne(ctx, "missing")
	require.ErrorIs(t, err, client.ErrNotFound)
	st = svc.State()
	assert.Equal(t, ids[0], st.Talent.ID)
	assert.Equal(t, "User not found", st.TalentMessage)
	assert.Empty(t, st.Message, "a failed selection does not touch the listing")
	assert.Equal(t, PhaseLoaded, st.Phase)

	_, err = svc.FetchOne(ctx, ids[0])
	require.NoError(t, err)
	assert.Empty(t, svc.State().TalentMessage)
}

func TestTalent_Subscribe(t *testing.T) {
	_, svc := newTalentEnv(t, 2)

	var mu sync.Mutex
	var phases []Phase
	cancel := svc.Subscribe(func(st TalentState) {
		mu.Lock()
		phases = append(phases, st.Phase)
		mu.Unlock()
	})
	defer cancel()

	require.NoError(t, svc.FetchAll(context.Background(), 1, 10))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Phase{PhaseLoading, PhaseLoaded}, phases)
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "failed", PhaseFailed.String())
	assert.Equal(t, "phase(9)", Phase(9).String())
}
