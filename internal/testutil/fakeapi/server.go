// Package fakeapi is an in-memory Spotlight backend for tests.
//
// It serves the REST surface under /api/v1, issues HS256 tokens and keeps
// every record in memory. Routes are addressed by keys such as
// "POST auth/login" or "GET users/{id}"; tests use them to inject failures,
// hold requests and count calls.
package fakeapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	defaultTokenTTL = 24 * time.Hour

	// OTPCode is the one-time code every registration receives.
	OTPCode = "123456"
)

type failure struct {
	status int
	body   string
	once   bool
}

type user struct {
	ID         string
	FullName   string
	Email      string
	Password   []byte
	ProfRole   string
	Bio        string
	Location   string
	Avatar     string
	Verified   bool
	ProviderID string
}

// Server holds the fake backend's state.
type Server struct {
	// URL is the API base, e.g. http://127.0.0.1:1234/api/v1. Set by Start.
	URL string

	secret     []byte
	tokenTTL   time.Duration
	requireOTP bool

	mu        sync.Mutex
	users     map[string]*user
	order     []string
	byEmail   map[string]string
	otps      map[string]string
	resets    map[string]string
	resources map[string]map[string][]map[string]any
	links     map[string]map[string]any

	hits     map[string]int
	failures map[string]failure
	blocks   map[string]chan struct{}
}

type Option func(*Server)

// WithOTP makes registration return no token until the OTP is verified.
func WithOTP() Option {
	return func(s *Server) { s.requireOTP = true }
}

func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.tokenTTL = d }
}

func New(opts ...Option) *Server {
	s := &Server{
		secret:    []byte("fakeapi-secret"),
		tokenTTL:  defaultTokenTTL,
		users:     make(map[string]*user),
		byEmail:   make(map[string]string),
		otps:      make(map[string]string),
		resets:    make(map[string]string),
		resources: make(map[string]map[string][]map[string]any),
		links:     make(map[string]map[string]any),
		hits:      make(map[string]int),
		failures:  make(map[string]failure),
		blocks:    make(map[string]chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start serves s on a local listener for the duration of the test.
func Start(t testing.TB, opts ...Option) *Server {
	t.Helper()
	s := New(opts...)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	s.URL = srv.URL + "/api/v1"
	return s
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		s.route(r, http.MethodPost, "auth/register", s.register)
		s.route(r, http.MethodPost, "auth/login", s.login)
		s.route(r, http.MethodPost, "auth/verify-otp", s.verifyOTP)
		s.route(r, http.MethodPost, "auth/resend-otp", s.resendOTP)
		s.route(r, http.MethodPost, "auth/forgot-password", s.forgotPassword)
		s.route(r, http.MethodPost, "auth/reset-password", s.resetPassword)

		s.route(r, http.MethodPost, "users", s.saveIdentity)
		s.route(r, http.MethodGet, "users", s.listUsers)
		s.route(r, http.MethodGet, "users/search", s.searchUsers)
		s.route(r, http.MethodGet, "users/{id}", s.getUser)
		s.route(r, http.MethodPut, "users/{id}", s.requireAuth(s.updateUser))

		for _, kind := range []string{"skills", "experiences", "projects", "educations"} {
			s.route(r, http.MethodGet, "user/"+kind, s.requireAuth(s.listResource(kind)))
			s.route(r, http.MethodPost, "user/"+kind, s.requireAuth(s.addResource(kind)))
			s.route(r, http.MethodPut, "user/"+kind+"/{id}", s.requireAuth(s.updateResource(kind)))
			s.route(r, http.MethodDelete, "user/"+kind+"/{id}", s.requireAuth(s.deleteResource(kind)))
		}

		s.route(r, http.MethodGet, "user/profile", s.requireAuth(s.getOwnProfile))
		s.route(r, http.MethodPost, "ai/review", s.requireAuth(s.reviewProfile))

		s.route(r, http.MethodGet, "user/links", s.requireAuth(s.getLinks))
		s.route(r, http.MethodPatch, "user/links/upsert", s.requireAuth(s.upsertLinks))
	})
	return r
}

// route registers h under "METHOD pattern" and applies the test hooks for
// that key.
func (s *Server) route(r chi.Router, method, pattern string, h http.HandlerFunc) {
	key := method + " " + pattern
	r.MethodFunc(method, "/"+pattern, func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		s.hits[key]++
		block := s.blocks[key]
		f, failing := s.failures[key]
		if failing && f.once {
			delete(s.failures, key)
		}
		s.mu.Unlock()

		if block != nil {
			select {
			case <-block:
			case <-req.Context().Done():
				return
			}
		}
		if failing {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}
		h(w, req)
	})
}

// Fail makes every request to route answer with status and raw body until
// Recover is called.
func (s *Server) Fail(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, body: body}
}

// FailOnce is Fail for the next request only.
func (s *Server) FailOnce(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, body: body, once: true}
}

func (s *Server) Recover(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// Block holds requests to route until the returned func is called.
func (s *Server) Block(route string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.blocks[route] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.blocks[route] == ch {
				delete(s.blocks, route)
			}
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Hits returns how many requests route has received.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// TotalHits counts requests across all routes.
func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.hits {
		n += v
	}
	return n
}

type contextKey string

const contextUserKey contextKey = "uid"

func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextUserKey).(string)
	return id
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok, err := bearerToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		id, err := s.parseToken(tok)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "jwt expired or invalid")
			return
		}
		s.mu.Lock()
		_, ok := s.users[id]
		s.mu.Unlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), contextUserKey, id)))
	}
}

type errorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

func decodeBody(r *http.Request, v any) bool {
	return json.NewDecoder(r.Body).Decode(v) == nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
