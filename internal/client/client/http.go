package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/spotlight/internal/client/models"
	"github.com/dmitrijs2005/spotlight/internal/client/normalize"
	"github.com/dmitrijs2005/spotlight/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultRateLimit = 10
	defaultRateBurst = 5
	maxBodySize      = 10 << 20

	// RequestIDHeader carries a per-request id for correlating client and
	// server logs.
	RequestIDHeader = "X-Request-ID"
)

// Options configures an HTTPClient. Zero values fall back to defaults.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int

	// Tokens supplies the bearer credential. When nil, the token is read
	// from Jar cookies only.
	Tokens TokenSource
	Jar    http.CookieJar

	Logger    logging.Logger
	Transport http.RoundTripper
}

// HTTPClient implements Client over the backend's REST/JSON API.
type HTTPClient struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	tokens  TokenSource
	log     logging.Logger

	mu             sync.RWMutex
	onUnauthorized func()

	skills      *Resource[models.Skill]
	experiences *Resource[models.Experience]
	projects    *Resource[models.Project]
	educations  *Resource[models.Education]
}

var _ Client = (*HTTPClient)(nil)

// New creates an HTTPClient for the API rooted at opts.BaseURL
// (e.g. http://host/api/v1).
func New(opts Options) (*HTTPClient, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", opts.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := opts.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}
	burst := opts.RateBurst
	if burst <= 0 {
		burst = defaultRateBurst
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	cookies := CookieTokenSource{Jar: opts.Jar, URL: base}
	tokens := ChainTokenSource{opts.Tokens, cookies}

	c := &HTTPClient{
		base: base,
		http: &http.Client{
			Timeout:   timeout,
			Jar:       opts.Jar,
			Transport: opts.Transport,
		},
		limiter: rate.NewLimiter(rate.Limit(limit), burst),
		tokens:  tokens,
		log:     log.With("component", "http-client"),
	}
	c.skills = newResource[models.Skill](c, "skill", "skills")
	c.experiences = newResource[models.Experience](c, "experience", "experiences")
	c.projects = newResource[models.Project](c, "project", "projects")
	c.educations = newResource[models.Education](c, "education", "educations")
	return c, nil
}

// OnUnauthorized registers fn to be called when an authenticated request to
// a non-auth endpoint is answered with 401. Auth endpoints never trigger it.
func (c *HTTPClient) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

func (c *HTTPClient) unauthorized() {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

type request struct {
	op       string
	method   string
	path     string
	query    url.Values
	body     any
	fallback string
}

func (r request) fail(status int, msg string, errs []string, err error) *APIError {
	if msg == "" {
		msg = r.fallback
	}
	return &APIError{Op: r.op, Status: status, Message: msg, Errors: errs, Err: err}
}

// malformed reports a successful response whose body could not be used.
func (r request) malformed(err error) error {
	return r.fail(0, "", nil, err)
}

func (c *HTTPClient) resolve(path string, query url.Values) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	u := c.base.ResolveReference(ref)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u, nil
}

// do performs r and returns the raw body of a 2xx response.
func (c *HTTPClient) do(ctx context.Context, r request) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, r.fail(0, "", nil, errors.Join(ErrUnavailable, err))
	}

	u, err := c.resolve(r.path, r.query)
	if err != nil {
		return nil, r.fail(0, "", nil, fmt.Errorf("failed to build url: %w", err))
	}

	var payload io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return nil, r.fail(0, "", nil, fmt.Errorf("failed to marshal request: %w", err))
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), payload)
	if err != nil {
		return nil, r.fail(0, "", nil, fmt.Errorf("failed to create request: %w", err))
	}

	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, reqID)

	token := c.tokens.Token(ctx)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn(ctx, "request failed", "op", r.op, "request_id", reqID, "err", err)
		return nil, r.fail(0, "", nil, errors.Join(ErrUnavailable, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, r.fail(resp.StatusCode, "", nil, errors.Join(ErrUnavailable, err))
	}

	c.log.Debug(ctx, "request done",
		"op", r.op,
		"method", r.method,
		"path", u.Path,
		"status", resp.StatusCode,
		"request_id", reqID,
		"elapsed", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized && token != "" && !strings.HasPrefix(r.path, "auth/") {
			c.unauthorized()
		}
		return nil, r.fail(resp.StatusCode, normalize.Message(body), normalize.Errors(body), mapStatus(resp.StatusCode))
	}
	return body, nil
}

// decodeList reads a list payload and logs elements that did not decode.
func decodeList[T any](ctx context.Context, c *HTTPClient, op string, body []byte, paths ...string) []T {
	items, skipped := normalize.Decode[T](body, paths...)
	if skipped > 0 {
		c.log.Warn(ctx, "skipped undecodable list elements", "op", op, "skipped", skipped, "kept", len(items))
	}
	return items
}

func (c *HTTPClient) auth(ctx context.Context, r request) (models.AuthResult, error) {
	body, err := c.do(ctx, r)
	if err != nil {
		return models.AuthResult{}, err
	}
	return normalize.Auth(body), nil
}

func (c *HTTPClient) Register(ctx context.Context, fullName, email, password string) (models.AuthResult, error) {
	return c.auth(ctx, request{
		op:     "register",
		method: http.MethodPost,
		path:   "auth/register",
		// name is sent alongside fullName for older backends.
		body: map[string]string{
			"fullName": fullName,
			"name":     fullName,
			"email":    email,
			"password": password,
		},
		fallback: "Registration failed",
	})
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (models.AuthResult, error) {
	return c.auth(ctx, request{
		op:       "login",
		method:   http.MethodPost,
		path:     "auth/login",
		body:     map[string]string{"email": email, "password": password},
		fallback: "Login failed",
	})
}

func (c *HTTPClient) VerifyOTP(ctx context.Context, code string) (models.AuthResult, error) {
	return c.auth(ctx, request{
		op:       "verify otp",
		method:   http.MethodPost,
		path:     "auth/verify-otp",
		body:     map[string]string{"OTP": code},
		fallback: "OTP verification failed",
	})
}

func (c *HTTPClient) message(ctx context.Context, r request) (string, error) {
	body, err := c.do(ctx, r)
	if err != nil {
		return "", err
	}
	return normalize.Message(body), nil
}

func (c *HTTPClient) ResendOTP(ctx context.Context, email string) (string, error) {
	return c.message(ctx, request{
		op:       "resend otp",
		method:   http.MethodPost,
		path:     "auth/resend-otp",
		body:     map[string]string{"email": email},
		fallback: "Server error",
	})
}

func (c *HTTPClient) ForgotPassword(ctx context.Context, email string) (string, error) {
	return c.message(ctx, request{
		op:       "forgot password",
		method:   http.MethodPost,
		path:     "auth/forgot-password",
		body:     map[string]string{"email": email},
		fallback: "Server error",
	})
}

func (c *HTTPClient) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	return c.message(ctx, request{
		op:       "reset password",
		method:   http.MethodPost,
		path:     "auth/reset-password",
		body:     map[string]string{"token": token, "newPassword": newPassword},
		fallback: "Server error",
	})
}

func (c *HTTPClient) SaveIdentity(ctx context.Context, id models.ExternalIdentity) error {
	_, err := c.do(ctx, request{
		op:       "save identity",
		method:   http.MethodPost,
		path:     "users",
		body:     id,
		fallback: "Failed to save user",
	})
	return err
}

func (c *HTTPClient) ListUsers(ctx context.Context, page, limit int) (models.TalentPage, error) {
	body, err := c.do(ctx, request{
		op:     "list users",
		method: http.MethodGet,
		path:   "users",
		query: url.Values{
			"page":  {strconv.Itoa(page)},
			"limit": {strconv.Itoa(limit)},
		},
		fallback: "Failed to fetch users",
	})
	if err != nil {
		return models.TalentPage{}, err
	}

	p := models.TalentPage{
		Items:      decodeList[models.Talent](ctx, c, "list users", body, "users", "data.users", "data"),
		TotalPages: 1,
	}
	if n, ok := normalize.Int(body, "totalPage", "totalPages", "data.totalPage", "data.totalPages"); ok && n > 0 {
		p.TotalPages = n
	}
	return p, nil
}

func (c *HTTPClient) SearchUsers(ctx context.Context, query string) ([]models.Talent, error) {
	body, err := c.do(ctx, request{
		op:       "search users",
		method:   http.MethodGet,
		path:     "users/search",
		query:    url.Values{"search": {query}},
		fallback: "Failed to fetch users",
	})
	if err != nil {
		return nil, err
	}
	return decodeList[models.Talent](ctx, c, "search users", body, "users", "data.users", "data", normalize.Body), nil
}

func (c *HTTPClient) GetUser(ctx context.Context, id string) (models.Talent, error) {
	req := request{
		op:       "get user",
		method:   http.MethodGet,
		path:     "users/" + url.PathEscape(id),
		fallback: "Failed to fetch user",
	}
	body, err := c.do(ctx, req)
	if err != nil {
		return models.Talent{}, err
	}

	t, err := normalize.One[models.Talent](body, "user", "data", normalize.Body)
	if err != nil {
		return t, req.malformed(err)
	}
	return t, nil
}

func (c *HTTPClient) Me(ctx context.Context) (models.Talent, error) {
	req := request{
		op:       "get own profile",
		method:   http.MethodGet,
		path:     "user/profile",
		fallback: "Failed to fetch profile",
	}
	body, err := c.do(ctx, req)
	if err != nil {
		return models.Talent{}, err
	}

	t, err := normalize.One[models.Talent](body, "user", "data", normalize.Body)
	if err != nil {
		return t, req.malformed(err)
	}
	return t, nil
}

// GetProfile reads the editable profile document. A timestamp parameter
// keeps intermediaries from serving a cached copy after an update.
func (c *HTTPClient) GetProfile(ctx context.Context, id string) (models.ProfileDocument, error) {
	req := request{
		op:       "get profile",
		method:   http.MethodGet,
		path:     "users/" + url.PathEscape(id),
		query:    url.Values{"t": {strconv.FormatInt(time.Now().UnixMilli(), 10)}},
		fallback: "Failed to fetch user profile",
	}
	body, err := c.do(ctx, req)
	if err != nil {
		return models.ProfileDocument{}, err
	}

	p, err := normalize.One[models.ProfileDocument](body, "user", "data", normalize.Body)
	if err != nil {
		return p, req.malformed(err)
	}
	return p, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, id string, u models.ProfileUpdate) (models.ProfileDocument, error) {
	req := request{
		op:       "update profile",
		method:   http.MethodPut,
		path:     "users/" + url.PathEscape(id),
		body:     u,
		fallback: "Failed to update user profile",
	}
	body, err := c.do(ctx, req)
	if err != nil {
		return models.ProfileDocument{}, err
	}

	p, err := normalize.One[models.ProfileDocument](body, "user", "data", normalize.Body)
	if err != nil {
		return p, req.malformed(err)
	}
	return p, nil
}

// GetLinks returns the user's links. The backend answers with an array under
// "links"; the first element is used and a missing record yields empty
// fields.
func (c *HTTPClient) GetLinks(ctx context.Context) (models.UserLinks, error) {
	body, err := c.do(ctx, request{
		op:       "get links",
		method:   http.MethodGet,
		path:     "user/links",
		fallback: "Failed to fetch links",
	})
	if err != nil {
		return models.UserLinks{}, err
	}

	l, err := normalize.Object[models.UserLinks](body, "links", "data", normalize.Body)
	if err != nil {
		return models.UserLinks{}, nil
	}
	return l, nil
}

func (c *HTTPClient) UpsertLinks(ctx context.Context, l models.UserLinks) (models.UserLinks, error) {
	req := request{
		op:       "upsert links",
		method:   http.MethodPatch,
		path:     "user/links/upsert",
		body:     l,
		fallback: "Failed to update links",
	}
	body, err := c.do(ctx, req)
	if err != nil {
		return models.UserLinks{}, err
	}

	saved, err := normalize.Object[models.UserLinks](body, "links", "data", normalize.Body)
	if err != nil {
		return saved, req.malformed(err)
	}
	return saved, nil
}

// ReviewProfile answers with Available false when the backend returns no
// review data.
func (c *HTTPClient) ReviewProfile(ctx context.Context, userID string) (models.ProfileReview, error) {
	req := request{
		op:       "review profile",
		method:   http.MethodPost,
		path:     "ai/review",
		body:     map[string]string{"userId": userID},
		fallback: "Failed to review profile",
	}
	body, err := c.do(ctx, req)
	if err != nil {
		return models.ProfileReview{}, err
	}

	if _, ok := normalize.Pick(body, "data"); !ok {
		return models.ProfileReview{}, nil
	}
	r, err := normalize.Object[models.ProfileReview](body, "data")
	if err != nil {
		return models.ProfileReview{}, req.malformed(err)
	}
	r.Available = true
	return r, nil
}

func (c *HTTPClient) Skills() SubResource[models.Skill]           { return c.skills }
func (c *HTTPClient) Experiences() SubResource[models.Experience] { return c.experiences }
func (c *HTTPClient) Projects() SubResource[models.Project]       { return c.projects }
func (c *HTTPClient) Educations() SubResource[models.Education]   { return c.educations }
