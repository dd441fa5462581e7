package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"sync"

	"github.com/dmitrijs2005/spotlight/internal/client/client"
	"github.com/dmitrijs2005/spotlight/internal/client/config"
	"github.com/dmitrijs2005/spotlight/internal/client/models"
	"github.com/dmitrijs2005/spotlight/internal/client/repositories/session"
	"github.com/dmitrijs2005/spotlight/internal/client/services"
	"github.com/dmitrijs2005/spotlight/internal/client/upload"
	"github.com/dmitrijs2005/spotlight/internal/filex"
	"github.com/dmitrijs2005/spotlight/internal/logging"
)

type App struct {
	config   *config.Config
	log      logging.Logger
	db       *sql.DB
	api      *client.HTTPClient
	uploader upload.Uploader

	authService   services.AuthService
	talentService services.TalentService

	reader *bufio.Reader
	out    io.Writer

	mu         sync.Mutex
	profile    *services.ProfileEditor
	profileFor string
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := logging.New(c.LogLevel, c.LogFormat, os.Stderr)

	dbPath, err := filex.EnsureParentDir(c.DatabasePath)
	if err != nil {
		return nil, err
	}
	db, err := client.InitDatabase(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	storage := session.NewSQLiteStorage(db)

	jar, err := cookiejar.New(nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	api, err := client.New(client.Options{
		BaseURL:   c.APIBaseURL,
		Timeout:   c.RequestTimeout,
		RateLimit: c.RateLimit,
		RateBurst: c.RateBurst,
		Tokens:    storage,
		Jar:       jar,
		Logger:    log,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	up, err := upload.New(c.Upload, &http.Client{Timeout: c.RequestTimeout})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a := newApp(c, log, api, storage, up, os.Stdin, os.Stdout)
	a.db = db
	return a, nil
}

func newApp(c *config.Config, log logging.Logger, api *client.HTTPClient, storage session.Storage,
	up upload.Uploader, in io.Reader, out io.Writer) *App {
	if log == nil {
		log = logging.Nop()
	}
	a := &App{
		config:        c,
		log:           log,
		api:           api,
		uploader:      up,
		authService:   services.NewAuthService(api, storage, log),
		talentService: services.NewTalentService(api, log, c.PageLimit),
		reader:        bufio.NewReader(in),
		out:           &syncWriter{w: out},
	}
	a.profile = services.NewProfileEditor(api, up, log)

	api.OnUnauthorized(func() {
		ctx := context.Background()
		a.log.Warn(ctx, "session rejected by the server, logging out")
		a.authService.Logout(ctx)
	})
	a.authService.Subscribe(func(s models.Session) {
		if !s.IsAuthenticated() {
			a.resetProfile()
		}
	})
	return a
}

// Run restores the persisted session and blocks in the REPL until the user
// exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.close()

	if s, err := a.authService.Restore(ctx); err == nil && s.IsAuthenticated() {
		a.printf("Welcome back, %s!\n", s.User.FullName)
	}
	a.println("Spotlight CLI (type 'help' for commands)")

	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) isLoggedIn() bool {
	return a.authService.Session().IsAuthenticated()
}

func (a *App) status() string {
	s := a.authService.Session()
	if !s.IsAuthenticated() {
		return ""
	}
	return fmt.Sprintf("(%s)", s.User.Email)
}

func (a *App) resetProfile() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.profile = services.NewProfileEditor(a.api, a.uploader, a.log)
	a.profileFor = ""
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

// fail reports err to the user and returns it.
func (a *App) fail(err error, fallback string) error {
	a.println("Error:", client.MessageOf(err, fallback))
	return err
}

// syncWriter serialises writes coming from the REPL and from debounced
// searches firing on timer goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
