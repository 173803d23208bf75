package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/dmitrijs2005/fieldsales/internal/buildinfo"
	"github.com/dmitrijs2005/fieldsales/internal/client/client"
	"github.com/dmitrijs2005/fieldsales/internal/client/config"
	"github.com/dmitrijs2005/fieldsales/internal/client/location"
	"github.com/dmitrijs2005/fieldsales/internal/client/models"
	"github.com/dmitrijs2005/fieldsales/internal/client/repositories/kv"
	"github.com/dmitrijs2005/fieldsales/internal/client/services"
	"github.com/dmitrijs2005/fieldsales/internal/clock"
	"github.com/dmitrijs2005/fieldsales/internal/logging"
)

// ErrUpdateRequired stops the CLI when a newer mandatory release exists.
var ErrUpdateRequired = errors.New("update required")

// openStore is a seam over kv.Open.
var openStore = kv.Open

type autoScheduler interface {
	Reschedule(userID int64, status models.DayStatus)
	Stop()
}

type App struct {
	config  *config.Config
	log     logging.Logger
	clock   *clock.Clock
	db      *sql.DB
	version string

	authService      services.AuthService
	dayService       services.DayCycleService
	dashboardService services.DashboardService
	reportService    services.ReportService
	versionService   services.VersionService
	autoClose        autoScheduler
	location         location.Provider

	reader *bufio.Reader
	out    io.Writer
	outMu  sync.Mutex
}

// NewApp opens the local store and wires the API client and services.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	clk, err := clock.New(c.BusinessTimezone)
	if err != nil {
		return nil, err
	}

	db, repos, err := openStore(ctx, c.StoreDriver, c.StoreDSN)
	if err != nil {
		log.Error(ctx, "error initializing local store", "driver", c.StoreDriver, "error", err)
		return nil, err
	}

	api := client.NewHTTPClient(c.APIBaseURL, nil,
		client.WithHTTPClient(&http.Client{Timeout: c.RequestTimeout}),
		client.WithLogger(log))

	days := services.NewDayCycleService(api, repos.Repo(db), clk, log)

	authOpts := []services.AuthOption{services.WithAuthLogger(log)}
	if c.SessionPassphrase != "" {
		authOpts = append(authOpts, services.WithPassphrase(c.SessionPassphrase))
	}

	var vs services.VersionService
	if c.VersionManifestURL != "" {
		src, err := services.NewManifestSource(c.VersionManifestURL, services.S3Settings{
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
		}, &http.Client{Timeout: c.VersionCheckTimeout})
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		vs = services.NewVersionService(src, buildinfo.Version, c.Platform, c.VersionCheckTimeout)
	}

	closer := services.NewAutoCloser(days, log)

	app := &App{
		config:           c,
		log:              log,
		clock:            clk,
		db:               db,
		version:          buildinfo.Version,
		authService:      services.NewAuthService(api, db, repos, days, authOpts...),
		dayService:       days,
		dashboardService: services.NewDashboardService(api),
		reportService:    services.NewReportService(api, clk),
		versionService:   vs,
		autoClose:        closer,
		location:         location.NewStaticProvider(c.Latitude, c.Longitude, c.GPSEnabled),
		reader:           bufio.NewReader(os.Stdin),
		out:              os.Stdout,
	}
	closer.OnClose = app.onAutoClose
	return app, nil
}

// Run checks the version, restores a remembered session and serves the
// REPL until exit or EOF.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	a.println("Field sales CLI (type 'help' for commands)")

	if err := a.versionGate(ctx); err != nil {
		return err
	}
	a.restore(ctx)

	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

// Close cancels the pending auto close and releases the local store.
func (a *App) Close() {
	if a.autoClose != nil {
		a.autoClose.Stop()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn(context.Background(), "closing local store", "error", err)
		}
	}
}

func (a *App) isLoggedIn() bool {
	return a.authService.Current() != nil
}

func (a *App) getStatus() string {
	sess := a.authService.Current()
	if sess == nil {
		return ""
	}
	return fmt.Sprintf("(%s)", sess.UserName)
}

func (a *App) println(args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

// versionGate blocks on a mandatory update. A failed check only warns.
func (a *App) versionGate(ctx context.Context) error {
	if a.versionService == nil {
		return nil
	}
	out := a.versionService.Check(ctx)
	switch out.Status {
	case services.VersionOutdated:
		a.println(renderVersion(a.version, out))
		return ErrUpdateRequired
	case services.VersionError:
		a.log.Warn(ctx, "version check failed", "error", out.Err)
		a.println(warnStyle.Render("Unable to verify app version right now. Run 'version' to retry."))
	}
	return nil
}

func (a *App) restore(ctx context.Context) {
	sess, err := a.authService.Restore(ctx)
	if err != nil {
		a.log.Warn(ctx, "session restore failed", "error", err)
		return
	}
	if sess == nil {
		return
	}
	a.printf("Welcome back, %s\n", displayName(sess))
	if err := a.Status(ctx); err != nil {
		a.println("Error:", err)
	}
}

// check turns an unauthorized API error into a forced logout.
func (a *App) check(ctx context.Context, err error) error {
	if err == nil || !client.IsUnauthorized(err) || !a.isLoggedIn() {
		return err
	}
	a.autoClose.Stop()
	if lerr := a.authService.Logout(ctx); lerr != nil {
		a.log.Warn(ctx, "forced logout failed", "error", lerr)
	}
	return fmt.Errorf("%w, please login again", err)
}

func (a *App) onAutoClose(userID int64, tr services.Transition, err error) {
	if err != nil {
		a.println(errStyle.Render("Automatic day end failed: " + err.Error()))
		return
	}
	if tr.Kind == services.Transitioned {
		a.println(warnStyle.Render("Your day was ended automatically at the end of the business day."))
	}
}
