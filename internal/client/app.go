package client

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gigmatch/livesync/internal/client/config"
	"github.com/gigmatch/livesync/internal/common"
	"github.com/gigmatch/livesync/internal/feed"
	"github.com/gigmatch/livesync/internal/livecoll"
	"github.com/gigmatch/livesync/internal/logging"
	"github.com/gigmatch/livesync/internal/models"
	"github.com/gigmatch/livesync/internal/tombstone"
)

// App runs the sync client: it keeps the owner's gig list live, follows the
// most recent gig's applications, and logs every observable change. The
// applications synchronizer demonstrates scope rotation: each time a newer
// gig appears at the head of the list, the subscription moves to it.
type App struct {
	config   *config.Config
	logger   logging.Logger
	api      *API
	tombs    tombstone.Store
	db       *sql.DB
	enricher *Enricher

	gigs *livecoll.Synchronizer[*models.Gig]
	apps *livecoll.Synchronizer[*models.Application]
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout)

	a := NewAPI(cfg.ServerEndpointAddr, logger)

	tombs, db, err := tombstone.Open(ctx, cfg.TombstoneDBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("tombstone store init error: %w", err)
	}

	return &App{
		config:   cfg,
		logger:   logger,
		api:      a,
		tombs:    tombs,
		db:       db,
		enricher: NewEnricher(a, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "owner", app.config.OwnerID)

	app.initSignalHandler(cancelFunc)

	if err := app.api.Login(ctx, app.config.APIKey); err != nil {
		return fmt.Errorf("login error: %w", err)
	}
	token := app.api.Token()

	gigFeed := feed.NewClient[*models.Gig](app.config.FeedEndpointAddr, "gigs", token, app.logger)
	appFeed := feed.NewClient[*models.Application](app.config.FeedEndpointAddr, "applications", token, app.logger)

	app.apps = livecoll.NewSynchronizer(
		NewCollection[*models.Application](app.api, "applications"),
		appFeed, app.tombs, app.logger,
		livecoll.WithSeedBackoff[*models.Application](app.config.SeedBackoff),
		livecoll.WithOnChange[*models.Application](func() { app.renderApplications(ctx) }),
	)

	app.gigs = livecoll.NewSynchronizer(
		NewCollection[*models.Gig](app.api, "gigs"),
		gigFeed, app.tombs, app.logger,
		livecoll.WithSeedBackoff[*models.Gig](app.config.SeedBackoff),
		livecoll.WithOnChange[*models.Gig](func() { app.followNewestGig(ctx) }),
	)

	if err := app.gigs.Start(ctx, app.config.OwnerID); err != nil {
		return fmt.Errorf("gig sync start error: %w", err)
	}

	<-ctx.Done()

	app.logger.Info(ctx, "Shutting down...")
	_ = app.gigs.Close()
	_ = app.apps.Close()
	return app.db.Close()
}

// followNewestGig logs the gig list and rotates the applications
// subscription to the newest gig.
func (app *App) followNewestGig(ctx context.Context) {
	gigs := app.gigs.Records()
	app.logger.Info(ctx, "gigs changed", "count", len(gigs), "loading", app.gigs.Loading(), "stale", app.gigs.Stale())

	if len(gigs) == 0 {
		return
	}
	newest := gigs[0]
	if app.apps.Scope() == newest.ID {
		return
	}
	if err := app.apps.SetScope(ctx, newest.ID); err != nil {
		app.logger.Error(ctx, "application sync rotation failed", "gig", newest.ID, "error", err)
	}
}

// Reject suppresses an application: optimistic removal, durable tombstone,
// then the status mutation. The record never reappears on this client even if
// the server keeps serving it.
func (app *App) Reject(ctx context.Context, applicationID string) error {
	for _, a := range app.apps.Records() {
		if a.ID == applicationID {
			return app.apps.Dispatch(ctx, livecoll.ActionSuppress, a.WithStatus(models.ApplicationRejected))
		}
	}
	return fmt.Errorf("application %s: %w", applicationID, common.ErrorNotFound)
}

func (app *App) renderApplications(ctx context.Context) {
	apps, enriched := app.enricher.EnrichApplications(ctx, app.apps.Records())
	if enriched {
		// Fold the enriched copies back under the synchronizer's lock, so a
		// concurrent raw-row update merges against them instead of racing a
		// bare field write. The second change notification finds nothing left
		// to enrich.
		app.apps.Integrate(ctx, apps...)
	}

	for _, a := range apps {
		provider := a.ProviderID
		if a.Provider != nil {
			provider = a.Provider.DisplayName
		}
		app.logger.Info(ctx, "application", "gig", a.GigID, "provider", provider, "status", a.Status)
	}
}
