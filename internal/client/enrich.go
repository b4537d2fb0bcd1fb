package client

import (
	"context"
	"net/url"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/gigmatch/livesync/internal/logging"
	"github.com/gigmatch/livesync/internal/models"
)

// Enricher attaches provider profiles to applications. Lookups go through a
// dataloader so that a burst of feed events for the same scope turns into one
// batched profiles request instead of N.
type Enricher struct {
	loader *dataloader.Loader[string, *models.Profile]
	log    logging.Logger
}

func NewEnricher(a *API, log logging.Logger) *Enricher {
	batchFn := func(ctx context.Context, ids []string) []*dataloader.Result[*models.Profile] {
		results := make([]*dataloader.Result[*models.Profile], len(ids))

		query := url.Values{"id": ids}
		rows, err := a.ListRows(ctx, "profiles", query)
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result[*models.Profile]{Error: err}
			}
			return results
		}

		byID := make(map[string]*models.Profile, len(rows))
		for _, row := range rows {
			p, err := decodeRecord[*models.Profile](row)
			if err != nil {
				log.Warn(ctx, "skipping undecodable profile", "id", row.ID, "error", err)
				continue
			}
			byID[p.ID] = p
		}

		// A missing profile is not an error: the application simply stays
		// unenriched.
		for i, id := range ids {
			results[i] = &dataloader.Result[*models.Profile]{Data: byID[id]}
		}
		return results
	}

	return &Enricher{
		loader: dataloader.NewBatchedLoader(batchFn,
			dataloader.WithWait[string, *models.Profile](5*time.Millisecond),
			dataloader.WithBatchCapacity[string, *models.Profile](100),
		),
		log: log.With("module", "enricher"),
	}
}

// Profile loads one provider profile, batched with concurrent calls.
func (e *Enricher) Profile(ctx context.Context, id string) (*models.Profile, error) {
	return e.loader.Load(ctx, id)()
}

// EnrichApplications returns a copy of apps with Provider filled in on
// applications that arrived without it, and whether anything was enriched.
// The input records are shared with the synchronizer and are never written;
// enriched entries are fresh copies, meant to be folded back through
// Synchronizer.Integrate. Applications whose provider cannot be loaded keep
// their original entry.
func (e *Enricher) EnrichApplications(ctx context.Context, apps []*models.Application) ([]*models.Application, bool) {
	out := append([]*models.Application(nil), apps...)

	var missing []int
	var ids []string
	for i, app := range apps {
		if app.Provider == nil && app.ProviderID != "" {
			missing = append(missing, i)
			ids = append(ids, app.ProviderID)
		}
	}
	if len(missing) == 0 {
		return out, false
	}

	thunks := e.loader.LoadMany(ctx, ids)
	profiles, errs := thunks()
	for _, err := range errs {
		if err != nil {
			e.log.Warn(ctx, "profile enrichment incomplete", "error", err)
			break
		}
	}

	enriched := false
	for n, i := range missing {
		if n < len(profiles) && profiles[n] != nil {
			withProvider := *apps[i]
			withProvider.Provider = profiles[n]
			out[i] = &withProvider
			enriched = true
		}
	}
	return out, enriched
}

// Clear drops a cached profile after it changes upstream.
func (e *Enricher) Clear(ctx context.Context, id string) {
	e.loader.Clear(ctx, id)
}
