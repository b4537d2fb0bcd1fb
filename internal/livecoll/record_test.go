package livecoll

import (
	"io"
	"log/slog"
	"time"

	"github.com/gigmatch/livesync/internal/logging"
)

// testRecord mimics an application row: a bare server payload plus an
// optional client-side enrichment (Provider) joined in separately.
type testRecord struct {
	ID       string
	Gig      string
	Status   string
	Created  time.Time
	Provider *string
}

func (r *testRecord) RecordID() string       { return r.ID }
func (r *testRecord) ScopeID() string        { return r.Gig }
func (r *testRecord) CreatedTime() time.Time { return r.Created }

func (r *testRecord) Merge(incoming *testRecord) *testRecord {
	out := *incoming
	if out.Provider == nil {
		out.Provider = r.Provider
	}
	return &out
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func rec(id, gig, status string, created time.Time) *testRecord {
	return &testRecord{ID: id, Gig: gig, Status: status, Created: created}
}

func ids(records []*testRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}
