package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/gigmatch/livesync/internal/api"
	"github.com/gigmatch/livesync/internal/common"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func rowColumns() []string {
	return []string{"id", "scope_id", "status", "payload", "created_at", "updated_at"}
}

func TestList_FiltersByScopeAndStatus(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, scope_id, status, payload, created_at, updated_at FROM records WHERE collection = \$1 AND scope_id = \$2 AND status = \$3 ORDER BY created_at DESC`).
		WithArgs("gigs", "owner1", "published").
		WillReturnRows(sqlmock.NewRows(rowColumns()).
			AddRow("g2", "owner1", "published", []byte(`{"id":"g2"}`), now, now).
			AddRow("g1", "owner1", "published", []byte(`{"id":"g1"}`), now.Add(-time.Hour), now))

	rows, err := repo.List(context.Background(), "gigs", Filter{Scope: "owner1", Status: "published"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != "g2" || rows[1].ID != "g1" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestList_ByIDs(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT .* FROM records WHERE collection = \$1 AND id IN \(\$2,\$3\) ORDER BY created_at DESC`).
		WithArgs("profiles", "p1", "p2").
		WillReturnRows(sqlmock.NewRows(rowColumns()).
			AddRow("p1", "", "", []byte(`{"id":"p1"}`), now, now))

	rows, err := repo.List(context.Background(), "profiles", Filter{IDs: []string{"p1", "p2"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "p1" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM records WHERE collection = \$1 AND id = \$2`).
		WithArgs("gigs", "missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "gigs", "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestInsert_SetsTimestamps(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO records \(id,collection,scope_id,status,payload,created_at,updated_at\) VALUES \(\$1,\$2,\$3,\$4,\$5,\$6,\$7\)`).
		WithArgs("g1", "gigs", "owner1", "draft", []byte(`{"id":"g1"}`), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	row, err := repo.Insert(context.Background(), "gigs", &api.Row{
		ID:     "g1",
		Scope:  "owner1",
		Status: "draft",
		Record: json.RawMessage(`{"id":"g1"}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.CreatedAt.IsZero() || row.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not set: %+v", row)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE records SET scope_id = \$1, status = \$2, payload = \$3, updated_at = \$4 WHERE collection = \$5 AND id = \$6 RETURNING created_at`).
		WithArgs("owner1", "published", []byte(`{"id":"g1"}`), sqlmock.AnyArg(), "gigs", "g1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), "gigs", &api.Row{
		ID:     "g1",
		Scope:  "owner1",
		Status: "published",
		Record: json.RawMessage(`{"id":"g1"}`),
	})
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestUpdate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Now().UTC().Add(-time.Hour)
	mock.ExpectQuery(`UPDATE records SET .* RETURNING created_at`).
		WithArgs("owner1", "published", []byte(`{"id":"g1"}`), sqlmock.AnyArg(), "gigs", "g1").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	row, err := repo.Update(context.Background(), "gigs", &api.Row{
		ID:     "g1",
		Scope:  "owner1",
		Status: "published",
		Record: json.RawMessage(`{"id":"g1"}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !row.CreatedAt.Equal(created) {
		t.Fatalf("created_at not preserved: %v", row.CreatedAt)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM records WHERE collection = \$1 AND id = \$2`).
		WithArgs("gigs", "g1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM records WHERE collection = \$1 AND id = \$2`).
		WithArgs("gigs", "g1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "gigs", "g1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Delete(context.Background(), "gigs", "g1"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}
