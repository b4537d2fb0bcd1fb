package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/gigmatch/livesync/internal/api"
	"github.com/gigmatch/livesync/internal/common"
	"github.com/gigmatch/livesync/internal/dbx"
	"github.com/gigmatch/livesync/internal/server/store/migrations"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository keeps rows in a single records table, one row per record
// per collection.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Open connects via pgx, pings and applies migrations.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("error running migrations: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, collection string, f Filter) ([]*api.Row, error) {
	q := psql.Select("id", "scope_id", "status", "payload", "created_at", "updated_at").
		From("records").
		Where(sq.Eq{"collection": collection}).
		OrderBy("created_at DESC")
	if f.Scope != "" {
		q = q.Where(sq.Eq{"scope_id": f.Scope})
	}
	if f.Status != "" {
		q = q.Where(sq.Eq{"status": f.Status})
	}
	if len(f.IDs) > 0 {
		q = q.Where(sq.Eq{"id": f.IDs})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	var result []*api.Row
	for rows.Next() {
		row := &api.Row{}
		if err := rows.Scan(&row.ID, &row.Scope, &row.Status, &row.Record, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *PostgresRepository) Get(ctx context.Context, collection, id string) (*api.Row, error) {
	query, args, err := psql.Select("id", "scope_id", "status", "payload", "created_at", "updated_at").
		From("records").
		Where(sq.Eq{"collection": collection, "id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	row := &api.Row{}
	err = r.db.QueryRowContext(ctx, query, args...).
		Scan(&row.ID, &row.Scope, &row.Status, &row.Record, &row.CreatedAt, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return row, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, collection string, row *api.Row) (*api.Row, error) {
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now

	query, args, err := psql.Insert("records").
		Columns("id", "collection", "scope_id", "status", "payload", "created_at", "updated_at").
		Values(row.ID, collection, row.Scope, row.Status, []byte(row.Record), row.CreatedAt, row.UpdatedAt).
		ToSql()
	if err != nil {
		return nil, err
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return row, nil
}

func (r *PostgresRepository) Update(ctx context.Context, collection string, row *api.Row) (*api.Row, error) {
	row.UpdatedAt = time.Now().UTC()

	query, args, err := psql.Update("records").
		Set("scope_id", row.Scope).
		Set("status", row.Status).
		Set("payload", []byte(row.Record)).
		Set("updated_at", row.UpdatedAt).
		Where(sq.Eq{"collection": collection, "id": row.ID}).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, query, args...).Scan(&row.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return row, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, collection, id string) error {
	query, args, err := psql.Delete("records").
		Where(sq.Eq{"collection": collection, "id": id}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}
