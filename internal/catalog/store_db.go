package catalog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

//go:embed migrations/*.sql
var migrations embed.FS

type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite3"
)

// Driver is the database/sql driver name registered for the dialect.
func (d Dialect) Driver() string {
	if d == SQLite {
		return "sqlite"
	}
	return "pgx"
}

// SQLRepository keeps one snapshot row per session in the snapshots table.
type SQLRepository struct {
	db        *sql.DB
	dialect   Dialect
	sessionID string

	loadQuery string
	saveQuery string
}

func NewSQLRepository(db *sql.DB, dialect Dialect, sessionID string) *SQLRepository {
	r := &SQLRepository{db: db, dialect: dialect, sessionID: sessionID}

	r.loadQuery = r.bind(`
		SELECT data
		FROM snapshots
		WHERE session_id = ? AND snapshot_key = ?
	`)
	r.saveQuery = r.bind(`
		INSERT INTO snapshots (session_id, snapshot_key, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (session_id, snapshot_key)
		DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`)
	return r
}

// OpenSQL opens the database for dialect, applies migrations and returns
// the repository. Callers own the returned *sql.DB.
func OpenSQL(ctx context.Context, dialect Dialect, dsn, sessionID string) (*SQLRepository, *sql.DB, error) {
	db, err := sql.Open(dialect.Driver(), dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == SQLite {
		db.SetMaxOpenConns(1)
	}

	r := NewSQLRepository(db, dialect, sessionID)
	if err := r.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	if err := r.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return r, db, nil
}

func (r *SQLRepository) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(string(r.dialect)); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, r.db, "migrations"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return r.db.PingContext(ctx)
	})
}

func (r *SQLRepository) Load(ctx context.Context) ([]Product, error) {
	var data string

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return r.db.QueryRowContext(ctx, r.loadQuery, r.sessionID, SnapshotKey).Scan(&data)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return decodeSnapshot([]byte(data))
}

func (r *SQLRepository) Save(ctx context.Context, products []Product) error {
	data, err := encodeSnapshot(products)
	if err != nil {
		return err
	}

	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, r.saveQuery,
			r.sessionID, SnapshotKey, string(data), time.Now().UnixMilli())
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
}

// bind rewrites ? placeholders to $n for Postgres.
func (r *SQLRepository) bind(query string) string {
	if r.dialect != Postgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
