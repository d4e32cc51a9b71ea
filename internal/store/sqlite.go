package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joeschweitzer/bayesian/internal/domain"

	_ "modernc.org/sqlite"
)

// Fixed-width so that lexical order is chronological order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteNetworkStore keeps network definitions in an embedded SQLite
// database, for single-binary deployments without Postgres.
type SQLiteNetworkStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path. ":memory:"
// gives a private in-memory database.
func OpenSQLite(path string) (*SQLiteNetworkStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	s := &SQLiteNetworkStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLiteNetworkStore) migrate() error {
	_, err := s.db.Exec(`
	PRAGMA busy_timeout = 5000;

	CREATE TABLE IF NOT EXISTS networks (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		definition  JSON NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_networks_created_at ON networks (created_at DESC);
	`)
	return err
}

func (s *SQLiteNetworkStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteNetworkStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteNetworkStore) Create(ctx context.Context, n *domain.Network) error {
	def, err := json.Marshal(n.Definition)
	if err != nil {
		return fmt.Errorf("encode definition: %w", err)
	}

	id := uuid.New()
	now := s.now().UTC()
	stamp := now.Format(sqliteTimeLayout)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO networks (id, name, description, definition, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id.String(), n.Name, n.Description, string(def), stamp, stamp)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrConflict
		}
		return err
	}

	n.ID = id
	n.CreatedAt = now
	n.UpdatedAt = now
	return nil
}

func (s *SQLiteNetworkStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Network, error) {
	return s.getOne(ctx,
		`SELECT id, name, description, definition, created_at, updated_at
		 FROM networks WHERE id = ?`, id.String())
}

func (s *SQLiteNetworkStore) GetByName(ctx context.Context, name string) (*domain.Network, error) {
	return s.getOne(ctx,
		`SELECT id, name, description, definition, created_at, updated_at
		 FROM networks WHERE name = ?`, name)
}

func (s *SQLiteNetworkStore) List(ctx context.Context, limit int) ([]domain.Network, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, definition, created_at, updated_at
		 FROM networks ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var networks []domain.Network
	for rows.Next() {
		n, err := scanSQLiteNetwork(rows)
		if err != nil {
			return nil, err
		}
		networks = append(networks, *n)
	}
	return networks, rows.Err()
}

func (s *SQLiteNetworkStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM networks WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteNetworkStore) getOne(ctx context.Context, query string, arg any) (*domain.Network, error) {
	n, err := scanSQLiteNetwork(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteNetwork(row rowScanner) (*domain.Network, error) {
	var (
		id, def              string
		createdAt, updatedAt string
		n                    domain.Network
	)
	if err := row.Scan(&id, &n.Name, &n.Description, &def, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if n.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("network id %q: %w", id, err)
	}
	if err := json.Unmarshal([]byte(def), &n.Definition); err != nil {
		return nil, fmt.Errorf("decode definition of network %s: %w", n.ID, err)
	}
	if n.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
		return nil, err
	}
	if n.UpdatedAt, err = time.Parse(sqliteTimeLayout, updatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}
