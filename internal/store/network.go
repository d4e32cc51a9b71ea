package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joeschweitzer/bayesian/internal/domain"
)

const defaultListLimit = 100

type NetworkStore struct {
	db *pgxpool.Pool
}

func NewNetworkStore(db *pgxpool.Pool) *NetworkStore {
	return &NetworkStore{db: db}
}

func (s *NetworkStore) Create(ctx context.Context, n *domain.Network) error {
	def, err := json.Marshal(n.Definition)
	if err != nil {
		return fmt.Errorf("encode definition: %w", err)
	}

	err = s.db.QueryRow(ctx,
		`INSERT INTO networks (name, description, definition)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		n.Name, n.Description, def,
	).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *NetworkStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Network, error) {
	return s.getOne(ctx,
		`SELECT id, name, description, definition, created_at, updated_at
		 FROM networks WHERE id = $1`, id)
}

func (s *NetworkStore) GetByName(ctx context.Context, name string) (*domain.Network, error) {
	return s.getOne(ctx,
		`SELECT id, name, description, definition, created_at, updated_at
		 FROM networks WHERE name = $1`, name)
}

func (s *NetworkStore) List(ctx context.Context, limit int) ([]domain.Network, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, name, description, definition, created_at, updated_at
		 FROM networks ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var networks []domain.Network
	for rows.Next() {
		n, err := scanNetwork(rows)
		if err != nil {
			return nil, err
		}
		networks = append(networks, *n)
	}
	return networks, rows.Err()
}

func (s *NetworkStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM networks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *NetworkStore) getOne(ctx context.Context, query string, arg any) (*domain.Network, error) {
	n, err := scanNetwork(s.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

func scanNetwork(row pgx.Row) (*domain.Network, error) {
	n := &domain.Network{}
	var def []byte
	if err := row.Scan(&n.ID, &n.Name, &n.Description, &def, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(def, &n.Definition); err != nil {
		return nil, fmt.Errorf("decode definition of network %s: %w", n.ID, err)
	}
	return n, nil
}
