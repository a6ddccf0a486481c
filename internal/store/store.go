// Package store persists participants in PostgreSQL. The scene registry
// is rebuilt from this table on startup; positions written back here are
// the only physics state that survives a restart.
package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

var ErrNotFound = errors.New("participant not found")

type Participant struct {
	ID       string
	Name     string
	Bio      string
	ImageURL string
	Failed   bool
	PosX     float64
	PosY     float64
	PosZ     float64
	// Placed is set once a drag release persists a position, so a stored
	// (0,0,0) is distinguishable from the column defaults.
	Placed    bool
	CreatedAt time.Time
}

type Store struct {
	db *sql.DB
}

// Open connects, configures the pool and ensures the schema exists.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func ensureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS participants (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			bio TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			failed BOOLEAN NOT NULL DEFAULT FALSE,
			pos_x DOUBLE PRECISION NOT NULL DEFAULT 0,
			pos_y DOUBLE PRECISION NOT NULL DEFAULT 0,
			pos_z DOUBLE PRECISION NOT NULL DEFAULT 0,
			placed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

func (s *Store) List(ctx context.Context) ([]Participant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, bio, image_url, failed, pos_x, pos_y, pos_z, placed, created_at
		FROM participants ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Participant, 0)
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.Bio, &p.ImageURL, &p.Failed,
			&p.PosX, &p.PosY, &p.PosZ, &p.Placed, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (*Participant, error) {
	var p Participant
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, bio, image_url, failed, pos_x, pos_y, pos_z, placed, created_at
		FROM participants WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Bio, &p.ImageURL, &p.Failed,
		&p.PosX, &p.PosY, &p.PosZ, &p.Placed, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a participant, assigning an ID and creation time when
// unset, and returns the stored row.
func (s *Store) Create(ctx context.Context, p Participant) (*Participant, error) {
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO participants (id, name, bio, image_url, failed, pos_x, pos_y, pos_z, placed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.ID, p.Name, p.Bio, p.ImageURL, p.Failed, p.PosX, p.PosY, p.PosZ, p.Placed, p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkFound(res)
}

func (s *Store) SetFailed(ctx context.Context, id string, failed bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE participants SET failed = $2 WHERE id = $1
	`, id, failed)
	if err != nil {
		return err
	}
	return checkFound(res)
}

// UpdatePosition writes back a sphere's resting place after a drag and
// marks the position explicit.
func (s *Store) UpdatePosition(ctx context.Context, id string, x, y, z float64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE participants SET pos_x = $2, pos_y = $3, pos_z = $4, placed = TRUE WHERE id = $1
	`, id, x, y, z)
	if err != nil {
		return err
	}
	return checkFound(res)
}

func checkFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// NewID returns a random 16-hex-char identifier.
func NewID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(buf)
}
