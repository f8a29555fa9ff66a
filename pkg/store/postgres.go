package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/jordigilh/imagewave/pkg/xerrors"
)

// PostgresStore is the durable tier of SignalStore: the schema from
// spec §6 (`sha256 PRIMARY KEY, xxhash64, path, width, height, format,
// created_at, profile_blob`) plus `feedback` and `routing_decisions`.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore opens a connection pool against dsn. Migrations are
// applied separately via pkg/store/migrations (goose).
func NewPostgresStore(dsn string, maxOpenConns int, connMaxLifetime time.Duration) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, xerrors.StoreFailure("connect", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an already-open handle, used by tests with
// sqlmock.
func NewPostgresStoreFromDB(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying *sql.DB, needed to run goose migrations
// (pkg/store/migrate.go) against the same pool this store uses.
func (s *PostgresStore) DB() *sql.DB {
	return s.db.DB
}

func (s *PostgresStore) GetProfile(ctx context.Context, sha256 string) (*Profile, bool, error) {
	var row struct {
		SHA256      string    `db:"sha256"`
		XXHash64    int64     `db:"xxhash64"`
		Path        string    `db:"path"`
		Width       int       `db:"width"`
		Height      int       `db:"height"`
		Format      string    `db:"format"`
		CreatedAt   time.Time `db:"created_at"`
		ProfileBlob []byte    `db:"profile_blob"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT sha256, xxhash64, path, width, height, format, created_at, profile_blob
		FROM signal_profiles WHERE sha256 = $1`, sha256)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, xerrors.StoreFailure("get_profile", err)
	}
	signals, err := DecodeProfile(row.ProfileBlob)
	if err != nil {
		return nil, false, xerrors.StoreFailure("decode_profile", err)
	}
	return &Profile{
		SHA256:    row.SHA256,
		XXHash64:  uint64(row.XXHash64),
		Path:      row.Path,
		Width:     row.Width,
		Height:    row.Height,
		Format:    row.Format,
		CreatedAt: row.CreatedAt,
		Signals:   signals,
	}, true, nil
}

func (s *PostgresStore) PutProfile(ctx context.Context, profile Profile) error {
	blob := EncodeProfile(profile.Signals)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO signal_profiles (sha256, xxhash64, path, width, height, format, created_at, profile_blob)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (sha256) DO UPDATE SET
			xxhash64 = EXCLUDED.xxhash64,
			path = EXCLUDED.path,
			width = EXCLUDED.width,
			height = EXCLUDED.height,
			format = EXCLUDED.format,
			profile_blob = EXCLUDED.profile_blob`,
		profile.SHA256, int64(profile.XXHash64), profile.Path, profile.Width, profile.Height,
		profile.Format, profile.CreatedAt, blob)
	if err != nil {
		return xerrors.StoreFailure("put_profile", err)
	}
	return nil
}

func (s *PostgresStore) GetRoutingDecision(ctx context.Context, sha256 string) (*RoutingDecision, bool, error) {
	var row RoutingDecision
	err := s.db.GetContext(ctx, &row, `
		SELECT sha256, route, text_tier, reason, decided_at
		FROM routing_decisions WHERE sha256 = $1`, sha256)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, xerrors.StoreFailure("get_routing_decision", err)
	}
	return &row, true, nil
}

func (s *PostgresStore) PutRoutingDecision(ctx context.Context, decision RoutingDecision) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO routing_decisions (sha256, route, text_tier, reason, decided_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (sha256) DO UPDATE SET
			route = EXCLUDED.route, text_tier = EXCLUDED.text_tier,
			reason = EXCLUDED.reason, decided_at = EXCLUDED.decided_at`,
		decision.SHA256, decision.Route, decision.TextTier, decision.Reason, decision.DecidedAt)
	if err != nil {
		return xerrors.StoreFailure("put_routing_decision", err)
	}
	return nil
}

func (s *PostgresStore) RecordFeedback(ctx context.Context, fb Feedback) error {
	encoded := EncodeValue(fb.Correction)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (sha256, signal_key, correction, noted_at)
		VALUES ($1, $2, $3, $4)`,
		fb.SHA256, fb.Key, encoded, fb.NotedAt)
	if err != nil {
		return xerrors.StoreFailure("record_feedback", err)
	}
	return nil
}
