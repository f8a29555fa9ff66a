package store

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func mockResult() sqlmock.Result {
	return sqlmock.NewResult(1, 1)
}

func mockEmptyProfileRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"sha256", "xxhash64", "path", "width", "height", "format", "created_at", "profile_blob"})
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	sqlxDB := sqlx.NewDb(db, "postgres")
	return NewPostgresStoreFromDB(sqlxDB), mock
}

func TestGetProfileNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT sha256, xxhash64").
		WillReturnRows(sqlmock.NewRows([]string{"sha256", "xxhash64", "path", "width", "height", "format", "created_at", "profile_blob"}))

	_, ok, err := s.GetProfile(context.Background(), "deadbeef")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if ok {
		t.Errorf("expected ok=false for a missing row")
	}
}

func TestGetProfileFound(t *testing.T) {
	s, mock := newMockStore(t)
	blob := EncodeProfile(nil)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT sha256, xxhash64").
		WillReturnRows(sqlmock.NewRows([]string{"sha256", "xxhash64", "path", "width", "height", "format", "created_at", "profile_blob"}).
			AddRow("deadbeef", int64(42), "/tmp/a.png", 800, 600, "png", now, blob))

	p, ok, err := s.GetProfile(context.Background(), "deadbeef")
	if err != nil || !ok {
		t.Fatalf("GetProfile: ok=%v err=%v", ok, err)
	}
	if p.SHA256 != "deadbeef" || p.Width != 800 {
		t.Errorf("GetProfile result = %+v", p)
	}
}

func TestPutProfileExecutesUpsert(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO signal_profiles").WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.PutProfile(context.Background(), Profile{SHA256: "abc", CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("PutProfile: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPutRoutingDecision(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO routing_decisions").WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.PutRoutingDecision(context.Background(), RoutingDecision{
		SHA256: "abc", Route: "fast", TextTier: "caption", Reason: "low complexity", DecidedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("PutRoutingDecision: %v", err)
	}
}
