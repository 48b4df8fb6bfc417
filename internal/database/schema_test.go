package database

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func TestDBPath(t *testing.T) {
	expected := filepath.Join("data", "weatherlink.db")
	if got := DBPath(); got != expected {
		t.Errorf("DBPath() = %v, want %v", got, expected)
	}
}

func TestEnsureSchema_Persistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	cache, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := cache.PutForecast("k", []byte("payload"), 0); err != nil {
		t.Fatalf("PutForecast() error = %v", err)
	}
	cache.Close()

	// reopening runs EnsureSchema again and must keep the data
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	if err := EnsureSchema(db); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM forecast_cache").Scan(&count); err != nil {
		t.Fatalf("count query error = %v", err)
	}
	db.Close()
	if count != 1 {
		t.Errorf("expected 1 cached forecast after reopen, got %d", count)
	}
}

func openTest(t *testing.T) (*Cache, *time.Time) {
	t.Helper()
	cache, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { cache.Close() })

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.Now = func() time.Time { return now }
	return cache, &now
}

func TestForecastCache(t *testing.T) {
	cache, now := openTest(t)
	payload := []byte(`{"hourly":{"temperature_2m":[1,2,3]}}`)

	if _, ok, err := cache.GetForecast("missing"); err != nil || ok {
		t.Fatalf("GetForecast(missing) = ok %v, err %v", ok, err)
	}

	if err := cache.PutForecast("forecast", payload, time.Hour); err != nil {
		t.Fatalf("PutForecast() error = %v", err)
	}
	if err := cache.PutForecast("archive", payload, 0); err != nil {
		t.Fatalf("PutForecast() error = %v", err)
	}

	got, ok, err := cache.GetForecast("forecast")
	if err != nil || !ok {
		t.Fatalf("GetForecast() = ok %v, err %v", ok, err)
	}
	if string(got) != string(payload) {
		t.Errorf("GetForecast() = %s, want %s", got, payload)
	}

	*now = now.Add(2 * time.Hour)
	if _, ok, _ := cache.GetForecast("forecast"); ok {
		t.Error("forecast entry should have expired")
	}
	if _, ok, _ := cache.GetForecast("archive"); !ok {
		t.Error("entry without ttl should never expire")
	}

	n, err := cache.PurgeExpired()
	if err != nil {
		t.Fatalf("PurgeExpired() error = %v", err)
	}
	if n != 1 {
		t.Errorf("PurgeExpired() = %d, want 1", n)
	}
}

func TestRouteCache(t *testing.T) {
	cache, _ := openTest(t)

	if err := cache.PutRoutes("/content", "fp1", []byte("[1]")); err != nil {
		t.Fatalf("PutRoutes() error = %v", err)
	}
	if got, ok, _ := cache.GetRoutes("/content", "fp1"); !ok || string(got) != "[1]" {
		t.Errorf("GetRoutes(fp1) = %q, %v", got, ok)
	}
	if _, ok, _ := cache.GetRoutes("/content", "fp2"); ok {
		t.Error("stale fingerprint should miss")
	}

	if err := cache.PutRoutes("/content", "fp2", []byte("[2]")); err != nil {
		t.Fatalf("PutRoutes() error = %v", err)
	}
	if got, ok, _ := cache.GetRoutes("/content", "fp2"); !ok || string(got) != "[2]" {
		t.Errorf("GetRoutes(fp2) = %q, %v", got, ok)
	}
}
