package migrate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/emlakhub/emlakhub-backend/pkg/migrate"
)

func TestCreateSQLMigrationProducesValidFile(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 4, 2, 15, 4, 5, 0, time.FixedZone("AST", 3*3600))

	path, err := migrate.CreateSQLMigration(dir, "  Add Listing-Review Queue! ", now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := filepath.Base(path); got != "20260402120405_add_listing_review_queue.sql" {
		t.Fatalf("unexpected filename %q", got)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("validate generated migration: %v", err)
	}
	if _, err := migrate.CreateSQLMigration(dir, "add listing review queue", now); err == nil {
		t.Fatalf("expected an error for an existing migration")
	}
	if _, err := migrate.CreateSQLMigration(dir, "!!!", now); err == nil {
		t.Fatalf("expected an error for an unusable name")
	}
}

func TestValidateDirRejectsBrokenMigrations(t *testing.T) {
	cases := map[string]string{
		"20260101000000_Bad.sql":       "-- +goose Up\n-- +goose Down\n",
		"20260101000000_no_down.sql":   "-- +goose Up\nSELECT 1;\n",
		"20260101000000_unclosed.sql":  "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n",
		"20261399000000_bad_month.sql": "-- +goose Up\n-- +goose Down\n",
	}
	for name, body := range cases {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		if err := migrate.ValidateDir(dir); err == nil {
			t.Fatalf("expected %s to fail validation", name)
		}
	}

	dir := t.TempDir()
	for _, name := range []string{"20260101000000_a.sql", "20260101000000_b.sql"} {
		body := strings.Join([]string{"-- +goose Up", "SELECT 1;", "-- +goose Down", "SELECT 1;"}, "\n")
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := migrate.ValidateDir(dir); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate version error, got %v", err)
	}
}

func TestEmbeddedMigrationsMatchDirectory(t *testing.T) {
	if err := migrate.ValidateFS(migrate.Migrations()); err != nil {
		t.Fatalf("validate embedded: %v", err)
	}
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	embedded, err := fs.Glob(migrate.Migrations(), "*.sql")
	if err != nil {
		t.Fatalf("glob embedded: %v", err)
	}
	if len(embedded) != len(onDisk) || len(embedded) == 0 {
		t.Fatalf("embedded %d migrations, directory has %d", len(embedded), len(onDisk))
	}
	for i, file := range onDisk {
		if filepath.Base(file) != embedded[i] {
			t.Fatalf("migration %d: embedded %q, directory %q", i, embedded[i], filepath.Base(file))
		}
	}
}

func TestParseVersion(t *testing.T) {
	v, err := migrate.ParseVersion("20260301090100")
	if err != nil || v != 20260301090100 {
		t.Fatalf("expected 20260301090100, got %d err=%v", v, err)
	}
	for _, raw := range []string{"", "2026", "20260301090100x", "-0260301090100"} {
		if _, err := migrate.ParseVersion(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
