package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestLoadMigrationsOrdersSQLFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_b.sql", "0001_a.sql", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "0003_dir.sql"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	migrations, err := loadMigrations(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(migrations) != 2 || migrations[0].name != "0001_a.sql" || migrations[1].name != "0002_b.sql" {
		t.Fatalf("unexpected migrations %+v", migrations)
	}

	var out bytes.Buffer
	printMigrationStatus(&out, migrations, map[string]struct{}{"0001_a.sql": {}})
	if got, want := out.String(), "[x] 0001_a.sql\n[ ] 0002_b.sql\n"; got != want {
		t.Fatalf("status output %q, want %q", got, want)
	}
}

func TestShouldRetryMigration(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("syntax error"), false},
		{context.DeadlineExceeded, true},
		{fmt.Errorf("apply: %w", &pgconn.PgError{Code: "40001"}), true},
		{&pgconn.PgError{Code: "42601"}, false},
	}

	for _, tc := range cases {
		if got := shouldRetryMigration(tc.err); got != tc.want {
			t.Fatalf("shouldRetryMigration(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestMigrationBackoff(t *testing.T) {
	if migrationBackoff(0) != 0 {
		t.Fatal("first attempt must not wait")
	}
	if got := migrationBackoff(2); got != 2*migrationBaseBackoff {
		t.Fatalf("unexpected backoff %v", got)
	}
	if got := migrationBackoff(20); got != migrationMaxBackoff {
		t.Fatalf("backoff should be capped, got %v", got)
	}
}
