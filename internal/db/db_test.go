package db

import (
	"context"
	"testing"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		path, want string
	}{
		{
			"drazba.sqlite3",
			"drazba.sqlite3?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate",
		},
		{
			"file:x.db?mode=rwc",
			"file:x.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate",
		},
	}
	for _, tt := range tests {
		if got := DSN(tt.path); got != tt.want {
			t.Errorf("DSN(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestForeignKeysOnEveryConnection(t *testing.T) {
	database := NewTestFileDB(t)
	ctx := context.Background()

	// Holding the first connection forces the pool to open a second one.
	first, err := database.Connx(ctx)
	if err != nil {
		t.Fatalf("Connx: %v", err)
	}
	defer first.Close()

	second, err := database.Connx(ctx)
	if err != nil {
		t.Fatalf("Connx: %v", err)
	}
	defer second.Close()

	for name, conn := range map[string]interface {
		GetContext(context.Context, any, string, ...any) error
	}{"first": first, "second": second} {
		var on int
		if err := conn.GetContext(ctx, &on, `PRAGMA foreign_keys`); err != nil {
			t.Fatalf("%s: reading foreign_keys: %v", name, err)
		}
		if on != 1 {
			t.Errorf("%s connection: foreign_keys = %d, want 1", name, on)
		}
	}
}

func TestMigrateIdempotent(t *testing.T) {
	database := NewTestFileDB(t)
	if err := Migrate(database); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}
