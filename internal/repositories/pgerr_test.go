package repositories

import (
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPgErrorHelpers(t *testing.T) {
	undefined := fmt.Errorf("query: %w", &pgconn.PgError{Code: "42P01"})
	other := &pgconn.PgError{Code: "23505"}

	if !IsUndefinedTable(undefined) {
		t.Error("expected wrapped 42P01 to be undefined table")
	}
	if IsUndefinedTable(other) {
		t.Error("23505 is not undefined table")
	}
	if !IsNoRows(fmt.Errorf("scan: %w", pgx.ErrNoRows)) {
		t.Error("expected wrapped ErrNoRows to be detected")
	}
	if IsNoRows(undefined) {
		t.Error("42P01 is not no rows")
	}
}

func TestSchemaEmbedded(t *testing.T) {
	for _, table := range []string{"renders", "render_jobs"} {
		if !strings.Contains(schemaSQL, "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Errorf("expected schema to create %s", table)
		}
	}
}
