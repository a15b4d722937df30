package migrate

import (
	"strings"
	"testing"
)

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion int
		wantName    string
		wantErr     bool
	}{
		{"001_initial_schema.sql", 1, "initial_schema", false},
		{"002_add_channel_metadata.sql", 2, "add_channel_metadata", false},
		{"100_future_migration.sql", 100, "future_migration", false},
		{"invalid.sql", 0, "", true},
		{"abc_name.sql", 0, "", true},
		{"001.sql", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, err := parseMigrationFilename(tt.filename)

			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %s, got nil", tt.filename)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %s: %v", tt.filename, err)
			}
			if version != tt.wantVersion {
				t.Errorf("version: got %d, want %d", version, tt.wantVersion)
			}
			if name != tt.wantName {
				t.Errorf("name: got %s, want %s", name, tt.wantName)
			}
		})
	}
}

func TestAvailableMigrations(t *testing.T) {
	migrations, err := availableMigrations()
	if err != nil {
		t.Fatalf("availableMigrations: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("no embedded migrations found")
	}

	// Versions must be strictly increasing and start at 1.
	if migrations[0].version != 1 {
		t.Errorf("first migration version: got %d, want 1", migrations[0].version)
	}
	for i := 1; i < len(migrations); i++ {
		if migrations[i].version <= migrations[i-1].version {
			t.Errorf("migrations out of order at index %d", i)
		}
	}

	// The initial schema must create the alert dedup constraint.
	if !strings.Contains(migrations[0].sql, "alerts_code_location_key") {
		t.Error("initial schema missing the alert dedup unique constraint")
	}
}
