package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCepCacheMigrationContainsSchema(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_cep_cache.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no cep cache migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS cep_cache_entries",
		"cep CHAR(8) PRIMARY KEY",
		"localidade TEXT NOT NULL",
		"uf CHAR(2) NOT NULL",
		"cached_at TIMESTAMPTZ NOT NULL",
		"DROP TABLE IF EXISTS cep_cache_entries",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
