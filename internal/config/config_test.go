package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PARSE_WORKERS", "")
	t.Setenv("JSON_INDENT", "-3")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.FilePrefix != "RAD" {
		t.Fatalf("prefix=%q", cfg.FilePrefix)
	}
	if cfg.ParseWorkers != 1 {
		t.Fatalf("workers=%d", cfg.ParseWorkers)
	}
	if cfg.JSONIndent != 0 {
		t.Fatalf("indent=%d", cfg.JSONIndent)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PARSE_WORKERS", "4")
	t.Setenv("RAD_FILE_PREFIX", "RADX")
	t.Setenv("RAD_TIMEOUT_MS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ParseWorkers != 4 || cfg.FilePrefix != "RADX" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.RADTimeoutMs != 60000 {
		t.Fatalf("timeout fallback=%d", cfg.RADTimeoutMs)
	}
}

func TestLoadSheetNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheets.toml")
	body := "[sheets]\nannex2b_rules = \"Annex 2B \"\nannex3b_fra = \"Annex 3B FRA\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	names, err := LoadSheetNames(path)
	if err != nil {
		t.Fatal(err)
	}
	if names["annex2b_rules"] != "Annex 2B" || names["annex3b_fra"] != "Annex 3B FRA" {
		t.Fatalf("names=%v", names)
	}

	none, err := LoadSheetNames("")
	if err != nil || len(none) != 0 {
		t.Fatalf("none=%v err=%v", none, err)
	}
}

func TestLoadSheetNamesRejectsEmptyName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheets.toml")
	if err := os.WriteFile(path, []byte("[sheets]\nannex1_areas = \"  \"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSheetNames(path); err == nil {
		t.Fatal("expected error")
	}
}
