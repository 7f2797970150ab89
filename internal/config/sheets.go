package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// SheetsFile is the optional override file pointed to by RAD_SHEETS_FILE.
//
//	[sheets]
//	annex2b_rules = "Annex 2B"
//	annex3b_fra   = "Annex 3B FRA"
type SheetsFile struct {
	Sheets map[string]string `toml:"sheets"`
}

// LoadSheetNames reads sheet-name overrides keyed by category key.
// An empty path yields no overrides.
func LoadSheetNames(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return map[string]string{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sheets file: %w", err)
	}

	var file SheetsFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse sheets file %s: %w", path, err)
	}

	out := make(map[string]string, len(file.Sheets))
	for key, name := range file.Sheets {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("sheets file %s: empty sheet name for %q", path, key)
		}
		out[strings.TrimSpace(key)] = name
	}
	return out, nil
}
