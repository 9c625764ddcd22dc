/*
Package universe loads and persists the curated set of tracked companies. The
universe file is the refresh job's output and the matching pipeline's input;
the master file is the raw JPX listing the refresh job works from.
*/
package universe

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/snagasawa/kabupost/internal/normalize"
	"github.com/snagasawa/kabupost/internal/types"
)

// Load reads the universe file and computes the matching key for every
// record. A missing or malformed file means the pipeline cannot run.
func Load(path string) ([]types.CompanyRecord, error) {
	records, err := readRecords(path)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Key = normalize.Name(records[i].Name)
	}
	return records, nil
}

// LoadMaster reads the JPX master list. Keys are computed the same way; the
// master is the fatal prerequisite of a refresh run.
func LoadMaster(path string) ([]types.CompanyRecord, error) {
	return Load(path)
}

func readRecords(path string) ([]types.CompanyRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", types.ErrDataUnavailable, path, err)
	}

	var records []types.CompanyRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", types.ErrDataUnavailable, path, err)
	}
	return records, nil
}

// Save writes the full record set. Keys are never persisted (they carry the
// json:"-" tag); they are recomputed on every load.
func Save(path string, records []types.CompanyRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory for %s: %w", path, err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal universe: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write universe file %s: %w", path, err)
	}
	return nil
}

// HighYield returns the records at or above the minimum yield. It is a
// derived view; the input slice is not modified.
func HighYield(records []types.CompanyRecord, minYield float64) []types.CompanyRecord {
	var out []types.CompanyRecord
	for _, r := range records {
		if r.Yield != nil && *r.Yield >= minYield {
			out = append(out, r)
		}
	}
	return out
}
