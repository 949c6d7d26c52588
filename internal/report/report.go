// Package report persists batch summaries as JSON files.
package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vburojevic/simnav/internal/domain"
)

// DefaultPath returns ~/.simnav/reports/<batchID>.json, creating the directory
func DefaultPath(batchID string) (string, error) {
	batchID = strings.TrimSpace(batchID)
	if batchID == "" {
		return "", errors.New("batch id is required for report path")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".simnav", "reports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, batchID+".json"), nil
}

// Load reads a saved summary. A missing file is not an error: it returns nil, nil.
func Load(path string) (*domain.BatchSummary, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("report path is required")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var s domain.BatchSummary
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	if s.Type != "summary" {
		return nil, errors.New("not a batch report: missing summary type")
	}
	return &s, nil
}

// Save writes s to path as indented JSON
func Save(path string, s *domain.BatchSummary) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("report path is required")
	}
	if s == nil {
		return errors.New("summary is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}

// Elapsed is the wall time between the batch start and finish stamps
func Elapsed(s *domain.BatchSummary) (time.Duration, error) {
	start, err := parseRFC3339Any(s.StartedAt)
	if err != nil {
		return 0, err
	}
	end, err := parseRFC3339Any(s.FinishedAt)
	if err != nil {
		return 0, err
	}
	if start.IsZero() || end.IsZero() {
		return 0, nil
	}
	return end.Sub(start), nil
}

func parseRFC3339Any(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
