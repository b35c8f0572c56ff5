package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/log"

	"github.com/qa-platform/metrics-reporter/types"
)

// workerFileMarker is the fixed portion of every partial-store filename.
// Legacy discovery matches on it as a bare substring.
const workerFileMarker = "pytest_worker_"

const artifactExt = ".json"

// Config controls partial-store naming and discovery.
type Config struct {
	// Dir is the hand-off directory shared by all workers. Defaults to the
	// current working directory.
	Dir string

	// Pillar is prefixed onto artifact names when MultipleReport is set, so
	// independent runs sharing a directory can be told apart.
	Pillar string

	// MultipleReport selects the pillar-prefixed naming scheme.
	MultipleReport bool

	// DeleteAfterLoad removes each discovered artifact once it has been read.
	DeleteAfterLoad bool

	// LegacyDiscovery matches any filename containing the worker marker
	// instead of the strict naming pattern. Kept for artifacts produced by
	// older emitters; the strict matcher is the default because substring
	// matching picks up unrelated files.
	LegacyDiscovery bool

	Log log.Logger
}

// PartialResultStore persists one worker's records to a uniquely named
// artifact and later discovers all such artifacts for merging. The
// filesystem is the only coordination channel between workers; uniqueness
// of the worker id is what makes concurrent writes safe.
type PartialResultStore struct {
	cfg     Config
	pattern *regexp.Regexp
}

// NewPartialResultStore creates a store over cfg.Dir.
func NewPartialResultStore(cfg Config) *PartialResultStore {
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}
	return &PartialResultStore{
		cfg:     cfg,
		pattern: regexp.MustCompile(`^` + regexp.QuoteMeta(cfg.prefix()) + `.+` + regexp.QuoteMeta(artifactExt) + `$`),
	}
}

func (c Config) prefix() string {
	if c.MultipleReport {
		return c.Pillar + "_" + workerFileMarker
	}
	return workerFileMarker
}

// Filename returns the artifact name for a worker id under the configured
// naming scheme.
func (s *PartialResultStore) Filename(workerID string) string {
	return s.cfg.prefix() + workerID + artifactExt
}

// Persist writes the worker's records to its artifact. An empty record list
// writes nothing, so discovery never has to special-case empty artifacts.
func (s *PartialResultStore) Persist(records []types.ResultRecord, workerID string) error {
	if len(records) == 0 {
		s.cfg.Log.Debug("no records to persist", "worker", workerID)
		return nil
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to serialize records for worker %s: %w", workerID, err)
	}

	path := filepath.Join(s.cfg.Dir, s.Filename(workerID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write partial results to %s: %w", path, err)
	}
	s.cfg.Log.Debug("persisted partial results", "path", path, "records", len(records))
	return nil
}

// DiscoverAndLoad scans the hand-off directory, loads every matching
// artifact and concatenates the records in directory listing order. A
// malformed artifact is a fatal error: the artifacts are self-produced, so
// corruption indicates external interference worth surfacing loudly.
func (s *PartialResultStore) DiscoverAndLoad() ([]types.ResultRecord, error) {
	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s for partial results: %w", s.cfg.Dir, err)
	}

	var merged []types.ResultRecord
	for _, entry := range entries {
		if entry.IsDir() || !s.matches(entry.Name()) {
			continue
		}
		path := filepath.Join(s.cfg.Dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read partial results from %s: %w", path, err)
		}
		var records []types.ResultRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("malformed partial results in %s: %w", path, err)
		}
		if len(records) > 0 {
			merged = append(merged, records...)
		}
		s.cfg.Log.Debug("loaded partial results", "path", path, "records", len(records))

		if s.cfg.DeleteAfterLoad {
			if err := os.Remove(path); err != nil {
				return nil, fmt.Errorf("failed to delete partial results %s: %w", path, err)
			}
		}
	}
	return merged, nil
}

func (s *PartialResultStore) matches(name string) bool {
	if s.cfg.LegacyDiscovery {
		return strings.Contains(name, workerFileMarker) && strings.HasSuffix(name, artifactExt)
	}
	return s.pattern.MatchString(name)
}
