// Package store persists collected page-load results under a single key as a
// JSON array, in insertion order.
package store

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/tidwall/gjson"

	"github.com/torosent/protobench/internal/metrics"
)

// DefaultKey is the storage key results are kept under.
const DefaultKey = "http-protocol-test-results"

// SavedResult is a Record tagged with the scenario it was captured under.
type SavedResult struct {
	metrics.Record
	ScenarioType string `json:"scenarioType"`
	ID           string `json:"id"`
}

// NewID returns a lexically time-ordered identifier for a result captured at t.
func NewID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}

// Options configures a Store. The zero value is usable.
type Options struct {
	Key       string
	Logger    *slog.Logger
	Now       func() time.Time
	OnCorrupt func(key string, err error)
}

// Store appends and lists results held by a Backend.
type Store struct {
	backend   Backend
	key       string
	logger    *slog.Logger
	now       func() time.Time
	onCorrupt func(key string, err error)

	mu sync.Mutex
}

func New(backend Backend, opts Options) *Store {
	s := &Store{
		backend:   backend,
		key:       opts.Key,
		logger:    opts.Logger,
		now:       opts.Now,
		onCorrupt: opts.OnCorrupt,
	}
	if s.key == "" {
		s.key = DefaultKey
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.onCorrupt == nil {
		s.onCorrupt = func(key string, err error) {
			s.logger.Warn("ignoring stored results", "key", key, "error", err)
		}
	}
	return s
}

// Key returns the storage key in use.
func (s *Store) Key() string { return s.key }

// Append stores rec tagged with scenario and returns the saved form.
func (s *Store) Append(rec metrics.Record, scenario string) (SavedResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := SavedResult{
		Record:       rec,
		ScenarioType: scenario,
		ID:           NewID(s.now()),
	}
	if saved.Resources == nil {
		saved.Resources = []metrics.ResourceSample{}
	}

	prior, err := s.read()
	if err != nil {
		return SavedResult{}, err
	}
	results := append(prior, saved)
	data, err := json.Marshal(results)
	if err != nil {
		return SavedResult{}, &PersistenceError{Op: "encode", Key: s.key, Err: err}
	}
	if err := s.backend.Set(s.key, data); err != nil {
		return SavedResult{}, &PersistenceError{Op: "write", Key: s.key, Err: err}
	}
	s.logger.Debug("result saved", "id", saved.ID, "scenario", scenario, "protocol", saved.Protocol, "total", len(results))
	return saved, nil
}

// All returns every stored result in insertion order. Missing or unreadable
// data yields an empty slice.
func (s *Store) All() []SavedResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Clear removes every stored result.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Remove(s.key); err != nil {
		return &PersistenceError{Op: "remove", Key: s.key, Err: err}
	}
	return nil
}

// GroupBy partitions the stored results by field.
func (s *Store) GroupBy(field Field) map[string][]SavedResult {
	return Group(s.All(), field)
}

func (s *Store) load() []SavedResult {
	results, err := s.read()
	if err != nil {
		s.onCorrupt(s.key, err)
		return []SavedResult{}
	}
	return results
}

// read decodes the stored results. Corrupt data is reported to onCorrupt and
// reads as empty; a backend failure is returned so writers never overwrite
// data they could not see.
func (s *Store) read() ([]SavedResult, error) {
	data, ok, err := s.backend.Get(s.key)
	if err != nil {
		return nil, &PersistenceError{Op: "read", Key: s.key, Err: err}
	}
	if !ok || len(data) == 0 {
		return []SavedResult{}, nil
	}
	if !gjson.ValidBytes(data) {
		s.onCorrupt(s.key, &CorruptDataError{Key: s.key, Err: errors.New("invalid JSON")})
		return []SavedResult{}, nil
	}
	if !gjson.ParseBytes(data).IsArray() {
		s.onCorrupt(s.key, &CorruptDataError{Key: s.key, Err: errors.New("expected a JSON array")})
		return []SavedResult{}, nil
	}

	var results []SavedResult
	if err := json.Unmarshal(data, &results); err != nil {
		s.onCorrupt(s.key, &CorruptDataError{Key: s.key, Err: err})
		return []SavedResult{}, nil
	}
	if results == nil {
		results = []SavedResult{}
	}
	return results, nil
}
