package storage

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ipconfiger/ipconfiger/internal/events"
	"github.com/ipconfiger/ipconfiger/pkg/types"
)

// Ensure ConfigStore implements ProfileStoreInterface for both profile kinds
var (
	_ ProfileStoreInterface[types.NetworkProfile] = (*ConfigStore[types.NetworkProfile])(nil)
	_ ProfileStoreInterface[types.ProxyProfile]   = (*ConfigStore[types.ProxyProfile])(nil)
)

// ImportResult summarizes what an Import did to the collection
type ImportResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Option configures a ConfigStore
type Option func(*storeOptions)

type storeOptions struct {
	logger    *zap.Logger
	publisher events.Publisher
	now       func() time.Time
}

// WithLogger sets the logger used for load and save diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(o *storeOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPublisher sets where change events are sent after each persisted mutation
func WithPublisher(publisher events.Publisher) Option {
	return func(o *storeOptions) {
		if publisher != nil {
			o.publisher = publisher
		}
	}
}

// WithClock overrides the time source used to stamp CreatedTime
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// ConfigStore is a concurrency-safe collection of named profiles of one kind.
//
// The collection is read from the backend once, on first access, and every
// mutation rewrites the whole backend before it returns. A mutation whose
// write fails leaves the in-memory collection as it was.
type ConfigStore[T types.Record[T]] struct {
	kind       types.Kind
	backend    Backend
	serializer Serializer[T]
	logger     *zap.Logger
	publisher  events.Publisher
	now        func() time.Time

	mu       sync.Mutex
	loadOnce sync.Once
	records  []T
}

// NewConfigStore creates a store over backend. Nothing is read until the
// first operation.
func NewConfigStore[T types.Record[T]](kind types.Kind, backend Backend, serializer Serializer[T], opts ...Option) (*ConfigStore[T], error) {
	if backend == nil {
		return nil, fmt.Errorf("backend cannot be nil")
	}
	if serializer == nil {
		return nil, fmt.Errorf("serializer cannot be nil")
	}

	o := storeOptions{
		logger:    zap.NewNop(),
		publisher: &events.NoopPublisher{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &ConfigStore[T]{
		kind:       kind,
		backend:    backend,
		serializer: serializer,
		logger:     o.logger.With(zap.String("kind", string(kind)), zap.String("location", backend.Location())),
		publisher:  o.publisher,
		now:        o.now,
	}, nil
}

// Kind returns the profile kind held by the store
func (s *ConfigStore[T]) Kind() types.Kind {
	return s.kind
}

// Location returns where the collection is persisted
func (s *ConfigStore[T]) Location() string {
	return s.backend.Location()
}

// Format returns the serialization format of the backing file
func (s *ConfigStore[T]) Format() Format {
	return s.serializer.Format()
}

// List returns a snapshot of every profile in insertion order
func (s *ConfigStore[T]) List() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()

	out := make([]T, len(s.records))
	copy(out, s.records)
	return out
}

// Get looks a profile up by case-insensitive name. A blank name is simply
// not found.
func (s *ConfigStore[T]) Get(name string) (T, bool) {
	var zero T
	if strings.TrimSpace(name) == "" {
		return zero, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()

	idx := indexOf(s.records, name)
	if idx < 0 {
		return zero, false
	}
	return s.records[idx], true
}

// Exists checks if a profile exists
func (s *ConfigStore[T]) Exists(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Names returns the names of all profiles in insertion order
func (s *ConfigStore[T]) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()

	names := make([]string, 0, len(s.records))
	for _, r := range s.records {
		names = append(names, r.GetName())
	}
	return names
}

// Len returns the number of stored profiles
func (s *ConfigStore[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()

	return len(s.records)
}

// Find returns a snapshot of the profiles matching keep
func (s *ConfigStore[T]) Find(keep func(T) bool) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()

	var out []T
	for _, r := range s.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Add inserts a new profile stamped with the current time
func (s *ConfigStore[T]) Add(record T) error {
	name := record.GetName()
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: profile name cannot be empty", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()

	if indexOf(s.records, name) >= 0 {
		return fmt.Errorf("%w: profile '%s' already exists", ErrValidation, name)
	}

	next := append(slices.Clone(s.records), record.WithCreatedTime(s.now()))
	if err := s.commit(next); err != nil {
		return err
	}

	s.publish(events.ActionCreated, name)
	return nil
}

// Update replaces an existing profile. The stored CreatedTime is kept no
// matter what the caller put in record.
func (s *ConfigStore[T]) Update(record T) error {
	name := record.GetName()
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: profile name cannot be empty", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()

	idx := indexOf(s.records, name)
	if idx < 0 {
		return fmt.Errorf("%w: '%s'", ErrNotFound, name)
	}

	next := slices.Clone(s.records)
	next[idx] = record.WithCreatedTime(s.records[idx].GetCreatedTime())
	if err := s.commit(next); err != nil {
		return err
	}

	s.publish(events.ActionUpdated, name)
	return nil
}

// Delete removes a profile
func (s *ConfigStore[T]) Delete(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: profile name cannot be empty", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()

	idx := indexOf(s.records, name)
	if idx < 0 {
		return fmt.Errorf("%w: '%s'", ErrNotFound, name)
	}

	removed := s.records[idx].GetName()
	next := slices.Delete(slices.Clone(s.records), idx, idx+1)
	if err := s.commit(next); err != nil {
		return err
	}

	s.publish(events.ActionDeleted, removed)
	return nil
}

// Export serializes the whole collection in the storage format
func (s *ConfigStore[T]) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()

	return s.serializer.Serialize(s.records)
}

// Import merges serialized profiles into the collection by name. Existing
// profiles are overwritten but keep their CreatedTime; new ones are stamped
// now; entries without a name are skipped. The result is persisted once,
// and not at all when every entry was skipped.
func (s *ConfigStore[T]) Import(data []byte) (ImportResult, error) {
	var result ImportResult

	incoming, err := s.decodeImport(data)
	if err != nil {
		return result, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()

	now := s.now()
	next := slices.Clone(s.records)
	var touched []string
	for _, r := range incoming {
		name := r.GetName()
		if strings.TrimSpace(name) == "" {
			result.Skipped++
			continue
		}

		if idx := indexOf(next, name); idx >= 0 {
			next[idx] = r.WithCreatedTime(next[idx].GetCreatedTime())
			result.Updated++
		} else {
			next = append(next, r.WithCreatedTime(now))
			result.Added++
		}
		touched = append(touched, name)
	}

	if len(touched) == 0 {
		return result, nil
	}

	if err := s.commit(next); err != nil {
		return ImportResult{}, err
	}

	s.logger.Info("Imported profiles",
		zap.Int("added", result.Added),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped))
	s.publish(events.ActionImported, touched...)
	return result, nil
}

// Preview decodes data the way Import does and returns the names Import
// would add or overwrite, in file order. The collection is not touched.
func (s *ConfigStore[T]) Preview(data []byte) ([]string, error) {
	incoming, err := s.decodeImport(data)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, r := range incoming {
		if name := r.GetName(); strings.TrimSpace(name) != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func (s *ConfigStore[T]) decodeImport(data []byte) ([]T, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: import data cannot be empty", ErrValidation)
	}

	incoming, err := s.serializer.Deserialize(data)
	if err != nil {
		return nil, err
	}
	if len(incoming) == 0 {
		return nil, fmt.Errorf("%w: import data contains no profiles", ErrValidation)
	}
	return incoming, nil
}

// ensureLoaded reads the backend the first time it is called. Callers must
// hold s.mu.
func (s *ConfigStore[T]) ensureLoaded() {
	s.loadOnce.Do(s.load)
}

// load populates s.records. Failures fall back to an empty collection: a
// corrupt file must not stop the application from starting.
func (s *ConfigStore[T]) load() {
	s.records = nil

	data, err := s.backend.Read()
	if err != nil {
		s.logger.Warn("Failed to read profiles, starting empty", zap.Error(err))
		return
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return
	}

	loaded, err := s.serializer.Deserialize(data)
	if err != nil {
		s.logger.Warn("Failed to parse profiles, starting empty", zap.Error(err))
		return
	}

	records := make([]T, 0, len(loaded))
	for _, r := range loaded {
		name := r.GetName()
		if strings.TrimSpace(name) == "" {
			s.logger.Warn("Skipping stored profile without a name")
			continue
		}
		if indexOf(records, name) >= 0 {
			s.logger.Warn("Skipping duplicate stored profile", zap.String("name", name))
			continue
		}
		records = append(records, r)
	}
	s.records = records

	s.logger.Debug("Loaded profiles", zap.Int("count", len(records)))
}

// commit persists next and, only if that succeeds, makes it the current
// collection. Callers must hold s.mu.
func (s *ConfigStore[T]) commit(next []T) error {
	data, err := s.serializer.Serialize(next)
	if err != nil {
		s.logger.Error("Failed to serialize profiles", zap.Error(err))
		return err
	}

	if err := s.backend.Write(data); err != nil {
		s.logger.Error("Failed to save profiles", zap.Error(err))
		return err
	}

	s.records = next
	return nil
}

// publish emits a change event. Delivery failures are logged only; the
// change itself is already durable.
func (s *ConfigStore[T]) publish(action events.Action, names ...string) {
	evt := events.ProfileChanged{
		Kind:      string(s.kind),
		Action:    action,
		Names:     names,
		Timestamp: s.now().UTC(),
	}
	if err := s.publisher.Publish(context.Background(), events.Topic(string(s.kind), action), evt); err != nil {
		s.logger.Warn("Failed to publish change event", zap.String("action", string(action)), zap.Error(err))
	}
}

// indexOf returns the position of name in records, or -1
func indexOf[T types.Record[T]](records []T, name string) int {
	key := types.NormalizeName(name)
	for i, r := range records {
		if types.NormalizeName(r.GetName()) == key {
			return i
		}
	}
	return -1
}
