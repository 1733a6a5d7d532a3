package state

import (
	"errors"
	"fmt"
	"os"
	"pickme/internal/mirror"
	"pickme/internal/models"
	"pickme/internal/providers"
	"pickme/internal/structures"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/atomic"
	"golang.org/x/text/language"
)

// ViewInterface is the read side of the store handed to other packages.
type ViewInterface interface {
	Snapshot() *Snapshot
}

type StoreInterface interface {
	ViewInterface
	Reconcile(raw any) *Snapshot
	Bootstrap() *Snapshot
	Persistable() models.PersistedState
}

// Store owns the canonical state. Reconcile is serialized; readers load the
// last published snapshot without locking.
type Store struct {
	mu       sync.Mutex
	current  atomic.Pointer[Snapshot]
	revision uint64
	tag      language.Tag
	now      func() time.Time

	conf    *structures.Config
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
	mirror  mirror.MirrorInterface
}

func NewStore(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface, m mirror.MirrorInterface) StoreInterface {
	return newStore(conf, logger, metrics, m, time.Now)
}

func newStore(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface, m mirror.MirrorInterface, now func() time.Time) *Store {
	tag, err := language.Parse(conf.Locale.Collation)
	if err != nil {
		logger.Warnf(providers.TypeState, "Unknown collation %q, falling back to root collation", conf.Locale.Collation)
		tag = language.Und
	}
	s := &Store{
		tag:     tag,
		now:     now,
		conf:    conf,
		logger:  logger,
		metrics: metrics,
		mirror:  m,
	}
	s.current.Store(buildSnapshot(0, NormalizeAt(nil, now()), NewComparator(tag)))
	return s
}

func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Reconcile normalizes raw, rebuilds every derived index and publishes the
// result as one snapshot. The mirror write is best-effort.
func (s *Store) Reconcile(raw any) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	st := NormalizeAt(raw, s.now())
	s.revision++
	snap := buildSnapshot(s.revision, st, NewComparator(s.tag))
	s.current.Store(snap)
	s.metrics.ObserveReconcileDuration(time.Since(start))
	s.metrics.SetStudentsTotal(st.CurrentClassID, len(st.Payload.Students))
	s.logger.Debugf(providers.TypeState, "Reconciled state revision %d: class %s, %d students, %d history entries",
		snap.Revision, st.CurrentClassID, len(st.Payload.Students), len(st.Payload.History.Entries))

	s.writeMirror(st)
	return snap
}

func (s *Store) Persistable() models.PersistedState {
	return s.Snapshot().State.Persist()
}

func (s *Store) writeMirror(st models.AppState) {
	data, err := json.Marshal(st.Persist())
	if err == nil {
		err = s.mirror.Set(s.conf.Mirror.Key, data)
	}
	if err != nil {
		s.metrics.IncMirrorFailures("write")
		s.logger.Warnf(providers.TypeState, "Failed to write state mirror: %s", err)
	}
}

// Bootstrap restores the last mirrored state, then the initial state file,
// and finally starts from an empty state.
func (s *Store) Bootstrap() *Snapshot {
	if raw, err := s.readMirror(); err == nil {
		s.logger.Infof(providers.TypeState, "Restored state from mirror")
		return s.Reconcile(raw)
	} else if !errors.Is(err, ErrNoStoredState) {
		s.metrics.IncMirrorFailures("read")
		s.logger.Warnf(providers.TypeState, "Ignoring mirrored state: %s", err)
	}

	if s.conf.InitialStatePath != "" {
		raw, err := readStateFile(s.conf.InitialStatePath)
		if err == nil {
			s.logger.Infof(providers.TypeState, "Loaded initial state from %s", s.conf.InitialStatePath)
			return s.Reconcile(raw)
		}
		s.logger.Warnf(providers.TypeState, "Failed to load initial state: %s", err)
	}

	return s.Reconcile(map[string]any{})
}

var ErrNoStoredState = errors.New("no stored state")

func (s *Store) readMirror() (any, error) {
	data, err := s.mirror.Get(s.conf.Mirror.Key)
	if err != nil {
		if errors.Is(err, mirror.ErrNotFound) {
			return nil, ErrNoStoredState
		}
		return nil, err
	}
	raw, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if !HasStoredState(raw) {
		return nil, ErrNoStoredState
	}
	return raw, nil
}

func readStateFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return raw, nil
}

// Decode parses a JSON document into the loose form Normalize accepts.
func Decode(data []byte) (any, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return raw, nil
}

// Encode serializes the canonical state in its persisted layout.
func Encode(st models.AppState) ([]byte, error) {
	return json.Marshal(st.Persist())
}
