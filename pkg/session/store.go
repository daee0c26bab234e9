// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/agriardyan/phasmo-larp-companion/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// Store owns the live session state. It is created once at startup and
// shared by every consumer. Each mutator changes the state and then persists
// the full snapshot; persist failures are logged and the in-memory state
// stays authoritative.
//
// Local commits and merged changes are applied one at a time, each to
// completion (persist and notify included), in storage revision order.
type Store struct {
	storage Storage
	cfg     StoreConfig

	// commitMu serializes commits, merges and resyncs end to end.
	commitMu sync.Mutex

	mu       sync.RWMutex
	state    State
	revision int64
	watchers map[int]func(State)
	nextID   int
}

type StoreConfig struct {
	Key            string
	PersistTimeout time.Duration
	// Now is the clock used for log entries. Defaults to time.Now.
	Now func() time.Time
}

// NewStore loads the persisted state (or defaults) and returns the live store.
func NewStore(ctx context.Context, storage Storage, cfg StoreConfig) *Store {
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 3 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	state, revision := load(ctx, storage, cfg.Key)
	return &Store{
		storage:  storage,
		cfg:      cfg,
		state:    state,
		revision: revision,
		watchers: make(map[int]func(State)),
	}
}

// Key returns the storage key the store persists to.
func (s *Store) Key() string {
	return s.cfg.Key
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Revision returns the storage revision the live state corresponds to.
func (s *Store) Revision() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Update shallow-merges the set fields of patch into the state.
func (s *Store) Update(ctx context.Context, patch Patch) State {
	return s.commit(ctx, func(st *State) bool {
		patch.apply(st)
		return true
	})
}

// AddLogEntry prepends a new entry stamped with the current time.
func (s *Store) AddLogEntry(ctx context.Context, message string) State {
	entry := NewLogEntry(message, s.cfg.Now())
	return s.commit(ctx, func(st *State) bool {
		st.prependLog(entry)
		return true
	})
}

// ResetSession restores session fields to their defaults, keeping
// SanityEnabled and Difficulty.
func (s *Store) ResetSession(ctx context.Context) State {
	return s.commit(ctx, func(st *State) bool {
		st.resetSession()
		return true
	})
}

// DrainSanity lowers sanity by amount, floored at zero. It does nothing
// when the sanity feature is disabled.
func (s *Store) DrainSanity(ctx context.Context, amount int) State {
	return s.commit(ctx, func(st *State) bool {
		return st.drainSanity(amount)
	})
}

// Watch registers fn to receive a snapshot after every change, local or
// replicated. The returned func unregisters it. fn runs synchronously and
// must not call the store's mutators.
func (s *Store) Watch(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// commit runs mutate and, if it reports a change, persists and notifies
// before the next commit or merge may start.
func (s *Store) commit(ctx context.Context, mutate func(*State) bool) State {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	if !mutate(&s.state) {
		snapshot := s.state.Clone()
		s.mu.Unlock()
		return snapshot
	}
	s.state.normalize()
	snapshot := s.state.Clone()
	watchers := s.watchersLocked()
	s.mu.Unlock()

	if revision, ok := s.persist(ctx, snapshot); ok {
		s.mu.Lock()
		s.revision = revision
		s.mu.Unlock()
	}

	notify(watchers, snapshot)
	return snapshot
}

// persist writes snapshot and reports the revision it was stored under.
func (s *Store) persist(ctx context.Context, snapshot State) (int64, bool) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		logrus.Errorf("failed to save state: %v", err)
		metrics.StatePersistsTotal.WithLabelValues("failure").Inc()
		return 0, false
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.PersistTimeout)
	defer cancel()

	revision, err := s.storage.Set(ctx, s.cfg.Key, data)
	if err != nil {
		logrus.Errorf("failed to save state: %v", err)
		metrics.StatePersistsTotal.WithLabelValues("failure").Inc()
		return 0, false
	}
	metrics.StatePersistsTotal.WithLabelValues("success").Inc()
	return revision, true
}

// Replicate merges changes from other instances into the live state until
// ctx is done. Once subscribed it re-reads the stored state, so writes made
// before the subscription was live are not missed. Merged changes are not
// persisted again: they are already stored.
func (s *Store) Replicate(ctx context.Context, notifier Notifier) error {
	return notifier.Subscribe(ctx, func() { s.resync(ctx) }, s.ApplyChange)
}

// resync merges the currently stored state if it is at least as new as the
// live one.
func (s *Store) resync(ctx context.Context) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.PersistTimeout)
	defer cancel()

	data, revision, err := s.storage.Get(ctx, s.cfg.Key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logrus.Errorf("failed to resync state: %v", err)
		}
		return
	}
	s.merge(data, revision, "resync")
}

// ApplyChange merges an external change event into the live state. Events
// for other keys, empty values, malformed payloads and events older than the
// live revision are dropped. It waits for an in-flight local commit first.
func (s *Store) ApplyChange(event ChangeEvent) {
	if event.Key != s.cfg.Key {
		metrics.ReplicationEventsTotal.WithLabelValues("ignored").Inc()
		return
	}
	if event.NewValue == "" {
		metrics.ReplicationEventsTotal.WithLabelValues("ignored").Inc()
		return
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if s.merge([]byte(event.NewValue), event.Revision, "event") {
		logrus.Debugf("merged state change from %s (revision %d)", event.Origin, event.Revision)
	}
}

// merge applies payload stored at revision unless the live state is newer.
// The caller holds commitMu.
func (s *Store) merge(payload []byte, revision int64, source string) bool {
	s.mu.Lock()
	if revision < s.revision {
		s.mu.Unlock()
		logrus.Debugf("dropped stale %s at revision %d (live %d)", source, revision, s.revision)
		metrics.ReplicationEventsTotal.WithLabelValues("stale").Inc()
		return false
	}

	merged, err := Merge(s.state, payload)
	if err != nil {
		s.mu.Unlock()
		logrus.Errorf("failed to sync state: %v", err)
		metrics.ReplicationEventsTotal.WithLabelValues("malformed").Inc()
		return false
	}
	s.state = merged
	s.revision = revision
	snapshot := s.state.Clone()
	watchers := s.watchersLocked()
	s.mu.Unlock()

	metrics.ReplicationEventsTotal.WithLabelValues("merged").Inc()
	notify(watchers, snapshot)
	return true
}

func (s *Store) watchersLocked() []func(State) {
	if len(s.watchers) == 0 {
		return nil
	}
	out := make([]func(State), 0, len(s.watchers))
	for _, fn := range s.watchers {
		out = append(out, fn)
	}
	return out
}

func notify(watchers []func(State), snapshot State) {
	for _, fn := range watchers {
		fn(snapshot.Clone())
	}
}
