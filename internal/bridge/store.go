// store.go — Event mirror: the single writer of the local GlobalState.
package bridge

import (
	"sync"

	"go.uber.org/zap"
)

// Store owns the local mirror of the host globals. Snapshots are immutable;
// each applied event publishes a new one.
type Store struct {
	// deliver serializes Apply so events reach subscribers in dispatch order.
	deliver sync.Mutex

	mu     sync.Mutex
	state  GlobalState
	subs   map[uint64]func(GlobalState)
	order  []uint64
	nextID uint64
	logger *zap.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for dropped payloads.
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a store seeded from the host's current globals.
// A nil host yields an empty snapshot.
func NewStore(host Host, opts ...StoreOption) *Store {
	s := &Store{
		state:  ReadAll(host),
		subs:   make(map[uint64]func(GlobalState)),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current state.
func (s *Store) Snapshot() GlobalState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to receive every published snapshot. The returned
// func removes it and may be called more than once.
func (s *Store) Subscribe(fn func(GlobalState)) (unsubscribe func()) {
	_, unsubscribe = s.register(fn)
	return unsubscribe
}

// subscribeFrom passes the current snapshot to initial and registers fn with
// no Apply in between. initial runs before fn sees any later event. Neither
// may call Apply, and it must not be called from inside a subscriber.
func (s *Store) subscribeFrom(initial, fn func(GlobalState)) (unsubscribe func()) {
	s.deliver.Lock()
	defer s.deliver.Unlock()
	snapshot, unsubscribe := s.register(fn)
	initial(snapshot)
	return unsubscribe
}

func (s *Store) register(fn func(GlobalState)) (GlobalState, func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.order = append(s.order, id)
	snapshot := s.state
	s.mu.Unlock()

	var once sync.Once
	return snapshot, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			for i, sid := range s.order {
				if sid == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Apply merges ev into the mirror and notifies every subscriber once with the
// resulting snapshot. Successive calls are delivered in order; subscribers may
// read the store but must not call Apply themselves.
func (s *Store) Apply(ev ChangeEvent) {
	s.deliver.Lock()
	defer s.deliver.Unlock()

	s.mu.Lock()
	s.state = s.state.Merge(ev)
	snapshot := s.state
	fns := make([]func(GlobalState), 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.subs[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

// HandleEvent is the listener body for the set-globals event. Payloads that
// are not a {globals: {...}} object are dropped without touching state.
func (s *Store) HandleEvent(detail any) {
	ev, ok := ParseChangeEvent(detail)
	if !ok {
		s.logger.Debug("ignoring malformed set_globals payload", zap.Any("detail", detail))
		return
	}
	s.Apply(ev)
}

// Mount subscribes the store to target for the lifetime of the caller.
// The returned func removes the listener; call it on teardown.
func (s *Store) Mount(target EventTarget) (unmount func()) {
	if target == nil {
		return func() {}
	}
	return target.AddListener(s.HandleEvent)
}
