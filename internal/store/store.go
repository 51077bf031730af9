// Package store assembles the normalized domain slices (focus, tasks,
// rewards, social, settings) into one explicitly constructed engine store.
//
// All mutation goes through slice actions, which take the store lock, mutate
// via the entity managers, and emit events on the bus while the lock is held.
// Cross-domain reactions are registered on the bus at build time and run
// synchronously inside the emitting action; they use the unexported apply
// methods and must never take the lock themselves.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grove-app/grove/internal/bus"
	"github.com/grove-app/grove/internal/domain"
)

// Store is the single in-memory source of truth. Construct it with New; the
// builder assembles every slice atomically so consumers never observe a
// partially built store.
type Store struct {
	mu     sync.Mutex
	clock  domain.Clock
	bus    *bus.Bus
	log    *zap.Logger
	userID string

	focus    *FocusSlice
	tasks    *TasksSlice
	rewards  *RewardsSlice
	social   *SocialSlice
	settings *SettingsSlice
}

// New builds a store with empty slices and wires cross-domain reactions.
func New(clock domain.Clock, b *bus.Bus, log *zap.Logger, userID string) *Store {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		clock:  clock,
		bus:    b,
		log:    log,
		userID: userID,
	}
	s.focus = newFocusSlice(s)
	s.tasks = newTasksSlice(s)
	s.rewards = newRewardsSlice(s)
	s.social = newSocialSlice(s)
	s.settings = newSettingsSlice(s)
	s.wireReactions()
	return s
}

// Slice accessors. The slices themselves expose the action surface.

func (s *Store) Focus() *FocusSlice       { return s.focus }
func (s *Store) Tasks() *TasksSlice       { return s.tasks }
func (s *Store) Rewards() *RewardsSlice   { return s.rewards }
func (s *Store) Social() *SocialSlice     { return s.social }
func (s *Store) Settings() *SettingsSlice { return s.settings }

// UserID returns the local user this store belongs to.
func (s *Store) UserID() string { return s.userID }

// Bus returns the event bus the store emits on.
func (s *Store) Bus() *bus.Bus { return s.bus }

// now returns the clock time. Callers may hold the lock.
func (s *Store) now() time.Time { return s.clock.Now() }

// newID mints an entity id.
func (s *Store) newID() string { return uuid.NewString() }

// emit publishes an event. Called with the store lock held; reactions run
// synchronously and use the unexported apply methods.
func (s *Store) emit(eventType string, payload any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Emit(bus.Event{Type: eventType, Timestamp: s.now(), Payload: payload}); err != nil {
		s.log.Error("event emit failed", zap.String("type", eventType), zap.Error(err))
	}
}

// Publish emits an event while holding the store lock, so cross-domain
// reactions observe a consistent store. External components (the session
// controller, the blocking service) use this instead of the bus directly.
func (s *Store) Publish(eventType string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emit(eventType, payload)
}

// wireReactions registers the cross-domain side effects. This is the only
// place one slice learns about another's events.
func (s *Store) wireReactions() {
	if s.bus == nil {
		return
	}
	s.bus.On(domain.EventSessionCompleted, func(e bus.Event) {
		p, ok := e.Payload.(domain.SessionCompletedPayload)
		if !ok {
			return
		}
		s.focus.applySessionCompleted(p)
		s.rewards.applySessionCompleted(p)
		s.tasks.applySessionCompleted(p)
		s.social.applySessionCompleted(p)
	})
}

// ─── Snapshot / Hydration ───────────────────────────────────────────────────

// Snapshot is the partialized, durable view of the store. UI state is never
// part of it.
type Snapshot struct {
	Focus    FocusState      `json:"focus"`
	Tasks    TasksState      `json:"tasks"`
	Rewards  RewardsState    `json:"rewards"`
	Social   SocialState     `json:"social"`
	Settings domain.Settings `json:"settings"`
}

// Snapshot copies the durable subset of the store.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Focus:    s.focus.state(),
		Tasks:    s.tasks.state(),
		Rewards:  s.rewards.state(),
		Social:   s.social.state(),
		Settings: s.settings.current,
	}
}

// ApplySnapshot replaces the store's data with the deserialized snapshot.
// Only plain values are copied; the slices' actions and wiring stay intact,
// so every closure on the live store remains callable after rehydration.
func (s *Store) ApplySnapshot(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focus.load(snap.Focus)
	s.tasks.load(snap.Tasks)
	s.rewards.load(snap.Rewards)
	s.social.load(snap.Social)
	s.settings.current = snap.Settings
}
