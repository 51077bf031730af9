// Package blocking is the engine side of the app-blocking boundary. The
// native adapter that actually blocks launches lives outside this process;
// the contract is events only: blocked launches arrive as events, unlock
// grants leave as events. The core never calls the adapter.
package blocking

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/grove-app/grove/internal/bus"
	"github.com/grove-app/grove/internal/domain"
	"github.com/grove-app/grove/internal/store"
)

// maxRecordedLaunches bounds the blocked-launch log.
const maxRecordedLaunches = 200

// Service tracks temporary app unlocks paid for with seeds and records
// blocked-launch reports from the native adapter.
type Service struct {
	st    *store.Store
	clock domain.Clock
	log   *zap.Logger

	mu       sync.Mutex
	unlocks  map[string]time.Time // bundle id → expiry
	launches []domain.BlockedLaunchPayload
}

// New builds the blocking service.
func New(st *store.Store, clock domain.Clock, log *zap.Logger) *Service {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		st:      st,
		clock:   clock,
		log:     log,
		unlocks: make(map[string]time.Time),
	}
}

// Watch subscribes to blocked-launch reports. The handler runs inside the
// adapter's Publish, so it only records on the service's own state and
// re-emits; it never calls locking store methods.
func (s *Service) Watch(b *bus.Bus) {
	b.On(domain.EventAppLaunchBlocked, func(e bus.Event) {
		p, ok := e.Payload.(domain.BlockedLaunchPayload)
		if !ok {
			return
		}
		s.mu.Lock()
		s.launches = append(s.launches, p)
		if len(s.launches) > maxRecordedLaunches {
			s.launches = s.launches[len(s.launches)-maxRecordedLaunches:]
		}
		s.mu.Unlock()

		b.Emit(bus.Event{
			Type:      domain.EventUINotification,
			Timestamp: p.Timestamp,
			Payload:   "blocked launch of " + p.BundleIdentifier,
		})
	})
}

// UnlockApp spends seeds to unlock a restricted app for its configured
// window. The spend goes through the rewards ledger like any other debit.
func (s *Service) UnlockApp(bundleID string) (time.Time, error) {
	app, ok := s.st.Rewards().AppByBundleID(bundleID)
	if !ok {
		return time.Time{}, &domain.NotFoundError{Kind: "unlockable app", ID: bundleID}
	}
	if s.IsUnlocked(bundleID) {
		return time.Time{}, &domain.InvalidStateError{Action: "unlock app", State: "unlocked"}
	}

	if app.CostSeeds > 0 {
		if _, err := s.st.Rewards().SpendSeeds(app.CostSeeds, domain.SourceAppUnlock, map[string]string{
			"bundleIdentifier": bundleID,
		}); err != nil {
			return time.Time{}, err
		}
	}

	expiresAt := s.clock.Now().Add(time.Duration(app.UnlockMinutes) * time.Minute)
	s.mu.Lock()
	s.unlocks[bundleID] = expiresAt
	s.mu.Unlock()

	s.st.Publish(domain.EventAppUnlocked, domain.AppUnlockPayload{
		BundleIdentifier: bundleID,
		ExpiresAt:        expiresAt,
		CostSeeds:        app.CostSeeds,
	})
	s.log.Info("app unlocked",
		zap.String("bundle_id", bundleID),
		zap.Int("cost_seeds", app.CostSeeds),
		zap.Time("expires_at", expiresAt))
	return expiresAt, nil
}

// IsUnlocked reports whether the app's unlock window is still open.
func (s *Service) IsUnlocked(bundleID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.unlocks[bundleID]
	return ok && s.clock.Now().Before(expiry)
}

// ExpireUnlocks drops unlock windows that have run out and announces each
// expiry so the adapter re-locks the app.
func (s *Service) ExpireUnlocks() {
	now := s.clock.Now()

	s.mu.Lock()
	var expired []domain.AppUnlockPayload
	for bundleID, expiry := range s.unlocks {
		if !now.Before(expiry) {
			expired = append(expired, domain.AppUnlockPayload{
				BundleIdentifier: bundleID,
				ExpiresAt:        expiry,
			})
			delete(s.unlocks, bundleID)
		}
	}
	s.mu.Unlock()

	for _, p := range expired {
		s.st.Publish(domain.EventAppUnlockExpired, p)
	}
}

// BlockedLaunches returns the recorded blocked-launch reports, oldest first.
func (s *Service) BlockedLaunches() []domain.BlockedLaunchPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.BlockedLaunchPayload, len(s.launches))
	copy(out, s.launches)
	return out
}
