// Package session implements the focus session state machine. The controller
// is the only writer of session lifecycle state; the store holds the records
// and the controller owns the transitions and the countdown timer.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grove-app/grove/internal/domain"
	"github.com/grove-app/grove/internal/store"
)

// tickInterval is the countdown resolution while a session is active.
const tickInterval = time.Second

// StartOptions parameterize a new focus session.
type StartOptions struct {
	TargetMinutes int
	CategoryID    string
	TagIDs        []string
	TaskID        string
	Description   string
}

// Controller drives the active ↔ paused ↔ terminal transitions for the
// store-wide singleton current session. It owns its ticker: the ticker runs
// only while a session is active and is torn down on every exit from that
// state, so a stopped controller never fires a stale tick.
type Controller struct {
	st       *store.Store
	clock    domain.Clock
	log      *zap.Logger
	interval time.Duration

	mu     sync.Mutex
	ticker *time.Ticker
	done   chan struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithTickInterval overrides the countdown resolution. A non-positive
// interval disables the internal ticker entirely; the caller then drives the
// countdown by calling Tick.
func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) { c.interval = d }
}

// New builds a controller bound to a store.
func New(st *store.Store, clock domain.Clock, log *zap.Logger, opts ...Option) *Controller {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{st: st, clock: clock, log: log, interval: tickInterval}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ─── Transitions ────────────────────────────────────────────────────────────

// Start begins a new focus session. At most one session may be active or
// paused store-wide; starting while one exists is an invalid-state error.
func (c *Controller) Start(opts StartOptions) (domain.FocusSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if opts.TargetMinutes <= 0 || opts.TargetMinutes > domain.MaxTargetMinutes {
		return domain.FocusSession{}, domain.NewValidation("target_duration",
			"target must be between 1 and %d minutes, got %d", domain.MaxTargetMinutes, opts.TargetMinutes)
	}
	if opts.CategoryID == "" {
		return domain.FocusSession{}, domain.NewValidation("category_required", "a session must reference a category")
	}
	if !c.st.Focus().HasCategory(opts.CategoryID) {
		return domain.FocusSession{}, domain.NewValidation("category_exists", "category %q does not exist", opts.CategoryID)
	}
	if opts.TaskID != "" {
		if _, ok := c.st.Tasks().Task(opts.TaskID); !ok {
			return domain.FocusSession{}, domain.NewValidation("task_exists", "task %q does not exist", opts.TaskID)
		}
	}
	if cur, ok := c.st.Focus().CurrentSession(); ok {
		return domain.FocusSession{}, &domain.InvalidStateError{Action: "start session", State: string(cur.Status)}
	}

	now := c.clock.Now()
	sess := domain.FocusSession{
		Base:           domain.NewBase(uuid.NewString(), now),
		UserID:         c.st.UserID(),
		StartTime:      now,
		TargetDuration: opts.TargetMinutes,
		CategoryID:     opts.CategoryID,
		TagIDs:         opts.TagIDs,
		TaskID:         opts.TaskID,
		Description:    opts.Description,
		Status:         domain.SessionActive,
	}
	c.st.Focus().PutSession(sess)
	c.st.Publish(domain.EventSessionStarted, domain.SessionEventPayload{SessionID: sess.ID})
	c.startTicker()
	c.log.Info("session started",
		zap.String("session_id", sess.ID),
		zap.Int("target_minutes", opts.TargetMinutes))
	return sess, nil
}

// Pause suspends the active session. The pause interval is recorded with a
// placeholder end time equal to its start; Resume (or the terminal
// transition) corrects it.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.st.Focus().CurrentSession()
	if !ok {
		return &domain.NotFoundError{Kind: "session", ID: "current"}
	}
	if cur.Status != domain.SessionActive {
		return &domain.InvalidStateError{Action: "pause session", State: string(cur.Status)}
	}

	now := c.clock.Now()
	if err := c.st.Focus().UpdateSession(cur.ID, func(s domain.FocusSession) domain.FocusSession {
		s.Status = domain.SessionPaused
		s.PauseHistory = append(s.PauseHistory, domain.PauseInterval{StartTime: now, EndTime: now})
		return s
	}); err != nil {
		return err
	}
	c.stopTicker()
	c.st.Publish(domain.EventSessionPaused, domain.SessionEventPayload{SessionID: cur.ID})
	return nil
}

// Resume continues a paused session and closes the open pause interval.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.st.Focus().CurrentSession()
	if !ok {
		return &domain.NotFoundError{Kind: "session", ID: "current"}
	}
	if cur.Status != domain.SessionPaused {
		return &domain.InvalidStateError{Action: "resume session", State: string(cur.Status)}
	}

	now := c.clock.Now()
	if err := c.st.Focus().UpdateSession(cur.ID, func(s domain.FocusSession) domain.FocusSession {
		s.Status = domain.SessionActive
		if n := len(s.PauseHistory); n > 0 {
			s.PauseHistory[n-1].EndTime = now
		}
		return s
	}); err != nil {
		return err
	}
	c.startTicker()
	c.st.Publish(domain.EventSessionResumed, domain.SessionEventPayload{SessionID: cur.ID})
	return nil
}

// Complete finishes the current session, computes the focused duration
// excluding pauses, awards seeds and publishes the completion event that
// drives every cross-domain reaction.
func (c *Controller) Complete() (domain.FocusSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finish(domain.SessionCompleted)
}

// Cancel abandons the current session. No seeds are awarded.
func (c *Controller) Cancel() (domain.FocusSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finish(domain.SessionCancelled)
}

func (c *Controller) finish(terminal domain.SessionStatus) (domain.FocusSession, error) {
	cur, ok := c.st.Focus().CurrentSession()
	if !ok {
		return domain.FocusSession{}, &domain.NotFoundError{Kind: "session", ID: "current"}
	}
	action := "complete session"
	if terminal == domain.SessionCancelled {
		action = "cancel session"
	}
	if !cur.Status.IsCurrent() {
		return domain.FocusSession{}, &domain.InvalidStateError{Action: action, State: string(cur.Status)}
	}

	now := c.clock.Now()
	var finished domain.FocusSession
	if err := c.st.Focus().UpdateSession(cur.ID, func(s domain.FocusSession) domain.FocusSession {
		// A session ending while paused closes its open interval at the
		// terminal transition, so the pause never counts as focus time.
		if s.Status == domain.SessionPaused {
			if n := len(s.PauseHistory); n > 0 {
				s.PauseHistory[n-1].EndTime = now
			}
		}
		s.Duration = int(s.Elapsed(now) / time.Minute)
		s.EndTime = &now
		s.Status = terminal
		if terminal == domain.SessionCompleted {
			s.SeedsEarned = domain.SeedReward(s.Duration, s.TargetDuration)
		}
		finished = s
		return s
	}); err != nil {
		return domain.FocusSession{}, err
	}
	c.stopTicker()

	if terminal == domain.SessionCompleted {
		c.st.Publish(domain.EventSessionCompleted, domain.SessionCompletedPayload{
			SessionID:       finished.ID,
			TaskID:          finished.TaskID,
			UserID:          finished.UserID,
			SeedsEarned:     finished.SeedsEarned,
			DurationMinutes: finished.Duration,
		})
		c.log.Info("session completed",
			zap.String("session_id", finished.ID),
			zap.Int("duration_minutes", finished.Duration),
			zap.Int("seeds_earned", finished.SeedsEarned))
	} else {
		c.st.Publish(domain.EventSessionCancelled, domain.SessionEventPayload{SessionID: finished.ID})
		c.log.Info("session cancelled", zap.String("session_id", finished.ID))
	}
	return finished, nil
}

// ─── Timer ──────────────────────────────────────────────────────────────────

// Tick checks the active session against its target and auto-completes it
// once the target is reached. Safe to call at any time; a tick that races a
// manual transition is a no-op because the status check happens under the
// controller lock.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.st.Focus().CurrentSession()
	if !ok || cur.Status != domain.SessionActive {
		return
	}
	if cur.Remaining(c.clock.Now()) <= 0 {
		if _, err := c.finish(domain.SessionCompleted); err != nil {
			c.log.Error("auto-complete failed", zap.String("session_id", cur.ID), zap.Error(err))
		}
	}
}

// startTicker runs the countdown. Controller lock held.
func (c *Controller) startTicker() {
	if c.ticker != nil || c.interval <= 0 {
		return
	}
	c.ticker = time.NewTicker(c.interval)
	c.done = make(chan struct{})
	go func(t *time.Ticker, done chan struct{}) {
		for {
			select {
			case <-t.C:
				c.Tick()
			case <-done:
				return
			}
		}
	}(c.ticker, c.done)
}

// stopTicker tears the countdown down. Controller lock held. Idempotent.
func (c *Controller) stopTicker() {
	if c.ticker == nil {
		return
	}
	c.ticker.Stop()
	close(c.done)
	c.ticker = nil
	c.done = nil
}

// ─── Lifecycle ──────────────────────────────────────────────────────────────

// Adopt re-attaches the controller to a session restored by hydration. An
// active restored session gets its ticker back; anything else is left alone.
func (c *Controller) Adopt() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.st.Focus().CurrentSession(); ok && cur.Status == domain.SessionActive {
		c.startTicker()
		c.log.Info("adopted restored session", zap.String("session_id", cur.ID))
	}
}

// Current returns the singleton active-or-paused session, if any.
func (c *Controller) Current() (domain.FocusSession, bool) {
	return c.st.Focus().CurrentSession()
}

// Progress reports the current session's focused and remaining countdown
// time. A paused session's open interval is excluded from elapsed, so both
// values stand still for the whole pause. ok is false when no session is
// current.
func (c *Controller) Progress() (elapsed, remaining time.Duration, ok bool) {
	cur, ok := c.st.Focus().CurrentSession()
	if !ok {
		return 0, 0, false
	}
	now := c.clock.Now()
	return cur.Elapsed(now), cur.Remaining(now), true
}

// Close stops the ticker without touching session state.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTicker()
}
