package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/grove-app/grove/internal/bus"
	"github.com/grove-app/grove/internal/domain"
	"github.com/grove-app/grove/internal/metrics"
	"github.com/grove-app/grove/internal/store"
)

// ─── Keys / Sections ────────────────────────────────────────────────────────

const (
	keyPrefix = "grove:"
	metaKey   = keyPrefix + "meta"

	// defaultFlushDelay is the write-coalescing window: mutations landing
	// within it are persisted by a single flush.
	defaultFlushDelay = 100 * time.Millisecond
)

// sections in flush order. Each maps to its own KV key.
var sections = []string{"focus", "tasks", "rewards", "social", "settings"}

func sectionKey(name string) string { return keyPrefix + name }

func backupKey(name string, version int) string {
	return fmt.Sprintf("%sbackup:v%d:%s", keyPrefix, version, name)
}

type meta struct {
	Version int `json:"version"`
}

// ─── Persister ──────────────────────────────────────────────────────────────

// Persister couples the store to a KV backend. It listens on the bus for
// mutation events, marks the affected sections dirty, and flushes them after
// a short coalescing window. Hydrate restores the store at startup, running
// migrations and the structural validator on the way in.
type Persister struct {
	kv  KV
	st  *store.Store
	log *zap.Logger

	flushDelay time.Duration
	hydrated   atomic.Bool

	mu     sync.Mutex
	dirty  map[string]bool
	timer  *time.Timer
	closed bool
}

// Option configures a Persister.
type Option func(*Persister)

// WithFlushDelay overrides the write-coalescing window.
func WithFlushDelay(d time.Duration) Option {
	return func(p *Persister) { p.flushDelay = d }
}

// New builds a persister over the given backend and store.
func New(kv KV, st *store.Store, log *zap.Logger, opts ...Option) *Persister {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Persister{
		kv:         kv,
		st:         st,
		log:        log,
		flushDelay: defaultFlushDelay,
		dirty:      make(map[string]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Hydrated reports whether hydration has finished. Until then the store
// holds only defaults and nothing is flushed.
func (p *Persister) Hydrated() bool { return p.hydrated.Load() }

// ─── Dirty Tracking ─────────────────────────────────────────────────────────

// Watch subscribes the persister to mutation events. The handler runs inside
// the emitting store action, so it only records dirtiness and arms the flush
// timer; it must never call back into the store.
func (p *Persister) Watch(b *bus.Bus) {
	b.On("*", func(e bus.Event) {
		p.markDirty(sectionsFor(e.Type)...)
	})
}

// sectionsFor maps an event type to the sections it invalidates.
func sectionsFor(eventType string) []string {
	domainPrefix := eventType
	if i := strings.IndexByte(eventType, '.'); i > 0 {
		domainPrefix = eventType[:i]
	}
	switch domainPrefix {
	case "session":
		if eventType == domain.EventSessionCompleted {
			// Completion fans out through reactions that touch every
			// data section.
			return []string{"focus", "tasks", "rewards", "social"}
		}
		return []string{"focus"}
	case "category", "tag":
		return []string{"focus"}
	case "task":
		return []string{"tasks"}
	case "reward", "app":
		return []string{"rewards"}
	case "squad", "challenge":
		return []string{"social"}
	case "settings":
		return []string{"settings"}
	default:
		return nil
	}
}

func (p *Persister) markDirty(names ...string) {
	if len(names) == 0 || !p.hydrated.Load() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	for _, name := range names {
		p.dirty[name] = true
	}
	if p.timer == nil {
		p.timer = time.AfterFunc(p.flushDelay, func() {
			if err := p.Flush(); err != nil {
				p.log.Error("coalesced flush failed", zap.Error(err))
			}
		})
	}
}

// ─── Flushing ───────────────────────────────────────────────────────────────

// Flush writes all dirty sections now. The batch goes out as one SetMany;
// if that fails every key is retried individually so one bad section cannot
// hold the rest hostage.
func (p *Persister) Flush() error {
	p.mu.Lock()
	names := make([]string, 0, len(p.dirty))
	for name := range p.dirty {
		if sectionIndex(name) >= 0 {
			names = append(names, name)
		}
	}
	p.dirty = make(map[string]bool)
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()

	if len(names) == 0 {
		return nil
	}

	snap := p.st.Snapshot()
	batch := make(map[string][]byte, len(names))
	for _, name := range names {
		payload, err := sectionPayload(snap, name)
		if err != nil {
			p.log.Error("section encode failed", zap.String("section", name), zap.Error(err))
			metrics.PersistFailures.WithLabelValues(name).Inc()
			continue
		}
		batch[sectionKey(name)] = payload
	}
	if len(batch) == 0 {
		return nil
	}

	metrics.PersistFlushes.Inc()
	err := p.kv.SetMany(batch)
	if err == nil {
		return nil
	}
	p.log.Warn("batch write failed, retrying per key", zap.Error(err))

	var failed []string
	for key, payload := range batch {
		if err := p.kv.Set(key, payload); err != nil {
			name := strings.TrimPrefix(key, keyPrefix)
			p.log.Error("section write failed", zap.String("section", name), zap.Error(err))
			metrics.PersistFailures.WithLabelValues(name).Inc()
			failed = append(failed, name)
		}
	}
	if len(failed) > 0 {
		// Unwritten sections go back on the dirty set so the next flush
		// retries them even without a new mutation.
		p.mu.Lock()
		if !p.closed {
			for _, name := range failed {
				p.dirty[name] = true
			}
		}
		p.mu.Unlock()
		return fmt.Errorf("persist sections %v failed", failed)
	}
	return nil
}

// SaveAll flushes every section regardless of dirtiness. Used at shutdown
// and after hydration writes back a migrated snapshot.
func (p *Persister) SaveAll() error {
	p.mu.Lock()
	for _, name := range sections {
		p.dirty[name] = true
	}
	p.mu.Unlock()
	return p.Flush()
}

// Close performs a final flush and releases the backend.
func (p *Persister) Close() error {
	p.mu.Lock()
	p.closed = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()

	flushErr := p.SaveAll()
	if err := p.kv.Close(); err != nil {
		return err
	}
	return flushErr
}

// ─── Hydration ──────────────────────────────────────────────────────────────

// Hydrate restores the store from the KV backend: read, migrate, validate,
// merge, then mark hydration complete. A migration failure preserves the raw
// sections under backup keys and leaves the store on defaults; the engine
// always comes up.
func (p *Persister) Hydrate() error {
	start := time.Now()
	defer func() {
		metrics.HydrationSeconds.Observe(time.Since(start).Seconds())
	}()

	version, raw, err := p.readAll()
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		// Fresh install: nothing stored yet.
		if err := p.writeMeta(CurrentVersion); err != nil {
			return err
		}
		p.hydrated.Store(true)
		p.log.Info("hydration complete", zap.Bool("fresh", true))
		return nil
	}

	doc := make(map[string]any, len(raw))
	for name, payload := range raw {
		var section any
		if err := json.Unmarshal(payload, &section); err != nil {
			p.log.Warn("stored section is not valid JSON, dropping",
				zap.String("section", name), zap.Error(err))
			continue
		}
		doc[name] = section
	}

	migrated, err := Migrate(doc, version)
	if err != nil {
		var merr *domain.MigrationError
		if !errors.As(err, &merr) {
			return err
		}
		p.log.Error("migration failed, preserving raw data and starting from defaults",
			zap.Int("from_version", merr.FromVersion), zap.Error(merr))
		for name, payload := range raw {
			if berr := p.kv.Set(backupKey(name, version), payload); berr != nil {
				p.log.Error("backup write failed", zap.String("section", name), zap.Error(berr))
			}
		}
		if err := p.writeMeta(CurrentVersion); err != nil {
			return err
		}
		p.hydrated.Store(true)
		return nil
	}

	repaired, repairs := Validate(migrated)
	for _, r := range repairs {
		p.log.Warn("snapshot repaired", zap.String("section", r.Section), zap.String("detail", r.Detail))
	}

	snap, err := decodeSnapshot(repaired)
	if err != nil {
		// Validated data that still fails to decode is treated like a
		// failed migration: keep the evidence, run on defaults.
		p.log.Error("snapshot decode failed, preserving raw data and starting from defaults", zap.Error(err))
		for name, payload := range raw {
			if berr := p.kv.Set(backupKey(name, version), payload); berr != nil {
				p.log.Error("backup write failed", zap.String("section", name), zap.Error(berr))
			}
		}
		if err := p.writeMeta(CurrentVersion); err != nil {
			return err
		}
		p.hydrated.Store(true)
		return nil
	}

	p.st.ApplySnapshot(snap)
	if err := p.writeMeta(CurrentVersion); err != nil {
		return err
	}
	p.hydrated.Store(true)

	// Write the migrated, repaired form back so the next boot reads clean
	// current-version data.
	if version != CurrentVersion || len(repairs) > 0 {
		if err := p.SaveAll(); err != nil {
			p.log.Error("post-hydration writeback failed", zap.Error(err))
		}
	}
	p.log.Info("hydration complete",
		zap.Int("stored_version", version),
		zap.Int("repairs", len(repairs)))
	return nil
}

// readAll loads the stored version and every data section's raw bytes.
func (p *Persister) readAll() (int, map[string][]byte, error) {
	raw := make(map[string][]byte)
	for _, name := range sections {
		payload, ok, err := p.kv.Get(sectionKey(name))
		if err != nil {
			return 0, nil, fmt.Errorf("read section %s: %w", name, err)
		}
		if ok {
			raw[name] = payload
		}
	}

	version := 1 // data without a meta record predates versioning
	payload, ok, err := p.kv.Get(metaKey)
	if err != nil {
		return 0, nil, fmt.Errorf("read meta: %w", err)
	}
	if ok {
		var m meta
		if err := json.Unmarshal(payload, &m); err == nil && m.Version > 0 {
			version = m.Version
		}
	}
	return version, raw, nil
}

func (p *Persister) writeMeta(version int) error {
	payload, err := json.Marshal(meta{Version: version})
	if err != nil {
		return err
	}
	return p.kv.Set(metaKey, payload)
}

// ─── Codec ──────────────────────────────────────────────────────────────────

func sectionPayload(snap store.Snapshot, name string) ([]byte, error) {
	switch name {
	case "focus":
		return json.Marshal(snap.Focus)
	case "tasks":
		return json.Marshal(snap.Tasks)
	case "rewards":
		return json.Marshal(snap.Rewards)
	case "social":
		return json.Marshal(snap.Social)
	case "settings":
		return json.Marshal(snap.Settings)
	default:
		return nil, fmt.Errorf("unknown section %q", name)
	}
}

func decodeSnapshot(doc map[string]any) (store.Snapshot, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return store.Snapshot{}, err
	}
	var snap store.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return store.Snapshot{}, err
	}
	return snap, nil
}

func sectionIndex(name string) int {
	for i, s := range sections {
		if s == name {
			return i
		}
	}
	return -1
}
