// Package state provides thread-safe state management for the application.
package state

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/position"
	"github.com/litescript/ls-orrery/internal/trajectory"
)

// EventType represents the type of state change event.
type EventType string

const (
	EventSelect          EventType = "SELECT"
	EventEpoch           EventType = "EPOCH"
	EventCatalogReloaded EventType = "CATALOG_RELOADED"
	EventCatalogRejected EventType = "CATALOG_REJECTED"
)

// Event represents a change to the viewing state.
type Event struct {
	Type      EventType     `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	Body      bodies.BodyID `json:"body,omitempty"`
	Epoch     time.Time     `json:"epoch,omitzero"`
	Detail    string        `json:"detail,omitempty"`
}

// BodyPosition pairs a body with its display position.
type BodyPosition struct {
	Body     bodies.CelestialBody
	Position astro.Vec3
}

// Manager handles all shared application state with thread-safe access.
// The registry is replaced wholesale, never edited in place.
type Manager struct {
	registry atomic.Pointer[bodies.SolarSystem]
	sampler  *trajectory.Sampler
	logger   *logging.Logger

	mu        sync.RWMutex
	selected  bodies.BodyID
	epoch     time.Time
	lastError error

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int

	steps int
	span  time.Duration
}

// Config holds configuration for the state manager.
type Config struct {
	Selected  bodies.BodyID
	Epoch     time.Time
	Steps     int
	Span      time.Duration // 0 means one orbital period per body
	MaxEvents int
}

// DefaultEpoch is the reference civil time used when none is supplied.
var DefaultEpoch = time.Date(2024, 7, 4, 12, 0, 0, 0, time.UTC)

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Selected:  bodies.Earth,
		Epoch:     DefaultEpoch,
		Steps:     1000,
		MaxEvents: 50,
	}
}

// NewManager creates a new state manager over reg. The selected body must
// exist in reg.
func NewManager(reg *bodies.SolarSystem, sampler *trajectory.Sampler, cfg Config, logger *logging.Logger) (*Manager, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	if cfg.Epoch.IsZero() {
		cfg.Epoch = DefaultEpoch
	}
	if cfg.Selected == bodies.NoBody {
		cfg.Selected = bodies.Earth
	}
	if _, err := reg.Get(cfg.Selected); err != nil {
		return nil, err
	}
	if cfg.Steps <= 0 {
		return nil, &trajectory.InvalidSampleCountError{Steps: cfg.Steps, Span: cfg.Span}
	}

	m := &Manager{
		sampler:   sampler,
		logger:    logger.With("component", "state"),
		selected:  cfg.Selected,
		epoch:     cfg.Epoch.UTC(),
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
		steps:     cfg.Steps,
		span:      cfg.Span,
	}
	m.registry.Store(reg)
	return m, nil
}

// Registry returns the current registry.
func (m *Manager) Registry() *bodies.SolarSystem {
	return m.registry.Load()
}

// Steps returns the configured samples per trajectory.
func (m *Manager) Steps() int {
	return m.steps
}

// Sampler returns the trajectory sampler.
func (m *Manager) Sampler() *trajectory.Sampler {
	return m.sampler
}

// Select changes the selected body.
func (m *Manager) Select(id bodies.BodyID) error {
	if _, err := m.Registry().Get(id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selected == id {
		return nil
	}
	m.selected = id
	m.addEvent(Event{Type: EventSelect, Timestamp: time.Now(), Body: id})
	return nil
}

// SetEpoch sets the current epoch.
func (m *Manager) SetEpoch(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch = t.UTC()
	m.addEvent(Event{Type: EventEpoch, Timestamp: time.Now(), Epoch: m.epoch})
}

// Advance moves the epoch by d (negative moves backwards) and returns it.
func (m *Manager) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch = m.epoch.Add(d)
	m.addEvent(Event{Type: EventEpoch, Timestamp: time.Now(), Epoch: m.epoch})
	return m.epoch
}

// ReplaceCatalog swaps in a new registry. If the selected body is missing
// from it, the first body becomes selected.
func (m *Manager) ReplaceCatalog(reg *bodies.SolarSystem) error {
	all := reg.Bodies()
	if len(all) == 0 {
		return fmt.Errorf("replacement catalog is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry.Store(reg)
	if !reg.Has(m.selected) {
		m.logger.Warn("selected body %s not in new catalog, selecting %s", m.selected, all[0].ID)
		m.selected = all[0].ID
	}
	m.addEvent(Event{
		Type:      EventCatalogReloaded,
		Timestamp: time.Now(),
		Detail:    fmt.Sprintf("%d bodies", reg.Len()),
	})
	return nil
}

// addEvent adds an event to the ring buffer. Callers hold mu.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Selected  bodies.CelestialBody
	Epoch     time.Time
	Bodies    []bodies.CelestialBody
	LastError error
	Events    []Event
}

// Snapshot returns a consistent snapshot of current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reg := m.Registry()
	sel, _ := reg.Get(m.selected)
	return Snapshot{
		Selected:  sel,
		Epoch:     m.epoch,
		Bodies:    reg.Bodies(),
		LastError: m.lastError,
		Events:    m.getEventsOrdered(),
	}
}

// view captures the inputs of a query under the lock.
func (m *Manager) view() (*bodies.SolarSystem, bodies.CelestialBody, time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	reg := m.Registry()
	sel, err := reg.Get(m.selected)
	return reg, sel, m.epoch, err
}

func (m *Manager) recordError(err error) {
	m.mu.Lock()
	m.lastError = err
	m.mu.Unlock()
}

// VisiblePositions returns the visible set of the selected body, in
// visibility order, as display-scaled positions in the selected body's
// ecliptic frame.
func (m *Manager) VisiblePositions() ([]BodyPosition, error) {
	reg, sel, epoch, err := m.view()
	if err != nil {
		return nil, err
	}
	out, err := PositionsFor(reg, m.sampler.Resolver(), sel.ID, epoch)
	m.recordError(err)
	return out, err
}

// VisibleTrajectories samples every visible body around the selected one
// and returns the trajectories in visibility order, rotated into the
// selected body's ecliptic frame.
func (m *Manager) VisibleTrajectories(ctx context.Context) ([]trajectory.Trajectory, error) {
	reg, sel, epoch, err := m.view()
	if err != nil {
		return nil, err
	}
	var end time.Time
	if m.span > 0 {
		end = epoch.Add(m.span)
	}
	out, err := TrajectoriesFor(ctx, reg, m.sampler, sel.ID, epoch, end, m.steps)
	m.recordError(err)
	return out, err
}

// PositionsFor computes the visible positions of selected at epoch without
// touching any Manager state.
func PositionsFor(reg *bodies.SolarSystem, res *position.Resolver, selected bodies.BodyID, epoch time.Time) ([]BodyPosition, error) {
	sel, err := reg.Get(selected)
	if err != nil {
		return nil, err
	}
	visible, err := reg.VisibleBodies(selected)
	if err != nil {
		return nil, err
	}

	out := make([]BodyPosition, 0, len(visible))
	for _, b := range visible {
		p, err := res.PositionOf(b.ID, selected, epoch)
		if err != nil {
			return nil, fmt.Errorf("position of %s: %w", b.ID, err)
		}
		out = append(out, BodyPosition{Body: b, Position: astro.ToEcliptic(p, sel)})
	}
	return out, nil
}

// TrajectoriesFor samples the visible set of selected from start. A zero
// end means one orbital period per body.
func TrajectoriesFor(ctx context.Context, reg *bodies.SolarSystem, sampler *trajectory.Sampler, selected bodies.BodyID, start, end time.Time, steps int) ([]trajectory.Trajectory, error) {
	sel, err := reg.Get(selected)
	if err != nil {
		return nil, err
	}
	visible, err := reg.VisibleBodies(selected)
	if err != nil {
		return nil, err
	}

	ids := make([]bodies.BodyID, len(visible))
	for i, b := range visible {
		ids[i] = b.ID
	}
	trs, err := sampler.SampleAll(ctx, reg, ids, selected, start, end, steps)
	if err != nil {
		return nil, err
	}
	for i := range trs {
		for j, p := range trs[i].Points {
			trs[i].Points[j] = astro.ToEcliptic(p, sel)
		}
	}
	return trs, nil
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	// If buffer isn't full yet, just copy
	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}
