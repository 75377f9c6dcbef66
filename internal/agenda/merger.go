package agenda

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/weddingday/internal/domain"
	"github.com/MrSnakeDoc/weddingday/internal/logger"
)

// Feed is a live query over an ordered event collection. Every change
// re-delivers the full snapshot. Cancel must not wait for callbacks.
type Feed interface {
	Subscribe(ctx context.Context, path string, onSnapshot func([]domain.Event), onError func(error)) (func(), error)
}

// ErrClosed is returned by operations on a closed Merger.
var ErrClosed = errors.New("agenda merger closed")

// State is what consumers render.
type State struct {
	Agenda domain.Agenda
	Loaded bool
	Err    error
}

// Merger keeps a live agenda built from the official timeline and the
// itinerary of the current user.
type Merger struct {
	feed         Feed
	officialPath string
	personalPath func(userID string) string
	logger       logger.Logger

	mu             sync.Mutex
	ctx            context.Context
	official       []domain.Event
	personal       []domain.Event
	officialLoaded bool
	personalLoaded bool
	userID         string
	generation     uint64 // bumped whenever the personal subscription is replaced
	stopOfficial   func()
	stopPersonal   func()
	state          State
	err            error
	closed         bool
	updates        chan State
}

func NewMerger(feed Feed, officialPath string, personalPath func(string) string, log logger.Logger) *Merger {
	return &Merger{
		feed:         feed,
		officialPath: officialPath,
		personalPath: personalPath,
		logger:       log,
		ctx:          context.Background(),
		updates:      make(chan State, 1),
	}
}

// Start opens the official subscription.
func (m *Merger) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.stopOfficial != nil {
		m.mu.Unlock()
		return nil
	}
	m.ctx = ctx
	m.mu.Unlock()

	stop, err := m.feed.Subscribe(ctx, m.officialPath, m.onOfficial, m.onError)
	if err != nil {
		m.onError(err)
		return fmt.Errorf("subscribe to %s: %w", m.officialPath, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		stop()
		return ErrClosed
	}
	m.stopOfficial = stop
	return nil
}

// SetUser follows an identity change. An empty userID signs out: the
// personal subscription is dropped along with its events.
func (m *Merger) SetUser(userID string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if userID == m.userID {
		m.mu.Unlock()
		return nil
	}

	if m.stopPersonal != nil {
		m.stopPersonal()
		m.stopPersonal = nil
	}
	m.generation++
	gen := m.generation
	m.userID = userID
	m.personal = nil
	m.personalLoaded = false
	m.publishLocked()
	ctx := m.ctx
	m.mu.Unlock()

	if userID == "" {
		return nil
	}

	path := m.personalPath(userID)
	stop, err := m.feed.Subscribe(ctx, path,
		func(events []domain.Event) { m.onPersonal(gen, events) },
		func(err error) { m.onPersonalError(gen, err) },
	)
	if err != nil {
		m.onPersonalError(gen, err)
		return fmt.Errorf("subscribe to %s: %w", path, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.generation {
		stop()
		return nil
	}
	m.stopPersonal = stop
	return nil
}

// State returns the latest merged view.
func (m *Merger) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Updates yields the latest state after every change. Intermediate states
// are dropped when the consumer falls behind. Closed by Close.
func (m *Merger) Updates() <-chan State { return m.updates }

// Close tears down both subscriptions. Later callbacks are ignored.
func (m *Merger) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.stopAllLocked()
	close(m.updates)
}

func (m *Merger) onOfficial(events []domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.err != nil {
		return
	}
	m.official = events
	m.officialLoaded = true
	m.publishLocked()
}

func (m *Merger) onPersonal(gen uint64, events []domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.err != nil || gen != m.generation {
		return
	}
	m.personal = events
	m.personalLoaded = true
	m.publishLocked()
}

func (m *Merger) onPersonalError(gen uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return
	}
	m.failLocked(err)
}

func (m *Merger) onError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLocked(err)
}

// failLocked moves the merger to its terminal error state.
func (m *Merger) failLocked(err error) {
	if m.closed || m.err != nil {
		return
	}
	m.logger.Warn("agenda feed failed", logger.String("user_id", m.userID), logger.Error(err))
	m.err = err
	m.stopAllLocked()
	m.publishLocked()
}

func (m *Merger) stopAllLocked() {
	if m.stopOfficial != nil {
		m.stopOfficial()
		m.stopOfficial = nil
	}
	if m.stopPersonal != nil {
		m.stopPersonal()
		m.stopPersonal = nil
	}
	// Invalidate callbacks of a personal subscription still being opened.
	m.generation++
}

func (m *Merger) publishLocked() {
	if m.closed {
		return
	}
	m.state = State{
		Agenda: domain.BuildAgenda(m.official, m.personal),
		Loaded: m.officialLoaded && (m.userID == "" || m.personalLoaded),
		Err:    m.err,
	}
	select {
	case <-m.updates:
	default:
	}
	m.updates <- m.state
}
