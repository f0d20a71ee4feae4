package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"xiangqi/internal/logging"
	"xiangqi/internal/xiangqi"
)

var (
	ErrSessionNotFound = errors.New("game not found")
	ErrTooManySessions = errors.New("too many games")
)

type Manager struct {
	mu    sync.RWMutex
	games map[string]*Session

	maxSessions int
	now         func() time.Time
	log         zerolog.Logger
}

type Option func(*Manager)

// WithMaxSessions 同时存在的对局上限，<=0 表示不限
func WithMaxSessions(n int) Option {
	return func(m *Manager) { m.maxSessions = n }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		games: make(map[string]*Session),
		now:   time.Now,
		log:   logging.Component("sessions"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewGame 开一局标准开局
func (m *Manager) NewGame() (*Session, error) {
	return m.add(xiangqi.NewController())
}

// NewGameFrom 从给定摆法和走子方开局
func (m *Manager) NewGameFrom(b xiangqi.Board, toMove xiangqi.Side) (*Session, error) {
	return m.add(xiangqi.NewControllerFrom(xiangqi.NewBoardTrackFrom(b), toMove))
}

func (m *Manager) add(c *xiangqi.Controller) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxSessions > 0 && len(m.games) >= m.maxSessions {
		return nil, fmt.Errorf("%w: limit %d", ErrTooManySessions, m.maxSessions)
	}
	now := m.now()
	s := &Session{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		controller: c,
		updatedAt:  now,
		now:        m.now,
	}
	m.games[s.ID] = s
	m.log.Debug().Str("game_id", s.ID).Int("games", len(m.games)).Msg("game created")
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[id]; !ok {
		return false
	}
	delete(m.games, id)
	return true
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}

// Prune 删除 idle 时长内没有成功操作的对局，返回删除数量
func (m *Manager) Prune(idle time.Duration) int {
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.games {
		if s.UpdatedAt().Before(cutoff) {
			delete(m.games, id)
			n++
		}
	}
	if n > 0 {
		m.log.Info().Int("pruned", n).Int("games", len(m.games)).Msg("pruned idle games")
	}
	return n
}

// PruneLoop 每隔 every 清理一次，直到 ctx 取消
func (m *Manager) PruneLoop(ctx context.Context, idle, every time.Duration) {
	if idle <= 0 || every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Prune(idle)
		}
	}
}
