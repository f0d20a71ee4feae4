package game

import (
	"sync"
	"time"

	"xiangqi/internal/xiangqi"
)

// Session 一局对局。Controller 不是并发安全的，所有访问都要经过 Do。
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	controller *xiangqi.Controller
	updatedAt  time.Time
	now        func() time.Time
}

// Do 持锁执行 fn；fn 返回 nil 时刷新 UpdatedAt
func (s *Session) Do(fn func(c *xiangqi.Controller) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.controller); err != nil {
		return err
	}
	s.updatedAt = s.now()
	return nil
}

func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}
