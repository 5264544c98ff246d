package repo

import (
	"sync"

	"WorksForMeBot/model"
)

// SessionStore holds each user's pending operation between updates.
type SessionStore interface {
	// Pop removes and returns the pending operation of userID.
	Pop(userID int64) (model.Operation, bool)
	Set(userID int64, op model.Operation)
	Clear(userID int64)
}

// MemorySessions is a process-local SessionStore. The mutex only protects
// the map itself: a Pop followed by a Set in one handler is not atomic, so
// updates for the same user must be delivered one at a time.
type MemorySessions struct {
	mu  sync.Mutex
	ops map[int64]model.Operation
}

var _ SessionStore = (*MemorySessions)(nil)

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{ops: make(map[int64]model.Operation)}
}

func (m *MemorySessions) Pop(userID int64) (model.Operation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.ops[userID]
	if ok {
		delete(m.ops, userID)
	}
	return op, ok
}

func (m *MemorySessions) Set(userID int64, op model.Operation) {
	m.mu.Lock()
	m.ops[userID] = op
	m.mu.Unlock()
}

func (m *MemorySessions) Clear(userID int64) {
	m.mu.Lock()
	delete(m.ops, userID)
	m.mu.Unlock()
}
