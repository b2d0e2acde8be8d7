package service

import "sync"

// studentLocks serializes ledger mutations per student. Append, void, delete
// and recompute for one student must not interleave or the running-balance
// chain is subject to lost updates; different students stay independent.
type studentLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newStudentLocks() *studentLocks {
	return &studentLocks{locks: make(map[int64]*sync.Mutex)}
}

func (l *studentLocks) get(studentID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[studentID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[studentID] = m
	}
	return m
}
