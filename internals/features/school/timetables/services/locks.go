// file: internals/features/school/timetables/services/locks.go
package services

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// instanceLocks menserialisasi pekerjaan tulis per timetable instance.
// Import & proyeksi untuk instance yang sama antre; instance berbeda jalan paralel.
type instanceLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newInstanceLocks() *instanceLocks {
	return &instanceLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *instanceLocks) get(id uuid.UUID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// AcquireAll mengunci banyak instance sekaligus dengan urutan id yang
// stabil supaya dua run yang irisan instance-nya beda urutan tidak deadlock.
// Return fungsi pelepas dengan urutan kebalikan.
func (l *instanceLocks) AcquireAll(ids []uuid.UUID) func() {
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	held := make([]*sync.Mutex, 0, len(sorted))
	seen := make(map[uuid.UUID]bool, len(sorted))
	for _, id := range sorted {
		if seen[id] {
			continue
		}
		seen[id] = true
		m := l.get(id)
		m.Lock()
		held = append(held, m)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
