package services

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAcquireAll_DuplicateIDsLockedOnce(t *testing.T) {
	l := newInstanceLocks()
	id := uuid.New()

	// kalau id ganda dikunci dua kali, baris ini deadlock
	done := make(chan struct{})
	go func() {
		release := l.AcquireAll([]uuid.UUID{id, id, id})
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("AcquireAll dengan id ganda macet (double lock)")
	}
}

func TestAcquireAll_NoDeadlockOnReversedOrder(t *testing.T) {
	l := newInstanceLocks()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	var wg sync.WaitGroup
	done := make(chan struct{})
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			release := l.AcquireAll([]uuid.UUID{a, b, c})
			time.Sleep(time.Millisecond)
			release()
		}()
		go func() {
			defer wg.Done()
			release := l.AcquireAll([]uuid.UUID{c, b, a})
			time.Sleep(time.Millisecond)
			release()
		}()
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("AcquireAll deadlock pada urutan id berlawanan")
	}
}

func TestAcquireAll_SerializesSameInstance(t *testing.T) {
	l := newInstanceLocks()
	id := uuid.New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := l.AcquireAll([]uuid.UUID{id})
			counter++
			release()
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Fatalf("akses instance yang sama tidak terserialisasi: counter=%d", counter)
	}
}

func TestAcquireAll_EmptyIsNoop(t *testing.T) {
	l := newInstanceLocks()
	release := l.AcquireAll(nil)
	release()
	release2 := l.AcquireAll([]uuid.UUID{})
	release2()
}
