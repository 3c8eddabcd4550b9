// file: internals/helpers/eventbus/eventbus.go
package eventbus

import (
	"log"
	"sync"
)

// Bus: pub/sub in-process sederhana. Dipakai buat sinyal lintas fitur
// (mis. "timetable.imported") tanpa coupling import langsung.
type Event struct {
	Name    string
	Payload any
}

type Handler func(Event)

type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func New() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish menjalankan handler sinkron, urut daftar. Handler panic tidak
// boleh menjatuhkan publisher.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	hs := make([]Handler, len(b.handlers[e.Name]))
	copy(hs, b.handlers[e.Name])
	b.mu.RUnlock()

	for _, h := range hs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("⚠️ [EVENTBUS] handler %s panic: %v", e.Name, r)
				}
			}()
			h(e)
		}()
	}
}
