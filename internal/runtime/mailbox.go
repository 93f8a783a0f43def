package runtime

import (
	"sync"

	"github.com/lanreath/strata/pkg/domain"
)

// Mailbox is the request channel between delegates and the engine: an
// unbounded FIFO with any number of producers and a single consumer.
// Push never blocks and never fails, which keeps delegate calls free of
// error paths; validation happens when the engine applies the request.
//
// A mutex-guarded slice rather than a Go channel: the queue must accept
// requests produced mid-drain by the consuming goroutine itself, so a
// bounded channel could deadlock and an unbounded one does not exist.
type Mailbox struct {
	mu   sync.Mutex
	reqs []domain.Request
}

// NewMailbox returns an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Push appends a request to the tail.
func (m *Mailbox) Push(req domain.Request) {
	m.mu.Lock()
	m.reqs = append(m.reqs, req)
	m.mu.Unlock()
}

// Pop removes and returns the head request; ok is false when empty.
func (m *Mailbox) Pop() (domain.Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.reqs) == 0 {
		return domain.Request{}, false
	}
	req := m.reqs[0]
	m.reqs = m.reqs[1:]
	return req, true
}

// Len reports the number of queued requests.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reqs)
}
