package chat

import (
	"sync"

	"github.com/kaltos/aochat/internal/protocol"
)

// Priority orders outbound packets within the flood-control queue. At equal
// bucket availability a higher priority packet is always served first.
type Priority int

const (
	PriorityHigh Priority = iota
	PriorityMedium
	PriorityLow

	numPriorities
)

// OutboundQueue is the leaky-bucket rate limiter gating how fast packets may
// be written to the server. Producers may push from any goroutine; draining
// is done only by the owning session's tick.
type OutboundQueue struct {
	mu        sync.Mutex
	tiers     [numPriorities][]*protocol.Packet
	level     int
	capacity  int
	refill    int
	unlimited bool
}

// NewOutboundQueue builds a queue whose bucket holds capacity tokens and
// gains refill tokens per tick. The bucket starts full.
func NewOutboundQueue(capacity, refill int) *OutboundQueue {
	return &OutboundQueue{level: capacity, capacity: capacity, refill: refill}
}

// Push enqueues a packet at the given priority.
func (q *OutboundQueue) Push(p Priority, pkt *protocol.Packet) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tiers[p] = append(q.tiers[p], pkt)
}

// DrainOne returns the next packet to send, spending one bucket token, or
// nil when the queue is empty or the bucket has no capacity left this tick.
func (q *OutboundQueue) DrainOne() *protocol.Packet {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.unlimited && q.level <= 0 {
		return nil
	}
	for p := range q.tiers {
		if len(q.tiers[p]) == 0 {
			continue
		}
		pkt := q.tiers[p][0]
		q.tiers[p] = q.tiers[p][1:]
		if !q.unlimited {
			q.level--
		}
		return pkt
	}
	return nil
}

// Refill adds the per-tick increment to the bucket, up to its capacity.
func (q *OutboundQueue) Refill() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.level += q.refill
	if q.level > q.capacity {
		q.level = q.capacity
	}
}

// SetUnlimited disables (or re-enables) rate limiting. Used when the
// transport reports it is not externally rate limited.
func (q *OutboundQueue) SetUnlimited(unlimited bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.unlimited = unlimited
}

// Len reports the number of queued packets across all priorities.
func (q *OutboundQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for p := range q.tiers {
		n += len(q.tiers[p])
	}
	return n
}
