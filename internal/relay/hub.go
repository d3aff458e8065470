package relay

import (
	"sync"
)

// Topic is the hub topic prediction events are published under.
const Topic = "prediction"

// DefaultBuffer is the per-subscriber channel capacity. Messages beyond it
// wait in the subscriber's queue.
const DefaultBuffer = 64

// Message is one relayed worker event.
type Message struct {
	Topic     string `json:"-"`
	RequestID string `json:"request_id"`
	Tag       string `json:"tag"`
	Payload   string `json:"payload"`
}

// subscriber owns an unbounded FIFO drained into out by its own goroutine,
// so a slow reader delays only itself and never loses a message.
type subscriber struct {
	out  chan Message
	wake chan struct{}
	done chan struct{}

	mu    sync.Mutex
	queue []Message
}

func newSubscriber(buffer int) *subscriber {
	s := &subscriber{
		out:  make(chan Message, buffer),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go s.pump()
	return s
}

func (s *subscriber) push(m Message) {
	s.mu.Lock()
	s.queue = append(s.queue, m)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) next() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return Message{}, false
	}
	m := s.queue[0]
	s.queue[0] = Message{}
	s.queue = s.queue[1:]
	return m, true
}

// pump delivers queued messages in order. After done is closed it flushes
// what is left and closes out.
func (s *subscriber) pump() {
	defer close(s.out)
	for {
		if m, ok := s.next(); ok {
			s.out <- m
			continue
		}
		select {
		case <-s.wake:
		case <-s.done:
			for {
				m, ok := s.next()
				if !ok {
					return
				}
				s.out <- m
			}
		}
	}
}

// Hub fans published messages out to topic subscribers. Publish never
// blocks on a reader and no message is dropped.
type Hub struct {
	buffer int
	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
}

// NewHub creates a hub whose subscriber channels hold buffer messages.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{buffer: buffer, subs: make(map[string]map[*subscriber]struct{})}
}

// Subscribe registers for topic. The returned cancel func unregisters; the
// channel then yields every message published before cancel and is closed.
// Callers must drain the channel after cancel. cancel is safe to call more
// than once.
func (h *Hub) Subscribe(topic string) (<-chan Message, func()) {
	s := newSubscriber(h.buffer)
	h.mu.Lock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[*subscriber]struct{})
	}
	h.subs[topic][s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[topic], s)
			if len(h.subs[topic]) == 0 {
				delete(h.subs, topic)
			}
			h.mu.Unlock()
			close(s.done)
		})
	}
	return s.out, cancel
}

// Publish queues m for every subscriber of topic and returns how many
// subscribers it was queued for.
func (h *Hub) Publish(topic string, m Message) int {
	m.Topic = topic
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[topic] {
		s.push(m)
	}
	return len(h.subs[topic])
}

// Subscribers returns the number of live subscriptions to topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}

// Discard drains ch in the background. Readers that stop early hand their
// channel to Discard so the subscriber goroutine can finish.
func Discard(ch <-chan Message) {
	go func() {
		for range ch {
		}
	}()
}
