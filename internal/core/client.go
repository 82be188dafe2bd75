package core

import "sync"

// DefaultSendBuffer is the outbound queue size used when none is configured.
const DefaultSendBuffer = 256

// Client is a connection as seen by the core layer. Events is drained by the
// transport's write loop; the core only ever enqueues without blocking.
type Client struct {
	ID     string
	Events chan *Event

	evicted  chan struct{}
	evictOne sync.Once
}

// NewClient constructs a client with a bounded outbound queue.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Client{
		ID:      id,
		Events:  make(chan *Event, buffer),
		evicted: make(chan struct{}),
	}
}

// Send enqueues an event. It never blocks: when the queue is full the client is
// evicted and false is returned.
func (c *Client) Send(ev *Event) bool {
	select {
	case <-c.evicted:
		return false
	default:
	}

	select {
	case c.Events <- ev:
		return true
	default:
		c.evict()
		return false
	}
}

// Evicted is closed once the client fell too far behind. The transport must
// then close the connection so the peer can rejoin and resync.
func (c *Client) Evicted() <-chan struct{} {
	return c.evicted
}

func (c *Client) evict() {
	c.evictOne.Do(func() { close(c.evicted) })
}
