package core

// Dispatcher delivers room events to member connections.
type Dispatcher struct {
	observer Observer
}

// NewDispatcher builds a dispatcher reporting failed deliveries to observer.
func NewDispatcher(observer Observer) *Dispatcher {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Dispatcher{observer: observer}
}

// Deliver sends ev to a single client.
func (d *Dispatcher) Deliver(room string, c *Client, ev *Event) bool {
	if c.Send(ev) {
		return true
	}
	d.observer.DeliveryDropped(room, c.ID)
	return false
}

// Broadcast sends ev to every client except the one whose ID equals except
// (pass "" to include everyone). It returns the number of failed deliveries.
// A full queue never blocks the caller; the lagging client is evicted instead.
func (d *Dispatcher) Broadcast(room string, clients []*Client, ev *Event, except string) int {
	failed := 0
	for _, c := range clients {
		if except != "" && c.ID == except {
			continue
		}
		if !d.Deliver(room, c, ev) {
			failed++
		}
	}
	return failed
}
