package core

// Observer receives notifications about room activity. Implementations must not
// block: some callbacks run while a room lock is held.
type Observer interface {
	RoomOpened(room string)
	RoomReaped(room string)
	MemberJoined(room string, m Member)
	MemberLeft(room, connID string)
	CommandApplied(room string, kind CommandKind)
	DeliveryDropped(room, connID string)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) RoomOpened(string) {}
func (NopObserver) RoomReaped(string) {}
func (NopObserver) MemberJoined(string, Member) {}
func (NopObserver) MemberLeft(string, string) {}
func (NopObserver) CommandApplied(string, CommandKind) {}
func (NopObserver) DeliveryDropped(string, string) {}

// Observers fans notifications out to several observers in order.
type Observers []Observer

func (o Observers) RoomOpened(room string) {
	for _, obs := range o {
		obs.RoomOpened(room)
	}
}

func (o Observers) RoomReaped(room string) {
	for _, obs := range o {
		obs.RoomReaped(room)
	}
}

func (o Observers) MemberJoined(room string, m Member) {
	for _, obs := range o {
		obs.MemberJoined(room, m)
	}
}

func (o Observers) MemberLeft(room, connID string) {
	for _, obs := range o {
		obs.MemberLeft(room, connID)
	}
}

func (o Observers) CommandApplied(room string, kind CommandKind) {
	for _, obs := range o {
		obs.CommandApplied(room, kind)
	}
}

func (o Observers) DeliveryDropped(room, connID string) {
	for _, obs := range o {
		obs.DeliveryDropped(room, connID)
	}
}
