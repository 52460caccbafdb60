package events

type EventType string

const (
	EventTypeSelectionStarted EventType = "selection_started"
	EventTypeSelectionReady   EventType = "selection_ready"
	EventTypeCacheHit         EventType = "cache_hit"
	EventTypeBookmarkToggled  EventType = "bookmark_toggled"
)

type Event interface {
	GetType() EventType
}

type SelectionStartedEvent struct {
	SessionID string  `json:"session_id"`
	Token     uint64  `json:"token"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

func (e SelectionStartedEvent) GetType() EventType {
	return EventTypeSelectionStarted
}

type SelectionReadyEvent struct {
	SessionID string `json:"session_id"`
	Token     uint64 `json:"token"`
	Label     string `json:"label"`
}

func (e SelectionReadyEvent) GetType() EventType {
	return EventTypeSelectionReady
}

type CacheHitEvent struct {
	SessionID string `json:"session_id"`
	PlaceID   string `json:"place_id"`
}

func (e CacheHitEvent) GetType() EventType {
	return EventTypeCacheHit
}

type BookmarkToggledEvent struct {
	PlaceID    string `json:"place_id"`
	Title      string `json:"title"`
	Bookmarked bool   `json:"bookmarked"`
}

func (e BookmarkToggledEvent) GetType() EventType {
	return EventTypeBookmarkToggled
}

type EventBus struct {
	eventQueue chan Event
}

func NewEventBus() *EventBus {
	return &EventBus{
		eventQueue: make(chan Event, 100),
	}
}

func (eb *EventBus) GetChannel() chan Event {
	return eb.eventQueue
}

// Publish enqueues an event without blocking. When nothing is draining the
// bus (NATS disabled) events are dropped once the queue fills.
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	select {
	case eb.eventQueue <- event:
	default:
	}
}
