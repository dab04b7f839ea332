package types

// EventType identifies a graph update event.
type EventType string

const (
	// EventKittyAdded fires when a kitty is inserted or merged.
	EventKittyAdded EventType = "kitty_added"
	// EventDataLoaded fires after a load/expand completes.
	EventDataLoaded EventType = "data_loaded"
	// EventFilterChanged fires when the session filter state is replaced.
	EventFilterChanged EventType = "filter_changed"
	// EventReset fires when the session is cleared.
	EventReset EventType = "reset"
)

// Event is a graph update notification delivered to session subscribers.
// It replaces the ad hoc UI callbacks the viewers used to mutate directly,
// so the engine can be driven headlessly.
type Event struct {
	Type    EventType `json:"type"`
	KittyID int64     `json:"kitty_id,omitempty"`
	// New is true when a kitty_added event inserted a record rather than
	// merging into an existing one.
	New   bool `json:"new,omitempty"`
	Count int  `json:"count,omitempty"`
}
