package events

import "encoding/json"

// Event names.
const (
	// SessionLoaded carries the session state after a dataset was opened or
	// another image was loaded.
	SessionLoaded = "session.loaded"
	// SessionChanged carries the session state after an edit.
	SessionChanged = "session.changed"
	// StatusChanged carries a StatusChangedEvent.
	StatusChanged = "status.changed"
)

// Event is one server-sent event.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// StatusChangedEvent is the payload of StatusChanged.
type StatusChangedEvent struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// DecodeAs decodes the payload of e into T. An empty payload yields the
// zero value.
//
//	payload, err := events.DecodeAs[events.StatusChangedEvent](ev)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
