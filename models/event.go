// api/models/event.go
package models

import "time"

// Category values carried in the toll_free column of flow_events.
const (
	CategoryTollFree    = "TollFree"
	CategoryNonTollFree = "NonTollFree"
)

// FlowEvent is a single raw event from the flow_events table: one step of one
// user's traversal through a call flow. Rows are fetched, never mutated.
type FlowEvent struct {
	UserID             string    `json:"userId"`
	SessionID          string    `json:"sessionId"`
	TimeEvent          time.Time `json:"timeEvent"`
	Step               string    `json:"step"`
	TollFree           string    `json:"tollFree"`
	SessionDurationMs  float64   `json:"sessionDurationMs"`
	PreviousDurationMs float64   `json:"previousDurationMs"`
	DaysSinceLastCall  float64   `json:"daysSinceLastCall"`
}

// Date returns the event's calendar day (midnight UTC).
func (e FlowEvent) Date() time.Time {
	y, m, d := e.TimeEvent.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Flow is one selectable entry from the flow catalog.
type Flow struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}
