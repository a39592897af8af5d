// api/store/event_store.go
package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"smartflow/api/database"
	"smartflow/api/models"
	"smartflow/api/utils"
)

// EventSource answers "all raw events for a flow between two dates". The
// session controller treats it as opaque and potentially slow; it is the only
// blocking, cancellable operation in a parameter-change cycle.
type EventSource interface {
	FetchMaster(ctx context.Context, flowName string, start, end time.Time) ([]models.FlowEvent, error)
}

// masterQuery pulls every event of a flow inside a date window, ordered so
// each user's rows arrive in traversal order.
const masterQuery = `
	SELECT user_id, session_id, time_event, step, toll_free,
	       session_duration_ms, previous_duration_ms, days_since_last_call
	FROM flow_events
	WHERE flow_name = ? AND toDate(time_event) >= ? AND toDate(time_event) <= ?
	ORDER BY user_id, time_event
`

// EventStore fetches master datasets from ClickHouse.
type EventStore struct {
	DB *database.ClickHouseClient
}

func NewEventStore(chClient *database.ClickHouseClient) *EventStore {
	return &EventStore{DB: chClient}
}

func (s *EventStore) FetchMaster(ctx context.Context, flowName string, start, end time.Time) ([]models.FlowEvent, error) {
	started := time.Now()

	rows, err := s.DB.Conn.Query(ctx, masterQuery, flowName, utils.FormatDate(start), utils.FormatDate(end))
	if err != nil {
		return nil, fmt.Errorf("%w: query flow events for %q: %v", models.ErrUpstreamFetch, flowName, err)
	}
	defer rows.Close()

	var events []models.FlowEvent
	for rows.Next() {
		var ev models.FlowEvent
		if err := rows.Scan(
			&ev.UserID,
			&ev.SessionID,
			&ev.TimeEvent,
			&ev.Step,
			&ev.TollFree,
			&ev.SessionDurationMs,
			&ev.PreviousDurationMs,
			&ev.DaysSinceLastCall,
		); err != nil {
			return nil, fmt.Errorf("%w: scan flow event row: %v", models.ErrUpstreamFetch, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate flow event rows: %v", models.ErrUpstreamFetch, err)
	}

	log.Printf("Master dataset for %q gathered in %.0f seconds (%d rows)",
		flowName, time.Since(started).Seconds(), len(events))
	return events, nil
}
