// api/session/controller.go
package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"smartflow/api/flowgraph"
	"smartflow/api/models"
	"smartflow/api/sequence"
	"smartflow/api/store"
	"smartflow/api/timeseries"
	"smartflow/api/utils"
)

// defaultStartDate is the lower bound of the master window fetched on a flow
// change. The upper bound is the current day.
var defaultStartDate = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// Params is the parameter tuple forwarded by the display layer on every
// change. Range values are 0-100 percentages mapped onto the master
// dataset's timeline.
type Params struct {
	FlowName        string
	RangeStartPct   int
	RangeEndPct     int
	Threshold       int
	Highlight       string
	IncludeTollFree bool

	// Explicit dates override the percentage mapping when set.
	StartDate *time.Time
	EndDate   *time.Time
}

// Artifacts is everything the display layer renders after one cycle.
type Artifacts struct {
	FlowGraph        models.Figure `json:"sankey"`
	TopPaths         models.Figure `json:"topPaths"`
	CallbackAnalysis models.Figure `json:"callbackAnalysis"`
	TotalsOverTime   models.Figure `json:"totalsOverTime"`
	FlowName         string        `json:"flowName"`
}

// Controller owns one mutable analysis session: the selected flow, its
// master dataset, and the derived path sequence and graph. Apply decides per
// incoming parameter tuple whether a change needs a refetch, a re-derive, or
// only a cheap re-render. A mutex serializes cycles; each change completes
// before the next is processed.
type Controller struct {
	mu     sync.Mutex
	events store.EventSource

	flowName        string
	startDate       time.Time
	endDate         time.Time
	threshold       int
	includeTollFree bool
	highlight       string

	master       []models.FlowEvent // nil until the first fetch
	fetchedStart time.Time
	fetchedEnd   time.Time
	derived      *sequence.PathSequence
	graph        *flowgraph.Graph
}

func NewController(events store.EventSource, defaultFlow string) *Controller {
	return &Controller{
		events:          events,
		flowName:        defaultFlow,
		includeTollFree: true,
	}
}

// Apply runs one parameter-change cycle and returns the five display
// artifacts. Validation failures and fetch failures leave the session
// exactly as it was.
func (c *Controller) Apply(ctx context.Context, p Params) (*Artifacts, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := validateParams(p); err != nil {
		return nil, err
	}

	// The fetch result stays in locals until the whole cycle validates, so
	// the last good session survives a failed fetch or a bad window on a new
	// flow.
	master, fetchedStart, fetchedEnd := c.master, c.fetchedStart, c.fetchedEnd
	flowChanged := p.FlowName != c.flowName
	fetched := false
	if flowChanged || master == nil {
		start, end := defaultStartDate, time.Now().UTC()
		m, err := c.events.FetchMaster(ctx, p.FlowName, start, end)
		if err != nil {
			return nil, err
		}
		master, fetchedStart, fetchedEnd = m, start, end
		fetched = true
	}

	startDate, endDate, err := resolveWindow(master, p)
	if err != nil {
		return nil, err
	}
	if startDate.Before(fetchedStart) || endDate.After(fetchedEnd) {
		log.Printf("Requested window %s..%s exceeds fetched span %s..%s; serving from fetched data without refetch",
			utils.FormatDate(startDate), utils.FormatDate(endDate),
			utils.FormatDate(fetchedStart), utils.FormatDate(fetchedEnd))
	}

	var sankey models.Figure
	switch {
	case !fetched && c.graph != nil &&
		startDate.Equal(c.startDate) && endDate.Equal(c.endDate) &&
		p.IncludeTollFree == c.includeTollFree:
		// Only threshold or highlight moved: re-render the cached graph.
		sankey = flowgraph.Highlight(c.graph, p.Highlight, p.Threshold, "")

	default:
		if p.IncludeTollFree != c.includeTollFree {
			log.Printf("include_tollfree changed from %t to %t", c.includeTollFree, p.IncludeTollFree)
		}
		derived, err := sequence.Derive(master, startDate, endDate, p.IncludeTollFree)
		if err != nil {
			return nil, err
		}
		if fetched {
			if flowChanged {
				log.Printf("New flow %q, discarding session for %q", p.FlowName, c.flowName)
			}
			c.flowName = p.FlowName
			c.master = master
			c.fetchedStart, c.fetchedEnd = fetchedStart, fetchedEnd
		}
		c.startDate, c.endDate = startDate, endDate
		c.includeTollFree = p.IncludeTollFree
		c.derived = derived
		c.graph = flowgraph.Build(derived, c.flowName)
		sankey = flowgraph.Render(c.graph, p.Threshold, "")
	}

	c.threshold = p.Threshold
	c.highlight = p.Highlight

	// The time-series panels are cheap next to a fetch and are recomputed on
	// every cycle.
	return &Artifacts{
		FlowGraph:        sankey,
		TopPaths:         timeseries.TopPaths(c.derived, timeseries.TopPathCount),
		CallbackAnalysis: timeseries.CallbackAnalysis(c.derived),
		TotalsOverTime:   timeseries.Totals(c.master, c.flowName, c.startDate, c.endDate),
		FlowName:         c.flowName,
	}, nil
}

// resolveWindow maps the requested range onto concrete dates: explicit dates
// win, otherwise percentages are interpolated over the master's timeline.
func resolveWindow(master []models.FlowEvent, p Params) (time.Time, time.Time, error) {
	var startDate, endDate time.Time
	var err error

	if p.StartDate != nil {
		startDate = utils.Midnight(*p.StartDate)
	} else if startDate, err = sequence.PercentileDate(master, p.RangeStartPct); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if p.EndDate != nil {
		endDate = utils.Midnight(*p.EndDate)
	} else if endDate, err = sequence.PercentileDate(master, p.RangeEndPct); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if startDate.After(endDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s > %s", models.ErrInvalidDateRange,
			utils.FormatDate(startDate), utils.FormatDate(endDate))
	}
	return startDate, endDate, nil
}

// validateParams rejects malformed ranges before any fetch is issued.
func validateParams(p Params) error {
	if err := validatePct(p.RangeStartPct); err != nil {
		return err
	}
	if err := validatePct(p.RangeEndPct); err != nil {
		return err
	}
	if p.StartDate != nil && p.EndDate != nil && p.StartDate.After(*p.EndDate) {
		return fmt.Errorf("%w: %s > %s", models.ErrInvalidDateRange,
			utils.FormatDate(*p.StartDate), utils.FormatDate(*p.EndDate))
	}
	if p.StartDate == nil && p.EndDate == nil && p.RangeStartPct > p.RangeEndPct {
		return fmt.Errorf("%w: range %d%% > %d%%", models.ErrInvalidDateRange,
			p.RangeStartPct, p.RangeEndPct)
	}
	return nil
}

func validatePct(pct int) error {
	if pct < 0 || pct > 100 {
		return fmt.Errorf("%w: got %d", models.ErrInvalidPercentage, pct)
	}
	return nil
}
