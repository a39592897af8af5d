// api/handlers/figure_handlers.go
package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"smartflow/api/models"
	"smartflow/api/sequence"
	"smartflow/api/session"
	"smartflow/api/store"
	"smartflow/api/utils"
)

// sessionCookie carries the analysis session id so each dashboard user keeps
// their own cached master dataset between requests.
const sessionCookie = "sf_session"

type AnalyticsHandlers struct {
	Catalog  *store.CatalogStore
	Sessions *session.Registry
}

func NewAnalyticsHandlers(catalog *store.CatalogStore, sessions *session.Registry) *AnalyticsHandlers {
	return &AnalyticsHandlers{Catalog: catalog, Sessions: sessions}
}

// GetFlows returns the selectable flow list for the configured project. The
// dashboard calls it once at startup to populate its flow dropdown.
func (h *AnalyticsHandlers) GetFlows(c *gin.Context) {
	projectID := c.Query("projectId")
	if projectID == "" {
		projectID = os.Getenv("SMARTFLOW_PROJECT_ID")
	}
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "projectId query parameter is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	flows, err := h.Catalog.ListFlows(ctx, projectID)
	if err != nil {
		log.Printf("Error listing flows for project %s: %v", projectID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve flow catalog"})
		return
	}

	c.JSON(http.StatusOK, flows)
}

// GetFigures runs one parameter-change cycle for the caller's analysis
// session and returns the five display artifacts: flow graph, top paths,
// callback analysis, totals over time, and the active flow name.
func (h *AnalyticsHandlers) GetFigures(c *gin.Context) {
	flowName := c.Query("flow")
	if flowName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "flow query parameter is required"})
		return
	}

	params := session.Params{
		FlowName:        flowName,
		RangeStartPct:   0,
		RangeEndPct:     100,
		Threshold:       10,
		Highlight:       sequence.Nickname(1),
		IncludeTollFree: true,
	}

	var err error
	if v := c.Query("threshold"); v != "" {
		params.Threshold, err = strconv.Atoi(v)
		if err != nil || params.Threshold < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'threshold' parameter. Must be a non-negative integer."})
			return
		}
	}
	if v := c.Query("rangeStart"); v != "" {
		params.RangeStartPct, err = strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'rangeStart' parameter. Must be an integer between 0 and 100."})
			return
		}
	}
	if v := c.Query("rangeEnd"); v != "" {
		params.RangeEndPct, err = strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'rangeEnd' parameter. Must be an integer between 0 and 100."})
			return
		}
	}
	if v := c.Query("path"); v != "" {
		params.Highlight = v
	}
	if v := c.Query("includeTollfree"); v != "" {
		params.IncludeTollFree, err = strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'includeTollfree' parameter. Must be a boolean."})
			return
		}
	}
	if v := c.Query("start"); v != "" {
		start, err := utils.ParseDate(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'start' date. Use YYYY-MM-DD."})
			return
		}
		params.StartDate = &start
	}
	if v := c.Query("end"); v != "" {
		end, err := utils.ParseDate(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'end' date. Use YYYY-MM-DD."})
			return
		}
		params.EndDate = &end
	}

	ctrl := h.Sessions.Get(h.sessionID(c))

	// The master fetch can be slow; it is the only cancellable long call in
	// the cycle.
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	artifacts, err := ctrl.Apply(ctx, params)
	if err != nil {
		log.Printf("Error applying parameters for flow %s: %v", flowName, err)
		switch {
		case errors.Is(err, models.ErrInvalidPercentage),
			errors.Is(err, models.ErrInvalidDateRange),
			errors.Is(err, models.ErrTypeMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, models.ErrUpstreamFetch):
			// The session keeps its last good dataset; the frontend shows a
			// retry affordance.
			c.JSON(http.StatusBadGateway, gin.H{"error": "Event store fetch failed, previous results are unchanged"})
		case errors.Is(err, models.ErrMissingMasterDataset):
			c.JSON(http.StatusNotFound, gin.H{"error": "No events found for the selected flow"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute figures"})
		}
		return
	}

	c.JSON(http.StatusOK, artifacts)
}

// sessionID reads the analysis session cookie, minting one on first contact.
func (h *AnalyticsHandlers) sessionID(c *gin.Context) string {
	id, err := c.Cookie(sessionCookie)
	if err != nil || id == "" {
		id = h.Sessions.NewSessionID()
		c.SetCookie(sessionCookie, id, int(24*time.Hour/time.Second), "/", "", false, true)
	}
	return id
}
