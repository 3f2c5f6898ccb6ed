package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/itsDNNS/docsight-sub000/internal/service"
)

// @Summary      List events
// @Description  Filter events by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'). If 'to' is date-only, it is treated as end-of-day inclusive.
// @Tags         events
// @Produce      json
// @Param        source          query   string  false  "Source name"
// @Param        from            query   string  false  "Start of range"  example(2026-08-01)
// @Param        to              query   string  false  "End of range. Date-only treated as end of day."  example(2026-08-31)
// @Param        type            query   string  false  "Event type"  Enums(health_change,power_shift,snr_drop,modulation_change,error_spike,channel_change)
// @Param        severity        query   string  false  "Severity"  Enums(info,warning,critical)
// @Param        unacknowledged  query   bool    false  "Only events not yet acknowledged"
// @Param        limit           query   int     false  "Maximum number of events"
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/events [get]
// @Security     BearerAuth
func (h *Handler) listEvents(c *gin.Context) {
	from, to, ok := parseRange(c)
	if !ok {
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	f := service.LogFilter{
		Source:         c.Query("source"),
		Type:           c.Query("type"),
		Severity:       c.Query("severity"),
		From:           from,
		To:             to,
		Unacknowledged: c.Query("unacknowledged") == "true",
		Limit:          limit,
	}
	events, err := h.services.EventLog.List(c.Request.Context(), f)
	if service.IsInvalidFilter(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load events", "events_list_failed", err,
			"from", from, "to", to, "type", f.Type)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

// @Summary      Acknowledge event
// @Tags         events
// @Produce      json
// @Param        id   path      string  true  "Event ID"
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/events/{id}/ack [post]
// @Security     BearerAuth
func (h *Handler) ackEvent(c *gin.Context) {
	id := c.Param("id")
	err := h.services.EventLog.Acknowledge(c.Request.Context(), id)
	if errors.Is(err, service.ErrEventNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to acknowledge event", "event_ack_failed", err, "id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusAcked, "id": id})
}
