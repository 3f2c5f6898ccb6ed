package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/itsDNNS/docsight-sub000/internal/service"
)

// @Summary      Latest snapshot
// @Tags         snapshots
// @Produce      json
// @Param        source  query     string  false  "Source name; defaults to the modem collector"
// @Success      200     {object}  models.Snapshot
// @Failure      401     {object}  map[string]string
// @Failure      404     {object}  map[string]string
// @Failure      500     {object}  map[string]string
// @Router       /api/v1/snapshots/latest [get]
// @Security     BearerAuth
func (h *Handler) latestSnapshot(c *gin.Context) {
	snap, err := h.services.Monitoring.LatestSnapshot(c.Request.Context(), c.Query("source"))
	if errors.Is(err, service.ErrNoSnapshot) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load snapshot", "snapshot_latest_failed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Snapshot history
// @Description  Newest first. Date-only 'to' is treated as end of day.
// @Tags         snapshots
// @Produce      json
// @Param        source  query     string  false  "Source name"
// @Param        from    query     string  false  "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"
// @Param        to      query     string  false  "End of range"
// @Param        limit   query     int     false  "Maximum number of snapshots"
// @Success      200     {object}  map[string]interface{}  "count, snapshots"
// @Failure      400     {object}  map[string]string
// @Failure      401     {object}  map[string]string
// @Failure      500     {object}  map[string]string
// @Router       /api/v1/snapshots [get]
// @Security     BearerAuth
func (h *Handler) listSnapshots(c *gin.Context) {
	from, to, ok := parseRange(c)
	if !ok {
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	snaps, err := h.services.Monitoring.Snapshots(c.Request.Context(), service.SnapshotFilter{
		Source: c.Query("source"),
		From:   from,
		To:     to,
		Limit:  limit,
	})
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load snapshots", "snapshot_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":     len(snaps),
		"snapshots": snaps,
	})
}

// @Summary      Speedtest history
// @Tags         speedtests
// @Produce      json
// @Param        source  query     string  false  "Source name"
// @Param        limit   query     int     false  "Maximum number of results"
// @Success      200     {object}  map[string]interface{}  "count, results"
// @Failure      400     {object}  map[string]string
// @Failure      401     {object}  map[string]string
// @Failure      500     {object}  map[string]string
// @Router       /api/v1/speedtests [get]
// @Security     BearerAuth
func (h *Handler) listSpeedtests(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	results, err := h.services.Monitoring.Speedtests(c.Request.Context(), c.Query("source"), limit)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load speedtests", "speedtest_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(results),
		"results": results,
	})
}
