package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/itsDNNS/docsight-sub000/internal/collector"
	"github.com/itsDNNS/docsight-sub000/internal/models"
	"github.com/itsDNNS/docsight-sub000/internal/service"
)

// RefreshResponse is the outcome of a manual collector run.
type RefreshResponse struct {
	Collector string                  `json:"collector"`
	Success   bool                    `json:"success"`
	Kind      collector.ErrorKind     `json:"error_kind,omitempty"`
	Error     string                  `json:"error,omitempty"`
	Snapshot  *models.Snapshot        `json:"snapshot,omitempty"`
	Events    []models.Event          `json:"events,omitempty"`
	Speedtest *models.SpeedtestResult `json:"speedtest,omitempty"`
}

func newRefreshResponse(r collector.Result) RefreshResponse {
	out := RefreshResponse{
		Collector: r.CollectorName,
		Success:   r.Success,
		Kind:      r.Kind,
		Snapshot:  r.Snapshot,
		Events:    r.Events,
		Speedtest: r.Speedtest,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

// @Summary      List collectors
// @Description  Backoff state and next poll time of every registered collector.
// @Tags         collectors
// @Produce      json
// @Success      200  {array}   models.CollectorStatus
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/collectors [get]
// @Security     BearerAuth
func (h *Handler) listCollectors(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Collectors.Status())
}

// @Summary      Refresh a collector
// @Description  Runs the collector immediately. A failed run still answers 200 with success=false.
// @Tags         collectors
// @Produce      json
// @Param        name  path      string  true  "Collector name"  example(modem)
// @Success      200   {object}  RefreshResponse
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/collectors/{name}/refresh [post]
// @Security     BearerAuth
func (h *Handler) refreshCollector(c *gin.Context) {
	name := c.Param("name")
	res, err := h.services.Collectors.Refresh(c.Request.Context(), name)

	var cd *service.CooldownError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, newRefreshResponse(res))
	case errors.As(err, &cd):
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(cd.RetryAfter.Seconds()))))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, collector.ErrUnknownCollector):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, collector.ErrCollectorDisabled), errors.Is(err, collector.ErrCollectorBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, collector.ErrSchedulerStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, "refresh failed", "collector_refresh_failed", err, "collector", name)
	}
}
