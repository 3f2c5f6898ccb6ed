package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// @Summary      Active thresholds
// @Tags         thresholds
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "loaded_at, rules"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/thresholds [get]
// @Security     BearerAuth
func (h *Handler) getThresholds(c *gin.Context) {
	th := h.services.Thresholds
	c.JSON(http.StatusOK, gin.H{
		"loaded_at": th.LoadedAt().Format(time.RFC3339),
		"rules":     th.Rules(),
	})
}

// @Summary      Reload thresholds
// @Description  Re-reads the thresholds file. On error the previous table stays active.
// @Tags         thresholds
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Router       /api/v1/thresholds/reload [post]
// @Security     BearerAuth
func (h *Handler) reloadThresholds(c *gin.Context) {
	th := h.services.Thresholds
	if err := th.Reload(); err != nil {
		if h.log != nil {
			h.log.Warnw("thresholds_reload_failed", "err", err)
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if h.log != nil {
		h.log.Infow("thresholds_reloaded", "rules", len(th.Rules()))
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    statusReloaded,
		"loaded_at": th.LoadedAt().Format(time.RFC3339),
		"rules":     len(th.Rules()),
	})
}
