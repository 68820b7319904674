package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"feargreed-dashboard/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const defaultHistoryLimit = 30

// GetHistory godoc
// @Summary      Recorded readings for a mode
// @Tags         history
// @Produce      json
// @Param        mode   path   string  true   "crypto or stock"
// @Param        limit  query  int     false  "Number of readings (max 365)"  default(30)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/history/{mode} [get]
func (h *Handler) GetHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reading history unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-history")
	defer span.End()

	mode, err := domain.ParseMode(c.Param("mode"))
	if err != nil {
		h.fail(c, span, err)
		return
	}
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.fail(c, span, fmt.Errorf("%w: limit must be a positive integer", domain.ErrInvalidArgument))
			return
		}
		limit = n
	}
	span.SetAttributes(attribute.String("history.mode", string(mode)), attribute.Int("history.limit", limit))

	readings, err := h.history.RecentReadings(ctx, mode, limit)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	if readings == nil {
		readings = []domain.SentimentReading{}
	}
	c.JSON(http.StatusOK, gin.H{"mode": mode, "readings": readings})
}
