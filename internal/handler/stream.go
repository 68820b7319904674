package handler

import (
	"io"

	"feargreed-dashboard/internal/domain"

	"github.com/gin-gonic/gin"
)

const streamBuffer = 8

// Stream godoc
// @Summary      Live readings
// @Description  Server-sent events. Sends the cached reading for the active mode, then every fresh reading.
// @Tags         index
// @Produce      text/event-stream
// @Success      200
// @Router       /api/stream [get]
func (h *Handler) Stream(c *gin.Context) {
	updates := make(chan domain.SentimentReading, streamBuffer)
	unsubscribe := h.index.Subscribe(func(r domain.SentimentReading) {
		select {
		case updates <- r:
		default:
			h.logger.Debug().Str("mode", string(r.Mode)).Msg("stream client behind, dropping reading")
		}
	})
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	if reading, ok := h.index.GetCachedData(h.index.Mode()); ok {
		c.SSEvent("reading", reading)
		c.Writer.Flush()
	}

	done := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-done:
			return false
		case reading := <-updates:
			c.SSEvent("reading", reading)
			return true
		}
	})
}
