package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"feargreed-dashboard/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const defaultNewsValue = 50

// GetNews godoc
// @Summary      Headlines matching a sentiment value
// @Description  Picks fear, neutral or greed coverage for value. Without value the cached reading of the active mode is used.
// @Tags         news
// @Produce      json
// @Param        value  query  int  false  "Sentiment value 0-100"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/news [get]
func (h *Handler) GetNews(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-news")
	defer span.End()

	value := defaultNewsValue
	if raw := c.Query("value"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < domain.MinValue || n > domain.MaxValue {
			h.fail(c, span, fmt.Errorf("%w: value must be an integer between 0 and 100", domain.ErrInvalidArgument))
			return
		}
		value = n
	} else if reading, ok := h.index.GetCachedData(h.index.Mode()); ok {
		value = reading.Value
	}
	span.SetAttributes(attribute.Int("news.value", value))

	articles := h.news.FetchNews(ctx, value)
	c.JSON(http.StatusOK, gin.H{
		"sentiment": domain.BucketFor(value),
		"value":     value,
		"articles":  articles,
	})
}
