package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"feargreed-dashboard/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type modeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// GetIndex godoc
// @Summary      Current Fear & Greed reading
// @Description  Returns the reading for the active mode, served from cache unless stale or forced
// @Tags         index
// @Produce      json
// @Param        force  query  bool  false  "Bypass the cache"
// @Success      200  {object}  domain.SentimentReading
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/index [get]
func (h *Handler) GetIndex(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-index")
	defer span.End()

	force := false
	if raw := c.Query("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			h.fail(c, span, fmt.Errorf("%w: force must be a boolean", domain.ErrInvalidArgument))
			return
		}
		force = parsed
	}
	span.SetAttributes(attribute.Bool("index.force", force))

	reading, err := h.index.GetCurrentIndex(ctx, force)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, reading)
}

// GetMode godoc
// @Summary      Active mode
// @Tags         index
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/mode [get]
func (h *Handler) GetMode(c *gin.Context) {
	mode := h.index.Mode()
	c.JSON(http.StatusOK, gin.H{"mode": mode, "label": mode.Label()})
}

// SetMode godoc
// @Summary      Switch the active mode
// @Tags         index
// @Accept       json
// @Produce      json
// @Param        body  body  modeRequest  true  "crypto or stock"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/mode [put]
func (h *Handler) SetMode(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.set-mode")
	defer span.End()

	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, span, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err))
		return
	}
	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	if err := h.index.SetMode(mode); err != nil {
		h.fail(c, span, err)
		return
	}
	h.logger.Info().Str("mode", string(mode)).Msg("mode switched")
	c.JSON(http.StatusOK, gin.H{"mode": mode, "label": mode.Label()})
}

// GetCached godoc
// @Summary      Cached reading for a mode
// @Description  Returns whatever is cached for the mode without fetching, stale or not
// @Tags         cache
// @Produce      json
// @Param        mode  path  string  true  "crypto or stock"
// @Success      200  {object}  domain.SentimentReading
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/cache/{mode} [get]
func (h *Handler) GetCached(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-cached")
	defer span.End()

	mode, err := domain.ParseMode(c.Param("mode"))
	if err != nil {
		h.fail(c, span, err)
		return
	}
	reading, ok := h.index.GetCachedData(mode)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no cached reading for " + string(mode)})
		return
	}
	c.JSON(http.StatusOK, reading)
}

// ClearCache godoc
// @Summary      Clear sentiment and news caches
// @Tags         cache
// @Success      204
// @Failure      401  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/cache [delete]
func (h *Handler) ClearCache(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.clear-cache")
	defer span.End()

	h.index.ClearCache()
	h.news.ClearCache()
	h.logger.Info().Msg("caches cleared")
	c.Status(http.StatusNoContent)
}
