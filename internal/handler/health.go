package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary      Health check
// @Description  Reports liveness, the active mode and whether a reading is cached for it
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	body := gin.H{"status": "healthy", "history": h.history != nil}
	if h.index != nil {
		mode := h.index.Mode()
		_, cached := h.index.GetCachedData(mode)
		body["mode"] = mode
		body["cached"] = cached
	}
	c.JSON(http.StatusOK, body)
}
