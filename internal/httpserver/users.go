package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handlers) countUsers(c *gin.Context) {
	n, err := h.users.Count(c.Request.Context())
	if err != nil {
		h.writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}
