package api

import (
	"net/http"

	"github.com/Domenick1991/leadbooking/internal/security"
	"github.com/gin-gonic/gin"
)

type CSRFHandler struct {
	csrf *security.CSRFManager
}

func NewCSRFHandler(csrf *security.CSRFManager) *CSRFHandler {
	return &CSRFHandler{csrf: csrf}
}

func (h *CSRFHandler) Register(router *gin.RouterGroup) {
	router.GET("/csrf", h.issue)
}

func (h *CSRFHandler) issue(c *gin.Context) {
	token, err := h.csrf.Issue(c.Writer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"csrfToken": token})
}
