package http

import (
	"encoding/json"
	"net/http"
	"time"

	"mosaic/internal/core/domain"
	"mosaic/internal/core/ports"

	"github.com/gin-gonic/gin"
)

type DiagnosticsHandler struct {
	diagnostics ports.DiagnosticsService
}

func NewDiagnosticsHandler(diagnostics ports.DiagnosticsService) *DiagnosticsHandler {
	return &DiagnosticsHandler{diagnostics: diagnostics}
}

func (h *DiagnosticsHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.GET("/diagnostics", h.ListResults)
		api.POST("/diagnostics", h.AppendResult)
		api.DELETE("/diagnostics", h.ClearResults)
	}
}

func (h *DiagnosticsHandler) ListResults(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"results": h.diagnostics.List(),
	})
}

func (h *DiagnosticsHandler) AppendResult(c *gin.Context) {
	var req struct {
		Type    string          `json:"type" binding:"required,oneof=ping traceroute dns"`
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := domain.DiagnosticResult{
		Type:      domain.DiagnosticType(req.Type),
		Timestamp: time.Now(),
		Success:   req.Success,
		Data:      req.Data,
		Error:     req.Error,
	}
	h.diagnostics.Append(result)

	c.JSON(http.StatusCreated, gin.H{
		"result": result,
	})
}

func (h *DiagnosticsHandler) ClearResults(c *gin.Context) {
	h.diagnostics.Clear()
	c.JSON(http.StatusOK, gin.H{
		"status": "cleared",
	})
}
