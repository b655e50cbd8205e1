package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ClearCache drops every memoized analysis.
func (h *AnalysisHandler) ClearCache(c *gin.Context) {
	if err := h.service.ClearCache(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListExports lists published exports, optionally narrowed by ?prefix=.
func (h *AnalysisHandler) ListExports(c *gin.Context) {
	objects, err := h.service.ListExports(c.Request.Context(), c.Query("prefix"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total": len(objects),
		"data":  objects,
	})
}

// DownloadExport streams a published export back by its key.
func (h *AnalysisHandler) DownloadExport(c *gin.Context) {
	artifact, err := h.service.DownloadExport(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Name))
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}
