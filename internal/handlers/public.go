package handlers

import (
	"fmt"
	"net/http"

	"DF-PROPOSAL/internal/services"

	"github.com/gin-gonic/gin"
)

// PublicHandler serves recipients. Requests are authorized by the access
// token in the path alone.
type PublicHandler struct {
	access    *services.AccessService
	responses *services.ResponseService
	exports   *services.ExportService
}

func NewPublicHandler(access *services.AccessService, responses *services.ResponseService, exports *services.ExportService) *PublicHandler {
	return &PublicHandler{access: access, responses: responses, exports: exports}
}

func (h *PublicHandler) View(c *gin.Context) {
	v, err := h.access.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, v)
}

func (h *PublicHandler) Accept(c *gin.Context) {
	var req services.AcceptInput
	if !bindJSON(c, &req) {
		return
	}
	req.IPAddress = c.ClientIP()
	req.UserAgent = c.Request.UserAgent()

	v, err := h.responses.Accept(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *PublicHandler) Reject(c *gin.Context) {
	var req services.RejectInput
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	v, err := h.responses.Reject(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *PublicHandler) Comment(c *gin.Context) {
	var req services.CommentInput
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.responses.Comment(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"content":     comment.Content,
		"authorEmail": comment.AuthorEmail,
		"createdAt":   comment.CreatedAt,
	})
}

func (h *PublicHandler) DownloadPDF(c *gin.Context) {
	ctx := c.Request.Context()
	v, err := h.access.Resolve(ctx, c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	data, err := h.exports.PDF(ctx, v)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", v.Number+".pdf"))
	c.Data(http.StatusOK, "application/pdf", data)
}
