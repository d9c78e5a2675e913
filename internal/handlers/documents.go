package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"DF-PROPOSAL/internal/apperr"
	"DF-PROPOSAL/internal/models"
	"DF-PROPOSAL/internal/services"

	"github.com/gin-gonic/gin"
)

type DocumentHandler struct {
	documents *services.DocumentService
	responses *services.ResponseService
	access    *services.AccessService
	exports   *services.ExportService
	archive   *services.ArchiveService
}

// NewDocumentHandler builds the author-facing document endpoints. archive may
// be nil when no bucket is configured.
func NewDocumentHandler(documents *services.DocumentService, responses *services.ResponseService, access *services.AccessService, exports *services.ExportService, archive *services.ArchiveService) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		responses: responses,
		access:    access,
		exports:   exports,
		archive:   archive,
	}
}

type createDocumentRequest struct {
	services.CreateDocumentInput
	TemplateID string  `json:"templateId"`
	ValidUntil *string `json:"validUntil"`
}

type updateDocumentRequest struct {
	services.DocumentPatch
	ValidUntil *string `json:"validUntil"`
}

type reorderSectionsRequest struct {
	SectionIDs []string `json:"sectionIds"`
}

type reorderItemsRequest struct {
	ItemIDs []string `json:"itemIds"`
}

// parseValidUntil accepts a calendar date, taken as the end of that day in
// UTC, or an RFC 3339 timestamp. An empty string clears the date.
func parseValidUntil(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if day, err := time.Parse("2006-01-02", raw); err == nil {
		end := day.Add(24*time.Hour - time.Second).UTC()
		return &end, nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperr.Invalid("validUntil", "must_be_date_or_rfc3339")
	}
	at = at.UTC()
	return &at, nil
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context(), ownerID(c), services.ListFilter{
		Status: c.Query("status"),
		Kind:   c.Query("kind"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// Create makes a document from a template when templateId is given, and a
// blank one otherwise.
func (h *DocumentHandler) Create(c *gin.Context) {
	var req createDocumentRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.ValidUntil != nil {
		until, err := parseValidUntil(*req.ValidUntil)
		if err != nil {
			respondError(c, err)
			return
		}
		req.CreateDocumentInput.ValidUntil = until
	}

	ctx := c.Request.Context()
	var (
		doc *models.Document
		err error
	)
	if req.TemplateID != "" {
		doc, err = h.documents.CreateFromTemplate(ctx, ownerID(c), req.TemplateID, req.CreateDocumentInput)
	} else {
		doc, err = h.documents.CreateBlank(ctx, ownerID(c), req.CreateDocumentInput)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.documents.Get(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *DocumentHandler) Update(c *gin.Context) {
	var req updateDocumentRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.ValidUntil != nil {
		until, err := parseValidUntil(*req.ValidUntil)
		if err != nil {
			respondError(c, err)
			return
		}
		req.DocumentPatch.ValidUntil = until
		req.DocumentPatch.ClearValidUntil = until == nil
	}

	doc, err := h.documents.Update(c.Request.Context(), ownerID(c), c.Param("id"), req.DocumentPatch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), ownerID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DocumentHandler) Send(c *gin.Context) {
	result, err := h.responses.Send(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *DocumentHandler) Preview(c *gin.Context) {
	v, err := h.access.Preview(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *DocumentHandler) DownloadPDF(c *gin.Context) {
	ctx := c.Request.Context()
	v, err := h.access.Preview(ctx, ownerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	data, err := h.exports.PDF(ctx, v)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", v.Number+".pdf"))
	c.Data(http.StatusOK, "application/pdf", data)
}

func (h *DocumentHandler) Archive(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Archiving is not configured"})
		return
	}
	url, err := h.archive.SignedURL(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *DocumentHandler) AddSection(c *gin.Context) {
	var req services.SectionInput
	if !bindJSON(c, &req) {
		return
	}
	section, err := h.documents.AddSection(c.Request.Context(), ownerID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, section)
}

func (h *DocumentHandler) UpdateSection(c *gin.Context) {
	var req services.SectionPatch
	if !bindJSON(c, &req) {
		return
	}
	section, err := h.documents.UpdateSection(c.Request.Context(), ownerID(c), c.Param("id"), c.Param("sectionId"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, section)
}

func (h *DocumentHandler) LockSection(c *gin.Context) {
	section, err := h.documents.LockSection(c.Request.Context(), ownerID(c), c.Param("id"), c.Param("sectionId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, section)
}

func (h *DocumentHandler) DeleteSection(c *gin.Context) {
	if err := h.documents.DeleteSection(c.Request.Context(), ownerID(c), c.Param("id"), c.Param("sectionId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DocumentHandler) ReorderSections(c *gin.Context) {
	var req reorderSectionsRequest
	if !bindJSON(c, &req) {
		return
	}
	sections, err := h.documents.ReorderSections(c.Request.Context(), ownerID(c), c.Param("id"), req.SectionIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": sections})
}

func (h *DocumentHandler) AddItem(c *gin.Context) {
	var req services.PricingItemInput
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.documents.AddPricingItem(c.Request.Context(), ownerID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *DocumentHandler) UpdateItem(c *gin.Context) {
	var req services.PricingItemPatch
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.documents.UpdatePricingItem(c.Request.Context(), ownerID(c), c.Param("id"), c.Param("itemId"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *DocumentHandler) DeleteItem(c *gin.Context) {
	if err := h.documents.DeletePricingItem(c.Request.Context(), ownerID(c), c.Param("id"), c.Param("itemId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DocumentHandler) ReorderItems(c *gin.Context) {
	var req reorderItemsRequest
	if !bindJSON(c, &req) {
		return
	}
	items, err := h.documents.ReorderPricingItems(c.Request.Context(), ownerID(c), c.Param("id"), req.ItemIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
