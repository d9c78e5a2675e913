package handlers

import (
	"net/http"

	"DF-PROPOSAL/internal/services"

	"github.com/gin-gonic/gin"
)

type TemplateHandler struct {
	templates *services.TemplateService
}

func NewTemplateHandler(templates *services.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.templates.ListTemplates(c.Request.Context(), ownerID(c), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

func (h *TemplateHandler) Create(c *gin.Context) {
	var req services.TemplateInput
	if !bindJSON(c, &req) {
		return
	}
	template, err := h.templates.CreateTemplate(c.Request.Context(), ownerID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, template)
}

func (h *TemplateHandler) Get(c *gin.Context) {
	template, err := h.templates.GetTemplate(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

func (h *TemplateHandler) Update(c *gin.Context) {
	var req services.TemplateUpdate
	if !bindJSON(c, &req) {
		return
	}
	template, err := h.templates.UpdateTemplate(c.Request.Context(), ownerID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

func (h *TemplateHandler) Delete(c *gin.Context) {
	if err := h.templates.DeleteTemplate(c.Request.Context(), ownerID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TemplateHandler) Duplicate(c *gin.Context) {
	template, err := h.templates.DuplicateTemplate(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, template)
}

func (h *TemplateHandler) AddSection(c *gin.Context) {
	var req services.TemplateSectionInput
	if !bindJSON(c, &req) {
		return
	}
	section, err := h.templates.AddSection(c.Request.Context(), ownerID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, section)
}

func (h *TemplateHandler) UpdateSection(c *gin.Context) {
	var req services.SectionPatch
	if !bindJSON(c, &req) {
		return
	}
	section, err := h.templates.UpdateSection(c.Request.Context(), ownerID(c), c.Param("id"), c.Param("sectionId"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, section)
}

func (h *TemplateHandler) DeleteSection(c *gin.Context) {
	if err := h.templates.DeleteSection(c.Request.Context(), ownerID(c), c.Param("id"), c.Param("sectionId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
