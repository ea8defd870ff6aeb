package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"petidocs/internal/services"
)

type TemplateHandler struct {
	templates *services.TemplateService
}

func NewTemplateHandler(templates *services.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

type createTemplateRequest struct {
	Name                string `json:"name" binding:"required"`
	SourceDocumentID    string `json:"source_document_id" binding:"required"`
	DestinationFolderID string `json:"destination_folder_id"`
}

type createFormRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.templates.ListTemplates()
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, templates)
}

func (h *TemplateHandler) Get(c *gin.Context) {
	template, err := h.templates.GetTemplate(c.Param("templateId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, template)
}

func (h *TemplateHandler) Create(c *gin.Context) {
	var req createTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid JSON"})
		return
	}
	template, err := h.templates.CreateTemplate(req.Name, req.SourceDocumentID, req.DestinationFolderID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, template)
}

func (h *TemplateHandler) GetPlaceholders(c *gin.Context) {
	placeholders, err := h.templates.GetPlaceholders(c.Param("templateId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, placeholders)
}

// Sync re-reads the live document and reconciles the stored placeholder set.
func (h *TemplateHandler) Sync(c *gin.Context) {
	result, err := h.templates.SyncPlaceholders(c.Request.Context(), c.Param("templateId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, result)
}

// CreateForm mints a named shareable form for the template.
func (h *TemplateHandler) CreateForm(c *gin.Context) {
	var req createFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid JSON"})
		return
	}
	form, err := h.templates.CreateForm(c.Param("templateId"), req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, form)
}
