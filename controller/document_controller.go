package controller

import (
	"errors"
	"log"
	"net/http"

	"github.com/consentlens/backend/models"
	service "github.com/consentlens/backend/service"

	"github.com/gin-gonic/gin"
)

// DocumentController manages HTTP requests for document records
type DocumentController struct {
	service *service.DocumentService
}

// NewDocumentController initializes the controller with the service
func NewDocumentController(service *service.DocumentService) *DocumentController {
	return &DocumentController{service}
}

// CreateDocument stores a pasted legal document
func (c *DocumentController) CreateDocument(ctx *gin.Context) {
	var req struct {
		Title     string `json:"title" binding:"required"`
		Content   string `json:"content" binding:"required"`
		LawRegion string `json:"lawRegion" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc := models.Document{
		Title:     req.Title,
		Content:   req.Content,
		LawRegion: req.LawRegion,
	}
	if err := c.service.CreateDocument(&doc); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, doc)
}

// GetAllDocuments retrieves all documents for the dashboard
func (c *DocumentController) GetAllDocuments(ctx *gin.Context) {
	docs, err := c.service.GetAllDocuments()
	if err != nil {
		log.Printf("Error fetching documents: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve documents",
			"details": err.Error(),
		})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"documents": docs,
		"total":     len(docs),
	})
}

// GetDocument retrieves one document and its analysis history
func (c *DocumentController) GetDocument(ctx *gin.Context) {
	id := ctx.Param("id")
	doc, records, err := c.service.GetDocument(id)
	if err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"document": doc,
		"analyses": records,
	})
}

// DeleteDocument removes a document and everything attached to it
func (c *DocumentController) DeleteDocument(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := c.service.DeleteDocument(id); err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Document deleted successfully"})
}

// SearchDocuments runs a full-text search over indexed documents
func (c *DocumentController) SearchDocuments(ctx *gin.Context) {
	query := ctx.Query("q")
	if query == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'q' is required"})
		return
	}

	results, err := c.service.SearchDocuments(query)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message": "Search completed successfully",
		"results": results,
	})
}

// ExportReport writes the latest analysis to object storage and returns its URL
func (c *DocumentController) ExportReport(ctx *gin.Context) {
	id := ctx.Param("id")
	url, err := c.service.ExportAnalysisReport(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExportUnavailable):
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "Report storage is not configured"})
		case errors.Is(err, service.ErrDocumentNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		default:
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"url": url})
}
