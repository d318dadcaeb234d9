package controller

import (
	"errors"
	"log"
	"net/http"

	service "github.com/consentlens/backend/service"

	"github.com/gin-gonic/gin"
)

// AnalysisController manages HTTP requests for document analysis
type AnalysisController struct {
	service *service.AnalysisService
}

// NewAnalysisController initializes the controller with the service
func NewAnalysisController(service *service.AnalysisService) *AnalysisController {
	return &AnalysisController{service}
}

// Analyze runs the compliance analysis pipeline for a submitted document
func (c *AnalysisController) Analyze(ctx *gin.Context) {
	var req service.AnalysisRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing content or lawRegion"})
		return
	}

	result, err := c.service.Analyze(req)
	if err != nil {
		if errors.Is(err, service.ErrMissingFields) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing content or lawRegion"})
			return
		}
		var upstream *service.UpstreamError
		if errors.As(err, &upstream) {
			ctx.JSON(http.StatusBadGateway, gin.H{
				"error":   "Analysis provider failed",
				"details": upstream.Body,
			})
			return
		}
		log.Printf("[Analyze] unexpected error: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, result)
}
