package controller

import (
	"errors"
	"log"
	"net/http"

	service "github.com/consentlens/backend/service"

	"github.com/gin-gonic/gin"
)

// ChatController manages HTTP requests for chatting with a document
type ChatController struct {
	service *service.ChatService
}

// NewChatController initializes the controller with the service
func NewChatController(service *service.ChatService) *ChatController {
	return &ChatController{service}
}

// Chat answers a user message about a stored document
func (c *ChatController) Chat(ctx *gin.Context) {
	documentID := ctx.Param("id")

	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	reply, err := c.service.Chat(documentID, req.Message)
	if err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		log.Printf("[Chat] error for document %s: %v", documentID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"reply": reply})
}

// GetHistory returns the stored conversation for a document
func (c *ChatController) GetHistory(ctx *gin.Context) {
	documentID := ctx.Param("id")
	history, err := c.service.History(documentID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"messages": history})
}
