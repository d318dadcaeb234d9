package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	model "github.com/consentlens/backend/models"

	openai "github.com/sashabaranov/go-openai"
	"gorm.io/gorm"
)

// unconfiguredChatReply keeps the chat window functional in demo environments
// without a provider credential, matching the analysis pipeline's policy.
const unconfiguredChatReply = "The analysis provider is not configured, so I can't answer questions about this document right now. Please try again once a provider credential is set."

// ChatService lets the user converse with a stored document through the
// provider's OpenAI-compatible chat API.
type ChatService struct {
	db     *gorm.DB
	client *openai.Client
	model  string
}

// NewChatService builds the chat client against the same provider endpoint
// the analysis pipeline uses. With no credential the client stays nil and
// Chat serves a canned reply.
func NewChatService(db *gorm.DB, cfg ProviderConfig) *ChatService {
	svc := &ChatService{db: db, model: cfg.Model}
	if cfg.Configured() {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		clientCfg.BaseURL = chatBaseURL(cfg.Endpoint)
		svc.client = openai.NewClientWithConfig(clientCfg)
	}
	return svc
}

// chatBaseURL derives the OpenAI-compatible API root from the completions
// endpoint (".../v1/chat/completions" -> ".../v1").
func chatBaseURL(endpoint string) string {
	return strings.TrimSuffix(strings.TrimRight(endpoint, "/"), "/chat/completions")
}

// Chat answers a user message about a document, keeping the conversation
// history in the database.
func (s *ChatService) Chat(documentID, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("message is required")
	}

	if s.client == nil {
		log.Println("[Chat] no provider credential configured, serving canned reply")
		return unconfiguredChatReply, nil
	}

	var doc model.Document
	if err := s.db.First(&doc, "id = ?", documentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrDocumentNotFound
		}
		return "", fmt.Errorf("failed to fetch document: %w", err)
	}

	var history []model.ChatMessage
	if err := s.db.Where("document_id = ?", documentID).Order("created_at ASC").Find(&history).Error; err != nil {
		log.Printf("[Chat] ERROR loading chat history for document %s: %v", documentID, err)
		return "", fmt.Errorf("failed to load chat history: %w", err)
	}

	content := truncateContent(doc.Content)

	messages := []openai.ChatCompletionMessage{
		{
			Role: openai.ChatMessageRoleSystem,
			Content: fmt.Sprintf(`You are a privacy-law assistant. Answer questions about the following legal document titled %q. Base your answers only on the document text.

Document Text:
%s`, doc.Title, content),
		},
	}
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})

	resp, err := s.client.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: 0.3,
		MaxTokens:   1024,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	reply := resp.Choices[0].Message.Content

	// Persist both turns; a failed write never loses the reply.
	now := time.Now()
	userMsg := model.ChatMessage{DocumentID: documentID, Role: "user", Content: message, CreatedAt: now}
	if err := s.db.Create(&userMsg).Error; err != nil {
		log.Printf("[Chat] ERROR saving user message for document %s: %v", documentID, err)
	}
	assistantMsg := model.ChatMessage{DocumentID: documentID, Role: "assistant", Content: reply, CreatedAt: now.Add(time.Millisecond)}
	if err := s.db.Create(&assistantMsg).Error; err != nil {
		log.Printf("[Chat] ERROR saving assistant message for document %s: %v", documentID, err)
	}

	return reply, nil
}

// History returns the stored conversation for a document, oldest first.
func (s *ChatService) History(documentID string) ([]model.ChatMessage, error) {
	var history []model.ChatMessage
	if err := s.db.Where("document_id = ?", documentID).Order("created_at ASC").Find(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	return history, nil
}
