package models

import "time"

// ChatMessage is one turn of a conversation about a stored document.
type ChatMessage struct {
	ID         string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DocumentID string `gorm:"type:uuid" json:"documentId"`
	// Role is "user" or "assistant".
	Role      string    `gorm:"not null" json:"role"`
	Content   string    `gorm:"not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
