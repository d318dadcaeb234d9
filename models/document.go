package models

import (
	"time"

	"gorm.io/gorm"
)

// Document represents a legal document (terms of service, privacy policy)
// submitted for compliance analysis.
type Document struct {
	// ID is a unique identifier for the document, stored as a UUID in the database.
	// In Elasticsearch, it's indexed as a keyword for exact matching.
	ID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id" elastic:"type:keyword"`

	// Title is the document's title, indexed as text for full-text search.
	Title string `json:"title" elastic:"type:text,analyzer:standard"`

	// LawRegion is the jurisdiction the document was submitted under
	// (e.g., "gdpr", "ccpa", "dpdpa"), indexed as a keyword.
	LawRegion string `json:"lawRegion" elastic:"type:keyword"`

	// Content is the raw document text, indexed as text for full-text search.
	Content string `json:"content" elastic:"type:text,analyzer:standard"`

	// CreatedAt and UpdatedAt track when the document was created and last updated.
	CreatedAt time.Time `json:"createdAt" elastic:"type:date"`
	UpdatedAt time.Time `json:"updatedAt" elastic:"type:date"`

	// SearchContent is a computed field for full-text search, combining Title and Content.
	// It's not stored in the database (gorm:"-") but is indexed in Elasticsearch.
	SearchContent string `gorm:"-" json:"-" elastic:"type:text,analyzer:standard"`
}

// BeforeSave is a GORM hook to populate SearchContent before saving to Elasticsearch.
func (d *Document) BeforeSave(tx *gorm.DB) error {
	d.SearchContent = d.Title + " " + d.Content
	return nil
}
