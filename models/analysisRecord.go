package models

import (
	"time"

	"gorm.io/datatypes"
)

// AnalysisRecord stores the outcome of one compliance analysis run for a document.
// A document may accumulate multiple records; there is no uniqueness constraint.
type AnalysisRecord struct {
	// ID is a unique identifier for the record, stored as a UUID in the database.
	ID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id" elastic:"type:keyword"`

	// DocumentID references the analyzed document, indexed as a keyword.
	DocumentID string `gorm:"type:uuid" json:"documentId" elastic:"type:keyword"`

	// ComplianceScore is the 0-100 score assigned by the model; nil when the
	// model did not produce one (degraded or fallback results).
	ComplianceScore *int `json:"complianceScore" elastic:"type:integer"`

	// RiskLevel is the coarse classification ('low', 'medium', 'high', 'unknown').
	RiskLevel string `json:"riskLevel" elastic:"type:keyword"`

	// KeyPoints is a JSONB array of the analysis key points.
	KeyPoints datatypes.JSON `json:"keyPoints" elastic:"type:object"`

	// Recommendations is a JSONB array of recommendation objects.
	Recommendations datatypes.JSON `json:"recommendations" elastic:"type:object"`

	// TextualAnalysis holds the raw model text when structured parsing failed.
	TextualAnalysis string `json:"textualAnalysis,omitempty"`

	// Fallback marks records produced by the canned fallback rather than the model.
	Fallback bool `json:"fallback"`

	// CreatedAt tracks when the analysis was recorded.
	CreatedAt time.Time `json:"createdAt" elastic:"type:date"`
}
