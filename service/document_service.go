package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	model "github.com/consentlens/backend/models"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrExportUnavailable is returned when object storage is not configured.
var ErrExportUnavailable = errors.New("report storage is not configured")

// ErrDocumentNotFound is returned when a document id does not exist.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentService handles document records, search indexing and report export.
// It also implements AnalysisStore for the analysis pipeline.
type DocumentService struct {
	db          *gorm.DB
	esClient    *elasticsearch.Client
	s3Client    *s3.S3
	bucket      string
	supabaseURL string
}

// NewDocumentService initializes the service. Elasticsearch and S3 are both
// optional: without them search and export degrade, document CRUD still works.
func NewDocumentService(db *gorm.DB) (*DocumentService, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}

	svc := &DocumentService{db: db}

	esURL := os.Getenv("ELASTICSEARCH_URL")
	if esURL != "" {
		esClient, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses: []string{esURL},
		})
		if err != nil {
			log.Printf("Warning: Failed to create Elasticsearch client: %v", err)
		} else {
			svc.esClient = esClient
		}
	}

	region := os.Getenv("SUPABASE_REGION")
	endpoint := os.Getenv("SUPABASE_S3_ENDPOINT")
	accessKey := os.Getenv("SUPABASE_ACCESS_KEY")
	secretKey := os.Getenv("SUPABASE_SECRET_KEY")
	if region != "" && endpoint != "" && accessKey != "" && secretKey != "" {
		sess, err := session.NewSession(&aws.Config{
			Region:           aws.String(region),
			Endpoint:         aws.String(endpoint),
			DisableSSL:       aws.Bool(false),
			Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
			S3ForcePathStyle: aws.Bool(true),
		})
		if err != nil {
			log.Printf("Warning: Failed to create AWS session: %v", err)
		} else {
			svc.s3Client = s3.New(sess)
			svc.bucket = os.Getenv("SUPABASE_BUCKET")
			svc.supabaseURL = os.Getenv("SUPABASE_S3_URL")
		}
	} else {
		log.Println("S3 configuration incomplete; report export disabled")
	}

	return svc, nil
}

// CreateDocument persists a submitted document and indexes it for search.
// Indexing is best-effort and never fails the request.
func (s *DocumentService) CreateDocument(doc *model.Document) error {
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = time.Now()
	if err := s.db.Create(doc).Error; err != nil {
		log.Printf("ERROR saving document to database: %v", err)
		return fmt.Errorf("failed to save document: %w", err)
	}
	log.Printf("Document saved with ID: %s", doc.ID)

	s.indexDocument(doc)
	return nil
}

// GetAllDocuments returns all documents, newest first.
func (s *DocumentService) GetAllDocuments() ([]model.Document, error) {
	var documents []model.Document
	result := s.db.Order("created_at DESC").Find(&documents)
	if result.Error != nil {
		log.Printf("GetAllDocuments: Database query error: %v", result.Error)
		return nil, fmt.Errorf("failed to fetch documents: %w", result.Error)
	}
	log.Printf("GetAllDocuments: Retrieved %d documents", len(documents))
	return documents, nil
}

// GetDocument returns one document and its analysis history.
func (s *DocumentService) GetDocument(id string) (*model.Document, []model.AnalysisRecord, error) {
	var doc model.Document
	if err := s.db.First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrDocumentNotFound
		}
		return nil, nil, fmt.Errorf("failed to fetch document: %w", err)
	}

	var records []model.AnalysisRecord
	if err := s.db.Where("document_id = ?", id).Order("created_at DESC").Find(&records).Error; err != nil {
		log.Printf("ERROR fetching analysis records for document %s: %v", id, err)
		return nil, nil, fmt.Errorf("failed to fetch analysis records: %w", err)
	}
	return &doc, records, nil
}

// DeleteDocument removes a document together with its analysis records and
// chat history, then drops it from the search index (best-effort).
func (s *DocumentService) DeleteDocument(id string) error {
	var doc model.Document
	if err := s.db.First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("failed to fetch document: %w", err)
	}

	if err := s.db.Where("document_id = ?", id).Delete(&model.AnalysisRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete analysis records: %w", err)
	}
	if err := s.db.Where("document_id = ?", id).Delete(&model.ChatMessage{}).Error; err != nil {
		return fmt.Errorf("failed to delete chat messages: %w", err)
	}
	if err := s.db.Delete(&doc).Error; err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	s.deleteFromIndex(id)
	log.Printf("Document %s deleted", id)
	return nil
}

// SaveAnalysisRecord implements AnalysisStore for the analysis pipeline.
func (s *DocumentService) SaveAnalysisRecord(rec *model.AnalysisRecord) error {
	if err := s.db.Create(rec).Error; err != nil {
		return fmt.Errorf("failed to save analysis record: %w", err)
	}
	return nil
}

// SearchDocuments runs a full-text query over indexed documents.
func (s *DocumentService) SearchDocuments(query string) ([]map[string]interface{}, error) {
	if s.esClient == nil {
		return nil, fmt.Errorf("elasticsearch client is not initialized")
	}

	searchQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title", "content"},
			},
		},
	}
	body, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := s.esClient.Search(
		s.esClient.Search.WithContext(context.Background()),
		s.esClient.Search.WithIndex("documents"),
		s.esClient.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search failed: %s", res.String())
	}

	var result map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hitsMap, ok := result["hits"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid hits structure in search response")
	}
	hitsArray, ok := hitsMap["hits"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid hits array in search response")
	}

	var documents []map[string]interface{}
	for _, hit := range hitsArray {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		source, ok := hitMap["_source"].(map[string]interface{})
		if !ok {
			continue
		}
		documents = append(documents, source)
	}
	return documents, nil
}

// ExportAnalysisReport writes the latest analysis of a document to object
// storage as a JSON report and returns its public URL.
func (s *DocumentService) ExportAnalysisReport(documentID string) (string, error) {
	if s.s3Client == nil || s.bucket == "" {
		return "", ErrExportUnavailable
	}

	var doc model.Document
	if err := s.db.First(&doc, "id = ?", documentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrDocumentNotFound
		}
		return "", fmt.Errorf("failed to fetch document: %w", err)
	}

	var record model.AnalysisRecord
	if err := s.db.Where("document_id = ?", documentID).Order("created_at DESC").First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("document %s has no analysis to export", documentID)
		}
		return "", fmt.Errorf("failed to fetch analysis record: %w", err)
	}

	report := map[string]interface{}{
		"document": map[string]interface{}{
			"id":        doc.ID,
			"title":     doc.Title,
			"lawRegion": doc.LawRegion,
		},
		"analysis":   record,
		"exportedAt": time.Now().UTC(),
	}
	body, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	key := fmt.Sprintf("reports/%s.json", uuid.NewString())
	_, err = s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ACL:         aws.String("public-read"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		log.Printf("S3 upload error: %v", err)
		return "", fmt.Errorf("failed to upload report: %w", err)
	}

	url := fmt.Sprintf("%s/object/public/%s/%s", strings.TrimRight(s.supabaseURL, "/"), s.bucket, key)
	log.Printf("Report for document %s exported to %s", documentID, url)
	return url, nil
}

// indexDocument indexes a document in Elasticsearch. Best-effort: failures
// are logged and never break the write path.
func (s *DocumentService) indexDocument(doc *model.Document) {
	if s.esClient == nil {
		log.Println("Elasticsearch client not initialized. Skipping indexing.")
		return
	}

	payload := map[string]interface{}{
		"title":      doc.Title,
		"law_region": doc.LawRegion,
		"content":    doc.Content,
		"timestamp":  time.Now().UTC(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal document for indexing: %v", err)
		return
	}

	res, err := s.esClient.Index(
		"documents",
		bytes.NewReader(body),
		s.esClient.Index.WithDocumentID(doc.ID),
		s.esClient.Index.WithContext(context.Background()),
	)
	if err != nil {
		log.Printf("Elasticsearch indexing error: %v", err)
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Printf("Elasticsearch indexing failed: %s", res.String())
		return
	}
	log.Printf("Document %s indexed in Elasticsearch", doc.ID)
}

// deleteFromIndex drops a document from the search index, best-effort.
func (s *DocumentService) deleteFromIndex(id string) {
	if s.esClient == nil {
		return
	}
	res, err := s.esClient.Delete("documents", id,
		s.esClient.Delete.WithContext(context.Background()),
	)
	if err != nil {
		log.Printf("Elasticsearch delete error: %v", err)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Printf("Elasticsearch delete failed: %s", res.String())
	}
}
