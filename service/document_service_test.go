package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	model "github.com/consentlens/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// DBInterface defines GORM-like methods for mocking
type DBInterface interface {
	Create(value interface{}) DBInterface
	First(dest interface{}, conds ...interface{}) DBInterface
	Find(dest interface{}, conds ...interface{}) DBInterface
	Where(query interface{}, args ...interface{}) DBInterface
	Order(value interface{}) DBInterface
	Delete(value interface{}, conds ...interface{}) DBInterface
	Error() error
}

// MockDB implements DBInterface with testify/mock
type MockDB struct {
	mock.Mock
}

func (m *MockDB) Create(value interface{}) DBInterface {
	m.Called(value)
	return m
}

func (m *MockDB) First(dest interface{}, conds ...interface{}) DBInterface {
	m.Called(dest, conds)
	return m
}

func (m *MockDB) Find(dest interface{}, conds ...interface{}) DBInterface {
	m.Called(dest, conds)
	return m
}

func (m *MockDB) Where(query interface{}, args ...interface{}) DBInterface {
	m.Called(query, args)
	return m
}

func (m *MockDB) Order(value interface{}) DBInterface {
	m.Called(value)
	return m
}

func (m *MockDB) Delete(value interface{}, conds ...interface{}) DBInterface {
	m.Called(value, conds)
	return m
}

func (m *MockDB) Error() error {
	args := m.Called()
	return args.Error(0)
}

// TestDocumentService mirrors DocumentService's persistence paths against
// DBInterface so the flows run without a live Postgres.
type TestDocumentService struct {
	db DBInterface
}

func (s *TestDocumentService) CreateDocument(doc *model.Document) error {
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = time.Now()
	if err := s.db.Create(doc).Error(); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

func (s *TestDocumentService) GetAllDocuments() ([]model.Document, error) {
	var documents []model.Document
	if err := s.db.Order("created_at DESC").Find(&documents).Error(); err != nil {
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}
	return documents, nil
}

func (s *TestDocumentService) GetDocument(id string) (*model.Document, []model.AnalysisRecord, error) {
	var doc model.Document
	if err := s.db.First(&doc, "id = ?", id).Error(); err != nil {
		return nil, nil, ErrDocumentNotFound
	}
	var records []model.AnalysisRecord
	if err := s.db.Where("document_id = ?", id).Order("created_at DESC").Find(&records).Error(); err != nil {
		return nil, nil, fmt.Errorf("failed to fetch analysis records: %w", err)
	}
	return &doc, records, nil
}

func (s *TestDocumentService) DeleteDocument(id string) error {
	var doc model.Document
	if err := s.db.First(&doc, "id = ?", id).Error(); err != nil {
		return ErrDocumentNotFound
	}
	if err := s.db.Where("document_id = ?", id).Delete(&model.AnalysisRecord{}).Error(); err != nil {
		return fmt.Errorf("failed to delete analysis records: %w", err)
	}
	if err := s.db.Where("document_id = ?", id).Delete(&model.ChatMessage{}).Error(); err != nil {
		return fmt.Errorf("failed to delete chat messages: %w", err)
	}
	if err := s.db.Delete(&doc).Error(); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (s *TestDocumentService) SaveAnalysisRecord(rec *model.AnalysisRecord) error {
	if err := s.db.Create(rec).Error(); err != nil {
		return fmt.Errorf("failed to save analysis record: %w", err)
	}
	return nil
}

func TestDocumentServiceCRUD(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(m *MockDB)
		action     func(s *TestDocumentService) error
		wantErr    bool
		assertions func(t *testing.T, m *MockDB)
	}{
		{
			name: "CreateDocument - Success",
			setup: func(m *MockDB) {
				m.On("Create", mock.AnythingOfType("*models.Document")).
					Run(func(args mock.Arguments) {
						doc := args.Get(0).(*model.Document)
						doc.ID = "doc-1"
					}).
					Return(m)
				m.On("Error").Return(nil)
			},
			action: func(s *TestDocumentService) error {
				doc := model.Document{Title: "Privacy Policy", LawRegion: "gdpr", Content: "We collect data."}
				if err := s.CreateDocument(&doc); err != nil {
					return err
				}
				assert.Equal(t, "doc-1", doc.ID)
				assert.False(t, doc.CreatedAt.IsZero())
				return nil
			},
			wantErr: false,
			assertions: func(t *testing.T, m *MockDB) {
				m.AssertExpectations(t)
			},
		},
		{
			name: "CreateDocument - DB Error",
			setup: func(m *MockDB) {
				m.On("Create", mock.AnythingOfType("*models.Document")).Return(m)
				m.On("Error").Return(errors.New("db error"))
			},
			action: func(s *TestDocumentService) error {
				doc := model.Document{Title: "Privacy Policy", LawRegion: "gdpr", Content: "We collect data."}
				return s.CreateDocument(&doc)
			},
			wantErr: true,
			assertions: func(t *testing.T, m *MockDB) {
				m.AssertExpectations(t)
			},
		},
		{
			name: "GetAllDocuments - Success",
			setup: func(m *MockDB) {
				m.On("Order", "created_at DESC").Return(m)
				m.On("Find", mock.Anything, mock.Anything).
					Run(func(args mock.Arguments) {
						docs := args.Get(0).(*[]model.Document)
						*docs = []model.Document{{ID: "doc-1", Title: "Privacy Policy"}}
					}).
					Return(m)
				m.On("Error").Return(nil)
			},
			action: func(s *TestDocumentService) error {
				docs, err := s.GetAllDocuments()
				if err != nil {
					return err
				}
				require.Len(t, docs, 1)
				assert.Equal(t, "doc-1", docs[0].ID)
				return nil
			},
			wantErr: false,
			assertions: func(t *testing.T, m *MockDB) {
				m.AssertExpectations(t)
			},
		},
		{
			name: "GetDocument - Round Trip With Analyses",
			setup: func(m *MockDB) {
				m.On("First", mock.Anything, mock.Anything).
					Run(func(args mock.Arguments) {
						doc := args.Get(0).(*model.Document)
						*doc = model.Document{ID: "doc-1", Title: "Privacy Policy", LawRegion: "gdpr"}
					}).
					Return(m)
				m.On("Where", "document_id = ?", []interface{}{"doc-1"}).Return(m)
				m.On("Order", "created_at DESC").Return(m)
				m.On("Find", mock.Anything, mock.Anything).
					Run(func(args mock.Arguments) {
						records := args.Get(0).(*[]model.AnalysisRecord)
						*records = []model.AnalysisRecord{{
							ID:         "rec-1",
							DocumentID: "doc-1",
							RiskLevel:  "low",
							KeyPoints:  datatypes.JSON([]byte(`["Clear retention policy"]`)),
						}}
					}).
					Return(m)
				m.On("Error").Return(nil)
			},
			action: func(s *TestDocumentService) error {
				doc, records, err := s.GetDocument("doc-1")
				if err != nil {
					return err
				}
				assert.Equal(t, "Privacy Policy", doc.Title)
				require.Len(t, records, 1)
				assert.Equal(t, "doc-1", records[0].DocumentID)
				assert.Equal(t, "low", records[0].RiskLevel)
				return nil
			},
			wantErr: false,
			assertions: func(t *testing.T, m *MockDB) {
				m.AssertExpectations(t)
			},
		},
		{
			name: "GetDocument - Not Found",
			setup: func(m *MockDB) {
				m.On("First", mock.Anything, mock.Anything).Return(m)
				m.On("Error").Return(errors.New("record not found"))
			},
			action: func(s *TestDocumentService) error {
				_, _, err := s.GetDocument("missing")
				assert.ErrorIs(t, err, ErrDocumentNotFound)
				return err
			},
			wantErr: true,
			assertions: func(t *testing.T, m *MockDB) {
				m.AssertExpectations(t)
			},
		},
		{
			name: "DeleteDocument - Cascades To Analyses And Chat",
			setup: func(m *MockDB) {
				m.On("First", mock.Anything, mock.Anything).
					Run(func(args mock.Arguments) {
						doc := args.Get(0).(*model.Document)
						doc.ID = "doc-1"
					}).
					Return(m)
				m.On("Where", "document_id = ?", []interface{}{"doc-1"}).Return(m)
				m.On("Delete", mock.AnythingOfType("*models.AnalysisRecord"), mock.Anything).Return(m)
				m.On("Delete", mock.AnythingOfType("*models.ChatMessage"), mock.Anything).Return(m)
				m.On("Delete", mock.AnythingOfType("*models.Document"), mock.Anything).Return(m)
				m.On("Error").Return(nil)
			},
			action: func(s *TestDocumentService) error {
				return s.DeleteDocument("doc-1")
			},
			wantErr: false,
			assertions: func(t *testing.T, m *MockDB) {
				m.AssertExpectations(t)
				m.AssertCalled(t, "Delete", mock.AnythingOfType("*models.AnalysisRecord"), mock.Anything)
				m.AssertCalled(t, "Delete", mock.AnythingOfType("*models.ChatMessage"), mock.Anything)
			},
		},
		{
			name: "SaveAnalysisRecord - DB Error Surfaces",
			setup: func(m *MockDB) {
				m.On("Create", mock.AnythingOfType("*models.AnalysisRecord")).Return(m)
				m.On("Error").Return(errors.New("insert failed"))
			},
			action: func(s *TestDocumentService) error {
				return s.SaveAnalysisRecord(&model.AnalysisRecord{DocumentID: "doc-1"})
			},
			wantErr: true,
			assertions: func(t *testing.T, m *MockDB) {
				m.AssertExpectations(t)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB := &MockDB{}
			tt.setup(mockDB)
			svc := &TestDocumentService{db: mockDB}

			err := tt.action(svc)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			tt.assertions(t, mockDB)
		})
	}
}

func TestExportAnalysisReportUnconfigured(t *testing.T) {
	// No S3 client wired: export must refuse before touching the database
	// or the provider.
	svc := &DocumentService{}
	url, err := svc.ExportAnalysisReport("doc-1")
	assert.ErrorIs(t, err, ErrExportUnavailable)
	assert.Empty(t, url)
}

func TestNewDocumentServiceRequiresDB(t *testing.T) {
	_, err := NewDocumentService(nil)
	assert.Error(t, err)
}
