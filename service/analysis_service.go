package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	model "github.com/consentlens/backend/models"
	"gorm.io/datatypes"
)

// AnalysisRequest is the body of POST /analyze. DocumentID is optional; when
// present the outcome is also persisted against that document.
type AnalysisRequest struct {
	Content    string `json:"content"`
	LawRegion  string `json:"lawRegion"`
	DocumentID string `json:"documentId"`
}

// Recommendation is one remediation suggestion in an analysis result.
type Recommendation struct {
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	Severity            string   `json:"severity"`
	Category            string   `json:"category"`
	ImplementationSteps []string `json:"implementationSteps,omitempty"`
}

// AnalysisResult is the structured compliance analysis returned to the caller.
// It is either the genuine parsed model output, the canned fallback (Fallback
// set, optionally annotated with the last provider status/body), or a degraded
// shape carrying the raw model text in TextualAnalysis.
type AnalysisResult struct {
	ComplianceScore *int             `json:"complianceScore"`
	RiskLevel       string           `json:"riskLevel"`
	KeyPoints       []string         `json:"keyPoints"`
	Recommendations []Recommendation `json:"recommendations"`
	TextualAnalysis string           `json:"textualAnalysis,omitempty"`
	Fallback        bool             `json:"fallback,omitempty"`
	GroqStatus      int              `json:"groqStatus,omitempty"`
	GroqBody        string           `json:"groqBody,omitempty"`
}

// ErrMissingFields is returned when content or lawRegion is absent; no
// provider call is attempted.
var ErrMissingFields = errors.New("missing content or lawRegion")

// UpstreamError is returned instead of the canned fallback when
// SurfaceErrors is enabled and the provider never produced a usable response.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("analysis provider failed with status %d", e.Status)
}

// AnalysisStore is the slice of the data layer the pipeline needs: a single
// best-effort insert of the computed record.
type AnalysisStore interface {
	SaveAnalysisRecord(rec *model.AnalysisRecord) error
}

// AnalysisService runs the document-analysis request pipeline. Each Analyze
// call is independent and stateless; retries within one call are sequential.
type AnalysisService struct {
	cfg    ProviderConfig
	store  AnalysisStore
	client *http.Client
	// sleep is time.Sleep in production; tests swap it to record the
	// retry delays instead of waiting them out.
	sleep func(time.Duration)
}

// NewAnalysisService wires the pipeline with its provider settings and the
// store used for best-effort persistence.
func NewAnalysisService(cfg ProviderConfig, store AnalysisStore) *AnalysisService {
	return &AnalysisService{
		cfg:    cfg,
		store:  store,
		client: &http.Client{Timeout: 30 * time.Second},
		sleep:  time.Sleep,
	}
}

const (
	// maxAttempts bounds the primary-model retry loop.
	maxAttempts = 4
	// backoffBase doubles per attempt on 5xx responses: 2s, 4s, 8s.
	backoffBase = 2 * time.Second
	// maxPromptChars bounds the document prefix embedded in the prompt,
	// keeping the request inside the provider's context window.
	maxPromptChars = 12000
)

var lawRegionLabels = map[string]string{
	"gdpr":  "GDPR (EU)",
	"ccpa":  "CCPA (California)",
	"dpdpa": "DPDPA (India)",
}

// Analyze turns a document plus jurisdiction into a compliance analysis,
// absorbing transient upstream failures. The only error returns are
// ErrMissingFields and, when SurfaceErrors is set, *UpstreamError.
func (s *AnalysisService) Analyze(req AnalysisRequest) (*AnalysisResult, error) {
	if strings.TrimSpace(req.Content) == "" || strings.TrimSpace(req.LawRegion) == "" {
		return nil, ErrMissingFields
	}

	if !s.cfg.Configured() {
		log.Println("[Analyze] no provider credential configured, serving canned analysis")
		result := fallbackResult(0, "")
		s.persist(req.DocumentID, result)
		return result, nil
	}

	prompt := buildAnalysisPrompt(req.Content, req.LawRegion)

	reply := s.callWithRetries(prompt)
	if reply.outcome == outcomeNotFound {
		// Unknown model upstream: one shot on the fallback model, no
		// further retries, and whatever it returns is final.
		log.Printf("[Analyze] model %s unknown upstream, retrying once with %s", s.cfg.Model, s.cfg.FallbackModel)
		reply = s.callProvider(s.cfg.FallbackModel, prompt)
	}

	if reply.outcome == outcomeSuccess {
		result := parseAnalysis(reply.body)
		s.persist(req.DocumentID, result)
		return result, nil
	}

	if s.cfg.SurfaceErrors && reply.outcome != outcomeNetworkFailure {
		return nil, &UpstreamError{Status: reply.status, Body: string(reply.body)}
	}

	log.Printf("[Analyze] provider unavailable (status %d), serving canned analysis", reply.status)
	result := fallbackResult(reply.status, string(reply.body))
	s.persist(req.DocumentID, result)
	return result, nil
}

// callWithRetries drives the retry state machine against the primary model.
// 2xx, 404, other 4xx and transport failures all terminate the loop; 429
// waits per the provider's hint, 5xx waits with exponential backoff.
func (s *AnalysisService) callWithRetries(prompt string) providerReply {
	var reply providerReply
	for attempt := 0; attempt < maxAttempts; attempt++ {
		reply = s.callProvider(s.cfg.Model, prompt)
		switch reply.outcome {
		case outcomeSuccess, outcomeNotFound, outcomeClientError, outcomeNetworkFailure:
			return reply
		case outcomeRateLimited:
			if attempt < maxAttempts-1 {
				log.Printf("[Analyze] rate limited (attempt %d/%d), waiting %v", attempt+1, maxAttempts, reply.retryAfter)
				s.sleep(reply.retryAfter)
			}
		case outcomeServerError:
			if attempt < maxAttempts-1 {
				wait := backoffBase << attempt
				log.Printf("[Analyze] provider error %d (attempt %d/%d), backing off %v", reply.status, attempt+1, maxAttempts, wait)
				s.sleep(wait)
			}
		}
	}
	return reply
}

// truncateContent bounds the document prefix embedded in prompts, backing up
// to a rune boundary so a multi-byte character is never split.
func truncateContent(content string) string {
	if len(content) <= maxPromptChars {
		return content
	}
	cut := maxPromptChars
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}

// buildAnalysisPrompt embeds a bounded prefix of the document in the
// instruction prompt and spells out the JSON shape the model must return.
func buildAnalysisPrompt(content, lawRegion string) string {
	content = truncateContent(content)
	label, ok := lawRegionLabels[strings.ToLower(strings.TrimSpace(lawRegion))]
	if !ok {
		label = lawRegion
	}

	return fmt.Sprintf(`You are a privacy-law compliance analyst. Analyze the following legal document for compliance with %s.

Document Text:
%s

Instructions:
1. Judge how privacy-protective the document is for an end user under %s.
2. Respond with a single JSON object and nothing else.
3. Use exactly this shape:
{
    "complianceScore": <integer 0-100>,
    "riskLevel": "<low|medium|high>",
    "keyPoints": ["<finding>", ...],
    "recommendations": [
        {"title": "<short title>", "description": "<what to change and why>", "severity": "<low|medium|high>", "category": "<e.g. data retention, consent, third-party sharing>", "implementationSteps": ["<step>", ...]}
    ]
}`, label, content, label)
}

// parseAnalysis extracts the first choice's message text and parses it as an
// AnalysisResult. Prose instead of JSON yields the degraded shape carrying
// the raw text; it is never an error.
func parseAnalysis(body []byte) *AnalysisResult {
	var envelope struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Choices) == 0 {
		log.Printf("[Analyze] unexpected provider envelope: %v", err)
		return degradedResult(strings.TrimSpace(string(body)))
	}

	raw := strings.TrimSpace(envelope.Choices[0].Message.Content)
	var result AnalysisResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		log.Printf("[Analyze] model returned prose instead of JSON: %v", err)
		return degradedResult(raw)
	}

	if result.KeyPoints == nil {
		result.KeyPoints = []string{}
	}
	if result.Recommendations == nil {
		result.Recommendations = []Recommendation{}
	}
	if result.RiskLevel == "" {
		result.RiskLevel = "unknown"
	}
	return &result
}

func degradedResult(raw string) *AnalysisResult {
	return &AnalysisResult{
		RiskLevel:       "unknown",
		KeyPoints:       []string{},
		Recommendations: []Recommendation{},
		TextualAnalysis: raw,
	}
}

// fallbackResult is the fixed canned analysis served when the provider is
// unconfigured or unreachable. A non-zero status annotates the result with
// the last observed provider status and body for observability.
func fallbackResult(status int, body string) *AnalysisResult {
	score := 65
	result := &AnalysisResult{
		ComplianceScore: &score,
		RiskLevel:       "medium",
		KeyPoints: []string{
			"Automated analysis was unavailable; this is a generic assessment.",
			"The document should be reviewed for data collection and retention disclosures.",
			"Verify that user rights (access, deletion, portability) are clearly described.",
			"Check whether third-party sharing and processors are disclosed.",
		},
		Recommendations: []Recommendation{
			{
				Title:       "Re-run the analysis",
				Description: "The analysis provider was unavailable. Re-run the analysis to get document-specific findings.",
				Severity:    "low",
				Category:    "process",
			},
			{
				Title:       "Review consent language manually",
				Description: "Confirm the document obtains informed consent before collecting personal data.",
				Severity:    "medium",
				Category:    "consent",
			},
		},
		Fallback: true,
	}
	if status != 0 {
		result.GroqStatus = status
		result.GroqBody = body
	}
	return result
}

// persist writes the analysis against the document when an id was supplied.
// Failures are logged and never propagate; the computed result is already
// final by the time this runs.
func (s *AnalysisService) persist(documentID string, result *AnalysisResult) {
	if documentID == "" || s.store == nil {
		return
	}

	keyPoints, err := json.Marshal(result.KeyPoints)
	if err != nil {
		log.Printf("[Analyze] ERROR marshaling key points for document %s: %v", documentID, err)
		return
	}
	recommendations, err := json.Marshal(result.Recommendations)
	if err != nil {
		log.Printf("[Analyze] ERROR marshaling recommendations for document %s: %v", documentID, err)
		return
	}

	rec := &model.AnalysisRecord{
		DocumentID:      documentID,
		ComplianceScore: result.ComplianceScore,
		RiskLevel:       result.RiskLevel,
		KeyPoints:       datatypes.JSON(keyPoints),
		Recommendations: datatypes.JSON(recommendations),
		TextualAnalysis: result.TextualAnalysis,
		Fallback:        result.Fallback,
		CreatedAt:       time.Now(),
	}
	if err := s.store.SaveAnalysisRecord(rec); err != nil {
		log.Printf("[Analyze] failed to persist analysis for document %s: %v", documentID, err)
		return
	}
	log.Printf("[Analyze] analysis persisted for document %s", documentID)
}
