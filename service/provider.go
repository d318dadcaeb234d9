package services

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ProviderConfig carries the remote completion provider settings. It is read
// from the environment once at startup and passed into NewAnalysisService, so
// the retry policy can be exercised against fake endpoints in tests.
type ProviderConfig struct {
	APIKey        string
	Endpoint      string
	Model         string
	FallbackModel string
	// SurfaceErrors switches exhausted-retry handling from the canned
	// fallback result to an UpstreamError the controller turns into a 502.
	SurfaceErrors bool
}

const (
	defaultEndpoint      = "https://api.groq.com/openai/v1/chat/completions"
	defaultModel         = "llama-3.3-70b-versatile"
	defaultFallbackModel = "llama-3.1-8b-instant"
)

// LoadProviderConfig reads the provider settings from the environment,
// falling back to the Groq defaults for everything but the key.
func LoadProviderConfig() ProviderConfig {
	cfg := ProviderConfig{
		APIKey:        strings.TrimSpace(os.Getenv("GROQ_API_KEY")),
		Endpoint:      os.Getenv("GROQ_API_URL"),
		Model:         os.Getenv("GROQ_MODEL"),
		FallbackModel: os.Getenv("GROQ_FALLBACK_MODEL"),
		SurfaceErrors: os.Getenv("SURFACE_UPSTREAM_ERRORS") == "true",
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.FallbackModel == "" {
		cfg.FallbackModel = defaultFallbackModel
	}
	return cfg
}

// Configured reports whether an API credential is present. Without one the
// pipeline never makes a network call and serves the canned result instead.
func (c ProviderConfig) Configured() bool {
	return c.APIKey != ""
}

// providerOutcome classifies one provider call for the retry state machine.
type providerOutcome int

const (
	outcomeSuccess providerOutcome = iota
	outcomeRateLimited
	outcomeServerError
	outcomeClientError
	outcomeNotFound
	outcomeNetworkFailure
)

// providerReply is the result of a single provider call. retryAfter is only
// meaningful for outcomeRateLimited.
type providerReply struct {
	outcome    providerOutcome
	status     int
	body       []byte
	retryAfter time.Duration
}

const defaultRetryDelay = 5 * time.Second

// Groq embeds the suggested wait in rate-limit error bodies,
// e.g. "Please try again in 7.66s".
var retryInBodyPattern = regexp.MustCompile(`try again in ([0-9]*\.?[0-9]+)s`)

// retryHint picks the wait before the next attempt after a 429. Priority:
// Retry-After header, then the "try again in Ns" body message (rounded up to
// whole seconds), then a fixed default.
func retryHint(header http.Header, body []byte) time.Duration {
	if v := strings.TrimSpace(header.Get("Retry-After")); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	if m := retryInBodyPattern.FindSubmatch(body); m != nil {
		if secs, err := strconv.ParseFloat(string(m[1]), 64); err == nil && secs >= 0 {
			return time.Duration(math.Ceil(secs)) * time.Second
		}
	}
	return defaultRetryDelay
}

// callProvider performs one chat-completion request and classifies the reply.
// A transport-level error maps to outcomeNetworkFailure; the caller treats
// that as fatal for the whole pipeline, not as a retryable status.
func (s *AnalysisService) callProvider(model, prompt string) providerReply {
	reqBody, err := json.Marshal(map[string]interface{}{
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"model":       model,
		"temperature": 0.2,
		"max_tokens":  2048,
	})
	if err != nil {
		log.Printf("[provider] ERROR creating request body: %v", err)
		return providerReply{outcome: outcomeNetworkFailure}
	}

	req, err := http.NewRequest("POST", s.cfg.Endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		log.Printf("[provider] ERROR creating request: %v", err)
		return providerReply{outcome: outcomeNetworkFailure}
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[provider] request failed: %v", err)
		return providerReply{outcome: outcomeNetworkFailure}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[provider] ERROR reading response body: %v", err)
		return providerReply{outcome: outcomeNetworkFailure}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return providerReply{outcome: outcomeSuccess, status: resp.StatusCode, body: body}
	case resp.StatusCode == http.StatusTooManyRequests:
		return providerReply{
			outcome:    outcomeRateLimited,
			status:     resp.StatusCode,
			body:       body,
			retryAfter: retryHint(resp.Header, body),
		}
	case resp.StatusCode == http.StatusNotFound:
		return providerReply{outcome: outcomeNotFound, status: resp.StatusCode, body: body}
	case resp.StatusCode >= 500:
		return providerReply{outcome: outcomeServerError, status: resp.StatusCode, body: body}
	default:
		return providerReply{outcome: outcomeClientError, status: resp.StatusCode, body: body}
	}
}
