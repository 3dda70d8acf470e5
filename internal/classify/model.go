package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ModelHaiku is the cost-efficient model; classification is a simple
// judgment call and does not need a stronger one.
const ModelHaiku = "claude-3-5-haiku-20241022"

// GetClassifierModel returns the model for classification, checking
// RAILYARD_MODEL env var first.
func GetClassifierModel() string {
	if model := os.Getenv("RAILYARD_MODEL"); model != "" {
		return model
	}
	return ModelHaiku
}

// ModelConfig configures the model-backed classifier.
type ModelConfig struct {
	APIKey            string
	Model             string
	MaxRetries        int           // default 3
	InitialBackoff    time.Duration // default 1s
	MaxBackoff        time.Duration // default 15s
	Timeout           time.Duration // per-request, default 30s
	RequestsPerSecond float64       // default 2
	MaxConcurrent     int64         // default 2
}

// DefaultModelConfig returns the default model classifier configuration.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Model:             GetClassifierModel(),
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        15 * time.Second,
		Timeout:           30 * time.Second,
		RequestsPerSecond: 2,
		MaxConcurrent:     2,
	}
}

// Model classifies work items by asking an LLM. Every call is rate
// limited and capped in concurrency; any failure falls back to the
// keyword classifier so assessments never block on the API.
type Model struct {
	client   *anthropic.Client
	model    string
	cfg      ModelConfig
	limiter  *rate.Limiter
	sem      *semaphore.Weighted
	fallback Classifier
}

// NewModel builds a model-backed classifier. The API key comes from the
// config or the ANTHROPIC_API_KEY environment variable.
func NewModel(cfg ModelConfig, fallback Classifier) (*Model, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}
	if cfg.Model == "" {
		cfg.Model = GetClassifierModel()
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = 1 * time.Second
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = 15 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.MaxConcurrent == 0 {
		cfg.MaxConcurrent = 2
	}
	if fallback == nil {
		fallback = NewKeyword()
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Model{
		client:   &client,
		model:    cfg.Model,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		sem:      semaphore.NewWeighted(cfg.MaxConcurrent),
		fallback: fallback,
	}, nil
}

// Name identifies the classifier in results and logs.
func (m *Model) Name() string { return "model:" + m.model }

const classifyPrompt = `Classify this work item for release planning.

Title: %s
Description: %s

Respond with ONLY a JSON object, no prose:
{"user_facing": bool, "integration": bool, "infrastructure": bool, "confidence": number}

user_facing: a user sees or touches the outcome directly.
integration: the work wires this system to another one.
infrastructure: enabling work with no direct user-visible outcome.
confidence: 0.0-1.0, how sure you are.`

// Classify asks the model, falling back to the keyword classifier when
// the call or the parse fails.
func (m *Model) Classify(title, description string) Classification {
	text, err := m.callWithRetry(context.Background(), fmt.Sprintf(classifyPrompt, title, description))
	if err != nil {
		return m.fallback.Classify(title, description)
	}

	var parsed struct {
		UserFacing     bool    `json:"user_facing"`
		Integration    bool    `json:"integration"`
		Infrastructure bool    `json:"infrastructure"`
		Confidence     float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &parsed); err != nil {
		return m.fallback.Classify(title, description)
	}

	confidence := parsed.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = 0.5
	}
	return Classification{
		UserFacing:     parsed.UserFacing,
		Integration:    parsed.Integration,
		Infrastructure: parsed.Infrastructure,
		Confidence:     confidence,
	}
}

// callWithRetry executes one prompt with rate limiting, a concurrency
// cap, and exponential backoff on transient failures.
func (m *Model) callWithRetry(ctx context.Context, prompt string) (string, error) {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("failed to acquire classifier slot: %w", err)
	}
	defer m.sem.Release(1)

	var lastErr error
	backoff := m.cfg.InitialBackoff

	for attempt := 0; attempt <= m.cfg.MaxRetries; attempt++ {
		if err := m.limiter.Wait(ctx); err != nil {
			return "", err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
		resp, err := m.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:     anthropic.Model(m.model),
			MaxTokens: int64(256),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		cancel()

		if err == nil {
			var text strings.Builder
			for _, block := range resp.Content {
				if block.Type == "text" {
					text.WriteString(block.Text)
				}
			}
			return text.String(), nil
		}

		lastErr = err
		if !isRetriable(err) {
			return "", err
		}
		if attempt == m.cfg.MaxRetries {
			break
		}

		select {
		case <-time.After(backoff):
			backoff = time.Duration(float64(backoff) * 2)
			if backoff > m.cfg.MaxBackoff {
				backoff = m.cfg.MaxBackoff
			}
		case <-ctx.Done():
			return "", fmt.Errorf("classification canceled during backoff: %w", ctx.Err())
		}
	}
	return "", fmt.Errorf("classification failed after %d attempts: %w", m.cfg.MaxRetries+1, lastErr)
}

// isRetriable reports whether the error is transient. Rate limits,
// server errors, and network hiccups are; auth failures are not.
func isRetriable(err error) bool {
	if err == nil {
		return false
	}
	if err == context.DeadlineExceeded {
		return true
	}
	errStr := err.Error()
	for _, marker := range []string{
		"429", "rate limit",
		"500", "502", "503", "504",
		"internal server error", "bad gateway",
		"service unavailable", "gateway timeout",
		"connection refused", "connection reset", "timeout",
	} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}

// stripCodeFences removes markdown fences the model sometimes wraps
// around JSON despite instructions.
func stripCodeFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
	}
	return strings.TrimSpace(cleaned)
}
