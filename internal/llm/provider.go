// Package llm exposes the inference and language-understanding models as
// opaque scoring services. The pipeline only ever sees two narrow calls:
// Infer, which labels a (claim, evidence) pair, and Generate, which
// produces free text from a prompt. Retry, timeout, and fallback logic
// live with the callers, not here.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rmartin/veracity/internal/model"
)

// InferRequest is the input to a stance-inference call.
type InferRequest struct {
	ClaimText    string
	EvidenceText string
}

// InferResult is the stance label and confidence a model returned for one
// (claim, evidence) pair.
type InferResult struct {
	Label      model.StanceLabel
	Confidence float64
}

// GenerateRequest is the input to a free-text generation call.
type GenerateRequest struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Provider is a scoring backend. Implementations must be safe for
// concurrent use.
type Provider interface {
	// Name returns the provider name (openai, anthropic, ollama).
	Name() string

	// Infer labels the relationship between a claim and one evidence text.
	Infer(ctx context.Context, req InferRequest) (*InferResult, error)

	// Generate produces free text from a prompt.
	Generate(ctx context.Context, req GenerateRequest) (string, error)

	// IsAvailable checks that the backend is configured and reachable.
	IsAvailable(ctx context.Context) bool
}

// Config holds backend configuration.
type Config struct {
	Provider   string // openai, anthropic, ollama, "" (disabled)
	Model      string
	APIKey     string
	BaseURL    string
	Timeout    int // seconds
	MaxTokens  int
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// ConfigFromModel converts the viper-backed config section.
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:   mc.Provider,
		Model:      mc.Model,
		APIKey:     mc.APIKey,
		BaseURL:    mc.BaseURL,
		Timeout:    mc.Timeout,
		MaxTokens:  mc.MaxTokens,
		HTTPProxy:  mc.HTTPProxy,
		HTTPSProxy: mc.HTTPSProxy,
		NoProxy:    mc.NoProxy,
	}
}

const stanceSystemPrompt = "You are a stance-detection service. Given a claim and an evidence " +
	"snippet, decide whether the evidence supports the claim, contradicts it, or is neutral. " +
	"Respond with a single JSON object: {\"label\": \"supports|contradicts|neutral\", \"confidence\": 0.0-1.0}. " +
	"No prose, no markdown."

// BuildInferPrompt renders the user message for a stance-inference call.
func BuildInferPrompt(req InferRequest) string {
	return fmt.Sprintf("Claim: %s\n\nEvidence: %s", req.ClaimText, req.EvidenceText)
}

// stancePayload is the JSON shape models are instructed to return.
type stancePayload struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ParseStance extracts the stance JSON object from model output,
// tolerating surrounding prose or markdown fences.
func ParseStance(text string) (*InferResult, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in stance response: %q", truncateForError(text))
	}

	var payload stancePayload
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("decode stance response: %w", err)
	}

	label, err := normalizeLabel(payload.Label)
	if err != nil {
		return nil, err
	}
	conf := payload.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return &InferResult{Label: label, Confidence: conf}, nil
}

func normalizeLabel(raw string) (model.StanceLabel, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "supports", "support", "entailment", "entails":
		return model.StanceSupports, nil
	case "contradicts", "contradict", "contradiction", "refutes":
		return model.StanceContradicts, nil
	case "neutral", "unrelated", "insufficient":
		return model.StanceNeutral, nil
	default:
		return "", fmt.Errorf("unknown stance label %q", raw)
	}
}

func truncateForError(s string) string {
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
