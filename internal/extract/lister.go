// Package extract turns free text into a list of checkable claims for
// the verification pipeline. A language model does the extraction when
// one is configured; a keyword heuristic over sentences is the
// fallback, so extraction works offline.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/rmartin/veracity/internal/llm"
	"github.com/rmartin/veracity/internal/model"
)

const extractSystemPrompt = `You extract verifiable factual claims from text. Respond with a JSON array only:
[{"text": "...", "key_entities": ["..."], "is_time_sensitive": false, "numeric_tolerance": null}]
Include only claims that could be checked against external sources. Set numeric_tolerance to a number when the claim states a measured value.`

// factual-claim indicators for the heuristic path.
var claimKeywords = []string{
	"according to", "rose to", "fell to", "increased", "decreased",
	"reached", "reported", "announced", "found that", "shows that",
	"per cent", "percent", "estimated", "recorded", "measured",
	"is the largest", "is the first", "was founded", "was established",
}

var timeSensitiveKeywords = []string{
	"last month", "last year", "last quarter", "this year", "this month",
	"latest", "currently", "recently", "so far this", "year to date",
	"in january", "in february", "in march", "in april", "in may",
	"in june", "in july", "in august", "in september", "in october",
	"in november", "in december",
}

var sentenceBounds = struct{ min, max int }{min: 30, max: 500}

// Lister extracts claims from text.
type Lister struct {
	provider  llm.Provider
	maxClaims int
}

// NewLister builds a lister. A nil provider selects the heuristic path.
func NewLister(provider llm.Provider, maxClaims int) *Lister {
	if maxClaims <= 0 {
		maxClaims = 20
	}
	return &Lister{provider: provider, maxClaims: maxClaims}
}

// Annotate fills in heuristic metadata for a claim supplied directly by
// the caller rather than extracted from a document.
func Annotate(c model.Claim) model.Claim {
	if len(c.KeyEntities) == 0 {
		c.KeyEntities = keyEntities(c.Text)
	}
	c.IsTimeSensitive = c.IsTimeSensitive || isTimeSensitive(strings.ToLower(c.Text))
	return c
}

// ListClaims extracts claims from the text. Positions are assigned in
// document order after deduplication.
func (l *Lister) ListClaims(ctx context.Context, text string) ([]model.Claim, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	var claims []model.Claim
	if l.provider != nil {
		extracted, err := l.modelClaims(ctx, text)
		if err == nil {
			claims = extracted
		}
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("extract claims: %w", ctx.Err())
		}
	}
	if claims == nil {
		claims = l.heuristicClaims(text)
	}

	claims = dedupe(claims)
	if len(claims) > l.maxClaims {
		claims = claims[:l.maxClaims]
	}
	for i := range claims {
		claims[i].Position = i
	}
	return claims, nil
}

type extractedClaim struct {
	Text             string   `json:"text"`
	KeyEntities      []string `json:"key_entities"`
	IsTimeSensitive  bool     `json:"is_time_sensitive"`
	NumericTolerance *float64 `json:"numeric_tolerance"`
}

func (l *Lister) modelClaims(ctx context.Context, text string) ([]model.Claim, error) {
	raw, err := l.provider.Generate(ctx, llm.GenerateRequest{
		System: extractSystemPrompt,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("generate claim list: %w", err)
	}

	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var extracted []extractedClaim
	if err := json.Unmarshal([]byte(raw[start:end+1]), &extracted); err != nil {
		return nil, fmt.Errorf("parse claim list: %w", err)
	}

	claims := make([]model.Claim, 0, len(extracted))
	for _, e := range extracted {
		t := strings.TrimSpace(e.Text)
		if t == "" {
			continue
		}
		claims = append(claims, model.Claim{
			Text:             t,
			KeyEntities:      e.KeyEntities,
			IsTimeSensitive:  e.IsTimeSensitive,
			NumericTolerance: e.NumericTolerance,
			Heuristic:        "llm",
		})
	}
	return claims, nil
}

// heuristicClaims splits the text into sentences and keeps the ones
// that read like checkable statements.
func (l *Lister) heuristicClaims(text string) []model.Claim {
	var claims []model.Claim
	for _, sentence := range splitSentences(text) {
		lower := strings.ToLower(sentence)
		matched := ""
		for _, kw := range claimKeywords {
			if strings.Contains(lower, kw) {
				matched = kw
				break
			}
		}
		if matched == "" {
			continue
		}
		claims = append(claims, model.Claim{
			Text:            sentence,
			KeyEntities:     keyEntities(sentence),
			IsTimeSensitive: isTimeSensitive(lower),
			Heuristic:       "keyword:" + matched,
		})
	}
	return claims
}

// splitSentences breaks text on sentence terminators, keeping only
// sentences of plausible claim length.
func splitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var current strings.Builder
	for i, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i+1 < len(text) && text[i+1] != ' ' && text[i+1] != '\t' {
				continue // mid-token period, likely an abbreviation or decimal
			}
			keepSentence(&sentences, &current)
		}
	}
	keepSentence(&sentences, &current)
	return sentences
}

func keepSentence(sentences *[]string, current *strings.Builder) {
	s := strings.TrimSpace(current.String())
	current.Reset()
	if len(s) >= sentenceBounds.min && len(s) <= sentenceBounds.max {
		*sentences = append(*sentences, s)
	}
}

var entityPattern = regexp.MustCompile(`\b(?:[A-Z][a-zA-Z]+|[A-Z]{2,})(?:\s+(?:[A-Z][a-zA-Z]+|[A-Z]{2,}|of|for|the))*`)

// keyEntities captures capitalized spans as candidate entities,
// dropping sentence-initial words that are only capitalized by position.
func keyEntities(sentence string) []string {
	matches := entityPattern.FindAllStringIndex(sentence, -1)
	var out []string
	seen := map[string]bool{}
	for _, m := range matches {
		span := strings.TrimSpace(sentence[m[0]:m[1]])
		span = strings.TrimSuffix(span, " of")
		span = strings.TrimSuffix(span, " for")
		span = strings.TrimSuffix(span, " the")
		if m[0] == 0 && !isAcronym(span) && !strings.Contains(span, " ") {
			continue
		}
		if len(span) < 2 || seen[strings.ToLower(span)] {
			continue
		}
		seen[strings.ToLower(span)] = true
		out = append(out, span)
	}
	return out
}

func isAcronym(s string) bool {
	if len(s) < 2 {
		return false
	}
	for _, r := range s {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func isTimeSensitive(lower string) bool {
	for _, kw := range timeSensitiveKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func dedupe(claims []model.Claim) []model.Claim {
	seen := make(map[string]bool, len(claims))
	out := claims[:0]
	for _, c := range claims {
		key := strings.ToLower(strings.TrimSpace(c.Text))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
