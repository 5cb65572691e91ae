// Package provider contains the evidence-provider adapters and the
// registry that selects which of them serve a given claim. Every adapter
// declares a static relevance predicate over (domain tag, jurisdiction);
// registration happens once at initialization time, never via reflection.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rmartin/veracity/internal/model"
	"github.com/rmartin/veracity/internal/resilience"
	"github.com/rmartin/veracity/internal/util"
)

// Provider is a single evidence source.
type Provider interface {
	// Name returns the unique provider name.
	Name() string

	// Kind classifies the provider (web, domain-api, factcheck).
	Kind() model.ProviderKind

	// Matches is the static relevance predicate over claim metadata.
	Matches(domainTag, jurisdiction string) bool

	// TTL is how long this provider's responses stay valid in the cache.
	TTL() time.Duration

	// Search retrieves candidate evidence for the claim. Implementations
	// return raw items: credibility and relevance scoring happens in the
	// retriever.
	Search(ctx context.Context, claim model.Claim) ([]model.EvidenceItem, error)
}

// HTTPOptions is the shared outbound HTTP configuration for adapters.
type HTTPOptions struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int64
	HTTPProxy    string
	HTTPSProxy   string
	NoProxy      string
}

func (o HTTPOptions) client() *http.Client {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(o.HTTPProxy, o.HTTPSProxy, o.NoProxy),
		},
	}
}

// getJSON performs a GET and decodes the JSON response into out, mapping
// failures onto the resilience error taxonomy so the retry policy can
// classify them.
func getJSON(ctx context.Context, client *http.Client, providerName, rawURL, userAgent string, maxBytes int64, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return mapNetErr(providerName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &resilience.ProviderError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Message:    resp.Status,
		}
	}

	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return mapNetErr(providerName, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &resilience.ProviderError{
			Provider: providerName,
			Message:  fmt.Sprintf("decode response: %v", err),
		}
	}
	return nil
}

// mapNetErr converts transport errors into the taxonomy: deadline and
// timeout failures become ErrProviderTimeout, the rest stay wrapped.
func mapNetErr(providerName string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", providerName, resilience.ErrProviderTimeout)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%s: %w", providerName, resilience.ErrProviderTimeout)
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return fmt.Errorf("%s: %w", providerName, resilience.ErrProviderTimeout)
	}
	return fmt.Errorf("%s: %w", providerName, err)
}
