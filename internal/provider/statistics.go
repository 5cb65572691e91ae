package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rmartin/veracity/internal/model"
)

// Statistics queries the ONS-style official statistics search API. The
// data is near-static reference material, so it carries the longest
// cache TTL of any adapter.
type Statistics struct {
	baseURL    string
	ttl        time.Duration
	limit      int
	httpClient *http.Client
	opts       HTTPOptions

	domains       map[string]bool
	jurisdictions map[string]bool
}

type onsSearchResponse struct {
	Items []struct {
		Description struct {
			Title       string `json:"title"`
			Summary     string `json:"summary"`
			ReleaseDate string `json:"releaseDate"`
		} `json:"description"`
		URI string `json:"uri"`
	} `json:"items"`
}

// NewStatistics creates the official-statistics adapter.
func NewStatistics(baseURL string, ttl time.Duration, opts HTTPOptions) *Statistics {
	return &Statistics{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		ttl:        ttl,
		limit:      5,
		httpClient: opts.client(),
		opts:       opts,
		domains: map[string]bool{
			"economics":  true,
			"statistics": true,
			"health":     true,
		},
		jurisdictions: map[string]bool{
			"uk":               true,
			model.JurisdictionGlobal: true,
		},
	}
}

func (s *Statistics) Name() string             { return "ons" }
func (s *Statistics) Kind() model.ProviderKind { return model.KindDomainAPI }
func (s *Statistics) TTL() time.Duration       { return s.ttl }

// Matches serves economic, statistical, and health claims with UK or
// global jurisdiction.
func (s *Statistics) Matches(domainTag, jurisdiction string) bool {
	return s.domains[strings.ToLower(domainTag)] && s.jurisdictions[strings.ToLower(jurisdiction)]
}

func (s *Statistics) Search(ctx context.Context, claim model.Claim) ([]model.EvidenceItem, error) {
	q := url.Values{}
	q.Set("q", claim.Text)
	q.Set("limit", fmt.Sprintf("%d", s.limit))
	endpoint := fmt.Sprintf("%s/v1/search?%s", s.baseURL, q.Encode())

	var resp onsSearchResponse
	if err := getJSON(ctx, s.httpClient, s.Name(), endpoint, s.opts.UserAgent, s.opts.MaxBodyBytes, &resp); err != nil {
		return nil, err
	}

	items := make([]model.EvidenceItem, 0, len(resp.Items))
	for _, res := range resp.Items {
		text := res.Description.Summary
		if text == "" {
			text = res.Description.Title
		}
		if text == "" || res.URI == "" {
			continue
		}
		item := model.EvidenceItem{
			Text:       text,
			SourceName: "Office for National Statistics",
			URL:        "https://www.ons.gov.uk" + res.URI,
			Kind:       model.KindDomainAPI,
			DomainTag:  "statistics",
		}
		if t := parseLooseDate(res.Description.ReleaseDate); t != nil {
			item.PublishedAt = t
		}
		items = append(items, item)
	}
	return items, nil
}
