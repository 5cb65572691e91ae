package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rmartin/veracity/internal/model"
)

// WebSearch is the generic web-search provider. It matches every claim
// and queries a SearxNG-compatible JSON endpoint.
type WebSearch struct {
	baseURL    string
	ttl        time.Duration
	maxResults int
	httpClient *http.Client
	opts       HTTPOptions
}

type searxResponse struct {
	Results []struct {
		Title         string `json:"title"`
		URL           string `json:"url"`
		Content       string `json:"content"`
		PublishedDate string `json:"publishedDate"`
		Engine        string `json:"engine"`
	} `json:"results"`
}

// NewWebSearch creates the generic search adapter.
func NewWebSearch(baseURL string, ttl time.Duration, opts HTTPOptions) *WebSearch {
	return &WebSearch{
		baseURL:    baseURL,
		ttl:        ttl,
		maxResults: 10,
		httpClient: opts.client(),
		opts:       opts,
	}
}

func (w *WebSearch) Name() string             { return "web" }
func (w *WebSearch) Kind() model.ProviderKind { return model.KindWeb }
func (w *WebSearch) TTL() time.Duration       { return w.ttl }

// Matches always returns true: the generic provider serves every claim.
func (w *WebSearch) Matches(domainTag, jurisdiction string) bool { return true }

func (w *WebSearch) Search(ctx context.Context, claim model.Claim) ([]model.EvidenceItem, error) {
	q := url.Values{}
	q.Set("q", claim.Text)
	q.Set("format", "json")
	endpoint := fmt.Sprintf("%s/search?%s", w.baseURL, q.Encode())

	var resp searxResponse
	if err := getJSON(ctx, w.httpClient, w.Name(), endpoint, w.opts.UserAgent, w.opts.MaxBodyBytes, &resp); err != nil {
		return nil, err
	}

	items := make([]model.EvidenceItem, 0, len(resp.Results))
	for i, res := range resp.Results {
		if i >= w.maxResults {
			break
		}
		if res.URL == "" || res.Content == "" {
			continue
		}
		item := model.EvidenceItem{
			Text:       res.Content,
			SourceName: sourceNameFromURL(res.URL, res.Title),
			URL:        res.URL,
			Kind:       model.KindWeb,
			DomainTag:  model.DomainGeneral,
		}
		if t := parseLooseDate(res.PublishedDate); t != nil {
			item.PublishedAt = t
		}
		items = append(items, item)
	}
	return items, nil
}

// parseLooseDate tries the date formats search engines actually emit.
func parseLooseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// sourceNameFromURL falls back to the host when a result has no title.
func sourceNameFromURL(rawURL, title string) string {
	if title != "" {
		return title
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return parsed.Host
}
