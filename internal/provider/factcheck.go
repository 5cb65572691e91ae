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

// FactCheck queries a ClaimReview-style fact-check aggregation API.
// Items of this kind bypass the retriever's credibility floor: a
// low-authority publisher's explicit fact-check is still signal.
type FactCheck struct {
	baseURL    string
	apiKey     string
	ttl        time.Duration
	httpClient *http.Client
	opts       HTTPOptions
}

type claimReviewResponse struct {
	Claims []struct {
		Text        string `json:"text"`
		Claimant    string `json:"claimant"`
		ClaimDate   string `json:"claimDate"`
		ClaimReview []struct {
			Publisher struct {
				Name string `json:"name"`
				Site string `json:"site"`
			} `json:"publisher"`
			URL           string `json:"url"`
			Title         string `json:"title"`
			ReviewDate    string `json:"reviewDate"`
			TextualRating string `json:"textualRating"`
		} `json:"claimReview"`
	} `json:"claims"`
}

// NewFactCheck creates the fact-check aggregation adapter.
func NewFactCheck(baseURL, apiKey string, ttl time.Duration, opts HTTPOptions) *FactCheck {
	return &FactCheck{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		ttl:        ttl,
		httpClient: opts.client(),
		opts:       opts,
	}
}

func (f *FactCheck) Name() string                                { return "factcheck" }
func (f *FactCheck) Kind() model.ProviderKind                    { return model.KindFactCheck }
func (f *FactCheck) TTL() time.Duration                          { return f.ttl }
func (f *FactCheck) Matches(domainTag, jurisdiction string) bool { return true }

func (f *FactCheck) Search(ctx context.Context, claim model.Claim) ([]model.EvidenceItem, error) {
	q := url.Values{}
	q.Set("query", claim.Text)
	q.Set("languageCode", "en")
	if f.apiKey != "" {
		q.Set("key", f.apiKey)
	}
	endpoint := fmt.Sprintf("%s/v1beta1/claims:search?%s", f.baseURL, q.Encode())

	var resp claimReviewResponse
	if err := getJSON(ctx, f.httpClient, f.Name(), endpoint, f.opts.UserAgent, f.opts.MaxBodyBytes, &resp); err != nil {
		return nil, err
	}

	var items []model.EvidenceItem
	for _, c := range resp.Claims {
		for _, review := range c.ClaimReview {
			if review.URL == "" {
				continue
			}
			text := c.Text
			if review.TextualRating != "" {
				text = fmt.Sprintf("%s — rated %q by %s", c.Text, review.TextualRating, review.Publisher.Name)
			}
			item := model.EvidenceItem{
				Text:       text,
				SourceName: review.Publisher.Name,
				URL:        review.URL,
				Kind:       model.KindFactCheck,
				DomainTag:  "factcheck",
			}
			if item.SourceName == "" {
				item.SourceName = review.Publisher.Site
			}
			if t := parseLooseDate(review.ReviewDate); t != nil {
				item.PublishedAt = t
			}
			items = append(items, item)
		}
	}
	return items, nil
}
