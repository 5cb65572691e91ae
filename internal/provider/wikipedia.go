package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rmartin/veracity/internal/model"
	"golang.org/x/net/html"
)

// Wikipedia queries the MediaWiki search API. It matches every domain:
// an encyclopedia is useful background for almost any claim, so it is
// registered as a domain-api adapter with a universal predicate.
type Wikipedia struct {
	baseURL    string
	ttl        time.Duration
	limit      int
	httpClient *http.Client
	opts       HTTPOptions
}

type mediawikiResponse struct {
	Query struct {
		Search []struct {
			Title     string `json:"title"`
			Snippet   string `json:"snippet"`
			Timestamp string `json:"timestamp"`
		} `json:"search"`
	} `json:"query"`
}

// NewWikipedia creates the encyclopedia adapter.
func NewWikipedia(baseURL string, ttl time.Duration, opts HTTPOptions) *Wikipedia {
	return &Wikipedia{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		ttl:        ttl,
		limit:      5,
		httpClient: opts.client(),
		opts:       opts,
	}
}

func (w *Wikipedia) Name() string                                { return "wikipedia" }
func (w *Wikipedia) Kind() model.ProviderKind                    { return model.KindDomainAPI }
func (w *Wikipedia) TTL() time.Duration                          { return w.ttl }
func (w *Wikipedia) Matches(domainTag, jurisdiction string) bool { return true }

func (w *Wikipedia) Search(ctx context.Context, claim model.Claim) ([]model.EvidenceItem, error) {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("list", "search")
	q.Set("srsearch", searchTerms(claim))
	q.Set("srlimit", fmt.Sprintf("%d", w.limit))
	q.Set("format", "json")
	endpoint := fmt.Sprintf("%s/w/api.php?%s", w.baseURL, q.Encode())

	var resp mediawikiResponse
	if err := getJSON(ctx, w.httpClient, w.Name(), endpoint, w.opts.UserAgent, w.opts.MaxBodyBytes, &resp); err != nil {
		return nil, err
	}

	items := make([]model.EvidenceItem, 0, len(resp.Query.Search))
	for _, res := range resp.Query.Search {
		text := StripHTML(res.Snippet)
		if text == "" {
			continue
		}
		item := model.EvidenceItem{
			Text:       text,
			SourceName: "Wikipedia: " + res.Title,
			URL:        fmt.Sprintf("%s/wiki/%s", w.baseURL, url.PathEscape(strings.ReplaceAll(res.Title, " ", "_"))),
			Kind:       model.KindDomainAPI,
			DomainTag:  "reference",
		}
		if t, err := time.Parse(time.RFC3339, res.Timestamp); err == nil {
			item.PublishedAt = &t
		}
		items = append(items, item)
	}
	return items, nil
}

// searchTerms prefers the claim's key entities when present; full claim
// sentences match poorly against article search.
func searchTerms(claim model.Claim) string {
	if len(claim.KeyEntities) > 0 {
		return strings.Join(claim.KeyEntities, " ")
	}
	return claim.Text
}

// StripHTML reduces an HTML fragment to its visible text. MediaWiki
// snippets arrive with <span class="searchmatch"> markup.
func StripHTML(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				if buf.Len() > 0 {
					buf.WriteByte(' ')
				}
				buf.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return buf.String()
}
