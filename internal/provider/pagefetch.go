package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rmartin/veracity/internal/util"
	"github.com/rmartin/veracity/internal/worker"
	"golang.org/x/net/html"
)

// maxExcerptChars bounds how much page text an enriched snippet carries.
const maxExcerptChars = 1500

// PageFetcher expands thin search snippets by fetching the evidence page
// itself. Fetches honor robots.txt and per-host rate limits; a page that
// cannot be fetched simply leaves the original snippet in place.
type PageFetcher struct {
	httpClient *http.Client
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	userAgent  string
	maxBytes   int64
}

// NewPageFetcher creates an excerpt fetcher.
func NewPageFetcher(userAgent string, timeout time.Duration, maxBytes int64, limiter *worker.Limiter) *PageFetcher {
	return &PageFetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		robots:    util.NewRobotsChecker(userAgent, timeout),
		limiter:   limiter,
		userAgent: userAgent,
		maxBytes:  maxBytes,
	}
}

// Excerpt fetches the page at rawURL and returns its visible text,
// truncated to a snippet-sized excerpt.
func (f *PageFetcher) Excerpt(ctx context.Context, rawURL string) (string, error) {
	if !f.robots.IsAllowed(ctx, rawURL) {
		return "", fmt.Errorf("disallowed by robots.txt: %s", rawURL)
	}
	if f.limiter != nil {
		if err := f.limiter.WaitURL(ctx, rawURL); err != nil {
			return "", err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", mapNetErr("pagefetch", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status fetching %s: %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	text := visibleText(string(body))
	if len(text) > maxExcerptChars {
		text = text[:maxExcerptChars]
		// Avoid cutting mid-word.
		if idx := strings.LastIndexByte(text, ' '); idx > 0 {
			text = text[:idx]
		}
	}
	return text, nil
}

// visibleText extracts readable text from a full HTML page, preferring
// paragraph content over navigation chrome.
func visibleText(page string) string {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return ""
	}

	var paragraphs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "nav", "header", "footer", "iframe":
				return
			case "p":
				if text := nodeText(n); len(text) > 40 {
					paragraphs = append(paragraphs, text)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(paragraphs, " ")
}

func nodeText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
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
	walk(n)
	return buf.String()
}
