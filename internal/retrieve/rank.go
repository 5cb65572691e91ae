package retrieve

import (
	"math"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rmartin/veracity/internal/model"
)

// recencyHalfLife controls the decay of the recency score. Evidence
// published one half-life ago scores 0.5, two half-lives 0.25.
const recencyHalfLife = 180 * 24 * time.Hour

// NormalizeURL canonicalizes a URL for deduplication: lowercase scheme
// and host, default ports and fragments dropped, tracking parameters
// removed, remaining query sorted, trailing slash trimmed. Unparseable
// URLs are returned trimmed so they still dedupe on exact match.
func NormalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Fragment = ""

	host := strings.ToLower(parsed.Host)
	host = strings.TrimSuffix(host, ":80")
	host = strings.TrimSuffix(host, ":443")
	parsed.Host = host

	q := parsed.Query()
	for key := range q {
		if strings.HasPrefix(strings.ToLower(key), "utm_") || key == "fbclid" || key == "gclid" || key == "ref" {
			q.Del(key)
		}
	}
	parsed.RawQuery = q.Encode() // Encode sorts keys.

	parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	return parsed.String()
}

// registrableDomain returns the host with any www prefix stripped; it
// is the unit for the per-domain cap and share limit.
func registrableDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// relevanceScore measures token overlap between the claim and the
// evidence text, with a bonus for matched key entities.
func relevanceScore(claim model.Claim, text string) float64 {
	claimTokens := tokenize(claim.Text)
	if len(claimTokens) == 0 {
		return 0
	}
	evidenceTokens := make(map[string]bool)
	for _, tok := range tokenize(text) {
		evidenceTokens[tok] = true
	}

	matched := 0
	for _, tok := range claimTokens {
		if evidenceTokens[tok] {
			matched++
		}
	}
	score := float64(matched) / float64(len(claimTokens))

	lower := strings.ToLower(text)
	for _, entity := range claim.KeyEntities {
		if entity != "" && strings.Contains(lower, strings.ToLower(entity)) {
			score += 0.2
		}
	}
	return math.Min(score, 1.0)
}

// recencyScore decays with publication age. Undated evidence sits in
// the middle of the scale rather than being rewarded or punished.
func recencyScore(publishedAt *time.Time, now time.Time) float64 {
	if publishedAt == nil {
		return 0.5
	}
	age := now.Sub(*publishedAt)
	if age <= 0 {
		return 1.0
	}
	return math.Pow(0.5, age.Hours()/recencyHalfLife.Hours())
}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"that": true, "this": true, "it": true, "for": true, "with": true,
	"by": true, "as": true, "has": true, "have": true, "had": true,
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '.' || r == '%')
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".")
		if len(f) < 2 || stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// ranker scores, filters, and orders merged evidence for one claim.
type ranker struct {
	cfg         model.RetrievalConfig
	credibility *CredibilityScorer
	now         func() time.Time
	newID       func() string
}

func newRanker(cfg model.RetrievalConfig, credibility *CredibilityScorer) *ranker {
	return &ranker{
		cfg:         cfg,
		credibility: credibility,
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
}

type scoredItem struct {
	item model.EvidenceItem
	rank float64
}

// Merge runs the full post-retrieval pipeline: score, dedupe, floor,
// staleness split, per-domain cap, share limit, truncate, assign IDs.
// The second return value is the audit list of stale exclusions.
func (r *ranker) Merge(claim model.Claim, items []model.EvidenceItem) ([]model.EvidenceItem, []model.EvidenceItem) {
	now := r.now()
	relWeight, credWeight, recWeight := r.weights(claim)

	scored := make([]scoredItem, 0, len(items))
	for _, item := range items {
		item.Credibility = r.credibility.Score(item.URL)
		item.Relevance = relevanceScore(claim, item.Text)
		rank := relWeight*item.Relevance + credWeight*item.Credibility + recWeight*recencyScore(item.PublishedAt, now)
		scored = append(scored, scoredItem{item: item, rank: rank})
	}

	scored = dedupe(scored)

	// Low-credibility sources are dropped unless they are fact-check
	// verdicts, which are informative regardless of publisher tier.
	kept := scored[:0]
	for _, s := range scored {
		if s.item.Credibility >= r.cfg.CredibilityFloor || s.item.Kind == model.KindFactCheck {
			kept = append(kept, s)
		}
	}
	scored = kept

	var excluded []model.EvidenceItem
	if claim.IsTimeSensitive && r.cfg.StalenessWindow > 0 {
		fresh := scored[:0]
		cutoff := now.Add(-r.cfg.StalenessWindow)
		for _, s := range scored {
			if s.item.PublishedAt != nil && s.item.PublishedAt.Before(cutoff) {
				excluded = append(excluded, s.item)
				continue
			}
			fresh = append(fresh, s)
		}
		scored = fresh
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].rank != scored[j].rank {
			return scored[i].rank > scored[j].rank
		}
		return scored[i].item.URL < scored[j].item.URL
	})

	scored = r.capPerDomain(scored)
	scored = r.capDomainShare(scored)

	if r.cfg.MaxEvidence > 0 && len(scored) > r.cfg.MaxEvidence {
		scored = scored[:r.cfg.MaxEvidence]
	}

	final := make([]model.EvidenceItem, 0, len(scored))
	for _, s := range scored {
		s.item.ID = r.newID()
		final = append(final, s.item)
	}
	return final, excluded
}

// weights returns the ranking weights, renormalized to sum to one. For
// time-sensitive claims the recency weight is raised to RecencyBoost.
func (r *ranker) weights(claim model.Claim) (rel, cred, rec float64) {
	rel, cred, rec = r.cfg.RelevanceWeight, r.cfg.CredibilityWeight, r.cfg.RecencyWeight
	if claim.IsTimeSensitive && r.cfg.RecencyBoost > rec {
		rec = r.cfg.RecencyBoost
	}
	total := rel + cred + rec
	if total <= 0 {
		return 0.5, 0.3, 0.2
	}
	return rel / total, cred / total, rec / total
}

// dedupe keeps one item per normalized URL, preferring the higher
// ranked copy.
func dedupe(scored []scoredItem) []scoredItem {
	byURL := make(map[string]int, len(scored))
	out := make([]scoredItem, 0, len(scored))
	for _, s := range scored {
		key := NormalizeURL(s.item.URL)
		if idx, seen := byURL[key]; seen {
			if s.rank > out[idx].rank {
				out[idx] = s
			}
			continue
		}
		byURL[key] = len(out)
		out = append(out, s)
	}
	return out
}

// capPerDomain keeps at most MaxPerDomain items per registrable domain,
// in rank order.
func (r *ranker) capPerDomain(scored []scoredItem) []scoredItem {
	if r.cfg.MaxPerDomain <= 0 {
		return scored
	}
	counts := make(map[string]int)
	out := scored[:0]
	for _, s := range scored {
		d := registrableDomain(s.item.URL)
		if counts[d] >= r.cfg.MaxPerDomain {
			continue
		}
		counts[d]++
		out = append(out, s)
	}
	return out
}

// capDomainShare guards against single-source dominance: no domain may
// contribute more than MaxDomainShare of the set, floored at one item.
// Lowest-ranked items of over-represented domains are dropped until the
// set satisfies the limit. A set drawn entirely from one domain is left
// alone; there is no dominance to rebalance.
func (r *ranker) capDomainShare(scored []scoredItem) []scoredItem {
	if r.cfg.MaxDomainShare <= 0 || r.cfg.MaxDomainShare >= 1 {
		return scored
	}
	for {
		allowed := int(r.cfg.MaxDomainShare * float64(len(scored)))
		if allowed < 1 {
			allowed = 1
		}
		counts := make(map[string]int)
		for _, s := range scored {
			counts[registrableDomain(s.item.URL)]++
		}
		if len(counts) < 2 {
			return scored
		}

		worst := ""
		for d, n := range counts {
			if n > allowed && (worst == "" || n > counts[worst]) {
				worst = d
			}
		}
		if worst == "" {
			return scored
		}
		// Drop the lowest-ranked item of the dominant domain. The
		// slice is rank-ordered, so scan from the tail.
		for i := len(scored) - 1; i >= 0; i-- {
			if registrableDomain(scored[i].item.URL) == worst {
				scored = append(scored[:i], scored[i+1:]...)
				break
			}
		}
	}
}
