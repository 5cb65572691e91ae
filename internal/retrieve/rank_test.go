package retrieve

import (
	"fmt"
	"testing"
	"time"

	"github.com/rmartin/veracity/internal/model"
)

func testRanker() *ranker {
	cfg := model.DefaultConfig()
	r := newRanker(cfg.Retrieval, NewCredibilityScorer(cfg.Credibility))
	r.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	n := 0
	r.newID = func() string { n++; return fmt.Sprintf("ev-%03d", n) }
	return r
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"HTTPS://Example.com/Path/", "https://example.com/Path"},
		{"https://example.com:443/a", "https://example.com/a"},
		{"https://example.com/a?utm_source=x&q=1", "https://example.com/a?q=1"},
		{"https://example.com/a?b=2&a=1", "https://example.com/a?a=1&b=2"},
		{"https://example.com/a#section", "https://example.com/a"},
		{"not a url", "not a url"},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMerge_DedupesByNormalizedURL(t *testing.T) {
	r := testRanker()
	claim := model.Claim{Text: "UK inflation fell to 5.2% in October"}
	items := []model.EvidenceItem{
		{Text: "inflation fell to 5.2%", URL: "https://www.ons.gov.uk/cpi?utm_source=a", Kind: model.KindDomainAPI},
		{Text: "inflation fell to 5.2% in October, the ONS said", URL: "https://www.ons.gov.uk/cpi", Kind: model.KindDomainAPI},
		{Text: "UK CPI data release", URL: "https://www.ons.gov.uk/cpi#latest", Kind: model.KindDomainAPI},
	}
	final, _ := r.Merge(claim, items)
	if len(final) != 1 {
		t.Fatalf("expected 1 item after dedupe, got %d", len(final))
	}
	seen := map[string]bool{}
	for _, item := range final {
		key := NormalizeURL(item.URL)
		if seen[key] {
			t.Errorf("duplicate normalized URL %q in final set", key)
		}
		seen[key] = true
	}
}

func TestMerge_CredibilityFloorWithFactCheckBypass(t *testing.T) {
	r := testRanker()
	claim := model.Claim{Text: "the moon landing happened in 1969"}
	items := []model.EvidenceItem{
		{Text: "moon landing 1969 記録", URL: "https://randomblog.example.com/post", Kind: model.KindWeb},
		{Text: "moon landing happened 1969", URL: "https://www.nasa.gov/apollo11", Kind: model.KindWeb},
		{Text: "Claim the moon landing was staged — rated \"False\" by Snopes", URL: "https://unknown-factchecker.example.org/x", Kind: model.KindFactCheck},
	}
	final, _ := r.Merge(claim, items)

	byURL := map[string]model.EvidenceItem{}
	for _, item := range final {
		byURL[item.URL] = item
	}
	if _, ok := byURL["https://randomblog.example.com/post"]; ok {
		t.Error("tertiary web source below the floor should be dropped")
	}
	if _, ok := byURL["https://www.nasa.gov/apollo11"]; !ok {
		t.Error("primary .gov source should be kept")
	}
	if _, ok := byURL["https://unknown-factchecker.example.org/x"]; !ok {
		t.Error("fact-check evidence bypasses the credibility floor")
	}
}

func TestMerge_PerDomainCap(t *testing.T) {
	r := testRanker()
	claim := model.Claim{Text: "inflation data"}
	var items []model.EvidenceItem
	for i := 0; i < 6; i++ {
		items = append(items, model.EvidenceItem{
			Text: "inflation data report",
			URL:  fmt.Sprintf("https://www.ons.gov.uk/report/%d", i),
			Kind: model.KindDomainAPI,
		})
	}
	// A second domain so the share limit is not the binding constraint.
	for i := 0; i < 6; i++ {
		items = append(items, model.EvidenceItem{
			Text: "inflation data analysis",
			URL:  fmt.Sprintf("https://www.bbc.co.uk/news/%d", i),
			Kind: model.KindWeb,
		})
	}
	final, _ := r.Merge(claim, items)

	counts := map[string]int{}
	for _, item := range final {
		counts[registrableDomain(item.URL)]++
	}
	for d, n := range counts {
		if n > 3 {
			t.Errorf("domain %s has %d items, cap is 3", d, n)
		}
	}
}

func TestMerge_DomainShareLimit(t *testing.T) {
	r := testRanker()
	r.cfg.MaxPerDomain = 100 // isolate the share limit
	claim := model.Claim{Text: "inflation data"}

	var items []model.EvidenceItem
	for i := 0; i < 8; i++ {
		items = append(items, model.EvidenceItem{
			Text: "inflation data",
			URL:  fmt.Sprintf("https://www.ons.gov.uk/r/%d", i),
			Kind: model.KindDomainAPI,
		})
	}
	for i := 0; i < 4; i++ {
		items = append(items, model.EvidenceItem{
			Text: "inflation data",
			URL:  fmt.Sprintf("https://site%d.gov.uk/page", i),
			Kind: model.KindWeb,
		})
	}
	final, _ := r.Merge(claim, items)

	counts := map[string]int{}
	for _, item := range final {
		counts[registrableDomain(item.URL)]++
	}
	allowed := int(0.40 * float64(len(final)))
	if allowed < 1 {
		allowed = 1
	}
	for d, n := range counts {
		if n > allowed {
			t.Errorf("domain %s holds %d of %d items, share limit allows %d", d, n, len(final), allowed)
		}
	}
}

func TestMerge_TruncatesToMaxEvidence(t *testing.T) {
	r := testRanker()
	r.cfg.MaxPerDomain = 100
	r.cfg.MaxDomainShare = 0
	claim := model.Claim{Text: "inflation data"}

	var items []model.EvidenceItem
	for i := 0; i < 25; i++ {
		items = append(items, model.EvidenceItem{
			Text: "inflation data",
			URL:  fmt.Sprintf("https://source%d.gov.uk/a", i),
			Kind: model.KindWeb,
		})
	}
	final, _ := r.Merge(claim, items)
	if len(final) != 10 {
		t.Errorf("expected truncation to 10, got %d", len(final))
	}
	for _, item := range final {
		if item.ID == "" {
			t.Error("final evidence must carry an assigned ID")
		}
	}
}

func TestMerge_StalenessAuditForTimeSensitiveClaims(t *testing.T) {
	r := testRanker()
	now := r.now()
	claim := model.Claim{Text: "inflation fell last month", IsTimeSensitive: true}

	items := []model.EvidenceItem{
		{Text: "inflation fell", URL: "https://www.ons.gov.uk/fresh", Kind: model.KindDomainAPI, PublishedAt: ptrTime(now.AddDate(0, 0, -10))},
		{Text: "inflation fell", URL: "https://www.ons.gov.uk/stale", Kind: model.KindDomainAPI, PublishedAt: ptrTime(now.AddDate(0, 0, -120))},
		{Text: "inflation fell", URL: "https://www.ons.gov.uk/undated", Kind: model.KindDomainAPI},
	}
	final, excluded := r.Merge(claim, items)

	if len(excluded) != 1 || excluded[0].URL != "https://www.ons.gov.uk/stale" {
		t.Fatalf("expected the 120-day-old item in the audit list, got %v", excluded)
	}
	urls := map[string]bool{}
	for _, item := range final {
		urls[item.URL] = true
	}
	if !urls["https://www.ons.gov.uk/fresh"] || !urls["https://www.ons.gov.uk/undated"] {
		t.Errorf("fresh and undated items must survive the staleness pass: %v", urls)
	}

	// The same set on a non-time-sensitive claim keeps everything.
	claim.IsTimeSensitive = false
	final, excluded = r.Merge(claim, items)
	if len(excluded) != 0 || len(final) != 3 {
		t.Errorf("staleness pass must only run for time-sensitive claims: final=%d excluded=%d", len(final), len(excluded))
	}
}

func TestRecencyScore(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if got := recencyScore(nil, now); got != 0.5 {
		t.Errorf("undated evidence = %v, want 0.5", got)
	}
	if got := recencyScore(ptrTime(now), now); got != 1.0 {
		t.Errorf("just published = %v, want 1.0", got)
	}
	old := recencyScore(ptrTime(now.AddDate(-2, 0, 0)), now)
	recent := recencyScore(ptrTime(now.AddDate(0, 0, -7)), now)
	if old >= recent {
		t.Errorf("recency must decay: 2y=%v 7d=%v", old, recent)
	}
}

func TestWeights_TimeSensitiveBoostsRecency(t *testing.T) {
	r := testRanker()
	_, _, normalRec := r.weights(model.Claim{Text: "x"})
	rel, cred, boostedRec := r.weights(model.Claim{Text: "x", IsTimeSensitive: true})
	if boostedRec <= normalRec {
		t.Errorf("time-sensitive recency weight %v should exceed %v", boostedRec, normalRec)
	}
	if sum := rel + cred + boostedRec; sum < 0.999 || sum > 1.001 {
		t.Errorf("weights must renormalize to 1, got %v", sum)
	}
}

func TestRelevanceScore_EntityBonus(t *testing.T) {
	claim := model.Claim{Text: "UK inflation fell to 5.2%", KeyEntities: []string{"ONS"}}
	without := relevanceScore(claim, "inflation fell to 5.2% in the UK")
	with := relevanceScore(claim, "inflation fell to 5.2% in the UK, the ONS said")
	if with <= without {
		t.Errorf("entity mention should raise relevance: %v vs %v", with, without)
	}
}
