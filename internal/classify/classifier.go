// Package classify assigns a coarse domain and jurisdiction to a claim
// so the provider registry can route it to specialist adapters. The
// classifier is rule-based: keyword and entity tables, no inference.
package classify

import (
	"sort"
	"strings"

	"github.com/rmartin/veracity/internal/model"
)

// Result is a classification with a rough confidence.
type Result struct {
	DomainTag    string
	Jurisdiction string
	Confidence   float64
}

// Classifier tags claims by domain and jurisdiction.
type Classifier struct {
	domainKeywords       map[string][]string
	jurisdictionKeywords map[string][]string
}

// NewClassifier builds the default keyword tables.
func NewClassifier() *Classifier {
	return &Classifier{
		// Keywords are matched against normalized text, so multiword
		// entries use single spaces and short tokens are space-padded.
		domainKeywords: map[string][]string{
			"economics": {
				"inflation", " gdp ", "interest rate", "unemployment", "recession",
				" cpi ", "economy", "economic", "wages", "exports", "imports",
				" ons ", "office for national statistics", "bank of england",
				"federal reserve", " tax ", "budget deficit", "stock market",
			},
			"statistics": {
				"census", "survey data", "per cent of the population",
				"statistic", "median income", "birth rate", "mortality rate",
			},
			"health": {
				" nhs ", "vaccine", "vaccination", "disease", "cancer",
				" covid ", "pandemic", "obesity", "life expectancy",
				"world health organization", "clinical trial",
			},
			"science": {
				"climate", "carbon", "emissions", "temperature record",
				"study found", "researchers", "peer reviewed", " nasa ",
				"species", "genome",
			},
			"politics": {
				"parliament", "election", "manifesto", "prime minister",
				"president", "congress", "referendum", " mp ", "senator",
				"legislation", "passed the bill", "bill passed",
			},
		},
		jurisdictionKeywords: map[string][]string{
			"uk": {
				" uk ", "united kingdom", "britain", "british", "england",
				"scotland", "wales", "northern ireland", "london",
				" nhs ", " ons ", "parliament", "gov uk", "bank of england",
				"sterling", " hmrc ",
			},
			"us": {
				"united states", " u s ", " usa ", "america", "american",
				"congress", "federal reserve", "white house",
				" cdc ", " fda ",
			},
			"eu": {
				"european union", " eu ", "eurozone", "brussels",
				"european commission", " euro ",
			},
		},
	}
}

// Classify tags the claim. Empty or whitespace-only text returns the
// general/global fallback with zero confidence and never consults the
// keyword tables.
func (c *Classifier) Classify(claim model.Claim) Result {
	text := strings.ToLower(strings.TrimSpace(claim.Text))
	if text == "" {
		return Result{
			DomainTag:    model.DomainGeneral,
			Jurisdiction: model.JurisdictionGlobal,
			Confidence:   0.0,
		}
	}

	var sb strings.Builder
	sb.WriteString(text)
	for _, entity := range claim.KeyEntities {
		sb.WriteString(" ")
		sb.WriteString(strings.ToLower(entity))
	}
	haystack := normalize(sb.String())

	domain, domainHits := bestMatch(haystack, c.domainKeywords, model.DomainGeneral)
	jurisdiction, jurHits := bestMatch(haystack, c.jurisdictionKeywords, model.JurisdictionGlobal)

	confidence := 0.0
	if domainHits > 0 {
		confidence += 0.4
		if domainHits > 1 {
			confidence += 0.2
		}
	}
	if jurHits > 0 {
		confidence += 0.3
		if jurHits > 1 {
			confidence += 0.1
		}
	}

	return Result{
		DomainTag:    domain,
		Jurisdiction: jurisdiction,
		Confidence:   confidence,
	}
}

// bestMatch returns the tag with the most keyword hits, or the fallback
// when nothing matches. Ties go to the first tag in lexical order so
// results are deterministic.
func bestMatch(haystack string, table map[string][]string, fallback string) (string, int) {
	best := fallback
	bestHits := 0
	for _, tag := range sortedKeys(table) {
		hits := 0
		for _, kw := range table[tag] {
			if strings.Contains(haystack, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best = tag
			bestHits = hits
		}
	}
	return best, bestHits
}

// normalize lowers the text, turns punctuation into spaces, and pads
// the ends so short keywords like " uk " only match whole words.
func normalize(text string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '%':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return ' '
		}
	}, text)
	return " " + mapped + " "
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
