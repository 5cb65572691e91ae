package retrieve

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/rmartin/veracity/internal/model"
)

// tier is an internal source-credibility band.
type tier int

const (
	tierPrimary tier = iota
	tierSecondary
	tierTertiary
)

// CredibilityScorer maps source URLs to a credibility score in [0,1]
// based on configured domain lists, explicit overrides, and URL path
// patterns. Unknown sources get the tertiary score.
type CredibilityScorer struct {
	cfg          model.CredibilityConfig
	primaryMap   map[string]bool
	secondaryMap map[string]bool
	pathPatterns []compiledPattern
}

type compiledPattern struct {
	pattern *regexp.Regexp
	tier    tier
}

// NewCredibilityScorer compiles the configured domain lists and path
// patterns. Invalid regexps are skipped.
func NewCredibilityScorer(cfg model.CredibilityConfig) *CredibilityScorer {
	s := &CredibilityScorer{
		cfg:          cfg,
		primaryMap:   make(map[string]bool, len(cfg.PrimaryDomains)),
		secondaryMap: make(map[string]bool, len(cfg.SecondaryDomains)),
	}
	for _, d := range cfg.PrimaryDomains {
		s.primaryMap[strings.ToLower(d)] = true
	}
	for _, d := range cfg.SecondaryDomains {
		s.secondaryMap[strings.ToLower(d)] = true
	}
	for _, pp := range cfg.PathPatterns {
		re, err := regexp.Compile(pp.Pattern)
		if err != nil {
			continue
		}
		s.pathPatterns = append(s.pathPatterns, compiledPattern{pattern: re, tier: parseTier(pp.Tier)})
	}
	return s
}

// Score returns the credibility score for a source URL.
func (s *CredibilityScorer) Score(rawURL string) float64 {
	switch s.classify(rawURL) {
	case tierPrimary:
		return s.cfg.PrimaryScore
	case tierSecondary:
		return s.cfg.SecondaryScore
	default:
		return s.cfg.TertiaryScore
	}
}

func (s *CredibilityScorer) classify(rawURL string) tier {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return tierTertiary
	}
	host := strings.ToLower(parsed.Hostname())
	path := parsed.Path

	// Explicit overrides win over the domain lists.
	if s.cfg.DomainMap != nil {
		if t, ok := s.cfg.DomainMap[host]; ok {
			return parseTier(t)
		}
	}

	if matchesDomain(host, s.primaryMap) {
		return tierPrimary
	}
	if matchesDomain(host, s.secondaryMap) {
		return tierSecondary
	}

	for _, cp := range s.pathPatterns {
		if cp.pattern.MatchString(path) {
			return cp.tier
		}
	}

	// Government and academic TLDs are primary even when unlisted.
	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") || strings.HasSuffix(host, ".ac.uk") {
		return tierPrimary
	}

	return tierTertiary
}

// matchesDomain reports whether host is a listed domain or one of its
// subdomains (data.gov.uk matches gov.uk).
func matchesDomain(host string, domains map[string]bool) bool {
	if domains[host] {
		return true
	}
	for d := range domains {
		if strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func parseTier(t string) tier {
	switch strings.ToLower(t) {
	case "primary", "1":
		return tierPrimary
	case "secondary", "2":
		return tierSecondary
	default:
		return tierTertiary
	}
}
