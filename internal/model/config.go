package model

import "time"

// Config is the full pipeline configuration. Values are layered by the CLI:
// flags over VERACITY_* environment variables over ~/.veracity/config.yaml
// over the defaults below.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Resilience  ResilienceConfig  `yaml:"resilience" mapstructure:"resilience"`
	Retrieval   RetrievalConfig   `yaml:"retrieval" mapstructure:"retrieval"`
	Stance      StanceConfig      `yaml:"stance" mapstructure:"stance"`
	Judgment    JudgmentConfig    `yaml:"judgment" mapstructure:"judgment"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Providers   ProvidersConfig   `yaml:"providers" mapstructure:"providers"`
	Credibility CredibilityConfig `yaml:"credibility" mapstructure:"credibility"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// HTTPConfig controls outbound HTTP behavior shared by all adapters.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// CacheConfig controls the layered provider-response cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ResilienceConfig controls the circuit breaker and retry policy wrapped
// around every provider.
type ResilienceConfig struct {
	FailureThreshold int           `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	SuccessThreshold int           `yaml:"success_threshold" mapstructure:"success_threshold"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout" mapstructure:"recovery_timeout"`
	MaxRetries       int           `yaml:"max_retries" mapstructure:"max_retries"`
	RetryBackoff     time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`
}

// RetrievalConfig controls evidence merging, filtering, and ranking.
type RetrievalConfig struct {
	ProviderTimeout   time.Duration `yaml:"provider_timeout" mapstructure:"provider_timeout"`
	CredibilityFloor  float64       `yaml:"credibility_floor" mapstructure:"credibility_floor"`
	MaxPerDomain      int           `yaml:"max_per_domain" mapstructure:"max_per_domain"`
	MaxDomainShare    float64       `yaml:"max_domain_share" mapstructure:"max_domain_share"`
	MaxEvidence       int           `yaml:"max_evidence" mapstructure:"max_evidence"`
	StalenessWindow   time.Duration `yaml:"staleness_window" mapstructure:"staleness_window"`
	RelevanceWeight   float64       `yaml:"relevance_weight" mapstructure:"relevance_weight"`
	CredibilityWeight float64       `yaml:"credibility_weight" mapstructure:"credibility_weight"`
	RecencyWeight     float64       `yaml:"recency_weight" mapstructure:"recency_weight"`
	// RecencyBoost replaces RecencyWeight for time-sensitive claims; the
	// other two weights shrink proportionally.
	RecencyBoost   float64 `yaml:"recency_boost" mapstructure:"recency_boost"`
	EnrichSnippets bool    `yaml:"enrich_snippets" mapstructure:"enrich_snippets"`
}

// StanceConfig controls the stance verifier.
type StanceConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
	MaxEvidenceChars    int     `yaml:"max_evidence_chars" mapstructure:"max_evidence_chars"`
	Workers             int     `yaml:"workers" mapstructure:"workers"`
}

// JudgmentConfig controls the deterministic override rules applied on top
// of the generative verdict.
type JudgmentConfig struct {
	MinEvidence        int     `yaml:"min_evidence" mapstructure:"min_evidence"`
	InsufficientCap    float64 `yaml:"insufficient_cap" mapstructure:"insufficient_cap"`
	ConflictMassWindow float64 `yaml:"conflict_mass_window" mapstructure:"conflict_mass_window"`
	AbstentionFloor    float64 `yaml:"abstention_floor" mapstructure:"abstention_floor"`
}

// ConcurrencyConfig bounds concurrent work within a run.
type ConcurrencyConfig struct {
	ClaimWorkers int `yaml:"claim_workers" mapstructure:"claim_workers"`
}

// ProvidersConfig holds endpoints, TTLs, and rate limits per adapter.
type ProvidersConfig struct {
	SearchBaseURL     string        `yaml:"search_base_url" mapstructure:"search_base_url"`
	WikipediaBaseURL  string        `yaml:"wikipedia_base_url" mapstructure:"wikipedia_base_url"`
	StatisticsBaseURL string        `yaml:"statistics_base_url" mapstructure:"statistics_base_url"`
	FactCheckBaseURL  string        `yaml:"factcheck_base_url" mapstructure:"factcheck_base_url"`
	FactCheckAPIKey   string        `yaml:"factcheck_api_key" mapstructure:"factcheck_api_key"`
	WebTTL            time.Duration `yaml:"web_ttl" mapstructure:"web_ttl"`
	WikipediaTTL      time.Duration `yaml:"wikipedia_ttl" mapstructure:"wikipedia_ttl"`
	StatisticsTTL     time.Duration `yaml:"statistics_ttl" mapstructure:"statistics_ttl"`
	FactCheckTTL      time.Duration `yaml:"factcheck_ttl" mapstructure:"factcheck_ttl"`
	RateLimit         float64       `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second per provider
	RateBurst         int           `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// PathPattern maps a URL path regexp to a credibility tier.
type PathPattern struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
	Tier    string `yaml:"tier" mapstructure:"tier"`
}

// CredibilityConfig drives source credibility scoring.
type CredibilityConfig struct {
	PrimaryDomains   []string          `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string          `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	DomainMap        map[string]string `yaml:"domain_map" mapstructure:"domain_map"`
	PathPatterns     []PathPattern     `yaml:"path_patterns" mapstructure:"path_patterns"`
	PrimaryScore     float64           `yaml:"primary_score" mapstructure:"primary_score"`
	SecondaryScore   float64           `yaml:"secondary_score" mapstructure:"secondary_score"`
	TertiaryScore    float64           `yaml:"tertiary_score" mapstructure:"tertiary_score"`
}

// LLMConfig configures the inference and generation backends.
type LLMConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model      string `yaml:"model" mapstructure:"model"`
	APIKey     string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	Timeout    int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens  int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	HTTPProxy  string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// StoreConfig controls run persistence.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// OutputConfig controls CLI output behavior.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults documented in the README.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "Veracity/0.2 (+https://github.com/rmartin/veracity)",
			MaxBodyBytes: 2_000_000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "", // Defaults to ~/.veracity/cache at load time
			MemoryTTL: time.Hour,
			DiskTTL:   24 * time.Hour,
		},
		Resilience: ResilienceConfig{
			FailureThreshold: 5,
			SuccessThreshold: 2,
			RecoveryTimeout:  30 * time.Second,
			MaxRetries:       3,
			RetryBackoff:     time.Second,
		},
		Retrieval: RetrievalConfig{
			ProviderTimeout:   10 * time.Second,
			CredibilityFloor:  0.65,
			MaxPerDomain:      3,
			MaxDomainShare:    0.40,
			MaxEvidence:       10,
			StalenessWindow:   90 * 24 * time.Hour,
			RelevanceWeight:   0.5,
			CredibilityWeight: 0.3,
			RecencyWeight:     0.2,
			RecencyBoost:      0.4,
			EnrichSnippets:    false,
		},
		Stance: StanceConfig{
			ConfidenceThreshold: 0.7,
			MaxEvidenceChars:    6000,
			Workers:             4,
		},
		Judgment: JudgmentConfig{
			MinEvidence:        3,
			InsufficientCap:    0.4,
			ConflictMassWindow: 0.15,
			AbstentionFloor:    0.5,
		},
		Concurrency: ConcurrencyConfig{
			ClaimWorkers: 3,
		},
		Providers: ProvidersConfig{
			SearchBaseURL:     "https://searx.be",
			WikipediaBaseURL:  "https://en.wikipedia.org",
			StatisticsBaseURL: "https://api.beta.ons.gov.uk",
			FactCheckBaseURL:  "https://factchecktools.googleapis.com",
			WebTTL:            time.Hour,
			WikipediaTTL:      7 * 24 * time.Hour,
			StatisticsTTL:     30 * 24 * time.Hour,
			FactCheckTTL:      24 * time.Hour,
			RateLimit:         2,
			RateBurst:         4,
		},
		Credibility: CredibilityConfig{
			PrimaryDomains: []string{
				"gov.uk", "ons.gov.uk", "parliament.uk", "legislation.gov.uk",
				"europa.eu", "un.org", "who.int", "worldbank.org", "imf.org",
				"nature.com", "science.org", "doi.org", "arxiv.org",
			},
			SecondaryDomains: []string{
				"wikipedia.org", "britannica.com", "reuters.com", "apnews.com",
				"bbc.co.uk", "bbc.com", "ft.com", "economist.com",
				"fullfact.org", "politifact.com", "snopes.com",
			},
			PrimaryScore:   0.95,
			SecondaryScore: 0.75,
			TertiaryScore:  0.45,
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Timeout:   30,
			MaxTokens: 1000,
		},
		Store: StoreConfig{
			Enabled: false,
			Path:    "veracity.db",
		},
	}
}
