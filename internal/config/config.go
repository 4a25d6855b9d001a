package config

import (
	"time"

	"github.com/jonesrussell/intent-engine/internal/domain"
	"github.com/jonesrussell/intent-engine/internal/logger"
)

// Default configuration values.
const (
	defaultServiceName     = "intent-engine"
	defaultServiceVersion  = "1.0.0"
	defaultServicePort     = 8085
	defaultConcurrency     = 8
	defaultSQLitePath      = "intent_engine.db"
	defaultTopSignalsLimit = 10
	defaultESTimeout       = 30 * time.Second
	defaultEnrichTimeout   = 10 * time.Second
	defaultEnrichRPS       = 20
	defaultReadTimeout     = 30 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultIdleTimeout     = 120 * time.Second
)

// Config holds all configuration for the intent engine.
type Config struct {
	Service       ServiceConfig         `yaml:"service"`
	Database      DatabaseConfig        `yaml:"database"`
	Elasticsearch ElasticsearchConfig   `yaml:"elasticsearch"`
	Enrichment    EnrichmentConfig      `yaml:"enrichment"`
	Scoring       ScoringConfig         `yaml:"scoring"`
	Rules         []domain.DecisionRule `yaml:"rules"`
	Logging       logger.Config         `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name            string        `yaml:"name"`
	Version         string        `yaml:"version"`
	Port            int           `env:"ENGINE_PORT"        yaml:"port"`
	Debug           bool          `env:"APP_DEBUG"          yaml:"debug"`
	Concurrency     int           `env:"ENGINE_CONCURRENCY" yaml:"concurrency"`
	TopSignalsLimit int           `yaml:"top_signals_limit"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
}

// DatabaseConfig holds SQLite configuration.
type DatabaseConfig struct {
	Path string `env:"ENGINE_DB_PATH" yaml:"path"`
}

// ElasticsearchConfig holds the optional dashboard index sink configuration.
type ElasticsearchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	URL      string        `env:"ELASTICSEARCH_URL" yaml:"url"`
	Username string        `yaml:"username"`
	Password string        `env:"ELASTICSEARCH_PASSWORD" yaml:"password"`
	Index    string        `yaml:"index"`
	Timeout  time.Duration `yaml:"timeout"`
}

// EnrichmentConfig holds settings for the external enrichment boundary.
type EnrichmentConfig struct {
	ServiceURL         string        `env:"ENRICHMENT_URL" yaml:"service_url"`
	Timeout            time.Duration `yaml:"timeout"`
	RequestsPerSecond  int           `yaml:"requests_per_second"`
	SentimentThreshold float64       `yaml:"sentiment_threshold"`
	IntentThreshold    float64       `yaml:"intent_threshold"`
}

// ScoringConfig holds all heuristic scorer settings: keyword categories,
// per-source bonuses, and confidence priors. Passed into the scorer at
// construction so concurrent runs can use different configurations.
type ScoringConfig struct {
	// News keyword categories.
	FundingKeywords     []string `yaml:"funding_keywords"`
	HiringKeywords      []string `yaml:"hiring_keywords"`
	PartnershipKeywords []string `yaml:"partnership_keywords"`

	// Social keyword categories.
	AdviceKeywords     []string `yaml:"advice_keywords"`
	EvaluationKeywords []string `yaml:"evaluation_keywords"`

	// Job board keyword categories.
	SeniorityKeywords []string `yaml:"seniority_keywords"`
	TechKeywords      []string `yaml:"tech_keywords"`
	RemoteKeywords    []string `yaml:"remote_keywords"`

	// Buying-intent keywords drive the relevance score.
	BuyingIntentKeywords []string `yaml:"buying_intent_keywords"`

	// Lexical sentiment fallback word lists.
	PositiveKeywords []string `yaml:"positive_keywords"`
	NegativeKeywords []string `yaml:"negative_keywords"`

	// EngagementThreshold is the upvotes+comments level that counts as a
	// corroborated social signal.
	EngagementThreshold float64 `yaml:"engagement_threshold"`

	// Confidence priors per source type.
	NewsConfidence   float64 `yaml:"news_confidence"`
	SocialConfidence float64 `yaml:"social_confidence"`
	JobConfidence    float64 `yaml:"job_confidence"`
}

// SetDefaults applies default values to the config if not set.
func (c *Config) SetDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = defaultServiceName
	}
	if c.Service.Version == "" {
		c.Service.Version = defaultServiceVersion
	}
	if c.Service.Port == 0 {
		c.Service.Port = defaultServicePort
	}
	if c.Service.Concurrency == 0 {
		c.Service.Concurrency = defaultConcurrency
	}
	if c.Service.TopSignalsLimit == 0 {
		c.Service.TopSignalsLimit = defaultTopSignalsLimit
	}
	if c.Service.ReadTimeout == 0 {
		c.Service.ReadTimeout = defaultReadTimeout
	}
	if c.Service.WriteTimeout == 0 {
		c.Service.WriteTimeout = defaultWriteTimeout
	}
	if c.Service.IdleTimeout == 0 {
		c.Service.IdleTimeout = defaultIdleTimeout
	}
	if c.Database.Path == "" {
		c.Database.Path = defaultSQLitePath
	}
	if c.Elasticsearch.Index == "" {
		c.Elasticsearch.Index = "decided_signals"
	}
	if c.Elasticsearch.Timeout == 0 {
		c.Elasticsearch.Timeout = defaultESTimeout
	}
	if c.Enrichment.Timeout == 0 {
		c.Enrichment.Timeout = defaultEnrichTimeout
	}
	if c.Enrichment.RequestsPerSecond == 0 {
		c.Enrichment.RequestsPerSecond = defaultEnrichRPS
	}
	if c.Enrichment.SentimentThreshold == 0 {
		c.Enrichment.SentimentThreshold = 0.5
	}
	if c.Enrichment.IntentThreshold == 0 {
		c.Enrichment.IntentThreshold = 0.5
	}
	if len(c.Rules) == 0 {
		c.Rules = domain.DefaultDecisionRules()
	}
	c.Scoring.SetDefaults()
	c.Logging.SetDefaults()
}

// SetDefaults fills in the shipped keyword lists and thresholds for any
// category the config file leaves empty.
func (s *ScoringConfig) SetDefaults() {
	if len(s.FundingKeywords) == 0 {
		s.FundingKeywords = []string{
			"funding", "raised", "investment", "series a", "series b",
			"series c", "venture", "seed round",
		}
	}
	if len(s.HiringKeywords) == 0 {
		s.HiringKeywords = []string{"hiring", "expands", "expansion", "growth", "acquisition"}
	}
	if len(s.PartnershipKeywords) == 0 {
		s.PartnershipKeywords = []string{"partnership", "announces", "launches", "launch"}
	}
	if len(s.AdviceKeywords) == 0 {
		s.AdviceKeywords = []string{"recommendation", "advice", "help", "looking for"}
	}
	if len(s.EvaluationKeywords) == 0 {
		s.EvaluationKeywords = []string{"evaluating", "comparing", "comparison", "review", "alternatives"}
	}
	if len(s.SeniorityKeywords) == 0 {
		s.SeniorityKeywords = []string{"senior", "lead", "principal", "director", "head"}
	}
	if len(s.TechKeywords) == 0 {
		s.TechKeywords = []string{
			"kubernetes", "terraform", "aws", "salesforce", "snowflake",
			"devops", "react", "python", "golang",
		}
	}
	if len(s.RemoteKeywords) == 0 {
		s.RemoteKeywords = []string{"remote", "hybrid"}
	}
	if len(s.BuyingIntentKeywords) == 0 {
		s.BuyingIntentKeywords = []string{
			"funding", "raised", "series", "hiring", "looking for", "rfp",
			"procurement", "vendor", "migration", "implementation",
		}
	}
	if len(s.PositiveKeywords) == 0 {
		s.PositiveKeywords = []string{"success", "growth", "expansion", "achievement", "breakthrough"}
	}
	if len(s.NegativeKeywords) == 0 {
		s.NegativeKeywords = []string{"decline", "loss", "problem", "issue", "challenge"}
	}
	if s.EngagementThreshold == 0 {
		s.EngagementThreshold = 20
	}
	if s.NewsConfidence == 0 {
		s.NewsConfidence = 0.9
	}
	if s.SocialConfidence == 0 {
		s.SocialConfidence = 0.7
	}
	if s.JobConfidence == 0 {
		s.JobConfidence = 0.6
	}
}

// LoadConfig reads the engine configuration from path, applies defaults and
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	return LoadWithDefaults[Config](path, func(c *Config) {
		c.SetDefaults()
	})
}
