// Package scorer computes the heuristic score set for normalized signals.
// Scoring is pure and deterministic: the same record with the same
// configuration always produces the same scores.
package scorer

import (
	"fmt"

	"github.com/jonesrussell/intent-engine/internal/config"
	"github.com/jonesrussell/intent-engine/internal/domain"
	"github.com/jonesrussell/intent-engine/internal/logger"
)

// Scoring constants.
const (
	baseStrength        = 3
	fundingBonus        = 4
	hiringBonus         = 2
	partnershipBonus    = 1
	engagementBonus     = 3
	adviceBonus         = 2
	evaluationBonus     = 1
	seniorityBonus      = 2
	techBonus           = 1
	remoteBonus         = 1
	relevanceHitWeight  = 2
	sentimentNormalizer = 5.0
	confidenceAdjust    = 0.1
)

// Raw metric keys the scorer understands. The metrics map is opaque to
// every other component.
const (
	MetricUpvotes    = "upvotes"
	MetricComments   = "comments"
	MetricEngagement = "engagement"
	MetricSeniority  = "seniority"
)

// Scorer fills in signal_strength, relevance_score, confidence_level,
// sentiment_score, and engagement_score on unscored signals. Matchers are
// built once at construction; the configuration is never mutated afterwards.
type Scorer struct {
	cfg config.ScoringConfig

	funding     *keywordSet
	hiring      *keywordSet
	partnership *keywordSet
	advice      *keywordSet
	evaluation  *keywordSet
	seniority   *keywordSet
	tech        *keywordSet
	remote      *keywordSet
	buying      *keywordSet
	positive    *keywordSet
	negative    *keywordSet

	logger logger.Logger
}

// New builds a Scorer from the given scoring configuration.
func New(cfg config.ScoringConfig, log logger.Logger) *Scorer {
	return &Scorer{
		cfg:         cfg,
		funding:     newKeywordSet(cfg.FundingKeywords),
		hiring:      newKeywordSet(cfg.HiringKeywords),
		partnership: newKeywordSet(cfg.PartnershipKeywords),
		advice:      newKeywordSet(cfg.AdviceKeywords),
		evaluation:  newKeywordSet(cfg.EvaluationKeywords),
		seniority:   newKeywordSet(cfg.SeniorityKeywords),
		tech:        newKeywordSet(cfg.TechKeywords),
		remote:      newKeywordSet(cfg.RemoteKeywords),
		buying:      newKeywordSet(cfg.BuyingIntentKeywords),
		positive:    newKeywordSet(cfg.PositiveKeywords),
		negative:    newKeywordSet(cfg.NegativeKeywords),
		logger:      log,
	}
}

// Score computes every score field on an unscored signal and moves it to
// the scored state. After Score returns nil, every numeric field is within
// its declared range; a signal never carries a partial score set downstream.
func (s *Scorer) Score(sig *domain.Signal) error {
	if sig.State != domain.StateUnscored {
		return fmt.Errorf("signal %s: cannot score in state %q", sig.ID, sig.State)
	}

	text := normalizeText(sig.Title + " " + sig.Description + " " + sig.ContentSnippet)
	engagement, hasEngagement := engagementMetric(sig)

	sig.SignalStrength = s.strength(sig.SourceType, text, engagement)
	sig.RelevanceScore = s.relevance(text)
	sig.ConfidenceLevel = s.confidence(sig.SourceType, engagement, hasEngagement)
	sig.SentimentScore = s.lexicalSentiment(text)
	sig.EngagementScore = s.engagementScore(sig.SourceType, engagement, hasEngagement)
	sig.State = domain.StateScored

	s.logger.Debug("signal scored",
		logger.String("signal_id", sig.ID),
		logger.Int("strength", sig.SignalStrength),
		logger.Int("relevance", sig.RelevanceScore),
		logger.Float64("confidence", sig.ConfidenceLevel),
	)

	return nil
}

// strength is the per-source additive point score: a floor of 3 plus
// category bonuses, clamped to 1-10.
func (s *Scorer) strength(source domain.SourceType, text string, engagement float64) int {
	score := baseStrength

	switch source {
	case domain.SourceNewsMedia:
		if s.funding.present(text) {
			score += fundingBonus
		}
		if s.hiring.present(text) {
			score += hiringBonus
		}
		if s.partnership.present(text) {
			score += partnershipBonus
		}
	case domain.SourceSocialMedia:
		if engagement >= s.cfg.EngagementThreshold {
			score += engagementBonus
		}
		if s.advice.present(text) {
			score += adviceBonus
		}
		if s.evaluation.present(text) {
			score += evaluationBonus
		}
	case domain.SourceJobBoard:
		if s.seniority.present(text) {
			score += seniorityBonus
		}
		if s.tech.present(text) {
			score += techBonus
		}
		if s.remote.present(text) {
			score += remoteBonus
		}
	}

	return clampInt(score, domain.MinStrength, domain.MaxStrength)
}

// relevance weights the count of distinct buying-intent keyword hits.
func (s *Scorer) relevance(text string) int {
	return clampInt(1+relevanceHitWeight*s.buying.hits(text), domain.MinRelevance, domain.MaxRelevance)
}

// confidence is the per-source reliability prior, adjusted by 0.1 when
// engagement metrics are present to corroborate (or undercut) the signal.
func (s *Scorer) confidence(source domain.SourceType, engagement float64, hasEngagement bool) float64 {
	var prior float64
	switch source {
	case domain.SourceNewsMedia:
		prior = s.cfg.NewsConfidence
	case domain.SourceSocialMedia:
		prior = s.cfg.SocialConfidence
	case domain.SourceJobBoard:
		prior = s.cfg.JobConfidence
	}

	if hasEngagement {
		if engagement >= s.cfg.EngagementThreshold {
			prior += confidenceAdjust
		} else {
			prior -= confidenceAdjust
		}
	}

	return clampFloat(prior, 0, 1)
}

// lexicalSentiment is the keyword-polarity fallback, used until model
// enrichment overrides it. Normalized to [-1, 1].
func (s *Scorer) lexicalSentiment(text string) float64 {
	diff := float64(s.positive.hits(text) - s.negative.hits(text))
	return clampFloat(diff/sentimentNormalizer, -1, 1)
}

func (s *Scorer) engagementScore(source domain.SourceType, engagement float64, hasEngagement bool) int {
	if source != domain.SourceSocialMedia && !hasEngagement {
		return 0
	}
	return clampInt(int(engagement), 0, domain.MaxEngagement)
}

// engagementMetric extracts the raw engagement count from the per-source
// metrics map: upvotes+comments for social posts, or an explicit
// "engagement" value for any other source that supplies an analogous count.
func engagementMetric(sig *domain.Signal) (float64, bool) {
	if sig.RawMetrics == nil {
		return 0, false
	}
	upvotes, hasUp := sig.RawMetrics[MetricUpvotes]
	comments, hasCom := sig.RawMetrics[MetricComments]
	if hasUp || hasCom {
		return upvotes + comments, true
	}
	if eng, ok := sig.RawMetrics[MetricEngagement]; ok {
		return eng, true
	}
	return 0, false
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
