package engage

import (
	"sort"
	"strings"

	"brandcraft/pkg/domain"
	"brandcraft/pkg/platform"
)

// Trigger names detected in captions.
const (
	TriggerAuthority   = "authority"
	TriggerSocialProof = "social_proof"
	TriggerCuriosity   = "curiosity"
	TriggerEducation   = "education"
	TriggerInspiration = "inspiration"
)

// Metric names emitted in predictions.
const (
	MetricEngagementRate = "engagement_rate"
	MetricLikes          = "likes"
	MetricComments       = "comments"
	MetricShares         = "shares"
	MetricSaves          = "saves"
	MetricClicks         = "clicks"
	MetricConversionRate = "conversion_rate"
)

// PlatformBaseline holds historical aggregates for one platform.
type PlatformBaseline struct {
	EngagementRate float64
	SampleSize     int
}

// HistoricalAggregates maps platforms to their observed baselines. A missing
// entry lowers prediction confidence but never blocks a prediction.
type HistoricalAggregates map[domain.Platform]PlatformBaseline

var triggerKeywords = map[string][]string{
	TriggerAuthority:   {"expert", "experience", "proven", "results", "years"},
	TriggerSocialProof: {"client", "clients", "customers", "success", "testimonial"},
	TriggerCuriosity:   {"secret", "surprising", "hidden", "unknown", "revealed", "why"},
	TriggerEducation:   {"learn", "discover", "understand", "insight", "tip"},
	TriggerInspiration: {"growth", "achieve", "transform", "vision", "journey"},
}

// Per-platform effectiveness of each trigger.
var triggerEffect = map[string]map[domain.Platform]float64{
	TriggerAuthority:   {domain.PlatformInstagram: 0.6, domain.PlatformLinkedIn: 0.9, domain.PlatformTwitter: 0.7, domain.PlatformFacebook: 0.7},
	TriggerSocialProof: {domain.PlatformInstagram: 0.9, domain.PlatformLinkedIn: 0.8, domain.PlatformTwitter: 0.6, domain.PlatformFacebook: 0.8},
	TriggerCuriosity:   {domain.PlatformInstagram: 0.8, domain.PlatformLinkedIn: 0.7, domain.PlatformTwitter: 0.9, domain.PlatformFacebook: 0.6},
	TriggerEducation:   {domain.PlatformInstagram: 0.7, domain.PlatformLinkedIn: 0.9, domain.PlatformTwitter: 0.8, domain.PlatformFacebook: 0.7},
	TriggerInspiration: {domain.PlatformInstagram: 0.8, domain.PlatformLinkedIn: 0.7, domain.PlatformTwitter: 0.6, domain.PlatformFacebook: 0.8},
}

var defaultBaselines = map[domain.Platform]float64{
	domain.PlatformLinkedIn:  0.045,
	domain.PlatformInstagram: 0.038,
	domain.PlatformTwitter:   0.025,
	domain.PlatformFacebook:  0.032,
}

var contentTypeMultiplier = map[domain.ContentType]float64{
	domain.ContentPost:        1.0,
	domain.ContentCarousel:    1.25,
	domain.ContentInfographic: 1.15,
	domain.ContentStory:       0.9,
	domain.ContentVideo:       1.1,
	domain.ContentArticle:     0.95,
}

var toneMultiplier = map[domain.Tone]float64{
	domain.ToneProfessional:   1.0,
	domain.ToneThoughtLeader:  1.1,
	domain.ToneEducational:    1.05,
	domain.ToneInspirational:  1.05,
	domain.ToneConversational: 0.95,
}

// Cumulative reach fraction reached at each checkpoint after posting.
var reachCurves = map[domain.Platform]map[string]float64{
	domain.PlatformTwitter:   {"1h": 0.60, "6h": 0.80, "24h": 0.95, "7d": 1.0},
	domain.PlatformInstagram: {"1h": 0.30, "6h": 0.60, "24h": 0.85, "7d": 1.0},
	domain.PlatformLinkedIn:  {"1h": 0.20, "6h": 0.50, "24h": 0.75, "7d": 1.0},
	domain.PlatformFacebook:  {"1h": 0.25, "6h": 0.50, "24h": 0.80, "7d": 1.0},
}

var platformConfidence = map[domain.Platform]float64{
	domain.PlatformLinkedIn:  0.85,
	domain.PlatformFacebook:  0.80,
	domain.PlatformInstagram: 0.75,
	domain.PlatformTwitter:   0.70,
}

// Predictor estimates engagement for optimizations using fixed heuristics.
// Like the compliance validator it is deterministic; the returned prediction
// carries no ID or timestamp.
type Predictor struct {
	registry *platform.Registry
}

func New(registry *platform.Registry) *Predictor {
	return &Predictor{registry: registry}
}

// Predict scores one optimization against historical aggregates.
func (p *Predictor) Predict(opt domain.ContentOptimization, history HistoricalAggregates) (domain.EngagementPrediction, error) {
	spec, err := p.registry.Spec(opt.Platform)
	if err != nil {
		return domain.EngagementPrediction{}, err
	}

	features := analyzeCaption(opt.Caption, opt.CallToAction)
	base, haveHistory := baseRate(opt.Platform, history)
	rate := base *
		lookupOr(contentTypeMultiplier, opt.ContentType, 1.0) *
		lookupOr(toneMultiplier, opt.Tone, 1.0) *
		featureMultiplier(features, opt.Platform) *
		postingTimeMultiplier(opt, spec) *
		hashtagMultiplier(len(opt.Hashtags), spec.OptimalHashtags)

	metrics := map[string]float64{
		MetricEngagementRate: cap1(rate),
		MetricLikes:          cap1(rate * 0.7),
		MetricComments:       cap1(rate * 0.15),
		MetricShares:         cap1(rate * 0.12),
		MetricSaves:          cap1(rate * 0.08),
		MetricClicks:         cap1(rate * 0.25),
		MetricConversionRate: cap1(rate * 0.1),
	}

	return domain.EngagementPrediction{
		OptimizationID: opt.ID,
		Metrics:        metrics,
		Confidence:     confidence(opt, features, haveHistory),
		KeyFactors:     features.keyFactors(),
		Suggestions:    suggestions(opt, features, metrics),
		RiskFactors:    riskFactors(opt, features, metrics, base),
		Timeline:       timeline(opt.Platform),
	}, nil
}

type captionFeatures struct {
	wordCount   int
	hasQuestion bool
	hasCTA      bool
	triggers    []string
}

func analyzeCaption(caption, cta string) captionFeatures {
	lower := strings.ToLower(caption)
	f := captionFeatures{
		wordCount:   len(strings.Fields(caption)),
		hasQuestion: strings.Contains(caption, "?"),
		hasCTA:      strings.TrimSpace(cta) != "" || containsAny(lower, []string{"comment", "share", "follow", "learn more", "contact", "dm us"}),
	}
	names := make([]string, 0, len(triggerKeywords))
	for name := range triggerKeywords {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if containsAny(lower, triggerKeywords[name]) {
			f.triggers = append(f.triggers, name)
		}
	}
	return f
}

func (f captionFeatures) keyFactors() []string {
	var out []string
	if f.hasQuestion {
		out = append(out, "interactive_question")
	}
	if f.hasCTA {
		out = append(out, "clear_cta")
	}
	if len(f.triggers) > 0 {
		out = append(out, "psychological_triggers")
	}
	return out
}

func baseRate(p domain.Platform, history HistoricalAggregates) (float64, bool) {
	if baseline, ok := history[p]; ok && baseline.EngagementRate > 0 {
		return baseline.EngagementRate, true
	}
	if rate, ok := defaultBaselines[p]; ok {
		return rate, false
	}
	return 0.03, false
}

func featureMultiplier(f captionFeatures, p domain.Platform) float64 {
	m := 1.0
	if f.hasQuestion {
		m *= 1.25
	}
	if f.hasCTA {
		m *= 1.15
	}
	if len(f.triggers) > 0 {
		var boost float64
		for _, trigger := range f.triggers {
			boost += lookupOr(triggerEffect[trigger], p, 0.5)
		}
		boost /= float64(len(f.triggers))
		m *= 1 + boost*0.3
	}
	return m
}

func postingTimeMultiplier(opt domain.ContentOptimization, spec platform.Spec) float64 {
	if opt.OptimalPostingTime.IsZero() || len(spec.PeakHours) == 0 {
		return 1.0
	}
	hour := opt.OptimalPostingTime.UTC().Hour()
	for _, peak := range spec.PeakHours {
		if hour == peak {
			return 1.15
		}
	}
	for _, peak := range spec.PeakHours {
		if hour == peak-1 || hour == peak+1 {
			return 1.0
		}
	}
	return 0.85
}

func hashtagMultiplier(count, optimal int) float64 {
	if optimal <= 0 || count == 0 {
		return 1.0
	}
	diff := count - optimal
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff == 0:
		return 1.2
	case diff <= 2:
		return 1.1
	case float64(count) > float64(optimal)*1.5:
		return 0.9
	default:
		return 1.0
	}
}

// confidence shrinks with each heuristic input that could not be evaluated
// but never reaches zero.
func confidence(opt domain.ContentOptimization, f captionFeatures, haveHistory bool) float64 {
	factors := make([]float64, 0, 4)
	if haveHistory {
		factors = append(factors, 0.8)
	} else {
		factors = append(factors, 0.5)
	}
	factors = append(factors, minFloat(float64(len(f.keyFactors()))/3.0, 1.0))
	factors = append(factors, lookupOr(platformConfidence, opt.Platform, 0.7))
	if opt.OptimalPostingTime.IsZero() {
		factors = append(factors, 0.5)
	} else {
		factors = append(factors, 0.85)
	}

	var sum float64
	for _, f := range factors {
		sum += f
	}
	score := sum / float64(len(factors))
	if score < 0.2 {
		score = 0.2
	}
	return score
}

func suggestions(opt domain.ContentOptimization, f captionFeatures, metrics map[string]float64) []string {
	var out []string
	if !f.hasQuestion {
		out = append(out, "Add an engaging question to encourage comments")
	}
	if !f.hasCTA {
		out = append(out, "Include a clear call-to-action")
	}
	if len(f.triggers) < 2 {
		out = append(out, "Incorporate more psychological triggers such as authority or social proof")
	}
	if opt.Platform == domain.PlatformTwitter && f.wordCount > 30 {
		out = append(out, "Consider splitting long copy into a thread")
	}
	if metrics[MetricEngagementRate] < 0.03 {
		out = append(out, "Strengthen the hook or value proposition")
	}
	return out
}

func riskFactors(opt domain.ContentOptimization, f captionFeatures, metrics map[string]float64, baseline float64) []string {
	var out []string
	if len(f.triggers) == 0 {
		out = append(out, "no psychological triggers detected")
	}
	if opt.Platform == domain.PlatformTwitter && f.wordCount > 40 {
		out = append(out, "copy may be too long for the platform")
	}
	if opt.ImagePending {
		out = append(out, "visual asset still pending")
	}
	if metrics[MetricEngagementRate] < baseline {
		out = append(out, "predicted engagement below historical baseline")
	}
	return out
}

func timeline(p domain.Platform) map[string]float64 {
	curve, ok := reachCurves[p]
	if !ok {
		curve = map[string]float64{"1h": 0.25, "6h": 0.5, "24h": 0.8, "7d": 1.0}
	}
	out := make(map[string]float64, len(curve))
	for k, v := range curve {
		out[k] = v
	}
	return out
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func lookupOr[K comparable](m map[K]float64, key K, fallback float64) float64 {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}

func cap1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
