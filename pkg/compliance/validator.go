package compliance

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"brandcraft/pkg/domain"
	"brandcraft/pkg/platform"
)

// Scoring dimensions.
const (
	DimColor      = "color"
	DimLogo       = "logo"
	DimTypography = "typography"
	DimLayout     = "layout"
	DimVoice      = "voice"
)

const subScoreFloor = 0.8

// Config tunes verdict boundaries and the strict-mode voice weight.
type Config struct {
	// VoiceWeight is carved out for the voice dimension under strict
	// enforcement; the remaining dimensions are rescaled proportionally.
	VoiceWeight float64
	// ReviewBand is the width of the manual-review band below the brand's
	// minimum score.
	ReviewBand float64
}

// DefaultConfig matches the shipped scoring scheme.
func DefaultConfig() Config {
	return Config{VoiceWeight: 0.20, ReviewBand: 0.05}
}

// Validator scores optimizations against brand profiles. Validate is pure:
// identical inputs always produce the identical result.
type Validator struct {
	cfg      Config
	registry *platform.Registry
}

// New constructs a validator. Zero config values fall back to defaults.
func New(cfg Config, registry *platform.Registry) *Validator {
	def := DefaultConfig()
	if cfg.VoiceWeight <= 0 || cfg.VoiceWeight >= 1 {
		cfg.VoiceWeight = def.VoiceWeight
	}
	if cfg.ReviewBand <= 0 {
		cfg.ReviewBand = def.ReviewBand
	}
	return &Validator{cfg: cfg, registry: registry}
}

// Weights returns the effective dimension weights for an enforcement level.
// They always sum to 1.0.
func (v *Validator) Weights(level domain.EnforcementLevel) map[string]float64 {
	base := map[string]float64{
		DimColor:      0.25,
		DimLogo:       0.30,
		DimTypography: 0.20,
		DimLayout:     0.25,
	}
	if level != domain.EnforcementStrict {
		return base
	}
	scaled := make(map[string]float64, len(base)+1)
	for dim, w := range base {
		scaled[dim] = w * (1 - v.cfg.VoiceWeight)
	}
	scaled[DimVoice] = v.cfg.VoiceWeight
	return scaled
}

// Validate scores one optimization against a brand profile.
// The returned result has no ID or timestamp; the caller assigns those
// before persisting so that scoring itself stays reproducible.
func (v *Validator) Validate(opt domain.ContentOptimization, profile domain.BrandProfile) (domain.ComplianceResult, error) {
	spec, err := v.registry.Spec(opt.Platform)
	if err != nil {
		return domain.ComplianceResult{}, err
	}

	subScores := map[string]float64{
		DimColor:      v.scoreColor(opt, profile),
		DimLogo:       v.scoreLogo(opt, profile),
		DimTypography: v.scoreTypography(opt, profile),
		DimLayout:     v.scoreLayout(opt, spec),
	}
	if profile.Enforcement == domain.EnforcementStrict {
		subScores[DimVoice] = v.scoreVoice(opt, profile)
	}

	weights := v.Weights(profile.Enforcement)
	var score float64
	for dim, w := range weights {
		score += w * subScores[dim]
	}
	score = clamp01(score)

	result := domain.ComplianceResult{
		OptimizationID: opt.ID,
		Score:          score,
		SubScores:      subScores,
		Verdict:        v.verdict(score, profile.MinComplianceScore),
		Violations:     violations(subScores),
	}
	return result, nil
}

func (v *Validator) verdict(score, minimum float64) domain.Verdict {
	switch {
	case score >= minimum:
		return domain.VerdictPassed
	case score >= minimum-v.cfg.ReviewBand:
		return domain.VerdictManualReview
	default:
		return domain.VerdictFailed
	}
}

// scoreColor checks palette completeness; a pending image cannot carry the
// brand palette yet so it caps the score.
func (v *Validator) scoreColor(opt domain.ContentOptimization, profile domain.BrandProfile) float64 {
	if opt.ImagePending {
		return 0.55
	}
	score := 1.0
	if strings.TrimSpace(profile.PrimaryColor) == "" {
		score -= 0.30
	}
	if strings.TrimSpace(profile.SecondaryColor) == "" {
		score -= 0.15
	}
	if strings.TrimSpace(profile.AccentColor) == "" {
		score -= 0.10
	}
	return clamp01(score)
}

// scoreLogo checks for brand-element presence in the text surface.
func (v *Validator) scoreLogo(opt domain.ContentOptimization, profile domain.BrandProfile) float64 {
	score := 0.4
	caption := strings.ToLower(opt.Caption)
	if name := strings.ToLower(strings.TrimSpace(profile.Name)); name != "" && strings.Contains(caption, name) {
		score += 0.3
	}
	tags := make(map[string]bool, len(opt.Hashtags))
	for _, tag := range opt.Hashtags {
		tags[strings.ToLower(strings.TrimPrefix(tag, "#"))] = true
	}
	for _, brandTag := range profile.BrandTags {
		if tags[strings.ToLower(strings.TrimPrefix(brandTag, "#"))] {
			score += 0.3
			break
		}
	}
	if opt.ImagePending && score > 0.7 {
		score = 0.7
	}
	return clamp01(score)
}

func (v *Validator) scoreTypography(opt domain.ContentOptimization, profile domain.BrandProfile) float64 {
	score := 1.0
	if len(profile.ApprovedFonts) == 0 {
		score = 0.5
	}
	if shoutingRatio(opt.Caption) > 0.3 {
		score -= 0.2
	}
	return clamp01(score)
}

func (v *Validator) scoreLayout(opt domain.ContentOptimization, spec platform.Spec) float64 {
	score := 1.0
	if strings.TrimSpace(opt.Caption) == "" {
		score -= 0.2
	}
	if len(opt.Caption) > spec.CaptionLimit {
		score -= 0.4
	}
	if len(opt.Hashtags) > spec.OptimalHashtags {
		score -= 0.2
	}
	w, h := spec.ImageDims(opt.ContentType)
	if opt.Image.Width != w || opt.Image.Height != h {
		score -= 0.2
	}
	return clamp01(score)
}

// scoreVoice maps the brand voice descriptor to the tones it permits.
func (v *Validator) scoreVoice(opt domain.ContentOptimization, profile domain.BrandProfile) float64 {
	allowed, adjacent := tonesForVoice(profile.Voice)
	switch {
	case allowed[opt.Tone]:
		return 1.0
	case adjacent[opt.Tone]:
		return 0.7
	default:
		return 0.4
	}
}

func tonesForVoice(voice string) (allowed, adjacent map[domain.Tone]bool) {
	switch strings.ToLower(strings.TrimSpace(voice)) {
	case "professional_authority", "professional":
		return toneSet(domain.ToneProfessional, domain.ToneThoughtLeader),
			toneSet(domain.ToneEducational)
	case "approachable_expertise", "approachable":
		return toneSet(domain.ToneConversational, domain.ToneEducational),
			toneSet(domain.ToneProfessional, domain.ToneInspirational)
	case "inspirational":
		return toneSet(domain.ToneInspirational),
			toneSet(domain.ToneConversational, domain.ToneThoughtLeader)
	default:
		// Unknown descriptor: every tone is merely adjacent.
		return toneSet(), toneSet(
			domain.ToneProfessional, domain.ToneThoughtLeader, domain.ToneEducational,
			domain.ToneInspirational, domain.ToneConversational)
	}
}

func toneSet(tones ...domain.Tone) map[domain.Tone]bool {
	m := make(map[domain.Tone]bool, len(tones))
	for _, t := range tones {
		m[t] = true
	}
	return m
}

// violations lists every dimension scoring below the sub-score floor,
// ordered by dimension name for reproducibility.
func violations(subScores map[string]float64) []domain.Violation {
	dims := make([]string, 0, len(subScores))
	for dim := range subScores {
		dims = append(dims, dim)
	}
	sort.Strings(dims)

	var out []domain.Violation
	for _, dim := range dims {
		score := subScores[dim]
		if score >= subScoreFloor {
			continue
		}
		out = append(out, domain.Violation{
			Dimension:   dim,
			Description: fmt.Sprintf("%s score %.2f below required %.2f", dim, score, subScoreFloor),
			Severity:    severityFor(score),
		})
	}
	return out
}

func severityFor(score float64) string {
	switch {
	case score >= 0.6:
		return "low"
	case score >= 0.4:
		return "medium"
	default:
		return "high"
	}
}

func shoutingRatio(s string) float64 {
	var letters, upper int
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
