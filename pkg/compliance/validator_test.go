package compliance

import (
	"math"
	"reflect"
	"testing"

	"brandcraft/pkg/domain"
	"brandcraft/pkg/platform"
)

func testProfile() domain.BrandProfile {
	return domain.BrandProfile{
		ID:                 "bp-1",
		OrgID:              "org-1",
		Name:               "Northstar Consulting",
		PrimaryColor:       "#1B2A4A",
		SecondaryColor:     "#C9A227",
		AccentColor:        "#F4F4F2",
		ApprovedFonts:      []string{"Inter", "Lora"},
		Voice:              "professional_authority",
		BrandTags:          []string{"#NorthstarConsulting", "#BusinessStrategy"},
		Enforcement:        domain.EnforcementModerate,
		MinComplianceScore: 0.80,
	}
}

func testOptimization() domain.ContentOptimization {
	return domain.ContentOptimization{
		ID:          "opt-1",
		RequestID:   "req-1",
		Platform:    domain.PlatformLinkedIn,
		ContentType: domain.ContentPost,
		Caption:     "Northstar Consulting helped a client grow revenue 40% in one year.",
		Hashtags:    []string{"#BusinessStrategy", "#Growth", "#Leadership"},
		Tone:        domain.ToneProfessional,
		Image:       domain.ImageSpec{Width: 1200, Height: 627, Format: "jpeg"},
	}
}

func TestWeightsSumToOne(t *testing.T) {
	v := New(DefaultConfig(), platform.NewRegistry())
	for _, level := range []domain.EnforcementLevel{
		domain.EnforcementStrict, domain.EnforcementModerate,
		domain.EnforcementFlexible, domain.EnforcementAdvisory,
	} {
		weights := v.Weights(level)
		var sum float64
		for _, w := range weights {
			sum += w
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Fatalf("weights for %s sum to %v, want 1.0", level, sum)
		}
		if level == domain.EnforcementStrict {
			if _, ok := weights[DimVoice]; !ok {
				t.Fatalf("strict weights must include voice dimension")
			}
		} else if _, ok := weights[DimVoice]; ok {
			t.Fatalf("%s weights must not include voice dimension", level)
		}
	}
}

// The exact voice weighting scheme is an open point in the source material;
// it is configurable rather than hard-coded, and this test pins the
// redistribution behavior for both schemes.
func TestStrictWeightsRescaleProportionally(t *testing.T) {
	v := New(Config{VoiceWeight: 0.5, ReviewBand: 0.05}, platform.NewRegistry())
	strict := v.Weights(domain.EnforcementStrict)
	base := v.Weights(domain.EnforcementModerate)
	for dim, w := range base {
		if math.Abs(strict[dim]-w*0.5) > 1e-9 {
			t.Fatalf("dimension %s = %v, want %v", dim, strict[dim], w*0.5)
		}
	}
	if strict[DimVoice] != 0.5 {
		t.Fatalf("voice weight = %v, want 0.5", strict[DimVoice])
	}
}

func TestValidateCompositeIsWeightedSum(t *testing.T) {
	v := New(DefaultConfig(), platform.NewRegistry())
	res, err := v.Validate(testOptimization(), testProfile())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if res.Score < 0 || res.Score > 1 {
		t.Fatalf("score out of range: %v", res.Score)
	}
	weights := v.Weights(domain.EnforcementModerate)
	var want float64
	for dim, w := range weights {
		sub := res.SubScores[dim]
		if sub < 0 || sub > 1 {
			t.Fatalf("sub-score %s out of range: %v", dim, sub)
		}
		want += w * sub
	}
	if math.Abs(res.Score-want) > 1e-9 {
		t.Fatalf("score %v != weighted sum %v", res.Score, want)
	}
}

func TestValidateIsDeterministic(t *testing.T) {
	v := New(DefaultConfig(), platform.NewRegistry())
	opt, profile := testOptimization(), testProfile()
	first, err := v.Validate(opt, profile)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	second, err := v.Validate(opt, profile)
	if err != nil {
		t.Fatalf("validate again: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("validate not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestVerdictBoundaryInclusive(t *testing.T) {
	v := New(DefaultConfig(), platform.NewRegistry())
	if got := v.verdict(0.80, 0.80); got != domain.VerdictPassed {
		t.Fatalf("score equal to minimum must pass, got %s", got)
	}
}

func TestVerdictManualReviewBand(t *testing.T) {
	v := New(DefaultConfig(), platform.NewRegistry())
	if got := v.verdict(0.79, 0.80); got != domain.VerdictManualReview {
		t.Fatalf("score just below minimum should need review, got %s", got)
	}
	if got := v.verdict(0.70, 0.80); got != domain.VerdictFailed {
		t.Fatalf("score far below minimum should fail, got %s", got)
	}
}

func TestValidateUnknownPlatform(t *testing.T) {
	v := New(DefaultConfig(), platform.NewRegistry())
	opt := testOptimization()
	opt.Platform = domain.Platform("myspace")
	if _, err := v.Validate(opt, testProfile()); err == nil {
		t.Fatalf("expected unknown platform error")
	}
}

func TestValidateRecordsViolations(t *testing.T) {
	v := New(DefaultConfig(), platform.NewRegistry())
	opt := testOptimization()
	opt.ImagePending = true
	opt.Hashtags = []string{"#one", "#two", "#three", "#four"} // over linkedin optimal

	res, err := v.Validate(opt, testProfile())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(res.Violations) == 0 {
		t.Fatalf("expected violations for degraded optimization")
	}
	var sawColor bool
	for _, viol := range res.Violations {
		if viol.Dimension == DimColor {
			sawColor = true
			if viol.Severity != "low" {
				t.Fatalf("color severity = %s, want low (score 0.55)", viol.Severity)
			}
		}
		if viol.Severity == "" || viol.Description == "" {
			t.Fatalf("violation missing fields: %+v", viol)
		}
	}
	if !sawColor {
		t.Fatalf("expected color violation when image pending, got %+v", res.Violations)
	}
}

func TestStrictEnforcementScoresVoice(t *testing.T) {
	v := New(DefaultConfig(), platform.NewRegistry())
	profile := testProfile()
	profile.Enforcement = domain.EnforcementStrict

	opt := testOptimization()
	res, err := v.Validate(opt, profile)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if res.SubScores[DimVoice] != 1.0 {
		t.Fatalf("professional tone should match authority voice, got %v", res.SubScores[DimVoice])
	}

	opt.Tone = domain.ToneConversational
	res, err = v.Validate(opt, profile)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if res.SubScores[DimVoice] >= 1.0 {
		t.Fatalf("conversational tone should not fully match authority voice")
	}
}
