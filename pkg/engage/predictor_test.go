package engage

import (
	"reflect"
	"testing"
	"time"

	"brandcraft/pkg/domain"
	"brandcraft/pkg/platform"
)

func testOptimization(p domain.Platform) domain.ContentOptimization {
	return domain.ContentOptimization{
		ID:           "opt-1",
		Platform:     p,
		ContentType:  domain.ContentPost,
		Tone:         domain.ToneProfessional,
		Caption:      "Our clients see proven results. Want to learn why? Contact us today.",
		Hashtags:     []string{"#Consulting", "#Leadership", "#Growth"},
		CallToAction: "Contact us today",
	}
}

func TestPredictProducesBoundedMetrics(t *testing.T) {
	p := New(platform.NewRegistry())
	pred, err := p.Predict(testOptimization(domain.PlatformLinkedIn), nil)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	for name, v := range pred.Metrics {
		if v < 0 || v > 1 {
			t.Fatalf("metric %s out of range: %f", name, v)
		}
	}
	if pred.Metrics[MetricEngagementRate] <= 0 {
		t.Fatalf("expected positive engagement rate")
	}
	if pred.Metrics[MetricLikes] >= pred.Metrics[MetricEngagementRate] {
		t.Fatalf("likes should be a fraction of engagement rate")
	}
}

func TestPredictUnknownPlatform(t *testing.T) {
	p := New(platform.NewRegistry())
	if _, err := p.Predict(domain.ContentOptimization{Platform: "myspace"}, nil); err == nil {
		t.Fatalf("expected error for unknown platform")
	}
}

func TestTimelineMonotoneAndCapped(t *testing.T) {
	p := New(platform.NewRegistry())
	order := []string{"1h", "6h", "24h", "7d"}
	for _, pf := range []domain.Platform{domain.PlatformInstagram, domain.PlatformLinkedIn, domain.PlatformTwitter, domain.PlatformFacebook} {
		pred, err := p.Predict(testOptimization(pf), nil)
		if err != nil {
			t.Fatalf("Predict(%s): %v", pf, err)
		}
		prev := 0.0
		for _, key := range order {
			v, ok := pred.Timeline[key]
			if !ok {
				t.Fatalf("%s timeline missing %s", pf, key)
			}
			if v < prev {
				t.Fatalf("%s timeline not monotone at %s: %f < %f", pf, key, v, prev)
			}
			if v > 1.0 {
				t.Fatalf("%s timeline exceeds 1.0 at %s: %f", pf, key, v)
			}
			prev = v
		}
		if pred.Timeline["7d"] != 1.0 {
			t.Fatalf("%s timeline should reach 1.0 at 7d, got %f", pf, pred.Timeline["7d"])
		}
	}
}

func TestHistoryRaisesConfidence(t *testing.T) {
	p := New(platform.NewRegistry())
	opt := testOptimization(domain.PlatformLinkedIn)

	cold, err := p.Predict(opt, nil)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	warm, err := p.Predict(opt, HistoricalAggregates{
		domain.PlatformLinkedIn: {EngagementRate: 0.05, SampleSize: 200},
	})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if warm.Confidence <= cold.Confidence {
		t.Fatalf("history should raise confidence: warm %f cold %f", warm.Confidence, cold.Confidence)
	}
}

func TestConfidenceNeverZero(t *testing.T) {
	p := New(platform.NewRegistry())
	opt := domain.ContentOptimization{
		Platform:    domain.PlatformTwitter,
		ContentType: domain.ContentPost,
		Tone:        domain.ToneProfessional,
		Caption:     "hello",
	}
	pred, err := p.Predict(opt, nil)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if pred.Confidence <= 0 {
		t.Fatalf("confidence must stay positive, got %f", pred.Confidence)
	}
}

func TestTriggerDetection(t *testing.T) {
	f := analyzeCaption("Our expert team has proven results. The secret? Learn from client success stories.", "")
	want := []string{TriggerAuthority, TriggerCuriosity, TriggerEducation, TriggerSocialProof}
	if !reflect.DeepEqual(f.triggers, want) {
		t.Fatalf("triggers = %v, want %v", f.triggers, want)
	}
	if !f.hasQuestion {
		t.Fatalf("expected question detection")
	}
}

func TestTriggersLiftEngagement(t *testing.T) {
	p := New(platform.NewRegistry())
	rich := testOptimization(domain.PlatformLinkedIn)
	flat := rich
	flat.Caption = "We posted something."
	flat.CallToAction = ""

	richPred, err := p.Predict(rich, nil)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	flatPred, err := p.Predict(flat, nil)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if richPred.Metrics[MetricEngagementRate] <= flatPred.Metrics[MetricEngagementRate] {
		t.Fatalf("triggers and CTA should lift engagement: %f vs %f",
			richPred.Metrics[MetricEngagementRate], flatPred.Metrics[MetricEngagementRate])
	}
	if len(flatPred.Suggestions) == 0 {
		t.Fatalf("flat caption should produce suggestions")
	}
}

func TestPeakHourMultiplier(t *testing.T) {
	reg := platform.NewRegistry()
	spec, err := reg.Spec(domain.PlatformLinkedIn)
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	peak := domain.ContentOptimization{OptimalPostingTime: time.Date(2026, 3, 3, spec.PeakHours[0], 0, 0, 0, time.UTC)}
	off := domain.ContentOptimization{OptimalPostingTime: time.Date(2026, 3, 3, 3, 0, 0, 0, time.UTC)}
	if m := postingTimeMultiplier(peak, spec); m != 1.15 {
		t.Fatalf("peak hour multiplier = %f, want 1.15", m)
	}
	if m := postingTimeMultiplier(off, spec); m != 0.85 {
		t.Fatalf("off hour multiplier = %f, want 0.85", m)
	}
}

func TestRiskFactors(t *testing.T) {
	p := New(platform.NewRegistry())
	opt := testOptimization(domain.PlatformLinkedIn)
	opt.Caption = "Quarterly update attached."
	opt.ImagePending = true
	pred, err := p.Predict(opt, nil)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	found := map[string]bool{}
	for _, r := range pred.RiskFactors {
		found[r] = true
	}
	if !found["no psychological triggers detected"] {
		t.Fatalf("expected trigger risk, got %v", pred.RiskFactors)
	}
	if !found["visual asset still pending"] {
		t.Fatalf("expected pending image risk, got %v", pred.RiskFactors)
	}
}

func TestPredictIsDeterministic(t *testing.T) {
	p := New(platform.NewRegistry())
	opt := testOptimization(domain.PlatformInstagram)
	a, err := p.Predict(opt, nil)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	b, err := p.Predict(opt, nil)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("predictions differ across runs")
	}
}
