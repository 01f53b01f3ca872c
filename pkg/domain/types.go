package domain

import "time"

type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTwitter   Platform = "twitter"
	PlatformFacebook  Platform = "facebook"
)

type ContentType string

const (
	ContentPost        ContentType = "post"
	ContentStory       ContentType = "story"
	ContentCarousel    ContentType = "carousel"
	ContentInfographic ContentType = "infographic"
	ContentVideo       ContentType = "video"
	ContentArticle     ContentType = "article"
)

type Tone string

const (
	ToneProfessional   Tone = "professional"
	ToneThoughtLeader  Tone = "thought_leader"
	ToneEducational    Tone = "educational"
	ToneInspirational  Tone = "inspirational"
	ToneConversational Tone = "conversational"
)

type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusProcessing RequestStatus = "processing"
	StatusGenerated  RequestStatus = "generated"
	StatusReview     RequestStatus = "review"
	StatusApproved   RequestStatus = "approved"
	StatusRejected   RequestStatus = "rejected"
	StatusPublished  RequestStatus = "published"
	StatusArchived   RequestStatus = "archived"
)

type EnforcementLevel string

const (
	EnforcementStrict   EnforcementLevel = "strict"
	EnforcementModerate EnforcementLevel = "moderate"
	EnforcementFlexible EnforcementLevel = "flexible"
	EnforcementAdvisory EnforcementLevel = "advisory"
)

// BrandProfile is owned by an organization's brand administrators.
// The pipeline only ever reads it.
type BrandProfile struct {
	ID                 string           `json:"id"`
	OrgID              string           `json:"orgId"`
	Name               string           `json:"name"`
	PrimaryColor       string           `json:"primaryColor"`
	SecondaryColor     string           `json:"secondaryColor"`
	AccentColor        string           `json:"accentColor"`
	ApprovedFonts      []string         `json:"approvedFonts"`
	Voice              string           `json:"voice"`
	BrandTags          []string         `json:"brandTags"`
	Enforcement        EnforcementLevel `json:"enforcement"`
	MinComplianceScore float64          `json:"minComplianceScore"`
	AudienceUTCOffset  *int             `json:"audienceUtcOffset,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// ContentRequest is one submitted insight. Status transitions are performed
// only by the workflow engine and the adaptation pipeline.
type ContentRequest struct {
	ID                  string            `json:"id"`
	OrgID               string            `json:"orgId"`
	Insight             string            `json:"insight"`
	Platforms           []Platform        `json:"platforms"`
	ContentType         ContentType       `json:"contentType"`
	BrandProfileID      string            `json:"brandProfileId"`
	Status              RequestStatus     `json:"status"`
	StatusReason        string            `json:"statusReason,omitempty"`
	Priority            int               `json:"priority"`
	StylePreferences    map[string]string `json:"stylePreferences,omitempty"`
	ProcessingStartedAt *time.Time        `json:"processingStartedAt,omitempty"`
	ProcessingEndedAt   *time.Time        `json:"processingEndedAt,omitempty"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

// ImageSpec describes the asset the platform expects.
type ImageSpec struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspectRatio"`
	Format      string  `json:"format"`
}

// ContentOptimization is the per-(request, platform) result. The compliance
// and prediction maps are filled in after creation; everything else is fixed.
type ContentOptimization struct {
	ID                 string             `json:"id"`
	RequestID          string             `json:"requestId"`
	Platform           Platform           `json:"platform"`
	ContentType        ContentType        `json:"contentType"`
	Title              string             `json:"title"`
	Caption            string             `json:"caption"`
	Hashtags           []string           `json:"hashtags"`
	CallToAction       string             `json:"callToAction"`
	Tone               Tone               `json:"tone"`
	Image              ImageSpec          `json:"image"`
	ImageStorageKey    string             `json:"imageStorageKey,omitempty"`
	ImagePending       bool               `json:"imagePending"`
	Degraded           bool               `json:"degraded"`
	DegradedReason     string             `json:"degradedReason,omitempty"`
	OptimalPostingTime time.Time          `json:"optimalPostingTime"`
	PredictionScores   map[string]float64 `json:"predictionScores,omitempty"`
	ComplianceChecks   map[string]bool    `json:"complianceChecks,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
}

type Verdict string

const (
	VerdictPassed       Verdict = "passed"
	VerdictManualReview Verdict = "manual_review"
	VerdictFailed       Verdict = "failed"
)

// Violation records one compliance finding.
type Violation struct {
	Dimension   string `json:"dimension"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// ComplianceResult carries the composite brand score for one optimization.
type ComplianceResult struct {
	ID             string             `json:"id"`
	OptimizationID string             `json:"optimizationId"`
	Score          float64            `json:"score"`
	SubScores      map[string]float64 `json:"subScores"`
	Verdict        Verdict            `json:"verdict"`
	Violations     []Violation        `json:"violations,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// EngagementPrediction is the heuristic performance estimate for one optimization.
type EngagementPrediction struct {
	ID             string             `json:"id"`
	OptimizationID string             `json:"optimizationId"`
	Metrics        map[string]float64 `json:"metrics"`
	Confidence     float64            `json:"confidence"`
	KeyFactors     []string           `json:"keyFactors,omitempty"`
	Suggestions    []string           `json:"suggestions,omitempty"`
	RiskFactors    []string           `json:"riskFactors,omitempty"`
	Timeline       map[string]float64 `json:"timeline"`
	CreatedAt      time.Time          `json:"createdAt"`
}

type Decision string

const (
	DecisionPending   Decision = "pending"
	DecisionApproved  Decision = "approved"
	DecisionRejected  Decision = "rejected"
	DecisionDelegated Decision = "delegated"
)

// ApprovalStep is one configured step of an organization's approval workflow.
type ApprovalStep struct {
	Order               int           `json:"order"`
	ApproverRole        string        `json:"approverRole"`
	AutoApproveMinScore *float64      `json:"autoApproveMinScore,omitempty"`
	EscalationTimeout   time.Duration `json:"escalationTimeout,omitempty"`
	EscalationRole      string        `json:"escalationRole,omitempty"`
}

// ApprovalWorkflow is organization-owned configuration, read-only to the pipeline.
type ApprovalWorkflow struct {
	ID    string         `json:"id"`
	OrgID string         `json:"orgId"`
	Name  string         `json:"name"`
	Steps []ApprovalStep `json:"steps"`
}

// ApprovalStepRecord is one step instance for one request. Once decided it is
// immutable; delegation may rewrite the approver while still pending.
type ApprovalStepRecord struct {
	ID           string     `json:"id"`
	RequestID    string     `json:"requestId"`
	StepOrder    int        `json:"stepOrder"`
	ApproverID   string     `json:"approverId"`
	Decision     Decision   `json:"decision"`
	Comments     string     `json:"comments,omitempty"`
	DelegatedTo  string     `json:"delegatedTo,omitempty"`
	Escalated    bool       `json:"escalated"`
	AutoApproved bool       `json:"autoApproved"`
	ActivatedAt  time.Time  `json:"activatedAt"`
	DecidedAt    *time.Time `json:"decidedAt,omitempty"`
}

// UsageRecord is one append-only entry of the external-API call log.
type UsageRecord struct {
	ID        string        `json:"id"`
	OrgID     string        `json:"orgId"`
	Provider  string        `json:"provider"`
	Operation string        `json:"operation"`
	Cost      float64       `json:"cost"`
	Latency   time.Duration `json:"latency"`
	Status    string        `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}

// DailyUsageSummary is the per-day roll-up of UsageRecords, always derivable
// from the log.
type DailyUsageSummary struct {
	OrgID        string  `json:"orgId"`
	Provider     string  `json:"provider"`
	Date         string  `json:"date"`
	Requests     int     `json:"requests"`
	Succeeded    int     `json:"succeeded"`
	Failed       int     `json:"failed"`
	TotalCost    float64 `json:"totalCost"`
	AvgLatencyMS float64 `json:"avgLatencyMs"`
}
