package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type BrandProfileModel struct {
	ID                 string         `gorm:"primaryKey"`
	OrgID              string         `gorm:"not null;index"`
	Name               string         `gorm:"not null"`
	PrimaryColor       string
	SecondaryColor     string
	AccentColor        string
	ApprovedFonts      datatypes.JSON `gorm:"type:jsonb"`
	Voice              string
	BrandTags          datatypes.JSON `gorm:"type:jsonb"`
	Enforcement        string         `gorm:"not null"`
	MinComplianceScore float64        `gorm:"not null"`
	AudienceUTCOffset  *int
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time
}

type ContentRequestModel struct {
	ID                  string         `gorm:"primaryKey"`
	OrgID               string         `gorm:"not null;index"`
	Insight             string         `gorm:"type:text;not null"`
	Platforms           datatypes.JSON `gorm:"type:jsonb"`
	ContentType         string         `gorm:"not null"`
	BrandProfileID      string         `gorm:"not null;index"`
	Status              string         `gorm:"not null;index"`
	StatusReason        string
	Priority            int
	StylePreferences    datatypes.JSON `gorm:"type:jsonb"`
	ProcessingStartedAt *time.Time
	ProcessingEndedAt   *time.Time
	CreatedAt           time.Time `gorm:"not null;index"`
	UpdatedAt           time.Time `gorm:"not null"`
}

type OptimizationModel struct {
	ID                 string         `gorm:"primaryKey"`
	RequestID          string         `gorm:"not null;uniqueIndex:idx_opt_request_platform"`
	Platform           string         `gorm:"not null;uniqueIndex:idx_opt_request_platform"`
	ContentType        string         `gorm:"not null"`
	Title              string
	Caption            string         `gorm:"type:text"`
	Hashtags           datatypes.JSON `gorm:"type:jsonb"`
	CallToAction       string
	Tone               string
	Image              datatypes.JSON `gorm:"type:jsonb"`
	ImageStorageKey    string
	ImagePending       bool
	Degraded           bool
	DegradedReason     string
	OptimalPostingTime time.Time
	PredictionScores   datatypes.JSON `gorm:"type:jsonb"`
	ComplianceChecks   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt          time.Time      `gorm:"not null"`
}

type ComplianceResultModel struct {
	ID             string `gorm:"primaryKey"`
	OptimizationID string `gorm:"not null;uniqueIndex"`
	Score          float64
	SubScores      datatypes.JSON `gorm:"type:jsonb"`
	Verdict        string         `gorm:"not null"`
	Violations     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"not null"`
}

type PredictionModel struct {
	ID             string         `gorm:"primaryKey"`
	OptimizationID string         `gorm:"not null;uniqueIndex"`
	Metrics        datatypes.JSON `gorm:"type:jsonb"`
	Confidence     float64
	KeyFactors     datatypes.JSON `gorm:"type:jsonb"`
	Suggestions    datatypes.JSON `gorm:"type:jsonb"`
	RiskFactors    datatypes.JSON `gorm:"type:jsonb"`
	Timeline       datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"not null"`
}

type WorkflowModel struct {
	ID    string         `gorm:"primaryKey"`
	OrgID string         `gorm:"not null;uniqueIndex"`
	Name  string
	Steps datatypes.JSON `gorm:"type:jsonb"`
}

type StepRecordModel struct {
	ID           string `gorm:"primaryKey"`
	RequestID    string `gorm:"not null;index"`
	StepOrder    int    `gorm:"not null"`
	ApproverID   string
	Decision     string `gorm:"not null"`
	Comments     string
	DelegatedTo  string
	Escalated    bool
	AutoApproved bool
	ActivatedAt  time.Time `gorm:"not null"`
	DecidedAt    *time.Time
}

type UsageRecordModel struct {
	ID        string `gorm:"primaryKey"`
	OrgID     string `gorm:"not null;index:idx_usage_org_provider_time"`
	Provider  string `gorm:"not null;index:idx_usage_org_provider_time"`
	Operation string
	Cost      float64
	LatencyMS int64
	Status    string
	CreatedAt time.Time `gorm:"not null;index:idx_usage_org_provider_time"`
}
