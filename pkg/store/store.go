package store

import (
	"context"
	"time"

	"brandcraft/pkg/domain"
)

// Store defines persistence for the content pipeline: brand profiles,
// requests, per-platform optimizations, their scores, approval records, and
// the external-API usage log.
type Store interface {
	// brand profiles
	SaveBrandProfile(domain.BrandProfile) error
	GetBrandProfile(id string) (domain.BrandProfile, bool, error)
	ListBrandProfilesByOrg(orgID string) ([]domain.BrandProfile, error)

	// content requests
	SaveRequest(domain.ContentRequest) error
	GetRequest(id string) (domain.ContentRequest, bool, error)
	ListRequestsByOrg(orgID string, limit int) ([]domain.ContentRequest, error)
	ListRequestsByStatus(status domain.RequestStatus) ([]domain.ContentRequest, error)
	SetRequestStatus(id string, status domain.RequestStatus, reason string) error
	// SetRequestStatusIf transitions only when the request still holds the
	// expected status, reporting whether this caller won the transition.
	SetRequestStatusIf(id string, from, to domain.RequestStatus, reason string) (bool, error)

	// optimizations
	SaveOptimization(domain.ContentOptimization) error
	ListOptimizationsByRequest(requestID string) ([]domain.ContentOptimization, error)

	// compliance and predictions
	SaveComplianceResult(domain.ComplianceResult) error
	GetComplianceResult(optimizationID string) (domain.ComplianceResult, bool, error)
	SavePrediction(domain.EngagementPrediction) error
	GetPrediction(optimizationID string) (domain.EngagementPrediction, bool, error)

	// approval workflows
	SaveWorkflow(domain.ApprovalWorkflow) error
	GetWorkflowByOrg(orgID string) (domain.ApprovalWorkflow, bool, error)
	SaveStepRecord(domain.ApprovalStepRecord) error
	ListStepRecords(requestID string) ([]domain.ApprovalStepRecord, error)

	// usage log, also consumed by the governor
	AppendUsage(ctx context.Context, rec domain.UsageRecord) error
	ListUsage(ctx context.Context, orgID, provider string, from, to time.Time) ([]domain.UsageRecord, error)
}
