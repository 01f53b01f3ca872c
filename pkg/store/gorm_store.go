package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"brandcraft/pkg/domain"
)

const migrateLockID int64 = 52415241

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory lock
// so concurrent service instances do not race the schema.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&BrandProfileModel{},
			&ContentRequestModel{},
			&OptimizationModel{},
			&ComplianceResultModel{},
			&PredictionModel{},
			&WorkflowModel{},
			&StepRecordModel{},
			&UsageRecordModel{},
		); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("db handle: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("db conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// SaveBrandProfile inserts or updates a brand profile.
func (s *GormStore) SaveBrandProfile(p domain.BrandProfile) error {
	model := brandToModel(p)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "primary_color", "secondary_color", "accent_color",
			"approved_fonts", "voice", "brand_tags", "enforcement",
			"min_compliance_score", "audience_utc_offset", "updated_at",
		}),
	}).Create(&model).Error
}

// GetBrandProfile returns a brand profile by ID.
func (s *GormStore) GetBrandProfile(id string) (domain.BrandProfile, bool, error) {
	var model BrandProfileModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.BrandProfile{}, false, nil
		}
		return domain.BrandProfile{}, false, err
	}
	return brandFromModel(model), true, nil
}

// ListBrandProfilesByOrg returns an organization's profiles.
func (s *GormStore) ListBrandProfilesByOrg(orgID string) ([]domain.BrandProfile, error) {
	var models []BrandProfileModel
	if err := s.db.Where("org_id = ?", orgID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.BrandProfile, 0, len(models))
	for _, m := range models {
		res = append(res, brandFromModel(m))
	}
	return res, nil
}

// SaveRequest inserts or updates a content request.
func (s *GormStore) SaveRequest(r domain.ContentRequest) error {
	model := requestToModel(r)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "status_reason", "priority",
			"processing_started_at", "processing_ended_at", "updated_at",
		}),
	}).Create(&model).Error
}

// GetRequest returns a request by ID.
func (s *GormStore) GetRequest(id string) (domain.ContentRequest, bool, error) {
	var model ContentRequestModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.ContentRequest{}, false, nil
		}
		return domain.ContentRequest{}, false, err
	}
	return requestFromModel(model), true, nil
}

// ListRequestsByOrg returns the most recent requests for an organization.
func (s *GormStore) ListRequestsByOrg(orgID string, limit int) ([]domain.ContentRequest, error) {
	var models []ContentRequestModel
	tx := s.db.Where("org_id = ?", orgID).Order("created_at DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.ContentRequest, 0, len(models))
	for _, m := range models {
		res = append(res, requestFromModel(m))
	}
	return res, nil
}

// ListRequestsByStatus returns every request currently in the given status.
// Used by the escalation sweep over requests sitting in review.
func (s *GormStore) ListRequestsByStatus(status domain.RequestStatus) ([]domain.ContentRequest, error) {
	var models []ContentRequestModel
	if err := s.db.Where("status = ?", string(status)).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.ContentRequest, 0, len(models))
	for _, m := range models {
		res = append(res, requestFromModel(m))
	}
	return res, nil
}

// SetRequestStatus updates request status and reason.
func (s *GormStore) SetRequestStatus(id string, status domain.RequestStatus, reason string) error {
	return s.db.Model(&ContentRequestModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        string(status),
			"status_reason": reason,
			"updated_at":    time.Now().UTC(),
		}).Error
}

// SetRequestStatusIf transitions the request only if it still sits in the
// expected status. Returns whether this call performed the update, so
// concurrent workers racing to finalize a request resolve to one winner.
func (s *GormStore) SetRequestStatusIf(id string, from, to domain.RequestStatus, reason string) (bool, error) {
	tx := s.db.Model(&ContentRequestModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]any{
			"status":        string(to),
			"status_reason": reason,
			"updated_at":    time.Now().UTC(),
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

// SaveOptimization inserts or updates one platform result. Conflicts key on
// (request_id, platform) so concurrent workers handling the same job collapse
// into a single row per platform.
func (s *GormStore) SaveOptimization(o domain.ContentOptimization) error {
	model := optimizationToModel(o)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "request_id"}, {Name: "platform"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"image_storage_key", "image_pending", "degraded", "degraded_reason",
			"prediction_scores", "compliance_checks",
		}),
	}).Create(&model).Error
}

// ListOptimizationsByRequest returns a request's per-platform results.
func (s *GormStore) ListOptimizationsByRequest(requestID string) ([]domain.ContentOptimization, error) {
	var models []OptimizationModel
	if err := s.db.Where("request_id = ?", requestID).Order("platform ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.ContentOptimization, 0, len(models))
	for _, m := range models {
		res = append(res, optimizationFromModel(m))
	}
	return res, nil
}

// SaveComplianceResult upserts by optimization so re-validation replaces the
// previous score.
func (s *GormStore) SaveComplianceResult(r domain.ComplianceResult) error {
	model := complianceToModel(r)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "optimization_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "sub_scores", "verdict", "violations", "created_at"}),
	}).Create(&model).Error
}

// GetComplianceResult returns the compliance result for an optimization.
func (s *GormStore) GetComplianceResult(optimizationID string) (domain.ComplianceResult, bool, error) {
	var model ComplianceResultModel
	if err := s.db.First(&model, "optimization_id = ?", optimizationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.ComplianceResult{}, false, nil
		}
		return domain.ComplianceResult{}, false, err
	}
	return complianceFromModel(model), true, nil
}

// SavePrediction upserts by optimization.
func (s *GormStore) SavePrediction(p domain.EngagementPrediction) error {
	model := predictionToModel(p)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "optimization_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"metrics", "confidence", "key_factors", "suggestions", "risk_factors", "timeline", "created_at"}),
	}).Create(&model).Error
}

// GetPrediction returns the prediction for an optimization.
func (s *GormStore) GetPrediction(optimizationID string) (domain.EngagementPrediction, bool, error) {
	var model PredictionModel
	if err := s.db.First(&model, "optimization_id = ?", optimizationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.EngagementPrediction{}, false, nil
		}
		return domain.EngagementPrediction{}, false, err
	}
	return predictionFromModel(model), true, nil
}

// SaveWorkflow upserts an organization's approval workflow.
func (s *GormStore) SaveWorkflow(wf domain.ApprovalWorkflow) error {
	model := workflowToModel(wf)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "org_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "steps"}),
	}).Create(&model).Error
}

// GetWorkflowByOrg returns the workflow configured for an organization.
func (s *GormStore) GetWorkflowByOrg(orgID string) (domain.ApprovalWorkflow, bool, error) {
	var model WorkflowModel
	if err := s.db.First(&model, "org_id = ?", orgID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.ApprovalWorkflow{}, false, nil
		}
		return domain.ApprovalWorkflow{}, false, err
	}
	return workflowFromModel(model), true, nil
}

// SaveStepRecord inserts or updates one approval step record.
func (s *GormStore) SaveStepRecord(rec domain.ApprovalStepRecord) error {
	model := stepRecordToModel(rec)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"approver_id", "decision", "comments", "delegated_to",
			"escalated", "auto_approved", "activated_at", "decided_at",
		}),
	}).Create(&model).Error
}

// ListStepRecords returns a request's step records in step order.
func (s *GormStore) ListStepRecords(requestID string) ([]domain.ApprovalStepRecord, error) {
	var models []StepRecordModel
	if err := s.db.Where("request_id = ?", requestID).Order("step_order ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.ApprovalStepRecord, 0, len(models))
	for _, m := range models {
		res = append(res, stepRecordFromModel(m))
	}
	return res, nil
}

// AppendUsage records one external API call. Usage records are append-only.
func (s *GormStore) AppendUsage(_ context.Context, rec domain.UsageRecord) error {
	model := usageToModel(rec)
	return s.db.Create(&model).Error
}

// ListUsage returns usage records in [from, to) ordered by time.
func (s *GormStore) ListUsage(_ context.Context, orgID, provider string, from, to time.Time) ([]domain.UsageRecord, error) {
	var models []UsageRecordModel
	if err := s.db.
		Where("org_id = ? AND provider = ? AND created_at >= ? AND created_at < ?", orgID, provider, from, to).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.UsageRecord, 0, len(models))
	for _, m := range models {
		res = append(res, usageFromModel(m))
	}
	return res, nil
}

// JSON column helpers.

func toJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

func fromJSON[T any](data datatypes.JSON) T {
	var v T
	if len(data) > 0 {
		_ = json.Unmarshal(data, &v)
	}
	return v
}

// Domain <-> model mapping.

func brandToModel(p domain.BrandProfile) BrandProfileModel {
	return BrandProfileModel{
		ID:                 p.ID,
		OrgID:              p.OrgID,
		Name:               p.Name,
		PrimaryColor:       p.PrimaryColor,
		SecondaryColor:     p.SecondaryColor,
		AccentColor:        p.AccentColor,
		ApprovedFonts:      toJSON(p.ApprovedFonts),
		Voice:              p.Voice,
		BrandTags:          toJSON(p.BrandTags),
		Enforcement:        string(p.Enforcement),
		MinComplianceScore: p.MinComplianceScore,
		AudienceUTCOffset:  p.AudienceUTCOffset,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func brandFromModel(m BrandProfileModel) domain.BrandProfile {
	return domain.BrandProfile{
		ID:                 m.ID,
		OrgID:              m.OrgID,
		Name:               m.Name,
		PrimaryColor:       m.PrimaryColor,
		SecondaryColor:     m.SecondaryColor,
		AccentColor:        m.AccentColor,
		ApprovedFonts:      fromJSON[[]string](m.ApprovedFonts),
		Voice:              m.Voice,
		BrandTags:          fromJSON[[]string](m.BrandTags),
		Enforcement:        domain.EnforcementLevel(m.Enforcement),
		MinComplianceScore: m.MinComplianceScore,
		AudienceUTCOffset:  m.AudienceUTCOffset,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func requestToModel(r domain.ContentRequest) ContentRequestModel {
	return ContentRequestModel{
		ID:                  r.ID,
		OrgID:               r.OrgID,
		Insight:             r.Insight,
		Platforms:           toJSON(r.Platforms),
		ContentType:         string(r.ContentType),
		BrandProfileID:      r.BrandProfileID,
		Status:              string(r.Status),
		StatusReason:        r.StatusReason,
		Priority:            r.Priority,
		StylePreferences:    toJSON(r.StylePreferences),
		ProcessingStartedAt: r.ProcessingStartedAt,
		ProcessingEndedAt:   r.ProcessingEndedAt,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func requestFromModel(m ContentRequestModel) domain.ContentRequest {
	return domain.ContentRequest{
		ID:                  m.ID,
		OrgID:               m.OrgID,
		Insight:             m.Insight,
		Platforms:           fromJSON[[]domain.Platform](m.Platforms),
		ContentType:         domain.ContentType(m.ContentType),
		BrandProfileID:      m.BrandProfileID,
		Status:              domain.RequestStatus(m.Status),
		StatusReason:        m.StatusReason,
		Priority:            m.Priority,
		StylePreferences:    fromJSON[map[string]string](m.StylePreferences),
		ProcessingStartedAt: m.ProcessingStartedAt,
		ProcessingEndedAt:   m.ProcessingEndedAt,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

func optimizationToModel(o domain.ContentOptimization) OptimizationModel {
	return OptimizationModel{
		ID:                 o.ID,
		RequestID:          o.RequestID,
		Platform:           string(o.Platform),
		ContentType:        string(o.ContentType),
		Title:              o.Title,
		Caption:            o.Caption,
		Hashtags:           toJSON(o.Hashtags),
		CallToAction:       o.CallToAction,
		Tone:               string(o.Tone),
		Image:              toJSON(o.Image),
		ImageStorageKey:    o.ImageStorageKey,
		ImagePending:       o.ImagePending,
		Degraded:           o.Degraded,
		DegradedReason:     o.DegradedReason,
		OptimalPostingTime: o.OptimalPostingTime,
		PredictionScores:   toJSON(o.PredictionScores),
		ComplianceChecks:   toJSON(o.ComplianceChecks),
		CreatedAt:          o.CreatedAt,
	}
}

func optimizationFromModel(m OptimizationModel) domain.ContentOptimization {
	return domain.ContentOptimization{
		ID:                 m.ID,
		RequestID:          m.RequestID,
		Platform:           domain.Platform(m.Platform),
		ContentType:        domain.ContentType(m.ContentType),
		Title:              m.Title,
		Caption:            m.Caption,
		Hashtags:           fromJSON[[]string](m.Hashtags),
		CallToAction:       m.CallToAction,
		Tone:               domain.Tone(m.Tone),
		Image:              fromJSON[domain.ImageSpec](m.Image),
		ImageStorageKey:    m.ImageStorageKey,
		ImagePending:       m.ImagePending,
		Degraded:           m.Degraded,
		DegradedReason:     m.DegradedReason,
		OptimalPostingTime: m.OptimalPostingTime,
		PredictionScores:   fromJSON[map[string]float64](m.PredictionScores),
		ComplianceChecks:   fromJSON[map[string]bool](m.ComplianceChecks),
		CreatedAt:          m.CreatedAt,
	}
}

func complianceToModel(r domain.ComplianceResult) ComplianceResultModel {
	return ComplianceResultModel{
		ID:             r.ID,
		OptimizationID: r.OptimizationID,
		Score:          r.Score,
		SubScores:      toJSON(r.SubScores),
		Verdict:        string(r.Verdict),
		Violations:     toJSON(r.Violations),
		CreatedAt:      r.CreatedAt,
	}
}

func complianceFromModel(m ComplianceResultModel) domain.ComplianceResult {
	return domain.ComplianceResult{
		ID:             m.ID,
		OptimizationID: m.OptimizationID,
		Score:          m.Score,
		SubScores:      fromJSON[map[string]float64](m.SubScores),
		Verdict:        domain.Verdict(m.Verdict),
		Violations:     fromJSON[[]domain.Violation](m.Violations),
		CreatedAt:      m.CreatedAt,
	}
}

func predictionToModel(p domain.EngagementPrediction) PredictionModel {
	return PredictionModel{
		ID:             p.ID,
		OptimizationID: p.OptimizationID,
		Metrics:        toJSON(p.Metrics),
		Confidence:     p.Confidence,
		KeyFactors:     toJSON(p.KeyFactors),
		Suggestions:    toJSON(p.Suggestions),
		RiskFactors:    toJSON(p.RiskFactors),
		Timeline:       toJSON(p.Timeline),
		CreatedAt:      p.CreatedAt,
	}
}

func predictionFromModel(m PredictionModel) domain.EngagementPrediction {
	return domain.EngagementPrediction{
		ID:             m.ID,
		OptimizationID: m.OptimizationID,
		Metrics:        fromJSON[map[string]float64](m.Metrics),
		Confidence:     m.Confidence,
		KeyFactors:     fromJSON[[]string](m.KeyFactors),
		Suggestions:    fromJSON[[]string](m.Suggestions),
		RiskFactors:    fromJSON[[]string](m.RiskFactors),
		Timeline:       fromJSON[map[string]float64](m.Timeline),
		CreatedAt:      m.CreatedAt,
	}
}

func workflowToModel(wf domain.ApprovalWorkflow) WorkflowModel {
	return WorkflowModel{
		ID:    wf.ID,
		OrgID: wf.OrgID,
		Name:  wf.Name,
		Steps: toJSON(wf.Steps),
	}
}

func workflowFromModel(m WorkflowModel) domain.ApprovalWorkflow {
	return domain.ApprovalWorkflow{
		ID:    m.ID,
		OrgID: m.OrgID,
		Name:  m.Name,
		Steps: fromJSON[[]domain.ApprovalStep](m.Steps),
	}
}

func stepRecordToModel(r domain.ApprovalStepRecord) StepRecordModel {
	return StepRecordModel{
		ID:           r.ID,
		RequestID:    r.RequestID,
		StepOrder:    r.StepOrder,
		ApproverID:   r.ApproverID,
		Decision:     string(r.Decision),
		Comments:     r.Comments,
		DelegatedTo:  r.DelegatedTo,
		Escalated:    r.Escalated,
		AutoApproved: r.AutoApproved,
		ActivatedAt:  r.ActivatedAt,
		DecidedAt:    r.DecidedAt,
	}
}

func stepRecordFromModel(m StepRecordModel) domain.ApprovalStepRecord {
	return domain.ApprovalStepRecord{
		ID:           m.ID,
		RequestID:    m.RequestID,
		StepOrder:    m.StepOrder,
		ApproverID:   m.ApproverID,
		Decision:     domain.Decision(m.Decision),
		Comments:     m.Comments,
		DelegatedTo:  m.DelegatedTo,
		Escalated:    m.Escalated,
		AutoApproved: m.AutoApproved,
		ActivatedAt:  m.ActivatedAt,
		DecidedAt:    m.DecidedAt,
	}
}

func usageToModel(r domain.UsageRecord) UsageRecordModel {
	return UsageRecordModel{
		ID:        r.ID,
		OrgID:     r.OrgID,
		Provider:  r.Provider,
		Operation: r.Operation,
		Cost:      r.Cost,
		LatencyMS: r.Latency.Milliseconds(),
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
}

func usageFromModel(m UsageRecordModel) domain.UsageRecord {
	return domain.UsageRecord{
		ID:        m.ID,
		OrgID:     m.OrgID,
		Provider:  m.Provider,
		Operation: m.Operation,
		Cost:      m.Cost,
		Latency:   time.Duration(m.LatencyMS) * time.Millisecond,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
	}
}
