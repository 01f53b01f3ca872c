package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"brandcraft/internal/util"
	"brandcraft/pkg/adapt"
	"brandcraft/pkg/compliance"
	"brandcraft/pkg/domain"
	"brandcraft/pkg/engage"
	"brandcraft/pkg/notify"
	"brandcraft/pkg/platform"
	"brandcraft/pkg/queue"
	"brandcraft/pkg/store"
	"brandcraft/pkg/workflow"
)

// Adapter produces per-platform optimizations for a content request.
type Adapter interface {
	Adapt(ctx context.Context, req domain.ContentRequest, profile domain.BrandProfile) ([]domain.ContentOptimization, error)
}

// JobQueue distributes (request, platform) adaptation units to workers.
type JobQueue interface {
	Enqueue(ctx context.Context, requestID string, platform domain.Platform) (queue.JobStatus, error)
	GetJob(ctx context.Context, jobID string) (queue.JobStatus, bool, error)
}

// ProfileSource reads brand profiles, usually through the Redis cache.
type ProfileSource interface {
	Get(ctx context.Context, id string) (domain.BrandProfile, bool, error)
	Invalidate(ctx context.Context, id string) error
}

// UsageReporter rolls up external API spend, implemented by the governor.
type UsageReporter interface {
	DailySummary(ctx context.Context, orgID, provider string, date time.Time) (domain.DailyUsageSummary, error)
}

// EventSink publishes lifecycle events. Implemented by notify.Publisher.
type EventSink interface {
	Publish(ctx context.Context, ev notify.Event)
}

// Config wires required dependencies for the content pipeline.
type Config struct {
	Store     store.Store
	Profiles  ProfileSource
	Queue     JobQueue
	Adapter   Adapter
	Validator *compliance.Validator
	Predictor *engage.Predictor
	Workflow  *workflow.Engine
	Registry  *platform.Registry
	Usage     UsageReporter
	Events    EventSink
	Logger    *slog.Logger
}

// App orchestrates submission, adaptation, scoring, and approval of
// content requests.
type App struct {
	store     store.Store
	profiles  ProfileSource
	queue     JobQueue
	adapter   Adapter
	validator *compliance.Validator
	predictor *engage.Predictor
	wf        *workflow.Engine
	registry  *platform.Registry
	usage     UsageReporter
	events    EventSink
	log       *slog.Logger
}

func New(cfg Config) (*App, error) {
	switch {
	case cfg.Store == nil:
		return nil, fmt.Errorf("store required")
	case cfg.Profiles == nil:
		return nil, fmt.Errorf("profile source required")
	case cfg.Queue == nil:
		return nil, fmt.Errorf("job queue required")
	case cfg.Adapter == nil:
		return nil, fmt.Errorf("adapter required")
	case cfg.Validator == nil:
		return nil, fmt.Errorf("validator required")
	case cfg.Predictor == nil:
		return nil, fmt.Errorf("predictor required")
	case cfg.Workflow == nil:
		return nil, fmt.Errorf("workflow engine required")
	case cfg.Registry == nil:
		return nil, fmt.Errorf("platform registry required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		store:     cfg.Store,
		profiles:  cfg.Profiles,
		queue:     cfg.Queue,
		adapter:   cfg.Adapter,
		validator: cfg.Validator,
		predictor: cfg.Predictor,
		wf:        cfg.Workflow,
		registry:  cfg.Registry,
		usage:     cfg.Usage,
		events:    cfg.Events,
		log:       logger,
	}, nil
}

// defaultPriority applies when a submission leaves priority unset.
const defaultPriority = 5

// SubmitInput is the payload for a new content request.
type SubmitInput struct {
	OrgID            string            `json:"orgId"`
	Insight          string            `json:"insight"`
	Platforms        []string          `json:"platforms"`
	ContentType      string            `json:"contentType"`
	BrandProfileID   string            `json:"brandProfileId"`
	Priority         int               `json:"priority"`
	StylePreferences map[string]string `json:"stylePreferences,omitempty"`
}

// SubmitRequest validates the input, persists the request, and enqueues one
// adaptation job per target platform.
func (a *App) SubmitRequest(ctx context.Context, in SubmitInput) (domain.ContentRequest, []queue.JobStatus, error) {
	in.OrgID = strings.TrimSpace(in.OrgID)
	in.Insight = strings.TrimSpace(in.Insight)
	if in.OrgID == "" {
		return domain.ContentRequest{}, nil, invalid("orgId", "required")
	}
	if in.Insight == "" {
		return domain.ContentRequest{}, nil, invalid("insight", "required")
	}
	if len(in.Platforms) == 0 {
		return domain.ContentRequest{}, nil, invalid("platforms", "at least one platform required")
	}

	platforms := make([]domain.Platform, 0, len(in.Platforms))
	seen := make(map[domain.Platform]bool)
	for _, raw := range in.Platforms {
		p := domain.Platform(strings.ToLower(strings.TrimSpace(raw)))
		if _, err := a.registry.Spec(p); err != nil {
			return domain.ContentRequest{}, nil, invalid("platforms", fmt.Sprintf("unknown platform %q", raw))
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		platforms = append(platforms, p)
	}

	contentType := domain.ContentType(strings.TrimSpace(in.ContentType))
	if contentType == "" {
		contentType = domain.ContentPost
	}
	if !validContentType(contentType) {
		return domain.ContentRequest{}, nil, invalid("contentType", fmt.Sprintf("unknown content type %q", in.ContentType))
	}
	if _, err := adapt.ParsePreferences(in.StylePreferences); err != nil {
		return domain.ContentRequest{}, nil, invalid("stylePreferences", err.Error())
	}
	if in.Priority == 0 {
		in.Priority = defaultPriority
	}
	if in.Priority < 1 || in.Priority > 10 {
		return domain.ContentRequest{}, nil, invalid("priority", "must be between 1 and 10")
	}

	profile, found, err := a.profiles.Get(ctx, in.BrandProfileID)
	if err != nil {
		return domain.ContentRequest{}, nil, fmt.Errorf("load brand profile: %w", err)
	}
	if !found {
		return domain.ContentRequest{}, nil, ErrProfileNotFound
	}
	if profile.OrgID != in.OrgID {
		return domain.ContentRequest{}, nil, invalid("brandProfileId", "profile belongs to another organization")
	}

	now := time.Now().UTC()
	req := domain.ContentRequest{
		ID:               util.NewID(),
		OrgID:            in.OrgID,
		Insight:          in.Insight,
		Platforms:        platforms,
		ContentType:      contentType,
		BrandProfileID:   profile.ID,
		Status:           domain.StatusPending,
		Priority:         in.Priority,
		StylePreferences: in.StylePreferences,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := a.store.SaveRequest(req); err != nil {
		return domain.ContentRequest{}, nil, fmt.Errorf("save request: %w", err)
	}

	jobs := make([]queue.JobStatus, 0, len(platforms))
	for _, p := range platforms {
		job, err := a.queue.Enqueue(ctx, req.ID, p)
		if err != nil {
			return domain.ContentRequest{}, nil, fmt.Errorf("enqueue %s: %w", p, err)
		}
		jobs = append(jobs, job)
	}

	if err := workflow.Transition(&req, domain.StatusProcessing, ""); err != nil {
		return domain.ContentRequest{}, nil, err
	}
	req.ProcessingStartedAt = &now
	req.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveRequest(req); err != nil {
		return domain.ContentRequest{}, nil, fmt.Errorf("save request: %w", err)
	}
	a.log.Info("request submitted", "requestId", req.ID, "orgId", req.OrgID, "platforms", len(platforms))
	return req, jobs, nil
}

// ProcessJob is the queue handler for one (request, platform) unit. A
// returned error makes the queue retry until its attempt budget runs out.
func (a *App) ProcessJob(ctx context.Context, job queue.JobStatus) error {
	req, found, err := a.store.GetRequest(job.RequestID)
	if err != nil {
		return fmt.Errorf("load request: %w", err)
	}
	if !found || req.Status != domain.StatusProcessing {
		// request deleted, cancelled, or already finalized
		return nil
	}

	existing, err := a.store.ListOptimizationsByRequest(req.ID)
	if err != nil {
		return fmt.Errorf("list optimizations: %w", err)
	}
	if hasPlatform(existing, job.Platform) {
		return a.maybeFinalize(ctx, req, existing)
	}

	profile, found, err := a.profiles.Get(ctx, req.BrandProfileID)
	if err != nil {
		return fmt.Errorf("load brand profile: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, req.BrandProfileID)
	}

	single := req
	single.Platforms = []domain.Platform{job.Platform}
	opts, err := a.adapter.Adapt(ctx, single, profile)
	if err != nil {
		return fmt.Errorf("adapt %s: %w", job.Platform, err)
	}
	opt := opts[0]

	comp, err := a.validator.Validate(opt, profile)
	if err != nil {
		return fmt.Errorf("compliance check: %w", err)
	}
	comp.ID = util.NewID()
	comp.CreatedAt = time.Now().UTC()

	pred, err := a.predictor.Predict(opt, nil)
	if err != nil {
		return fmt.Errorf("engagement prediction: %w", err)
	}
	pred.ID = util.NewID()
	pred.CreatedAt = time.Now().UTC()

	opt.PredictionScores = pred.Metrics
	opt.ComplianceChecks = make(map[string]bool, len(comp.SubScores))
	for dim, score := range comp.SubScores {
		opt.ComplianceChecks[dim] = score >= 0.7
	}

	if err := a.store.SaveOptimization(opt); err != nil {
		return fmt.Errorf("save optimization: %w", err)
	}
	if err := a.store.SaveComplianceResult(comp); err != nil {
		return fmt.Errorf("save compliance result: %w", err)
	}
	if err := a.store.SavePrediction(pred); err != nil {
		return fmt.Errorf("save prediction: %w", err)
	}
	a.log.Info("platform adapted",
		"requestId", req.ID, "platform", job.Platform,
		"compliance", comp.Score, "verdict", comp.Verdict, "degraded", opt.Degraded)

	return a.maybeFinalize(ctx, req, append(existing, opt))
}

// maybeFinalize moves the request to generated and starts the approval
// workflow once every target platform has an optimization. The conditional
// processing->generated transition admits exactly one worker, so workers
// completing the last two platforms at the same time cannot finalize twice.
func (a *App) maybeFinalize(ctx context.Context, req domain.ContentRequest, opts []domain.ContentOptimization) error {
	for _, p := range req.Platforms {
		if !hasPlatform(opts, p) {
			return nil
		}
	}
	won, err := a.store.SetRequestStatusIf(req.ID, domain.StatusProcessing, domain.StatusGenerated, "")
	if err != nil {
		return fmt.Errorf("finalize request: %w", err)
	}
	if !won {
		return nil
	}
	current, found, err := a.store.GetRequest(req.ID)
	if err != nil {
		return fmt.Errorf("reload request: %w", err)
	}
	if !found {
		return nil
	}
	req = current

	now := time.Now().UTC()
	req.ProcessingEndedAt = &now
	req.UpdatedAt = now
	if err := a.store.SaveRequest(req); err != nil {
		return fmt.Errorf("save request: %w", err)
	}
	a.publish(ctx, notify.Event{Type: notify.EventRequestGenerated, OrgID: req.OrgID, RequestID: req.ID})

	wfCfg, err := a.workflowFor(req.OrgID)
	if err != nil {
		return err
	}
	minScore, err := a.minComplianceScore(req.ID)
	if err != nil {
		return err
	}
	records, err := a.wf.Start(wfCfg, &req, minScore)
	if err != nil {
		return fmt.Errorf("start approval: %w", err)
	}
	for _, rec := range records {
		if err := a.store.SaveStepRecord(rec); err != nil {
			return fmt.Errorf("save step record: %w", err)
		}
	}
	if err := a.store.SaveRequest(req); err != nil {
		return fmt.Errorf("save request: %w", err)
	}
	if req.Status == domain.StatusApproved {
		a.publish(ctx, notify.Event{Type: notify.EventRequestApproved, OrgID: req.OrgID, RequestID: req.ID, Detail: "auto-approved"})
	}
	a.log.Info("request finalized", "requestId", req.ID, "status", req.Status, "minCompliance", minScore)
	return nil
}

// RequestStatusView is the full status surface for one request.
type RequestStatusView struct {
	Request       domain.ContentRequest       `json:"request"`
	Jobs          []queue.JobStatus           `json:"jobs"`
	StepRecords   []domain.ApprovalStepRecord `json:"stepRecords,omitempty"`
	Optimizations int                         `json:"optimizations"`
}

func (a *App) GetRequestStatus(ctx context.Context, id string) (RequestStatusView, error) {
	req, found, err := a.store.GetRequest(id)
	if err != nil {
		return RequestStatusView{}, fmt.Errorf("load request: %w", err)
	}
	if !found {
		return RequestStatusView{}, ErrRequestNotFound
	}
	view := RequestStatusView{Request: req}
	for _, p := range req.Platforms {
		job, ok, err := a.queue.GetJob(ctx, queue.JobID(req.ID, p))
		if err != nil {
			return RequestStatusView{}, fmt.Errorf("load job: %w", err)
		}
		if ok {
			view.Jobs = append(view.Jobs, job)
		}
	}
	records, err := a.store.ListStepRecords(req.ID)
	if err != nil {
		return RequestStatusView{}, fmt.Errorf("list step records: %w", err)
	}
	view.StepRecords = records
	opts, err := a.store.ListOptimizationsByRequest(req.ID)
	if err != nil {
		return RequestStatusView{}, fmt.Errorf("list optimizations: %w", err)
	}
	view.Optimizations = len(opts)
	return view, nil
}

// OptimizationDetail pairs an optimization with its scores.
type OptimizationDetail struct {
	Optimization domain.ContentOptimization   `json:"optimization"`
	Compliance   *domain.ComplianceResult     `json:"compliance,omitempty"`
	Prediction   *domain.EngagementPrediction `json:"prediction,omitempty"`
}

func (a *App) ListOptimizations(_ context.Context, requestID string) ([]OptimizationDetail, error) {
	if _, found, err := a.store.GetRequest(requestID); err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	} else if !found {
		return nil, ErrRequestNotFound
	}
	opts, err := a.store.ListOptimizationsByRequest(requestID)
	if err != nil {
		return nil, fmt.Errorf("list optimizations: %w", err)
	}
	details := make([]OptimizationDetail, 0, len(opts))
	for _, opt := range opts {
		d := OptimizationDetail{Optimization: opt}
		if comp, ok, err := a.store.GetComplianceResult(opt.ID); err != nil {
			return nil, fmt.Errorf("load compliance: %w", err)
		} else if ok {
			d.Compliance = &comp
		}
		if pred, ok, err := a.store.GetPrediction(opt.ID); err != nil {
			return nil, fmt.Errorf("load prediction: %w", err)
		} else if ok {
			d.Prediction = &pred
		}
		details = append(details, d)
	}
	return details, nil
}

// Decide applies an approver decision to the active workflow step.
func (a *App) Decide(ctx context.Context, requestID string, in workflow.DecisionInput) (domain.ContentRequest, []domain.ApprovalStepRecord, error) {
	req, found, err := a.store.GetRequest(requestID)
	if err != nil {
		return domain.ContentRequest{}, nil, fmt.Errorf("load request: %w", err)
	}
	if !found {
		return domain.ContentRequest{}, nil, ErrRequestNotFound
	}
	wfCfg, err := a.workflowFor(req.OrgID)
	if err != nil {
		return domain.ContentRequest{}, nil, err
	}
	records, err := a.store.ListStepRecords(req.ID)
	if err != nil {
		return domain.ContentRequest{}, nil, fmt.Errorf("list step records: %w", err)
	}
	minScore, err := a.minComplianceScore(req.ID)
	if err != nil {
		return domain.ContentRequest{}, nil, err
	}

	updated, err := a.wf.Decide(wfCfg, &req, records, in, minScore)
	if err != nil {
		return domain.ContentRequest{}, nil, err
	}
	for _, rec := range updated {
		if err := a.store.SaveStepRecord(rec); err != nil {
			return domain.ContentRequest{}, nil, fmt.Errorf("save step record: %w", err)
		}
	}
	req.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveRequest(req); err != nil {
		return domain.ContentRequest{}, nil, fmt.Errorf("save request: %w", err)
	}

	switch req.Status {
	case domain.StatusApproved:
		a.publish(ctx, notify.Event{Type: notify.EventRequestApproved, OrgID: req.OrgID, RequestID: req.ID})
	case domain.StatusRejected:
		a.publish(ctx, notify.Event{Type: notify.EventRequestRejected, OrgID: req.OrgID, RequestID: req.ID, Detail: req.StatusReason})
	}
	return req, updated, nil
}

// Cancel withdraws a request on behalf of its submitter.
func (a *App) Cancel(ctx context.Context, requestID, requesterID, reason string) (domain.ContentRequest, error) {
	req, found, err := a.store.GetRequest(requestID)
	if err != nil {
		return domain.ContentRequest{}, fmt.Errorf("load request: %w", err)
	}
	if !found {
		return domain.ContentRequest{}, ErrRequestNotFound
	}
	wfCfg, err := a.workflowFor(req.OrgID)
	if err != nil {
		return domain.ContentRequest{}, err
	}
	records, err := a.store.ListStepRecords(req.ID)
	if err != nil {
		return domain.ContentRequest{}, fmt.Errorf("list step records: %w", err)
	}
	updated, err := a.wf.Cancel(wfCfg, &req, records, requesterID, reason)
	if err != nil {
		return domain.ContentRequest{}, err
	}
	for _, rec := range updated {
		if err := a.store.SaveStepRecord(rec); err != nil {
			return domain.ContentRequest{}, fmt.Errorf("save step record: %w", err)
		}
	}
	req.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveRequest(req); err != nil {
		return domain.ContentRequest{}, fmt.Errorf("save request: %w", err)
	}
	if req.Status == domain.StatusRejected {
		a.publish(ctx, notify.Event{Type: notify.EventRequestRejected, OrgID: req.OrgID, RequestID: req.ID, Detail: reason})
	}
	return req, nil
}

// MarkPublished records that an approved request went live.
func (a *App) MarkPublished(ctx context.Context, requestID string) (domain.ContentRequest, error) {
	req, found, err := a.store.GetRequest(requestID)
	if err != nil {
		return domain.ContentRequest{}, fmt.Errorf("load request: %w", err)
	}
	if !found {
		return domain.ContentRequest{}, ErrRequestNotFound
	}
	if err := workflow.Transition(&req, domain.StatusPublished, ""); err != nil {
		return domain.ContentRequest{}, err
	}
	req.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveRequest(req); err != nil {
		return domain.ContentRequest{}, fmt.Errorf("save request: %w", err)
	}
	a.publish(ctx, notify.Event{Type: notify.EventRequestPublished, OrgID: req.OrgID, RequestID: req.ID})
	return req, nil
}

// SweepEscalations reassigns timed-out review steps. Meant to run on a timer.
func (a *App) SweepEscalations(ctx context.Context) error {
	reqs, err := a.store.ListRequestsByStatus(domain.StatusReview)
	if err != nil {
		return fmt.Errorf("list review requests: %w", err)
	}
	for _, req := range reqs {
		wfCfg, err := a.workflowFor(req.OrgID)
		if err != nil {
			a.log.Warn("escalation sweep skipped request", "requestId", req.ID, "error", err)
			continue
		}
		records, err := a.store.ListStepRecords(req.ID)
		if err != nil {
			return fmt.Errorf("list step records: %w", err)
		}
		for _, rec := range a.wf.Escalate(wfCfg, records) {
			if err := a.store.SaveStepRecord(rec); err != nil {
				return fmt.Errorf("save step record: %w", err)
			}
			a.publish(ctx, notify.Event{
				Type:      notify.EventStepEscalated,
				OrgID:     req.OrgID,
				RequestID: req.ID,
				StepOrder: rec.StepOrder,
				Detail:    "approval step escalated after timeout",
			})
		}
	}
	return nil
}

// ListRequests returns the most recent requests for an org.
func (a *App) ListRequests(_ context.Context, orgID string, limit int) ([]domain.ContentRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return a.store.ListRequestsByOrg(orgID, limit)
}

// DailyUsage reports external API spend for one org/provider/day.
func (a *App) DailyUsage(ctx context.Context, orgID, provider string, date time.Time) (domain.DailyUsageSummary, error) {
	if a.usage == nil {
		return domain.DailyUsageSummary{}, fmt.Errorf("usage reporting not configured")
	}
	return a.usage.DailySummary(ctx, orgID, provider, date)
}

// SaveBrandProfile creates or updates a profile and drops the cached copy.
func (a *App) SaveBrandProfile(ctx context.Context, profile domain.BrandProfile) (domain.BrandProfile, error) {
	profile.Name = strings.TrimSpace(profile.Name)
	if profile.OrgID == "" {
		return domain.BrandProfile{}, invalid("orgId", "required")
	}
	if profile.Name == "" {
		return domain.BrandProfile{}, invalid("name", "required")
	}
	if profile.MinComplianceScore < 0 || profile.MinComplianceScore > 1 {
		return domain.BrandProfile{}, invalid("minComplianceScore", "must be between 0 and 1")
	}
	now := time.Now().UTC()
	if profile.ID == "" {
		profile.ID = util.NewID()
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	if err := a.store.SaveBrandProfile(profile); err != nil {
		return domain.BrandProfile{}, fmt.Errorf("save brand profile: %w", err)
	}
	if err := a.profiles.Invalidate(ctx, profile.ID); err != nil {
		a.log.Warn("profile cache invalidation failed", "profileId", profile.ID, "error", err)
	}
	return profile, nil
}

func (a *App) GetBrandProfile(ctx context.Context, id string) (domain.BrandProfile, error) {
	profile, found, err := a.profiles.Get(ctx, id)
	if err != nil {
		return domain.BrandProfile{}, fmt.Errorf("load brand profile: %w", err)
	}
	if !found {
		return domain.BrandProfile{}, ErrProfileNotFound
	}
	return profile, nil
}

func (a *App) ListBrandProfiles(_ context.Context, orgID string) ([]domain.BrandProfile, error) {
	return a.store.ListBrandProfilesByOrg(orgID)
}

// SaveApprovalWorkflow stores the org's approval chain. Step orders must be
// contiguous starting at 1.
func (a *App) SaveApprovalWorkflow(_ context.Context, wf domain.ApprovalWorkflow) (domain.ApprovalWorkflow, error) {
	if wf.OrgID == "" {
		return domain.ApprovalWorkflow{}, invalid("orgId", "required")
	}
	if len(wf.Steps) == 0 {
		return domain.ApprovalWorkflow{}, invalid("steps", "at least one step required")
	}
	steps := append([]domain.ApprovalStep(nil), wf.Steps...)
	sort.Slice(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })
	for i, step := range steps {
		if step.Order != i+1 {
			return domain.ApprovalWorkflow{}, invalid("steps", "orders must be contiguous starting at 1")
		}
		if strings.TrimSpace(step.ApproverRole) == "" {
			return domain.ApprovalWorkflow{}, invalid("steps", fmt.Sprintf("step %d: approverRole required", step.Order))
		}
		if step.EscalationTimeout > 0 && step.EscalationRole == "" {
			return domain.ApprovalWorkflow{}, invalid("steps", fmt.Sprintf("step %d: escalationRole required with timeout", step.Order))
		}
	}
	wf.Steps = steps
	if wf.ID == "" {
		wf.ID = util.NewID()
	}
	if err := a.store.SaveWorkflow(wf); err != nil {
		return domain.ApprovalWorkflow{}, fmt.Errorf("save workflow: %w", err)
	}
	return wf, nil
}

func (a *App) GetApprovalWorkflow(_ context.Context, orgID string) (domain.ApprovalWorkflow, error) {
	return a.workflowFor(orgID)
}

// workflowFor returns the org's configured workflow, or a single manual
// review step when none is configured.
func (a *App) workflowFor(orgID string) (domain.ApprovalWorkflow, error) {
	wf, found, err := a.store.GetWorkflowByOrg(orgID)
	if err != nil {
		return domain.ApprovalWorkflow{}, fmt.Errorf("load workflow: %w", err)
	}
	if found {
		return wf, nil
	}
	return domain.ApprovalWorkflow{
		ID:    "default-" + orgID,
		OrgID: orgID,
		Name:  "default",
		Steps: []domain.ApprovalStep{{Order: 1, ApproverRole: "brand_manager"}},
	}, nil
}

// minComplianceScore is the lowest composite score across the request's
// platforms. Auto-approval thresholds are checked against this value so a
// single weak platform blocks the shortcut.
func (a *App) minComplianceScore(requestID string) (float64, error) {
	opts, err := a.store.ListOptimizationsByRequest(requestID)
	if err != nil {
		return 0, fmt.Errorf("list optimizations: %w", err)
	}
	minScore := 0.0
	for i, opt := range opts {
		comp, found, err := a.store.GetComplianceResult(opt.ID)
		if err != nil {
			return 0, fmt.Errorf("load compliance: %w", err)
		}
		if !found {
			return 0, nil
		}
		if i == 0 || comp.Score < minScore {
			minScore = comp.Score
		}
	}
	return minScore, nil
}

func (a *App) publish(ctx context.Context, ev notify.Event) {
	if a.events != nil {
		a.events.Publish(ctx, ev)
	}
}

func hasPlatform(opts []domain.ContentOptimization, p domain.Platform) bool {
	for _, opt := range opts {
		if opt.Platform == p {
			return true
		}
	}
	return false
}

func validContentType(ct domain.ContentType) bool {
	switch ct {
	case domain.ContentPost, domain.ContentStory, domain.ContentCarousel,
		domain.ContentInfographic, domain.ContentVideo, domain.ContentArticle:
		return true
	}
	return false
}
