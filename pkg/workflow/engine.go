// Package workflow drives the per-request approval state machine. Steps run
// strictly in configured order; a rejection at any step terminates the whole
// request and later steps are never instantiated.
package workflow

import (
	"fmt"
	"sort"
	"time"

	"brandcraft/internal/util"
	"brandcraft/pkg/domain"
)

// Legal request status transitions. There are no cycles back to earlier
// states; resubmission means a new request.
var transitions = map[domain.RequestStatus][]domain.RequestStatus{
	domain.StatusPending:    {domain.StatusProcessing, domain.StatusArchived},
	domain.StatusProcessing: {domain.StatusGenerated, domain.StatusArchived},
	domain.StatusGenerated:  {domain.StatusReview, domain.StatusArchived},
	domain.StatusReview:     {domain.StatusApproved, domain.StatusRejected},
	domain.StatusApproved:   {domain.StatusPublished, domain.StatusArchived},
	domain.StatusRejected:   {domain.StatusArchived},
	domain.StatusPublished:  {domain.StatusArchived},
}

// Transition moves a request to a new status, recording the reason. Illegal
// moves return ErrWorkflowViolation and leave the request untouched.
func Transition(req *domain.ContentRequest, to domain.RequestStatus, reason string) error {
	for _, allowed := range transitions[req.Status] {
		if allowed == to {
			req.Status = to
			req.StatusReason = reason
			return nil
		}
	}
	return fmt.Errorf("%w: cannot move request %s from %s to %s", ErrWorkflowViolation, req.ID, req.Status, to)
}

// DecisionInput is one human decision against an active step.
type DecisionInput struct {
	StepOrder  int
	ApproverID string
	Decision   domain.Decision
	Comments   string
	DelegateTo string
}

// Engine evaluates approval workflows. It holds no per-request state; callers
// pass the request, its configured workflow, and the existing step records,
// and persist whatever comes back.
type Engine struct {
	now func() time.Time
}

func New() *Engine {
	return &Engine{now: time.Now}
}

// Start moves a generated request into review and activates the first step.
// Auto-approvable steps are settled immediately; if every step auto-approves
// the request comes back already approved. minScore is the lowest compliance
// composite across the request's platforms.
func (e *Engine) Start(wf domain.ApprovalWorkflow, req *domain.ContentRequest, minScore float64) ([]domain.ApprovalStepRecord, error) {
	if len(wf.Steps) == 0 {
		return nil, fmt.Errorf("%w: workflow %s has no steps", ErrWorkflowViolation, wf.ID)
	}
	if err := Transition(req, domain.StatusReview, ""); err != nil {
		return nil, err
	}
	steps := orderedSteps(wf)
	records := []domain.ApprovalStepRecord{e.activate(req.ID, steps[0])}
	return e.settle(steps, req, records, minScore)
}

// Decide applies a human decision to the request's active step.
func (e *Engine) Decide(wf domain.ApprovalWorkflow, req *domain.ContentRequest, records []domain.ApprovalStepRecord, in DecisionInput, minScore float64) ([]domain.ApprovalStepRecord, error) {
	if req.Status != domain.StatusReview {
		return nil, fmt.Errorf("%w: request %s is %s, not in review", ErrWorkflowViolation, req.ID, req.Status)
	}
	steps := orderedSteps(wf)
	if !stepDefined(steps, in.StepOrder) {
		return nil, fmt.Errorf("%w: step %d", ErrUnknownStep, in.StepOrder)
	}
	idx := recordIndex(records, in.StepOrder)
	if idx < 0 {
		return nil, fmt.Errorf("%w: step %d is not active yet", ErrWorkflowViolation, in.StepOrder)
	}
	rec := &records[idx]
	if rec.Decision != domain.DecisionPending {
		return nil, fmt.Errorf("%w: step %d already decided as %s", ErrWorkflowViolation, in.StepOrder, rec.Decision)
	}

	now := e.now().UTC()
	switch in.Decision {
	case domain.DecisionApproved:
		rec.Decision = domain.DecisionApproved
		rec.ApproverID = in.ApproverID
		rec.Comments = in.Comments
		rec.DecidedAt = &now
		return e.settle(steps, req, records, minScore)
	case domain.DecisionRejected:
		rec.Decision = domain.DecisionRejected
		rec.ApproverID = in.ApproverID
		rec.Comments = in.Comments
		rec.DecidedAt = &now
		if err := Transition(req, domain.StatusRejected, in.Comments); err != nil {
			return nil, err
		}
		return records, nil
	case domain.DecisionDelegated:
		if in.DelegateTo == "" {
			return nil, fmt.Errorf("%w: delegation requires a target approver", ErrWorkflowViolation)
		}
		rec.DelegatedTo = in.DelegateTo
		rec.ApproverID = in.DelegateTo
		rec.Comments = in.Comments
		return records, nil
	default:
		return nil, fmt.Errorf("%w: decision %q", ErrWorkflowViolation, in.Decision)
	}
}

// Escalate reassigns active steps whose escalation timeout has expired. Each
// step escalates at most once; after that the step simply keeps waiting.
// Returns the records that were escalated in this pass.
func (e *Engine) Escalate(wf domain.ApprovalWorkflow, records []domain.ApprovalStepRecord) []domain.ApprovalStepRecord {
	now := e.now().UTC()
	var escalated []domain.ApprovalStepRecord
	for i := range records {
		rec := &records[i]
		if rec.Decision != domain.DecisionPending || rec.Escalated {
			continue
		}
		step, ok := stepByOrder(wf, rec.StepOrder)
		if !ok || step.EscalationTimeout <= 0 || step.EscalationRole == "" {
			continue
		}
		if now.Sub(rec.ActivatedAt) < step.EscalationTimeout {
			continue
		}
		rec.Escalated = true
		rec.ApproverID = step.EscalationRole
		rec.ActivatedAt = now
		escalated = append(escalated, *rec)
	}
	return escalated
}

// Cancel withdraws a request. Before review it archives the request; while in
// review it is recorded as a rejection of the active step so the audit trail
// stays intact. Terminal states cannot be cancelled.
func (e *Engine) Cancel(wf domain.ApprovalWorkflow, req *domain.ContentRequest, records []domain.ApprovalStepRecord, requesterID, reason string) ([]domain.ApprovalStepRecord, error) {
	switch req.Status {
	case domain.StatusPending, domain.StatusProcessing, domain.StatusGenerated:
		if err := Transition(req, domain.StatusArchived, reason); err != nil {
			return nil, err
		}
		return records, nil
	case domain.StatusReview:
		idx := activeIndex(records)
		if idx < 0 {
			return nil, fmt.Errorf("%w: request %s in review without an active step", ErrWorkflowViolation, req.ID)
		}
		return e.Decide(wf, req, records, DecisionInput{
			StepOrder:  records[idx].StepOrder,
			ApproverID: requesterID,
			Decision:   domain.DecisionRejected,
			Comments:   reason,
		}, 0)
	default:
		return nil, fmt.Errorf("%w: request %s is %s and cannot be cancelled", ErrWorkflowViolation, req.ID, req.Status)
	}
}

// settle auto-approves eligible steps and activates the next pending one.
// When no step remains the request transitions to approved.
func (e *Engine) settle(steps []domain.ApprovalStep, req *domain.ContentRequest, records []domain.ApprovalStepRecord, minScore float64) ([]domain.ApprovalStepRecord, error) {
	for {
		idx := activeIndex(records)
		if idx < 0 {
			next, ok := nextStep(steps, records)
			if !ok {
				if err := Transition(req, domain.StatusApproved, ""); err != nil {
					return nil, err
				}
				return records, nil
			}
			records = append(records, e.activate(req.ID, next))
			idx = len(records) - 1
		}
		rec := &records[idx]
		step, _ := stepAt(steps, rec.StepOrder)
		if step.AutoApproveMinScore == nil || minScore < *step.AutoApproveMinScore {
			return records, nil
		}
		now := e.now().UTC()
		rec.Decision = domain.DecisionApproved
		rec.AutoApproved = true
		rec.DecidedAt = &now
	}
}

func (e *Engine) activate(requestID string, step domain.ApprovalStep) domain.ApprovalStepRecord {
	return domain.ApprovalStepRecord{
		ID:          util.NewID(),
		RequestID:   requestID,
		StepOrder:   step.Order,
		ApproverID:  step.ApproverRole,
		Decision:    domain.DecisionPending,
		ActivatedAt: e.now().UTC(),
	}
}

func orderedSteps(wf domain.ApprovalWorkflow) []domain.ApprovalStep {
	steps := make([]domain.ApprovalStep, len(wf.Steps))
	copy(steps, wf.Steps)
	sort.Slice(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })
	return steps
}

func stepDefined(steps []domain.ApprovalStep, order int) bool {
	_, ok := stepAt(steps, order)
	return ok
}

func stepAt(steps []domain.ApprovalStep, order int) (domain.ApprovalStep, bool) {
	for _, s := range steps {
		if s.Order == order {
			return s, true
		}
	}
	return domain.ApprovalStep{}, false
}

func stepByOrder(wf domain.ApprovalWorkflow, order int) (domain.ApprovalStep, bool) {
	return stepAt(wf.Steps, order)
}

func recordIndex(records []domain.ApprovalStepRecord, order int) int {
	for i := range records {
		if records[i].StepOrder == order {
			return i
		}
	}
	return -1
}

func activeIndex(records []domain.ApprovalStepRecord) int {
	for i := range records {
		if records[i].Decision == domain.DecisionPending {
			return i
		}
	}
	return -1
}

// nextStep returns the first configured step with no record yet.
func nextStep(steps []domain.ApprovalStep, records []domain.ApprovalStepRecord) (domain.ApprovalStep, bool) {
	for _, step := range steps {
		if recordIndex(records, step.Order) < 0 {
			return step, true
		}
	}
	return domain.ApprovalStep{}, false
}
