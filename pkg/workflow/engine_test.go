package workflow

import (
	"errors"
	"testing"
	"time"

	"brandcraft/pkg/domain"
)

func ptr(f float64) *float64 { return &f }

func threeStepWorkflow() domain.ApprovalWorkflow {
	return domain.ApprovalWorkflow{
		ID:    "wf-1",
		OrgID: "org-1",
		Name:  "standard review",
		Steps: []domain.ApprovalStep{
			{Order: 1, ApproverRole: "brand_manager", AutoApproveMinScore: ptr(0.90)},
			{Order: 2, ApproverRole: "legal"},
			{Order: 3, ApproverRole: "director"},
		},
	}
}

func reviewRequest() *domain.ContentRequest {
	return &domain.ContentRequest{ID: "req-1", OrgID: "org-1", Status: domain.StatusGenerated}
}

func TestStartActivatesFirstStepOnly(t *testing.T) {
	e := New()
	req := reviewRequest()
	records, err := e.Start(threeStepWorkflow(), req, 0.75)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if req.Status != domain.StatusReview {
		t.Fatalf("status = %s, want review", req.Status)
	}
	if len(records) != 1 || records[0].StepOrder != 1 || records[0].Decision != domain.DecisionPending {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestStartAutoApprovesFirstStep(t *testing.T) {
	e := New()
	req := reviewRequest()
	records, err := e.Start(threeStepWorkflow(), req, 0.95)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !records[0].AutoApproved || records[0].Decision != domain.DecisionApproved {
		t.Fatalf("step 1 should auto-approve at 0.95: %+v", records[0])
	}
	if len(records) != 2 || records[1].StepOrder != 2 || records[1].Decision != domain.DecisionPending {
		t.Fatalf("step 2 should be active: %+v", records)
	}
}

func TestFullApprovalPath(t *testing.T) {
	e := New()
	req := reviewRequest()
	records, err := e.Start(threeStepWorkflow(), req, 0.95)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	for _, in := range []DecisionInput{
		{StepOrder: 2, ApproverID: "lee", Decision: domain.DecisionApproved},
		{StepOrder: 3, ApproverID: "dana", Decision: domain.DecisionApproved},
	} {
		records, err = e.Decide(threeStepWorkflow(), req, records, in, 0.95)
		if err != nil {
			t.Fatalf("Decide step %d: %v", in.StepOrder, err)
		}
	}
	if req.Status != domain.StatusApproved {
		t.Fatalf("status = %s, want approved", req.Status)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
}

func TestRejectionFailsFast(t *testing.T) {
	e := New()
	req := reviewRequest()
	records, err := e.Start(threeStepWorkflow(), req, 0.95)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	records, err = e.Decide(threeStepWorkflow(), req, records, DecisionInput{
		StepOrder: 2, ApproverID: "lee", Decision: domain.DecisionRejected, Comments: "off brand",
	}, 0.95)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if req.Status != domain.StatusRejected {
		t.Fatalf("status = %s, want rejected", req.Status)
	}
	if req.StatusReason != "off brand" {
		t.Fatalf("reason = %q", req.StatusReason)
	}
	// Step 3 must never have been instantiated.
	for _, rec := range records {
		if rec.StepOrder == 3 {
			t.Fatalf("step 3 record should not exist after step 2 rejection")
		}
	}
}

func TestDecideAlreadyDecidedStep(t *testing.T) {
	e := New()
	req := reviewRequest()
	records, err := e.Start(threeStepWorkflow(), req, 0.95)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Step 1 was auto-approved; deciding it again is a violation.
	_, err = e.Decide(threeStepWorkflow(), req, records, DecisionInput{
		StepOrder: 1, ApproverID: "lee", Decision: domain.DecisionApproved,
	}, 0.95)
	if !errors.Is(err, ErrWorkflowViolation) {
		t.Fatalf("expected ErrWorkflowViolation, got %v", err)
	}
}

func TestDecideInactiveStep(t *testing.T) {
	e := New()
	req := reviewRequest()
	records, err := e.Start(threeStepWorkflow(), req, 0.75)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, err = e.Decide(threeStepWorkflow(), req, records, DecisionInput{
		StepOrder: 3, ApproverID: "dana", Decision: domain.DecisionApproved,
	}, 0.75)
	if !errors.Is(err, ErrWorkflowViolation) {
		t.Fatalf("expected violation for step not yet active, got %v", err)
	}
	_, err = e.Decide(threeStepWorkflow(), req, records, DecisionInput{
		StepOrder: 9, ApproverID: "dana", Decision: domain.DecisionApproved,
	}, 0.75)
	if !errors.Is(err, ErrUnknownStep) {
		t.Fatalf("expected ErrUnknownStep, got %v", err)
	}
}

func TestDelegationKeepsStepPending(t *testing.T) {
	e := New()
	req := reviewRequest()
	records, err := e.Start(threeStepWorkflow(), req, 0.75)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	records, err = e.Decide(threeStepWorkflow(), req, records, DecisionInput{
		StepOrder: 1, ApproverID: "mo", Decision: domain.DecisionDelegated, DelegateTo: "sam",
	}, 0.75)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	rec := records[0]
	if rec.Decision != domain.DecisionPending || rec.ApproverID != "sam" || rec.DelegatedTo != "sam" {
		t.Fatalf("delegation should reassign and stay pending: %+v", rec)
	}
	if req.Status != domain.StatusReview {
		t.Fatalf("status = %s, want review", req.Status)
	}
	// The delegate can then approve.
	if _, err := e.Decide(threeStepWorkflow(), req, records, DecisionInput{
		StepOrder: 1, ApproverID: "sam", Decision: domain.DecisionApproved,
	}, 0.75); err != nil {
		t.Fatalf("delegate approval: %v", err)
	}
}

func TestEscalationFiresOnce(t *testing.T) {
	wf := domain.ApprovalWorkflow{
		ID: "wf-2",
		Steps: []domain.ApprovalStep{
			{Order: 1, ApproverRole: "brand_manager", EscalationTimeout: time.Hour, EscalationRole: "director"},
		},
	}
	e := New()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return base }

	req := reviewRequest()
	records, err := e.Start(wf, req, 0)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Before the timeout nothing escalates.
	e.now = func() time.Time { return base.Add(30 * time.Minute) }
	if got := e.Escalate(wf, records); len(got) != 0 {
		t.Fatalf("escalated too early: %+v", got)
	}

	e.now = func() time.Time { return base.Add(2 * time.Hour) }
	got := e.Escalate(wf, records)
	if len(got) != 1 || got[0].ApproverID != "director" || !got[0].Escalated {
		t.Fatalf("expected one escalation to director: %+v", got)
	}

	// Timer restarted once; a second expiry does nothing.
	e.now = func() time.Time { return base.Add(10 * time.Hour) }
	if got := e.Escalate(wf, records); len(got) != 0 {
		t.Fatalf("escalation must fire at most once: %+v", got)
	}
}

func TestCancelBeforeReviewArchives(t *testing.T) {
	e := New()
	req := &domain.ContentRequest{ID: "req-1", Status: domain.StatusProcessing}
	if _, err := e.Cancel(threeStepWorkflow(), req, nil, "user-1", "no longer needed"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if req.Status != domain.StatusArchived || req.StatusReason != "no longer needed" {
		t.Fatalf("unexpected request state: %+v", req)
	}
}

func TestCancelInReviewRecordsRejection(t *testing.T) {
	e := New()
	req := reviewRequest()
	records, err := e.Start(threeStepWorkflow(), req, 0.75)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	records, err = e.Cancel(threeStepWorkflow(), req, records, "user-1", "withdrawn")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if req.Status != domain.StatusRejected {
		t.Fatalf("status = %s, want rejected", req.Status)
	}
	if records[0].Decision != domain.DecisionRejected || records[0].ApproverID != "user-1" {
		t.Fatalf("cancellation should appear in the audit trail: %+v", records[0])
	}
}

func TestCancelTerminalStateFails(t *testing.T) {
	e := New()
	req := &domain.ContentRequest{ID: "req-1", Status: domain.StatusPublished}
	if _, err := e.Cancel(threeStepWorkflow(), req, nil, "user-1", "oops"); !errors.Is(err, ErrWorkflowViolation) {
		t.Fatalf("expected violation, got %v", err)
	}
}

func TestTransitionRejectsIllegalMoves(t *testing.T) {
	req := &domain.ContentRequest{ID: "req-1", Status: domain.StatusPending}
	if err := Transition(req, domain.StatusApproved, ""); err == nil {
		t.Fatalf("pending cannot jump to approved")
	}
	if req.Status != domain.StatusPending {
		t.Fatalf("failed transition must not mutate status")
	}
	if err := Transition(req, domain.StatusProcessing, ""); err != nil {
		t.Fatalf("legal transition failed: %v", err)
	}
}
