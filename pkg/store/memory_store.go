package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"brandcraft/pkg/domain"
)

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu          sync.RWMutex
	brands      map[string]domain.BrandProfile
	requests    map[string]domain.ContentRequest
	opts        map[string][]domain.ContentOptimization // keyed by request ID
	compliance  map[string]domain.ComplianceResult      // keyed by optimization ID
	predictions map[string]domain.EngagementPrediction  // keyed by optimization ID
	workflows   map[string]domain.ApprovalWorkflow      // keyed by org ID
	steps       map[string][]domain.ApprovalStepRecord  // keyed by request ID
	usage       []domain.UsageRecord
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		brands:      make(map[string]domain.BrandProfile),
		requests:    make(map[string]domain.ContentRequest),
		opts:        make(map[string][]domain.ContentOptimization),
		compliance:  make(map[string]domain.ComplianceResult),
		predictions: make(map[string]domain.EngagementPrediction),
		workflows:   make(map[string]domain.ApprovalWorkflow),
		steps:       make(map[string][]domain.ApprovalStepRecord),
	}
}

func (m *MemoryStore) SaveBrandProfile(p domain.BrandProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.brands[p.ID] = p
	return nil
}

func (m *MemoryStore) GetBrandProfile(id string) (domain.BrandProfile, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.brands[id]
	return p, ok, nil
}

func (m *MemoryStore) ListBrandProfilesByOrg(orgID string) ([]domain.BrandProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.BrandProfile
	for _, p := range m.brands {
		if p.OrgID == orgID {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

func (m *MemoryStore) SaveRequest(r domain.ContentRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[r.ID] = r
	return nil
}

func (m *MemoryStore) GetRequest(id string) (domain.ContentRequest, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[id]
	return r, ok, nil
}

func (m *MemoryStore) ListRequestsByOrg(orgID string, limit int) ([]domain.ContentRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.ContentRequest
	for _, r := range m.requests {
		if r.OrgID == orgID {
			res = append(res, r)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (m *MemoryStore) ListRequestsByStatus(status domain.RequestStatus) ([]domain.ContentRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.ContentRequest
	for _, r := range m.requests {
		if r.Status == status {
			res = append(res, r)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (m *MemoryStore) SetRequestStatus(id string, status domain.RequestStatus, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil
	}
	r.Status = status
	r.StatusReason = reason
	r.UpdatedAt = time.Now().UTC()
	m.requests[id] = r
	return nil
}

func (m *MemoryStore) SetRequestStatusIf(id string, from, to domain.RequestStatus, reason string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	r.StatusReason = reason
	r.UpdatedAt = time.Now().UTC()
	m.requests[id] = r
	return true, nil
}

func (m *MemoryStore) SaveOptimization(o domain.ContentOptimization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.opts[o.RequestID]
	for i := range list {
		if list[i].Platform == o.Platform {
			// One row per (request, platform); the first writer's ID wins.
			o.ID = list[i].ID
			list[i] = o
			return nil
		}
	}
	m.opts[o.RequestID] = append(list, o)
	return nil
}

func (m *MemoryStore) ListOptimizationsByRequest(requestID string) ([]domain.ContentOptimization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.opts[requestID]
	res := make([]domain.ContentOptimization, len(list))
	copy(res, list)
	sort.Slice(res, func(i, j int) bool { return res[i].Platform < res[j].Platform })
	return res, nil
}

func (m *MemoryStore) SaveComplianceResult(r domain.ComplianceResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.compliance[r.OptimizationID] = r
	return nil
}

func (m *MemoryStore) GetComplianceResult(optimizationID string) (domain.ComplianceResult, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.compliance[optimizationID]
	return r, ok, nil
}

func (m *MemoryStore) SavePrediction(p domain.EngagementPrediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions[p.OptimizationID] = p
	return nil
}

func (m *MemoryStore) GetPrediction(optimizationID string) (domain.EngagementPrediction, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.predictions[optimizationID]
	return p, ok, nil
}

func (m *MemoryStore) SaveWorkflow(wf domain.ApprovalWorkflow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workflows[wf.OrgID] = wf
	return nil
}

func (m *MemoryStore) GetWorkflowByOrg(orgID string) (domain.ApprovalWorkflow, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wf, ok := m.workflows[orgID]
	return wf, ok, nil
}

func (m *MemoryStore) SaveStepRecord(rec domain.ApprovalStepRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.steps[rec.RequestID]
	for i := range list {
		if list[i].ID == rec.ID {
			list[i] = rec
			return nil
		}
	}
	m.steps[rec.RequestID] = append(list, rec)
	return nil
}

func (m *MemoryStore) ListStepRecords(requestID string) ([]domain.ApprovalStepRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.steps[requestID]
	res := make([]domain.ApprovalStepRecord, len(list))
	copy(res, list)
	sort.Slice(res, func(i, j int) bool { return res[i].StepOrder < res[j].StepOrder })
	return res, nil
}

func (m *MemoryStore) AppendUsage(_ context.Context, rec domain.UsageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage = append(m.usage, rec)
	return nil
}

func (m *MemoryStore) ListUsage(_ context.Context, orgID, provider string, from, to time.Time) ([]domain.UsageRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.UsageRecord
	for _, rec := range m.usage {
		if rec.OrgID != orgID || rec.Provider != provider {
			continue
		}
		if rec.CreatedAt.Before(from) || !rec.CreatedAt.Before(to) {
			continue
		}
		res = append(res, rec)
	}
	return res, nil
}
