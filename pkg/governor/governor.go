package governor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"brandcraft/internal/util"
	"brandcraft/pkg/domain"
)

// The script refills the (org, provider) token bucket, checks the daily
// request and cost ceilings, and admits at most one call, all atomically.
// Returns {1, 0} on admit, {-1, retryAfterMs} when the bucket is empty,
// {-2, 0} when a daily ceiling is exhausted.
var reserveScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local refill = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local quota = tonumber(ARGV[4])
local costLimit = tonumber(ARGV[5])
local estCost = tonumber(ARGV[6])
local dayTTL = tonumber(ARGV[7])

local tokens = capacity
local ts = now
local bucket = redis.call("HMGET", KEYS[1], "tokens", "ts")
if bucket[1] then
  tokens = tonumber(bucket[1])
  ts = tonumber(bucket[2])
end
local elapsed = now - ts
if elapsed > 0 then
  tokens = math.min(capacity, tokens + elapsed * refill)
end

local used = tonumber(redis.call("GET", KEYS[2]) or "0")
if quota > 0 and used >= quota then
  return {-2, 0}
end
local spent = tonumber(redis.call("GET", KEYS[3]) or "0")
if costLimit > 0 and spent + estCost > costLimit then
  return {-2, 0}
end

if tokens < 1 then
  redis.call("HMSET", KEYS[1], "tokens", tokens, "ts", now)
  redis.call("PEXPIRE", KEYS[1], 120000)
  return {-1, math.ceil((1 - tokens) / refill)}
end

tokens = tokens - 1
redis.call("HMSET", KEYS[1], "tokens", tokens, "ts", now)
redis.call("PEXPIRE", KEYS[1], 120000)
local count = redis.call("INCR", KEYS[2])
if count == 1 then
  redis.call("PEXPIRE", KEYS[2], dayTTL)
end
if estCost > 0 then
  redis.call("INCRBYFLOAT", KEYS[3], estCost)
  redis.call("PEXPIRE", KEYS[3], dayTTL)
end
return {1, 0}
`)

// Limits configures admission for one provider.
type Limits struct {
	BucketCapacity  int
	RefillPerSecond float64
	DailyQuota      int
	DailyCostLimit  float64
}

// Grant admits exactly one external call. It must be passed back to Record
// once the call completes, whatever the outcome.
type Grant struct {
	ID            string
	OrgID         string
	Provider      string
	Operation     string
	EstimatedCost float64
	IssuedAt      time.Time

	used atomic.Bool
}

// UsageLog persists the append-only call log.
type UsageLog interface {
	AppendUsage(ctx context.Context, rec domain.UsageRecord) error
	ListUsage(ctx context.Context, orgID, provider string, from, to time.Time) ([]domain.UsageRecord, error)
}

// Governor enforces per-(org, provider) rate and cost quotas on outbound
// calls to external services. Counter state lives in Redis so concurrent
// reservations across workers stay linearizable.
type Governor struct {
	client *redis.Client
	prefix string
	log    UsageLog
	limits Limits
	now    func() time.Time
}

// Config wires the governor's dependencies.
type Config struct {
	RedisAddr     string
	RedisPassword string
	KeyPrefix     string
	Limits        Limits
	UsageLog      UsageLog
}

// New constructs a governor backed by Redis counters.
func New(cfg Config) (*Governor, error) {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("governor: redis addr required")
	}
	if cfg.UsageLog == nil {
		return nil, errors.New("governor: usage log required")
	}
	if cfg.Limits.BucketCapacity <= 0 || cfg.Limits.RefillPerSecond <= 0 {
		return nil, errors.New("governor: bucket capacity and refill rate must be positive")
	}
	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if prefix == "" {
		prefix = "brandcraft:governor"
	}
	return &Governor{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: cfg.RedisPassword}),
		prefix: prefix,
		log:    cfg.UsageLog,
		limits: cfg.Limits,
		now:    time.Now,
	}, nil
}

// Reserve admits one call for (org, provider) or fails fast with
// RateLimitedError or ErrQuotaExceeded. It never blocks waiting for tokens.
// The operation names the upstream call (search, fetch) and is carried onto
// the usage record when the grant is settled.
func (g *Governor) Reserve(ctx context.Context, orgID, provider, operation string, estimatedCost float64) (*Grant, error) {
	orgID = strings.TrimSpace(orgID)
	provider = strings.TrimSpace(provider)
	if orgID == "" || provider == "" {
		return nil, errors.New("governor: org and provider required")
	}
	if estimatedCost < 0 {
		return nil, errors.New("governor: estimated cost must be >= 0")
	}

	now := g.now().UTC()
	day := now.Format("2006-01-02")
	keys := []string{
		fmt.Sprintf("%s:bucket:%s:%s", g.prefix, orgID, provider),
		fmt.Sprintf("%s:count:%s:%s:%s", g.prefix, orgID, provider, day),
		fmt.Sprintf("%s:cost:%s:%s:%s", g.prefix, orgID, provider, day),
	}
	dayTTL := endOfDay(now).Sub(now).Milliseconds()
	res, err := reserveScript.Run(ctx, g.client, keys,
		g.limits.BucketCapacity,
		g.limits.RefillPerSecond/1000.0, // tokens per millisecond
		now.UnixMilli(),
		g.limits.DailyQuota,
		g.limits.DailyCostLimit,
		estimatedCost,
		dayTTL,
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("governor reserve: %w", err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("governor reserve: unexpected script reply %v", res)
	}
	switch res[0] {
	case 1:
		return &Grant{
			ID:            util.NewID(),
			OrgID:         orgID,
			Provider:      provider,
			Operation:     strings.TrimSpace(operation),
			EstimatedCost: estimatedCost,
			IssuedAt:      now,
		}, nil
	case -1:
		return nil, &RateLimitedError{RetryAfter: time.Duration(res[1]) * time.Millisecond}
	default:
		return nil, ErrQuotaExceeded
	}
}

// Record logs the outcome of a granted call and settles the cost counter
// against the actual cost. Cost already incurred is always logged, even for
// failed calls.
func (g *Governor) Record(ctx context.Context, grant *Grant, actualCost float64, status string, latency time.Duration) error {
	if grant == nil {
		return errors.New("governor: grant required")
	}
	if actualCost < 0 {
		return errors.New("governor: actual cost must be >= 0")
	}
	if !grant.used.CompareAndSwap(false, true) {
		return ErrGrantAlreadyUsed
	}

	now := g.now().UTC()
	if delta := actualCost - grant.EstimatedCost; delta != 0 {
		day := grant.IssuedAt.Format("2006-01-02")
		costKey := fmt.Sprintf("%s:cost:%s:%s:%s", g.prefix, grant.OrgID, grant.Provider, day)
		if err := g.client.IncrByFloat(ctx, costKey, delta).Err(); err != nil {
			slog.Warn("governor cost settle failed", "org", grant.OrgID, "provider", grant.Provider, "err", err)
		}
	}

	rec := domain.UsageRecord{
		ID:        util.NewID(),
		OrgID:     grant.OrgID,
		Provider:  grant.Provider,
		Operation: grant.Operation,
		Cost:      actualCost,
		Latency:   latency,
		Status:    status,
		CreatedAt: now,
	}
	if err := g.log.AppendUsage(ctx, rec); err != nil {
		return fmt.Errorf("append usage record: %w", err)
	}
	return nil
}

// DailySummary aggregates the usage log for one UTC day. It is idempotent
// and always recomputable from the records.
func (g *Governor) DailySummary(ctx context.Context, orgID, provider string, date time.Time) (domain.DailyUsageSummary, error) {
	day := date.UTC().Truncate(24 * time.Hour)
	records, err := g.log.ListUsage(ctx, orgID, provider, day, day.Add(24*time.Hour))
	if err != nil {
		return domain.DailyUsageSummary{}, fmt.Errorf("list usage: %w", err)
	}
	summary := domain.DailyUsageSummary{
		OrgID:    orgID,
		Provider: provider,
		Date:     day.Format("2006-01-02"),
	}
	var totalLatency time.Duration
	for _, rec := range records {
		summary.Requests++
		summary.TotalCost += rec.Cost
		totalLatency += rec.Latency
		if rec.Status == "ok" {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	if summary.Requests > 0 {
		summary.AvgLatencyMS = float64(totalLatency.Milliseconds()) / float64(summary.Requests)
	}
	return summary, nil
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}
