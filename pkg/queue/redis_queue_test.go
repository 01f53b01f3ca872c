package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"brandcraft/pkg/domain"
)

func newTestQueue(t *testing.T) (*RedisJobQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	q, err := NewRedisJobQueue(RedisQueueConfig{
		Addr:       mr.Addr(),
		Stream:     "adapt_jobs",
		Group:      "workers",
		Consumer:   "test",
		RetryDelay: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewRedisJobQueue: %v", err)
	}
	return q, mr
}

func TestEnqueueIdempotentPerRequestPlatform(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, "req-1", domain.PlatformInstagram)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	second, err := q.Enqueue(ctx, "req-1", domain.PlatformInstagram)
	if err != nil {
		t.Fatalf("duplicate enqueue: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("duplicate enqueue created new job: %s vs %s", first.ID, second.ID)
	}

	entries, err := q.client.XRange(ctx, q.stream, "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 stream entry, got %d", len(entries))
	}

	other, err := q.Enqueue(ctx, "req-1", domain.PlatformLinkedIn)
	if err != nil {
		t.Fatalf("enqueue other platform: %v", err)
	}
	if other.ID == first.ID {
		t.Fatalf("different platform should yield a different job")
	}
}

func TestEnqueueAgainAfterFailure(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	job, err := q.Enqueue(ctx, "req-2", domain.PlatformTwitter)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.markFailed(ctx, job.ID, "boom"); err != nil {
		t.Fatalf("markFailed: %v", err)
	}

	again, err := q.Enqueue(ctx, "req-2", domain.PlatformTwitter)
	if err != nil {
		t.Fatalf("re-enqueue: %v", err)
	}
	if again.Status != StatusQueued || again.Attempts != 0 {
		t.Fatalf("re-enqueue after failure should reset: %+v", again)
	}
}

func TestGetJobLifecycle(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	job, err := q.Enqueue(ctx, "req-3", domain.PlatformFacebook)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	got, found, err := q.GetJob(ctx, job.ID)
	if err != nil || !found {
		t.Fatalf("GetJob: found=%v err=%v", found, err)
	}
	if got.RequestID != "req-3" || got.Platform != domain.PlatformFacebook || got.Status != StatusQueued {
		t.Fatalf("unexpected job: %+v", got)
	}

	if _, err := q.markProcessing(ctx, job.ID, "req-3", domain.PlatformFacebook); err != nil {
		t.Fatalf("markProcessing: %v", err)
	}
	got, _, _ = q.GetJob(ctx, job.ID)
	if got.Status != StatusProcessing || got.Attempts != 1 {
		t.Fatalf("after processing: %+v", got)
	}

	if err := q.markDone(ctx, job.ID); err != nil {
		t.Fatalf("markDone: %v", err)
	}
	got, _, _ = q.GetJob(ctx, job.ID)
	if got.Status != StatusDone || got.ErrorMessage != "" {
		t.Fatalf("after done: %+v", got)
	}
}

func TestRequeueAndAckMovesMessage(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()

	if err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "$").Err(); err != nil {
		t.Fatalf("group create: %v", err)
	}
	job, err := q.Enqueue(ctx, "req-4", domain.PlatformInstagram)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: "test-0",
		Streams:  []string{q.stream, ">"},
		Count:    1,
		Block:    time.Millisecond,
	}).Result()
	if err != nil {
		t.Fatalf("xreadgroup: %v", err)
	}
	msg := streams[0].Messages[0]

	if err := q.requeueAndAck(ctx, msg.ID, job.ID, job.RequestID, job.Platform); err != nil {
		t.Fatalf("requeueAndAck: %v", err)
	}

	pending, err := q.client.XPending(ctx, q.stream, q.group).Result()
	if err != nil {
		t.Fatalf("xpending: %v", err)
	}
	if pending.Count != 0 {
		t.Fatalf("expected pending drained, got %d", pending.Count)
	}

	entries, err := q.client.XRange(ctx, q.stream, "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 requeued entry, got %d", len(entries))
	}
	if entries[0].Values["request_id"] != "req-4" || entries[0].Values["platform"] != string(domain.PlatformInstagram) {
		t.Fatalf("requeued payload mismatch: %+v", entries[0].Values)
	}
	_ = mr
}

func TestHandleMessageRetriesThenFails(t *testing.T) {
	q, _ := newTestQueue(t)
	q.maxRetries = 2
	ctx := context.Background()

	if err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "$").Err(); err != nil {
		t.Fatalf("group create: %v", err)
	}
	job, err := q.Enqueue(ctx, "req-5", domain.PlatformLinkedIn)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	failing := func(context.Context, JobStatus) error { return context.DeadlineExceeded }

	for i := 0; i < 2; i++ {
		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.group,
			Consumer: "test-0",
			Streams:  []string{q.stream, ">"},
			Count:    1,
			Block:    time.Millisecond,
		}).Result()
		if err != nil {
			t.Fatalf("xreadgroup round %d: %v", i, err)
		}
		q.handleMessage(ctx, "test-0", streams[0].Messages[0], failing)
	}

	got, _, err := q.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != StatusFailed {
		t.Fatalf("expected failed after max retries, got %s (attempts=%d)", got.Status, got.Attempts)
	}
	if got.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", got.Attempts)
	}
}
