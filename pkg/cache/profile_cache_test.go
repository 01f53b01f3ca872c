package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"brandcraft/pkg/domain"
)

type countingLoader struct {
	profiles map[string]domain.BrandProfile
	calls    int
}

func (l *countingLoader) GetBrandProfile(_ context.Context, id string) (domain.BrandProfile, bool, error) {
	l.calls++
	p, ok := l.profiles[id]
	return p, ok, nil
}

func newTestCache(t *testing.T) (*ProfileCache, *countingLoader, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	loader := &countingLoader{profiles: map[string]domain.BrandProfile{
		"bp-1": {
			ID:           "bp-1",
			OrgID:        "org-1",
			Name:         "BYMB",
			PrimaryColor: "#1B365D",
		},
	}}
	return NewProfileCache(client, loader, time.Minute), loader, mr
}

func TestGetReadThrough(t *testing.T) {
	c, loader, _ := newTestCache(t)
	ctx := context.Background()

	first, found, err := c.Get(ctx, "bp-1")
	if err != nil || !found {
		t.Fatalf("first get: found=%v err=%v", found, err)
	}
	if first.Name != "BYMB" {
		t.Fatalf("unexpected profile: %+v", first)
	}
	if loader.calls != 1 {
		t.Fatalf("expected 1 loader call, got %d", loader.calls)
	}

	second, found, err := c.Get(ctx, "bp-1")
	if err != nil || !found {
		t.Fatalf("second get: found=%v err=%v", found, err)
	}
	if second.PrimaryColor != first.PrimaryColor {
		t.Fatalf("cached profile mismatch: %+v", second)
	}
	if loader.calls != 1 {
		t.Fatalf("second get should hit cache, loader calls=%d", loader.calls)
	}
}

func TestGetMissingProfile(t *testing.T) {
	c, _, _ := newTestCache(t)

	_, found, err := c.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Fatalf("expected not found")
	}
}

func TestInvalidateForcesReload(t *testing.T) {
	c, loader, _ := newTestCache(t)
	ctx := context.Background()

	if _, _, err := c.Get(ctx, "bp-1"); err != nil {
		t.Fatalf("warm: %v", err)
	}
	loader.profiles["bp-1"] = domain.BrandProfile{ID: "bp-1", OrgID: "org-1", Name: "BYMB", PrimaryColor: "#FF0000"}

	if err := c.Invalidate(ctx, "bp-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	got, _, err := c.Get(ctx, "bp-1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.PrimaryColor != "#FF0000" {
		t.Fatalf("expected reloaded profile, got %+v", got)
	}
	if loader.calls != 2 {
		t.Fatalf("expected 2 loader calls, got %d", loader.calls)
	}
}

func TestCorruptEntryFallsThrough(t *testing.T) {
	c, loader, mr := newTestCache(t)
	ctx := context.Background()

	mr.Set("brandprofile:bp-1", "{not json")
	got, found, err := c.Get(ctx, "bp-1")
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if got.Name != "BYMB" {
		t.Fatalf("unexpected profile: %+v", got)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader fallback, calls=%d", loader.calls)
	}
}
