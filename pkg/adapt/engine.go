// Package adapt turns business insights into platform-specific content
// optimizations: caption, hashtags, image spec, and posting time per platform.
package adapt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"brandcraft/internal/util"
	"brandcraft/pkg/domain"
	"brandcraft/pkg/governor"
	"brandcraft/pkg/platform"
)

// defaultUTCOffset applies when a brand profile carries no audience timezone.
const defaultUTCOffset = 3

// ImageSourcer locates and stores a background image for an optimization,
// returning its storage key. Implementations handle quota accounting and
// retries; quota denials surface as governor sentinel errors.
type ImageSourcer interface {
	Source(ctx context.Context, orgID, query string, spec domain.ImageSpec) (string, error)
}

// Config tunes the adaptation engine.
type Config struct {
	// MaxHashtagOverflow allows blended hashtag lists to exceed the
	// platform's optimal count by this margin. Zero keeps the hard cap.
	MaxHashtagOverflow int
	// MaxConcurrency bounds per-platform goroutines. Zero means unbounded.
	MaxConcurrency int
}

// Engine produces one ContentOptimization per target platform. Platform
// results are independent: a quota denial or image-service failure degrades
// that platform's result instead of failing the request.
type Engine struct {
	cfg      Config
	registry *platform.Registry
	images   ImageSourcer
	log      *slog.Logger

	now func() time.Time
}

func New(cfg Config, registry *platform.Registry, images ImageSourcer, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		cfg:      cfg,
		registry: registry,
		images:   images,
		log:      log,
		now:      time.Now,
	}
}

// Adapt renders the request's insight for every target platform.
// It fails fast on invalid input (unknown platform, bad preferences);
// per-platform degradation never returns an error.
func (e *Engine) Adapt(ctx context.Context, req domain.ContentRequest, profile domain.BrandProfile) ([]domain.ContentOptimization, error) {
	if len(req.Platforms) == 0 {
		return nil, fmt.Errorf("request %s has no target platforms", req.ID)
	}
	prefs, err := ParsePreferences(req.StylePreferences)
	if err != nil {
		return nil, fmt.Errorf("style preferences: %w", err)
	}
	specs := make(map[domain.Platform]platform.Spec, len(req.Platforms))
	for _, p := range req.Platforms {
		spec, err := e.registry.Spec(p)
		if err != nil {
			return nil, err
		}
		specs[p] = spec
	}

	results := make([]domain.ContentOptimization, len(req.Platforms))
	g, gctx := errgroup.WithContext(ctx)
	if e.cfg.MaxConcurrency > 0 {
		g.SetLimit(e.cfg.MaxConcurrency)
	}
	for i, p := range req.Platforms {
		i, p := i, p
		g.Go(func() error {
			results[i] = e.buildOne(gctx, req, profile, prefs, specs[p])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Engine) buildOne(ctx context.Context, req domain.ContentRequest, profile domain.BrandProfile, prefs StylePreferences, spec platform.Spec) domain.ContentOptimization {
	width, height := spec.ImageDims(req.ContentType)
	image := domain.ImageSpec{
		Width:       width,
		Height:      height,
		AspectRatio: float64(width) / float64(height),
		Format:      spec.ImageFormat(req.ContentType),
	}

	hashtagCap := spec.OptimalHashtags + e.cfg.MaxHashtagOverflow
	if hashtagCap > spec.MaxHashtags {
		hashtagCap = spec.MaxHashtags
	}

	opt := domain.ContentOptimization{
		ID:                 util.NewID(),
		RequestID:          req.ID,
		Platform:           spec.Platform,
		ContentType:        req.ContentType,
		Title:              deriveTitle(req.Insight),
		Caption:            truncate(applyTone(req.Insight, prefs.Tone), spec.CaptionLimit),
		Hashtags:           blendHashtags(req.Insight, profile.BrandTags, hashtagCap),
		CallToAction:       pick(spec.CallToActions, req.Insight+string(spec.Platform)),
		Tone:               prefs.Tone,
		Image:              image,
		OptimalPostingTime: nextPostingTime(e.now(), spec, audienceOffset(profile)),
		CreatedAt:          e.now().UTC(),
	}

	if prefs.IncludeImage && e.images != nil {
		key, err := e.images.Source(ctx, req.OrgID, opt.Title, image)
		switch {
		case err == nil:
			opt.ImageStorageKey = key
		case errors.Is(err, governor.ErrRateLimited), errors.Is(err, governor.ErrQuotaExceeded):
			opt.ImagePending = true
			opt.Degraded = true
			opt.DegradedReason = "image sourcing denied by usage governor"
			e.log.Info("image sourcing deferred",
				"request_id", req.ID, "platform", spec.Platform, "reason", err.Error())
		default:
			opt.ImagePending = true
			opt.Degraded = true
			opt.DegradedReason = "image service unavailable"
			e.log.Warn("image sourcing failed",
				"request_id", req.ID, "platform", spec.Platform, "error", err)
		}
	}

	return opt
}

func audienceOffset(profile domain.BrandProfile) int {
	if profile.AudienceUTCOffset != nil {
		return *profile.AudienceUTCOffset
	}
	return defaultUTCOffset
}

// nextPostingTime finds the next peak slot in the audience timezone. A
// weekend slot is only chosen when no weekday peak occurs within the two
// following days.
func nextPostingTime(now time.Time, spec platform.Spec, offsetHours int) time.Time {
	loc := time.FixedZone("audience", offsetHours*3600)
	local := now.In(loc)

	var weekendSlot time.Time
	for addDay := 0; addDay < 14; addDay++ {
		day := local.AddDate(0, 0, addDay)
		if !containsWeekday(spec.PeakDays, day.Weekday()) {
			continue
		}
		for _, hour := range spec.PeakHours {
			candidate := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, loc)
			if !candidate.After(local) {
				continue
			}
			if isWeekend(day.Weekday()) {
				if weekendSlot.IsZero() {
					weekendSlot = candidate
				}
				break
			}
			if !weekendSlot.IsZero() && candidate.Sub(weekendSlot) > 48*time.Hour {
				return weekendSlot
			}
			return candidate
		}
	}
	if !weekendSlot.IsZero() {
		return weekendSlot
	}
	// No configured peak window matched; fall back to tomorrow morning.
	day := local.AddDate(0, 0, 1)
	return time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, loc)
}

func containsWeekday(days []time.Weekday, d time.Weekday) bool {
	for _, day := range days {
		if day == d {
			return true
		}
	}
	return false
}

func isWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}
