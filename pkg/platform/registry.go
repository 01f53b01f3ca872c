package platform

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"brandcraft/pkg/domain"
)

// ErrUnknownPlatform is returned when no spec exists for a platform.
var ErrUnknownPlatform = errors.New("unknown platform")

// Spec holds the static constraints for one platform.
type Spec struct {
	Platform        domain.Platform               `yaml:"platform"`
	ImageDimensions map[domain.ContentType][2]int `yaml:"imageDimensions"`
	CaptionLimit    int                           `yaml:"captionLimit"`
	MaxHashtags     int                           `yaml:"maxHashtags"`
	OptimalHashtags int                           `yaml:"optimalHashtags"`
	PeakDays        []time.Weekday                `yaml:"peakDays"`
	PeakHours       []int                         `yaml:"peakHours"`
	CallToActions   []string                      `yaml:"callToActions"`
	ImageFormats    map[domain.ContentType]string `yaml:"imageFormats"`
}

// ImageDims returns dimensions for a content type, falling back to the post
// dimensions when the type has no dedicated entry.
func (s Spec) ImageDims(ct domain.ContentType) (int, int) {
	if dims, ok := s.ImageDimensions[ct]; ok {
		return dims[0], dims[1]
	}
	dims := s.ImageDimensions[domain.ContentPost]
	return dims[0], dims[1]
}

// ImageFormat returns the asset format for a content type. Infographics use
// PNG; everything else defaults to JPEG.
func (s Spec) ImageFormat(ct domain.ContentType) string {
	if f, ok := s.ImageFormats[ct]; ok {
		return f
	}
	if ct == domain.ContentInfographic {
		return "png"
	}
	return "jpeg"
}

type snapshot struct {
	version int64
	specs   map[domain.Platform]Spec
}

// Registry is a read-mostly lookup table of platform specs. Spec sets are
// versioned and swapped atomically so readers never block a reload.
type Registry struct {
	current atomic.Pointer[snapshot]
}

// NewRegistry returns a registry seeded with the built-in specs.
func NewRegistry() *Registry {
	r := &Registry{}
	r.current.Store(&snapshot{version: 1, specs: defaultSpecs()})
	return r
}

// Spec returns the spec for a platform.
func (r *Registry) Spec(p domain.Platform) (Spec, error) {
	snap := r.current.Load()
	spec, ok := snap.specs[p]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %s", ErrUnknownPlatform, p)
	}
	return spec, nil
}

// Platforms returns all known platform ids in the current snapshot.
func (r *Registry) Platforms() []domain.Platform {
	snap := r.current.Load()
	out := make([]domain.Platform, 0, len(snap.specs))
	for p := range snap.specs {
		out = append(out, p)
	}
	return out
}

// Version returns the version of the active spec set.
func (r *Registry) Version() int64 {
	return r.current.Load().version
}

// Replace installs a new spec set atomically and bumps the version.
func (r *Registry) Replace(specs []Spec) error {
	if len(specs) == 0 {
		return errors.New("platform: empty spec set")
	}
	m := make(map[domain.Platform]Spec, len(specs))
	for _, spec := range specs {
		if err := validateSpec(spec); err != nil {
			return err
		}
		m[spec.Platform] = spec
	}
	old := r.current.Load()
	r.current.Store(&snapshot{version: old.version + 1, specs: m})
	return nil
}

// LoadFile reloads specs from a YAML file, replacing the active set.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read platform specs: %w", err)
	}
	var file struct {
		Platforms []Spec `yaml:"platforms"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse platform specs: %w", err)
	}
	return r.Replace(file.Platforms)
}

func validateSpec(spec Spec) error {
	if spec.Platform == "" {
		return errors.New("platform: spec missing platform id")
	}
	if spec.CaptionLimit <= 0 {
		return fmt.Errorf("platform %s: caption limit must be positive", spec.Platform)
	}
	if spec.OptimalHashtags < 0 || spec.MaxHashtags < spec.OptimalHashtags {
		return fmt.Errorf("platform %s: invalid hashtag counts", spec.Platform)
	}
	if len(spec.ImageDimensions) == 0 {
		return fmt.Errorf("platform %s: image dimensions required", spec.Platform)
	}
	return nil
}
