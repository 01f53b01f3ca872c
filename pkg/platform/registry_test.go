package platform

import (
	"os"
	"path/filepath"
	"testing"

	"brandcraft/pkg/domain"
)

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()

	spec, err := reg.Spec(domain.PlatformLinkedIn)
	if err != nil {
		t.Fatalf("linkedin spec: %v", err)
	}
	if spec.CaptionLimit != 3000 {
		t.Fatalf("linkedin caption limit = %d, want 3000", spec.CaptionLimit)
	}
	if spec.OptimalHashtags != 3 {
		t.Fatalf("linkedin optimal hashtags = %d, want 3", spec.OptimalHashtags)
	}

	spec, err = reg.Spec(domain.PlatformInstagram)
	if err != nil {
		t.Fatalf("instagram spec: %v", err)
	}
	if spec.CaptionLimit != 2200 || spec.OptimalHashtags != 11 {
		t.Fatalf("unexpected instagram spec: %+v", spec)
	}
}

func TestRegistryUnknownPlatform(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Spec(domain.Platform("myspace")); err == nil {
		t.Fatalf("expected error for unknown platform")
	}
}

func TestRegistryImageDimsFallback(t *testing.T) {
	reg := NewRegistry()
	spec, err := reg.Spec(domain.PlatformTwitter)
	if err != nil {
		t.Fatalf("twitter spec: %v", err)
	}
	w, h := spec.ImageDims(domain.ContentInfographic)
	pw, ph := spec.ImageDims(domain.ContentPost)
	if w != pw || h != ph {
		t.Fatalf("expected fallback to post dimensions, got %dx%d", w, h)
	}
}

func TestRegistryReplaceBumpsVersion(t *testing.T) {
	reg := NewRegistry()
	before := reg.Version()

	custom := Spec{
		Platform:        domain.PlatformTwitter,
		ImageDimensions: map[domain.ContentType][2]int{domain.ContentPost: {1200, 675}},
		CaptionLimit:    280,
		MaxHashtags:     2,
		OptimalHashtags: 1,
	}
	if err := reg.Replace([]Spec{custom}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if reg.Version() != before+1 {
		t.Fatalf("version = %d, want %d", reg.Version(), before+1)
	}

	spec, err := reg.Spec(domain.PlatformTwitter)
	if err != nil {
		t.Fatalf("spec after replace: %v", err)
	}
	if spec.OptimalHashtags != 1 {
		t.Fatalf("replace did not take effect: %+v", spec)
	}
	if _, err := reg.Spec(domain.PlatformInstagram); err == nil {
		t.Fatalf("replaced set should not contain instagram")
	}
}

func TestRegistryReplaceRejectsInvalidSpec(t *testing.T) {
	reg := NewRegistry()
	bad := Spec{Platform: domain.PlatformTwitter}
	if err := reg.Replace([]Spec{bad}); err == nil {
		t.Fatalf("expected validation error for spec without caption limit")
	}
	if reg.Version() != 1 {
		t.Fatalf("failed replace must not bump version")
	}
}

func TestRegistryLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "platforms.yaml")
	data := `platforms:
  - platform: linkedin
    captionLimit: 2800
    maxHashtags: 5
    optimalHashtags: 4
    imageDimensions:
      post: [1200, 627]
    peakHours: [8, 12]
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write specs file: %v", err)
	}

	reg := NewRegistry()
	if err := reg.LoadFile(path); err != nil {
		t.Fatalf("load file: %v", err)
	}
	spec, err := reg.Spec(domain.PlatformLinkedIn)
	if err != nil {
		t.Fatalf("spec: %v", err)
	}
	if spec.CaptionLimit != 2800 || spec.OptimalHashtags != 4 {
		t.Fatalf("unexpected loaded spec: %+v", spec)
	}
}
