package adapt

import (
	"fmt"

	"brandcraft/pkg/domain"
)

// VisualStyle selects the rendering template for sourced imagery.
type VisualStyle string

const (
	StyleProfessionalMinimal VisualStyle = "professional_minimal"
	StyleCorporateBranded    VisualStyle = "corporate_branded"
	StyleModernGradient      VisualStyle = "modern_gradient"
	StyleInfographic         VisualStyle = "infographic_style"
	StyleQuoteCard           VisualStyle = "quote_card"
)

var validStyles = map[VisualStyle]bool{
	StyleProfessionalMinimal: true,
	StyleCorporateBranded:    true,
	StyleModernGradient:      true,
	StyleInfographic:         true,
	StyleQuoteCard:           true,
}

var validTones = map[domain.Tone]bool{
	domain.ToneProfessional:   true,
	domain.ToneThoughtLeader:  true,
	domain.ToneEducational:    true,
	domain.ToneInspirational:  true,
	domain.ToneConversational: true,
}

// StylePreferences is the closed set of per-request tuning knobs. Unknown
// keys in the submitted map are an error, never silently dropped.
type StylePreferences struct {
	Tone         domain.Tone
	VisualStyle  VisualStyle
	IncludeImage bool
	Audience     string
}

// DefaultPreferences returns the preferences applied when a request sets none.
func DefaultPreferences() StylePreferences {
	return StylePreferences{
		Tone:         domain.ToneProfessional,
		VisualStyle:  StyleProfessionalMinimal,
		IncludeImage: true,
		Audience:     "business_leaders",
	}
}

// ParsePreferences validates a raw preference map against the recognized keys.
func ParsePreferences(raw map[string]string) (StylePreferences, error) {
	prefs := DefaultPreferences()
	for key, value := range raw {
		switch key {
		case "tone":
			tone := domain.Tone(value)
			if !validTones[tone] {
				return StylePreferences{}, fmt.Errorf("unknown tone %q", value)
			}
			prefs.Tone = tone
		case "visual_style":
			style := VisualStyle(value)
			if !validStyles[style] {
				return StylePreferences{}, fmt.Errorf("unknown visual style %q", value)
			}
			prefs.VisualStyle = style
		case "include_image":
			switch value {
			case "true":
				prefs.IncludeImage = true
			case "false":
				prefs.IncludeImage = false
			default:
				return StylePreferences{}, fmt.Errorf("include_image must be true or false, got %q", value)
			}
		case "audience":
			if value == "" {
				return StylePreferences{}, fmt.Errorf("audience must not be empty")
			}
			prefs.Audience = value
		default:
			return StylePreferences{}, fmt.Errorf("unrecognized style preference %q", key)
		}
	}
	return prefs, nil
}
