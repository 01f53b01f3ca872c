package adapt

import (
	"hash/fnv"
	"strings"
	"unicode"
	"unicode/utf8"

	"brandcraft/pkg/domain"
)

type toneTemplate struct {
	openers []string
	closer  string
}

var toneTemplates = map[domain.Tone]toneTemplate{
	domain.ToneProfessional: {
		openers: []string{
			"In our experience working with clients,",
			"Successful organizations understand that",
			"The key to sustainable growth lies in",
		},
		closer: "What's been your experience with this approach?",
	},
	domain.ToneThoughtLeader: {
		openers: []string{
			"Here's what years of client work taught us:",
			"Behind every successful transformation:",
			"What most leaders get wrong about growth:",
		},
		closer: "What resonates most with your experience?",
	},
	domain.ToneEducational: {
		openers: []string{
			"A practical lesson worth sharing:",
			"Here's what this means in practice:",
			"Three things to take away from this:",
		},
		closer: "Save this for your next planning session.",
	},
	domain.ToneInspirational: {
		openers: []string{
			"Every breakthrough starts with a single decision.",
			"Growth rarely looks like a straight line.",
			"The best teams turn setbacks into momentum.",
		},
		closer: "Your next chapter starts today.",
	},
	domain.ToneConversational: {
		openers: []string{
			"Let's talk about something we see all the time:",
			"Quick story from a recent engagement:",
			"We've been reflecting on this lately:",
		},
		closer: "Would love to hear your thoughts in the comments.",
	},
}

var industryKeywords = map[string]string{
	"strategy":       "#BusinessStrategy",
	"growth":         "#StrategicGrowth",
	"revenue":        "#RevenueGrowth",
	"leadership":     "#Leadership",
	"innovation":     "#Innovation",
	"transformation": "#BusinessTransformation",
	"consulting":     "#Consulting",
	"digital":        "#DigitalTransformation",
	"marketing":      "#Marketing",
	"client":         "#ClientSuccess",
	"results":        "#Results",
	"success":        "#Success",
}

// pick selects deterministically from a pool based on the insight text so
// the same request always renders the same copy.
func pick(pool []string, seed string) string {
	if len(pool) == 0 {
		return ""
	}
	h := fnv.New32a()
	h.Write([]byte(seed))
	return pool[int(h.Sum32())%len(pool)]
}

func applyTone(insight string, tone domain.Tone) string {
	tpl, ok := toneTemplates[tone]
	if !ok {
		tpl = toneTemplates[domain.ToneProfessional]
	}
	opener := pick(tpl.openers, insight)
	return opener + "\n\n" + strings.TrimSpace(insight) + "\n\n" + tpl.closer
}

// truncate shortens text to limit, preferring whole sentences, then word
// boundaries. Text with no break point at all is hard-cut on a rune boundary
// so the result is always valid UTF-8.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}

	const ellipsis = "..."
	budget := limit - len(ellipsis)
	if budget <= 0 {
		return ""
	}

	var b strings.Builder
	for _, sentence := range splitSentences(text) {
		if b.Len()+len(sentence) > budget {
			break
		}
		b.WriteString(sentence)
	}
	if b.Len() > 0 {
		return strings.TrimSpace(b.String()) + ellipsis
	}

	// No complete sentence fits. Back off to the last word boundary, or to
	// the nearest rune boundary when the text has no whitespace at all.
	cut := text[:budget]
	if idx := strings.LastIndexFunc(cut, unicode.IsSpace); idx > 0 {
		cut = cut[:idx]
	} else {
		for len(cut) > 0 {
			if r, size := utf8.DecodeLastRuneInString(cut); r != utf8.RuneError || size > 1 {
				break
			}
			cut = cut[:len(cut)-1]
		}
	}
	return strings.TrimSpace(cut) + ellipsis
}

// splitSentences keeps terminal punctuation and trailing whitespace attached
// so rejoining the pieces reproduces the original text.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			end := i + 1
			for end < len(text) && (text[end] == ' ' || text[end] == '\n') {
				end++
			}
			out = append(out, text[start:end])
			start = end
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

// deriveTitle returns the first substantial sentence, shortened at a word
// boundary when needed.
func deriveTitle(insight string) string {
	const maxTitle = 90
	for _, sentence := range splitSentences(insight) {
		s := strings.TrimSpace(sentence)
		if len(s) >= 20 {
			return truncate(strings.TrimRight(s, ".!?"), maxTitle)
		}
	}
	return truncate(strings.TrimSpace(insight), maxTitle)
}

// blendHashtags merges brand tags with insight-derived keywords, deduplicates
// case-insensitively keeping the first casing seen, and caps the list.
func blendHashtags(insight string, brandTags []string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	lower := strings.ToLower(insight)

	candidates := make([]string, 0, len(brandTags)+len(industryKeywords))
	for _, tag := range brandTags {
		candidates = append(candidates, normalizeHashtag(tag))
	}
	// Stable keyword order keeps output reproducible.
	for _, keyword := range []string{
		"strategy", "growth", "revenue", "leadership", "innovation",
		"transformation", "consulting", "digital", "marketing",
		"client", "results", "success",
	} {
		if strings.Contains(lower, keyword) {
			candidates = append(candidates, industryKeywords[keyword])
		}
	}

	seen := make(map[string]bool, len(candidates))
	out := make([]string, 0, limit)
	for _, tag := range candidates {
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
		if len(out) == limit {
			break
		}
	}
	return out
}

func normalizeHashtag(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	if !strings.HasPrefix(tag, "#") {
		tag = "#" + tag
	}
	return strings.ReplaceAll(tag, " ", "")
}
