package gemini

import (
	"encoding/json"
	"strings"
)

// maxTonesPerBook caps how many tones one generation may return.
const maxTonesPerBook = 6

// validTones is the closed vocabulary of tone names the model is allowed
// to produce. Anything outside this list is discarded during parsing.
var validTones = []string{
	"Poignant", "Melancholic", "Bittersweet", "Gut-wrenching", "Heartwarming", "Haunting",
	"Dark", "Bleak", "Gritty", "Cynical", "Unsettling", "Hard-boiled", "Grimdark",
	"Disturbing", "Horrific", "Macabre", "Grotesque", "Claustrophobic", "Intense",
	"Suspenseful", "Atmospheric", "Lyrical", "Surreal", "Mystical", "Dramatic",
	"Heroic", "Tragic", "Romantic", "Steamy", "Sweet", "Angsty", "Flirty",
	"Realistic", "Detached", "Upbeat", "Hopeful", "Uplifting", "Playful",
	"Comforting", "Cozy", "Whimsical", "Philosophical", "Psychological", "Epic",
}

// canonicalTone maps a candidate string to its whitelist spelling, or ""
// if it is not a valid tone.
func canonicalTone(candidate string) string {
	trimmed := strings.Trim(strings.TrimSpace(candidate), `"`)
	for _, tone := range validTones {
		if strings.EqualFold(tone, trimmed) {
			return tone
		}
	}
	return ""
}

// parseToneResponse extracts whitelisted tones from a raw model response.
// It tries, in order: a JSON string array, whitelist substrings anywhere
// in the text, and comma-separated values. At most maxTonesPerBook tones
// are returned; duplicates are dropped.
func parseToneResponse(raw string) []string {
	clean := strings.TrimSpace(raw)
	if clean == "" {
		return nil
	}

	if tones := parseJSONTones(clean); len(tones) > 0 {
		return tones
	}

	// Substring scan over the whole response text.
	lower := strings.ToLower(clean)
	found := make([]string, 0, maxTonesPerBook)
	for _, tone := range validTones {
		if strings.Contains(lower, strings.ToLower(tone)) {
			found = appendTone(found, tone)
		}
	}
	if len(found) > 0 {
		return found
	}

	// Last resort: comma-separated values.
	for _, part := range strings.Split(clean, ",") {
		if tone := canonicalTone(part); tone != "" {
			found = appendTone(found, tone)
		}
	}
	return found
}

// parseJSONTones attempts to interpret the response as a JSON string array.
func parseJSONTones(clean string) []string {
	var items []string
	if err := json.Unmarshal([]byte(clean), &items); err != nil {
		return nil
	}

	tones := make([]string, 0, maxTonesPerBook)
	for _, item := range items {
		if tone := canonicalTone(item); tone != "" {
			tones = appendTone(tones, tone)
		}
	}
	return tones
}

// appendTone adds a tone unless it is already present or the cap is hit.
func appendTone(tones []string, tone string) []string {
	if len(tones) >= maxTonesPerBook {
		return tones
	}
	for _, existing := range tones {
		if existing == tone {
			return tones
		}
	}
	return append(tones, tone)
}
