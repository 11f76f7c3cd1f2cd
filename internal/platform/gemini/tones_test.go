package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseToneResponse_JSONArray(t *testing.T) {
	t.Parallel()

	tones := parseToneResponse(`["Dark", "Atmospheric", "Suspenseful"]`)
	assert.Equal(t, []string{"Dark", "Atmospheric", "Suspenseful"}, tones)
}

func TestParseToneResponse_JSONArrayNormalizesCase(t *testing.T) {
	t.Parallel()

	tones := parseToneResponse(`["dark", "GUT-WRENCHING", "hopeful"]`)
	assert.Equal(t, []string{"Dark", "Gut-wrenching", "Hopeful"}, tones)
}

func TestParseToneResponse_JSONArrayDropsUnknownTones(t *testing.T) {
	t.Parallel()

	tones := parseToneResponse(`["Dark", "Sparkly", "Hopeful"]`)
	assert.Equal(t, []string{"Dark", "Hopeful"}, tones)
}

func TestParseToneResponse_SubstringFallback(t *testing.T) {
	t.Parallel()

	raw := "The book has a dark and haunting quality, with an atmospheric setting."
	tones := parseToneResponse(raw)
	assert.Contains(t, tones, "Dark")
	assert.Contains(t, tones, "Haunting")
	assert.Contains(t, tones, "Atmospheric")
}

func TestParseToneResponse_FencedJSONStillParses(t *testing.T) {
	t.Parallel()

	// Code-fenced output fails strict JSON parsing but the substring
	// scan still recovers the tones.
	raw := "```json\n[\"Bleak\", \"Cynical\"]\n```"
	tones := parseToneResponse(raw)
	assert.Contains(t, tones, "Bleak")
	assert.Contains(t, tones, "Cynical")
}

func TestParseToneResponse_CommaSeparatedValues(t *testing.T) {
	t.Parallel()

	tones := parseToneResponse(`"Cozy", "Sweet"`)
	assert.ElementsMatch(t, []string{"Cozy", "Sweet"}, tones)
}

func TestParseToneResponse_CapsAtSix(t *testing.T) {
	t.Parallel()

	tones := parseToneResponse(
		`["Dark", "Bleak", "Gritty", "Cynical", "Haunting", "Intense", "Tragic", "Epic"]`)
	assert.Len(t, tones, maxTonesPerBook)
}

func TestParseToneResponse_Deduplicates(t *testing.T) {
	t.Parallel()

	tones := parseToneResponse(`["Dark", "dark", "DARK", "Bleak"]`)
	assert.Equal(t, []string{"Dark", "Bleak"}, tones)
}

func TestParseToneResponse_EmptyAndGarbage(t *testing.T) {
	t.Parallel()

	assert.Empty(t, parseToneResponse(""))
	assert.Empty(t, parseToneResponse("   "))
	assert.Empty(t, parseToneResponse("no recognizable words here"))
}

func TestCanonicalTone(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Dark", canonicalTone(` "dark" `))
	assert.Equal(t, "Hard-boiled", canonicalTone("hard-boiled"))
	assert.Equal(t, "", canonicalTone("sparkly"))
	assert.Equal(t, "", canonicalTone(""))
}
