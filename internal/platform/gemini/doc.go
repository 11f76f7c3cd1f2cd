// Package gemini implements the generation.ToneModel interface on top of
// Google's Gemini API. Responses are constrained to a closed tone
// vocabulary; parsing tolerates JSON arrays, free text and CSV output.
package gemini
