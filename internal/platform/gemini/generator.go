package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/bookdata/booktone-api/internal/config"
	"github.com/bookdata/booktone-api/internal/domain"
	"github.com/bookdata/booktone-api/internal/generation"
	"google.golang.org/genai"
)

// ToneGenerator implements the generation.ToneModel interface using
// Google's Gemini API to generate tone recommendations for a book.
type ToneGenerator struct {
	logger *slog.Logger
	config config.LLMConfig
	client *genai.Client
	model  string
}

// NewToneGenerator creates a new instance of ToneGenerator with the
// provided dependencies. Returns an error if the configuration is invalid
// or the Gemini client cannot be initialized.
func NewToneGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*ToneGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &ToneGenerator{
		logger: logger,
		config: cfg,
		client: client,
		model:  cfg.ModelName,
	}, nil
}

// Ensure ToneGenerator implements generation.ToneModel
var _ generation.ToneModel = (*ToneGenerator)(nil)

// GenerateTones implements generation.ToneModel.GenerateTones
func (g *ToneGenerator) GenerateTones(ctx context.Context, book *domain.Book, moodTags []string) ([]string, error) {
	if book == nil {
		return nil, fmt.Errorf("%w: book cannot be nil", generation.ErrGenerationFailed)
	}

	prompt := buildPrompt(book, moodTags)

	raw, err := g.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	tones := parseToneResponse(raw)
	g.logger.DebugContext(ctx, "parsed tone response",
		slog.Int("book_id", book.ID),
		slog.Int("tone_count", len(tones)))

	return tones, nil
}

// buildPrompt renders the generation prompt from book metadata and any
// reader mood tags.
func buildPrompt(book *domain.Book, moodTags []string) string {
	genreList := strings.Join(book.Genres, ", ")
	if genreList == "" {
		genreList = "unknown"
	}

	tagList := "none available"
	if len(moodTags) > 0 {
		tagList = strings.Join(moodTags, ", ")
	}

	return fmt.Sprintf(
		"Based on the book '%s' by %s in the genres: %s, and with mood tags from readers: %s, "+
			"respond with a JSON array of up to %d tones from this list that best fit the book: %s",
		book.Title, book.Author, genreList, tagList, maxTonesPerBook,
		strings.Join(validTones, ", "),
	)
}

// callWithRetry makes a call to the Gemini API with exponential backoff
// retry logic. Transient errors are retried up to config.MaxRetries times
// with jitter; permanent errors (blocked content, empty responses) are
// returned immediately.
func (g *ToneGenerator) callWithRetry(ctx context.Context, prompt string) (string, error) {
	maxRetries := g.config.MaxRetries
	baseDelaySeconds := g.config.RetryDelaySeconds
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if maxRetries < 0 {
		g.logger.WarnContext(ctx, "invalid max retries value, using default", "max_retries", 3)
		maxRetries = 3
	}

	if baseDelaySeconds < 1 {
		g.logger.WarnContext(ctx, "invalid retry delay value, using default", "base_delay_seconds", 2)
		baseDelaySeconds = 2
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(0.3)),
		TopP:            genai.Ptr(float32(0.9)),
		MaxOutputTokens: 64,
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		attemptNum := attempt + 1
		g.logger.DebugContext(ctx, "making Gemini API call",
			"attempt", attemptNum,
			"max_attempts", maxRetries+1)

		text, err := g.callOnce(ctx, prompt, genCfg)
		if err == nil {
			return text, nil
		}

		g.logger.ErrorContext(ctx, "Gemini API call failed",
			"attempt", attemptNum,
			"error", err)

		// Permanent errors are not retried.
		if errors.Is(err, generation.ErrContentBlocked) || errors.Is(err, generation.ErrInvalidResponse) {
			return "", err
		}

		if attempt >= maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d)",
				generation.ErrTransientFailure, maxRetries)
		}

		// Exponential backoff with jitter:
		// delay = baseDelay * 2^attempt * (0.5 + rand(0, 0.5))
		backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		jitterFactor := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoffSeconds * jitterFactor * float64(time.Second))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: cancelled during retry delay: %v",
				generation.ErrTransientFailure, ctx.Err())
		}
	}

	return "", generation.ErrTransientFailure
}

// callOnce performs a single Gemini API call and extracts the response
// text.
func (g *ToneGenerator) callOnce(ctx context.Context, prompt string, genCfg *genai.GenerateContentConfig) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), genCfg)
	if err != nil {
		// API-level failures are assumed transient.
		return "", fmt.Errorf("gemini API call error: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}

	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty text in response", generation.ErrInvalidResponse)
	}

	return text, nil
}
