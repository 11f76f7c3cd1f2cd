// Package hardcover implements the generation.MoodTagClient interface
// against the Hardcover GraphQL API. Lookups are best-effort: any failure
// yields an empty tag list and an error the caller is expected to log and
// ignore.
package hardcover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bookdata/booktone-api/internal/config"
	"github.com/bookdata/booktone-api/internal/generation"
)

// moodTagQuery searches for a book by title and returns its cached tag
// payload in one round trip.
const moodTagQuery = `
query SearchBooksWithMoodTags($title: String!) {
  books(where: {title: {_ilike: $title}}, limit: 5) {
    title
    cached_tags
    contributions {
      author {
        name
      }
    }
  }
}`

// Client talks to the Hardcover GraphQL API.
type Client struct {
	httpClient  *http.Client
	endpoint    string
	bearerToken string
	logger      *slog.Logger
}

// NewClient creates a Hardcover client. The bearer token may be empty, in
// which case every lookup returns no tags.
func NewClient(cfg config.HardcoverConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		endpoint:    cfg.Endpoint,
		bearerToken: cfg.BearerToken,
		logger:      logger.With(slog.String("component", "hardcover_client")),
	}
}

// Ensure Client implements generation.MoodTagClient
var _ generation.MoodTagClient = (*Client)(nil)

// graphqlRequest is the wire shape of a GraphQL POST body.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// graphqlResponse covers just the fields the mood tag query returns.
type graphqlResponse struct {
	Data struct {
		Books []struct {
			Title         string          `json:"title"`
			CachedTags    json.RawMessage `json:"cached_tags"`
			Contributions []struct {
				Author struct {
					Name string `json:"name"`
				} `json:"author"`
			} `json:"contributions"`
		} `json:"books"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// GetMoodTags implements generation.MoodTagClient.GetMoodTags
func (c *Client) GetMoodTags(ctx context.Context, title, author string) ([]string, error) {
	if c.bearerToken == "" {
		c.logger.DebugContext(ctx, "hardcover bearer token not configured, skipping mood tag lookup")
		return nil, nil
	}

	body, err := json.Marshal(graphqlRequest{
		Query:     moodTagQuery,
		Variables: map[string]any{"title": title},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build GraphQL request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hardcover API request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body", slog.String("error", closeErr.Error()))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hardcover API returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read hardcover response: %w", err)
	}

	var parsed graphqlResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse hardcover response: %w", err)
	}

	if len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("hardcover GraphQL error: %s", parsed.Errors[0].Message)
	}

	// Pick the result whose author matches, falling back to the first hit.
	for _, book := range parsed.Data.Books {
		if !authorMatches(book.Contributions, author) {
			continue
		}
		return extractMoodTags(book.CachedTags), nil
	}

	if len(parsed.Data.Books) > 0 {
		c.logger.DebugContext(ctx, "no author match for mood tags, using first search hit",
			slog.String("title", title),
			slog.String("author", author))
		return extractMoodTags(parsed.Data.Books[0].CachedTags), nil
	}

	return nil, nil
}

func authorMatches(contributions []struct {
	Author struct {
		Name string `json:"name"`
	} `json:"author"`
}, author string) bool {
	for _, contribution := range contributions {
		if strings.EqualFold(contribution.Author.Name, author) {
			return true
		}
	}
	return false
}

// extractMoodTags pulls mood tag names from Hardcover's cached_tags JSON
// blob, which maps tag categories to lists of tag objects.
func extractMoodTags(cachedTags json.RawMessage) []string {
	if len(cachedTags) == 0 {
		return nil
	}

	var categories map[string][]struct {
		Tag string `json:"tag"`
	}
	if err := json.Unmarshal(cachedTags, &categories); err != nil {
		return nil
	}

	moods, ok := categories["Mood"]
	if !ok {
		return nil
	}

	tags := make([]string, 0, len(moods))
	for _, mood := range moods {
		if mood.Tag != "" {
			tags = append(tags, mood.Tag)
		}
	}
	return tags
}
