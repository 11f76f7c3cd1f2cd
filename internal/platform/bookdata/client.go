// Package bookdata implements the generation.BookDataClient interface
// against the upstream book metadata REST API.
package bookdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bookdata/booktone-api/internal/config"
	"github.com/bookdata/booktone-api/internal/domain"
	"github.com/bookdata/booktone-api/internal/generation"
)

// Client fetches book metadata from the book data API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a book data API client.
func NewClient(cfg config.BookDataConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		logger:     logger.With(slog.String("component", "bookdata_client")),
	}
}

// Ensure Client implements generation.BookDataClient
var _ generation.BookDataClient = (*Client)(nil)

// bookDTO is the upstream API's book representation.
type bookDTO struct {
	ID     int      `json:"id"`
	Title  string   `json:"title"`
	Author string   `json:"author"`
	Genres []string `json:"genres"`
}

// GetBookByID implements generation.BookDataClient.GetBookByID
func (c *Client) GetBookByID(ctx context.Context, bookID int) (*domain.Book, error) {
	url := fmt.Sprintf("%s/api/books/%d", c.baseURL, bookID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build book data request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("book data API request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body", slog.String("error", closeErr.Error()))
		}
	}()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: book %d", generation.ErrBookNotFound, bookID)
	default:
		return nil, fmt.Errorf("book data API returned status %d for book %d", resp.StatusCode, bookID)
	}

	var dto bookDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("failed to decode book data response: %w", err)
	}

	return &domain.Book{
		ID:     dto.ID,
		Title:  dto.Title,
		Author: dto.Author,
		Genres: dto.Genres,
	}, nil
}
