// Package catalog provides read-only access to the CMS book catalog
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/paperbridge/bookstore-go/config"
	"github.com/paperbridge/bookstore-go/models"
	"github.com/paperbridge/bookstore-go/personalization"
)

// Client queries the CMS content source by collection identifier. The
// catalog is treated as read-only; beyond optional-field defaulting no
// schema validation is applied.
type Client struct {
	baseURL string
	apiKey  string
	token   string
	client  *http.Client
}

// NewClient creates a catalog client from environment configuration
func NewClient() *Client {
	return &Client{
		baseURL: config.CatalogBaseURL,
		apiKey:  config.CatalogAPIKey,
		token:   config.CatalogToken,
		client:  &http.Client{Timeout: config.CatalogTimeout},
	}
}

// NewClientWith creates a catalog client against an explicit endpoint,
// used by tests
func NewClientWith(baseURL string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: config.CatalogTimeout}
	}
	return &Client{baseURL: baseURL, client: client}
}

// rawEntry mirrors the CMS entry shape with every field optional
type rawEntry struct {
	UID         string   `json:"uid"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Genre       string   `json:"genre"`
	Price       *float64 `json:"price"`
	Pages       *int     `json:"number_of_pages"`
	Description string   `json:"description"`
	Image       *struct {
		URL string `json:"url"`
	} `json:"image"`
	Tags []string `json:"tags"`
}

// GetBooks fetches all entries in a collection
func (c *Client) GetBooks(ctx context.Context, collection string) ([]models.CatalogBook, error) {
	endpoint := fmt.Sprintf("%s/content_types/%s/entries", c.baseURL, url.PathEscape(collection))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned %d for collection %s", resp.StatusCode, collection)
	}

	var payload struct {
		Entries []rawEntry `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}

	books := make([]models.CatalogBook, 0, len(payload.Entries))
	for _, entry := range payload.Entries {
		books = append(books, normalizeEntry(entry))
	}
	return books, nil
}

// GetBook fetches a single entry by its identifier
func (c *Client) GetBook(ctx context.Context, collection, id string) (*models.CatalogBook, error) {
	endpoint := fmt.Sprintf("%s/content_types/%s/entries/%s", c.baseURL, url.PathEscape(collection), url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("book %s not found", id)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned %d for book %s", resp.StatusCode, id)
	}

	var payload struct {
		Entry rawEntry `json:"entry"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}

	book := normalizeEntry(payload.Entry)
	return &book, nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("api_key", c.apiKey)
	}
	if c.token != "" {
		req.Header.Set("access_token", c.token)
	}
}

// normalizeEntry applies optional-field defaulting; the genre falls back to
// text classification when the CMS entry carries none
func normalizeEntry(entry rawEntry) models.CatalogBook {
	book := models.CatalogBook{
		ID:          entry.UID,
		Title:       entry.Title,
		Author:      entry.Author,
		Genre:       entry.Genre,
		Description: entry.Description,
		Tags:        entry.Tags,
	}

	if book.Title == "" {
		book.Title = "Untitled"
	}
	if book.Author == "" {
		book.Author = "Unknown"
	}
	if book.Genre == "" {
		book.Genre = string(personalization.DetectGenre(book.Title, book.Author))
	}
	if entry.Price != nil {
		book.Price = *entry.Price
	}
	if entry.Pages != nil {
		book.Pages = *entry.Pages
	}
	if entry.Image != nil {
		book.ImageURL = entry.Image.URL
	}
	if book.Tags == nil {
		book.Tags = []string{}
	}

	return book
}
