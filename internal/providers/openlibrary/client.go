// Package openlibrary implements the OpenLibrary search API as a book provider.
package openlibrary

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/bibliomatch-service/internal/domain"
	"github.com/helixir/bibliomatch-service/internal/providers"
)

const (
	// Name identifies the provider.
	Name = "open_library"

	// DefaultBaseURL is the OpenLibrary base URL.
	DefaultBaseURL = "https://openlibrary.org"

	DefaultRateLimit  = 3.0
	DefaultBurstSize  = 3
	DefaultTimeout    = 15 * time.Second
	DefaultMaxResults = 40

	maxAuthors = 6
)

// Config holds configuration for the OpenLibrary client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64
	BurstSize  int
	MaxRetries int
	MaxResults int
	Enabled    bool
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
}

// Client implements providers.Provider for OpenLibrary.
type Client struct {
	config     Config
	httpClient *providers.HTTPClient
}

var _ providers.Provider = (*Client)(nil)

// New creates an OpenLibrary client.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	return &Client{
		config: cfg,
		httpClient: providers.NewHTTPClient(providers.HTTPClientConfig{
			Timeout:    cfg.Timeout,
			RateLimit:  cfg.RateLimit,
			BurstSize:  cfg.BurstSize,
			MaxRetries: cfg.MaxRetries,
		}),
	}
}

// NewWithHTTPClient creates a client with a custom HTTP client.
func NewWithHTTPClient(cfg Config, httpClient *providers.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient}
}

func (c *Client) Name() string      { return Name }
func (c *Client) Kind() domain.Kind { return domain.KindBook }
func (c *Client) IsEnabled() bool   { return c.config.Enabled }

// Lookup supports the general and title modes. OpenLibrary has no language
// restriction and identifier lookups are not used.
func (c *Client) Lookup(ctx context.Context, params providers.LookupParams) ([]*domain.Record, error) {
	v := url.Values{}
	switch params.Mode {
	case providers.ModeTitle:
		t := strings.TrimSpace(params.Title)
		if t == "" {
			return nil, nil
		}
		v.Set("title", t)
		if a := strings.TrimSpace(params.Author); a != "" {
			v.Set("author", a)
		}
	case providers.ModeGeneral:
		q := strings.TrimSpace(params.Query)
		if q == "" {
			return nil, nil
		}
		v.Set("q", q)
	default:
		return nil, nil
	}
	v.Set("limit", strconv.Itoa(providers.CapMaxResults(params.MaxResults, c.config.MaxResults)))

	var resp SearchResponse
	if err := c.httpClient.GetJSON(ctx, Name, c.config.BaseURL+"/search.json?"+v.Encode(), &resp); err != nil {
		return nil, err
	}

	records := make([]*domain.Record, 0, len(resp.Docs))
	for i := range resp.Docs {
		records = append(records, docToRecord(&resp.Docs[i]))
	}
	return records, nil
}

func docToRecord(d *Doc) *domain.Record {
	names := d.AuthorName[:min(len(d.AuthorName), maxAuthors)]
	authors := make([]domain.Author, 0, len(names))
	for _, name := range names {
		if a, ok := domain.AuthorFromName(name); ok {
			authors = append(authors, a)
		}
	}

	r := &domain.Record{
		Authors: authors,
		Title:   d.Title,
		Kind:    domain.KindBook,
		Source:  Name,
	}
	if d.FirstPublishYear != 0 {
		r.Year = strconv.Itoa(d.FirstPublishYear)
	}
	return r
}
