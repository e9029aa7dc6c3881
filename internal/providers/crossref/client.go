// Package crossref implements the Crossref works API as an article provider.
package crossref

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
	Name = "crossref"

	// DefaultBaseURL is the Crossref REST API base URL.
	DefaultBaseURL = "https://api.crossref.org"

	DefaultRateLimit  = 5.0
	DefaultBurstSize  = 5
	DefaultTimeout    = 15 * time.Second
	DefaultMaxResults = 40

	maxAuthors = 10
)

// Config holds configuration for the Crossref client.
type Config struct {
	BaseURL string

	// Mailto is sent in the User-Agent to join Crossref's polite pool.
	Mailto string

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

// Client implements providers.Provider for Crossref.
type Client struct {
	config     Config
	httpClient *providers.HTTPClient
}

var _ providers.Provider = (*Client)(nil)

// New creates a Crossref client.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	userAgent := providers.DefaultUserAgent
	if cfg.Mailto != "" {
		userAgent += " (mailto:" + cfg.Mailto + ")"
	}

	return &Client{
		config: cfg,
		httpClient: providers.NewHTTPClient(providers.HTTPClientConfig{
			Timeout:    cfg.Timeout,
			RateLimit:  cfg.RateLimit,
			BurstSize:  cfg.BurstSize,
			MaxRetries: cfg.MaxRetries,
			UserAgent:  userAgent,
		}),
	}
}

// NewWithHTTPClient creates a client with a custom HTTP client.
func NewWithHTTPClient(cfg Config, httpClient *providers.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient}
}

func (c *Client) Name() string      { return Name }
func (c *Client) Kind() domain.Kind { return domain.KindArticle }
func (c *Client) IsEnabled() bool   { return c.config.Enabled }

// Lookup supports the general and identifier modes. Identifier lookups only run
// for DOIs.
func (c *Client) Lookup(ctx context.Context, params providers.LookupParams) ([]*domain.Record, error) {
	var query string
	switch params.Mode {
	case providers.ModeIdentifier:
		doi, ok := DOI(params.Identifier)
		if !ok {
			return nil, nil
		}
		query = "doi:" + doi
	case providers.ModeGeneral:
		query = strings.TrimSpace(params.Query)
	}
	if query == "" {
		return nil, nil
	}

	v := url.Values{}
	v.Set("query", query)
	v.Set("rows", strconv.Itoa(providers.CapMaxResults(params.MaxResults, c.config.MaxResults)))

	var resp WorksResponse
	if err := c.httpClient.GetJSON(ctx, Name, c.config.BaseURL+"/works?"+v.Encode(), &resp); err != nil {
		return nil, err
	}

	records := make([]*domain.Record, 0, len(resp.Message.Items))
	for i := range resp.Message.Items {
		records = append(records, workToRecord(&resp.Message.Items[i]))
	}
	return records, nil
}

// DOI lowercases id, strips a doi.org URL prefix or a "doi:" scheme and reports
// whether the remainder looks like a DOI (starts with "10.").
func DOI(id string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(id))
	if s == "" {
		return "", false
	}
	if _, after, found := strings.Cut(s, "doi.org/"); found {
		s = strings.TrimSpace(after)
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, "doi:", ""))
	return s, strings.HasPrefix(s, "10.")
}

func workToRecord(w *Work) *domain.Record {
	people := w.Author[:min(len(w.Author), maxAuthors)]
	authors := make([]domain.Author, 0, len(people))
	for _, p := range people {
		authors = append(authors, domain.Author{Surname: p.Family, GivenName: p.Given})
	}

	r := &domain.Record{
		Authors:   authors,
		Title:     w.Title.first(),
		Publisher: w.Publisher,
		Journal:   w.ContainerTitle.first(),
		Kind:      domain.KindArticle,
		Source:    Name,
	}
	if y := w.Issued.Year(); y != 0 {
		r.Year = strconv.Itoa(y)
	}
	return r
}
