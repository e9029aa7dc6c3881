// Package googlebooks implements the Google Books volumes search as a book
// provider.
package googlebooks

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/bibliomatch-service/internal/domain"
	"github.com/helixir/bibliomatch-service/internal/providers"
)

const (
	// Name identifies the provider.
	Name = "google_books"

	// DefaultBaseURL is the Google Books API base URL.
	DefaultBaseURL = "https://www.googleapis.com/books/v1"

	// DefaultRateLimit is the default rate limit for requests per second.
	DefaultRateLimit = 5.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 5

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxResults is the API's per-request cap.
	DefaultMaxResults = 40

	// maxAuthors bounds the authors kept per volume.
	maxAuthors = 6
)

var nonISBN = regexp.MustCompile(`[^0-9Xx]`)

// Config holds configuration for the Google Books client.
type Config struct {
	BaseURL string

	// APIKey is optional; unauthenticated requests share a lower quota.
	APIKey string

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

// Client implements providers.Provider for Google Books.
type Client struct {
	config     Config
	httpClient *providers.HTTPClient
}

var _ providers.Provider = (*Client)(nil)

// New creates a Google Books client.
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

// Name implements providers.Provider.
func (c *Client) Name() string { return Name }

// Kind implements providers.Provider.
func (c *Client) Kind() domain.Kind { return domain.KindBook }

// IsEnabled implements providers.Provider.
func (c *Client) IsEnabled() bool { return c.config.Enabled }

// Lookup searches volumes. Title mode sends intitle:/inauthor: operators;
// identifier mode only runs for a 10 or 13 character ISBN.
func (c *Client) Lookup(ctx context.Context, params providers.LookupParams) ([]*domain.Record, error) {
	q := BuildQuery(params)
	if q == "" {
		return nil, nil
	}

	var resp VolumesResponse
	if err := c.httpClient.GetJSON(ctx, Name, c.buildSearchURL(q, params), &resp); err != nil {
		return nil, err
	}

	records := make([]*domain.Record, 0, len(resp.Items))
	for i := range resp.Items {
		records = append(records, volumeToRecord(&resp.Items[i]))
	}
	return records, nil
}

// BuildQuery returns the q parameter for params, or "" when the mode has nothing
// to search for.
func BuildQuery(params providers.LookupParams) string {
	switch params.Mode {
	case providers.ModeTitle:
		t := strings.TrimSpace(params.Title)
		if t == "" {
			return ""
		}
		q := "intitle:" + t
		if a := strings.TrimSpace(params.Author); a != "" {
			q += " inauthor:" + a
		}
		return q
	case providers.ModeIdentifier:
		isbn, ok := ISBN(params.Identifier)
		if !ok {
			return ""
		}
		return "isbn:" + isbn
	default:
		return strings.TrimSpace(params.Query)
	}
}

// ISBN strips everything but digits and X from id and reports whether the
// remainder has ISBN-10 or ISBN-13 length.
func ISBN(id string) (string, bool) {
	digits := nonISBN.ReplaceAllString(strings.TrimSpace(id), "")
	return digits, len(digits) == 10 || len(digits) == 13
}

func (c *Client) buildSearchURL(q string, params providers.LookupParams) string {
	v := url.Values{}
	v.Set("q", q)
	v.Set("maxResults", strconv.Itoa(providers.CapMaxResults(params.MaxResults, c.config.MaxResults)))
	v.Set("printType", "books")
	if params.Language != "" {
		v.Set("langRestrict", params.Language)
	}
	if c.config.APIKey != "" {
		v.Set("key", c.config.APIKey)
	}
	return c.config.BaseURL + "/volumes?" + v.Encode()
}

func volumeToRecord(v *Volume) *domain.Record {
	info := v.VolumeInfo

	authors := make([]domain.Author, 0, min(len(info.Authors), maxAuthors))
	for _, name := range info.Authors[:min(len(info.Authors), maxAuthors)] {
		if a, ok := domain.AuthorFromName(name); ok {
			authors = append(authors, a)
		}
	}

	r := &domain.Record{
		Authors:   authors,
		Title:     info.Title,
		Year:      prefix(info.PublishedDate, 4),
		Publisher: info.Publisher,
		Language:  info.Language,
		ISBN:      pickISBN(info.IndustryIdentifiers),
		Kind:      domain.KindBook,
		Source:    Name,
	}
	if info.PageCount > 0 {
		r.TotalPages = fmt.Sprintf("%d p.", info.PageCount)
	}
	return r
}

// pickISBN prefers ISBN_13 over ISBN_10.
func pickISBN(ids []IndustryIdentifier) string {
	var isbn10 string
	for _, id := range ids {
		switch id.Type {
		case "ISBN_13":
			return id.Identifier
		case "ISBN_10":
			isbn10 = id.Identifier
		}
	}
	return isbn10
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
