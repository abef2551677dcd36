package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/httputil"
)

// GDELT DOC 2.0 defaults.
const (
	DefaultGDELTURL   = "https://api.gdeltproject.org/api/v2/doc/doc"
	DefaultQuery      = "Iran currency exchange rate dollar sanctions"
	DefaultMaxRecords = 10
	MaxRecordsLimit   = 250
)

// GDELTConfig configures a GDELTClient.
type GDELTConfig struct {
	BaseURL    string
	Query      string
	MaxRecords int
	Retry      httputil.RetryConfig
}

// GDELTClient queries the GDELT DOC API in ArtList mode for one day at a time.
type GDELTClient struct {
	cfg    GDELTConfig
	http   *http.Client
	logger *zap.Logger
}

// NewGDELTClient creates a client. Zero config fields take defaults.
// The per-request deadline comes from the caller's context.
func NewGDELTClient(cfg GDELTConfig, client *http.Client, logger *zap.Logger) *GDELTClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGDELTURL
	}
	if cfg.Query == "" {
		cfg.Query = DefaultQuery
	}
	if cfg.MaxRecords <= 0 {
		cfg.MaxRecords = DefaultMaxRecords
	}
	if cfg.MaxRecords > MaxRecordsLimit {
		cfg.MaxRecords = MaxRecordsLimit
	}
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GDELTClient{cfg: cfg, http: client, logger: logger.Named("gdelt")}
}

var _ Fetcher = (*GDELTClient)(nil)

type artListResponse struct {
	Articles []struct {
		URL      string `json:"url"`
		Title    string `json:"title"`
		Domain   string `json:"domain"`
		SeenDate string `json:"seendate"`
		Language string `json:"language"`
	} `json:"articles"`
}

// RequestURL returns the ArtList query URL covering date (00:00:00 to 23:59:59).
func (c *GDELTClient) RequestURL(date time.Time) string {
	day := domain.Day(date).Format("20060102")
	q := url.Values{}
	q.Set("query", c.cfg.Query)
	q.Set("mode", "ArtList")
	q.Set("format", "json")
	q.Set("maxrecords", strconv.Itoa(c.cfg.MaxRecords))
	q.Set("sort", "DateDesc")
	q.Set("startdatetime", day+"000000")
	q.Set("enddatetime", day+"235959")
	return c.cfg.BaseURL + "?" + q.Encode()
}

// Fetch returns articles for date in API order.
// An empty body or a body without articles yields no records.
func (c *GDELTClient) Fetch(ctx context.Context, date time.Time) ([]domain.RawArticle, error) {
	reqURL := c.RequestURL(date)

	resp, err := httputil.Do(ctx, c.http, c.cfg.Retry, c.logger, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("gdelt request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gdelt HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gdelt response: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}

	var parsed artListResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode gdelt response: %w", err)
	}

	out := make([]domain.RawArticle, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		out = append(out, domain.RawArticle{Title: a.Title, URL: a.URL, Domain: a.Domain})
	}
	c.logger.Debug("fetched articles", zap.String("date", domain.Day(date).Format(domain.DateLayout)), zap.Int("count", len(out)))
	return out, nil
}
