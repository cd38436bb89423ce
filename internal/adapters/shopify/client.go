// Package shopify reads open orders from the Shopify Admin REST API.
package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"farm-delivery-service/internal/domain"
	"farm-delivery-service/internal/platform/metrics"
	"farm-delivery-service/internal/platform/obs"
	"farm-delivery-service/internal/platform/resilience"
	"farm-delivery-service/internal/ports"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultAPIVersion = "2024-01"
	pageLimit         = 250
	maxPages          = 40
)

type Config struct {
	// Shop is the store domain (example.myshopify.com) or a full base URL.
	Shop        string
	AccessToken string
	APIVersion  string
	Timeout     time.Duration
}

// Client implements ports.OrderSource.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	version    string
	logger     *slog.Logger
	breaker    *resilience.Breaker
	now        func() time.Time
}

func NewClient(cfg Config, logger *slog.Logger, m *metrics.Metrics) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	base := strings.TrimRight(strings.TrimSpace(cfg.Shop), "/")
	if base != "" && !strings.Contains(base, "://") {
		base = "https://" + base
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    base,
		token:      strings.TrimSpace(cfg.AccessToken),
		version:    cfg.APIVersion,
		logger:     logger,
		breaker:    resilience.NewBreaker(resilience.DefaultBreakerConfig("shopify"), logger, m.BreakerState),
		now:        time.Now,
	}
}

// ListOrders fetches open orders created within the lookback window for every
// requested fulfillment status, following Link-header pagination.
// Orders returned by more than one status query appear once.
func (c *Client) ListOrders(ctx context.Context, q ports.OrderQuery) (_ []domain.Order, err error) {
	defer obs.Time(ctx, c.logger, "shopify.ListOrders")(&err)

	if c.baseURL == "" || c.token == "" {
		return nil, ports.ErrMissingCredentials
	}

	statuses := q.Statuses
	if len(statuses) == 0 {
		statuses = []string{"any"}
	}

	seen := make(map[string]struct{})
	var out []domain.Order
	for _, status := range statuses {
		next := c.firstPageURL(status, q.LookbackDays)
		for page := 0; next != ""; page++ {
			if page == maxPages {
				return nil, fmt.Errorf("list orders: more than %d pages for status %q", maxPages, status)
			}

			res, err := resilience.Do(c.breaker, func() (pageResult, error) {
				return c.fetchPage(ctx, next)
			}, countsAgainstBreaker)
			if err != nil {
				return nil, fmt.Errorf("list orders: %w", err)
			}

			for _, so := range res.orders {
				o := mapOrder(so)
				if _, dup := seen[o.ID]; dup {
					continue
				}
				seen[o.ID] = struct{}{}
				out = append(out, o)
			}
			next = res.next
		}
	}

	if c.logger != nil {
		c.logger.Info("shopify orders fetched", "count", len(out), "lookback_days", q.LookbackDays)
	}
	return out, nil
}

func (c *Client) firstPageURL(status string, lookbackDays int) string {
	v := url.Values{}
	v.Set("status", "open")
	v.Set("limit", fmt.Sprint(pageLimit))
	if status != "" && status != "any" {
		v.Set("fulfillment_status", status)
	}
	if lookbackDays > 0 {
		since := c.now().UTC().AddDate(0, 0, -lookbackDays)
		v.Set("created_at_min", since.Format(time.RFC3339))
	}
	return fmt.Sprintf("%s/admin/api/%s/orders.json?%s", c.baseURL, c.version, v.Encode())
}

type pageResult struct {
	orders []shopifyOrder
	next   string
}

type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("shopify status %d: %s", e.Code, e.Body)
}

func countsAgainstBreaker(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return !errors.Is(err, context.Canceled)
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (pageResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return pageResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pageResult{}, fmt.Errorf("fetch orders: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return pageResult{}, &statusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var decoded shopifyOrdersResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return pageResult{}, fmt.Errorf("decode orders response: %w", err)
	}

	return pageResult{orders: decoded.Orders, next: nextLink(resp.Header.Get("Link"))}, nil
}

// nextLink extracts the rel="next" target from a Link header.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		segs := strings.Split(part, ";")
		if len(segs) < 2 {
			continue
		}
		target := strings.TrimSpace(segs[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for _, p := range segs[1:] {
			if strings.ReplaceAll(strings.TrimSpace(p), " ", "") == `rel="next"` {
				return strings.Trim(target, "<>")
			}
		}
	}
	return ""
}
