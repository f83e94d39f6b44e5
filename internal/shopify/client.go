// Package shopify reads products from the Shopify Admin REST API.
package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	apperrors "product-discovery/internal/common/errors"
	httpclient "product-discovery/internal/common/http"
	"product-discovery/internal/common/logger"
)

const (
	accessTokenHeader = "X-Shopify-Access-Token"
	defaultAPIVersion = "2024-01"
	maxPageSize       = 250
)

var nextLinkPattern = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

type Config struct {
	StoreDomain string
	AccessToken string
	APIVersion  string
	PageSize    int
	Timeout     time.Duration
	MaxRetries  int
}

type Client struct {
	config *Config
	http   *httpclient.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger, opts ...httpclient.Option) *Client {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	opts = append([]httpclient.Option{httpclient.WithRetries(config.MaxRetries)}, opts...)
	return &Client{
		config: config,
		http:   httpclient.NewClient(config.Timeout, opts...),
		logger: log.With(map[string]interface{}{"component": "shopify", "store": config.StoreDomain}),
	}
}

// ProductsURL is the first page of the product listing.
func (c *Client) ProductsURL() string {
	base := strings.TrimRight(c.config.StoreDomain, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	version := c.config.APIVersion
	if version == "" {
		version = defaultAPIVersion
	}
	size := c.config.PageSize
	if size <= 0 || size > maxPageSize {
		size = maxPageSize
	}
	return fmt.Sprintf("%s/admin/api/%s/products.json?limit=%d", base, version, size)
}

// FetchAll walks every page following the Link rel="next" header.
func (c *Client) FetchAll(ctx context.Context) ([]Product, error) {
	var all []Product
	next := c.ProductsURL()

	for page := 1; next != ""; page++ {
		products, link, err := c.fetchPage(ctx, next)
		if err != nil {
			return nil, apperrors.NewShopifyFetchFailedError(err).WithMetadata("page", page)
		}
		all = append(all, products...)

		c.logger.Info("fetched product page", map[string]interface{}{
			"page":     page,
			"products": len(products),
			"total":    len(all),
		})
		next = NextPageURL(link)
	}

	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, url string) ([]Product, string, error) {
	resp, err := c.http.DoWithRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set(accessTokenHeader, c.config.AccessToken)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var page struct {
		Products []Product `json:"products"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, "", fmt.Errorf("decode products: %w", err)
	}
	return page.Products, resp.Header.Get("Link"), nil
}

// NextPageURL extracts the rel="next" target of a Link header.
func NextPageURL(link string) string {
	if m := nextLinkPattern.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	return ""
}
