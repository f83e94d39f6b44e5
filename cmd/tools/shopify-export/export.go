package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"

	"product-discovery/internal/common/config"
	"product-discovery/internal/common/logger"
	"product-discovery/internal/models"
	"product-discovery/internal/shopify"
)

const (
	formatRaw        = "raw"
	formatCandidates = "candidates"
)

var ErrMissingCredentials = errors.New("shopify store domain and access token are required (SHOPIFY_STORE_DOMAIN, SHOPIFY_ACCESS_TOKEN)")

type exportOptions struct {
	StoreDomain string
	AccessToken string
	APIVersion  string
	PageSize    int
	TimeoutMs   int
	Output      string
	Format      string
	Currency    string
}

func runExport(ctx context.Context, opts exportOptions, out io.Writer) error {
	if opts.StoreDomain == "" || opts.AccessToken == "" {
		return ErrMissingCredentials
	}
	if opts.Format != formatRaw && opts.Format != formatCandidates {
		return fmt.Errorf("unknown format %q", opts.Format)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	client := shopify.NewClient(&shopify.Config{
		StoreDomain: opts.StoreDomain,
		AccessToken: opts.AccessToken,
		APIVersion:  opts.APIVersion,
		PageSize:    opts.PageSize,
		Timeout:     config.GetDuration(opts.TimeoutMs),
		MaxRetries:  3,
	}, logger.NewStructured("info", "console"))

	products, err := client.FetchAll(ctx)
	if err != nil {
		return err
	}

	var payload interface{} = products
	if opts.Format == formatCandidates {
		candidates := make([]models.Candidate, 0, len(products))
		for _, p := range products {
			candidates = append(candidates, shopify.ToCandidate(p, opts.Currency))
		}
		payload = candidates
	}

	data, err := json.MarshalIndent(payload, "", "    ")
	if err != nil {
		return fmt.Errorf("encode products: %w", err)
	}
	if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.Output, err)
	}

	fmt.Fprintf(out, "Saved %s products to %s (%s)\n",
		humanize.Comma(int64(len(products))), opts.Output, humanize.Bytes(uint64(len(data))))
	return nil
}
