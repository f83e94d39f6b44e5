package shopify

import (
	"strconv"
	"strings"
	"time"

	"product-discovery/internal/models"
)

type Product struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	BodyHTML    string    `json:"body_html"`
	Vendor      string    `json:"vendor"`
	ProductType string    `json:"product_type"`
	Handle      string    `json:"handle"`
	Status      string    `json:"status"`
	Tags        string    `json:"tags"`
	Variants    []Variant `json:"variants"`
	Images      []Image   `json:"images"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Variant struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	Price             string `json:"price"`
	SKU               string `json:"sku"`
	InventoryQuantity *int   `json:"inventory_quantity"`
}

type Image struct {
	Src string `json:"src"`
}

// ToCandidate maps a product to the catalog shape. The price comes from the
// first variant. Stock is unknown unless some variant reports a quantity.
func ToCandidate(p Product, currency string) models.Candidate {
	c := models.Candidate{
		ID:          strconv.FormatInt(p.ID, 10),
		Title:       strings.TrimSpace(p.Title),
		Description: p.BodyHTML,
		Vendor:      strings.TrimSpace(p.Vendor),
		ProductType: strings.TrimSpace(p.ProductType),
		Tags:        splitTags(p.Tags),
		Images:      []string{},
	}

	if len(p.Variants) > 0 {
		if v, err := strconv.ParseFloat(strings.TrimSpace(p.Variants[0].Price), 64); err == nil && v >= 0 {
			c.Price = &v
			c.Currency = currency
			if !p.UpdatedAt.IsZero() {
				asOf := p.UpdatedAt.UTC()
				c.PriceAsOf = &asOf
			}
		}
	}

	for _, v := range p.Variants {
		if v.InventoryQuantity == nil {
			continue
		}
		inStock := *v.InventoryQuantity > 0
		if c.InStock == nil || inStock {
			c.InStock = &inStock
		}
		if inStock {
			break
		}
	}

	for _, img := range p.Images {
		if img.Src != "" {
			c.Images = append(c.Images, img.Src)
		}
	}
	return c
}

func splitTags(tags string) []string {
	out := []string{}
	for _, t := range strings.Split(tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
