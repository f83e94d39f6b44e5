// Package catalog holds the Catalog implementations backed by the product
// search index and the product table.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "product-discovery/internal/common/errors"
	"product-discovery/internal/common/logger"
	"product-discovery/internal/models"
)

const BackendElasticsearch = "elasticsearch"

var searchFields = []string{"title^3", "tags^2", "product_type^2", "vendor", "description"}

// Elasticsearch fetches candidates from an index whose documents carry the
// Candidate JSON shape.
type Elasticsearch struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewElasticsearch(client *elasticsearch.Client, index string, log logger.Logger) *Elasticsearch {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Elasticsearch{
		client: client,
		index:  index,
		logger: log.With(map[string]interface{}{"catalog": BackendElasticsearch, "index": index}),
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string           `json:"_id"`
			Source models.Candidate `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (e *Elasticsearch) FetchCandidates(ctx context.Context, q models.QueryDescriptor, limit int) ([]models.Candidate, error) {
	body, err := json.Marshal(buildSearchQuery(q))
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	req := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  bytes.NewReader(body),
		Size:  &limit,
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperrors.NewCatalogTimeoutError(BackendElasticsearch)
		}
		return nil, apperrors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewCatalogUnavailableError(fmt.Errorf("search %s: %s", e.index, res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewCatalogUnavailableError(fmt.Errorf("decode search response: %w", err))
	}

	out := make([]models.Candidate, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		c := hit.Source
		if c.ID == "" {
			c.ID = hit.ID
		}
		out = append(out, c)
	}

	e.logger.Debug("catalog search completed", map[string]interface{}{
		"hits":  len(out),
		"limit": limit,
	})
	return out, nil
}

// buildSearchQuery turns a descriptor into a bool query. An ID lookup
// ignores the free text. Price bounds keep documents without a price.
func buildSearchQuery(q models.QueryDescriptor) map[string]interface{} {
	must := []interface{}{}
	filter := []interface{}{}
	should := []interface{}{}

	switch {
	case len(q.IDs) > 0:
		filter = append(filter, map[string]interface{}{
			"ids": map[string]interface{}{"values": q.IDs},
		})
	case q.Text != "":
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Text,
				"fields": searchFields,
				"type":   "best_fields",
			},
		})
	default:
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	if q.MinPrice != nil || q.MaxPrice != nil {
		bounds := map[string]interface{}{}
		if q.MinPrice != nil {
			bounds["gte"] = *q.MinPrice
		}
		if q.MaxPrice != nil {
			bounds["lte"] = *q.MaxPrice
		}
		filter = append(filter, map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []interface{}{
					map[string]interface{}{"range": map[string]interface{}{"price": bounds}},
					map[string]interface{}{"bool": map[string]interface{}{
						"must_not": map[string]interface{}{"exists": map[string]interface{}{"field": "price"}},
					}},
				},
				"minimum_should_match": 1,
			},
		})
	}

	if q.Category != "" {
		should = append(should, map[string]interface{}{
			"match": map[string]interface{}{
				"product_type": map[string]interface{}{"query": q.Category, "boost": 2},
			},
		})
	}

	boolQuery := map[string]interface{}{"must": must}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}
	if len(should) > 0 {
		boolQuery["should"] = should
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
	}
}
