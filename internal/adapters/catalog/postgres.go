package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/lib/pq"

	apperrors "product-discovery/internal/common/errors"
	"product-discovery/internal/common/logger"
	"product-discovery/internal/models"
)

const BackendPostgres = "postgres"

const maxSearchTerms = 8

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

var ErrInvalidTable = errors.New("INVALID_TABLE_NAME")

// Postgres fetches candidates from a product table.
type Postgres struct {
	db     *sql.DB
	table  string
	logger logger.Logger
}

func NewPostgres(db *sql.DB, table string, log logger.Logger) (*Postgres, error) {
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Postgres{
		db:     db,
		table:  table,
		logger: log.With(map[string]interface{}{"catalog": BackendPostgres, "table": table}),
	}, nil
}

func (p *Postgres) FetchCandidates(ctx context.Context, q models.QueryDescriptor, limit int) ([]models.Candidate, error) {
	query, args := buildSelect(p.table, q, limit)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperrors.NewCatalogTimeoutError(BackendPostgres)
		}
		return nil, apperrors.NewDatabaseConnectionFailedError(err)
	}
	defer rows.Close()

	var out []models.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, apperrors.NewCatalogUnavailableError(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewCatalogUnavailableError(err)
	}

	p.logger.Debug("catalog query completed", map[string]interface{}{
		"rows":  len(out),
		"limit": limit,
	})
	return out, nil
}

const selectColumns = `id, title, description, tags, vendor, product_type, price, currency, price_as_of, images, in_stock, enrichment`

func buildSelect(table string, q models.QueryDescriptor, limit int) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(q.IDs) > 0 {
		where = append(where, "id = ANY("+arg(pq.Array(q.IDs))+")")
	} else if terms := searchTerms(q.Text); len(terms) > 0 {
		var clauses []string
		for _, term := range terms {
			p := arg("%" + term + "%")
			clauses = append(clauses, fmt.Sprintf("(title ILIKE %s OR description ILIKE %s OR array_to_string(tags, ' ') ILIKE %s)", p, p, p))
		}
		where = append(where, "("+strings.Join(clauses, " OR ")+")")
	}

	if q.MinPrice != nil {
		where = append(where, "(price IS NULL OR price >= "+arg(*q.MinPrice)+")")
	}
	if q.MaxPrice != nil {
		where = append(where, "(price IS NULL OR price <= "+arg(*q.MaxPrice)+")")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", selectColumns, table)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	if q.Category != "" {
		fmt.Fprintf(&b, " ORDER BY (product_type ILIKE %s) DESC, id", arg("%"+q.Category+"%"))
	} else {
		b.WriteString(" ORDER BY id")
	}
	fmt.Fprintf(&b, " LIMIT %s", arg(limit))

	return b.String(), args
}

// searchTerms keeps the distinct words worth matching on.
func searchTerms(text string) []string {
	seen := map[string]bool{}
	var out []string
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	}) {
		if len([]rune(w)) < 3 || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) == maxSearchTerms {
			break
		}
	}
	return out
}

func scanCandidate(rows *sql.Rows) (models.Candidate, error) {
	var (
		c          models.Candidate
		desc       sql.NullString
		tags       pq.StringArray
		vendor     sql.NullString
		ptype      sql.NullString
		price      sql.NullFloat64
		currency   sql.NullString
		priceAsOf  sql.NullTime
		images     pq.StringArray
		inStock    sql.NullBool
		enrichment sql.NullString
	)

	if err := rows.Scan(&c.ID, &c.Title, &desc, &tags, &vendor, &ptype, &price, &currency, &priceAsOf, &images, &inStock, &enrichment); err != nil {
		return c, fmt.Errorf("scan product row: %w", err)
	}

	c.Description = desc.String
	c.Tags = []string(tags)
	c.Vendor = vendor.String
	c.ProductType = ptype.String
	c.Currency = currency.String
	c.Images = []string(images)
	c.Enrichment = enrichment.String
	if price.Valid {
		v := price.Float64
		c.Price = &v
	}
	if priceAsOf.Valid {
		t := priceAsOf.Time
		c.PriceAsOf = &t
	}
	if inStock.Valid {
		v := inStock.Bool
		c.InStock = &v
	}
	return c, nil
}
