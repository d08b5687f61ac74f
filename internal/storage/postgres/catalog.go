package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const productColumns = `id, name, brand, price, old_price, capacity, type, image_url, stock, is_active, created_at`

type catalogRepository struct {
	db *sql.DB
}

// CatalogRepository — каталог над таблицей products с операцией наполнения.
type CatalogRepository interface {
	domain.Catalog
	Insert(ctx context.Context, p domain.Product) error
	Facets(ctx context.Context) (catalog.Facets, error)
}

// NewCatalog создаёт PostgreSQL-реализацию каталога.
func NewCatalog(store *Store) CatalogRepository {
	return &catalogRepository{db: store.DB()}
}

// ErrProductExists возвращается при вставке товара с уже занятым ID.
var ErrProductExists = errors.New("product already exists")

func (r *catalogRepository) Insert(ctx context.Context, p domain.Product) error {
	if errs := p.Validate(); len(errs) > 0 {
		return errs[0]
	}

	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	var oldPrice *string
	if p.OldPrice != nil {
		v := p.OldPrice.String()
		oldPrice = &v
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1,$2,$3,$4::numeric,$5::numeric,$6,$7,$8,$9,$10,$11)
	`, p.ID, p.Name, p.Brand, p.Price.String(), oldPrice, p.Capacity, p.Type, p.ImageURL, p.Stock, p.IsActive, createdAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrProductExists
		}
		return fmt.Errorf("insert product %s: %w", p.ID, err)
	}
	return nil
}

func (r *catalogRepository) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1 AND is_active
	`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

func (r *catalogRepository) ListProducts(ctx context.Context, filter domain.ProductFilter) (domain.ProductPage, error) {
	f := catalog.Normalize(filter)
	where, args := productWhere(f)

	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	page := domain.ProductPage{Page: f.Page, PageSize: f.PageSize, Items: []domain.Product{}}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE `+where, args...).Scan(&page.Total); err != nil {
		return domain.ProductPage{}, fmt.Errorf("count products: %w", err)
	}

	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d
	`, productColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return domain.ProductPage{}, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return domain.ProductPage{}, fmt.Errorf("scan product: %w", err)
		}
		page.Items = append(page.Items, p)
	}
	if err := rows.Err(); err != nil {
		return domain.ProductPage{}, fmt.Errorf("iterate products: %w", err)
	}
	return page, nil
}

// Facets возвращает различные значения фильтров по активным товарам.
func (r *catalogRepository) Facets(ctx context.Context) (catalog.Facets, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	var facets catalog.Facets
	targets := []struct {
		column string
		dest   *[]string
	}{
		{"brand", &facets.Brands},
		{"capacity", &facets.Capacities},
		{"type", &facets.Types},
	}
	for _, target := range targets {
		values, err := r.distinct(ctx, target.column)
		if err != nil {
			return catalog.Facets{}, err
		}
		*target.dest = values
	}
	return facets, nil
}

func (r *catalogRepository) distinct(ctx context.Context, column string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT DISTINCT %[1]s FROM products
		WHERE is_active AND %[1]s <> ''
		ORDER BY %[1]s
	`, column))
	if err != nil {
		return nil, fmt.Errorf("query %s facets: %w", column, err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s facet: %w", column, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s facets: %w", column, err)
	}
	return values, nil
}

// productWhere строит условие выборки; inverter-фильтр повторяет catalog.IsInverter.
func productWhere(f domain.ProductFilter) (string, []any) {
	clauses := []string{"is_active"}
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if f.Brand != "" {
		add("brand = $%d", f.Brand)
	}
	if f.Capacity != "" {
		add("capacity = $%d", f.Capacity)
	}
	if f.Type != "" {
		add("type = $%d", f.Type)
	}

	const inverterExpr = `(name ILIKE '%انفرتر%' OR name ILIKE '%inverter%')`
	switch f.Inverter {
	case domain.InverterOnly:
		clauses = append(clauses, inverterExpr)
	case domain.InverterRegular:
		clauses = append(clauses, "NOT "+inverterExpr)
	}
	return strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p        domain.Product
		price    string
		oldPrice sql.NullString
		stock    sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Brand, &price, &oldPrice, &p.Capacity, &p.Type, &p.ImageURL, &stock, &p.IsActive, &p.CreatedAt); err != nil {
		return domain.Product{}, err
	}

	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("parse price of %s: %w", p.ID, err)
	}
	p.Price = parsed
	if oldPrice.Valid {
		old, err := decimal.NewFromString(oldPrice.String)
		if err != nil {
			return domain.Product{}, fmt.Errorf("parse old_price of %s: %w", p.ID, err)
		}
		p.OldPrice = &old
	}
	if stock.Valid {
		p.Stock = domain.StockOf(int(stock.Int64))
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

var _ domain.Catalog = (*catalogRepository)(nil)
