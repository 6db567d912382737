package products

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("product variant not found")
	ErrDuplicateSlug   = errors.New("slug already exists")
)

// Store is the data access abstraction for the catalog.
// Implemented by Repository (which uses pgxpool.Pool).
type Store interface {
	// Transaction helper
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error

	// Products
	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	GetProductByID(ctx context.Context, id int64) (*Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*Product, error)
	GetProductDetailBySlug(ctx context.Context, slug string) (*ProductDetail, error)
	ListProductCards(ctx context.Context, category string, featuredOnly bool, limit, offset int) ([]*ProductCard, int, error)
	ListAdminProducts(ctx context.Context, limit, offset int) ([]*AdminProduct, int, error)
	UpdateProduct(ctx context.Context, p *Product) (*Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	SetProductImage(ctx context.Context, id int64, url string, preview bool) error
	CountByCategory(ctx context.Context) ([]*CategoryCount, error)
	AdjustLikes(ctx context.Context, id int64, delta, seed int) (int, error)

	// Variants
	CreateVariant(ctx context.Context, v *ProductVariant) (*ProductVariant, error)
	GetVariantByID(ctx context.Context, id int64) (*ProductVariant, error)
	ListVariantsByProduct(ctx context.Context, productID int64) ([]*ProductVariant, error)
	UpdateVariant(ctx context.Context, v *ProductVariant) (*ProductVariant, error)
	DeleteVariant(ctx context.Context, productID, variantID int64) error
	SetVariantImage(ctx context.Context, productID, variantID int64, url string) error
	ReorderVariants(ctx context.Context, productID int64, orderedIDs []int64) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

// ------------------------------------
// Transaction helper
// ------------------------------------
func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			log.Printf("warning: rollback failed: %v", err)
		}
	}()

	if err := fn(tx); err != nil {
		return fmt.Errorf("tx fn: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

const productColumns = `id, name, description, category, slug, image_url, preview_image_url,
	featured, likes_count, specifications, is_active, created_at, updated_at`

func scanProduct(row pgx.Row, p *Product) error {
	return row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Category, &p.Slug,
		&p.ImageURL, &p.PreviewImageURL, &p.Featured, &p.LikesCount,
		&p.Specifications, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
}

// ------------------------------------
// Products
// ------------------------------------
func (r *Repository) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	query := `
		INSERT INTO products (name, description, category, slug, image_url, preview_image_url, featured, specifications, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + productColumns + `;
	`
	specs := p.Specifications
	if len(specs) == 0 {
		specs = []byte(`{}`)
	}
	row := r.db.QueryRow(ctx, query,
		p.Name, p.Description, p.Category, p.Slug,
		p.ImageURL, p.PreviewImageURL, p.Featured, specs, p.IsActive,
	)
	if err := scanProduct(row, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func (r *Repository) GetProductByID(ctx context.Context, id int64) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1;`
	p := &Product{}
	if err := scanProduct(r.db.QueryRow(ctx, query, id), p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *Repository) GetProductBySlug(ctx context.Context, slug string) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE slug = $1;`
	p := &Product{}
	if err := scanProduct(r.db.QueryRow(ctx, query, slug), p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product by slug: %w", err)
	}
	return p, nil
}

func (r *Repository) GetProductDetailBySlug(ctx context.Context, slug string) (*ProductDetail, error) {
	p, err := r.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	variants, err := r.ListVariantsByProduct(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &ProductDetail{Product: p, Variants: variants}, nil
}

// ListProductCards returns a page of active product cards and the true total.
// It uses COUNT(*) OVER() when rows exist; if the page is beyond the end it
// falls back to a separate COUNT(*) to avoid a false total.
func (r *Repository) ListProductCards(ctx context.Context, category string, featuredOnly bool, limit, offset int) ([]*ProductCard, int, error) {
	if limit <= 0 || limit > 60 {
		limit = 12
	}
	if offset < 0 {
		offset = 0
	}

	const q = `
		SELECT id, name, description, category, slug, image_url, preview_image_url,
		       featured, likes_count,
		       COUNT(*) OVER() AS total_count
		FROM products
		WHERE is_active
		  AND ($1 = '' OR category = $1)
		  AND (NOT $2 OR featured)
		ORDER BY id ASC
		LIMIT $3 OFFSET $4;
	`

	rows, err := r.db.Query(ctx, q, category, featuredOnly, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var (
		cards []*ProductCard
		total int
	)
	for rows.Next() {
		var c ProductCard
		var t int
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Description, &c.Category, &c.Slug,
			&c.ImageURL, &c.PreviewImageURL, &c.Featured, &c.LikesCount, &t,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product card: %w", err)
		}
		if total == 0 {
			total = t
		}
		cards = append(cards, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration: %w", err)
	}

	// Paged past the end: no rows, but the total may still be > 0.
	if len(cards) == 0 && offset > 0 {
		const countQ = `
			SELECT COUNT(*) FROM products
			WHERE is_active AND ($1 = '' OR category = $1) AND (NOT $2 OR featured);
		`
		if err := r.db.QueryRow(ctx, countQ, category, featuredOnly).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count products: %w", err)
		}
	}

	return cards, total, nil
}

// ListAdminProducts returns every product (drafts included) with its
// variants attached, the way the admin table renders them.
func (r *Repository) ListAdminProducts(ctx context.Context, limit, offset int) ([]*AdminProduct, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT ` + productColumns + `, COUNT(*) OVER() AS total_count
		FROM products
		ORDER BY id ASC
		LIMIT $1 OFFSET $2;
	`

	rows, err := r.db.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list admin products: %w", err)
	}
	defer rows.Close()

	var (
		items []*AdminProduct
		ids   []int64
		total int
	)
	for rows.Next() {
		var p AdminProduct
		var t int
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Category, &p.Slug,
			&p.ImageURL, &p.PreviewImageURL, &p.Featured, &p.LikesCount,
			&p.Specifications, &p.IsActive, &p.CreatedAt, &p.UpdatedAt, &t,
		); err != nil {
			return nil, 0, fmt.Errorf("scan admin product: %w", err)
		}
		if total == 0 {
			total = t
		}
		p.Variants = []*ProductVariant{}
		items = append(items, &p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration: %w", err)
	}

	if len(items) == 0 {
		if offset > 0 {
			if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products;`).Scan(&total); err != nil {
				return nil, 0, fmt.Errorf("count products: %w", err)
			}
		}
		return items, total, nil
	}

	const vq = `
		SELECT id, product_id, variant_name, variant_name_sw, quantity, image_url, display_order, created_at, updated_at
		FROM product_variants
		WHERE product_id = ANY($1)
		ORDER BY product_id ASC, display_order ASC, id ASC;
	`
	vrows, err := r.db.Query(ctx, vq, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("list variants: %w", err)
	}
	defer vrows.Close()

	byProduct := make(map[int64]*AdminProduct, len(items))
	for _, p := range items {
		byProduct[p.ID] = p
	}
	for vrows.Next() {
		var v ProductVariant
		if err := vrows.Scan(
			&v.ID, &v.ProductID, &v.VariantName, &v.VariantNameSw,
			&v.Quantity, &v.ImageURL, &v.DisplayOrder, &v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan variant: %w", err)
		}
		if p, ok := byProduct[v.ProductID]; ok {
			p.Variants = append(p.Variants, &v)
		}
	}
	if err := vrows.Err(); err != nil {
		return nil, 0, fmt.Errorf("variant rows iteration: %w", err)
	}

	return items, total, nil
}

func (r *Repository) UpdateProduct(ctx context.Context, p *Product) (*Product, error) {
	query := `
		UPDATE products
		SET
			name = $1,
			description = $2,
			category = $3,
			slug = $4,
			image_url = $5,
			preview_image_url = $6,
			featured = $7,
			specifications = $8,
			is_active = $9,
			updated_at = now()
		WHERE id = $10
		RETURNING ` + productColumns + `;
	`
	specs := p.Specifications
	if len(specs) == 0 {
		specs = []byte(`{}`)
	}
	updated := &Product{}
	row := r.db.QueryRow(ctx, query,
		p.Name, p.Description, p.Category, p.Slug,
		p.ImageURL, p.PreviewImageURL, p.Featured, specs, p.IsActive, p.ID,
	)
	if err := scanProduct(row, updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *Repository) SetProductImage(ctx context.Context, id int64, url string, preview bool) error {
	column := "image_url"
	if preview {
		column = "preview_image_url"
	}
	query := fmt.Sprintf(`UPDATE products SET %s = $1, updated_at = now() WHERE id = $2;`, column)
	tag, err := r.db.Exec(ctx, query, url, id)
	if err != nil {
		return fmt.Errorf("set product image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *Repository) CountByCategory(ctx context.Context) ([]*CategoryCount, error) {
	const q = `
		SELECT category, COUNT(*)
		FROM products
		WHERE is_active
		GROUP BY category
		ORDER BY category ASC;
	`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	defer rows.Close()

	var counts []*CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.ID, &c.Count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		c.Name = displayCategoryName(c.ID)
		counts = append(counts, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return counts, nil
}

// AdjustLikes applies a like/unlike delta and returns the authoritative
// counter. A NULL counter is first seeded with the given value, matching the
// fallback the product card shows before anyone has liked; the result never
// goes below zero.
func (r *Repository) AdjustLikes(ctx context.Context, id int64, delta, seed int) (int, error) {
	const q = `
		UPDATE products
		SET likes_count = GREATEST(0, COALESCE(likes_count, $2) + $3),
		    updated_at = now()
		WHERE id = $1
		RETURNING likes_count;
	`
	var count int
	if err := r.db.QueryRow(ctx, q, id, seed, delta).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, fmt.Errorf("adjust likes: %w", err)
	}
	return count, nil
}

// ------------------------------------
// Variants
// ------------------------------------

const variantColumns = `id, product_id, variant_name, variant_name_sw, quantity, image_url, display_order, created_at, updated_at`

func scanVariant(row pgx.Row, v *ProductVariant) error {
	return row.Scan(
		&v.ID, &v.ProductID, &v.VariantName, &v.VariantNameSw,
		&v.Quantity, &v.ImageURL, &v.DisplayOrder, &v.CreatedAt, &v.UpdatedAt,
	)
}

func (r *Repository) CreateVariant(ctx context.Context, v *ProductVariant) (*ProductVariant, error) {
	query := `
		INSERT INTO product_variants (product_id, variant_name, variant_name_sw, quantity, image_url, display_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + variantColumns + `;
	`
	row := r.db.QueryRow(ctx, query,
		v.ProductID, v.VariantName, v.VariantNameSw, v.Quantity, v.ImageURL, v.DisplayOrder,
	)
	if err := scanVariant(row, v); err != nil {
		return nil, fmt.Errorf("create variant: %w", err)
	}
	return v, nil
}

func (r *Repository) GetVariantByID(ctx context.Context, id int64) (*ProductVariant, error) {
	query := `SELECT ` + variantColumns + ` FROM product_variants WHERE id = $1;`
	v := &ProductVariant{}
	if err := scanVariant(r.db.QueryRow(ctx, query, id), v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVariantNotFound
		}
		return nil, fmt.Errorf("get variant: %w", err)
	}
	return v, nil
}

func (r *Repository) ListVariantsByProduct(ctx context.Context, productID int64) ([]*ProductVariant, error) {
	query := `
		SELECT ` + variantColumns + `
		FROM product_variants
		WHERE product_id = $1
		ORDER BY display_order ASC, id ASC;
	`
	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	variants := []*ProductVariant{}
	for rows.Next() {
		var v ProductVariant
		if err := scanVariant(rows, &v); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		variants = append(variants, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return variants, nil
}

func (r *Repository) UpdateVariant(ctx context.Context, v *ProductVariant) (*ProductVariant, error) {
	query := `
		UPDATE product_variants
		SET
			variant_name = $1,
			variant_name_sw = $2,
			quantity = $3,
			image_url = $4,
			display_order = $5,
			updated_at = now()
		WHERE id = $6 AND product_id = $7
		RETURNING ` + variantColumns + `;
	`
	updated := &ProductVariant{}
	row := r.db.QueryRow(ctx, query,
		v.VariantName, v.VariantNameSw, v.Quantity, v.ImageURL, v.DisplayOrder, v.ID, v.ProductID,
	)
	if err := scanVariant(row, updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVariantNotFound
		}
		return nil, fmt.Errorf("update variant: %w", err)
	}
	return updated, nil
}

func (r *Repository) DeleteVariant(ctx context.Context, productID, variantID int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM product_variants WHERE id = $1 AND product_id = $2;`,
		variantID, productID,
	)
	if err != nil {
		return fmt.Errorf("delete variant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVariantNotFound
	}
	return nil
}

func (r *Repository) SetVariantImage(ctx context.Context, productID, variantID int64, url string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE product_variants SET image_url = $1, updated_at = now() WHERE id = $2 AND product_id = $3;`,
		url, variantID, productID,
	)
	if err != nil {
		return fmt.Errorf("set variant image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVariantNotFound
	}
	return nil
}

// ReorderVariants rewrites display_order to match the given ID order.
// IDs not belonging to the product are ignored by the WHERE clause.
func (r *Repository) ReorderVariants(ctx context.Context, productID int64, orderedIDs []int64) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		for i, id := range orderedIDs {
			if _, err := tx.Exec(ctx,
				`UPDATE product_variants SET display_order = $1, updated_at = now() WHERE id = $2 AND product_id = $3;`,
				i, id, productID,
			); err != nil {
				return fmt.Errorf("reorder variant %d: %w", id, err)
			}
		}
		return nil
	})
}
