package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"feedforge/internal/domain"
)

// ProductRepository is the read-only catalog store view the feed engine
// consumes. Products are returned in storage order so feed output is
// stable across re-runs of an unchanged catalog.
type ProductRepository interface {
	ListActiveByBusiness(ctx context.Context, businessID string) ([]*domain.Product, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// ListActiveByBusiness loads every active product of a business together
// with its variants and gallery images.
func (r *productRepository) ListActiveByBusiness(ctx context.Context, businessID string) ([]*domain.Product, error) {
	query := `
		SELECT id, business_id, title, description, product_type, vendor, brand, handle,
		       status, tags, featured_image, gender, age_group, video_link_url,
		       google_category_id, google_category_name, created_at, updated_at
		FROM products
		WHERE business_id = $1 AND status = 'active'
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	byID := map[string]*domain.Product{}
	for rows.Next() {
		product := &domain.Product{}
		var tags []byte
		err := rows.Scan(
			&product.ID,
			&product.BusinessID,
			&product.Title,
			&product.Description,
			&product.ProductType,
			&product.Vendor,
			&product.Brand,
			&product.Handle,
			&product.Status,
			&tags,
			&product.FeaturedImage,
			&product.Gender,
			&product.AgeGroup,
			&product.VideoLinkURL,
			&product.GoogleCategoryID,
			&product.GoogleCategoryName,
			&product.CreatedAt,
			&product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if len(tags) > 0 {
			if err := json.Unmarshal(tags, &product.Tags); err != nil {
				return nil, fmt.Errorf("failed to decode tags for product %s: %w", product.ID, err)
			}
		}
		products = append(products, product)
		byID[product.ID] = product
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	if len(products) == 0 {
		return products, nil
	}

	if err := r.loadVariants(ctx, businessID, byID); err != nil {
		return nil, err
	}
	if err := r.loadImages(ctx, businessID, byID); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepository) loadVariants(ctx context.Context, businessID string, byID map[string]*domain.Product) error {
	query := `
		SELECT v.product_id, v.id, v.title, v.price, v.compare_at_price, v.image_url, v.position
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE p.business_id = $1 AND p.status = 'active'
		ORDER BY v.product_id, v.position
	`

	rows, err := r.db.QueryContext(ctx, query, businessID)
	if err != nil {
		return fmt.Errorf("failed to list variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID string
			variant   domain.Variant
			price     sql.NullFloat64
			compareAt sql.NullFloat64
		)
		err := rows.Scan(&productID, &variant.ID, &variant.Title, &price, &compareAt, &variant.ImageURL, &variant.Position)
		if err != nil {
			return fmt.Errorf("failed to scan variant: %w", err)
		}
		if price.Valid {
			v := price.Float64
			variant.Price = &v
		}
		if compareAt.Valid {
			v := compareAt.Float64
			variant.CompareAtPrice = &v
		}
		if product, ok := byID[productID]; ok {
			product.Variants = append(product.Variants, variant)
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating variants: %w", err)
	}
	return nil
}

func (r *productRepository) loadImages(ctx context.Context, businessID string, byID map[string]*domain.Product) error {
	query := `
		SELECT i.product_id, i.url, i.position
		FROM product_images i
		JOIN products p ON p.id = i.product_id
		WHERE p.business_id = $1 AND p.status = 'active'
		ORDER BY i.product_id, i.position
	`

	rows, err := r.db.QueryContext(ctx, query, businessID)
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID string
			image     domain.Image
		)
		if err := rows.Scan(&productID, &image.URL, &image.Position); err != nil {
			return fmt.Errorf("failed to scan image: %w", err)
		}
		if product, ok := byID[productID]; ok {
			product.Images = append(product.Images, image)
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating images: %w", err)
	}
	return nil
}
