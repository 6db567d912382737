package products

import (
	"encoding/json"
	"strings"
	"time"
)

type Product struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Slug            string          `json:"slug"`
	ImageURL        *string         `json:"image_url,omitempty"`
	PreviewImageURL *string         `json:"preview_image_url,omitempty"`
	Featured        bool            `json:"featured"`
	LikesCount      *int            `json:"likes_count,omitempty"`
	Specifications  json.RawMessage `json:"specifications,omitempty"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type ProductVariant struct {
	ID            int64     `json:"id"`
	ProductID     int64     `json:"product_id"`
	VariantName   string    `json:"variant_name"`
	VariantNameSw *string   `json:"variant_name_sw,omitempty"`
	Quantity      string    `json:"quantity"`
	ImageURL      *string   `json:"image_url,omitempty"`
	DisplayOrder  int       `json:"display_order"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Lightweight “card” for public list pages
type ProductCard struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	Slug            string  `json:"slug"`
	ImageURL        *string `json:"image_url,omitempty"`
	PreviewImageURL *string `json:"preview_image_url,omitempty"`
	Featured        bool    `json:"featured"`
	LikesCount      *int    `json:"likes_count,omitempty"`
}

type ProductDetail struct {
	Product  *Product          `json:"product"`
	Variants []*ProductVariant `json:"variants"`
}

// AdminProduct carries the full row plus its variants for the admin list.
type AdminProduct struct {
	Product
	Variants []*ProductVariant `json:"variants"`
}

type CategoryCount struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Display names for the known category slugs; unknown slugs fall back to a
// capitalized form of the slug itself.
var categoryDisplayNames = map[string]string{
	"vinyl":      "Vinyl",
	"wrapping":   "Wrapping",
	"reflective": "Reflective",
	"decorative": "Decorative",
	"automotive": "Automotive",
	"transfer":   "Transfer",
	"custom":     "Custom",
	"tools":      "Tools",
}

func displayCategoryName(slug string) string {
	if name, ok := categoryDisplayNames[slug]; ok {
		return name
	}
	if slug == "" {
		return slug
	}
	return strings.ToUpper(slug[:1]) + slug[1:]
}
