package main

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strings"

	"github.com/africanuspanga/africa-stickers-website/internal/domain/products"
	"github.com/africanuspanga/africa-stickers-website/internal/params"
	"github.com/africanuspanga/africa-stickers-website/internal/specs"

	"github.com/go-chi/chi/v5"
)

func generateSlug(name string) string {
	// Convert to lowercase
	slug := strings.ToLower(name)

	// Replace spaces and special characters
	slug = regexp.MustCompile(`[^a-z0-9]+`).ReplaceAllString(slug, "-")
	slug = regexp.MustCompile(`^-|-$`).ReplaceAllString(slug, "")

	return slug
}

func isValidSlug(slug string) bool {
	// Alphanumeric and hyphens only, 3-50 chars
	return regexp.MustCompile(`^[a-z0-9-]{3,50}$`).MatchString(slug)
}

// helper: sniff first 512 bytes and reset reader
func sniffMIME(file multipart.File) (string, error) {
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read: %w", err)
	}
	mime := http.DetectContentType(buf[:n])

	// reset so later reads start from byte 0
	if seeker, ok := file.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("seek reset: %w", err)
		}
	}
	return mime, nil
}

// listProductsHandler godoc
//
//	@Summary		List products
//	@Description	Returns active product cards, optionally filtered by category or featured flag
//	@Tags			products
//	@Produce		json
//	@Param			category	query	string	false	"category slug filter"
//	@Param			featured	query	bool	false	"only featured products"
//	@Param			page		query	int		false	"page number"
//	@Param			limit		query	int		false	"items per page"
//	@Success		200	{object}	map[string]any
//	@Router			/products [get]
func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	pg := params.ParsePagination(q)

	category := strings.TrimSpace(q.Get("category"))
	featuredOnly := strings.EqualFold(strings.TrimSpace(q.Get("featured")), "true")

	items, total, err := app.store.Products.ListProductCards(ctx, category, featuredOnly, pg.Limit, pg.Offset)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("list products: %w", err))
		return
	}
	pg.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"products":   items,
		"pagination": pg,
		"filters": map[string]any{
			"category": category,
			"featured": featuredOnly,
		},
	})
}

// listCategoriesHandler godoc
//
//	@Summary	List categories with product counts
//	@Tags		products
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Router		/products/categories [get]
func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	counts, err := app.store.Products.CountByCategory(r.Context())
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("list categories: %w", err))
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{"categories": counts})
}

// getProductDetailHandler godoc
//
//	@Summary		Product detail
//	@Description	Returns the product, its variants, and its specification list resolved into label/value rows
//	@Tags			products
//	@Produce		json
//	@Param			slug	path		string	true	"product slug"
//	@Success		200		{object}	map[string]any
//	@Failure		404		{object}	map[string]any
//	@Router			/products/{slug} [get]
func (app *application) getProductDetailHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")
	if strings.TrimSpace(slug) == "" {
		app.badRequestResponse(w, r, fmt.Errorf("slug is required"))
		return
	}

	detail, err := app.store.Products.GetProductDetailBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, products.ErrProductNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}
	if !detail.Product.IsActive {
		app.notFoundResponse(w, r, fmt.Errorf("product not found"))
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"product":        detail.Product,
		"variants":       detail.Variants,
		"specifications": specs.Normalize(detail.Product.Specifications, specs.Options{}),
	})
}
