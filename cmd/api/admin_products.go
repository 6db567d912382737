package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/africanuspanga/africa-stickers-website/internal/domain/products"
	"github.com/africanuspanga/africa-stickers-website/internal/params"
	"github.com/africanuspanga/africa-stickers-website/internal/specs"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

func (app *application) parseProductID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "productID")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid product ID: %s", idStr))
		return 0, false
	}
	return id, true
}

// adminListProductsHandler godoc
//
//	@Summary	List all products including drafts, with variants
//	@Tags		admin
//	@Produce	json
//	@Param		page	query		int	false	"page number"
//	@Param		limit	query		int	false	"items per page"
//	@Success	200		{object}	map[string]any
//	@Router		/admin/products [get]
func (app *application) adminListProductsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pg := params.ParsePagination(r.URL.Query())

	items, total, err := app.store.Products.ListAdminProducts(ctx, pg.Limit, pg.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	pg.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"products":   items,
		"pagination": pg,
	})
}

func (app *application) adminGetProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := app.parseProductID(w, r)
	if !ok {
		return
	}

	p, err := app.store.Products.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, products.ErrProductNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	variants, err := app.store.Products.ListVariantsByProduct(ctx, id)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"product":        p,
		"variants":       variants,
		"specifications": specs.Normalize(p.Specifications, specs.Options{}),
	})
}

type createProductPayload struct {
	Name           string       `json:"name" validate:"required,max=150"`
	Slug           string       `json:"slug" validate:"omitempty"`
	Description    string       `json:"description" validate:"required,max=5000"`
	Category       string       `json:"category" validate:"required,max=50"`
	Featured       bool         `json:"featured"`
	IsActive       bool         `json:"is_active"`
	Specifications []specs.Item `json:"specifications" validate:"omitempty,dive"`
}

// createProductHandler godoc
//
//	@Summary		Create a product
//	@Description	Specification rows are stored in the canonical items shape; blank rows are dropped
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		createProductPayload	true	"product"
//	@Success		201		{object}	map[string]any
//	@Failure		409		{object}	map[string]any
//	@Router			/admin/products [post]
func (app *application) createProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	var payload createProductPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	slug := strings.TrimSpace(payload.Slug)
	if slug == "" {
		slug = generateSlug(payload.Name)
	}
	if !isValidSlug(slug) {
		app.badRequestResponse(w, r, fmt.Errorf("invalid slug format"))
		return
	}

	p := &products.Product{
		Name:           strings.TrimSpace(payload.Name),
		Description:    payload.Description,
		Category:       payload.Category,
		Slug:           slug,
		Featured:       payload.Featured,
		IsActive:       payload.IsActive,
		Specifications: specs.BuildPayload(payload.Specifications),
	}

	created, err := app.store.Products.CreateProduct(ctx, p)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			app.conflictResponse(w, r, fmt.Errorf("product with slug '%s' already exists", slug))
			return
		}
		app.internalServerError(w, r, fmt.Errorf("create product: %w", err))
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/v1/admin/products/%d", created.ID))
	app.jsonResponse(w, http.StatusCreated, created)
}

type updateProductPayload struct {
	Name           *string      `json:"name" validate:"omitempty,max=150"`
	Slug           *string      `json:"slug"`
	Description    *string      `json:"description" validate:"omitempty,max=5000"`
	Category       *string      `json:"category" validate:"omitempty,max=50"`
	Featured       *bool        `json:"featured"`
	IsActive       *bool        `json:"is_active"`
	Specifications []specs.Item `json:"specifications" validate:"omitempty,dive"`
}

// updateProductHandler godoc
//
//	@Summary		Update a product
//	@Description	PATCH semantics; omitted fields are left untouched. Passing specifications replaces the whole list.
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			productID	path		int						true	"product ID"
//	@Param			payload		body		updateProductPayload	true	"fields to change"
//	@Success		200			{object}	map[string]any
//	@Failure		404			{object}	map[string]any
//	@Failure		409			{object}	map[string]any
//	@Router			/admin/products/{productID} [patch]
func (app *application) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	id, ok := app.parseProductID(w, r)
	if !ok {
		return
	}

	var payload updateProductPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	existing, err := app.store.Products.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, products.ErrProductNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	upd := *existing
	if payload.Name != nil {
		upd.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.Slug != nil {
		slug := strings.TrimSpace(*payload.Slug)
		if !isValidSlug(slug) {
			app.badRequestResponse(w, r, fmt.Errorf("invalid slug format"))
			return
		}
		upd.Slug = slug
	}
	if payload.Description != nil {
		upd.Description = *payload.Description
	}
	if payload.Category != nil {
		upd.Category = *payload.Category
	}
	if payload.Featured != nil {
		upd.Featured = *payload.Featured
	}
	if payload.IsActive != nil {
		upd.IsActive = *payload.IsActive
	}
	if payload.Specifications != nil {
		upd.Specifications = specs.BuildPayload(payload.Specifications)
	}

	updated, err := app.store.Products.UpdateProduct(ctx, &upd)
	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.Code == "23505":
			app.conflictResponse(w, r, fmt.Errorf("product with same slug already exists"))
		case errors.Is(err, products.ErrProductNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, fmt.Errorf("update product: %w", err))
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"message": "Product updated successfully",
		"product": updated,
	})
}

// deleteProductHandler godoc
//
//	@Summary	Delete a product and its images
//	@Tags		admin
//	@Produce	json
//	@Param		productID	path	int	true	"product ID"
//	@Success	204
//	@Failure	404	{object}	map[string]any
//	@Router		/admin/products/{productID} [delete]
func (app *application) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, ok := app.parseProductID(w, r)
	if !ok {
		return
	}

	// Load once to get image URLs for cleanup (and to 404 early)
	p, err := app.store.Products.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, products.ErrProductNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	variants, err := app.store.Products.ListVariantsByProduct(ctx, id)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Products.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, products.ErrProductNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	// Best-effort async Cloudinary cleanup
	var urls []string
	if p.ImageURL != nil {
		urls = append(urls, *p.ImageURL)
	}
	if p.PreviewImageURL != nil {
		urls = append(urls, *p.PreviewImageURL)
	}
	for _, v := range variants {
		if v.ImageURL != nil {
			urls = append(urls, *v.ImageURL)
		}
	}
	if len(urls) > 0 {
		go func(urls []string) {
			for _, u := range urls {
				if u == "" {
					continue
				}
				if err := app.deletePhotoFromCloudinary(u); err != nil {
					app.logger.Errorw("cloudinary cleanup failed", "product_id", id, "url", u, "error", err.Error())
				}
			}
		}(urls)
	}

	w.WriteHeader(http.StatusNoContent)
}

// uploadProductImageHandler godoc
//
//	@Summary		Upload a product image
//	@Description	Accepts jpeg/png/webp up to 10MB; ?preview=true targets the hover preview slot
//	@Tags			admin
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			productID	path		int		true	"product ID"
//	@Param			image		formData	file	true	"image file"
//	@Param			preview		query		bool	false	"replace the preview image instead of the main one"
//	@Success		200			{object}	map[string]any
//	@Failure		404			{object}	map[string]any
//	@Router			/admin/products/{productID}/image [post]
func (app *application) uploadProductImageHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	id, ok := app.parseProductID(w, r)
	if !ok {
		return
	}

	p, err := app.store.Products.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, products.ErrProductNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	const maxBytes = 10 * 1024 * 1024 // 10MB
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("failed to parse form: %w", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, _, err := r.FormFile("image")
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("image file is required"))
		return
	}
	defer file.Close()

	// sniff actual MIME from bytes (don't trust Content-Type header)
	mime, err := sniffMIME(file)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("sniff mime: %w", err))
		return
	}
	allowed := map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/webp": true,
	}
	if !allowed[mime] {
		app.badRequestResponse(w, r, fmt.Errorf("invalid image type: %s", mime))
		return
	}

	preview := strings.EqualFold(r.URL.Query().Get("preview"), "true")

	slot := "image"
	if preview {
		slot = "preview"
	}
	publicID := fmt.Sprintf("product_%d_%s_%s", id, slot, uuid.NewString())

	// upload using the same file reader (we reset it in sniffMIME)
	url, err := app.uploadToCloudinaryWithID(file, publicID)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("upload image: %w", err))
		return
	}

	if err := app.store.Products.SetProductImage(ctx, id, url, preview); err != nil {
		go func(u string) { _ = app.deletePhotoFromCloudinary(u) }(url)
		app.internalServerError(w, r, fmt.Errorf("save image url: %w", err))
		return
	}

	// Clean up the replaced image AFTER success
	old := p.ImageURL
	if preview {
		old = p.PreviewImageURL
	}
	if old != nil && *old != "" && *old != url {
		go func(u string) {
			if err := app.deletePhotoFromCloudinary(u); err != nil {
				app.logger.Errorw("cloudinary cleanup failed", "product_id", id, "url", u, "error", err.Error())
			}
		}(*old)
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"product_id": id,
		"image_url":  url,
		"preview":    preview,
	})
}
