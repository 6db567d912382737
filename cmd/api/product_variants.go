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

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (app *application) parseVariantID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "variantID")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid variant ID: %s", idStr))
		return 0, false
	}
	return id, true
}

// listVariantsHandler godoc
//
//	@Summary	List variants of a product in display order
//	@Tags		admin
//	@Produce	json
//	@Param		productID	path		int	true	"product ID"
//	@Success	200			{object}	map[string]any
//	@Router		/admin/products/{productID}/variants [get]
func (app *application) listVariantsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID, ok := app.parseProductID(w, r)
	if !ok {
		return
	}

	variants, err := app.store.Products.ListVariantsByProduct(ctx, productID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"variants": variants,
		"count":    len(variants),
	})
}

type createVariantPayload struct {
	VariantName   string  `json:"variant_name" validate:"omitempty,max=150"`
	VariantNameSw *string `json:"variant_name_sw" validate:"omitempty,max=150"`
	Quantity      string  `json:"quantity" validate:"omitempty,max=100"`
	DisplayOrder  *int    `json:"display_order"`
}

// createVariantHandler godoc
//
//	@Summary		Add a variant to a product
//	@Description	A blank variant name gets a timestamped placeholder; omitted display_order appends at the end
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			productID	path		int						true	"product ID"
//	@Param			payload		body		createVariantPayload	true	"variant"
//	@Success		201			{object}	map[string]any
//	@Failure		404			{object}	map[string]any
//	@Router			/admin/products/{productID}/variants [post]
func (app *application) createVariantHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID, ok := app.parseProductID(w, r)
	if !ok {
		return
	}

	if _, err := app.store.Products.GetProductByID(ctx, productID); err != nil {
		if errors.Is(err, products.ErrProductNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	var payload createVariantPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	name := strings.TrimSpace(payload.VariantName)
	if name == "" {
		name = fmt.Sprintf("Variant %d", time.Now().Unix())
	}

	displayOrder := 0
	if payload.DisplayOrder != nil {
		displayOrder = *payload.DisplayOrder
	} else {
		existing, err := app.store.Products.ListVariantsByProduct(ctx, productID)
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}
		displayOrder = len(existing)
	}

	variant := &products.ProductVariant{
		ProductID:     productID,
		VariantName:   name,
		VariantNameSw: payload.VariantNameSw,
		Quantity:      payload.Quantity,
		DisplayOrder:  displayOrder,
	}

	created, err := app.store.Products.CreateVariant(ctx, variant)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("failed to create variant: %w", err))
		return
	}

	app.jsonResponse(w, http.StatusCreated, created)
}

type updateVariantPayload struct {
	VariantName   *string `json:"variant_name" validate:"omitempty,max=150"`
	VariantNameSw *string `json:"variant_name_sw" validate:"omitempty,max=150"`
	Quantity      *string `json:"quantity" validate:"omitempty,max=100"`
	DisplayOrder  *int    `json:"display_order"`
}

func (app *application) updateVariantHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID, ok := app.parseProductID(w, r)
	if !ok {
		return
	}
	variantID, ok := app.parseVariantID(w, r)
	if !ok {
		return
	}

	existing, err := app.store.Products.GetVariantByID(ctx, variantID)
	if err != nil {
		if errors.Is(err, products.ErrVariantNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}
	if existing.ProductID != productID {
		app.notFoundResponse(w, r, products.ErrVariantNotFound)
		return
	}

	var payload updateVariantPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if payload.VariantName != nil {
		existing.VariantName = strings.TrimSpace(*payload.VariantName)
	}
	if payload.VariantNameSw != nil {
		existing.VariantNameSw = payload.VariantNameSw
	}
	if payload.Quantity != nil {
		existing.Quantity = *payload.Quantity
	}
	if payload.DisplayOrder != nil {
		existing.DisplayOrder = *payload.DisplayOrder
	}

	updated, err := app.store.Products.UpdateVariant(ctx, existing)
	if err != nil {
		if errors.Is(err, products.ErrVariantNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, fmt.Errorf("failed to update variant: %w", err))
		return
	}

	app.jsonResponse(w, http.StatusOK, updated)
}

func (app *application) deleteVariantHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID, ok := app.parseProductID(w, r)
	if !ok {
		return
	}
	variantID, ok := app.parseVariantID(w, r)
	if !ok {
		return
	}

	// Load once to get the image URL for cleanup
	existing, err := app.store.Products.GetVariantByID(ctx, variantID)
	if err != nil {
		if errors.Is(err, products.ErrVariantNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Products.DeleteVariant(ctx, productID, variantID); err != nil {
		if errors.Is(err, products.ErrVariantNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, fmt.Errorf("failed to delete variant: %w", err))
		return
	}

	if existing.ImageURL != nil && *existing.ImageURL != "" {
		go func(u string) {
			if err := app.deletePhotoFromCloudinary(u); err != nil {
				app.logger.Errorw("cloudinary cleanup failed", "variant_id", variantID, "url", u, "error", err.Error())
			}
		}(*existing.ImageURL)
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{"message": "variant deleted"})
}

type reorderVariantsPayload struct {
	OrderedIDs []int64 `json:"ordered_ids" validate:"required,min=1"`
}

// reorderVariantsHandler godoc
//
//	@Summary		Reorder variants
//	@Description	Rewrites display_order to match the given ID order
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			productID	path		int						true	"product ID"
//	@Param			payload		body		reorderVariantsPayload	true	"IDs in display order"
//	@Success		200			{object}	map[string]any
//	@Router			/admin/products/{productID}/variants/order [put]
func (app *application) reorderVariantsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID, ok := app.parseProductID(w, r)
	if !ok {
		return
	}

	var payload reorderVariantsPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Products.ReorderVariants(ctx, productID, payload.OrderedIDs); err != nil {
		app.internalServerError(w, r, fmt.Errorf("reorder variants: %w", err))
		return
	}

	variants, err := app.store.Products.ListVariantsByProduct(ctx, productID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{"variants": variants})
}

func (app *application) uploadVariantImageHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	productID, ok := app.parseProductID(w, r)
	if !ok {
		return
	}
	variantID, ok := app.parseVariantID(w, r)
	if !ok {
		return
	}

	existing, err := app.store.Products.GetVariantByID(ctx, variantID)
	if err != nil {
		if errors.Is(err, products.ErrVariantNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}
	if existing.ProductID != productID {
		app.notFoundResponse(w, r, products.ErrVariantNotFound)
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

	mime, err := sniffMIME(file)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("sniff mime: %w", err))
		return
	}
	allowed := map[string]bool{"image/jpeg": true, "image/png": true, "image/webp": true}
	if !allowed[mime] {
		app.badRequestResponse(w, r, fmt.Errorf("invalid image type: %s", mime))
		return
	}

	publicID := fmt.Sprintf("product_%d_variant_%d_%s", productID, variantID, uuid.NewString())
	url, err := app.uploadToCloudinaryWithID(file, publicID)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("upload image: %w", err))
		return
	}

	if err := app.store.Products.SetVariantImage(ctx, productID, variantID, url); err != nil {
		go func(u string) { _ = app.deletePhotoFromCloudinary(u) }(url)
		app.internalServerError(w, r, fmt.Errorf("save image url: %w", err))
		return
	}

	if existing.ImageURL != nil && *existing.ImageURL != "" && *existing.ImageURL != url {
		go func(u string) {
			if err := app.deletePhotoFromCloudinary(u); err != nil {
				app.logger.Errorw("cloudinary cleanup failed", "variant_id", variantID, "url", u, "error", err.Error())
			}
		}(*existing.ImageURL)
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"variant_id": variantID,
		"image_url":  url,
	})
}
