package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/africanuspanga/africa-stickers-website/internal/domain/products"

	"github.com/go-chi/chi/v5"
)

// shareProductHandler godoc
//
//	@Summary		Share link for a product
//	@Description	Returns a short opaque code and the full share URL for the product
//	@Tags			products
//	@Produce		json
//	@Param			productID	path		int	true	"product ID"
//	@Success		200			{object}	map[string]any
//	@Failure		404			{object}	map[string]any
//	@Router			/products/{productID}/share [get]
func (app *application) shareProductHandler(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "productID")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid product ID: %s", idStr))
		return
	}

	// 404 for products that don't exist; drafts still get a code so staff
	// can preview before publishing
	if _, err := app.store.Products.GetProductByID(r.Context(), id); err != nil {
		if errors.Is(err, products.ErrProductNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	code, err := app.shareCodes.EncodeInt64([]int64{id})
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("encode share code: %w", err))
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"product_id": id,
		"code":       code,
		"url":        app.config.frontendURL + "/p/" + code,
	})
}

// resolveShareCodeHandler godoc
//
//	@Summary	Resolve a share code
//	@Tags		products
//	@Produce	json
//	@Param		code	path		string	true	"share code"
//	@Success	200		{object}	map[string]any
//	@Failure	404		{object}	map[string]any
//	@Router		/share/{code} [get]
func (app *application) resolveShareCodeHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	ids, err := app.shareCodes.DecodeInt64WithError(code)
	if err != nil || len(ids) != 1 {
		app.notFoundResponse(w, r, fmt.Errorf("unknown share code"))
		return
	}

	p, err := app.store.Products.GetProductByID(r.Context(), ids[0])
	if err != nil {
		if errors.Is(err, products.ErrProductNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}
	if !p.IsActive {
		app.notFoundResponse(w, r, fmt.Errorf("product not found"))
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"product_id": p.ID,
		"slug":       p.Slug,
	})
}
