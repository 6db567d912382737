package main

import (
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"

	"github.com/africanuspanga/africa-stickers-website/internal/domain/products"

	"github.com/go-chi/chi/v5"
)

type likeRequest struct {
	Action string `json:"action" validate:"required,oneof=like unlike"`
}

// likeProductHandler godoc
//
//	@Summary		Like or unlike a product
//	@Description	Adjusts the product like counter. A counter that has never been touched is first seeded with a value between 10 and 25, matching the placeholder the product card shows. The counter never goes below zero.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			productID	path		int			true	"product ID"
//	@Param			payload		body		likeRequest	true	"like or unlike"
//	@Success		200			{object}	map[string]any
//	@Failure		404			{object}	map[string]any
//	@Failure		429			{object}	map[string]any
//	@Router			/products/{productID}/like [post]
func (app *application) likeProductHandler(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "productID")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid product ID: %s", idStr))
		return
	}

	var payload likeRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	delta := 1
	if payload.Action == "unlike" {
		delta = -1
	}

	// seed for a NULL counter, same range the product card falls back to
	seed := rand.Intn(16) + 10

	count, err := app.store.Products.AdjustLikes(r.Context(), id, delta, seed)
	if err != nil {
		if errors.Is(err, products.ErrProductNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, fmt.Errorf("adjust likes: %w", err))
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"product_id":  id,
		"likes_count": count,
	})
}
