package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// listCloudinaryImagesHandler godoc
//
//	@Summary		List uploaded images
//	@Description	Lists assets under the site folder; pass next_cursor to page through
//	@Tags			admin
//	@Produce		json
//	@Param			limit		query		int		false	"max results (default 50)"
//	@Param			next_cursor	query		string	false	"cursor from a previous page"
//	@Success		200			{object}	map[string]any
//	@Router			/admin/images [get]
func (app *application) listCloudinaryImagesHandler(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	res, err := app.cld.Admin.Assets(r.Context(), admin.AssetsParams{
		AssetType:  api.Image,
		Prefix:     cloudinaryFolder,
		MaxResults: limit,
		NextCursor: r.URL.Query().Get("next_cursor"),
	})
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("list cloudinary assets: %w", err))
		return
	}

	type image struct {
		PublicID  string `json:"public_id"`
		URL       string `json:"url"`
		Format    string `json:"format"`
		Bytes     int    `json:"bytes"`
		CreatedAt string `json:"created_at"`
	}
	images := make([]image, 0, len(res.Assets))
	for _, a := range res.Assets {
		images = append(images, image{
			PublicID:  a.PublicID,
			URL:       a.SecureURL,
			Format:    a.Format,
			Bytes:     a.Bytes,
			CreatedAt: a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"images":      images,
		"next_cursor": res.NextCursor,
	})
}

// deleteCloudinaryImageHandler godoc
//
//	@Summary		Delete an uploaded image
//	@Description	DELETE /admin/images?public_id={id}; only assets under the site folder may be removed
//	@Tags			admin
//	@Produce		json
//	@Param			public_id	query		string	true	"Cloudinary public ID"
//	@Success		200			{object}	map[string]any
//	@Router			/admin/images [delete]
func (app *application) deleteCloudinaryImageHandler(w http.ResponseWriter, r *http.Request) {
	publicID := strings.TrimSpace(r.URL.Query().Get("public_id"))
	if publicID == "" {
		app.badRequestResponse(w, r, fmt.Errorf("public_id is required"))
		return
	}
	if !strings.HasPrefix(publicID, cloudinaryFolder+"/") {
		app.badRequestResponse(w, r, fmt.Errorf("public_id outside the site folder"))
		return
	}

	res, err := app.cld.Upload.Destroy(r.Context(), uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("destroy asset: %w", err))
		return
	}
	if res.Result != "ok" && res.Result != "not found" {
		app.internalServerError(w, r, fmt.Errorf("destroy asset: %s", res.Result))
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"public_id": publicID,
		"result":    res.Result,
	})
}
