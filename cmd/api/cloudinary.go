package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const cloudinaryFolder = "africa-stickers"

func (app *application) deletePhotoFromCloudinary(photoURL string) error {
	// Extract the public ID from the photo URL
	publicID, err := extractPublicIDFromURL(photoURL)
	if err != nil {
		return fmt.Errorf("failed to extract public ID: %w", err)
	}

	// Delete the asset from Cloudinary
	_, err = app.cld.Upload.Destroy(context.Background(), uploader.DestroyParams{
		PublicID: publicID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete photo from Cloudinary: %w", err)
	}

	return nil
}

// extractPublicIDFromURL pulls the public ID out of a Cloudinary delivery URL.
// Delivery URLs look like .../image/upload/v1712345678/folder/name.webp; the
// version segment and the file extension are not part of the public ID.
func extractPublicIDFromURL(photoURL string) (string, error) {
	parsedURL, err := url.Parse(photoURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	pathParts := strings.Split(parsedURL.Path, "/")
	for i, part := range pathParts {
		if part == "upload" && i+1 < len(pathParts) {
			rest := pathParts[i+1:]
			// skip the version segment (v<digits>) if present
			if len(rest) > 1 && strings.HasPrefix(rest[0], "v") && isAllDigits(rest[0][1:]) {
				rest = rest[1:]
			}
			publicID := strings.Join(rest, "/")
			if dot := strings.LastIndex(publicID, "."); dot > strings.LastIndex(publicID, "/") {
				publicID = publicID[:dot]
			}
			if publicID == "" {
				break
			}
			return publicID, nil
		}
	}

	return "", errors.New("failed to extract public ID from URL")
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// uploadToCloudinaryWithID uploads a file to Cloudinary using a custom public ID.
func (app *application) uploadToCloudinaryWithID(file io.Reader, publicID string) (string, error) {
	resp, err := app.cld.Upload.Upload(
		context.Background(), // using a background context for external call
		file,
		uploader.UploadParams{
			Folder:    cloudinaryFolder,
			PublicID:  publicID, // e.g. "product_12_1712345678901"
			Overwrite: api.Bool(false),
		},
	)

	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	return resp.SecureURL, nil
}
