package main

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type adminLoginPayload struct {
	Password string `json:"password" validate:"required"`
}

// adminLoginHandler godoc
//
//	@Summary		Admin login
//	@Description	Verifies the dashboard password and sets the session cookie
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		adminLoginPayload	true	"dashboard password"
//	@Success		200		{object}	map[string]any
//	@Failure		401		{object}	map[string]any
//	@Router			/admin/session [post]
func (app *application) adminLoginHandler(w http.ResponseWriter, r *http.Request) {
	var payload adminLoginPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword(
		[]byte(app.config.auth.adminPasswordHash),
		[]byte(payload.Password),
	); err != nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("wrong dashboard password"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     adminSessionCookie,
		Value:    "authenticated",
		Path:     "/",
		Expires:  time.Now().Add(12 * time.Hour),
		HttpOnly: true,
		Secure:   app.config.env == "production",
		SameSite: http.SameSiteLaxMode,
	})

	app.jsonResponse(w, http.StatusOK, map[string]any{"message": "logged in"})
}

// adminLogoutHandler godoc
//
//	@Summary	Admin logout
//	@Tags		admin
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Router		/admin/session [delete]
func (app *application) adminLogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     adminSessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   app.config.env == "production",
		SameSite: http.SameSiteLaxMode,
	})

	app.jsonResponse(w, http.StatusOK, map[string]any{"message": "logged out"})
}
