package main

import (
	"net/http"
	"strings"

	"github.com/africanuspanga/africa-stickers-website/internal/mailer"
)

type contactPayload struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Phone   string `json:"phone" validate:"omitempty,max=30"`
	Subject string `json:"subject" validate:"omitempty,max=150"`
	Message string `json:"message" validate:"required,max=5000"`
}

// contactHandler godoc
//
//	@Summary		Submit a contact-form enquiry
//	@Description	Delivers the enquiry to the shop inbox with the sender set as Reply-To
//	@Tags			contact
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		contactPayload	true	"enquiry"
//	@Success		200		{object}	map[string]any
//	@Failure		429		{object}	map[string]any
//	@Router			/contact [post]
func (app *application) contactHandler(w http.ResponseWriter, r *http.Request) {
	var payload contactPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	payload.Name = strings.TrimSpace(payload.Name)
	payload.Message = strings.TrimSpace(payload.Message)

	attempts, err := app.mailer.Send(mailer.ContactTemplate, payload.Name, payload.Email, payload)
	if err != nil {
		app.logger.Errorw("contact mail delivery failed", "attempts", attempts, "error", err.Error())
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("contact enquiry delivered", "from", payload.Email, "attempts", attempts)

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"message": "Thank you, we will get back to you shortly.",
	})
}
