package mailer

import "embed"

const (
	FromName        = "Africa Stickers"
	maxRetries      = 3
	ContactTemplate = "contact_message.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, name, email string, data any) (int, error)
}
