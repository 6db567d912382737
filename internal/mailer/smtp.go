package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	gomail "gopkg.in/mail.v2"
)

// SMTPMailer delivers templated mail through a plain SMTP relay.
type SMTPMailer struct {
	dialer    *gomail.Dialer
	fromEmail string
	toEmail   string
}

// NewSMTPMailer builds a mailer that sends from fromEmail and delivers to
// toEmail, the inbox the shop staff read.
func NewSMTPMailer(host string, port int, username, password, fromEmail, toEmail string) (*SMTPMailer, error) {
	if host == "" || fromEmail == "" || toEmail == "" {
		return nil, fmt.Errorf("smtp host, from and to addresses are required")
	}

	dialer := gomail.NewDialer(host, port, username, password)

	return &SMTPMailer{
		dialer:    dialer,
		fromEmail: fromEmail,
		toEmail:   toEmail,
	}, nil
}

// Send renders the named template and delivers it, retrying transient
// failures. The name/email pair identifies the site visitor and is set as
// Reply-To so staff can answer directly. Returns the number of attempts.
func (m *SMTPMailer) Send(templateFile, name, email string, data any) (int, error) {
	tmpl, err := template.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return -1, err
	}

	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		return -1, err
	}

	body := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(body, "body", data); err != nil {
		return -1, err
	}

	message := gomail.NewMessage()
	message.SetAddressHeader("From", m.fromEmail, FromName)
	message.SetHeader("To", m.toEmail)
	if email != "" {
		message.SetAddressHeader("Reply-To", email, name)
	}
	message.SetHeader("Subject", subject.String())
	message.SetBody("text/html", body.String())

	var retryErr error
	for i := 0; i < maxRetries; i++ {
		if retryErr = m.dialer.DialAndSend(message); retryErr == nil {
			return i + 1, nil
		}
		time.Sleep(time.Second * time.Duration(i+1))
	}

	return maxRetries, fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, retryErr)
}
