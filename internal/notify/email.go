package notify

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/isdelr/ecofinds/internal/models"
	"github.com/keighl/postmark"
)

type emailSender interface {
	SendEmail(email postmark.Email) (postmark.EmailResponse, error)
}

// Mailer sends the buyer a receipt through Postmark.
type Mailer struct {
	client emailSender
	from   string
}

// NewMailer creates a Mailer using a Postmark server token.
func NewMailer(token, from string) *Mailer {
	return &Mailer{client: postmark.NewClient(token, ""), from: from}
}

var receiptTmpl = template.Must(template.New("receipt").Parse(
	`<p>Thanks for shopping on EcoFinds!</p>
<table>
{{range .Lines}}<tr><td>{{.Title}}</td><td>{{.Quantity}} x ${{.UnitPrice.StringFixed 2}}</td></tr>
{{end}}</table>
<p><strong>Total: ${{.Total.StringFixed 2}}</strong></p>`))

// receiptBodies renders the html and plain text versions of a receipt.
func receiptBodies(r Receipt) (string, string, error) {
	var html strings.Builder
	if err := receiptTmpl.Execute(&html, r); err != nil {
		return "", "", err
	}

	var text strings.Builder
	text.WriteString("Thanks for shopping on EcoFinds!\n\n")
	for _, l := range r.Lines {
		fmt.Fprintf(&text, "%s: %d x $%s\n", l.Title, l.Quantity, l.UnitPrice.StringFixed(2))
	}
	fmt.Fprintf(&text, "\nTotal: $%s\n", r.Total.StringFixed(2))
	return html.String(), text.String(), nil
}

// NotifyPurchases implements Notifier. The Postmark client has no context
// support, so ctx is only checked before sending.
func (m *Mailer) NotifyPurchases(ctx context.Context, buyer models.User, purchases []models.Purchase) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	html, text, err := receiptBodies(NewReceipt(buyer, purchases))
	if err != nil {
		return fmt.Errorf("failed to render receipt: %w", err)
	}

	_, err = m.client.SendEmail(postmark.Email{
		From:     m.from,
		To:       buyer.Email,
		Subject:  "Your EcoFinds purchase",
		HtmlBody: html,
		TextBody: text,
		Tag:      "receipt",
	})
	if err != nil {
		return fmt.Errorf("failed to send receipt to %s: %w", buyer.Email, err)
	}
	return nil
}
