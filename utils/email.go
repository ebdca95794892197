// utils/email.go
package utils

import (
	"fmt"
	"log/slog"
	"strings"

	"go-bookshop/models"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer sends a single email
type Mailer interface {
	SendEmail(toEmail, subject, htmlContent string) error
}

// EmailService sends storefront emails through the configured Mailer
type EmailService struct {
	mailer Mailer
}

// NewEmailService picks a provider: "sendgrid", "postmark", or "none" which
// only logs what would have been sent.
func NewEmailService(provider, apiKey, sender string) (*EmailService, error) {
	switch provider {
	case "sendgrid":
		if apiKey == "" {
			return nil, fmt.Errorf("sendgrid api key is empty")
		}
		return &EmailService{mailer: &SendGridMailer{apiKey: apiKey, sender: sender}}, nil
	case "postmark":
		if apiKey == "" {
			return nil, fmt.Errorf("postmark api token is empty")
		}
		return &EmailService{mailer: &PostmarkMailer{client: postmark.NewClient(apiKey, ""), sender: sender}}, nil
	case "none", "":
		return &EmailService{mailer: LogMailer{}}, nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", provider)
	}
}

// NewEmailServiceWith wraps an existing Mailer
func NewEmailServiceWith(m Mailer) *EmailService {
	return &EmailService{mailer: m}
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(toEmail, subject, htmlContent string) error {
	if strings.TrimSpace(toEmail) == "" {
		return fmt.Errorf("to address is empty")
	}
	return es.mailer.SendEmail(toEmail, subject, htmlContent)
}

// SendOrderConfirmationEmail tells the customer their order was received
func (es *EmailService) SendOrderConfirmationEmail(customer models.CustomerInfo, receipt models.OrderReceipt, items []models.LineItem) error {
	var lines strings.Builder
	for _, item := range items {
		fmt.Fprintf(&lines, "<li>%s &times; %d &mdash; $%s</li>", item.Name, item.Quantity, item.Subtotal())
	}
	subject := "Order Confirmation"
	htmlContent := fmt.Sprintf(
		"<strong>Dear %s,</strong><br><br>Thank you for your order (ID: %s). It was received on %s and is now <strong>%s</strong>.<br><ul>%s</ul>Total Amount: <strong>$%s</strong><br><br>We will contact you at %s when it is ready.",
		customer.FullName,
		receipt.RecordID.Hex(),
		receipt.OrderDate.Format("2006-01-02"),
		receipt.Status,
		lines.String(),
		receipt.Total,
		customer.Phone,
	)
	return es.SendEmail(customer.Email, subject, htmlContent)
}

// SendOrderStatusEmail tells the customer an administrator changed their order
func (es *EmailService) SendOrderStatusEmail(customer models.CustomerInfo, orderID, status string) error {
	subject := "Order Status Updated"
	htmlContent := fmt.Sprintf(
		"Dear %s,<br><br>Your order (ID: %s) status has been updated to '<strong>%s</strong>'.<br><br>Thank you for shopping with us!",
		customer.FullName, orderID, status,
	)
	return es.SendEmail(customer.Email, subject, htmlContent)
}

// SendPrintOrderReceivedEmail confirms a print order submission
func (es *EmailService) SendPrintOrderReceivedEmail(order models.PrintOrder) error {
	subject := "Print Order Received"
	htmlContent := fmt.Sprintf(
		"Dear %s %s,<br><br>We received your print order (ID: %s) for %d cop%s of <strong>%s</strong>.<br>It is now <strong>%s</strong>; we will contact you at %s once it is reviewed.",
		order.Name, order.Surname, order.ID.Hex(), order.Quantity, plural(order.Quantity, "y", "ies"), order.FileName, order.Status, order.Phone,
	)
	return es.SendEmail(order.Email, subject, htmlContent)
}

// SendPrintOrderStatusEmail tells the customer their print order moved on
func (es *EmailService) SendPrintOrderStatusEmail(order models.PrintOrder) error {
	subject := "Print Order Status Updated"
	htmlContent := fmt.Sprintf(
		"Dear %s %s,<br><br>Your print order (ID: %s) status has been updated to '<strong>%s</strong>'.<br><br>Thank you for printing with us!",
		order.Name, order.Surname, order.ID.Hex(), order.Status,
	)
	return es.SendEmail(order.Email, subject, htmlContent)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// SendGridMailer sends through the SendGrid v3 API
type SendGridMailer struct {
	apiKey string
	sender string
}

func (m *SendGridMailer) SendEmail(toEmail, subject, htmlContent string) error {
	message := mail.NewSingleEmail(
		mail.NewEmail("Bookshop", m.sender),
		subject,
		mail.NewEmail("", toEmail),
		htmlContent,
		htmlContent,
	)
	response, err := sendgrid.NewSendClient(m.apiKey).Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}
	slog.Info("Email sent", "provider", "sendgrid", "to", toEmail, "subject", subject)
	return nil
}

// PostmarkMailer sends through Postmark
type PostmarkMailer struct {
	client *postmark.Client
	sender string
}

func (m *PostmarkMailer) SendEmail(toEmail, subject, htmlContent string) error {
	_, err := m.client.SendEmail(postmark.Email{
		From:     m.sender,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlContent,
		TextBody: htmlContent,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	slog.Info("Email sent", "provider", "postmark", "to", toEmail, "subject", subject)
	return nil
}

// LogMailer logs instead of sending. Used when no provider is configured.
type LogMailer struct{}

func (LogMailer) SendEmail(toEmail, subject, htmlContent string) error {
	slog.Info("Email not sent, no provider configured", "to", toEmail, "subject", subject)
	return nil
}
