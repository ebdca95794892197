package utils

import (
	"testing"
	"time"

	"go-bookshop/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recordingMailer struct {
	to, subject, body string
}

func (m *recordingMailer) SendEmail(toEmail, subject, htmlContent string) error {
	m.to, m.subject, m.body = toEmail, subject, htmlContent
	return nil
}

func TestSendOrderConfirmationEmail(t *testing.T) {
	m := &recordingMailer{}
	es := NewEmailServiceWith(m)
	receipt := models.OrderReceipt{
		RecordID:  primitive.NewObjectID(),
		OrderDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Total:     models.MustParseMoney("15"),
		Status:    models.StatusPending,
	}
	items := []models.LineItem{{Name: "Dune", UnitPrice: models.MustParseMoney("15"), Quantity: 1}}

	err := es.SendOrderConfirmationEmail(models.CustomerInfo{FullName: "Ada", Email: "ada@example.com"}, receipt, items)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", m.to)
	assert.Equal(t, "Order Confirmation", m.subject)
	assert.Contains(t, m.body, receipt.RecordID.Hex())
	assert.Contains(t, m.body, "$15.00")
	assert.Contains(t, m.body, "Dune")
}

func TestSendEmailRequiresRecipient(t *testing.T) {
	es := NewEmailServiceWith(&recordingMailer{})
	assert.Error(t, es.SendOrderStatusEmail(models.CustomerInfo{FullName: "Ada"}, "abc", "confirmed"))
}

func TestNewEmailService(t *testing.T) {
	_, err := NewEmailService("sendgrid", "", "shop@example.com")
	assert.Error(t, err)
	_, err = NewEmailService("carrier-pigeon", "key", "shop@example.com")
	assert.Error(t, err)

	es, err := NewEmailService("none", "", "")
	require.NoError(t, err)
	assert.NoError(t, es.SendEmail("ada@example.com", "hi", "<p>hi</p>"))

	es, err = NewEmailService("postmark", "token", "shop@example.com")
	require.NoError(t, err)
	assert.IsType(t, &PostmarkMailer{}, es.mailer)
}

func TestSendPrintOrderEmails(t *testing.T) {
	m := &recordingMailer{}
	es := NewEmailServiceWith(m)
	order := models.PrintOrder{
		ID:       primitive.NewObjectID(),
		Name:     "Ada",
		Surname:  "Lovelace",
		Email:    "ada@example.com",
		Quantity: 1,
		FileName: "notes.pdf",
		Status:   models.PrintStatusPending,
	}

	require.NoError(t, es.SendPrintOrderReceivedEmail(order))
	assert.Equal(t, "ada@example.com", m.to)
	assert.Equal(t, "Print Order Received", m.subject)
	assert.Contains(t, m.body, "1 copy of <strong>notes.pdf</strong>")

	order.Quantity = 3
	require.NoError(t, es.SendPrintOrderReceivedEmail(order))
	assert.Contains(t, m.body, "3 copies")

	order.Status = models.PrintStatusProcessing
	require.NoError(t, es.SendPrintOrderStatusEmail(order))
	assert.Equal(t, "Print Order Status Updated", m.subject)
	assert.Contains(t, m.body, "processing")
}
