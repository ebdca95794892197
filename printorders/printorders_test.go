package printorders

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"go-bookshop/models"
	"go-bookshop/store"
	"go-bookshop/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const pdfBody = "%PDF-1.7\n1 0 obj\n<<>>\nendobj\n"

type fakeMailer struct {
	mu       sync.Mutex
	subjects []string
}

func (m *fakeMailer) SendEmail(toEmail, subject, htmlContent string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = append(m.subjects, subject)
	return nil
}

func (m *fakeMailer) sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.subjects...)
}

func validSubmission() Submission {
	return Submission{
		Name:        "Ada",
		Surname:     "Lovelace",
		Phone:       "0512345678",
		Address:     "12 Analytical Row",
		Email:       "ada@example.com",
		Quantity:    "2",
		Description: "Hardcover please",
		FileName:    "notes.pdf",
		ContentType: "application/pdf",
		File:        strings.NewReader(pdfBody),
	}
}

func newTestService(mailer utils.Mailer) (*Service, *store.MemoryPrintOrderStore) {
	orders := store.NewMemoryPrintOrderStore()
	var emails *utils.EmailService
	if mailer != nil {
		emails = utils.NewEmailServiceWith(mailer)
	}
	svc := NewService(orders, emails)
	svc.Now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, orders
}

func TestValidateAcceptsValidForm(t *testing.T) {
	assert.Nil(t, Validate(validSubmission()))

	noDescription := validSubmission()
	noDescription.Description = ""
	assert.Nil(t, Validate(noDescription))

	withParams := validSubmission()
	withParams.ContentType = "application/pdf; name=notes.pdf"
	assert.Nil(t, Validate(withParams))
}

func TestValidateReportsEachField(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Submission)
		field string
		msg   string
	}{
		{"missing name", func(s *Submission) { s.Name = " " }, "name", "Name is required"},
		{"short name", func(s *Submission) { s.Name = "A" }, "name", "Name must be at least 2 characters"},
		{"short non-ascii surname", func(s *Submission) { s.Surname = "Ł" }, "surname", "Surname must be at least 2 characters"},
		{"missing phone", func(s *Submission) { s.Phone = "" }, "phone", "Phone is required"},
		{"short phone", func(s *Submission) { s.Phone = "12345" }, "phone", "Phone must be 10 digits"},
		{"short address", func(s *Submission) { s.Address = "Rd" }, "address", "Address must be at least 4 characters"},
		{"missing email", func(s *Submission) { s.Email = "" }, "email", "Email is required"},
		{"bad email", func(s *Submission) { s.Email = "ada@example" }, "email", "Email is invalid"},
		{"missing quantity", func(s *Submission) { s.Quantity = "" }, "quantity", "Quantity is required"},
		{"zero quantity", func(s *Submission) { s.Quantity = "0" }, "quantity", "Quantity must be at least 1"},
		{"text quantity", func(s *Submission) { s.Quantity = "many" }, "quantity", "Quantity must be at least 1"},
		{"missing file", func(s *Submission) { s.File = nil }, "bookFile", "Book file is required"},
		{"word file", func(s *Submission) { s.ContentType = "application/msword" }, "bookFile", "Book file must be a PDF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := validSubmission()
			tt.edit(&sub)
			errs := Validate(sub)
			assert.Len(t, errs, 1)
			assert.Equal(t, tt.msg, errs[tt.field])
		})
	}
}

func TestSubmitStoresPendingOrder(t *testing.T) {
	ctx := context.Background()
	mailer := &fakeMailer{}
	svc, orders := newTestService(mailer)

	sub := validSubmission()
	sub.FileName = `C:\Users\ada\notes.pdf`
	order, err := svc.Submit(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, models.PrintStatusPending, order.Status)
	assert.Equal(t, 2, order.Quantity)
	assert.Equal(t, "notes.pdf", order.FileName)
	assert.Equal(t, int64(len(pdfBody)), order.FileSize)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), order.Created)

	f, err := orders.OpenFile(ctx, order.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, pdfBody, string(data), "the sniffed bytes are stored too")

	assert.Eventually(t, func() bool { return len(mailer.sent()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "Print Order Received", mailer.sent()[0])
}

func TestSubmitRejectsFileThatIsNotPDF(t *testing.T) {
	svc, orders := newTestService(nil)

	sub := validSubmission()
	sub.File = strings.NewReader("PK\x03\x04 not a pdf")
	_, err := svc.Submit(context.Background(), sub)

	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, utils.ValidationErrors{"bookFile": "Book file must be a PDF"}, invalid.Fields)

	list, err := orders.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSubmitReportsEveryField(t *testing.T) {
	svc, _ := newTestService(nil)

	_, err := svc.Submit(context.Background(), Submission{})
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Len(t, invalid.Fields, 7)
	assert.Equal(t, "Book file is required", invalid.Fields["bookFile"])
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	mailer := &fakeMailer{}
	svc, _ := newTestService(mailer)
	order, err := svc.Submit(ctx, validSubmission())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, order.ID, "shipped")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = svc.UpdateStatus(ctx, primitive.NewObjectID(), models.PrintStatusConfirmed)
	assert.ErrorIs(t, err, store.ErrNotFound)

	updated, err := svc.UpdateStatus(ctx, order.ID, models.PrintStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, models.PrintStatusProcessing, updated.Status)
	require.NotNil(t, updated.Updated)

	assert.Eventually(t, func() bool { return len(mailer.sent()) == 2 }, time.Second, 10*time.Millisecond)
	assert.Contains(t, mailer.sent(), "Print Order Status Updated")
}

func TestListFiltersByStatus(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(nil)
	first, err := svc.Submit(ctx, validSubmission())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, validSubmission())
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, first.ID, models.PrintStatusCancelled)
	require.NoError(t, err)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	cancelled, err := svc.List(ctx, models.PrintStatusCancelled)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, first.ID, cancelled[0].ID)

	_, err = svc.List(ctx, "lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestDeleteRemovesOrderAndFile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(nil)
	order, err := svc.Submit(ctx, validSubmission())
	require.NoError(t, err)

	got, f, err := svc.File(ctx, order.ID)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "notes.pdf", got.FileName)

	require.NoError(t, svc.Delete(ctx, order.ID))
	_, _, err = svc.File(ctx, order.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, order.ID), store.ErrNotFound)
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "notes.pdf", baseName("notes.pdf"))
	assert.Equal(t, "notes.pdf", baseName("/tmp/upload/notes.pdf"))
	assert.Equal(t, "book.pdf", baseName(" "))
}
