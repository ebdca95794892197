// Package printorders takes customer PDFs to be printed as books and lets the
// back office work through them
package printorders

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go-bookshop/models"
	"go-bookshop/store"
	"go-bookshop/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxFileSize caps an uploaded PDF
const MaxFileSize = 20 << 20

var (
	// ErrInvalidStatus is returned for a status outside the print order workflow
	ErrInvalidStatus = errors.New("invalid print order status")

	phonePattern = regexp.MustCompile(`^\d{10}$`)
	emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	pdfMagic     = []byte("%PDF-")
)

// ValidationError is returned by Submit when form fields are rejected
type ValidationError struct {
	Fields utils.ValidationErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid print order: %d field(s) rejected", len(e.Fields))
}

// Submission is the print order form as posted. File is nil when no file
// was attached.
type Submission struct {
	Name        string
	Surname     string
	Phone       string
	Address     string
	Email       string
	Quantity    string
	Description string
	FileName    string
	ContentType string
	File        io.Reader
}

// Validate checks the form fields and the declared file type. The file
// content is checked by Submit.
func Validate(sub Submission) utils.ValidationErrors {
	errs := utils.ValidationErrors{}

	minLength := func(field, label, value string, n int) {
		value = strings.TrimSpace(value)
		switch {
		case value == "":
			errs[field] = label + " is required"
		case utf8.RuneCountInString(value) < n:
			errs[field] = fmt.Sprintf("%s must be at least %d characters", label, n)
		}
	}
	minLength("name", "Name", sub.Name, 2)
	minLength("surname", "Surname", sub.Surname, 2)
	minLength("address", "Address", sub.Address, 4)

	switch phone := strings.TrimSpace(sub.Phone); {
	case phone == "":
		errs["phone"] = "Phone is required"
	case !phonePattern.MatchString(phone):
		errs["phone"] = "Phone must be 10 digits"
	}

	switch email := strings.TrimSpace(sub.Email); {
	case email == "":
		errs["email"] = "Email is required"
	case !emailPattern.MatchString(email):
		errs["email"] = "Email is invalid"
	}

	if q := strings.TrimSpace(sub.Quantity); q == "" {
		errs["quantity"] = "Quantity is required"
	} else if n, err := strconv.Atoi(q); err != nil || n < 1 {
		errs["quantity"] = "Quantity must be at least 1"
	}

	if sub.File == nil || strings.TrimSpace(sub.FileName) == "" {
		errs["bookFile"] = "Book file is required"
	} else if mediaType, _, err := mime.ParseMediaType(sub.ContentType); err != nil || mediaType != "application/pdf" {
		errs["bookFile"] = "Book file must be a PDF"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Service manages print orders
type Service struct {
	Orders store.PrintOrderStore
	Emails *utils.EmailService
	Now    func() time.Time
}

func NewService(orders store.PrintOrderStore, emails *utils.EmailService) *Service {
	return &Service{Orders: orders, Emails: emails, Now: time.Now}
}

// Submit validates the form, checks the file really is a PDF and stores the
// order as pending. Rejected fields come back as a *ValidationError.
func (s *Service) Submit(ctx context.Context, sub Submission) (models.PrintOrder, error) {
	errs := Validate(sub)
	var file *bufio.Reader
	if sub.File != nil {
		file = bufio.NewReader(sub.File)
		if _, rejected := errs["bookFile"]; !rejected {
			if head, _ := file.Peek(len(pdfMagic)); !bytes.Equal(head, pdfMagic) {
				if errs == nil {
					errs = utils.ValidationErrors{}
				}
				errs["bookFile"] = "Book file must be a PDF"
			}
		}
	}
	if errs != nil {
		return models.PrintOrder{}, &ValidationError{Fields: errs}
	}

	quantity, _ := strconv.Atoi(strings.TrimSpace(sub.Quantity))
	order := models.PrintOrder{
		Name:        strings.TrimSpace(sub.Name),
		Surname:     strings.TrimSpace(sub.Surname),
		Phone:       strings.TrimSpace(sub.Phone),
		Address:     strings.TrimSpace(sub.Address),
		Email:       strings.TrimSpace(sub.Email),
		Quantity:    quantity,
		Description: strings.TrimSpace(sub.Description),
		Status:      models.PrintStatusPending,
		Created:     s.now().UTC(),
	}
	created, err := s.Orders.Create(ctx, order, baseName(sub.FileName), file)
	if err != nil {
		return models.PrintOrder{}, fmt.Errorf("failed to save print order: %w", err)
	}
	slog.Info("Print order received", "print_order_id", created.ID.Hex(), "file", created.FileName, "size", created.FileSize)
	s.notify(created, s.Emails.SendPrintOrderReceivedEmail)
	return created, nil
}

// List returns print orders newest first, optionally only those with status
func (s *Service) List(ctx context.Context, status string) ([]models.PrintOrder, error) {
	if status != "" && !models.ValidPrintOrderStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	orders, err := s.Orders.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to load print orders: %w", err)
	}
	return orders, nil
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (models.PrintOrder, error) {
	return s.Orders.Get(ctx, id)
}

// UpdateStatus moves a print order along and tells the customer
func (s *Service) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (models.PrintOrder, error) {
	if !models.ValidPrintOrderStatus(status) {
		return models.PrintOrder{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	updated, err := s.Orders.UpdateStatus(ctx, id, status, s.now().UTC())
	if err != nil {
		return models.PrintOrder{}, err
	}
	slog.Info("Print order status updated", "print_order_id", id.Hex(), "status", status)
	s.notify(updated, s.Emails.SendPrintOrderStatusEmail)
	return updated, nil
}

// Delete removes a print order together with its file
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.Orders.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("Print order deleted", "print_order_id", id.Hex())
	return nil
}

// File returns the order and a stream of its PDF; the caller closes it
func (s *Service) File(ctx context.Context, id primitive.ObjectID) (models.PrintOrder, io.ReadCloser, error) {
	order, err := s.Orders.Get(ctx, id)
	if err != nil {
		return models.PrintOrder{}, nil, err
	}
	f, err := s.Orders.OpenFile(ctx, id)
	if err != nil {
		return models.PrintOrder{}, nil, err
	}
	return order, f, nil
}

// notify sends an email in the background. Failures are logged only.
func (s *Service) notify(order models.PrintOrder, send func(models.PrintOrder) error) {
	if s.Emails == nil {
		return
	}
	go func() {
		if err := send(order); err != nil {
			slog.Warn("Failed to send print order email", "print_order_id", order.ID.Hex(), "to", order.Email, "error", err)
		}
	}()
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// baseName drops any client-side directory from an uploaded file name
func baseName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "book.pdf"
	}
	return name
}
