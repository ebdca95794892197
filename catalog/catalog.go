// Package catalog answers the storefront's book queries and validates the
// back office's catalog edits.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go-bookshop/models"
	"go-bookshop/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeaturedLimit caps the featured shelf
const FeaturedLimit = 50

// ErrInvalidBook is returned for a book that fails validation
var ErrInvalidBook = errors.New("invalid book")

// Filter narrows the catalog listing. Zero fields do not constrain.
type Filter struct {
	Search   string
	Genres   []string
	MinPrice *models.Money
	MaxPrice *models.Money
}

// Service wraps the book store
type Service struct {
	Books store.BookStore
}

func NewService(books store.BookStore) *Service {
	return &Service{Books: books}
}

// List returns matching books newest first
func (s *Service) List(ctx context.Context, f Filter) ([]models.Book, error) {
	books, err := s.Books.List(ctx, 0, false)
	if err != nil {
		return nil, err
	}
	out := []models.Book{}
	for _, b := range books {
		if Matches(b, f) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Service) Featured(ctx context.Context) ([]models.Book, error) {
	return s.Books.List(ctx, FeaturedLimit, true)
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (models.Book, error) {
	return s.Books.Get(ctx, id)
}

// Genres returns the distinct normalized genres in the catalog, sorted
func (s *Service) Genres(ctx context.Context) ([]string, error) {
	books, err := s.Books.List(ctx, 0, false)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	genres := []string{}
	for _, b := range books {
		g := NormalizeGenre(b.Genre)
		if !seen[g] {
			seen[g] = true
			genres = append(genres, g)
		}
	}
	sort.Strings(genres)
	return genres, nil
}

func (s *Service) Create(ctx context.Context, b models.Book) (models.Book, error) {
	if err := Validate(b); err != nil {
		return models.Book{}, err
	}
	b.Genre = strings.TrimSpace(b.Genre)
	return s.Books.Create(ctx, b)
}

func (s *Service) Update(ctx context.Context, b models.Book) (models.Book, error) {
	if err := Validate(b); err != nil {
		return models.Book{}, err
	}
	b.Genre = strings.TrimSpace(b.Genre)
	return s.Books.Update(ctx, b)
}

func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.Books.Delete(ctx, id)
}

// Validate checks the fields the storefront depends on
func Validate(b models.Book) error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidBook)
	}
	if b.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidBook)
	}
	return nil
}

// NormalizeGenre capitalizes a genre; blank genres become "Uncategorized"
func NormalizeGenre(genre string) string {
	g := strings.TrimSpace(genre)
	if g == "" {
		return "Uncategorized"
	}
	r := []rune(g)
	return strings.ToUpper(string(r[0])) + strings.ToLower(string(r[1:]))
}

// Matches reports whether b passes f. Search looks at name and author,
// genres compare case-insensitively and the price bounds are inclusive.
func Matches(b models.Book, f Filter) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(b.Name), q) && !strings.Contains(strings.ToLower(b.Author), q) {
			return false
		}
	}
	if len(f.Genres) > 0 {
		genre := strings.TrimSpace(b.Genre)
		ok := false
		for _, g := range f.Genres {
			if strings.EqualFold(strings.TrimSpace(g), genre) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.MinPrice != nil && b.Price.Decimal().LessThan(f.MinPrice.Decimal()) {
		return false
	}
	if f.MaxPrice != nil && b.Price.Decimal().GreaterThan(f.MaxPrice.Decimal()) {
		return false
	}
	return true
}
