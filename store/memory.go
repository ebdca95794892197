package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go-bookshop/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryCartStore is a CartStore held in process memory. It backs the
// "memory" store backend and the tests.
type MemoryCartStore struct {
	mu      sync.Mutex
	records map[primitive.ObjectID]models.CartRecord
	seq     map[primitive.ObjectID]int64
	next    int64
}

func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{
		records: make(map[primitive.ObjectID]models.CartRecord),
		seq:     make(map[primitive.ObjectID]int64),
	}
}

func (s *MemoryCartStore) Create(ctx context.Context, rec models.CartRecord) (models.CartRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.CartRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = primitive.NewObjectID()
	rec.Version = 1
	if rec.Created.IsZero() {
		rec.Created = time.Now().UTC()
	}
	rec = cloneRecord(rec)
	s.records[rec.ID] = rec
	s.next++
	s.seq[rec.ID] = s.next
	return cloneRecord(rec), nil
}

func (s *MemoryCartStore) Update(ctx context.Context, rec models.CartRecord) (models.CartRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.CartRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[rec.ID]
	if !ok {
		return models.CartRecord{}, ErrNotFound
	}
	if current.Version != rec.Version {
		return models.CartRecord{}, ErrConflict
	}
	rec = cloneRecord(rec)
	rec.Version++
	s.records[rec.ID] = rec
	return cloneRecord(rec), nil
}

func (s *MemoryCartStore) GetOne(ctx context.Context, id primitive.ObjectID) (models.CartRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.CartRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return models.CartRecord{}, ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *MemoryCartStore) GetList(ctx context.Context, page, perPage int, opts ListOptions) ([]models.CartRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, perPage = normalizePage(page, perPage)

	s.mu.Lock()
	defer s.mu.Unlock()

	matched := []models.CartRecord{}
	for _, rec := range s.records {
		if matchesCart(rec, opts.Filter) {
			matched = append(matched, rec)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.Created.Equal(b.Created) {
			if opts.Sort == SortOldest {
				return a.Created.Before(b.Created)
			}
			return a.Created.After(b.Created)
		}
		if opts.Sort == SortOldest {
			return s.seq[a.ID] < s.seq[b.ID]
		}
		return s.seq[a.ID] > s.seq[b.ID]
	})

	start := (page - 1) * perPage
	if start >= len(matched) {
		return []models.CartRecord{}, nil
	}
	end := start + perPage
	if end > len(matched) {
		end = len(matched)
	}
	out := make([]models.CartRecord, 0, end-start)
	for _, rec := range matched[start:end] {
		out = append(out, cloneRecord(rec))
	}
	return out, nil
}

func (s *MemoryCartStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	delete(s.seq, id)
	return nil
}

func matchesCart(rec models.CartRecord, f CartFilter) bool {
	if f.SessionToken != "" && rec.SessionToken != f.SessionToken {
		return false
	}
	if f.Active != nil && rec.Active != *f.Active {
		return false
	}
	if !f.CreatedBefore.IsZero() && rec.Created.After(f.CreatedBefore) {
		return false
	}
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	return true
}

func cloneRecord(rec models.CartRecord) models.CartRecord {
	rec.Items = models.CloneItems(rec.Items)
	if rec.CustomerInfo != nil {
		info := *rec.CustomerInfo
		rec.CustomerInfo = &info
	}
	if rec.Order != nil {
		order := *rec.Order
		order.Items = models.CloneItems(order.Items)
		rec.Order = &order
	}
	return rec
}

// MemoryBookStore is a BookStore held in process memory
type MemoryBookStore struct {
	mu    sync.Mutex
	books map[primitive.ObjectID]models.Book
}

func NewMemoryBookStore() *MemoryBookStore {
	return &MemoryBookStore{books: make(map[primitive.ObjectID]models.Book)}
}

func (s *MemoryBookStore) Create(ctx context.Context, b models.Book) (models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b.ID = primitive.NewObjectID()
	if b.Created.IsZero() {
		b.Created = time.Now().UTC()
	}
	s.books[b.ID] = b
	return b, nil
}

func (s *MemoryBookStore) Update(ctx context.Context, b models.Book) (models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.books[b.ID]
	if !ok {
		return models.Book{}, ErrNotFound
	}
	b.Created = current.Created
	s.books[b.ID] = b
	return b, nil
}

func (s *MemoryBookStore) Get(ctx context.Context, id primitive.ObjectID) (models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return models.Book{}, ErrNotFound
	}
	return b, nil
}

func (s *MemoryBookStore) List(ctx context.Context, limit int, featuredOnly bool) ([]models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books := []models.Book{}
	for _, b := range s.books {
		if featuredOnly && !b.Featured {
			continue
		}
		books = append(books, b)
	}
	sort.Slice(books, func(i, j int) bool {
		if books[i].Created.Equal(books[j].Created) {
			return books[i].ID.Hex() > books[j].ID.Hex()
		}
		return books[i].Created.After(books[j].Created)
	})
	if limit > 0 && len(books) > limit {
		books = books[:limit]
	}
	return books, nil
}

func (s *MemoryBookStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[id]; !ok {
		return ErrNotFound
	}
	delete(s.books, id)
	return nil
}

// MemoryUserStore is a UserStore held in process memory
type MemoryUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]models.User)}
}

func (s *MemoryUserStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryUserStore) Save(ctx context.Context, u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(u.Email)
	if existing, ok := s.users[key]; ok {
		u.ID = existing.ID
	} else {
		u.ID = primitive.NewObjectID()
	}
	s.users[key] = u
	return u, nil
}
