package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go-bookshop/catalog"
	"go-bookshop/models"
	"go-bookshop/store"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookController handles catalog requests
type BookController struct {
	Catalog *catalog.Service
}

// NewBookController creates a new BookController
func NewBookController(catalogService *catalog.Service) *BookController {
	return &BookController{Catalog: catalogService}
}

// GetBooks lists books. Query parameters: q, genre (repeatable), min_price, max_price.
func (bc *BookController) GetBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := catalog.Filter{
		Search: query.Get("q"),
		Genres: query["genre"],
	}
	for param, dst := range map[string]**models.Money{"min_price": &filter.MinPrice, "max_price": &filter.MaxPrice} {
		v := query.Get(param)
		if v == "" {
			continue
		}
		m, err := models.ParseMoney(v)
		if err != nil {
			http.Error(w, "Invalid "+param, http.StatusBadRequest)
			return
		}
		*dst = &m
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	books, err := bc.Catalog.List(ctx, filter)
	if err != nil {
		http.Error(w, "Error fetching books", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

// GetFeaturedBooks lists books the back office marked as featured
func (bc *BookController) GetFeaturedBooks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	books, err := bc.Catalog.Featured(ctx)
	if err != nil {
		http.Error(w, "Failed to load featured books", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

// GetGenres lists the catalog's genres
func (bc *BookController) GetGenres(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	genres, err := bc.Catalog.Genres(ctx)
	if err != nil {
		http.Error(w, "Error fetching genres", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, genres)
}

// GetBookByID retrieves a single book by ID
func (bc *BookController) GetBookByID(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid book ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	book, err := bc.Catalog.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Book not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Error fetching book", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// CreateBook handles adding a new book (Admin only)
func (bc *BookController) CreateBook(w http.ResponseWriter, r *http.Request) {
	var book models.Book
	if err := json.NewDecoder(r.Body).Decode(&book); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	created, err := bc.Catalog.Create(ctx, book)
	if errors.Is(err, catalog.ErrInvalidBook) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "Error creating book", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateBook handles updating a book (Admin only)
func (bc *BookController) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid book ID", http.StatusBadRequest)
		return
	}
	var book models.Book
	if err := json.NewDecoder(r.Body).Decode(&book); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}
	book.ID = id

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	updated, err := bc.Catalog.Update(ctx, book)
	switch {
	case errors.Is(err, catalog.ErrInvalidBook):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "Book not found", http.StatusNotFound)
	case err != nil:
		http.Error(w, "Error updating book", http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, updated)
	}
}

// DeleteBook handles deleting a book (Admin only)
func (bc *BookController) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid book ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	err = bc.Catalog.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Book not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Error deleting book", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
