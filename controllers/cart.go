package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go-bookshop/cart"
	"go-bookshop/catalog"
	"go-bookshop/models"
	"go-bookshop/orders"
	"go-bookshop/store"
	"go-bookshop/utils"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// SessionHeader lets API clients carry the cart session token themselves
	SessionHeader = "X-Cart-Session"
	sessionName   = "cart-session"
	sessionKey    = "token"
)

// CartController handles cart-related requests
type CartController struct {
	Registry *cart.Registry
	Catalog  *catalog.Service
	Orders   *orders.Service
	Sessions sessions.Store
}

// NewCartController creates a new CartController
func NewCartController(registry *cart.Registry, catalogService *catalog.Service, orderService *orders.Service, sessionStore sessions.Store) *CartController {
	return &CartController{
		Registry: registry,
		Catalog:  catalogService,
		Orders:   orderService,
		Sessions: sessionStore,
	}
}

type cartResponse struct {
	cart.State
	Notification *cart.Notification `json:"notification,omitempty"`
	Warning      string             `json:"warning,omitempty"`
}

// sessionToken returns the request's cart token, issuing one if needed
func (cc *CartController) sessionToken(w http.ResponseWriter, r *http.Request) (string, error) {
	if token := r.Header.Get(SessionHeader); token != "" {
		if !utils.ValidSessionToken(token) {
			return "", cart.ErrInvalidInput
		}
		w.Header().Set(SessionHeader, token)
		return token, nil
	}

	session, err := cc.Sessions.Get(r, sessionName)
	if err != nil {
		// unreadable cookie, e.g. after a key rotation: start over
		slog.Debug("Discarding cart session cookie", "error", err)
	}
	if token, ok := session.Values[sessionKey].(string); ok && utils.ValidSessionToken(token) {
		w.Header().Set(SessionHeader, token)
		return token, nil
	}

	token := utils.NewSessionToken(time.Now())
	session.Values[sessionKey] = token
	if err := session.Save(r, w); err != nil {
		return "", err
	}
	w.Header().Set(SessionHeader, token)
	return token, nil
}

// synchronizer resolves the session's cart. A load failure still yields a
// usable cart restored from the local snapshot, plus a warning.
func (cc *CartController) synchronizer(w http.ResponseWriter, r *http.Request) (*cart.Synchronizer, string, bool) {
	token, err := cc.sessionToken(w, r)
	if err != nil {
		http.Error(w, "Invalid cart session", http.StatusBadRequest)
		return nil, "", false
	}
	sc, err := cc.Registry.Get(r.Context(), token)
	if err != nil {
		var loadErr *cart.LoadError
		if errors.As(err, &loadErr) && sc != nil {
			if sc.State().Stale {
				return sc, "Using saved cart. You may need to refresh.", true
			}
			return sc, "Failed to load cart", true
		}
		http.Error(w, "Failed to load cart", http.StatusBadGateway)
		return nil, "", false
	}
	return sc, "", true
}

func (cc *CartController) respond(w http.ResponseWriter, status int, sc *cart.Synchronizer, state cart.State, warning string) {
	writeJSON(w, status, cartResponse{
		State:        state,
		Notification: sc.Notification(),
		Warning:      warning,
	})
}

func (cc *CartController) fail(w http.ResponseWriter, sc *cart.Synchronizer, err error) {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrConflict) {
		// the bound record was swept or rewritten elsewhere: reload on the next request
		cc.Registry.Invalidate(sc.Token())
	}
	writeJSON(w, cartErrorStatus(err), map[string]interface{}{
		"error": err.Error(),
		"cart":  sc.State(),
	})
}

// GetCart returns the session's cart
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	sc, warning, ok := cc.synchronizer(w, r)
	if !ok {
		return
	}
	cc.respond(w, http.StatusOK, sc, sc.State(), warning)
}

// AddToCart adds a book to the session's cart
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookID   string `json:"book_id"`
		Quantity int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	bookID, err := primitive.ObjectIDFromHex(req.BookID)
	if err != nil {
		http.Error(w, "Invalid book ID", http.StatusBadRequest)
		return
	}

	sc, warning, ok := cc.synchronizer(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	book, err := cc.Catalog.Get(ctx, bookID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Book not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Error fetching book", http.StatusInternalServerError)
		return
	}

	state, err := sc.AddItem(ctx, cart.ProductFromBook(book), req.Quantity)
	if err != nil {
		cc.fail(w, sc, err)
		return
	}
	cc.respond(w, http.StatusOK, sc, state, warning)
}

// UpdateCartItem sets the quantity of a book; zero removes it
func (cc *CartController) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity *int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	sc, warning, ok := cc.synchronizer(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	state, err := sc.UpdateQuantity(ctx, mux.Vars(r)["book_id"], *req.Quantity)
	if err != nil {
		cc.fail(w, sc, err)
		return
	}
	cc.respond(w, http.StatusOK, sc, state, warning)
}

// RemoveFromCart removes a book from the session's cart
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	sc, warning, ok := cc.synchronizer(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	state, err := sc.RemoveItem(ctx, mux.Vars(r)["book_id"])
	if err != nil {
		cc.fail(w, sc, err)
		return
	}
	cc.respond(w, http.StatusOK, sc, state, warning)
}

// ClearCart empties the session's cart
func (cc *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	sc, warning, ok := cc.synchronizer(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	state, err := sc.ClearCart(ctx)
	if err != nil {
		cc.fail(w, sc, err)
		return
	}
	cc.respond(w, http.StatusOK, sc, state, warning)
}

// Checkout submits the session's cart as an order
func (cc *CartController) Checkout(w http.ResponseWriter, r *http.Request) {
	var payload models.CheckoutPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}
	customer := payload.Customer()
	if errs := utils.ValidateCustomerInfo(customer); errs != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"errors": errs})
		return
	}

	sc, _, ok := cc.synchronizer(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	items := sc.State().Items
	receipt, err := sc.Checkout(ctx, payload)
	if err != nil {
		cc.fail(w, sc, err)
		return
	}
	cc.Orders.NotifyPlaced(customer, receipt, items)

	writeJSON(w, http.StatusCreated, receipt)
}
