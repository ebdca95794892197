// routes/routes.go
package routes

import (
	"net/http"

	"go-bookshop/controllers"
	"go-bookshop/middleware"

	"github.com/gorilla/mux"
)

// Controllers groups the handlers RegisterRoutes wires
type Controllers struct {
	Users       *controllers.UserController
	Books       *controllers.BookController
	Cart        *controllers.CartController
	Orders      *controllers.OrderController
	PrintOrders *controllers.PrintOrderController
}

// RegisterRoutes sets up all the routes for the application. submitLimiter
// guards checkout and print order submission.
func RegisterRoutes(router *mux.Router, c Controllers, submitLimiter *middleware.RateLimiter) {
	// Public routes
	router.HandleFunc("/login", c.Users.Login).Methods(http.MethodPost)

	// Catalog
	router.HandleFunc("/books", c.Books.GetBooks).Methods(http.MethodGet)
	router.HandleFunc("/books/featured", c.Books.GetFeaturedBooks).Methods(http.MethodGet)
	router.HandleFunc("/books/genres", c.Books.GetGenres).Methods(http.MethodGet)
	router.HandleFunc("/books/{id}", c.Books.GetBookByID).Methods(http.MethodGet)

	// Cart, keyed by the session token
	router.HandleFunc("/cart", c.Cart.GetCart).Methods(http.MethodGet)
	router.HandleFunc("/cart", c.Cart.ClearCart).Methods(http.MethodDelete)
	router.HandleFunc("/cart/items", c.Cart.AddToCart).Methods(http.MethodPost)
	router.HandleFunc("/cart/items/{book_id}", c.Cart.UpdateCartItem).Methods(http.MethodPatch)
	router.HandleFunc("/cart/items/{book_id}", c.Cart.RemoveFromCart).Methods(http.MethodDelete)
	router.Handle("/cart/checkout", submitLimiter.Middleware(http.HandlerFunc(c.Cart.Checkout))).Methods(http.MethodPost)

	// Print orders: customers upload their own PDF
	router.Handle("/print-orders", submitLimiter.Middleware(http.HandlerFunc(c.PrintOrders.SubmitPrintOrder))).Methods(http.MethodPost)

	// Protected routes
	protected := router.PathPrefix("/profile").Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("", c.Users.GetProfile).Methods(http.MethodGet)

	// Admin routes
	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AuthMiddleware)
	admin.Use(middleware.AdminMiddleware)
	admin.HandleFunc("/books", c.Books.CreateBook).Methods(http.MethodPost)
	admin.HandleFunc("/books/{id}", c.Books.UpdateBook).Methods(http.MethodPut)
	admin.HandleFunc("/books/{id}", c.Books.DeleteBook).Methods(http.MethodDelete)
	admin.HandleFunc("/orders", c.Orders.GetOrders).Methods(http.MethodGet)
	admin.HandleFunc("/orders/{id}", c.Orders.GetOrder).Methods(http.MethodGet)
	admin.HandleFunc("/orders/{id}", c.Orders.UpdateOrderStatus).Methods(http.MethodPatch)
	admin.HandleFunc("/orders/{id}", c.Orders.DeleteOrder).Methods(http.MethodDelete)
	admin.HandleFunc("/print-orders", c.PrintOrders.GetPrintOrders).Methods(http.MethodGet)
	admin.HandleFunc("/print-orders/{id}", c.PrintOrders.GetPrintOrder).Methods(http.MethodGet)
	admin.HandleFunc("/print-orders/{id}", c.PrintOrders.UpdatePrintOrderStatus).Methods(http.MethodPatch)
	admin.HandleFunc("/print-orders/{id}", c.PrintOrders.DeletePrintOrder).Methods(http.MethodDelete)
	admin.HandleFunc("/print-orders/{id}/file", c.PrintOrders.DownloadPrintOrderFile).Methods(http.MethodGet)
}
