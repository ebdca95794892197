// controllers/order.go
package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go-bookshop/orders"
	"go-bookshop/store"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderController handles back-office order requests
type OrderController struct {
	Orders *orders.Service
}

// NewOrderController creates a new OrderController
func NewOrderController(orderService *orders.Service) *OrderController {
	return &OrderController{Orders: orderService}
}

// GetOrders lists orders, optionally filtered by ?status=
func (oc *OrderController) GetOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := oc.Orders.List(ctx, r.URL.Query().Get("status"))
	if errors.Is(err, orders.ErrInvalidStatus) {
		http.Error(w, "Invalid order status", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "Failed to load orders", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetOrder returns one order
func (oc *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDFrom(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	order, err := oc.Orders.Get(ctx, orderID)
	if err != nil {
		writeOrderError(w, err, "Failed to load order")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// UpdateOrderStatus allows admin to update an order's status
func (oc *OrderController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDFrom(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"` // "pending", "confirmed", "completed"
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	updated, err := oc.Orders.UpdateStatus(ctx, orderID, req.Status)
	if err != nil {
		writeOrderError(w, err, "Failed to update order status")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteOrder allows admin to delete an order
func (oc *OrderController) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDFrom(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := oc.Orders.Delete(ctx, orderID); err != nil {
		writeOrderError(w, err, "Failed to delete order")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func orderIDFrom(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return primitive.NilObjectID, false
	}
	return id, true
}

func writeOrderError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, orders.ErrInvalidStatus):
		http.Error(w, "Invalid order status", http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound), errors.Is(err, orders.ErrNotAnOrder):
		http.Error(w, "Order not found", http.StatusNotFound)
	case errors.Is(err, store.ErrConflict):
		http.Error(w, "Order was modified, reload and try again", http.StatusConflict)
	default:
		http.Error(w, msg, http.StatusInternalServerError)
	}
}
