package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go-bookshop/cart"
	"go-bookshop/store"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// cartErrorStatus maps synchronizer errors onto HTTP statuses
func cartErrorStatus(err error) int {
	var (
		loadErr     *cart.LoadError
		mutationErr *cart.MutationError
		checkoutErr *cart.CheckoutError
	)
	switch {
	case errors.Is(err, cart.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, cart.ErrNoActiveCart), errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.As(err, &loadErr), errors.As(err, &mutationErr), errors.As(err, &checkoutErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
