package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go-bookshop/printorders"
	"go-bookshop/store"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// form fields beyond this stay in memory; the rest spills to temp files
const multipartMemory = 8 << 20

// PrintOrderController handles print order submissions and their back office
type PrintOrderController struct {
	PrintOrders *printorders.Service
}

// NewPrintOrderController creates a new PrintOrderController
func NewPrintOrderController(service *printorders.Service) *PrintOrderController {
	return &PrintOrderController{PrintOrders: service}
}

// SubmitPrintOrder accepts the multipart print order form with its PDF in
// the bookFile field
func (pc *PrintOrderController) SubmitPrintOrder(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, printorders.MaxFileSize+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Book file is too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	sub := printorders.Submission{
		Name:        r.FormValue("name"),
		Surname:     r.FormValue("surname"),
		Phone:       r.FormValue("phone"),
		Address:     r.FormValue("address"),
		Email:       r.FormValue("email"),
		Quantity:    r.FormValue("quantity"),
		Description: r.FormValue("description"),
	}
	file, header, err := r.FormFile("bookFile")
	switch {
	case err == nil:
		defer file.Close()
		if header.Size > printorders.MaxFileSize {
			http.Error(w, "Book file is too large", http.StatusRequestEntityTooLarge)
			return
		}
		sub.File = file
		sub.FileName = header.Filename
		sub.ContentType = header.Header.Get("Content-Type")
	case errors.Is(err, http.ErrMissingFile):
	default:
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()
	order, err := pc.PrintOrders.Submit(ctx, sub)
	var invalid *printorders.ValidationError
	if errors.As(err, &invalid) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"errors": invalid.Fields})
		return
	}
	if err != nil {
		slog.Error("Error submitting print order", "error", err)
		http.Error(w, "Failed to submit print order", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// GetPrintOrders lists print orders, optionally filtered by ?status=
func (pc *PrintOrderController) GetPrintOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := pc.PrintOrders.List(ctx, r.URL.Query().Get("status"))
	if err != nil {
		writePrintOrderError(w, err, "Failed to load print orders")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetPrintOrder returns one print order
func (pc *PrintOrderController) GetPrintOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := printOrderIDFrom(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	order, err := pc.PrintOrders.Get(ctx, id)
	if err != nil {
		writePrintOrderError(w, err, "Failed to load print order")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// UpdatePrintOrderStatus moves a print order to another status
func (pc *PrintOrderController) UpdatePrintOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := printOrderIDFrom(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	updated, err := pc.PrintOrders.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		writePrintOrderError(w, err, "Failed to update print order status")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeletePrintOrder removes a print order and its file
func (pc *PrintOrderController) DeletePrintOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := printOrderIDFrom(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := pc.PrintOrders.Delete(ctx, id); err != nil {
		writePrintOrderError(w, err, "Failed to delete print order")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DownloadPrintOrderFile streams the order's PDF
func (pc *PrintOrderController) DownloadPrintOrderFile(w http.ResponseWriter, r *http.Request) {
	id, ok := printOrderIDFrom(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	order, file, err := pc.PrintOrders.File(ctx, id)
	if err != nil {
		writePrintOrderError(w, err, "Failed to load print file")
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", order.FileName))
	if order.FileSize > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(order.FileSize, 10))
	}
	if _, err := io.Copy(w, file); err != nil {
		slog.Warn("Print file download interrupted", "print_order_id", id.Hex(), "error", err)
	}
}

func printOrderIDFrom(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid print order ID", http.StatusBadRequest)
		return primitive.NilObjectID, false
	}
	return id, true
}

func writePrintOrderError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, printorders.ErrInvalidStatus):
		http.Error(w, "Invalid print order status", http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "Print order not found", http.StatusNotFound)
	default:
		slog.Error(msg, "error", err)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}
