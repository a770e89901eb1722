package respond

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/hongminglow/aparthus-be/internal/storage"
)

// Envelope is the standard API response wrapper used across handlers.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes a success or informational response using the common envelope.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, Envelope{Code: status, Message: message, Data: data})
}

// Error writes an error response with the shared envelope structure.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Code: status, Message: message})
}

// StoreError maps storage sentinels onto HTTP statuses. Anything unrecognised is logged
// with op and answered with a generic 500.
func StoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrAlreadyExists):
		Error(w, http.StatusConflict, "already exists")
	case errors.Is(err, storage.ErrAlreadyPaid):
		Error(w, http.StatusConflict, "dues already paid")
	case errors.Is(err, storage.ErrInsufficientDue):
		Error(w, http.StatusBadRequest, "amount exceeds amount due")
	default:
		log.Printf("%s: %v", op, err)
		Error(w, http.StatusInternalServerError, "failed to "+op)
	}
}

func write(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("respond: encode payload failed: %v", err)
	}
}
