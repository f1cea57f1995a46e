package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/comanda-pos/api/internal/money"
	"github.com/comanda-pos/api/internal/service"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

// statusFor maps service errors onto HTTP statuses: bad input 400,
// conflicts 409, missing records 404, business rule violations 422.
// Anything unrecognized is a 500 and gets logged.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidProductID),
		errors.Is(err, service.ErrInvalidTableNumber),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidDiscount),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidTaxRate),
		errors.Is(err, service.ErrInvalidPeriod),
		errors.Is(err, money.ErrInvalidAmount):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrTableOccupied),
		errors.Is(err, service.ErrDuplicateOrderNumber),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrStatusRace):
		return http.StatusConflict

	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrOrderItemNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrTableNotFound),
		errors.Is(err, service.ErrNoActiveOrder):
		return http.StatusNotFound

	case errors.Is(err, service.ErrProductUnavailable),
		errors.Is(err, service.ErrOrderTerminal),
		errors.Is(err, service.ErrInsufficientPayment),
		errors.Is(err, service.ErrSequenceExhausted):
		return http.StatusUnprocessableEntity
	}

	log.Printf("ERROR: %v", err)
	return http.StatusInternalServerError
}

// --- Conversion helpers ---

func numericString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func numericPtr(n pgtype.Numeric) *string {
	if !n.Valid {
		return nil
	}
	s := numericString(n)
	return &s
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func int4Ptr(i pgtype.Int4) *int32 {
	if !i.Valid {
		return nil
	}
	return &i.Int32
}
