// Package render holds the JSON plumbing shared by the HTTP handlers.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Decode reads a JSON body into v and runs its validate tags.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}

	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("field %s failed %q validation", fe.Field(), fe.Tag())
		}

		return err
	}

	return nil
}

// Money renders d as a bare JSON number in plain notation.
func Money(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// MoneySlice applies Money to every element of ds.
func MoneySlice(ds []decimal.Decimal) []json.Number {
	out := make([]json.Number, len(ds))
	for i, d := range ds {
		out[i] = Money(d)
	}

	return out
}

// InternalError logs err and answers 500 without leaking it.
func InternalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.ErrorContext(r.Context(), msg, "error", err, "path", r.URL.Path)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
