package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"
)

// ParseDecimalParam reads a required decimal query parameter.
// On failure it writes a 400 response and returns false.
func ParseDecimalParam(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string) (decimal.Decimal, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("%s url parameter is required", key))
		return decimal.Zero, false
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, value))
		return decimal.Zero, false
	}
	return parsed, true
}
