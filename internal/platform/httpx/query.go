package httpx

import (
	"fmt"
	"net/http"
	"strconv"
)

// QueryInt parses an integer query parameter, returning def when absent.
func QueryInt(r *http.Request, name string, def int64) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrValidation, name)
	}
	return v, nil
}
