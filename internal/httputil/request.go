package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// maxJSONBody bounds editor JSON bodies. Files go through multipart.
const maxJSONBody = 1 << 20

// ParseJSON decodes JSON from the request body into the given destination.
// Unknown fields are rejected so typos in PATCH bodies don't pass silently.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
