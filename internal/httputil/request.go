package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 10 << 20

// ParseJSON decodes JSON from the request body into dest.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// DecodeAndValidate parses the body and runs struct validation. It writes
// the 400 response itself and reports whether the handler may continue.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := ParseJSON(w, r, dest); err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	if err := Validate(dest); err != nil {
		RespondValidation(w, err)
		return false
	}
	return true
}
