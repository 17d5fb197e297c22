package httputil

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// RespondJSON writes a JSON response with the given status code.
// The payload is marshaled before headers are sent.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// RespondError writes {"message": msg} with the given status.
func RespondError(w http.ResponseWriter, status int, msg string) {
	RespondJSON(w, status, ErrorBody{Message: msg})
}

// RespondValidation writes a 400 carrying per-field messages.
func RespondValidation(w http.ResponseWriter, err error) {
	fields := ValidationDetails(err)
	msg := "Invalid request"
	if len(fields) > 0 {
		msg = fields[0].Message
	} else if err != nil {
		msg = err.Error()
	}
	RespondJSON(w, http.StatusBadRequest, ErrorBody{Message: msg, Errors: fields})
}
