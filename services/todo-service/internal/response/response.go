package response

import (
	"encoding/json"
	"net/http"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Data       any                 `json:"data,omitempty"`
	Token      string              `json:"token,omitempty"`
	Errors     map[string][]string `json:"errors,omitempty"`
	Error      string              `json:"error,omitempty"`
	Pagination any                 `json:"pagination,omitempty"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v)
}

// Success writes a successful envelope carrying data.
func Success(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// Fail writes an unsuccessful envelope with only a message.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: false, Message: message})
}

// Invalid writes a 400 envelope carrying field-level errors.
func Invalid(w http.ResponseWriter, message string, fields map[string][]string) {
	JSON(w, http.StatusBadRequest, Envelope{Success: false, Message: message, Errors: fields})
}
