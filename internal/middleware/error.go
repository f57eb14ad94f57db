package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// SuccessResponse is the envelope for every successful response
type SuccessResponse struct {
	Status  bool        `json:"status"`
	Message *string     `json:"message"`
	Data    interface{} `json:"data"`
}

// ErrorResponse is the envelope for every failed response. Message is either
// a string or a map of field name to messages.
type ErrorResponse struct {
	Status  bool        `json:"status"`
	Message interface{} `json:"message"`
}

// MsgInternalError is sent for unexpected failures; the cause is only logged.
const MsgInternalError = "internal server error"

// RespondSuccess sends data wrapped in the success envelope. An empty message
// is rendered as null.
func RespondSuccess(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	response := SuccessResponse{Status: true, Data: data}
	if message != "" {
		response.Message = &message
	}
	writeJSON(w, statusCode, response)
}

// RespondWithError sends a single-message error envelope
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{Status: false, Message: message})
}

// RespondWithValidationErrors sends field errors with 422
func RespondWithValidationErrors(w http.ResponseWriter, fields map[string][]string) {
	writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Status: false, Message: fields})
}

// ErrorHandlingMiddleware catches panics and converts them to 500 errors
func ErrorHandlingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("Panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
					)

					RespondWithError(w, http.StatusInternalServerError, MsgInternalError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes before writing the header so an encoding failure can
// still produce a 500.
func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status":false,"message":"` + MsgInternalError + `"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(buf.Bytes())
}
