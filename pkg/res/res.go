package res

import (
	"encoding/json"
	"io"
	"net/http"
)

// ErrorResponse is the JSON body of a failed record store call.
type ErrorResponse struct {
	Error     string `json:"error"`                // message for the user
	ErrorCode string `json:"error_code,omitempty"` // machine readable code
	Details   any    `json:"details,omitempty"`    // e.g. field validation errors
}

// JsonResponse writes data as JSON with the given status.
func JsonResponse(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Decode decodes a JSON response body into T.
func Decode[T any](body io.Reader) (T, error) {
	var payload T
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return payload, err
	}
	return payload, nil
}

// DecodeError extracts the message of an ErrorResponse body. Bodies that are
// not an ErrorResponse yield "".
func DecodeError(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return ""
	}
	return errResp.Error
}
