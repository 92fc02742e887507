package req

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/Dhoini/customer-console/pkg/logger"
	"github.com/Dhoini/customer-console/pkg/res"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Encode marshals payload into a JSON request body. A nil payload gives a nil body.
func Encode(payload any) (io.Reader, error) {
	if payload == nil {
		return nil, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// Decode decodes JSON from body into T.
func Decode[T any](body io.Reader) (T, error) {
	return res.Decode[T](body)
}

// IsValid validates T using its `validate` struct tags.
func IsValid[T any](payload T) error {
	return validate.Struct(payload)
}

// HandleBody decodes and validates the request body. On failure it writes a
// 422 response and returns the error.
func HandleBody[T any](c *gin.Context, log *logger.Logger) (*T, error) {
	body, err := Decode[T](c.Request.Body)
	if err != nil {
		log.Warnw("Failed to decode request body", "error", err, "path", c.FullPath())
		c.JSON(http.StatusUnprocessableEntity, res.ErrorResponse{Error: "Malformed request body"})
		return nil, err
	}

	if err := IsValid(body); err != nil {
		log.Warnw("Request body failed validation", "error", err, "path", c.FullPath())
		c.JSON(http.StatusUnprocessableEntity, res.ErrorResponse{Error: "Invalid request data", Details: err.Error()})
		return nil, err
	}
	return &body, nil
}
