package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yuvi90/chatapp/internal/apperrors"
)

var validate = validator.New()

func init() {
	// Report on json tag name instead of the Go field name
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

type Struct any

// Response is the uniform envelope every endpoint answers with.
// Status is true for 2xx responses, false otherwise.
type Response struct {
	StatusCode int      `json:"statusCode"`
	Status     bool     `json:"status"`
	Message    string   `json:"message"`
	Data       any      `json:"data,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

// JSON renders a success envelope with the given status code.
func JSON(w http.ResponseWriter, code int, message string, data any) {
	writeJSON(w, code, Response{
		StatusCode: code,
		Status:     code < 400,
		Message:    message,
		Data:       data,
	})
}

// Error is the single failure boundary: every error a handler sees ends
// up here. Unknown errors render as a plain 500, app errors keep their
// status, message and field details.
func Error(w http.ResponseWriter, err error) {
	appErr := apperrors.FromError(err)
	writeJSON(w, appErr.Status, Response{
		StatusCode: appErr.Status,
		Status:     false,
		Message:    appErr.Message,
		Errors:     appErr.Fields,
	})
}

// BindAndValidate decodes the JSON request body into T and validates it
// using struct tags. Decoding and validation failures are rendered for the
// caller; the returned error only signals the handler should stop.
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	if err := json.NewDecoder(r.Body).Decode(&value); err != nil {
		Error(w, apperrors.Validation(decodeMessage(err)))
		return value, err
	}

	if err := validate.Struct(value); err != nil {
		// cast is safe: T is always a struct here
		errs := err.(validator.ValidationErrors)
		Error(w, apperrors.Validation("Request validation failed!", fieldMessages(errs)...))
		return value, err
	}

	return value, nil
}

func decodeMessage(err error) string {
	switch err := err.(type) {
	case *json.UnmarshalTypeError:
		return fmt.Sprintf("Invalid data type for field '%s'", err.Field)
	default:
		return "Failed to parse request body"
	}
}

// fieldMessages builds user-facing messages from validation tags
func fieldMessages(errs validator.ValidationErrors) []string {
	messages := make([]string, 0, len(errs))

	for _, fieldError := range errs {
		var message string
		switch fieldError.Tag() {
		case "required":
			message = "This field is required"
		case "min":
			message = fmt.Sprintf("Value is too short (minimum %s)", fieldError.Param())
		case "max":
			message = fmt.Sprintf("Value is too long (maximum %s)", fieldError.Param())
		case "email":
			message = "Invalid email address"
		case "oneof":
			message = fmt.Sprintf("Value must be one of: %s", fieldError.Param())
		default:
			message = "Invalid value"
		}

		messages = append(messages, fmt.Sprintf("%s: %s", fieldError.Field(), message))
	}

	return messages
}

// writeJSON encodes into a buffer first so a marshal failure can still
// change the response code
func writeJSON(w http.ResponseWriter, code int, data any) {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
