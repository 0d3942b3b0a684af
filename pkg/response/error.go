package response

import (
	"encoding/json"
	"errors"
	"net/http"

	pkgErrors "github.com/vogiaan1904/spacehost/pkg/errors"
)

type Resp struct {
	ErrorCode int    `json:"error_code"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Errors    any    `json:"errors,omitempty"`
}

func parseHttpError(err error) (int, Resp) {
	var parsedErr *pkgErrors.HTTPError
	if errors.As(err, &parsedErr) {
		statusCode := parsedErr.StatusCode
		if statusCode == 0 {
			statusCode = http.StatusBadRequest
		}

		return statusCode, Resp{
			ErrorCode: parsedErr.Code,
			Message:   parsedErr.Message,
		}
	}

	return http.StatusInternalServerError, Resp{
		ErrorCode: 500,
		Message:   "Internal server error",
	}
}

// Error writes err as the JSON error envelope.
func Error(w http.ResponseWriter, err error) {
	statusCode, resp := parseHttpError(err)
	JSON(w, statusCode, resp)
}

// OK wraps data in a success envelope.
func OK(w http.ResponseWriter, statusCode int, data any) {
	JSON(w, statusCode, Resp{
		ErrorCode: 0,
		Message:   "Success",
		Data:      data,
	})
}

func JSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}
