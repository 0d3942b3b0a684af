package errors

type HTTPError struct {
	Code       int
	Message    string
	StatusCode int
}

func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// WithStatus returns a copy carrying the HTTP status to respond with.
func (e *HTTPError) WithStatus(statusCode int) *HTTPError {
	cp := *e
	cp.StatusCode = statusCode
	return &cp
}

func (e HTTPError) Error() string {
	return e.Message
}
