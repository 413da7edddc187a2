package response

import "github.com/gin-gonic/gin"

// FieldError is a single validation failure in the envelope errors list.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Envelope is the uniform JSON wrapper around every response body.
type Envelope struct {
	Success bool         `json:"success"`
	Data    any          `json:"data,omitempty"`
	Count   *int         `json:"count,omitempty"`
	Message string       `json:"message"`
	Error   string       `json:"error,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// OK writes a success envelope with the given status code.
func OK(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Envelope{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// List writes a success envelope carrying a collection and its count.
func List(c *gin.Context, status int, data any, count int, message string) {
	c.JSON(status, Envelope{
		Success: true,
		Data:    data,
		Count:   &count,
		Message: message,
	})
}

// Fail writes a failure envelope. detail is an optional short, stable
// string; internal error text never belongs here.
func Fail(c *gin.Context, status int, message, detail string) {
	c.JSON(status, Envelope{
		Success: false,
		Message: message,
		Error:   detail,
	})
}

// ValidationFailed writes a 400 envelope listing the failed checks.
func ValidationFailed(c *gin.Context, status int, errs []FieldError) {
	c.JSON(status, Envelope{
		Success: false,
		Message: "Validation failed",
		Errors:  errs,
	})
}
