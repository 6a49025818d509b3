package request

import "net/http"

// ClientWriter wraps a ResponseWriter and records the status code written
// to it, for request metrics.
type ClientWriter struct {
	http.ResponseWriter

	// statusCode is the recorded status code.
	statusCode int
}

// NewClientWriter creates a new ClientWriter.
func NewClientWriter(w http.ResponseWriter) *ClientWriter {
	return &ClientWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (c *ClientWriter) WriteHeader(statusCode int) {
	c.statusCode = statusCode
	c.ResponseWriter.WriteHeader(statusCode)
}

// StatusCode returns the status code written to the response.
func (c *ClientWriter) StatusCode() int {
	return c.statusCode
}
