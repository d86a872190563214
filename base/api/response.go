package api

import (
	"errors"
	"net/http"

	"github.com/safing/structures/dsd"

	"github.com/safing/rdapboot/base/log"
)

// LoggingResponseWriter is a wrapper for http.ResponseWriter for better request logging.
type LoggingResponseWriter struct {
	ResponseWriter http.ResponseWriter
	Request        *http.Request
	Status         int
}

// NewLoggingResponseWriter wraps a http.ResponseWriter.
func NewLoggingResponseWriter(w http.ResponseWriter, r *http.Request) *LoggingResponseWriter {
	return &LoggingResponseWriter{
		ResponseWriter: w,
		Request:        r,
		Status:         http.StatusOK,
	}
}

// Header wraps the original Header method.
func (lrw *LoggingResponseWriter) Header() http.Header {
	return lrw.ResponseWriter.Header()
}

// Write wraps the original Write method.
func (lrw *LoggingResponseWriter) Write(b []byte) (int, error) {
	return lrw.ResponseWriter.Write(b)
}

// WriteHeader wraps the original WriteHeader method to extract information.
func (lrw *LoggingResponseWriter) WriteHeader(code int) {
	lrw.Status = code
	lrw.ResponseWriter.WriteHeader(code)
}

// WriteData serializes v in the format requested by the Accept header of r,
// defaulting to JSON, and writes it with the given status code.
func WriteData(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, _, format, err := dsd.MimeDump(v, r.Header.Get("Accept"))
	if err != nil {
		if errors.Is(err, dsd.ErrIncompatibleFormat) {
			http.Error(w, "Unsupported format requested.", http.StatusNotAcceptable)
			return
		}
		log.Errorf("api: failed to serialize response: %s", err)
		http.Error(w, "Internal server error.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", dsd.FormatToMimeType[format])
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// ErrorResponse is the body of error responses.
type ErrorResponse struct {
	Error string `json:"error" yaml:"error"`
}

// WriteError writes err with the given status code.
func WriteError(w http.ResponseWriter, r *http.Request, status int, err error) {
	WriteData(w, r, status, &ErrorResponse{Error: err.Error()})
}
