package web

import (
	"net/http"
)

// PageFunc returns the HTML page to send for an error status, if there is one.
type PageFunc func(statusCode int) ([]byte, bool)

// ErrorHandler replaces the body of 404 and 500 responses from h with the page
// returned by pages. It is meant for handlers like http.FileServer that write
// plain text errors.
func ErrorHandler(h http.Handler, pages PageFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writer := &responseWriter{
			ResponseWriter: w,
			pages:          pages,
		}
		h.ServeHTTP(writer, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	pages   PageFunc
	noWrite bool
	err     error
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if w.noWrite {
		return len(b), w.err
	}
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteHeader(statusCode int) {
	if statusCode == http.StatusNotFound || statusCode == http.StatusInternalServerError {
		if b, ok := w.pages(statusCode); ok {
			// special processing of response
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Del("X-Content-Type-Options")
			w.Header().Del("Content-Length")
			w.ResponseWriter.WriteHeader(statusCode)
			w.noWrite = true
			_, w.err = w.ResponseWriter.Write(b)
			return
		}
	}
	// normal processing
	w.ResponseWriter.WriteHeader(statusCode)
}
