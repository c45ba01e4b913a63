package handler

import (
	"net/http"

	"github.com/zhouzirui/finbot/backend/pkg/utils"
)

// envelopeMessages maps the statuses written by chi's BasicAuth and Throttle
// middleware to the message carried in the response envelope.
var envelopeMessages = map[int]string{
	http.StatusUnauthorized:    "Unauthorized",
	http.StatusTooManyRequests: "Too many requests, please retry later",
}

// envelopeErrors rewrites plain-text 401 and 429 responses from upstream
// middleware into the JSON envelope used by every other endpoint.
func envelopeErrors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&envelopeWriter{ResponseWriter: w}, r)
	})
}

type envelopeWriter struct {
	http.ResponseWriter
	wroteHeader bool
	swallow     bool
}

func (w *envelopeWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	msg, ok := envelopeMessages[status]
	if !ok {
		w.ResponseWriter.WriteHeader(status)
		return
	}
	w.swallow = true
	w.Header().Del("X-Content-Type-Options")
	utils.RespondError(w.ResponseWriter, status, msg)
}

func (w *envelopeWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if w.swallow {
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}

func (w *envelopeWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
