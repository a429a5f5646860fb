// Package respond writes the API's JSON bodies: cacheable payloads with
// ETag handling, uncached objects, and the error envelope.
package respond

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/albapepper/scoracle-predict/internal/cache"
)

// ErrorBody is the inner object of an error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// ErrorResponse is the error shape for all API errors.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Payload is a pre-encoded JSON body served from (or just stored in) the
// cache.
type Payload struct {
	Data []byte
	ETag string
	TTL  time.Duration
	Hit  bool
}

// WritePayload answers 304 when the request's If-None-Match names the
// payload's ETag, otherwise writes the body. Both carry the cache headers.
func WritePayload(w http.ResponseWriter, r *http.Request, p Payload) {
	h := w.Header()
	h.Set("ETag", p.ETag)
	h.Set("Vary", "Accept-Encoding")
	h.Set("Cache-Control", cacheControl(p.TTL))
	if p.Hit {
		h.Set("X-Cache", "HIT")
	} else {
		h.Set("X-Cache", "MISS")
	}

	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), p.ETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	h.Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(p.Data)
}

// WriteJSONObject encodes v and writes it uncached.
func WriteJSONObject(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError sends the error envelope.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteErrorDetail(w, status, code, message, "")
}

// WriteErrorDetail sends the error envelope with a detail string.
func WriteErrorDetail(w http.ResponseWriter, status int, code, message, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: ErrorBody{Code: code, Message: message, Detail: detail}})
}

// cacheControl lets clients reuse a payload for its TTL and serve it stale
// for half as long again while revalidating.
func cacheControl(ttl time.Duration) string {
	maxAge := int(ttl.Seconds())
	return "public, max-age=" + strconv.Itoa(maxAge) +
		", stale-while-revalidate=" + strconv.Itoa(maxAge/2)
}
