// internal/app/system/httpjson/httpjson.go
package httpjson

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/eventrahq/eventra/internal/app/system/apperr"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Write sends v as a JSON response with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the wire shape for all failed requests.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Error sends err as a JSON error response. The status and body come
// from the apperr kind; foreign errors become opaque 500s.
func Error(w http.ResponseWriter, err error) {
	Write(w, apperr.Status(err), errorBody{
		Error: apperr.MessageOf(err),
		Kind:  string(apperr.KindOf(err)),
	})
}

// Decode reads the request body into v. It limits the body size and
// rejects unknown fields so client typos fail loudly.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Wrap(apperr.KindInvalid, "malformed request body", err)
	}
	// A second token means trailing garbage after the JSON document.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperr.New(apperr.KindInvalid, "malformed request body")
	}
	return nil
}
