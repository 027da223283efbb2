package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/alamigestion/server/internal/domain"
	"github.com/google/uuid"
)

// maxBodySize caps JSON request bodies at 1 MB. Image uploads go through
// multipart parsing with their own limit.
const maxBodySize = 1 << 20

// decodeJSON decodes the request body into dst, rejecting unknown fields
// and oversized bodies.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return domain.Invalid("", "Request body too large")
		}
		return domain.Wrap(err, domain.EINVALID, "", "Invalid JSON body")
	}

	// A second value means trailing garbage after the object.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return domain.Invalid("", "Request body must contain a single JSON object")
	}

	return nil
}

// respondJSON writes v as JSON with the given status.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// pathUUID parses the named path segment as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, domain.Invalid("", "Invalid ID in URL")
	}
	return id, nil
}
