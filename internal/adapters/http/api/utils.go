package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// maxBodySize limits the size of request bodies to 1MB.
const maxBodySize = 1 << 20

// intQuery reads an optional integer query parameter. Zero means absent.
func intQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, ErrBadRequest)
	}
	return v, nil
}

// eventParams extracts the event code from the path and the optional season.
func eventParams(r *http.Request) (string, int, error) {
	code := chi.URLParam(r, "code")
	if code == "" {
		return "", 0, fmt.Errorf("event code is required: %w", ErrBadRequest)
	}
	season, err := intQuery(r, "season")
	if err != nil {
		return "", 0, err
	}
	return code, season, nil
}

// decode reads a JSON body into dst and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, op string, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("request body is empty")
		}
		return WrapKind(op, ErrBadRequest, err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}
