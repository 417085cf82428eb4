package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"configuration", ErrConfiguration, http.StatusBadRequest},
		{"unknown format", fmt.Errorf("format %q: %w", "xml", ErrUnknownFormat), http.StatusBadRequest},
		{"malformed geo", ErrMalformedGeo, http.StatusBadRequest},
		{"backend", Wrap(ErrBackend, errors.New("boom")), http.StatusBadGateway},
		{"timeout", ErrBackendTimeout, http.StatusGatewayTimeout},
		{"unavailable", ErrUnavailable, http.StatusServiceUnavailable},
		{"app error", New(ErrBackend, http.StatusTeapot, "short and stout"), http.StatusTeapot},
		{"other", errors.New("other"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusCode(tt.err); got != tt.want {
				t.Errorf("HTTPStatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrInvalidInput, http.StatusBadRequest, "bad value %q", "x")

	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected error to match ErrInvalidInput")
	}

	if got, want := err.Error(), `invalid input: bad value "x"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
