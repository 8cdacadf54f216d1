package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTagExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/repositories/acme/neon_tests/tags/v1.2.x":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "acme")

	ok, err := c.TagExists(context.Background(), "neon_tests", "v1.2.x")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.TagExists(context.Background(), "neon_tests", "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTagExists_TransportErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from now on

	c := NewClient(srv.URL, "acme")
	_, err := c.TagExists(context.Background(), "neon_tests", "v1.2.x")
	require.Error(t, err)
}
