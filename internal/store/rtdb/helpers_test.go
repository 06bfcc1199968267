package rtdb

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func newStatusServer(t *testing.T, status int, calls *int) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}
