package collyfetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/y2cl/ljextractor/internal/harvest"
)

func TestFetcher_ReturnsBody(t *testing.T) {
	t.Parallel()

	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.UserAgent()
		w.Write([]byte("<html>post</html>"))
	}))
	defer srv.Close()

	f := New(Config{UserAgent: "harvest-agent", Timeout: 5 * time.Second})
	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, []byte("<html>post</html>"), body)
	require.Equal(t, "harvest-agent", gotAgent)
}

func TestFetcher_NotFoundIsTerminal(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})
	_, err := f.Fetch(context.Background(), srv.URL+"/12345.html")

	var ferr *harvest.FetchError
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, harvest.FetchNotFound, ferr.Kind)
	require.Equal(t, http.StatusNotFound, ferr.Status)
	require.False(t, ferr.Transient())
}

func TestFetcher_ServerErrorIsTransient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})
	_, err := f.Fetch(context.Background(), srv.URL)

	var ferr *harvest.FetchError
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, harvest.FetchHTTPStatus, ferr.Kind)
	require.Equal(t, http.StatusServiceUnavailable, ferr.Status)
	require.True(t, ferr.Transient())
}

func TestFetcher_UnreachableHost(t *testing.T) {
	t.Parallel()

	f := New(Config{Timeout: 2 * time.Second})
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/unroutable.html")

	var ferr *harvest.FetchError
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, harvest.FetchUnreachable, ferr.Kind)
	require.True(t, ferr.Transient())
}

func TestFetcher_SameURLTwice(t *testing.T) {
	t.Parallel()

	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	// retries re-issue the same URL; the visited check must not swallow them
	f := New(Config{Timeout: 5 * time.Second})
	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
	}
	require.Equal(t, 2, hits)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	require.Equal(t, harvest.FetchNotFound, classify("u", 404, nil).Kind)
	require.Equal(t, harvest.FetchHTTPStatus, classify("u", 429, nil).Kind)
	require.Equal(t, harvest.FetchHTTPStatus, classify("u", 500, nil).Kind)
	require.Equal(t, harvest.FetchHTTPStatus, classify("u", 403, nil).Kind)
	require.Equal(t, harvest.FetchMalformed, classify("u", 200, nil).Kind)
	require.Equal(t, harvest.FetchUnreachable, classify("u", 0, context.Canceled).Kind)
}
