// ABOUTME: Tests for the catalog HTTP client and payload validation.
// ABOUTME: Uses httptest servers to exercise timeout, status, and format failures.
package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2389-research/mirrorview/internal/logging"
	"github.com/2389-research/mirrorview/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchSendsAcceptAndParses(t *testing.T) {
	var accept string
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(`[{"title":"Adobe Photoshop","link":"https://w.org/ps","links":["https://pb.wtf/ps"],"date":"2024"}]`))
	})

	c := NewClient(srv.URL, WithClientLogger(logging.Discard()))
	cat, err := c.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "application/json", accept)
	require.Len(t, cat, 1)
	assert.Equal(t, "Adobe Photoshop", cat[0].Title)
	assert.Equal(t, []string{"https://pb.wtf/ps"}, cat[0].Links)
}

func TestParseDropsMalformedElements(t *testing.T) {
	payload := `[
		{"title":"Good","link":"https://w.org/good","links":["https://m/1"]},
		{"title":"No links","link":"https://w.org/nolinks"},
		{"title":7,"link":"https://w.org/num","links":[]},
		{"title":"Bad links","link":"https://w.org/bad","links":"https://m/1"},
		null,
		"string element"
	]`

	cat, err := Parse([]byte(payload))
	require.NoError(t, err)
	require.Len(t, cat, 1)
	assert.Equal(t, "https://w.org/good", cat[0].Link)
}

func TestParseKeepsPostWithNonStringLinks(t *testing.T) {
	cat, err := Parse([]byte(`[{"title":"Mixed","link":"https://w.org/mixed","links":["https://m/1",3,null,{"u":"x"},"https://m/2"]}]`))
	require.NoError(t, err)
	require.Len(t, cat, 1)
	assert.Equal(t, "https://w.org/mixed", cat[0].Link)
	assert.Equal(t, []string{"https://m/1", "https://m/2"}, cat[0].Links)
}

func TestParseEmptyLinksKept(t *testing.T) {
	cat, err := Parse([]byte(`[{"title":"Empty","link":"https://w.org/e","links":[]}]`))
	require.NoError(t, err)
	require.Len(t, cat, 1)
	assert.NotNil(t, cat[0].Links)
	assert.Empty(t, cat[0].Links)
}

func TestParseRejectsNonArray(t *testing.T) {
	for _, payload := range []string{`{"title":"x"}`, `null`, `not json`, `42`} {
		_, err := Parse([]byte(payload))
		assert.ErrorIs(t, err, ErrFetchFormat, "payload %q", payload)
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	})

	_, err := NewClient(srv.URL, WithClientLogger(logging.Discard())).Fetch(context.Background())
	require.ErrorIs(t, err, ErrFetchHTTP)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusServiceUnavailable, fe.StatusCode)
	assert.True(t, fe.Retryable())
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	m := metrics.New()
	c := NewClient(srv.URL,
		WithTimeout(50*time.Millisecond),
		WithClientLogger(logging.Discard()),
		WithClientMetrics(m))

	_, err := c.Fetch(context.Background())
	require.ErrorIs(t, err, ErrFetchTimeout)
	assert.NotErrorIs(t, err, ErrFetchNetwork)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogFetches.WithLabelValues("timeout")))
}

func TestFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, WithClientLogger(logging.Discard())).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrFetchNetwork)
}

func TestFetchErrorFormatIsNotRetryable(t *testing.T) {
	fe := &FetchError{Kind: KindFormat, Err: errors.New("bad")}
	assert.False(t, fe.Retryable())
	assert.Contains(t, fe.Error(), "format")
}
