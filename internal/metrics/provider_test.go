package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"nexabuild-assistant/internal/domain"
	"nexabuild-assistant/internal/integrations/upstream"
)

func TestObserveProvider(t *testing.T) {
	pm := NewProviderMetrics(nil)

	pm.ObserveProvider(domain.ProviderGemini, "gemini-2.0-flash", 120*time.Millisecond, nil)
	pm.ObserveProvider(domain.ProviderGemini, "gemini-2.0-flash", time.Second, &upstream.Error{Provider: domain.ProviderGemini, StatusCode: 503})
	pm.ObserveProvider(domain.ProviderOllama, "llama3", time.Second, &upstream.Error{Provider: domain.ProviderOllama, Err: context.DeadlineExceeded})

	require.Equal(t, 1.0, testutil.ToFloat64(pm.requests.WithLabelValues("gemini", "gemini-2.0-flash", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(pm.requests.WithLabelValues("gemini", "gemini-2.0-flash", "error")))
	require.Equal(t, 1.0, testutil.ToFloat64(pm.errors.WithLabelValues("gemini", "server_error")))
	require.Equal(t, 1.0, testutil.ToFloat64(pm.errors.WithLabelValues("ollama", "network")))
	require.Equal(t, 2, testutil.CollectAndCount(pm.latency))
}

func TestErrorType(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("x: %w", upstream.ErrMissingCredential), "config"},
		{errors.New("boom"), "unknown"},
		{&upstream.Error{StatusCode: 429}, "rate_limit"},
		{&upstream.Error{StatusCode: 401}, "auth"},
		{&upstream.Error{StatusCode: 403}, "auth"},
		{&upstream.Error{StatusCode: 502}, "server_error"},
		{&upstream.Error{StatusCode: 400}, "status_400"},
		{&upstream.Error{}, "network"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, errorType(tc.err), "err=%v", tc.err)
	}
}

func TestHandler(t *testing.T) {
	pm := NewProviderMetrics(nil)
	pm.ObserveProvider(domain.ProviderOpenAI, "gpt-4o-mini", time.Millisecond, nil)

	srv := httptest.NewServer(pm.Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(body), "nexabuild_assistant_provider_requests_total")
}
