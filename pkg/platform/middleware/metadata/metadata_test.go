package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusid/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{
			name:       "first forwarded address wins",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"},
			remoteAddr: "10.0.0.2:5555",
			expected:   "203.0.113.9",
		},
		{
			name:       "real ip header",
			headers:    map[string]string{"X-Real-IP": " 198.51.100.4 "},
			remoteAddr: "10.0.0.2:5555",
			expected:   "198.51.100.4",
		},
		{
			name:       "ipv4 remote addr",
			remoteAddr: "192.0.2.1:1234",
			expected:   "192.0.2.1",
		},
		{
			name:       "ipv6 remote addr",
			remoteAddr: "[::1]:1234",
			expected:   "::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, ClientIPFromRequest(r))
		})
	}
}

func TestDeviceSummary(t *testing.T) {
	assert.Empty(t, DeviceSummary(""))

	chrome := "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	summary := DeviceSummary(chrome)
	assert.Contains(t, summary, "Chrome")
	assert.Contains(t, summary, "Linux")
}

func TestClientMetadataMiddleware(t *testing.T) {
	var captured *http.Request
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
	})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	r.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	ClientMetadata(next).ServeHTTP(httptest.NewRecorder(), r)

	require.NotNil(t, captured)
	ctx := captured.Context()
	assert.Equal(t, "192.0.2.1", requestcontext.ClientIP(ctx))
	assert.NotEmpty(t, requestcontext.UserAgent(ctx))
	assert.Contains(t, requestcontext.Device(ctx), "Chrome")
}
