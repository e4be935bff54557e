package chi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDeviceID(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "device id",
			headers: map[string]string{"X-Device-ID": "abc123"},
			want:    "device_abc123",
		},
		{
			name:    "mac address",
			headers: map[string]string{"X-Mac-Address": "aa:bb:cc:dd:ee:ff"},
			want:    "mac_aa:bb:cc:dd:ee:ff",
		},
		{
			name: "device id wins over mac",
			headers: map[string]string{
				"X-Device-ID":   "abc123",
				"X-Mac-Address": "aa:bb:cc:dd:ee:ff",
				"X-User-Agent":  "curl/8.0",
			},
			want: "device_abc123",
		},
		{
			name:    "no headers yields anonymous",
			headers: nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := DeviceID(req); got != tt.want {
				t.Errorf("DeviceID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeviceIDHashesUserAgent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-Agent", "curl/8.0")
	got := DeviceID(req)
	if !strings.HasPrefix(got, "ua_") {
		t.Fatalf("DeviceID() = %q, want ua_ prefix", got)
	}
	if got == "ua_" {
		t.Error("hash is empty")
	}

	// Same agent, same bucket.
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.Header.Set("X-User-Agent", "curl/8.0")
	if other := DeviceID(req2); other != got {
		t.Errorf("same user agent produced different ids: %q vs %q", got, other)
	}

	// Different agent, different bucket.
	req3 := httptest.NewRequest(http.MethodGet, "/", nil)
	req3.Header.Set("X-User-Agent", "Mozilla/5.0")
	if other := DeviceID(req3); other == got {
		t.Error("different user agents share an id")
	}
}
