package clientid

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "CDN header wins over forwarded chain",
			headers: map[string]string{HeaderCFConnectingIP: "203.0.113.7", HeaderForwardedFor: "1.2.3.4"},
			want:    "203.0.113.7",
		},
		{
			name:    "first address of forwarded chain",
			headers: map[string]string{HeaderForwardedFor: " 1.2.3.4 , 5.6.7.8"},
			want:    "1.2.3.4",
		},
		{
			name:    "real ip header",
			headers: map[string]string{HeaderRealIP: "10.0.0.1"},
			want:    "10.0.0.1",
		},
		{
			name:    "real client ip header",
			headers: map[string]string{HeaderRealClientIP: "2001:db8::1"},
			want:    "2001:db8::1",
		},
		{
			name:    "invalid candidate falls through to next header",
			headers: map[string]string{HeaderCFConnectingIP: "not-an-ip", HeaderRealIP: "192.168.1.20"},
			want:    "192.168.1.20",
		},
		{
			name:    "address with port is normalized",
			headers: map[string]string{HeaderForwardedFor: "198.51.100.2:4711"},
			want:    "198.51.100.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}
			assert.Equal(t, tt.want, Resolve(h))
		})
	}
}

func TestResolveFallsBackToFingerprint(t *testing.T) {
	h := http.Header{}
	h.Set(HeaderForwardedFor, "unknown")
	h.Set("User-Agent", "Mozilla/5.0")
	h.Set("Accept-Language", "en-CA")

	id := Resolve(h)

	assert.True(t, IsFingerprint(id))
	assert.Equal(t, Fingerprint("Mozilla/5.0", "en-CA"), id)
	assert.Nil(t, parseIPOrNil(id), "fingerprint must never look like an address")
}

func TestResolveNeverEmpty(t *testing.T) {
	id := Resolve(http.Header{})
	assert.NotEmpty(t, id)
	assert.True(t, IsFingerprint(id))
}

func TestFingerprintDistinguishesBrowsers(t *testing.T) {
	assert.NotEqual(t, Fingerprint("Firefox", "en"), Fingerprint("Chrome", "en"))
	assert.Equal(t, Fingerprint("Firefox", "en"), Fingerprint("Firefox", "en"))
}

func parseIPOrNil(s string) *string {
	if v := parseIP(s); v != "" {
		return &v
	}
	return nil
}
