package utils

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{name: "remote addr", remote: "192.0.2.1:5000", want: "192.0.2.1"},
		{name: "ipv6 remote", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{
			name:    "headers ignored without trust",
			remote:  "192.0.2.1:5000",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.5"},
			want:    "192.0.2.1",
		},
		{
			name:       "first forwarded for",
			remote:     "127.0.0.1:5000",
			headers:    map[string]string{"X-Forwarded-For": " 203.0.113.5 , 10.0.0.1"},
			trustProxy: true,
			want:       "203.0.113.5",
		},
		{
			name:   "cloudflare wins",
			remote: "127.0.0.1:5000",
			headers: map[string]string{
				"CF-Connecting-IP": "198.51.100.7",
				"X-Forwarded-For":  "203.0.113.5",
			},
			trustProxy: true,
			want:       "198.51.100.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"10.0.0.0/8", " 192.0.2.7 ", "not-an-ip", ""})

	tests := []struct {
		ip   string
		want bool
	}{
		{"10.1.2.3", true},
		{"192.0.2.7", true},
		{"192.0.2.8", false},
		{"garbage", false},
	}
	for _, tt := range tests {
		if got := m.Allow(tt.ip); got != tt.want {
			t.Errorf("Allow(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}
	if NewIPMatcher(nil).IsEmpty() != true {
		t.Error("empty list should build an empty matcher")
	}
}
