package clientip

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRealClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	r.Header.Set("X-Forwarded-For", "1.1.1.1")
	assert.Equal(t, "203.0.113.7", RealClientIP(r))

	r.RemoteAddr = "[2001:db8::1]:443"
	assert.Equal(t, "2001:db8::1", RealClientIP(r))

	r.RemoteAddr = "unix-socket"
	assert.Equal(t, "unix-socket", RealClientIP(r))
}

func TestAnonymousKey(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "198.51.100.2:1000"
	assert.Equal(t, "ip:198.51.100.2", AnonymousKey(r))

	r.Header.Set(ClientIDHeader, "  device-42 ")
	assert.Equal(t, "client:device-42", AnonymousKey(r))

	r.Header.Set(ClientIDHeader, strings.Repeat("x", 65))
	assert.Equal(t, "ip:198.51.100.2", AnonymousKey(r))

	r.Header.Set(ClientIDHeader, "has space")
	assert.Equal(t, "ip:198.51.100.2", AnonymousKey(r))
}
