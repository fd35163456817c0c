package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func tenantContext(t *testing.T, target string, headers map[string]string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest("GET", target, nil)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func TestResolveTenant(t *testing.T) {
	cases := []struct {
		name    string
		target  string
		headers map[string]string
		want    string
	}{
		{"primary header", "/", map[string]string{"x-alert-user": "acme-corp"}, "acme-corp"},
		{"fallback header", "/", map[string]string{"x-tenant-id": "acme.corp"}, "acme.corp"},
		{"header precedence", "/", map[string]string{"x-alert-user": "first", "x-user-id": "second"}, "first"},
		{"query user", "/?user=acme", nil, "acme"},
		{"query tenant", "/?tenant=acme:prod", nil, "acme:prod"},
		{"header beats query", "/?user=from-query", map[string]string{"x-alert-user": "from-header"}, "from-header"},
		{"too short", "/", map[string]string{"x-alert-user": "ab"}, ""},
		{"too long", "/", map[string]string{"x-alert-user": strings.Repeat("a", 65)}, ""},
		{"bad chars", "/", map[string]string{"x-alert-user": "has space"}, ""},
		{"invalid header falls to query", "/?user=valid-id", map[string]string{"x-alert-user": "!"}, "valid-id"},
		{"nothing", "/", nil, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := tenantContext(t, tc.target, tc.headers)
			if got := ResolveTenant(c); got != tc.want {
				t.Errorf("ResolveTenant() = %q, want %q", got, tc.want)
			}
		})
	}
}
