package handlers

import (
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	tenantHeaders = []string{"x-alert-user", "x-tenant-id", "x-user-id"}
	tenantQueries = []string{"user", "tenant", "token"}
	tenantPattern = regexp.MustCompile(`^[a-zA-Z0-9._:-]{3,64}$`)
)

// ResolveTenant extracts the caller's tenant id from headers or, failing
// that, query parameters. Returns "" when nothing validates.
func ResolveTenant(c echo.Context) string {
	for _, header := range tenantHeaders {
		if id := normalizeTenant(c.Request().Header.Get(header)); id != "" {
			return id
		}
	}
	for _, key := range tenantQueries {
		if id := normalizeTenant(c.QueryParam(key)); id != "" {
			return id
		}
	}
	return ""
}

func normalizeTenant(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || !tenantPattern.MatchString(trimmed) {
		return ""
	}
	return trimmed
}
