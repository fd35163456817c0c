package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

func LoggerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			stop := time.Now()
			req := c.Request()
			res := c.Response()

			path := req.URL.Path
			if req.URL.RawQuery != "" {
				path += "?" + req.URL.RawQuery
			}
			latency := stop.Sub(start).Milliseconds()

			// [2024-12-13 10:30:15] GET /api/pnodes -> 200 OK (234ms) from 127.0.0.1
			fmt.Printf("[%s] %s %s -> %d %s (%dms) from %s\n",
				stop.Format("2006-01-02 15:04:05"), req.Method, path,
				res.Status, http.StatusText(res.Status), latency, c.RealIP())

			return nil
		}
	}
}
