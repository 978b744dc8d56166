package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestLogger はリクエストごとに1行ログを出す
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := []zap.Field{
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
			}
			if s, ok := SessionFrom(c); ok {
				fields = append(fields, zap.String("session_id", s.ID))
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			}

			log.Info("HTTP request", fields...)
			return nil
		}
	}
}
