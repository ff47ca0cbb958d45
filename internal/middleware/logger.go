package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// RequestLogger writes one structured line per request.  Server errors are
// logged at error level and client errors at warn.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
    log = log.Named("http")
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                // let the error handler write the status before we read it
                c.Error(err)
            }

            req, res := c.Request(), c.Response()
            level := zapcore.InfoLevel
            switch {
            case res.Status >= 500:
                level = zapcore.ErrorLevel
            case res.Status >= 400:
                level = zapcore.WarnLevel
            }
            if ce := log.Check(level, "request"); ce != nil {
                fields := []zap.Field{
                    zap.String("method", req.Method),
                    zap.String("route", c.Path()),
                    zap.String("uri", req.RequestURI),
                    zap.Int("status", res.Status),
                    zap.Duration("latency", time.Since(start)),
                    zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
                    zap.String("remote_ip", c.RealIP()),
                }
                if uid := UserID(c); uid != "" {
                    fields = append(fields, zap.String("user_id", uid))
                }
                if err != nil {
                    fields = append(fields, zap.Error(err))
                }
                ce.Write(fields...)
            }
            return nil
        }
    }
}
