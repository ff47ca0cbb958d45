// Package handler exposes the booking services over HTTP.  Handlers bind
// and validate the request, call one service method and wrap the result in
// the {message, data} envelope.  Errors are returned to echo and rendered
// by ErrorHandler.
package handler

import (
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/cinema-ticketing/internal/apperr"
)

// Envelope wraps every successful response body.
type Envelope struct {
    Message string `json:"message"`
    Data    any    `json:"data"`
}

// ErrorBody is the JSON rendered for failed requests.
type ErrorBody struct {
    Name      string    `json:"name"`
    Code      int       `json:"code"`
    Message   string    `json:"message"`
    Timestamp time.Time `json:"timestamp"`
}

func respond(c echo.Context, status int, data any) error {
    return c.JSON(status, Envelope{Message: "OK", Data: data})
}

// RequestValidator adapts go-playground/validator to echo.Validator.
type RequestValidator struct {
    v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
    return &RequestValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate reports the first failing field as VALIDATION_FAILED.
func (rv *RequestValidator) Validate(i any) error {
    err := rv.v.Struct(i)
    if err == nil {
        return nil
    }
    var verrs validator.ValidationErrors
    if errors.As(err, &verrs) && len(verrs) > 0 {
        f := verrs[0]
        msg := f.Field() + " failed " + f.Tag()
        if f.Param() != "" {
            msg += "=" + f.Param()
        }
        return apperr.Validation("%s", msg)
    }
    return apperr.Validation("%s", err.Error())
}

// bind decodes the request into dst and validates it.
func bind(c echo.Context, dst any) error {
    if err := c.Bind(dst); err != nil {
        var he *echo.HTTPError
        if errors.As(err, &he) {
            return apperr.Validation("malformed request: %v", he.Message)
        }
        return apperr.Validation("malformed request")
    }
    return c.Validate(dst)
}

// ErrorHandler renders domain errors with their code and kind status,
// echo errors with their own status and anything else as a generic 500.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
    log = log.Named("http")
    return func(err error, c echo.Context) {
        if c.Response().Committed {
            return
        }

        status := http.StatusInternalServerError
        body := ErrorBody{
            Name:      "INTERNAL_ERROR",
            Message:   "Internal server error",
            Timestamp: time.Now().UTC(),
        }

        var (
            de *apperr.Error
            he *echo.HTTPError
        )
        switch {
        case errors.As(err, &de):
            status = apperr.HTTPStatus(de.Kind)
            body.Name, body.Code, body.Message = de.Name, de.Code, de.Message
        case errors.As(err, &he):
            status = he.Code
            body.Name = strings.ToUpper(strings.ReplaceAll(http.StatusText(he.Code), " ", "_"))
            if msg, ok := he.Message.(string); ok {
                body.Message = msg
            } else {
                body.Message = http.StatusText(he.Code)
            }
        default:
            log.Error("unhandled error",
                zap.String("method", c.Request().Method),
                zap.String("uri", c.Request().RequestURI),
                zap.Error(err),
            )
        }

        if c.Request().Method == http.MethodHead {
            err = c.NoContent(status)
        } else {
            err = c.JSON(status, body)
        }
        if err != nil {
            log.Warn("write error response", zap.Error(err))
        }
    }
}
