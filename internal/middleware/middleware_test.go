package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap/zaptest"

    "github.com/iliyamo/cinema-ticketing/internal/apperr"
    "github.com/iliyamo/cinema-ticketing/internal/config"
    "github.com/iliyamo/cinema-ticketing/internal/model"
    "github.com/iliyamo/cinema-ticketing/internal/utils"
)

func newContext(method, target string) (echo.Context, *httptest.ResponseRecorder) {
    e := echo.New()
    rec := httptest.NewRecorder()
    return e.NewContext(httptest.NewRequest(method, target, nil), rec), rec
}

func ok(c echo.Context) error { return c.NoContent(http.StatusOK) }

func TestJWTAuthSetsIdentity(t *testing.T) {
    tok, err := utils.NewAccessToken("s3cret", "user-1", string(model.RoleManager), 5)
    require.NoError(t, err)

    c, _ := newContext(http.MethodGet, "/")
    c.Request().Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)

    var seenID string
    var seenRole model.Role
    err = JWTAuth("s3cret")(func(c echo.Context) error {
        seenID, seenRole = UserID(c), Role(c)
        return nil
    })(c)
    require.NoError(t, err)
    assert.Equal(t, "user-1", seenID)
    assert.Equal(t, model.RoleManager, seenRole)
    assert.Equal(t, "user-1", identity(c))
}

func TestJWTAuthRejects(t *testing.T) {
    tok, err := utils.NewAccessToken("other-secret", "user-1", "CUSTOMER", 5)
    require.NoError(t, err)

    for name, header := range map[string]string{
        "missing":      "",
        "not bearer":   "Basic abc",
        "wrong secret": "Bearer " + tok.Token,
    } {
        c, _ := newContext(http.MethodGet, "/")
        if header != "" {
            c.Request().Header.Set(echo.HeaderAuthorization, header)
        }
        err := JWTAuth("s3cret")(ok)(c)
        assert.ErrorIs(t, err, apperr.UserNotAuthorized, name)
    }
}

func TestRequireRole(t *testing.T) {
    mw := RequireRole(model.RoleManager)

    c, _ := newContext(http.MethodPost, "/")
    c.Set(ContextRole, "CUSTOMER")
    assert.ErrorIs(t, mw(ok)(c), apperr.ForbiddenRole)

    c, _ = newContext(http.MethodPost, "/")
    assert.ErrorIs(t, mw(ok)(c), apperr.ForbiddenRole)
    assert.Equal(t, guestID, identity(c))

    c, rec := newContext(http.MethodPost, "/")
    c.Set(ContextRole, "MANAGER")
    require.NoError(t, mw(ok)(c))
    assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCacheKeyUsesRequestPath(t *testing.T) {
    rc := NewResponseCache(config.CacheConfig{Prefix: "p", KeyStrategy: "path_query"}, nil, zaptest.NewLogger(t))

    a, _ := newContext(http.MethodGet, "/v1/movies/1")
    a.SetPath("/v1/movies/:id")
    b, _ := newContext(http.MethodGet, "/v1/movies/2")
    b.SetPath("/v1/movies/:id")
    q, _ := newContext(http.MethodGet, "/v1/movies/1?x=1")

    assert.NotEqual(t, rc.key(a), rc.key(b))
    assert.NotEqual(t, rc.key(a), rc.key(q))
    assert.Regexp(t, `^p:[0-9a-f]{40}$`, rc.key(a))

    rc.cfg.KeyStrategy = "path"
    assert.Equal(t, rc.key(a), rc.key(q))
}

func TestPayloadRoundTrip(t *testing.T) {
    hdr := http.Header{"Content-Type": {"application/json"}}
    bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"message":"OK"}`))
    require.NoError(t, err)

    status, got, body, ok := decodePayload(bs)
    require.True(t, ok)
    assert.Equal(t, http.StatusOK, status)
    assert.Equal(t, "application/json", got.Get("Content-Type"))
    assert.JSONEq(t, `{"message":"OK"}`, string(body))

    _, _, _, ok = decodePayload([]byte{0, 1})
    assert.False(t, ok)
}

func TestDisabledCachePassesThrough(t *testing.T) {
    rc := NewResponseCache(config.CacheConfig{Enabled: true}, nil, zaptest.NewLogger(t))
    c, rec := newContext(http.MethodGet, "/v1/movies")
    require.NoError(t, rc.Middleware()(ok)(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Empty(t, rec.Header().Get("X-Cache"))
    rc.Purge(c.Request().Context())
}

func TestRateKeyStrategies(t *testing.T) {
    c, _ := newContext(http.MethodGet, "/v1/movies")
    c.SetPath("/v1/movies")
    c.Request().Header.Set(echo.HeaderXRealIP, "10.1.1.1")
    c.Set(ContextUserID, "u1")

    cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}
    assert.Equal(t, "rl:ip:10.1.1.1", rateKey(cfg, c))
    cfg.KeyStrategy = "user_route"
    assert.Equal(t, "rl:user:u1:route:GET /v1/movies", rateKey(cfg, c))
    cfg.KeyStrategy = ""
    assert.Equal(t, "rl:ip:10.1.1.1:user:u1:route:GET /v1/movies", rateKey(cfg, c))
}
