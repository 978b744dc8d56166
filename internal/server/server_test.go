package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/usecase"
)

type stubOpener struct {
	calls int
}

func (o *stubOpener) Open(ctx context.Context, sessionID string) (*model.Session, error) {
	o.calls++
	return &model.Session{ID: "s-1", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func newTestServer(t *testing.T) (*Server, *stubOpener) {
	t.Helper()
	cfg := config.Config{Port: "0", SessionSecret: "secret", FEURL: "http://localhost:5173"}
	opener := &stubOpener{}
	h := Handlers{
		Auth:     handler.NewAuthHandler(nil, nil),
		Cart:     handler.NewCartHandler(nil),
		Product:  handler.NewProductHandler(nil, nil),
		Profile:  handler.NewProfileHandler(nil),
		Order:    handler.NewOrderHandler(nil),
		Address:  handler.NewAddressHandler(nil),
		Checkout: handler.NewCheckoutHandler(nil),
		Admin:    handler.NewAdminHandler(usecase.NewAdminUsecase(usecase.AdminResources{}, nil, nil, nil, nil, zap.NewNop())),
	}
	return New(cfg, zap.NewNop(), opener, h), opener
}

func TestHealth_SkipsSession(t *testing.T) {
	srv, opener := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, 0, opener.calls)
	assert.Empty(t, rec.Result().Cookies())
}

func TestRoutes_IssueSessionCookie(t *testing.T) {
	srv, opener := newTestServer(t)

	// ゲストは管理画面に入れないが、セッションは作られる
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/products", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 1, opener.calls)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.SessionCookie, cookies[0].Name)
}

func TestCORS_AllowsFrontendWithCredentials(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/cart", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
