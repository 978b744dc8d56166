package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"

	"storefront/internal/config"
	"storefront/internal/domain/model"
)

const (
	// SessionCookie はセッションIDを入れた署名付きcookie
	SessionCookie = "sid"
	CtxSessionKey = "session" // *model.Session
)

// SessionOpener はセッションの復元・作成（AuthUsecase）
type SessionOpener interface {
	Open(ctx context.Context, sessionID string) (*model.Session, error)
}

// Session は sid cookie からセッションを復元して context に入れる。
// cookie が無い・壊れている・期限切れなら新しいセッションを作り直す。
func Session(cfg config.Config, opener SessionOpener) echo.MiddlewareFunc {
	secret := []byte(cfg.SessionSecret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var sid string
			if ck, err := c.Cookie(SessionCookie); err == nil {
				sid, _ = parseSessionToken(ck.Value, secret)
			}

			s, err := opener.Open(c.Request().Context(), sid)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, errorJSON("internal error"))
			}

			//新しく作ったときだけ cookie を出し直す
			if s.ID != sid {
				if err := setSessionCookie(c, cfg, secret, s); err != nil {
					return c.JSON(http.StatusInternalServerError, errorJSON("internal error"))
				}
			}

			c.Set(CtxSessionKey, s)
			return next(c)
		}
	}
}

// SessionFrom は middleware が入れたセッション
func SessionFrom(c echo.Context) (*model.Session, bool) {
	s, ok := c.Get(CtxSessionKey).(*model.Session)
	return s, ok && s != nil
}

// SignSessionToken はセッションIDをHS256で署名する
func SignSessionToken(sessionID string, expiresAt time.Time, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"sub": sessionID,
		"iat": time.Now().Unix(),
		"exp": expiresAt.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseSessionToken(raw string, secret []byte) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return "", errors.New("invalid session token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	return parseString(claims["sub"])
}

func setSessionCookie(c echo.Context, cfg config.Config, secret []byte, s *model.Session) error {
	value, err := SignSessionToken(s.ID, s.ExpiresAt, secret)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

type errorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

func parseString(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", errors.New("invalid string")
	}
	return s, nil
}
