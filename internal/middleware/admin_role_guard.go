package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// セッションのユーザーが管理者かどうかを確認します。
// 未ログインは /login へ戻す。

func AdminRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, ok := SessionFrom(c)
			if !ok || !s.IsAuthenticated() {
				return c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized", Redirect: "/login"})
			}

			//userは拒否、adminだけ許可
			user, ok := s.User()
			if !ok || !user.IsAdmin() {
				return c.JSON(http.StatusForbidden, errorJSON("admin only"))
			}

			return next(c)
		}
	}
}
