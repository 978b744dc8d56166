package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"
)

// SessionCloser はサインアウト時に開いているチェックアウトを閉じる
type SessionCloser interface {
	Close(s *model.Session)
}

type AuthHandler struct {
	uc       *usecase.AuthUsecase
	checkout SessionCloser
}

// DIコンストラクタ
func NewAuthHandler(uc *usecase.AuthUsecase, checkout SessionCloser) *AuthHandler {
	return &AuthHandler{uc: uc, checkout: checkout}
}

// /auth/login のリクエストボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// /auth/register のリクエストボディ。
type registerRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type meResponse struct {
	Authenticated bool        `json:"authenticated"`
	User          *model.User `json:"user,omitempty"`
	GuestID       string      `json:"guest_id,omitempty"`
}

func (h *AuthHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/auth/login", h.login)
	g.POST("/auth/register", h.register)
	g.POST("/auth/logout", h.logout)
	g.GET("/auth/me", h.me)
}

func (h *AuthHandler) login(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return writeError(c, err)
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	// ゲストのときのモーダルは閉じる
	h.checkout.Close(s)

	user, err := h.uc.Login(c.Request().Context(), s, req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, meResponse{Authenticated: true, User: &user, GuestID: s.GuestID})
}

func (h *AuthHandler) register(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return writeError(c, err)
	}

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	h.checkout.Close(s)

	user, err := h.uc.Register(c.Request().Context(), s, usecase.RegisterInput{
		Name:                 req.Name,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, meResponse{Authenticated: true, User: &user, GuestID: s.GuestID})
}

func (h *AuthHandler) logout(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return writeError(c, err)
	}

	h.checkout.Close(s)
	if err := h.uc.Logout(c.Request().Context(), s); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "logged out"})
}

func (h *AuthHandler) me(c echo.Context) error {
	s, err := sessionOf(c)
	if err != nil {
		return writeError(c, err)
	}

	out := meResponse{GuestID: s.GuestID}
	if user, ok := h.uc.Me(s); ok {
		out.Authenticated = true
		out.User = &user
	}
	return c.JSON(http.StatusOK, out)
}
