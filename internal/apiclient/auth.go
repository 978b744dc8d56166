package apiclient

import (
	"context"
	"net/http"

	"storefront/internal/domain/model"
)

// ログイン・会員登録の応答
type AuthResult struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

type RegisterInput struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var out AuthResult
	err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/login",
		JSON:   map[string]string{"email": email, "password": password},
	}, &out)
	return out, err
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	var out AuthResult
	err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/register",
		JSON:   in,
	}, &out)
	return out, err
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/logout",
		Auth:   Auth{Token: token},
	}, nil)
}

// CurrentUser はtokenの持ち主を返す（起動時のtoken検証に使う）
func (c *Client) CurrentUser(ctx context.Context, token string) (model.User, error) {
	var out model.User
	err := c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   "/user",
		Auth:   Auth{Token: token},
	}, &out)
	return out, err
}
