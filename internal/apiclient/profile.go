package apiclient

import (
	"context"
	"net/http"

	"storefront/internal/domain/model"
)

type profileEnvelope struct {
	Data *model.Profile `json:"data"`
}

// GetProfile はプロフィールを返す。未登録(404)なら nil, nil。
func (c *Client) GetProfile(ctx context.Context, auth Auth) (*model.Profile, error) {
	var out profileEnvelope
	err := c.Do(ctx, Request{Method: http.MethodGet, Path: profilePath(auth), Auth: auth}, &out)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) SaveProfile(ctx context.Context, auth Auth, p model.Profile) (model.Profile, error) {
	var out profileEnvelope
	err := c.Do(ctx, Request{Method: http.MethodPost, Path: profilePath(auth), Auth: auth, JSON: p}, &out)
	if err != nil {
		return model.Profile{}, err
	}
	if out.Data == nil {
		return p, nil
	}
	return *out.Data, nil
}

// 会員は /profile、ゲストは /guest/profile（X-Guest-ID）
func profilePath(auth Auth) string {
	if auth.Token == "" {
		return "/guest/profile"
	}
	return "/profile"
}
