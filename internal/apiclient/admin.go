package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"storefront/internal/domain/model"
)

// AdminResource は /admin/{path} の標準CRUD。
type AdminResource[T any] struct {
	c    *Client
	path string
}

func NewAdminResource[T any](c *Client, path string) *AdminResource[T] {
	return &AdminResource[T]{c: c, path: "/admin/" + path}
}

// Name はリソース名（監査ログ用）
func (r *AdminResource[T]) Name() string {
	return r.path[len("/admin/"):]
}

func (r *AdminResource[T]) List(ctx context.Context, token string) ([]T, error) {
	var out struct {
		Data []T `json:"data"`
	}
	if err := r.c.Do(ctx, Request{Method: http.MethodGet, Path: r.path, Auth: Auth{Token: token}}, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return []T{}, nil
	}
	return out.Data, nil
}

func (r *AdminResource[T]) Get(ctx context.Context, token string, id int64) (T, error) {
	var out struct {
		Data T `json:"data"`
	}
	err := r.c.Do(ctx, Request{Method: http.MethodGet, Path: fmt.Sprintf("%s/%d", r.path, id), Auth: Auth{Token: token}}, &out)
	return out.Data, err
}

func (r *AdminResource[T]) Create(ctx context.Context, token string, body T) (T, error) {
	var out struct {
		Data T `json:"data"`
	}
	err := r.c.Do(ctx, Request{Method: http.MethodPost, Path: r.path, Auth: Auth{Token: token}, JSON: body}, &out)
	return out.Data, err
}

func (r *AdminResource[T]) Update(ctx context.Context, token string, id int64, body T) (T, error) {
	var out struct {
		Data T `json:"data"`
	}
	err := r.c.Do(ctx, Request{Method: http.MethodPut, Path: fmt.Sprintf("%s/%d", r.path, id), Auth: Auth{Token: token}, JSON: body}, &out)
	return out.Data, err
}

func (r *AdminResource[T]) Delete(ctx context.Context, token string, id int64) error {
	return r.c.Do(ctx, Request{Method: http.MethodDelete, Path: fmt.Sprintf("%s/%d", r.path, id), Auth: Auth{Token: token}}, nil)
}

// UpdateOrderStatus は /admin/orders/{id}/status
func (c *Client) UpdateOrderStatus(ctx context.Context, token string, id int64, status model.OrderStatus, adminNotes string) (model.Order, error) {
	var out orderDataEnvelope
	err := c.Do(ctx, Request{
		Method: http.MethodPut,
		Path:   fmt.Sprintf("/admin/orders/%d/status", id),
		Auth:   Auth{Token: token},
		JSON:   map[string]string{"status": string(status), "admin_notes": adminNotes},
	}, &out)
	return out.Data, err
}

func (c *Client) UpdateSettings(ctx context.Context, token string, s model.Settings) (model.Settings, error) {
	var out model.Settings
	err := c.Do(ctx, Request{Method: http.MethodPut, Path: "/admin/settings", Auth: Auth{Token: token}, JSON: s}, &out)
	return out, err
}
