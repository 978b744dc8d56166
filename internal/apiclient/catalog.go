package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"storefront/internal/domain/model"
)

func (c *Client) GetSettings(ctx context.Context) (model.Settings, error) {
	var out model.Settings
	err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/settings"}, &out)
	return out, err
}

func (c *Client) ListProducts(ctx context.Context, q model.ProductQuery) (model.ProductList, error) {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("per_page", strconv.Itoa(q.Limit))
	}
	if q.Q != "" {
		v.Set("search", q.Q)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}

	var out model.ProductList
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/products", Query: v}, &out); err != nil {
		return model.ProductList{}, err
	}
	if out.Items == nil {
		out.Items = []model.Product{}
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (model.Product, error) {
	var out struct {
		Data model.Product `json:"data"`
	}
	err := c.Do(ctx, Request{Method: http.MethodGet, Path: fmt.Sprintf("/products/%d", id)}, &out)
	return out.Data, err
}

func (c *Client) ListAnnouncements(ctx context.Context) ([]model.Announcement, error) {
	var out struct {
		Data []model.Announcement `json:"data"`
	}
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/announcements"}, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) ListCarousel(ctx context.Context) ([]model.CarouselSlide, error) {
	var out struct {
		Data []model.CarouselSlide `json:"data"`
	}
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/hero-carousel"}, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}
