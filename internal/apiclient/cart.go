package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"storefront/internal/domain/model"
)

// カート系の応答は常に最新の明細一覧
type cartResponse struct {
	Items []model.CartItem `json:"items"`
}

func (r cartResponse) cart() model.Cart {
	if r.Items == nil {
		return model.Cart{Items: []model.CartItem{}}
	}
	return model.Cart{Items: r.Items}
}

// ゲストの仮押さえで送る明細
type CartLine struct {
	ProductID int64  `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int64  `json:"quantity"`
}

// CartLines はカートから送信用の明細を作る
func CartLines(c model.Cart) []CartLine {
	lines := make([]CartLine, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, CartLine{ProductID: it.Product.ID, Size: it.Size, Quantity: it.Quantity})
	}
	return lines
}

func (c *Client) GetCart(ctx context.Context, token string) (model.Cart, error) {
	var out cartResponse
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/cart", Auth: Auth{Token: token}}, &out); err != nil {
		return model.Cart{}, err
	}
	return out.cart(), nil
}

func (c *Client) GetGuestCart(ctx context.Context, guestID string) (model.Cart, error) {
	var out cartResponse
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/guest/cart", Auth: Auth{GuestID: guestID}}, &out); err != nil {
		return model.Cart{}, err
	}
	return out.cart(), nil
}

func (c *Client) AddCartItem(ctx context.Context, token string, productID int64, size string, qty int64) (model.Cart, error) {
	var out cartResponse
	err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/cart",
		Auth:   Auth{Token: token},
		JSON:   CartLine{ProductID: productID, Size: size, Quantity: qty},
	}, &out)
	if err != nil {
		return model.Cart{}, err
	}
	return out.cart(), nil
}

func (c *Client) UpdateCartItem(ctx context.Context, token string, itemID int64, qty int64) (model.Cart, error) {
	var out cartResponse
	err := c.Do(ctx, Request{
		Method: http.MethodPut,
		Path:   fmt.Sprintf("/cart/%d", itemID),
		Auth:   Auth{Token: token},
		JSON:   map[string]int64{"quantity": qty},
	}, &out)
	if err != nil {
		return model.Cart{}, err
	}
	return out.cart(), nil
}

func (c *Client) RemoveCartItem(ctx context.Context, token string, itemID int64) (model.Cart, error) {
	var out cartResponse
	err := c.Do(ctx, Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/cart/%d", itemID),
		Auth:   Auth{Token: token},
	}, &out)
	if err != nil {
		return model.Cart{}, err
	}
	return out.cart(), nil
}

// ClearCart は会員なら /cart、ゲストなら /guest/cart を空にする
func (c *Client) ClearCart(ctx context.Context, auth Auth) (model.Cart, error) {
	path := "/cart"
	if auth.Token == "" {
		path = "/guest/cart"
	}
	var out cartResponse
	if err := c.Do(ctx, Request{Method: http.MethodDelete, Path: path, Auth: auth}, &out); err != nil {
		return model.Cart{}, err
	}
	return out.cart(), nil
}

func (c *Client) HoldCart(ctx context.Context, token string) (model.HoldResult, error) {
	var out model.HoldResult
	err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/cart/hold", Auth: Auth{Token: token}}, &out)
	return out, err
}

func (c *Client) HoldGuestCart(ctx context.Context, guestID string, lines []CartLine) (model.HoldResult, error) {
	var out model.HoldResult
	err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/guest/cart/hold",
		Auth:   Auth{GuestID: guestID},
		JSON:   map[string]any{"cart_items": lines},
	}, &out)
	return out, err
}
