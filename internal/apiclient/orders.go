package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/model"
)

// OrderSubmission は注文作成のmultipart項目
type OrderSubmission struct {
	Name              string
	Email             string
	InstagramUsername string
	AddressLine1      string
	Barangay          string
	City              string
	Province          string
	MobileNumber      string
	ShippingFee       decimal.Decimal
	PaymentProof      File
}

func (s OrderSubmission) multipart() *Multipart {
	m := &Multipart{}
	m.Add("name", s.Name)
	if s.Email != "" {
		m.Add("email", s.Email)
	}
	m.Add("instagram_username", s.InstagramUsername)
	m.Add("address_line1", s.AddressLine1)
	m.Add("barangay", s.Barangay)
	m.Add("city", s.City)
	m.Add("province", s.Province)
	m.Add("mobile_number", s.MobileNumber)
	m.Add("shipping_fee", s.ShippingFee.StringFixed(2))

	proof := s.PaymentProof
	proof.Field = "payment_proof"
	m.Files = append(m.Files, proof)
	return m
}

type orderEnvelope struct {
	Data struct {
		Order model.Order `json:"order"`
	} `json:"data"`
}

type orderDataEnvelope struct {
	Data model.Order `json:"data"`
}

type ordersEnvelope struct {
	Data []model.Order `json:"data"`
}

func (c *Client) CreateOrder(ctx context.Context, token string, s OrderSubmission) (model.Order, error) {
	var out orderEnvelope
	err := c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/orders",
		Auth:      Auth{Token: token},
		Multipart: s.multipart(),
	}, &out)
	return out.Data.Order, err
}

// CreateGuestOrder は guest_id・email・cart_items を付けて送る
func (c *Client) CreateGuestOrder(ctx context.Context, guestID string, s OrderSubmission, lines []CartLine) (model.Order, error) {
	itemsJSON, err := json.Marshal(lines)
	if err != nil {
		return model.Order{}, fmt.Errorf("failed to marshal cart_items: %w", err)
	}

	m := s.multipart()
	m.Add("guest_id", guestID)
	m.Add("cart_items", string(itemsJSON))

	var out orderEnvelope
	err = c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/guest-orders",
		Auth:      Auth{GuestID: guestID},
		Multipart: m,
	}, &out)
	return out.Data.Order, err
}

func (c *Client) ListOrders(ctx context.Context, token string) ([]model.Order, error) {
	var out ordersEnvelope
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/orders", Auth: Auth{Token: token}}, &out); err != nil {
		return nil, err
	}
	return nonNilOrders(out.Data), nil
}

func (c *Client) GetOrder(ctx context.Context, token string, id int64) (model.Order, error) {
	var out orderDataEnvelope
	err := c.Do(ctx, Request{Method: http.MethodGet, Path: fmt.Sprintf("/orders/%d", id), Auth: Auth{Token: token}}, &out)
	return out.Data, err
}

func (c *Client) ListGuestOrders(ctx context.Context, guestID string) ([]model.Order, error) {
	var out ordersEnvelope
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/guest-orders", Auth: Auth{GuestID: guestID}}, &out); err != nil {
		return nil, err
	}
	return nonNilOrders(out.Data), nil
}

func nonNilOrders(in []model.Order) []model.Order {
	if in == nil {
		return []model.Order{}
	}
	return in
}
