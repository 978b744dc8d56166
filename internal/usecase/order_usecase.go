package usecase

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"storefront/internal/apiclient"
	"storefront/internal/checkout"
	"storefront/internal/domain/model"
	"storefront/internal/infra/events"
)

type OrderAPI interface {
	CreateOrder(ctx context.Context, token string, s apiclient.OrderSubmission) (model.Order, error)
	CreateGuestOrder(ctx context.Context, guestID string, s apiclient.OrderSubmission, lines []apiclient.CartLine) (model.Order, error)
	ListOrders(ctx context.Context, token string) ([]model.Order, error)
	GetOrder(ctx context.Context, token string, id int64) (model.Order, error)
	ListGuestOrders(ctx context.Context, guestID string) ([]model.Order, error)
}

// OrderUsecase は注文の作成と追跡
type OrderUsecase struct {
	api    OrderAPI
	events EventPublisher
	log    *zap.Logger
}

// DI
func NewOrderUsecase(api OrderAPI, pub EventPublisher, log *zap.Logger) *OrderUsecase {
	return &OrderUsecase{api: api, events: pub, log: log}
}

// ListMine は会員の注文一覧
func (u *OrderUsecase) ListMine(ctx context.Context, s *model.Session) ([]model.Order, error) {
	if !s.IsAuthenticated() {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	orders, err := u.api.ListOrders(ctx, s.Token)
	if err != nil {
		return nil, fromAPIError(err)
	}
	return orders, nil
}

func (u *OrderUsecase) Get(ctx context.Context, s *model.Session, id int64) (model.Order, error) {
	if !s.IsAuthenticated() {
		return model.Order{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if id <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	o, err := u.api.GetOrder(ctx, s.Token, id)
	if err != nil {
		return model.Order{}, fromAPIError(err)
	}
	return o, nil
}

// ListGuest はゲストIDで注文を探す。IDが無ければ空。
func (u *OrderUsecase) ListGuest(ctx context.Context, s *model.Session) ([]model.Order, error) {
	if s.GuestID == "" {
		return []model.Order{}, nil
	}
	orders, err := u.api.ListGuestOrders(ctx, s.GuestID)
	if err != nil {
		return nil, fromAPIError(err)
	}
	return orders, nil
}

// Place はチェックアウトの内容で注文を作る（会員 / ゲスト）
func (u *OrderUsecase) Place(ctx context.Context, s *model.Session, sub checkout.Submission) (model.Order, error) {
	in := apiclient.OrderSubmission{
		Name:              sub.Form.Name,
		Email:             sub.Form.Email,
		InstagramUsername: sub.Form.InstagramUsername,
		AddressLine1:      sub.Form.AddressLine1,
		Barangay:          sub.Form.Barangay,
		City:              sub.Form.City,
		Province:          sub.Form.Province,
		MobileNumber:      sub.Form.MobileNumber,
		ShippingFee:       sub.ShippingFee,
	}
	if p := sub.Form.PaymentProof; p != nil {
		in.PaymentProof = apiclient.File{Filename: p.Filename, ContentType: p.ContentType, Data: p.Data}
	}

	var (
		order model.Order
		err   error
	)
	if sub.Authenticated {
		order, err = u.api.CreateOrder(ctx, s.Token, in)
	} else {
		order, err = u.api.CreateGuestOrder(ctx, sub.GuestID, in, apiclient.CartLines(sub.Cart))
	}
	if err != nil {
		return model.Order{}, fromAPIError(err)
	}

	payload := events.OrderPlacedPayload{
		OrderID:     order.ID,
		GuestID:     sub.GuestID,
		TotalAmount: order.TotalAmount.StringFixed(2),
	}
	if user, ok := s.User(); ok {
		payload.UserID = user.ID
	}
	u.events.Publish(events.EventOrderPlaced, s.ID, payload)
	u.log.Info("order placed", zap.Int64("order_id", order.ID), zap.String("session_id", s.ID))
	return order, nil
}
