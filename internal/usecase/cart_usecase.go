package usecase

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/apiclient"
	"storefront/internal/domain/model"
)

type CartAPI interface {
	GetCart(ctx context.Context, token string) (model.Cart, error)
	GetGuestCart(ctx context.Context, guestID string) (model.Cart, error)
	AddCartItem(ctx context.Context, token string, productID int64, size string, qty int64) (model.Cart, error)
	UpdateCartItem(ctx context.Context, token string, itemID int64, qty int64) (model.Cart, error)
	RemoveCartItem(ctx context.Context, token string, itemID int64) (model.Cart, error)
	ClearCart(ctx context.Context, auth apiclient.Auth) (model.Cart, error)
	HoldCart(ctx context.Context, token string) (model.HoldResult, error)
	HoldGuestCart(ctx context.Context, guestID string, lines []apiclient.CartLine) (model.HoldResult, error)
}

// CartUsecase はサーバーのカートのミラー。
// 変更系はすべて「APIを呼ぶ -> 応答の明細でミラーを置き換える」。
type CartUsecase struct {
	api CartAPI
	log *zap.Logger

	mu      sync.Mutex
	mirrors map[string]model.Cart // session_id -> cart
}

// DI
func NewCartUsecase(api CartAPI, log *zap.Logger) *CartUsecase {
	return &CartUsecase{api: api, log: log, mirrors: map[string]model.Cart{}}
}

type AddToCartInput struct {
	ProductID int64  `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int64  `json:"quantity"`
}

// 応答をそのままミラーにする
func (u *CartUsecase) replace(s *model.Session, c model.Cart) model.Cart {
	if c.Items == nil {
		c.Items = []model.CartItem{}
	}
	u.mu.Lock()
	u.mirrors[s.ID] = c
	u.mu.Unlock()
	return c
}

// Forget はサインイン・サインアウト時にミラーを捨てる
func (u *CartUsecase) Forget(sessionID string) {
	u.mu.Lock()
	delete(u.mirrors, sessionID)
	u.mu.Unlock()
}

func (u *CartUsecase) mirror(ctx context.Context, s *model.Session) (model.Cart, error) {
	u.mu.Lock()
	c, ok := u.mirrors[s.ID]
	u.mu.Unlock()
	if ok {
		return c, nil
	}
	return u.FetchCart(ctx, s)
}

// FetchCart はサーバーから取り直す。ゲストIDも無ければ空。
func (u *CartUsecase) FetchCart(ctx context.Context, s *model.Session) (model.Cart, error) {
	var (
		c   model.Cart
		err error
	)
	switch {
	case s.IsAuthenticated():
		c, err = u.api.GetCart(ctx, s.Token)
	case s.GuestID != "":
		c, err = u.api.GetGuestCart(ctx, s.GuestID)
	default:
		return u.replace(s, model.Cart{}), nil
	}
	if err != nil {
		return model.Cart{}, fromAPIError(err)
	}
	return u.replace(s, c), nil
}

// AddToCart は未ログインなら ErrLoginRequired（キューには積まない）
func (u *CartUsecase) AddToCart(ctx context.Context, s *model.Session, in AddToCartInput) (model.Cart, error) {
	if !s.IsAuthenticated() {
		return model.Cart{}, ErrLoginRequired
	}
	if in.ProductID <= 0 {
		return model.Cart{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if strings.TrimSpace(in.Size) == "" {
		return model.Cart{}, NewHTTPError(http.StatusBadRequest, "please select a size")
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 1 {
		return model.Cart{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	c, err := u.api.AddCartItem(ctx, s.Token, in.ProductID, in.Size, in.Quantity)
	if err != nil {
		return model.Cart{}, fromAPIError(err)
	}
	return u.replace(s, c), nil
}

func (u *CartUsecase) RemoveFromCart(ctx context.Context, s *model.Session, itemID int64) (model.Cart, error) {
	if !s.IsAuthenticated() {
		return model.Cart{}, ErrLoginRequired
	}
	if itemID <= 0 {
		return model.Cart{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	c, err := u.api.RemoveCartItem(ctx, s.Token, itemID)
	if err != nil {
		return model.Cart{}, fromAPIError(err)
	}
	return u.replace(s, c), nil
}

// UpdateQuantity は1未満を拒否する。在庫超過はサーバーが判断する。
func (u *CartUsecase) UpdateQuantity(ctx context.Context, s *model.Session, itemID, qty int64) (model.Cart, error) {
	if !s.IsAuthenticated() {
		return model.Cart{}, ErrLoginRequired
	}
	if itemID <= 0 {
		return model.Cart{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if qty < 1 {
		return model.Cart{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	c, err := u.api.UpdateCartItem(ctx, s.Token, itemID, qty)
	if err != nil {
		return model.Cart{}, fromAPIError(err)
	}
	return u.replace(s, c), nil
}

// ClearCart はサーバーのカートを空にする（会員・ゲスト両方）
func (u *CartUsecase) ClearCart(ctx context.Context, s *model.Session) (model.Cart, error) {
	if !s.IsAuthenticated() && s.GuestID == "" {
		return u.replace(s, model.Cart{}), nil
	}
	c, err := u.api.ClearCart(ctx, apiclient.Auth{Token: s.Token, GuestID: s.GuestID})
	if err != nil {
		return model.Cart{}, fromAPIError(err)
	}
	return u.replace(s, c), nil
}

func (u *CartUsecase) GetTotalItems(ctx context.Context, s *model.Session) (int64, error) {
	c, err := u.mirror(ctx, s)
	if err != nil {
		return 0, err
	}
	return c.TotalItems(), nil
}

func (u *CartUsecase) GetTotalPrice(ctx context.Context, s *model.Session) (decimal.Decimal, error) {
	c, err := u.mirror(ctx, s)
	if err != nil {
		return decimal.Zero, err
	}
	return c.Subtotal(), nil
}

func (u *CartUsecase) IsInCart(ctx context.Context, s *model.Session, productID int64, size string) (bool, error) {
	c, err := u.mirror(ctx, s)
	if err != nil {
		return false, err
	}
	return c.Contains(productID, size), nil
}

// HoldProducts は支払い段階の前に在庫を確保してもらう
func (u *CartUsecase) HoldProducts(ctx context.Context, s *model.Session) (model.HoldResult, error) {
	var (
		h   model.HoldResult
		err error
	)
	if s.IsAuthenticated() {
		h, err = u.api.HoldCart(ctx, s.Token)
	} else {
		c, merr := u.mirror(ctx, s)
		if merr != nil {
			return model.HoldResult{}, merr
		}
		h, err = u.api.HoldGuestCart(ctx, s.GuestID, apiclient.CartLines(c))
	}
	if err != nil {
		return model.HoldResult{}, fromAPIError(err)
	}
	if h.IsHoldExpired {
		u.log.Info("hold expired", zap.String("session_id", s.ID))
	}
	return h, nil
}

// CartSummary は GET /cart の応答
type CartSummary struct {
	Items      []model.CartItem `json:"items"`
	TotalItems int64            `json:"total_items"`
	TotalPrice string           `json:"total_price"`
}

func Summarize(c model.Cart) CartSummary {
	items := c.Items
	if items == nil {
		items = []model.CartItem{}
	}
	return CartSummary{
		Items:      items,
		TotalItems: c.TotalItems(),
		TotalPrice: c.Subtotal().StringFixed(2),
	}
}
