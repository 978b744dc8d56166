package usecase

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront/internal/checkout"
	"storefront/internal/domain/model"
	"storefront/internal/infra/events"
	"storefront/internal/timer"
)

// CheckoutUsecase はセッションごとのチェックアウトモーダル
type CheckoutUsecase struct {
	auth      *AuthUsecase
	cart      *CartUsecase
	settings  *SettingsUsecase
	profile   *ProfileUsecase
	orders    *OrderUsecase
	guests    *GuestUsecase
	addresses checkout.Addresses
	events    EventPublisher
	log       *zap.Logger

	registry  *checkout.Registry
	newTicker timer.TickerFactory
}

type CheckoutOption func(*CheckoutUsecase)

// WithCheckoutTicker はカウントダウンの時計を差し替える（テスト用）
func WithCheckoutTicker(f timer.TickerFactory) CheckoutOption {
	return func(u *CheckoutUsecase) { u.newTicker = f }
}

// DI
func NewCheckoutUsecase(
	auth *AuthUsecase,
	cart *CartUsecase,
	settings *SettingsUsecase,
	profile *ProfileUsecase,
	orders *OrderUsecase,
	guests *GuestUsecase,
	addresses checkout.Addresses,
	pub EventPublisher,
	log *zap.Logger,
	opts ...CheckoutOption,
) *CheckoutUsecase {
	u := &CheckoutUsecase{
		auth:      auth,
		cart:      cart,
		settings:  settings,
		profile:   profile,
		orders:    orders,
		guests:    guests,
		addresses: addresses,
		events:    pub,
		log:       log,
		registry:  checkout.NewRegistry(),
		newTicker: timer.RealTicker,
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// Open はモーダルを開く。開いていたフローは閉じて作り直す。
func (u *CheckoutUsecase) Open(ctx context.Context, s *model.Session) (checkout.State, error) {
	var (
		cart     model.Cart
		settings model.Settings
		profile  *model.Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := u.cart.FetchCart(gctx, s)
		cart = c
		return err
	})
	g.Go(func() error {
		st, err := u.settings.Get(gctx)
		settings = st
		return err
	})
	g.Go(func() error {
		p, err := u.profile.Get(gctx, s)
		if err != nil {
			// 下書きが無くても開ける
			u.log.Info("profile prefill", zap.String("session_id", s.ID), zap.Error(err))
			return nil
		}
		profile = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return checkout.State{}, err
	}

	sid := s.ID
	var f *checkout.Flow
	deps := checkout.Deps{
		Cart:      sessionCart{u: u, sid: sid},
		Orders:    sessionOrders{u: u, sid: sid},
		Registrar: sessionRegistrar{u: u, sid: sid},
		Addresses: u.addresses,
		Guests:    sessionGuests{u: u, sid: sid},
		Settings:  settings,
		OnSuccess: func(o model.Order) {
			u.profile.Forget(sid)
			u.log.Info("checkout completed", zap.String("session_id", sid), zap.Int64("order_id", o.ID))
		},
		OnHoldExpired: func(mode checkout.FormMode, step checkout.Step) {
			u.registry.Remove(sid, f)
			u.events.Publish(events.EventHoldExpired, sid, events.HoldExpiredPayload{
				Mode: string(mode),
				Step: int(step),
			})
		},
		Ticker: u.newTicker,
		Log:    u.log.With(zap.String("session_id", sid)),
	}

	f = checkout.NewFlow(deps, s.IsAuthenticated(), prefill(s, profile), cart)
	u.registry.Put(sid, f)
	return f.State(), nil
}

// prefill は会員ならユーザー情報、その上に保存済みプロフィールを重ねる
func prefill(s *model.Session, p *model.Profile) checkout.FormData {
	var d checkout.FormData
	if user, ok := s.User(); ok && s.IsAuthenticated() {
		d.Name = user.Name
		d.Email = user.Email
	}
	if p == nil {
		return d
	}
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&d.Name, p.Name)
	pick(&d.Email, p.Email)
	pick(&d.InstagramUsername, p.InstagramUsername)
	pick(&d.AddressLine1, p.AddressLine1)
	pick(&d.Barangay, p.Barangay)
	pick(&d.City, p.City)
	pick(&d.Province, p.Province)
	pick(&d.MobileNumber, p.MobileNumber)
	return d
}

// Flow は開いているフロー
func (u *CheckoutUsecase) Flow(s *model.Session) (*checkout.Flow, error) {
	f, ok := u.registry.Get(s.ID)
	if !ok {
		return nil, ErrNoCheckout
	}
	return f, nil
}

// Close はモーダルを閉じる。開いていなくてもよい。
// フローの中の登録でも resetter が呼ばれるので、OnReset には載せない（期限切れは OnExpire）。
func (u *CheckoutUsecase) Close(s *model.Session) {
	u.registry.Close(s.ID)
}

// Forget は期限切れで消えたセッションのフローを閉じる
func (u *CheckoutUsecase) Forget(sessionID string) {
	u.registry.Close(sessionID)
}

// Shutdown はすべてのカウントダウンを止める
func (u *CheckoutUsecase) Shutdown() {
	u.registry.CloseAll()
}

// 以下はフローからの呼び出しのたびにセッションを読み直す

type sessionCart struct {
	u   *CheckoutUsecase
	sid string
}

func (c sessionCart) Fetch(ctx context.Context) (model.Cart, error) {
	s, err := c.u.auth.Session(ctx, c.sid)
	if err != nil {
		return model.Cart{}, err
	}
	return c.u.cart.FetchCart(ctx, s)
}

func (c sessionCart) Hold(ctx context.Context, _ model.Cart) (model.HoldResult, error) {
	s, err := c.u.auth.Session(ctx, c.sid)
	if err != nil {
		return model.HoldResult{}, err
	}
	return c.u.cart.HoldProducts(ctx, s)
}

func (c sessionCart) Clear(ctx context.Context) error {
	s, err := c.u.auth.Session(ctx, c.sid)
	if err != nil {
		return err
	}
	_, err = c.u.cart.ClearCart(ctx, s)
	return err
}

type sessionOrders struct {
	u   *CheckoutUsecase
	sid string
}

func (o sessionOrders) Place(ctx context.Context, sub checkout.Submission) (model.Order, error) {
	s, err := o.u.auth.Session(ctx, o.sid)
	if err != nil {
		return model.Order{}, err
	}
	return o.u.orders.Place(ctx, s, sub)
}

type sessionRegistrar struct {
	u   *CheckoutUsecase
	sid string
}

func (r sessionRegistrar) Register(ctx context.Context, d checkout.FormData) (model.User, error) {
	s, err := r.u.auth.Session(ctx, r.sid)
	if err != nil {
		return model.User{}, err
	}
	return r.u.auth.Register(ctx, s, RegisterInput{
		Name:                 d.Name,
		Email:                d.Email,
		Password:             d.Password,
		PasswordConfirmation: d.PasswordConfirmation,
	})
}

type sessionGuests struct {
	u   *CheckoutUsecase
	sid string
}

func (g sessionGuests) EnsureGuestID(ctx context.Context) (string, error) {
	s, err := g.u.auth.Session(ctx, g.sid)
	if err != nil {
		return "", err
	}
	return g.u.guests.EnsureGuestID(ctx, s)
}
