package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/apiclient"
	"storefront/internal/checkout"
	"storefront/internal/domain/model"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/events"
	"storefront/internal/timer"
	"storefront/internal/usecase"
)

type noAddresses struct{}

func (noAddresses) Provinces(context.Context) ([]model.AddressOption, error) { return nil, nil }
func (noAddresses) Cities(context.Context, string) ([]model.AddressOption, error) {
	return nil, nil
}
func (noAddresses) Barangays(context.Context, string) ([]model.AddressOption, error) {
	return nil, nil
}

type checkoutFixture struct {
	authAPI    *AuthAPIMock
	cartAPI    *CartAPIMock
	profileAPI *ProfileAPIMock
	orderAPI   *OrderAPIMock
	sessions   *SessionRepoMock
	pub        *PublisherMock
	tickers    *timer.ManualTickers
	auth       *usecase.AuthUsecase
	cart       *usecase.CartUsecase
	profile    *usecase.ProfileUsecase
	uc         *usecase.CheckoutUsecase
}

func newCheckoutFixture(rows ...model.Session) *checkoutFixture {
	f := &checkoutFixture{
		authAPI:    new(AuthAPIMock),
		cartAPI:    new(CartAPIMock),
		profileAPI: new(ProfileAPIMock),
		orderAPI:   new(OrderAPIMock),
		sessions:   newSessionRepo(rows...),
		pub:        &PublisherMock{},
		tickers:    &timer.ManualTickers{},
	}
	log := zap.NewNop()

	settingsAPI := new(SettingsAPIMock)
	settingsAPI.On("GetSettings", mock.Anything).Return(shopSettings(), nil)

	auth := usecase.NewAuthUsecase(f.authAPI, f.sessions, time.Hour, log)
	cart := usecase.NewCartUsecase(f.cartAPI, log)
	profile := usecase.NewProfileUsecase(f.profileAPI, log)
	auth.OnReset(cart)
	auth.OnReset(profile)

	f.uc = usecase.NewCheckoutUsecase(
		auth,
		cart,
		usecase.NewSettingsUsecase(settingsAPI, cache.NewMemoryStore(), time.Minute, log),
		profile,
		usecase.NewOrderUsecase(f.orderAPI, f.pub, log),
		usecase.NewGuestUsecase(f.sessions, f.pub, log),
		noAddresses{},
		f.pub,
		log,
		usecase.WithCheckoutTicker(f.tickers.Factory()),
	)
	auth.OnExpire(f.uc)
	f.auth, f.cart, f.profile = auth, cart, profile
	return f
}

func guestCart() model.Cart {
	return model.Cart{Items: []model.CartItem{item(1, 7, "M", 500, 1)}}
}

func fullProfile() *model.Profile {
	return &model.Profile{
		Name:              "Ana",
		Email:             "ana@example.com",
		InstagramUsername: "@ana",
		AddressLine1:      "12 Mabini St",
		Barangay:          "Poblacion",
		City:              "Makati",
		Province:          model.MetroManila,
		MobileNumber:      "09171234567",
	}
}

func TestCheckoutUsecase_Open_GuestPrefillsFromGuestProfile(t *testing.T) {
	s := guestSession("s1", "g-1")
	f := newCheckoutFixture(*s)
	f.cartAPI.On("GetGuestCart", mock.Anything, "g-1").Return(guestCart(), nil)
	f.profileAPI.On("GetProfile", mock.Anything, apiclient.Auth{GuestID: "g-1"}).Return(fullProfile(), nil)

	st, err := f.uc.Open(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, checkout.ModeInitial, st.Mode)
	assert.Equal(t, "Ana", st.Form.Name)
	assert.Equal(t, "₱500.00", st.Subtotal)
	assert.Equal(t, "₱100.00", st.ShippingFee)
	assert.Equal(t, "₱600.00", st.GrandTotal)

	// 開き直すと前のフローは閉じる
	first, err := f.uc.Flow(s)
	require.NoError(t, err)
	_, err = f.uc.Open(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, first.Closed())

	f.uc.Shutdown()
	_, err = f.uc.Flow(s)
	assert.ErrorIs(t, err, usecase.ErrNoCheckout)
}

func TestCheckoutUsecase_Open_AuthenticatedStartsAtCheckout(t *testing.T) {
	s := userSession("s1", "tok", model.User{ID: 1, Name: "Ana Cruz", Email: "ana@example.com"})
	f := newCheckoutFixture(*s)
	f.cartAPI.On("GetCart", mock.Anything, "tok").Return(guestCart(), nil)
	f.profileAPI.On("GetProfile", mock.Anything, apiclient.Auth{Token: "tok"}).Return(nil, nil)

	st, err := f.uc.Open(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, checkout.ModeCheckout, st.Mode)
	assert.Equal(t, checkout.StepCustomerInfo, st.Step)
	assert.Equal(t, "Ana Cruz", st.Form.Name)
	assert.Equal(t, "ana@example.com", st.Form.Email)
	f.uc.Shutdown()
}

func TestCheckoutUsecase_HoldExpiredPublishesAndRefetches(t *testing.T) {
	ctx := context.Background()
	s := guestSession("s1", "g-1")
	f := newCheckoutFixture(*s)
	f.cartAPI.On("GetGuestCart", mock.Anything, "g-1").Return(guestCart(), nil)
	f.profileAPI.On("GetProfile", mock.Anything, mock.Anything).Return(fullProfile(), nil)
	f.cartAPI.On("HoldGuestCart", mock.Anything, "g-1", mock.Anything).Return(model.HoldResult{IsHoldExpired: true}, nil)

	_, err := f.uc.Open(ctx, s)
	require.NoError(t, err)
	flow, err := f.uc.Flow(s)
	require.NoError(t, err)
	require.NoError(t, flow.ContinueAsGuest())

	err = flow.NextStep(ctx)
	assert.ErrorIs(t, err, checkout.ErrHoldExpired)
	assert.True(t, flow.Closed())
	assert.Equal(t, checkout.CloseReasonHoldExpired, flow.State().CloseReason)

	evs := f.pub.ofType(events.EventHoldExpired)
	require.Len(t, evs, 1)
	assert.Equal(t, events.HoldExpiredPayload{Mode: "checkout", Step: 1}, evs[0].Payload)
	f.cartAPI.AssertNumberOfCalls(t, "GetGuestCart", 2)

	// 閉じたフローは登録から外れる
	_, err = f.uc.Flow(s)
	assert.ErrorIs(t, err, usecase.ErrNoCheckout)
	assert.Equal(t, 0, f.uc.OpenFlows())
}

func TestCheckoutUsecase_CountdownExpiryUnregistersFlow(t *testing.T) {
	ctx := context.Background()
	s := guestSession("s1", "g-1")
	f := newCheckoutFixture(*s)
	f.cartAPI.On("GetGuestCart", mock.Anything, "g-1").Return(guestCart(), nil)
	f.profileAPI.On("GetProfile", mock.Anything, mock.Anything).Return(fullProfile(), nil)
	f.cartAPI.On("HoldGuestCart", mock.Anything, "g-1", mock.Anything).Return(model.HoldResult{Success: true, HoldExpiryTimeInSeconds: 2}, nil)

	_, err := f.uc.Open(ctx, s)
	require.NoError(t, err)
	flow, err := f.uc.Flow(s)
	require.NoError(t, err)
	require.NoError(t, flow.ContinueAsGuest())
	require.NoError(t, flow.NextStep(ctx))

	require.True(t, f.tickers.Tick())
	require.True(t, f.tickers.Tick())

	assert.Eventually(t, func() bool {
		return len(f.pub.ofType(events.EventHoldExpired)) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, f.uc.OpenFlows())
	assert.True(t, flow.Closed())
}

func TestCheckoutUsecase_CleanupExpiredDropsSessionState(t *testing.T) {
	ctx := context.Background()
	s := userSession("s1", "tok", model.User{ID: 1, Name: "Ana"})
	f := newCheckoutFixture(*s)
	f.authAPI.On("CurrentUser", mock.Anything, "tok").Return(model.User{ID: 1, Name: "Ana"}, nil).Once()
	f.cartAPI.On("GetCart", mock.Anything, "tok").Return(guestCart(), nil)
	f.profileAPI.On("GetProfile", mock.Anything, apiclient.Auth{Token: "tok"}).Return(fullProfile(), nil)

	opened, err := f.auth.Open(ctx, "s1")
	require.NoError(t, err)
	_, err = f.uc.Open(ctx, opened)
	require.NoError(t, err)
	flow, err := f.uc.Flow(opened)
	require.NoError(t, err)

	assert.Equal(t, 1, f.auth.ValidatedCount())
	assert.Equal(t, 1, f.cart.MirrorCount())
	assert.Equal(t, 1, f.profile.MirrorCount())
	assert.Equal(t, 1, f.uc.OpenFlows())

	f.sessions.expire("s1")
	n, err := f.auth.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.Equal(t, 0, f.auth.ValidatedCount())
	assert.Equal(t, 0, f.cart.MirrorCount())
	assert.Equal(t, 0, f.profile.MirrorCount())
	assert.Equal(t, 0, f.uc.OpenFlows())
	assert.True(t, flow.Closed())
	assert.Equal(t, 0, f.sessions.count())
}

func TestCheckoutUsecase_GuestSubmitClearsCart(t *testing.T) {
	ctx := context.Background()
	s := guestSession("s1", "g-1")
	f := newCheckoutFixture(*s)
	f.cartAPI.On("GetGuestCart", mock.Anything, "g-1").Return(guestCart(), nil)
	f.profileAPI.On("GetProfile", mock.Anything, mock.Anything).Return(fullProfile(), nil)
	f.cartAPI.On("HoldGuestCart", mock.Anything, "g-1", mock.Anything).Return(model.HoldResult{Success: true, HoldExpiryTimeInSeconds: 600}, nil)
	f.orderAPI.On("CreateGuestOrder", mock.Anything, "g-1", mock.Anything, []apiclient.CartLine{{ProductID: 7, Size: "M", Quantity: 1}}).
		Return(model.Order{ID: 42}, nil)
	f.cartAPI.On("ClearCart", mock.Anything, apiclient.Auth{GuestID: "g-1"}).Return(model.Cart{}, nil)

	_, err := f.uc.Open(ctx, s)
	require.NoError(t, err)
	flow, err := f.uc.Flow(s)
	require.NoError(t, err)

	require.NoError(t, flow.ContinueAsGuest())
	require.NoError(t, flow.NextStep(ctx))
	assert.Equal(t, 600, flow.State().HoldSecondsRemaining)
	require.NoError(t, flow.SetPaymentProof(checkout.PaymentProof{Filename: "gcash.png", Data: []byte("png")}))
	require.NoError(t, flow.NextStep(ctx))

	order, err := flow.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), order.ID)

	st := flow.State()
	assert.True(t, st.OrderSuccess)
	assert.Equal(t, 0, st.HoldSecondsRemaining)
	f.cartAPI.AssertCalled(t, "ClearCart", mock.Anything, apiclient.Auth{GuestID: "g-1"})
	assert.Len(t, f.pub.ofType(events.EventOrderPlaced), 1)
	// 既にゲストIDがあるので発行しない
	assert.Empty(t, f.pub.ofType(events.EventGuestIDSet))
	f.uc.Close(s)
}

func TestCheckoutUsecase_RegisterInsideFlowSignsSessionIn(t *testing.T) {
	ctx := context.Background()
	s := guestSession("s1", "")
	f := newCheckoutFixture(*s)

	user := model.User{ID: 3, Name: "Ana", Email: "ana@example.com"}
	f.authAPI.On("Register", mock.Anything, apiclient.RegisterInput{
		Name:                 "Ana",
		Email:                "ana@example.com",
		Password:             "secret123",
		PasswordConfirmation: "secret123",
	}).Return(apiclient.AuthResult{User: user, Token: "tok-3"}, nil)
	memberCart := model.Cart{Items: []model.CartItem{item(9, 11, "L", 750, 2)}}
	f.cartAPI.On("GetCart", mock.Anything, "tok-3").Return(memberCart, nil).Once()

	_, err := f.uc.Open(ctx, s)
	require.NoError(t, err)
	flow, err := f.uc.Flow(s)
	require.NoError(t, err)

	require.NoError(t, flow.ChooseRegister())
	name, email, pw := "Ana", "ana@example.com", "secret123"
	require.NoError(t, flow.UpdateForm(checkout.FormPatch{Name: &name, Email: &email, Password: &pw, PasswordConfirmation: &pw}))
	require.NoError(t, flow.Register(ctx))

	st := flow.State()
	assert.Equal(t, checkout.ModeCheckout, st.Mode)
	assert.True(t, st.Authenticated)
	assert.True(t, st.AccountCreated)
	assert.Equal(t, "tok-3", f.sessions.row("s1").Token)
	// 確保と合計は会員のカートで行う
	assert.Equal(t, "₱1500.00", st.Subtotal)
	f.cartAPI.AssertCalled(t, "GetCart", mock.Anything, "tok-3")
	f.uc.Close(s)
}
