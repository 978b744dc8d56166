package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain/model"
	"storefront/internal/timer"
)

// 期限切れ後の後始末（カート再取得）に使う時間
const cleanupTimeout = 10 * time.Second

// Cart はセッションのカート
type Cart interface {
	Fetch(ctx context.Context) (model.Cart, error)
	Hold(ctx context.Context, cart model.Cart) (model.HoldResult, error)
	Clear(ctx context.Context) error
}

// Submission は注文作成に渡す内容
type Submission struct {
	Form          FormData
	ShippingFee   decimal.Decimal
	Cart          model.Cart
	GuestID       string
	Authenticated bool
}

type Orders interface {
	Place(ctx context.Context, s Submission) (model.Order, error)
}

// Registrar はアカウントを作ってセッションをログイン状態にする
type Registrar interface {
	Register(ctx context.Context, d FormData) (model.User, error)
}

type Addresses interface {
	Provinces(ctx context.Context) ([]model.AddressOption, error)
	Cities(ctx context.Context, provinceCode string) ([]model.AddressOption, error)
	Barangays(ctx context.Context, cityCode string) ([]model.AddressOption, error)
}

type Guests interface {
	EnsureGuestID(ctx context.Context) (string, error)
}

// Deps はフロー1つ分の協力者（すべてセッションに束縛済み）
type Deps struct {
	Cart      Cart
	Orders    Orders
	Registrar Registrar
	Addresses Addresses
	Guests    Guests
	Settings  model.Settings

	// 注文成功時（任意）
	OnSuccess func(model.Order)
	// 確保切れで閉じたとき（任意）
	OnHoldExpired func(mode FormMode, step Step)

	Ticker timer.TickerFactory
	Log    *zap.Logger
}

// 閉じた理由
const (
	CloseReasonUser        = "closed"
	CloseReasonHoldExpired = "hold_expired"
)

// Flow はチェックアウトモーダル1つ分の状態機械。
// 操作はすべて mu で直列化する（リモート呼び出し中も持ったまま）。
type Flow struct {
	mu   sync.Mutex
	deps Deps

	mode           FormMode
	step           Step
	data           FormData
	authenticated  bool
	accountCreated bool

	cart model.Cart

	orderSuccess bool
	order        *model.Order
	orderError   string
	formError    string
	fieldErrors  ValidationErrors

	provinces    []model.AddressOption
	cities       []model.AddressOption
	barangays    []model.AddressOption
	provinceCode string
	cityCode     string

	countdown   *timer.Countdown
	closed      bool
	closeReason string
}

// NewFlow はモーダルを開く。
// 未ログインなら initial、ログイン済みなら checkout の1段目から。
func NewFlow(deps Deps, authenticated bool, prefill FormData, cart model.Cart) *Flow {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Ticker == nil {
		deps.Ticker = timer.RealTicker
	}

	f := &Flow{
		deps:          deps,
		data:          prefill,
		authenticated: authenticated,
		cart:          cart,
		mode:          ModeInitial,
		step:          StepCustomerInfo,
	}
	if authenticated {
		f.mode = ModeCheckout
	}
	// パスワードは引き継がない
	f.data.Password = ""
	f.data.PasswordConfirmation = ""
	f.data.PaymentProof = nil

	f.countdown = timer.NewCountdown(f.onHoldExpired, timer.WithTicker(deps.Ticker))
	return f
}

func (f *Flow) usable() error {
	if f.closed {
		return ErrClosed
	}
	if f.orderSuccess {
		return ErrInvalidState
	}
	return nil
}

// ChooseRegister: initial -> register
func (f *Flow) ChooseRegister() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.usable(); err != nil {
		return err
	}
	if f.mode != ModeInitial {
		return ErrInvalidState
	}
	f.mode = ModeRegister
	f.formError = ""
	f.fieldErrors = nil
	return nil
}

// ContinueAsGuest: initial -> checkout 1段目
func (f *Flow) ContinueAsGuest() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.usable(); err != nil {
		return err
	}
	if f.mode != ModeInitial {
		return ErrInvalidState
	}
	f.mode = ModeCheckout
	f.step = StepCustomerInfo
	return nil
}

// Register はアカウントを作る。
// 成功したら checkout へ、失敗なら register のままフォームエラーを出す。
func (f *Flow) Register(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.usable(); err != nil {
		return err
	}
	if f.mode != ModeRegister {
		return ErrInvalidState
	}

	f.formError = ""
	f.fieldErrors = nil
	if errs := ValidateRegistration(f.data); len(errs) > 0 {
		f.fieldErrors = errs
		return errs
	}

	u, err := f.deps.Registrar.Register(ctx, f.data.trimmed())
	if err != nil {
		f.formError = userMessage(err)
		return err
	}

	f.data.Password = ""
	f.data.PasswordConfirmation = ""
	if f.data.Name == "" {
		f.data.Name = u.Name
	}
	if f.data.Email == "" {
		f.data.Email = u.Email
	}
	f.authenticated = true
	f.accountCreated = true
	f.mode = ModeCheckout
	f.step = StepCustomerInfo

	// 以降は会員のカートを確保・注文するので取り直す
	cart, err := f.deps.Cart.Fetch(ctx)
	if err != nil {
		f.deps.Log.Warn("refetch cart after register", zap.Error(err))
		return nil
	}
	f.cart = cart
	return nil
}

// UpdateForm は入力を部分更新する
func (f *Flow) UpdateForm(p FormPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.usable(); err != nil {
		return err
	}
	p.apply(&f.data)
	return nil
}

// SetPaymentProof は支払い証明を差し替える（2段目）
func (f *Flow) SetPaymentProof(p PaymentProof) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.usable(); err != nil {
		return err
	}
	if f.mode != ModeCheckout || f.step != StepPayment {
		return ErrInvalidState
	}
	f.data.PaymentProof = &p
	delete(f.fieldErrors, "payment_proof")
	return nil
}

// NextStep は今の段階を検証してから進む。
// 2段目に入るときに在庫の確保を依頼し、切れていたらフローを閉じる。
func (f *Flow) NextStep(ctx context.Context) error {
	f.mu.Lock()

	if err := f.usable(); err != nil {
		f.mu.Unlock()
		return err
	}
	if f.mode != ModeCheckout || f.step >= StepConfirm {
		f.mu.Unlock()
		return ErrInvalidState
	}

	if errs := ValidateStep(f.step, f.data, f.authenticated); len(errs) > 0 {
		f.fieldErrors = errs
		f.mu.Unlock()
		return errs
	}
	f.fieldErrors = nil

	if f.step == StepPayment {
		f.step = StepConfirm
		f.mu.Unlock()
		return nil
	}

	// 1 -> 2
	if f.cart.IsEmpty() {
		f.mu.Unlock()
		return ErrEmptyCart
	}
	hold, err := f.deps.Cart.Hold(ctx, f.cart)
	if err != nil || hold.IsHoldExpired || hold.HoldExpiryTimeInSeconds <= 0 {
		if err != nil {
			f.deps.Log.Info("hold request failed", zap.Error(err))
		}
		mode, step := f.mode, f.step
		f.closeLocked(CloseReasonHoldExpired)
		f.mu.Unlock()

		f.resync(ctx, mode, step)
		return ErrHoldExpired
	}

	f.step = StepPayment
	f.countdown.Reset(hold.HoldExpiryTimeInSeconds)
	f.mu.Unlock()
	return nil
}

// PrevStep は検証せずに戻る。1段目に戻ったら確保のカウントダウンも止める。
func (f *Flow) PrevStep() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.usable(); err != nil {
		return err
	}
	if f.mode != ModeCheckout {
		return ErrInvalidState
	}
	f.fieldErrors = nil
	if f.step > StepCustomerInfo {
		f.step--
	}
	if f.step == StepCustomerInfo {
		f.countdown.Stop()
	}
	return nil
}

// Submit は3段目で注文を作る。
// 失敗しても3段目に留まり、カートは消さない。
func (f *Flow) Submit(ctx context.Context) (model.Order, error) {
	f.mu.Lock()

	if err := f.usable(); err != nil {
		f.mu.Unlock()
		return model.Order{}, err
	}
	if f.mode != ModeCheckout || f.step != StepConfirm {
		f.mu.Unlock()
		return model.Order{}, ErrInvalidState
	}

	// 支払い証明と州が無いままは送らない
	for _, s := range []Step{StepCustomerInfo, StepPayment} {
		if errs := ValidateStep(s, f.data, f.authenticated); len(errs) > 0 {
			f.fieldErrors = errs
			f.mu.Unlock()
			return model.Order{}, errs
		}
	}

	f.orderError = ""
	sub := Submission{
		Form:          f.data.trimmed(),
		ShippingFee:   ShippingFee(f.deps.Settings, f.data.Province),
		Cart:          f.cart,
		Authenticated: f.authenticated,
	}

	if !f.authenticated {
		guestID, err := f.deps.Guests.EnsureGuestID(ctx)
		if err != nil {
			f.orderError = userMessage(err)
			f.mu.Unlock()
			return model.Order{}, err
		}
		sub.GuestID = guestID
	}

	order, err := f.deps.Orders.Place(ctx, sub)
	if err != nil {
		f.orderError = userMessage(err)
		f.mu.Unlock()
		return model.Order{}, err
	}

	f.orderSuccess = true
	f.order = &order
	f.countdown.Stop()
	f.mu.Unlock()

	if err := f.deps.Cart.Clear(ctx); err != nil {
		f.deps.Log.Warn("clear cart after order", zap.Int64("order_id", order.ID), zap.Error(err))
	}
	if f.deps.OnSuccess != nil {
		f.deps.OnSuccess(order)
	}
	return order, nil
}

// Close はモーダルを閉じる。何度呼んでもよい。
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeLocked(CloseReasonUser)
}

func (f *Flow) closeLocked(reason string) {
	if f.closed {
		return
	}
	f.closed = true
	f.closeReason = reason
	f.countdown.Stop()
	// 入力は破棄する
	f.data = FormData{}
}

// カウントダウンが0になった
func (f *Flow) onHoldExpired() {
	f.mu.Lock()
	if f.closed || f.orderSuccess {
		f.mu.Unlock()
		return
	}
	mode, step := f.mode, f.step
	f.closeLocked(CloseReasonHoldExpired)
	f.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	f.resync(ctx, mode, step)
}

// resync はカートを取り直して、確保切れを通知する
func (f *Flow) resync(ctx context.Context, mode FormMode, step Step) {
	cart, err := f.deps.Cart.Fetch(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		f.deps.Log.Warn("refetch cart after hold expiry", zap.Error(err))
	}
	if err == nil {
		f.mu.Lock()
		f.cart = cart
		f.mu.Unlock()
	}
	if f.deps.OnHoldExpired != nil {
		f.deps.OnHoldExpired(mode, step)
	}
}

// Closed は閉じているか
func (f *Flow) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// State は画面に返すスナップショット
type State struct {
	Mode                 FormMode              `json:"form_mode"`
	Step                 Step                  `json:"current_step"`
	Form                 FormView              `json:"form"`
	Authenticated        bool                  `json:"authenticated"`
	AccountCreated       bool                  `json:"account_created"`
	Items                []model.CartItem      `json:"items"`
	Subtotal             string                `json:"subtotal"`
	ShippingFee          string                `json:"shipping_fee"`
	GrandTotal           string                `json:"grand_total"`
	HoldSecondsRemaining int                   `json:"hold_seconds_remaining"`
	OrderSuccess         bool                  `json:"order_success"`
	Order                *model.Order          `json:"order,omitempty"`
	OrderError           string                `json:"order_error,omitempty"`
	FormError            string                `json:"form_error,omitempty"`
	FieldErrors          ValidationErrors      `json:"field_errors,omitempty"`
	Provinces            []model.AddressOption `json:"provinces,omitempty"`
	Cities               []model.AddressOption `json:"cities,omitempty"`
	Barangays            []model.AddressOption `json:"barangays,omitempty"`
	PaymentInstructions  string                `json:"payment_options_description,omitempty"`
	AfterPayment         string                `json:"what_happens_after_payment,omitempty"`
	Closed               bool                  `json:"closed"`
	CloseReason          string                `json:"close_reason,omitempty"`
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	subtotal := f.cart.Subtotal()
	hold := 0
	if f.countdown.Running() {
		hold = f.countdown.Remaining()
	}
	items := f.cart.Items
	if items == nil {
		items = []model.CartItem{}
	}
	return State{
		Mode:                 f.mode,
		Step:                 f.step,
		Form:                 f.data.view(),
		Authenticated:        f.authenticated,
		AccountCreated:       f.accountCreated,
		Items:                items,
		Subtotal:             FormatPeso(subtotal),
		ShippingFee:          FormatPeso(ShippingFee(f.deps.Settings, f.data.Province)),
		GrandTotal:           FormatPeso(GrandTotal(subtotal, f.deps.Settings, f.data.Province)),
		HoldSecondsRemaining: hold,
		OrderSuccess:         f.orderSuccess,
		Order:                f.order,
		OrderError:           f.orderError,
		FormError:            f.formError,
		FieldErrors:          f.fieldErrors,
		Provinces:            f.provinces,
		Cities:               f.cities,
		Barangays:            f.barangays,
		PaymentInstructions:  f.deps.Settings.PaymentOptionsDescription,
		AfterPayment:         f.deps.Settings.WhatHappensAfterPayment,
		Closed:               f.closed,
		CloseReason:          f.closeReason,
	}
}
