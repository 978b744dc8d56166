package usecase_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"storefront/internal/apiclient"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// =====================
// Repository mocks
// =====================

// SessionRepoMock はメモリ上のセッション表
type SessionRepoMock struct {
	mu   sync.Mutex
	rows map[string]model.Session

	saveErr   error
	deleteErr error
}

func newSessionRepo(rows ...model.Session) *SessionRepoMock {
	m := &SessionRepoMock{rows: map[string]model.Session{}}
	for _, s := range rows {
		m.rows[s.ID] = s
	}
	return m
}

func (m *SessionRepoMock) Create(ctx context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[s.ID] = *s
	return nil
}

func (m *SessionRepoMock) FindByID(ctx context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, repo.ErrSessionNotFound
	}
	return &s, nil
}

func (m *SessionRepoMock) Save(ctx context.Context, s *model.Session) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[s.ID] = *s
	return nil
}

func (m *SessionRepoMock) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *SessionRepoMock) DeleteExpired(ctx context.Context, now time.Time) ([]string, error) {
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, s := range m.rows {
		if !s.ExpiresAt.After(now) {
			ids = append(ids, id)
			delete(m.rows, id)
		}
	}
	return ids, nil
}

// expire は行の期限を過去にする
func (m *SessionRepoMock) expire(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.rows[id]
	s.ExpiresAt = time.Now().Add(-time.Minute)
	m.rows[id] = s
}

func (m *SessionRepoMock) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *SessionRepoMock) row(id string) model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id]
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, f)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

// =====================
// Remote API mocks
// =====================

type AuthAPIMock struct{ mock.Mock }

func (m *AuthAPIMock) Login(ctx context.Context, email, password string) (apiclient.AuthResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(apiclient.AuthResult), args.Error(1)
}

func (m *AuthAPIMock) Register(ctx context.Context, in apiclient.RegisterInput) (apiclient.AuthResult, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(apiclient.AuthResult), args.Error(1)
}

func (m *AuthAPIMock) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *AuthAPIMock) CurrentUser(ctx context.Context, token string) (model.User, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.User), args.Error(1)
}

type CartAPIMock struct{ mock.Mock }

func (m *CartAPIMock) GetCart(ctx context.Context, token string) (model.Cart, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.Cart), args.Error(1)
}

func (m *CartAPIMock) GetGuestCart(ctx context.Context, guestID string) (model.Cart, error) {
	args := m.Called(ctx, guestID)
	return args.Get(0).(model.Cart), args.Error(1)
}

func (m *CartAPIMock) AddCartItem(ctx context.Context, token string, productID int64, size string, qty int64) (model.Cart, error) {
	args := m.Called(ctx, token, productID, size, qty)
	return args.Get(0).(model.Cart), args.Error(1)
}

func (m *CartAPIMock) UpdateCartItem(ctx context.Context, token string, itemID int64, qty int64) (model.Cart, error) {
	args := m.Called(ctx, token, itemID, qty)
	return args.Get(0).(model.Cart), args.Error(1)
}

func (m *CartAPIMock) RemoveCartItem(ctx context.Context, token string, itemID int64) (model.Cart, error) {
	args := m.Called(ctx, token, itemID)
	return args.Get(0).(model.Cart), args.Error(1)
}

func (m *CartAPIMock) ClearCart(ctx context.Context, auth apiclient.Auth) (model.Cart, error) {
	args := m.Called(ctx, auth)
	return args.Get(0).(model.Cart), args.Error(1)
}

func (m *CartAPIMock) HoldCart(ctx context.Context, token string) (model.HoldResult, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.HoldResult), args.Error(1)
}

func (m *CartAPIMock) HoldGuestCart(ctx context.Context, guestID string, lines []apiclient.CartLine) (model.HoldResult, error) {
	args := m.Called(ctx, guestID, lines)
	return args.Get(0).(model.HoldResult), args.Error(1)
}

type SettingsAPIMock struct{ mock.Mock }

func (m *SettingsAPIMock) GetSettings(ctx context.Context) (model.Settings, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.Settings), args.Error(1)
}

func (m *SettingsAPIMock) UpdateSettings(ctx context.Context, token string, s model.Settings) (model.Settings, error) {
	args := m.Called(ctx, token, s)
	return args.Get(0).(model.Settings), args.Error(1)
}

func (m *SettingsAPIMock) UpdateOrderStatus(ctx context.Context, token string, id int64, status model.OrderStatus, adminNotes string) (model.Order, error) {
	args := m.Called(ctx, token, id, status, adminNotes)
	return args.Get(0).(model.Order), args.Error(1)
}

type ProfileAPIMock struct{ mock.Mock }

func (m *ProfileAPIMock) GetProfile(ctx context.Context, auth apiclient.Auth) (*model.Profile, error) {
	args := m.Called(ctx, auth)
	p, _ := args.Get(0).(*model.Profile)
	return p, args.Error(1)
}

func (m *ProfileAPIMock) SaveProfile(ctx context.Context, auth apiclient.Auth, p model.Profile) (model.Profile, error) {
	args := m.Called(ctx, auth, p)
	return args.Get(0).(model.Profile), args.Error(1)
}

type OrderAPIMock struct{ mock.Mock }

func (m *OrderAPIMock) CreateOrder(ctx context.Context, token string, s apiclient.OrderSubmission) (model.Order, error) {
	args := m.Called(ctx, token, s)
	return args.Get(0).(model.Order), args.Error(1)
}

func (m *OrderAPIMock) CreateGuestOrder(ctx context.Context, guestID string, s apiclient.OrderSubmission, lines []apiclient.CartLine) (model.Order, error) {
	args := m.Called(ctx, guestID, s, lines)
	return args.Get(0).(model.Order), args.Error(1)
}

func (m *OrderAPIMock) ListOrders(ctx context.Context, token string) ([]model.Order, error) {
	args := m.Called(ctx, token)
	o, _ := args.Get(0).([]model.Order)
	return o, args.Error(1)
}

func (m *OrderAPIMock) GetOrder(ctx context.Context, token string, id int64) (model.Order, error) {
	args := m.Called(ctx, token, id)
	return args.Get(0).(model.Order), args.Error(1)
}

func (m *OrderAPIMock) ListGuestOrders(ctx context.Context, guestID string) ([]model.Order, error) {
	args := m.Called(ctx, guestID)
	o, _ := args.Get(0).([]model.Order)
	return o, args.Error(1)
}

type CatalogAPIMock struct{ mock.Mock }

func (m *CatalogAPIMock) ListProducts(ctx context.Context, q model.ProductQuery) (model.ProductList, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(model.ProductList), args.Error(1)
}

func (m *CatalogAPIMock) GetProduct(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Product), args.Error(1)
}

func (m *CatalogAPIMock) ListAnnouncements(ctx context.Context) ([]model.Announcement, error) {
	args := m.Called(ctx)
	a, _ := args.Get(0).([]model.Announcement)
	return a, args.Error(1)
}

func (m *CatalogAPIMock) ListCarousel(ctx context.Context) ([]model.CarouselSlide, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).([]model.CarouselSlide)
	return c, args.Error(1)
}

type AdminResourceMock[T any] struct {
	mock.Mock
	name string
}

func (m *AdminResourceMock[T]) Name() string { return m.name }

func (m *AdminResourceMock[T]) List(ctx context.Context, token string) ([]T, error) {
	args := m.Called(ctx, token)
	v, _ := args.Get(0).([]T)
	return v, args.Error(1)
}

func (m *AdminResourceMock[T]) Get(ctx context.Context, token string, id int64) (T, error) {
	args := m.Called(ctx, token, id)
	return args.Get(0).(T), args.Error(1)
}

func (m *AdminResourceMock[T]) Create(ctx context.Context, token string, body T) (T, error) {
	args := m.Called(ctx, token, body)
	return args.Get(0).(T), args.Error(1)
}

func (m *AdminResourceMock[T]) Update(ctx context.Context, token string, id int64, body T) (T, error) {
	args := m.Called(ctx, token, id, body)
	return args.Get(0).(T), args.Error(1)
}

func (m *AdminResourceMock[T]) Delete(ctx context.Context, token string, id int64) error {
	args := m.Called(ctx, token, id)
	return args.Error(0)
}

// =====================
// Events
// =====================

type published struct {
	Type      string
	SessionID string
	Payload   any
}

// PublisherMock は流れたイベントを記録する
type PublisherMock struct {
	mu     sync.Mutex
	events []published
}

func (p *PublisherMock) Publish(eventType, sessionID string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Type: eventType, SessionID: sessionID, Payload: payload})
}

func (p *PublisherMock) ofType(t string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// =====================
// Helpers
// =====================

func guestSession(id, guestID string) *model.Session {
	return &model.Session{ID: id, GuestID: guestID, ExpiresAt: time.Now().Add(time.Hour)}
}

func userSession(id, token string, u model.User) *model.Session {
	s := &model.Session{ID: id, ExpiresAt: time.Now().Add(time.Hour)}
	_ = s.SignIn(token, u)
	return s
}

func unauthorized() error {
	return &apiclient.APIError{Status: 401, Message: "Unauthenticated."}
}

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}
