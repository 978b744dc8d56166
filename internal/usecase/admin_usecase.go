package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/apiclient"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// AdminResourceAPI は /admin/{resource} の標準CRUD（apiclient.AdminResource）
type AdminResourceAPI[T any] interface {
	Name() string
	List(ctx context.Context, token string) ([]T, error)
	Get(ctx context.Context, token string, id int64) (T, error)
	Create(ctx context.Context, token string, body T) (T, error)
	Update(ctx context.Context, token string, id int64, body T) (T, error)
	Delete(ctx context.Context, token string, id int64) error
}

// 管理画面で401を受けたときにセッションを消す先（AuthUsecase）
type SessionExpirer interface {
	Expire(ctx context.Context, s *model.Session) error
}

// PanelResult は変更後の一覧と一時的なバナー
type PanelResult[T any] struct {
	Items   []T    `json:"data"`
	Message string `json:"message,omitempty"`
}

// Panel は1リソース分の管理画面
type Panel[T any] struct {
	api   AdminResourceAPI[T]
	label string
	idOf  func(T) int64

	auth      SessionExpirer
	auditRepo repo.AuditLogRepository
	log       *zap.Logger
	now       func() time.Time
}

// NewPanel はリソース1つ分のパネルを作る。label はバナーの主語（"Product" など）。
func NewPanel[T any](api AdminResourceAPI[T], label string, idOf func(T) int64, auth SessionExpirer, auditRepo repo.AuditLogRepository, log *zap.Logger) *Panel[T] {
	return &Panel[T]{
		api:       api,
		label:     label,
		idOf:      idOf,
		auth:      auth,
		auditRepo: auditRepo,
		log:       log,
		now:       time.Now,
	}
}

// admin は操作した管理者。middlewareでも見ているが念のため。
func admin(s *model.Session) (model.User, error) {
	if !s.IsAuthenticated() {
		return model.User{}, ErrSessionExpired
	}
	user, ok := s.User()
	if !ok || !user.IsAdmin() {
		return model.User{}, ErrForbidden
	}
	return user, nil
}

// remoteError は401ならセッションを消して ErrSessionExpired
func remoteError(ctx context.Context, auth SessionExpirer, s *model.Session, err error) error {
	if apiclient.IsUnauthorized(err) {
		return auth.Expire(ctx, s)
	}
	return fromAPIError(err)
}

func (p *Panel[T]) List(ctx context.Context, s *model.Session) (PanelResult[T], error) {
	if _, err := admin(s); err != nil {
		return PanelResult[T]{}, err
	}
	items, err := p.api.List(ctx, s.Token)
	if err != nil {
		return PanelResult[T]{}, remoteError(ctx, p.auth, s, err)
	}
	return PanelResult[T]{Items: items}, nil
}

func (p *Panel[T]) Get(ctx context.Context, s *model.Session, id int64) (T, error) {
	var zero T
	if _, err := admin(s); err != nil {
		return zero, err
	}
	if id <= 0 {
		return zero, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	v, err := p.api.Get(ctx, s.Token, id)
	if err != nil {
		return zero, remoteError(ctx, p.auth, s, err)
	}
	return v, nil
}

func (p *Panel[T]) Create(ctx context.Context, s *model.Session, body T) (PanelResult[T], error) {
	user, err := admin(s)
	if err != nil {
		return PanelResult[T]{}, err
	}
	created, err := p.api.Create(ctx, s.Token, body)
	if err != nil {
		return PanelResult[T]{}, remoteError(ctx, p.auth, s, err)
	}
	p.audit(ctx, user, model.AuditActionCreate, p.idOf(created), nil, created)
	return p.refetch(ctx, s, "created")
}

func (p *Panel[T]) Update(ctx context.Context, s *model.Session, id int64, body T) (PanelResult[T], error) {
	user, err := admin(s)
	if err != nil {
		return PanelResult[T]{}, err
	}
	if id <= 0 {
		return PanelResult[T]{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	// 変更前（取れなければ空で残す）
	var before any
	if v, err := p.api.Get(ctx, s.Token, id); err == nil {
		before = v
	}

	updated, err := p.api.Update(ctx, s.Token, id, body)
	if err != nil {
		return PanelResult[T]{}, remoteError(ctx, p.auth, s, err)
	}
	p.audit(ctx, user, model.AuditActionUpdate, id, before, updated)
	return p.refetch(ctx, s, "updated")
}

func (p *Panel[T]) Delete(ctx context.Context, s *model.Session, id int64) (PanelResult[T], error) {
	user, err := admin(s)
	if err != nil {
		return PanelResult[T]{}, err
	}
	if id <= 0 {
		return PanelResult[T]{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var before any
	if v, err := p.api.Get(ctx, s.Token, id); err == nil {
		before = v
	}

	if err := p.api.Delete(ctx, s.Token, id); err != nil {
		return PanelResult[T]{}, remoteError(ctx, p.auth, s, err)
	}
	p.audit(ctx, user, model.AuditActionDelete, id, before, nil)
	return p.refetch(ctx, s, "deleted")
}

// refetch は変更後の一覧を取り直してバナーを付ける
func (p *Panel[T]) refetch(ctx context.Context, s *model.Session, verb string) (PanelResult[T], error) {
	items, err := p.api.List(ctx, s.Token)
	if err != nil {
		return PanelResult[T]{}, remoteError(ctx, p.auth, s, err)
	}
	return PanelResult[T]{
		Items:   items,
		Message: fmt.Sprintf("%s %s successfully", p.label, verb),
	}, nil
}

func (p *Panel[T]) audit(ctx context.Context, user model.User, action model.AuditAction, id int64, before, after any) {
	writeAudit(ctx, p.auditRepo, p.log, model.AuditLog{
		ActorUserID:  user.ID,
		Action:       action,
		ResourceType: p.api.Name(),
		ResourceID:   id,
		BeforeJSON:   toJSON(before),
		AfterJSON:    toJSON(after),
		CreatedAt:    p.now(),
	})
}

// writeAudit はリモートの変更が済んだ後なので、失敗してもログだけ残す
func writeAudit(ctx context.Context, auditRepo repo.AuditLogRepository, log *zap.Logger, entry model.AuditLog) {
	if err := auditRepo.Create(ctx, entry); err != nil {
		log.Error("write audit log",
			zap.String("resource_type", entry.ResourceType),
			zap.Int64("resource_id", entry.ResourceID),
			zap.Error(err),
		)
	}
}

func toJSON(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

type OrderStatusAPI interface {
	UpdateOrderStatus(ctx context.Context, token string, id int64, status model.OrderStatus, adminNotes string) (model.Order, error)
}

// OrderPanel は注文の管理画面（ステータス変更つき）
type OrderPanel struct {
	*Panel[model.Order]
	status OrderStatusAPI
}

type AdminUpdateOrderStatusInput struct {
	Status     string `json:"status"`
	AdminNotes string `json:"admin_notes"`
}

// UpdateStatus はステータス名だけ確かめる。遷移の可否はAPIが判断する。
func (p *OrderPanel) UpdateStatus(ctx context.Context, s *model.Session, id int64, in AdminUpdateOrderStatusInput) (PanelResult[model.Order], error) {
	user, err := admin(s)
	if err != nil {
		return PanelResult[model.Order]{}, err
	}
	if id <= 0 {
		return PanelResult[model.Order]{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	status := model.OrderStatus(strings.TrimSpace(in.Status))
	if !status.IsValid() {
		return PanelResult[model.Order]{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var beforeStatus string
	if o, err := p.api.Get(ctx, s.Token, id); err == nil {
		beforeStatus = string(o.Status)
	}

	updated, err := p.status.UpdateOrderStatus(ctx, s.Token, id, status, strings.TrimSpace(in.AdminNotes))
	if err != nil {
		return PanelResult[model.Order]{}, remoteError(ctx, p.auth, s, err)
	}

	afterStatus := string(updated.Status)
	if afterStatus == "" {
		afterStatus = string(status)
	}
	writeAudit(ctx, p.auditRepo, p.log, model.AuditLog{
		ActorUserID:  user.ID,
		Action:       model.AuditActionUpdateStatus,
		ResourceType: p.api.Name(),
		ResourceID:   id,
		BeforeJSON:   toJSON(map[string]string{"status": beforeStatus}),
		AfterJSON:    toJSON(map[string]string{"status": afterStatus}),
		CreatedAt:    p.now(),
	})
	return p.refetch(ctx, s, "status updated")
}

type SettingsAdminAPI interface {
	GetSettings(ctx context.Context) (model.Settings, error)
	UpdateSettings(ctx context.Context, token string, s model.Settings) (model.Settings, error)
}

// SettingsCache は更新後に捨てるキャッシュ（SettingsUsecase）
type SettingsCache interface {
	Invalidate(ctx context.Context) error
}

// SettingsPanel は単一リソースの設定画面
type SettingsPanel struct {
	api       SettingsAdminAPI
	cache     SettingsCache
	auth      SessionExpirer
	auditRepo repo.AuditLogRepository
	log       *zap.Logger
	now       func() time.Time
}

// SettingsResult は設定とバナー
type SettingsResult struct {
	Settings model.Settings `json:"data"`
	Message  string         `json:"message,omitempty"`
}

func (p *SettingsPanel) Get(ctx context.Context, s *model.Session) (model.Settings, error) {
	if _, err := admin(s); err != nil {
		return model.Settings{}, err
	}
	// 管理画面はキャッシュを通さない
	settings, err := p.api.GetSettings(ctx)
	if err != nil {
		return model.Settings{}, fromAPIError(err)
	}
	return settings, nil
}

func (p *SettingsPanel) Update(ctx context.Context, s *model.Session, in model.Settings) (SettingsResult, error) {
	user, err := admin(s)
	if err != nil {
		return SettingsResult{}, err
	}
	if in.DeliveryFeeNCR.IsNegative() || in.DeliveryFeeOutsideNCR.IsNegative() || in.FreeDeliveryThreshold.IsNegative() {
		return SettingsResult{}, NewHTTPError(http.StatusBadRequest, "fees must not be negative")
	}

	var before any
	if v, err := p.api.GetSettings(ctx); err == nil {
		before = v
	}

	updated, err := p.api.UpdateSettings(ctx, s.Token, in)
	if err != nil {
		return SettingsResult{}, remoteError(ctx, p.auth, s, err)
	}
	if err := p.cache.Invalidate(ctx); err != nil {
		p.log.Warn("settings cache invalidate", zap.Error(err))
	}

	writeAudit(ctx, p.auditRepo, p.log, model.AuditLog{
		ActorUserID:  user.ID,
		Action:       model.AuditActionUpdate,
		ResourceType: "settings",
		BeforeJSON:   toJSON(before),
		AfterJSON:    toJSON(updated),
		CreatedAt:    p.now(),
	})
	return SettingsResult{Settings: updated, Message: "Settings updated successfully"}, nil
}

// AdminAPI は管理画面が使うリモートAPI全部（*apiclient.Client）
type AdminAPI interface {
	OrderStatusAPI
	SettingsAdminAPI
}

// AdminUsecase は管理画面のパネル一式と監査ログの参照
type AdminUsecase struct {
	Products      *Panel[model.Product]
	Orders        *OrderPanel
	Announcements *Panel[model.Announcement]
	Carousel      *Panel[model.CarouselSlide]
	Users         *Panel[model.User]
	Settings      *SettingsPanel

	auditRepo repo.AuditLogRepository
}

// AdminResources はパネルごとのCRUD先
type AdminResources struct {
	Products      AdminResourceAPI[model.Product]
	Orders        AdminResourceAPI[model.Order]
	Announcements AdminResourceAPI[model.Announcement]
	Carousel      AdminResourceAPI[model.CarouselSlide]
	Users         AdminResourceAPI[model.User]
}

// NewAdminResources は apiclient からCRUD先を作る
func NewAdminResources(c *apiclient.Client) AdminResources {
	return AdminResources{
		Products:      apiclient.NewAdminResource[model.Product](c, "products"),
		Orders:        apiclient.NewAdminResource[model.Order](c, "orders"),
		Announcements: apiclient.NewAdminResource[model.Announcement](c, "announcements"),
		Carousel:      apiclient.NewAdminResource[model.CarouselSlide](c, "hero-carousel"),
		Users:         apiclient.NewAdminResource[model.User](c, "users"),
	}
}

// DI
func NewAdminUsecase(res AdminResources, api AdminAPI, cache SettingsCache, auth SessionExpirer, auditRepo repo.AuditLogRepository, log *zap.Logger) *AdminUsecase {
	return &AdminUsecase{
		Products: NewPanel(res.Products, "Product", func(p model.Product) int64 { return p.ID }, auth, auditRepo, log),
		Orders: &OrderPanel{
			Panel:  NewPanel(res.Orders, "Order", func(o model.Order) int64 { return o.ID }, auth, auditRepo, log),
			status: api,
		},
		Announcements: NewPanel(res.Announcements, "Announcement", func(a model.Announcement) int64 { return a.ID }, auth, auditRepo, log),
		Carousel:      NewPanel(res.Carousel, "Slide", func(c model.CarouselSlide) int64 { return c.ID }, auth, auditRepo, log),
		Users:         NewPanel(res.Users, "User", func(u model.User) int64 { return u.ID }, auth, auditRepo, log),
		Settings: &SettingsPanel{
			api:       api,
			cache:     cache,
			auth:      auth,
			auditRepo: auditRepo,
			log:       log,
			now:       time.Now,
		},
		auditRepo: auditRepo,
	}
}

// AuditLogs は監査ログの一覧（新しい順）
func (u *AdminUsecase) AuditLogs(ctx context.Context, s *model.Session, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	if _, err := admin(s); err != nil {
		return nil, err
	}
	if f.Limit < 0 || f.Limit > 200 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Offset < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}
	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return logs, nil
}
