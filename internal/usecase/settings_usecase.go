package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"storefront/internal/checkout"
	"storefront/internal/domain/model"
	"storefront/internal/infra/cache"
)

type SettingsAPI interface {
	GetSettings(ctx context.Context) (model.Settings, error)
}

// SettingsUsecase は送料・説明文の設定をキャッシュして返す
type SettingsUsecase struct {
	api   SettingsAPI
	store cache.Store
	ttl   time.Duration
	log   *zap.Logger
	group singleflight.Group
}

// DI
func NewSettingsUsecase(api SettingsAPI, store cache.Store, ttl time.Duration, log *zap.Logger) *SettingsUsecase {
	return &SettingsUsecase{api: api, store: store, ttl: ttl, log: log}
}

// Get はキャッシュになければ1回だけ取りに行く（同時呼び出しはまとめる）
func (u *SettingsUsecase) Get(ctx context.Context) (model.Settings, error) {
	var s model.Settings
	ok, err := u.store.Get(ctx, cache.KeySettings, &s)
	if err != nil {
		u.log.Warn("settings cache get", zap.Error(err))
	}
	if ok {
		return s, nil
	}

	v, err, _ := u.group.Do(cache.KeySettings, func() (any, error) {
		fetched, err := u.api.GetSettings(ctx)
		if err != nil {
			return nil, err
		}
		if err := u.store.Set(ctx, cache.KeySettings, fetched, u.ttl); err != nil {
			u.log.Warn("settings cache set", zap.Error(err))
		}
		return fetched, nil
	})
	if err != nil {
		return model.Settings{}, fromAPIError(err)
	}
	return v.(model.Settings), nil
}

// Invalidate は管理画面で更新した後に呼ぶ
func (u *SettingsUsecase) Invalidate(ctx context.Context) error {
	return u.store.Delete(ctx, cache.KeySettings)
}

func (u *SettingsUsecase) ShippingFee(ctx context.Context, province string) (decimal.Decimal, error) {
	s, err := u.Get(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return checkout.ShippingFee(s, province), nil
}

func (u *SettingsUsecase) GrandTotal(ctx context.Context, subtotal decimal.Decimal, province string) (decimal.Decimal, error) {
	s, err := u.Get(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return checkout.GrandTotal(subtotal, s, province), nil
}
