package address

import (
	"context"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"storefront/internal/apiclient"
	"storefront/internal/domain/model"
	"storefront/internal/infra/cache"
)

const (
	// Metro Manila は州ではなく地域なので、州リストに疑似コードで載せる
	NCRCode       = "NCR"
	ncrRegionCode = "130000000"
)

// psgcItem はPSGC APIの1件（使う項目だけ）
type psgcItem struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Directory は州・市・バランガイの検索（結果はキャッシュする）
type Directory struct {
	api   *apiclient.Client
	store cache.Store
	ttl   time.Duration
	log   *zap.Logger
}

func NewDirectory(api *apiclient.Client, store cache.Store, ttl time.Duration, log *zap.Logger) *Directory {
	return &Directory{api: api, store: store, ttl: ttl, log: log}
}

// Provinces は州の一覧。先頭に Metro Manila を入れる。
func (d *Directory) Provinces(ctx context.Context) ([]model.AddressOption, error) {
	opts, err := d.list(ctx, "provinces", "all", "/provinces.json")
	if err != nil {
		return nil, err
	}
	return append([]model.AddressOption{{Code: NCRCode, Name: model.MetroManila}}, opts...), nil
}

// Cities は州コードから市・町の一覧
func (d *Directory) Cities(ctx context.Context, provinceCode string) ([]model.AddressOption, error) {
	path := "/provinces/" + provinceCode + "/cities-municipalities.json"
	if provinceCode == NCRCode {
		path = "/regions/" + ncrRegionCode + "/cities-municipalities.json"
	}
	return d.list(ctx, "cities", provinceCode, path)
}

// Barangays は市コードからバランガイの一覧
func (d *Directory) Barangays(ctx context.Context, cityCode string) ([]model.AddressOption, error) {
	return d.list(ctx, "barangays", cityCode, "/cities-municipalities/"+cityCode+"/barangays.json")
}

func (d *Directory) list(ctx context.Context, kind, parent, path string) ([]model.AddressOption, error) {
	key := cache.AddressKey(kind, parent)

	var cached []model.AddressOption
	if ok, err := d.store.Get(ctx, key, &cached); err != nil {
		d.log.Warn("address cache get", zap.String("key", key), zap.Error(err))
	} else if ok {
		return cached, nil
	}

	var items []psgcItem
	if err := d.api.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: path}, &items); err != nil {
		return nil, err
	}

	opts := make([]model.AddressOption, 0, len(items))
	for _, it := range items {
		opts = append(opts, model.AddressOption{Code: it.Code, Name: it.Name})
	}
	sort.Slice(opts, func(i, j int) bool { return opts[i].Name < opts[j].Name })

	if err := d.store.Set(ctx, key, opts, d.ttl); err != nil {
		d.log.Warn("address cache set", zap.String("key", key), zap.Error(err))
	}
	return opts, nil
}
