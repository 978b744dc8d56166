package cache

import (
	"context"
	"fmt"
	"time"
)

// Store はJSONで値を出し入れするキャッシュ。
// Get はキーが無ければ (false, nil)。
type Store interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

const (
	// settings -> model.Settings
	KeySettings = "storefront:settings"

	// 住所リスト: storefront:address:{kind}:{parent_code}
	KeyAddress = "storefront:address:%s:%s"
)

// AddressKey は住所リストのキー
func AddressKey(kind, parent string) string {
	return fmt.Sprintf(KeyAddress, kind, parent)
}
